// Package filter parses the simplified filter syntax accepted by the query
// tools: `key<op>value` conditions joined with AND, e.g.
//
//	k8s.deployment.name=checkout AND level=error AND body~"timed out"
package filter

import (
	"regexp"
	"strings"
)

// Class is where an attribute physically lives in the backend.
type Class string

const (
	ClassResource Class = "resource"
	ClassTag      Class = "tag"
	ClassColumn   Class = "column"
)

// Operator is a parsed comparison operator, independent of any backend dialect.
type Operator string

const (
	Equals    Operator = "equals"
	NotEquals Operator = "not_equals"
	Contains  Operator = "contains"
	Greater   Operator = "gt"
	Less      Operator = "lt"
	GreaterEq Operator = "gte"
	LessEq    Operator = "lte"
)

// Signal selects the backend filter dialect.
type Signal string

const (
	SignalLogs    Signal = "logs"
	SignalMetrics Signal = "metrics"
	SignalTraces  Signal = "traces"
)

// symbols are matched longest first so that "!=" wins over "=" and ">=" over ">".
var symbols = []struct {
	text string
	op   Operator
}{
	{"!=", NotEquals},
	{">=", GreaterEq},
	{"<=", LessEq},
	{"=", Equals},
	{"~", Contains},
	{">", Greater},
	{"<", Less},
}

var andRe = regexp.MustCompile(`(?i)\s+AND\s+`)

// Predicate is a single parsed condition.
type Predicate struct {
	Key      string
	Class    Class
	Operator Operator
	Value    string
}

// IsColumn reports whether the key is a physical column rather than a
// dynamic attribute.
func (p Predicate) IsColumn() bool { return p.Class == ClassColumn }

// Parse splits expr on AND and parses each segment. Segments that do not
// match `key<op>value` are skipped.
func Parse(expr string) []Predicate {
	if strings.TrimSpace(expr) == "" {
		return nil
	}
	var preds []Predicate
	for _, part := range andRe.Split(expr, -1) {
		if p, ok := parseSegment(part); ok {
			preds = append(preds, p)
		}
	}
	return preds
}

// ReferencesKey reports whether any predicate filters on one of keys.
func ReferencesKey(preds []Predicate, keys ...string) bool {
	for _, p := range preds {
		for _, k := range keys {
			if p.Key == k {
				return true
			}
		}
	}
	return false
}

func parseSegment(part string) (Predicate, bool) {
	// the key is the shortest non-empty prefix followed by an operator
	for i := 1; i < len(part); i++ {
		for _, sym := range symbols {
			if !strings.HasPrefix(part[i:], sym.text) {
				continue
			}
			rawValue := part[i+len(sym.text):]
			if rawValue == "" {
				return Predicate{}, false
			}
			key := strings.TrimSpace(part[:i])
			if key == "" {
				return Predicate{}, false
			}
			return Predicate{
				Key:      key,
				Class:    Classify(key),
				Operator: sym.op,
				Value:    unquote(strings.TrimSpace(rawValue)),
			}, true
		}
	}
	return Predicate{}, false
}

func unquote(v string) string {
	if len(v) >= 2 {
		first, last := v[0], v[len(v)-1]
		if (first == '"' || first == '\'') && first == last {
			return v[1 : len(v)-1]
		}
	}
	return v
}

// Classify decides the attribute class from the key name alone.
func Classify(key string) Class {
	switch {
	case key == "body" || key == "timestamp":
		return ClassColumn
	case strings.HasPrefix(key, "k8s."), strings.Contains(key, ".name"), key == "service":
		return ClassResource
	default:
		return ClassTag
	}
}

// ForSignal returns the backend operator token for the given dialect. Logs
// express equality as set membership (in/nin); metrics use =/!=.
func (o Operator) ForSignal(s Signal) string {
	switch o {
	case Equals:
		if s == SignalLogs {
			return "in"
		}
		return "="
	case NotEquals:
		if s == SignalLogs {
			return "nin"
		}
		return "!="
	case Contains:
		return "contains"
	case Greater:
		return ">"
	case Less:
		return "<"
	case GreaterEq:
		return ">="
	case LessEq:
		return "<="
	default:
		return string(o)
	}
}

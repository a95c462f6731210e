package timeutil

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const legacyPrefix = "now-"

var (
	relativeRe = regexp.MustCompile(`^(\d+)([smhd])$`)
	epochRe    = regexp.MustCompile(`^\d{10,13}$`)
)

var unitMillis = map[string]int64{
	"s": 1000,
	"m": 60 * 1000,
	"h": 60 * 60 * 1000,
	"d": 24 * 60 * 60 * 1000,
}

// layouts tried, in order, for absolute date strings.
var layouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.000Z",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	time.RFC1123Z,
	time.RFC1123,
	time.RFC850,
	time.ANSIC,
}

// Expr is a raw time expression as supplied by a caller: either text
// ("30m", "now-1h", "2024-01-20T10:00:00Z", "1705744800000") or an
// already-absolute millisecond timestamp. The zero value means "now".
type Expr struct {
	text     string
	millis   int64
	isMillis bool
}

// Text wraps a textual time expression.
func Text(s string) Expr { return Expr{text: s} }

// Millis wraps an absolute epoch-millisecond timestamp.
func Millis(ms int64) Expr { return Expr{millis: ms, isMillis: true} }

// IsZero reports whether the expression is empty.
func (e Expr) IsZero() bool { return !e.isMillis && e.text == "" }

// Or returns e, or def when e is empty.
func (e Expr) Or(def string) Expr {
	if e.IsZero() {
		return Text(def)
	}
	return e
}

func (e Expr) String() string {
	if e.isMillis {
		return strconv.FormatInt(e.millis, 10)
	}
	return e.text
}

// Resolve turns a time expression into epoch milliseconds relative to now.
//
// Malformed input never fails: anything that cannot be parsed resolves to now.
func Resolve(e Expr, now time.Time) int64 {
	if e.isMillis {
		return e.millis
	}
	nowMs := now.UnixMilli()
	input := strings.TrimSpace(e.text)
	if input == "" {
		return nowMs
	}

	rel := strings.TrimPrefix(input, legacyPrefix)
	if m := relativeRe.FindStringSubmatch(rel); m != nil {
		value, err := strconv.ParseInt(m[1], 10, 64)
		if err == nil {
			return nowMs - value*unitMillis[m[2]]
		}
	}

	if epochRe.MatchString(input) {
		if ms, err := strconv.ParseInt(input, 10, 64); err == nil {
			return ms
		}
	}

	for _, layout := range layouts {
		if t, err := time.Parse(layout, input); err == nil {
			return t.UnixMilli()
		}
	}
	return nowMs
}

// Range is a resolved [Start, End) window in epoch milliseconds.
type Range struct {
	Start int64
	End   int64
}

// RangeErrorKind classifies a TimeRangeError.
type RangeErrorKind string

const Inverted RangeErrorKind = "Inverted"

// TimeRangeError is returned when a resolved start does not precede its end.
type TimeRangeError struct {
	Kind  RangeErrorKind
	Start string
	End   string
}

func (e *TimeRangeError) Error() string {
	if e.Start == e.End {
		return fmt.Sprintf("Invalid time range: start and end are the same (%s)", e.Start)
	}
	return fmt.Sprintf("Invalid time range: start (%s) must be before end (%s)", e.Start, e.End)
}

// ResolveRange resolves both ends against the same instant and checks ordering.
func ResolveRange(start, end Expr, now time.Time) (Range, error) {
	r := Range{Start: Resolve(start, now), End: Resolve(end, now)}
	if r.Start >= r.End {
		return Range{}, &TimeRangeError{Kind: Inverted, Start: start.String(), End: end.String()}
	}
	return r, nil
}

// UnitWarnings flags timestamps that look like they were given in the wrong
// unit: values over a year old that would be plausible as epoch seconds, and
// values more than a year ahead of now.
func UnitWarnings(r Range, now time.Time) []string {
	year := int64(365 * 24 * time.Hour / time.Millisecond)
	nowMs := now.UnixMilli()
	yearAgo, yearAhead := nowMs-year, nowMs+year

	var warnings []string
	if r.Start < yearAgo || r.End < yearAgo {
		if asSeconds := r.Start * 1000; asSeconds > yearAgo && asSeconds < yearAhead {
			warnings = append(warnings, fmt.Sprintf(
				"timestamp %d (%s) is very old; if it is a Unix timestamp in seconds, multiply by 1000",
				r.Start, FormatMillis(r.Start)))
		}
	}
	if r.Start > yearAhead || r.End > yearAhead {
		warnings = append(warnings, fmt.Sprintf("timestamp is far in the future: %s", FormatMillis(max(r.Start, r.End))))
	}
	return warnings
}

// ParseStep parses a step like "30s" or "5m" into seconds, defaulting to 60.
func ParseStep(step string) int64 {
	m := relativeRe.FindStringSubmatch(strings.TrimSpace(step))
	if m == nil {
		return 60
	}
	value, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 60
	}
	return value * unitMillis[m[2]] / 1000
}

// ParseTimeRange parses time range strings like "2h", "2d", "30m", "7d",
// optionally prefixed with "now-".
// Returns duration or error
func ParseTimeRange(timeRange string) (time.Duration, error) {
	timeRange = strings.TrimPrefix(strings.TrimSpace(timeRange), legacyPrefix)
	duration, err := time.ParseDuration(timeRange)
	if err == nil && duration > 0 {
		return duration, nil
	}

	if len(timeRange) > 1 && timeRange[len(timeRange)-1] == 'd' {
		days := timeRange[:len(timeRange)-1]
		if numDays, err := strconv.Atoi(days); err == nil && numDays > 0 {
			return time.Duration(numDays) * 24 * time.Hour, nil
		}
	}

	return 0, fmt.Errorf("invalid time range format %q: use formats like '2h', '30m', '2d', '7d'", timeRange)
}

const isoMillis = "2006-01-02T15:04:05.000Z"

// FormatMillis renders epoch milliseconds as an ISO-8601 UTC string.
func FormatMillis(ms int64) string {
	return time.UnixMilli(ms).UTC().Format(isoMillis)
}

// FormatTimestamp renders a backend timestamp. Strings pass through as-is,
// numbers above 1e15 are nanoseconds, smaller numbers are milliseconds.
// An absent timestamp renders as "unknown".
func FormatTimestamp(v any) string {
	var n float64
	switch t := v.(type) {
	case nil:
		return "unknown"
	case string:
		if t == "" {
			return "unknown"
		}
		return t
	case float64:
		n = t
	case int64:
		n = float64(t)
	case int:
		n = float64(t)
	case interface{ Float64() (float64, error) }:
		f, err := t.Float64()
		if err != nil {
			return fmt.Sprint(v)
		}
		n = f
	default:
		return fmt.Sprint(v)
	}
	if n == 0 {
		return "unknown"
	}
	if n > 1e15 {
		return time.Unix(0, int64(n)).UTC().Format(isoMillis)
	}
	return FormatMillis(int64(n))
}

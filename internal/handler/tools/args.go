package tools

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/SigNoz/signoz-query-mcp/pkg/format"
	"github.com/SigNoz/signoz-query-mcp/pkg/paginate"
	"github.com/SigNoz/signoz-query-mcp/pkg/timeutil"
)

// Tool names exposed over MCP.
const (
	ToolQueryLogs                = "query_logs"
	ToolQueryMetrics             = "query_metrics"
	ToolQueryTraces              = "query_traces"
	ToolDiscoverLogAttributes    = "discover_log_attributes"
	ToolDiscoverMetrics          = "discover_metrics"
	ToolDiscoverMetricAttributes = "discover_metric_attributes"
	ToolTestConnection           = "test_connection"
	ToolHelp                     = "help"
)

// LogLevels accepted by the level argument of query_logs.
var LogLevels = []string{"error", "warn", "info", "debug", "trace"}

// ToolArgs is the decoded argument set of one tool call. Each tool has its
// own concrete type.
type ToolArgs interface {
	ToolName() string
}

type QueryLogsArgs struct {
	Query             string
	Start             timeutil.Expr
	End               timeutil.Expr
	Limit             int
	Verbose           bool
	IncludeAttributes []string
	ExcludeAttributes []string
	Level             string
}

type QueryMetricsArgs struct {
	Metrics     []string
	Query       string
	Aggregation string
	GroupBy     []string
	Start       timeutil.Expr
	End         timeutil.Expr
	Step        string
}

type QueryTracesArgs struct {
	Query string
	Start timeutil.Expr
	End   timeutil.Expr
	Limit int
}

type DiscoverLogAttributesArgs struct {
	SampleSize int
	TimeRange  string
}

type DiscoverMetricsArgs struct {
	TimeRange string
	Limit     int
	Offset    int
}

type DiscoverMetricAttributesArgs struct {
	MetricName string
}

type TestConnectionArgs struct{}

type HelpArgs struct {
	Topic string
}

func (QueryLogsArgs) ToolName() string                { return ToolQueryLogs }
func (QueryMetricsArgs) ToolName() string             { return ToolQueryMetrics }
func (QueryTracesArgs) ToolName() string              { return ToolQueryTraces }
func (DiscoverLogAttributesArgs) ToolName() string    { return ToolDiscoverLogAttributes }
func (DiscoverMetricsArgs) ToolName() string          { return ToolDiscoverMetrics }
func (DiscoverMetricAttributesArgs) ToolName() string { return ToolDiscoverMetricAttributes }
func (TestConnectionArgs) ToolName() string           { return ToolTestConnection }
func (HelpArgs) ToolName() string                     { return ToolHelp }

// ParseToolArgs decodes the loosely typed argument bag of a tool call.
// Absent arguments are left at their zero value; the facade applies
// defaults. Values of the wrong type are rejected with a message that says
// how to fix the call.
func ParseToolArgs(tool string, raw map[string]any) (ToolArgs, error) {
	if raw == nil {
		raw = map[string]any{}
	}
	p := argParser{raw: raw}

	var out ToolArgs
	switch tool {
	case ToolQueryLogs:
		a := QueryLogsArgs{
			Query:             p.str("query"),
			Start:             p.timeExpr("start"),
			End:               p.timeExpr("end"),
			Limit:             p.number("limit"),
			Verbose:           p.flag("verbose"),
			IncludeAttributes: p.list("include_attributes"),
			ExcludeAttributes: p.list("exclude_attributes"),
			Level:             strings.ToLower(p.str("level")),
		}
		if a.Level != "" && !slices.Contains(LogLevels, a.Level) {
			p.fail(fmt.Errorf("invalid \"level\" value %q: must be one of %s", a.Level, strings.Join(LogLevels, ", ")))
		}
		out = a
	case ToolQueryMetrics:
		out = QueryMetricsArgs{
			Metrics:     p.list("metric"),
			Query:       p.str("query"),
			Aggregation: p.str("aggregation"),
			GroupBy:     p.list("group_by"),
			Start:       p.timeExpr("start"),
			End:         p.timeExpr("end"),
			Step:        p.str("step"),
		}
	case ToolQueryTraces:
		out = QueryTracesArgs{
			Query: p.str("query"),
			Start: p.timeExpr("start"),
			End:   p.timeExpr("end"),
			Limit: p.number("limit"),
		}
	case ToolDiscoverLogAttributes:
		out = DiscoverLogAttributesArgs{
			SampleSize: p.number("sample_size"),
			TimeRange:  p.str("time_range"),
		}
	case ToolDiscoverMetrics:
		limit, offset := paginate.ParseParams(raw, paginate.DefaultLimit)
		out = DiscoverMetricsArgs{
			TimeRange: p.str("time_range"),
			Limit:     limit,
			Offset:    offset,
		}
	case ToolDiscoverMetricAttributes:
		name := strings.TrimSpace(p.str("metric_name"))
		if name == "" && p.err == nil {
			p.fail(fmt.Errorf(`"metric_name" is required. Example: {"metric_name": "http_server_duration"}. Use discover_metrics to find available metrics`))
		}
		out = DiscoverMetricAttributesArgs{MetricName: name}
	case ToolTestConnection:
		out = TestConnectionArgs{}
	case ToolHelp:
		topic := p.str("topic")
		if topic != "" && !slices.Contains(format.HelpTopics, topic) {
			p.fail(fmt.Errorf("invalid \"topic\" value %q: must be one of %s", topic, strings.Join(format.HelpTopics, ", ")))
		}
		out = HelpArgs{Topic: topic}
	default:
		return nil, fmt.Errorf("unknown tool: %s", tool)
	}

	if p.err != nil {
		return nil, p.err
	}
	return out, nil
}

// argParser records the first decoding failure so that ParseToolArgs can
// read every field without checking after each one.
type argParser struct {
	raw map[string]any
	err error
}

func (p *argParser) fail(err error) {
	if p.err == nil {
		p.err = err
	}
}

func (p *argParser) str(key string) string {
	switch v := p.raw[key].(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		p.fail(fmt.Errorf("invalid %q value: expected a string, got %T", key, v))
		return ""
	}
}

func (p *argParser) number(key string) int {
	switch v := p.raw[key].(type) {
	case nil:
		return 0
	case float64:
		if v != math.Trunc(v) {
			p.fail(fmt.Errorf("invalid %q value %v: must be a whole number", key, v))
			return 0
		}
		return int(v)
	case int:
		return v
	case int64:
		return int(v)
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return 0
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			p.fail(fmt.Errorf("invalid %q value %q: must be a number", key, v))
			return 0
		}
		return n
	default:
		p.fail(fmt.Errorf("invalid %q value: expected a number, got %T", key, v))
		return 0
	}
}

func (p *argParser) flag(key string) bool {
	switch v := p.raw[key].(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		return strings.EqualFold(strings.TrimSpace(v), "true")
	default:
		p.fail(fmt.Errorf("invalid %q value: expected true or false, got %T", key, v))
		return false
	}
}

// list accepts a JSON array of strings or a comma-separated string.
func (p *argParser) list(key string) []string {
	switch v := p.raw[key].(type) {
	case nil:
		return nil
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				// blank names are reported later with a count
				s = ""
				if item != nil {
					s = fmt.Sprint(item)
				}
			}
			out = append(out, s)
		}
		return out
	case string:
		if strings.TrimSpace(v) == "" {
			return nil
		}
		parts := strings.Split(v, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts
	default:
		p.fail(fmt.Errorf("invalid %q value: expected an array of strings, got %T", key, v))
		return nil
	}
}

// timeExpr keeps numbers as absolute milliseconds and everything else as text.
func (p *argParser) timeExpr(key string) timeutil.Expr {
	switch v := p.raw[key].(type) {
	case nil:
		return timeutil.Expr{}
	case float64:
		return timeutil.Millis(int64(v))
	case int64:
		return timeutil.Millis(v)
	case int:
		return timeutil.Millis(int64(v))
	case string:
		return timeutil.Text(v)
	default:
		p.fail(fmt.Errorf("invalid %q value: expected a time string or a millisecond timestamp, got %T", key, v))
		return timeutil.Expr{}
	}
}


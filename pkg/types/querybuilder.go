package types

import (
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/SigNoz/signoz-query-mcp/pkg/filter"
	"github.com/SigNoz/signoz-query-mcp/pkg/timeutil"
)

// QueryRangeRequest is the payload of POST /api/v4/query_range.
type QueryRangeRequest struct {
	Start          int64          `json:"start"`
	End            int64          `json:"end"`
	Step           int64          `json:"step"`
	CompositeQuery CompositeQuery `json:"compositeQuery"`
	Variables      map[string]any `json:"variables"`
	DataSource     string         `json:"dataSource,omitempty"`
}

type CompositeQuery struct {
	QueryType      string                   `json:"queryType"`
	PanelType      string                   `json:"panelType"`
	FillGaps       bool                     `json:"fillGaps"`
	BuilderQueries map[string]*BuilderQuery `json:"builderQueries"`
}

type BuilderQuery struct {
	QueryName          string         `json:"queryName"`
	DataSource         string         `json:"dataSource"`
	AggregateOperator  string         `json:"aggregateOperator"`
	AggregateAttribute AttributeKey   `json:"aggregateAttribute"`
	TimeAggregation    string         `json:"timeAggregation,omitempty"`
	SpaceAggregation   string         `json:"spaceAggregation,omitempty"`
	Functions          []any          `json:"functions"`
	Filters            FilterSet      `json:"filters"`
	Expression         string         `json:"expression"`
	Disabled           bool           `json:"disabled"`
	StepInterval       int64          `json:"stepInterval"`
	Having             []any          `json:"having"`
	Limit              *int           `json:"limit"`
	OrderBy            []OrderBy      `json:"orderBy"`
	GroupBy            []AttributeKey `json:"groupBy"`
	Legend             string         `json:"legend"`
	ReduceTo           string         `json:"reduceTo,omitempty"`
}

type AttributeKey struct {
	Key      string `json:"key"`
	DataType string `json:"dataType"`
	Type     string `json:"type"`
	IsColumn bool   `json:"isColumn"`
	IsJSON   bool   `json:"isJSON"`
	ID       string `json:"id,omitempty"`
}

type FilterSet struct {
	Op    string       `json:"op"`
	Items []FilterItem `json:"items"`
}

type FilterItem struct {
	ID    string       `json:"id"`
	Key   AttributeKey `json:"key"`
	Op    string       `json:"op"`
	Value any          `json:"value"`
}

type OrderBy struct {
	ColumnName string `json:"columnName"`
	Order      string `json:"order"`
}

const (
	QueryTypeBuilder = "builder"

	PanelList  = "list"
	PanelGraph = "graph"
	PanelTrace = "trace"

	DefaultStepSeconds  = 60
	DefaultAggregation  = "avg"
	DefaultLogsQueryKey = "A"
)

// Aggregations accepted by query_metrics.
var Aggregations = []string{"avg", "min", "max", "sum", "count"}

// Validate performs the basic shape checks the backend would otherwise
// reject with an opaque 400.
func (q *QueryRangeRequest) Validate() error {
	if q.Start <= 0 || q.End <= 0 {
		return fmt.Errorf("missing start or end timestamp")
	}
	if q.Start >= q.End {
		return fmt.Errorf("start (%d) must be before end (%d)", q.Start, q.End)
	}
	if q.CompositeQuery.QueryType != QueryTypeBuilder {
		return fmt.Errorf("unsupported queryType %q", q.CompositeQuery.QueryType)
	}
	if q.CompositeQuery.PanelType == PanelTrace {
		return nil
	}
	if len(q.CompositeQuery.BuilderQueries) == 0 {
		return fmt.Errorf("missing or empty compositeQuery.builderQueries")
	}

	for name, bq := range q.CompositeQuery.BuilderQueries {
		if bq == nil {
			return fmt.Errorf("%s: builder query is nil", name)
		}
		switch filter.Signal(bq.DataSource) {
		case filter.SignalLogs, filter.SignalMetrics, filter.SignalTraces:
		default:
			return fmt.Errorf("%s: unknown data source '%s'", name, bq.DataSource)
		}
		if bq.QueryName != name || bq.Expression != name {
			return fmt.Errorf("%s: queryName and expression must match the map key", name)
		}
		if bq.StepInterval <= 0 {
			return fmt.Errorf("%s: stepInterval must be positive", name)
		}
	}
	return nil
}

// BuildLogsRequest creates a list query for raw log lines, newest first.
func BuildLogsRequest(filterExpr string, r timeutil.Range, limit int) *QueryRangeRequest {
	return &QueryRangeRequest{
		Start: r.Start,
		End:   r.End,
		Step:  DefaultStepSeconds,
		CompositeQuery: CompositeQuery{
			QueryType: QueryTypeBuilder,
			PanelType: PanelList,
			BuilderQueries: map[string]*BuilderQuery{
				DefaultLogsQueryKey: {
					QueryName:          DefaultLogsQueryKey,
					DataSource:         string(filter.SignalLogs),
					AggregateOperator:  "noop",
					AggregateAttribute: AttributeKey{},
					Functions:          []any{},
					Filters:            buildFilterSet(filter.Parse(filterExpr), filter.SignalLogs),
					Expression:         DefaultLogsQueryKey,
					StepInterval:       DefaultStepSeconds,
					Having:             []any{},
					Limit:              &limit,
					OrderBy:            []OrderBy{{ColumnName: "timestamp", Order: "desc"}},
					GroupBy:            []AttributeKey{},
				},
			},
		},
		Variables:  map[string]any{},
		DataSource: string(filter.SignalLogs),
	}
}

// MetricsQuery holds the parsed parameters of a query_metrics call.
type MetricsQuery struct {
	Metrics     []string
	Filter      string
	GroupBy     []string
	Aggregation string
	Range       timeutil.Range
	StepSeconds int64
}

// BuildMetricsRequest creates one builder query per metric, named A, B, C...
// All queries share the same filters and group-by attributes.
func BuildMetricsRequest(q MetricsQuery) (*QueryRangeRequest, error) {
	if err := ValidateMetricNames(q.Metrics); err != nil {
		return nil, err
	}

	aggregation := q.Aggregation
	if aggregation == "" {
		aggregation = DefaultAggregation
	}
	if !slices.Contains(Aggregations, aggregation) {
		return nil, &InputValidationError{Kind: InvalidAggregation, Field: "aggregation", Value: aggregation}
	}

	step := q.StepSeconds
	if step <= 0 {
		step = DefaultStepSeconds
	}

	preds := filter.Parse(q.Filter)
	groupBy := make([]AttributeKey, 0, len(q.GroupBy))
	for _, attr := range q.GroupBy {
		groupBy = append(groupBy, AttributeKey{
			Key:      attr,
			DataType: "string",
			Type:     "tag",
			ID:       fmt.Sprintf("%s--string--tag--false", attr),
		})
	}

	queries := make(map[string]*BuilderQuery, len(q.Metrics))
	for i, metric := range q.Metrics {
		name := QueryName(i)
		legend := ""
		if len(q.Metrics) > 1 {
			legend = metric
		}
		queries[name] = &BuilderQuery{
			QueryName:         name,
			DataSource:        string(filter.SignalMetrics),
			AggregateOperator: aggregation,
			AggregateAttribute: AttributeKey{
				Key:      metric,
				DataType: "float64",
				Type:     "Gauge",
				IsColumn: true,
				ID:       fmt.Sprintf("%s--float64--Gauge--true", metric),
			},
			TimeAggregation:  aggregation,
			SpaceAggregation: aggregation,
			Functions:        []any{},
			Filters:          buildFilterSet(preds, filter.SignalMetrics),
			Expression:       name,
			StepInterval:     step,
			Having:           []any{},
			OrderBy:          []OrderBy{},
			GroupBy:          groupBy,
			Legend:           legend,
			ReduceTo:         aggregation,
		}
	}

	return &QueryRangeRequest{
		Start: q.Range.Start,
		End:   q.Range.End,
		Step:  step,
		CompositeQuery: CompositeQuery{
			QueryType:      QueryTypeBuilder,
			PanelType:      PanelGraph,
			BuilderQueries: queries,
		},
		Variables:  map[string]any{},
		DataSource: string(filter.SignalMetrics),
	}, nil
}

// ValidateMetricNames rejects an empty list or any blank name.
func ValidateMetricNames(names []string) error {
	if len(names) == 0 {
		return &InputValidationError{Kind: NoMetrics, Field: "metric"}
	}
	blank := 0
	for _, m := range names {
		if strings.TrimSpace(m) == "" {
			blank++
		}
	}
	if blank > 0 {
		return &InputValidationError{Kind: BlankMetricName, Field: "metric", Count: blank}
	}
	return nil
}

// BuildTracesRequest creates the placeholder trace panel request. Trace
// filters are not translated yet.
func BuildTracesRequest(r timeutil.Range) *QueryRangeRequest {
	return &QueryRangeRequest{
		Start: r.Start,
		End:   r.End,
		Step:  DefaultStepSeconds,
		CompositeQuery: CompositeQuery{
			QueryType:      QueryTypeBuilder,
			PanelType:      PanelTrace,
			BuilderQueries: map[string]*BuilderQuery{},
		},
		Variables: map[string]any{},
	}
}

// QueryName returns the builder query name for the i-th metric: A, B, C...
func QueryName(i int) string {
	return string(rune('A' + i))
}

// QueryIndex is the inverse of QueryName; ok is false for anything that is
// not a single upper-case letter.
func QueryIndex(name string) (int, bool) {
	if len(name) != 1 || name[0] < 'A' || name[0] > 'Z' {
		return 0, false
	}
	return int(name[0] - 'A'), true
}

func buildFilterSet(preds []filter.Predicate, signal filter.Signal) FilterSet {
	items := make([]FilterItem, 0, len(preds))
	for _, p := range preds {
		items = append(items, FilterItem{
			ID:    uuid.NewString()[:8],
			Key:   filterKey(p, signal),
			Op:    p.Operator.ForSignal(signal),
			Value: p.Value,
		})
	}
	return FilterSet{Op: "AND", Items: items}
}

// filterKey maps a predicate onto the backend attribute key. Metric labels are
// always tags; log keys keep their parsed class.
func filterKey(p filter.Predicate, signal filter.Signal) AttributeKey {
	key := AttributeKey{Key: p.Key, DataType: "string"}
	if signal == filter.SignalMetrics {
		key.Type = string(filter.ClassTag)
		return key
	}
	switch p.Class {
	case filter.ClassColumn:
		key.IsColumn = true
	default:
		key.Type = string(p.Class)
	}
	return key
}

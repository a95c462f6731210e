package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SigNoz/signoz-query-mcp/pkg/timeutil"
)

var testRange = timeutil.Range{Start: 1_700_000_000_000, End: 1_700_003_600_000}

func TestBuildLogsRequest(t *testing.T) {
	req := BuildLogsRequest("k8s.namespace.name=prod AND level=error AND body~timeout", testRange, 50)
	require.NoError(t, req.Validate())

	assert.Equal(t, testRange.Start, req.Start)
	assert.Equal(t, testRange.End, req.End)
	assert.Equal(t, int64(60), req.Step)
	assert.Equal(t, "logs", req.DataSource)
	assert.Equal(t, PanelList, req.CompositeQuery.PanelType)

	q := req.CompositeQuery.BuilderQueries["A"]
	require.NotNil(t, q)
	assert.Equal(t, "noop", q.AggregateOperator)
	require.NotNil(t, q.Limit)
	assert.Equal(t, 50, *q.Limit)
	assert.Equal(t, []OrderBy{{ColumnName: "timestamp", Order: "desc"}}, q.OrderBy)

	items := q.Filters.Items
	require.Len(t, items, 3)
	assert.Equal(t, "AND", q.Filters.Op)

	assert.Equal(t, "k8s.namespace.name", items[0].Key.Key)
	assert.Equal(t, "resource", items[0].Key.Type)
	assert.Equal(t, "in", items[0].Op)
	assert.Equal(t, "prod", items[0].Value)

	assert.Equal(t, "tag", items[1].Key.Type)
	assert.False(t, items[1].Key.IsColumn)

	assert.Equal(t, "body", items[2].Key.Key)
	assert.True(t, items[2].Key.IsColumn)
	assert.Equal(t, "contains", items[2].Op)

	for _, it := range items {
		assert.NotEmpty(t, it.ID)
	}
}

func TestBuildLogsRequestEmptyFilterSerializesItemsArray(t *testing.T) {
	req := BuildLogsRequest("", testRange, 10)

	b, err := json.Marshal(req)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"items":[]`)
	assert.Contains(t, string(b), `"limit":10`)
}

func TestBuildMetricsRequest(t *testing.T) {
	req, err := BuildMetricsRequest(MetricsQuery{
		Metrics:     []string{"cpu_usage", "memory_usage"},
		Filter:      "service=api AND status!=500",
		GroupBy:     []string{"host"},
		Aggregation: "max",
		Range:       testRange,
		StepSeconds: 300,
	})
	require.NoError(t, err)
	require.NoError(t, req.Validate())

	assert.Equal(t, PanelGraph, req.CompositeQuery.PanelType)
	assert.False(t, req.CompositeQuery.FillGaps)
	assert.Equal(t, int64(300), req.Step)
	require.Len(t, req.CompositeQuery.BuilderQueries, 2)

	a := req.CompositeQuery.BuilderQueries["A"]
	b := req.CompositeQuery.BuilderQueries["B"]
	require.NotNil(t, a)
	require.NotNil(t, b)

	assert.Equal(t, "cpu_usage", a.AggregateAttribute.Key)
	assert.Equal(t, "cpu_usage--float64--Gauge--true", a.AggregateAttribute.ID)
	assert.Equal(t, "memory_usage", b.AggregateAttribute.Key)
	assert.Equal(t, "cpu_usage", a.Legend)
	assert.Equal(t, "memory_usage", b.Legend)

	for _, q := range []*BuilderQuery{a, b} {
		assert.Equal(t, "max", q.AggregateOperator)
		assert.Equal(t, "max", q.TimeAggregation)
		assert.Equal(t, "max", q.SpaceAggregation)
		assert.Equal(t, "max", q.ReduceTo)
		assert.Equal(t, int64(300), q.StepInterval)
		assert.Nil(t, q.Limit)

		require.Len(t, q.Filters.Items, 2)
		assert.Equal(t, "=", q.Filters.Items[0].Op)
		assert.Equal(t, "!=", q.Filters.Items[1].Op)
		for _, it := range q.Filters.Items {
			assert.Equal(t, "tag", it.Key.Type)
			assert.False(t, it.Key.IsColumn)
		}

		require.Len(t, q.GroupBy, 1)
		assert.Equal(t, "host--string--tag--false", q.GroupBy[0].ID)
	}
}

func TestBuildMetricsRequestDefaults(t *testing.T) {
	req, err := BuildMetricsRequest(MetricsQuery{Metrics: []string{"up"}, Range: testRange})
	require.NoError(t, err)

	q := req.CompositeQuery.BuilderQueries["A"]
	require.NotNil(t, q)
	assert.Equal(t, "avg", q.AggregateOperator)
	assert.Equal(t, int64(60), q.StepInterval)
	assert.Empty(t, q.Legend)
	assert.Empty(t, q.Filters.Items)
}

func TestBuildMetricsRequestValidation(t *testing.T) {
	tests := []struct {
		name  string
		query MetricsQuery
		kind  ValidationKind
		count int
	}{
		{name: "no metrics", query: MetricsQuery{}, kind: NoMetrics},
		{name: "blank names", query: MetricsQuery{Metrics: []string{"cpu", " ", ""}}, kind: BlankMetricName, count: 2},
		{name: "bad aggregation", query: MetricsQuery{Metrics: []string{"cpu"}, Aggregation: "p99"}, kind: InvalidAggregation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildMetricsRequest(tt.query)
			var verr *InputValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.kind, verr.Kind)
			assert.Equal(t, tt.count, verr.Count)
		})
	}
}

func TestBuildTracesRequest(t *testing.T) {
	req := BuildTracesRequest(testRange)
	require.NoError(t, req.Validate())
	assert.Equal(t, PanelTrace, req.CompositeQuery.PanelType)
	assert.Empty(t, req.CompositeQuery.BuilderQueries)
}

func TestQueryRangeRequestValidate(t *testing.T) {
	valid := func() *QueryRangeRequest { return BuildLogsRequest("", testRange, 10) }

	req := valid()
	req.Start = req.End
	assert.Error(t, req.Validate())

	req = valid()
	req.CompositeQuery.QueryType = "promql"
	assert.Error(t, req.Validate())

	req = valid()
	req.CompositeQuery.BuilderQueries["A"].DataSource = "events"
	assert.ErrorContains(t, req.Validate(), "unknown data source")

	req = valid()
	req.CompositeQuery.BuilderQueries = nil
	assert.Error(t, req.Validate())
}

func TestQueryNameRoundTrip(t *testing.T) {
	for i := 0; i < 26; i++ {
		idx, ok := QueryIndex(QueryName(i))
		require.True(t, ok)
		assert.Equal(t, i, idx)
	}
	_, ok := QueryIndex("AA")
	assert.False(t, ok)
}

func TestPointUnmarshal(t *testing.T) {
	var s Series
	require.NoError(t, json.Unmarshal([]byte(`{"labels":{"host":"a"},"values":[{"timestamp":1700000000000,"value":"1.5"},{"timestamp":1.7e12,"value":"2"}]}`), &s))
	require.Len(t, s.Values, 2)
	assert.Equal(t, int64(1700000000000), s.Values[0].Timestamp)
	assert.Equal(t, "1.5", s.Values[0].Value)
	assert.Equal(t, int64(1700000000000), s.Values[1].Timestamp)
}

func TestQueryRangeResponseResultPresence(t *testing.T) {
	var missing, empty QueryRangeResponse
	require.NoError(t, json.Unmarshal([]byte(`{"status":"success","data":{}}`), &missing))
	require.NoError(t, json.Unmarshal([]byte(`{"status":"success","data":{"result":[]}}`), &empty))

	assert.Nil(t, missing.Data.Result)
	assert.NotNil(t, empty.Data.Result)
	assert.Empty(t, empty.Data.Result)
}

func TestDiscoveryEnvelopeValidate(t *testing.T) {
	assert.NoError(t, (&MetricsDiscoveryResponse{Status: "success", Data: &MetricsDiscoveryData{}}).Validate())
	assert.Error(t, (&MetricsDiscoveryResponse{Status: "ok", Data: &MetricsDiscoveryData{}}).Validate())
	assert.Error(t, (&MetricMetadataResponse{Status: "success"}).Validate())
}

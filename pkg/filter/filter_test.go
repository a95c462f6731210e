package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		expr string
		want []Predicate
	}{
		{
			name: "empty",
			expr: "   ",
			want: nil,
		},
		{
			name: "level and namespace",
			expr: "level=error AND k8s.namespace.name=prod",
			want: []Predicate{
				{Key: "level", Class: ClassTag, Operator: Equals, Value: "error"},
				{Key: "k8s.namespace.name", Class: ClassResource, Operator: Equals, Value: "prod"},
			},
		},
		{
			name: "not equals",
			expr: "status!=500",
			want: []Predicate{{Key: "status", Class: ClassTag, Operator: NotEquals, Value: "500"}},
		},
		{
			name: "contains with quotes",
			expr: `body~"connection refused"`,
			want: []Predicate{{Key: "body", Class: ClassColumn, Operator: Contains, Value: "connection refused"}},
		},
		{
			name: "single quotes",
			expr: "service='api gateway'",
			want: []Predicate{{Key: "service", Class: ClassResource, Operator: Equals, Value: "api gateway"}},
		},
		{
			name: "two character comparisons",
			expr: "duration>=100 AND retries<=3 AND code>200 AND size<10",
			want: []Predicate{
				{Key: "duration", Class: ClassTag, Operator: GreaterEq, Value: "100"},
				{Key: "retries", Class: ClassTag, Operator: LessEq, Value: "3"},
				{Key: "code", Class: ClassTag, Operator: Greater, Value: "200"},
				{Key: "size", Class: ClassTag, Operator: Less, Value: "10"},
			},
		},
		{
			name: "case insensitive separator and whitespace",
			expr: " level = warn  and  timestamp>1 ",
			want: []Predicate{
				{Key: "level", Class: ClassTag, Operator: Equals, Value: "warn"},
				{Key: "timestamp", Class: ClassColumn, Operator: Greater, Value: "1"},
			},
		},
		{
			name: "malformed fragments skipped",
			expr: "garbage AND level=error AND =nokey AND dangling=",
			want: []Predicate{{Key: "level", Class: ClassTag, Operator: Equals, Value: "error"}},
		},
		{
			name: "value may contain operators",
			expr: "url=http://x/?a=b",
			want: []Predicate{{Key: "url", Class: ClassTag, Operator: Equals, Value: "http://x/?a=b"}},
		},
		{
			name: "AND inside a word is not a separator",
			expr: "brand=ANDROID",
			want: []Predicate{{Key: "brand", Class: ClassTag, Operator: Equals, Value: "ANDROID"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Parse(tt.expr))
		})
	}
}

func TestClassify(t *testing.T) {
	tests := map[string]Class{
		"k8s.pod.name":        ClassResource,
		"k8s.cluster":         ClassResource,
		"service.name":        ClassResource,
		"host.name":           ClassResource,
		"service":             ClassResource,
		"body":                ClassColumn,
		"timestamp":           ClassColumn,
		"level":               ClassTag,
		"http.request.method": ClassTag,
		"services":            ClassTag,
	}
	for key, want := range tests {
		assert.Equal(t, want, Classify(key), key)
	}
}

func TestOperatorForSignal(t *testing.T) {
	tests := []struct {
		op      Operator
		logs    string
		metrics string
	}{
		{Equals, "in", "="},
		{NotEquals, "nin", "!="},
		{Contains, "contains", "contains"},
		{Greater, ">", ">"},
		{Less, "<", "<"},
		{GreaterEq, ">=", ">="},
		{LessEq, "<=", "<="},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.logs, tt.op.ForSignal(SignalLogs), string(tt.op))
		assert.Equal(t, tt.metrics, tt.op.ForSignal(SignalMetrics), string(tt.op))
	}
}

func TestParseStatusNotEquals(t *testing.T) {
	preds := Parse("status!=500")
	require.Len(t, preds, 1)

	p := preds[0]
	assert.Equal(t, "status", p.Key)
	assert.Equal(t, "500", p.Value)
	assert.Equal(t, ClassTag, p.Class)
	assert.False(t, p.IsColumn())
	assert.Equal(t, "nin", p.Operator.ForSignal(SignalLogs))
	assert.Equal(t, "!=", p.Operator.ForSignal(SignalMetrics))
}

func TestReferencesKey(t *testing.T) {
	preds := Parse("severity_text=ERROR AND service=api")
	assert.True(t, ReferencesKey(preds, "level", "severity_text"))
	assert.False(t, ReferencesKey(preds, "level"))
}

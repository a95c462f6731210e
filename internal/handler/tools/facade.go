package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/SigNoz/signoz-query-mcp/pkg/filter"
	"github.com/SigNoz/signoz-query-mcp/pkg/format"
	"github.com/SigNoz/signoz-query-mcp/pkg/paginate"
	"github.com/SigNoz/signoz-query-mcp/pkg/timeutil"
	"github.com/SigNoz/signoz-query-mcp/pkg/types"
)

// Defaults applied to absent tool arguments.
const (
	defaultLogsStart    = "now-1h"
	defaultLogsEnd      = "now"
	defaultLogsLimit    = 100
	defaultMetricsStart = "1h"
	defaultMetricsEnd   = "now"
	defaultMetricsStep  = "1m"

	defaultSampleSize       = 10
	maxSampleSize           = 100
	defaultSampleTimeRange  = "now-1h"
	defaultMetricsTimeRange = "1h"
)

// Backend is the subset of the SigNoz client the facade needs.
type Backend interface {
	QueryRange(ctx context.Context, q *types.QueryRangeRequest) (json.RawMessage, error)
	DiscoverMetrics(ctx context.Context, timeRange string, limit, offset int) (*types.MetricsDiscoveryResponse, error)
	GetMetricMetadata(ctx context.Context, metricName string) (*types.MetricMetadataResponse, error)
	TestConnection(ctx context.Context) types.ConnectionResult
	BaseURL() string
}

// Facade runs one tool call end to end: resolve time, parse filters, build
// the request, call SigNoz and format the answer. Every method returns a
// single text block; failures are rendered as text, never returned.
type Facade struct {
	backend   Backend
	formatter *format.Formatter
	logger    *zap.Logger
	now       func() time.Time
}

func NewFacade(log *zap.Logger, backend Backend, formatter *format.Formatter) *Facade {
	if formatter == nil {
		formatter = format.Default()
	}
	return &Facade{
		backend:   backend,
		formatter: formatter,
		logger:    log,
		now:       time.Now,
	}
}

// Call dispatches decoded arguments to the matching tool.
func (f *Facade) Call(ctx context.Context, args ToolArgs) string {
	switch a := args.(type) {
	case QueryLogsArgs:
		return f.QueryLogs(ctx, a)
	case QueryMetricsArgs:
		return f.QueryMetrics(ctx, a)
	case QueryTracesArgs:
		return f.QueryTraces(ctx, a)
	case DiscoverLogAttributesArgs:
		return f.DiscoverLogAttributes(ctx, a)
	case DiscoverMetricsArgs:
		return f.DiscoverMetrics(ctx, a)
	case DiscoverMetricAttributesArgs:
		return f.DiscoverMetricAttributes(ctx, a)
	case TestConnectionArgs:
		return f.TestConnection(ctx)
	case HelpArgs:
		return f.Help(a)
	default:
		return fmt.Sprintf("Unknown tool: %T", args)
	}
}

// resolveRange resolves start and end against one instant and logs any
// timestamp that looks like it was given in the wrong unit.
func (f *Facade) resolveRange(start, end timeutil.Expr) (timeutil.Range, error) {
	now := f.now()
	r, err := timeutil.ResolveRange(start, end, now)
	if err != nil {
		return r, err
	}
	for _, w := range timeutil.UnitWarnings(r, now) {
		f.logger.Warn("Suspicious timestamp", zap.String("warning", w))
	}
	return r, nil
}

func (f *Facade) queryRange(ctx context.Context, req *types.QueryRangeRequest) (*types.QueryRangeResponse, error) {
	body, err := f.backend.QueryRange(ctx, req)
	if err != nil {
		return nil, err
	}
	var resp types.QueryRangeResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if resp.Status == "error" {
		return nil, resp.Validate()
	}
	return &resp, nil
}

// logsFilter appends level=<level> unless the query already filters on it.
func logsFilter(query, level string) string {
	if level == "" || filter.ReferencesKey(filter.Parse(query), "level", "severity_text") {
		return query
	}
	if query == "" {
		return "level=" + level
	}
	return query + " AND level=" + level
}

func (f *Facade) QueryLogs(ctx context.Context, a QueryLogsArgs) string {
	r, err := f.resolveRange(a.Start.Or(defaultLogsStart), a.End.Or(defaultLogsEnd))
	if err != nil {
		return errorReport(errQueryLogs, err, "")
	}
	limit := a.Limit
	if limit <= 0 {
		limit = defaultLogsLimit
	}
	query := logsFilter(a.Query, a.Level)

	f.logger.Debug("Querying logs",
		zap.String("filter", query),
		zap.String("start", timeutil.FormatMillis(r.Start)),
		zap.String("end", timeutil.FormatMillis(r.End)),
		zap.Int("limit", limit),
		zap.Bool("verbose", a.Verbose),
		zap.Strings("include_attributes", a.IncludeAttributes))

	resp, err := f.queryRange(ctx, types.BuildLogsRequest(query, r, limit))
	if err != nil {
		f.logger.Error("Failed to query logs", zap.Error(err))
		return errorReport(errQueryLogs, err, "")
	}
	return f.formatter.FormatLogs(resp.LogRows(), format.LogOptions{
		Verbose:           a.Verbose,
		IncludeAttributes: a.IncludeAttributes,
		ExcludeAttributes: a.ExcludeAttributes,
		Limit:             limit,
	})
}

func (f *Facade) QueryMetrics(ctx context.Context, a QueryMetricsArgs) string {
	if err := types.ValidateMetricNames(a.Metrics); err != nil {
		report, _ := metricValidationReport(err)
		return report
	}

	r, err := f.resolveRange(a.Start.Or(defaultMetricsStart), a.End.Or(defaultMetricsEnd))
	if err != nil {
		return errorReport(errQueryMetrics, err, "")
	}
	step := a.Step
	if step == "" {
		step = defaultMetricsStep
	}

	req, err := types.BuildMetricsRequest(types.MetricsQuery{
		Metrics:     a.Metrics,
		Filter:      a.Query,
		GroupBy:     a.GroupBy,
		Aggregation: a.Aggregation,
		Range:       r,
		StepSeconds: timeutil.ParseStep(step),
	})
	if err != nil {
		if report, ok := metricValidationReport(err); ok {
			return report
		}
		return errorReport(errQueryMetrics, err, "")
	}

	f.logger.Debug("Querying metrics",
		zap.Strings("metrics", a.Metrics),
		zap.String("filter", a.Query),
		zap.Int64("step", req.Step))

	resp, err := f.queryRange(ctx, req)
	if err != nil {
		f.logger.Error("Failed to query metrics", zap.Error(err))
		return errorReport(errQueryMetrics, err, "")
	}
	return f.formatter.FormatMetrics(resp, a.Metrics, req.Start, req.End, step)
}

// QueryTraces builds the trace request but does not send it; trace search is
// not available yet.
func (f *Facade) QueryTraces(_ context.Context, a QueryTracesArgs) string {
	r, err := f.resolveRange(a.Start.Or(defaultLogsStart), a.End.Or(defaultLogsEnd))
	if err != nil {
		return errorReport(errQueryTraces, err, "")
	}
	req := types.BuildTracesRequest(r)
	f.logger.Debug("Trace query built but not executed",
		zap.String("query", a.Query),
		zap.Int64("start", req.Start),
		zap.Int64("end", req.End))
	return f.formatter.FormatTraces(a.Query)
}

func (f *Facade) DiscoverLogAttributes(ctx context.Context, a DiscoverLogAttributesArgs) string {
	sampleSize := a.SampleSize
	if sampleSize <= 0 {
		sampleSize = defaultSampleSize
	}
	sampleSize = min(sampleSize, maxSampleSize)
	timeRange := a.TimeRange
	if timeRange == "" {
		timeRange = defaultSampleTimeRange
	}

	r, err := f.resolveRange(timeutil.Text(timeRange), timeutil.Text("now"))
	if err != nil {
		return errorReport(errDiscoverAttributes, err, "")
	}

	f.logger.Debug("Discovering log attributes", zap.Int("sample_size", sampleSize), zap.String("time_range", timeRange))

	resp, err := f.queryRange(ctx, types.BuildLogsRequest("", r, sampleSize))
	if err != nil {
		f.logger.Error("Failed to discover log attributes", zap.Error(err))
		return errorReport(errDiscoverAttributes, err, logAttributesHint(err.Error()))
	}
	return f.formatter.FormatLogAttributeDiscovery(resp.LogRows(), r.Start, r.End)
}

func (f *Facade) DiscoverMetrics(ctx context.Context, a DiscoverMetricsArgs) string {
	timeRange := a.TimeRange
	if timeRange == "" {
		timeRange = defaultMetricsTimeRange
	}
	limit := a.Limit
	if limit <= 0 {
		limit = paginate.DefaultLimit
	}
	offset := max(a.Offset, 0)

	f.logger.Debug("Discovering metrics", zap.String("time_range", timeRange), zap.Int("limit", limit), zap.Int("offset", offset))

	resp, err := f.backend.DiscoverMetrics(ctx, timeRange, limit, offset)
	if err != nil {
		f.logger.Error("Failed to discover metrics", zap.Error(err))
		return errorReport(errDiscoverMetrics, err, metricsDiscoveryHint(err.Error()))
	}
	if resp == nil || resp.Data == nil {
		return f.formatter.FormatMetricsList(nil, limit, nil, offset)
	}
	total := resp.Data.Total
	return f.formatter.FormatMetricsList(resp.Data.Metrics, limit, &total, offset)
}

func (f *Facade) DiscoverMetricAttributes(ctx context.Context, a DiscoverMetricAttributesArgs) string {
	f.logger.Debug("Discovering metric attributes", zap.String("metric", a.MetricName))

	resp, err := f.backend.GetMetricMetadata(ctx, a.MetricName)
	if err != nil {
		f.logger.Error("Failed to discover metric attributes", zap.String("metric", a.MetricName), zap.Error(err))
		return errorReport(errDiscoverMetricAttributes, err, metricAttributesHint(err.Error(), a.MetricName))
	}
	if resp == nil {
		return f.formatter.FormatMetricAttributes(nil)
	}
	return f.formatter.FormatMetricAttributes(resp.Data)
}

func (f *Facade) TestConnection(ctx context.Context) string {
	result := f.backend.TestConnection(ctx)
	if !result.Success {
		f.logger.Warn("Connection test failed", zap.String("url", f.backend.BaseURL()), zap.String("error", result.Error))
	}
	return f.formatter.FormatConnection(result, f.backend.BaseURL())
}

func (f *Facade) Help(a HelpArgs) string {
	return f.formatter.Help(a.Topic)
}

package tools

import (
	"context"
	"errors"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	signozclient "github.com/SigNoz/signoz-query-mcp/internal/client"
	"github.com/SigNoz/signoz-query-mcp/internal/contextutil"
	"github.com/SigNoz/signoz-query-mcp/internal/telemetry"
	"github.com/SigNoz/signoz-query-mcp/pkg/format"
	"github.com/SigNoz/signoz-query-mcp/pkg/types"
)

const (
	// Time parameter descriptions
	startTimeDesc = "Start time (ISO 8601, Unix timestamp in milliseconds, or relative like '30m', '1h', 'now-2h')"
	endTimeDesc   = "End time (ISO 8601, Unix timestamp in milliseconds, or relative like '30m', '1h'). Use the timestamp from a pagination hint to get the next page of older results."
	filterDesc    = "Simple filter syntax: key=value (equals), key~value (contains), key!=value (not equals). Join with AND. Examples: 'k8s.deployment.name=stio-api', 'level=error AND service=api-gateway', 'body~timeout'"

	DefaultClientCacheSize = 64
)

type Handler struct {
	client      *signozclient.SigNoz
	logger      *zap.Logger
	signozURL   string
	clientOpts  []signozclient.Option
	clientCache *lru.Cache[string, *signozclient.SigNoz]
	formatter   *format.Formatter
	instruments *telemetry.Instruments
}

type HandlerOption func(*Handler)

// WithClientOptions are applied to clients created for per-request API keys.
func WithClientOptions(opts ...signozclient.Option) HandlerOption {
	return func(h *Handler) { h.clientOpts = append(h.clientOpts, opts...) }
}

func WithInstruments(i *telemetry.Instruments) HandlerOption {
	return func(h *Handler) { h.instruments = i }
}

func WithFormatter(f *format.Formatter) HandlerOption {
	return func(h *Handler) { h.formatter = f }
}

func NewHandler(log *zap.Logger, client *signozclient.SigNoz, signozURL string, cacheSize int, opts ...HandlerOption) (*Handler, error) {
	if cacheSize <= 0 {
		cacheSize = DefaultClientCacheSize
	}
	cache, err := lru.New[string, *signozclient.SigNoz](cacheSize)
	if err != nil {
		return nil, err
	}
	h := &Handler{
		client:      client,
		logger:      log,
		signozURL:   signozURL,
		clientCache: cache,
		formatter:   format.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// GetClient returns a client for the API key carried by ctx, or the default
// client when there is none. Per-key clients are kept in an LRU cache.
func (h *Handler) GetClient(ctx context.Context) *signozclient.SigNoz {
	apiKey, ok := contextutil.GetAPIKey(ctx)
	if !ok || apiKey == "" || h.signozURL == "" {
		return h.client
	}
	if cached, found := h.clientCache.Get(apiKey); found {
		return cached
	}

	h.logger.Debug("Creating client with API key from context")
	c := signozclient.NewClient(h.logger, h.signozURL, apiKey, h.clientOpts...)
	// a concurrent caller may have added one first; keep theirs
	if prev, found, _ := h.clientCache.PeekOrAdd(apiKey, c); found {
		return prev
	}
	return c
}

func (h *Handler) facade(ctx context.Context) *Facade {
	return NewFacade(h.logger, h.GetClient(ctx), h.formatter)
}

// Call decodes the arguments of one tool call and runs it. Argument errors
// are reported as tool errors; everything else is plain text.
func (h *Handler) Call(ctx context.Context, tool string, raw map[string]any) *mcp.CallToolResult {
	ctx, done := h.instruments.StartToolCall(ctx, tool)

	args, err := ParseToolArgs(tool, raw)
	if err != nil {
		h.logger.Warn("Invalid tool arguments", zap.String("tool", tool), zap.Error(err))
		done(err)
		return mcp.NewToolResultError("Parameter validation failed: " + err.Error())
	}

	text := h.facade(ctx).Call(ctx, args)
	done(reportedError(text))
	return mcp.NewToolResultText(text)
}

// reportedError recovers the failure carried by an error report, for telemetry.
func reportedError(text string) error {
	if !strings.HasPrefix(text, "Error") {
		return nil
	}
	line, _, _ := strings.Cut(text, "\n")
	return errors.New(line)
}

func (h *Handler) handle(name string) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		h.logger.Debug("Tool called: "+name, zap.Any("arguments", req.GetArguments()))
		return h.Call(ctx, name, req.GetArguments()), nil
	}
}

// RegisterTools adds every tool to s.
func (h *Handler) RegisterTools(s *server.MCPServer) {
	h.RegisterLogsHandlers(s)
	h.RegisterMetricsHandlers(s)
	h.RegisterTracesHandlers(s)
	h.RegisterUtilityHandlers(s)
}

func (h *Handler) RegisterLogsHandlers(s *server.MCPServer) {
	h.logger.Debug("Registering logs handlers")

	queryLogsTool := mcp.NewTool(ToolQueryLogs,
		mcp.WithDescription("Query logs from Signoz using simplified filter syntax. Automatically provides pagination hints when results exceed limit."),
		mcp.WithString("query", mcp.Description(filterDesc)),
		mcp.WithString("start", mcp.Description(startTimeDesc), mcp.DefaultString(defaultLogsStart)),
		mcp.WithString("end", mcp.Description(endTimeDesc), mcp.DefaultString(defaultLogsEnd)),
		mcp.WithNumber("limit", mcp.Description("Maximum number of results"), mcp.DefaultNumber(defaultLogsLimit)),
		mcp.WithBoolean("verbose", mcp.Description("Show all attributes (default: false for compact output)")),
		mcp.WithArray("include_attributes", mcp.Description("Specific attributes to include in output"), mcp.WithStringItems()),
		mcp.WithArray("exclude_attributes", mcp.Description("Specific attributes to exclude from output"), mcp.WithStringItems()),
		mcp.WithString("level", mcp.Description("Filter by log level"), mcp.Enum(LogLevels...)),
	)
	s.AddTool(queryLogsTool, h.handle(ToolQueryLogs))

	discoverTool := mcp.NewTool(ToolDiscoverLogAttributes,
		mcp.WithDescription("RECOMMENDED FIRST STEP: Discover available log attributes by sampling recent logs. This helps understand what fields can be queried before using query_logs. Returns grouped attributes with sample values and example queries."),
		mcp.WithNumber("sample_size", mcp.Description("Number of recent logs to sample (default: 10, max: 100)"), mcp.DefaultNumber(defaultSampleSize)),
		mcp.WithString("time_range", mcp.Description("Time range to sample from (default: 'now-1h'). Use shorter ranges if experiencing timeouts."), mcp.DefaultString(defaultSampleTimeRange)),
	)
	s.AddTool(discoverTool, h.handle(ToolDiscoverLogAttributes))
}

func (h *Handler) RegisterMetricsHandlers(s *server.MCPServer) {
	h.logger.Debug("Registering metrics handlers")

	queryMetricsTool := mcp.NewTool(ToolQueryMetrics,
		mcp.WithDescription("Query metrics from Signoz using builder queries with optional filtering and grouping"),
		mcp.WithArray("metric", mcp.Required(), mcp.Description("Metric names to query (e.g., ['k8s_pod_cpu_utilization', 'k8s_pod_memory_usage'])"), mcp.WithStringItems()),
		mcp.WithString("query", mcp.Description("Simple filter syntax: key=value (equals), key~value (contains), key!=value (not equals). Join with AND. Examples: 'k8s_deployment_name=stio-api', 'k8s_namespace_name=default AND k8s_pod_name~stio-api'")),
		mcp.WithString("aggregation", mcp.Description("Aggregation method for the metrics"), mcp.Enum(types.Aggregations...), mcp.DefaultString(types.DefaultAggregation)),
		mcp.WithArray("group_by", mcp.Description("Attributes to group results by (e.g., ['k8s_pod_name', 'k8s_namespace_name'])"), mcp.WithStringItems()),
		mcp.WithString("start", mcp.Description("Start time (ISO 8601, Unix timestamp in milliseconds, or relative like '30m', '1h', 'now-2h'). Defaults to '1h' (1 hour ago). '1h' means 1 hour ago, not 1 hour from now."), mcp.DefaultString(defaultMetricsStart)),
		mcp.WithString("end", mcp.Description("End time (ISO 8601, Unix timestamp in milliseconds, or relative like '30m', '1h'). Defaults to 'now'. Must be after start time."), mcp.DefaultString(defaultMetricsEnd)),
		mcp.WithString("step", mcp.Description("Query resolution step (e.g., '1m', '5m')"), mcp.DefaultString(defaultMetricsStep)),
	)
	s.AddTool(queryMetricsTool, h.handle(ToolQueryMetrics))

	discoverMetricsTool := mcp.NewTool(ToolDiscoverMetrics,
		mcp.WithDescription("Discover available metrics with activity statistics and categorization. Lists metrics sorted by sample count with type, description, and usage information. Supports pagination with 'limit' and 'offset'."),
		mcp.WithString("time_range", mcp.Description("Time range to analyze metric activity (default: '1h'). Examples: '30m', '2h', '1d'"), mcp.DefaultString(defaultMetricsTimeRange)),
		mcp.WithNumber("limit", mcp.Description("Maximum number of metrics to return (default: 200)"), mcp.DefaultNumber(200)),
		mcp.WithNumber("offset", mcp.Description("Pagination offset - number of metrics to skip (default: 0)"), mcp.DefaultNumber(0)),
	)
	s.AddTool(discoverMetricsTool, h.handle(ToolDiscoverMetrics))

	metricAttributesTool := mcp.NewTool(ToolDiscoverMetricAttributes,
		mcp.WithDescription("Discover labels/attributes for a specific metric. Shows all available labels with sample values, cardinality, and example queries."),
		mcp.WithString("metric_name", mcp.Required(), mcp.Description("Name of the metric to analyze (use discover_metrics to find available metrics)")),
	)
	s.AddTool(metricAttributesTool, h.handle(ToolDiscoverMetricAttributes))
}

func (h *Handler) RegisterTracesHandlers(s *server.MCPServer) {
	h.logger.Debug("Registering traces handlers")

	queryTracesTool := mcp.NewTool(ToolQueryTraces,
		mcp.WithDescription("Query traces from Signoz"),
		mcp.WithString("query", mcp.Description("Trace query string")),
		mcp.WithString("start", mcp.Description(startTimeDesc)),
		mcp.WithString("end", mcp.Description("End time (ISO 8601, Unix timestamp in milliseconds, or relative like '30m', '1h')")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of results")),
	)
	s.AddTool(queryTracesTool, h.handle(ToolQueryTraces))
}

func (h *Handler) RegisterUtilityHandlers(s *server.MCPServer) {
	h.logger.Debug("Registering utility handlers")

	helpTool := mcp.NewTool(ToolHelp,
		mcp.WithDescription("Get guidance on using Signoz MCP tools effectively. Shows recommended workflow and examples."),
		mcp.WithString("topic", mcp.Description("Specific topic to get help on: 'workflow', 'queries', 'examples', or leave empty for general help"), mcp.Enum(format.HelpTopics...)),
	)
	s.AddTool(helpTool, h.handle(ToolHelp))

	connectionTool := mcp.NewTool(ToolTestConnection,
		mcp.WithDescription("Test connectivity to Signoz server using the /api/v1/rules endpoint"),
	)
	s.AddTool(connectionTool, h.handle(ToolTestConnection))
}

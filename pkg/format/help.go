package format

// Help topics accepted by the help tool.
const (
	TopicWorkflow = "workflow"
	TopicQueries  = "queries"
	TopicExamples = "examples"
)

// HelpTopics lists the valid help topics.
var HelpTopics = []string{TopicWorkflow, TopicQueries, TopicExamples}

const helpWorkflow = `# Signoz MCP Tools - Recommended Workflow

## Getting Started

1. **test_connection** - Verify connectivity to your Signoz instance
   -> Use this first to ensure your API key and URL are correct

2. **discover_log_attributes** - Explore available log fields
   -> Essential for understanding what you can query
   -> Shows real attribute names and sample values
   -> Provides example queries based on your actual data

3. **query_logs** - Query logs with discovered attributes
   -> Use the attribute names from step 2
   -> Start with simple queries, then combine filters
   -> Automatic pagination when results exceed limit

## For Metrics
- **discover_metrics** - List available metrics with activity stats
- **discover_metric_attributes** - Show labels for specific metrics
- **query_metrics** - Query metrics using builder queries with filtering and grouping

## For Traces (Coming Soon)
- query_traces - Search distributed traces

## Tips
- Always run discover_log_attributes first in a new environment
- Use the exact attribute names shown in discovery
- Time ranges default to last hour if not specified
- Use relative times for convenience: '30m', '1h', '2d', 'now-15m'
- When pagination appears, use the provided 'end' parameter for next page`

const helpQueries = "# Query Syntax Guide\n\n" +
	"## Log Query Operators\n\n" +
	"**Basic Operators:**\n" +
	"- `=` - Exact match (e.g., level=error)\n" +
	"- `~` - Contains (e.g., body~timeout)\n" +
	"- `!=` - Not equals (e.g., level!=debug)\n" +
	"- `>`, `<`, `>=`, `<=` - Comparisons\n\n" +
	"**Combining Filters:**\n" +
	"- Use AND to combine (e.g., level=error AND service=api)\n\n" +
	"## Common Attribute Patterns\n\n" +
	"**Kubernetes Resources:**\n" +
	"- k8s.deployment.name\n" +
	"- k8s.namespace.name\n" +
	"- k8s.pod.name\n" +
	"- k8s.container.name\n\n" +
	"**Service Attributes:**\n" +
	"- service.name\n" +
	"- level (or severity_text)\n" +
	"- body (log message content)\n\n" +
	"## Time Ranges\n" +
	"- Relative: '30m', '1h', '2d' (X ago from now)\n" +
	"- Legacy: 'now-1h', 'now-15m' (still supported)\n" +
	"- ISO timestamps: '2024-01-20T10:00:00Z'\n" +
	"- Unix timestamps in milliseconds: 1640995200000"

const helpExamples = "# Example Queries\n\n" +
	"## Simple Queries\n\n" +
	"**Find logs from a specific deployment:**\n" +
	"```\nquery: \"k8s.deployment.name=my-api\"\n```\n\n" +
	"**Find error logs:**\n" +
	"```\nquery: \"level=error\"\n```\n\n" +
	"**Search log content:**\n" +
	"```\nquery: \"body~database connection failed\"\n```\n\n" +
	"## Combined Queries\n\n" +
	"**Errors from specific service:**\n" +
	"```\nquery: \"k8s.deployment.name=my-api AND level=error\"\n```\n\n" +
	"**Timeouts in production:**\n" +
	"```\nquery: \"k8s.namespace.name=production AND body~timeout\"\n```\n\n" +
	"## With Time Ranges\n\n" +
	"**Last 15 minutes of errors:**\n" +
	"```\nquery: \"level=error\",\nstart: \"now-15m\"\n```\n\n" +
	"**Specific time window:**\n" +
	"```\nquery: \"service=api-gateway\",\nstart: \"2024-01-20T10:00:00Z\",\nend: \"2024-01-20T11:00:00Z\"\n```"

// Help returns guidance for topic. An empty topic means the workflow guide.
func (f *Formatter) Help(topic string) string {
	switch topic {
	case "", TopicWorkflow:
		return helpWorkflow
	case TopicQueries:
		return helpQueries
	case TopicExamples:
		return helpExamples
	default:
		return "Use topic parameter: 'workflow', 'queries', or 'examples'"
	}
}

package tools

import (
	"errors"
	"fmt"
	"strings"

	"github.com/SigNoz/signoz-query-mcp/pkg/types"
)

// Prefixes of error reports, one per kind of call.
const (
	errQueryLogs                = "Error querying logs"
	errQueryMetrics             = "Error querying metrics"
	errQueryTraces              = "Error querying traces"
	errDiscoverAttributes       = "Error discovering attributes"
	errDiscoverMetrics          = "Error discovering metrics"
	errDiscoverMetricAttributes = "Error discovering metric attributes"
)

const authHint = "Authentication issue. Please check your SIGNOZ_API_KEY."

func isTimeout(msg string) bool {
	return strings.Contains(msg, "timeout") || strings.Contains(msg, "ETIMEDOUT")
}

func isAuth(msg string) bool {
	return strings.Contains(msg, "403") || strings.Contains(msg, "401")
}

// errorReport renders err under prefix, followed by an optional hint.
func errorReport(prefix string, err error, hint string) string {
	out := fmt.Sprintf("%s: %s", prefix, err.Error())
	if hint != "" {
		out += "\n\n" + hint
	}
	return out
}

func logAttributesHint(msg string) string {
	switch {
	case isTimeout(msg):
		return "Tip: Try reducing the sample size or time range:\n- sample_size: 5\n- time_range: \"now-15m\""
	case strings.Contains(msg, "400"):
		return "This might indicate no logs are available in the specified time range."
	}
	return ""
}

func metricsDiscoveryHint(msg string) string {
	switch {
	case strings.Contains(msg, "404") || strings.Contains(msg, "Not Found"):
		return "The metrics discovery endpoint may not be available in this SigNoz version."
	case isTimeout(msg):
		return "Tip: Try reducing the time range or limit:\n- time_range: \"30m\"\n- limit: 20"
	case isAuth(msg):
		return authHint
	}
	return ""
}

func metricAttributesHint(msg, metric string) string {
	switch {
	case strings.Contains(msg, "404"):
		return fmt.Sprintf("The metric %q may not exist or the internal endpoint may not be available.\nTry running discover_metrics first to see available metrics.", metric)
	case strings.Contains(msg, "400"):
		return "Invalid metric name format. Make sure to use the exact metric name from discover_metrics."
	case isAuth(msg):
		return authHint
	}
	return ""
}

// metricValidationReport explains a rejected query_metrics call. ok is false
// for errors that are not input validation failures.
func metricValidationReport(err error) (string, bool) {
	var verr *types.InputValidationError
	if !errors.As(err, &verr) {
		return "", false
	}
	switch verr.Kind {
	case types.NoMetrics:
		return `Error: No metrics specified for query.

Please provide at least one metric to query:
- metric: ["metric_name"]
- metric: ["metric1", "metric2"]

Use discover_metrics to see available metrics.`, true
	case types.BlankMetricName:
		return fmt.Sprintf(`Error: Empty or invalid metric names found.

All metric names must be non-empty strings.
Invalid entries: %d

Use discover_metrics to see available metrics.`, verr.Count), true
	default:
		return "Error: " + verr.Error(), true
	}
}

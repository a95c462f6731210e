package format

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/SigNoz/signoz-query-mcp/pkg/paginate"
	"github.com/SigNoz/signoz-query-mcp/pkg/timeutil"
	"github.com/SigNoz/signoz-query-mcp/pkg/types"
)

// FormatMetricsList renders the metrics discovery listing, busiest metric
// first. total is nil when the backend did not report it.
func (f *Formatter) FormatMetricsList(metrics []types.MetricInfo, limit int, total *int, offset int) string {
	if len(metrics) == 0 {
		return "No metrics found in the specified time range."
	}

	sorted := make([]types.MetricInfo, len(metrics))
	copy(sorted, metrics)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Samples > sorted[j].Samples })

	page := paginate.Compute(len(sorted), offset, limit, total)

	header := fmt.Sprintf("Found %d", page.Count)
	if page.TotalKnown {
		header += fmt.Sprintf(" of %d", page.Total)
	}
	header += " metrics"
	switch {
	case page.HasMore && page.TotalKnown:
		header += fmt.Sprintf(" (showing %d-%d)", page.FirstShown(), page.LastShown())
	case page.HasMore:
		header += " (limit reached - more may exist)"
	}

	var b strings.Builder
	b.WriteString(header + "\n\n")
	b.WriteString("|Metric|Type|Unit|Samples|Series|Description|\n")
	b.WriteString("|------|----|----|----|------|-----------|\n")
	for _, m := range sorted {
		desc := strings.ReplaceAll(m.Description, "|", `\|`)
		fmt.Fprintf(&b, "|%s|%s|%s|%s|%s|%s|\n",
			m.MetricName, m.Type, m.Unit, compactNumber(m.Samples), compactNumber(m.Timeseries), desc)
	}

	first := sorted[0].MetricName
	b.WriteString("\n**Example queries:**\n")
	fmt.Fprintf(&b, "- metric: [\"%s\"], aggregation: \"avg\"\n", first)
	fmt.Fprintf(&b, "- discover_metric_attributes({metric_name: \"%s\"})\n", first)

	if page.HasMore {
		b.WriteString("\n**More metrics available.** ")
		if page.TotalKnown {
			fmt.Fprintf(&b, "To see metrics %d-%d, use:\n", page.NextOffset+1, page.NextPageEnd())
		} else {
			b.WriteString("To see additional metrics, use:\n")
		}
		fmt.Fprintf(&b, "discover_metrics({limit: %d, offset: %d})", page.Limit, page.NextOffset)
	}
	return b.String()
}

// compactNumber abbreviates counts as 1.5K or 2M.
func compactNumber(n int64) string {
	switch {
	case n >= 1_000_000:
		return strings.Replace(strconv.FormatFloat(float64(n)/1_000_000, 'f', 1, 64), ".0", "", 1) + "M"
	case n >= 1_000:
		return strings.Replace(strconv.FormatFloat(float64(n)/1_000, 'f', 1, 64), ".0", "", 1) + "K"
	default:
		return strconv.FormatInt(n, 10)
	}
}

const missingMetadataReport = `Error: Unable to retrieve metric metadata.

This could mean:
- The metric name doesn't exist
- The metric has no available metadata
- The internal endpoint is not available

Try running discover_metrics first to see available metrics.`

const emptyMetadataReport = `Error: Invalid or empty metric metadata received.

The metric may not exist or may not have any associated metadata.
Run discover_metrics to see available metrics.`

// FormatMetricAttributes renders a metric's metadata and its labels, most
// diverse label first.
func (f *Formatter) FormatMetricAttributes(meta *types.MetricMetadata) string {
	if meta == nil {
		return missingMetadataReport
	}
	if meta.Name == "" {
		return emptyMetadataReport
	}

	name := meta.Name
	display := name
	if decoded, err := url.PathUnescape(name); err == nil {
		display = decoded
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Metric: %s\n\n", display)
	fmt.Fprintf(&b, "**Type:** %s | **Unit:** %s\n", orDefault(meta.Type, "unknown"), orDefault(meta.Unit, "none"))
	fmt.Fprintf(&b, "**Description:** %s\n", orDefault(meta.Description, "No description available"))
	fmt.Fprintf(&b, "**Activity:** %s samples | %s total series | %s active series\n\n",
		humanize.Comma(meta.Samples), humanize.Comma(meta.TimeSeriesTotal), humanize.Comma(meta.TimeSeriesActive))

	if meta.Metadata != nil {
		fmt.Fprintf(&b, "**Metadata:** Temporality: %s | Monotonic: %t\n\n",
			orDefault(meta.Metadata.Temporality, "unknown"), meta.Metadata.Monotonic)
	}

	if len(meta.Attributes) == 0 {
		b.WriteString("## Labels (Attributes)\n\nNo attribute information available for this metric.\n\n")
		b.WriteString("## Basic Queries\n\n")
		fmt.Fprintf(&b, "- metric: [\"%s\"]\n", name)
		fmt.Fprintf(&b, "- metric: [\"%s\"], aggregation: \"avg\"\n", name)
		if meta.Type == "Histogram" {
			fmt.Fprintf(&b, "- metric: [\"%s\"], aggregation: \"max\"\n", name)
		}
		return b.String()
	}

	attrs := make([]types.MetricAttribute, len(meta.Attributes))
	copy(attrs, meta.Attributes)
	sort.SliceStable(attrs, func(i, j int) bool { return attrs[i].ValueCount > attrs[j].ValueCount })

	b.WriteString("## Labels (Attributes)\n\n")
	for _, a := range attrs {
		fmt.Fprintf(&b, "**%s** (%s unique values)\n", a.Key, humanize.Comma(a.ValueCount))
		if len(a.Value) > 0 {
			sample := a.Value
			if len(sample) > 5 {
				sample = sample[:5]
			}
			more := ""
			if len(a.Value) > 5 || a.ValueCount > int64(len(a.Value)) {
				more = "..."
			}
			fmt.Fprintf(&b, "  Sample values: %s%s\n", strings.Join(sample, ", "), more)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Example Queries\n*Based on discovered labels:*\n\n")
	first := attrs[0]
	if len(first.Value) > 0 {
		fmt.Fprintf(&b, "**Filter by %s:**\n", first.Key)
		fmt.Fprintf(&b, "- metric: [\"%s\"], query: \"%s=%s\"\n\n", name, first.Key, first.Value[0])
	}
	if len(attrs) > 1 {
		second := attrs[1]
		b.WriteString("**Aggregate with grouping:**\n")
		fmt.Fprintf(&b, "- metric: [\"%s\"], group_by: [\"%s\", \"%s\"], aggregation: \"sum\"\n", name, first.Key, second.Key)
		fmt.Fprintf(&b, "- metric: [\"%s\"], group_by: [\"%s\"], aggregation: \"avg\"\n\n", name, first.Key)
	}
	if meta.Type == "Histogram" {
		b.WriteString("**Histogram metrics:**\n")
		fmt.Fprintf(&b, "- metric: [\"%s\"], aggregation: \"avg\" - Average values\n", name)
		fmt.Fprintf(&b, "- metric: [\"%s\"], aggregation: \"max\" - Maximum values\n\n", name)
	}
	b.WriteString("**Common aggregations:**\n")
	fmt.Fprintf(&b, "- metric: [\"%s\"], aggregation: \"avg\" - Average over time\n", name)
	fmt.Fprintf(&b, "- metric: [\"%s\"], aggregation: \"sum\" - Total/cumulative values\n", name)
	fmt.Fprintf(&b, "- metric: [\"%s\"], aggregation: \"max\" - Peak values\n", name)
	fmt.Fprintf(&b, "- metric: [\"%s\"], group_by: [\"%s\"], aggregation: \"sum\"\n", name, first.Key)
	return b.String()
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// valueSet keeps distinct values in first-seen order.
type valueSet struct {
	seen   map[string]struct{}
	values []string
}

func (s *valueSet) add(v string) {
	if s.seen == nil {
		s.seen = map[string]struct{}{}
	}
	if _, ok := s.seen[v]; ok {
		return
	}
	s.seen[v] = struct{}{}
	s.values = append(s.values, v)
}

func (s *valueSet) first() string {
	if s == nil || len(s.values) == 0 {
		return ""
	}
	return s.values[0]
}

func (s *valueSet) sample(n int) string {
	if len(s.values) <= n {
		return strings.Join(s.values, ", ")
	}
	return strings.Join(s.values[:n], ", ")
}

// maxSampleValueLen drops long values (stack traces, payloads) from samples.
const maxSampleValueLen = 100

var commonResourceKeys = map[string]bool{
	"k8s.deployment.name": true,
	"k8s.namespace.name":  true,
	"k8s.pod.name":        true,
	"service.name":        true,
}

func collect(dst map[string]*valueSet, src map[string]string) {
	for k, v := range src {
		set, ok := dst[k]
		if !ok {
			set = &valueSet{}
			dst[k] = set
		}
		if len(v) < maxSampleValueLen {
			set.add(v)
		}
	}
}

// FormatLogAttributeDiscovery summarises the attributes found in a sample of
// recent log lines and suggests queries built from real values.
func (f *Formatter) FormatLogAttributeDiscovery(entries []types.Row, start, end int64) string {
	resources := map[string]*valueSet{}
	attributes := map[string]*valueSet{}
	for _, e := range entries {
		collect(attributes, e.Data.AttributesString)
		collect(resources, e.Data.ResourcesString)
	}

	var b strings.Builder
	b.WriteString("# Log Attribute Discovery Results\n\n")
	fmt.Fprintf(&b, "Analyzed %d recent logs from %s to %s\n\n", len(entries), timeutil.FormatMillis(start), timeutil.FormatMillis(end))
	b.WriteString("## Resource Attributes (Infrastructure/K8s)\n*These identify where logs come from*\n\n")

	var common, other []string
	for _, k := range sortedKeys(resources) {
		if commonResourceKeys[k] {
			common = append(common, k)
		} else {
			other = append(other, k)
		}
	}
	if len(common) > 0 {
		b.WriteString("**Commonly Used:**\n")
		for _, k := range common {
			set := resources[k]
			unique := ""
			if len(set.values) > 5 {
				unique = fmt.Sprintf(" (%d unique values)", len(set.values))
			}
			fmt.Fprintf(&b, "- %s: %s%s\n", k, set.sample(5), unique)
		}
		b.WriteString("\n")
	}
	if len(other) > 0 {
		b.WriteString("**Other Resources:**\n")
		writeSampleLines(&b, resources, other, 3)
	}

	b.WriteString("\n## Log Attributes (Application-specific)\n*These contain log-specific data*\n\n")
	var httpKeys, labelKeys, otherKeys []string
	for _, k := range sortedKeys(attributes) {
		switch {
		case strings.HasPrefix(k, "http."):
			httpKeys = append(httpKeys, k)
		case strings.HasPrefix(k, "labels."):
			labelKeys = append(labelKeys, k)
		default:
			otherKeys = append(otherKeys, k)
		}
	}
	if len(httpKeys) > 0 {
		b.WriteString("**HTTP Attributes:**\n")
		writeSampleLines(&b, attributes, httpKeys, 3)
		b.WriteString("\n")
	}
	if len(labelKeys) > 0 {
		b.WriteString("**Labels:**\n")
		writeSampleLines(&b, attributes, labelKeys, 5)
		b.WriteString("\n")
	}
	if len(otherKeys) > 0 {
		b.WriteString("**Other Attributes:**\n")
		writeSampleLines(&b, attributes, otherKeys, 3)
	}

	levels := "error, info, warn, debug"
	if set, ok := attributes["severityText"]; ok && len(set.values) > 0 {
		levels = strings.Join(set.values, ", ")
	}
	b.WriteString("\n## Special Fields\n")
	b.WriteString("- **body** - The main log message content (use ~ operator to search)\n")
	b.WriteString("- **timestamp** - Log timestamp (automatically included)\n")
	fmt.Fprintf(&b, "- **level/severityText** - Log level: %s\n", levels)

	b.WriteString("\n## Example Queries\n*Based on your actual data:*\n\n")
	deployment := resources["k8s.deployment.name"].first()
	if deployment != "" {
		b.WriteString("**Filter by deployment:**\n")
		fmt.Fprintf(&b, "k8s.deployment.name=%s\n\n", deployment)
	}
	if ns := resources["k8s.namespace.name"].first(); ns != "" {
		if _, ok := attributes["severityText"]; ok {
			b.WriteString("**Errors in a namespace:**\n")
			fmt.Fprintf(&b, "k8s.namespace.name=%s AND level=error\n\n", ns)
		}
	}
	if len(labelKeys) > 0 {
		if v := attributes[labelKeys[0]].first(); v != "" {
			b.WriteString("**Filter by label:**\n")
			fmt.Fprintf(&b, "%s=%s\n\n", labelKeys[0], v)
		}
	}
	b.WriteString("**Search log content:**\n")
	b.WriteString("body~\"error message\"\n")
	b.WriteString("body~timeout AND level=error\n\n")
	b.WriteString("**Combine multiple filters:**\n")
	if deployment != "" && len(httpKeys) > 0 {
		fmt.Fprintf(&b, "k8s.deployment.name=%s AND http.request.method=POST\n", deployment)
	}
	return b.String()
}

func writeSampleLines(b *strings.Builder, sets map[string]*valueSet, keys []string, n int) {
	for _, k := range keys {
		set := sets[k]
		more := ""
		if len(set.values) > n {
			more = "..."
		}
		fmt.Fprintf(b, "- %s: %s%s\n", k, set.sample(n), more)
	}
}

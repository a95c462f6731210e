package format

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/SigNoz/signoz-query-mcp/pkg/timeutil"
	"github.com/SigNoz/signoz-query-mcp/pkg/types"
)

const noDataReport = `No data returned from query.

This could mean:
- The metric doesn't exist - try discover_metrics to see available metrics
- No data exists in the specified time range
- The query filters are too restrictive
- There's an issue with the SigNoz API

Debugging suggestions:
- Use discover_metrics to verify metric names
- Try a longer time range (e.g., start="24h", end="now")
- Remove query filters temporarily
- Check if the metric has data in SigNoz UI
`

const noResultsReport = `Query executed successfully but returned no results.

This means the metric exists but no data matches your filters.

Try:
- Expanding the time range
- Removing or adjusting query filters
- Using discover_metric_attributes to see available labels
`

const noPointsReport = "No data points found in any series.\n\nThe metrics exist but contain no data in the specified time range."

// seriesRows holds one label combination and its per-timestamp row, one
// cell per requested metric.
type seriesRows struct {
	key  string
	rows map[int64][]string
}

// FormatMetrics renders a query_range response as a markdown table keyed by
// unix milliseconds, one column per metric.
func (f *Formatter) FormatMetrics(resp *types.QueryRangeResponse, metricNames []string, start, end int64, step string) string {
	if resp == nil || resp.Data == nil || resp.Data.Result == nil {
		return noDataReport
	}
	results := resp.Data.Result
	if len(results) == 0 {
		return noResultsReport
	}

	var (
		order      []*seriesRows
		byKey      = map[string]*seriesRows{}
		timestamps = map[int64]struct{}{}
	)
	for i, r := range results {
		col, ok := metricColumn(r.QueryName, i, len(metricNames))
		if !ok {
			continue
		}
		for si, s := range normalizeSeries(r) {
			if len(s.Values) == 0 {
				continue
			}
			key := seriesKey(s.Labels, si)
			sr, ok := byKey[key]
			if !ok {
				sr = &seriesRows{key: key, rows: map[int64][]string{}}
				byKey[key] = sr
				order = append(order, sr)
			}
			for _, p := range s.Values {
				timestamps[p.Timestamp] = struct{}{}
				row, ok := sr.rows[p.Timestamp]
				if !ok {
					row = make([]string, len(metricNames))
					sr.rows[p.Timestamp] = row
				}
				row[col] = FormatMetricValue(p.Value)
			}
		}
	}

	if len(timestamps) == 0 {
		return noPointsReport
	}
	axis := make([]int64, 0, len(timestamps))
	for ts := range timestamps {
		axis = append(axis, ts)
	}
	sort.Slice(axis, func(i, j int) bool { return axis[i] < axis[j] })

	var b strings.Builder
	b.WriteString("# Metrics Query Result\n")
	fmt.Fprintf(&b, "# Time Range: %s to %s\n", timeutil.FormatMillis(start), timeutil.FormatMillis(end))
	fmt.Fprintf(&b, "# Step: %s\n", step)
	fmt.Fprintf(&b, "# Data Points: %d\n\n", len(axis))

	if len(order) > 1 {
		fmt.Fprintf(&b, "Found %d series across %d metric(s)\n\n", len(order), len(metricNames))
		for i, sr := range order {
			fmt.Fprintf(&b, "## Series %d\n", i+1)
			fmt.Fprintf(&b, "Labels: %s\n\n", sr.key)
			writeTableHeader(&b, metricNames)
			for _, ts := range axis {
				if row, ok := sr.rows[ts]; ok {
					writeTableRow(&b, ts, row)
				}
			}
			b.WriteString("\n")
		}
		return b.String()
	}

	sr := order[0]
	writeTableHeader(&b, metricNames)
	for _, ts := range axis {
		row, ok := sr.rows[ts]
		if !ok {
			row = make([]string, len(metricNames))
		}
		writeTableRow(&b, ts, row)
	}
	return b.String()
}

// metricColumn maps a result onto its metric column: by query name (A, B, ...)
// when possible, else by position.
func metricColumn(queryName string, position, width int) (int, bool) {
	if idx, ok := types.QueryIndex(queryName); ok && idx < width {
		return idx, true
	}
	if position < width {
		return position, true
	}
	return 0, false
}

// normalizeSeries lifts the Prometheus-style metric/values pair into the
// series list shape.
func normalizeSeries(r types.Result) []types.Series {
	if r.Series != nil {
		return r.Series
	}
	if r.Metric == nil || r.Values == nil {
		return nil
	}
	points := make([]types.Point, 0, len(r.Values))
	for _, pair := range r.Values {
		if len(pair) < 2 {
			continue
		}
		ts, ok := toFloat(pair[0])
		if !ok {
			continue
		}
		points = append(points, types.Point{Timestamp: int64(ts), Value: pair[1]})
	}
	return []types.Series{{Labels: r.Metric, Values: points}}
}

func seriesKey(labels map[string]string, index int) string {
	if labels == nil {
		return fmt.Sprintf("series_%d", index)
	}
	b, err := json.Marshal(labels)
	if err != nil {
		return fmt.Sprintf("series_%d", index)
	}
	return string(b)
}

func writeTableHeader(b *strings.Builder, names []string) {
	fmt.Fprintf(b, "|unix_millis|%s|\n", strings.Join(names, "|"))
	dashes := make([]string, len(names))
	for i := range dashes {
		dashes[i] = strings.Repeat("-", 10)
	}
	fmt.Fprintf(b, "|%s|%s|\n", strings.Repeat("-", 11), strings.Join(dashes, "|"))
}

func writeTableRow(b *strings.Builder, ts int64, cells []string) {
	fmt.Fprintf(b, "|%d|%s|\n", ts, strings.Join(cells, "|"))
}

// FormatMetricValue renders integers without a decimal point and other
// numbers with at most three decimals. Non-numeric values pass through.
func FormatMetricValue(v any) string {
	n, ok := toFloat(v)
	if !ok || math.IsNaN(n) || math.IsInf(n, 0) {
		if v == nil {
			return ""
		}
		return fmt.Sprint(v)
	}
	if n == math.Trunc(n) {
		return strconv.FormatFloat(n, 'f', -1, 64)
	}
	s := strconv.FormatFloat(n, 'f', 3, 64)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

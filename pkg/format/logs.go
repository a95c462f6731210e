package format

import (
	"fmt"
	"strings"

	"github.com/SigNoz/signoz-query-mcp/pkg/timeutil"
	"github.com/SigNoz/signoz-query-mcp/pkg/types"
)

// LogOptions control how log entries are rendered.
type LogOptions struct {
	Verbose           bool
	IncludeAttributes []string
	// ExcludeAttributes is accepted for symmetry with IncludeAttributes. It
	// has no effect: compact mode prints nothing to exclude from and verbose
	// mode prints everything.
	ExcludeAttributes []string
	Limit             int
}

// FormatLogs renders entries in the order received (newest first).
func (f *Formatter) FormatLogs(entries []types.Row, opts LogOptions) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Found %d log entries\n\n", len(entries))
	if len(entries) == 0 {
		return b.String()
	}

	for _, e := range entries {
		writeLogHeader(&b, e)
		if opts.Verbose {
			f.writeVerboseAttributes(&b, e.Data)
		} else {
			writeIncludedAttributes(&b, e.Data, opts.IncludeAttributes)
		}
		b.WriteString("\n")
	}

	if opts.Limit > 0 && len(entries) == opts.Limit {
		oldest := timeutil.FormatTimestamp(entries[len(entries)-1].Timestamp)
		if oldest != "unknown" {
			b.WriteString("\n--- More Results Available ---\n")
			fmt.Fprintf(&b, "Oldest timestamp: %s\n", oldest)
			fmt.Fprintf(&b, "To get next %d older results, use: end=\"%s\"\n", opts.Limit, oldest)
		}
	}
	return b.String()
}

func writeLogHeader(b *strings.Builder, e types.Row) {
	fmt.Fprintf(b, "[%s] [%s] [%s]\n", timeutil.FormatTimestamp(e.Timestamp), logLevel(e.Data), ServiceContext(e.Data.ResourcesString))
	b.WriteString(e.Data.Body)
	b.WriteString("\n")
}

func logLevel(d types.LogData) string {
	if lvl := d.AttributesString["level"]; lvl != "" {
		return lvl
	}
	if d.SeverityText != "" {
		return d.SeverityText
	}
	return "INFO"
}

// ServiceContext names where a log line came from, preferring an explicit
// service name over Kubernetes topology.
func ServiceContext(resources map[string]string) string {
	if svc := resources["service.name"]; svc != "" {
		return svc
	}
	ns := resources["k8s.namespace.name"]
	deployment := resources["k8s.deployment.name"]
	pod := resources["k8s.pod.name"]
	container := resources["k8s.container.name"]

	switch {
	case ns != "" && deployment != "":
		return ns + "/" + deployment
	case ns != "" && pod != "":
		return ns + "/" + pod
	case ns != "" && container != "":
		return ns + "/" + container
	case deployment != "":
		return deployment
	case pod != "":
		return pod
	case container != "":
		return container
	}
	return "unknown"
}

// writeIncludedAttributes prints only the requested keys, in request order.
// Resource values win over attribute values with the same key.
func writeIncludedAttributes(b *strings.Builder, d types.LogData, include []string) {
	if len(include) == 0 {
		return
	}
	var pairs []string
	for _, key := range include {
		v, ok := d.ResourcesString[key]
		if !ok {
			v, ok = d.AttributesString[key]
		}
		if ok {
			pairs = append(pairs, key+"="+v)
		}
	}
	if len(pairs) > 0 {
		fmt.Fprintf(b, "Attributes: %s\n", strings.Join(pairs, " "))
	}
}

func (f *Formatter) writeVerboseAttributes(b *strings.Builder, d types.LogData) {
	union := make(map[string]struct{}, len(d.AttributesString)+len(d.ResourcesString))
	for k := range d.AttributesString {
		union[k] = struct{}{}
	}
	for k := range d.ResourcesString {
		union[k] = struct{}{}
	}

	var pairs []string
	for _, key := range sortedKeys(union) {
		if f.cfg.IsHidden(key) {
			continue
		}
		v := d.AttributesString[key]
		if v == "" {
			v = d.ResourcesString[key]
		}
		pairs = append(pairs, key+"="+v)
	}
	if len(pairs) > 0 {
		fmt.Fprintf(b, "Attributes: %s\n", strings.Join(pairs, " "))
	}
}

package format

import (
	"fmt"
	"strings"

	"github.com/SigNoz/signoz-query-mcp/pkg/types"
)

// FormatTraces is the placeholder response of query_traces.
func (f *Formatter) FormatTraces(query string) string {
	return "Traces query functionality to be implemented. Query: " + query
}

// FormatConnection renders the outcome of a connection test. baseURL is
// shown on failure, when the result carries none.
func (f *Formatter) FormatConnection(r types.ConnectionResult, baseURL string) string {
	var b strings.Builder
	if r.Success {
		b.WriteString("Connection successful!\n\n")
		fmt.Fprintf(&b, "Server: %s\n", r.BaseURL)
		fmt.Fprintf(&b, "Response time: %dms\n", r.ResponseTime.Milliseconds())
		fmt.Fprintf(&b, "Status: %s\n", r.Status)
		fmt.Fprintf(&b, "Alert rules found: %d\n\n", r.RuleCount)
		b.WriteString("The Signoz server is reachable and the API key is valid.")
		return b.String()
	}
	b.WriteString("Connection failed!\n\n")
	fmt.Fprintf(&b, "Server: %s\n", baseURL)
	fmt.Fprintf(&b, "Error: %s\n\n", r.Error)
	b.WriteString("Please check your SIGNOZ_BASE_URL and SIGNOZ_API_KEY environment variables.")
	return b.String()
}

package types

import (
	"encoding/json"
	"fmt"
)

// QueryRangeResponse is the envelope returned by /api/v4/query_range.
type QueryRangeResponse struct {
	Status string          `json:"status"`
	Data   *QueryRangeData `json:"data"`
	Error  string          `json:"error,omitempty"`
}

type QueryRangeData struct {
	ResultType            string   `json:"resultType,omitempty"`
	ContextTimeout        bool     `json:"contextTimeout,omitempty"`
	ContextTimeoutMessage string   `json:"contextTimeoutMessage,omitempty"`
	Result                []Result `json:"result"`
}

// Result holds one query's output. Metric queries fill Series; log queries
// fill List. Some backends answer in Prometheus shape (Metric plus Values).
type Result struct {
	QueryName string            `json:"queryName"`
	Series    []Series          `json:"series,omitempty"`
	List      []Row             `json:"list,omitempty"`
	Metric    map[string]string `json:"metric,omitempty"`
	Values    [][]any           `json:"values,omitempty"`
}

type Series struct {
	Labels map[string]string `json:"labels"`
	Values []Point           `json:"values"`
}

// Point is a single sample. The backend sends values as strings.
type Point struct {
	Timestamp int64 `json:"timestamp"`
	Value     any   `json:"value"`
}

func (p *Point) UnmarshalJSON(b []byte) error {
	var raw struct {
		Timestamp json.Number `json:"timestamp"`
		Value     any         `json:"value"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	p.Value = raw.Value
	if raw.Timestamp == "" {
		p.Timestamp = 0
		return nil
	}
	if ts, err := raw.Timestamp.Int64(); err == nil {
		p.Timestamp = ts
		return nil
	}
	f, err := raw.Timestamp.Float64()
	if err != nil {
		return fmt.Errorf("invalid point timestamp %q: %w", raw.Timestamp, err)
	}
	p.Timestamp = int64(f)
	return nil
}

// Row is one raw log line.
type Row struct {
	Timestamp any     `json:"timestamp"`
	Data      LogData `json:"data"`
}

type LogData struct {
	Body             string            `json:"body"`
	AttributesString map[string]string `json:"attributes_string,omitempty"`
	ResourcesString  map[string]string `json:"resources_string,omitempty"`
	SeverityText     string            `json:"severity_text,omitempty"`
	SeverityNumber   int               `json:"severity_number,omitempty"`
}

// LogRows returns the rows of the first result, or nil.
func (r *QueryRangeResponse) LogRows() []Row {
	if r == nil || r.Data == nil || len(r.Data.Result) == 0 {
		return nil
	}
	return r.Data.Result[0].List
}

// Validate checks the envelope shape.
func (r *QueryRangeResponse) Validate() error {
	if r.Status == "" {
		return fmt.Errorf("response is missing status")
	}
	if r.Status == "error" {
		if r.Error != "" {
			return fmt.Errorf("query failed: %s", r.Error)
		}
		return fmt.Errorf("query failed")
	}
	return nil
}

package types

import "fmt"

// MetricInfo is one entry of the metrics discovery listing.
type MetricInfo struct {
	MetricName   string `json:"metric_name"`
	Description  string `json:"description"`
	Type         string `json:"type"`
	Unit         string `json:"unit"`
	Timeseries   int64  `json:"timeseries"`
	Samples      int64  `json:"samples"`
	LastReceived int64  `json:"lastReceived"`
}

type MetricsDiscoveryResponse struct {
	Status string                `json:"status"`
	Data   *MetricsDiscoveryData `json:"data"`
}

type MetricsDiscoveryData struct {
	Metrics []MetricInfo `json:"metrics"`
	Total   int          `json:"total"`
}

// MetricsDiscoveryRequest is the body of POST /api/v1/metrics.
type MetricsDiscoveryRequest struct {
	Filters FilterSet `json:"filters"`
	OrderBy OrderBy   `json:"orderBy"`
	Limit   int       `json:"limit"`
	Offset  int       `json:"offset"`
	Start   int64     `json:"start"`
	End     int64     `json:"end"`
}

// NewMetricsDiscoveryRequest lists metrics by sample count, busiest first.
func NewMetricsDiscoveryRequest(start, end int64, limit, offset int) *MetricsDiscoveryRequest {
	return &MetricsDiscoveryRequest{
		Filters: FilterSet{Op: "AND", Items: []FilterItem{}},
		OrderBy: OrderBy{ColumnName: "samples", Order: "desc"},
		Limit:   limit,
		Offset:  offset,
		Start:   start,
		End:     end,
	}
}

type MetricAttribute struct {
	Key        string   `json:"key"`
	Value      []string `json:"value"`
	ValueCount int64    `json:"valueCount"`
}

type MetricTypeMetadata struct {
	MetricType  string `json:"metric_type"`
	Temporality string `json:"temporality"`
	Monotonic   bool   `json:"monotonic"`
}

type MetricMetadata struct {
	Name             string              `json:"name"`
	Description      string              `json:"description"`
	Type             string              `json:"type"`
	Unit             string              `json:"unit"`
	Samples          int64               `json:"samples"`
	TimeSeriesTotal  int64               `json:"timeSeriesTotal"`
	TimeSeriesActive int64               `json:"timeSeriesActive"`
	LastReceived     int64               `json:"lastReceived"`
	Attributes       []MetricAttribute   `json:"attributes"`
	Metadata         *MetricTypeMetadata `json:"metadata"`
}

type MetricMetadataResponse struct {
	Status string          `json:"status"`
	Data   *MetricMetadata `json:"data"`
}

func validateEnvelope(status string, hasData bool) error {
	if status != "success" && status != "error" {
		return fmt.Errorf("unexpected response status %q", status)
	}
	if !hasData {
		return fmt.Errorf("response is missing data")
	}
	return nil
}

func (r *MetricsDiscoveryResponse) Validate() error {
	return validateEnvelope(r.Status, r.Data != nil)
}

func (r *MetricMetadataResponse) Validate() error {
	return validateEnvelope(r.Status, r.Data != nil)
}

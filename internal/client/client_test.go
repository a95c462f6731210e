package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/SigNoz/signoz-query-mcp/pkg/timeutil"
	"github.com/SigNoz/signoz-query-mcp/pkg/types"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) *SigNoz {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	opts = append([]Option{WithHTTPClient(server.Client())}, opts...)
	return NewClient(zap.NewNop(), server.URL+"/", "test-api-key", opts...)
}

func assertHeaders(t *testing.T, r *http.Request) {
	assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
	assert.Equal(t, "test-api-key", r.Header.Get("SIGNOZ-API-KEY"))
}

func TestQueryRange(t *testing.T) {
	tests := []struct {
		name          string
		statusCode    int
		resp          string
		expectedError string
	}{
		{
			name:       "successful query",
			statusCode: http.StatusOK,
			resp:       `{"status":"success","data":{"result":[{"queryName":"A","list":[]}]}}`,
		},
		{
			name:          "bad request",
			statusCode:    http.StatusBadRequest,
			resp:          `{"error":"invalid filter"}`,
			expectedError: `SigNoz API error: 400 - {"error":"invalid filter"}`,
		},
		{
			name:          "server error",
			statusCode:    http.StatusInternalServerError,
			resp:          "boom",
			expectedError: "SigNoz API error: 500 - boom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "/api/v4/query_range", r.URL.Path)
				assertHeaders(t, r)

				var got types.QueryRangeRequest
				body, _ := io.ReadAll(r.Body)
				require.NoError(t, json.Unmarshal(body, &got))
				assert.Equal(t, "list", got.CompositeQuery.PanelType)

				w.WriteHeader(tt.statusCode)
				_, _ = w.Write([]byte(tt.resp))
			})

			req := types.BuildLogsRequest("level=error", timeutil.Range{Start: 1000, End: 2000}, 10)
			result, err := client.QueryRange(context.Background(), req)

			if tt.expectedError != "" {
				require.Error(t, err)
				assert.Equal(t, tt.expectedError, err.Error())

				var apiErr *APIError
				require.ErrorAs(t, err, &apiErr)
				assert.Equal(t, tt.statusCode, apiErr.StatusCode)
				assert.Nil(t, result)
				return
			}
			require.NoError(t, err)
			assert.JSONEq(t, tt.resp, string(result))
		})
	}
}

func TestQueryRangeRejectsInvalidRequest(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("request must not be sent")
	})

	req := types.BuildLogsRequest("", timeutil.Range{Start: 2000, End: 1000}, 10)
	_, err := client.QueryRange(context.Background(), req)
	assert.ErrorContains(t, err, "invalid query")
}

func TestQueryRangeTimeout(t *testing.T) {
	release := make(chan struct{})
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}, WithTimeout(50*time.Millisecond))
	defer close(release)

	req := types.BuildLogsRequest("", timeutil.Range{Start: 1000, End: 2000}, 10)
	_, err := client.QueryRange(context.Background(), req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timeout")
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestDiscoverMetrics(t *testing.T) {
	fixed := time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/metrics", r.URL.Path)
		assertHeaders(t, r)

		var got map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		assert.Equal(t, float64(20), got["limit"])
		assert.Equal(t, float64(40), got["offset"])
		assert.Equal(t, float64(fixed.UnixMilli()), got["end"])
		assert.Equal(t, float64(fixed.Add(-30*time.Minute).UnixMilli()), got["start"])
		assert.Equal(t, map[string]any{"columnName": "samples", "order": "desc"}, got["orderBy"])
		assert.Equal(t, map[string]any{"items": []any{}, "op": "AND"}, got["filters"])

		_, _ = w.Write([]byte(`{"status":"success","data":{"metrics":[{"metric_name":"up","type":"Gauge","samples":12,"timeseries":3}],"total":1}}`))
	})
	client.now = func() time.Time { return fixed }

	resp, err := client.DiscoverMetrics(context.Background(), "30m", 20, 40)
	require.NoError(t, err)
	require.Len(t, resp.Data.Metrics, 1)
	assert.Equal(t, "up", resp.Data.Metrics[0].MetricName)
	assert.Equal(t, int64(12), resp.Data.Metrics[0].Samples)
	assert.Equal(t, 1, resp.Data.Total)
}

func TestDiscoverMetricsErrors(t *testing.T) {
	tests := []struct {
		name          string
		timeRange     string
		statusCode    int
		resp          string
		expectedError string
	}{
		{name: "invalid time range", timeRange: "soon", expectedError: "invalid time range format"},
		{name: "endpoint missing", timeRange: "1h", statusCode: http.StatusNotFound, resp: "404 page not found", expectedError: "404"},
		{name: "missing data", timeRange: "1h", statusCode: http.StatusOK, resp: `{"status":"success"}`, expectedError: "missing data"},
		{name: "bad status", timeRange: "1h", statusCode: http.StatusOK, resp: `{"status":"weird","data":{}}`, expectedError: "unexpected response status"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.statusCode)
				_, _ = w.Write([]byte(tt.resp))
			})
			_, err := client.DiscoverMetrics(context.Background(), tt.timeRange, 10, 0)
			assert.ErrorContains(t, err, tt.expectedError)
		})
	}
}

func TestGetMetricMetadata(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/v1/metrics/http%2Fduration/metadata", r.URL.EscapedPath())
		assertHeaders(t, r)

		_, _ = w.Write([]byte(`{"status":"success","data":{"name":"http/duration","type":"Histogram","samples":5,"attributes":null,"metadata":{"metric_type":"Histogram","temporality":"Delta","monotonic":false}}}`))
	})

	resp, err := client.GetMetricMetadata(context.Background(), "http/duration")
	require.NoError(t, err)
	assert.Equal(t, "http/duration", resp.Data.Name)
	assert.Nil(t, resp.Data.Attributes)
	require.NotNil(t, resp.Data.Metadata)
	assert.Equal(t, "Delta", resp.Data.Metadata.Temporality)
}

func TestTestConnection(t *testing.T) {
	tests := []struct {
		name        string
		statusCode  int
		resp        string
		wantSuccess bool
		wantRules   int
		wantError   string
	}{
		{
			name:        "reachable",
			statusCode:  http.StatusOK,
			resp:        `{"status":"success","data":{"rules":[{"id":"1"},{"id":"2"}]}}`,
			wantSuccess: true,
			wantRules:   2,
		},
		{
			name:        "unparseable body still succeeds",
			statusCode:  http.StatusOK,
			resp:        "not json",
			wantSuccess: true,
		},
		{
			name:       "unauthorized",
			statusCode: http.StatusUnauthorized,
			resp:       "invalid key",
			wantError:  "401 Unauthorized: invalid key",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/api/v1/rules", r.URL.Path)
				assertHeaders(t, r)
				w.WriteHeader(tt.statusCode)
				_, _ = w.Write([]byte(tt.resp))
			})

			result := client.TestConnection(context.Background())
			assert.Equal(t, tt.wantSuccess, result.Success)
			assert.Equal(t, tt.wantRules, result.RuleCount)
			assert.Equal(t, tt.wantError, result.Error)
			assert.Equal(t, client.BaseURL(), result.BaseURL)
			if tt.wantSuccess {
				assert.Equal(t, "200 OK", result.Status)
			}
		})
	}
}

func TestTestConnectionUnreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	client := NewClient(zap.NewNop(), url, "k")
	result := client.TestConnection(context.Background())
	assert.False(t, result.Success)
	assert.NotEmpty(t, result.Error)
	assert.Zero(t, result.ResponseTime)
	assert.False(t, client.CheckConnectivity(context.Background()))
}

func TestCheckConnectivity(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"success","data":{"rules":[]}}`))
	})
	assert.True(t, client.CheckConnectivity(context.Background()))
}

func TestRateLimitCancelled(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}, WithRateLimit(0.001))

	// the first request consumes the only token
	assert.True(t, client.CheckConnectivity(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := client.send(ctx, http.MethodGet, "/api/v1/rules", nil)
	assert.ErrorContains(t, err, "rate limiter")
}

package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/SigNoz/signoz-query-mcp/pkg/timeutil"
	"github.com/SigNoz/signoz-query-mcp/pkg/types"
)

const (
	SignozApiKey = "SIGNOZ-API-KEY"
	ContentType  = "Content-Type"

	DefaultTimeout = 30 * time.Second
)

// APIError is returned for any non-2xx response from SigNoz.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("SigNoz API error: %d - %s", e.StatusCode, e.Body)
}

type SigNoz struct {
	baseURL    string
	apiKey     string
	logger     *zap.Logger
	httpClient *http.Client
	limiter    *rate.Limiter
	timeout    time.Duration
	now        func() time.Time
}

type Option func(*SigNoz)

// WithTimeout bounds every request made by the client.
func WithTimeout(d time.Duration) Option {
	return func(s *SigNoz) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithRateLimit caps outbound requests per second. Zero disables the limit.
func WithRateLimit(perSecond float64) Option {
	return func(s *SigNoz) {
		if perSecond > 0 {
			burst := int(perSecond)
			if burst < 1 {
				burst = 1
			}
			s.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
		}
	}
}

// WithHTTPClient replaces the instrumented default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(s *SigNoz) { s.httpClient = c }
}

func NewClient(log *zap.Logger, url, apiKey string, opts ...Option) *SigNoz {
	s := &SigNoz{
		logger:     log,
		baseURL:    strings.TrimRight(url, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
		limiter:    rate.NewLimiter(rate.Inf, 0),
		timeout:    DefaultTimeout,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// BaseURL returns the SigNoz base URL without a trailing slash.
func (s *SigNoz) BaseURL() string { return s.baseURL }

type response struct {
	status int
	body   []byte
}

// send performs one request. Non-2xx statuses are returned as a response, not
// an error; callers decide.
func (s *SigNoz) send(ctx context.Context, method, endpoint string, payload any) (*response, error) {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		body = bytes.NewReader(b)
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	reqURL := s.baseURL + endpoint
	req, err := http.NewRequestWithContext(ctx, method, reqURL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set(ContentType, "application/json")
	req.Header.Set(SignozApiKey, s.apiKey)

	s.logger.Debug("Making request to SigNoz API", zap.String("method", method), zap.String("endpoint", endpoint))

	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.logger.Error("HTTP request failed", zap.String("url", reqURL), zap.Error(err))
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("request timeout after %s: %w", s.timeout, err)
		}
		return nil, fmt.Errorf("failed to do request: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			s.logger.Warn("Failed to close response body", zap.Error(err))
		}
	}()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		s.logger.Error("Failed to read response body", zap.String("url", reqURL), zap.Error(err))
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return &response{status: resp.StatusCode, body: b}, nil
}

func (s *SigNoz) do(ctx context.Context, method, endpoint string, payload any) (json.RawMessage, error) {
	resp, err := s.send(ctx, method, endpoint, payload)
	if err != nil {
		return nil, err
	}
	if resp.status < 200 || resp.status >= 300 {
		s.logger.Error("API request failed", zap.String("endpoint", endpoint), zap.Int("status", resp.status), zap.String("response", string(resp.body)))
		return nil, &APIError{StatusCode: resp.status, Body: string(resp.body)}
	}
	s.logger.Debug("SigNoz API request succeeded", zap.String("endpoint", endpoint), zap.Int("status", resp.status))
	return resp.body, nil
}

// QueryRange runs a builder query against /api/v4/query_range and returns the
// raw response body.
func (s *SigNoz) QueryRange(ctx context.Context, q *types.QueryRangeRequest) (json.RawMessage, error) {
	if err := q.Validate(); err != nil {
		return nil, fmt.Errorf("invalid query: %w", err)
	}
	return s.do(ctx, http.MethodPost, "/api/v4/query_range", q)
}

// DiscoverMetrics lists metrics that received samples within timeRange,
// busiest first. The endpoint is internal to SigNoz and may be missing on
// older versions.
func (s *SigNoz) DiscoverMetrics(ctx context.Context, timeRange string, limit, offset int) (*types.MetricsDiscoveryResponse, error) {
	window, err := timeutil.ParseTimeRange(timeRange)
	if err != nil {
		return nil, err
	}
	end := s.now().UnixMilli()
	start := end - window.Milliseconds()

	s.logger.Debug("Discovering metrics", zap.String("timeRange", timeRange), zap.Int("limit", limit), zap.Int("offset", offset))

	body, err := s.do(ctx, http.MethodPost, "/api/v1/metrics", types.NewMetricsDiscoveryRequest(start, end, limit, offset))
	if err != nil {
		return nil, err
	}

	var out types.MetricsDiscoveryResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("failed to parse metrics discovery response: %w", err)
	}
	if err := out.Validate(); err != nil {
		return nil, fmt.Errorf("invalid metrics discovery response: %w", err)
	}
	return &out, nil
}

// GetMetricMetadata fetches type, activity and label cardinality for one metric.
func (s *SigNoz) GetMetricMetadata(ctx context.Context, metricName string) (*types.MetricMetadataResponse, error) {
	endpoint := fmt.Sprintf("/api/v1/metrics/%s/metadata", url.PathEscape(metricName))

	body, err := s.do(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	var out types.MetricMetadataResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("failed to parse metric metadata response: %w", err)
	}
	if err := out.Validate(); err != nil {
		return nil, fmt.Errorf("invalid metric metadata response: %w", err)
	}
	return &out, nil
}

// TestConnection probes /api/v1/rules, which requires a valid API key.
// Failures are reported in the result, never as an error.
func (s *SigNoz) TestConnection(ctx context.Context) types.ConnectionResult {
	started := s.now()
	resp, err := s.send(ctx, http.MethodGet, "/api/v1/rules", nil)
	if err != nil {
		return types.ConnectionResult{BaseURL: s.baseURL, Error: err.Error()}
	}
	elapsed := s.now().Sub(started)

	status := fmt.Sprintf("%d %s", resp.status, http.StatusText(resp.status))
	if resp.status < 200 || resp.status >= 300 {
		return types.ConnectionResult{
			ResponseTime: elapsed,
			BaseURL:      s.baseURL,
			Error:        fmt.Sprintf("%s: %s", status, string(resp.body)),
		}
	}

	var rules types.RulesResponse
	if err := json.Unmarshal(resp.body, &rules); err != nil {
		s.logger.Warn("Failed to parse rules response", zap.Error(err))
	}
	return types.ConnectionResult{
		Success:      true,
		ResponseTime: elapsed,
		Status:       status,
		RuleCount:    rules.RuleCount(),
		BaseURL:      s.baseURL,
	}
}

// CheckConnectivity reports whether SigNoz answers the rules endpoint with 2xx.
func (s *SigNoz) CheckConnectivity(ctx context.Context) bool {
	_, err := s.do(ctx, http.MethodGet, "/api/v1/rules", nil)
	return err == nil
}

package contextutil

import (
	"context"
	"net/http"
	"strings"
)

type contextKey string

const apiKeyContextKey contextKey = "signoz_api_key"

// APIKeyHeader is the header SigNoz reads the API key from.
const APIKeyHeader = "SIGNOZ-API-KEY"

// SetAPIKey stores the SigNoz API key for the current request.
func SetAPIKey(ctx context.Context, apiKey string) context.Context {
	return context.WithValue(ctx, apiKeyContextKey, apiKey)
}

// GetAPIKey retrieves the API key from the context
func GetAPIKey(ctx context.Context) (string, bool) {
	apiKey, ok := ctx.Value(apiKeyContextKey).(string)
	return apiKey, ok
}

// WithRequestAPIKey copies the caller's API key from r into ctx. The
// SIGNOZ-API-KEY header wins over a bearer token; without either, ctx is
// returned unchanged.
func WithRequestAPIKey(ctx context.Context, r *http.Request) context.Context {
	key := strings.TrimSpace(r.Header.Get(APIKeyHeader))
	if key == "" {
		if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
			key = strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
		}
	}
	if key == "" {
		return ctx
	}
	return SetAPIKey(ctx, key)
}

package mcp_server

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/SigNoz/signoz-query-mcp/internal/client"
	"github.com/SigNoz/signoz-query-mcp/internal/config"
	"github.com/SigNoz/signoz-query-mcp/internal/handler/tools"
)

func newTestServer(t *testing.T) *MCPServer {
	t.Helper()
	log := zap.NewNop()
	h, err := tools.NewHandler(log, client.NewClient(log, "http://127.0.0.1:1", "k"), "http://127.0.0.1:1", 0)
	require.NoError(t, err)

	cfg := &config.Config{URL: "http://127.0.0.1:1", APIKey: "k"}
	require.NoError(t, cfg.Validate())
	return NewMCPServer(log, h, cfg, "test")
}

func TestBuildRegistersTools(t *testing.T) {
	s := newTestServer(t).Build()
	resp := s.HandleMessage(context.Background(), []byte(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`))
	b, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"name":"query_logs"`)
	assert.Contains(t, string(b), `"name":"discover_metric_attributes"`)
}

func TestBuildRecoversToolPanics(t *testing.T) {
	s := newTestServer(t).Build()
	s.AddTool(mcp.NewTool("explode"), func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		panic("boom")
	})

	var resp any
	require.NotPanics(t, func() {
		resp = s.HandleMessage(context.Background(), []byte(`{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"explode","arguments":{}}}`))
	})
	b, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.Contains(t, string(b), "panic")
}

package mcp

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thebtf/reclaim/internal/config"
)

func testServer() *Server {
	return &Server{cfg: config.Default(), version: "test"}
}

func callRequest(t *testing.T, method string, params any) Request {
	t.Helper()
	req := Request{JSONRPC: "2.0", ID: json.RawMessage(`1`), Method: method}
	if params != nil {
		data, err := json.Marshal(params)
		require.NoError(t, err)
		req.Params = data
	}
	return req
}

func TestHandleInitialize(t *testing.T) {
	resp := testServer().handle(context.Background(), callRequest(t, "initialize", nil))

	require.Nil(t, resp.Error)
	result, ok := resp.Result.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, protocolVersion, result["protocolVersion"])

	info, ok := result["serverInfo"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "reclaim", info["name"])
}

func TestHandleToolsList(t *testing.T) {
	resp := testServer().handle(context.Background(), callRequest(t, "tools/list", nil))

	require.Nil(t, resp.Error)
	result, ok := resp.Result.(map[string]any)
	require.True(t, ok)

	tools, ok := result["tools"].([]map[string]any)
	require.True(t, ok)
	require.Len(t, tools, 5)

	names := make([]string, 0, len(tools))
	for _, tool := range tools {
		names = append(names, tool["name"].(string))
	}
	assert.ElementsMatch(t, []string{"dedupe", "search", "count", "outliers", "analyze_file_clusters"}, names)
}

func TestHandleUnknownMethod(t *testing.T) {
	resp := testServer().handle(context.Background(), callRequest(t, "unknown/method", nil))

	require.NotNil(t, resp.Error)
	assert.Equal(t, codeMethodNotFound, resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "Method not found")
}

func TestHandleToolCall_UnknownTool(t *testing.T) {
	resp := testServer().handle(context.Background(), callRequest(t, "tools/call", map[string]any{
		"name":      "nonsense",
		"arguments": map[string]any{},
	}))

	require.NotNil(t, resp.Error)
	assert.Equal(t, codeInvalidParams, resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "Unknown tool")
}

func TestHandleToolCall_MissingParams(t *testing.T) {
	resp := testServer().handle(context.Background(), callRequest(t, "tools/call", nil))

	require.NotNil(t, resp.Error)
	assert.Equal(t, codeInvalidParams, resp.Error.Code)
}

func TestSearchAndCountTools(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"one.txt", "two.txt", "three.log"} {
		require.NoError(t, os.WriteFile(filepath.Join(root, name), []byte("x"), 0o644))
	}

	srv := testServer()

	resp := srv.handle(context.Background(), callRequest(t, "tools/call", map[string]any{
		"name": "search",
		"arguments": map[string]any{
			"path":         root,
			"pattern":      "*.txt",
			"pattern_type": "glob",
		},
	}))
	require.Nil(t, resp.Error)
	result := resp.Result.(map[string]any)
	assert.Equal(t, 2, result["count"])

	resp = srv.handle(context.Background(), callRequest(t, "tools/call", map[string]any{
		"name":      "count",
		"arguments": map[string]any{"path": root},
	}))
	require.Nil(t, resp.Error)
	result = resp.Result.(map[string]any)
	assert.Equal(t, 3, result["count"])
}

func TestDedupeTool(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.dat"), []byte("dup"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "b.dat"), []byte("dup"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "c.dat"), []byte("solo"), 0o644))

	resp := testServer().handle(context.Background(), callRequest(t, "tools/call", map[string]any{
		"name":      "dedupe",
		"arguments": map[string]any{"path": root},
	}))

	require.Nil(t, resp.Error)
	result := resp.Result.(map[string]any)
	assert.Equal(t, 3, result["total_files"])
	assert.Equal(t, 1, result["duplicate_groups"])
	assert.Equal(t, 2, result["duplicate_files"])
}

func TestOutliersTool(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "node_modules"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "node_modules", "lib.js"), []byte("code"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "app.go"), []byte("package main"), 0o644))

	resp := testServer().handle(context.Background(), callRequest(t, "tools/call", map[string]any{
		"name":      "outliers",
		"arguments": map[string]any{"path": root},
	}))

	require.Nil(t, resp.Error)
	result := resp.Result.(map[string]any)
	assert.Equal(t, 2, result["total_files_analyzed"])
}

func TestOutliersTool_InvalidMinSize(t *testing.T) {
	resp := testServer().handle(context.Background(), callRequest(t, "tools/call", map[string]any{
		"name":      "outliers",
		"arguments": map[string]any{"path": ".", "min_size": "banana"},
	}))

	require.NotNil(t, resp.Error)
	assert.Equal(t, codeInvalidParams, resp.Error.Code)
}

func TestAnalyzeClustersTool_InsufficientFiles(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "tiny.txt"), []byte("x"), 0o644))

	resp := testServer().handle(context.Background(), callRequest(t, "tools/call", map[string]any{
		"name":      "analyze_file_clusters",
		"arguments": map[string]any{"path": root},
	}))

	require.NotNil(t, resp.Error)
	assert.Contains(t, resp.Error.Message, "insufficient files")
}

func TestRun_ParseErrorAndEOF(t *testing.T) {
	var out bytes.Buffer
	srv := testServer()
	srv.in = strings.NewReader("{not json}\n")
	srv.out = &out

	require.NoError(t, srv.Run(context.Background()))

	var resp Response
	require.NoError(t, json.Unmarshal(out.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, codeParseError, resp.Error.Code)
	assert.Equal(t, "Parse error", resp.Error.Message)
}

func TestRun_RoundTrip(t *testing.T) {
	var out bytes.Buffer
	srv := testServer()
	srv.in = strings.NewReader(`{"jsonrpc":"2.0","id":7,"method":"tools/list"}` + "\n")
	srv.out = &out

	require.NoError(t, srv.Run(context.Background()))

	line := strings.TrimSpace(out.String())
	var resp struct {
		JSONRPC string          `json:"jsonrpc"`
		ID      json.RawMessage `json:"id"`
		Result  json.RawMessage `json:"result"`
	}
	require.NoError(t, json.Unmarshal([]byte(line), &resp))
	assert.Equal(t, "2.0", resp.JSONRPC)
	assert.Equal(t, "7", string(resp.ID))
	assert.Contains(t, string(resp.Result), "analyze_file_clusters")
}

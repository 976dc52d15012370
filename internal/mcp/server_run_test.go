package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/mcp-form-fields/internal/config"
)

func TestServer_Run_ServerMode(t *testing.T) {
	cfg := testConfig(t)
	cfg.Mode = config.ModeServer
	cfg.Port = 0
	server := newTestServer(t, cfg, false)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- server.Run(ctx)
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop after cancellation")
	}
}

func TestServer_serveStdio_Cancellation(t *testing.T) {
	server := newTestServer(t, testConfig(t), false)
	in, _ := io.Pipe()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- server.serveStdio(ctx, in, io.Discard)
	}()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("stdio server did not stop after cancellation")
	}
}

func TestServer_serveStdio_ToolCalls(t *testing.T) {
	cfg := testConfig(t)
	writeForm(t, cfg.PDFDirectory)
	server := newTestServer(t, cfg, false)

	inR, inW := io.Pipe()
	outR, outW := io.Pipe()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		_ = server.serveStdio(ctx, inR, outW)
	}()

	responses := bufio.NewReader(outR)
	call := func(request string) map[string]interface{} {
		t.Helper()
		_, err := io.WriteString(inW, request+"\n")
		require.NoError(t, err)
		line, err := responses.ReadBytes('\n')
		require.NoError(t, err)
		var msg map[string]interface{}
		require.NoError(t, json.Unmarshal(line, &msg))
		return msg
	}

	hello := call(`{"jsonrpc":"2.0","id":0,"method":"initialize","params":{"protocolVersion":"2024-11-05","capabilities":{},"clientInfo":{"name":"test","version":"1.0.0"}}}`)
	require.Contains(t, hello, "result")

	list := call(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`)
	result, ok := list["result"].(map[string]interface{})
	require.True(t, ok, "tools/list returned %v", list)
	var names []string
	for _, tool := range result["tools"].([]interface{}) {
		names = append(names, tool.(map[string]interface{})["name"].(string))
	}
	assert.ElementsMatch(t, []string{
		"form_extract_fields",
		"form_annotate_sections",
		"form_validate_file",
		"form_search_directory",
		"form_server_info",
	}, names)

	extract := call(`{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"form_extract_fields","arguments":{"path":"proposal.pdf"}}}`)
	raw, err := json.Marshal(extract["result"])
	require.NoError(t, err)
	assert.Contains(t, string(raw), "Elevator pitch: Screening for diabetes")
}

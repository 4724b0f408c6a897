// ABOUTME: Tests for MCP tool handlers against an offline in-memory service graph
// ABOUTME: Covers upload, list, delete, generate, status, preview, and argument errors
package mcp

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harper/ragdoc/internal/app"
	"github.com/harper/ragdoc/internal/config"
	"github.com/harper/ragdoc/internal/models"
)

func newTestHandlers(t *testing.T) *Handlers {
	t.Helper()
	svc, err := app.Build(context.Background(), &config.Config{
		LLMProvider:         config.ProviderOffline,
		EmbeddingProvider:   config.ProviderOffline,
		EmbeddingDimension:  512,
		IndexBackend:        config.BackendMemory,
		Tokenizer:           "words",
		ChunkSize:           40,
		ChunkOverlap:        4,
		TopK:                5,
		SimilarityThreshold: 0.3,
		Temperature:         0.3,
		MaxTokens:           500,
		IngestWorkers:       2,
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close() })
	return NewHandlers(svc)
}

func call(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, res)
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok, "content is %T", res.Content[0])
	return text.Text
}

func upload(t *testing.T, h *Handlers, filename, content string) models.UploadSummary {
	t.Helper()
	res, err := h.UploadDocument(context.Background(), call(map[string]any{"filename": filename, "content": content}))
	require.NoError(t, err)
	require.False(t, res.IsError, resultText(t, res))

	var summary models.UploadSummary
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &summary))
	return summary
}

func TestUploadAndList(t *testing.T) {
	h := newTestHandlers(t)
	summary := upload(t, h, "leave.txt", "Annual leave accrues monthly. Unused leave carries over.")
	assert.Equal(t, 1, summary.SuccessfulUploads)
	require.Len(t, summary.Files, 1)
	assert.NotEmpty(t, summary.Files[0].DocumentID)

	res, err := h.ListDocuments(context.Background(), call(nil))
	require.NoError(t, err)
	var list models.DocumentList
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &list))
	require.Equal(t, 1, list.TotalDocuments)
	assert.Equal(t, "leave.txt", list.Documents[0].Filename)
}

func TestUploadDocument_Errors(t *testing.T) {
	h := newTestHandlers(t)
	ctx := context.Background()
	upload(t, h, "dup.txt", "First version of the file.")

	tests := []struct {
		name string
		args map[string]any
		want string
	}{
		{"missing filename", map[string]any{"content": "x"}, "filename argument is required"},
		{"missing content", map[string]any{"filename": "a.txt"}, "content argument is required"},
		{"bad base64", map[string]any{"filename": "a.txt", "content": "%%%", "encoding": "base64"}, "not valid base64"},
		{"bad encoding", map[string]any{"filename": "a.txt", "content": "x", "encoding": "rot13"}, "unknown encoding"},
		{"unsupported", map[string]any{"filename": "a.png", "content": "x"}, "Unsupported file type"},
		{"duplicate", map[string]any{"filename": "dup.txt", "content": "Second version."}, "already exists"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := h.UploadDocument(ctx, call(tt.args))
			require.NoError(t, err)
			assert.True(t, res.IsError)
			assert.Contains(t, resultText(t, res), tt.want)
		})
	}
}

func TestUploadDocument_Base64(t *testing.T) {
	h := newTestHandlers(t)
	encoded := base64.StdEncoding.EncodeToString([]byte("Encoded text arrives intact."))
	res, err := h.UploadDocument(context.Background(), call(map[string]any{
		"filename": "encoded.txt", "content": encoded, "encoding": "base64",
	}))
	require.NoError(t, err)
	assert.False(t, res.IsError, resultText(t, res))
}

func TestDeleteDocument(t *testing.T) {
	h := newTestHandlers(t)
	ctx := context.Background()
	summary := upload(t, h, "gone.txt", "This document will be deleted.")
	id := summary.Files[0].DocumentID

	res, err := h.DeleteDocument(ctx, call(map[string]any{"document_id": id}))
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Contains(t, resultText(t, res), `"success":true`)

	res, err = h.DeleteDocument(ctx, call(map[string]any{"document_id": id}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(t, res), "not found")

	res, err = h.DeleteDocument(ctx, call(nil))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestGenerateContent(t *testing.T) {
	h := newTestHandlers(t)
	ctx := context.Background()
	upload(t, h, "remote.txt", "Remote work requires manager approval.")
	upload(t, h, "finance.txt", "Quarterly revenue grew in Europe.")

	res, err := h.GenerateContent(ctx, call(map[string]any{
		"query":           "remote work manager approval",
		"generation_type": "faq",
		"top_k":           3,
		"filenames":       []any{"remote"},
	}))
	require.NoError(t, err)
	require.False(t, res.IsError, resultText(t, res))

	var out models.GenerationResult
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &out))
	require.Len(t, out.Sources, 1)
	assert.Equal(t, "remote.txt", out.Sources[0].Filename)
	assert.Equal(t, models.GenerationFAQ, out.Metadata.GenerationType)
	assert.Contains(t, out.GeneratedContent, "manager approval")
}

func TestGenerateContent_NoSourcesAndInvalid(t *testing.T) {
	h := newTestHandlers(t)
	ctx := context.Background()

	res, err := h.GenerateContent(ctx, call(map[string]any{"query": "anything about the empty index"}))
	require.NoError(t, err)
	require.False(t, res.IsError)
	var out models.GenerationResult
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &out))
	assert.Empty(t, out.Sources)
	require.NotNil(t, out.Warning)

	res, err = h.GenerateContent(ctx, call(map[string]any{"query": "short"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)

	res, err = h.GenerateContent(ctx, call(nil))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestGetStatusAndPreview(t *testing.T) {
	h := newTestHandlers(t)
	ctx := context.Background()
	upload(t, h, "a.txt", "One sentence here. Another sentence there.")

	res, err := h.GetStatus(ctx, call(nil))
	require.NoError(t, err)
	var st models.IndexStatus
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &st))
	assert.Equal(t, "healthy", st.Status)
	assert.Equal(t, 1, st.TotalDocuments)

	res, err = h.PreviewChunks(ctx, call(map[string]any{"text": "Alpha beta. Gamma delta.", "filename": "p.txt"}))
	require.NoError(t, err)
	var preview models.ChunkPreview
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &preview))
	assert.Equal(t, "p.txt", preview.Filename)
	assert.Equal(t, 40, preview.ChunkSize)
	assert.NotEmpty(t, preview.Chunks)
}

func TestRegisterTools(t *testing.T) {
	svc, err := app.Build(context.Background(), &config.Config{
		LLMProvider: config.ProviderOffline, EmbeddingProvider: config.ProviderOffline,
		EmbeddingDimension: 64, IndexBackend: config.BackendMemory, Tokenizer: "words",
		ChunkSize: 10, TopK: 5, MaxTokens: 10, IngestWorkers: 1,
	}, nil)
	require.NoError(t, err)
	defer func() { _ = svc.Close() }()

	server := NewServer(svc, "test")
	resp := server.HandleMessage(context.Background(), []byte(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`))
	raw, err := json.Marshal(resp)
	require.NoError(t, err)
	for _, name := range []string{"upload_document", "list_documents", "delete_document", "generate_content", "get_status", "preview_chunks"} {
		assert.Contains(t, string(raw), `"`+name+`"`)
	}
}

// ABOUTME: MCP tool handler implementations for the ragdoc server
// ABOUTME: Each handler validates arguments, calls a core service, and answers with JSON text
package mcp

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/harper/ragdoc/internal/app"
	"github.com/harper/ragdoc/internal/core"
	"github.com/harper/ragdoc/internal/logging"
	"github.com/harper/ragdoc/internal/models"
)

// Handlers contains the handler functions for all MCP tools
type Handlers struct {
	processor *core.Processor
	generator *core.Generator
	library   *core.Library
	chunker   *core.ChunkEngine
	status    func(context.Context) models.IndexStatus
	logger    *log.Logger
}

// NewHandlers binds handlers to a built service graph
func NewHandlers(svc *app.Services) *Handlers {
	return &Handlers{
		processor: svc.Processor,
		generator: svc.Generator,
		library:   svc.Library,
		chunker:   svc.Chunker,
		status:    svc.Status,
		logger:    logging.OrDiscard(svc.Logger),
	}
}

// UploadDocument handles the upload_document tool
func (h *Handlers) UploadDocument(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	filename, err := request.RequireString("filename")
	if err != nil {
		return mcp.NewToolResultError("filename argument is required and must be a string"), nil
	}
	content, err := request.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError("content argument is required and must be a string"), nil
	}

	data := []byte(content)
	switch encoding := request.GetString("encoding", "text"); encoding {
	case "text":
	case "base64":
		data, err = base64.StdEncoding.DecodeString(content)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("content is not valid base64: %v", err)), nil
		}
	default:
		return mcp.NewToolResultError(fmt.Sprintf("unknown encoding %q (use text or base64)", encoding)), nil
	}

	summary := h.processor.IngestFiles(ctx, []core.Upload{{Filename: filename, Data: data}})
	if summary.FailedUploads > 0 {
		return mcp.NewToolResultError(fmt.Sprintf("%s: %s", filename, summary.Files[0].Status)), nil
	}

	return jsonResult(summary)
}

// ListDocuments handles the list_documents tool
func (h *Handlers) ListDocuments(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	list, err := h.library.ListDocuments(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list documents: %v", err)), nil
	}
	return jsonResult(list)
}

// DeleteDocument handles the delete_document tool
func (h *Handlers) DeleteDocument(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	documentID, err := request.RequireString("document_id")
	if err != nil || documentID == "" {
		return mcp.NewToolResultError("document_id argument is required and must be a string"), nil
	}

	if err := h.library.DeleteDocument(ctx, documentID); err != nil {
		if errors.Is(err, core.ErrDocumentNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("document %s not found", documentID)), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}

	return jsonResult(map[string]interface{}{
		"success":     true,
		"document_id": documentID,
		"message":     fmt.Sprintf("Document %s deleted", documentID),
	})
}

// GenerateContent handles the generate_content tool
func (h *Handlers) GenerateContent(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("query argument is required and must be a string"), nil
	}

	req := models.GenerateRequest{
		Query:          query,
		GenerationType: models.GenerationType(request.GetString("generation_type", string(models.GenerationGeneral))),
	}
	if topK := request.GetInt("top_k", 0); topK != 0 {
		req.TopK = &topK
	}
	ids := request.GetStringSlice("document_ids", nil)
	names := request.GetStringSlice("filenames", nil)
	if len(ids) > 0 || len(names) > 0 {
		req.Filters = &models.MetadataFilter{DocumentIDs: ids, Filenames: names}
	}

	result, err := h.generator.Generate(ctx, req)
	if err != nil {
		h.logger.Error("generation failed", "err", err)
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(result)
}

// GetStatus handles the get_status tool
func (h *Handlers) GetStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(h.status(ctx))
}

// PreviewChunks handles the preview_chunks tool
func (h *Handlers) PreviewChunks(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := request.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError("text argument is required and must be a string"), nil
	}
	return jsonResult(h.chunker.Preview(request.GetString("filename", "preview.txt"), text))
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	responseJSON, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal response: %v", err)), nil
	}
	return mcp.NewToolResultText(string(responseJSON)), nil
}

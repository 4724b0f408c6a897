// ABOUTME: MCP tool definitions and registration for the ragdoc server
// ABOUTME: Exposes upload, list, delete, generate, status, and chunk preview as MCP tools
package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/harper/ragdoc/internal/app"
	"github.com/harper/ragdoc/internal/models"
)

// ServerName is reported to MCP clients during initialization
const ServerName = "ragdoc"

// NewServer creates an MCP server with every ragdoc tool registered
func NewServer(svc *app.Services, version string) *mcpserver.MCPServer {
	server := mcpserver.NewMCPServer(ServerName, version, mcpserver.WithToolCapabilities(false))
	RegisterTools(server, svc)
	return server
}

// RegisterTools registers all MCP tools with the server
func RegisterTools(server *mcpserver.MCPServer, svc *app.Services) *Handlers {
	handlers := NewHandlers(svc)

	generationTypes := make([]string, len(models.GenerationTypes))
	for i, t := range models.GenerationTypes {
		generationTypes[i] = string(t)
	}

	// 1. upload_document - Extract, chunk, embed, and index one document
	server.AddTool(mcp.Tool{
		Name:        "upload_document",
		Description: "Upload a .txt, .pdf, or .docx document to the knowledge base. The document is chunked, embedded, and indexed for retrieval. Filenames must be unique.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"filename": map[string]interface{}{
					"type":        "string",
					"description": "Filename including extension; the extension selects the parser",
				},
				"content": map[string]interface{}{
					"type":        "string",
					"description": "Document content, as plain text or base64 (see encoding)",
				},
				"encoding": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"text", "base64"},
					"description": "How content is encoded (default: text). Use base64 for PDF and DOCX.",
					"default":     "text",
				},
			},
			Required: []string{"filename", "content"},
		},
	}, handlers.UploadDocument)

	// 2. list_documents - List indexed documents, newest first
	server.AddTool(mcp.Tool{
		Name:        "list_documents",
		Description: "List all indexed documents with their chunk counts and upload times, newest first.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, handlers.ListDocuments)

	// 3. delete_document - Remove a document and all of its chunks
	server.AddTool(mcp.Tool{
		Name:        "delete_document",
		Description: "Delete a document and all of its chunks from the knowledge base.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"document_id": map[string]interface{}{
					"type":        "string",
					"description": "Document ID as returned by upload_document or list_documents",
				},
			},
			Required: []string{"document_id"},
		},
	}, handlers.DeleteDocument)

	// 4. generate_content - Retrieval-augmented generation with source attribution
	server.AddTool(mcp.Tool{
		Name:        "generate_content",
		Description: "Generate content grounded in the uploaded documents. Returns the generated text with per-source relevance attribution.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "What to generate (10-2000 characters)",
				},
				"generation_type": map[string]interface{}{
					"type":        "string",
					"enum":        generationTypes,
					"description": "Output style (default: general)",
					"default":     "general",
				},
				"top_k": map[string]interface{}{
					"type":        "number",
					"description": "Number of chunks to retrieve, 1-50 (default from configuration)",
				},
				"document_ids": map[string]interface{}{
					"type":        "array",
					"items":       map[string]interface{}{"type": "string"},
					"description": "Restrict retrieval to these document IDs",
				},
				"filenames": map[string]interface{}{
					"type":        "array",
					"items":       map[string]interface{}{"type": "string"},
					"description": "Restrict retrieval to documents whose filename contains any of these strings",
				},
			},
			Required: []string{"query"},
		},
	}, handlers.GenerateContent)

	// 5. get_status - Index size and provider configuration
	server.AddTool(mcp.Tool{
		Name:        "get_status",
		Description: "Report index health, document and chunk counts, and the configured providers.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, handlers.GetStatus)

	// 6. preview_chunks - Show how text would be chunked without indexing it
	server.AddTool(mcp.Tool{
		Name:        "preview_chunks",
		Description: "Preview how a text would be chunked with the current chunk size and overlap, without indexing it.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"text": map[string]interface{}{
					"type":        "string",
					"description": "Text to chunk",
				},
				"filename": map[string]interface{}{
					"type":        "string",
					"description": "Optional label for the preview",
				},
			},
			Required: []string{"text"},
		},
	}, handlers.PreviewChunks)

	return handlers
}

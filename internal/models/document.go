// ABOUTME: Document models for ingestion and the document library
// ABOUTME: Defines stored documents, per-file processing results, and upload summaries
package models

import "fmt"

// Document is an ingested file as listed in the library
type Document struct {
	DocumentID  string `json:"document_id"`
	Filename    string `json:"filename"`
	TotalChunks int    `json:"total_chunks"`
	UploadedAt  string `json:"uploaded_at"`
}

// DocumentList is the library listing
type DocumentList struct {
	TotalDocuments int        `json:"total_documents"`
	Documents      []Document `json:"documents"`
}

// ProcessingResult reports the outcome of ingesting one document
type ProcessingResult struct {
	Success       bool   `json:"success"`
	Filename      string `json:"filename"`
	DocumentID    string `json:"document_id,omitempty"`
	ChunksCreated int    `json:"chunks_created"`
	UploadedAt    string `json:"uploaded_at,omitempty"`
	Error         string `json:"error,omitempty"`
}

// Failed builds an unsuccessful result for filename
func Failed(filename string, format string, args ...any) ProcessingResult {
	return ProcessingResult{
		Filename: filename,
		Error:    fmt.Sprintf(format, args...),
	}
}

// FileStatus is the per-file line of an upload summary
type FileStatus struct {
	Filename      string `json:"filename"`
	DocumentID    string `json:"document_id"`
	ChunksCreated int    `json:"chunks_created"`
	Status        string `json:"status"`
}

// UploadSummary aggregates a batch upload
type UploadSummary struct {
	Message           string       `json:"message"`
	TotalFiles        int          `json:"total_files"`
	SuccessfulUploads int          `json:"successful_uploads"`
	FailedUploads     int          `json:"failed_uploads"`
	Files             []FileStatus `json:"files"`
}

// NewUploadSummary tallies results (in input order) into a summary
func NewUploadSummary(results []ProcessingResult) UploadSummary {
	summary := UploadSummary{
		TotalFiles: len(results),
		Files:      make([]FileStatus, 0, len(results)),
	}

	for _, r := range results {
		status := FileStatus{Filename: r.Filename}
		if r.Success {
			status.DocumentID = r.DocumentID
			status.ChunksCreated = r.ChunksCreated
			status.Status = "success"
			summary.SuccessfulUploads++
		} else {
			status.Status = "failed: " + r.Error
			summary.FailedUploads++
		}
		summary.Files = append(summary.Files, status)
	}

	switch {
	case summary.FailedUploads == 0:
		summary.Message = fmt.Sprintf("Successfully uploaded %d document(s)", summary.SuccessfulUploads)
	case summary.SuccessfulUploads == 0:
		summary.Message = fmt.Sprintf("Failed to upload all %d document(s)", summary.FailedUploads)
	default:
		summary.Message = fmt.Sprintf("Uploaded %d document(s), %d failed", summary.SuccessfulUploads, summary.FailedUploads)
	}

	return summary
}

// IndexStatus reports the size of the index and which providers are configured
type IndexStatus struct {
	Status             string `json:"status"`
	IndexBackend       string `json:"index_backend"`
	IndexConnected     bool   `json:"index_connected"`
	EmbeddingProvider  string `json:"embedding_provider"`
	CompletionProvider string `json:"completion_provider"`
	TotalDocuments     int    `json:"total_documents"`
	TotalChunks        int    `json:"total_chunks"`
}

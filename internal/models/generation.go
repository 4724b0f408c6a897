// ABOUTME: Generation request and result models
// ABOUTME: Carries the query, filters, attributed sources, and generation metadata
package models

import "github.com/go-playground/validator/v10"

var validate = validator.New()

// GenerationType selects the system prompt used for a request
type GenerationType string

const (
	GenerationFAQ     GenerationType = "faq"
	GenerationSummary GenerationType = "summary"
	GenerationBlog    GenerationType = "blog"
	GenerationReport  GenerationType = "report"
	GenerationGeneral GenerationType = "general"
)

// GenerationTypes lists the known types in display order
var GenerationTypes = []GenerationType{
	GenerationFAQ, GenerationSummary, GenerationBlog, GenerationReport, GenerationGeneral,
}

// IsValid reports whether t is a known generation type
func (t GenerationType) IsValid() bool {
	for _, known := range GenerationTypes {
		if t == known {
			return true
		}
	}
	return false
}

// OrGeneral maps unknown or empty types to general
func (t GenerationType) OrGeneral() GenerationType {
	if t.IsValid() {
		return t
	}
	return GenerationGeneral
}

// MetadataFilter narrows retrieval to documents by ID or filename substring
type MetadataFilter struct {
	DocumentIDs []string `json:"document_ids,omitempty"`
	Filenames   []string `json:"filenames,omitempty"`
}

// GenerateRequest is one generation request
type GenerateRequest struct {
	Query          string          `json:"query" validate:"required,min=10,max=2000"`
	GenerationType GenerationType  `json:"generation_type,omitempty"`
	Filters        *MetadataFilter `json:"filters,omitempty"`
	TopK           *int            `json:"top_k,omitempty" validate:"omitempty,min=1,max=50"`
}

// Validate checks query length (10-2000 characters) and the top_k range
func (r *GenerateRequest) Validate() error {
	return validate.Struct(r)
}

// SourceAttribution explains why a retrieved chunk was used
type SourceAttribution struct {
	DocumentID     string  `json:"document_id"`
	Filename       string  `json:"filename"`
	RelevanceScore float64 `json:"relevance_score"`
	Relevance      string  `json:"relevance"`
	Excerpt        string  `json:"excerpt"`
	ChunkIndex     int     `json:"chunk_index"`
	Reason         string  `json:"reason"`
}

// GenerationMetadata describes how a result was produced
type GenerationMetadata struct {
	Query            string         `json:"query"`
	GenerationType   GenerationType `json:"generation_type"`
	TotalSourcesUsed int            `json:"total_sources_used"`
	AverageRelevance float64        `json:"average_relevance"`
	ModelUsed        string         `json:"model_used"`
	GeneratedAt      string         `json:"generated_at"`
}

// GenerationResult is the attributed response to a GenerateRequest
type GenerationResult struct {
	GeneratedContent string              `json:"generated_content"`
	Sources          []SourceAttribution `json:"sources"`
	Metadata         GenerationMetadata  `json:"metadata"`
	Warning          *string             `json:"warning"`
	DBSearchTime     float64             `json:"db_search_time"`
}

// CompletionRequest is one call to a generation model
type CompletionRequest struct {
	System      string
	User        string
	Temperature float64
	MaxTokens   int
}

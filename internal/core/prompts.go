// ABOUTME: System prompts per generation type and the fixed no-source responses
// ABOUTME: Unknown generation types resolve to the general prompt
package core

import "github.com/harper/ragdoc/internal/models"

const groundingRule = "IMPORTANT: Only use information from the provided context. Do not invent or assume any facts."

var systemPrompts = map[models.GenerationType]string{
	models.GenerationFAQ: `You are a helpful assistant that creates FAQ documents based on provided source material.
Create a well-structured FAQ with clear questions and concise answers.
Format each Q&A pair clearly with "Q:" and "A:" prefixes.
` + groundingRule,

	models.GenerationSummary: `You are a helpful assistant that creates concise summaries of documents.
Create a clear, well-organized summary that captures the key points.
Use bullet points or numbered lists where appropriate.
` + groundingRule,

	models.GenerationBlog: `You are a helpful assistant that creates engaging blog posts based on provided source material.
Write in a professional yet approachable tone.
Include an introduction, main points, and conclusion.
` + groundingRule,

	models.GenerationReport: `You are a helpful assistant that creates formal reports based on provided source material.
Structure the report with clear sections and professional language.
Include relevant details and maintain a formal tone.
` + groundingRule,

	models.GenerationGeneral: `You are a helpful assistant that generates content based on provided source material.
Respond to the user's request accurately and helpfully.
Structure your response appropriately for the type of content requested.
` + groundingRule,
}

// SystemPrompt returns the prompt for t, falling back to general
func SystemPrompt(t models.GenerationType) string {
	return systemPrompts[t.OrGeneral()]
}

const (
	// NoSourcesContent is returned instead of generated text when retrieval finds nothing
	NoSourcesContent = "I cannot generate this content because no relevant source documents were found in the knowledge base. Please ensure relevant documents have been uploaded, or try rephrasing your query."
	// NoSourcesWarning accompanies NoSourcesContent
	NoSourcesWarning = "No relevant source documents found. Cannot generate grounded content."
	// LowRelevanceThreshold is the mean score below which a warning is attached
	LowRelevanceThreshold = 0.4
	lowRelevanceWarning   = "Source documents have low relevance (avg: %s). Generated content may not fully address your query."
)

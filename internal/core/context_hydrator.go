// ABOUTME: Context assembly for grounded generation prompts
// ABOUTME: Renders ranked retrieval hits as labeled source blocks in rank order
package core

import (
	"fmt"
	"strings"

	"github.com/harper/ragdoc/internal/index"
)

// SourceSeparator divides consecutive source blocks
const SourceSeparator = "\n---\n"

// BuildContext renders hits as "[Source <rank>: <filename>]" blocks.
// Rank is 1-based and follows input order.
func BuildContext(hits []index.Hit) string {
	blocks := make([]string, len(hits))
	for i, hit := range hits {
		blocks[i] = fmt.Sprintf("[Source %d: %s]\n%s\n", i+1, hit.Payload.Filename, hit.Payload.ChunkText)
	}
	return strings.Join(blocks, SourceSeparator)
}

// BuildUserPrompt composes the query, the assembled context, and the grounding instructions
func BuildUserPrompt(query, context string) string {
	var sb strings.Builder
	sb.WriteString("Based on the following source documents, ")
	sb.WriteString(query)
	sb.WriteString("\n\nSOURCE DOCUMENTS:\n")
	sb.WriteString(context)
	sb.WriteString("\n\nINSTRUCTIONS:\n")
	sb.WriteString("1. Only use information from the source documents above\n")
	sb.WriteString("2. If the sources don't contain enough information, acknowledge this limitation\n")
	sb.WriteString("3. Do not make up or assume any facts not present in the sources\n")
	sb.WriteString("4. Structure your response appropriately for the requested content type\n")
	sb.WriteString("\nPlease generate the requested content:")
	return sb.String()
}

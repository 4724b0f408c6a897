// ABOUTME: Chunk represents one token-bounded span of a document's text
// ABOUTME: Used for chunk previews; indexed chunks travel as index payloads
package models

// Chunk is a document chunk with its position and token count
type Chunk struct {
	Index  int    `json:"chunk_index"`
	Text   string `json:"text"`
	Tokens int    `json:"tokens"`
}

// ChunkPreview is a dry-run view of how a document would be chunked
type ChunkPreview struct {
	Filename     string  `json:"filename"`
	ChunkSize    int     `json:"chunk_size"`
	ChunkOverlap int     `json:"chunk_overlap"`
	Sentences    int     `json:"sentences"`
	Chunks       []Chunk `json:"chunks"`
}

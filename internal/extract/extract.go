// ABOUTME: Text extraction from uploaded files, dispatched by extension
// ABOUTME: Supports .txt, .pdf, and .docx; extension matching ignores case
package extract

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

var (
	// ErrUnsupportedType is returned for extensions with no registered parser
	ErrUnsupportedType = errors.New("unsupported file type")
	// ErrExtraction wraps parser failures
	ErrExtraction = errors.New("could not extract text")
)

// Parser turns raw file bytes into plain text
type Parser func(data []byte) (string, error)

// Registry maps lowercase extensions (with dot) to parsers
type Registry struct {
	parsers map[string]Parser
}

// Default returns a registry with the .txt, .pdf, and .docx parsers
func Default() *Registry {
	return &Registry{parsers: map[string]Parser{
		".txt":  Text,
		".pdf":  PDF,
		".docx": DOCX,
	}}
}

// Register adds or replaces the parser for ext
func (r *Registry) Register(ext string, p Parser) {
	r.parsers[strings.ToLower(ext)] = p
}

// Extensions lists supported extensions in sorted order
func (r *Registry) Extensions() []string {
	exts := make([]string, 0, len(r.parsers))
	for ext := range r.parsers {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Supports reports whether filename has a registered extension
func (r *Registry) Supports(filename string) bool {
	_, ok := r.parsers[Extension(filename)]
	return ok
}

// IsSupported reports whether the default registry can extract filename
func IsSupported(filename string) bool {
	return Default().Supports(filename)
}

// Extract parses data according to filename's extension
func (r *Registry) Extract(filename string, data []byte) (string, error) {
	ext := Extension(filename)
	p, ok := r.parsers[ext]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedType, ext)
	}
	text, err := p(data)
	if err != nil {
		return "", fmt.Errorf("%w from %s: %v", ErrExtraction, filename, err)
	}
	return text, nil
}

// Extension returns the lowercase extension of filename including the dot
func Extension(filename string) string {
	return strings.ToLower(filepath.Ext(filename))
}

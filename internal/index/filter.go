// ABOUTME: Metadata filter for retrieval: AND across categories, OR within a category
// ABOUTME: Backends render the same predicate natively; Matches is the reference evaluation
package index

import "strings"

// Filter restricts which chunks are eligible.
// DocumentIDs match exactly, Filenames match as substrings, Filename matches exactly.
// Empty categories are unconstrained.
type Filter struct {
	DocumentIDs []string
	Filenames   []string
	Filename    string
}

// NewFilter builds a retrieval filter, dropping blank entries
func NewFilter(documentIDs, filenames []string) Filter {
	return Filter{
		DocumentIDs: compact(documentIDs),
		Filenames:   compact(filenames),
	}
}

// ForDocument selects every chunk of one document
func ForDocument(documentID string) Filter {
	return Filter{DocumentIDs: []string{documentID}}
}

// IsEmpty reports whether the filter constrains nothing
func (f Filter) IsEmpty() bool {
	return len(f.DocumentIDs) == 0 && len(f.Filenames) == 0 && f.Filename == ""
}

// Matches evaluates the filter against a payload
func (f Filter) Matches(p Payload) bool {
	if len(f.DocumentIDs) > 0 && !containsExact(f.DocumentIDs, p.DocumentID) {
		return false
	}
	if len(f.Filenames) > 0 && !containsSubstring(f.Filenames, p.Filename) {
		return false
	}
	if f.Filename != "" && f.Filename != p.Filename {
		return false
	}
	return true
}

func containsExact(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}

func containsSubstring(needles []string, haystack string) bool {
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}

func compact(values []string) []string {
	var out []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

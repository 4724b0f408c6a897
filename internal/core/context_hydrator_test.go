// ABOUTME: Tests for context assembly, prompt composition, and source attribution
// ABOUTME: Verifies block format, bucket boundaries, excerpt truncation, and ordering

package core

import (
	"strings"
	"testing"

	"github.com/harper/ragdoc/internal/index"
	"github.com/harper/ragdoc/internal/models"
)

func hit(filename, text string, score float64) index.Hit {
	return index.Hit{
		Score: score,
		Payload: index.Payload{
			DocumentID: "doc-" + filename,
			Filename:   filename,
			ChunkIndex: 2,
			ChunkText:  text,
		},
	}
}

func TestBuildContext(t *testing.T) {
	got := BuildContext([]index.Hit{
		hit("b.txt", "second ranked first", 0.9),
		hit("a.txt", "first ranked second", 0.5),
	})

	want := "[Source 1: b.txt]\nsecond ranked first\n" +
		"\n---\n" +
		"[Source 2: a.txt]\nfirst ranked second\n"
	if got != want {
		t.Errorf("BuildContext() = %q, want %q", got, want)
	}

	if BuildContext(nil) != "" {
		t.Error("BuildContext(nil) should be empty")
	}
}

func TestBuildUserPrompt(t *testing.T) {
	prompt := BuildUserPrompt("create a FAQ about leave", "[Source 1: a.txt]\nbody\n")

	if !strings.HasPrefix(prompt, "Based on the following source documents, create a FAQ about leave\n\nSOURCE DOCUMENTS:\n[Source 1: a.txt]") {
		t.Errorf("unexpected prompt prefix: %q", prompt)
	}
	for _, want := range []string{
		"1. Only use information from the source documents above",
		"2. If the sources don't contain enough information, acknowledge this limitation",
		"3. Do not make up or assume any facts not present in the sources",
		"Please generate the requested content:",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestBucketBoundaries(t *testing.T) {
	tests := []struct {
		score float64
		want  string
	}{
		{1.0, "very high"},
		{0.8, "very high"},
		{0.79999, "high"},
		{0.6, "high"},
		{0.59999, "moderate"},
		{0.4, "moderate"},
		{0.39999, "low"},
		{0.0, "low"},
		{-0.2, "low"},
	}

	for _, tt := range tests {
		if got := Bucket(tt.score).Label; got != tt.want {
			t.Errorf("Bucket(%v) = %q, want %q", tt.score, got, tt.want)
		}
	}
}

func TestReason(t *testing.T) {
	got := Reason(0.873)
	want := "Very high semantic similarity (87%) - directly relevant to your query"
	if got != want {
		t.Errorf("Reason() = %q, want %q", got, want)
	}
	if got := Reason(0.25); !strings.HasPrefix(got, "Lower semantic similarity (25%)") {
		t.Errorf("Reason(0.25) = %q", got)
	}
}

func TestExcerpt(t *testing.T) {
	long := strings.Repeat("x", 600)
	got := Excerpt(long)
	if len(got) != 500 || !strings.HasSuffix(got, "...") {
		t.Errorf("Excerpt(600 chars) has length %d, suffix %q", len(got), got[len(got)-3:])
	}

	short := strings.Repeat("y", 400)
	if Excerpt(short) != short {
		t.Error("400-char text should pass through unchanged")
	}

	exact := strings.Repeat("z", 500)
	if Excerpt(exact) != exact {
		t.Error("500-char text should pass through unchanged")
	}

	multibyte := strings.Repeat("é", 600)
	if n := len([]rune(Excerpt(multibyte))); n != 500 {
		t.Errorf("multibyte excerpt has %d runes, want 500", n)
	}
}

func TestAttribute(t *testing.T) {
	sources := Attribute([]index.Hit{
		hit("a.txt", "alpha", 0.912345),
		hit("b.txt", "beta", 0.5),
	})

	if len(sources) != 2 {
		t.Fatalf("len(sources) = %d, want 2", len(sources))
	}

	first := sources[0]
	if first.Filename != "a.txt" || first.Relevance != "very high" {
		t.Errorf("unexpected first source: %+v", first)
	}
	if first.RelevanceScore != 0.9123 {
		t.Errorf("RelevanceScore = %v, want 0.9123", first.RelevanceScore)
	}
	if first.ChunkIndex != 2 || first.DocumentID != "doc-a.txt" || first.Excerpt != "alpha" {
		t.Errorf("payload fields not carried: %+v", first)
	}
	if sources[1].Relevance != "moderate" {
		t.Errorf("second source bucket = %q, want moderate", sources[1].Relevance)
	}
}

func TestAverageScore(t *testing.T) {
	if AverageScore(nil) != 0 {
		t.Error("AverageScore(nil) should be 0")
	}
	avg := AverageScore([]index.Hit{hit("a", "", 0.9), hit("b", "", 0.5)})
	if avg < 0.6999 || avg > 0.7001 {
		t.Errorf("AverageScore() = %v, want 0.7", avg)
	}
}

func TestSystemPrompt(t *testing.T) {
	for _, gt := range models.GenerationTypes {
		p := SystemPrompt(gt)
		if !strings.HasSuffix(p, groundingRule) {
			t.Errorf("prompt for %s lacks grounding rule", gt)
		}
	}
	if SystemPrompt("poem") != SystemPrompt(models.GenerationGeneral) {
		t.Error("unknown type should fall back to general")
	}
	if !strings.Contains(SystemPrompt(models.GenerationFAQ), `"Q:" and "A:"`) {
		t.Error("faq prompt should describe Q/A format")
	}
}

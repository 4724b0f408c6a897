// ABOUTME: Tests for generation types and request validation
// ABOUTME: Covers the general fallback, query length bounds, and the optional top_k range
package models

import (
	"strings"
	"testing"
)

func intPtr(n int) *int { return &n }

func TestGenerateRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     GenerateRequest
		wantErr bool
	}{
		{"valid", GenerateRequest{Query: "Summarize the remote work policy"}, false},
		{"exactly ten characters", GenerateRequest{Query: "0123456789"}, false},
		{"too short", GenerateRequest{Query: "too short"}, true},
		{"empty", GenerateRequest{}, true},
		{"too long", GenerateRequest{Query: strings.Repeat("a", 2001)}, true},
		{"max length", GenerateRequest{Query: strings.Repeat("a", 2000)}, false},
		{"top_k in range", GenerateRequest{Query: "Summarize the policy", TopK: intPtr(10)}, false},
		{"top_k zero", GenerateRequest{Query: "Summarize the policy", TopK: intPtr(0)}, true},
		{"top_k too large", GenerateRequest{Query: "Summarize the policy", TopK: intPtr(51)}, true},
		{"unknown generation type allowed", GenerateRequest{Query: "Summarize the policy", GenerationType: "poem"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestGenerationType_IsValid(t *testing.T) {
	tests := []struct {
		name string
		gt   GenerationType
		want bool
	}{
		{name: "faq is valid", gt: GenerationFAQ, want: true},
		{name: "summary is valid", gt: GenerationSummary, want: true},
		{name: "blog is valid", gt: GenerationBlog, want: true},
		{name: "report is valid", gt: GenerationReport, want: true},
		{name: "general is valid", gt: GenerationGeneral, want: true},
		{name: "empty string is invalid", gt: GenerationType(""), want: false},
		{name: "uppercase is invalid", gt: GenerationType("FAQ"), want: false},
		{name: "arbitrary string is invalid", gt: GenerationType("poem"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.gt.IsValid(); got != tt.want {
				t.Errorf("IsValid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGenerationType_OrGeneral(t *testing.T) {
	if got := GenerationType("poem").OrGeneral(); got != GenerationGeneral {
		t.Errorf("OrGeneral() = %s, want general", got)
	}
	if got := GenerationType("").OrGeneral(); got != GenerationGeneral {
		t.Errorf("OrGeneral() = %s, want general", got)
	}
	if got := GenerationBlog.OrGeneral(); got != GenerationBlog {
		t.Errorf("OrGeneral() = %s, want blog", got)
	}
}

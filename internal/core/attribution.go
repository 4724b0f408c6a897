// ABOUTME: Source attribution: relevance buckets, reasons, and excerpts for retrieval hits
// ABOUTME: Buckets are an ordered table of inclusive lower bounds evaluated top-down
package core

import (
	"fmt"
	"math"
	"unicode/utf8"

	"github.com/harper/ragdoc/internal/index"
	"github.com/harper/ragdoc/internal/models"
)

const (
	// MaxExcerptChars bounds an attribution excerpt, ellipsis included
	MaxExcerptChars = 500
	ellipsis        = "..."
)

// RelevanceBucket labels scores at or above Min
type RelevanceBucket struct {
	Min      float64
	Label    string
	Template string // receives the score as a whole percentage string
}

// RelevanceBuckets is ordered from the highest bound down; the last entry catches everything
var RelevanceBuckets = []RelevanceBucket{
	{Min: 0.8, Label: "very high", Template: "Very high semantic similarity (%s) - directly relevant to your query"},
	{Min: 0.6, Label: "high", Template: "High semantic similarity (%s) - contains relevant information"},
	{Min: 0.4, Label: "moderate", Template: "Moderate semantic similarity (%s) - contains related context"},
	{Min: math.Inf(-1), Label: "low", Template: "Lower semantic similarity (%s) - may contain tangentially related information"},
}

// Bucket returns the first bucket whose bound the score reaches
func Bucket(score float64) RelevanceBucket {
	for _, b := range RelevanceBuckets {
		if score >= b.Min {
			return b
		}
	}
	return RelevanceBuckets[len(RelevanceBuckets)-1]
}

// Reason renders the bucket explanation for score
func Reason(score float64) string {
	return fmt.Sprintf(Bucket(score).Template, FormatPercent(score))
}

// FormatPercent renders 0.873 as "87%"
func FormatPercent(score float64) string {
	return fmt.Sprintf("%.0f%%", score*100)
}

// Excerpt truncates text longer than MaxExcerptChars characters to 497 plus "..."
func Excerpt(text string) string {
	if utf8.RuneCountInString(text) <= MaxExcerptChars {
		return text
	}
	runes := []rune(text)
	return string(runes[:MaxExcerptChars-len(ellipsis)]) + ellipsis
}

// Attribute maps hits 1:1 to source attributions, preserving order
func Attribute(hits []index.Hit) []models.SourceAttribution {
	sources := make([]models.SourceAttribution, len(hits))
	for i, hit := range hits {
		bucket := Bucket(hit.Score)
		sources[i] = models.SourceAttribution{
			DocumentID:     hit.Payload.DocumentID,
			Filename:       hit.Payload.Filename,
			RelevanceScore: roundTo(hit.Score, 4),
			Relevance:      bucket.Label,
			Excerpt:        Excerpt(hit.Payload.ChunkText),
			ChunkIndex:     hit.Payload.ChunkIndex,
			Reason:         fmt.Sprintf(bucket.Template, FormatPercent(hit.Score)),
		}
	}
	return sources
}

// AverageScore is the arithmetic mean of hit scores (0 for no hits)
func AverageScore(hits []index.Hit) float64 {
	if len(hits) == 0 {
		return 0
	}
	var sum float64
	for _, h := range hits {
		sum += h.Score
	}
	return sum / float64(len(hits))
}

func roundTo(x float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(x*p) / p
}

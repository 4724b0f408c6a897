// ABOUTME: Sentence segmentation for the chunker, behind a swappable interface
// ABOUTME: Default implementation splits on terminal punctuation with newline and whole-text fallbacks
package core

import (
	"strings"
	"unicode/utf8"
)

// Segmenter splits text into sentences
type Segmenter interface {
	Split(text string) []string
}

// PunctuationSegmenter ends a sentence at '.', '!' or '?' once the sentence
// holds more than two characters. Abbreviations such as "Mr." are split too.
type PunctuationSegmenter struct{}

// minSentenceRunes guards against splitting "A." style fragments
const minSentenceRunes = 2

// Split returns the sentences of text; whitespace-only text yields none
func (PunctuationSegmenter) Split(text string) []string {
	normalized := strings.Join(strings.Fields(text), " ")

	var (
		sentences []string
		buf       strings.Builder
	)
	for _, r := range normalized {
		buf.WriteRune(r)
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		if s := strings.TrimSpace(buf.String()); utf8.RuneCountInString(s) > minSentenceRunes {
			sentences = append(sentences, s)
			buf.Reset()
		}
	}
	if rest := strings.TrimSpace(buf.String()); rest != "" {
		sentences = append(sentences, rest)
	}
	if len(sentences) > 0 {
		return sentences
	}

	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			sentences = append(sentences, line)
		}
	}
	if len(sentences) > 0 {
		return sentences
	}

	if whole := strings.TrimSpace(text); whole != "" {
		return []string{whole}
	}
	return nil
}

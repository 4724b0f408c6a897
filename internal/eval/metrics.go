// ABOUTME: RAGAS-style metrics for faithfulness and context recall of generated content
// ABOUTME: Deterministic evaluation against expected and forbidden ground-truth terms

package eval

import (
	"fmt"
	"strings"
)

// PassThreshold is the minimum score each metric needs for a case to pass
const PassThreshold = 0.9

// Faithfulness scores whether a response contains every expected term and no forbidden one.
// 1.0 when both hold, 0.5 when one fails, 0.0 when both fail. Matching ignores case.
func Faithfulness(response string, expected, forbidden []string) (float64, string) {
	responseUpper := strings.ToUpper(response)

	missing := []string{}
	for _, e := range expected {
		if !strings.Contains(responseUpper, strings.ToUpper(e)) {
			missing = append(missing, e)
		}
	}

	found := []string{}
	for _, f := range forbidden {
		if strings.Contains(responseUpper, strings.ToUpper(f)) {
			found = append(found, f)
		}
	}

	switch {
	case len(missing) == 0 && len(found) == 0:
		return 1.0, "Perfect faithfulness - response matches expected ground truth"
	case len(missing) > 0 && len(found) > 0:
		return 0.0, fmt.Sprintf("Faithfulness failure - missing expected items: %v, forbidden items found: %v", missing, found)
	case len(missing) > 0:
		return 0.5, fmt.Sprintf("Partial faithfulness - missing expected items: %v", missing)
	default:
		return 0.5, fmt.Sprintf("Partial faithfulness - forbidden items found: %v", found)
	}
}

// ContextRecall is the share of expected items found anywhere in the retrieved context
func ContextRecall(retrieved []string, expected []string) (float64, string) {
	if len(expected) == 0 {
		return 1.0, "No context retrieval required"
	}

	all := strings.ToUpper(strings.Join(retrieved, " "))
	found := 0
	missing := []string{}
	for _, item := range expected {
		if strings.Contains(all, strings.ToUpper(item)) {
			found++
		} else {
			missing = append(missing, item)
		}
	}

	recall := float64(found) / float64(len(expected))
	if recall == 1.0 {
		return 1.0, "Perfect context recall - all expected items retrieved"
	}
	return recall, fmt.Sprintf("Partial context recall (%.2f) - missing items: %v", recall, missing)
}

// SourceSelection checks retrieved filenames against the case's expectations
func SourceSelection(filenames []string, expected []string) (float64, string) {
	if len(expected) == 0 {
		return 1.0, "No source expectations"
	}
	have := make(map[string]bool, len(filenames))
	for _, f := range filenames {
		have[f] = true
	}
	missing := []string{}
	for _, e := range expected {
		if !have[e] {
			missing = append(missing, e)
		}
	}
	score := float64(len(expected)-len(missing)) / float64(len(expected))
	if len(missing) == 0 {
		return 1.0, "All expected sources cited"
	}
	return score, fmt.Sprintf("Missing expected sources: %v", missing)
}

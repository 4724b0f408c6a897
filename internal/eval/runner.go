// ABOUTME: Evaluation runner: ingests suite documents, runs each case, and scores results
// ABOUTME: Results export as a JSON report with pass and fail counts

package eval

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/harper/ragdoc/internal/core"
	"github.com/harper/ragdoc/internal/logging"
	"github.com/harper/ragdoc/internal/models"
)

// Status values for a case result
const (
	StatusPass = "PASS"
	StatusFail = "FAIL"
)

// Result is the scored outcome of one case
type Result struct {
	CaseID             string         `json:"case_id"`
	CaseName           string         `json:"case_name"`
	FaithfulnessScore  float64        `json:"faithfulness_score"`
	ContextRecallScore float64        `json:"context_recall_score"`
	SourceScore        float64        `json:"source_score"`
	OverallScore       float64        `json:"overall_score"`
	Status             string         `json:"status"`
	Details            map[string]any `json:"details"`
	ErrorMessage       string         `json:"error_message,omitempty"`
}

// Report summarizes a suite run
type Report struct {
	Suite      string   `json:"suite"`
	Timestamp  string   `json:"timestamp"`
	TotalCases int      `json:"total_cases"`
	Passed     int      `json:"passed"`
	Failed     int      `json:"failed"`
	Results    []Result `json:"results"`
}

// Runner executes suites against a processor and generator
type Runner struct {
	processor *core.Processor
	generator *core.Generator
	logger    *log.Logger
}

// NewRunner creates a runner
func NewRunner(processor *core.Processor, generator *core.Generator, logger *log.Logger) *Runner {
	return &Runner{processor: processor, generator: generator, logger: logging.OrDiscard(logger)}
}

// Run ingests the suite's documents and evaluates every case in order.
// Documents already in the index are reported as duplicates and left in place.
func (r *Runner) Run(ctx context.Context, s *Suite) (*Report, error) {
	uploads := make([]core.Upload, 0, len(s.Documents))
	for _, d := range s.Documents {
		data := []byte(d.Text)
		if d.Path != "" {
			var err error
			if data, err = os.ReadFile(d.Path); err != nil {
				return nil, fmt.Errorf("failed to read fixture %s: %w", d.Path, err)
			}
		}
		uploads = append(uploads, core.Upload{Filename: d.Filename, Data: data})
	}
	if len(uploads) > 0 {
		summary := r.processor.IngestFiles(ctx, uploads)
		for _, f := range summary.Files {
			if f.Status != "success" {
				r.logger.Warn("fixture not ingested", "filename", f.Filename, "status", f.Status)
			}
		}
	}

	report := &Report{
		Suite:     s.Name,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Results:   make([]Result, 0, len(s.Cases)),
	}
	for _, c := range s.Cases {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res := r.RunCase(ctx, c)
		if res.Status == StatusPass {
			report.Passed++
		} else {
			report.Failed++
		}
		report.Results = append(report.Results, res)
		r.logger.Info("case evaluated", "id", c.ID, "status", res.Status, "overall", res.OverallScore)
	}
	report.TotalCases = len(report.Results)
	return report, nil
}

// RunCase generates content for one case and scores it
func (r *Runner) RunCase(ctx context.Context, c Case) Result {
	req := models.GenerateRequest{Query: c.Query, GenerationType: c.GenerationType}
	if c.TopK > 0 {
		topK := c.TopK
		req.TopK = &topK
	}
	if len(c.Filenames) > 0 {
		req.Filters = &models.MetadataFilter{Filenames: c.Filenames}
	}

	gen, err := r.generator.Generate(ctx, req)
	if err != nil {
		return Result{CaseID: c.ID, CaseName: c.Name, Status: StatusFail, ErrorMessage: err.Error()}
	}
	return Evaluate(c, gen)
}

// Evaluate scores a generation result against the case's ground truth
func Evaluate(c Case, gen *models.GenerationResult) Result {
	gt := c.GroundTruth

	if gt.ExpectNoSources {
		ok := len(gen.Sources) == 0 && gen.Metadata.ModelUsed == ""
		score, detail := 0.0, fmt.Sprintf("expected no sources, got %d", len(gen.Sources))
		if ok {
			score, detail = 1.0, "No sources retrieved; model not called"
		}
		return Result{
			CaseID: c.ID, CaseName: c.Name,
			FaithfulnessScore: score, ContextRecallScore: score, SourceScore: score, OverallScore: score,
			Status:  statusFor(ok),
			Details: map[string]any{"detail": detail},
		}
	}

	retrieved := make([]string, len(gen.Sources))
	filenames := make([]string, len(gen.Sources))
	for i, s := range gen.Sources {
		retrieved[i] = s.Excerpt
		filenames[i] = s.Filename
	}

	faithfulness, fDetail := Faithfulness(gen.GeneratedContent, gt.ExpectedInResponse, gt.ForbiddenInResponse)
	recall, rDetail := ContextRecall(retrieved, gt.ExpectedContextItems)
	sources, sDetail := SourceSelection(filenames, gt.ExpectedSources)

	details := map[string]any{
		"faithfulness_detail": fDetail,
		"recall_detail":       rDetail,
		"source_detail":       sDetail,
		"final_response":      truncate(gen.GeneratedContent, 200),
		"context_items":       len(retrieved),
	}
	if gen.Warning != nil {
		details["warning"] = *gen.Warning
	}

	return Result{
		CaseID:             c.ID,
		CaseName:           c.Name,
		FaithfulnessScore:  faithfulness,
		ContextRecallScore: recall,
		SourceScore:        sources,
		OverallScore:       (faithfulness + recall + sources) / 3.0,
		Status:             statusFor(faithfulness >= PassThreshold && recall >= PassThreshold && sources >= PassThreshold),
		Details:            details,
	}
}

// ExportResults writes the report as indented JSON
func ExportResults(report *Report, path string) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write results file: %w", err)
	}
	return nil
}

func statusFor(ok bool) string {
	if ok {
		return StatusPass
	}
	return StatusFail
}

func truncate(s string, n int) string {
	if r := []rune(s); len(r) > n {
		return strings.TrimSpace(string(r[:n]))
	}
	return s
}

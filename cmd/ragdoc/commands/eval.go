// ABOUTME: CLI command to run an evaluation suite against the configured providers
// ABOUTME: Scores faithfulness, context recall, and source selection per case
package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/harper/ragdoc/internal/eval"
)

var (
	evalOutput string
)

// NewEvalCmd creates eval command
func NewEvalCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "eval <suite.yaml>",
		Short: "Run an evaluation suite",
		Long: `Run a YAML evaluation suite.

The suite's documents are uploaded (existing filenames are kept), then
each case is generated and scored:

  faithfulness    expected terms present, forbidden terms absent
  context recall  expected items found in the retrieved excerpts
  sources         expected filenames among the cited sources

A case passes when every score is at least 0.9. The command fails when
any case fails.

Examples:
  ragdoc eval testdata/policies.yaml
  ragdoc eval suite.yaml --output results.json`,
		Args: cobra.ExactArgs(1),
		RunE: runEval,
	}

	cmd.Flags().StringVarP(&evalOutput, "output", "o", "", "Write the JSON report to this file")

	return cmd
}

func runEval(cmd *cobra.Command, args []string) error {
	suite, err := eval.LoadSuite(args[0])
	if err != nil {
		return err
	}

	svc, err := loadServices(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	runner := eval.NewRunner(svc.Processor, svc.Generator, svc.Logger)
	report, err := runner.Run(cmd.Context(), suite)
	if err != nil {
		return err
	}

	if evalOutput != "" {
		if err := eval.ExportResults(report, evalOutput); err != nil {
			return err
		}
	}

	if jsonOutput() {
		if err := printJSON(cmd.OutOrStdout(), report); err != nil {
			return err
		}
	} else {
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintf(w, "CASE\tFAITH\tRECALL\tSOURCES\tOVERALL\tSTATUS\n")
		fmt.Fprintf(w, "----\t-----\t------\t-------\t-------\t------\n")
		for _, r := range report.Results {
			status := r.Status
			if r.ErrorMessage != "" {
				status += " (" + truncate(r.ErrorMessage, 50) + ")"
			}
			fmt.Fprintf(w, "%s\t%.2f\t%.2f\t%.2f\t%.2f\t%s\n",
				truncate(r.CaseID, 30), r.FaithfulnessScore, r.ContextRecallScore, r.SourceScore, r.OverallScore, status)
		}
		_ = w.Flush()

		if !quiet {
			fmt.Fprintf(cmd.OutOrStdout(), "\nTotal: %d  Passed: %d  Failed: %d\n", report.TotalCases, report.Passed, report.Failed)
			if evalOutput != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "Results exported to %s\n", evalOutput)
			}
		}
	}

	if report.Failed > 0 {
		return fmt.Errorf("%d of %d case(s) failed", report.Failed, report.TotalCases)
	}
	return nil
}

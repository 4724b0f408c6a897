// ABOUTME: CLI command to generate grounded content from indexed documents
// ABOUTME: Prints the generated text followed by a source attribution table
package commands

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/harper/ragdoc/internal/core"
	"github.com/harper/ragdoc/internal/models"
)

var (
	generateType        string
	generateTopK        int
	generateDocumentIDs []string
	generateFilenames   []string
	generateOutput      string
)

// NewGenerateCmd creates generate command
func NewGenerateCmd() *cobra.Command {
	types := make([]string, len(models.GenerationTypes))
	for i, t := range models.GenerationTypes {
		types[i] = string(t)
	}

	cmd := &cobra.Command{
		Use:   "generate <query>",
		Short: "Generate content grounded in your documents",
		Long: `Generate content grounded in the uploaded documents.

The query is embedded, the most similar chunks are retrieved, and the
model writes an answer using only those chunks. Each source is listed
with its relevance score and an excerpt. If nothing relevant is found,
no model call is made.

Generation types: ` + strings.Join(types, ", ") + `

Examples:
  ragdoc generate "Create an FAQ about the remote work policy" --type faq
  ragdoc generate "Summarize the Q3 results" --type summary --filename q3
  ragdoc generate "Write a blog post about onboarding" --top-k 10 --output post.md`,
		Args: cobra.MinimumNArgs(1),
		RunE: runGenerate,
	}

	cmd.Flags().StringVarP(&generateType, "type", "t", string(models.GenerationGeneral), "Generation type ("+strings.Join(types, ", ")+")")
	cmd.Flags().IntVarP(&generateTopK, "top-k", "k", 0, "Chunks to retrieve, 1-50 (default from configuration)")
	cmd.Flags().StringSliceVar(&generateDocumentIDs, "document-id", []string{}, "Restrict retrieval to these document IDs")
	cmd.Flags().StringSliceVar(&generateFilenames, "filename", []string{}, "Restrict retrieval to filenames containing these strings")
	cmd.Flags().StringVarP(&generateOutput, "output", "o", "", "Also write the generated content to this file")

	return cmd
}

func runGenerate(cmd *cobra.Command, args []string) error {
	req := models.GenerateRequest{
		Query:          strings.Join(args, " "),
		GenerationType: models.GenerationType(generateType),
	}
	if !req.GenerationType.IsValid() {
		return fmt.Errorf("unknown generation type %q", generateType)
	}
	if generateTopK != 0 {
		topK := generateTopK
		req.TopK = &topK
	}
	if len(generateDocumentIDs) > 0 || len(generateFilenames) > 0 {
		req.Filters = &models.MetadataFilter{DocumentIDs: generateDocumentIDs, Filenames: generateFilenames}
	}

	svc, err := loadServices(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	if verbose {
		svc.Generator.OnStage = func(s core.Stage) {
			fmt.Fprintf(cmd.ErrOrStderr(), "→ %s\n", s)
		}
	}

	result, err := svc.Generator.Generate(cmd.Context(), req)
	if err != nil {
		return err
	}

	if generateOutput != "" {
		if err := os.WriteFile(generateOutput, []byte(result.GeneratedContent+"\n"), 0o644); err != nil {
			return fmt.Errorf("writing output: %w", err)
		}
	}

	if jsonOutput() {
		return printJSON(cmd.OutOrStdout(), result)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s\n", result.GeneratedContent)

	if result.Warning != nil && !quiet {
		fmt.Fprintf(cmd.ErrOrStderr(), "\nWarning: %s\n", *result.Warning)
	}

	if len(result.Sources) > 0 && !quiet {
		fmt.Fprintf(out, "\nSources:\n")
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintf(w, "#\tFILE\tCHUNK\tSCORE\tRELEVANCE\tEXCERPT\n")
		fmt.Fprintf(w, "-\t----\t-----\t-----\t---------\t-------\n")
		for i, s := range result.Sources {
			fmt.Fprintf(w, "%d\t%s\t%d\t%.4f\t%s\t%s\n",
				i+1,
				truncate(s.Filename, 30),
				s.ChunkIndex,
				s.RelevanceScore,
				s.Relevance,
				truncate(oneLine(s.Excerpt), 60))
		}
		_ = w.Flush()

		m := result.Metadata
		fmt.Fprintf(out, "\n%d source(s), average relevance %.4f, model %s, search %.3fs\n",
			m.TotalSourcesUsed, m.AverageRelevance, m.ModelUsed, result.DBSearchTime)
	}

	if generateOutput != "" && !quiet {
		fmt.Fprintf(out, "✓ Wrote %s\n", generateOutput)
	}
	return nil
}

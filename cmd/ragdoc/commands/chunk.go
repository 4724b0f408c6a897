// ABOUTME: CLI command to preview how a document would be chunked
// ABOUTME: Runs extraction and chunking only; nothing is embedded or indexed
package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/harper/ragdoc/internal/app"
	"github.com/harper/ragdoc/internal/extract"
)

var (
	chunkSize    int
	chunkOverlap int
	chunkFull    bool
)

// NewChunkCmd creates chunk command
func NewChunkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chunk <file>",
		Short: "Preview document chunking",
		Long: `Preview how a document would be split into chunks.

Extracts the file and chunks it with the configured tokenizer, chunk
size, and overlap, without calling any provider or touching the index.
Use it to tune CHUNK_SIZE and CHUNK_OVERLAP.

Examples:
  ragdoc chunk handbook.pdf
  ragdoc chunk notes.txt --size 200 --overlap 20 --full`,
		Args: cobra.ExactArgs(1),
		RunE: runChunk,
	}

	cmd.Flags().IntVar(&chunkSize, "size", 0, "Override chunk size in tokens")
	cmd.Flags().IntVar(&chunkOverlap, "overlap", -1, "Override chunk overlap in tokens")
	cmd.Flags().BoolVar(&chunkFull, "full", false, "Print full chunk text instead of a one-line preview")

	return cmd
}

func runChunk(cmd *cobra.Command, args []string) error {
	path := args[0]
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading file: %w", err)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if chunkSize > 0 {
		cfg.ChunkSize = chunkSize
	}
	if chunkOverlap >= 0 {
		cfg.ChunkOverlap = chunkOverlap
	}

	chunker, err := app.NewChunker(cfg)
	if err != nil {
		return err
	}

	filename := filepath.Base(path)
	text, err := extract.Default().Extract(filename, data)
	if err != nil {
		return err
	}

	preview := chunker.Preview(filename, text)
	if jsonOutput() {
		return printJSON(cmd.OutOrStdout(), preview)
	}

	out := cmd.OutOrStdout()
	if chunkFull {
		for _, c := range preview.Chunks {
			fmt.Fprintf(out, "── chunk %d (%d tokens) ──\n%s\n\n", c.Index, c.Tokens, c.Text)
		}
	} else {
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintf(w, "CHUNK\tTOKENS\tTEXT\n")
		fmt.Fprintf(w, "-----\t------\t----\n")
		for _, c := range preview.Chunks {
			fmt.Fprintf(w, "%d\t%d\t%s\n", c.Index, c.Tokens, truncate(oneLine(c.Text), 70))
		}
		_ = w.Flush()
	}

	if !quiet {
		fmt.Fprintf(out, "\n%s: %d sentence(s) → %d chunk(s) (size %d, overlap %d)\n",
			preview.Filename, preview.Sentences, len(preview.Chunks), preview.ChunkSize, preview.ChunkOverlap)
	}
	return nil
}

// ABOUTME: CLI command to upload documents into the index
// ABOUTME: Files are ingested concurrently and reported individually
package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/harper/ragdoc/internal/core"
)

// NewUploadCmd creates upload command
func NewUploadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "upload <file>...",
		Short: "Upload documents to the knowledge base",
		Long: `Upload one or more .txt, .pdf, or .docx documents.

Each file is extracted, split into overlapping token-bounded chunks,
embedded, and indexed. Files are processed concurrently and each one
reports its own result; a failure never blocks the others.

Filenames must be unique. Delete a document before re-uploading it.

Examples:
  ragdoc upload handbook.pdf
  ragdoc upload notes/*.txt policy.docx
  ragdoc upload --format json report.pdf`,
		Args: cobra.MinimumNArgs(1),
		RunE: runUpload,
	}

	return cmd
}

func runUpload(cmd *cobra.Command, args []string) error {
	uploads := make([]core.Upload, 0, len(args))
	for _, path := range args {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading file: %w", err)
		}
		uploads = append(uploads, core.Upload{Filename: filepath.Base(path), Data: data})
	}

	svc, err := loadServices(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	summary := svc.Processor.IngestFiles(cmd.Context(), uploads)

	if jsonOutput() {
		if err := printJSON(cmd.OutOrStdout(), summary); err != nil {
			return err
		}
	} else {
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintf(w, "FILE\tCHUNKS\tDOCUMENT ID\tSTATUS\n")
		fmt.Fprintf(w, "----\t------\t-----------\t------\n")
		for _, f := range summary.Files {
			fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", truncate(f.Filename, 40), f.ChunksCreated, f.DocumentID, f.Status)
		}
		_ = w.Flush()

		if !quiet {
			fmt.Fprintf(cmd.OutOrStdout(), "\n%s\n", summary.Message)
		}
	}

	if summary.SuccessfulUploads == 0 {
		return fmt.Errorf("no documents were uploaded")
	}
	return nil
}

// ABOUTME: CLI command to list indexed documents
// ABOUTME: Shows filename, chunk count, and upload time, newest first
package commands

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

// NewListCmd creates list command
func NewListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List indexed documents",
		Long: `List every document in the knowledge base, newest upload first.

Examples:
  ragdoc list
  ragdoc list --format json`,
		Args: cobra.NoArgs,
		RunE: runList,
	}

	return cmd
}

func runList(cmd *cobra.Command, args []string) error {
	svc, err := loadServices(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	list, err := svc.Library.ListDocuments(cmd.Context())
	if err != nil {
		return err
	}

	if jsonOutput() {
		return printJSON(cmd.OutOrStdout(), list)
	}

	if list.TotalDocuments == 0 {
		if !quiet {
			fmt.Fprintf(cmd.OutOrStdout(), "No documents found\n")
		}
		return nil
	}

	now := time.Now()
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "FILENAME\tCHUNKS\tUPLOADED\tDOCUMENT ID\n")
	fmt.Fprintf(w, "--------\t------\t--------\t-----------\n")
	for _, doc := range list.Documents {
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\n",
			truncate(doc.Filename, 40),
			doc.TotalChunks,
			formatUploadedAt(doc.UploadedAt, now),
			doc.DocumentID)
	}
	_ = w.Flush()

	if !quiet {
		fmt.Fprintf(cmd.OutOrStdout(), "\nTotal: %d document(s)\n", list.TotalDocuments)
	}
	return nil
}

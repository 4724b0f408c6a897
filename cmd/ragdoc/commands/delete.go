// ABOUTME: CLI command to delete a document and its chunks
// ABOUTME: Frees the filename for a later re-upload
package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewDeleteCmd creates delete command
func NewDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <document-id>",
		Short: "Delete a document",
		Long: `Delete a document and all of its chunks from the knowledge base.

Find document IDs with "ragdoc list".

Examples:
  ragdoc delete 3f2b8c1e-5d4a-4e7b-9c0f-1a2b3c4d5e6f`,
		Args: cobra.ExactArgs(1),
		RunE: runDelete,
	}

	return cmd
}

func runDelete(cmd *cobra.Command, args []string) error {
	svc, err := loadServices(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	documentID := args[0]
	if err := svc.Library.DeleteDocument(cmd.Context(), documentID); err != nil {
		return err
	}

	if jsonOutput() {
		return printJSON(cmd.OutOrStdout(), map[string]any{
			"success":     true,
			"document_id": documentID,
		})
	}
	if !quiet {
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Deleted document %s\n", documentID)
	}
	return nil
}

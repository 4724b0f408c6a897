// ABOUTME: CLI command to report index health and provider configuration
// ABOUTME: Shows document and chunk counts for the configured backend
package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// NewStatusCmd creates status command
func NewStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show index and provider status",
		Long: `Show whether the vector index is reachable, how many documents and
chunks it holds, and which embedding and completion providers are configured.

Examples:
  ragdoc status
  ragdoc status --format json`,
		Args: cobra.NoArgs,
		RunE: runStatus,
	}

	return cmd
}

func runStatus(cmd *cobra.Command, args []string) error {
	svc, err := loadServices(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	st := svc.Status(cmd.Context())
	if jsonOutput() {
		return printJSON(cmd.OutOrStdout(), st)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Status:\t%s\n", st.Status)
	fmt.Fprintf(w, "Index:\t%s (connected: %t)\n", st.IndexBackend, st.IndexConnected)
	fmt.Fprintf(w, "Embeddings:\t%s\n", st.EmbeddingProvider)
	fmt.Fprintf(w, "Completions:\t%s\n", st.CompletionProvider)
	fmt.Fprintf(w, "Documents:\t%d\n", st.TotalDocuments)
	fmt.Fprintf(w, "Chunks:\t%d\n", st.TotalChunks)
	if verbose && svc.Config.Source != "" {
		fmt.Fprintf(w, "Config:\t%s\n", svc.Config.Source)
	}
	return w.Flush()
}

// ABOUTME: ragdoc version command
// ABOUTME: Prints the release, commit, build date, and Go runtime, as text or JSON
package commands

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// VersionInfo is stamped at link time by the release build
type VersionInfo struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"built"`
	Go      string `json:"go"`
}

var versionInfo = VersionInfo{Version: "dev", Commit: "none", Date: "unknown", Go: runtime.Version()}

// SetVersion records build metadata from main
func SetVersion(version, commit, date string) {
	versionInfo.Version, versionInfo.Commit, versionInfo.Date = version, commit, date
}

// NewVersionCmd creates the version command
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the ragdoc build",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if jsonOutput() {
				return printJSON(out, versionInfo)
			}
			_, err := fmt.Fprintf(out, "ragdoc %s\nCommit: %s\nBuilt:  %s\nGo:     %s\n",
				versionInfo.Version, versionInfo.Commit, versionInfo.Date, versionInfo.Go)
			return err
		},
	}
}

// ABOUTME: Root command for the ragdoc CLI with global flags
// ABOUTME: Loads .env and configuration, builds services, and registers every subcommand
package commands

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/harper/ragdoc/internal/app"
	"github.com/harper/ragdoc/internal/config"
	"github.com/harper/ragdoc/internal/logging"
)

var (
	verbose      bool
	quiet        bool
	outputFormat string
	configPath   string
)

const banner = `
██████╗  █████╗  ██████╗ ██████╗  ██████╗  ██████╗
██╔══██╗██╔══██╗██╔════╝ ██╔══██╗██╔═══██╗██╔════╝
██████╔╝███████║██║  ███╗██║  ██║██║   ██║██║
██╔══██╗██╔══██║██║   ██║██║  ██║██║   ██║██║
██║  ██║██║  ██║╚██████╔╝██████╔╝╚██████╔╝╚██████╗
╚═╝  ╚═╝╚═╝  ╚═╝ ╚═════╝ ╚═════╝  ╚═════╝  ╚═════╝`

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ragdoc",
		Short: "Generate grounded content from your documents",
		Long: banner + `

Upload documents, then generate FAQs, summaries, blog posts, and reports
grounded in them. Every answer cites the chunks it was built from, with
a relevance score and excerpt for each source.

Configuration comes from environment variables (and .env), optionally
layered over a YAML or TOML file passed with --config.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if verbose && quiet {
				return fmt.Errorf("--verbose and --quiet are mutually exclusive")
			}
			switch outputFormat {
			case "auto", "json", "table":
			default:
				return fmt.Errorf("--format must be auto, json, or table; got %q", outputFormat)
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	cmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Minimal output")
	cmd.PersistentFlags().StringVar(&outputFormat, "format", "auto", "Output format: auto, json, or table")
	cmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (.yaml or .toml); defaults to $"+config.ConfigFileEnv)

	cmd.AddCommand(
		NewUploadCmd(),
		NewListCmd(),
		NewDeleteCmd(),
		NewGenerateCmd(),
		NewChunkCmd(),
		NewStatusCmd(),
		NewEvalCmd(),
		NewMCPCmd(),
		NewVersionCmd(),
	)

	return cmd
}

// Execute runs the root command
func Execute() error {
	return NewRootCmd().Execute()
}

// loadConfig reads .env and the layered configuration
func loadConfig() (*config.Config, error) {
	// Load .env for API keys
	_ = godotenv.Load()

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

// loadServices builds the full service graph; callers must Close it
func loadServices(cmd *cobra.Command) (*app.Services, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	logger := logging.New(logging.Options{
		Verbose: verbose,
		Quiet:   quiet,
		Level:   cfg.LogLevel,
		Output:  cmd.ErrOrStderr(),
	})

	svc, err := app.Build(cmd.Context(), cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("initializing services: %w", err)
	}
	return svc, nil
}

func jsonOutput() bool {
	return outputFormat == "json"
}

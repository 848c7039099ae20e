// Package main provides the switchctl CLI entrypoint.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/switchsage/resolution-engine/internal/config"
	"github.com/switchsage/resolution-engine/internal/observability"
)

var (
	cfgFile    string
	outputJSON bool

	cfg    *config.Config
	logger *observability.Logger
)

var rootCmd = &cobra.Command{
	Use:   "switchctl",
	Short: "CLI for the mechanical keyboard switch resolution engine",
	Long: `switchctl resolves free-text switch references against the catalog.

Use this tool to:
- Resolve fragments like "gat yellow" to canonical catalog names
- Fetch full specifications with completeness annotations
- Search the catalog by characteristics
- List known switch names

All commands support --json for automation.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load()

		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		logFormat := "console"
		if outputJSON {
			logFormat = "json"
		}

		logger = observability.NewLogger(observability.LogConfig{
			Level:       cfg.Observability.LogLevel,
			Format:      logFormat,
			ServiceName: "switchctl",
		})

		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (default: uses env vars)")
	rootCmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "output in JSON format")

	rootCmd.AddCommand(newResolveCmd())
	rootCmd.AddCommand(newLookupCmd())
	rootCmd.AddCommand(newSearchCmd())
	rootCmd.AddCommand(newNamesCmd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

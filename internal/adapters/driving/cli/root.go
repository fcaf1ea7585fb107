// Package cli provides the ragdex command-line interface.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragdex/internal/logger"
)

var (
	verbose    bool
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "ragdex",
	Short: "Question answering over your PDF library",
	Long: `Ragdex indexes PDF documents into a local vector store and answers
questions about them with source citations.

Run "ragdex serve" to start the HTTP API, or "ragdex chat" for an
interactive terminal session.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.ragdex/config.toml)")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

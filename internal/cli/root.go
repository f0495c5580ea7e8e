// Package cli implements the chatwarden command tree. The root command
// runs the interactive chat loop; subcommands expose one-shot access to
// the executor and the security report.
package cli

import (
	"os"

	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "chatwarden",
	Short: "Guarded terminal chat assistant",
	Long: "Forwards free-text input to a language-model provider after input\n" +
		"filtering, and runs allowlisted system commands under argument and\n" +
		"path restrictions. Every security decision lands in a hash-chained\n" +
		"audit trail.",
	RunE: runChat,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"Path to config YAML (default: ~/.chatwarden/config.yaml)")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

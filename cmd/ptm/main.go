// Package main provides the ptm CLI entry point.
package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/atalyaalon/patents-topic-modeling/internal/logging"
)

// Version is set at build time via ldflags
var Version = "dev"

var (
	// humanOutput controls whether to use human-readable output
	humanOutput bool
	debugOutput bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "ptm",
	Short: "Patent topic modeling pipeline and explorer",
	Long: `ptm loads HUPD patent applications, embeds their text, trains a topic
model, builds a similarity index and serves a dashboard over the results.

Settings come from a .env file, ~/.config/ptm/config.yml and the environment.
All commands output JSON by default; use --human for readable output.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.SetLogger(logging.New(os.Stderr, debugOutput))
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.PersistentFlags().BoolVar(&debugOutput, "debug", false, "Include debug logs")
	rootCmd.Version = Version
}

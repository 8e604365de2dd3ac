// Package cli wires the release pipeline's components behind a small set
// of cobra commands.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/berthrelease/berth/internal/logger"
)

var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var log = logger.Get()

var RootCmd = &cobra.Command{
	Use:   "berth",
	Short: "Berth, a monorepo release pipeline",
	Long:  "Berth classifies commits, bumps package versions across a dependency graph, publishes packages, and records the release.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		levelFlag, _ := cmd.Flags().GetString("log-level")
		if levelFlag == "" {
			return
		}
		level, err := logger.ParseLevel(levelFlag)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid log level %q: %v\n", levelFlag, err)
			os.Exit(1)
		}
		log.SetLevel(level)
	},
}

func init() {
	RootCmd.PersistentFlags().StringP("config", "c", "", "path to the berth config file (default: .berth.yaml discovered from cwd)")
	RootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")

	RootCmd.AddCommand(analyzeCmd)
	RootCmd.AddCommand(changelogCmd)
	RootCmd.AddCommand(releaseCmd)
}

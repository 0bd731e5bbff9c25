package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// `verbena`
func rootCmd() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:           "verbena",
		Short:         "Media template helpers and preview server",
		Long:          "Verbena renders responsive images, media URLs and inline SVGs for templates, and serves templated pages over HTTP.",
		Version:       fmt.Sprintf("%s (commit %s, built %s)", Version, Commit, BuildDate),
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "./config.json", "path to config.json")

	cmd.AddCommand(serveCmd(&configPath))
	cmd.AddCommand(renderCmd(&configPath))
	cmd.AddCommand(attachmentsCmd(&configPath))
	return cmd
}

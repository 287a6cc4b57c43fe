package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	serve := serveCmd()

	rootCmd := &cobra.Command{
		Use:          "medhead",
		Short:        "MedHead bed reservation form service",
		SilenceUsage: true,
		// serving is the default when no subcommand is given
		RunE: serve.RunE,
	}

	rootCmd.AddCommand(serve)
	rootCmd.AddCommand(reserveCmd())
	rootCmd.AddCommand(specialitiesCmd())

	return rootCmd
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nano-interactive/go-amqp-archive/serializer"
)

var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, _ []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "amqp-archive %s\n", Version)
		fmt.Fprintf(out, "  Git commit: %s\n", GitCommit)
		fmt.Fprintf(out, "  Build time: %s\n", BuildTime)
		fmt.Fprintf(out, "  Archive:    %s v%d\n", serializer.ArchiveSignature, serializer.ArchiveVersion)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/nano-interactive/go-amqp-archive/serializer"
)

var formatsCmd = &cobra.Command{
	Use:   "formats",
	Short: "List archive formats",
	RunE: func(cmd *cobra.Command, _ []string) error {
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tCONTENT TYPE\tSUFFIX")

		for _, f := range serializer.Formats[Record]() {
			fmt.Fprintf(w, "%s\t%s\t%s\n", f.Name, f.GetContentType(), f.Suffix())
		}

		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(formatsCmd)
}

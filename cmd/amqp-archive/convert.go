package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/nano-interactive/go-amqp-archive/internal/config"
)

var (
	convertFrom string
	convertTo   string
)

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert a record read from stdin between formats",
	Long: `Reads a single record from stdin in the --from format and writes it
to stdout in the --to format. Formats are json, xml and text.`,
	Example: `  amqp-archive convert --from json --to text < record.json`,
	RunE:    runConvert,
}

func init() {
	rootCmd.AddCommand(convertCmd)

	convertCmd.Flags().StringVar(&convertFrom, "from", config.FormatJSON, "input format")
	convertCmd.Flags().StringVar(&convertTo, "to", "xml", "output format")
}

func runConvert(cmd *cobra.Command, _ []string) error {
	from, err := serializerFor(convertFrom)
	if err != nil {
		return err
	}

	to, err := serializerFor(convertTo)
	if err != nil {
		return err
	}

	in, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	record, err := from.Unmarshal(in)
	if err != nil {
		return fmt.Errorf("decoding %s: %w", convertFrom, err)
	}

	out, err := to.Marshal(record)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", convertTo, err)
	}

	_, err = cmd.OutOrStdout().Write(out)
	return err
}

package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/nano-interactive/go-amqp-archive/internal/config"
)

var (
	cfgFile string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "amqp-archive",
	Short: "Publish, consume and convert archived messages over AMQP",
	Long: `amqp-archive moves records between RabbitMQ and the terminal.
Message bodies are JSON or one of the archive formats (xml, text), and
consumers pick the decoder from each message's content type.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug mode")
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}

	if debug {
		cfg.Debug = true
	}

	return cfg, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

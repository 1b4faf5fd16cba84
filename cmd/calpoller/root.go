// cmd/calpoller/root.go
package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/tamzrod/calpoller/internal/config"
)

var (
	configPath string
	logLevel   string
	logFormat  string
)

var rootCmd = &cobra.Command{
	Use:   "calpoller",
	Short: "Poll field gas analyzers and drive their calibration",
	Long: `calpoller polls gas analyzers, gas calibrators and power stabilizers over
Modbus TCP or RTU, publishes every attribute with a quality status, and
accepts zero/span calibration commands over HTTP.

Examples:
  calpoller check --config calpoller.yaml
  calpoller run --config calpoller.yaml --log-level debug
  calpoller ports`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setupLogging(os.Stderr)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "calpoller.yaml", "Configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "console", "Log format (console, json)")
}

func setupLogging(out io.Writer) error {
	lvl, err := zerolog.ParseLevel(logLevel)
	if err != nil {
		return fmt.Errorf("invalid --log-level %q: %w", logLevel, err)
	}
	zerolog.SetGlobalLevel(lvl)

	switch logFormat {
	case "console":
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	case "json":
	default:
		return fmt.Errorf("invalid --log-format %q (want console or json)", logFormat)
	}
	log.Logger = zerolog.New(out).With().Timestamp().Logger()
	return nil
}

// loadConfig runs the full Load -> Validate -> Normalize chain.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	config.Normalize(cfg)
	return cfg, nil
}

package main

import (
	"strings"

	"github.com/leandrodaf/midichrono/sdk/contracts"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var (
	logLevel string
	logFile  string
)

var rootCmd = &cobra.Command{
	Use:          "midichrono",
	Short:        "MIDI clock and time code generator",
	Long:         `midichrono sends MIDI clock, song position and MIDI time code to output devices.`,
	SilenceUsage: true,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")
	flags.StringVar(&logFile, "log-file", "", "write logs to this file instead of stderr")
}

func parseLogLevel(s string) (contracts.LogLevel, error) {
	switch strings.ToLower(s) {
	case "debug":
		return contracts.DebugLevel, nil
	case "info":
		return contracts.InfoLevel, nil
	case "warn", "warning":
		return contracts.WarnLevel, nil
	case "error":
		return contracts.ErrorLevel, nil
	}
	return contracts.InfoLevel, errors.Errorf("unknown log level %q", s)
}

// commonOptions turns the persistent flags into client options.
func commonOptions() ([]contracts.Option, error) {
	level, err := parseLogLevel(logLevel)
	if err != nil {
		return nil, err
	}
	opts := []contracts.Option{contracts.WithLogLevel(level)}
	if logFile != "" {
		opts = append(opts, contracts.WithLogFilePath(logFile))
	}
	return opts, nil
}

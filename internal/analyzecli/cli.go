package analyzecli

import (
	"fmt"
	"io"
	"os"

	"github.com/okian/dxrating/pkg/logger"
)

// SetupLogging sends logs to stderr so stdout carries only the result.
func SetupLogging(verbose bool) error {
	if err := logger.Init(logger.WithWriter(os.Stderr)); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	level := "warn"
	if verbose {
		level = "debug"
	}
	return logger.SetLevelString(level)
}

// ShowHelp prints usage information for the analyze tool.
func ShowHelp(w io.Writer) {
	_, _ = io.WriteString(w, `dxrating analyze
================

Rates a file of chart records and prints the analysis as JSON.

Usage:
  go run ./cmd/analyze -records records.json [options]

Options:
  -records string
        Records file, JSON or YAML (required)
  -player string
        Player name copied into the result
  -version string
        Game version number (default: configured game_version)
  -region string
        jp, intl or cn (default: configured region)
  -exclude-unknown
        Drop records of songs missing from the song database
  -recommend-min-achv float
        Lowest tier threshold for recommendations (default: configured value)
  -url string
        Analyze through a running server instead of in process
  -timeout duration
        HTTP request timeout (default 30s)
  -output string
        Write the result to this file instead of stdout
  -verbose
        Enable debug logging
  -help
        Show this help message

Local runs read the song feeds from the usual DXRATING_* settings.

Examples:
  DXRATING_SONGS_FEED=songs.json go run ./cmd/analyze -records records.json
  go run ./cmd/analyze -records records.yaml -url http://localhost:9080 -region jp
`)
}

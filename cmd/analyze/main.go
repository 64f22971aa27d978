package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/dxrating/internal/analyzecli"
)

// Default configuration constants.
const (
	defaultTimeout    = 30 * time.Second
	defaultRunTimeout = 2 * time.Minute
)

func main() {
	var (
		records        = flag.String("records", "", "Records file, JSON or YAML")
		player         = flag.String("player", "", "Player name copied into the result")
		version        = flag.String("version", "", "Game version number (default: configured game_version)")
		region         = flag.String("region", "", "Region: jp, intl or cn (default: configured region)")
		excludeUnknown = flag.Bool("exclude-unknown", false, "Drop records of songs missing from the song database")
		minAchv        = flag.Float64("recommend-min-achv", 0, "Lowest tier threshold for recommendations (default: configured value)")
		baseURL        = flag.String("url", "", "Analyze through a running server instead of in process")
		timeout        = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		outputFile     = flag.String("output", "", "Output file for the analysis (default: stdout)")
		verbose        = flag.Bool("verbose", false, "Enable verbose logging")
		help           = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		analyzecli.ShowHelp(os.Stdout)
		return
	}

	if err := analyzecli.SetupLogging(*verbose); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, defaultRunTimeout)
	defer cancel()

	config := &analyzecli.Config{
		RecordsPath:             *records,
		PlayerName:              *player,
		Version:                 *version,
		Region:                  *region,
		ExcludeUnknownSongs:     *excludeUnknown,
		RecommendMinAchievement: *minAchv,
		BaseURL:                 *baseURL,
		Timeout:                 *timeout,
		OutputFile:              *outputFile,
		Verbose:                 *verbose,
	}

	if err := analyzecli.Run(ctx, config, os.Stdout); err != nil {
		os.Stderr.WriteString("Analysis failed: " + err.Error() + "\n")
		cancel()
		os.Exit(1)
	}
}

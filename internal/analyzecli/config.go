// Package analyzecli implements the analyze command: it rates a records
// file either in process or against a running server.
package analyzecli

import "time"

// Config holds configuration for one analyze run
type Config struct {
	RecordsPath             string        // Records file, JSON or YAML
	PlayerName              string        // Player name copied into the result
	Version                 string        // Game version number; empty uses the configured default
	Region                  string        // jp, intl or cn; empty uses the configured default
	ExcludeUnknownSongs     bool          // Drop records of songs missing from the database
	RecommendMinAchievement float64       // Lowest tier threshold for recommendations
	BaseURL                 string        // When set, analyze through this server instead of locally
	Timeout                 time.Duration // HTTP request timeout
	OutputFile              string        // Write the result here instead of stdout
	Verbose                 bool          // Enable debug logging
}

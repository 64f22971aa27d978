package analyzecli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/okian/dxrating/internal/adapters/feed"
	service "github.com/okian/dxrating/internal/app"
	"github.com/okian/dxrating/internal/config"
	"github.com/okian/dxrating/internal/domain/chart"
	"github.com/okian/dxrating/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0750
	filePermission      = 0640
)

// Run rates the records file and writes the analysis as indented JSON to
// out, or to cfg.OutputFile when set. Extra options are applied to the
// in-process service after the loaded configuration.
func Run(ctx context.Context, cfg *Config, out io.Writer, opts ...service.Option) error {
	if strings.TrimSpace(cfg.RecordsPath) == "" {
		return ErrNoRecords
	}
	log := logger.Get().Named("analyze")

	log.Info(ctx, "starting analysis",
		logger.String("records", cfg.RecordsPath),
		logger.String("player", cfg.PlayerName),
		logger.String("version", cfg.Version),
		logger.String("region", cfg.Region),
		logger.String("baseURL", cfg.BaseURL))

	loader := feed.NewLoader(feed.WithLogger(log))
	records, err := loader.Records(ctx, cfg.RecordsPath)
	if err != nil {
		return fmt.Errorf("failed to read records: %w", err)
	}
	log.Debug(ctx, "records loaded", logger.Int("count", len(records)))

	var analysis service.Analysis
	if cfg.BaseURL != "" {
		analysis, err = analyzeRemote(ctx, cfg, records)
	} else {
		analysis, err = analyzeLocal(ctx, cfg, records, log, opts)
	}
	if err != nil {
		return err
	}

	if err := writeResult(cfg.OutputFile, out, analysis); err != nil {
		return err
	}

	log.Info(ctx, "analysis written",
		logger.String("id", analysis.ID),
		logger.Int("rating", analysis.TotalRating))
	return nil
}

func analyzeLocal(ctx context.Context, cfg *Config, records []chart.Record, log logger.Logger, opts []service.Option) (service.Analysis, error) {
	appCfg, err := config.Load(ctx)
	if err != nil {
		return service.Analysis{}, err
	}

	all := append(service.OptionsFromConfig(appCfg), service.WithLogger(log))
	svc := service.New(append(all, opts...)...)
	if err := svc.Start(ctx); err != nil {
		return service.Analysis{}, err
	}
	defer svc.Stop()

	return svc.Analyze(ctx, service.AnalyzeRequest{
		PlayerName:              cfg.PlayerName,
		Version:                 cfg.Version,
		Region:                  cfg.Region,
		Records:                 records,
		ExcludeUnknownSongs:     cfg.ExcludeUnknownSongs,
		RecommendMinAchievement: cfg.RecommendMinAchievement,
	})
}

func writeResult(filename string, out io.Writer, analysis service.Analysis) error {
	data, err := json.MarshalIndent(analysis, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal analysis: %w", err)
	}
	data = append(data, '\n')

	if filename == "" {
		_, err := out.Write(data)
		return err
	}

	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := os.WriteFile(filename, data, filePermission); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return nil
}

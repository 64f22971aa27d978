package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/dxrating/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

var configEnvVars = []string{
	"DXRATING_CONFIG",
	"DXRATING_ENV_FILE",
	"DXRATING_ADDR",
	"DXRATING_LOG_LEVEL",
	"DXRATING_GAME_VERSION",
	"DXRATING_REGION",
	"DXRATING_TOP_NEW_CHARTS",
	"DXRATING_TOP_OLD_CHARTS",
	"DXRATING_RECOMMEND_MIN_ACHIEVEMENT",
	"DXRATING_VERBOSE_LOOKUPS",
	"DXRATING_SONGS_FEED",
}

func clearConfigEnvVars() {
	for _, k := range configEnvVars {
		_ = os.Unsetenv(k)
	}
}

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New(context.Background())

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.GameVersion, convey.ShouldEqual, 25)
			convey.So(cfg.Region, convey.ShouldEqual, "intl")
			convey.So(cfg.IncludePreviousVersionFrom, convey.ShouldEqual, 25)
			convey.So(cfg.TopNewCharts, convey.ShouldEqual, 15)
			convey.So(cfg.TopOldCharts, convey.ShouldEqual, 35)
			convey.So(cfg.RecommendMinAchievement, convey.ShouldEqual, 99.0)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given configs with one bad setting each", t, func() {
		ctx := context.Background()
		mutations := map[string]func(*config.Config){
			"empty addr":        func(c *config.Config) { c.Addr = " " },
			"bad version":       func(c *config.Config) { c.GameVersion = 40 },
			"negative policy":   func(c *config.Config) { c.IncludePreviousVersionFrom = -1 },
			"zero pool":         func(c *config.Config) { c.TopNewCharts = 0 },
			"achievement above": func(c *config.Config) { c.RecommendMinAchievement = 101 },
			"bad region":        func(c *config.Config) { c.Region = "eu" },
			"bad log level":     func(c *config.Config) { c.LogLevel = "loud" },
		}

		convey.Convey("Then each is rejected as invalid", func() {
			for name, mutate := range mutations {
				cfg := config.New(ctx)
				mutate(cfg)
				err := cfg.Validate()
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(name, convey.ShouldNotBeEmpty)
			}
		})
	})
}

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()
		_ = os.Setenv("DXRATING_ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
		defer clearConfigEnvVars()

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.Version().Name(), convey.ShouldEqual, "CiRCLE")
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("DXRATING_ADDR", ":8080")
			_ = os.Setenv("DXRATING_GAME_VERSION", "24")
			_ = os.Setenv("DXRATING_REGION", "jp")
			_ = os.Setenv("DXRATING_TOP_NEW_CHARTS", "10")
			_ = os.Setenv("DXRATING_RECOMMEND_MIN_ACHIEVEMENT", "99.5")
			_ = os.Setenv("DXRATING_VERBOSE_LOOKUPS", "true")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.GameVersion, convey.ShouldEqual, 24)
				convey.So(string(cfg.DefaultRegion()), convey.ShouldEqual, "jp")
				convey.So(cfg.TopNewCharts, convey.ShouldEqual, 10)
				convey.So(cfg.TopOldCharts, convey.ShouldEqual, 35)
				convey.So(cfg.RecommendMinAchievement, convey.ShouldEqual, 99.5)
				convey.So(cfg.VerboseLookups, convey.ShouldBeTrue)
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			path := writeTemp(t, "config.yaml", `
addr: ":9090"
game_version: 23
top_old_charts: 30
songs_feed: /data/songs.json
`)
			_ = os.Setenv("DXRATING_CONFIG", path)
			_ = os.Setenv("DXRATING_TOP_OLD_CHARTS", "25")

			cfg, err := config.Load(ctx)

			convey.Convey("Then the file applies and env wins over it", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.GameVersion, convey.ShouldEqual, 23)
				convey.So(cfg.SongsFeed, convey.ShouldEqual, "/data/songs.json")
				convey.So(cfg.TopOldCharts, convey.ShouldEqual, 25)
			})
		})

		convey.Convey("When loading config with a .env file", func() {
			path := writeTemp(t, "test.env", "DXRATING_SONGS_FEED=/env/songs.yaml\nDXRATING_LOG_LEVEL=debug\n")
			_ = os.Setenv("DXRATING_ENV_FILE", path)

			cfg, err := config.Load(ctx)

			convey.Convey("Then its variables are picked up", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.SongsFeed, convey.ShouldEqual, "/env/songs.yaml")
				convey.So(cfg.LogLevel, convey.ShouldEqual, "debug")
			})
		})

		convey.Convey("When the config file is missing", func() {
			_ = os.Setenv("DXRATING_CONFIG", "/nonexistent/config.yaml")

			_, err := config.Load(ctx)

			convey.Convey("Then a load error is returned", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When a value is invalid", func() {
			_ = os.Setenv("DXRATING_REGION", "mars")

			_, err := config.Load(ctx)

			convey.Convey("Then validation fails", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})
	})
}

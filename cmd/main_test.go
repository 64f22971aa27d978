package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/okian/dxrating/internal/adapters/http/api"
	app "github.com/okian/dxrating/internal/app"
	"github.com/okian/dxrating/internal/config"
	"github.com/okian/dxrating/pkg/logger"
	"github.com/okian/dxrating/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

const songsFeed = `[
  {"name": "Alpha", "genre": "maimai", "dx": 1, "debut": 25, "lv": [3, 6, 9, 13.2]}
]`

func setEnv(t *testing.T, kv map[string]string) func() {
	t.Helper()
	_ = os.Setenv("DXRATING_ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
	for k, v := range kv {
		_ = os.Setenv(k, v)
	}
	return func() {
		_ = os.Unsetenv("DXRATING_ENV_FILE")
		for k := range kv {
			_ = os.Unsetenv(k)
		}
	}
}

func TestMainFunction(t *testing.T) {
	convey.Convey("Given the main application", t, func() {
		convey.Convey("When testing configuration loading", func() {
			cleanup := setEnv(t, map[string]string{
				"DXRATING_ADDR":           ":8080",
				"DXRATING_TOP_NEW_CHARTS": "10",
			})
			defer cleanup()

			convey.Convey("Then configuration should be loadable", func() {
				cfg, err := config.Load(context.Background())
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.TopNewCharts, convey.ShouldEqual, 10)
			})
		})

		convey.Convey("When testing service creation", func() {
			cfg := config.New(context.Background())
			svc := newService(cfg, logger.Get())

			convey.Convey("Then configuration flows into the service", func() {
				stats := svc.GetStats()
				convey.So(stats["topNewCharts"], convey.ShouldEqual, cfg.TopNewCharts)
				convey.So(stats["defaultRegion"], convey.ShouldEqual, cfg.Region)
			})
		})

		convey.Convey("When testing metrics initialization", func() {
			convey.Convey("Then metrics manager should be creatable", func() {
				manager := metrics.NewManager(metrics.WithPrometheusRegistry(prometheus.NewRegistry()))
				convey.So(manager, convey.ShouldNotBeNil)
			})
		})
	})
}

func TestMainApplicationComponents(t *testing.T) {
	convey.Convey("Given main application components", t, func() {
		convey.Convey("When testing system metrics updater", func() {
			convey.Convey("Then it should return once the context ends", func() {
				ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
				defer cancel()

				convey.So(func() {
					startSystemMetricsUpdater(ctx)
				}, convey.ShouldNotPanic)
			})
		})

		convey.Convey("When testing service metrics updater", func() {
			svc := app.New()

			convey.Convey("Then it should return once the context ends", func() {
				ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
				defer cancel()

				convey.So(func() {
					startServiceMetricsUpdater(ctx, svc)
				}, convey.ShouldNotPanic)
			})
		})

		convey.Convey("When testing system metrics update", func() {
			convey.Convey("Then it should update metrics without panicking", func() {
				convey.So(updateSystemMetrics, convey.ShouldNotPanic)
			})
		})
	})
}

func TestMainApplicationIntegration(t *testing.T) {
	convey.Convey("Given main application integration", t, func() {
		dir := t.TempDir()
		songs := filepath.Join(dir, "songs.json")
		convey.So(os.WriteFile(songs, []byte(songsFeed), 0o600), convey.ShouldBeNil)

		cleanup := setEnv(t, map[string]string{"DXRATING_SONGS_FEED": songs})
		defer cleanup()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		cfg, err := config.Load(ctx)
		convey.So(err, convey.ShouldBeNil)

		svc := newService(cfg, logger.Get())
		convey.So(svc.Start(ctx), convey.ShouldBeNil)
		defer svc.Stop()

		srv := newHTTPServer(ctx, cfg, svc, logger.Get())

		convey.Convey("When analyzing through the HTTP stack", func() {
			body := `{"player_name": "P", "records": [
				{"songName": "Alpha", "genre": "maimai", "chartType": "DX", "difficulty": "MASTER", "achievement": 100.5}
			]}`
			req := httptest.NewRequest(http.MethodPost, "/analyze", strings.NewReader(body))
			w := httptest.NewRecorder()
			srv.Handler.ServeHTTP(w, req)

			convey.Convey("Then the feed level is used", func() {
				convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
				convey.So(w.Body.String(), convey.ShouldContainSubstring, `"totalRating":297`)
				convey.So(w.Header().Get(api.RequestIDHeader), convey.ShouldNotBeEmpty)
			})
		})

		convey.Convey("When requesting the docs", func() {
			for _, path := range []string{"/", "/api-docs", "/openapi.yaml", "/healthz"} {
				req := httptest.NewRequest(http.MethodGet, path, http.NoBody)
				w := httptest.NewRecorder()
				srv.Handler.ServeHTTP(w, req)

				convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
			}
		})

		convey.Convey("Then the server uses the configured address", func() {
			convey.So(srv.Addr, convey.ShouldEqual, cfg.Addr)
			convey.So(srv.ReadHeaderTimeout, convey.ShouldEqual, readHeaderTimeout)
		})
	})
}

func TestMainApplicationErrorHandling(t *testing.T) {
	convey.Convey("Given main application error handling", t, func() {
		convey.Convey("When testing invalid configuration", func() {
			cleanup := setEnv(t, map[string]string{"DXRATING_REGION": "eu"})
			defer cleanup()

			convey.Convey("Then configuration loading should fail", func() {
				cfg, err := config.Load(context.Background())
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When the songs feed is missing", func() {
			cfg := config.New(context.Background())
			cfg.SongsFeed = filepath.Join(t.TempDir(), "missing.json")
			svc := newService(cfg, logger.Get())

			convey.Convey("Then the service refuses to start", func() {
				convey.So(svc.Start(context.Background()), convey.ShouldNotBeNil)
			})
		})
	})
}

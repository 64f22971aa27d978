package service_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	feed "github.com/okian/dxrating/internal/adapters/feed"
	service "github.com/okian/dxrating/internal/app"
	"github.com/okian/dxrating/internal/domain/chart"
	"github.com/okian/dxrating/internal/domain/gamever"
	"github.com/okian/dxrating/internal/domain/rating"
	. "github.com/smartystreets/goconvey/convey"
)

const integrationSongs = `[
  {"name": "NewSong", "genre": "maimai", "dx": 1, "debut": 25, "lv": [3, 6, 9, 13]},
  {"name": "PrevSong", "genre": "maimai", "dx": 1, "debut": 24, "lv": [3, 6, 9, 12]},
  {"name": "OldSong", "genre": "maimai", "dx": 0, "debut": 10, "lv": [3, 6, 9, -12.5]},
  {"name": "Removed", "genre": "maimai", "dx": 0, "debut": 10, "lv": [3, 6, 9, 14]}
]`

const integrationRemoved = `
- region: intl
  version: 25
  names: [Removed]
`

func integrationRecords() []chart.Record {
	return []chart.Record{
		master("NewSong", chart.DX, 100.5, 0),
		master("PrevSong", chart.DX, 99.0, 0),
		master("OldSong", chart.Standard, 100.0, 0),
		master("MysteryDX", chart.DX, 98.5, -12.3),
		master("MysteryStd", chart.Standard, 97.0, 11),
		master("Removed", chart.Standard, 100.5, 14),
	}
}

func writeFeed(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestServiceIntegration(t *testing.T) {
	dir := t.TempDir()
	paths := feed.Paths{
		Songs:   writeFeed(t, dir, "songs.json", integrationSongs),
		Removed: writeFeed(t, dir, "removed.yaml", integrationRemoved),
	}

	Convey("Given a service reading feeds from disk", t, func() {
		svc := service.New(
			service.WithFeedPaths(paths),
			service.WithDefaultVersion(gamever.Circle),
			service.WithDefaultRegion(gamever.RegionIntl),
			service.WithMetricsUpdateInterval(10*time.Millisecond),
		)
		defer svc.Stop()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		So(svc.Start(ctx), ShouldBeNil)

		Convey("When analyzing with the defaults", func() {
			res, err := svc.Analyze(ctx, service.AnalyzeRequest{
				PlayerName: "PLAYER",
				Records:    integrationRecords(),
			})

			Convey("Then the analysis matches the database", func() {
				So(err, ShouldBeNil)
				_, parseErr := uuid.Parse(res.ID)
				So(parseErr, ShouldBeNil)
				So(res.Version, ShouldEqual, gamever.Circle)
				So(res.VersionName, ShouldEqual, "CiRCLE")
				So(res.Region, ShouldEqual, gamever.RegionIntl)
				So(res.Data.NewChartsRating, ShouldEqual, 292+247+245)
				So(res.Data.OldChartsRating, ShouldEqual, 270+213)
				So(res.TotalRating, ShouldEqual, 1267)
				So(res.NewAverage, ShouldEqual, "261")
				So(res.OldAverage, ShouldEqual, "242")
			})

			Convey("And recommendations aim one point above each pool's weakest chart", func() {
				So(res.Recommendations, ShouldHaveLength, 2)
				So(res.Recommendations[0].Pool, ShouldEqual, "new")
				So(res.Recommendations[0].Target, ShouldEqual, 246)
				So(res.Recommendations[1].Pool, ShouldEqual, "old")
				So(res.Recommendations[1].Target, ShouldEqual, 214)
				for _, rec := range res.Recommendations {
					So(rec.Tiers, ShouldNotBeEmpty)
					for _, row := range rec.Tiers {
						for _, e := range row.Entries {
							So(e.Rating, ShouldBeGreaterThanOrEqualTo, rec.Target)
							So(e.MinAchv, ShouldBeGreaterThanOrEqualTo, 99.0)
						}
					}
				}
			})

			Convey("And the distribution covers every rated record", func() {
				total := 0
				for _, row := range res.Distribution.Rows {
					for _, n := range row.Counts {
						total += n
					}
				}
				So(total, ShouldEqual, 5)
			})

			Convey("And the analysis is counted", func() {
				So(svc.GetStats()["analyses"], ShouldEqual, int64(1))
			})
		})

		Convey("When analyzing for another region", func() {
			res, err := svc.Analyze(ctx, service.AnalyzeRequest{
				Version: "25",
				Region:  "JP",
				Records: integrationRecords(),
			})

			Convey("Then that region's removal list applies", func() {
				So(err, ShouldBeNil)
				So(res.Region, ShouldEqual, gamever.RegionJapan)
				So(res.Data.OldChartRecords, ShouldHaveLength, 3)
				So(res.Data.OldChartRecords[0].SongName, ShouldEqual, "Removed")
				So(res.TotalRating, ShouldEqual, 1267+315)
				So(svc.GetStats()["cachedDatabases"], ShouldEqual, 2)
			})
		})

		Convey("When the previous version is requested", func() {
			res, err := svc.Analyze(ctx, service.AnalyzeRequest{
				Version:             "24",
				Records:             integrationRecords(),
				ExcludeUnknownSongs: true,
			})

			Convey("Then only that version's charts are new", func() {
				So(err, ShouldBeNil)
				So(res.Version, ShouldEqual, gamever.PrismPlus)
				So(res.Data.NewChartRecords, ShouldHaveLength, 1)
				So(res.Data.NewChartRecords[0].SongName, ShouldEqual, "PrevSong")
			})
		})

		Convey("When the region is unknown", func() {
			_, err := svc.Analyze(ctx, service.AnalyzeRequest{Region: "eu"})

			Convey("Then the request is rejected", func() {
				So(errors.Is(err, service.ErrInvalidInput), ShouldBeTrue)
			})
		})

		Convey("When no records are given", func() {
			res, err := svc.Analyze(ctx, service.AnalyzeRequest{})

			Convey("Then the rating is zero and nothing is recommended", func() {
				So(err, ShouldBeNil)
				So(res.TotalRating, ShouldEqual, 0)
				So(res.Recommendations, ShouldBeEmpty)
				So(res.NewAverage, ShouldEqual, "0")
			})
		})

		Convey("When the policy excludes the previous version", func() {
			strict := service.New(
				service.WithFeedPaths(paths),
				service.WithPolicy(rating.NewChartPolicy{}),
				service.WithRecommendMinAchievement(100),
			)
			So(strict.Start(ctx), ShouldBeNil)
			defer strict.Stop()

			res, err := strict.Analyze(ctx, service.AnalyzeRequest{Records: integrationRecords()})

			Convey("Then last version's charts move to the old pool", func() {
				So(err, ShouldBeNil)
				So(res.Data.NewChartRecords, ShouldHaveLength, 2)
				for _, rec := range res.Recommendations {
					for _, row := range rec.Tiers {
						So(row.Title, ShouldBeIn, []string{"SSS+", "SSS"})
					}
				}
			})
		})
	})
}

package analyzecli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/dxrating/internal/adapters/feed"
	service "github.com/okian/dxrating/internal/app"
	"github.com/okian/dxrating/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

const (
	songsJSON = `[
  {"name": "Alpha", "genre": "maimai", "dx": 1, "debut": 25, "lv": [3, 6, 9, 13.2]}
]`
	recordsYAML = `- songName: Alpha
  genre: maimai
  chartType: DX
  difficulty: MASTER
  achievement: 100.5
`
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRun_Local(t *testing.T) {
	Convey("Given a records file and a songs feed", t, func() {
		dir := t.TempDir()
		t.Setenv("DXRATING_ENV_FILE", filepath.Join(dir, "missing.env"))
		songs := writeFile(t, dir, "songs.json", songsJSON)
		records := writeFile(t, dir, "records.yaml", recordsYAML)
		ctx := context.Background()
		feeds := service.WithFeedPaths(feed.Paths{Songs: songs})

		Convey("When running without a server URL", func() {
			var out bytes.Buffer
			err := Run(ctx, &Config{RecordsPath: records, PlayerName: "P"}, &out, feeds)

			Convey("Then the analysis is printed as JSON", func() {
				So(err, ShouldBeNil)
				var got service.Analysis
				So(json.Unmarshal(out.Bytes(), &got), ShouldBeNil)
				So(got.TotalRating, ShouldEqual, 297)
				So(got.Data.PlayerName, ShouldEqual, "P")
				So(got.ID, ShouldNotBeEmpty)
			})
		})

		Convey("When an output file is configured", func() {
			target := filepath.Join(dir, "out", "analysis.json")
			var out bytes.Buffer
			err := Run(ctx, &Config{RecordsPath: records, OutputFile: target}, &out, feeds)

			Convey("Then the file holds the result and stdout stays empty", func() {
				So(err, ShouldBeNil)
				So(out.Len(), ShouldEqual, 0)
				data, readErr := os.ReadFile(target)
				So(readErr, ShouldBeNil)
				So(string(data), ShouldContainSubstring, `"totalRating": 297`)
			})
		})

		Convey("When the region is unknown", func() {
			err := Run(ctx, &Config{RecordsPath: records, Region: "eu"}, &bytes.Buffer{}, feeds)

			Convey("Then the service error is returned", func() {
				So(errors.Is(err, service.ErrInvalidInput), ShouldBeTrue)
			})
		})
	})

	Convey("Given no records path", t, func() {
		err := Run(context.Background(), &Config{}, &bytes.Buffer{})

		Convey("Then Run refuses to start", func() {
			So(errors.Is(err, ErrNoRecords), ShouldBeTrue)
		})
	})

	Convey("Given a records path that does not exist", t, func() {
		err := Run(context.Background(), &Config{RecordsPath: filepath.Join(t.TempDir(), "none.json")}, &bytes.Buffer{})

		Convey("Then the load error is returned", func() {
			So(errors.Is(err, feed.ErrLoadFeed), ShouldBeTrue)
		})
	})
}

func TestRun_Remote(t *testing.T) {
	Convey("Given a server that answers /analyze", t, func() {
		dir := t.TempDir()
		records := writeFile(t, dir, "records.yaml", recordsYAML)

		var got analyzeRequest
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/analyze" || r.Method != http.MethodPost {
				http.NotFound(w, r)
				return
			}
			_ = json.NewDecoder(r.Body).Decode(&got)
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"id": "abc", "version": 25, "region": "jp", "totalRating": 123}`))
		}))
		defer srv.Close()

		Convey("When running against its URL", func() {
			var out bytes.Buffer
			err := Run(context.Background(), &Config{
				RecordsPath: records,
				PlayerName:  "P",
				Region:      "jp",
				BaseURL:     srv.URL + "/",
				Timeout:     5 * time.Second,
			}, &out)

			Convey("Then the records are posted and the reply is printed", func() {
				So(err, ShouldBeNil)
				So(got.PlayerName, ShouldEqual, "P")
				So(got.Region, ShouldEqual, "jp")
				So(got.Records, ShouldHaveLength, 1)
				So(got.Records[0].SongName, ShouldEqual, "Alpha")
				So(got.Records[0].Achievement, ShouldEqual, 100.5)
				So(out.String(), ShouldContainSubstring, `"totalRating": 123`)
			})
		})
	})

	Convey("Given a server that rejects the request", t, func() {
		records := writeFile(t, t.TempDir(), "records.yaml", recordsYAML)
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"code": "bad_request", "message": "unknown region"}`))
		}))
		defer srv.Close()

		Convey("When running against its URL", func() {
			err := Run(context.Background(), &Config{RecordsPath: records, BaseURL: srv.URL, Timeout: time.Second}, &bytes.Buffer{})

			Convey("Then the server message is surfaced", func() {
				So(errors.Is(err, ErrRemote), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "unknown region")
			})
		})
	})
}

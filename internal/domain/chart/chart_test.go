package chart_test

import (
	"encoding/json"
	"testing"

	chart "github.com/okian/dxrating/internal/domain/chart"
	"github.com/okian/dxrating/internal/domain/level"
	. "github.com/smartystreets/goconvey/convey"
)

func TestParse(t *testing.T) {
	Convey("Given chart type and difficulty names", t, func() {
		Convey("Then aliases are accepted", func() {
			ct, err := chart.ParseType("dx")
			So(err, ShouldBeNil)
			So(ct, ShouldEqual, chart.DX)
			ct, err = chart.ParseType("STD")
			So(err, ShouldBeNil)
			So(ct, ShouldEqual, chart.Standard)
			_, err = chart.ParseType("utage")
			So(err, ShouldNotBeNil)

			d, err := chart.ParseDifficulty("Re:MASTER")
			So(err, ShouldBeNil)
			So(d, ShouldEqual, chart.ReMaster)
			d, err = chart.ParseDifficulty("master")
			So(err, ShouldBeNil)
			So(d, ShouldEqual, chart.Master)
			_, err = chart.ParseDifficulty("HARD")
			So(err, ShouldNotBeNil)
			So(chart.Difficulty(9).String(), ShouldEqual, "Difficulty(9)")
		})
	})
}

func TestRecordJSON(t *testing.T) {
	Convey("Given a record in JSON", t, func() {
		raw := `{"songName":"Song","genre":"maimai","chartType":"DX","difficulty":3,"achievement":100.1,"level":{"value":13.2,"confirmed":false}}`

		Convey("When decoding", func() {
			var rec chart.Record
			err := json.Unmarshal([]byte(raw), &rec)

			Convey("Then names and numbers both decode", func() {
				So(err, ShouldBeNil)
				So(rec.Type, ShouldEqual, chart.DX)
				So(rec.Difficulty, ShouldEqual, chart.Master)
				So(rec.Level, ShouldResemble, level.Estimated(13.2))
			})

			Convey("And encoding uses names", func() {
				out, err := json.Marshal(rec)
				So(err, ShouldBeNil)
				So(string(out), ShouldContainSubstring, `"chartType":"DX"`)
				So(string(out), ShouldContainSubstring, `"difficulty":"MASTER"`)
			})
		})

		Convey("When the difficulty is out of range", func() {
			var rec chart.Record
			err := json.Unmarshal([]byte(`{"difficulty":7}`), &rec)

			Convey("Then decoding fails", func() {
				So(err, ShouldNotBeNil)
			})
		})
	})
}

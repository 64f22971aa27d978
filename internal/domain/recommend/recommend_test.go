package recommend_test

import (
	"math"
	"testing"

	"github.com/okian/dxrating/internal/domain/rank"
	recommend "github.com/okian/dxrating/internal/domain/recommend"
	. "github.com/smartystreets/goconvey/convey"
)

func TestLevels(t *testing.T) {
	table := rank.Default()

	Convey("Given the tiers at or above SS", t, func() {
		tiers := table.AtOrAbove(99.0)
		So(tiers, ShouldHaveLength, 4)

		Convey("When asking for a rating of 300", func() {
			res := recommend.Levels(300, tiers)

			Convey("Then every tier lists its reachable levels", func() {
				So(res, ShouldHaveLength, 4)

				ss := res["SS"]
				So(ss, ShouldHaveLength, 2)
				So(ss[0].Level, ShouldAlmostEqual, 14.5, 1e-9)
				So(ss[0].MinAchv, ShouldAlmostEqual, 99.4695, 1e-9)
				So(ss[0].Rating, ShouldEqual, 300)
				So(ss[1].Level, ShouldAlmostEqual, 14.6, 1e-9)
				So(ss[1].MinAchv, ShouldEqual, 99.0)

				So(res["SS+"], ShouldHaveLength, 1)
				So(res["SS+"][0].Level, ShouldAlmostEqual, 14.3, 1e-9)
				So(res["SSS"][0].Level, ShouldAlmostEqual, 13.9, 1e-9)
				So(res["SSS+"][0].Level, ShouldAlmostEqual, 13.4, 1e-9)
				So(res["SSS+"][0].Rating, ShouldEqual, 301)
			})

			Convey("And every entry reaches the target inside its tier", func() {
				for _, tier := range tiers {
					prev := 0.0
					for _, e := range res[tier.Title] {
						So(math.Floor(e.Level*tier.Factor*e.MinAchv), ShouldBeGreaterThanOrEqualTo, 300)
						So(e.MinAchv, ShouldBeGreaterThanOrEqualTo, tier.MinAchv)
						So(e.Level, ShouldBeGreaterThan, prev)
						prev = e.Level
					}
				}
			})

			Convey("And Ordered follows the table order", func() {
				rows := res.Ordered(table.Tiers())
				So(rows, ShouldHaveLength, 4)
				So(rows[0].Title, ShouldEqual, "SSS+")
				So(rows[3].Title, ShouldEqual, "SS")
			})
		})

		Convey("When the target has a fraction", func() {
			Convey("Then it is floored first", func() {
				So(recommend.Levels(300.9, tiers), ShouldResemble, recommend.Levels(300, tiers))
			})
		})
	})

	Convey("Given only the S tier", t, func() {
		tiers := []rank.Tier{rank.S}

		Convey("When the target needs a level above 15", func() {
			res := recommend.Levels(300, tiers)

			Convey("Then the tier is omitted", func() {
				So(res, ShouldBeEmpty)
			})
		})

		Convey("When the target is reachable", func() {
			res := recommend.Levels(280, tiers)

			Convey("Then the single reachable level is listed", func() {
				So(res["S"], ShouldHaveLength, 1)
				e := res["S"][0]
				So(e.Level, ShouldAlmostEqual, 14.5, 1e-9)
				So(e.MinAchv, ShouldEqual, 97.0)
				So(e.Rating, ShouldEqual, 281)
			})
		})
	})

	Convey("Given degenerate input", t, func() {
		Convey("When the target is below one", func() {
			Convey("Then nothing is recommended", func() {
				So(recommend.Levels(0, rank.Default().Tiers()), ShouldBeEmpty)
				So(recommend.Levels(math.NaN(), rank.Default().Tiers()), ShouldBeEmpty)
			})
		})

		Convey("When the target is far beyond any chart", func() {
			Convey("Then nothing is recommended", func() {
				So(recommend.Levels(1e20, rank.Default().Tiers()), ShouldBeEmpty)
				So(recommend.Levels(math.MaxFloat64, rank.Default().Tiers()), ShouldBeEmpty)
				So(recommend.Levels(math.Inf(1), rank.Default().Tiers()), ShouldBeEmpty)
			})
		})

		Convey("When the catch-all tier is included", func() {
			res := recommend.Levels(100, rank.Default().Tiers())

			Convey("Then it is skipped", func() {
				So(res, ShouldNotContainKey, "D")
				So(res, ShouldContainKey, "SSS+")
			})
		})
	})
}

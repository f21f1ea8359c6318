package route_test

import (
	"testing"
	"time"

	"github.com/safetaichung/saferoute/internal/domain/model"
	"github.com/safetaichung/saferoute/internal/domain/route"
	. "github.com/smartystreets/goconvey/convey"
)

// snapshot builds a small fixed snapshot for composer tests.
func snapshot() *model.Snapshot {
	return &model.Snapshot{
		RunID:       "test-run",
		GeneratedAt: time.Date(2020, 5, 1, 0, 0, 0, 0, time.UTC),
		Districts: []model.DistrictRiskEntry{
			{District: "中區", TotalCases: 300, Population: 150000, PopulationKnown: true,
				CasesPer10k: 20.0, DaytimeRatio: 55.0, NightRatio: 45.0, RiskLevel: model.RiskHigh},
			{District: "西屯區", TotalCases: 120, Population: 200000, PopulationKnown: true,
				CasesPer10k: 6.0, DaytimeRatio: 60.0, NightRatio: 40.0, RiskLevel: model.RiskLow},
			{District: "東區", TotalCases: 40, PopulationKnown: false, RiskLevel: model.RiskUnknown},
		},
		Hourly: []model.HourlyRiskEntry{
			{District: "中區", Hour: 14, HourCases: 50, HourRatio: 8.33, HourRiskScore: 2.0},
			{District: "西屯區", Hour: 14, HourCases: 5, HourRatio: 4.17, HourRiskScore: 1.0},
			{District: "西屯區", Hour: 2, HourCases: 15, HourRatio: 12.5, HourRiskScore: 3.0},
		},
	}
}

func TestCompose(t *testing.T) {
	Convey("Given a composer over a loaded snapshot", t, func() {
		c := route.NewComposer(snapshot())

		Convey("When scoring a single-district route at a hot hour", func() {
			result, err := c.Compose([]string{"中區"}, 14)
			So(err, ShouldBeNil)

			Convey("Then segment risk is rate times hourly multiplier", func() {
				So(len(result.Segments), ShouldEqual, 1)
				So(result.Segments[0].SegmentRisk, ShouldEqual, 40.0) // 20.0 * 2.0
			})

			Convey("Then the route score crosses the fixed high cutoff", func() {
				So(result.RouteRiskScore, ShouldEqual, 40.0)
				So(result.RouteRiskLabel, ShouldEqual, model.RiskHigh)
			})

			Convey("Then no fallbacks were used", func() {
				So(result.DistrictFallbacks, ShouldEqual, 0)
				So(result.HourFallbacks, ShouldEqual, 0)
			})
		})

		Convey("When scoring a two-district route", func() {
			result, err := c.Compose([]string{"中區", "西屯區"}, 14)
			So(err, ShouldBeNil)

			Convey("Then the score is the mean of segment risks", func() {
				// (20*2 + 6*1) / 2 = 23.0
				So(result.RouteRiskScore, ShouldEqual, 23.0)
				So(result.RouteRiskLabel, ShouldEqual, model.RiskMedium)
			})

			Convey("Then segments preserve input order", func() {
				So(result.Segments[0].District, ShouldEqual, "中區")
				So(result.Segments[1].District, ShouldEqual, "西屯區")
			})

			Convey("And reversing the input keeps the score", func() {
				reversed, err := c.Compose([]string{"西屯區", "中區"}, 14)
				So(err, ShouldBeNil)
				So(reversed.RouteRiskScore, ShouldEqual, result.RouteRiskScore)
				So(reversed.Segments[0].District, ShouldEqual, "西屯區")
			})
		})

		Convey("When a district repeats in the route", func() {
			result, err := c.Compose([]string{"中區", "中區"}, 14)
			So(err, ShouldBeNil)

			Convey("Then duplicates count once per occurrence", func() {
				So(len(result.Segments), ShouldEqual, 2)
				So(result.RouteRiskScore, ShouldEqual, 40.0)
			})
		})

		Convey("When the hour has no observed cases", func() {
			result, err := c.Compose([]string{"中區"}, 3)
			So(err, ShouldBeNil)

			Convey("Then the neutral multiplier of 1.0 applies", func() {
				So(result.Segments[0].HourRiskScore, ShouldEqual, 1.0)
				So(result.RouteRiskScore, ShouldEqual, 20.0)
				So(result.HourFallbacks, ShouldEqual, 1)
			})
		})

		Convey("When the district is not in the summary", func() {
			result, err := c.Compose([]string{"霧峰區"}, 14)
			So(err, ShouldBeNil)

			Convey("Then the rate falls back to zero and the level to unknown", func() {
				So(result.Segments[0].CasesPer10k, ShouldEqual, 0)
				So(result.Segments[0].RiskLevel, ShouldEqual, model.RiskUnknown)
				So(result.RouteRiskScore, ShouldEqual, 0)
				So(result.RouteRiskLabel, ShouldEqual, model.RiskLow)
				So(result.DistrictFallbacks, ShouldEqual, 1)
			})
		})

		Convey("When the district is known but its rate is null", func() {
			result, err := c.Compose([]string{"東區"}, 14)
			So(err, ShouldBeNil)

			Convey("Then it contributes zero and counts as a fallback", func() {
				So(result.Segments[0].CasesPer10k, ShouldEqual, 0)
				So(result.DistrictFallbacks, ShouldEqual, 1)
			})
		})

		Convey("When the district list is empty", func() {
			_, err := c.Compose(nil, 14)

			Convey("Then the typed error is returned", func() {
				So(err, ShouldEqual, route.ErrEmptyRoute)
			})
		})

		Convey("When the departure hour is out of range", func() {
			_, err := c.Compose([]string{"中區"}, 24)
			So(err, ShouldEqual, route.ErrInvalidHour)

			_, err = c.Compose([]string{"中區"}, -1)
			So(err, ShouldEqual, route.ErrInvalidHour)
		})
	})
}

package normalize_test

import (
	"testing"
	"time"

	"github.com/safetaichung/saferoute/internal/domain/model"
	"github.com/safetaichung/saferoute/internal/domain/normalize"
	. "github.com/smartystreets/goconvey/convey"
)

func TestDecodeROCDate(t *testing.T) {
	Convey("Given era-offset date values", t, func() {
		Convey("When decoding a well-formed value", func() {
			d, ok := normalize.DecodeROCDate("1050103")

			Convey("Then it should map ROC year 105 to 2016", func() {
				So(ok, ShouldBeTrue)
				So(d.Year(), ShouldEqual, 2016)
				So(d.Month(), ShouldEqual, time.January)
				So(d.Day(), ShouldEqual, 3)
			})
		})

		Convey("When decoding a spreadsheet float rendering", func() {
			d, ok := normalize.DecodeROCDate("1081231.0")

			Convey("Then it should still decode", func() {
				So(ok, ShouldBeTrue)
				So(d.Year(), ShouldEqual, 2019)
				So(d.Month(), ShouldEqual, time.December)
				So(d.Day(), ShouldEqual, 31)
			})
		})

		Convey("When the month is out of range", func() {
			_, ok := normalize.DecodeROCDate("1051301")
			So(ok, ShouldBeFalse)
		})

		Convey("When the day does not exist in the month", func() {
			_, ok := normalize.DecodeROCDate("1050230")
			So(ok, ShouldBeFalse)
		})

		Convey("When the value is not numeric", func() {
			_, ok := normalize.DecodeROCDate("not-a-date")
			So(ok, ShouldBeFalse)
		})

		Convey("When the value is empty", func() {
			_, ok := normalize.DecodeROCDate("")
			So(ok, ShouldBeFalse)
		})
	})
}

func TestDecodeHour(t *testing.T) {
	Convey("Given HHMM-like time values", t, func() {
		Convey("Then the first two digits should resolve to the hour", func() {
			So(normalize.DecodeHour("0830"), ShouldEqual, 8)
			So(normalize.DecodeHour("0005"), ShouldEqual, 0)
			So(normalize.DecodeHour("2359"), ShouldEqual, 23)
			So(normalize.DecodeHour("830"), ShouldEqual, 8) // unpadded source value
		})

		Convey("Then out-of-range hours should yield the sentinel", func() {
			So(normalize.DecodeHour("2500"), ShouldEqual, model.HourUnknown)
			So(normalize.DecodeHour("9999"), ShouldEqual, model.HourUnknown)
		})

		Convey("Then unparsable values should yield the sentinel", func() {
			So(normalize.DecodeHour(""), ShouldEqual, model.HourUnknown)
			So(normalize.DecodeHour("noon"), ShouldEqual, model.HourUnknown)
			So(normalize.DecodeHour("-100"), ShouldEqual, model.HourUnknown)
		})
	})
}

func TestResolveDistrict(t *testing.T) {
	Convey("Given free-text locations", t, func() {
		Convey("When the text contains a known district name", func() {
			So(normalize.ResolveDistrict("台中市西屯區台灣大道三段99號"), ShouldEqual, "西屯區")
			So(normalize.ResolveDistrict("烏日區中山路一段"), ShouldEqual, "烏日區")
		})

		Convey("When several names could match, the gazetteer order wins", func() {
			// 中區 precedes 大里區 in the gazetteer and is contained in the text.
			So(normalize.ResolveDistrict("台中區大里區交界"), ShouldEqual, "中區")
		})

		Convey("When no district name matches", func() {
			So(normalize.ResolveDistrict("彰化縣彰化市中正路"), ShouldEqual, model.DistrictOther)
		})

		Convey("When the location is missing", func() {
			So(normalize.ResolveDistrict(""), ShouldEqual, model.DistrictUnknown)
			So(normalize.ResolveDistrict("   "), ShouldEqual, model.DistrictUnknown)
		})
	})
}

func TestRecord(t *testing.T) {
	Convey("Given raw incident rows", t, func() {
		Convey("When every field decodes", func() {
			rec := normalize.Record(normalize.RawIncident{
				Date:     "1060715",
				Time:     "1420",
				Location: "台中市北區三民路三段",
			}, model.CategoryScooterTheft)

			Convey("Then the record should be valid and fully resolved", func() {
				So(rec.Valid, ShouldBeTrue)
				So(rec.OccurredAt.Year(), ShouldEqual, 2017)
				So(rec.Hour, ShouldEqual, 14)
				So(rec.District, ShouldEqual, "北區")
				So(rec.Category, ShouldEqual, model.CategoryScooterTheft)
			})
		})

		Convey("When the date is malformed", func() {
			rec := normalize.Record(normalize.RawIncident{
				Date:     "garbage",
				Time:     "1420",
				Location: "台中市北區三民路三段",
			}, model.CategoryCarTheft)

			Convey("Then the record should be invalid but still resolved", func() {
				So(rec.Valid, ShouldBeFalse)
				So(rec.OccurredAt.IsZero(), ShouldBeTrue)
				So(rec.District, ShouldEqual, "北區")
			})
		})

		Convey("When the hour is out of range", func() {
			rec := normalize.Record(normalize.RawIncident{
				Date:     "1060715",
				Time:     "2730",
				Location: "台中市北區三民路三段",
			}, model.CategoryBikeTheft)

			So(rec.Valid, ShouldBeFalse)
			So(rec.Hour, ShouldEqual, model.HourUnknown)
		})

		Convey("When the location is missing", func() {
			rec := normalize.Record(normalize.RawIncident{
				Date:     "1060715",
				Time:     "1420",
				Location: "",
			}, model.CategoryResidentialBurglary)

			Convey("Then the record is invalid regardless of other fields", func() {
				So(rec.Valid, ShouldBeFalse)
				So(rec.District, ShouldEqual, model.DistrictUnknown)
			})
		})
	})
}

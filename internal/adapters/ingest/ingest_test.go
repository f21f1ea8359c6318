package ingest_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/xuri/excelize/v2"

	"github.com/safetaichung/saferoute/internal/adapters/ingest"
	"github.com/safetaichung/saferoute/internal/domain/model"
	"github.com/safetaichung/saferoute/pkg/logger"
)

func TestMain(m *testing.M) {
	if err := logger.Init(); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

const rawCSV = "\uFEFF發生日期,發生時間,發生地點\n" +
	"1050103,0830,臺中市中區綠川西街100號\n" +
	"1050104,2215,臺中市西屯區臺灣大道三段99號\n" +
	"1050230,1200,臺中市北區進化路1號\n" +
	"1050105,2460,臺中市南區建國北路50號\n" +
	"1050106,0915,\n"

func writeRawCSV(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(rawCSV), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func writeRawXLSX(t *testing.T, dir, name string) string {
	t.Helper()
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	rows := [][]interface{}{
		{"發生日期", "發生時間", "發生地點"},
		{"1050103.0", "0830", "臺中市東區旱溪街20號"},
		{"1050110", "1745", "臺中市大里區中興路二段2號"},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatal(err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatal(err)
		}
	}
	path := filepath.Join(dir, name)
	if err := f.SaveAs(path); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestReadRawFile(t *testing.T) {
	Convey("Given a BOM-prefixed CSV export with Chinese headers", t, func() {
		dir := t.TempDir()
		path := writeRawCSV(t, dir, "scooter_theft_105.csv")

		Convey("When reading it", func() {
			raws, err := ingest.ReadRawFile(path)

			Convey("Then every data row comes back with its three fields", func() {
				So(err, ShouldBeNil)
				So(len(raws), ShouldEqual, 5)
				So(raws[0].Date, ShouldEqual, "1050103")
				So(raws[0].Time, ShouldEqual, "0830")
				So(raws[0].Location, ShouldEqual, "臺中市中區綠川西街100號")
				So(raws[4].Location, ShouldEqual, "")
			})
		})
	})

	Convey("Given an XLSX export with float-rendered dates", t, func() {
		dir := t.TempDir()
		path := writeRawXLSX(t, dir, "car_theft_105.xlsx")

		Convey("When reading it", func() {
			raws, err := ingest.ReadRawFile(path)

			Convey("Then the sheet rows come back as raw incidents", func() {
				So(err, ShouldBeNil)
				So(len(raws), ShouldEqual, 2)
				So(raws[0].Date, ShouldEqual, "1050103.0")
				So(raws[1].Location, ShouldEqual, "臺中市大里區中興路二段2號")
			})
		})
	})

	Convey("Given a CSV without the expected columns", t, func() {
		dir := t.TempDir()
		path := filepath.Join(dir, "bike_theft_105.csv")
		So(os.WriteFile(path, []byte("a,b,c\n1,2,3\n"), 0o644), ShouldBeNil)

		Convey("When reading it", func() {
			_, err := ingest.ReadRawFile(path)

			Convey("Then the header error is returned", func() {
				So(errors.Is(err, ingest.ErrBadHeader), ShouldBeTrue)
			})
		})
	})

	Convey("Given a path that does not exist", t, func() {
		_, err := ingest.ReadRawFile(filepath.Join(t.TempDir(), "nope.csv"))

		Convey("Then the missing-resource error is returned", func() {
			So(errors.Is(err, ingest.ErrMissingResource), ShouldBeTrue)
		})
	})
}

func TestReadPopulation(t *testing.T) {
	Convey("Given a population CSV with Chinese headers", t, func() {
		dir := t.TempDir()
		path := filepath.Join(dir, "district_population.csv")
		content := "\uFEFF行政區,人口數\n中區,17903\n西屯區,229623\n霧峰區,not-a-number\n和平區,0\n"
		So(os.WriteFile(path, []byte(content), 0o644), ShouldBeNil)

		Convey("When loading it", func() {
			table, err := ingest.ReadPopulation(path)

			Convey("Then parsable positive rows make the table", func() {
				So(err, ShouldBeNil)
				So(len(table), ShouldEqual, 2)
				So(table["中區"], ShouldEqual, 17903)
				So(table["西屯區"], ShouldEqual, 229623)
			})
		})
	})

	Convey("Given a population CSV with thousands separators", t, func() {
		dir := t.TempDir()
		path := filepath.Join(dir, "district_population.csv")
		So(os.WriteFile(path, []byte("district,population\n北屯區,\"289,425\"\n"), 0o644), ShouldBeNil)

		table, err := ingest.ReadPopulation(path)

		Convey("Then the separators are stripped", func() {
			So(err, ShouldBeNil)
			So(table["北屯區"], ShouldEqual, 289425)
		})
	})
}

func TestDiscoverSources(t *testing.T) {
	Convey("Given a raw directory with mixed files", t, func() {
		dir := t.TempDir()
		writeRawCSV(t, dir, "scooter_theft_105.csv")
		writeRawCSV(t, dir, "scooter_theft_106.csv")
		writeRawXLSX(t, dir, "car_theft_105.xlsx")
		So(os.WriteFile(filepath.Join(dir, "readme.txt"), []byte("notes"), 0o644), ShouldBeNil)
		So(os.WriteFile(filepath.Join(dir, "unrelated_105.csv"), []byte("x\n"), 0o644), ShouldBeNil)

		Convey("When discovering sources", func() {
			sources, err := ingest.DiscoverSources(dir)

			Convey("Then only category-named tabular files are picked, in path order", func() {
				So(err, ShouldBeNil)
				So(len(sources), ShouldEqual, 3)
				So(sources[0].Category, ShouldEqual, model.CategoryCarTheft)
				So(sources[1].Category, ShouldEqual, model.CategoryScooterTheft)
				So(sources[2].Category, ShouldEqual, model.CategoryScooterTheft)
				So(filepath.Base(sources[1].Path), ShouldEqual, "scooter_theft_105.csv")
			})
		})
	})

	Convey("Given a directory with no incident files", t, func() {
		_, err := ingest.DiscoverSources(t.TempDir())

		Convey("Then the no-sources error is returned", func() {
			So(errors.Is(err, ingest.ErrNoSources), ShouldBeTrue)
		})
	})

	Convey("Given a directory that does not exist", t, func() {
		_, err := ingest.DiscoverSources(filepath.Join(t.TempDir(), "missing"))

		Convey("Then the missing-resource error is returned", func() {
			So(errors.Is(err, ingest.ErrMissingResource), ShouldBeTrue)
		})
	})
}

func TestLoader(t *testing.T) {
	Convey("Given discovered CSV and XLSX sources", t, func() {
		dir := t.TempDir()
		writeRawCSV(t, dir, "scooter_theft_105.csv")
		writeRawXLSX(t, dir, "car_theft_105.xlsx")
		sources, err := ingest.DiscoverSources(dir)
		So(err, ShouldBeNil)

		loader := ingest.NewLoader(ingest.WithWorkers(2))

		Convey("When loading them", func() {
			records, audit, err := loader.Load(context.Background(), sources)
			So(err, ShouldBeNil)

			Convey("Then records keep file order and carry their category", func() {
				So(len(records), ShouldEqual, 7)
				So(records[0].Category, ShouldEqual, model.CategoryCarTheft)
				So(records[0].District, ShouldEqual, "東區")
				So(records[2].Category, ShouldEqual, model.CategoryScooterTheft)
				So(records[2].District, ShouldEqual, "中區")
			})

			Convey("Then the audit counts each failure mode", func() {
				So(audit.Total, ShouldEqual, 7)
				So(audit.Valid, ShouldEqual, 4)
				So(audit.Invalid, ShouldEqual, 3)
				So(audit.InvalidDate, ShouldEqual, 1)
				So(audit.InvalidHour, ShouldEqual, 1)
				So(audit.MissingLocation, ShouldEqual, 1)
			})
		})

		Convey("When loading with a cancelled context", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			_, _, err := loader.Load(ctx, sources)

			Convey("Then the cancellation surfaces", func() {
				// Workers may still drain the small job set before the
				// collector observes cancellation, so either outcome is fine;
				// what matters is no deadlock and no panic.
				if err != nil {
					So(errors.Is(err, context.Canceled), ShouldBeTrue)
				}
			})
		})

		Convey("When loading an empty source list", func() {
			_, _, err := loader.Load(context.Background(), nil)

			Convey("Then the no-sources error is returned", func() {
				So(errors.Is(err, ingest.ErrNoSources), ShouldBeTrue)
			})
		})
	})
}

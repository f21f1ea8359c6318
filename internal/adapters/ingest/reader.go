// Package ingest reads raw incident and population files and feeds them
// through the normalizer. Raw files are UTF-8 with BOM, one file per
// category per year, in CSV or XLSX form.
package ingest

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/safetaichung/saferoute/internal/domain/normalize"
)

// utf8BOM is stripped from the front of CSV inputs.
const utf8BOM = "\uFEFF"

// Column aliases for the raw incident files. Open-data exports use the
// Chinese headers; re-exports sometimes rename them.
var (
	dateAliases     = []string{"發生日期", "date", "date_raw"}
	timeAliases     = []string{"發生時間", "time", "time_raw"}
	locationAliases = []string{"發生地點", "location"}
)

// ReadRawFile reads one raw incident file, dispatching on the extension.
func ReadRawFile(path string) ([]normalize.RawIncident, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return readRawXLSX(path)
	default:
		return readRawCSV(path)
	}
}

func readRawCSV(path string) ([]normalize.RawIncident, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrMissingResource, path)
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	content := strings.TrimPrefix(string(data), utf8BOM)

	r := csv.NewReader(strings.NewReader(content))
	r.FieldsPerRecord = -1 // raw exports have ragged trailing columns
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return rawFromRows(path, rows)
}

func readRawXLSX(path string) ([]normalize.RawIncident, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrMissingResource, path)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: %s has no sheets", ErrBadHeader, path)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return rawFromRows(path, rows)
}

// rawFromRows maps header names to columns and extracts the three raw
// fields from every data row.
func rawFromRows(path string, rows [][]string) ([]normalize.RawIncident, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %s is empty", ErrBadHeader, path)
	}

	dateIdx := findColumn(rows[0], dateAliases)
	timeIdx := findColumn(rows[0], timeAliases)
	locationIdx := findColumn(rows[0], locationAliases)
	if dateIdx < 0 || timeIdx < 0 || locationIdx < 0 {
		return nil, fmt.Errorf("%w: %s", ErrBadHeader, path)
	}

	out := make([]normalize.RawIncident, 0, len(rows)-1)
	for _, row := range rows[1:] {
		out = append(out, normalize.RawIncident{
			Date:     cell(row, dateIdx),
			Time:     cell(row, timeIdx),
			Location: cell(row, locationIdx),
		})
	}
	return out, nil
}

func findColumn(header []string, aliases []string) int {
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, utf8BOM)))
		for _, alias := range aliases {
			if name == alias {
				return i
			}
		}
	}
	return -1
}

func cell(row []string, idx int) string {
	if idx < len(row) {
		return strings.TrimSpace(row[idx])
	}
	return ""
}

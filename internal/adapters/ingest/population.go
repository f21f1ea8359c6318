package ingest

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/safetaichung/saferoute/internal/domain/aggregate"
)

// Column aliases for the population table.
var (
	districtAliases   = []string{"district", "行政區"}
	populationAliases = []string{"population", "人口數"}
)

// ReadPopulation loads the district population table from a CSV or XLSX
// file. Rows with a non-positive or unparsable population are skipped;
// a missing district simply stays out of the table.
func ReadPopulation(path string) (aggregate.PopulationTable, error) {
	var rows [][]string
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
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
		rows, err = f.GetRows(sheets[0])
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
	default:
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, fmt.Errorf("%w: %s", ErrMissingResource, path)
			}
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		r := csv.NewReader(strings.NewReader(strings.TrimPrefix(string(data), utf8BOM)))
		r.FieldsPerRecord = -1
		rows, err = r.ReadAll()
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %s is empty", ErrBadHeader, path)
	}
	districtIdx := findColumn(rows[0], districtAliases)
	populationIdx := findColumn(rows[0], populationAliases)
	if districtIdx < 0 || populationIdx < 0 {
		return nil, fmt.Errorf("%w: %s", ErrBadHeader, path)
	}

	table := make(aggregate.PopulationTable)
	for _, row := range rows[1:] {
		district := cell(row, districtIdx)
		if district == "" {
			continue
		}
		population, err := strconv.Atoi(strings.ReplaceAll(cell(row, populationIdx), ",", ""))
		if err != nil || population <= 0 {
			continue
		}
		table[district] = population
	}
	return table, nil
}

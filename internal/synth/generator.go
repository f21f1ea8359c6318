// Package synth generates deterministic synthetic raw incident data in
// the open-data export format. Used to seed local environments and to
// drive end-to-end tests without shipping real incident files.
package synth

import (
	"encoding/csv"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"

	"github.com/safetaichung/saferoute/internal/domain/model"
	"github.com/safetaichung/saferoute/internal/domain/normalize"
)

// utf8BOM prefixes every generated file, matching the real exports.
const utf8BOM = "\uFEFF"

// District population figures used for generated tables. Roughly shaped
// like the real city: a tiny dense core and large suburban districts.
var populations = map[string]int{
	"中區":  17903,
	"東區":  75397,
	"西區":  114743,
	"南區":  126524,
	"北區":  145121,
	"西屯區": 229623,
	"北屯區": 289425,
	"南屯區": 180145,
	"豐原區": 166500,
	"大里區": 212820,
	"太平區": 196750,
}

// Street name pool for generated addresses.
var streets = []string{"中山路", "自由路", "三民路", "臺灣大道", "建國路", "復興路", "中正路", "文心路"}

// Generator produces synthetic raw files.
type Generator struct {
	seed int64
	rows int
}

// Option applies a configuration option to the Generator.
type Option func(*Generator)

// WithSeed fixes the random seed so runs are reproducible.
func WithSeed(seed int64) Option {
	return func(g *Generator) {
		g.seed = seed
	}
}

// WithRows sets the row count per generated file.
func WithRows(rows int) Option {
	return func(g *Generator) {
		if rows > 0 {
			g.rows = rows
		}
	}
}

// NewGenerator creates a generator with configuration options.
func NewGenerator(opts ...Option) *Generator {
	g := &Generator{
		seed: 1,
		rows: 500,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// WriteRawDir writes one raw incident file per category into dir.
func (g *Generator) WriteRawDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create raw dir: %w", err)
	}
	for i, category := range model.Categories() {
		name := fmt.Sprintf("%s_105.csv", category)
		// Offset the seed per file so categories differ but stay stable.
		if err := g.writeRawFile(filepath.Join(dir, name), g.seed+int64(i)); err != nil {
			return err
		}
	}
	return nil
}

// writeRawFile writes one raw incident CSV with the export headers.
func (g *Generator) writeRawFile(path string, seed int64) error {
	rng := rand.New(rand.NewSource(seed))

	rows := [][]string{{"發生日期", "發生時間", "發生地點"}}
	districts := normalize.KnownDistricts()
	for i := 0; i < g.rows; i++ {
		district := districts[rng.Intn(len(districts))]
		street := streets[rng.Intn(len(streets))]

		date := fmt.Sprintf("105%02d%02d", 1+rng.Intn(12), 1+rng.Intn(28))
		clock := fmt.Sprintf("%02d%02d", rng.Intn(24), rng.Intn(60))
		address := fmt.Sprintf("臺中市%s%s%d號", district, street, 1+rng.Intn(300))

		// A few percent of rows are dirty, like the real exports.
		switch rng.Intn(50) {
		case 0:
			date = "1050230"
		case 1:
			clock = "2575"
		case 2:
			address = ""
		}
		rows = append(rows, []string{date, clock, address})
	}
	return writeCSV(path, rows)
}

// WritePopulationCSV writes the district population table.
func (g *Generator) WritePopulationCSV(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create processed dir: %w", err)
	}
	rows := [][]string{{"district", "population"}}
	for _, district := range normalize.KnownDistricts() {
		pop, ok := populations[district]
		if !ok {
			continue
		}
		rows = append(rows, []string{district, strconv.Itoa(pop)})
	}
	return writeCSV(path, rows)
}

func writeCSV(path string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	if _, err := f.WriteString(utf8BOM); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	w.Flush()
	return w.Error()
}

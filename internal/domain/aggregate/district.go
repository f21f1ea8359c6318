// Package aggregate recomputes the district and hourly risk summary
// tables from normalized incident records. Both tables are rebuilt
// wholesale on every run; there is no incremental maintenance.
package aggregate

import (
	"sort"

	"github.com/safetaichung/saferoute/internal/domain/model"
)

// Daytime window: hours in [daytimeStart, daytimeEnd) count as daytime.
const (
	daytimeStart = 6
	daytimeEnd   = 18
)

// Percentile cutoffs for the tri-level district classification. The
// thresholds are relative to the current snapshot: recomputing with a
// different incident set can re-label districts.
const (
	lowQuantile  = 0.33
	highQuantile = 0.67
)

// PopulationTable maps district name to resident population. Districts
// may be missing; their rate stays null and their level unknown.
type PopulationTable map[string]int

// DistrictSummary computes one DistrictRiskEntry per district present in
// the incident data or the population table, excluding the "other" and
// "unknown" sentinels. Output is sorted descending by cases per 10k,
// with null-rate districts last.
func DistrictSummary(records []model.IncidentRecord, pop PopulationTable) ([]model.DistrictRiskEntry, error) {
	totals := make(map[string]int)
	daytime := make(map[string]int)
	anyValid := false

	for _, r := range records {
		if !r.Valid {
			continue
		}
		anyValid = true
		if r.District == model.DistrictOther || r.District == model.DistrictUnknown {
			continue
		}
		totals[r.District]++
		if r.Hour >= daytimeStart && r.Hour < daytimeEnd {
			daytime[r.District]++
		}
	}
	if !anyValid {
		return nil, ErrNoValidRecords
	}

	// Union of incident districts and population districts.
	seen := make(map[string]bool, len(totals))
	names := make([]string, 0, len(totals))
	for d := range totals {
		seen[d] = true
		names = append(names, d)
	}
	for d := range pop {
		if !seen[d] && d != model.DistrictOther && d != model.DistrictUnknown {
			seen[d] = true
			names = append(names, d)
		}
	}

	entries := make([]model.DistrictRiskEntry, 0, len(names))
	knownRates := make([]float64, 0, len(names))
	for _, d := range names {
		e := model.DistrictRiskEntry{
			District:   d,
			TotalCases: totals[d],
			RiskLevel:  model.RiskUnknown,
		}
		if e.TotalCases > 0 {
			e.DaytimeRatio = round1(float64(daytime[d]) / float64(e.TotalCases) * 100)
			e.NightRatio = round1(100 - e.DaytimeRatio)
		}
		if p, ok := pop[d]; ok && p > 0 {
			e.Population = p
			e.PopulationKnown = true
			e.CasesPer10k = round2(float64(e.TotalCases) / float64(p) * 10000)
			knownRates = append(knownRates, e.CasesPer10k)
		}
		entries = append(entries, e)
	}

	// Thresholds over known-population districts only.
	p33, ok33 := quantile(knownRates, lowQuantile)
	p67, ok67 := quantile(knownRates, highQuantile)

	for i := range entries {
		if !entries[i].PopulationKnown || !ok33 || !ok67 {
			continue
		}
		switch {
		case entries[i].CasesPer10k <= p33:
			entries[i].RiskLevel = model.RiskLow
		case entries[i].CasesPer10k <= p67:
			entries[i].RiskLevel = model.RiskMedium
		default:
			entries[i].RiskLevel = model.RiskHigh
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.PopulationKnown != b.PopulationKnown {
			return a.PopulationKnown // null rates sort last
		}
		if a.CasesPer10k != b.CasesPer10k {
			return a.CasesPer10k > b.CasesPer10k
		}
		return a.District < b.District
	})

	return entries, nil
}

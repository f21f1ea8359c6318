package aggregate

import (
	"sort"

	"github.com/safetaichung/saferoute/internal/domain/model"
)

// hoursPerDay divides a district's total into its uniform hourly rate.
const hoursPerDay = 24

// HourlySummary computes one HourlyRiskEntry per (district, hour) pair
// observed in the valid records. Hours with no cases get no row: a
// lookup miss means zero cases and consumers fall back to the neutral
// score of 1.0. Output is sorted by (district, hour).
func HourlySummary(records []model.IncidentRecord) ([]model.HourlyRiskEntry, error) {
	type key struct {
		district string
		hour     int
	}

	hourCases := make(map[key]int)
	districtTotals := make(map[string]int)

	for _, r := range records {
		if !r.Valid {
			continue
		}
		hourCases[key{r.District, r.Hour}]++
		districtTotals[r.District]++
	}
	if len(districtTotals) == 0 {
		return nil, ErrNoValidRecords
	}

	entries := make([]model.HourlyRiskEntry, 0, len(hourCases))
	for k, cases := range hourCases {
		total := districtTotals[k.district]
		// total is at least cases > 0 here; entries only exist for
		// districts with observed records.
		entries = append(entries, model.HourlyRiskEntry{
			District:      k.district,
			Hour:          k.hour,
			HourCases:     cases,
			HourRatio:     round2(float64(cases) / float64(total) * 100),
			HourRiskScore: round2(float64(cases) / (float64(total) / hoursPerDay)),
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].District != entries[j].District {
			return entries[i].District < entries[j].District
		}
		return entries[i].Hour < entries[j].Hour
	})

	return entries, nil
}

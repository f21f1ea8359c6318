// Package route combines district risk and hourly multipliers into a
// single route-level risk score.
package route

import (
	"math"

	"github.com/safetaichung/saferoute/internal/domain/model"
)

// Fixed route label cutoffs. Unlike district risk levels, which are
// percentile-based and snapshot-relative, these are absolute constants.
// The asymmetry comes from the original model and is kept as-is.
const (
	lowLabelCutoff    = 15.0
	mediumLabelCutoff = 40.0
)

// lookupState records the provenance of a table lookup. Fallbacks are
// collapsed to plain numbers only at the final arithmetic step so the
// result can report how many segments ran on defaults.
type lookupState int

const (
	lookupFound   lookupState = iota // observed value from the snapshot
	lookupDefault                    // lookup miss, neutral default used
	lookupUnknown                    // district known but rate is null
)

// districtLookup is the outcome of a district summary lookup.
type districtLookup struct {
	state       lookupState
	casesPer10k float64
	level       model.RiskLevel
}

// hourLookup is the outcome of an hourly summary lookup.
type hourLookup struct {
	state lookupState
	score float64
}

// neutralHourScore is the uniform-distribution multiplier used when a
// (district, hour) pair has no observed cases.
const neutralHourScore = 1.0

type hourKey struct {
	district string
	hour     int
}

// Composer answers route risk queries against one loaded snapshot. It is
// read-only after construction and safe for concurrent use.
type Composer struct {
	districts map[string]model.DistrictRiskEntry
	hourly    map[hourKey]model.HourlyRiskEntry
}

// NewComposer indexes the snapshot tables for per-query lookups.
func NewComposer(snap *model.Snapshot) *Composer {
	c := &Composer{
		districts: make(map[string]model.DistrictRiskEntry, len(snap.Districts)),
		hourly:    make(map[hourKey]model.HourlyRiskEntry, len(snap.Hourly)),
	}
	for _, e := range snap.Districts {
		c.districts[e.District] = e
	}
	for _, e := range snap.Hourly {
		c.hourly[hourKey{e.District, e.Hour}] = e
	}
	return c
}

// Compose scores an ordered district list for a departure hour. The list
// must be non-empty; callers resolving origin and destination to the same
// district are expected to pass a singleton. Duplicates are scored once
// per occurrence and the mean runs over all of them.
func (c *Composer) Compose(districts []string, departureHour int) (model.RouteRiskResult, error) {
	if len(districts) == 0 {
		return model.RouteRiskResult{}, ErrEmptyRoute
	}
	if departureHour < 0 || departureHour > 23 {
		return model.RouteRiskResult{}, ErrInvalidHour
	}

	result := model.RouteRiskResult{
		Segments:      make([]model.RouteSegment, 0, len(districts)),
		DepartureHour: departureHour,
	}

	total := 0.0
	for _, district := range districts {
		dl := c.lookupDistrict(district)
		hl := c.lookupHour(district, departureHour)

		if dl.state != lookupFound {
			result.DistrictFallbacks++
		}
		if hl.state != lookupFound {
			result.HourFallbacks++
		}

		segmentRisk := dl.casesPer10k * hl.score
		total += segmentRisk

		result.Segments = append(result.Segments, model.RouteSegment{
			District:      district,
			CasesPer10k:   dl.casesPer10k,
			RiskLevel:     dl.level,
			HourRiskScore: hl.score,
			SegmentRisk:   round2(segmentRisk),
		})
	}

	// The label is assigned from the unrounded mean; only the reported
	// score is rounded.
	mean := total / float64(len(districts))
	result.RouteRiskScore = round2(mean)
	result.RouteRiskLabel = labelFor(mean)

	return result, nil
}

// lookupDistrict resolves a district entry, falling back to a zero rate
// for unknown districts and for known districts with a null rate.
func (c *Composer) lookupDistrict(district string) districtLookup {
	e, ok := c.districts[district]
	if !ok {
		return districtLookup{state: lookupDefault, casesPer10k: 0, level: model.RiskUnknown}
	}
	if !e.PopulationKnown {
		return districtLookup{state: lookupUnknown, casesPer10k: 0, level: e.RiskLevel}
	}
	return districtLookup{state: lookupFound, casesPer10k: e.CasesPer10k, level: e.RiskLevel}
}

// lookupHour resolves an hourly entry, falling back to the neutral score.
func (c *Composer) lookupHour(district string, hour int) hourLookup {
	e, ok := c.hourly[hourKey{district, hour}]
	if !ok {
		return hourLookup{state: lookupDefault, score: neutralHourScore}
	}
	return hourLookup{state: lookupFound, score: e.HourRiskScore}
}

// labelFor maps a route score to its fixed-cutoff label.
func labelFor(score float64) model.RiskLevel {
	switch {
	case score < lowLabelCutoff:
		return model.RiskLow
	case score < mediumLabelCutoff:
		return model.RiskMedium
	default:
		return model.RiskHigh
	}
}

// round2 rounds to two decimal places.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

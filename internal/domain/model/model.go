// Package model contains domain models passed between layers.
package model

import "time"

// Category identifies the theft category of a raw incident source file.
type Category string

// Known incident categories, one raw file per category per year.
const (
	CategoryScooterTheft        Category = "scooter_theft"
	CategoryCarTheft            Category = "car_theft"
	CategoryResidentialBurglary Category = "residential_burglary"
	CategoryBikeTheft           Category = "bike_theft"
)

// Categories returns all known incident categories in a stable order.
func Categories() []Category {
	return []Category{
		CategoryScooterTheft,
		CategoryCarTheft,
		CategoryResidentialBurglary,
		CategoryBikeTheft,
	}
}

// RiskLevel is the coarse classification of a district or route.
type RiskLevel string

// Risk levels. District levels are snapshot-relative (percentile cutoffs);
// route labels use fixed score cutoffs. The asymmetry is intentional.
const (
	RiskLow     RiskLevel = "low"
	RiskMedium  RiskLevel = "medium"
	RiskHigh    RiskLevel = "high"
	RiskUnknown RiskLevel = "unknown"
)

// Sentinel district values produced by the normalizer when the location
// text matches no known district, or is missing entirely.
const (
	DistrictOther   = "other"
	DistrictUnknown = "unknown"
)

// HourUnknown is the sentinel for an unresolved occurrence hour.
const HourUnknown = -1

// IncidentRecord is one cleaned incident row. Created once by the
// normalizer and never mutated. Invalid records are excluded from all
// aggregation but retained for audit counts.
type IncidentRecord struct {
	OccurredAt time.Time // zero when date decoding failed
	Hour       int       // 0-23, or HourUnknown
	Location   string
	District   string // gazetteer name, DistrictOther or DistrictUnknown
	Category   Category
	Valid      bool
}

// DistrictRiskEntry is one row of the district risk summary table.
type DistrictRiskEntry struct {
	District        string    `json:"district"`
	TotalCases      int       `json:"total_cases"`
	Population      int       `json:"population"`
	PopulationKnown bool      `json:"population_known"`
	CasesPer10k     float64   `json:"cases_per_10k_pop"` // meaningful only when PopulationKnown
	DaytimeRatio    float64   `json:"daytime_cases_ratio"`
	NightRatio      float64   `json:"night_cases_ratio"`
	RiskLevel       RiskLevel `json:"risk_level"`
}

// HourlyRiskEntry is one row of the hourly risk summary table. A score of
// 1.0 is the district's hourly average; values above 1 flag above-average
// hours. Entries exist only for (district, hour) pairs seen in the data.
type HourlyRiskEntry struct {
	District      string  `json:"district"`
	Hour          int     `json:"hour"`
	HourCases     int     `json:"hour_cases"`
	HourRatio     float64 `json:"hour_ratio"`
	HourRiskScore float64 `json:"hour_risk_score"`
}

// AuditCounts exposes normalization outcomes for data-quality auditing.
type AuditCounts struct {
	Total           int `json:"total"`
	Valid           int `json:"valid"`
	Invalid         int `json:"invalid"`
	InvalidDate     int `json:"invalid_date"`
	InvalidHour     int `json:"invalid_hour"`
	MissingLocation int `json:"missing_location"`
}

// Snapshot bundles the two aggregate tables produced by one pipeline run.
// Each run overwrites the previous snapshot wholesale.
type Snapshot struct {
	RunID       string              `json:"run_id"`
	GeneratedAt time.Time           `json:"generated_at"`
	Districts   []DistrictRiskEntry `json:"districts"`
	Hourly      []HourlyRiskEntry   `json:"hourly"`
	Audit       AuditCounts         `json:"audit"`
}

// RouteSegment is the per-district breakdown of a route risk query.
type RouteSegment struct {
	District      string    `json:"district"`
	CasesPer10k   float64   `json:"cases_per_10k_pop"`
	RiskLevel     RiskLevel `json:"risk_level"`
	HourRiskScore float64   `json:"hour_risk_score"`
	SegmentRisk   float64   `json:"segment_risk"`
}

// RouteRiskResult is the ephemeral result of one route risk query.
// The fallback counters report how many segments used a neutral default
// instead of observed data.
type RouteRiskResult struct {
	RouteRiskScore    float64        `json:"route_risk_score"`
	RouteRiskLabel    RiskLevel      `json:"route_risk_label"`
	Segments          []RouteSegment `json:"district_risks"`
	DepartureHour     int            `json:"departure_hour"`
	DistrictFallbacks int            `json:"district_fallbacks"`
	HourFallbacks     int            `json:"hour_fallbacks"`
}

// Package normalize turns raw incident rows into clean IncidentRecords.
//
// Raw sources encode dates as a Republic-of-China era year (era year +
// 1911 = calendar year) concatenated with zero-padded month and day,
// and times as zero-padded digits whose first two digits are the hour.
// Malformed input never errors; it degrades to Valid=false.
package normalize

import (
	"strconv"
	"strings"
	"time"

	"github.com/safetaichung/saferoute/internal/domain/model"
)

// rocYearOffset converts an ROC era year to a calendar year.
const rocYearOffset = 1911

// rocDateDigits is the zero-padded width of a raw date value (yyymmdd).
const rocDateDigits = 7

// rawTimeDigits is the zero-padded width of a raw time value (hhmm).
const rawTimeDigits = 4

// RawIncident is one unprocessed source row.
type RawIncident struct {
	Date     string // era-offset numeric encoding, e.g. "1050103"
	Time     string // HHMM-like numeric encoding, e.g. "0830"
	Location string // free-text address
}

// Record cleans one raw row into an immutable IncidentRecord. The record
// is valid iff the date decoded, the location is present, and the hour
// resolved to [0,23].
func Record(raw RawIncident, category model.Category) model.IncidentRecord {
	occurredAt, dateOK := DecodeROCDate(raw.Date)
	hour := DecodeHour(raw.Time)
	district := ResolveDistrict(raw.Location)

	valid := dateOK &&
		strings.TrimSpace(raw.Location) != "" &&
		hour >= 0

	return model.IncidentRecord{
		OccurredAt: occurredAt,
		Hour:       hour,
		Location:   raw.Location,
		District:   district,
		Category:   category,
		Valid:      valid,
	}
}

// DecodeROCDate decodes an era-offset date value such as "1050103"
// (ROC year 105, January 3rd = 2016-01-03). Returns the zero time and
// false when the value does not decode to a real calendar date.
func DecodeROCDate(raw string) (time.Time, bool) {
	n, ok := parseNumeric(raw)
	if !ok || n <= 0 {
		return time.Time{}, false
	}
	s := zeroPad(n, rocDateDigits)
	if len(s) != rocDateDigits {
		return time.Time{}, false
	}

	rocYear, _ := strconv.Atoi(s[:3])
	month, _ := strconv.Atoi(s[3:5])
	day, _ := strconv.Atoi(s[5:7])

	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}

	t := time.Date(rocYear+rocYearOffset, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes overflow (e.g. Feb 30 -> Mar 2); reject those.
	if t.Day() != day || int(t.Month()) != month {
		return time.Time{}, false
	}
	return t, true
}

// DecodeHour extracts the hour from an HHMM-like value such as "0830".
// Out-of-range or unparsable values yield HourUnknown.
func DecodeHour(raw string) int {
	n, ok := parseNumeric(raw)
	if !ok || n < 0 {
		return model.HourUnknown
	}
	s := zeroPad(n, rawTimeDigits)
	if len(s) != rawTimeDigits {
		return model.HourUnknown
	}
	hour, _ := strconv.Atoi(s[:2])
	if hour > 23 {
		return model.HourUnknown
	}
	return hour
}

// parseNumeric accepts integer-ish source values, including float
// renderings like "1050103.0" that spreadsheet exports produce.
func parseNumeric(raw string) (int64, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, false
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	n := int64(f)
	if float64(n) != f {
		return 0, false
	}
	return n, true
}

// zeroPad renders n left-padded with zeros to at least width digits.
func zeroPad(n int64, width int) string {
	s := strconv.FormatInt(n, 10)
	for len(s) < width {
		s = "0" + s
	}
	return s
}

package normalize

import (
	"strings"

	"github.com/safetaichung/saferoute/internal/domain/model"
)

// taichungDistricts is the fixed gazetteer of the 29 administrative
// districts. Order matters: the first name contained in the location
// text wins.
var taichungDistricts = []string{
	"中區", "東區", "西區", "南區", "北區", "西屯區", "北屯區", "南屯區",
	"豐原區", "大里區", "太平區", "清水區", "沙鹿區", "大甲區", "東勢區",
	"梧棲區", "烏日區", "神岡區", "大肚區", "大雅區", "后里區", "霧峰區",
	"潭子區", "龍井區", "外埔區", "和平區", "石岡區", "大安區", "新社區",
}

// KnownDistricts returns a copy of the gazetteer.
func KnownDistricts() []string {
	out := make([]string, len(taichungDistricts))
	copy(out, taichungDistricts)
	return out
}

// IsKnownDistrict reports whether name is one of the 29 districts.
func IsKnownDistrict(name string) bool {
	for _, d := range taichungDistricts {
		if d == name {
			return true
		}
	}
	return false
}

// ResolveDistrict scans free-text location for the first matching known
// district name. A missing location resolves to DistrictUnknown; text with
// no match resolves to DistrictOther.
func ResolveDistrict(location string) string {
	if strings.TrimSpace(location) == "" {
		return model.DistrictUnknown
	}
	for _, d := range taichungDistricts {
		if strings.Contains(location, d) {
			return d
		}
	}
	return model.DistrictOther
}

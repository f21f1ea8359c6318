package maps

// LatLng is one decoded polyline vertex.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// DecodePolyline decodes the encoded-polyline format used by the
// directions API overview_polyline field. Malformed trailing input is
// dropped rather than erroring; partial paths are still useful.
func DecodePolyline(encoded string) []LatLng {
	var points []LatLng
	var lat, lng int64

	i := 0
	for i < len(encoded) {
		dLat, n, ok := decodeVarint(encoded[i:])
		if !ok {
			break
		}
		i += n
		dLng, n, ok := decodeVarint(encoded[i:])
		if !ok {
			break
		}
		i += n

		lat += dLat
		lng += dLng
		points = append(points, LatLng{
			Lat: float64(lat) / 1e5,
			Lng: float64(lng) / 1e5,
		})
	}
	return points
}

// decodeVarint reads one zigzag chunked value from the front of s,
// returning the value, the bytes consumed, and whether a full value
// was present.
func decodeVarint(s string) (int64, int, bool) {
	var result int64
	var shift uint
	for i := 0; i < len(s); i++ {
		b := int64(s[i]) - 63
		if b < 0 {
			return 0, 0, false
		}
		result |= (b & 0x1f) << shift
		if b < 0x20 {
			value := result >> 1
			if result&1 != 0 {
				value = ^value
			}
			return value, i + 1, true
		}
		shift += 5
	}
	return 0, 0, false
}

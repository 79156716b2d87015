package domain

// GeoPoint represents a geographic coordinate (WGS 84).
// Out-of-range values are not rejected; they flow into distance math as-is.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// GeoPath is an ordered sequence of coordinates describing a route's
// geography. Index 0 is the conventional boarding point and the last index
// the far end; the order is the travel direction, not arbitrary.
type GeoPath []GeoPoint

// Start returns the first point of the path. ok is false when the path is empty.
func (p GeoPath) Start() (GeoPoint, bool) {
	if len(p) == 0 {
		return GeoPoint{}, false
	}
	return p[0], true
}

// End returns the last point of the path. ok is false when the path is empty.
func (p GeoPath) End() (GeoPoint, bool) {
	if len(p) == 0 {
		return GeoPoint{}, false
	}
	return p[len(p)-1], true
}

// LocationFix is a single observed position with its accuracy radius.
type LocationFix struct {
	Location GeoPoint `json:"location"`
	Accuracy float64  `json:"accuracy"` // meters, lower is better
	ClientID string   `json:"client_id,omitempty"`
}

package station

import (
	"sort"
	"strings"

	geo "github.com/kellydunn/golang-geo"
)

// Filter narrows the station list on the first wizard step.
type Filter struct {
	Query string
	// Type is nil for "all".
	Type *Type
}

// Match reports whether st passes both the text and the type filter. The
// query matches name or address, case-insensitively.
func (f Filter) Match(st Station) bool {
	if f.Type != nil && st.Type != *f.Type {
		return false
	}
	q := strings.ToLower(strings.TrimSpace(f.Query))
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(st.Name), q) ||
		strings.Contains(strings.ToLower(st.Address), q)
}

// Apply returns the matching stations in their original order.
func (f Filter) Apply(stations []Station) []Station {
	out := make([]Station, 0, len(stations))
	for _, st := range stations {
		if f.Match(st) {
			out = append(out, st)
		}
	}
	return out
}

// ParseTypeFilter maps the filter select value to a Filter type; "all" and "" mean no filter.
func ParseTypeFilter(s string) (*Type, error) {
	if s == "" || strings.EqualFold(s, "all") {
		return nil, nil
	}
	t, err := ParseType(s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// DistanceKm is the great-circle distance between two positions.
func DistanceKm(a, b Coords) float64 {
	return geo.NewPoint(a.Lat, a.Lon).GreatCircleDistance(geo.NewPoint(b.Lat, b.Lon))
}

// SortByDistance fills in DistanceKm from origin and orders stations nearest first.
func SortByDistance(stations []Station, origin Coords) []Station {
	out := make([]Station, len(stations))
	copy(out, stations)
	for i := range out {
		out[i].DistanceKm = DistanceKm(origin, out[i].Coords)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DistanceKm < out[j].DistanceKm
	})
	return out
}

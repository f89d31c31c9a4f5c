package domain

// DefaultStations is the default corridor: a fixed ordered list of
// points. Geographic compatibility is a cheap interval-overlap check on
// station indices, not a graph.
var DefaultStations = []string{"Vasai", "Nalasopara", "Virar"}

// Corridor is an ordered list of stations with index lookup
type Corridor struct {
	stations []string
	index    map[string]int
}

// NewCorridor builds a corridor from an ordered station list. An empty
// list falls back to DefaultStations.
func NewCorridor(stations []string) *Corridor {
	if len(stations) == 0 {
		stations = DefaultStations
	}
	idx := make(map[string]int, len(stations))
	for i, s := range stations {
		idx[s] = i
	}
	return &Corridor{stations: stations, index: idx}
}

// Stations returns the ordered station list.
func (c *Corridor) Stations() []string {
	return c.stations
}

// Index returns the position of a station on the corridor, or -1 if the
// station is unrecognised.
func (c *Corridor) Index(station string) int {
	if i, ok := c.index[station]; ok {
		return i
	}
	return -1
}

// ValidRange reports whether both endpoints are known stations.
func (c *Corridor) ValidRange(r StationRange) bool {
	return c.Index(r.From) >= 0 && c.Index(r.To) >= 0
}

// Overlaps reports whether two station ranges share at least one station.
// Unrecognised stations never overlap.
func (c *Corridor) Overlaps(a, b StationRange) bool {
	return c.OverlapStrength(a, b) > 0
}

// OverlapStrength returns the fraction of range a's station interval
// covered by its intersection with range b, in [0,1]. Disjoint intervals
// or unrecognised stations yield 0.
func (c *Corridor) OverlapStrength(a, b StationRange) float64 {
	aStart, aEnd := c.normalize(a)
	bStart, bEnd := c.normalize(b)
	if aStart < 0 || bStart < 0 {
		return 0
	}

	lo := max(aStart, bStart)
	hi := min(aEnd, bEnd)
	if lo > hi {
		return 0
	}

	return float64(hi-lo+1) / float64(aEnd-aStart+1)
}

// normalize resolves a range to ordered indices; (-1, -1) if either
// endpoint is unrecognised.
func (c *Corridor) normalize(r StationRange) (int, int) {
	start := c.Index(r.From)
	end := c.Index(r.To)
	if start < 0 || end < 0 {
		return -1, -1
	}
	if start > end {
		start, end = end, start
	}
	return start, end
}

package engine

// Geometry describes where a color enters the shared path and where its
// private home lane lies.
type Geometry struct {
	StartCell int `json:"start_cell"`
	HomeStart int `json:"home_start"`
	HomeEnd   int `json:"home_end"`
}

// geometries is the single source of board geometry for every color.
var geometries = map[Color]Geometry{
	Red:    {StartCell: 0, HomeStart: 40, HomeEnd: 43},
	Blue:   {StartCell: 10, HomeStart: 44, HomeEnd: 47},
	Green:  {StartCell: 20, HomeStart: 48, HomeEnd: 51},
	Yellow: {StartCell: 30, HomeStart: 52, HomeEnd: 55},
}

// GeometryFor returns the geometry of a color.
func GeometryFor(c Color) (Geometry, bool) {
	g, ok := geometries[c]
	return g, ok
}

// Valid reports whether c is one of the four board colors.
func (c Color) Valid() bool {
	_, ok := geometries[c]
	return ok
}

// InHomeRange reports whether position is one of this lane's cells.
func (g Geometry) InHomeRange(position int) bool {
	return position >= g.HomeStart && position <= g.HomeEnd
}

// IsPathCell reports whether position lies on the shared circular path.
func IsPathCell(position int) bool {
	return position >= 0 && position < PathLength
}

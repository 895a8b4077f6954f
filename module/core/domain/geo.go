package domain

// Coordinate is a (latitude, longitude) pair in degrees.
type Coordinate struct {
	Lat float64 `json:"latitude"`
	Lng float64 `json:"longitude"`
}

// Valid reports whether the coordinate is inside the WGS84 degree ranges.
func (c Coordinate) Valid() bool {
	return c.Lat >= -90 && c.Lat <= 90 && c.Lng >= -180 && c.Lng <= 180
}

// Polygon is an ordered ring of at least three coordinates. The ring is
// implicitly closed: the last vertex connects back to the first.
type Polygon []Coordinate

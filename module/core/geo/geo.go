// Package geo holds the pure geometry used by report dispatch. Nothing here
// performs I/O or mutates state.
package geo

import (
	"fmt"
	"math"

	"github.com/sayvu/dispatch/module/core/domain"
)

const (
	degToNauticalMiles = 60
	nauticalToStatute  = 1.1515
	milesToKm          = 1.609344
)

// closeRing validates the ring and returns it explicitly closed (first
// vertex appended when the caller did not close it). Both containment and
// area go through this one normalization step.
func closeRing(p domain.Polygon) (domain.Polygon, error) {
	if len(p) < 3 {
		return nil, &domain.GeometryError{Reason: fmt.Sprintf("polygon needs at least 3 vertices, got %d", len(p))}
	}
	for i, c := range p {
		if !c.Valid() {
			return nil, &domain.GeometryError{Reason: fmt.Sprintf("vertex %d out of range: (%f, %f)", i, c.Lat, c.Lng)}
		}
	}
	if p[0] != p[len(p)-1] {
		closed := make(domain.Polygon, len(p)+1)
		copy(closed, p)
		closed[len(p)] = p[0]
		return closed, nil
	}
	return p, nil
}

// PointInPolygon applies the even-odd ray-casting rule. Boundary convention:
// edges are half-open in latitude (an edge counts when it crosses the
// point's latitude coming from strictly below), so a point on the ring can
// resolve either way but always deterministically.
func PointInPolygon(pt domain.Coordinate, p domain.Polygon) (bool, error) {
	if !pt.Valid() {
		return false, &domain.GeometryError{Reason: fmt.Sprintf("point out of range: (%f, %f)", pt.Lat, pt.Lng)}
	}
	ring, err := closeRing(p)
	if err != nil {
		return false, err
	}

	inside := false
	n := len(ring)
	for i := 0; i < n; i++ {
		a := ring[i]
		b := ring[(i+1)%n]

		if (a.Lat < pt.Lat && b.Lat >= pt.Lat) || (b.Lat < pt.Lat && a.Lat >= pt.Lat) {
			if a.Lng+(pt.Lat-a.Lat)/(b.Lat-a.Lat)*(b.Lng-a.Lng) < pt.Lng {
				inside = !inside
			}
		}
	}
	return inside, nil
}

// DistanceKm returns the great-circle distance between two coordinates in
// kilometers, using the spherical law of cosines.
func DistanceKm(a, b domain.Coordinate) (float64, error) {
	if !a.Valid() || !b.Valid() {
		return 0, &domain.GeometryError{Reason: "coordinate out of range"}
	}
	if a == b {
		return 0, nil
	}

	theta := a.Lng - b.Lng
	d := math.Sin(rad(a.Lat))*math.Sin(rad(b.Lat)) +
		math.Cos(rad(a.Lat))*math.Cos(rad(b.Lat))*math.Cos(rad(theta))

	// Rounding can push d just outside acos's domain for near-identical
	// points; clamp instead of returning NaN.
	if d > 1 {
		d = 1
	} else if d < -1 {
		d = -1
	}

	miles := deg(math.Acos(d)) * degToNauticalMiles * nauticalToStatute
	return miles * milesToKm, nil
}

// PolygonArea returns the shoelace area of the ring in squared degrees.
// Display only; dispatch never depends on it.
func PolygonArea(p domain.Polygon) (float64, error) {
	ring, err := closeRing(p)
	if err != nil {
		return 0, err
	}

	var sum float64
	for i := 0; i < len(ring)-1; i++ {
		sum += ring[i].Lng*ring[i+1].Lat - ring[i+1].Lng*ring[i].Lat
	}
	return math.Abs(sum / 2), nil
}

// Centroid returns the vertex mean of the ring, used as the advisory center
// hint on coverage areas.
func Centroid(p domain.Polygon) (domain.Coordinate, error) {
	ring, err := closeRing(p)
	if err != nil {
		return domain.Coordinate{}, err
	}

	// Skip the duplicated closing vertex.
	n := len(ring) - 1
	var lat, lng float64
	for i := 0; i < n; i++ {
		lat += ring[i].Lat
		lng += ring[i].Lng
	}
	return domain.Coordinate{Lat: lat / float64(n), Lng: lng / float64(n)}, nil
}

func rad(d float64) float64 {
	return d * math.Pi / 180
}

func deg(r float64) float64 {
	return r * 180 / math.Pi
}

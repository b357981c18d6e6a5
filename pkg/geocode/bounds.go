package geocode

import (
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"

	"github.com/listo-ph/listo/internal/model"
)

// Bounds is a rectangular service area in lng/lat order.
type Bounds struct {
	b *geom.Bounds
}

// Service-area corners of Barangay Holy Spirit and Matandang Balara, Quezon City.
var (
	DefaultNorthEast = model.Coordinate{Latitude: 14.693963, Longitude: 121.101193}
	DefaultSouthWest = model.Coordinate{Latitude: 14.649732, Longitude: 121.067052}
)

// NewBounds returns the rectangle spanned by ne and sw.
func NewBounds(ne, sw model.Coordinate) (Bounds, error) {
	if !ne.Valid() || !sw.Valid() {
		return Bounds{}, eris.New("geocode: bounds corner out of range")
	}
	if ne.Latitude < sw.Latitude || ne.Longitude < sw.Longitude {
		return Bounds{}, eris.Errorf("geocode: north-east corner %v is south or west of %v", ne, sw)
	}
	return Bounds{b: geom.NewBounds(geom.XY).Set(sw.Longitude, sw.Latitude, ne.Longitude, ne.Latitude)}, nil
}

// DefaultBounds returns the Quezon City service area.
func DefaultBounds() Bounds {
	b, _ := NewBounds(DefaultNorthEast, DefaultSouthWest)
	return b
}

// Contains reports whether c lies inside or on the edge of the area.
func (b Bounds) Contains(c model.Coordinate) bool {
	if b.b == nil {
		return false
	}
	return b.b.OverlapsPoint(geom.XY, geom.Coord{c.Longitude, c.Latitude})
}

// NorthEast returns the upper-right corner.
func (b Bounds) NorthEast() model.Coordinate {
	if b.b == nil {
		return model.ZeroCoordinate
	}
	return model.Coordinate{Latitude: b.b.Max(1), Longitude: b.b.Max(0)}
}

// SouthWest returns the lower-left corner.
func (b Bounds) SouthWest() model.Coordinate {
	if b.b == nil {
		return model.ZeroCoordinate
	}
	return model.Coordinate{Latitude: b.b.Min(1), Longitude: b.b.Min(0)}
}

// Center returns the midpoint of the area.
func (b Bounds) Center() model.Coordinate {
	ne, sw := b.NorthEast(), b.SouthWest()
	return model.Coordinate{
		Latitude:  (ne.Latitude + sw.Latitude) / 2,
		Longitude: (ne.Longitude + sw.Longitude) / 2,
	}
}

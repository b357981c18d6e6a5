package model

import (
	"math"
	"time"

	"github.com/twpayne/go-geom"
)

// Well-known collection names in the incident store.
const (
	CollectionReports  = "reports"
	CollectionCrimes   = "crimes"
	CollectionArchives = "archives"
	CollectionDistress = "distress"
)

// Coordinate is a WGS84 latitude/longitude pair.
type Coordinate struct {
	Latitude  float64 `json:"latitude" yaml:"latitude"`
	Longitude float64 `json:"longitude" yaml:"longitude"`
}

// ZeroCoordinate is substituted when a record carries no usable geodata.
var ZeroCoordinate = Coordinate{}

// IsZero reports whether c is the {0,0} sentinel.
func (c Coordinate) IsZero() bool {
	return c == ZeroCoordinate
}

// Valid reports whether both components are finite and within WGS84 range.
func (c Coordinate) Valid() bool {
	if math.IsNaN(c.Latitude) || math.IsNaN(c.Longitude) || math.IsInf(c.Latitude, 0) || math.IsInf(c.Longitude, 0) {
		return false
	}
	return c.Latitude >= -90 && c.Latitude <= 90 && c.Longitude >= -180 && c.Longitude <= 180
}

// Point returns c as a go-geom point in lng/lat order with SRID 4326.
func (c Coordinate) Point() *geom.Point {
	return geom.NewPointFlat(geom.XY, []float64{c.Longitude, c.Latitude}).SetSRID(4326)
}

// IncidentRecord is a single reported crime or emergency event.
// Records are treated as read-only once they enter a snapshot.
type IncidentRecord struct {
	ID             string     `json:"id" yaml:"id"`
	Category       Category   `json:"category" yaml:"category"`
	Location       string     `json:"location" yaml:"location"`
	Coordinate     Coordinate `json:"coordinate" yaml:"coordinate"`
	OccurredAt     time.Time  `json:"occurred_at" yaml:"occurred_at"`
	ReportedAt     time.Time  `json:"reported_at" yaml:"reported_at"`
	AdditionalInfo string     `json:"additional_info" yaml:"additional_info"`
	Status         Status     `json:"status" yaml:"status"`
	OwnerID        string     `json:"owner_id,omitempty" yaml:"owner_id,omitempty"`
	ReporterName   string     `json:"reporter_name,omitempty" yaml:"reporter_name,omitempty"`
	ReporterPhone  string     `json:"reporter_phone,omitempty" yaml:"reporter_phone,omitempty"`
	ImageURL       string     `json:"image_url,omitempty" yaml:"image_url,omitempty"`
}

// HasDate reports whether the date of occurrence is usable for date filtering.
func (r IncidentRecord) HasDate() bool {
	return !r.OccurredAt.IsZero()
}

// RawRecord is an unnormalized document as returned by the store or a spreadsheet reader.
type RawRecord struct {
	ID     string
	Fields map[string]any
}

// Get returns the named field, or nil.
func (r RawRecord) Get(key string) any {
	if r.Fields == nil {
		return nil
	}
	return r.Fields[key]
}

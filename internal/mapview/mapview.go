// Package mapview turns incident sets into map markers and heatmap points encoded as GeoJSON.
package mapview

import (
	"encoding/json"
	"math"
	"sort"
	"time"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/listo-ph/listo/internal/filter"
	"github.com/listo-ph/listo/internal/model"
)

// Rendering hints for the heatmap layer.
const (
	DefaultRadius  = 50
	DefaultOpacity = 0.8
	// DefaultCellSize is the aggregation grid in degrees (about 110 m).
	DefaultCellSize = 0.001
)

// Marker is one incident pin.
type Marker struct {
	ID         string           `json:"id"`
	Category   model.Category   `json:"category"`
	Coordinate model.Coordinate `json:"coordinate"`
	Date       string           `json:"date,omitempty"`
	Location   string           `json:"location"`
	Info       string           `json:"info"`
}

// Markers returns a marker for every record in categories that has a coordinate.
func Markers(records []model.IncidentRecord, categories filter.CategorySet, loc *time.Location) []Marker {
	if loc == nil {
		loc = model.DefaultLocation
	}
	out := make([]Marker, 0, len(records))
	for _, r := range filter.FilterByCategory(records, categories) {
		if r.Coordinate.IsZero() {
			continue
		}
		m := Marker{
			ID:         r.ID,
			Category:   r.Category,
			Coordinate: r.Coordinate,
			Location:   r.Location,
			Info:       r.AdditionalInfo,
		}
		if r.HasDate() {
			m.Date = model.DateOf(r.OccurredAt, loc).String()
		}
		out = append(out, m)
	}
	return out
}

// HeatPoint is the weighted centroid of one grid cell.
type HeatPoint struct {
	Coordinate model.Coordinate `json:"coordinate"`
	Weight     int              `json:"weight"`
}

// Heatmap is an aggregated heat layer.
type Heatmap struct {
	Radius  int         `json:"radius"`
	Opacity float64     `json:"opacity"`
	Points  []HeatPoint `json:"points"`
}

type cell struct{ x, y int64 }

type acc struct {
	lat, lng float64
	n        int
}

// BuildHeatmap aggregates records in categories onto a grid of cellSize degrees. Records
// without a coordinate are ignored. Points are ordered by descending weight.
func BuildHeatmap(records []model.IncidentRecord, categories filter.CategorySet, cellSize float64) Heatmap {
	if cellSize <= 0 {
		cellSize = DefaultCellSize
	}
	cells := map[cell]*acc{}
	for _, r := range filter.FilterByCategory(records, categories) {
		if r.Coordinate.IsZero() {
			continue
		}
		k := cell{
			x: int64(math.Floor(r.Coordinate.Longitude / cellSize)),
			y: int64(math.Floor(r.Coordinate.Latitude / cellSize)),
		}
		a := cells[k]
		if a == nil {
			a = &acc{}
			cells[k] = a
		}
		a.lat += r.Coordinate.Latitude
		a.lng += r.Coordinate.Longitude
		a.n++
	}

	points := make([]HeatPoint, 0, len(cells))
	for _, a := range cells {
		points = append(points, HeatPoint{
			Coordinate: model.Coordinate{Latitude: a.lat / float64(a.n), Longitude: a.lng / float64(a.n)},
			Weight:     a.n,
		})
	}
	sort.Slice(points, func(i, j int) bool {
		if points[i].Weight != points[j].Weight {
			return points[i].Weight > points[j].Weight
		}
		if points[i].Coordinate.Latitude != points[j].Coordinate.Latitude {
			return points[i].Coordinate.Latitude < points[j].Coordinate.Latitude
		}
		return points[i].Coordinate.Longitude < points[j].Coordinate.Longitude
	})
	return Heatmap{Radius: DefaultRadius, Opacity: DefaultOpacity, Points: points}
}

// MarkersGeoJSON encodes markers as a FeatureCollection of points.
func MarkersGeoJSON(markers []Marker) ([]byte, error) {
	features := make([]*geojson.Feature, 0, len(markers))
	for _, m := range markers {
		props := map[string]any{
			"category": m.Category,
			"location": m.Location,
			"info":     m.Info,
		}
		if m.Date != "" {
			props["date"] = m.Date
		}
		features = append(features, &geojson.Feature{
			ID:         m.ID,
			Geometry:   m.Coordinate.Point(),
			Properties: props,
		})
	}
	return encode(features)
}

// GeoJSON encodes the heat points as a FeatureCollection; radius and opacity are carried
// as properties of every feature.
func (h Heatmap) GeoJSON() ([]byte, error) {
	features := make([]*geojson.Feature, 0, len(h.Points))
	for _, p := range h.Points {
		features = append(features, &geojson.Feature{
			Geometry: p.Coordinate.Point(),
			Properties: map[string]any{
				"weight":  p.Weight,
				"radius":  h.Radius,
				"opacity": h.Opacity,
			},
		})
	}
	return encode(features)
}

func encode(features []*geojson.Feature) ([]byte, error) {
	fc := &geojson.FeatureCollection{Features: features}
	if len(features) > 0 {
		bounds := geom.NewBounds(geom.XY)
		for _, f := range features {
			bounds.Extend(f.Geometry)
		}
		fc.BBox = bounds
	}
	b, err := json.Marshal(fc)
	if err != nil {
		return nil, eris.Wrap(err, "mapview: encode geojson")
	}
	return b, nil
}

package mapview

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listo-ph/listo/internal/filter"
	"github.com/listo-ph/listo/internal/model"
)

func rec(id string, cat model.Category, lat, lng float64) model.IncidentRecord {
	return model.IncidentRecord{
		ID:             id,
		Category:       cat,
		Coordinate:     model.Coordinate{Latitude: lat, Longitude: lng},
		OccurredAt:     time.Date(2024, time.March, 4, 17, 0, 0, 0, time.UTC),
		Location:       "Holy Spirit",
		AdditionalInfo: "info " + id,
	}
}

func TestMarkers(t *testing.T) {
	records := []model.IncidentRecord{
		rec("a", model.CategoryTheft, 14.68, 121.09),
		rec("b", model.CategoryRape, 14.67, 121.08),
		rec("c", model.CategoryTheft, 0, 0),
	}

	all := Markers(records, nil, nil)
	require.Len(t, all, 2)
	assert.Equal(t, "a", all[0].ID)
	// 17:00 UTC is the next day in Manila.
	assert.Equal(t, "2024-03-05", all[0].Date)
	assert.Equal(t, "info a", all[0].Info)

	thefts := Markers(records, filter.NewCategorySet("Theft"), nil)
	require.Len(t, thefts, 1)
	assert.Equal(t, "a", thefts[0].ID)
}

func TestBuildHeatmap_AggregatesCells(t *testing.T) {
	records := []model.IncidentRecord{
		rec("a", model.CategoryTheft, 14.68011, 121.09011),
		rec("b", model.CategoryTheft, 14.68019, 121.09019),
		rec("c", model.CategoryArson, 14.65, 121.07),
		rec("d", model.CategoryTheft, 0, 0),
	}

	h := BuildHeatmap(records, nil, 0)
	assert.Equal(t, DefaultRadius, h.Radius)
	assert.InDelta(t, DefaultOpacity, h.Opacity, 1e-9)
	require.Len(t, h.Points, 2)
	assert.Equal(t, 2, h.Points[0].Weight)
	assert.InDelta(t, 14.68015, h.Points[0].Coordinate.Latitude, 1e-9)
	assert.Equal(t, 1, h.Points[1].Weight)

	arson := BuildHeatmap(records, filter.NewCategorySet("arson"), DefaultCellSize)
	require.Len(t, arson.Points, 1)
	assert.InDelta(t, 14.65, arson.Points[0].Coordinate.Latitude, 1e-9)
}

func TestMarkersGeoJSON(t *testing.T) {
	markers := Markers([]model.IncidentRecord{rec("a", model.CategoryTheft, 14.68, 121.09)}, nil, nil)

	b, err := MarkersGeoJSON(markers)
	require.NoError(t, err)

	var fc struct {
		Type     string `json:"type"`
		Features []struct {
			ID       string `json:"id"`
			Geometry struct {
				Type        string    `json:"type"`
				Coordinates []float64 `json:"coordinates"`
			} `json:"geometry"`
			Properties map[string]any `json:"properties"`
		} `json:"features"`
	}
	require.NoError(t, json.Unmarshal(b, &fc))
	assert.Equal(t, "FeatureCollection", fc.Type)
	require.Len(t, fc.Features, 1)
	assert.Equal(t, "a", fc.Features[0].ID)
	assert.Equal(t, "Point", fc.Features[0].Geometry.Type)
	assert.Equal(t, []float64{121.09, 14.68}, fc.Features[0].Geometry.Coordinates)
	assert.Equal(t, "theft", fc.Features[0].Properties["category"])
}

func TestHeatmapGeoJSON_Empty(t *testing.T) {
	b, err := BuildHeatmap(nil, nil, 0).GeoJSON()
	require.NoError(t, err)

	var fc map[string]any
	require.NoError(t, json.Unmarshal(b, &fc))
	assert.Equal(t, "FeatureCollection", fc["type"])
}

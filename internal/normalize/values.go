package normalize

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/listo-ph/listo/internal/model"
)

// number converts decoded JSON and driver numeric types to float64.
func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

func field(m map[string]any, keys ...string) (float64, bool) {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			if f, ok := number(v); ok {
				return f, true
			}
			if s, ok := v.(string); ok {
				if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
					return f, true
				}
			}
		}
	}
	return 0, false
}

// coordinateOf accepts the geopoint encodings produced by the client SDKs and the stores.
func coordinateOf(v any) (model.Coordinate, bool) {
	var c model.Coordinate
	switch g := v.(type) {
	case model.Coordinate:
		c = g
	case *model.Coordinate:
		if g == nil {
			return model.ZeroCoordinate, false
		}
		c = *g
	case [2]float64:
		c = model.Coordinate{Latitude: g[0], Longitude: g[1]}
	case []float64:
		if len(g) != 2 {
			return model.ZeroCoordinate, false
		}
		c = model.Coordinate{Latitude: g[0], Longitude: g[1]}
	case map[string]any:
		lat, ok1 := field(g, "latitude", "_latitude", "lat")
		lng, ok2 := field(g, "longitude", "_longitude", "lng")
		if !ok1 || !ok2 {
			return model.ZeroCoordinate, false
		}
		c = model.Coordinate{Latitude: lat, Longitude: lng}
	default:
		return model.ZeroCoordinate, false
	}
	if !c.Valid() {
		return model.ZeroCoordinate, false
	}
	return c, true
}

var timeLayouts = []string{
	time.RFC3339Nano,
	time.DateTime,
	time.DateOnly,
}

// timeOf accepts structured timestamps, epoch milliseconds and common string layouts.
// Naive layouts are read in model.DefaultLocation.
func timeOf(v any) (time.Time, bool) {
	switch t := v.(type) {
	case nil:
		return time.Time{}, false
	case time.Time:
		return t, !t.IsZero()
	case *time.Time:
		if t == nil || t.IsZero() {
			return time.Time{}, false
		}
		return *t, true
	case map[string]any:
		sec, ok := field(t, "_seconds", "seconds")
		if !ok {
			return time.Time{}, false
		}
		nanos, _ := field(t, "_nanoseconds", "nanoseconds", "nanos")
		return time.Unix(int64(sec), int64(nanos)), true
	case string:
		s := strings.TrimSpace(t)
		for _, layout := range timeLayouts {
			if parsed, err := time.ParseInLocation(layout, s, model.DefaultLocation); err == nil {
				return parsed, true
			}
		}
		if parsed, err := ParseImportTime(s, model.DefaultLocation); err == nil {
			return parsed, true
		}
		return time.Time{}, false
	}
	return epochMillis(v)
}

func epochMillis(v any) (time.Time, bool) {
	ms, ok := number(v)
	if !ok || ms <= 0 || math.IsNaN(ms) || math.IsInf(ms, 0) {
		return time.Time{}, false
	}
	return time.UnixMilli(int64(ms)), true
}

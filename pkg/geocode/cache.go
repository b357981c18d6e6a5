package geocode

import (
	"crypto/sha256"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/listo-ph/listo/internal/model"
)

// cachedPoint is a forward result; found is false for a cached miss.
type cachedPoint struct {
	coord model.Coordinate
	found bool
}

func (c cachedPoint) point() *model.Coordinate {
	if !c.found {
		return nil
	}
	pt := c.coord
	return &pt
}

// forwardKey returns SHA-256 hex of the normalized address for cache lookup.
func forwardKey(address string) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(address)), " ")
	h := sha256.Sum256([]byte(normalized))
	return fmt.Sprintf("%x", h)
}

// reverseKey rounds to roughly 1 m so jittery client fixes share an entry.
func reverseKey(lat, lng float64) string {
	return fmt.Sprintf("%.5f,%.5f", lat, lng)
}

func (g *geocoder) lookupForward(key string) (cachedPoint, bool) {
	if g.forward == nil {
		return cachedPoint{}, false
	}
	hit, ok := g.forward.Get(key)
	if ok {
		zap.L().Debug("geocode cache hit", zap.String("key", key[:12]), zap.Bool("matched", hit.found))
	}
	return hit, ok
}

func (g *geocoder) storeForward(key string, pt *model.Coordinate) {
	if g.forward == nil {
		return
	}
	if pt == nil {
		g.forward.Add(key, cachedPoint{})
		return
	}
	g.forward.Add(key, cachedPoint{coord: *pt, found: true})
}

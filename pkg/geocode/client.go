// Package geocode resolves free-text addresses to coordinates and coordinates back to addresses
// using the Google Geocoding API.
package geocode

import (
	"context"
	"net/http"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/time/rate"

	"github.com/listo-ph/listo/internal/model"
	"github.com/listo-ph/listo/internal/resilience"
)

// Client geocodes addresses.
type Client interface {
	// Geocode resolves address. It returns nil, nil when the provider has no match.
	Geocode(ctx context.Context, address string) (*model.Coordinate, error)

	// Reverse returns the formatted address nearest to lat/lng, or "" when there is none.
	Reverse(ctx context.Context, lat, lng float64) (string, error)
}

// Option configures the geocoder.
type Option func(*geocoder)

// WithAPIKey sets the Google API key.
func WithAPIKey(key string) Option {
	return func(g *geocoder) {
		g.apiKey = key
	}
}

// WithRegion sets the ccTLD region bias sent with forward lookups.
func WithRegion(region string) Option {
	return func(g *geocoder) {
		g.region = region
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(g *geocoder) {
		g.httpClient = hc
	}
}

// WithRateLimit sets the requests-per-second rate limit for provider calls.
func WithRateLimit(rps float64) Option {
	return func(g *geocoder) {
		burst := int(rps)
		if burst < 1 {
			burst = 1
		}
		g.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithCache keeps up to size results (matches and misses) for ttl. A size below 1 disables caching.
func WithCache(size int, ttl time.Duration) Option {
	return func(g *geocoder) {
		if size < 1 {
			g.forward, g.reverse = nil, nil
			return
		}
		g.forward = expirable.NewLRU[string, cachedPoint](size, nil, ttl)
		g.reverse = expirable.NewLRU[string, string](size, nil, ttl)
	}
}

// WithBreaker guards provider calls with b.
func WithBreaker(b *resilience.Breaker) Option {
	return func(g *geocoder) {
		g.breaker = b
	}
}

type geocoder struct {
	httpClient *http.Client
	apiKey     string
	region     string
	limiter    *rate.Limiter
	breaker    *resilience.Breaker

	forward *expirable.LRU[string, cachedPoint]
	reverse *expirable.LRU[string, string]
}

// NewClient creates a new geocoding Client with the given options.
func NewClient(opts ...Option) Client {
	g := &geocoder{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		region:     "PH",
		limiter:    rate.NewLimiter(10, 10),
		breaker:    resilience.NewBreaker("geocode", 5, 30*time.Second),
	}
	WithCache(1024, time.Hour)(g)
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *geocoder) Geocode(ctx context.Context, address string) (*model.Coordinate, error) {
	key := forwardKey(address)
	if hit, ok := g.lookupForward(key); ok {
		return hit.point(), nil
	}

	pt, err := resilience.Guard(ctx, g.breaker, func(ctx context.Context) (*model.Coordinate, error) {
		return g.geocodeGoogle(ctx, address)
	})
	if err != nil {
		return nil, err
	}
	g.storeForward(key, pt)
	return pt, nil
}

func (g *geocoder) Reverse(ctx context.Context, lat, lng float64) (string, error) {
	key := reverseKey(lat, lng)
	if g.reverse != nil {
		if addr, ok := g.reverse.Get(key); ok {
			return addr, nil
		}
	}

	addr, err := resilience.Guard(ctx, g.breaker, func(ctx context.Context) (string, error) {
		return g.reverseGoogle(ctx, lat, lng)
	})
	if err != nil {
		return "", err
	}
	if g.reverse != nil {
		g.reverse.Add(key, addr)
	}
	return addr, nil
}

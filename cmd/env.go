package main

import (
	"context"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/listo-ph/listo/internal/auth"
	"github.com/listo-ph/listo/internal/distress"
	"github.com/listo-ph/listo/internal/model"
	"github.com/listo-ph/listo/internal/moderation"
	"github.com/listo-ph/listo/internal/resilience"
	"github.com/listo-ph/listo/internal/store"
	"github.com/listo-ph/listo/pkg/functions"
	"github.com/listo-ph/listo/pkg/geocode"
)

// cliSession is the identity administrative commands run as. Access to the
// database is the credential.
var cliSession = auth.Session{UID: "listo-cli", Name: "listo-cli", Capability: auth.Admin}

// appEnv holds the store, clients and services shared by the commands.
type appEnv struct {
	Store      store.Store
	Geocoder   geocode.Client // may be nil
	Functions  functions.Caller
	Moderation *moderation.Service
	Distress   *distress.Service
	Location   *time.Location
}

// Close releases resources held by the environment.
func (e *appEnv) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// initStore opens and migrates the configured store.
func initStore(ctx context.Context) (store.Store, error) {
	st, err := store.Open(ctx, cfg.Store.Driver, cfg.Store.DatabaseURL)
	if err != nil {
		return nil, eris.Wrap(err, "open store")
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}
	return st, nil
}

// initGeocoder returns nil when no Google key is configured.
func initGeocoder() geocode.Client {
	if cfg.Geocode.GoogleKey == "" {
		zap.L().Debug("LISTO_GEOCODE_GOOGLE_KEY not set, geocoding disabled")
		return nil
	}
	breaker := resilience.NewBreaker("geocode", cfg.Geocode.BreakerThreshold, 0,
		resilience.OnStateChange(func(name string, from, to resilience.BreakerState) {
			zap.L().Warn("breaker state change",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		}),
	)
	return geocode.NewClient(
		geocode.WithAPIKey(cfg.Geocode.GoogleKey),
		geocode.WithRegion(cfg.Geocode.Region),
		geocode.WithRateLimit(cfg.Geocode.RateLimit),
		geocode.WithCache(cfg.Geocode.CacheSize, cfg.Geocode.CacheTTL()),
		geocode.WithBreaker(breaker),
	)
}

// initFunctions returns nil when no functions endpoint is configured.
func initFunctions() functions.Caller {
	if cfg.Functions.BaseURL == "" {
		zap.L().Debug("LISTO_FUNCTIONS_BASE_URL not set, penalize disabled")
		return nil
	}
	return functions.NewClient(cfg.Functions.BaseURL,
		functions.WithToken(cfg.Functions.Token),
		functions.WithHTTPClient(&http.Client{Timeout: cfg.Functions.Timeout()}),
	)
}

func configBounds() (geocode.Bounds, error) {
	b, err := geocode.NewBounds(
		model.Coordinate{Latitude: cfg.Bounds.NELat, Longitude: cfg.Bounds.NELng},
		model.Coordinate{Latitude: cfg.Bounds.SWLat, Longitude: cfg.Bounds.SWLng},
	)
	return b, eris.Wrap(err, "service area bounds")
}

// initEnv validates cfg for mode and wires every service. Callers should defer env.Close().
func initEnv(ctx context.Context, mode string) (*appEnv, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}
	loc, err := cfg.Filter.Location()
	if err != nil {
		return nil, err
	}
	bounds, err := configBounds()
	if err != nil {
		return nil, err
	}

	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}

	env := &appEnv{Store: st, Geocoder: initGeocoder(), Functions: initFunctions(), Location: loc}

	modOpts := []moderation.Option{moderation.WithBounds(bounds)}
	distOpts := []distress.Option{distress.WithLocation(loc), distress.WithConcurrency(cfg.Import.Concurrency)}
	if env.Geocoder != nil {
		modOpts = append(modOpts, moderation.WithGeocoder(env.Geocoder))
		distOpts = append(distOpts, distress.WithGeocoder(env.Geocoder))
	}
	if env.Functions != nil {
		modOpts = append(modOpts, moderation.WithFunctions(env.Functions))
	}
	env.Moderation = moderation.New(st, modOpts...)
	env.Distress = distress.New(st, distOpts...)

	return env, nil
}

// Package distress serves the admin emergency list: distress calls with reverse-geocoded
// addresses, filtered by barangay and free text.
package distress

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/listo-ph/listo/internal/auth"
	"github.com/listo-ph/listo/internal/model"
	"github.com/listo-ph/listo/internal/normalize"
	"github.com/listo-ph/listo/internal/store"
	"github.com/listo-ph/listo/pkg/geocode"
)

// UnknownAddress is shown when a distress coordinate cannot be reverse geocoded.
const UnknownAddress = "Unknown address"

// Source is the part of store.Store the distress list reads and writes.
type Source interface {
	FetchDistress(ctx context.Context) ([]model.RawRecord, error)
	AcknowledgeDistress(ctx context.Context, id string) error
}

var _ Source = store.Store(nil)

// Service lists and acknowledges distress calls.
type Service struct {
	src         Source
	geo         geocode.Client
	concurrency int
	loc         *time.Location
}

// Option configures a Service.
type Option func(*Service)

// WithGeocoder enables reverse geocoding of addresses.
func WithGeocoder(g geocode.Client) Option {
	return func(s *Service) { s.geo = g }
}

// WithConcurrency bounds concurrent reverse lookups.
func WithConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithLocation sets the zone used when matching dates in Filter.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// New returns a Service reading from src.
func New(src Source, opts ...Option) *Service {
	s := &Service{src: src, concurrency: 4, loc: model.DefaultLocation}
	for _, o := range opts {
		o(s)
	}
	return s
}

// List returns every distress call with its address resolved. Admin only.
// A failed reverse lookup leaves the stored address, or UnknownAddress when there is none.
func (s *Service) List(ctx context.Context, sess auth.Session) ([]model.DistressRecord, error) {
	if err := sess.Require(auth.Admin); err != nil {
		return nil, err
	}
	raws, err := s.src.FetchDistress(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "distress: list")
	}

	out := make([]model.DistressRecord, len(raws))
	for i, raw := range raws {
		out[i] = normalize.FromDistress(raw)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i := range out {
		g.Go(func() error {
			out[i].Address = s.address(gctx, out[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "distress: resolve addresses")
	}
	return out, nil
}

func (s *Service) address(ctx context.Context, d model.DistressRecord) string {
	fallback := d.Address
	if fallback == "" {
		fallback = UnknownAddress
	}
	if s.geo == nil || d.Coordinate.IsZero() {
		return fallback
	}
	addr, err := s.geo.Reverse(ctx, d.Coordinate.Latitude, d.Coordinate.Longitude)
	if err != nil {
		zap.L().Debug("distress: reverse geocode failed", zap.String("id", d.ID), zap.Error(err))
		return fallback
	}
	if addr == "" {
		return fallback
	}
	return addr
}

// Acknowledge marks a distress call as handled. Admin only.
func (s *Service) Acknowledge(ctx context.Context, sess auth.Session, id string) error {
	if err := sess.Require(auth.Admin); err != nil {
		return err
	}
	if err := s.src.AcknowledgeDistress(ctx, id); err != nil {
		return eris.Wrapf(err, "distress: acknowledge %s", id)
	}
	zap.L().Info("distress: acknowledged", zap.String("id", id), zap.String("admin", sess.UID))
	return nil
}

// Filter keeps calls from barangay (a code such as "HS"; "" allows all) whose barangay,
// address, info or date (YYYY-MM-DD) contain query, ignoring case.
func (s *Service) Filter(records []model.DistressRecord, barangay, query string) []model.DistressRecord {
	return Filter(records, barangay, query, s.loc)
}

// Filter is Service.Filter with an explicit location.
func Filter(records []model.DistressRecord, barangay, query string, loc *time.Location) []model.DistressRecord {
	q := strings.ToLower(strings.TrimSpace(query))
	barangay = strings.TrimSpace(barangay)
	out := make([]model.DistressRecord, 0, len(records))
	for _, d := range records {
		if barangay != "" && !strings.EqualFold(d.Barangay, barangay) {
			continue
		}
		if q != "" && !matches(d, q, loc) {
			continue
		}
		out = append(out, d)
	}
	return out
}

func matches(d model.DistressRecord, q string, loc *time.Location) bool {
	for _, field := range []string{d.Barangay, d.BarangayName(), d.Address, d.AdditionalInfo} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return !d.Timestamp.IsZero() && strings.Contains(model.DateOf(d.Timestamp, loc).String(), q)
}

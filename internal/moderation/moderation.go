// Package moderation implements the report lifecycle: users submit and maintain their own
// pending reports, admins validate, archive, record and penalize.
package moderation

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/listo-ph/listo/internal/auth"
	"github.com/listo-ph/listo/internal/model"
	"github.com/listo-ph/listo/internal/normalize"
	"github.com/listo-ph/listo/internal/store"
	"github.com/listo-ph/listo/pkg/functions"
	"github.com/listo-ph/listo/pkg/geocode"
)

// Defaults written for fields a submitter left empty.
const (
	DefaultLocation       = "Unknown location"
	DefaultAdditionalInfo = "Undescribed Report"
	DefaultReporterName   = "Anonymous"
	DefaultReporterPhone  = "No phone"
)

// PenalizeFunction is the callable function that records a strike against a user.
const PenalizeFunction = "penalizeUser"

var (
	// ErrNotPending is returned when a report has already been validated or archived.
	ErrNotPending = eris.New("moderation: report is not pending")
	// ErrOutOfBounds is returned when a recorded crime lies outside the service area.
	ErrOutOfBounds = eris.New("moderation: location outside service area")
	// ErrInvalidCategory is returned when an admin records a crime without a known category.
	ErrInvalidCategory = eris.New("moderation: select a valid category")
	// ErrNoFunctions is returned by Penalize when no function caller is configured.
	ErrNoFunctions = eris.New("moderation: functions not configured")
)

// Draft is the editable content of a report.
type Draft struct {
	Category       string           `json:"category"`
	Location       string           `json:"location"`
	Coordinate     model.Coordinate `json:"coordinate"`
	AdditionalInfo string           `json:"additional_info"`
	OccurredAt     time.Time        `json:"occurred_at"`
	ImageURL       string           `json:"image_url"`
}

// Service applies moderation operations to a store.
type Service struct {
	store  store.Store
	geo    geocode.Client
	fns    functions.Caller
	bounds geocode.Bounds
	now    func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithGeocoder resolves locations of recorded crimes that carry no coordinate.
func WithGeocoder(g geocode.Client) Option {
	return func(s *Service) { s.geo = g }
}

// WithFunctions sets the caller used by Penalize.
func WithFunctions(c functions.Caller) Option {
	return func(s *Service) { s.fns = c }
}

// WithBounds overrides the service area enforced by Record.
func WithBounds(b geocode.Bounds) Option {
	return func(s *Service) { s.bounds = b }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New returns a Service backed by st.
func New(st store.Store, opts ...Option) *Service {
	s := &Service{
		store:  st,
		bounds: geocode.DefaultBounds(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Reports lists the reports visible to sess: pending reports for admins, own reports for users.
func (s *Service) Reports(ctx context.Context, sess auth.Session) ([]model.IncidentRecord, error) {
	var q store.Query
	switch {
	case sess.Require(auth.Admin) == nil:
		pending := model.StatusPending
		q.Status = &pending
	case sess.Require(auth.User) == nil:
		q.OwnerID = sess.UID
	default:
		return nil, sess.Require(auth.User)
	}

	raws, err := s.store.FetchIncidents(ctx, model.CollectionReports, q)
	if err != nil {
		return nil, eris.Wrap(err, "moderation: list reports")
	}
	out := make([]model.IncidentRecord, 0, len(raws))
	for _, raw := range raws {
		rec, _ := normalize.FromRaw(raw)
		out = append(out, rec)
	}
	return out, nil
}

// Submit stores a new pending report owned by sess.
func (s *Service) Submit(ctx context.Context, sess auth.Session, d Draft) (model.IncidentRecord, error) {
	if err := sess.Require(auth.User); err != nil {
		return model.IncidentRecord{}, err
	}
	now := s.now()
	rec := model.IncidentRecord{
		Status:        model.StatusPending,
		OwnerID:       sess.UID,
		ReporterName:  orDefault(sess.Name, DefaultReporterName),
		ReporterPhone: orDefault(sess.Phone, DefaultReporterPhone),
		ReportedAt:    now,
	}
	d.apply(&rec, now)
	rec = normalize.Record(rec)

	id, err := s.store.InsertIncident(ctx, model.CollectionReports, rec)
	if err != nil {
		return model.IncidentRecord{}, eris.Wrap(err, "moderation: submit")
	}
	rec.ID = id
	zap.L().Info("moderation: report submitted",
		zap.String("id", id),
		zap.String("uid", sess.UID),
		zap.String("category", string(rec.Category)),
	)
	return rec, nil
}

// Edit replaces the content of the caller's own pending report.
func (s *Service) Edit(ctx context.Context, sess auth.Session, id string, d Draft) (model.IncidentRecord, error) {
	rec, err := s.ownPending(ctx, sess, id)
	if err != nil {
		return model.IncidentRecord{}, err
	}
	d.apply(&rec, s.now())
	rec = normalize.Record(rec)
	if err := s.store.UpdateIncident(ctx, model.CollectionReports, rec); err != nil {
		return model.IncidentRecord{}, eris.Wrapf(err, "moderation: edit %s", id)
	}
	return rec, nil
}

// Delete removes the caller's own pending report.
func (s *Service) Delete(ctx context.Context, sess auth.Session, id string) error {
	if _, err := s.ownPending(ctx, sess, id); err != nil {
		return err
	}
	return eris.Wrapf(s.store.DeleteIncident(ctx, model.CollectionReports, id), "moderation: delete %s", id)
}

// Validate marks a pending report validated and copies it into the crimes collection.
// A non-nil amend overwrites the report content first.
func (s *Service) Validate(ctx context.Context, sess auth.Session, id string, amend *Draft) error {
	return s.review(ctx, sess, id, amend, model.CollectionCrimes, model.StatusValidated)
}

// Archive marks a pending report archived and copies it into the archives collection.
func (s *Service) Archive(ctx context.Context, sess auth.Session, id string, amend *Draft) error {
	return s.review(ctx, sess, id, amend, model.CollectionArchives, model.StatusArchived)
}

func (s *Service) review(ctx context.Context, sess auth.Session, id string, amend *Draft, to string, status model.Status) error {
	if err := sess.Require(auth.Admin); err != nil {
		return err
	}
	rec, err := s.pending(ctx, id)
	if err != nil {
		return err
	}
	if amend != nil {
		amend.apply(&rec, s.now())
		if err := s.store.UpdateIncident(ctx, model.CollectionReports, normalize.Record(rec)); err != nil {
			return eris.Wrapf(err, "moderation: amend %s", id)
		}
	}
	if err := s.store.CopyIncident(ctx, model.CollectionReports, to, id, status); err != nil {
		return eris.Wrapf(err, "moderation: %s %s", status, id)
	}
	zap.L().Info("moderation: report reviewed",
		zap.String("id", id),
		zap.String("status", status.String()),
		zap.String("admin", sess.UID),
	)
	return nil
}

// Record stores a crime observed by an admin directly in the crimes collection.
// The location is geocoded when no coordinate is given; the result must lie in the service area.
func (s *Service) Record(ctx context.Context, sess auth.Session, d Draft) (model.IncidentRecord, error) {
	if err := sess.Require(auth.Admin); err != nil {
		return model.IncidentRecord{}, err
	}
	if !model.ParseCategory(d.Category).IsKnown() {
		return model.IncidentRecord{}, eris.Wrapf(ErrInvalidCategory, "%q", d.Category)
	}

	now := s.now()
	rec := model.IncidentRecord{Status: model.StatusValidated, ReportedAt: now}
	d.apply(&rec, now)
	rec = normalize.Record(rec)

	if rec.Coordinate.IsZero() && s.geo != nil {
		pt, err := s.geo.Geocode(ctx, rec.Location)
		if err != nil {
			return model.IncidentRecord{}, eris.Wrapf(err, "moderation: geocode %q", rec.Location)
		}
		if pt != nil {
			rec.Coordinate = *pt
		}
	}
	if !s.bounds.Contains(rec.Coordinate) {
		return model.IncidentRecord{}, eris.Wrapf(ErrOutOfBounds, "%q", rec.Location)
	}

	id, err := s.store.InsertIncident(ctx, model.CollectionCrimes, rec)
	if err != nil {
		return model.IncidentRecord{}, eris.Wrap(err, "moderation: record")
	}
	rec.ID = id
	return rec, nil
}

// Penalize deletes a mischievous report and records a strike against its owner.
func (s *Service) Penalize(ctx context.Context, sess auth.Session, id string) error {
	if err := sess.Require(auth.Admin); err != nil {
		return err
	}
	if s.fns == nil {
		return ErrNoFunctions
	}
	rec, err := s.load(ctx, model.CollectionReports, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteIncident(ctx, model.CollectionReports, id); err != nil {
		return eris.Wrapf(err, "moderation: delete mischievous report %s", id)
	}
	if rec.OwnerID == "" {
		zap.L().Warn("moderation: penalized report has no owner", zap.String("id", id))
		return nil
	}
	if err := s.fns.Call(ctx, PenalizeFunction, map[string]string{"uid": rec.OwnerID}, nil); err != nil {
		return eris.Wrapf(err, "moderation: penalize %s", rec.OwnerID)
	}
	zap.L().Info("moderation: user penalized", zap.String("uid", rec.OwnerID), zap.String("report", id))
	return nil
}

// Cleanup deletes crimes whose category is unknown and returns how many were removed.
func (s *Service) Cleanup(ctx context.Context, sess auth.Session) (int64, error) {
	if err := sess.Require(auth.Admin); err != nil {
		return 0, err
	}
	n, err := s.store.DeleteByCategory(ctx, model.CollectionCrimes, model.CategoryUnknown)
	if err != nil {
		return 0, eris.Wrap(err, "moderation: cleanup")
	}
	zap.L().Info("moderation: cleanup", zap.Int64("deleted", n))
	return n, nil
}

func (s *Service) load(ctx context.Context, collection, id string) (model.IncidentRecord, error) {
	raw, err := s.store.GetIncident(ctx, collection, id)
	if err != nil {
		return model.IncidentRecord{}, err
	}
	rec, _ := normalize.FromRaw(raw)
	return rec, nil
}

func (s *Service) pending(ctx context.Context, id string) (model.IncidentRecord, error) {
	rec, err := s.load(ctx, model.CollectionReports, id)
	if err != nil {
		return model.IncidentRecord{}, err
	}
	if rec.Status != model.StatusPending {
		return model.IncidentRecord{}, eris.Wrapf(ErrNotPending, "%s is %s", id, rec.Status)
	}
	return rec, nil
}

func (s *Service) ownPending(ctx context.Context, sess auth.Session, id string) (model.IncidentRecord, error) {
	if err := sess.Require(auth.User); err != nil {
		return model.IncidentRecord{}, err
	}
	rec, err := s.pending(ctx, id)
	if err != nil {
		return model.IncidentRecord{}, err
	}
	if rec.OwnerID != sess.UID {
		return model.IncidentRecord{}, eris.Wrapf(auth.ErrForbidden, "report %s belongs to another user", id)
	}
	return rec, nil
}

// apply copies d onto rec, filling the submission defaults.
func (d Draft) apply(rec *model.IncidentRecord, now time.Time) {
	rec.Category = model.ParseCategory(d.Category)
	rec.Location = orDefault(d.Location, DefaultLocation)
	rec.Coordinate = d.Coordinate
	rec.AdditionalInfo = orDefault(d.AdditionalInfo, DefaultAdditionalInfo)
	rec.OccurredAt = d.OccurredAt
	if rec.OccurredAt.IsZero() {
		rec.OccurredAt = now
	}
	if d.ImageURL != "" {
		rec.ImageURL = d.ImageURL
	}
}

func orDefault(s, def string) string {
	if s = strings.TrimSpace(s); s != "" {
		return s
	}
	return def
}

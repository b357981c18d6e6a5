// Package snapshot holds the in-memory record set that filters and views derive from.
//
// A Holder swaps its snapshot wholesale on every successful refresh. A failed refresh keeps
// the previous snapshot, and a refresh that is overtaken by a newer one is cancelled and its
// result discarded.
package snapshot

import (
	"context"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/listo-ph/listo/internal/model"
	"github.com/listo-ph/listo/internal/normalize"
	"github.com/listo-ph/listo/internal/resilience"
	"github.com/listo-ph/listo/internal/store"
)

// ErrSuperseded is returned by a Refresh whose result was discarded for a newer one.
var ErrSuperseded = eris.New("snapshot: superseded by newer refresh")

// Fetcher is the read side of store.Store.
type Fetcher interface {
	FetchIncidents(ctx context.Context, collection string, q store.Query) ([]model.RawRecord, error)
}

// Snapshot is one immutable fetch result.
type Snapshot struct {
	Collection string
	Records    []model.IncidentRecord
	Issues     int
	Version    uint64
	FetchedAt  time.Time
}

// Holder owns the current Snapshot of one collection and query.
type Holder struct {
	src        Fetcher
	collection string
	query      store.Query
	backoff    resilience.Backoff
	now        func() time.Time
	// reads coalesces the refreshes started by concurrent Get calls.
	reads      singleflight.Group

	mu      sync.Mutex
	current *Snapshot
	gen     uint64
	version uint64
	cancel  context.CancelFunc
}

// Option configures a Holder.
type Option func(*Holder)

// WithBackoff sets the retry policy for fetches.
func WithBackoff(b resilience.Backoff) Option {
	return func(h *Holder) { h.backoff = b }
}

// WithQuery narrows the fetch.
func WithQuery(q store.Query) Option {
	return func(h *Holder) { h.query = q }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(h *Holder) { h.now = now }
}

// New returns an empty Holder for collection.
func New(src Fetcher, collection string, opts ...Option) *Holder {
	h := &Holder{
		src:        src,
		collection: collection,
		backoff:    resilience.DefaultBackoff(),
		now:        time.Now,
	}
	for _, o := range opts {
		o(h)
	}
	if h.backoff.Notify == nil {
		h.backoff.Notify = resilience.LogRetries("snapshot", "fetch "+collection)
	}
	return h
}

// Refresh fetches and normalizes the collection, then swaps it in. Any refresh still in
// flight is cancelled. On error the previous snapshot is kept.
func (h *Holder) Refresh(ctx context.Context) (*Snapshot, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	h.mu.Lock()
	if h.cancel != nil {
		h.cancel()
	}
	h.gen++
	gen := h.gen
	h.cancel = cancel
	h.mu.Unlock()

	raws, err := resilience.RetryValue(ctx, h.backoff, func(ctx context.Context) ([]model.RawRecord, error) {
		return h.src.FetchIncidents(ctx, h.collection, h.query)
	})

	h.mu.Lock()
	defer h.mu.Unlock()
	if gen != h.gen {
		return nil, ErrSuperseded
	}
	h.cancel = nil
	if err != nil {
		return nil, eris.Wrapf(err, "snapshot: refresh %s", h.collection)
	}

	snap := &Snapshot{
		Collection: h.collection,
		Records:    make([]model.IncidentRecord, 0, len(raws)),
		FetchedAt:  h.now(),
	}
	for _, raw := range raws {
		rec, issues := normalize.FromRaw(raw)
		for _, is := range issues {
			zap.L().Debug("normalized with defaults",
				zap.String("collection", h.collection),
				zap.String("id", raw.ID),
				zap.String("field", is.Field),
				zap.String("kind", string(is.Kind)),
			)
		}
		snap.Issues += len(issues)
		snap.Records = append(snap.Records, rec)
	}
	h.version++
	snap.Version = h.version
	h.current = snap
	return snap, nil
}

// Current returns the latest snapshot, or nil before the first successful refresh.
func (h *Holder) Current() *Snapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.current
}

// Records returns the current records. The slice must not be modified.
func (h *Holder) Records() []model.IncidentRecord {
	if s := h.Current(); s != nil {
		return s.Records
	}
	return nil
}

// Version increments on every swap. It is 0 before the first refresh.
func (h *Holder) Version() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.version
}

// Get returns the current snapshot, refreshing first when it is missing or older than maxAge.
// Concurrent callers share one refresh. A failed refresh falls back to the old snapshot when
// there is one.
func (h *Holder) Get(ctx context.Context, maxAge time.Duration) (*Snapshot, error) {
	cur := h.Current()
	if cur != nil && h.now().Sub(cur.FetchedAt) < maxAge {
		return cur, nil
	}
	snap, err := h.sharedRefresh(ctx)
	if err == nil {
		return snap, nil
	}
	if cur != nil {
		zap.L().Warn("serving previous snapshot", zap.String("collection", h.collection), zap.Error(err))
		return cur, nil
	}
	return nil, err
}

// sharedRefresh joins the refresh already started by another Get, or starts one. The shared
// fetch is detached from any single caller's cancellation; each caller stops waiting when its
// own ctx ends.
func (h *Holder) sharedRefresh(ctx context.Context) (*Snapshot, error) {
	ch := h.reads.DoChan("refresh", func() (any, error) {
		return h.Refresh(context.WithoutCancel(ctx))
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Snapshot), nil
	case <-ctx.Done():
		return nil, eris.Wrapf(ctx.Err(), "snapshot: wait for %s", h.collection)
	}
}

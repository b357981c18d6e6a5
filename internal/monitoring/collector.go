// Package monitoring watches the moderation backlog and the distress queue and raises
// alerts through a webhook when they need attention.
package monitoring

import (
	"context"
	"sort"
	"time"

	"github.com/rotisserie/eris"

	"github.com/listo-ph/listo/internal/model"
	"github.com/listo-ph/listo/internal/normalize"
	"github.com/listo-ph/listo/internal/store"
)

// MetricsSnapshot holds a point-in-time view of the queues admins work through.
type MetricsSnapshot struct {
	// Reports awaiting review.
	PendingReports     int     `json:"pending_reports" yaml:"pending_reports"`
	OldestPendingHours float64 `json:"oldest_pending_hours" yaml:"oldest_pending_hours"`

	// Crimes that occurred within the lookback window, by category.
	RecentCrimes     int            `json:"recent_crimes" yaml:"recent_crimes"`
	RecentByCategory map[string]int `json:"recent_by_category" yaml:"recent_by_category"`

	// Crimes without a known category; candidates for cleanup.
	UnknownCategory int `json:"unknown_category" yaml:"unknown_category"`

	DistressTotal          int `json:"distress_total" yaml:"distress_total"`
	DistressUnacknowledged int `json:"distress_unacknowledged" yaml:"distress_unacknowledged"`

	// Metadata.
	LookbackHours int       `json:"lookback_hours" yaml:"lookback_hours"`
	CollectedAt   time.Time `json:"collected_at" yaml:"collected_at"`
}

// Source is the subset of store.Store the collector reads.
type Source interface {
	FetchIncidents(ctx context.Context, collection string, q store.Query) ([]model.RawRecord, error)
	FetchDistress(ctx context.Context) ([]model.RawRecord, error)
}

// Collector gathers metrics from the store.
type Collector struct {
	src Source
	now func() time.Time
}

// NewCollector creates a new metrics collector.
func NewCollector(src Source) *Collector {
	return &Collector{src: src, now: time.Now}
}

// Collect gathers a snapshot of queue metrics over the given lookback window.
func (c *Collector) Collect(ctx context.Context, lookbackHours int) (*MetricsSnapshot, error) {
	now := c.now().UTC()
	snap := &MetricsSnapshot{
		RecentByCategory: map[string]int{},
		LookbackHours:    lookbackHours,
		CollectedAt:      now,
	}
	cutoff := now.Add(-time.Duration(lookbackHours) * time.Hour)

	pending := model.StatusPending
	reports, err := c.src.FetchIncidents(ctx, model.CollectionReports, store.Query{Status: &pending})
	if err != nil {
		return nil, eris.Wrap(err, "monitoring: fetch pending reports")
	}
	snap.PendingReports = len(reports)
	var oldest time.Time
	for _, raw := range reports {
		rec, _ := normalize.FromRaw(raw)
		at := rec.ReportedAt
		if at.IsZero() {
			at = rec.OccurredAt
		}
		if !at.IsZero() && (oldest.IsZero() || at.Before(oldest)) {
			oldest = at
		}
	}
	if !oldest.IsZero() {
		snap.OldestPendingHours = now.Sub(oldest).Hours()
	}

	crimes, err := c.src.FetchIncidents(ctx, model.CollectionCrimes, store.Query{})
	if err != nil {
		return nil, eris.Wrap(err, "monitoring: fetch crimes")
	}
	for _, raw := range crimes {
		rec, _ := normalize.FromRaw(raw)
		if !rec.Category.IsKnown() {
			snap.UnknownCategory++
		}
		if rec.HasDate() && !rec.OccurredAt.Before(cutoff) && !rec.OccurredAt.After(now) {
			snap.RecentCrimes++
			snap.RecentByCategory[string(rec.Category)]++
		}
	}

	signals, err := c.src.FetchDistress(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "monitoring: fetch distress")
	}
	snap.DistressTotal = len(signals)
	for _, raw := range signals {
		if !normalize.FromDistress(raw).Acknowledged {
			snap.DistressUnacknowledged++
		}
	}

	return snap, nil
}

// TopCategories returns the recent categories ordered by count, then name.
func (s *MetricsSnapshot) TopCategories() []string {
	out := make([]string, 0, len(s.RecentByCategory))
	for c := range s.RecentByCategory {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		ci, cj := s.RecentByCategory[out[i]], s.RecentByCategory[out[j]]
		if ci != cj {
			return ci > cj
		}
		return out[i] < out[j]
	})
	return out
}

// Package transfer imports crime spreadsheets into the store and exports filtered
// incident sets as CSV, XLSX or a PDF summary.
package transfer

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/listo-ph/listo/internal/model"
	"github.com/listo-ph/listo/internal/normalize"
	"github.com/listo-ph/listo/internal/sheet"
	"github.com/listo-ph/listo/internal/store"
	"github.com/listo-ph/listo/pkg/geocode"
)

// DefaultCoordinate is used for imported rows whose location cannot be resolved
// (Barangay Holy Spirit).
var DefaultCoordinate = model.Coordinate{Latitude: 14.6522, Longitude: 121.0633}

// RowError describes a skipped row.
type RowError struct {
	Line int    `json:"line"`
	Err  string `json:"error"`
}

// Summary counts the outcome of an import. Rows == Imported + Skipped.
type Summary struct {
	Rows      int        `json:"rows"`
	Imported  int        `json:"imported"`
	Skipped   int        `json:"skipped"`
	Geocoded  int        `json:"geocoded"`
	Defaulted int        `json:"defaulted"`
	Errors    []RowError `json:"errors,omitempty"`
}

// Importer converts spreadsheet rows into crimes.
type Importer struct {
	store       store.Store
	geo         geocode.Client
	concurrency int
	fallback    model.Coordinate
	loc         *time.Location
	now         func() time.Time
	collection  string
	dryRun      bool
}

// ImportOption configures an Importer.
type ImportOption func(*Importer)

// WithGeocoder resolves rows that carry a location but no coordinate.
func WithGeocoder(g geocode.Client) ImportOption {
	return func(i *Importer) { i.geo = g }
}

// WithConcurrency bounds the number of rows processed at once.
func WithConcurrency(n int) ImportOption {
	return func(i *Importer) {
		if n > 0 {
			i.concurrency = n
		}
	}
}

// WithFallback overrides DefaultCoordinate.
func WithFallback(c model.Coordinate) ImportOption {
	return func(i *Importer) { i.fallback = c }
}

// WithLocation sets the zone spreadsheet times are read in.
func WithLocation(loc *time.Location) ImportOption {
	return func(i *Importer) {
		if loc != nil {
			i.loc = loc
		}
	}
}

// WithClock overrides time.Now for defaulted times.
func WithClock(now func() time.Time) ImportOption {
	return func(i *Importer) { i.now = now }
}

// WithDryRun converts and counts rows without writing them.
func WithDryRun(dry bool) ImportOption {
	return func(i *Importer) { i.dryRun = dry }
}

// NewImporter returns an Importer writing into the crimes collection of st.
func NewImporter(st store.Store, opts ...ImportOption) *Importer {
	i := &Importer{
		store:       st,
		concurrency: 4,
		fallback:    DefaultCoordinate,
		loc:         model.DefaultLocation,
		now:         time.Now,
		collection:  model.CollectionCrimes,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

type rowResult struct {
	rec       model.IncidentRecord
	err       error
	geocoded  bool
	defaulted bool
}

// Import converts rows and stores the successful ones in one batch. Malformed rows are
// skipped and reported in the summary. Rows keep their input order.
func (i *Importer) Import(ctx context.Context, rows []sheet.Row) (Summary, error) {
	sum := Summary{Rows: len(rows)}
	results := make([]rowResult, len(rows))
	now := i.now()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(i.concurrency)
	for idx, row := range rows {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[idx] = i.convert(gctx, row, now)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return sum, eris.Wrap(err, "transfer: import")
	}

	recs := make([]model.IncidentRecord, 0, len(rows))
	for idx, res := range results {
		if res.err != nil {
			sum.Skipped++
			sum.Errors = append(sum.Errors, RowError{Line: rows[idx].Line, Err: res.err.Error()})
			zap.L().Debug("transfer: row skipped", zap.Int("line", rows[idx].Line), zap.Error(res.err))
			continue
		}
		if res.geocoded {
			sum.Geocoded++
		}
		if res.defaulted {
			sum.Defaulted++
		}
		recs = append(recs, res.rec)
	}

	if !i.dryRun && len(recs) > 0 {
		if _, err := i.store.InsertIncidents(ctx, i.collection, recs); err != nil {
			return sum, eris.Wrap(err, "transfer: store imported rows")
		}
	}
	sum.Imported = len(recs)

	zap.L().Info("transfer: import complete",
		zap.Int("rows", sum.Rows),
		zap.Int("imported", sum.Imported),
		zap.Int("skipped", sum.Skipped),
		zap.Int("geocoded", sum.Geocoded),
		zap.Int("defaulted", sum.Defaulted),
		zap.Bool("dry_run", i.dryRun),
	)
	return sum, nil
}

func (i *Importer) convert(ctx context.Context, row sheet.Row, now time.Time) rowResult {
	raw, issues, err := normalize.FromRow(row.Values, now, i.loc)
	if err != nil {
		return rowResult{err: err}
	}
	for _, is := range issues {
		zap.L().Debug("transfer: row defaulted", zap.Int("line", row.Line), zap.String("field", is.Field), zap.String("kind", string(is.Kind)))
	}

	var res rowResult
	if !normalize.HasCoordinate(raw) {
		pt := i.resolve(ctx, row)
		if pt != nil {
			raw.Fields[normalize.FieldCoordinate] = *pt
			res.geocoded = true
		} else {
			raw.Fields[normalize.FieldCoordinate] = i.fallback
			res.defaulted = true
			zap.L().Warn("transfer: using default coordinate", zap.Int("line", row.Line), zap.String("location", row.Get(normalize.ColumnLocation)))
		}
	}

	res.rec, _ = normalize.FromRaw(raw)
	return res
}

// resolve geocodes the row location. Errors degrade to nil.
func (i *Importer) resolve(ctx context.Context, row sheet.Row) *model.Coordinate {
	loc := row.Get(normalize.ColumnLocation)
	if i.geo == nil || loc == "" {
		return nil
	}
	pt, err := i.geo.Geocode(ctx, loc)
	if err != nil {
		zap.L().Warn("transfer: geocode failed", zap.Int("line", row.Line), zap.String("location", loc), zap.Error(err))
		return nil
	}
	return pt
}

// Package store persists incident and distress documents.
//
// Reads return model.RawRecord so every record passes through internal/normalize on its way
// into a snapshot, whichever backend produced it.
package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/listo-ph/listo/internal/model"
	"github.com/listo-ph/listo/internal/normalize"
)

var (
	// ErrNotFound is returned when no record matches the collection and id.
	ErrNotFound = eris.New("store: not found")
	// ErrUnknownCollection is returned for collection names other than reports, crimes and archives.
	ErrUnknownCollection = eris.New("store: unknown collection")
)

// Store is the incident store used by the snapshot, moderation and transfer packages.
type Store interface {
	FetchIncidents(ctx context.Context, collection string, q Query) ([]model.RawRecord, error)
	GetIncident(ctx context.Context, collection, id string) (model.RawRecord, error)
	InsertIncident(ctx context.Context, collection string, rec model.IncidentRecord) (string, error)
	InsertIncidents(ctx context.Context, collection string, recs []model.IncidentRecord) (int64, error)
	UpdateIncident(ctx context.Context, collection string, rec model.IncidentRecord) error
	SetStatus(ctx context.Context, collection, id string, status model.Status) error
	// CopyIncident sets the status of id in from and writes a copy with that status into to.
	CopyIncident(ctx context.Context, from, to, id string, status model.Status) error
	DeleteIncident(ctx context.Context, collection, id string) error
	DeleteByCategory(ctx context.Context, collection string, category model.Category) (int64, error)

	FetchDistress(ctx context.Context) ([]model.RawRecord, error)
	InsertDistress(ctx context.Context, d model.DistressRecord) (string, error)
	AcknowledgeDistress(ctx context.Context, id string) error

	Ping(ctx context.Context) error
	Migrate(ctx context.Context) error
	Close() error
}

// Query narrows FetchIncidents. Zero fields do not restrict.
type Query struct {
	Status   *model.Status
	OwnerID  string
	Category model.Category
	Limit    int
}

// CheckCollection returns ErrUnknownCollection unless name holds incident documents.
func CheckCollection(name string) error {
	switch name {
	case model.CollectionReports, model.CollectionCrimes, model.CollectionArchives:
		return nil
	}
	return eris.Wrapf(ErrUnknownCollection, "%q", name)
}

// Open returns the store for driver ("sqlite" or "postgres").
func Open(ctx context.Context, driver, dsn string) (Store, error) {
	switch driver {
	case "sqlite", "":
		return NewSQLite(dsn)
	case "postgres":
		return NewPostgres(ctx, dsn)
	}
	return nil, eris.Errorf("store: unknown driver %q", driver)
}

const incidentColumns = `id, category, location, latitude, longitude, occurred_at, reported_at, additional_info, status, owner_id, reporter_name, reporter_phone, image_url`

// where builds the filter clause; ph renders the n-th (1-based) placeholder.
func (q Query) where(collection string, ph func(n int) string) (string, []any) {
	clauses := []string{"collection = " + ph(1)}
	args := []any{collection}
	add := func(col string, v any) {
		args = append(args, v)
		clauses = append(clauses, fmt.Sprintf("%s = %s", col, ph(len(args))))
	}
	if q.Status != nil {
		add("status", int(*q.Status))
	}
	if q.OwnerID != "" {
		add("owner_id", q.OwnerID)
	}
	if q.Category != "" {
		add("category", string(q.Category))
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

type scannable interface {
	Scan(dest ...any) error
}

// incidentRow mirrors incidentColumns. Pointer fields are NULL-able.
type incidentRow struct {
	id, category, location    string
	lat, lng                  *float64
	occurredAt, reportedAt    *time.Time
	info                      string
	status                    int
	owner, name, phone, image string
}

func scanIncident(s scannable) (incidentRow, error) {
	var r incidentRow
	err := s.Scan(&r.id, &r.category, &r.location, &r.lat, &r.lng, &r.occurredAt, &r.reportedAt,
		&r.info, &r.status, &r.owner, &r.name, &r.phone, &r.image)
	return r, err
}

func (r incidentRow) raw() model.RawRecord {
	f := map[string]any{
		normalize.FieldCategory:       r.category,
		normalize.FieldLocation:       r.location,
		normalize.FieldAdditionalInfo: r.info,
		normalize.FieldStatus:         r.status,
		normalize.FieldUID:            r.owner,
		normalize.FieldName:           r.name,
		normalize.FieldPhone:          r.phone,
		normalize.FieldImage:          r.image,
	}
	if r.lat != nil && r.lng != nil {
		f[normalize.FieldCoordinate] = model.Coordinate{Latitude: *r.lat, Longitude: *r.lng}
	}
	if r.occurredAt != nil {
		f[normalize.FieldTimeOfCrime] = *r.occurredAt
	}
	if r.reportedAt != nil {
		f[normalize.FieldTimeReported] = *r.reportedAt
	}
	return model.RawRecord{ID: r.id, Fields: f}
}

// incidentArgs returns values for incidentColumns minus id.
func incidentArgs(rec model.IncidentRecord) []any {
	var lat, lng any
	if !rec.Coordinate.IsZero() {
		lat, lng = rec.Coordinate.Latitude, rec.Coordinate.Longitude
	}
	return []any{
		string(rec.Category), rec.Location, lat, lng,
		nullTime(rec.OccurredAt), nullTime(rec.ReportedAt),
		rec.AdditionalInfo, int(rec.Status), rec.OwnerID,
		rec.ReporterName, rec.ReporterPhone, rec.ImageURL,
	}
}

func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC()
}

const distressColumns = `id, acknowledged, add_info, barangay, address, fire, crime, injury, latitude, longitude, raised_at`

func scanDistress(s scannable) (model.RawRecord, error) {
	var (
		id, info, barangay, address string
		ack, fire, crime, injury    bool
		lat, lng                    *float64
		raised                      *time.Time
	)
	if err := s.Scan(&id, &ack, &info, &barangay, &address, &fire, &crime, &injury, &lat, &lng, &raised); err != nil {
		return model.RawRecord{}, err
	}
	f := map[string]any{
		normalize.FieldAcknowledged:  ack,
		normalize.FieldAddInfo:       info,
		normalize.FieldBarangay:      barangay,
		normalize.FieldAddress:       address,
		normalize.FieldEmergencyType: model.EmergencyType{Fire: fire, Crime: crime, Injury: injury},
	}
	if lat != nil && lng != nil {
		f[normalize.FieldCoordinate] = model.Coordinate{Latitude: *lat, Longitude: *lng}
	}
	if raised != nil {
		f[normalize.FieldTimestamp] = *raised
	}
	return model.RawRecord{ID: id, Fields: f}, nil
}

func distressArgs(d model.DistressRecord) []any {
	var lat, lng any
	if !d.Coordinate.IsZero() {
		lat, lng = d.Coordinate.Latitude, d.Coordinate.Longitude
	}
	return []any{
		d.Acknowledged, d.AdditionalInfo, d.Barangay, d.Address,
		d.EmergencyType.Fire, d.EmergencyType.Crime, d.EmergencyType.Injury,
		lat, lng, nullTime(d.Timestamp),
	}
}

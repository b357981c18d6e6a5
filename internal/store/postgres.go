package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rotisserie/eris"

	"github.com/listo-ph/listo/internal/db"
	"github.com/listo-ph/listo/internal/model"
)

// PostgresStore implements Store on a pgx pool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// NewPostgres connects to url and returns a store owning the pool.
func NewPostgres(ctx context.Context, url string) (*PostgresStore, error) {
	pool, err := db.Connect(ctx, url, db.PoolConfig{})
	if err != nil {
		return nil, eris.Wrap(err, "postgres: connect")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresWithPool wraps an existing pool. Close does not close it.
func NewPostgresWithPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func pgPlaceholder(n int) string { return "$" + strconv.Itoa(n) }

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	return eris.Wrap(db.Migrate(ctx, s.pool), "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) FetchIncidents(ctx context.Context, collection string, q Query) ([]model.RawRecord, error) {
	if err := CheckCollection(collection); err != nil {
		return nil, err
	}
	where, args := q.where(collection, pgPlaceholder)
	query := `SELECT ` + incidentColumns + ` FROM incidents` + where + ` ORDER BY seq`
	if q.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", q.Limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: fetch %s", collection)
	}
	defer rows.Close()

	var out []model.RawRecord
	for rows.Next() {
		r, err := scanIncident(rows)
		if err != nil {
			return nil, eris.Wrapf(err, "postgres: scan %s", collection)
		}
		out = append(out, r.raw())
	}
	return out, eris.Wrapf(rows.Err(), "postgres: iterate %s", collection)
}

func (s *PostgresStore) GetIncident(ctx context.Context, collection, id string) (model.RawRecord, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+incidentColumns+` FROM incidents WHERE collection = $1 AND id = $2`, collection, id)
	r, err := scanIncident(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.RawRecord{}, eris.Wrapf(ErrNotFound, "%s/%s", collection, id)
	}
	if err != nil {
		return model.RawRecord{}, eris.Wrapf(err, "postgres: get %s/%s", collection, id)
	}
	return r.raw(), nil
}

const pgInsertIncident = `INSERT INTO incidents (collection, ` + incidentColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

func (s *PostgresStore) InsertIncident(ctx context.Context, collection string, rec model.IncidentRecord) (string, error) {
	if err := CheckCollection(collection); err != nil {
		return "", err
	}
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	args := append([]any{collection, rec.ID}, incidentArgs(rec)...)
	if _, err := s.pool.Exec(ctx, pgInsertIncident, args...); err != nil {
		return "", eris.Wrapf(err, "postgres: insert %s", collection)
	}
	return rec.ID, nil
}

var copyIncidentColumns = []string{
	"collection", "id", "category", "location", "latitude", "longitude", "occurred_at", "reported_at",
	"additional_info", "status", "owner_id", "reporter_name", "reporter_phone", "image_url",
}

// InsertIncidents uses COPY; records without an id get a fresh uuid.
func (s *PostgresStore) InsertIncidents(ctx context.Context, collection string, recs []model.IncidentRecord) (int64, error) {
	if err := CheckCollection(collection); err != nil {
		return 0, err
	}
	rows := make([][]any, 0, len(recs))
	for _, rec := range recs {
		if rec.ID == "" {
			rec.ID = uuid.New().String()
		}
		rows = append(rows, append([]any{collection, rec.ID}, incidentArgs(rec)...))
	}
	n, err := db.CopyFrom(ctx, s.pool, "incidents", copyIncidentColumns, rows)
	return n, eris.Wrapf(err, "postgres: bulk insert %s", collection)
}

func (s *PostgresStore) UpdateIncident(ctx context.Context, collection string, rec model.IncidentRecord) error {
	args := append(incidentArgs(rec), collection, rec.ID)
	tag, err := s.pool.Exec(ctx, `UPDATE incidents SET
		category = $1, location = $2, latitude = $3, longitude = $4, occurred_at = $5, reported_at = $6,
		additional_info = $7, status = $8, owner_id = $9, reporter_name = $10, reporter_phone = $11, image_url = $12
		WHERE collection = $13 AND id = $14`, args...)
	if err != nil {
		return eris.Wrapf(err, "postgres: update %s/%s", collection, rec.ID)
	}
	return checkTag(tag, collection, rec.ID)
}

func (s *PostgresStore) SetStatus(ctx context.Context, collection, id string, status model.Status) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE incidents SET status = $1 WHERE collection = $2 AND id = $3`, int(status), collection, id)
	if err != nil {
		return eris.Wrapf(err, "postgres: set status %s/%s", collection, id)
	}
	return checkTag(tag, collection, id)
}

func (s *PostgresStore) CopyIncident(ctx context.Context, from, to, id string, status model.Status) error {
	if err := CheckCollection(to); err != nil {
		return err
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin copy")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	tag, err := tx.Exec(ctx,
		`UPDATE incidents SET status = $1 WHERE collection = $2 AND id = $3`, int(status), from, id)
	if err != nil {
		return eris.Wrapf(err, "postgres: copy set status %s/%s", from, id)
	}
	if err := checkTag(tag, from, id); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx,
		`INSERT INTO incidents (collection, `+incidentColumns+`)
		 SELECT $1, `+incidentColumns+` FROM incidents WHERE collection = $2 AND id = $3
		 ON CONFLICT (collection, id) DO UPDATE SET status = EXCLUDED.status`,
		to, from, id); err != nil {
		return eris.Wrapf(err, "postgres: copy %s/%s to %s", from, id, to)
	}
	return eris.Wrap(tx.Commit(ctx), "postgres: commit copy")
}

func (s *PostgresStore) DeleteIncident(ctx context.Context, collection, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM incidents WHERE collection = $1 AND id = $2`, collection, id)
	if err != nil {
		return eris.Wrapf(err, "postgres: delete %s/%s", collection, id)
	}
	return checkTag(tag, collection, id)
}

func (s *PostgresStore) DeleteByCategory(ctx context.Context, collection string, category model.Category) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM incidents WHERE collection = $1 AND category = $2`, collection, string(category))
	if err != nil {
		return 0, eris.Wrapf(err, "postgres: delete %s in %s", category, collection)
	}
	return tag.RowsAffected(), nil
}

func (s *PostgresStore) FetchDistress(ctx context.Context) ([]model.RawRecord, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+distressColumns+` FROM distress ORDER BY seq`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: fetch distress")
	}
	defer rows.Close()

	var out []model.RawRecord
	for rows.Next() {
		raw, err := scanDistress(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan distress")
		}
		out = append(out, raw)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate distress")
}

func (s *PostgresStore) InsertDistress(ctx context.Context, d model.DistressRecord) (string, error) {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	args := append([]any{d.ID}, distressArgs(d)...)
	_, err := s.pool.Exec(ctx,
		`INSERT INTO distress (`+distressColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`, args...)
	if err != nil {
		return "", eris.Wrap(err, "postgres: insert distress")
	}
	return d.ID, nil
}

func (s *PostgresStore) AcknowledgeDistress(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `UPDATE distress SET acknowledged = true WHERE id = $1`, id)
	if err != nil {
		return eris.Wrapf(err, "postgres: acknowledge distress %s", id)
	}
	return checkTag(tag, model.CollectionDistress, id)
}

func checkTag(tag pgconn.CommandTag, collection, id string) error {
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "%s/%s", collection, id)
	}
	return nil
}

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/listo-ph/listo/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at dsn and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS incidents (
	collection      TEXT NOT NULL,
	id              TEXT NOT NULL,
	category        TEXT NOT NULL DEFAULT 'unknown',
	location        TEXT NOT NULL DEFAULT '',
	latitude        REAL,
	longitude       REAL,
	occurred_at     DATETIME,
	reported_at     DATETIME,
	additional_info TEXT NOT NULL DEFAULT '',
	status          INTEGER NOT NULL DEFAULT 1,
	owner_id        TEXT NOT NULL DEFAULT '',
	reporter_name   TEXT NOT NULL DEFAULT '',
	reporter_phone  TEXT NOT NULL DEFAULT '',
	image_url       TEXT NOT NULL DEFAULT '',
	created_at      DATETIME NOT NULL DEFAULT (datetime('now')),
	PRIMARY KEY (collection, id)
);

CREATE INDEX IF NOT EXISTS idx_incidents_status ON incidents(collection, status);
CREATE INDEX IF NOT EXISTS idx_incidents_owner ON incidents(collection, owner_id);

CREATE TABLE IF NOT EXISTS distress (
	id           TEXT PRIMARY KEY,
	acknowledged BOOLEAN NOT NULL DEFAULT 0,
	add_info     TEXT NOT NULL DEFAULT '',
	barangay     TEXT NOT NULL DEFAULT '',
	address      TEXT NOT NULL DEFAULT '',
	fire         BOOLEAN NOT NULL DEFAULT 0,
	crime        BOOLEAN NOT NULL DEFAULT 0,
	injury       BOOLEAN NOT NULL DEFAULT 0,
	latitude     REAL,
	longitude    REAL,
	raised_at    DATETIME
);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.db.PingContext(ctx), "sqlite: ping")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func sqlitePlaceholder(int) string { return "?" }

func (s *SQLiteStore) FetchIncidents(ctx context.Context, collection string, q Query) ([]model.RawRecord, error) {
	if err := CheckCollection(collection); err != nil {
		return nil, err
	}
	where, args := q.where(collection, sqlitePlaceholder)
	query := `SELECT ` + incidentColumns + ` FROM incidents` + where + ` ORDER BY rowid`
	if q.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", q.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: fetch %s", collection)
	}
	defer rows.Close() //nolint:errcheck

	var out []model.RawRecord
	for rows.Next() {
		r, err := scanIncident(rows)
		if err != nil {
			return nil, eris.Wrapf(err, "sqlite: scan %s", collection)
		}
		out = append(out, r.raw())
	}
	return out, eris.Wrapf(rows.Err(), "sqlite: iterate %s", collection)
}

func (s *SQLiteStore) GetIncident(ctx context.Context, collection, id string) (model.RawRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+incidentColumns+` FROM incidents WHERE collection = ? AND id = ?`, collection, id)
	r, err := scanIncident(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.RawRecord{}, eris.Wrapf(ErrNotFound, "%s/%s", collection, id)
	}
	if err != nil {
		return model.RawRecord{}, eris.Wrapf(err, "sqlite: get %s/%s", collection, id)
	}
	return r.raw(), nil
}

const sqliteInsertIncident = `INSERT INTO incidents (collection, ` + incidentColumns + `)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

func (s *SQLiteStore) InsertIncident(ctx context.Context, collection string, rec model.IncidentRecord) (string, error) {
	if err := CheckCollection(collection); err != nil {
		return "", err
	}
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	args := append([]any{collection, rec.ID}, incidentArgs(rec)...)
	if _, err := s.db.ExecContext(ctx, sqliteInsertIncident, args...); err != nil {
		return "", eris.Wrapf(err, "sqlite: insert %s", collection)
	}
	return rec.ID, nil
}

func (s *SQLiteStore) InsertIncidents(ctx context.Context, collection string, recs []model.IncidentRecord) (int64, error) {
	if err := CheckCollection(collection); err != nil {
		return 0, err
	}
	if len(recs) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin batch insert")
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, sqliteInsertIncident)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prepare batch insert")
	}
	defer stmt.Close() //nolint:errcheck

	for _, rec := range recs {
		if rec.ID == "" {
			rec.ID = uuid.New().String()
		}
		args := append([]any{collection, rec.ID}, incidentArgs(rec)...)
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return 0, eris.Wrapf(err, "sqlite: batch insert %s", rec.ID)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit batch insert")
	}
	return int64(len(recs)), nil
}

func (s *SQLiteStore) UpdateIncident(ctx context.Context, collection string, rec model.IncidentRecord) error {
	args := append(incidentArgs(rec), collection, rec.ID)
	res, err := s.db.ExecContext(ctx, `UPDATE incidents SET
		category = ?, location = ?, latitude = ?, longitude = ?, occurred_at = ?, reported_at = ?,
		additional_info = ?, status = ?, owner_id = ?, reporter_name = ?, reporter_phone = ?, image_url = ?
		WHERE collection = ? AND id = ?`, args...)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update %s/%s", collection, rec.ID)
	}
	return checkRowsAffected(res, collection, rec.ID)
}

func (s *SQLiteStore) SetStatus(ctx context.Context, collection, id string, status model.Status) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE incidents SET status = ? WHERE collection = ? AND id = ?`, int(status), collection, id)
	if err != nil {
		return eris.Wrapf(err, "sqlite: set status %s/%s", collection, id)
	}
	return checkRowsAffected(res, collection, id)
}

func (s *SQLiteStore) CopyIncident(ctx context.Context, from, to, id string, status model.Status) error {
	if err := CheckCollection(to); err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin copy")
	}
	defer tx.Rollback() //nolint:errcheck

	res, err := tx.ExecContext(ctx,
		`UPDATE incidents SET status = ? WHERE collection = ? AND id = ?`, int(status), from, id)
	if err != nil {
		return eris.Wrapf(err, "sqlite: copy set status %s/%s", from, id)
	}
	if err := checkRowsAffected(res, from, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM incidents WHERE collection = ? AND id = ?`, to, id); err != nil {
		return eris.Wrapf(err, "sqlite: copy clear %s/%s", to, id)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO incidents (collection, `+incidentColumns+`)
		 SELECT ?, `+incidentColumns+` FROM incidents WHERE collection = ? AND id = ?`,
		to, from, id); err != nil {
		return eris.Wrapf(err, "sqlite: copy %s/%s to %s", from, id, to)
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit copy")
}

func (s *SQLiteStore) DeleteIncident(ctx context.Context, collection, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM incidents WHERE collection = ? AND id = ?`, collection, id)
	if err != nil {
		return eris.Wrapf(err, "sqlite: delete %s/%s", collection, id)
	}
	return checkRowsAffected(res, collection, id)
}

func (s *SQLiteStore) DeleteByCategory(ctx context.Context, collection string, category model.Category) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM incidents WHERE collection = ? AND category = ?`, collection, string(category))
	if err != nil {
		return 0, eris.Wrapf(err, "sqlite: delete %s in %s", category, collection)
	}
	n, err := res.RowsAffected()
	return n, eris.Wrap(err, "sqlite: rows affected")
}

func (s *SQLiteStore) FetchDistress(ctx context.Context) ([]model.RawRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+distressColumns+` FROM distress ORDER BY rowid`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: fetch distress")
	}
	defer rows.Close() //nolint:errcheck

	var out []model.RawRecord
	for rows.Next() {
		raw, err := scanDistress(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan distress")
		}
		out = append(out, raw)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate distress")
}

func (s *SQLiteStore) InsertDistress(ctx context.Context, d model.DistressRecord) (string, error) {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	args := append([]any{d.ID}, distressArgs(d)...)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO distress (`+distressColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, args...)
	if err != nil {
		return "", eris.Wrap(err, "sqlite: insert distress")
	}
	return d.ID, nil
}

func (s *SQLiteStore) AcknowledgeDistress(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE distress SET acknowledged = 1 WHERE id = ?`, id)
	if err != nil {
		return eris.Wrapf(err, "sqlite: acknowledge distress %s", id)
	}
	return checkRowsAffected(res, model.CollectionDistress, id)
}

func checkRowsAffected(res sql.Result, collection, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return eris.Wrapf(ErrNotFound, "%s/%s", collection, id)
	}
	return nil
}

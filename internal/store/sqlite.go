// Package store persists oracle-confirmed corrections across runs, so a
// re-run on unchanged inputs never consults the oracle for an entity it has
// already answered.
package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/ip-landscape/recon-cli/internal/model"
)

// ResolutionStore is a SQLite-backed resolution cache.
type ResolutionStore struct {
	db *sql.DB
}

// Open opens (creating if needed) the resolution cache at the given path and
// configures WAL mode.
func Open(dsn string) (*ResolutionStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "store: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "store: exec %s", pragma)
		}
	}
	return &ResolutionStore{db: db}, nil
}

const migration = `
CREATE TABLE IF NOT EXISTS resolutions (
	id          TEXT PRIMARY KEY,
	entity_key  TEXT NOT NULL UNIQUE,
	entity_name TEXT NOT NULL,
	country     TEXT NOT NULL,
	source      TEXT NOT NULL,
	resolved_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_resolutions_country ON resolutions(country);
`

// Migrate creates the cache schema.
func (s *ResolutionStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, migration)
	return eris.Wrap(err, "store: migrate")
}

// Close releases the database handle.
func (s *ResolutionStore) Close() error {
	return s.db.Close()
}

// Get returns the cached country for an entity, if any.
func (s *ResolutionStore) Get(ctx context.Context, entityName string) (string, bool, error) {
	var country string
	err := s.db.QueryRowContext(ctx,
		`SELECT country FROM resolutions WHERE entity_key = ?`,
		model.Key(entityName),
	).Scan(&country)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, eris.Wrapf(err, "store: get %q", entityName)
	}
	return country, true, nil
}

// Put records a resolved country for an entity. First write wins: an entity
// already present keeps its existing country.
func (s *ResolutionStore) Put(ctx context.Context, entityName, country, source string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO resolutions (id, entity_key, entity_name, country, source, resolved_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(entity_key) DO NOTHING`,
		uuid.New().String(), model.Key(entityName), entityName, country, source, time.Now().UTC(),
	)
	return eris.Wrapf(err, "store: put %q", entityName)
}

// Stats describes the cache contents.
type Stats struct {
	Entries  int
	BySource map[string]int
}

// Stats summarizes the cache.
func (s *ResolutionStore) Stats(ctx context.Context) (*Stats, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT source, COUNT(*) FROM resolutions GROUP BY source`)
	if err != nil {
		return nil, eris.Wrap(err, "store: stats")
	}
	defer rows.Close()

	st := &Stats{BySource: map[string]int{}}
	for rows.Next() {
		var source string
		var n int
		if err := rows.Scan(&source, &n); err != nil {
			return nil, eris.Wrap(err, "store: scan stats row")
		}
		st.BySource[source] = n
		st.Entries += n
	}
	return st, eris.Wrap(rows.Err(), "store: stats rows")
}

// Purge deletes all cached resolutions and returns how many were removed.
func (s *ResolutionStore) Purge(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM resolutions`)
	if err != nil {
		return 0, eris.Wrap(err, "store: purge")
	}
	n, err := res.RowsAffected()
	return int(n), eris.Wrap(err, "store: purge rows affected")
}

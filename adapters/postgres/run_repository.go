package postgres

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"replipack/domain/artefact"
	"replipack/domain/core"
	"replipack/domain/verdict"
	"replipack/internal/errors"
	"replipack/ports"
)

// RunRepositoryImpl implements the run ledger for PostgreSQL
type RunRepositoryImpl struct {
	db *sqlx.DB
}

// Connect opens the ledger database.
func Connect(url string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", url)
	if err != nil {
		return nil, errors.DatabaseError("failed to connect to run ledger", err)
	}
	db.SetMaxOpenConns(4)
	db.SetConnMaxLifetime(time.Hour)
	return db, nil
}

// NewRunRepository creates a PostgreSQL run repository
func NewRunRepository(db *sqlx.DB) *RunRepositoryImpl {
	return &RunRepositoryImpl{db: db}
}

var _ ports.RunRepository = (*RunRepositoryImpl)(nil)

// Migrate creates the ledger schema if it does not exist.
func (r *RunRepositoryImpl) Migrate(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			kit_version TEXT NOT NULL,
			seed BIGINT NOT NULL,
			fingerprint TEXT NOT NULL,
			manifest JSONB NOT NULL,
			verdict TEXT,
			verdict_details JSONB,
			created_at TIMESTAMPTZ NOT NULL
		)
	`)
	if err != nil {
		return errors.DatabaseError("failed to migrate run ledger", err)
	}
	return nil
}

// RecordRun stores a run manifest.
func (r *RunRepositoryImpl) RecordRun(ctx context.Context, m *artefact.RunManifest) error {
	raw, err := json.Marshal(m)
	if err != nil {
		return errors.Wrap(err, "failed to encode run manifest")
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO runs (id, kit_version, seed, fingerprint, manifest, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET manifest = EXCLUDED.manifest
	`, m.RunID.String(), m.KitVersion, m.Seed, m.Fingerprint.Fingerprint.String(), raw, m.CreatedAt.Time())

	if err != nil {
		return errors.DatabaseError("failed to record run", err)
	}
	return nil
}

// RecordVerdict attaches a verdict to a recorded run.
func (r *RunRepositoryImpl) RecordVerdict(ctx context.Context, runID core.RunID, v verdict.Verdict) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return errors.Wrap(err, "failed to encode verdict")
	}

	_, err = r.db.ExecContext(ctx, `
		UPDATE runs SET verdict = $2, verdict_details = $3 WHERE id = $1
	`, runID.String(), string(v.Status), raw)

	if err != nil {
		return errors.DatabaseError("failed to record verdict", err)
	}
	return nil
}

// GetRun retrieves a run manifest by id.
func (r *RunRepositoryImpl) GetRun(ctx context.Context, runID core.RunID) (*artefact.RunManifest, error) {
	var raw []byte
	err := r.db.GetContext(ctx, &raw, `SELECT manifest FROM runs WHERE id = $1`, runID.String())
	if err != nil {
		return nil, errors.DatabaseError("failed to load run", err)
	}

	var m artefact.RunManifest
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, errors.Wrap(err, "failed to decode run manifest")
	}
	return &m, nil
}

// ListRuns returns the most recent runs.
func (r *RunRepositoryImpl) ListRuns(ctx context.Context, limit int) ([]*artefact.RunManifest, error) {
	var rows [][]byte
	err := r.db.SelectContext(ctx, &rows, `
		SELECT manifest FROM runs ORDER BY created_at DESC LIMIT $1
	`, limit)
	if err != nil {
		return nil, errors.DatabaseError("failed to list runs", err)
	}

	out := make([]*artefact.RunManifest, 0, len(rows))
	for _, raw := range rows {
		var m artefact.RunManifest
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil, errors.Wrap(err, "failed to decode run manifest")
		}
		out = append(out, &m)
	}
	return out, nil
}

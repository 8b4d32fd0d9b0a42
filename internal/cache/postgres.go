package cache

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS translation_memory (
	hash        TEXT PRIMARY KEY,
	source_lang TEXT NOT NULL,
	target_lang TEXT NOT NULL,
	source      TEXT NOT NULL,
	translated  TEXT NOT NULL,
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// PostgresStore keeps translation memory in PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a store and ensures its table exists.
func NewPostgresStore(ctx context.Context, pool *pgxpool.Pool) (*PostgresStore, error) {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return nil, fmt.Errorf("ensure translation_memory table: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Get(ctx context.Context, hash string) (string, bool, error) {
	var translated string
	err := s.pool.QueryRow(ctx, `SELECT translated FROM translation_memory WHERE hash = $1`, hash).Scan(&translated)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("query translation memory: %w", err)
	}
	return translated, true, nil
}

func (s *PostgresStore) Upsert(ctx context.Context, rec Record) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO translation_memory (hash, source_lang, target_lang, source, translated)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (hash) DO UPDATE SET translated = EXCLUDED.translated, updated_at = now()`,
		rec.Hash, rec.From, rec.To, rec.Source, rec.Translated)
	if err != nil {
		return fmt.Errorf("upsert translation memory: %w", err)
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context) ([]Record, error) {
	rows, err := s.pool.Query(ctx, `SELECT hash, source_lang, target_lang, source, translated FROM translation_memory`)
	if err != nil {
		return nil, fmt.Errorf("list translation memory: %w", err)
	}

	records, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Record, error) {
		var r Record
		err := row.Scan(&r.Hash, &r.From, &r.To, &r.Source, &r.Translated)
		return r, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan translation memory: %w", err)
	}
	return records, nil
}

package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"schoolpay/pkg/utils"
)

// PostgresStore keeps the snapshot as a JSONB row keyed by name.
//
// Table:
//
//	console_state(name TEXT PRIMARY KEY, payload JSONB NOT NULL, updated_at TIMESTAMPTZ NOT NULL)
type PostgresStore struct {
	db   *sql.DB
	name string
}

func NewPostgresStore(db *sql.DB, name string) (*PostgresStore, error) {
	if db == nil {
		return nil, errors.New("session: db is nil")
	}
	if name == "" {
		return nil, errors.New("session: snapshot name is required")
	}
	return &PostgresStore{db: db, name: name}, nil
}

// EnsureSchema creates the backing table if it does not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	const q = `
CREATE TABLE IF NOT EXISTS console_state (
	name       TEXT PRIMARY KEY,
	payload    JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)
`
	if _, err := s.db.ExecContext(ctx, q); err != nil {
		return fmt.Errorf("session: ensure schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Load(ctx context.Context) ([]byte, error) {
	const q = `SELECT payload FROM console_state WHERE name = $1`

	var payload []byte
	if err := s.db.QueryRowContext(ctx, q, s.name).Scan(&payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("session: load %s: %w", s.name, err)
	}
	return payload, nil
}

func (s *PostgresStore) Save(ctx context.Context, payload []byte) error {
	const q = `
INSERT INTO console_state (name, payload, updated_at)
VALUES ($1, $2::jsonb, now())
ON CONFLICT (name) DO UPDATE SET payload = EXCLUDED.payload, updated_at = EXCLUDED.updated_at
`
	err := utils.WithTx(ctx, s.db, nil, func(ctx context.Context, tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, q, s.name, string(payload))
		return err
	})
	if err != nil {
		return fmt.Errorf("session: save %s: %w", s.name, err)
	}
	return nil
}

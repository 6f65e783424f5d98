package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dioinnovo/voicelead/internal/dialogue"
)

// PostgresStore checkpoints dialogue state in PostgreSQL for deployments
// that need history to survive restarts. State is stored as a JSONB blob
// keyed by session; expired rows are skipped on read and reaped by
// PurgeExpired.
type PostgresStore struct {
	db  *sql.DB
	ttl time.Duration
}

// NewPostgresStore builds a Postgres-backed store. A ttl <= 0 falls back
// to DefaultTTL.
func NewPostgresStore(db *sql.DB, ttl time.Duration) *PostgresStore {
	if db == nil {
		panic("session: sql.DB cannot be nil")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &PostgresStore{db: db, ttl: ttl}
}

var _ Store = (*PostgresStore)(nil)

func (s *PostgresStore) Save(ctx context.Context, state *dialogue.State) error {
	if state == nil || state.SessionID == "" {
		return errors.New("session: state with session_id required")
	}
	data, err := state.Marshal()
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO conversation_sessions (session_id, phase, state, updated_at, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (session_id)
		DO UPDATE SET phase = $2, state = $3, updated_at = $4, expires_at = $5
	`, state.SessionID, string(state.Phase), data, now, now.Add(s.ttl))
	if err != nil {
		return fmt.Errorf("session: postgres upsert: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, sessionID string) (*dialogue.State, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT state FROM conversation_sessions
		WHERE session_id = $1 AND expires_at > $2
	`, sessionID, time.Now().UTC()).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("session: postgres select: %w", err)
	}
	return dialogue.UnmarshalState(data)
}

func (s *PostgresStore) Delete(ctx context.Context, sessionID string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM conversation_sessions WHERE session_id = $1`, sessionID); err != nil {
		return fmt.Errorf("session: postgres delete: %w", err)
	}
	return nil
}

// PurgeExpired removes checkpoints past their TTL and returns how many rows
// were reaped. Meant to run on a timer from the server process.
func (s *PostgresStore) PurgeExpired(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM conversation_sessions WHERE expires_at <= $1`, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("session: postgres purge: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("session: postgres purge rows: %w", err)
	}
	return n, nil
}

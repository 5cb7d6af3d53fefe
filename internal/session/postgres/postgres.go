package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/zerolog"

	"github.com/klotz/summarizer-service/internal/session"
)

// PostgresStore keeps sessions in a single JSONB table. Update holds a row
// lock for the duration of the callback. Rows untouched for longer than ttl
// are removed by Prune.
type PostgresStore struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time
}

var openDB = sql.Open

func New(conn string, ttl time.Duration) (*PostgresStore, error) {
	db, err := openDB("pgx", conn)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := verifySchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &PostgresStore{db: db, ttl: ttl, now: time.Now}, nil
}

func verifySchema(ctx context.Context, db *sql.DB) error {
	var regclass sql.NullString
	if err := db.QueryRowContext(ctx, "SELECT to_regclass($1)", "public.sessions").Scan(&regclass); err != nil {
		return err
	}
	if !regclass.Valid {
		return fmt.Errorf("database schema missing: sessions table not found (run migrations/001_sessions.sql)")
	}
	return nil
}

func (p *PostgresStore) Load(ctx context.Context, id string) (session.Session, error) {
	var raw []byte
	err := p.db.QueryRowContext(ctx, "SELECT data FROM sessions WHERE id = $1", id).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return session.Session{}, nil
	}
	if err != nil {
		return session.Session{}, err
	}
	return decode(raw)
}

func (p *PostgresStore) Update(ctx context.Context, id string, fn func(*session.Session) error) (session.Session, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return session.Session{}, err
	}
	defer func() { _ = tx.Rollback() }()

	now := p.now().UTC()
	const ensure = `
		INSERT INTO sessions (id, data, updated_at)
		VALUES ($1, '{}', $2)
		ON CONFLICT (id) DO NOTHING
	`
	if _, err := tx.ExecContext(ctx, ensure, id, now); err != nil {
		return session.Session{}, err
	}

	var raw []byte
	if err := tx.QueryRowContext(ctx, "SELECT data FROM sessions WHERE id = $1 FOR UPDATE", id).Scan(&raw); err != nil {
		return session.Session{}, err
	}
	current, err := decode(raw)
	if err != nil {
		return session.Session{}, err
	}
	if err := fn(&current); err != nil {
		return session.Session{}, err
	}
	encoded, err := json.Marshal(current)
	if err != nil {
		return session.Session{}, err
	}
	if _, err := tx.ExecContext(ctx, "UPDATE sessions SET data = $2, updated_at = $3 WHERE id = $1", id, encoded, now); err != nil {
		return session.Session{}, err
	}
	if err := tx.Commit(); err != nil {
		return session.Session{}, err
	}
	return current, nil
}

func (p *PostgresStore) Delete(ctx context.Context, id string) error {
	_, err := p.db.ExecContext(ctx, "DELETE FROM sessions WHERE id = $1", id)
	return err
}

// Prune deletes sessions not updated within ttl. A non-positive ttl keeps
// every row.
func (p *PostgresStore) Prune(ctx context.Context) (int64, error) {
	if p.ttl <= 0 {
		return 0, nil
	}
	cutoff := p.now().UTC().Add(-p.ttl)
	result, err := p.db.ExecContext(ctx, "DELETE FROM sessions WHERE updated_at < $1", cutoff)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// RunPruner calls Prune every interval until ctx is done.
func (p *PostgresStore) RunPruner(ctx context.Context, interval time.Duration, log zerolog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := p.Prune(ctx)
			if err != nil {
				log.Warn().Err(err).Msg("prune sessions")
				continue
			}
			if removed > 0 {
				log.Debug().Int64("removed", removed).Msg("pruned expired sessions")
			}
		}
	}
}

func (p *PostgresStore) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

func (p *PostgresStore) Close() error {
	return p.db.Close()
}

func decode(raw []byte) (session.Session, error) {
	var value session.Session
	if len(raw) == 0 {
		return value, nil
	}
	if err := json.Unmarshal(raw, &value); err != nil {
		return session.Session{}, fmt.Errorf("failed to decode session: %w", err)
	}
	return value, nil
}

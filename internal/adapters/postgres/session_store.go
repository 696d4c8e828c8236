// Package postgres provides a SQL-backed session store for deployments that
// already run PostgreSQL and prefer not to operate Redis.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	domainauth "github.com/hmcts/xui-gateway/internal/domain/auth"
	apperrors "github.com/hmcts/xui-gateway/internal/errors"
)

// SessionStore persists sessions in the sessions table.
// Every write is a single statement, so Touch cannot recreate a deleted row.
type SessionStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSessionStore creates a store over an open database handle.
func NewSessionStore(db *sql.DB) *SessionStore {
	return &SessionStore{db: db, now: time.Now}
}

func (s *SessionStore) Save(ctx context.Context, sess domainauth.Session) error {
	if sess.ID == "" {
		return apperrors.ValidationField("id", "session ID cannot be empty")
	}
	identity, err := json.Marshal(sess.Identity)
	if err != nil {
		return fmt.Errorf("marshal identity: %w", err)
	}

	const q = `
		INSERT INTO sessions (id, user_id, identity, created_at, last_seen, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			user_id    = EXCLUDED.user_id,
			identity   = EXCLUDED.identity,
			last_seen  = EXCLUDED.last_seen,
			expires_at = EXCLUDED.expires_at`
	if _, err := s.db.ExecContext(ctx, q,
		sess.ID, sess.Identity.UserID, identity, sess.CreatedAt.UTC(), sess.LastSeen.UTC(), sess.ExpiresAt.UTC(),
	); err != nil {
		return fmt.Errorf("save session: %w", apperrors.MapDBError(err))
	}
	return nil
}

func (s *SessionStore) Get(ctx context.Context, id string) (domainauth.Session, error) {
	if id == "" {
		return domainauth.Session{}, domainauth.ErrSessionNotFound
	}

	const q = `
		SELECT id, identity, created_at, last_seen, expires_at
		FROM sessions
		WHERE id = $1 AND expires_at > $2`

	var (
		sess     domainauth.Session
		identity []byte
	)
	err := s.db.QueryRowContext(ctx, q, id, s.now().UTC()).
		Scan(&sess.ID, &identity, &sess.CreatedAt, &sess.LastSeen, &sess.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domainauth.Session{}, domainauth.ErrSessionNotFound
	}
	if err != nil {
		return domainauth.Session{}, fmt.Errorf("get session: %w", apperrors.MapDBError(err))
	}
	if err := json.Unmarshal(identity, &sess.Identity); err != nil {
		return domainauth.Session{}, fmt.Errorf("unmarshal identity: %w", err)
	}
	return sess, nil
}

func (s *SessionStore) Touch(ctx context.Context, id string, lastSeen, expiresAt time.Time) error {
	const q = `
		UPDATE sessions
		SET last_seen = $2, expires_at = $3
		WHERE id = $1 AND expires_at > $4`

	res, err := s.db.ExecContext(ctx, q, id, lastSeen.UTC(), expiresAt.UTC(), s.now().UTC())
	if err != nil {
		return fmt.Errorf("touch session: %w", apperrors.MapDBError(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("touch session: %w", err)
	}
	if n == 0 {
		return domainauth.ErrSessionNotFound
	}
	return nil
}

func (s *SessionStore) Delete(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete session: %w", apperrors.MapDBError(err))
	}
	return nil
}

// PurgeExpired removes sessions past their expiry and returns how many were removed.
func (s *SessionStore) PurgeExpired(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= $1`, s.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("purge sessions: %w", apperrors.MapDBError(err))
	}
	return res.RowsAffected()
}

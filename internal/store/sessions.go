// ABOUTME: Session persistence methods for the SQLite store
// ABOUTME: Sessions carry the raw token, decoded identity JSON, and chosen role

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/taazamandi/mandi-gateway/internal/auth"
)

// CreateSession inserts a new session row.
func (s *SQLiteStore) CreateSession(ctx context.Context, session *Session) error {
	identityJSON, err := json.Marshal(session.Identity)
	if err != nil {
		return fmt.Errorf("encoding identity: %w", err)
	}

	query := `
		INSERT INTO sessions (id, token, identity, role, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err = s.db.ExecContext(ctx, query,
		session.ID,
		session.Token,
		string(identityJSON),
		string(session.Role),
		session.CreatedAt.UTC().Format(time.RFC3339),
		session.ExpiresAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting session: %w", err)
	}

	s.logger.Debug("created session", "id", session.ID, "subject", session.Identity.SubjectID)
	return nil
}

// GetSession retrieves a valid (non-expired) session.
func (s *SQLiteStore) GetSession(ctx context.Context, id string) (*Session, error) {
	query := `
		SELECT id, token, identity, role, created_at, expires_at
		FROM sessions
		WHERE id = ? AND expires_at > ?
	`

	var session Session
	var identityJSON, role, createdAtStr, expiresAtStr string
	now := time.Now().UTC().Format(time.RFC3339)

	err := s.db.QueryRowContext(ctx, query, id, now).Scan(
		&session.ID,
		&session.Token,
		&identityJSON,
		&role,
		&createdAtStr,
		&expiresAtStr,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying session: %w", err)
	}

	var identity auth.Identity
	if err := json.Unmarshal([]byte(identityJSON), &identity); err != nil {
		return nil, fmt.Errorf("decoding identity: %w", err)
	}
	session.Identity = &identity
	session.Role = Role(role)

	session.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}

	session.ExpiresAt, err = time.Parse(time.RFC3339, expiresAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing expires_at: %w", err)
	}

	return &session, nil
}

// TouchSession pushes the session expiry forward (sliding expiry).
func (s *SQLiteStore) TouchSession(ctx context.Context, id string, expiresAt time.Time) error {
	query := `UPDATE sessions SET expires_at = ? WHERE id = ?`

	res, err := s.db.ExecContext(ctx, query, expiresAt.UTC().Format(time.RFC3339), id)
	if err != nil {
		return fmt.Errorf("touching session: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("touching session: %w", err)
	}
	if rows == 0 {
		return ErrSessionNotFound
	}

	return nil
}

// UpdateSessionRole sets the chosen role on a session.
func (s *SQLiteStore) UpdateSessionRole(ctx context.Context, id string, role Role) error {
	query := `UPDATE sessions SET role = ? WHERE id = ?`

	res, err := s.db.ExecContext(ctx, query, string(role), id)
	if err != nil {
		return fmt.Errorf("updating session role: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating session role: %w", err)
	}
	if rows == 0 {
		return ErrSessionNotFound
	}

	s.logger.Debug("updated session role", "id", id, "role", role)
	return nil
}

// UpdateSessionIdentity replaces the stored identity, used when profile
// metadata changes mid-session.
func (s *SQLiteStore) UpdateSessionIdentity(ctx context.Context, id string, identity *auth.Identity) error {
	identityJSON, err := json.Marshal(identity)
	if err != nil {
		return fmt.Errorf("encoding identity: %w", err)
	}

	query := `UPDATE sessions SET identity = ? WHERE id = ?`

	res, err := s.db.ExecContext(ctx, query, string(identityJSON), id)
	if err != nil {
		return fmt.Errorf("updating session identity: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating session identity: %w", err)
	}
	if rows == 0 {
		return ErrSessionNotFound
	}

	return nil
}

// DeleteSession deletes a session. Idempotent - deleting a non-existent
// session succeeds silently.
func (s *SQLiteStore) DeleteSession(ctx context.Context, id string) error {
	query := `DELETE FROM sessions WHERE id = ?`

	if _, err := s.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}

	return nil
}

// DeleteExpiredSessions removes all expired sessions.
func (s *SQLiteStore) DeleteExpiredSessions(ctx context.Context) error {
	query := `DELETE FROM sessions WHERE expires_at <= ?`

	now := time.Now().UTC().Format(time.RFC3339)
	res, err := s.db.ExecContext(ctx, query, now)
	if err != nil {
		return fmt.Errorf("deleting expired sessions: %w", err)
	}

	if rows, err := res.RowsAffected(); err == nil && rows > 0 {
		s.logger.Debug("deleted expired sessions", "count", rows)
	}

	return nil
}

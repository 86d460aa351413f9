// ABOUTME: Profile persistence methods for the SQLite store
// ABOUTME: Profiles capture signup details keyed by the token's subject id

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// UpsertProfile inserts a profile or updates an existing one in place.
func (s *SQLiteStore) UpsertProfile(ctx context.Context, profile *Profile) error {
	query := `
		INSERT INTO profiles (id, email, first_name, last_name, phone, state, full_name, user_type, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			email = excluded.email,
			first_name = excluded.first_name,
			last_name = excluded.last_name,
			phone = excluded.phone,
			state = excluded.state,
			full_name = excluded.full_name,
			user_type = excluded.user_type,
			updated_at = excluded.updated_at
	`

	now := time.Now().UTC()
	if profile.CreatedAt.IsZero() {
		profile.CreatedAt = now
	}
	profile.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, query,
		profile.ID,
		profile.Email,
		profile.FirstName,
		profile.LastName,
		profile.Phone,
		profile.State,
		profile.FullName,
		profile.UserType,
		profile.CreatedAt.Format(time.RFC3339),
		profile.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("upserting profile: %w", err)
	}

	s.logger.Debug("upserted profile", "id", profile.ID, "email", profile.Email)
	return nil
}

// GetProfile retrieves a profile by subject id.
func (s *SQLiteStore) GetProfile(ctx context.Context, id string) (*Profile, error) {
	query := `
		SELECT id, email, first_name, last_name, phone, state, full_name, user_type, created_at, updated_at
		FROM profiles
		WHERE id = ?
	`

	var p Profile
	var createdAtStr, updatedAtStr string

	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&p.ID,
		&p.Email,
		&p.FirstName,
		&p.LastName,
		&p.Phone,
		&p.State,
		&p.FullName,
		&p.UserType,
		&createdAtStr,
		&updatedAtStr,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying profile: %w", err)
	}

	p.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}

	p.UpdatedAt, err = time.Parse(time.RFC3339, updatedAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}

	return &p, nil
}

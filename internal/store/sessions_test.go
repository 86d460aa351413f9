// ABOUTME: Tests for session persistence in the SQLite store
// ABOUTME: Covers CRUD, expiry filtering, sliding touch, and role updates

package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taazamandi/mandi-gateway/internal/auth"
)

func createTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testSession(id string) *Session {
	now := time.Now()
	return &Session{
		ID:    id,
		Token: "token-" + id,
		Identity: &auth.Identity{
			SubjectID:    "subject-" + id,
			Email:        id + "@example.com",
			UserMetadata: map[string]any{"first_name": "Asha"},
			AppMetadata:  map[string]any{},
		},
		Role:      RoleUnset,
		CreatedAt: now,
		ExpiresAt: now.Add(24 * time.Hour),
	}
}

func TestSession_CreateAndGet(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	sess := testSession("s1")
	require.NoError(t, s.CreateSession(ctx, sess))

	got, err := s.GetSession(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "token-s1", got.Token)
	assert.Equal(t, "subject-s1", got.Identity.SubjectID)
	assert.Equal(t, "s1@example.com", got.Identity.Email)
	assert.Equal(t, "Asha", got.Identity.UserMetadata["first_name"])
	assert.Equal(t, RoleUnset, got.Role)
}

func TestSession_GetMissing(t *testing.T) {
	s := createTestStore(t)

	_, err := s.GetSession(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSession_ExpiredNotReturned(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	sess := testSession("s1")
	sess.ExpiresAt = time.Now().Add(-time.Minute)
	require.NoError(t, s.CreateSession(ctx, sess))

	_, err := s.GetSession(ctx, "s1")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSession_Touch(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	sess := testSession("s1")
	require.NoError(t, s.CreateSession(ctx, sess))

	newExpiry := time.Now().Add(48 * time.Hour)
	require.NoError(t, s.TouchSession(ctx, "s1", newExpiry))

	got, err := s.GetSession(ctx, "s1")
	require.NoError(t, err)
	assert.WithinDuration(t, newExpiry, got.ExpiresAt, time.Second)

	assert.ErrorIs(t, s.TouchSession(ctx, "missing", newExpiry), ErrSessionNotFound)
}

func TestSession_UpdateRole(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateSession(ctx, testSession("s1")))
	require.NoError(t, s.UpdateSessionRole(ctx, "s1", RoleSeller))

	got, err := s.GetSession(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, RoleSeller, got.Role)

	assert.ErrorIs(t, s.UpdateSessionRole(ctx, "missing", RoleBuyer), ErrSessionNotFound)
}

func TestSession_UpdateIdentity(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateSession(ctx, testSession("s1")))

	updated := &auth.Identity{
		SubjectID:    "subject-s1",
		Email:        "s1@example.com",
		UserMetadata: map[string]any{"first_name": "Asha", "state": "Punjab"},
		AppMetadata:  map[string]any{},
	}
	require.NoError(t, s.UpdateSessionIdentity(ctx, "s1", updated))

	got, err := s.GetSession(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "Punjab", got.Identity.UserMetadata["state"])
}

func TestSession_Delete(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateSession(ctx, testSession("s1")))
	require.NoError(t, s.DeleteSession(ctx, "s1"))

	_, err := s.GetSession(ctx, "s1")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	// Idempotent
	require.NoError(t, s.DeleteSession(ctx, "s1"))
}

func TestSession_DeleteExpired(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	live := testSession("live")
	require.NoError(t, s.CreateSession(ctx, live))

	stale := testSession("stale")
	stale.ExpiresAt = time.Now().Add(-time.Hour)
	require.NoError(t, s.CreateSession(ctx, stale))

	require.NoError(t, s.DeleteExpiredSessions(ctx))

	_, err := s.GetSession(ctx, "live")
	require.NoError(t, err)

	// Row must actually be gone, not just filtered
	var count int
	require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM sessions WHERE id = 'stale'`).Scan(&count))
	assert.Equal(t, 0, count)
}

func TestRole_Valid(t *testing.T) {
	assert.True(t, RoleBuyer.Valid())
	assert.True(t, RoleSeller.Valid())
	assert.False(t, RoleUnset.Valid())
	assert.False(t, Role("admin").Valid())
}

// Package store provides SQLite-backed persistence for mandi-gateway.
//
// Three tables: sessions (server-side visitor state with sliding expiry),
// products (marketplace listings keyed by seller email), and profiles
// (signup details keyed by the token's subject id).
//
// The schema is created automatically on startup. WAL mode is enabled for
// concurrent readers. Expired sessions are filtered on read and reaped by
// DeleteExpiredSessions, which the server runs on a timer.
package store

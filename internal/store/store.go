// ABOUTME: Store interface and data types for mandi-gateway persistence
// ABOUTME: Defines Session, Product, Profile structs and the Store interface

package store

import (
	"context"
	"errors"
	"time"

	"github.com/taazamandi/mandi-gateway/internal/auth"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// ErrSessionNotFound is returned when a session doesn't exist or is expired.
var ErrSessionNotFound = errors.New("session not found")

// Role represents a visitor's chosen capability context, orthogonal to identity.
type Role string

const (
	RoleUnset  Role = ""
	RoleBuyer  Role = "buyer"
	RoleSeller Role = "seller"
)

// Valid reports whether the role is one of the two selectable roles.
func (r Role) Valid() bool {
	return r == RoleBuyer || r == RoleSeller
}

// Session binds a visitor to a token, identity, and role across requests.
// A session with an empty token or nil identity is treated as no session.
type Session struct {
	ID        string
	Token     string
	Identity  *auth.Identity
	Role      Role
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Product represents a marketplace listing owned by a seller
type Product struct {
	ID          string
	Title       string
	Description string
	Quantity    string
	Price       string
	Category    string
	Location    string
	Images      []string
	SellerEmail string
	CreatedAt   time.Time
}

// Profile holds the signup details of a registered visitor
type Profile struct {
	ID        string
	Email     string
	FirstName string
	LastName  string
	Phone     string
	State     string
	FullName  string
	UserType  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Store defines the persistence operations used by the gateway
type Store interface {
	// Sessions
	CreateSession(ctx context.Context, session *Session) error
	GetSession(ctx context.Context, id string) (*Session, error)
	TouchSession(ctx context.Context, id string, expiresAt time.Time) error
	UpdateSessionRole(ctx context.Context, id string, role Role) error
	UpdateSessionIdentity(ctx context.Context, id string, identity *auth.Identity) error
	DeleteSession(ctx context.Context, id string) error
	DeleteExpiredSessions(ctx context.Context) error

	// Products
	CreateProduct(ctx context.Context, product *Product) error
	ListProducts(ctx context.Context) ([]*Product, error)
	ListProductsBySeller(ctx context.Context, sellerEmail string) ([]*Product, error)

	// Profiles
	UpsertProfile(ctx context.Context, profile *Profile) error
	GetProfile(ctx context.Context, id string) (*Profile, error)

	Close() error
}

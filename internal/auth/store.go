package auth

import (
	"context"
	"time"
)

// Store describes persistence for identity records. Find-style operations
// never return tombstoned rows.
type Store interface {
	Create(ctx context.Context, u *User) error
	Find(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	// FindByOneTimeTokenHash looks up the user holding an unexpired one-time
	// token with the given hash.
	FindByOneTimeTokenHash(ctx context.Context, hash string, now time.Time) (*User, error)
	List(ctx context.Context) ([]*User, error)
	Update(ctx context.Context, u *User) error
	// MarkDeleted tombstones the record and flips it inactive. The row is
	// retained.
	MarkDeleted(ctx context.Context, id string, when time.Time) error
}

package store

import (
	"context"

	"github.com/shaibs3/groupdir/internal/db"
)

// GroupStore is the keyed collection of groups. Every listing is ordered by
// CreatedAt descending; other orderings are the caller's business.
// Lookups return nil, nil when the record does not exist.
type GroupStore interface {
	CreateGroup(ctx context.Context, in db.GroupInput) (*db.Group, error)
	GetGroup(ctx context.Context, id string) (*db.Group, error)
	ListGroups(ctx context.Context) ([]db.Group, error)
	ListGroupsByCategory(ctx context.Context, category string) ([]db.Group, error)
	ListGroupsByCountry(ctx context.Context, country string) ([]db.Group, error)
	SearchGroups(ctx context.Context, query string) ([]db.Group, error)
	// IncrementViewCount is a no-op for unknown ids
	IncrementViewCount(ctx context.Context, id string) error
}

// UserStore holds user accounts
type UserStore interface {
	CreateUser(ctx context.Context, in db.UserInput) (*db.User, error)
	GetUser(ctx context.Context, id string) (*db.User, error)
	GetUserByUsername(ctx context.Context, username string) (*db.User, error)
}

type DbProvider interface {
	GroupStore
	UserStore
	Close() error
}

package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/mknows/bootcamp-api/internal/core/domain"
)

// SessionView is one entry of a user's session history.
type SessionView struct {
	Session   *domain.Session
	IsCurrent bool
}

// AccountService serves the authenticated user's own account.
type AccountService interface {
	Profile(ctx context.Context, principal *domain.Principal) (*domain.User, error)
	UpdateProfile(ctx context.Context, principal *domain.Principal, upd domain.ProfileUpdate) (*domain.User, error)
	Sessions(ctx context.Context, principal *domain.Principal) ([]SessionView, error)
}

// UserList is a page of accounts.
type UserList struct {
	Items      []*domain.User
	Total      int64
	Page       int
	Limit      int
	TotalPages int
}

// UserService serves administrative account listings.
type UserService interface {
	List(ctx context.Context, page domain.Page) (*UserList, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.User, error)
}

package service

import (
	"context"
	"time"

	"github.com/mknows/bootcamp-api/internal/core/domain"
	"github.com/mknows/bootcamp-api/internal/core/ports"
)

// AccountService serves the authenticated user's own profile and sessions.
type AccountService struct {
	users    ports.UserRepository
	sessions *SessionManager
	now      func() time.Time
}

var _ ports.AccountService = (*AccountService)(nil)

func NewAccountService(users ports.UserRepository, sessions *SessionManager) *AccountService {
	return &AccountService{users: users, sessions: sessions, now: time.Now}
}

func (s *AccountService) Profile(ctx context.Context, principal *domain.Principal) (*domain.User, error) {
	return s.users.FindByID(ctx, principal.User.ID)
}

func (s *AccountService) UpdateProfile(ctx context.Context, principal *domain.Principal, upd domain.ProfileUpdate) (*domain.User, error) {
	if upd.IsEmpty() {
		return nil, domain.ErrNothingToUpdate
	}
	return s.users.UpdateProfile(ctx, principal.User.ID, upd, s.now().UTC())
}

func (s *AccountService) Sessions(ctx context.Context, principal *domain.Principal) ([]ports.SessionView, error) {
	return s.sessions.List(ctx, principal.User.ID, principal.SessionID)
}

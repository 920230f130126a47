package service

import (
	"context"
	"math"

	"github.com/google/uuid"

	"github.com/mknows/bootcamp-api/internal/core/domain"
	"github.com/mknows/bootcamp-api/internal/core/ports"
)

const (
	defaultPageLimit = 10
	maxPageLimit     = 100
)

// UserService lists and looks up accounts for administrators.
type UserService struct {
	users ports.UserRepository
}

var _ ports.UserService = (*UserService)(nil)

func NewUserService(users ports.UserRepository) *UserService {
	return &UserService{users: users}
}

// List returns one page of accounts. Limit defaults to 10 and is capped at 100.
func (s *UserService) List(ctx context.Context, page domain.Page) (*ports.UserList, error) {
	if page.Number < 1 {
		page.Number = 1
	}
	if page.Limit <= 0 {
		page.Limit = defaultPageLimit
	}
	if page.Limit > maxPageLimit {
		page.Limit = maxPageLimit
	}

	users, total, err := s.users.List(ctx, page)
	if err != nil {
		return nil, err
	}
	return &ports.UserList{
		Items:      users,
		Total:      total,
		Page:       page.Number,
		Limit:      page.Limit,
		TotalPages: int(math.Ceil(float64(total) / float64(page.Limit))),
	}, nil
}

func (s *UserService) Get(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return s.users.FindByUUID(ctx, id)
}

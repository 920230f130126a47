package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/mknows/bootcamp-api/internal/core/domain"
)

// SignupInput is the registration payload.
type SignupInput struct {
	Email    string
	Password string
	FullName string
}

// SignupResult identifies the created account.
type SignupResult struct {
	UUID  uuid.UUID
	Email string
}

// LoginInput carries credentials and the client the session binds to.
type LoginInput struct {
	Email    string
	Password string
	Client   domain.ClientInfo
}

// LoginResult is the bearer credential issued on login.
type LoginResult struct {
	AccessToken string
	ExpiresIn   time.Duration
	SessionID   uuid.UUID
}

// AuthService orchestrates signup, login, logout and e-mail verification.
type AuthService interface {
	Signup(ctx context.Context, in SignupInput) (*SignupResult, error)
	Login(ctx context.Context, in LoginInput) (*LoginResult, error)
	Logout(ctx context.Context, principal *domain.Principal, client domain.ClientInfo) error
	VerifyEmail(ctx context.Context, accountID uuid.UUID, code string) (string, error)
	ResendVerification(ctx context.Context, email string) error
}

// Authenticator is the per-request gate.
type Authenticator interface {
	Authenticate(ctx context.Context, token string, client domain.ClientInfo) (*domain.Principal, error)
}

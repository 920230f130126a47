package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/mknows/bootcamp-api/internal/core/domain"
)

// UserRepository is the credential registry's persistence.
type UserRepository interface {
	// FindByEmail returns the user including its password hash.
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByUUID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	FindByID(ctx context.Context, id int64) (*domain.User, error)
	// Create inserts the user and fills ID and timestamps. A duplicate e-mail
	// yields domain.ErrEmailExists.
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	// MarkEmailVerified sets email_verified_at. Calling it twice is a no-op write.
	MarkEmailVerified(ctx context.Context, userID int64, at time.Time) error
	UpdateProfile(ctx context.Context, userID int64, upd domain.ProfileUpdate, at time.Time) (*domain.User, error)
	List(ctx context.Context, page domain.Page) ([]*domain.User, int64, error)
}

// RoleRepository reads seeded roles and manages memberships.
type RoleRepository interface {
	FindByName(ctx context.Context, name domain.RoleName) (*domain.Role, error)
	Assign(ctx context.Context, userID, roleID int64) error
	ListForUser(ctx context.Context, userID int64) (domain.RoleSet, error)
}

// SessionRepository persists login sessions.
type SessionRepository interface {
	Create(ctx context.Context, session *domain.Session) (*domain.Session, error)
	// FindActive returns the ACTIVE session with its owning user, or
	// domain.ErrSessionNotFound.
	FindActive(ctx context.Context, sessionID uuid.UUID) (*domain.Session, error)
	// Invalidate moves the ACTIVE session owned by userUUID to LOGOUT in a single
	// conditional update and reports whether a row changed.
	Invalidate(ctx context.Context, userUUID, sessionID uuid.UUID, at time.Time) (bool, error)
	ListByUser(ctx context.Context, userID int64) ([]*domain.Session, error)
}

// OTPRepository persists one-time codes.
type OTPRepository interface {
	Create(ctx context.Context, otp *domain.OTP) (*domain.OTP, error)
	// Redeem atomically transitions the newest AVAILABLE code matching
	// (userID, key, purpose) to USED, or to EXPIRED when its deadline is
	// before now, and returns the row as written. domain.ErrNotFound means no
	// AVAILABLE code matched.
	Redeem(ctx context.Context, userID int64, key string, purpose domain.OTPPurpose, now time.Time) (*domain.OTP, error)
	// ExpireAvailable marks every AVAILABLE code of (userID, purpose) EXPIRED.
	ExpireAvailable(ctx context.Context, userID int64, purpose domain.OTPPurpose, at time.Time) (int64, error)
}

// Store bundles the repositories and the transaction boundary.
type Store interface {
	Users() UserRepository
	Roles() RoleRepository
	Sessions() SessionRepository
	OTPs() OTPRepository
	// WithinTx runs fn against a Store bound to one transaction. It commits when
	// fn returns nil and rolls back otherwise, returning fn's error unchanged.
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error
}

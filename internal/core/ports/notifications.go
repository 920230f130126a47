package ports

import (
	"context"
	"time"

	"github.com/mknows/bootcamp-api/internal/core/domain"
)

// VerificationEmail is the content of an e-mail verification message.
type VerificationEmail struct {
	To        string
	FullName  string
	Code      string
	ExpiresIn time.Duration
}

// Mailer delivers outbound e-mail.
type Mailer interface {
	SendVerification(ctx context.Context, msg VerificationEmail) error
}

// AuditRecorder accepts audit events. Implementations must not block the caller
// for long and must never fail the calling flow.
type AuditRecorder interface {
	Record(event domain.AuditEvent)
}

// AuditRepository persists audit events.
type AuditRepository interface {
	InsertEvent(ctx context.Context, event *domain.AuditEvent) error
}

// RateLimiter counts hits per key inside a named policy window.
type RateLimiter interface {
	// Allow records a hit and reports whether the key is still within budget.
	Allow(ctx context.Context, policy, key string) (bool, error)
}

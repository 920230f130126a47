package mail

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"

	"github.com/mknows/bootcamp-api/internal/core/ports"
	"github.com/mknows/bootcamp-api/internal/pkg/metrics"
)

// RetryingMailer retries a failing delivery with exponential backoff.
type RetryingMailer struct {
	next       ports.Mailer
	maxRetries uint64
	base       time.Duration
	log        zerolog.Logger
}

var _ ports.Mailer = (*RetryingMailer)(nil)

func NewRetryingMailer(next ports.Mailer, maxRetries uint64, base time.Duration, log zerolog.Logger) *RetryingMailer {
	if base <= 0 {
		base = 500 * time.Millisecond
	}
	return &RetryingMailer{next: next, maxRetries: maxRetries, base: base, log: log}
}

func (m *RetryingMailer) SendVerification(ctx context.Context, msg ports.VerificationEmail) error {
	backoff := retry.WithMaxRetries(m.maxRetries, retry.NewExponential(m.base))

	attempt := 0
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		if err := m.next.SendVerification(ctx, msg); err != nil {
			m.log.Warn().Err(err).
				Str("to", msg.To).
				Int("attempt", attempt).
				Msg("verification email failed")
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		metrics.MailDeliveriesTotal.WithLabelValues("failed").Inc()
		return err
	}
	metrics.MailDeliveriesTotal.WithLabelValues("sent").Inc()
	return nil
}

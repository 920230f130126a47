package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math/big"
	"time"

	"github.com/google/uuid"

	"github.com/mknows/bootcamp-api/internal/core/domain"
	"github.com/mknows/bootcamp-api/internal/core/ports"
	"github.com/mknows/bootcamp-api/internal/pkg/metrics"
)

const (
	otpMin = 10_000_000
	otpMax = 99_999_999
)

// OTPEngine issues and redeems one-time codes. Both operations take the
// repository explicitly so they can join the caller's transaction.
type OTPEngine struct {
	ttl    time.Duration
	now    func() time.Time
	random io.Reader
}

func NewOTPEngine(ttl time.Duration) *OTPEngine {
	return &OTPEngine{ttl: ttl, now: time.Now, random: rand.Reader}
}

// TTL is the lifetime of newly issued codes.
func (e *OTPEngine) TTL() time.Duration { return e.ttl }

// Issue creates a new AVAILABLE code for (userID, purpose).
func (e *OTPEngine) Issue(ctx context.Context, repo ports.OTPRepository, userID int64, purpose domain.OTPPurpose) (*domain.OTP, error) {
	key, err := e.generate()
	if err != nil {
		return nil, err
	}

	now := e.now().UTC()
	return repo.Create(ctx, &domain.OTP{
		UUID:      uuid.New(),
		UserID:    userID,
		Key:       key,
		Purpose:   purpose,
		Status:    domain.OTPAvailable,
		ExpiredAt: now.Add(e.ttl),
		CreatedAt: now,
	})
}

// Redeem consumes a code. Wrong, already used and expired codes all yield
// domain.ErrInvalidOTP; an expired code is additionally returned so the caller
// can keep its EXPIRED transition.
func (e *OTPEngine) Redeem(ctx context.Context, repo ports.OTPRepository, userID int64, key string, purpose domain.OTPPurpose) (*domain.OTP, error) {
	otp, err := repo.Redeem(ctx, userID, key, purpose, e.now().UTC())
	if errors.Is(err, domain.ErrNotFound) {
		metrics.OTPRedemptionsTotal.WithLabelValues("invalid").Inc()
		return nil, domain.ErrInvalidOTP
	}
	if err != nil {
		return nil, err
	}
	if otp.Status == domain.OTPExpired {
		metrics.OTPRedemptionsTotal.WithLabelValues("expired").Inc()
		return otp, domain.ErrInvalidOTP
	}
	metrics.OTPRedemptionsTotal.WithLabelValues("used").Inc()
	return otp, nil
}

// generate samples uniformly from [otpMin, otpMax].
func (e *OTPEngine) generate() (string, error) {
	n, err := rand.Int(e.random, big.NewInt(otpMax-otpMin+1))
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return fmt.Sprintf("%d", n.Int64()+otpMin), nil
}

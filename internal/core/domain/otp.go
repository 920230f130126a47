package domain

import (
	"time"

	"github.com/google/uuid"
)

// OTPPurpose scopes a one-time code to a single flow.
type OTPPurpose string

const (
	OTPEmailVerification OTPPurpose = "EMAIL_VERIFICATION"
	// OTPForgetPassword is reserved; password reset is not implemented.
	OTPForgetPassword OTPPurpose = "FORGET_PASSWORD"
)

// OTPStatus is the redemption state of a one-time code.
type OTPStatus string

const (
	OTPAvailable OTPStatus = "AVAILABLE"
	OTPUsed      OTPStatus = "USED"
	OTPExpired   OTPStatus = "EXPIRED"
)

// OTP is a short-lived, single-use numeric code.
type OTP struct {
	ID        int64
	UUID      uuid.UUID
	UserID    int64
	Key       string
	Purpose   OTPPurpose
	Status    OTPStatus
	ExpiredAt time.Time
	CreatedAt time.Time
}

// IsExpired reports whether the code's deadline has passed at now.
func (o *OTP) IsExpired(now time.Time) bool {
	return o.ExpiredAt.Before(now)
}

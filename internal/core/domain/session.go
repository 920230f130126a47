package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// SessionStatus is the lifecycle state of a login session.
type SessionStatus string

const (
	SessionActive SessionStatus = "ACTIVE"
	SessionLogout SessionStatus = "LOGOUT"
	// SessionExpired is reserved; no code path sets it.
	SessionExpired SessionStatus = "EXPIRED"
)

// Session is the server-side record of one successful login.
type Session struct {
	ID          int64         `json:"-"`
	UUID        uuid.UUID     `json:"uuid"`
	UserID      int64         `json:"-"`
	Fingerprint string        `json:"useragent"`
	IPAddress   string        `json:"ip_address"`
	Status      SessionStatus `json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`

	// User is populated by lookups that join the owning account.
	User *User `json:"-"`
}

// ClientInfo identifies the device a request comes from.
type ClientInfo struct {
	Fingerprint string `json:"fingerprint"`
	IPAddress   string `json:"ip_address"`
}

// Principal is the request-scoped identity established by the gate.
type Principal struct {
	User      *User
	SessionID uuid.UUID
	Roles     RoleSet
}

// maxFingerprintLen matches the width of the stored useragent column.
const maxFingerprintLen = 320

// Fingerprint derives the device fingerprint from a raw User-Agent header. The
// same derivation runs at login and on every gated request, so the stored and
// presented values compare byte for byte.
func Fingerprint(userAgent string) string {
	fp := strings.TrimSpace(userAgent)
	if len(fp) > maxFingerprintLen {
		fp = fp[:maxFingerprintLen]
	}
	return fp
}

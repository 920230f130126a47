package domain

import "time"

// AuditEventType names an authentication event kept in the audit trail.
type AuditEventType string

const (
	AuditSignup        AuditEventType = "signup"
	AuditLoginSuccess  AuditEventType = "login_success"
	AuditLoginFailure  AuditEventType = "login_failure"
	AuditLogout        AuditEventType = "logout"
	AuditEmailVerified AuditEventType = "email_verified"
	AuditOTPReissued   AuditEventType = "otp_reissued"
)

// AuditEvent records who did what from where.
type AuditEvent struct {
	Type        AuditEventType
	UserUUID    string
	SessionUUID string
	Email       string
	IPAddress   string
	UserAgent   string
	Success     bool
	Reason      string
	At          time.Time
}

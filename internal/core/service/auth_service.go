package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mknows/bootcamp-api/internal/core/domain"
	"github.com/mknows/bootcamp-api/internal/core/ports"
	"github.com/mknows/bootcamp-api/internal/pkg/metrics"
)

// AuthService implements signup, login, logout and e-mail verification.
type AuthService struct {
	store    ports.Store
	otp      *OTPEngine
	sessions *SessionManager
	tokens   *TokenIssuer
	mailer   ports.Mailer
	audit    ports.AuditRecorder
	log      zerolog.Logger
	now      func() time.Time
	hash     func(password string) (string, error)
}

var _ ports.AuthService = (*AuthService)(nil)

func NewAuthService(
	store ports.Store,
	otp *OTPEngine,
	sessions *SessionManager,
	tokens *TokenIssuer,
	mailer ports.Mailer,
	audit ports.AuditRecorder,
	log zerolog.Logger,
) *AuthService {
	if audit == nil {
		audit = nopRecorder{}
	}
	return &AuthService{
		store:    store,
		otp:      otp,
		sessions: sessions,
		tokens:   tokens,
		mailer:   mailer,
		audit:    audit,
		log:      log,
		now:      time.Now,
		hash:     hashPassword,
	}
}

// Signup creates the user, its USER membership and a verification code in one
// transaction, then e-mails the code. A delivery failure does not undo the
// account; the user can ask for a new code.
func (s *AuthService) Signup(ctx context.Context, in ports.SignupInput) (*ports.SignupResult, error) {
	email := normalizeEmail(in.Email)
	if email == "" || in.Password == "" {
		return nil, domain.NewError(domain.KindValidation, "email and password are required")
	}

	if err := s.ensureEmailFree(ctx, s.store, email); err != nil {
		s.signupFailed(err)
		return nil, err
	}
	hash, err := s.hash(in.Password)
	if err != nil {
		return nil, err
	}

	var (
		user *domain.User
		otp  *domain.OTP
	)
	err = s.store.WithinTx(ctx, func(ctx context.Context, tx ports.Store) error {
		if err := s.ensureEmailFree(ctx, tx, email); err != nil {
			return err
		}

		now := s.now().UTC()
		candidate := &domain.User{
			UUID:         uuid.New(),
			Email:        email,
			PasswordHash: hash,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if in.FullName != "" {
			name := in.FullName
			candidate.FullName = &name
		}
		if user, err = tx.Users().Create(ctx, candidate); err != nil {
			return err
		}

		role, err := tx.Roles().FindByName(ctx, domain.RoleUser)
		if err != nil {
			return err
		}
		if err := tx.Roles().Assign(ctx, user.ID, role.ID); err != nil {
			return err
		}

		otp, err = s.otp.Issue(ctx, tx.OTPs(), user.ID, domain.OTPEmailVerification)
		return err
	})
	if err != nil {
		s.signupFailed(err)
		return nil, err
	}
	metrics.SignupsTotal.WithLabelValues("created").Inc()

	s.sendVerification(ctx, user, otp)
	s.audit.Record(domain.AuditEvent{
		Type:     domain.AuditSignup,
		UserUUID: user.UUID.String(),
		Email:    user.Email,
		Success:  true,
		At:       s.now().UTC(),
	})

	return &ports.SignupResult{UUID: user.UUID, Email: user.Email}, nil
}

// ensureEmailFree fails with ErrEmailExists when the address is registered.
// Signup checks before hashing and again inside the transaction.
func (s *AuthService) ensureEmailFree(ctx context.Context, store ports.Store, email string) error {
	_, err := store.Users().FindByEmail(ctx, email)
	switch {
	case err == nil:
		return domain.ErrEmailExists
	case errors.Is(err, domain.ErrUserNotFound):
		return nil
	default:
		return err
	}
}

func (s *AuthService) signupFailed(err error) {
	if errors.Is(err, domain.ErrEmailExists) {
		metrics.SignupsTotal.WithLabelValues("duplicate").Inc()
		return
	}
	metrics.SignupsTotal.WithLabelValues("error").Inc()
}

// Login checks credentials and opens a session bound to the caller's device.
func (s *AuthService) Login(ctx context.Context, in ports.LoginInput) (*ports.LoginResult, error) {
	email := normalizeEmail(in.Email)

	user, err := s.store.Users().FindByEmail(ctx, email)
	if errors.Is(err, domain.ErrUserNotFound) {
		s.loginFailed(in, "email_not_found", "")
		return nil, domain.ErrEmailNotFound
	}
	if err != nil {
		metrics.LoginsTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	if !checkPassword(user.PasswordHash, in.Password) {
		s.loginFailed(in, "password_mismatch", user.UUID.String())
		return nil, domain.ErrPasswordMismatch
	}
	if !user.IsVerified() {
		s.loginFailed(in, "not_verified", user.UUID.String())
		return nil, domain.ErrEmailNotVerified
	}

	session, err := s.sessions.Create(ctx, user.ID, in.Client)
	if err != nil {
		metrics.LoginsTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	token, err := s.tokens.Issue(user.UUID, session.UUID)
	if err != nil {
		metrics.LoginsTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	metrics.LoginsTotal.WithLabelValues("success").Inc()
	s.audit.Record(domain.AuditEvent{
		Type:        domain.AuditLoginSuccess,
		UserUUID:    user.UUID.String(),
		SessionUUID: session.UUID.String(),
		Email:       user.Email,
		IPAddress:   in.Client.IPAddress,
		UserAgent:   in.Client.Fingerprint,
		Success:     true,
		At:          s.now().UTC(),
	})

	return &ports.LoginResult{
		AccessToken: token,
		ExpiresIn:   s.tokens.TTL(),
		SessionID:   session.UUID,
	}, nil
}

func (s *AuthService) loginFailed(in ports.LoginInput, reason, userUUID string) {
	metrics.LoginsTotal.WithLabelValues(reason).Inc()
	s.audit.Record(domain.AuditEvent{
		Type:      domain.AuditLoginFailure,
		UserUUID:  userUUID,
		Email:     normalizeEmail(in.Email),
		IPAddress: in.Client.IPAddress,
		UserAgent: in.Client.Fingerprint,
		Reason:    reason,
		At:        s.now().UTC(),
	})
}

// Logout closes the caller's session. Repeating it is not an error.
func (s *AuthService) Logout(ctx context.Context, principal *domain.Principal, client domain.ClientInfo) error {
	if principal == nil || principal.User == nil {
		return domain.ErrUnauthorized
	}
	if err := s.sessions.Invalidate(ctx, principal.User.UUID, principal.SessionID); err != nil {
		return err
	}

	s.audit.Record(domain.AuditEvent{
		Type:        domain.AuditLogout,
		UserUUID:    principal.User.UUID.String(),
		SessionUUID: principal.SessionID.String(),
		IPAddress:   client.IPAddress,
		UserAgent:   client.Fingerprint,
		Success:     true,
		At:          s.now().UTC(),
	})
	return nil
}

// VerifyEmail redeems an EMAIL_VERIFICATION code and marks the account
// verified, returning its e-mail.
func (s *AuthService) VerifyEmail(ctx context.Context, accountID uuid.UUID, code string) (string, error) {
	if accountID == uuid.Nil || code == "" {
		return "", domain.NewError(domain.KindValidation, "uuid and otp are required")
	}

	user, err := s.store.Users().FindByUUID(ctx, accountID)
	if errors.Is(err, domain.ErrUserNotFound) {
		return "", domain.ErrInvalidAccount
	}
	if err != nil {
		return "", err
	}

	var redeemErr error
	err = s.store.WithinTx(ctx, func(ctx context.Context, tx ports.Store) error {
		otp, err := s.otp.Redeem(ctx, tx.OTPs(), user.ID, code, domain.OTPEmailVerification)
		if errors.Is(err, domain.ErrInvalidOTP) {
			// Commit so an expired code stays EXPIRED.
			redeemErr = err
			return nil
		}
		if err != nil {
			return err
		}
		return tx.Users().MarkEmailVerified(ctx, otp.UserID, s.now().UTC())
	})
	if err == nil {
		err = redeemErr
	}

	s.audit.Record(domain.AuditEvent{
		Type:     domain.AuditEmailVerified,
		UserUUID: user.UUID.String(),
		Email:    user.Email,
		Success:  err == nil,
		Reason:   reasonOf(err),
		At:       s.now().UTC(),
	})
	if err != nil {
		return "", err
	}
	return user.Email, nil
}

// ResendVerification replaces any outstanding verification code with a new one
// and e-mails it. Unknown and already verified addresses are ignored so the
// endpoint does not reveal which accounts exist.
func (s *AuthService) ResendVerification(ctx context.Context, email string) error {
	user, err := s.store.Users().FindByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, domain.ErrUserNotFound) {
		s.log.Debug().Str("email", email).Msg("verification resend for unknown email")
		return nil
	}
	if err != nil {
		return err
	}
	if user.IsVerified() {
		return nil
	}

	var otp *domain.OTP
	err = s.store.WithinTx(ctx, func(ctx context.Context, tx ports.Store) error {
		if _, err := tx.OTPs().ExpireAvailable(ctx, user.ID, domain.OTPEmailVerification, s.now().UTC()); err != nil {
			return err
		}
		otp, err = s.otp.Issue(ctx, tx.OTPs(), user.ID, domain.OTPEmailVerification)
		return err
	})
	if err != nil {
		return err
	}

	s.sendVerification(ctx, user, otp)
	s.audit.Record(domain.AuditEvent{
		Type:     domain.AuditOTPReissued,
		UserUUID: user.UUID.String(),
		Email:    user.Email,
		Success:  true,
		At:       s.now().UTC(),
	})
	return nil
}

func (s *AuthService) sendVerification(ctx context.Context, user *domain.User, otp *domain.OTP) {
	msg := ports.VerificationEmail{
		To:        user.Email,
		Code:      otp.Key,
		ExpiresIn: s.otp.TTL(),
	}
	if user.FullName != nil {
		msg.FullName = *user.FullName
	}

	if err := s.mailer.SendVerification(ctx, msg); err != nil {
		s.log.Error().Err(err).
			Str("user_uuid", user.UUID.String()).
			Msg("verification email not delivered")
	}
}

func reasonOf(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

type nopRecorder struct{}

func (nopRecorder) Record(domain.AuditEvent) {}

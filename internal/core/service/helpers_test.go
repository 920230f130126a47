package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/mknows/bootcamp-api/internal/core/domain"
	"github.com/mknows/bootcamp-api/internal/core/ports"
	"github.com/mknows/bootcamp-api/internal/infrastructure/db/memory"
)

const testSecret = "test-secret"

type captureMailer struct {
	mu   sync.Mutex
	sent []ports.VerificationEmail
	err  error
}

func (m *captureMailer) SendVerification(_ context.Context, msg ports.VerificationEmail) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return m.err
}

func (m *captureMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

func (m *captureMailer) lastCode(t *testing.T) string {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		t.Fatal("no verification email sent")
	}
	return m.sent[len(m.sent)-1].Code
}

type captureAudit struct {
	mu     sync.Mutex
	events []domain.AuditEvent
}

func (a *captureAudit) Record(e domain.AuditEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, e)
}

func (a *captureAudit) types() []domain.AuditEventType {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]domain.AuditEventType, 0, len(a.events))
	for _, e := range a.events {
		out = append(out, e.Type)
	}
	return out
}

type fixture struct {
	store    *memory.Store
	mailer   *captureMailer
	audit    *captureAudit
	otp      *OTPEngine
	sessions *SessionManager
	tokens   *TokenIssuer
	gate     *Gate
	auth     *AuthService
	accounts *AccountService
	users    *UserService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	f := &fixture{
		store:    store,
		mailer:   &captureMailer{},
		audit:    &captureAudit{},
		otp:      NewOTPEngine(10 * time.Minute),
		sessions: NewSessionManager(store.Sessions()),
		tokens:   NewTokenIssuer(testSecret, time.Hour),
	}
	f.gate = NewGate(f.tokens, f.sessions, store.Roles())
	f.auth = NewAuthService(store, f.otp, f.sessions, f.tokens, f.mailer, f.audit, zerolog.Nop())
	f.accounts = NewAccountService(store.Users(), f.sessions)
	f.users = NewUserService(store.Users())
	return f
}

var (
	laptop = domain.ClientInfo{Fingerprint: "Mozilla/5.0 (X11; Linux x86_64) Firefox/128.0", IPAddress: "10.0.0.1"}
	phone  = domain.ClientInfo{Fingerprint: "Mozilla/5.0 (iPhone) Safari/604.1", IPAddress: "10.0.0.2"}
)

// verifiedUser signs up and verifies an account, returning its signup result.
func (f *fixture) verifiedUser(t *testing.T, email, password string) *ports.SignupResult {
	t.Helper()
	ctx := context.Background()
	res, err := f.auth.Signup(ctx, ports.SignupInput{Email: email, Password: password, FullName: "Test User"})
	if err != nil {
		t.Fatalf("Signup: %v", err)
	}
	if _, err := f.auth.VerifyEmail(ctx, res.UUID, f.mailer.lastCode(t)); err != nil {
		t.Fatalf("VerifyEmail: %v", err)
	}
	return res
}

func (f *fixture) login(t *testing.T, email, password string, client domain.ClientInfo) *ports.LoginResult {
	t.Helper()
	res, err := f.auth.Login(context.Background(), ports.LoginInput{Email: email, Password: password, Client: client})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	return res
}

func (f *fixture) grant(t *testing.T, email string, role domain.RoleName) {
	t.Helper()
	ctx := context.Background()
	u, err := f.store.Users().FindByEmail(ctx, email)
	if err != nil {
		t.Fatalf("FindByEmail: %v", err)
	}
	r, err := f.store.Roles().FindByName(ctx, role)
	if err != nil {
		t.Fatalf("FindByName: %v", err)
	}
	if err := f.store.Roles().Assign(ctx, u.ID, r.ID); err != nil && !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("Assign: %v", err)
	}
}

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/mknows/bootcamp-api/internal/api/handler"
	"github.com/mknows/bootcamp-api/internal/core/domain"
	"github.com/mknows/bootcamp-api/internal/core/ports"
	"github.com/mknows/bootcamp-api/internal/core/service"
	"github.com/mknows/bootcamp-api/internal/infrastructure/db/memory"
	"github.com/mknows/bootcamp-api/internal/infrastructure/db/redis"
	infrahttp "github.com/mknows/bootcamp-api/internal/infrastructure/http"
)

const browserUA = "Mozilla/5.0 (X11; Linux x86_64) Firefox/128.0"

type codeMailer struct {
	mu    sync.Mutex
	codes []string
}

func (m *codeMailer) SendVerification(_ context.Context, msg ports.VerificationEmail) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.codes = append(m.codes, msg.Code)
	return nil
}

func (m *codeMailer) last(t *testing.T) string {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.codes) == 0 {
		t.Fatal("no verification code sent")
	}
	return m.codes[len(m.codes)-1]
}

type stubLimiter struct {
	mu     sync.Mutex
	budget map[string]int
}

func (l *stubLimiter) Allow(_ context.Context, policy, _ string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	n, limited := l.budget[policy]
	if !limited {
		return true, nil
	}
	l.budget[policy] = n - 1
	return n > 0, nil
}

type testServer struct {
	e       *echo.Echo
	store   *memory.Store
	mailer  *codeMailer
	limiter *stubLimiter
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	limiter := &stubLimiter{budget: map[string]int{}}
	s := newTestServerWith(t, limiter)
	s.limiter = limiter
	return s
}

func newTestServerWith(t *testing.T, limiter ports.RateLimiter) *testServer {
	t.Helper()
	log := zerolog.Nop()
	store := memory.NewStore()
	mailer := &codeMailer{}

	sessions := service.NewSessionManager(store.Sessions())
	tokens := service.NewTokenIssuer("test-secret", time.Hour)
	gate := service.NewGate(tokens, sessions, store.Roles())

	e := infrahttp.NewRouter(infrahttp.Options{
		Log:          log,
		ErrorHandler: NewHTTPErrorHandler(log),
		Validator:    handler.NewValidator(),
	})
	RegisterRoutes(e, Dependencies{
		Auth:     service.NewAuthService(store, service.NewOTPEngine(10*time.Minute), sessions, tokens, mailer, nil, log),
		Accounts: service.NewAccountService(store.Users(), sessions),
		Users:    service.NewUserService(store.Users()),
		Gate:     gate,
		Limiter:  limiter,
		Log:      log,
	})
	return &testServer{e: e, store: store, mailer: mailer}
}

type call struct {
	method string
	path   string
	body   any
	cookie *http.Cookie
	bearer string
	ua     string
	header map[string]string
}

func (s *testServer) do(t *testing.T, c call) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	if c.body != nil {
		if err := json.NewEncoder(&body).Encode(c.body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(c.method, c.path, &body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	ua := c.ua
	if ua == "" {
		ua = browserUA
	}
	req.Header.Set("User-Agent", ua)
	if c.cookie != nil {
		req.AddCookie(c.cookie)
	}
	if c.bearer != "" {
		req.Header.Set("Authorization", "Bearer "+c.bearer)
	}
	for k, v := range c.header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func expectStatus(t *testing.T, step string, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("%s: status = %d, want %d (body %s)", step, rec.Code, want, rec.Body.String())
	}
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == "Authorization" {
			return c
		}
	}
	t.Fatal("no Authorization cookie set")
	return nil
}

// signupAndVerify registers and verifies an account, returning its uuid.
func (s *testServer) signupAndVerify(t *testing.T, email string) string {
	t.Helper()
	rec := s.do(t, call{method: http.MethodPost, path: "/v1/auth/register",
		body: map[string]string{"email": email, "password": "Passw0rd", "full_name": "Tester"}})
	expectStatus(t, "register", rec, http.StatusCreated)
	id := decode[map[string]string](t, rec)["uuid"]

	rec = s.do(t, call{method: http.MethodPost, path: "/v1/auth/verify",
		body: map[string]string{"uuid": id, "otp": s.mailer.last(t)}})
	expectStatus(t, "verify", rec, http.StatusOK)
	return id
}

func (s *testServer) login(t *testing.T, email, ua string) *http.Cookie {
	t.Helper()
	rec := s.do(t, call{method: http.MethodPost, path: "/v1/auth/login", ua: ua,
		body: map[string]string{"email": email, "password": "Passw0rd"}})
	expectStatus(t, "login", rec, http.StatusOK)
	return sessionCookie(t, rec)
}

func TestScenario_SignupVerifyLoginLogout(t *testing.T) {
	s := newTestServer(t)
	creds := map[string]string{"email": "a@x.com", "password": "Passw0rd", "full_name": "A"}

	rec := s.do(t, call{method: http.MethodPost, path: "/v1/auth/register", body: creds})
	expectStatus(t, "signup", rec, http.StatusCreated)
	reg := decode[map[string]string](t, rec)
	if reg["email"] != "a@x.com" || reg["uuid"] == "" {
		t.Fatalf("unexpected register body: %v", reg)
	}

	rec = s.do(t, call{method: http.MethodPost, path: "/v1/auth/register", body: creds})
	expectStatus(t, "duplicate signup", rec, http.StatusConflict)

	login := map[string]string{"email": "a@x.com", "password": "Passw0rd"}
	rec = s.do(t, call{method: http.MethodPost, path: "/v1/auth/login", body: login})
	expectStatus(t, "login before verification", rec, http.StatusBadRequest)

	code := s.mailer.last(t)
	wrong := "10000000"
	if code == wrong {
		wrong = "10000001"
	}
	rec = s.do(t, call{method: http.MethodPost, path: "/v1/auth/verify",
		body: map[string]string{"uuid": reg["uuid"], "otp": wrong}})
	expectStatus(t, "verify wrong otp", rec, http.StatusBadRequest)
	if got := decode[map[string]string](t, rec)["error"]; got != domain.ErrInvalidOTP.Message {
		t.Fatalf("wrong otp error = %q", got)
	}

	rec = s.do(t, call{method: http.MethodPost, path: "/v1/auth/verify",
		body: map[string]string{"uuid": reg["uuid"], "otp": code}})
	expectStatus(t, "verify", rec, http.StatusOK)
	if got := decode[map[string]string](t, rec)["email"]; got != "a@x.com" {
		t.Fatalf("verified email = %q", got)
	}

	rec = s.do(t, call{method: http.MethodPost, path: "/v1/auth/login", body: login})
	expectStatus(t, "login", rec, http.StatusOK)
	cookie := sessionCookie(t, rec)
	if !cookie.HttpOnly || cookie.MaxAge != int(time.Hour/time.Second) {
		t.Fatalf("cookie attributes: %+v", cookie)
	}
	if tok := decode[map[string]string](t, rec)["access_token"]; tok != cookie.Value {
		t.Fatalf("body token and cookie differ")
	}

	rec = s.do(t, call{method: http.MethodGet, path: "/v1/account/profile/me", cookie: cookie})
	expectStatus(t, "profile", rec, http.StatusOK)
	profile := decode[map[string]any](t, rec)
	if profile["email"] != "a@x.com" || profile["uuid"] != reg["uuid"] || profile["email_verified_at"] == nil {
		t.Fatalf("unexpected profile: %v", profile)
	}

	rec = s.do(t, call{method: http.MethodPost, path: "/v1/auth/logout", cookie: cookie})
	expectStatus(t, "logout", rec, http.StatusOK)
	if sc := rec.Header().Get("Set-Cookie"); !strings.Contains(sc, "Max-Age=0") {
		t.Fatalf("logout must clear the cookie, got %q", sc)
	}

	rec = s.do(t, call{method: http.MethodGet, path: "/v1/account/profile/me", cookie: cookie})
	expectStatus(t, "replay after logout", rec, http.StatusUnauthorized)
}

func TestGate_RejectionsShareOneResponse(t *testing.T) {
	s := newTestServer(t)
	s.signupAndVerify(t, "b@x.com")
	cookie := s.login(t, "b@x.com", browserUA)

	cases := []struct {
		name string
		c    call
	}{
		{"no token", call{}},
		{"garbage token", call{bearer: "not-a-jwt"}},
		{"other device", call{cookie: cookie, ua: "curl/8.5.0"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tc.c.method, tc.c.path = http.MethodGet, "/v1/account/profile/me"
			rec := s.do(t, tc.c)
			expectStatus(t, tc.name, rec, http.StatusUnauthorized)
			if got := decode[map[string]string](t, rec)["error"]; got != "invalid token" {
				t.Fatalf("error = %q, want invalid token", got)
			}
		})
	}
}

func TestBearerHeader_Accepted(t *testing.T) {
	s := newTestServer(t)
	s.signupAndVerify(t, "c@x.com")
	cookie := s.login(t, "c@x.com", browserUA)

	rec := s.do(t, call{method: http.MethodGet, path: "/v1/account/sessions/me", bearer: cookie.Value})
	expectStatus(t, "sessions", rec, http.StatusOK)

	sessions := decode[[]map[string]any](t, rec)
	if len(sessions) != 1 || sessions[0]["is_current"] != true || sessions[0]["useragent"] != browserUA {
		t.Fatalf("unexpected sessions: %v", sessions)
	}
}

func TestUpdateProfile(t *testing.T) {
	s := newTestServer(t)
	s.signupAndVerify(t, "d@x.com")
	cookie := s.login(t, "d@x.com", browserUA)

	rec := s.do(t, call{method: http.MethodPut, path: "/v1/account/profile/me", cookie: cookie,
		body: map[string]any{}})
	expectStatus(t, "empty update", rec, http.StatusBadRequest)

	rec = s.do(t, call{method: http.MethodPut, path: "/v1/account/profile/me", cookie: cookie,
		body: map[string]any{"full_name": "ab"}})
	expectStatus(t, "short name", rec, http.StatusBadRequest)

	rec = s.do(t, call{method: http.MethodPut, path: "/v1/account/profile/me", cookie: cookie,
		body: map[string]any{"full_name": "Dana Scully"}})
	expectStatus(t, "update", rec, http.StatusOK)
	if got := decode[map[string]any](t, rec)["full_name"]; got != "Dana Scully" {
		t.Fatalf("full_name = %v", got)
	}
}

func TestUsers_RequireAdmin(t *testing.T) {
	s := newTestServer(t)
	userID := s.signupAndVerify(t, "user@x.com")
	s.signupAndVerify(t, "admin@x.com")

	ctx := context.Background()
	admin, err := s.store.Users().FindByEmail(ctx, "admin@x.com")
	if err != nil {
		t.Fatalf("find admin: %v", err)
	}
	role, err := s.store.Roles().FindByName(ctx, domain.RoleAdmin)
	if err != nil {
		t.Fatalf("find role: %v", err)
	}
	if err := s.store.Roles().Assign(ctx, admin.ID, role.ID); err != nil {
		t.Fatalf("assign: %v", err)
	}

	userCookie := s.login(t, "user@x.com", browserUA)
	adminCookie := s.login(t, "admin@x.com", browserUA)

	rec := s.do(t, call{method: http.MethodGet, path: "/v1/users", cookie: userCookie})
	expectStatus(t, "user lists users", rec, http.StatusForbidden)

	rec = s.do(t, call{method: http.MethodGet, path: "/v1/users?page=1&limit=1", cookie: adminCookie})
	expectStatus(t, "admin lists users", rec, http.StatusOK)
	list := decode[map[string]any](t, rec)
	if list["total"] != float64(2) || list["total_pages"] != float64(2) {
		t.Fatalf("unexpected list: %v", list)
	}

	rec = s.do(t, call{method: http.MethodGet, path: "/v1/users?limit=101", cookie: adminCookie})
	expectStatus(t, "limit over cap", rec, http.StatusBadRequest)

	rec = s.do(t, call{method: http.MethodGet, path: "/v1/users/" + userID, cookie: adminCookie})
	expectStatus(t, "admin gets user", rec, http.StatusOK)

	rec = s.do(t, call{method: http.MethodGet, path: "/v1/users/00000000-0000-0000-0000-000000000001", cookie: adminCookie})
	expectStatus(t, "unknown user", rec, http.StatusNotFound)
}

func TestUsersCheck_Anonymous(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, call{method: http.MethodGet, path: "/v1/users/check", ua: "  curl/8.5.0  "})
	expectStatus(t, "check", rec, http.StatusOK)
	if got := decode[map[string]string](t, rec)["fingerprint"]; got != "curl/8.5.0" {
		t.Fatalf("fingerprint = %q", got)
	}
}

func TestUsersCheck_IgnoresSpoofedForwardingHeaders(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, call{method: http.MethodGet, path: "/v1/users/check", header: map[string]string{
		echo.HeaderXForwardedFor: "6.6.6.6",
		echo.HeaderXRealIP:       "7.7.7.7",
	}})
	expectStatus(t, "check", rec, http.StatusOK)
	// httptest requests originate from 192.0.2.1.
	if got := decode[map[string]string](t, rec)["ip_address"]; got != "192.0.2.1" {
		t.Fatalf("ip_address = %q, want the TCP peer", got)
	}
}

func TestVerify_RotatingForwardedForStillLimited(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	s := newTestServerWith(t, redis.NewLimiter(client, map[string]redis.Policy{
		redis.PolicyEmailVerification: {Limit: 5, Window: 3 * time.Minute},
	}))

	limited := 0
	for i := 0; i < 50; i++ {
		rec := s.do(t, call{
			method: http.MethodPost,
			path:   "/v1/auth/verify",
			body:   map[string]string{"uuid": "00000000-0000-0000-0000-000000000001", "otp": "123456"},
			header: map[string]string{echo.HeaderXForwardedFor: fmt.Sprintf("10.9.%d.%d", i/250, i%250+1)},
		})
		if rec.Code == http.StatusTooManyRequests {
			limited++
		}
	}
	if limited != 45 {
		t.Fatalf("limited = %d, want 45", limited)
	}
}

func TestVerify_RateLimited(t *testing.T) {
	s := newTestServer(t)
	s.limiter.budget["email-verification"] = 1

	body := map[string]string{"email": "nobody@x.com"}
	rec := s.do(t, call{method: http.MethodPost, path: "/v1/auth/verify/resend", body: body})
	expectStatus(t, "first resend", rec, http.StatusOK)

	rec = s.do(t, call{method: http.MethodPost, path: "/v1/auth/verify/resend", body: body})
	expectStatus(t, "second resend", rec, http.StatusTooManyRequests)
}

func TestResendVerification_IssuesNewCode(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, call{method: http.MethodPost, path: "/v1/auth/register",
		body: map[string]string{"email": "e@x.com", "password": "Passw0rd", "full_name": "E"}})
	expectStatus(t, "register", rec, http.StatusCreated)
	id := decode[map[string]string](t, rec)["uuid"]
	first := s.mailer.last(t)

	rec = s.do(t, call{method: http.MethodPost, path: "/v1/auth/verify/resend",
		body: map[string]string{"email": "e@x.com"}})
	expectStatus(t, "resend", rec, http.StatusOK)
	second := s.mailer.last(t)

	if first != second {
		rec = s.do(t, call{method: http.MethodPost, path: "/v1/auth/verify",
			body: map[string]string{"uuid": id, "otp": first}})
		expectStatus(t, "superseded code", rec, http.StatusBadRequest)
	}

	rec = s.do(t, call{method: http.MethodPost, path: "/v1/auth/verify",
		body: map[string]string{"uuid": id, "otp": second}})
	expectStatus(t, "fresh code", rec, http.StatusOK)
}

func TestRegister_Validation(t *testing.T) {
	s := newTestServer(t)

	cases := map[string]any{
		"bad email":      map[string]string{"email": "nope", "password": "Passw0rd", "full_name": "A"},
		"short password": map[string]string{"email": "f@x.com", "password": "abc", "full_name": "A"},
		"missing name":   map[string]string{"email": "f@x.com", "password": "Passw0rd"},
	}
	for name, body := range cases {
		rec := s.do(t, call{method: http.MethodPost, path: "/v1/auth/register", body: body})
		expectStatus(t, name, rec, http.StatusBadRequest)
	}

	req := httptest.NewRequest(http.MethodPost, "/v1/auth/register", strings.NewReader("{"))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	expectStatus(t, "malformed json", rec, http.StatusBadRequest)
}

func TestErrorHandler_Mapping(t *testing.T) {
	cases := []struct {
		err  error
		code int
		msg  string
	}{
		{domain.ErrEmailExists, http.StatusConflict, "email already exists"},
		{domain.ErrEmailNotVerified, http.StatusBadRequest, "email is not verified"},
		{domain.ErrDeviceMismatch, http.StatusUnauthorized, "invalid token"},
		{domain.ErrSessionMismatch, http.StatusUnauthorized, "invalid token"},
		{domain.ErrForbidden, http.StatusForbidden, "access forbidden"},
		{domain.ErrUserNotFound, http.StatusNotFound, "user not found"},
		{domain.ErrTooManyRequests, http.StatusTooManyRequests, domain.ErrTooManyRequests.Message},
		{echo.NewHTTPError(http.StatusMethodNotAllowed, "method not allowed"), http.StatusMethodNotAllowed, "method not allowed"},
		{errors.New("pq: connection refused"), http.StatusInternalServerError, "internal server error"},
	}

	h := NewHTTPErrorHandler(zerolog.Nop())
	e := echo.New()
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
		h(tc.err, c)

		if rec.Code != tc.code {
			t.Errorf("%v: status = %d, want %d", tc.err, rec.Code, tc.code)
		}
		if got := decode[map[string]string](t, rec)["error"]; got != tc.msg {
			t.Errorf("%v: message = %q, want %q", tc.err, got, tc.msg)
		}
	}
}

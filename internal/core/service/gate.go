package service

import (
	"context"
	"errors"

	"github.com/mknows/bootcamp-api/internal/core/domain"
	"github.com/mknows/bootcamp-api/internal/core/ports"
	"github.com/mknows/bootcamp-api/internal/pkg/metrics"
)

// Gate authenticates a bearer token against its session and device.
type Gate struct {
	tokens   *TokenIssuer
	sessions *SessionManager
	roles    ports.RoleRepository
}

var _ ports.Authenticator = (*Gate)(nil)

func NewGate(tokens *TokenIssuer, sessions *SessionManager, roles ports.RoleRepository) *Gate {
	return &Gate{tokens: tokens, sessions: sessions, roles: roles}
}

// Authenticate accepts the token only when its signature and expiry are valid,
// its session is ACTIVE and owned by the token subject, and the request comes
// from the device that logged in. Rejections refine domain.ErrUnauthorized.
func (g *Gate) Authenticate(ctx context.Context, token string, client domain.ClientInfo) (*domain.Principal, error) {
	p, err := g.authenticate(ctx, token, client)
	if err != nil && errors.Is(err, domain.ErrUnauthorized) {
		metrics.GateRejectionsTotal.WithLabelValues(domain.GateReason(err)).Inc()
	}
	return p, err
}

func (g *Gate) authenticate(ctx context.Context, token string, client domain.ClientInfo) (*domain.Principal, error) {
	if token == "" {
		return nil, domain.ErrNoToken
	}

	userID, sessionID, err := g.tokens.Verify(token)
	if err != nil {
		return nil, domain.ErrInvalidToken
	}

	session, err := g.sessions.FindActive(ctx, sessionID)
	if errors.Is(err, domain.ErrSessionNotFound) {
		return nil, domain.ErrSessionInactive
	}
	if err != nil {
		return nil, err
	}
	if session.User == nil || session.User.UUID != userID {
		return nil, domain.ErrSessionMismatch
	}
	if domain.Fingerprint(client.Fingerprint) != session.Fingerprint {
		return nil, domain.ErrDeviceMismatch
	}

	roles, err := g.roles.ListForUser(ctx, session.User.ID)
	if err != nil {
		return nil, err
	}

	return &domain.Principal{
		User:      session.User,
		SessionID: session.UUID,
		Roles:     roles,
	}, nil
}

// Authorize passes when the principal holds at least one allowed role.
func Authorize(p *domain.Principal, allowed domain.RoleSet) error {
	if p == nil {
		return domain.ErrUnauthorized
	}
	if !p.Roles.Intersects(allowed) {
		return domain.ErrForbidden
	}
	return nil
}

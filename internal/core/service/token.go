package service

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/mknows/bootcamp-api/internal/core/domain"
)

// TokenClaims is the bearer token payload: {uid, sid, iat, exp}.
type TokenClaims struct {
	UID string `json:"uid"`
	SID string `json:"sid"`
	jwt.RegisteredClaims
}

// TokenIssuer mints and verifies HS256 bearer tokens.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// TTL is the lifetime of issued tokens.
func (t *TokenIssuer) TTL() time.Duration { return t.ttl }

// Issue signs a token for the user's session.
func (t *TokenIssuer) Issue(userID, sessionID uuid.UUID) (string, error) {
	now := t.now()
	claims := TokenClaims{
		UID: userID.String(),
		SID: sessionID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks signature and expiry and returns the embedded identifiers.
// Every failure is domain.ErrInvalidToken.
func (t *TokenIssuer) Verify(token string) (userID, sessionID uuid.UUID, err error) {
	claims := &TokenClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil || !parsed.Valid {
		return uuid.Nil, uuid.Nil, domain.ErrInvalidToken
	}

	userID, err = uuid.Parse(claims.UID)
	if err != nil {
		return uuid.Nil, uuid.Nil, domain.ErrInvalidToken
	}
	sessionID, err = uuid.Parse(claims.SID)
	if err != nil {
		return uuid.Nil, uuid.Nil, domain.ErrInvalidToken
	}
	return userID, sessionID, nil
}

package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/mknows/bootcamp-api/internal/core/domain"
	"github.com/mknows/bootcamp-api/internal/core/ports"
)

// SessionManager creates, looks up and invalidates login sessions.
type SessionManager struct {
	repo ports.SessionRepository
	now  func() time.Time
}

func NewSessionManager(repo ports.SessionRepository) *SessionManager {
	return &SessionManager{repo: repo, now: time.Now}
}

// Create opens an ACTIVE session bound to the client's fingerprint.
func (m *SessionManager) Create(ctx context.Context, userID int64, client domain.ClientInfo) (*domain.Session, error) {
	now := m.now().UTC()
	return m.repo.Create(ctx, &domain.Session{
		UUID:        uuid.New(),
		UserID:      userID,
		Fingerprint: domain.Fingerprint(client.Fingerprint),
		IPAddress:   client.IPAddress,
		Status:      domain.SessionActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
}

// FindActive returns the ACTIVE session with its user. Absent and inactive
// sessions both yield domain.ErrSessionNotFound.
func (m *SessionManager) FindActive(ctx context.Context, sessionID uuid.UUID) (*domain.Session, error) {
	return m.repo.FindActive(ctx, sessionID)
}

// Invalidate logs the session out. Unknown, foreign and already closed
// sessions are not an error.
func (m *SessionManager) Invalidate(ctx context.Context, userUUID, sessionID uuid.UUID) error {
	_, err := m.repo.Invalidate(ctx, userUUID, sessionID, m.now().UTC())
	return err
}

// List returns the user's sessions with current first, then newest first.
func (m *SessionManager) List(ctx context.Context, userID int64, current uuid.UUID) ([]ports.SessionView, error) {
	sessions, err := m.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	views := make([]ports.SessionView, 0, len(sessions))
	for _, s := range sessions {
		if s.UUID == current {
			views = append([]ports.SessionView{{Session: s, IsCurrent: true}}, views...)
			continue
		}
		views = append(views, ports.SessionView{Session: s})
	}
	return views, nil
}

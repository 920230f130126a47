package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mknows/bootcamp-api/internal/core/domain"
)

type SessionRepository struct {
	db DBTX
}

func NewSessionRepository(db DBTX) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) Create(ctx context.Context, s *domain.Session) (*domain.Session, error) {
	query := `INSERT INTO users_sessions (uuid, user_id, useragent, ip_address, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`

	err := r.db.QueryRowContext(ctx, query,
		s.UUID, s.UserID, s.Fingerprint, s.IPAddress, string(s.Status), s.CreatedAt, s.UpdatedAt,
	).Scan(&s.ID)
	if err != nil {
		return nil, mapError(err)
	}
	return s, nil
}

func (r *SessionRepository) FindActive(ctx context.Context, sessionID uuid.UUID) (*domain.Session, error) {
	query := `SELECT s.id, s.uuid, s.user_id, s.useragent, s.ip_address, s.status, s.created_at, s.updated_at,
		       u.id, u.uuid, u.email, u.password, u.full_name, u.display_picture, u.email_verified_at, u.created_at, u.updated_at
		FROM users_sessions s
		JOIN users u ON u.id = s.user_id
		WHERE s.uuid = $1 AND s.status = 'ACTIVE' AND s.deleted_at IS NULL AND u.deleted_at IS NULL`

	s := &domain.Session{User: &domain.User{}}
	var status string
	err := r.db.QueryRowContext(ctx, query, sessionID).Scan(
		&s.ID, &s.UUID, &s.UserID, &s.Fingerprint, &s.IPAddress, &status, &s.CreatedAt, &s.UpdatedAt,
		&s.User.ID, &s.User.UUID, &s.User.Email, &s.User.PasswordHash, &s.User.FullName,
		&s.User.DisplayPicture, &s.User.EmailVerifiedAt, &s.User.CreatedAt, &s.User.UpdatedAt,
	)
	if err != nil {
		return nil, notFound(err, domain.ErrSessionNotFound)
	}
	s.Status = domain.SessionStatus(status)
	return s, nil
}

// Invalidate is a single conditional update, so concurrent logouts of the same
// session change the row at most once.
func (r *SessionRepository) Invalidate(ctx context.Context, userUUID, sessionID uuid.UUID, at time.Time) (bool, error) {
	query := `UPDATE users_sessions s
		SET status = 'LOGOUT', updated_at = $3
		FROM users u
		WHERE u.id = s.user_id AND s.uuid = $1 AND u.uuid = $2 AND s.status = 'ACTIVE'`

	res, err := r.db.ExecContext(ctx, query, sessionID, userUUID, at)
	if err != nil {
		return false, mapError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, mapError(err)
	}
	return n > 0, nil
}

func (r *SessionRepository) ListByUser(ctx context.Context, userID int64) ([]*domain.Session, error) {
	query := `SELECT id, uuid, user_id, useragent, ip_address, status, created_at, updated_at
		FROM users_sessions
		WHERE user_id = $1 AND deleted_at IS NULL
		ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var sessions []*domain.Session
	for rows.Next() {
		s := &domain.Session{}
		var status string
		if err := rows.Scan(&s.ID, &s.UUID, &s.UserID, &s.Fingerprint, &s.IPAddress, &status, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		s.Status = domain.SessionStatus(status)
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return sessions, nil
}

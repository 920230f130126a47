package postgres

import (
	"context"
	"database/sql"

	"github.com/mknows/bootcamp-api/internal/core/ports"
)

// Store vends PostgreSQL repositories bound either to the pool or to one
// transaction.
type Store struct {
	db *sql.DB
	q  DBTX
}

var _ ports.Store = (*Store)(nil)

func NewStore(db *sql.DB) *Store {
	return &Store{db: db, q: db}
}

func (s *Store) Users() ports.UserRepository       { return NewUserRepository(s.q) }
func (s *Store) Roles() ports.RoleRepository       { return NewRoleRepository(s.q) }
func (s *Store) Sessions() ports.SessionRepository { return NewSessionRepository(s.q) }
func (s *Store) OTPs() ports.OTPRepository         { return NewOTPRepository(s.q) }

// WithinTx runs fn inside a transaction. A Store already bound to a
// transaction reuses it.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx ports.Store) error) error {
	if _, ok := s.q.(*sql.Tx); ok {
		return fn(ctx, s)
	}
	return withTx(ctx, s.db, nil, func(ctx context.Context, tx *sql.Tx) error {
		return fn(ctx, &Store{db: s.db, q: tx})
	})
}

// Ping checks connectivity; used by the readiness endpoint.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

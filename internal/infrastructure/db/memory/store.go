// Package memory is an in-process implementation of the persistence ports.
// It backs the service and HTTP tests and can run the API without PostgreSQL.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/mknows/bootcamp-api/internal/core/domain"
	"github.com/mknows/bootcamp-api/internal/core/ports"
)

type state struct {
	seq      int64
	users    map[int64]domain.User
	roles    map[domain.RoleName]domain.Role
	members  map[int64]domain.RoleSet
	sessions map[int64]domain.Session
	otps     map[int64]domain.OTP
}

func newState() *state {
	return &state{
		users:    make(map[int64]domain.User),
		roles:    make(map[domain.RoleName]domain.Role),
		members:  make(map[int64]domain.RoleSet),
		sessions: make(map[int64]domain.Session),
		otps:     make(map[int64]domain.OTP),
	}
}

func (s *state) nextID() int64 {
	s.seq++
	return s.seq
}

func (s *state) clone() *state {
	c := newState()
	c.seq = s.seq
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.roles {
		c.roles[k] = v
	}
	for k, v := range s.members {
		c.members[k] = v
	}
	for k, v := range s.sessions {
		c.sessions[k] = v
	}
	for k, v := range s.otps {
		c.otps[k] = v
	}
	return c
}

type database struct {
	mu   sync.Mutex
	data *state
}

// Store is a ports.Store kept in memory. Transactions are serialised and work
// on a copy that replaces the shared state only on success.
type Store struct {
	db *database
	tx *state
}

var _ ports.Store = (*Store)(nil)

// NewStore returns an empty store with the ADMIN and USER roles seeded.
func NewStore() *Store {
	st := newState()
	for _, name := range []domain.RoleName{domain.RoleAdmin, domain.RoleUser} {
		st.roles[name] = domain.Role{ID: st.nextID(), UUID: uuid.New(), Name: name}
	}
	return &Store{db: &database{data: st}}
}

func (s *Store) do(fn func(st *state) error) error {
	if s.tx != nil {
		return fn(s.tx)
	}
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	return fn(s.db.data)
}

func (s *Store) Users() ports.UserRepository       { return &userRepo{s} }
func (s *Store) Roles() ports.RoleRepository       { return &roleRepo{s} }
func (s *Store) Sessions() ports.SessionRepository { return &sessionRepo{s} }
func (s *Store) OTPs() ports.OTPRepository         { return &otpRepo{s} }

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx ports.Store) error) error {
	if s.tx != nil {
		return fn(ctx, s)
	}

	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	work := s.db.data.clone()
	if err := fn(ctx, &Store{db: s.db, tx: work}); err != nil {
		return err
	}
	s.db.data = work
	return nil
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

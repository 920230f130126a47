package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mknows/bootcamp-api/internal/core/domain"
)

type userRepo struct{ s *Store }

func findUser(st *state, match func(u *domain.User) bool) (*domain.User, bool) {
	for _, u := range st.users {
		if match(&u) {
			cp := u
			return &cp, true
		}
	}
	return nil, false
}

func (r *userRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	var out *domain.User
	err := r.s.do(func(st *state) error {
		u, ok := findUser(st, func(u *domain.User) bool { return strings.EqualFold(u.Email, email) })
		if !ok {
			return domain.ErrUserNotFound
		}
		out = u
		return nil
	})
	return out, err
}

func (r *userRepo) FindByUUID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	var out *domain.User
	err := r.s.do(func(st *state) error {
		u, ok := findUser(st, func(u *domain.User) bool { return u.UUID == id })
		if !ok {
			return domain.ErrUserNotFound
		}
		out = u
		return nil
	})
	return out, err
}

func (r *userRepo) FindByID(_ context.Context, id int64) (*domain.User, error) {
	var out *domain.User
	err := r.s.do(func(st *state) error {
		u, ok := st.users[id]
		if !ok {
			return domain.ErrUserNotFound
		}
		out = &u
		return nil
	})
	return out, err
}

func (r *userRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	err := r.s.do(func(st *state) error {
		if _, taken := findUser(st, func(u *domain.User) bool { return strings.EqualFold(u.Email, user.Email) }); taken {
			return domain.ErrEmailExists
		}
		user.ID = st.nextID()
		st.users[user.ID] = *user
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *userRepo) MarkEmailVerified(_ context.Context, userID int64, at time.Time) error {
	return r.s.do(func(st *state) error {
		u, ok := st.users[userID]
		if !ok {
			return domain.ErrUserNotFound
		}
		if u.EmailVerifiedAt == nil {
			t := at
			u.EmailVerifiedAt = &t
		}
		u.UpdatedAt = at
		st.users[userID] = u
		return nil
	})
}

func (r *userRepo) UpdateProfile(_ context.Context, userID int64, upd domain.ProfileUpdate, at time.Time) (*domain.User, error) {
	var out domain.User
	err := r.s.do(func(st *state) error {
		u, ok := st.users[userID]
		if !ok {
			return domain.ErrUserNotFound
		}
		if upd.FullName != nil {
			name := *upd.FullName
			u.FullName = &name
		}
		if upd.DisplayPicture != nil {
			pic := *upd.DisplayPicture
			u.DisplayPicture = &pic
		}
		u.UpdatedAt = at
		st.users[userID] = u
		out = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *userRepo) List(_ context.Context, page domain.Page) ([]*domain.User, int64, error) {
	var (
		out   []*domain.User
		total int64
	)
	err := r.s.do(func(st *state) error {
		all := make([]domain.User, 0, len(st.users))
		for _, u := range st.users {
			all = append(all, u)
		}
		sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
		total = int64(len(all))

		start := page.Offset()
		if start > len(all) {
			start = len(all)
		}
		end := start + page.Limit
		if end > len(all) {
			end = len(all)
		}
		out = make([]*domain.User, 0, end-start)
		for i := start; i < end; i++ {
			u := all[i]
			out = append(out, &u)
		}
		return nil
	})
	return out, total, err
}

type roleRepo struct{ s *Store }

func (r *roleRepo) FindByName(_ context.Context, name domain.RoleName) (*domain.Role, error) {
	var out domain.Role
	err := r.s.do(func(st *state) error {
		role, ok := st.roles[name]
		if !ok {
			return domain.ErrRoleNotFound
		}
		out = role
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *roleRepo) Assign(_ context.Context, userID, roleID int64) error {
	return r.s.do(func(st *state) error {
		if _, ok := st.users[userID]; !ok {
			return domain.ErrValidation
		}
		for name, role := range st.roles {
			if role.ID == roleID {
				if st.members[userID].Has(name) {
					return domain.ErrConflict
				}
				st.members[userID] = st.members[userID].Add(name)
				return nil
			}
		}
		return domain.ErrValidation
	})
}

func (r *roleRepo) ListForUser(_ context.Context, userID int64) (domain.RoleSet, error) {
	var out domain.RoleSet
	err := r.s.do(func(st *state) error {
		out = st.members[userID]
		return nil
	})
	return out, err
}

type sessionRepo struct{ s *Store }

func (r *sessionRepo) Create(_ context.Context, session *domain.Session) (*domain.Session, error) {
	err := r.s.do(func(st *state) error {
		if _, ok := st.users[session.UserID]; !ok {
			return domain.ErrValidation
		}
		session.ID = st.nextID()
		cp := *session
		cp.User = nil
		st.sessions[session.ID] = cp
		return nil
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

func (r *sessionRepo) FindActive(_ context.Context, sessionID uuid.UUID) (*domain.Session, error) {
	var out *domain.Session
	err := r.s.do(func(st *state) error {
		for _, s := range st.sessions {
			if s.UUID != sessionID || s.Status != domain.SessionActive {
				continue
			}
			u, ok := st.users[s.UserID]
			if !ok {
				break
			}
			cp := s
			cp.User = &u
			out = &cp
			return nil
		}
		return domain.ErrSessionNotFound
	})
	return out, err
}

func (r *sessionRepo) Invalidate(_ context.Context, userUUID, sessionID uuid.UUID, at time.Time) (bool, error) {
	var changed bool
	err := r.s.do(func(st *state) error {
		for id, s := range st.sessions {
			if s.UUID != sessionID || s.Status != domain.SessionActive {
				continue
			}
			if u, ok := st.users[s.UserID]; !ok || u.UUID != userUUID {
				return nil
			}
			s.Status = domain.SessionLogout
			s.UpdatedAt = at
			st.sessions[id] = s
			changed = true
			return nil
		}
		return nil
	})
	return changed, err
}

func (r *sessionRepo) ListByUser(_ context.Context, userID int64) ([]*domain.Session, error) {
	var out []*domain.Session
	err := r.s.do(func(st *state) error {
		for _, s := range st.sessions {
			if s.UserID == userID {
				cp := s
				out = append(out, &cp)
			}
		}
		sort.Slice(out, func(i, j int) bool {
			if out[i].CreatedAt.Equal(out[j].CreatedAt) {
				return out[i].ID > out[j].ID
			}
			return out[i].CreatedAt.After(out[j].CreatedAt)
		})
		return nil
	})
	return out, err
}

type otpRepo struct{ s *Store }

func (r *otpRepo) Create(_ context.Context, otp *domain.OTP) (*domain.OTP, error) {
	err := r.s.do(func(st *state) error {
		if _, ok := st.users[otp.UserID]; !ok {
			return domain.ErrValidation
		}
		otp.ID = st.nextID()
		st.otps[otp.ID] = *otp
		return nil
	})
	if err != nil {
		return nil, err
	}
	return otp, nil
}

func (r *otpRepo) Redeem(_ context.Context, userID int64, key string, purpose domain.OTPPurpose, now time.Time) (*domain.OTP, error) {
	var out *domain.OTP
	err := r.s.do(func(st *state) error {
		var picked *domain.OTP
		for _, o := range st.otps {
			if o.UserID != userID || o.Key != key || o.Purpose != purpose || o.Status != domain.OTPAvailable {
				continue
			}
			if picked == nil || o.CreatedAt.After(picked.CreatedAt) || (o.CreatedAt.Equal(picked.CreatedAt) && o.ID > picked.ID) {
				cp := o
				picked = &cp
			}
		}
		if picked == nil {
			return domain.ErrNotFound
		}
		if picked.IsExpired(now) {
			picked.Status = domain.OTPExpired
		} else {
			picked.Status = domain.OTPUsed
		}
		st.otps[picked.ID] = *picked
		out = picked
		return nil
	})
	return out, err
}

func (r *otpRepo) ExpireAvailable(_ context.Context, userID int64, purpose domain.OTPPurpose, _ time.Time) (int64, error) {
	var n int64
	err := r.s.do(func(st *state) error {
		for id, o := range st.otps {
			if o.UserID == userID && o.Purpose == purpose && o.Status == domain.OTPAvailable {
				o.Status = domain.OTPExpired
				st.otps[id] = o
				n++
			}
		}
		return nil
	})
	return n, err
}

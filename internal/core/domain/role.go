package domain

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// RoleName is the closed set of permission groups seeded at deployment.
type RoleName uint8

const (
	RoleAdmin RoleName = iota + 1
	RoleUser
)

var roleNames = map[RoleName]string{
	RoleAdmin: "ADMIN",
	RoleUser:  "USER",
}

func (r RoleName) String() string {
	if s, ok := roleNames[r]; ok {
		return s
	}
	return fmt.Sprintf("RoleName(%d)", uint8(r))
}

// ParseRoleName maps a stored role name to its RoleName.
func ParseRoleName(s string) (RoleName, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for r, name := range roleNames {
		if name == s {
			return r, nil
		}
	}
	return 0, fmt.Errorf("unknown role %q", s)
}

// RoleSet is a bitmask of role memberships.
type RoleSet uint8

// NewRoleSet builds a set from the given names.
func NewRoleSet(roles ...RoleName) RoleSet {
	var s RoleSet
	for _, r := range roles {
		s = s.Add(r)
	}
	return s
}

func (s RoleSet) Add(r RoleName) RoleSet {
	if r == 0 || r > 8 {
		return s
	}
	return s | 1<<(r-1)
}

func (s RoleSet) Has(r RoleName) bool {
	if r == 0 || r > 8 {
		return false
	}
	return s&(1<<(r-1)) != 0
}

// Intersects reports whether s and other share at least one role.
func (s RoleSet) Intersects(other RoleSet) bool {
	return s&other != 0
}

func (s RoleSet) IsEmpty() bool { return s == 0 }

// Names returns the members in declaration order.
func (s RoleSet) Names() []string {
	out := make([]string, 0, len(roleNames))
	for _, r := range []RoleName{RoleAdmin, RoleUser} {
		if s.Has(r) {
			out = append(out, r.String())
		}
	}
	return out
}

// Role is a row of the roles reference table.
type Role struct {
	ID   int64
	UUID uuid.UUID
	Name RoleName
}

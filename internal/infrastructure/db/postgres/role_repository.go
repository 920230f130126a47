package postgres

import (
	"context"

	"github.com/mknows/bootcamp-api/internal/core/domain"
)

type RoleRepository struct {
	db DBTX
}

func NewRoleRepository(db DBTX) *RoleRepository {
	return &RoleRepository{db: db}
}

func (r *RoleRepository) FindByName(ctx context.Context, name domain.RoleName) (*domain.Role, error) {
	query := `SELECT id, uuid FROM roles WHERE name = $1 AND deleted_at IS NULL`

	role := &domain.Role{Name: name}
	if err := r.db.QueryRowContext(ctx, query, name.String()).Scan(&role.ID, &role.UUID); err != nil {
		return nil, notFound(err, domain.ErrRoleNotFound)
	}
	return role, nil
}

func (r *RoleRepository) Assign(ctx context.Context, userID, roleID int64) error {
	query := `INSERT INTO users_roles (user_id, role_id) VALUES ($1, $2)`

	if _, err := r.db.ExecContext(ctx, query, userID, roleID); err != nil {
		return mapError(err)
	}
	return nil
}

// ListForUser returns the user's memberships. Names outside the RoleName
// enumeration are ignored.
func (r *RoleRepository) ListForUser(ctx context.Context, userID int64) (domain.RoleSet, error) {
	query := `SELECT r.name
		FROM users_roles ur
		JOIN roles r ON r.id = ur.role_id
		WHERE ur.user_id = $1 AND ur.deleted_at IS NULL AND r.deleted_at IS NULL`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return 0, mapError(err)
	}
	defer rows.Close()

	var set domain.RoleSet
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return 0, mapError(err)
		}
		if role, err := domain.ParseRoleName(name); err == nil {
			set = set.Add(role)
		}
	}
	if err := rows.Err(); err != nil {
		return 0, mapError(err)
	}
	return set, nil
}

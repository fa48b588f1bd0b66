package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iliyamo/garage-admin/internal/model"
)

// RoleRepo reads the `roles` table.
type RoleRepo struct{ DB *sql.DB }

func NewRoleRepo(db *sql.DB) *RoleRepo { return &RoleRepo{DB: db} }

// List returns every role ordered by id.
func (r *RoleRepo) List(ctx context.Context) ([]model.Role, error) {
	rows, err := r.DB.QueryContext(ctx, "SELECT id, name FROM roles ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Role{}
	for rows.Next() {
		var role model.Role
		if err := rows.Scan(&role.ID, &role.Name); err != nil {
			return nil, err
		}
		out = append(out, role)
	}
	return out, rows.Err()
}

// GetByID fetches a role by id.
func (r *RoleRepo) GetByID(ctx context.Context, id uint64) (model.Role, error) {
	return r.getOne(ctx, "SELECT id, name FROM roles WHERE id=? LIMIT 1", id)
}

// GetByName fetches a role by its unique name.
func (r *RoleRepo) GetByName(ctx context.Context, name string) (model.Role, error) {
	return r.getOne(ctx, "SELECT id, name FROM roles WHERE name=? LIMIT 1", name)
}

// ResolveRoleSet looks up the administrator and default roles by name. Both
// must exist and be distinct.
func (r *RoleRepo) ResolveRoleSet(ctx context.Context, adminName, defaultName string) (model.RoleSet, error) {
	admin, err := r.GetByName(ctx, adminName)
	if err != nil {
		return model.RoleSet{}, fmt.Errorf("resolve admin role %q: %w", adminName, err)
	}
	def, err := r.GetByName(ctx, defaultName)
	if err != nil {
		return model.RoleSet{}, fmt.Errorf("resolve default role %q: %w", defaultName, err)
	}
	if admin.ID == def.ID {
		return model.RoleSet{}, fmt.Errorf("admin role %q and default role %q share id %d", adminName, defaultName, admin.ID)
	}
	return model.RoleSet{AdminID: admin.ID, DefaultID: def.ID}, nil
}

func (r *RoleRepo) getOne(ctx context.Context, q string, arg any) (model.Role, error) {
	var role model.Role
	err := r.DB.QueryRowContext(ctx, q, arg).Scan(&role.ID, &role.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Role{}, ErrNotFound
	}
	return role, err
}

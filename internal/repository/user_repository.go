package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iliyamo/garage-admin/internal/model"
)

// UserRepo reads and writes the `users` table.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = "id,lastname,firstname,email,password,id_role,created_at"

// Create inserts u and returns its new id. u.PasswordHash must already be a
// hash; the repository never sees a plaintext password.
func (r *UserRepo) Create(ctx context.Context, u model.User) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (lastname, firstname, email, password, id_role, created_at) VALUES (?,?,?,?,?,NOW())",
		u.Lastname, u.Firstname, u.Email, u.PasswordHash, u.RoleID)
	if err != nil {
		return 0, translateWrite(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return uint64(id), nil
}

// GetByEmail fetches a user by email, compared exactly as stored.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", email)
	return scanUser(row)
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id)
	return scanUser(row)
}

// Update overwrites the editable fields of user id.
func (r *UserRepo) Update(ctx context.Context, id uint64, u model.UserUpdate) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET lastname=?, firstname=?, email=?, id_role=? WHERE id=?",
		u.Lastname, u.Firstname, u.Email, u.RoleID, id)
	if err != nil {
		return translateWrite(err)
	}
	return expectOne(res)
}

// Delete removes user id.
func (r *UserRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM users WHERE id=?", id)
	if err != nil {
		return err
	}
	return expectOne(res)
}

// ListWithRole returns every user joined with its role name, oldest first.
func (r *UserRepo) ListWithRole(ctx context.Context) ([]model.UserWithRole, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT u.id, u.lastname, u.firstname, u.email, r.name AS role, u.created_at
		FROM users u
		JOIN roles r ON u.id_role = r.id
		ORDER BY u.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.UserWithRole{}
	for rows.Next() {
		var u model.UserWithRole
		if err := rows.Scan(&u.ID, &u.Lastname, &u.Firstname, &u.Email, &u.Role, &u.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func scanUser(row *sql.Row) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Lastname, &u.Firstname, &u.Email, &u.PasswordHash, &u.RoleID, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ErrNotFound
	}
	return u, err
}

func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

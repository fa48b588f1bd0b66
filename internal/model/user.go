package model

import "time"

// User mirrors a row of the `users` table. PasswordHash is never serialized.
type User struct {
	ID           uint64    `json:"id"`
	Lastname     string    `json:"lastname"`
	Firstname    string    `json:"firstname"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	RoleID       uint64    `json:"id_role"`
	CreatedAt    time.Time `json:"created_at"`
}

// Role mirrors a row of the `roles` table.
type Role struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
}

// UserWithRole is a user joined with the name of its role, as listed in the
// admin console.
type UserWithRole struct {
	ID        uint64    `json:"id"`
	Lastname  string    `json:"lastname"`
	Firstname string    `json:"firstname"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// UserUpdate carries the editable fields of a user.
type UserUpdate struct {
	Lastname  string
	Firstname string
	Email     string
	RoleID    uint64
}

// RoleSet holds the role ids the server needs by meaning rather than by
// value. It is resolved once at startup from the roles table.
type RoleSet struct {
	AdminID   uint64
	DefaultID uint64
}

// IsAdmin reports whether roleID is the administrator role.
func (s RoleSet) IsAdmin(roleID uint64) bool {
	return s.AdminID != 0 && roleID == s.AdminID
}

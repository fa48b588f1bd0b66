// Package repository holds the MySQL data access layer. Sentinel errors let
// handlers tell failure scenarios apart without inspecting driver errors.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when the addressed row does not exist.
var ErrNotFound = errors.New("not found")

// ErrEmailExists is returned when an insert or update collides with the
// unique index on users.email.
var ErrEmailExists = errors.New("email already exists")

// ErrUnknownRole is returned when a user references a role id that is not in
// the roles table.
var ErrUnknownRole = errors.New("unknown role")

const (
	mysqlDuplicateEntry = 1062
	mysqlNoReferenced   = 1452
)

// mysqlCode extracts the server error number, or 0.
func mysqlCode(err error) uint16 {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number
	}
	return 0
}

// translateWrite maps constraint violations of a write to sentinel errors.
func translateWrite(err error) error {
	switch mysqlCode(err) {
	case mysqlDuplicateEntry:
		return ErrEmailExists
	case mysqlNoReferenced:
		return ErrUnknownRole
	}
	return err
}

package database

import (
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptionsDSN(t *testing.T) {
	dsn := Options{User: "dev", Pass: "p@ss", Host: "db", Port: "3306", Name: "garage_db"}.DSN()

	cfg, err := mysql.ParseDSN(dsn)
	require.NoError(t, err)
	assert.Equal(t, "dev", cfg.User)
	assert.Equal(t, "p@ss", cfg.Passwd)
	assert.Equal(t, "db:3306", cfg.Addr)
	assert.Equal(t, "garage_db", cfg.DBName)
	assert.True(t, cfg.ParseTime)
	assert.Contains(t, dsn, "charset=utf8mb4")
}

func TestOptionsDSN_EmptyPassword(t *testing.T) {
	dsn := Options{User: "dev", Host: "localhost", Port: "3306", Name: "garage_db"}.DSN()
	assert.Contains(t, dsn, "dev@tcp(localhost:3306)/garage_db")
}

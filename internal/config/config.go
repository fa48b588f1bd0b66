// Package config loads application configuration from environment variables.
// A .env file, when present, is applied first so local runs do not need
// exported variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration values. Each field corresponds to an
// environment variable. The value is built once at startup and never mutated.
type Config struct {
	Env    string // application environment (dev, test, prod)
	Port   string // HTTP port to listen on
	DBUser string
	DBPass string // empty allowed
	DBHost string
	DBPort string
	DBName string

	JWTSecret     string        // HS256 signing secret, never defaulted
	TokenTTL      time.Duration // session token lifetime
	BcryptCost    int
	SessionCookie string // name of the cookie carrying the session token

	AdminRoleName   string // roles.name of the administrator role
	DefaultRoleName string // roles.name assigned on sign-up

	StoreTimeout time.Duration // upper bound for a single store call
	CORSOrigins  []string
	StaticDir    string // built front end served as an SPA
	LogLevel     string
}

// ErrMissingEnv is wrapped by Load for every required variable that is unset.
var ErrMissingEnv = errors.New("missing required env var")

// LoadEnvFile applies variables from a dotenv file without overriding values
// already present in the environment. A missing file is not an error.
func LoadEnvFile(path string) error {
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// Load reads configuration values from environment variables. Every missing
// required variable and every malformed value is reported in the returned error.
func Load() (Config, error) {
	var errs []error
	must := func(key string) string {
		v, ok := os.LookupEnv(key)
		if !ok || strings.TrimSpace(v) == "" {
			errs = append(errs, fmt.Errorf("%w: %s", ErrMissingEnv, key))
		}
		return v
	}

	cfg := Config{
		Env:             must("APP_ENV"),
		Port:            must("APP_PORT"),
		DBUser:          must("DB_USER"),
		DBPass:          os.Getenv("DB_PASS"),
		DBHost:          must("DB_HOST"),
		DBPort:          must("DB_PORT"),
		DBName:          must("DB_NAME"),
		JWTSecret:       must("JWT_SECRET"),
		TokenTTL:        envDur("TOKEN_TTL", 24*time.Hour),
		BcryptCost:      envInt("BCRYPT_COST", 10),
		SessionCookie:   envStr("SESSION_COOKIE", "token"),
		AdminRoleName:   envStr("ADMIN_ROLE_NAME", "admin"),
		DefaultRoleName: envStr("DEFAULT_ROLE_NAME", "user"),
		StoreTimeout:    envDur("STORE_TIMEOUT", 5*time.Second),
		CORSOrigins:     splitList(envStr("CORS_ORIGINS", "http://localhost:5173")),
		StaticDir:       envStr("STATIC_DIR", "client/dist"),
		LogLevel:        envStr("LOG_LEVEL", "info"),
	}

	if cfg.TokenTTL <= 0 {
		errs = append(errs, fmt.Errorf("invalid TOKEN_TTL: %s", cfg.TokenTTL))
	}
	if cfg.StoreTimeout <= 0 {
		errs = append(errs, fmt.Errorf("invalid STORE_TIMEOUT: %s", cfg.StoreTimeout))
	}
	if cfg.AdminRoleName == cfg.DefaultRoleName {
		errs = append(errs, fmt.Errorf("ADMIN_ROLE_NAME and DEFAULT_ROLE_NAME must differ (both %q)", cfg.AdminRoleName))
	}
	if len(errs) > 0 {
		return Config{}, errors.Join(errs...)
	}
	return cfg, nil
}

// IsDev reports whether the process runs in a development environment.
func (c Config) IsDev() bool {
	e := strings.ToLower(c.Env)
	return e == "dev" || e == "development" || e == "local"
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func envStr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func envBool(k string, d bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	switch v {
	case "1", "true", "TRUE", "True", "yes", "YES", "on", "ON":
		return true
	case "0", "false", "FALSE", "False", "no", "NO", "off", "OFF":
		return false
	}
	return d
}

func envInt(k string, d int) int {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	return d
}

func envDur(k string, d time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if dur, err := time.ParseDuration(v); err == nil {
		return dur
	}
	return d
}

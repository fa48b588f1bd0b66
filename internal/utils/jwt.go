// Package utils holds the credential primitives: bcrypt password hashing and
// the HS256 session token service.
package utils

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrEmptySecret is returned by NewTokenService when no signing secret is set.
var ErrEmptySecret = errors.New("token secret is empty")

// Token is a signed session token and its expiry.
type Token struct {
	Value string
	Exp   time.Time
}

// Verification is the outcome of checking a presented token. It is never an
// error: any failure is reported as Valid=false. Expired is set when the
// signature was good but the token is past its expiry.
type Verification struct {
	Valid     bool
	SubjectID uint64
	Expired   bool
}

// TokenService issues and verifies stateless HS256 session tokens. It is
// built once at startup and safe for concurrent use.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// TokenOption configures a TokenService.
type TokenOption func(*TokenService)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) TokenOption {
	return func(s *TokenService) { s.now = now }
}

// NewTokenService returns a service signing with secret; tokens live for ttl.
func NewTokenService(secret []byte, ttl time.Duration, opts ...TokenOption) (*TokenService, error) {
	if len(secret) == 0 {
		return nil, ErrEmptySecret
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("token ttl must be positive, got %s", ttl)
	}
	s := &TokenService{
		secret: append([]byte(nil), secret...),
		ttl:    ttl,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// TTL is the lifetime of issued tokens.
func (s *TokenService) TTL() time.Duration { return s.ttl }

// Issue builds and signs a token for subjectID with sub, iat, exp and jti
// claims.
func (s *TokenService) Issue(subjectID uint64) (Token, error) {
	now := s.now().UTC().Truncate(time.Second)
	exp := now.Add(s.ttl)
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatUint(subjectID, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
		ID:        uuid.NewString(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return Token{}, fmt.Errorf("sign token: %w", err)
	}
	return Token{Value: signed, Exp: exp}, nil
}

// Verify checks signature, algorithm and expiry of raw and extracts the
// subject. It fails closed.
func (s *TokenService) Verify(raw string) Verification {
	if raw == "" {
		return Verification{}
	}
	var claims jwt.RegisteredClaims
	tok, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return Verification{Expired: errors.Is(err, jwt.ErrTokenExpired) && !errors.Is(err, jwt.ErrTokenSignatureInvalid)}
	}
	if !tok.Valid {
		return Verification{}
	}
	id, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil || id == 0 {
		return Verification{}
	}
	return Verification{Valid: true, SubjectID: id}
}

package middleware

import (
	"context"
	"errors"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/garage-admin/internal/apperr"
	"github.com/iliyamo/garage-admin/internal/model"
	"github.com/iliyamo/garage-admin/internal/repository"
	"github.com/iliyamo/garage-admin/internal/utils"
)

// TokenVerifier checks a presented session token.
type TokenVerifier interface {
	Verify(raw string) utils.Verification
}

// UserLookup loads a user record by id.
type UserLookup interface {
	GetByID(ctx context.Context, id uint64) (model.User, error)
}

// outcome is one row of the access decision table. Rows are evaluated in
// declaration order and the first failing row wins.
type outcome uint8

const (
	allowed outcome = iota
	tokenAbsent
	tokenInvalid
	tokenExpired
	subjectUnknown
	roleMismatch
)

// policy maps each denying outcome to the error returned to the client.
type policy map[outcome]*apperr.Error

// authenticatedPolicy gates routes that only need a valid session.
var authenticatedPolicy = policy{
	tokenAbsent:  apperr.New(apperr.Unauthorized, "token_required"),
	tokenInvalid: apperr.New(apperr.Forbidden, "invalid_token"),
	tokenExpired: apperr.New(apperr.Forbidden, "token_expired"),
}

// adminPolicy gates user management routes.
var adminPolicy = policy{
	tokenAbsent:    apperr.New(apperr.Forbidden, "token_missing"),
	tokenInvalid:   apperr.New(apperr.Unauthorized, "invalid_token"),
	tokenExpired:   apperr.New(apperr.Unauthorized, "token_expired"),
	subjectUnknown: apperr.New(apperr.NotFound, "user_missing"),
	roleMismatch:   apperr.New(apperr.Forbidden, "not_admin"),
}

// AccessControl builds the two access policies. All fields are required
// except Cookie and Timeout, which default to "token" and 5s.
type AccessControl struct {
	Tokens  TokenVerifier
	Users   UserLookup
	Roles   model.RoleSet
	Cookie  string
	Timeout time.Duration
}

// RequireAuth admits any request carrying a valid session token and stores
// the subject id in the context.
func (a *AccessControl) RequireAuth() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, out := a.authenticate(c)
			if out != allowed {
				return apperr.Respond(c, authenticatedPolicy[out])
			}
			setSubject(c, id)
			return next(c)
		}
	}
}

// RequireAdmin admits a request only when its session token is valid and the
// subject's current role, read from the store, is the administrator role.
// The role is looked up on every request so a demotion takes effect before
// the token expires.
func (a *AccessControl) RequireAdmin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, out := a.authenticate(c)
			if out != allowed {
				return apperr.Respond(c, adminPolicy[out])
			}
			out, err := a.authorizeAdmin(c.Request().Context(), id)
			if err != nil {
				return apperr.Respond(c, apperr.Wrap(apperr.Internal, "server_error", err))
			}
			if out != allowed {
				return apperr.Respond(c, adminPolicy[out])
			}
			setSubject(c, id)
			return next(c)
		}
	}
}

func (a *AccessControl) authenticate(c echo.Context) (uint64, outcome) {
	raw, ok := SessionToken(c.Request(), a.Cookie)
	if !ok {
		return 0, tokenAbsent
	}
	v := a.Tokens.Verify(raw)
	switch {
	case v.Valid:
		return v.SubjectID, allowed
	case v.Expired:
		return 0, tokenExpired
	default:
		return 0, tokenInvalid
	}
}

func (a *AccessControl) authorizeAdmin(ctx context.Context, id uint64) (outcome, error) {
	timeout := a.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	u, err := a.Users.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return subjectUnknown, nil
	}
	if err != nil {
		return allowed, err
	}
	if !a.Roles.IsAdmin(u.RoleID) {
		return roleMismatch, nil
	}
	return allowed, nil
}

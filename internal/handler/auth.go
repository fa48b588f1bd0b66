package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/garage-admin/internal/apperr"
	"github.com/iliyamo/garage-admin/internal/middleware"
	"github.com/iliyamo/garage-admin/internal/model"
	"github.com/iliyamo/garage-admin/internal/queue"
	"github.com/iliyamo/garage-admin/internal/repository"
	"github.com/iliyamo/garage-admin/internal/utils"
	"github.com/iliyamo/garage-admin/internal/validation"
)

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Users        UserStore
	Roles        RoleStore
	Tokens       TokenIssuer
	RoleSet      model.RoleSet
	BcryptCost   int
	Cookie       string        // session cookie name
	SecureCookie bool          // set the Secure attribute on the session cookie
	Timeout      time.Duration // per store call
	Events       EventSink
}

// ----- DTOs -----

type signUpReq struct {
	Lastname  string `json:"lastname" validate:"required,max=100"`
	Firstname string `json:"firstname" validate:"required,max=100"`
	Email     string `json:"email" validate:"required,email,max=255"`
	Password  string `json:"password" validate:"required,max=72"`
}

type signInReq struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type verifyReq struct {
	Token string `json:"token"`
}

type signInResp struct {
	Auth  bool   `json:"auth"`
	Token string `json:"token"`
}

// SignUp hashes the password and stores a new user with the default role.
func (h *AuthHandler) SignUp(c echo.Context) error {
	var req signUpReq
	if err := c.Bind(&req); err != nil {
		return apperr.Respond(c, apperr.New(apperr.BadRequest, "invalid_body"))
	}
	req.Email = strings.TrimSpace(req.Email)
	if err := c.Validate(&req); err != nil {
		return apperr.Respond(c, apperr.New(apperr.BadRequest, validation.Reason(err)))
	}

	hash, err := utils.HashPassword(req.Password, h.BcryptCost)
	if errors.Is(err, utils.ErrPasswordTooLong) {
		return apperr.Respond(c, apperr.New(apperr.BadRequest, "password_invalid"))
	}
	if err != nil {
		return apperr.Respond(c, apperr.Wrap(apperr.Internal, "server_error", err))
	}

	ctx, cancel := storeCtx(c, h.Timeout)
	defer cancel()
	id, err := h.Users.Create(ctx, model.User{
		Lastname:     req.Lastname,
		Firstname:    req.Firstname,
		Email:        req.Email,
		PasswordHash: hash,
		RoleID:       h.RoleSet.DefaultID,
	})
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return apperr.Respond(c, apperr.New(apperr.Conflict, "email_exists"))
		}
		return apperr.Respond(c, apperr.Wrap(apperr.Internal, "server_error", err))
	}

	emit(c, h.Events, queue.UserEvent{Type: queue.UserRegistered, UserID: id, Email: req.Email})
	return c.JSON(http.StatusCreated, echo.Map{"message": "user registered", "id": id})
}

// SignIn checks the credentials and returns a session token. The token is
// also set as the session cookie.
func (h *AuthHandler) SignIn(c echo.Context) error {
	var req signInReq
	if err := c.Bind(&req); err != nil {
		return apperr.Respond(c, apperr.New(apperr.BadRequest, "invalid_body"))
	}
	req.Email = strings.TrimSpace(req.Email)
	if err := c.Validate(&req); err != nil {
		return apperr.Respond(c, apperr.New(apperr.BadRequest, validation.Reason(err)))
	}

	ctx, cancel := storeCtx(c, h.Timeout)
	defer cancel()
	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.Respond(c, apperr.New(apperr.NotFound, "user_not_found"))
		}
		return apperr.Respond(c, apperr.Wrap(apperr.Internal, "server_error", err))
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return apperr.Respond(c, apperr.New(apperr.Unauthorized, "invalid_password"))
	}

	tok, err := h.Tokens.Issue(u.ID)
	if err != nil {
		return apperr.Respond(c, apperr.Wrap(apperr.Internal, "server_error", err))
	}
	c.SetCookie(h.sessionCookie(tok.Value, tok.Exp))
	return c.JSON(http.StatusOK, signInResp{Auth: true, Token: tok.Value})
}

// VerifyToken reports whether the token in the body is currently valid.
func (h *AuthHandler) VerifyToken(c echo.Context) error {
	var req verifyReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Token) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"valid": false})
	}
	v := h.Tokens.Verify(strings.TrimSpace(req.Token))
	return c.JSON(http.StatusOK, echo.Map{"valid": v.Valid})
}

// SignOut expires the session cookie. Tokens are stateless, so nothing is
// revoked server side; a copied token stays valid until it expires.
func (h *AuthHandler) SignOut(c echo.Context) error {
	ck := h.sessionCookie("", time.Unix(0, 0))
	ck.MaxAge = -1
	c.SetCookie(ck)
	return c.NoContent(http.StatusNoContent)
}

// Me returns the authenticated user's profile.
func (h *AuthHandler) Me(c echo.Context) error {
	id, ok := middleware.UserID(c)
	if !ok {
		return apperr.Respond(c, apperr.New(apperr.Unauthorized, "token_required"))
	}

	ctx, cancel := storeCtx(c, h.Timeout)
	defer cancel()
	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.Respond(c, apperr.New(apperr.NotFound, "user_missing"))
		}
		return apperr.Respond(c, apperr.Wrap(apperr.Internal, "server_error", err))
	}
	role, err := h.Roles.GetByID(ctx, u.RoleID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return apperr.Respond(c, apperr.Wrap(apperr.Internal, "server_error", err))
	}
	return c.JSON(http.StatusOK, model.UserWithRole{
		ID:        u.ID,
		Lastname:  u.Lastname,
		Firstname: u.Firstname,
		Email:     u.Email,
		Role:      role.Name,
		CreatedAt: u.CreatedAt,
	})
}

// sessionCookie is readable by the front end, which also sends the token in
// verify-token requests.
func (h *AuthHandler) sessionCookie(value string, exp time.Time) *http.Cookie {
	name := h.Cookie
	if name == "" {
		name = middleware.DefaultSessionCookie
	}
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  exp,
		MaxAge:   int(h.Tokens.TTL() / time.Second),
		Secure:   h.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	}
}

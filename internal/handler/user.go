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
	"github.com/iliyamo/garage-admin/internal/validation"
)

// UserHandler serves the user management endpoints of the admin console.
type UserHandler struct {
	Users   UserStore
	Timeout time.Duration
	Events  EventSink
}

type updateUserReq struct {
	Lastname  string `json:"lastname" validate:"required,max=100"`
	Firstname string `json:"firstname" validate:"required,max=100"`
	Email     string `json:"email" validate:"required,email,max=255"`
	RoleID    uint64 `json:"id_role" validate:"required"`
}

// List returns every user with its role name.
func (h *UserHandler) List(c echo.Context) error {
	ctx, cancel := storeCtx(c, h.Timeout)
	defer cancel()
	users, err := h.Users.ListWithRole(ctx)
	if err != nil {
		return apperr.Respond(c, apperr.Wrap(apperr.Internal, "server_error", err))
	}
	return c.JSON(http.StatusOK, users)
}

// Update overwrites the names, email and role of a user.
func (h *UserHandler) Update(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return apperr.Respond(c, apperr.New(apperr.BadRequest, "invalid_id"))
	}
	var req updateUserReq
	if err := c.Bind(&req); err != nil {
		return apperr.Respond(c, apperr.New(apperr.BadRequest, "invalid_body"))
	}
	req.Email = strings.TrimSpace(req.Email)
	if err := c.Validate(&req); err != nil {
		return apperr.Respond(c, apperr.New(apperr.BadRequest, validation.Reason(err)))
	}

	ctx, cancel := storeCtx(c, h.Timeout)
	defer cancel()
	err := h.Users.Update(ctx, id, model.UserUpdate{
		Lastname:  req.Lastname,
		Firstname: req.Firstname,
		Email:     req.Email,
		RoleID:    req.RoleID,
	})
	switch {
	case err == nil:
	case errors.Is(err, repository.ErrNotFound):
		return apperr.Respond(c, apperr.New(apperr.NotFound, "user_not_found"))
	case errors.Is(err, repository.ErrEmailExists):
		return apperr.Respond(c, apperr.New(apperr.Conflict, "email_exists"))
	case errors.Is(err, repository.ErrUnknownRole):
		return apperr.Respond(c, apperr.New(apperr.BadRequest, "unknown_role"))
	default:
		return apperr.Respond(c, apperr.Wrap(apperr.Internal, "server_error", err))
	}

	actor, _ := middleware.UserID(c)
	emit(c, h.Events, queue.UserEvent{Type: queue.UserUpdated, UserID: id, Email: req.Email, ActorID: actor})
	return c.JSON(http.StatusOK, echo.Map{"message": "user updated"})
}

// Delete removes a user.
func (h *UserHandler) Delete(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return apperr.Respond(c, apperr.New(apperr.BadRequest, "invalid_id"))
	}

	ctx, cancel := storeCtx(c, h.Timeout)
	defer cancel()
	if err := h.Users.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.Respond(c, apperr.New(apperr.NotFound, "user_not_found"))
		}
		return apperr.Respond(c, apperr.Wrap(apperr.Internal, "server_error", err))
	}

	actor, _ := middleware.UserID(c)
	emit(c, h.Events, queue.UserEvent{Type: queue.UserDeleted, UserID: id, ActorID: actor})
	return c.JSON(http.StatusOK, echo.Map{"message": "user deleted"})
}

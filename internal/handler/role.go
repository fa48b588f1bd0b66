package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/garage-admin/internal/apperr"
)

// RoleHandler serves the public role list used by the edit form.
type RoleHandler struct {
	Roles   RoleStore
	Timeout time.Duration
}

// List returns every role.
func (h *RoleHandler) List(c echo.Context) error {
	ctx, cancel := storeCtx(c, h.Timeout)
	defer cancel()
	roles, err := h.Roles.List(ctx)
	if err != nil {
		return apperr.Respond(c, apperr.Wrap(apperr.Internal, "server_error", err))
	}
	return c.JSON(http.StatusOK, roles)
}

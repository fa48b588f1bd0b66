package handler

import (
	"context"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/iliyamo/garage-admin/internal/model"
	"github.com/iliyamo/garage-admin/internal/queue"
	"github.com/iliyamo/garage-admin/internal/utils"
)

// UserStore is the user-record store consumed by the handlers.
type UserStore interface {
	Create(ctx context.Context, u model.User) (uint64, error)
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
	Update(ctx context.Context, id uint64, u model.UserUpdate) error
	Delete(ctx context.Context, id uint64) error
	ListWithRole(ctx context.Context) ([]model.UserWithRole, error)
}

// RoleStore is the role-record store consumed by the handlers.
type RoleStore interface {
	List(ctx context.Context) ([]model.Role, error)
	GetByID(ctx context.Context, id uint64) (model.Role, error)
}

// TokenIssuer issues and checks session tokens.
type TokenIssuer interface {
	Issue(subjectID uint64) (utils.Token, error)
	Verify(raw string) utils.Verification
	TTL() time.Duration
}

// EventSink receives account events. Publishing is best effort.
type EventSink interface {
	Publish(ctx context.Context, ev queue.UserEvent) error
}

const defaultStoreTimeout = 5 * time.Second

// storeCtx bounds a store call by timeout.
func storeCtx(c echo.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		timeout = defaultStoreTimeout
	}
	return context.WithTimeout(c.Request().Context(), timeout)
}

// parseID reads the :id path parameter.
func parseID(c echo.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	return id, err == nil && id != 0
}

// emit publishes ev when a sink is configured and logs a failure.
func emit(c echo.Context, sink EventSink, ev queue.UserEvent) {
	if sink == nil {
		return
	}
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}
	ctx := c.Request().Context()
	if err := sink.Publish(ctx, ev); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("type", ev.Type).Uint64("user_id", ev.UserID).Msg("account event not published")
	}
}

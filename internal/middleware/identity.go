package middleware

// identity.go carries the authenticated subject through a request, both on
// the echo context (for handlers) and on context.Context (for code below the
// HTTP layer).

import (
	"context"
	"strconv"

	"github.com/labstack/echo/v4"
)

// ContextKeyUserID is the echo context key holding the subject id (uint64).
const ContextKeyUserID = "user_id"

type subjectKey struct{}

// WithSubject returns a copy of ctx carrying the subject id.
func WithSubject(ctx context.Context, id uint64) context.Context {
	return context.WithValue(ctx, subjectKey{}, id)
}

// SubjectFrom returns the subject id stored by the access middleware.
func SubjectFrom(ctx context.Context) (uint64, bool) {
	id, ok := ctx.Value(subjectKey{}).(uint64)
	return id, ok && id != 0
}

// UserID returns the subject id from the echo context.
func UserID(c echo.Context) (uint64, bool) {
	id, ok := c.Get(ContextKeyUserID).(uint64)
	return id, ok && id != 0
}

func setSubject(c echo.Context, id uint64) {
	c.Set(ContextKeyUserID, id)
	r := c.Request()
	c.SetRequest(r.WithContext(WithSubject(r.Context(), id)))
}

// currentUserID renders the subject for rate limit keys, or "anon".
func currentUserID(c echo.Context) string {
	if id, ok := UserID(c); ok {
		return strconv.FormatUint(id, 10)
	}
	return "anon"
}

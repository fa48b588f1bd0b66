// Package apperr is the error taxonomy shared by handlers and middleware.
// Every failure that reaches the HTTP boundary is one of a fixed set of
// kinds; the kind alone decides the status code. The reason is a short
// machine readable string sent to the client, the cause stays server side.
package apperr

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// Kind classifies an error for the client.
type Kind uint8

const (
	Internal Kind = iota
	BadRequest
	Unauthorized
	Forbidden
	NotFound
	Conflict
)

func (k Kind) String() string {
	switch k {
	case BadRequest:
		return "bad_request"
	case Unauthorized:
		return "unauthorized"
	case Forbidden:
		return "forbidden"
	case NotFound:
		return "not_found"
	case Conflict:
		return "conflict"
	default:
		return "internal"
	}
}

// Status is the HTTP status code for the kind.
func (k Kind) Status() int {
	switch k {
	case BadRequest:
		return http.StatusBadRequest
	case Unauthorized:
		return http.StatusUnauthorized
	case Forbidden:
		return http.StatusForbidden
	case NotFound:
		return http.StatusNotFound
	case Conflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Error is an application error with a kind, a client facing reason and an
// optional cause.
type Error struct {
	Kind   Kind
	Reason string
	Cause  error
}

// New creates an Error without a cause.
func New(kind Kind, reason string) *Error {
	return &Error{Kind: kind, Reason: reason}
}

// Wrap creates an Error carrying cause.
func Wrap(kind Kind, reason string, cause error) *Error {
	return &Error{Kind: kind, Reason: reason, Cause: cause}
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Reason, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
}

func (e *Error) Unwrap() error { return e.Cause }

// Status is shorthand for e.Kind.Status().
func (e *Error) Status() int { return e.Kind.Status() }

// KindOf returns the kind of the first *Error in err's chain, or Internal.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return Internal
}

// Respond writes err as {"error": reason}. Errors that are not an *Error are
// treated as internal. Internal errors are logged with their cause through the
// request logger; their detail never reaches the client.
func Respond(c echo.Context, err error) error {
	var ae *Error
	if !errors.As(err, &ae) {
		ae = Wrap(Internal, "server_error", err)
	}
	if ae.Kind == Internal {
		zerolog.Ctx(c.Request().Context()).Error().
			Err(ae.Cause).
			Str("reason", ae.Reason).
			Str("path", c.Path()).
			Msg("request failed")
	}
	return c.JSON(ae.Status(), echo.Map{"error": ae.Reason})
}

package middleware

import (
	"errors"
	"net/http"
)

// DefaultSessionCookie is the cookie the front end stores the token in.
const DefaultSessionCookie = "token"

// SessionToken returns the value of the session cookie called name. The
// boolean is false when the request carries no such cookie, which is distinct
// from a cookie that is present with an empty value. Other cookies on the
// request, and '=' characters inside the value, do not affect the result.
func SessionToken(r *http.Request, name string) (string, bool) {
	if name == "" {
		name = DefaultSessionCookie
	}
	ck, err := r.Cookie(name)
	if errors.Is(err, http.ErrNoCookie) || ck == nil {
		return "", false
	}
	return ck.Value, true
}

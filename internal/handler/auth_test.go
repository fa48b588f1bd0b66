package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/garage-admin/internal/middleware"
	"github.com/iliyamo/garage-admin/internal/model"
	"github.com/iliyamo/garage-admin/internal/queue"
	"github.com/iliyamo/garage-admin/internal/utils"
)

func newAuth(t *testing.T) (*AuthHandler, *memStore, *recordingSink) {
	t.Helper()
	tokens, err := utils.NewTokenService([]byte("test-secret"), 24*time.Hour)
	require.NoError(t, err)
	store := newMemStore()
	sink := &recordingSink{}
	return &AuthHandler{
		Users:      store,
		Roles:      roleByID{store},
		Tokens:     tokens,
		RoleSet:    testRoles,
		BcryptCost: bcrypt.MinCost,
		Events:     sink,
	}, store, sink
}

const janeSignUp = `{"lastname":"Doe","firstname":"Jane","email":"jane@x.fr","password":"s3cret!"}`

func TestSignUp_CreatesUserWithDefaultRole(t *testing.T) {
	h, store, sink := newAuth(t)
	rec := call(newEcho(), h.SignUp, http.MethodPost, "/api/signup", janeSignUp)
	require.Equal(t, http.StatusCreated, rec.Code)

	u, err := store.GetByEmail(context.Background(), "jane@x.fr")
	require.NoError(t, err)
	assert.Equal(t, testRoles.DefaultID, u.RoleID)
	assert.NotEqual(t, "s3cret!", u.PasswordHash)
	assert.True(t, utils.VerifyPassword(u.PasswordHash, "s3cret!"))
	assert.NotContains(t, rec.Body.String(), u.PasswordHash)

	require.Len(t, sink.events, 1)
	assert.Equal(t, queue.UserRegistered, sink.events[0].Type)
	assert.Equal(t, u.ID, sink.events[0].UserID)
}

func TestSignUp_Rejects(t *testing.T) {
	cases := []struct {
		name   string
		body   string
		status int
		reason string
	}{
		{"missing email", `{"lastname":"Doe","firstname":"Jane","password":"x"}`, http.StatusBadRequest, "email_required"},
		{"bad email", `{"lastname":"Doe","firstname":"Jane","email":"nope","password":"x"}`, http.StatusBadRequest, "email_invalid"},
		{"missing password", `{"lastname":"Doe","firstname":"Jane","email":"a@b.fr"}`, http.StatusBadRequest, "password_required"},
		{"not json", `{`, http.StatusBadRequest, "invalid_body"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h, _, sink := newAuth(t)
			rec := call(newEcho(), h.SignUp, http.MethodPost, "/api/signup", tc.body)
			assert.Equal(t, tc.status, rec.Code)
			assert.JSONEq(t, `{"error":"`+tc.reason+`"}`, rec.Body.String())
			assert.Empty(t, sink.events)
		})
	}
}

func TestSignUp_DuplicateEmail(t *testing.T) {
	h, _, sink := newAuth(t)
	e := newEcho()
	require.Equal(t, http.StatusCreated, call(e, h.SignUp, http.MethodPost, "/api/signup", janeSignUp).Code)

	rec := call(e, h.SignUp, http.MethodPost, "/api/signup", janeSignUp)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.JSONEq(t, `{"error":"email_exists"}`, rec.Body.String())
	assert.Len(t, sink.events, 1)
}

func TestSignUp_StoreFailure(t *testing.T) {
	h, store, _ := newAuth(t)
	store.failed = errStoreDown
	rec := call(newEcho(), h.SignUp, http.MethodPost, "/api/signup", janeSignUp)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "store down")
}

func TestSignIn(t *testing.T) {
	h, _, _ := newAuth(t)
	e := newEcho()
	require.Equal(t, http.StatusCreated, call(e, h.SignUp, http.MethodPost, "/api/signup", janeSignUp).Code)

	rec := call(e, h.SignIn, http.MethodPost, "/api/signin", `{"email":"jane@x.fr","password":"s3cret!"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp signInResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Auth)
	v := h.Tokens.Verify(resp.Token)
	assert.True(t, v.Valid)
	assert.Equal(t, uint64(1), v.SubjectID)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, middleware.DefaultSessionCookie, cookies[0].Name)
	assert.Equal(t, resp.Token, cookies[0].Value)
	assert.Equal(t, http.SameSiteLaxMode, cookies[0].SameSite)
	assert.Equal(t, int((24 * time.Hour).Seconds()), cookies[0].MaxAge)
}

func TestSignIn_Failures(t *testing.T) {
	h, _, _ := newAuth(t)
	e := newEcho()
	require.Equal(t, http.StatusCreated, call(e, h.SignUp, http.MethodPost, "/api/signup", janeSignUp).Code)

	cases := []struct {
		name   string
		body   string
		status int
		reason string
	}{
		{"wrong password", `{"email":"jane@x.fr","password":"nope"}`, http.StatusUnauthorized, "invalid_password"},
		{"unknown email", `{"email":"bob@x.fr","password":"s3cret!"}`, http.StatusNotFound, "user_not_found"},
		{"email case differs", `{"email":"JANE@x.fr","password":"s3cret!"}`, http.StatusNotFound, "user_not_found"},
		{"missing password", `{"email":"jane@x.fr"}`, http.StatusBadRequest, "password_required"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := call(e, h.SignIn, http.MethodPost, "/api/signin", tc.body)
			assert.Equal(t, tc.status, rec.Code)
			assert.JSONEq(t, `{"error":"`+tc.reason+`"}`, rec.Body.String())
			assert.Empty(t, rec.Result().Cookies())
		})
	}
}

func TestVerifyToken(t *testing.T) {
	h, _, _ := newAuth(t)
	e := newEcho()
	tok, err := h.Tokens.Issue(7)
	require.NoError(t, err)

	cases := []struct {
		name   string
		body   string
		status int
		want   string
	}{
		{"valid", `{"token":"` + tok.Value + `"}`, http.StatusOK, `{"valid":true}`},
		{"garbage", `{"token":"abc.def.ghi"}`, http.StatusOK, `{"valid":false}`},
		{"absent", `{}`, http.StatusBadRequest, `{"valid":false}`},
		{"not json", `{`, http.StatusBadRequest, `{"valid":false}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := call(e, h.VerifyToken, http.MethodPost, "/api/verify-token", tc.body)
			assert.Equal(t, tc.status, rec.Code)
			assert.JSONEq(t, tc.want, rec.Body.String())
		})
	}
}

func TestSignOut_ExpiresCookie(t *testing.T) {
	h, _, _ := newAuth(t)
	rec := call(newEcho(), h.SignOut, http.MethodPost, "/api/signout", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, middleware.DefaultSessionCookie, cookies[0].Name)
	assert.Empty(t, cookies[0].Value)
	assert.Negative(t, cookies[0].MaxAge)
}

func TestMe(t *testing.T) {
	h, store, _ := newAuth(t)
	id, err := store.Create(context.Background(), model.User{Lastname: "Doe", Firstname: "Jane", Email: "jane@x.fr", RoleID: 1})
	require.NoError(t, err)

	asUser := func(uid uint64) func(echo.Context) {
		return func(c echo.Context) { c.Set(middleware.ContextKeyUserID, uid) }
	}

	rec := call(newEcho(), h.Me, http.MethodGet, "/api/me", "", asUser(id))
	require.Equal(t, http.StatusOK, rec.Code)
	var got model.UserWithRole
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "admin", got.Role)
	assert.Equal(t, "jane@x.fr", got.Email)

	rec = call(newEcho(), h.Me, http.MethodGet, "/api/me", "", asUser(99))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = call(newEcho(), h.Me, http.MethodGet, "/api/me", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

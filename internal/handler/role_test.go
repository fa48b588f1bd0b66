package handler

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestListRoles(t *testing.T) {
	h := &RoleHandler{Roles: roleByID{newMemStore()}}
	rec := call(newEcho(), h.List, http.MethodGet, "/api/roles", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"id":1,"name":"admin"},{"id":2,"name":"user"}]`, rec.Body.String())
}

func TestListRoles_StoreFailure(t *testing.T) {
	store := newMemStore()
	store.failed = errStoreDown
	h := &RoleHandler{Roles: roleByID{store}}
	rec := call(newEcho(), h.List, http.MethodGet, "/api/roles", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

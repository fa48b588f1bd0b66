package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/garage-admin/internal/model"
	"github.com/iliyamo/garage-admin/internal/queue"
	"github.com/iliyamo/garage-admin/internal/repository"
	"github.com/iliyamo/garage-admin/internal/validation"
)

// memStore is an in-memory UserStore and RoleStore with the same error
// contract as the MySQL repositories.
type memStore struct {
	mu     sync.Mutex
	next   uint64
	users  map[uint64]model.User
	roles  map[uint64]model.Role
	failed error
}

func newMemStore() *memStore {
	return &memStore{
		next:  1,
		users: map[uint64]model.User{},
		roles: map[uint64]model.Role{1: {ID: 1, Name: "admin"}, 2: {ID: 2, Name: "user"}},
	}
}

var testRoles = model.RoleSet{AdminID: 1, DefaultID: 2}

func (m *memStore) Create(ctx context.Context, u model.User) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failed != nil {
		return 0, m.failed
	}
	for _, x := range m.users {
		if x.Email == u.Email {
			return 0, repository.ErrEmailExists
		}
	}
	u.ID = m.next
	u.CreatedAt = time.Date(2026, 1, 2, 9, 0, 0, 0, time.UTC)
	m.users[u.ID] = u
	m.next++
	return u.ID, nil
}

func (m *memStore) GetByEmail(ctx context.Context, email string) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failed != nil {
		return model.User{}, m.failed
	}
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return model.User{}, repository.ErrNotFound
}

func (m *memStore) GetByID(ctx context.Context, id uint64) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failed != nil {
		return model.User{}, m.failed
	}
	u, ok := m.users[id]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return u, nil
}

func (m *memStore) Update(ctx context.Context, id uint64, in model.UserUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failed != nil {
		return m.failed
	}
	u, ok := m.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	if _, ok := m.roles[in.RoleID]; !ok {
		return repository.ErrUnknownRole
	}
	for _, x := range m.users {
		if x.ID != id && x.Email == in.Email {
			return repository.ErrEmailExists
		}
	}
	u.Lastname, u.Firstname, u.Email, u.RoleID = in.Lastname, in.Firstname, in.Email, in.RoleID
	m.users[id] = u
	return nil
}

func (m *memStore) Delete(ctx context.Context, id uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failed != nil {
		return m.failed
	}
	if _, ok := m.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.users, id)
	return nil
}

func (m *memStore) ListWithRole(ctx context.Context) ([]model.UserWithRole, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failed != nil {
		return nil, m.failed
	}
	out := make([]model.UserWithRole, 0, len(m.users))
	for id := uint64(1); id < m.next; id++ {
		u, ok := m.users[id]
		if !ok {
			continue
		}
		out = append(out, model.UserWithRole{
			ID: u.ID, Lastname: u.Lastname, Firstname: u.Firstname,
			Email: u.Email, Role: m.roles[u.RoleID].Name, CreatedAt: u.CreatedAt,
		})
	}
	return out, nil
}

func (m *memStore) List(ctx context.Context) ([]model.Role, error) {
	if m.failed != nil {
		return nil, m.failed
	}
	return []model.Role{m.roles[1], m.roles[2]}, nil
}

// roleByID adapts memStore to RoleStore, whose GetByID differs from the
// user lookup.
type roleByID struct{ *memStore }

func (r roleByID) GetByID(ctx context.Context, id uint64) (model.Role, error) {
	role, ok := r.roles[id]
	if !ok {
		return model.Role{}, repository.ErrNotFound
	}
	return role, nil
}

var errStoreDown = errors.New("store down")

// recordingSink collects published events.
type recordingSink struct {
	mu     sync.Mutex
	events []queue.UserEvent
	err    error
}

func (s *recordingSink) Publish(_ context.Context, ev queue.UserEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	return s.err
}

func (s *recordingSink) types() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.events))
	for i, ev := range s.events {
		out[i] = ev.Type
	}
	return out
}

func newEcho() *echo.Echo {
	e := echo.New()
	e.Validator = validation.New()
	return e
}

// call runs h against a JSON request and returns the recorder.
func call(e *echo.Echo, h echo.HandlerFunc, method, target, body string, setup ...func(echo.Context)) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	for _, f := range setup {
		f(c)
	}
	_ = h(c)
	return rec
}

func withID(id string) func(echo.Context) {
	return func(c echo.Context) {
		c.SetParamNames("id")
		c.SetParamValues(id)
	}
}

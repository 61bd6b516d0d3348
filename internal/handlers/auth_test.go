package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bishalstha/chat-api/internal/authz"
	"github.com/bishalstha/chat-api/internal/config"
	"github.com/bishalstha/chat-api/internal/models"
	"github.com/bishalstha/chat-api/internal/repository"
)

type mockUserRepo struct {
	createdUser models.User
	createErr   error
	authUser    models.User
	authErr     error
	presence    map[int64]bool
}

var _ repository.UserRepository = (*mockUserRepo)(nil)

func (m *mockUserRepo) CreateUser(_ context.Context, username, email, _ string) (models.User, error) {
	if m.createErr != nil {
		return models.User{}, m.createErr
	}
	user := m.createdUser
	user.Username = username
	user.Email = email
	return user, nil
}

func (m *mockUserRepo) Authenticate(context.Context, string, string) (models.User, error) {
	return m.authUser, m.authErr
}

func (m *mockUserRepo) GetUserByID(context.Context, int64) (models.User, error) {
	return m.authUser, nil
}

func (m *mockUserRepo) ListOthers(context.Context, int64) ([]models.User, error) {
	return nil, nil
}

func (m *mockUserRepo) SetPresence(_ context.Context, userID int64, online bool) error {
	if m.presence == nil {
		m.presence = make(map[int64]bool)
	}
	m.presence[userID] = online
	return nil
}

func newTestAuthHandler(repo repository.UserRepository) *AuthHandler {
	cfg := &config.Config{JWTSecret: "test-secret"}
	return NewAuthHandler(repo, cfg, zerolog.Nop())
}

func TestRegister(t *testing.T) {
	repo := &mockUserRepo{createdUser: models.User{ID: 1}}
	h := newTestAuthHandler(repo)

	body := []byte(`{"username":"alice","email":"alice@example.com","password":"s3cret"}`)
	w := httptest.NewRecorder()
	h.Register(w, httptest.NewRequest(http.MethodPost, "/api/register", bytes.NewReader(body)))

	require.Equal(t, http.StatusCreated, w.Code)

	var resp models.User
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(1), resp.ID)
	assert.Equal(t, "alice", resp.Username)
}

func TestRegisterInvalidBody(t *testing.T) {
	h := newTestAuthHandler(&mockUserRepo{})

	w := httptest.NewRecorder()
	h.Register(w, httptest.NewRequest(http.MethodPost, "/api/register", bytes.NewReader([]byte("{"))))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLoginIssuesTokenAcceptedByMiddleware(t *testing.T) {
	repo := &mockUserRepo{authUser: models.User{ID: 7, Username: "alice"}}
	h := newTestAuthHandler(repo)

	body := []byte(`{"username":"alice","password":"s3cret"}`)
	w := httptest.NewRecorder()
	h.Login(w, httptest.NewRequest(http.MethodPost, "/api/login", bytes.NewReader(body)))

	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, repo.presence[7], "login marks the user online")

	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)

	// Replay the token through the middleware and check the stored identity.
	var gotUserID int64
	var gotUsername string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID, _ = authz.UserIDFromRequest(r)
		gotUsername, _ = authz.UsernameFromRequest(r)
		w.WriteHeader(http.StatusOK)
	})

	r := httptest.NewRequest(http.MethodGet, "/api/users", nil)
	r.Header.Set("Authorization", "Bearer "+resp.Token)
	mw := httptest.NewRecorder()
	h.JWTMiddleware(next).ServeHTTP(mw, r)

	require.Equal(t, http.StatusOK, mw.Code)
	assert.Equal(t, int64(7), gotUserID)
	assert.Equal(t, "alice", gotUsername)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	repo := &mockUserRepo{authErr: repository.ErrInvalidCredentials}
	h := newTestAuthHandler(repo)

	body := []byte(`{"username":"alice","password":"wrong"}`)
	w := httptest.NewRecorder()
	h.Login(w, httptest.NewRequest(http.MethodPost, "/api/login", bytes.NewReader(body)))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, repo.presence)
}

func TestJWTMiddlewareRejectsBadTokens(t *testing.T) {
	h := newTestAuthHandler(&mockUserRepo{})
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run without a valid token")
	})

	cases := map[string]func(r *http.Request){
		"missing header": func(*http.Request) {},
		"wrong scheme":   func(r *http.Request) { r.Header.Set("Authorization", "Basic abc") },
		"garbage token":  func(r *http.Request) { r.Header.Set("Authorization", "Bearer not-a-jwt") },
	}

	for name, setup := range cases {
		t.Run(name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/api/users", nil)
			setup(r)
			w := httptest.NewRecorder()
			h.JWTMiddleware(next).ServeHTTP(w, r)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}

func TestUserListExcludesErrors(t *testing.T) {
	now := time.Now()
	repo := &listingUserRepo{users: []models.User{{ID: 2, Username: "bob", LastSeen: &now}}}
	h := NewUserHandler(repo, zerolog.Nop())

	r := httptest.NewRequest(http.MethodGet, "/api/users", nil)
	r = r.WithContext(authz.WithIdentity(r.Context(), 1, "alice"))
	w := httptest.NewRecorder()
	h.List(w, r)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Users []models.User `json:"users"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Users, 1)
	assert.Equal(t, "bob", resp.Users[0].Username)
}

type listingUserRepo struct {
	mockUserRepo
	users []models.User
}

func (r *listingUserRepo) ListOthers(context.Context, int64) ([]models.User, error) {
	return r.users, nil
}

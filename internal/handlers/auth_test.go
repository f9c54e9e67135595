package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"messenger/internal/auth"
	"messenger/internal/mocks"
	"messenger/internal/models"
	"messenger/internal/repositories"
)

type fakeIdentityProvider struct {
	identity auth.Identity
	err      error
}

func (p *fakeIdentityProvider) Verify(ctx context.Context, idToken string) (auth.Identity, error) {
	return p.identity, p.err
}

func setupAuthRouter(users *mocks.UserRepositoryMock, provider auth.IdentityProvider) *gin.Engine {
	gin.SetMode(gin.TestMode)

	tokens := auth.NewTokenService("test-secret", time.Hour)
	hasher := auth.NewPasswordHasher(4)
	h := NewAuthHandler(users, tokens, hasher, provider, nil)

	r := gin.New()
	r.POST("/api/auth/register", h.Register)
	r.POST("/api/auth/login", h.Login)
	r.POST("/api/auth/google", h.GoogleSignIn)
	r.PUT("/api/auth/profile", func(c *gin.Context) {
		c.Set("userID", 1)
		h.UpdateProfile(c)
	})
	r.GET("/api/auth/me", func(c *gin.Context) {
		c.Set("userID", 1)
		h.Me(c)
	})
	return r
}

func postJSON(t *testing.T, r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(method, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestRegisterCreatesUserAndToken(t *testing.T) {
	users := &mocks.UserRepositoryMock{}
	users.On("Create", mock.Anything, "alice", "alice@example.com", mock.Anything, "Alice", "").
		Return(models.User{ID: 7, Username: "alice", Email: "alice@example.com", DisplayName: "Alice"}, nil)

	r := setupAuthRouter(users, nil)
	rec := postJSON(t, r, http.MethodPost, "/api/auth/register", gin.H{
		"username":    "alice",
		"email":       "alice@example.com",
		"password":    "hunter2",
		"displayName": "Alice",
	})

	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		Token string            `json:"token"`
		User  models.PublicUser `json:"user"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, 7, resp.User.ID)
	users.AssertExpectations(t)
}

func TestRegisterDuplicateUsernameConflicts(t *testing.T) {
	users := &mocks.UserRepositoryMock{}
	users.On("Create", mock.Anything, "alice", "alice@example.com", mock.Anything, "Alice", "").
		Return(models.User{}, repositories.ErrUsernameTaken)

	r := setupAuthRouter(users, nil)
	rec := postJSON(t, r, http.MethodPost, "/api/auth/register", gin.H{
		"username":    "alice",
		"email":       "alice@example.com",
		"password":    "hunter2",
		"displayName": "Alice",
	})

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "username already exists")
}

func TestRegisterMissingFields(t *testing.T) {
	users := &mocks.UserRepositoryMock{}

	r := setupAuthRouter(users, nil)
	rec := postJSON(t, r, http.MethodPost, "/api/auth/register", gin.H{"username": "alice"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	users.AssertNotCalled(t, "Create")
}

func TestLoginSucceedsWithValidPassword(t *testing.T) {
	hasher := auth.NewPasswordHasher(4)
	hash, err := hasher.Hash("hunter2")
	require.NoError(t, err)

	users := &mocks.UserRepositoryMock{}
	users.On("GetByEmail", mock.Anything, "alice@example.com").
		Return(models.User{
			ID:           7,
			Username:     "alice",
			Email:        "alice@example.com",
			PasswordHash: sqlString(hash),
		}, nil)

	r := setupAuthRouter(users, nil)
	rec := postJSON(t, r, http.MethodPost, "/api/auth/login", gin.H{
		"email":    "alice@example.com",
		"password": "hunter2",
	})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "token")
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	hasher := auth.NewPasswordHasher(4)
	hash, err := hasher.Hash("hunter2")
	require.NoError(t, err)

	users := &mocks.UserRepositoryMock{}
	users.On("GetByEmail", mock.Anything, "alice@example.com").
		Return(models.User{ID: 7, PasswordHash: sqlString(hash)}, nil)

	r := setupAuthRouter(users, nil)
	rec := postJSON(t, r, http.MethodPost, "/api/auth/login", gin.H{
		"email":    "alice@example.com",
		"password": "wrong",
	})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginRejectsUnknownEmail(t *testing.T) {
	users := &mocks.UserRepositoryMock{}
	users.On("GetByEmail", mock.Anything, "ghost@example.com").
		Return(models.User{}, repositories.ErrUserNotFound)

	r := setupAuthRouter(users, nil)
	rec := postJSON(t, r, http.MethodPost, "/api/auth/login", gin.H{
		"email":    "ghost@example.com",
		"password": "whatever",
	})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginRejectsGoogleOnlyAccount(t *testing.T) {
	users := &mocks.UserRepositoryMock{}
	users.On("GetByEmail", mock.Anything, "alice@example.com").
		Return(models.User{ID: 7}, nil) // no password hash on record

	r := setupAuthRouter(users, nil)
	rec := postJSON(t, r, http.MethodPost, "/api/auth/login", gin.H{
		"email":    "alice@example.com",
		"password": "hunter2",
	})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGoogleSignInExistingUser(t *testing.T) {
	provider := &fakeIdentityProvider{identity: auth.Identity{
		Subject: "g-123",
		Email:   "alice@example.com",
		Name:    "Alice",
		Picture: "https://example.com/p.jpg",
	}}

	users := &mocks.UserRepositoryMock{}
	users.On("GetByEmail", mock.Anything, "alice@example.com").
		Return(models.User{ID: 7, Username: "alice", Email: "alice@example.com"}, nil)
	users.On("SetProfilePhoto", mock.Anything, 7, "https://example.com/p.jpg").Return(nil)

	r := setupAuthRouter(users, provider)
	rec := postJSON(t, r, http.MethodPost, "/api/auth/google", gin.H{"token": "id-token"})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "token")
	users.AssertExpectations(t)
}

func TestGoogleSignInCreatesAccountWithFreeUsername(t *testing.T) {
	provider := &fakeIdentityProvider{identity: auth.Identity{
		Subject: "g-456",
		Email:   "bob@example.com",
		Name:    "Bob",
	}}

	users := &mocks.UserRepositoryMock{}
	users.On("GetByEmail", mock.Anything, "bob@example.com").
		Return(models.User{}, repositories.ErrUserNotFound)
	users.On("UsernameExists", mock.Anything, "bob").Return(true, nil)
	users.On("UsernameExists", mock.Anything, "bob1").Return(false, nil)
	users.On("Create", mock.Anything, "bob1", "bob@example.com", (*string)(nil), "Bob", "").
		Return(models.User{ID: 8, Username: "bob1", Email: "bob@example.com", DisplayName: "Bob"}, nil)

	r := setupAuthRouter(users, provider)
	rec := postJSON(t, r, http.MethodPost, "/api/auth/google", gin.H{"token": "id-token"})

	require.Equal(t, http.StatusOK, rec.Code)
	users.AssertExpectations(t)
}

func TestGoogleSignInRejectsBadToken(t *testing.T) {
	provider := &fakeIdentityProvider{err: auth.ErrIdentityRejected}

	users := &mocks.UserRepositoryMock{}
	r := setupAuthRouter(users, provider)
	rec := postJSON(t, r, http.MethodPost, "/api/auth/google", gin.H{"token": "bogus"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	users.AssertNotCalled(t, "GetByEmail")
}

func TestUpdateProfileConflict(t *testing.T) {
	users := &mocks.UserRepositoryMock{}
	users.On("UpdateProfile", mock.Anything, 1, mock.Anything, mock.Anything, mock.Anything).
		Return(models.User{}, repositories.ErrUsernameTaken)

	r := setupAuthRouter(users, nil)
	rec := postJSON(t, r, http.MethodPut, "/api/auth/profile", gin.H{"username": "taken"})

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestMeReturnsProfile(t *testing.T) {
	users := &mocks.UserRepositoryMock{}
	users.On("GetByID", mock.Anything, 1).
		Return(models.User{ID: 1, Username: "alice"}, nil)

	r := setupAuthRouter(users, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "alice")
}

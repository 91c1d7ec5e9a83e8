package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/streamtube-backend/internal/domain/entity"
	repo "github.com/oksasatya/streamtube-backend/internal/domain/repository"
	"github.com/oksasatya/streamtube-backend/pkg/helpers"
)

type stubUserRepo struct {
	user *entity.User
}

func (s *stubUserRepo) GetByID(_ context.Context, id string) (*entity.User, error) {
	if s.user != nil && s.user.ID == id {
		cp := *s.user
		return &cp, nil
	}
	return nil, repo.ErrNotFound
}

func (s *stubUserRepo) Create(context.Context, *entity.User) error { return nil }
func (s *stubUserRepo) GetByUsernameOrEmail(context.Context, string, string) (*entity.User, error) {
	return nil, repo.ErrNotFound
}
func (s *stubUserRepo) ExistsByUsernameOrEmail(context.Context, string, string) (bool, error) {
	return false, nil
}
func (s *stubUserRepo) UpdateAccount(context.Context, string, string, string) (*entity.User, error) {
	return nil, repo.ErrNotFound
}
func (s *stubUserRepo) UpdatePassword(context.Context, string, string) error     { return nil }
func (s *stubUserRepo) UpdateRefreshToken(context.Context, string, string) error { return nil }
func (s *stubUserRepo) UpdateAvatar(context.Context, string, string) error       { return nil }
func (s *stubUserRepo) UpdateCoverImage(context.Context, string, string) error   { return nil }
func (s *stubUserRepo) ChannelProfile(context.Context, string, string) (*entity.ChannelProfile, error) {
	return nil, repo.ErrNotFound
}
func (s *stubUserRepo) WatchHistory(context.Context, string) ([]entity.WatchHistoryEntry, error) {
	return nil, nil
}

func authTestRouter(t *testing.T) (*gin.Engine, *helpers.JWTManager, *stubUserRepo) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	jwt := helpers.NewJWTManager("test-access", "test-refresh", time.Hour, 24*time.Hour)
	users := &stubUserRepo{user: &entity.User{
		ID:       "user-1",
		Username: "alice",
		Email:    "alice@example.com",
		FullName: "Alice A",
	}}

	r := gin.New()
	r.GET("/protected", Auth(users, jwt), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"uid": c.GetString(CtxUserIDKey)})
	})
	return r, jwt, users
}

func doRequest(r *gin.Engine, mutate func(*http.Request)) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if mutate != nil {
		mutate(req)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMissingToken(t *testing.T) {
	r, _, _ := authTestRouter(t)
	w := doRequest(r, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "please authenticate")
}

func TestAuthWithCookie(t *testing.T) {
	r, jwt, _ := authTestRouter(t)
	token, _, err := jwt.GenerateAccessToken("user-1", "alice@example.com", "alice", "Alice A")
	require.NoError(t, err)

	w := doRequest(r, func(req *http.Request) {
		req.AddCookie(&http.Cookie{Name: helpers.AccessTokenCookie, Value: token})
	})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"uid":"user-1"`)
}

func TestAuthWithBearerHeader(t *testing.T) {
	r, jwt, _ := authTestRouter(t)
	token, _, err := jwt.GenerateAccessToken("user-1", "alice@example.com", "alice", "Alice A")
	require.NoError(t, err)

	w := doRequest(r, func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer "+token)
	})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthCookieWinsOverHeader(t *testing.T) {
	r, jwt, _ := authTestRouter(t)
	good, _, err := jwt.GenerateAccessToken("user-1", "alice@example.com", "alice", "Alice A")
	require.NoError(t, err)

	// Valid header but garbage cookie: the cookie is consulted first, so the
	// request must fail.
	w := doRequest(r, func(req *http.Request) {
		req.AddCookie(&http.Cookie{Name: helpers.AccessTokenCookie, Value: "garbage"})
		req.Header.Set("Authorization", "Bearer "+good)
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "invalid access token")
}

func TestAuthInvalidToken(t *testing.T) {
	r, _, _ := authTestRouter(t)
	w := doRequest(r, func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer not-a-token")
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthExpiredToken(t *testing.T) {
	r, _, _ := authTestRouter(t)
	expired := helpers.NewJWTManager("test-access", "test-refresh", -time.Minute, 24*time.Hour)
	token, _, err := expired.GenerateAccessToken("user-1", "alice@example.com", "alice", "Alice A")
	require.NoError(t, err)

	w := doRequest(r, func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer "+token)
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthDeletedUser(t *testing.T) {
	r, jwt, users := authTestRouter(t)
	token, _, err := jwt.GenerateAccessToken("user-1", "alice@example.com", "alice", "Alice A")
	require.NoError(t, err)
	users.user = nil

	w := doRequest(r, func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer "+token)
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "invalid access token")
}

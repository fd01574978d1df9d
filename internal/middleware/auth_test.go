package middleware

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/joshua-takyi/eventease/internal/access"
	"github.com/joshua-takyi/eventease/internal/helpers"
	"github.com/joshua-takyi/eventease/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/supabase-community/gotrue-go/types"
)

const testSecret = "middleware-secret"

type stubUsers struct {
	profiles  map[uuid.UUID]*models.User
	refreshed *types.TokenResponse
}

func (s *stubUsers) Profile(ctx context.Context, id uuid.UUID, accessToken string) (*models.User, error) {
	if p, ok := s.profiles[id]; ok {
		return p, nil
	}
	return nil, models.ErrNotFound
}

func (s *stubUsers) RefreshToken(ctx context.Context, refreshToken string) (*types.TokenResponse, error) {
	if s.refreshed == nil {
		return nil, errors.New("refresh rejected")
	}
	return s.refreshed, nil
}

func token(t *testing.T, sub uuid.UUID, ttl time.Duration) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   sub.String(),
		"email": "user@x.com",
		"exp":   time.Now().Add(ttl).Unix(),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func newRouter(users AuthUsers) *gin.Engine {
	gin.SetMode(gin.TestMode)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	r := gin.New()
	r.Use(RequestID())
	r.GET("/me", AuthMiddleware(helpers.NewSecretValidator(testSecret), users, false, logger), func(c *gin.Context) {
		actor, err := access.ActorFrom(c.Request.Context())
		if err != nil {
			c.Status(http.StatusTeapot)
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": actor.ID, "role": actor.Role, "name": actor.Name})
	})
	return r
}

func TestAuthMiddleware(t *testing.T) {
	owner := uuid.New()
	noRole := uuid.New()
	users := &stubUsers{profiles: map[uuid.UUID]*models.User{
		owner:  {ID: owner, Email: "owner@x.com", Name: "Owner", Role: "EVENT_OWNER"},
		noRole: {ID: noRole, Email: "x@x.com", Role: "guest"},
	}}
	r := newRouter(users)

	cases := []struct {
		name   string
		setup  func(req *http.Request)
		status int
	}{
		{"no token", func(req *http.Request) {}, http.StatusUnauthorized},
		{"bearer", func(req *http.Request) {
			req.Header.Set("Authorization", "Bearer "+token(t, owner, time.Hour))
		}, http.StatusOK},
		{"cookie", func(req *http.Request) {
			req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: token(t, owner, time.Hour)})
		}, http.StatusOK},
		{"expired without refresh", func(req *http.Request) {
			req.Header.Set("Authorization", "Bearer "+token(t, owner, -time.Hour))
		}, http.StatusUnauthorized},
		{"missing profile", func(req *http.Request) {
			req.Header.Set("Authorization", "Bearer "+token(t, uuid.New(), time.Hour))
		}, http.StatusForbidden},
		{"unknown role", func(req *http.Request) {
			req.Header.Set("Authorization", "Bearer "+token(t, noRole, time.Hour))
		}, http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			tc.setup(req)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tc.status, w.Code, w.Body.String())
		})
	}
}

func TestAuthMiddleware_RefreshesExpiredToken(t *testing.T) {
	owner := uuid.New()
	fresh := &types.TokenResponse{}
	fresh.AccessToken = token(t, owner, time.Hour)
	fresh.RefreshToken = "next-refresh"
	fresh.ExpiresIn = 3600

	r := newRouter(&stubUsers{
		profiles:  map[uuid.UUID]*models.User{owner: {ID: owner, Name: "Owner", Role: "STAFF"}},
		refreshed: fresh,
	})

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: token(t, owner, -time.Minute)})
	req.AddCookie(&http.Cookie{Name: RefreshTokenCookie, Value: "old-refresh"})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"role":"STAFF"`)

	cookies := map[string]string{}
	for _, c := range w.Result().Cookies() {
		cookies[c.Name] = c.Value
	}
	assert.Equal(t, fresh.AccessToken, cookies[AccessTokenCookie])
	assert.Equal(t, "next-refresh", cookies[RefreshTokenCookie])
}

func TestBearerTokenPrefersHeader(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Request.Header.Set("Authorization", "bearer header-token")
	c.Request.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: "cookie-token"})

	assert.Equal(t, "header-token", BearerToken(c))
}

func TestErrorHandlerWritesOnlyOnce(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := gin.New()
	r.Use(RequestID(), ErrorHandler(logger))
	r.GET("/boom", func(c *gin.Context) { _ = c.Error(errors.New("boom")) })
	r.GET("/handled", func(c *gin.Context) {
		_ = c.Error(errors.New("handled"))
		c.JSON(http.StatusConflict, helpers.ErrorResponse("conflict"))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "request_id")

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/handled", nil))
	assert.Equal(t, http.StatusConflict, w.Code)
}

package middleware

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"videotube/pkg/apperr"
	"videotube/pkg/auth"
	"videotube/pkg/models"
	"videotube/pkg/revocation"
	"videotube/pkg/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type usersStub map[string]models.User

func (s usersStub) GetUserByID(_ context.Context, id string) (models.User, error) {
	u, ok := s[id]
	if !ok {
		return models.User{}, fmt.Errorf("get: %w", store.ErrNotFound)
	}
	return u, nil
}

func (s usersStub) UpdateRefreshToken(_ context.Context, id, token string) error {
	u, ok := s[id]
	if !ok {
		return fmt.Errorf("update: %w", store.ErrNotFound)
	}
	u.RefreshToken = token
	s[id] = u
	return nil
}

// renderErrors writes the status of the last pushed error, standing in for
// the API error collector.
func renderErrors(c *gin.Context) {
	c.Next()
	if err := c.Errors.Last(); err != nil {
		c.JSON(apperr.KindOf(err.Err).StatusCode(), gin.H{"message": apperr.Message(err.Err)})
	}
}

func newAuthRouter(t *testing.T, deny revocation.List) (*gin.Engine, *auth.TokenService, usersStub) {
	t.Helper()
	users := usersStub{"u1": {ID: "u1", Username: "alice", Email: "alice@example.com"}}
	tokens, err := auth.NewTokenService(auth.Config{
		AccessSecret:  "access",
		RefreshSecret: "refresh",
		AccessTTL:     time.Minute,
		RefreshTTL:    time.Hour,
	}, users)
	require.NoError(t, err)

	r := gin.New()
	r.Use(renderErrors)
	r.GET("/me", VerifyJWT(tokens, users, deny), func(c *gin.Context) {
		u, ok := CurrentUser(c)
		require.True(t, ok)
		claims, ok := CurrentClaims(c)
		require.True(t, ok)
		c.JSON(http.StatusOK, gin.H{"username": u.Username, "jti": claims.Id})
	})
	return r, tokens, users
}

func TestVerifyJWT(t *testing.T) {
	r, tokens, _ := newAuthRouter(t, nil)
	pair, err := tokens.IssueTokenPair(context.Background(), "u1")
	require.NoError(t, err)

	t.Run("cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.AddCookie(&http.Cookie{Name: AccessCookie, Value: pair.AccessToken})
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"username":"alice"`)
	})

	t.Run("bearer", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("missing", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "Unauthorized request")
	})

	t.Run("refresh token is not an access token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+pair.RefreshToken)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestVerifyJWT_UnknownUser(t *testing.T) {
	r, tokens, users := newAuthRouter(t, nil)
	pair, err := tokens.IssueTokenPair(context.Background(), "u1")
	require.NoError(t, err)
	delete(users, "u1")

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestVerifyJWT_Revoked(t *testing.T) {
	mr := miniredis.RunT(t)
	deny := revocation.NewRedisList(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	r, tokens, _ := newAuthRouter(t, deny)

	pair, err := tokens.IssueTokenPair(context.Background(), "u1")
	require.NoError(t, err)
	claims, err := tokens.VerifyAccess(pair.AccessToken)
	require.NoError(t, err)
	require.NoError(t, deny.Revoke(context.Background(), claims.Id, pair.AccessExpiresAt))

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "revoked")
}

func TestAccessToken(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
	}{
		{"bearer", "Bearer abc", "abc"},
		{"lowercase scheme", "bearer abc", "abc"},
		{"other scheme", "Basic abc", ""},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				c.Request.Header.Set("Authorization", tt.header)
			}
			assert.Equal(t, tt.want, AccessToken(c))
		})
	}
}

func TestRateLimitPerIP(t *testing.T) {
	r := gin.New()
	r.POST("/login", RateLimitPerIP(0.001, 2, 16, time.Minute), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequestLogger_RedactsCredentials(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	r := gin.New()
	r.Use(RequestLogger(zap.New(core)))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Authorization", "Bearer secret-token")
	req.AddCookie(&http.Cookie{Name: AccessCookie, Value: "secret-cookie"})
	r.ServeHTTP(httptest.NewRecorder(), req)

	require.Equal(t, 2, logs.Len())
	for _, entry := range logs.All() {
		for _, f := range entry.Context {
			assert.NotContains(t, f.String, "secret")
			if f.Key == "hdr" {
				assert.NotContains(t, string(f.Interface.([]byte)), "secret")
			}
		}
	}
	completed := logs.FilterMessage("request completed").All()
	require.Len(t, completed, 1)
	assert.Equal(t, int64(http.StatusNoContent), completed[0].ContextMap()["status"])
}

func TestMetrics(t *testing.T) {
	r := gin.New()
	r.Use(Metrics())
	r.GET("/videos/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	before := testutil.ToFloat64(requestsTotal.WithLabelValues(http.MethodGet, "/videos/:id", "200"))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/videos/42", nil))
	after := testutil.ToFloat64(requestsTotal.WithLabelValues(http.MethodGet, "/videos/:id", "200"))
	assert.Equal(t, before+1, after)
}

package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"merchandiser-backend/internal/domain"
	"merchandiser-backend/pkg/apperror"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const secret = "middleware-secret"

type MockUserRepo struct {
	mock.Mock
}

func (m *MockUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepo) Update(ctx context.Context, user *domain.User) error {
	return m.Called(ctx, user).Error(0)
}

func init() {
	gin.SetMode(gin.TestMode)
}

func sign(t *testing.T, method jwt.SigningMethod, key interface{}, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return token
}

func validToken(t *testing.T, sub string) string {
	return sign(t, jwt.SigningMethodHS256, []byte(secret), jwt.MapClaims{
		"sub":   sub,
		"email": sub + "@example.com",
		"exp":   time.Now().Add(time.Hour).Unix(),
	})
}

// identityRouter echoes the identity the middleware stored.
func identityRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(RequestID())
	handlers = append(handlers, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"user_id": c.GetString(string(domain.KeyUserID)),
			"email":   c.GetString(string(domain.KeyUserEmail)),
			"role":    c.GetString(string(domain.KeyUserRole)),
		})
	})
	r.GET("/me", handlers...)
	return r
}

func get(r *gin.Engine, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequestID(t *testing.T) {
	r := identityRouter()

	t.Run("generates an id when none is sent", func(t *testing.T) {
		w := get(r, nil)
		assert.Len(t, w.Header().Get(RequestIDHeader), 36)
	})

	t.Run("reuses a valid incoming id", func(t *testing.T) {
		w := get(r, map[string]string{RequestIDHeader: "trace-123"})
		assert.Equal(t, "trace-123", w.Header().Get(RequestIDHeader))
	})

	t.Run("replaces an oversized id", func(t *testing.T) {
		w := get(r, map[string]string{RequestIDHeader: strings.Repeat("x", maxRequestIDLength+1)})
		assert.NotEqual(t, strings.Repeat("x", maxRequestIDLength+1), w.Header().Get(RequestIDHeader))
	})
}

func TestAuthMiddleware(t *testing.T) {
	users := new(MockUserRepo)
	users.On("GetByID", mock.Anything, "user-1").Return(&domain.User{ID: "user-1", Role: domain.RoleAkzente}, nil)
	users.On("GetByID", mock.Anything, "ghost").Return(nil, domain.ErrNotFound)

	r := identityRouter(AuthMiddleware(secret, users))

	t.Run("valid token sets identity from the user store", func(t *testing.T) {
		w := get(r, map[string]string{"Authorization": "Bearer " + validToken(t, "user-1")})
		require.Equal(t, http.StatusOK, w.Code)

		var body map[string]string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "user-1", body["user_id"])
		assert.Equal(t, "user-1@example.com", body["email"])
		assert.Equal(t, domain.RoleAkzente, body["role"])
	})

	t.Run("cookie token is accepted", func(t *testing.T) {
		w := get(r, map[string]string{"Cookie": "auth_token=" + validToken(t, "user-1")})
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("missing token is unauthorized", func(t *testing.T) {
		w := get(r, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("token of an unknown user is unauthorized", func(t *testing.T) {
		w := get(r, map[string]string{"Authorization": "Bearer " + validToken(t, "ghost")})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("expired token is unauthorized", func(t *testing.T) {
		token := sign(t, jwt.SigningMethodHS256, []byte(secret), jwt.MapClaims{
			"sub": "user-1",
			"exp": time.Now().Add(-time.Minute).Unix(),
		})
		w := get(r, map[string]string{"Authorization": "Bearer " + token})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("token signed with another secret is unauthorized", func(t *testing.T) {
		token := sign(t, jwt.SigningMethodHS256, []byte("other"), jwt.MapClaims{"sub": "user-1"})
		w := get(r, map[string]string{"Authorization": "Bearer " + token})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("other algorithms and missing subjects are unauthorized", func(t *testing.T) {
		token := sign(t, jwt.SigningMethodHS512, []byte(secret), jwt.MapClaims{"sub": "user-1"})
		w := get(r, map[string]string{"Authorization": "Bearer " + token})
		assert.Equal(t, http.StatusUnauthorized, w.Code, "only HS256 is accepted")

		token = sign(t, jwt.SigningMethodHS256, []byte(secret), jwt.MapClaims{"email": "x@example.com"})
		w = get(r, map[string]string{"Authorization": "Bearer " + token})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestOptionalAuthMiddleware(t *testing.T) {
	users := new(MockUserRepo)
	users.On("GetByID", mock.Anything, "user-1").Return(&domain.User{ID: "user-1", Role: domain.RoleMerchandiser}, nil)

	r := identityRouter(OptionalAuthMiddleware(secret, users))

	t.Run("anonymous request passes", func(t *testing.T) {
		w := get(r, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"user_id":""`)
	})

	t.Run("invalid token passes as anonymous", func(t *testing.T) {
		w := get(r, map[string]string{"Authorization": "Bearer garbage"})
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"user_id":""`)
	})

	t.Run("valid token identifies the caller", func(t *testing.T) {
		w := get(r, map[string]string{"Authorization": "Bearer " + validToken(t, "user-1")})
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"user_id":"user-1"`)
	})
}

func TestRequireRole(t *testing.T) {
	users := new(MockUserRepo)
	users.On("GetByID", mock.Anything, "staff").Return(&domain.User{ID: "staff", Role: domain.RoleAkzente}, nil)
	users.On("GetByID", mock.Anything, "merch").Return(&domain.User{ID: "merch", Role: domain.RoleMerchandiser}, nil)

	r := identityRouter(AuthMiddleware(secret, users), RequireRole(domain.RoleAkzente, domain.RoleAdmin))

	t.Run("allowed role passes", func(t *testing.T) {
		w := get(r, map[string]string{"Authorization": "Bearer " + validToken(t, "staff")})
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("other role is forbidden", func(t *testing.T) {
		w := get(r, map[string]string{"Authorization": "Bearer " + validToken(t, "merch")})
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestErrorHandler(t *testing.T) {
	r := gin.New()
	r.Use(RequestID(), ErrorHandler())
	r.GET("/not-found", func(c *gin.Context) { c.Error(apperror.NotFound("Merchandiser not found")) })
	r.GET("/partial", func(c *gin.Context) {
		c.Error(apperror.PartialUpdate(errors.New("db down"), []string{"profile"}, "languages"))
	})
	r.GET("/plain", func(c *gin.Context) { c.Error(errors.New("secret dsn leaked")) })
	r.GET("/written", func(c *gin.Context) {
		c.JSON(http.StatusTeapot, gin.H{})
		c.Error(errors.New("late"))
	})

	call := func(path string) (*httptest.ResponseRecorder, map[string]interface{}) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		var body map[string]interface{}
		_ = json.Unmarshal(w.Body.Bytes(), &body)
		return w, body
	}

	t.Run("app error maps to its status", func(t *testing.T) {
		w, body := call("/not-found")
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "Merchandiser not found", body["message"])
		assert.Equal(t, false, body["success"])
		assert.NotEmpty(t, body["request_id"])
	})

	t.Run("partial update carries details but not the cause", func(t *testing.T) {
		w, body := call("/partial")
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotNil(t, body["error"])
		assert.NotContains(t, w.Body.String(), "db down")
	})

	t.Run("unknown error is generic", func(t *testing.T) {
		w, _ := call("/plain")
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, w.Body.String(), "secret dsn")
	})

	t.Run("written response is left alone", func(t *testing.T) {
		w, _ := call("/written")
		assert.Equal(t, http.StatusTeapot, w.Code)
	})
}

func TestCORSMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(CORSMiddleware("https://app.example.com"))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.OPTIONS("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	request := func(method, origin string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, "/ping", nil)
		if origin != "" {
			req.Header.Set("Origin", origin)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	t.Run("configured origin is echoed", func(t *testing.T) {
		w := request(http.MethodGet, "https://app.example.com")
		assert.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("foreign origin gets no allow header", func(t *testing.T) {
		w := request(http.MethodGet, "https://evil.example.com")
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("preflight from foreign origin is forbidden", func(t *testing.T) {
		w := request(http.MethodOptions, "https://evil.example.com")
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("preflight from allowed origin has no content", func(t *testing.T) {
		w := request(http.MethodOptions, "https://app.example.com")
		assert.Equal(t, http.StatusNoContent, w.Code)
	})
}

func TestRateLimitMiddleware_InMemory(t *testing.T) {
	r := gin.New()
	r.Use(RateLimitMiddleware(RateLimitConfig{
		Limit:     2,
		Window:    time.Minute,
		KeyPrefix: "rl:test:" + t.Name() + ":",
		KeyFunc:   callerKey,
	}))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	var last *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		last = httptest.NewRecorder()
		r.ServeHTTP(last, httptest.NewRequest(http.MethodGet, "/ping", nil))
		codes = append(codes, last.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
	assert.Equal(t, "0", last.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, last.Header().Get("Retry-After"))
}

func TestRateLimitMiddleware_PerUser(t *testing.T) {
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if id := c.GetHeader("X-Test-User"); id != "" {
			c.Set(string(domain.KeyUserID), id)
		}
		c.Next()
	})
	r.Use(RateLimitMiddleware(RateLimitConfig{
		Limit:     1,
		Window:    time.Minute,
		KeyPrefix: "rl:test:" + t.Name() + ":",
		KeyFunc:   callerKey,
	}))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	call := func(user string) int {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set("X-Test-User", user)
		r.ServeHTTP(w, req)
		return w.Code
	}

	t.Run("each user gets an own budget from the same address", func(t *testing.T) {
		assert.Equal(t, http.StatusOK, call("merch-a"))
		assert.Equal(t, http.StatusOK, call("merch-b"))
		assert.Equal(t, http.StatusTooManyRequests, call("merch-a"))
	})
}

func TestMemoryCounter(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)

	t.Run("window resets after it expires", func(t *testing.T) {
		m := newMemoryCounter()
		hit, err := m.hit(ctx, "user:a", time.Minute, now)
		require.NoError(t, err)
		assert.Equal(t, 1, hit.count)
		assert.Equal(t, now.Add(time.Minute), hit.resetAt)

		hit, _ = m.hit(ctx, "user:a", time.Minute, now.Add(30*time.Second))
		assert.Equal(t, 2, hit.count)
		assert.Equal(t, 0, hit.remaining(2))

		hit, _ = m.hit(ctx, "user:a", time.Minute, now.Add(2*time.Minute))
		assert.Equal(t, 1, hit.count)
	})

	t.Run("expired windows are swept", func(t *testing.T) {
		m := newMemoryCounter()
		_, _ = m.hit(ctx, "user:a", time.Minute, now)
		_, _ = m.hit(ctx, "user:b", time.Minute, now)
		assert.Equal(t, 2, m.size())

		_, _ = m.hit(ctx, "user:c", time.Minute, now.Add(sweepEvery))
		assert.Equal(t, 1, m.size())
	})
}

package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"merchandiser-backend/internal/delivery/http/response"
	"merchandiser-backend/internal/domain"
	"merchandiser-backend/pkg/audit"
	"merchandiser-backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

var errNoToken = errors.New("no token")

// bearerToken reads the token from the Authorization header, falling back to
// the auth_token cookie.
func bearerToken(c *gin.Context) string {
	if authHeader := c.GetHeader("Authorization"); authHeader != "" {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	if cookie, err := c.Cookie("auth_token"); err == nil {
		return cookie
	}
	return ""
}

// parseSubject validates an HS256 token and returns its sub and email claims.
func parseSubject(tokenString, secret string) (string, string, error) {
	if tokenString == "" {
		return "", "", errNoToken
	}
	if secret == "" {
		return "", "", errors.New("JWT secret is not configured")
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", "", err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", "", errors.New("invalid claims")
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return "", "", errors.New("token has no subject")
	}
	email, _ := claims["email"].(string)
	return sub, email, nil
}

// authenticate resolves the caller and stores id, email and role on the
// context. The role comes from the user store, not from the token.
func authenticate(c *gin.Context, secret string, users domain.UserRepository) error {
	sub, email, err := parseSubject(bearerToken(c), secret)
	if err != nil {
		return err
	}

	user, err := users.GetByID(c.Request.Context(), sub)
	if err != nil {
		return fmt.Errorf("user lookup: %w", err)
	}

	c.Set(string(domain.KeyUserID), user.ID)
	c.Set(string(domain.KeyUserEmail), email)
	c.Set(string(domain.KeyUserRole), user.Role)
	return nil
}

// AuthMiddleware rejects requests without a valid token of a known user.
func AuthMiddleware(secret string, users domain.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := authenticate(c, secret, users); err != nil {
			logger.Log.Debug("Token validation failed", "error", err, "path", c.FullPath())
			audit.Default().Log(c.Request.Context(), audit.Event{
				Event:     audit.EventUnauthorizedAccess,
				IP:        c.ClientIP(),
				RequestID: requestID(c),
				Path:      c.FullPath(),
			})
			response.Error(c, http.StatusUnauthorized, "Invalid or missing token", nil)
			c.Abort()
			return
		}
		c.Next()
	}
}

// OptionalAuthMiddleware identifies the caller when a valid token is sent and
// lets anonymous requests through otherwise.
func OptionalAuthMiddleware(secret string, users domain.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := authenticate(c, secret, users); err != nil && !errors.Is(err, errNoToken) {
			logger.Log.Debug("Ignoring invalid token", "error", err, "path", c.FullPath())
		}
		c.Next()
	}
}

// RequireRole allows only callers whose role is in roles. It must run after
// AuthMiddleware.
func RequireRole(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}

	return func(c *gin.Context) {
		role := c.GetString(string(domain.KeyUserRole))
		if !allowed[role] {
			audit.Default().Log(c.Request.Context(), audit.Event{
				Event:     audit.EventForbiddenAccess,
				ActorID:   c.GetString(string(domain.KeyUserID)),
				IP:        c.ClientIP(),
				RequestID: requestID(c),
				Path:      c.FullPath(),
				Details:   map[string]interface{}{"role": role},
			})
			response.Error(c, http.StatusForbidden, "Insufficient permissions", nil)
			c.Abort()
			return
		}
		c.Next()
	}
}

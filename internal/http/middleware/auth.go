package middleware

import (
	"context"
	"net/http"
	"strings"

	"collegetour/internal/domain"

	"github.com/gin-gonic/gin"
)

const (
	// TokenCookie holds the session JWT.
	TokenCookie = "token"

	userIDKey   = "userID"
	userRoleKey = "userRole"
	emailKey    = "userEmail"
)

// TokenParser validates a raw token and returns the caller.
type TokenParser func(ctx context.Context, raw string) (domain.RequestContext, error)

func bearerToken(c *gin.Context) string {
	if raw, err := c.Cookie(TokenCookie); err == nil && raw != "" {
		return raw
	}
	h := strings.TrimSpace(c.GetHeader("Authorization"))
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// Auth requires a valid session from the token cookie or an
// Authorization: Bearer header. Authenticated responses are never cached.
func Auth(parse TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", "no-store, no-cache, must-revalidate, private")
		c.Header("Pragma", "no-cache")
		c.Header("Expires", "0")

		rc, err := parse(c.Request.Context(), bearerToken(c))
		switch {
		case err == nil:
		case domain.IsUnauthorized(err):
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":      "authentication required",
				"code":       domain.Reason(err),
				"request_id": GetRequestID(c),
			})
			return
		case domain.IsMismatch(err):
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":      "access denied",
				"code":       domain.Reason(err),
				"request_id": GetRequestID(c),
			})
			return
		default:
			_ = c.Error(err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error":      "internal server error",
				"code":       "internal_error",
				"request_id": GetRequestID(c),
			})
			return
		}
		c.Set(userIDKey, int64(rc.UserID))
		c.Set(userRoleKey, string(rc.Role))
		c.Set(emailKey, rc.Email)
		c.Next()
	}
}

// UserID returns the authenticated user id, or 0.
func UserID(c *gin.Context) int64 {
	return c.GetInt64(userIDKey)
}

func UserRole(c *gin.Context) domain.Role {
	return domain.Role(c.GetString(userRoleKey))
}

// RequireRoles lets the request through only when Auth stored one of the
// allowed roles.
func RequireRoles(allowedRoles ...string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(allowedRoles))
	for _, r := range allowedRoles {
		allowed[strings.ToLower(strings.TrimSpace(r))] = struct{}{}
	}

	return func(c *gin.Context) {
		role := c.GetString(userRoleKey)
		if role == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":      "authentication required",
				"request_id": GetRequestID(c),
			})
			return
		}
		if _, ok := allowed[strings.ToLower(role)]; !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":      "access denied",
				"code":       "forbidden",
				"request_id": GetRequestID(c),
			})
			return
		}
		c.Next()
	}
}

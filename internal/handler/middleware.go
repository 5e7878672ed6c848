package handler

import (
	"context"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/swing-terminal/backend/internal/model"
	"github.com/swing-terminal/backend/internal/service"
)

const authUserKey = "auth_user"

// SessionMiddleware authenticates the local session bearer token and
// stores the parsed identity on the request context.
func SessionMiddleware(session *service.SessionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}

		token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}

		user, err := session.Parse(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}

		c.Set(authUserKey, user)
		c.Next()
	}
}

func GetAuthUser(c *gin.Context) *model.AuthUser {
	if value, ok := c.Get(authUserKey); ok {
		if user, ok := value.(*model.AuthUser); ok {
			return user
		}
	}
	return nil
}

// refreshChecker is the request-path refresh trigger.
type refreshChecker interface {
	IsExpired(ctx context.Context) bool
	RefreshIfNeeded(ctx context.Context) bool
}

// TokenRefreshMiddleware proactively refreshes the Fyers token before
// guarded handlers run. Failure is only logged here; the guard decides
// the user-visible consequence.
func TokenRefreshMiddleware(tokens refreshChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		if tokens.IsExpired(ctx) {
			if !tokens.RefreshIfNeeded(ctx) {
				log.Printf("[TokenRefresh] Pre-request refresh failed for %s", c.FullPath())
			}
		}
		c.Next()
	}
}

// AccessChecker reports whether the caller may reach Fyers-backed
// endpoints right now.
type AccessChecker func(ctx context.Context) service.GuardResult

// RequireFyersToken gates a route group on a valid Fyers token. The
// checker's tagged decision maps to pass-through, a redirect, or a
// JSON error; no shared request state is mutated.
func RequireFyersToken(check AccessChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		result := check(c.Request.Context())
		switch result.Decision {
		case service.AccessAllow:
			c.Next()
		case service.AccessRedirect:
			c.Redirect(http.StatusTemporaryRedirect, result.Target)
			c.Abort()
		default:
			c.JSON(http.StatusUnauthorized, gin.H{"error": result.Reason})
			c.Abort()
		}
	}
}

func CORSMiddleware(allowedOrigins []string, allowCredentials bool) gin.HandlerFunc {
	originMap := make(map[string]struct{}, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		trimmed := strings.TrimSpace(origin)
		if trimmed == "" {
			continue
		}
		originMap[trimmed] = struct{}{}
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" {
			if _, ok := originMap[origin]; ok {
				c.Header("Access-Control-Allow-Origin", origin)
				c.Header("Vary", "Origin")
				if allowCredentials {
					c.Header("Access-Control-Allow-Credentials", "true")
				}
				c.Header("Access-Control-Allow-Headers", "Authorization, Content-Type")
				c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
			}
		}

		if c.Request.Method == http.MethodOptions {
			c.Status(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// Package middleware provides the HTTP middleware chain: JWT
// authentication, CORS and request logging.
package middleware

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/gin-gonic/gin"

	"agsa-server/internal/cache"
	"agsa-server/pkg/jwt"
	"agsa-server/pkg/response"
)

// AuthMiddleware validates the Bearer token on every request and puts
// the authenticated user into the gin context. Blacklisted (logged-out)
// tokens are rejected even when the signature is still valid.
func AuthMiddleware(jwtService *jwt.JWTService, redisCache *cache.RedisCache) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c, "authentication required")
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.Unauthorized(c, "invalid authorization header")
			c.Abort()
			return
		}
		tokenString := parts[1]

		claims, err := jwtService.ValidateToken(tokenString)
		if err != nil || claims.Subject != "access" {
			response.Unauthorized(c, "invalid or expired token")
			c.Abort()
			return
		}

		// The blacklist stores hashes, never raw tokens.
		tokenHash := hashToken(tokenString)
		if redisCache.IsTokenBlacklisted(c.Request.Context(), tokenHash) {
			response.Unauthorized(c, "token revoked, please log in again")
			c.Abort()
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("phone_number", claims.PhoneNumber)
		c.Set("token_hash", tokenHash)
		c.Set("token_exp", claims.ExpiresAt.Time)

		c.Next()
	}
}

// hashToken computes the SHA-256 hash used as the blacklist key.
func hashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}

// GetUserID returns the authenticated user id, or 0 when the request
// is unauthenticated.
func GetUserID(c *gin.Context) int64 {
	userID, exists := c.Get("user_id")
	if !exists {
		return 0
	}
	return userID.(int64)
}

// GetPhoneNumber returns the authenticated phone number, or "".
func GetPhoneNumber(c *gin.Context) string {
	phone, exists := c.Get("phone_number")
	if !exists {
		return ""
	}
	return phone.(string)
}

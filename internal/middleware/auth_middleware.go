package middleware

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/GTDGit/gtd_payments/internal/utils"
)

// APIKeyMiddleware authenticates payment routes against the configured keys.
type APIKeyMiddleware struct {
	keys        [][]byte
	rateLimiter *InvalidAuthRateLimiter
}

// NewAPIKeyMiddleware constructs a new APIKeyMiddleware.
func NewAPIKeyMiddleware(keys []string, limiter *InvalidAuthRateLimiter) *APIKeyMiddleware {
	m := &APIKeyMiddleware{rateLimiter: limiter}
	for _, k := range keys {
		if k != "" {
			m.keys = append(m.keys, []byte(k))
		}
	}
	return m
}

// Handle returns a Gin middleware function that enforces authentication.
// The key is read from "Authorization: Bearer <key>" or X-Api-Key.
func (m *APIKeyMiddleware) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := extractKey(c)
		if key == "" {
			m.handleAuthError(c, "INVALID_TOKEN", "Missing or invalid authorization header")
			return
		}
		if !m.valid(key) {
			m.handleAuthError(c, "INVALID_TOKEN", "Invalid API key")
			return
		}

		c.Set("api_key_id", KeyID(key))
		c.Next()
	}
}

func (m *APIKeyMiddleware) valid(key string) bool {
	candidate := []byte(key)
	ok := false
	// Compare against every key so timing does not reveal which one matched.
	for _, k := range m.keys {
		if subtle.ConstantTimeCompare(candidate, k) == 1 {
			ok = true
		}
	}
	return ok
}

func (m *APIKeyMiddleware) handleAuthError(c *gin.Context, code, message string) {
	if m.rateLimiter != nil && !m.rateLimiter.Allow(c.ClientIP()) {
		utils.Error(c, http.StatusTooManyRequests, "TOO_MANY_REQUESTS", "Too many invalid authentication attempts")
		c.Abort()
		return
	}

	utils.Error(c, http.StatusUnauthorized, code, message)
	c.Abort()
}

func extractKey(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return strings.TrimSpace(c.GetHeader("X-Api-Key"))
}

// KeyID is a short non-reversible identifier of an API key for logs.
func KeyID(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:4])
}

// GetKeyID returns the authenticated key id from context.
func GetKeyID(c *gin.Context) string {
	return c.GetString("api_key_id")
}

package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const accountKey = "auth.account"

// Middleware extracts the bearer token, verifies it and stores the caller's
// account address in the request context.
func Middleware(s *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		account, err := s.Verify(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		c.Set(accountKey, account)
		c.Next()
	}
}

// Account returns the authenticated caller's account address, or "" when the
// request was not authenticated.
func Account(c *gin.Context) string {
	return c.GetString(accountKey)
}

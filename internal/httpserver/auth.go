package httpserver

import (
	"net/http"
	"strings"

	"shopmart/internal/domain"
	"github.com/gin-gonic/gin"
)

const userKey = "authed_user"

// authMiddleware resolves the bearer token to a user and aborts with 401
// otherwise. Handlers downstream read the user with currentUser.
func authMiddleware(users UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "missing bearer token", "code": "INVALID_TOKEN"})
			return
		}
		u, err := users.LookupByToken(c.Request.Context(), strings.TrimSpace(token))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "invalid or expired token", "code": "INVALID_TOKEN"})
			return
		}
		c.Set(userKey, u)
		c.Next()
	}
}

func currentUser(c *gin.Context) *domain.User {
	v, ok := c.Get(userKey)
	if !ok {
		return nil
	}
	u, _ := v.(*domain.User)
	return u
}

func currentUserID(c *gin.Context) string {
	u := currentUser(c)
	if u == nil {
		return ""
	}
	return u.ID
}

package middlewares

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	Logger "github.com/gitpress/gitpress/utils/log"
)

// SessionResolver maps a bearer token to the username it belongs to.
type SessionResolver interface {
	Resolve(token string) (username string, ok bool)
}

var (
	// resolver performs session lookups for the Auth middleware. Before any
	// middleware is used, make sure it's initialized through Setup.
	resolver SessionResolver
)

// Setup initializes the package scoped collaborators the middlewares need.
// This function must be called before any middleware is used.
func Setup(r SessionResolver) {
	if r == nil {
		Logger.Log.Fatal("middlewares.Setup called with nil session resolver")
	}
	resolver = r
}

// BearerToken extracts the session token from the Authorization header,
// falling back to the "token" query parameter.
func BearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return c.Query("token")
}

// Auth rejects requests that do not carry a valid session token. On success
// it replaces any caller-supplied "sub" header with the session's username,
// which downstream handlers read as the authenticated identity.
func Auth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := BearerToken(c)

		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "missing session token",
			})
			c.Abort()
			return
		}

		username, ok := resolver.Resolve(token)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "invalid or expired session token",
			})
			c.Abort()
			return
		}

		// Successfully validated the token, expose the authenticated user
		// to handlers through the "sub" header.
		c.Request.Header.Del("sub")
		c.Request.Header.Add("sub", username)

		c.Next()
	}
}

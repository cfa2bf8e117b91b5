package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/slmirrortech-dev/sl-worklog-web-sub001/internal/session"
)

// Identity headers set by the authenticating reverse proxy.
const (
	headerEmployeeID   = "X-Employee-Id"
	headerEmployeeName = "X-Employee-Name"
	headerEmployeeRole = "X-Employee-Role"
)

const ctxIdentity = "identity"

// identityMiddleware reads the proxy-supplied identity headers and rejects
// requests without an employee id.
func identityMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(headerEmployeeID)
		if id == "" {
			respondErr(c, http.StatusUnauthorized, codeUnauthorized, "missing employee identity")
			c.Abort()
			return
		}
		name := c.GetHeader(headerEmployeeName)
		if name == "" {
			name = id
		}
		c.Set(ctxIdentity, session.Identity{ID: id, Name: name})
		c.Next()
	}
}

// requireRole admits only the listed roles.
func requireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetHeader(headerEmployeeRole)
		for _, r := range roles {
			if role == r {
				c.Next()
				return
			}
		}
		respondErr(c, http.StatusForbidden, codeForbidden, "insufficient role")
		c.Abort()
	}
}

func callerIdentity(c *gin.Context) session.Identity {
	v, _ := c.Get(ctxIdentity)
	ident, _ := v.(session.Identity)
	return ident
}

package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	appErrors "github.com/inkwelldata/inkwell/pkg/errors"
	"github.com/inkwelldata/inkwell/pkg/response"
)

// PrincipalHeader names the request header carrying the caller identity.
const PrincipalHeader = "X-Principal-ID"

const principalKey = "principal_id"

// Principal extracts the caller identity from the request headers and
// stores it on the context. Requests without an identity are rejected.
func Principal() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(PrincipalHeader))
		if id == "" {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		c.Set(principalKey, id)
		c.Next()
	}
}

// PrincipalID returns the caller identity stored by Principal.
func PrincipalID(c *gin.Context) (string, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return "", false
	}
	id, ok := v.(string)
	return id, ok && id != ""
}

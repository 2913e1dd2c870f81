package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/fairu-api/internal/models"
)

// ContextAuthKey is the gin context key storing the resolved models.AuthResult.
const ContextAuthKey = "auth"

type tokenResolver interface {
	Resolve(header string) models.AuthResult
}

// Identity attaches the resolved identity to every request. It never aborts;
// handlers decide what an anonymous, invalid or expired identity means.
func Identity(resolver tokenResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(ContextAuthKey, resolver.Resolve(c.GetHeader("Authorization")))
		c.Next()
	}
}

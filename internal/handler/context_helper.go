package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/fairu-api/internal/middleware"
	"github.com/noah-isme/fairu-api/internal/models"
)

func authFromContext(c *gin.Context) models.AuthResult {
	value, exists := c.Get(middleware.ContextAuthKey)
	if !exists {
		return models.Unauthenticated()
	}
	auth, ok := value.(models.AuthResult)
	if !ok {
		return models.Unauthenticated()
	}
	return auth
}

// includeUnverified reads the unverified query flag; anything but a true value is false.
func includeUnverified(c *gin.Context) bool {
	value, err := strconv.ParseBool(c.Query("unverified"))
	return err == nil && value
}

package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/fairu-api/internal/models"
	appErrors "github.com/noah-isme/fairu-api/pkg/errors"
)

// Envelope represents the common response contract.
type Envelope struct {
	Data       interface{}            `json:"data,omitempty"`
	Error      *appErrors.Error       `json:"error,omitempty"`
	Pagination *models.Pagination     `json:"pagination,omitempty"`
	Meta       map[string]interface{} `json:"meta,omitempty"`
}

// JSON sends a success response with optional pagination metadata.
func JSON(c *gin.Context, status int, data interface{}, pagination *models.Pagination, meta ...map[string]interface{}) {
	envelope := Envelope{Data: data, Pagination: pagination}
	if len(meta) > 0 && meta[0] != nil {
		envelope.Meta = meta[0]
	}
	noStore(c)
	c.JSON(status, envelope)
}

// Created responds with HTTP 201 Created.
func Created(c *gin.Context, data interface{}) {
	JSON(c, http.StatusCreated, data, nil)
}

// Raw sends body without the envelope. Sign in uses it because clients read
// the token from the top level.
func Raw(c *gin.Context, status int, body interface{}) {
	noStore(c)
	c.JSON(status, body)
}

// Error sends an error response converting the error to the common structure.
// The wrapped cause is attached to the gin context for logging, never sent.
func Error(c *gin.Context, err error) {
	appErr := appErrors.FromError(err)
	if appErr.Err != nil {
		_ = c.Error(appErr.Err)
	}
	if appErr.Status == http.StatusTooManyRequests {
		c.Header("Retry-After", "1")
	}
	noStore(c)
	c.AbortWithStatusJSON(appErr.Status, Envelope{Error: appErr})
}

// Session tokens and moderator-only fields must never be cached by proxies.
func noStore(c *gin.Context) {
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
}

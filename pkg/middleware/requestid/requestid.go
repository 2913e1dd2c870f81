package requestid

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Header carries the request ID in both directions.
const Header = "X-Request-ID"

const (
	contextKey = "request_id"
	maxLength  = 64
	alphabet   = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ_-"
	idLength   = 21
)

// Middleware tags every request with an ID. A client supplied ID is echoed
// back only when it is short and URL safe, since it ends up in access logs.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := c.GetHeader(Header)
		if !acceptable(reqID) {
			reqID = generate()
		}

		c.Set(contextKey, reqID)
		c.Header(Header, reqID)

		c.Next()
	}
}

// Value returns the request ID stored in the Gin context.
func Value(c *gin.Context) string {
	return c.GetString(contextKey)
}

func acceptable(id string) bool {
	if id == "" || len(id) > maxLength {
		return false
	}
	for _, r := range id {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '-', r == '_', r == '.':
		default:
			return false
		}
	}
	return true
}

func generate() string {
	id, err := gonanoid.Generate(alphabet, idLength)
	if err != nil {
		return "t" + strconv.FormatInt(time.Now().UnixNano(), 36)
	}
	return id
}

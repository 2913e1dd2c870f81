package cors

import (
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/fairu-api/pkg/middleware/requestid"
)

// New returns a CORS middleware that honors a list of allowed origins.
// An empty list allows every origin.
func New(allowedOrigins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type", "X-Requested-With", requestid.Header},
		ExposeHeaders:    []string{"Content-Length", requestid.Header},
		AllowCredentials: true,
		MaxAge:           10 * time.Minute,
	}

	if len(allowedOrigins) == 0 {
		cfg.AllowOriginFunc = func(string) bool { return true }
	} else {
		origins := make([]string, 0, len(allowedOrigins))
		for _, origin := range allowedOrigins {
			origins = append(origins, strings.TrimRight(origin, "/"))
		}
		cfg.AllowOrigins = origins
	}

	return cors.New(cfg)
}

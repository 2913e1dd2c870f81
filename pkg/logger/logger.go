package logger

import (
	"time"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/noah-isme/fairu-api/pkg/config"
	"github.com/noah-isme/fairu-api/pkg/middleware/requestid"
)

func New(cfg *config.Config) (*zap.Logger, error) {
	var zapCfg zap.Config
	if cfg.Env == config.EnvProduction {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}

	switch cfg.Log.Format {
	case "console":
		zapCfg.Encoding = "console"
	default:
		zapCfg.Encoding = "json"
	}

	if cfg.Log.Level != "" {
		if err := zapCfg.Level.UnmarshalText([]byte(cfg.Log.Level)); err != nil {
			zapCfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
		}
	}

	zapCfg.EncoderConfig.TimeKey = "timestamp"
	zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return zapCfg.Build()
}

// GinMiddleware logs every request through zap, tagging it with the request id.
func GinMiddleware(l *zap.Logger) gin.HandlerFunc {
	return ginzap.GinzapWithConfig(l, &ginzap.Config{
		TimeFormat: time.RFC3339,
		UTC:        true,
		SkipPaths:  []string{"/health", "/ready", "/metrics"},
		Context: func(c *gin.Context) []zapcore.Field {
			var fields []zapcore.Field
			if reqID := requestid.Value(c); reqID != "" {
				fields = append(fields, zap.String("request_id", reqID))
			}
			return fields
		},
	})
}

// Recovery converts panics into 500 responses and logs the stack.
func Recovery(l *zap.Logger) gin.HandlerFunc {
	return ginzap.RecoveryWithZap(l, true)
}

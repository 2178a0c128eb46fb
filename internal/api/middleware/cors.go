package middleware

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/GriffinCanCode/AgentOS/browserdesk/internal/infrastructure/tracing"
)

// CORSConfig controls which browser origins may call the REST surface.
type CORSConfig struct {
	// Origins lists allowed origins. Empty or "*" allows any origin, in which
	// case credentials are not allowed.
	Origins []string
	MaxAge  time.Duration
}

// DefaultCORSConfig allows any origin. The desktop shell loads from a
// file:// or dev-server origin that differs per build.
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{MaxAge: 12 * time.Hour}
}

func (c CORSConfig) wildcard() bool {
	if len(c.Origins) == 0 {
		return true
	}
	for _, o := range c.Origins {
		if o == "*" {
			return true
		}
	}
	return false
}

// CORS creates a CORS middleware. Trace headers are exposed so the shell can
// correlate its requests with server logs.
func CORS(cfg CORSConfig) gin.HandlerFunc {
	cc := cors.Config{
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{
			"Origin",
			"Content-Type",
			"Content-Length",
			"Accept",
			"Authorization",
			tracing.HeaderTraceID,
			tracing.HeaderSpanID,
		},
		ExposeHeaders: []string{tracing.HeaderTraceID, tracing.HeaderSpanID},
		MaxAge:        cfg.MaxAge,
	}
	if cfg.wildcard() {
		cc.AllowAllOrigins = true
	} else {
		cc.AllowOrigins = cfg.Origins
		cc.AllowCredentials = true
	}
	return cors.New(cc)
}

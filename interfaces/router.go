package interfaces

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"interview-coach/infrastructure"
)

type RouterConfig struct {
	ServiceName string
	CORSOrigins []string
}

// NewRouter builds the gin engine with recovery, tracing, CORS and request
// logging, and registers all routes of h.
func NewRouter(cfg RouterConfig, h *HTTPHandler) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(cfg.ServiceName))
	router.Use(infrastructure.RequestLogger(h.Log))

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "X-User-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.CORSOrigins) == 0 {
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	} else {
		corsCfg.AllowOrigins = cfg.CORSOrigins
	}
	router.Use(cors.New(corsCfg))

	NewHTTPHandler(router, h)
	return router
}

package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"gemini-relay/internal/config"
	gh "gemini-relay/internal/handlers/gemini"
	mw "gemini-relay/internal/middleware"
)

// Build constructs the HTTP engine: middleware chain, generate endpoints,
// health and metrics.
func Build(cfg *config.Config) *gin.Engine {
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(mw.RequestID())
	engine.Use(mw.Recovery())
	engine.Use(mw.RequestLogger())
	engine.Use(mw.Metrics())
	if cfg.RateLimitEnabled {
		engine.Use(mw.RateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst))
	}

	handler := gh.New()
	RegisterGeminiRoutes(engine, handler)

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return engine
}

// RegisterGeminiRoutes mounts the Gemini-native generate endpoints. Gin
// cannot mix a path parameter with a literal colon in one segment, so the
// action rides in a trailing wildcard and is dispatched by hand. Clients
// that attach the action to the model segment ("models/m:generateContent")
// are handled too.
func RegisterGeminiRoutes(engine *gin.Engine, handler *gh.Handler) {
	dispatch := func(c *gin.Context) {
		action := strings.TrimPrefix(strings.TrimPrefix(c.Param("action"), "/"), ":")
		if action == "" || action == "/" {
			if i := strings.IndexByte(c.Param("model"), ':'); i >= 0 {
				action = c.Param("model")[i+1:]
			}
		}
		switch action {
		case "generateContent":
			handler.GenerateContent(c)
		case "streamGenerateContent":
			handler.StreamGenerateContent(c)
		default:
			c.JSON(http.StatusNotFound, gin.H{"error": gin.H{
				"message": "unknown action",
				"type":    "invalid_request_error",
				"code":    http.StatusNotFound,
			}})
		}
	}
	engine.POST("/v1beta/models/:model/*action", dispatch)
	engine.POST("/v1/models/:model/*action", dispatch)
}

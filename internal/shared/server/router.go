package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"filevault-backend/internal/files"
	"filevault-backend/internal/shared/config"
	"filevault-backend/internal/shared/metrics"
	"filevault-backend/internal/shared/server/middleware"
	"filevault-backend/internal/shared/server/respond"
	"filevault-backend/internal/users"
)

// RouterDeps carries the handlers the router mounts.
type RouterDeps struct {
	Config       config.Config
	FilesHandler *files.Handler
	UsersHandler *users.Handler
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
	)

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, gin.H{"ok": true})
	})
	api.GET("/metrics", metrics.Handler())

	authed := api.Group("")
	authed.Use(
		middleware.Auth(),
		middleware.RateLimit(middleware.RateLimitConfig{
			Rules: map[string]middleware.RateLimitRule{
				"MUTATE": {Rate: 2, Burst: 10},
			},
			GroupFor: func(c *gin.Context) string {
				switch c.Request.Method {
				case http.MethodPost, http.MethodDelete:
					return "MUTATE"
				default:
					return ""
				}
			},
		}),
	)
	deps.FilesHandler.RegisterRoutes(authed)
	if deps.UsersHandler != nil {
		deps.UsersHandler.RegisterRoutes(authed)
	}

	return r
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}

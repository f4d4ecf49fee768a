package main

import (
	"time"

	"codeberg.org/codepair/server/api/rest/health"
	"codeberg.org/codepair/server/api/rest/sessions"
	"codeberg.org/codepair/server/api/websocket"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// sets up all API routes and middleware
func RegisterRoutes(router *gin.Engine, server *Server) {
	router.Use(cors.New(corsConfig(server)))

	router.GET("/health", health.Handler(server.store, server.startedAt))

	root := router.Group("")

	{
		sessions.RegisterRoutes(root, server.store, server.config.FrontendURL)
		websocket.RegisterRoutes(root, server.hub)
	}
}

// builds the CORS policy from the configured origins; the frontend origin is
// always allowed so share URLs keep working without extra configuration
func corsConfig(server *Server) cors.Config {
	origins := server.config.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{server.config.FrontendURL}
	}

	return cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST"},
		AllowHeaders:     []string{"Origin", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
}

package main

import (
	"time"

	"codeberg.org/codepair/server/internal/config"
	"codeberg.org/codepair/server/internal/sessions"
	ws "codeberg.org/codepair/server/internal/websocket"
	"github.com/gin-gonic/gin"
)

// creates and configures a new server instance with all dependencies
func NewServer(cfg *config.Config) *Server {
	store := sessions.NewStore(cfg.SessionTimeout, cfg.MaxSessionAge)

	hub := ws.NewHub()

	// register websocket message handlers
	hub.RegisterHandler(ws.TypeJoin, ws.JoinHandler(store))
	hub.RegisterHandler(ws.TypeCodeChange, ws.CodeChangeHandler(store))
	hub.RegisterHandler(ws.TypeLanguageChange, ws.LanguageChangeHandler(store))
	hub.RegisterHandler(ws.TypePing, ws.PingHandler())

	// resolve and remove the participant a closed connection represented
	hub.OnClientDisconnect(ws.DisconnectHandler(store))

	cleanupService := sessions.NewCleanupService(store, cfg.CleanupInterval)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()

	server := &Server{
		config:         cfg,
		store:          store,
		hub:            hub,
		cleanupService: cleanupService,
		router:         router,
		startedAt:      time.Now(),
	}

	RegisterRoutes(router, server)

	return server
}

package main

import (
	"time"

	"codeberg.org/codepair/server/internal/config"
	"codeberg.org/codepair/server/internal/sessions"
	ws "codeberg.org/codepair/server/internal/websocket"
	"github.com/gin-gonic/gin"
)

// holds all dependencies and state for the API server
type Server struct {
	config         *config.Config
	store          *sessions.Store
	hub            *ws.Hub
	cleanupService *sessions.CleanupService
	router         *gin.Engine
	startedAt      time.Time
}

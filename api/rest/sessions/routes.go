package sessions

import (
	"time"

	"codeberg.org/codepair/server/internal/sessions"
	"github.com/gin-gonic/gin"
	limiter "github.com/ulule/limiter/v3"
	mgin "github.com/ulule/limiter/v3/drivers/middleware/gin"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

// session creation is cheap but unauthenticated, so cap it per client IP
var createRate = limiter.Rate{
	Period: 1 * time.Minute,
	Limit:  30,
}

func RegisterRoutes(router *gin.RouterGroup, store *sessions.Store, frontendURL string) {
	createLimiter := mgin.NewMiddleware(limiter.New(memory.NewStore(), createRate))

	router.POST("/sessions", createLimiter, CreateSessionHandler(store, frontendURL))
	router.GET("/sessions/:id", GetSessionHandler(store))
}

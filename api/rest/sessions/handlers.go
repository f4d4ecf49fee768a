package sessions

import (
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"codeberg.org/codepair/server/internal/errors"
	"codeberg.org/codepair/server/internal/languages"
	"codeberg.org/codepair/server/internal/sessions"
	"github.com/gin-gonic/gin"
)

// creates a new collaboration session
func CreateSessionHandler(store *sessions.Store, frontendURL string) gin.HandlerFunc {
	return func(c *gin.Context) {
		// an empty body means default options, only malformed JSON is rejected
		var req CreateSessionRequest
		if err := c.ShouldBindJSON(&req); err != nil && !stderrors.Is(err, io.EOF) {
			errors.BadRequest(c, "invalid request body", err)
			return
		}

		if req.Language == "" {
			req.Language = languages.Default
		}

		if !languages.Valid(req.Language) {
			errors.ValidationError(c,
				fmt.Sprintf("language must be one of: %s", strings.Join(languages.All(), ", ")),
				nil,
			)
			return
		}

		session := store.Create(req.Language)

		c.JSON(http.StatusCreated, CreateSessionResponse{
			SessionID: session.ID,
			CreatedAt: session.CreatedAt,
			Language:  session.Language,
			ShareURL:  fmt.Sprintf("%s/session/%s", frontendURL, session.ID),
		})
	}
}

// retrieves a session by ID
func GetSessionHandler(store *sessions.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.Param("id")
		if !errors.IsValidUUID(sessionID) {
			c.JSON(http.StatusNotFound, NotFoundResponse{
				Error:     errors.CodeSessionNotFound,
				SessionID: sessionID,
			})
			return
		}

		session, exists := store.Get(sessionID)
		if !exists {
			c.JSON(http.StatusNotFound, NotFoundResponse{
				Error:     errors.CodeSessionNotFound,
				SessionID: sessionID,
			})
			return
		}

		c.JSON(http.StatusOK, SessionResponse{
			SessionID:    session.ID,
			CreatedAt:    session.CreatedAt,
			LastActivity: session.LastActivity,
			Language:     session.Language,
			UserCount:    store.ParticipantCount(session.ID),
			Exists:       true,
		})
	}
}

package websocket

import (
	"time"

	"codeberg.org/codepair/server/internal/errors"
	"codeberg.org/codepair/server/internal/languages"
	"codeberg.org/codepair/server/internal/logger"
	"codeberg.org/codepair/server/internal/sessions"
)

// handles join messages. On success the joining connection alone receives the
// full session snapshot while everyone else in the room gets a presence
// update; the joiner never sees its own user_joined broadcast.
func JoinHandler(store *sessions.Store) MessageHandler {
	return func(hub *Hub, client *Client, msg *Message) error {
		var payload JoinPayload
		if err := msg.UnmarshalPayload(&payload); err != nil {
			client.SendError(errors.CodeValidationError, "failed to parse join request", err.Error())
			return err
		}

		if payload.UserID == "" {
			client.SendError(errors.CodeValidationError, "user_id is required", "")
			return ErrInvalidMessage
		}

		if payload.DisplayName == "" {
			payload.DisplayName = "Anonymous"
		}

		// an absent session takes no store action and joins no room
		if !store.Exists(payload.SessionID) {
			client.SendError(errors.CodeSessionNotFound, "session not found", "")
			return ErrSessionNotFound
		}

		hub.JoinRoom(payload.SessionID, client)
		client.SetIdentity(payload.UserID, payload.DisplayName)

		// a re-join with the same user_id supersedes the old connection mapping
		store.AddParticipant(payload.SessionID, sessions.Participant{
			ID:           payload.UserID,
			ConnectionID: client.ID,
			DisplayName:  payload.DisplayName,
			JoinedAt:     time.Now(),
		})

		session, ok := store.Get(payload.SessionID)
		if !ok {
			// reclaimed between the existence check and the read
			client.SendError(errors.CodeSessionNotFound, "session not found", "")
			return ErrSessionNotFound
		}

		users := store.Participants(payload.SessionID)
		userCount := store.ParticipantCount(payload.SessionID)

		// full state snapshot to the joining connection only
		joinedMsg, err := NewMessage(TypeSessionJoined, payload.SessionID, payload.UserID, SessionJoinedPayload{
			SessionID: payload.SessionID,
			Code:      session.Code,
			Language:  session.Language,
			Users:     users,
			UserCount: userCount,
		})
		if err != nil {
			client.SendError(errors.CodeConnectionError, "failed to join session", err.Error())
			return err
		}

		if sendErr := client.Send(joinedMsg); sendErr != nil {
			logger.ErrorErr(sendErr, "failed to send session state",
				"client_id", client.ID,
				"session_id", payload.SessionID,
			)
		}

		// presence update to everyone else in the room
		userJoinedMsg, err := NewMessage(TypeUserJoined, payload.SessionID, payload.UserID, UserJoinedPayload{
			UserID:      payload.UserID,
			DisplayName: payload.DisplayName,
			UserCount:   userCount,
		})
		if err == nil {
			hub.BroadcastToRoom(payload.SessionID, userJoinedMsg, client.ID)
		}

		logger.Info("user joined session",
			"session_id", payload.SessionID,
			"user_id", payload.UserID,
			"user_count", userCount,
		)

		return nil
	}
}

// handles code change messages. The new buffer replaces the old one verbatim
// and is broadcast to every connection in the room except the originator, so
// the sender never receives an echo of its own edit.
func CodeChangeHandler(store *sessions.Store) MessageHandler {
	return func(hub *Hub, client *Client, msg *Message) error {
		if !client.checkCodeUpdateRateLimit() {
			client.SendError(errors.CodeTooManyRequests, "too many code updates. maximum 10 per second.", "")
			return ErrRateLimitExceeded
		}

		var payload CodeChangePayload
		if err := msg.UnmarshalPayload(&payload); err != nil {
			client.SendError(errors.CodeValidationError, "failed to parse code update", err.Error())
			return err
		}

		if len(payload.Code) > maxCodeSize {
			client.SendError(errors.CodeValidationError, "code exceeds maximum size. maximum 100 KB allowed.", "")
			return ErrCodeTooLarge
		}

		if !store.Exists(payload.SessionID) {
			client.SendError(errors.CodeSessionNotFound, "session not found", "")
			return ErrSessionNotFound
		}

		store.SetCode(payload.SessionID, payload.Code)

		broadcastMsg, err := NewMessage(TypeCodeUpdate, payload.SessionID, payload.UserID, CodeUpdatePayload{
			Code:      payload.Code,
			UserID:    payload.UserID,
			Timestamp: time.Now().UnixMilli(),
		})
		if err != nil {
			client.SendError(errors.CodeUpdateError, "failed to update code", err.Error())
			return err
		}

		hub.BroadcastToRoom(payload.SessionID, broadcastMsg, client.ID)

		return nil
	}
}

// handles language change messages. The buffer resets server-side to the new
// language's template, so the update goes to every connection in the room,
// the originator included: all editors reset in lockstep.
func LanguageChangeHandler(store *sessions.Store) MessageHandler {
	return func(hub *Hub, client *Client, msg *Message) error {
		var payload LanguageChangePayload
		if err := msg.UnmarshalPayload(&payload); err != nil {
			client.SendError(errors.CodeValidationError, "failed to parse language change", err.Error())
			return err
		}

		// reject unsupported languages before touching the store
		if !languages.Valid(payload.Language) {
			client.SendError(errors.CodeValidationError, "unsupported language", "")
			return ErrInvalidLanguage
		}

		if !store.Exists(payload.SessionID) {
			client.SendError(errors.CodeSessionNotFound, "session not found", "")
			return ErrSessionNotFound
		}

		store.SetLanguage(payload.SessionID, payload.Language)

		session, ok := store.Get(payload.SessionID)
		if !ok {
			client.SendError(errors.CodeSessionNotFound, "session not found", "")
			return ErrSessionNotFound
		}

		broadcastMsg, err := NewMessage(TypeLanguageUpdate, payload.SessionID, payload.UserID, LanguageUpdatePayload{
			Language: session.Language,
			Code:     session.Code,
			UserID:   payload.UserID,
		})
		if err != nil {
			client.SendError(errors.CodeUpdateError, "failed to change language", err.Error())
			return err
		}

		hub.BroadcastToRoom(payload.SessionID, broadcastMsg, "")

		logger.Info("language changed",
			"session_id", payload.SessionID,
			"language", payload.Language,
			"user_id", payload.UserID,
		)

		return nil
	}
}

// resolves the participant a closing connection represented and removes it.
// Connections that never joined a session are a silent no-op. A re-joined
// participant's stale connection no longer matches and falls through here.
func DisconnectHandler(store *sessions.Store) func(hub *Hub, client *Client) {
	return func(hub *Hub, client *Client) {
		sessionID, participantID, ok := store.FindByConnection(client.ID)
		if !ok {
			return
		}

		// deletes the session as a side effect when this was the last participant
		store.RemoveParticipant(sessionID, participantID)

		userCount := store.ParticipantCount(sessionID)

		userLeftMsg, err := NewMessage(TypeUserLeft, sessionID, participantID, UserLeftPayload{
			UserID:    participantID,
			UserCount: userCount,
		})
		if err != nil {
			logger.ErrorErr(err, "failed to create user_left message",
				"session_id", sessionID,
				"user_id", participantID,
			)
			return
		}

		hub.BroadcastToRoom(sessionID, userLeftMsg, client.ID)
	}
}

// handles ping messages from clients (keep-alive)
func PingHandler() MessageHandler {
	return func(_ *Hub, client *Client, _ *Message) error {
		pongMsg, err := NewMessage(TypePong, client.Session(), "", nil)
		if err != nil {
			return err
		}

		client.Send(pongMsg) //nolint:errcheck,gosec // best-effort pong
		return nil
	}
}

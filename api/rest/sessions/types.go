package sessions

import "time"

type CreateSessionRequest struct {
	Language string `json:"language"`
}

// CreateSessionResponse returned after a session is created
type CreateSessionResponse struct {
	SessionID string    `json:"sessionId"`
	CreatedAt time.Time `json:"createdAt"`
	Language  string    `json:"language"`
	ShareURL  string    `json:"shareUrl"`
}

// SessionResponse returned for an existing session lookup
type SessionResponse struct {
	SessionID    string    `json:"sessionId"`
	CreatedAt    time.Time `json:"createdAt"`
	LastActivity time.Time `json:"lastActivity"`
	Language     string    `json:"language"`
	UserCount    int       `json:"userCount"`
	Exists       bool      `json:"exists"`
}

// NotFoundResponse returned when the requested session does not exist
type NotFoundResponse struct {
	Error     string `json:"error"`
	SessionID string `json:"sessionId"`
}

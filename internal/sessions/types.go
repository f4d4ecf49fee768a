package sessions

import (
	"sync"
	"time"
)

// a collaboration unit holding one shared code buffer and its participants.
// Code and Language are always set; a session is created with the language's
// starter template and a language change resets the buffer to the new one.
type Session struct {
	ID           string
	CreatedAt    time.Time
	LastActivity time.Time
	Language     string
	Code         string

	// participant ID -> participant; nil on snapshots returned by Get
	participants map[string]*Participant
}

// a logical user within a session, distinct from its transport connection.
// Exactly one live connection represents a participant at a time; a re-join
// with the same ID replaces the record.
type Participant struct {
	ID           string
	ConnectionID string
	DisplayName  string
	JoinedAt     time.Time
}

// participant fields safe to expose to other clients.
// Connection IDs never leave the store.
type ParticipantInfo struct {
	ID          string `json:"user_id"`
	DisplayName string `json:"display_name"`
}

// in-memory session store. All mutations happen under the store lock so each
// operation observes a consistent state and commits atomically.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	// reclamation bounds, fixed at construction
	idleTimeout time.Duration
	maxAge      time.Duration
}

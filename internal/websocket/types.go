package websocket

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"codeberg.org/codepair/server/internal/sessions"
	"github.com/gorilla/websocket"
)

// message type constants for websocket communication
const (
	// is sent by a client to join a session
	TypeJoin = "join"

	// is sent by a client when it edits the code buffer
	TypeCodeChange = "code_change"

	// is sent by a client to switch the session language
	TypeLanguageChange = "language_change"

	// is sent to the joining client with the full session state
	TypeSessionJoined = "session_joined"

	// is sent to the other clients when a user joins the session
	TypeUserJoined = "user_joined"

	// is sent to the other clients when the code buffer changes
	TypeCodeUpdate = "code_update"

	// is sent to every client when the language (and buffer) resets
	TypeLanguageUpdate = "language_update"

	// is sent to the remaining clients when a user leaves
	TypeUserLeft = "user_left"

	// is sent when an error occurs
	TypeError = "error"

	// is sent by clients to keep the connection alive
	TypePing = "ping"

	// is sent by server in response to ping
	TypePong = "pong"

	// is sent by server before shutdown
	TypeServerShutdown = "server_shutdown"
)

// client connection constants
const (
	// time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// maximum message size allowed from peer
	maxMessageSize = 512 * 1024 // 512 KB

	// maximum code updates per second per connection
	maxCodeUpdatesPerSecond = 10

	// maximum code buffer size
	maxCodeSize = 100 * 1024 // 100 KB
)

// errors
var (
	ErrSessionNotFound   = errors.New("session not found")
	ErrInvalidMessage    = errors.New("invalid message format")
	ErrInvalidLanguage   = errors.New("unsupported language")
	ErrConnectionClosed  = errors.New("connection closed")
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
	ErrCodeTooLarge      = errors.New("code too large")
)

// represents a websocket message with typed payload
type Message struct {
	Type      string          `json:"type"`
	SessionID string          `json:"session_id,omitempty"`
	ClientID  string          `json:"-"` // internal only, not sent to clients
	UserID    string          `json:"user_id,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// builds a message with the payload marshalled in place
func NewMessage(msgType, sessionID, userID string, payload any) (*Message, error) {
	msg := &Message{
		Type:      msgType,
		SessionID: sessionID,
		UserID:    userID,
		Timestamp: time.Now(),
	}

	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}

		msg.Payload = raw
	}

	return msg, nil
}

// decodes the payload into v
func (m *Message) UnmarshalPayload(v any) error {
	if m.Payload == nil {
		return ErrInvalidMessage
	}

	return json.Unmarshal(m.Payload, v)
}

// sent by a client to join a session
type JoinPayload struct {
	SessionID   string `json:"session_id"`
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
}

// sent by a client when the code buffer changes
type CodeChangePayload struct {
	SessionID string `json:"session_id"`
	Code      string `json:"code"`
	UserID    string `json:"user_id"`
}

// sent by a client to switch the session language
type LanguageChangePayload struct {
	SessionID string `json:"session_id"`
	Language  string `json:"language"`
	UserID    string `json:"user_id"`
}

// full session state, sent only to the joining client
type SessionJoinedPayload struct {
	SessionID string                     `json:"session_id"`
	Code      string                     `json:"code"`
	Language  string                     `json:"language"`
	Users     []sessions.ParticipantInfo `json:"users"`
	UserCount int                        `json:"user_count"`
}

// presence update broadcast to the other clients on join
type UserJoinedPayload struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	UserCount   int    `json:"user_count"`
}

// code update broadcast to every client except the originator
type CodeUpdatePayload struct {
	Code      string `json:"code"`
	UserID    string `json:"user_id"`
	Timestamp int64  `json:"timestamp"` // server time, unix milliseconds
}

// language reset broadcast to every client including the originator
type LanguageUpdatePayload struct {
	Language string `json:"language"`
	Code     string `json:"code"`
	UserID   string `json:"user_id"`
}

// presence update broadcast to the remaining clients on leave
type UserLeftPayload struct {
	UserID    string `json:"user_id"`
	UserCount int    `json:"user_count"`
}

// contains information about server shutdown
type ServerShutdownPayload struct {
	Reason string `json:"reason"`
}

// represents a websocket client connection. A connection exists before it
// joins a session; SessionID stays empty until a join succeeds.
type Client struct {
	// unique identifier for this connection
	ID string

	// session this connection has joined, empty until then
	sessionID string

	// participant identity, set on join
	userID      string
	displayName string

	// websocket connection
	conn *websocket.Conn

	// hub reference for message dispatch
	hub *Hub

	// buffered channel of outbound messages
	send chan []byte

	// mutex for thread-safe operations
	mu sync.RWMutex

	// flag indicating if client is closed
	closed bool

	// rate limiting: code update timestamps (sliding window)
	codeUpdateTimestamps []time.Time
}

// maintains the set of active connections and the session rooms they joined
type Hub struct {
	// all registered connections by connection ID
	clients map[string]*Client

	// room membership: session ID -> connection ID -> client
	rooms map[string]map[string]*Client

	// register requests from new connections
	Register chan *Client

	// unregister requests from closing connections
	Unregister chan *Client

	// inbound messages from connections
	Inbound chan *Message

	// mutex for thread-safe access to clients and rooms
	mu sync.RWMutex

	// message handlers for different message types
	handlers map[string]MessageHandler

	// channel to signal shutdown
	shutdown chan struct{}

	// flag indicating if hub is running
	running bool

	// callback for client disconnect (resolves and removes the participant)
	onClientDisconnect func(hub *Hub, client *Client)
}

// processes a specific message type
type MessageHandler func(hub *Hub, client *Client, msg *Message) error

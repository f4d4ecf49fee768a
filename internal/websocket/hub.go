package websocket

import (
	"time"

	"codeberg.org/codepair/server/internal/logger"
)

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		rooms:      make(map[string]map[string]*Client),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		Inbound:    make(chan *Message, 256),
		handlers:   make(map[string]MessageHandler),
		shutdown:   make(chan struct{}),
	}
}

// registers a handler for a specific message type
func (h *Hub) RegisterHandler(messageType string, handler MessageHandler) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handlers[messageType] = handler
}

// sets the callback invoked after a connection is removed from its room
func (h *Hub) OnClientDisconnect(callback func(hub *Hub, client *Client)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onClientDisconnect = callback
}

// starts the hub's main loop. Messages from one connection always arrive
// through its single read pump, so dispatching them here in order preserves
// per-connection FIFO.
func (h *Hub) Run() {
	h.mu.Lock()
	h.running = true
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		h.running = false
		h.mu.Unlock()
	}()

	for {
		select {
		case client := <-h.Register:
			h.registerClient(client)

		case client := <-h.Unregister:
			h.unregisterClient(client)

		case message := <-h.Inbound:
			h.handleMessage(message)

		case <-h.shutdown:
			h.closeAllConnections()
			return
		}
	}
}

// adds a connection to the hub. Room membership comes later, when the
// client's join message succeeds.
func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client.ID] = client

	logger.Info("client connected", "client_id", client.ID)
}

// removes a connection from the hub and its room, then lets the disconnect
// callback resolve the participant it represented
func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()

	if _, exists := h.clients[client.ID]; !exists {
		h.mu.Unlock()
		return
	}

	delete(h.clients, client.ID)

	callback := h.onClientDisconnect
	sessionID := client.Session()

	if sessionID != "" {
		if room, exists := h.rooms[sessionID]; exists {
			delete(room, client.ID)

			if len(room) == 0 {
				delete(h.rooms, sessionID)
			}
		}
	}

	client.Close()

	logger.Info("client disconnected",
		"client_id", client.ID,
		"session_id", sessionID,
	)

	h.mu.Unlock()

	// resolve the participant outside the lock; the callback broadcasts to
	// the remaining room members
	if callback != nil {
		callback(h, client)
	}
}

// adds a connection to a session room
func (h *Hub) JoinRoom(sessionID string, client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.rooms[sessionID] == nil {
		h.rooms[sessionID] = make(map[string]*Client)
	}

	h.rooms[sessionID][client.ID] = client
	client.setSession(sessionID)
}

// dispatches an incoming message to its registered handler
func (h *Hub) handleMessage(msg *Message) {
	h.mu.RLock()
	sender, senderExists := h.clients[msg.ClientID]
	handler, handlerExists := h.handlers[msg.Type]
	h.mu.RUnlock()

	if !senderExists {
		logger.Warn("sender not found for message",
			"client_id", msg.ClientID,
			"message_type", msg.Type,
		)
		return
	}

	if !handlerExists {
		logger.Warn("unhandled message type received",
			"message_type", msg.Type,
			"client_id", sender.ID,
		)

		sender.SendError("bad_request", "unsupported message type", "message type not recognized")
		return
	}

	if err := handler(h, sender, msg); err != nil {
		logger.ErrorErr(err, "handler error",
			"message_type", msg.Type,
			"client_id", sender.ID,
			"session_id", msg.SessionID,
		)
	}
}

// sends a message to every connection in a room, optionally excluding one
func (h *Hub) BroadcastToRoom(sessionID string, msg *Message, excludeClientID string) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	room, exists := h.rooms[sessionID]
	if !exists {
		return
	}

	for clientID, client := range room {
		if clientID == excludeClientID {
			continue
		}

		if err := client.Send(msg); err != nil {
			logger.ErrorErr(err, "failed to send message to client",
				"client_id", clientID,
				"session_id", sessionID,
			)
		}
	}
}

// returns all connections in a room
func (h *Hub) RoomClients(sessionID string) []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()

	room, exists := h.rooms[sessionID]
	if !exists {
		return []*Client{}
	}

	clients := make([]*Client, 0, len(room))

	for _, client := range room {
		clients = append(clients, client)
	}

	return clients
}

// returns the number of connections in a room
func (h *Hub) RoomSize(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.rooms[sessionID])
}

// returns the total number of connections
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.clients)
}

func (h *Hub) Shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.running {
		h.running = false
		close(h.shutdown)
	}
}

func (h *Hub) closeAllConnections() {
	h.mu.Lock()

	logger.Info("notifying clients of server shutdown")

	for sessionID := range h.rooms {
		shutdownMsg, err := NewMessage(TypeServerShutdown, sessionID, "", ServerShutdownPayload{
			Reason: "server is shutting down",
		})
		if err != nil {
			continue
		}

		for _, client := range h.rooms[sessionID] {
			if err := client.Send(shutdownMsg); err != nil {
				logger.ErrorErr(err, "failed to send shutdown notification",
					"client_id", client.ID,
					"session_id", sessionID,
				)
			}
		}
	}

	h.mu.Unlock()

	// give clients time to receive the shutdown message
	time.Sleep(500 * time.Millisecond)

	h.mu.Lock()
	defer h.mu.Unlock()

	logger.Info("closing all websocket connections")

	for _, client := range h.clients {
		client.Close()
	}

	h.clients = make(map[string]*Client)
	h.rooms = make(map[string]map[string]*Client)
}

package websocket

import (
	"testing"
	"time"

	"codeberg.org/codepair/server/internal/languages"
	"codeberg.org/codepair/server/internal/sessions"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore() *sessions.Store {
	return sessions.NewStore(30*time.Minute, 4*time.Hour)
}

// runs the join handler for a client and fails the test on error
func joinSession(t *testing.T, hub *Hub, store *sessions.Store, client *Client, sessionID, userID, displayName string) {
	t.Helper()

	msg, err := NewMessage(TypeJoin, "", "", JoinPayload{
		SessionID:   sessionID,
		UserID:      userID,
		DisplayName: displayName,
	})
	require.NoError(t, err)

	require.NoError(t, JoinHandler(store)(hub, client, msg))
}

func TestJoinHandlerSessionNotFound(t *testing.T) {
	store := newTestStore()
	hub := NewHub()

	client := newTestClient("client-1", hub)

	msg, err := NewMessage(TypeJoin, "", "", JoinPayload{
		SessionID: "missing",
		UserID:    "u1",
	})
	require.NoError(t, err)

	handlerErr := JoinHandler(store)(hub, client, msg)
	assert.ErrorIs(t, handlerErr, ErrSessionNotFound)

	// the requester alone is notified, no room is joined, no store mutation
	received := receiveMessage(t, client)
	assert.Equal(t, TypeError, received.Type)
	assert.Equal(t, "", client.Session())
	assert.Equal(t, 0, hub.RoomSize("missing"))

	sessionCount, _ := store.Stats()
	assert.Equal(t, 0, sessionCount)
}

func TestJoinHandlerSnapshotAndPresence(t *testing.T) {
	store := newTestStore()
	hub := NewHub()

	session := store.Create(languages.JavaScript)

	client1 := newTestClient("client-1", hub)
	client2 := newTestClient("client-2", hub)

	joinSession(t, hub, store, client1, session.ID, "u1", "Alice")

	// the first joiner receives the snapshot and no presence broadcast
	joined := receiveMessage(t, client1)
	require.Equal(t, TypeSessionJoined, joined.Type)

	var snapshot SessionJoinedPayload
	require.NoError(t, joined.UnmarshalPayload(&snapshot))
	assert.Equal(t, session.ID, snapshot.SessionID)
	assert.Equal(t, languages.Template(languages.JavaScript), snapshot.Code)
	assert.Equal(t, languages.JavaScript, snapshot.Language)
	assert.Equal(t, 1, snapshot.UserCount)
	require.Len(t, snapshot.Users, 1)
	assert.Equal(t, "u1", snapshot.Users[0].ID)

	assertNoMessage(t, client1)

	joinSession(t, hub, store, client2, session.ID, "u2", "Bob")

	// the second joiner gets its snapshot, the first a presence update
	joined2 := receiveMessage(t, client2)
	assert.Equal(t, TypeSessionJoined, joined2.Type)
	assertNoMessage(t, client2)

	presence := receiveMessage(t, client1)
	require.Equal(t, TypeUserJoined, presence.Type)

	var userJoined UserJoinedPayload
	require.NoError(t, presence.UnmarshalPayload(&userJoined))
	assert.Equal(t, "u2", userJoined.UserID)
	assert.Equal(t, "Bob", userJoined.DisplayName)
	assert.Equal(t, 2, userJoined.UserCount)
}

func TestJoinHandlerRejoinDoesNotDuplicate(t *testing.T) {
	store := newTestStore()
	hub := NewHub()

	session := store.Create(languages.JavaScript)

	client1 := newTestClient("client-1", hub)
	client2 := newTestClient("client-2", hub)

	joinSession(t, hub, store, client1, session.ID, "u1", "Alice")

	// same participant id on a fresh connection
	joinSession(t, hub, store, client2, session.ID, "u1", "Alice")

	assert.Equal(t, 1, store.ParticipantCount(session.ID))
	assert.Len(t, store.Participants(session.ID), 1)
}

func TestJoinHandlerRequiresUserID(t *testing.T) {
	store := newTestStore()
	hub := NewHub()

	session := store.Create(languages.JavaScript)
	client := newTestClient("client-1", hub)

	msg, err := NewMessage(TypeJoin, "", "", JoinPayload{SessionID: session.ID})
	require.NoError(t, err)

	handlerErr := JoinHandler(store)(hub, client, msg)
	assert.ErrorIs(t, handlerErr, ErrInvalidMessage)

	received := receiveMessage(t, client)
	assert.Equal(t, TypeError, received.Type)
}

func TestCodeChangeHandlerExcludesSender(t *testing.T) {
	store := newTestStore()
	hub := NewHub()

	session := store.Create(languages.JavaScript)

	client1 := newTestClient("client-1", hub)
	client2 := newTestClient("client-2", hub)

	joinSession(t, hub, store, client1, session.ID, "u1", "Alice")
	joinSession(t, hub, store, client2, session.ID, "u2", "Bob")
	drainMessages(client1)
	drainMessages(client2)

	msg, err := NewMessage(TypeCodeChange, session.ID, "u1", CodeChangePayload{
		SessionID: session.ID,
		Code:      "x = 1",
		UserID:    "u1",
	})
	require.NoError(t, err)

	require.NoError(t, CodeChangeHandler(store)(hub, client1, msg))

	// the store holds the new buffer
	updated, exists := store.Get(session.ID)
	require.True(t, exists)
	assert.Equal(t, "x = 1", updated.Code)

	// the sender receives nothing, the other participant the update
	assertNoMessage(t, client1)

	received := receiveMessage(t, client2)
	require.Equal(t, TypeCodeUpdate, received.Type)

	var payload CodeUpdatePayload
	require.NoError(t, received.UnmarshalPayload(&payload))
	assert.Equal(t, "x = 1", payload.Code)
	assert.Equal(t, "u1", payload.UserID)
	assert.NotZero(t, payload.Timestamp)
}

func TestCodeChangeHandlerSessionNotFound(t *testing.T) {
	store := newTestStore()
	hub := NewHub()

	client := newTestClient("client-1", hub)

	msg, err := NewMessage(TypeCodeChange, "", "u1", CodeChangePayload{
		SessionID: "missing",
		Code:      "x = 1",
		UserID:    "u1",
	})
	require.NoError(t, err)

	handlerErr := CodeChangeHandler(store)(hub, client, msg)
	assert.ErrorIs(t, handlerErr, ErrSessionNotFound)

	received := receiveMessage(t, client)
	assert.Equal(t, TypeError, received.Type)
}

func TestCodeChangeHandlerRejectsOversizedCode(t *testing.T) {
	store := newTestStore()
	hub := NewHub()

	session := store.Create(languages.JavaScript)
	client := newTestClient("client-1", hub)
	joinSession(t, hub, store, client, session.ID, "u1", "Alice")
	drainMessages(client)

	big := make([]byte, maxCodeSize+1)
	for i := range big {
		big[i] = 'a'
	}

	msg, err := NewMessage(TypeCodeChange, session.ID, "u1", CodeChangePayload{
		SessionID: session.ID,
		Code:      string(big),
		UserID:    "u1",
	})
	require.NoError(t, err)

	handlerErr := CodeChangeHandler(store)(hub, client, msg)
	assert.ErrorIs(t, handlerErr, ErrCodeTooLarge)

	// the buffer is untouched
	updated, exists := store.Get(session.ID)
	require.True(t, exists)
	assert.Equal(t, languages.Template(languages.JavaScript), updated.Code)
}

func TestLanguageChangeHandlerIncludesSender(t *testing.T) {
	store := newTestStore()
	hub := NewHub()

	session := store.Create(languages.JavaScript)

	client1 := newTestClient("client-1", hub)
	client2 := newTestClient("client-2", hub)

	joinSession(t, hub, store, client1, session.ID, "u1", "Alice")
	joinSession(t, hub, store, client2, session.ID, "u2", "Bob")
	drainMessages(client1)
	drainMessages(client2)

	msg, err := NewMessage(TypeLanguageChange, session.ID, "u1", LanguageChangePayload{
		SessionID: session.ID,
		Language:  languages.Python,
		UserID:    "u1",
	})
	require.NoError(t, err)

	require.NoError(t, LanguageChangeHandler(store)(hub, client1, msg))

	// every participant, sender included, sees the reset in lockstep
	for _, client := range []*Client{client1, client2} {
		received := receiveMessage(t, client)
		require.Equal(t, TypeLanguageUpdate, received.Type)

		var payload LanguageUpdatePayload
		require.NoError(t, received.UnmarshalPayload(&payload))
		assert.Equal(t, languages.Python, payload.Language)
		assert.Equal(t, languages.Template(languages.Python), payload.Code)
		assert.Equal(t, "u1", payload.UserID)
	}
}

func TestLanguageChangeHandlerRejectsUnknownLanguage(t *testing.T) {
	store := newTestStore()
	hub := NewHub()

	session := store.Create(languages.JavaScript)
	client := newTestClient("client-1", hub)
	joinSession(t, hub, store, client, session.ID, "u1", "Alice")
	drainMessages(client)

	msg, err := NewMessage(TypeLanguageChange, session.ID, "u1", LanguageChangePayload{
		SessionID: session.ID,
		Language:  "rust",
		UserID:    "u1",
	})
	require.NoError(t, err)

	handlerErr := LanguageChangeHandler(store)(hub, client, msg)
	assert.ErrorIs(t, handlerErr, ErrInvalidLanguage)

	// rejected at the boundary, store untouched
	updated, exists := store.Get(session.ID)
	require.True(t, exists)
	assert.Equal(t, languages.JavaScript, updated.Language)
}

func TestDisconnectHandlerRemovesParticipant(t *testing.T) {
	store := newTestStore()
	hub := NewHub()
	go hub.Run()
	defer hub.Shutdown()

	hub.OnClientDisconnect(DisconnectHandler(store))

	session := store.Create(languages.JavaScript)

	client1 := newTestClient("client-1", hub)
	client2 := newTestClient("client-2", hub)

	hub.Register <- client1
	hub.Register <- client2
	time.Sleep(100 * time.Millisecond)

	joinSession(t, hub, store, client1, session.ID, "u1", "Alice")
	joinSession(t, hub, store, client2, session.ID, "u2", "Bob")
	drainMessages(client1)
	drainMessages(client2)

	hub.Unregister <- client2
	time.Sleep(100 * time.Millisecond)

	// the remaining participant sees the departure, the session survives
	received := receiveMessage(t, client1)
	require.Equal(t, TypeUserLeft, received.Type)

	var payload UserLeftPayload
	require.NoError(t, received.UnmarshalPayload(&payload))
	assert.Equal(t, "u2", payload.UserID)
	assert.Equal(t, 1, payload.UserCount)

	assert.True(t, store.Exists(session.ID))
	assert.Equal(t, 1, store.ParticipantCount(session.ID))
}

func TestDisconnectHandlerLastParticipantDeletesSession(t *testing.T) {
	store := newTestStore()
	hub := NewHub()
	go hub.Run()
	defer hub.Shutdown()

	hub.OnClientDisconnect(DisconnectHandler(store))

	session := store.Create(languages.JavaScript)

	client := newTestClient("client-1", hub)

	hub.Register <- client
	time.Sleep(100 * time.Millisecond)

	joinSession(t, hub, store, client, session.ID, "u1", "Alice")

	hub.Unregister <- client
	time.Sleep(100 * time.Millisecond)

	assert.False(t, store.Exists(session.ID))
}

func TestDisconnectHandlerUnjoinedConnectionIsNoOp(t *testing.T) {
	store := newTestStore()
	hub := NewHub()
	go hub.Run()
	defer hub.Shutdown()

	hub.OnClientDisconnect(DisconnectHandler(store))

	session := store.Create(languages.JavaScript)

	client := newTestClient("client-1", hub)

	hub.Register <- client
	time.Sleep(100 * time.Millisecond)

	// never joined a session
	hub.Unregister <- client
	time.Sleep(100 * time.Millisecond)

	assert.True(t, store.Exists(session.ID))
}

// walks the full collaboration flow: create, two joins, a code edit, a
// language switch, and both departures
func TestCollaborationFlow(t *testing.T) {
	store := newTestStore()
	hub := NewHub()
	go hub.Run()
	defer hub.Shutdown()

	hub.OnClientDisconnect(DisconnectHandler(store))

	session := store.Create(languages.JavaScript)
	assert.Equal(t, 0, store.ParticipantCount(session.ID))

	u1 := newTestClient("conn-1", hub)
	u2 := newTestClient("conn-2", hub)

	hub.Register <- u1
	hub.Register <- u2
	time.Sleep(100 * time.Millisecond)

	// u1 joins and receives the default template
	joinSession(t, hub, store, u1, session.ID, "u1", "Alice")

	joined := receiveMessage(t, u1)
	require.Equal(t, TypeSessionJoined, joined.Type)

	var snapshot SessionJoinedPayload
	require.NoError(t, joined.UnmarshalPayload(&snapshot))
	assert.Equal(t, languages.Template(languages.JavaScript), snapshot.Code)
	assert.Equal(t, 1, snapshot.UserCount)

	// u2 joins; u1 sees the presence update
	joinSession(t, hub, store, u2, session.ID, "u2", "Bob")
	drainMessages(u2)

	presence := receiveMessage(t, u1)
	require.Equal(t, TypeUserJoined, presence.Type)

	var userJoined UserJoinedPayload
	require.NoError(t, presence.UnmarshalPayload(&userJoined))
	assert.Equal(t, "u2", userJoined.UserID)
	assert.Equal(t, 2, userJoined.UserCount)

	// u1 edits; u2 receives, u1 does not
	codeMsg, err := NewMessage(TypeCodeChange, session.ID, "u1", CodeChangePayload{
		SessionID: session.ID,
		Code:      "x=1",
		UserID:    "u1",
	})
	require.NoError(t, err)
	require.NoError(t, CodeChangeHandler(store)(hub, u1, codeMsg))

	update := receiveMessage(t, u2)
	require.Equal(t, TypeCodeUpdate, update.Type)

	var codeUpdate CodeUpdatePayload
	require.NoError(t, update.UnmarshalPayload(&codeUpdate))
	assert.Equal(t, "x=1", codeUpdate.Code)
	assert.Equal(t, "u1", codeUpdate.UserID)
	assertNoMessage(t, u1)

	// u1 switches language; both receive the python template
	langMsg, err := NewMessage(TypeLanguageChange, session.ID, "u1", LanguageChangePayload{
		SessionID: session.ID,
		Language:  languages.Python,
		UserID:    "u1",
	})
	require.NoError(t, err)
	require.NoError(t, LanguageChangeHandler(store)(hub, u1, langMsg))

	for _, client := range []*Client{u1, u2} {
		reset := receiveMessage(t, client)
		require.Equal(t, TypeLanguageUpdate, reset.Type)

		var langUpdate LanguageUpdatePayload
		require.NoError(t, reset.UnmarshalPayload(&langUpdate))
		assert.Equal(t, languages.Template(languages.Python), langUpdate.Code)
	}

	// u2 disconnects; u1 notified, session survives
	hub.Unregister <- u2
	time.Sleep(100 * time.Millisecond)

	left := receiveMessage(t, u1)
	require.Equal(t, TypeUserLeft, left.Type)

	var userLeft UserLeftPayload
	require.NoError(t, left.UnmarshalPayload(&userLeft))
	assert.Equal(t, 1, userLeft.UserCount)
	assert.True(t, store.Exists(session.ID))

	// u1 disconnects; the session dies with its last participant
	hub.Unregister <- u1
	time.Sleep(100 * time.Millisecond)

	assert.False(t, store.Exists(session.ID))
}

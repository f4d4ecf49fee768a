package sessions

import (
	"time"

	"codeberg.org/codepair/server/internal/languages"
	"codeberg.org/codepair/server/internal/logger"
	"github.com/google/uuid"
)

// creates a new session store with the given reclamation bounds
func NewStore(idleTimeout, maxAge time.Duration) *Store {
	return &Store{
		sessions:    make(map[string]*Session),
		idleTimeout: idleTimeout,
		maxAge:      maxAge,
	}
}

// creates a session for the given language with its starter template.
// Unknown languages fall back to the default template.
func (s *Store) Create(language string) Session {
	now := time.Now()

	session := &Session{
		ID:           uuid.NewString(),
		CreatedAt:    now,
		LastActivity: now,
		Language:     language,
		Code:         languages.Template(language),
		participants: make(map[string]*Participant),
	}

	s.mu.Lock()
	s.sessions[session.ID] = session
	s.mu.Unlock()

	logger.Info("session created",
		"session_id", session.ID,
		"language", session.Language,
	)

	return snapshot(session)
}

// retrieves a point-in-time copy of a session
func (s *Store) Get(id string) (Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, exists := s.sessions[id]
	if !exists {
		return Session{}, false
	}

	return snapshot(session), true
}

// reports whether a session exists
func (s *Store) Exists(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, exists := s.sessions[id]
	return exists
}

// updates the last activity time; no-op if the session is absent
func (s *Store) Touch(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if session, exists := s.sessions[id]; exists {
		session.LastActivity = time.Now()
	}
}

// replaces the code buffer verbatim. Callers racing each other are applied
// in arrival order; the last write wins.
func (s *Store) SetCode(id, code string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, exists := s.sessions[id]
	if !exists {
		return
	}

	session.Code = code
	session.LastActivity = time.Now()
}

// replaces the language and resets the buffer to that language's starter
// template. This is a deliberate reset, not a merge: in-progress edits are
// discarded for all participants at once.
func (s *Store) SetLanguage(id, language string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, exists := s.sessions[id]
	if !exists {
		return
	}

	session.Language = language
	session.Code = languages.Template(language)
	session.LastActivity = time.Now()
}

// inserts or replaces the participant entry for its ID. A re-join with the
// same participant ID on a new connection supersedes the old mapping.
func (s *Store) AddParticipant(id string, p Participant) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, exists := s.sessions[id]
	if !exists {
		return
	}

	entry := p
	session.participants[p.ID] = &entry
	session.LastActivity = time.Now()

	logger.Info("participant joined session",
		"session_id", id,
		"user_id", p.ID,
	)
}

// deletes the participant entry. A session must not outlive its last
// participant: when the set becomes empty the session is deleted too.
func (s *Store) RemoveParticipant(id, participantID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, exists := s.sessions[id]
	if !exists {
		return
	}

	delete(session.participants, participantID)
	session.LastActivity = time.Now()

	logger.Info("participant left session",
		"session_id", id,
		"user_id", participantID,
	)

	if len(session.participants) == 0 {
		delete(s.sessions, id)

		logger.Info("session has no more participants, deleted",
			"session_id", id,
		)
	}
}

// returns the number of participants in a session
func (s *Store) ParticipantCount(id string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, exists := s.sessions[id]
	if !exists {
		return 0
	}

	return len(session.participants)
}

// lists the participants of a session, connection IDs excluded
func (s *Store) Participants(id string) []ParticipantInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, exists := s.sessions[id]
	if !exists {
		return []ParticipantInfo{}
	}

	infos := make([]ParticipantInfo, 0, len(session.participants))

	for _, p := range session.participants {
		infos = append(infos, ParticipantInfo{
			ID:          p.ID,
			DisplayName: p.DisplayName,
		})
	}

	return infos
}

// locates the participant currently represented by a connection. Connections
// that never joined a session yield no match. At most one participant maps to
// a connection; the scan stops at the first match.
func (s *Store) FindByConnection(connectionID string) (sessionID, participantID string, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for sid, session := range s.sessions {
		for pid, p := range session.participants {
			if p.ConnectionID == connectionID {
				return sid, pid, true
			}
		}
	}

	return "", "", false
}

// removes a session unconditionally
func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sessions[id]; exists {
		delete(s.sessions, id)
		logger.Info("session deleted", "session_id", id)
	}
}

// returns the aggregate session and participant counts
func (s *Store) Stats() (sessionCount, participantCount int) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, session := range s.sessions {
		participantCount += len(session.participants)
	}

	return len(s.sessions), participantCount
}

// runs a single reclamation pass and returns the number of sessions deleted
func (s *Store) Cleanup() int {
	return s.cleanupAt(time.Now())
}

// deletes sessions idle past the idle timeout or older than the absolute age
// cap. The age cap guarantees termination even under continuous activity.
func (s *Store) cleanupAt(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	reclaimed := 0

	for id, session := range s.sessions {
		idle := now.Sub(session.LastActivity)
		age := now.Sub(session.CreatedAt)

		if idle > s.idleTimeout || age > s.maxAge {
			delete(s.sessions, id)
			reclaimed++

			logger.Info("stale session reclaimed",
				"session_id", id,
				"idle", idle,
				"age", age,
			)
		}
	}

	return reclaimed
}

// copies the exported fields of a session; the participant map stays owned
// by the store
func snapshot(session *Session) Session {
	return Session{
		ID:           session.ID,
		CreatedAt:    session.CreatedAt,
		LastActivity: session.LastActivity,
		Language:     session.Language,
		Code:         session.Code,
	}
}

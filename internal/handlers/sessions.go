package handlers

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"crowd-router/internal/engine"
	"crowd-router/internal/metrics"
	"crowd-router/internal/models"
)

// Session is one independent crowd map with its own engine
type Session struct {
	ID         string
	Engine     *engine.Engine
	CreatedAt  time.Time
	LastResult *models.RouteResult
	mu         sync.Mutex // Protects LastResult
}

// SetResult stores the latest calculation for later manual selection
func (s *Session) SetResult(result *models.RouteResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.LastResult = result
}

// Result returns the latest calculation, or nil
func (s *Session) Result() *models.RouteResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.LastResult
}

// SessionStore manages engine sessions in memory
type SessionStore struct {
	sessions  map[string]*Session
	newEngine func() *engine.Engine
	mu        sync.RWMutex
}

// NewSessionStore creates a session store; newEngine builds the engine for each session
func NewSessionStore(newEngine func() *engine.Engine) *SessionStore {
	return &SessionStore{
		sessions:  make(map[string]*Session),
		newEngine: newEngine,
	}
}

func (s *SessionStore) Create() *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	session := &Session{
		ID:        uuid.NewString(),
		Engine:    s.newEngine(),
		CreatedAt: time.Now(),
	}

	s.sessions[session.ID] = session
	metrics.ActiveSessions.Inc()
	log.Printf("[SESSION] Created session: id=%s", session.ID)
	return session
}

func (s *SessionStore) Get(id string) *Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessions[id]
}

// Delete closes and removes a session. Returns false if it doesn't exist.
func (s *SessionStore) Delete(id string) bool {
	s.mu.Lock()
	session, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()

	if !ok {
		return false
	}
	session.Engine.Close()
	metrics.ActiveSessions.Dec()
	log.Printf("[SESSION] Deleted session: id=%s", id)
	return true
}

func (s *SessionStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// CloseAll disposes every session
func (s *SessionStore) CloseAll() {
	s.mu.Lock()
	sessions := s.sessions
	s.sessions = make(map[string]*Session)
	s.mu.Unlock()

	for _, session := range sessions {
		session.Engine.Close()
		metrics.ActiveSessions.Dec()
	}
	log.Printf("[SESSION] Closed %d sessions", len(sessions))
}

// SessionResponse is returned when a session is created
type SessionResponse struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
}

// HandleCreateSession handles POST /api/v1/sessions
func (h *Handler) HandleCreateSession(w http.ResponseWriter, r *http.Request) {
	session := h.Sessions.Create()
	h.writeJSON(w, http.StatusCreated, SessionResponse{
		ID:        session.ID,
		CreatedAt: session.CreatedAt,
	})
}

// HandleDeleteSession handles DELETE /api/v1/sessions/{id}
func (h *Handler) HandleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if !h.Sessions.Delete(id) {
		h.handleNotFound(w, "Session not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

package handlers

import (
	"sync"
	"testing"

	"crowd-router/internal/engine"
	"crowd-router/internal/models"
	"crowd-router/internal/testutil"
)

func newTestSessionStore() *SessionStore {
	provider := testutil.NewMockRouteProvider()
	return NewSessionStore(func() *engine.Engine { return engine.New(provider) })
}

func TestSessionStore_CreateAndGet(t *testing.T) {
	store := newTestSessionStore()
	defer store.CloseAll()

	session := store.Create()
	if session.ID == "" {
		t.Fatal("expected a session id")
	}
	if session.Engine == nil {
		t.Fatal("expected session engine")
	}

	got := store.Get(session.ID)
	if got != session {
		t.Errorf("Get returned a different session")
	}
	if store.Get("missing") != nil {
		t.Errorf("expected nil for unknown id")
	}
	if store.Count() != 1 {
		t.Errorf("expected 1 session, got %d", store.Count())
	}
}

func TestSessionStore_DeleteClosesEngine(t *testing.T) {
	store := newTestSessionStore()
	session := store.Create()

	if !store.Delete(session.ID) {
		t.Fatal("expected delete to succeed")
	}
	if store.Delete(session.ID) {
		t.Error("second delete should report missing session")
	}
	if _, err := session.Engine.Zones(); err != engine.ErrClosed {
		t.Errorf("expected ErrClosed after delete, got %v", err)
	}
}

func TestSessionStore_CloseAll(t *testing.T) {
	store := newTestSessionStore()
	a := store.Create()
	b := store.Create()

	store.CloseAll()

	if store.Count() != 0 {
		t.Errorf("expected no sessions, got %d", store.Count())
	}
	for _, s := range []*Session{a, b} {
		if _, err := s.Engine.PopulatedAreas(); err != engine.ErrClosed {
			t.Errorf("session %s: expected ErrClosed, got %v", s.ID, err)
		}
	}
}

func TestSessionStore_ConcurrentAccess(t *testing.T) {
	store := newTestSessionStore()
	defer store.CloseAll()

	session := store.Create()
	sessionID := session.ID

	var wg sync.WaitGroup
	numGoroutines := 100

	// Concurrent reads
	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s := store.Get(sessionID)
			if s == nil {
				t.Error("expected session to exist")
			}
		}()
	}

	// Concurrent crowd updates and result writes
	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s := store.Get(sessionID)
			if _, err := s.Engine.AddPerson(23.1821, 75.7890, 1); err != nil {
				t.Errorf("AddPerson: %v", err)
			}
			s.SetResult(&models.RouteResult{})
			_ = s.Result()
		}(i)
	}

	// Sessions created alongside
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			store.Create()
		}()
	}

	wg.Wait()

	pop, err := session.Engine.Population(23.1821, 75.7890)
	if err != nil {
		t.Fatalf("Population: %v", err)
	}
	if pop != numGoroutines {
		t.Errorf("expected population %d, got %d", numGoroutines, pop)
	}
	if store.Count() != 11 {
		t.Errorf("expected 11 sessions, got %d", store.Count())
	}
}

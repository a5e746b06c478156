package auth

import (
	"sync"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *SessionStore {
	t.Helper()
	s := NewSessionStore()
	t.Cleanup(s.Stop)
	return s
}

func TestSessionStoreCreateAndGet(t *testing.T) {
	store := newTestStore(t)

	session, err := store.Create(UserProfile{Login: "octocat", Name: "The Octocat"}, "gho_token")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if session.ID == "" {
		t.Fatal("Create() returned empty session ID")
	}
	if len(session.ID) != sessionIDBytes*2 {
		t.Errorf("session ID length = %d, want %d hex chars", len(session.ID), sessionIDBytes*2)
	}
	if !session.ExpiresAt.After(session.CreatedAt) {
		t.Error("ExpiresAt should be after CreatedAt")
	}

	got, err := store.Get(session.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Profile.Login != "octocat" {
		t.Errorf("Profile.Login = %s, want octocat", got.Profile.Login)
	}
	if got.AccessToken != "gho_token" {
		t.Errorf("AccessToken = %s, want gho_token", got.AccessToken)
	}
}

func TestSessionStoreGetUnknown(t *testing.T) {
	store := newTestStore(t)

	if _, err := store.Get("no-such-session"); err != ErrSessionNotFound {
		t.Errorf("Get() error = %v, want ErrSessionNotFound", err)
	}
}

func TestSessionStoreLogicalExpiry(t *testing.T) {
	store := newTestStore(t)

	session, err := store.Create(UserProfile{Login: "octocat"}, "tok")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	// Force expiry without waiting for the TTL.
	store.mu.Lock()
	store.sessions[session.ID].ExpiresAt = time.Now().Add(-time.Second)
	store.mu.Unlock()

	if _, err := store.Get(session.ID); err != ErrSessionNotFound {
		t.Errorf("Get() after expiry error = %v, want ErrSessionNotFound", err)
	}

	// The entry is only logically deleted until a sweep runs.
	if store.Count() != 1 {
		t.Errorf("Count() = %d, want 1 before sweep", store.Count())
	}
	if removed := store.Sweep(); removed != 1 {
		t.Errorf("Sweep() = %d, want 1", removed)
	}
	if store.Count() != 0 {
		t.Errorf("Count() = %d, want 0 after sweep", store.Count())
	}
}

func TestSessionStoreInvalidateIdempotent(t *testing.T) {
	store := newTestStore(t)

	session, err := store.Create(UserProfile{Login: "octocat"}, "tok")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	store.Invalidate(session.ID)
	if _, err := store.Get(session.ID); err != ErrSessionNotFound {
		t.Errorf("Get() after Invalidate error = %v, want ErrSessionNotFound", err)
	}

	// A second invalidation of the same session must not panic or error.
	store.Invalidate(session.ID)
	store.Invalidate("never-existed")
}

func TestSessionStoreConcurrentCreateUniqueIDs(t *testing.T) {
	store := newTestStore(t)

	const n = 100
	ids := make(chan string, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			session, err := store.Create(UserProfile{Login: "user"}, "tok")
			if err != nil {
				t.Errorf("Create() error = %v", err)
				return
			}
			ids <- session.ID
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[string]bool)
	for id := range ids {
		if seen[id] {
			t.Fatalf("duplicate session ID generated: %s", id)
		}
		seen[id] = true
	}
	if len(seen) != n {
		t.Errorf("created %d unique sessions, want %d", len(seen), n)
	}
}

func TestSessionStoreCustomTTL(t *testing.T) {
	store := NewSessionStoreWithLogger(time.Hour, nil)
	defer store.Stop()

	session, err := store.Create(UserProfile{Login: "octocat"}, "tok")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	ttl := session.ExpiresAt.Sub(session.CreatedAt)
	if ttl != time.Hour {
		t.Errorf("session TTL = %v, want 1h", ttl)
	}
}

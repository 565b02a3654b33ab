package session

import (
	"testing"
	"time"
)

func TestManagerPutGetDelete(t *testing.T) {
	m := NewManager(time.Hour)

	s := New(NewID(), nil, nil)
	m.Put(s)

	got, ok := m.Get(s.ID)
	if !ok || got != s {
		t.Fatalf("expected to get session back")
	}
	if m.Len() != 1 {
		t.Fatalf("expected 1 session, got %d", m.Len())
	}

	if !m.Delete(s.ID) {
		t.Fatalf("delete reported missing session")
	}
	if _, ok := m.Get(s.ID); ok {
		t.Fatalf("session survived delete")
	}
	if m.Delete(s.ID) {
		t.Fatalf("second delete should report missing")
	}
}

func TestManagerPutReplacesSameID(t *testing.T) {
	m := NewManager(time.Hour)

	a := New("fixed", nil, nil)
	b := New("fixed", nil, nil)
	m.Put(a)
	m.Put(b)

	got, _ := m.Get("fixed")
	if got != b {
		t.Fatalf("expected replacement session")
	}
	if m.Len() != 1 {
		t.Fatalf("expected 1 session, got %d", m.Len())
	}
}

func TestManagerSweep(t *testing.T) {
	m := NewManager(time.Minute)

	stale := New(NewID(), nil, nil)
	fresh := New(NewID(), nil, nil)
	m.Put(stale)
	m.Put(fresh)

	stale.mu.Lock()
	stale.lastUsed = time.Now().Add(-10 * time.Minute)
	stale.mu.Unlock()

	if n := m.Sweep(time.Now()); n != 1 {
		t.Fatalf("expected 1 reaped session, got %d", n)
	}
	if _, ok := m.Get(stale.ID); ok {
		t.Fatalf("stale session survived sweep")
	}
	if _, ok := m.Get(fresh.ID); !ok {
		t.Fatalf("fresh session was reaped")
	}
}

func TestManagerSweepDisabled(t *testing.T) {
	m := NewManager(0)
	s := New(NewID(), nil, nil)
	m.Put(s)

	s.mu.Lock()
	s.lastUsed = time.Now().Add(-24 * time.Hour)
	s.mu.Unlock()

	if n := m.Sweep(time.Now()); n != 0 {
		t.Fatalf("zero TTL must disable reaping, reaped %d", n)
	}
}

func TestNewIDUnique(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id := NewID()
		if len(id) != 32 {
			t.Fatalf("unexpected id length %d", len(id))
		}
		if seen[id] {
			t.Fatalf("duplicate id %s", id)
		}
		seen[id] = true
	}
}

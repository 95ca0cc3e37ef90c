package session

import (
	"testing"
	"time"
)

func TestManager(t *testing.T) {
	t.Run("subscribe sees current value immediately", func(t *testing.T) {
		m := NewManager()
		m.Observe(&Session{UserID: "u1", Token: "t1"})

		var seen []*Session
		unsubscribe := m.Subscribe(func(s *Session) { seen = append(seen, s) })
		defer unsubscribe()

		if len(seen) != 1 || seen[0] == nil || seen[0].UserID != "u1" {
			t.Fatalf("expected immediate callback with u1, got %+v", seen)
		}
	})

	t.Run("observe notifies until unsubscribed", func(t *testing.T) {
		m := NewManager()
		calls := 0
		unsubscribe := m.Subscribe(func(*Session) { calls++ })

		m.Observe(&Session{UserID: "u1"})
		m.Observe(nil)
		if calls != 3 {
			t.Fatalf("expected 3 calls, got %d", calls)
		}

		unsubscribe()
		unsubscribe()
		m.Observe(&Session{UserID: "u2"})
		if calls != 3 {
			t.Fatalf("expected no calls after unsubscribe, got %d", calls)
		}
	})

	t.Run("current is a copy", func(t *testing.T) {
		m := NewManager()
		original := &Session{UserID: "u1"}
		m.Observe(original)
		original.UserID = "mutated"

		got := m.Current()
		if got.UserID != "u1" {
			t.Fatalf("expected stored copy, got %q", got.UserID)
		}
		got.UserID = "also-mutated"
		if m.Current().UserID != "u1" {
			t.Fatalf("Current must not expose internal state")
		}
	})

	t.Run("sign out clears current", func(t *testing.T) {
		m := NewManager()
		m.Observe(&Session{UserID: "u1"})
		m.Observe(nil)
		if m.Current() != nil {
			t.Fatalf("expected no session after sign out")
		}
	})

	t.Run("subscribers run in registration order", func(t *testing.T) {
		m := NewManager()
		var order []int
		for i := 0; i < 5; i++ {
			i := i
			m.Subscribe(func(*Session) { order = append(order, i) })
		}
		order = nil
		m.Observe(&Session{UserID: "u1"})
		for i, v := range order {
			if v != i {
				t.Fatalf("expected registration order, got %v", order)
			}
		}
	})
}

func TestSessionExpired(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	var missing *Session
	if !missing.Expired(now) {
		t.Errorf("nil session should read as expired")
	}
	if (&Session{}).Expired(now) {
		t.Errorf("session without expiry should not expire")
	}
	if !(&Session{ExpiresAt: now}).Expired(now) {
		t.Errorf("session expiring now should be expired")
	}
	if (&Session{ExpiresAt: now.Add(time.Minute)}).Expired(now) {
		t.Errorf("future expiry should not be expired")
	}
}

package session

import (
	"sort"
	"sync"
	"time"

	"github.com/learntrack/backend/internal/models"
)

// Session is the signed-in state a client holds after the identity
// provider callback completes.
type Session struct {
	Token       string          `json:"token"`
	UserID      string          `json:"userID"`
	Email       string          `json:"email"`
	DisplayName string          `json:"displayName"`
	Role        models.UserRole `json:"role"`
	ExpiresAt   time.Time       `json:"expiresAt"`
	Remember    bool            `json:"remember"`
}

func (s *Session) Expired(now time.Time) bool {
	return s == nil || (!s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt))
}

// Manager holds the one current session of a process. Observe is the only
// writer; everything else reads through Current or a subscription.
type Manager struct {
	mu          sync.RWMutex
	current     *Session
	subscribers map[int]func(*Session)
	nextID      int
}

func NewManager() *Manager {
	return &Manager{subscribers: map[int]func(*Session){}}
}

// Default is the process-wide manager.
var Default = NewManager()

func (m *Manager) Current() *Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil {
		return nil
	}
	copied := *m.current
	return &copied
}

// Observe records the session reported by the identity provider callback.
// A nil session means signed out. Subscribers run after the lock is
// released, in registration order.
func (m *Manager) Observe(s *Session) {
	var next *Session
	if s != nil {
		copied := *s
		next = &copied
	}

	m.mu.Lock()
	m.current = next
	subs := m.snapshotLocked()
	m.mu.Unlock()

	for _, fn := range subs {
		fn(m.Current())
	}
}

// Subscribe calls fn with the current session right away and again on
// every change. The returned func removes the subscription.
func (m *Manager) Subscribe(fn func(*Session)) func() {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.subscribers[id] = fn
	m.mu.Unlock()

	fn(m.Current())

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.subscribers, id)
			m.mu.Unlock()
		})
	}
}

func (m *Manager) snapshotLocked() []func(*Session) {
	ids := make([]int, 0, len(m.subscribers))
	for id := range m.subscribers {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	out := make([]func(*Session), 0, len(ids))
	for _, id := range ids {
		out = append(out, m.subscribers[id])
	}
	return out
}

package state

import (
	"strconv"
	"sync"
	"time"

	"github.com/futig/template-chat/internal/entity"
	"github.com/patrickmn/go-cache"
)

// Session links a Telegram user to a conversation. Refinement is the
// focus picked from the keyboard for the user's next message.
type Session struct {
	ConversationID string
	Refinement     entity.RefinementType
}

// Manager keeps per-user sessions in memory; they expire together with
// the conversations they point at.
type Manager struct {
	mu       sync.Mutex
	sessions *cache.Cache
}

func NewManager(ttl, cleanupInterval time.Duration) *Manager {
	return &Manager{sessions: cache.New(ttl, cleanupInterval)}
}

func (m *Manager) Get(userID int64) (Session, bool) {
	item, found := m.sessions.Get(key(userID))
	if !found {
		return Session{}, false
	}
	return item.(Session), true
}

func (m *Manager) Set(userID int64, s Session) {
	m.sessions.SetDefault(key(userID), s)
}

// SetRefinement reports false when the user has no session.
func (m *Manager) SetRefinement(userID int64, r entity.RefinementType) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.Get(userID)
	if !ok {
		return false
	}
	s.Refinement = r
	m.Set(userID, s)
	return true
}

// TakeRefinement returns the pending refinement and clears it.
func (m *Manager) TakeRefinement(userID int64) entity.RefinementType {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.Get(userID)
	if !ok || s.Refinement == entity.RefinementNone {
		return entity.RefinementNone
	}
	r := s.Refinement
	s.Refinement = entity.RefinementNone
	m.Set(userID, s)
	return r
}

func (m *Manager) Delete(userID int64) {
	m.sessions.Delete(key(userID))
}

func key(userID int64) string {
	return strconv.FormatInt(userID, 10)
}

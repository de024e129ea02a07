// Package sessions tracks live ad-hoc games. The store is created and owned
// by the calling layer (bot, API server) and injected where needed; nothing
// here is a process-wide singleton, and tournament state never lives here.
package sessions

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Session is one live game between two competitors, outside any tournament.
type Session struct {
	ID        string    `json:"id"`
	Player1ID int       `json:"player1_id"`
	Player2ID int       `json:"player2_id"`
	Rated     bool      `json:"rated"`
	FEN       string    `json:"fen"`
	StartedAt time.Time `json:"started_at"`
}

type Store interface {
	Create(player1ID, player2ID int, rated bool, startFEN string) *Session
	Get(id string) (*Session, bool)
	SetPosition(id, fen string) bool
	Delete(id string)
	List() []*Session
}

type memoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewMemoryStore() Store {
	return &memoryStore{sessions: make(map[string]*Session)}
}

func (s *memoryStore) Create(player1ID, player2ID int, rated bool, startFEN string) *Session {
	session := &Session{
		ID:        uuid.NewString(),
		Player1ID: player1ID,
		Player2ID: player2ID,
		Rated:     rated,
		FEN:       startFEN,
		StartedAt: time.Now(),
	}
	s.mu.Lock()
	s.sessions[session.ID] = session
	s.mu.Unlock()
	return session
}

func (s *memoryStore) Get(id string) (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	copied := *session
	return &copied, true
}

func (s *memoryStore) SetPosition(id, fen string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[id]
	if !ok {
		return false
	}
	session.FEN = fen
	return true
}

func (s *memoryStore) Delete(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

func (s *memoryStore) List() []*Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Session, 0, len(s.sessions))
	for _, session := range s.sessions {
		copied := *session
		out = append(out, &copied)
	}
	return out
}

package session

import "sync"

// Store keeps the per-user chat session state: whether the user has been asked
// for a promo code, and the id of their most recent payment intent. Entries
// live for the process lifetime and are never deleted.
type Store struct {
	mu            sync.RWMutex
	awaitingPromo map[int64]bool
	lastPayment   map[int64]string
}

func NewStore() *Store {
	return &Store{
		awaitingPromo: make(map[int64]bool),
		lastPayment:   make(map[int64]string),
	}
}

func (s *Store) SetAwaitingPromo(userID int64, awaiting bool) {
	s.mu.Lock()
	s.awaitingPromo[userID] = awaiting
	s.mu.Unlock()
}

func (s *Store) AwaitingPromo(userID int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.awaitingPromo[userID]
}

// SetLastPayment overwrites the user's tracked payment id; only the newest
// intent is ever referenced by a status check.
func (s *Store) SetLastPayment(userID int64, paymentID string) {
	s.mu.Lock()
	s.lastPayment[userID] = paymentID
	s.mu.Unlock()
}

func (s *Store) LastPayment(userID int64) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.lastPayment[userID]
	return id, ok
}

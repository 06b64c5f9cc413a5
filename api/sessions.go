package api

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/semanticallynull/chargebooking-backend/booking"
	"github.com/semanticallynull/chargebooking-backend/payment"
)

// session is one customer's wizard and, once submitted, its checkout.
type session struct {
	id    uuid.UUID
	owner string

	mu       sync.Mutex
	wizard   *booking.Wizard
	checkout *payment.Checkout
	lastSeen time.Time
}

// Sessions is the in-memory session store. Nothing survives a restart.
type Sessions struct {
	mu   sync.Mutex
	byID map[uuid.UUID]*session
	now  func() time.Time
}

func NewSessions(now func() time.Time) *Sessions {
	return &Sessions{byID: map[uuid.UUID]*session{}, now: now}
}

func (s *Sessions) create(owner string) *session {
	sess := &session{
		id:       uuid.New(),
		owner:    owner,
		wizard:   booking.NewWizard(s.now),
		lastSeen: s.now(),
	}
	s.mu.Lock()
	s.byID[sess.id] = sess
	s.mu.Unlock()
	return sess
}

// get returns the session if it exists and belongs to owner.
func (s *Sessions) get(id uuid.UUID, owner string) (*session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.byID[id]
	if !ok || sess.owner != owner {
		return nil, false
	}
	sess.lastSeen = s.now()
	return sess, true
}

// Len reports the number of live sessions.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byID)
}

// Expire drops sessions idle for longer than ttl, except those with a
// payment pending, and returns how many were removed.
func (s *Sessions) Expire(ttl time.Duration) int {
	cutoff := s.now().Add(-ttl)
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, sess := range s.byID {
		if !sess.lastSeen.Before(cutoff) {
			continue
		}
		sess.mu.Lock()
		paying := sess.checkout != nil && sess.checkout.Paying()
		sess.mu.Unlock()
		if paying {
			continue
		}
		delete(s.byID, id)
		n++
	}
	return n
}

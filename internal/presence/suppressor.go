package presence

import "sync"

// Suppressor gates emission on structural difference from the last
// emitted payload. A source switch or major state change must call
// Reset so the next build always emits, even if it happens to be
// textually identical to a stale payload.
type Suppressor struct {
	mu   sync.Mutex
	last *Payload
}

func NewSuppressor() *Suppressor {
	return &Suppressor{}
}

// ShouldEmit reports whether candidate differs from the last emitted
// payload and, if so, records it as the new last.
func (s *Suppressor) ShouldEmit(candidate Payload) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.last != nil && s.last.Equal(candidate) {
		return false
	}
	c := candidate
	s.last = &c
	return true
}

// Reset forgets the last emitted payload.
func (s *Suppressor) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = nil
}

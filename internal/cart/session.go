package cart

import "sync"

// Session owns one shopper's cart. Requests for the same shopper apply their
// actions one at a time.
type Session struct {
	mu    sync.Mutex
	state State
}

func NewSession() *Session {
	return &Session{state: Empty()}
}

// Apply reduces the session's state with a and returns the new state.
func (s *Session) Apply(a Action) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = Reduce(s.state, a)
	return s.state
}

// Update runs fn against the current state under the session lock. If fn
// returns a non-nil action it is applied.
func (s *Session) Update(fn func(State) (Action, error)) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, err := fn(s.state)
	if err != nil || a == nil {
		return s.state, err
	}
	s.state = Reduce(s.state, a)
	return s.state, nil
}

func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Sessions is the process-wide registry of carts keyed by user id. Carts are
// kept in memory only.
type Sessions struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewSessions() *Sessions {
	return &Sessions{sessions: make(map[string]*Session)}
}

// Get returns the session for userID, creating an empty one on first use.
// Only intents that can grow a cart should call it.
func (r *Sessions) Get(userID string) *Session {
	r.mu.RLock()
	s, ok := r.sessions[userID]
	r.mu.RUnlock()
	if ok {
		return s
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok = r.sessions[userID]; ok {
		return s
	}
	s = NewSession()
	r.sessions[userID] = s
	return s
}

// Lookup returns the session for userID without creating one.
func (r *Sessions) Lookup(userID string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[userID]
	return s, ok
}

// Peek returns the current cart of userID, or an empty cart if the user has
// never added anything.
func (r *Sessions) Peek(userID string) State {
	s, ok := r.Lookup(userID)
	if !ok {
		return Empty()
	}
	return s.Snapshot()
}

func (r *Sessions) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

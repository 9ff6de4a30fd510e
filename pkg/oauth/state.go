package oauth

import (
	"sync"
	"time"
)

// DefaultStateTTL is how long a flow-state record remains valid after the
// authorization URL is generated.
const DefaultStateTTL = 10 * time.Minute

// FlowState is the ephemeral record correlating a state value to the PKCE
// verifier, nonce, provider, and callback URL of one in-progress sign-in.
type FlowState struct {
	State               string
	Nonce               string
	CodeVerifier        string
	CodeChallenge       string
	CodeChallengeMethod string
	ProviderID          string
	CallbackURL         string
	CreatedAt           time.Time
}

// StateStore persists flow-state records keyed by their state value.
// Implementations must be safe for concurrent use.
type StateStore interface {
	// Put stores a flow-state record.
	Put(fs *FlowState) error

	// Get returns the record for state, or nil if absent.
	Get(state string) (*FlowState, error)

	// Consume atomically returns and deletes the record for state, or
	// nil if absent.
	Consume(state string) (*FlowState, error)

	// Delete removes the record for state. Deleting an absent record is
	// not an error.
	Delete(state string) error

	// Sweep removes every record older than the TTL and returns the
	// number removed. Idempotent.
	Sweep() int

	// Reset removes all records. Intended for test isolation and
	// teardown.
	Reset()
}

// memoryStateStore is the in-memory StateStore. It is single-instance
// only; distributed deployments need a shared keyed store with TTL
// support instead.
type memoryStateStore struct {
	mu      sync.RWMutex
	states  map[string]*FlowState
	ttl     time.Duration
	now     func() time.Time
	cleanup *time.Ticker
	done    chan struct{}
	once    sync.Once
}

// NewMemoryStateStore creates an in-memory flow-state store with the given
// TTL. Values <= 0 use DefaultStateTTL. A background sweeper runs twice
// per TTL period; call Close to stop it.
func NewMemoryStateStore(ttl time.Duration) *memoryStateStore {
	if ttl <= 0 {
		ttl = DefaultStateTTL
	}

	s := &memoryStateStore{
		states:  make(map[string]*FlowState),
		ttl:     ttl,
		now:     time.Now,
		cleanup: time.NewTicker(ttl / 2),
		done:    make(chan struct{}),
	}

	go s.sweepLoop()

	return s
}

func (s *memoryStateStore) Put(fs *FlowState) error {
	if fs == nil || fs.State == "" {
		return configError("flow state requires a state value")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[fs.State] = fs
	return nil
}

func (s *memoryStateStore) Get(state string) (*FlowState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.states[state], nil
}

func (s *memoryStateStore) Consume(state string) (*FlowState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fs, ok := s.states[state]
	if !ok {
		return nil, nil
	}
	delete(s.states, state)
	return fs, nil
}

func (s *memoryStateStore) Delete(state string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, state)
	return nil
}

func (s *memoryStateStore) Sweep() int {
	cutoff := s.now().Add(-s.ttl)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for state, fs := range s.states {
		if fs.CreatedAt.Before(cutoff) {
			delete(s.states, state)
			removed++
		}
	}
	return removed
}

func (s *memoryStateStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states = make(map[string]*FlowState)
}

// Count returns the number of stored records (for testing).
func (s *memoryStateStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.states)
}

func (s *memoryStateStore) sweepLoop() {
	for {
		select {
		case <-s.cleanup.C:
			s.Sweep()
		case <-s.done:
			return
		}
	}
}

// Close stops the background sweeper.
func (s *memoryStateStore) Close() {
	s.once.Do(func() {
		s.cleanup.Stop()
		close(s.done)
	})
}

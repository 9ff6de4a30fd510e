package oauth

import (
	"crypto/tls"
	"sync"
	"time"

	"github.com/MicahParks/keyfunc/v3"
)

// EngineConfig configures a flow Engine.
type EngineConfig struct {
	// States is the flow-state store. Defaults to an in-memory store
	// with DefaultStateTTL.
	States StateStore

	// StateTTL is the flow-state lifetime. Values <= 0 use
	// DefaultStateTTL.
	StateTTL time.Duration

	// HTTPClient overrides the default HTTP client, mainly for tests.
	HTTPClient HTTPClient

	// Timeout bounds outbound provider calls. Values <= 0 use
	// DefaultTimeout.
	Timeout time.Duration

	// TLSConfig allows custom TLS configuration for provider calls.
	TLSConfig *tls.Config
}

// Engine drives the OAuth authorization code flow: authorization request
// generation, state validation, token exchange, and profile retrieval.
// It is safe for concurrent use.
type Engine struct {
	states     StateStore
	stateTTL   time.Duration
	httpClient HTTPClient
	now        func() time.Time

	jwksMu sync.RWMutex
	jwks   map[string]keyfunc.Keyfunc

	// ownedStates is set when the engine created its own store and is
	// responsible for stopping its sweeper.
	ownedStates *memoryStateStore
}

// NewEngine creates a flow engine. A nil config uses defaults throughout.
func NewEngine(config *EngineConfig) *Engine {
	if config == nil {
		config = &EngineConfig{}
	}

	ttl := config.StateTTL
	if ttl <= 0 {
		ttl = DefaultStateTTL
	}

	states := config.States
	var owned *memoryStateStore
	if states == nil {
		owned = NewMemoryStateStore(ttl)
		states = owned
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = newDefaultHTTPClient(config.Timeout, config.TLSConfig)
	}

	return &Engine{
		states:      states,
		stateTTL:    ttl,
		httpClient:  httpClient,
		now:         time.Now,
		jwks:        make(map[string]keyfunc.Keyfunc),
		ownedStates: owned,
	}
}

// SweepStates removes expired flow-state records and returns the number
// removed. Idempotent; safe to call on any schedule or on-demand before a
// validation.
func (e *Engine) SweepStates() int {
	return e.states.Sweep()
}

// ResetStates clears the flow-state store. Intended for tests and
// teardown.
func (e *Engine) ResetStates() {
	e.states.Reset()
}

// Close stops the background sweeper of an engine-owned state store.
// Caller-supplied stores are left to their owner. Idempotent.
func (e *Engine) Close() {
	if e.ownedStates != nil {
		e.ownedStates.Close()
	}
}

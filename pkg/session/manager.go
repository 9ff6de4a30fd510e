package session

import (
	"context"
	"time"
)

// Manager is the session lifecycle facade. It delegates to the configured
// strategy and coordinates deduplicated refresh of upstream tokens.
// It is safe for concurrent use.
type Manager struct {
	strategy  Strategy
	cfg       *Config
	refreshFn RefreshFunc
	coord     *refreshCoordinator
	now       func() time.Time
}

// NewManager creates a lifecycle manager around a strategy. refreshFn is
// optional; without it RefreshTokens reports failure as data.
func NewManager(cfg *Config, strategy Strategy, refreshFn RefreshFunc) (*Manager, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if strategy == nil {
		return nil, configurationError("strategy is required")
	}

	return &Manager{
		strategy:  strategy,
		cfg:       cfg,
		refreshFn: refreshFn,
		coord:     newRefreshCoordinator(),
		now:       time.Now,
	}, nil
}

// CreateSession creates a session for user via the active strategy.
func (m *Manager) CreateSession(ctx context.Context, user User, account *Account) (*Session, error) {
	return m.strategy.CreateSession(ctx, user, account)
}

// GetSession resolves the request's session. (nil, nil) means no valid
// session.
func (m *Manager) GetSession(ctx context.Context, r Request) (*Session, error) {
	return m.strategy.GetSession(ctx, r)
}

// UpdateSession applies sliding-window renewal via the active strategy.
func (m *Manager) UpdateSession(ctx context.Context, s *Session) (*Session, error) {
	return m.strategy.UpdateSession(ctx, s)
}

// DeleteSession destroys the request's session.
func (m *Manager) DeleteSession(ctx context.Context, r Request, w Response) error {
	return m.strategy.DeleteSession(ctx, r, w)
}

// WriteSession writes the session token to the response with the
// configured cookie attributes.
func (m *Manager) WriteSession(s *Session, w Response) {
	if s == nil || w == nil {
		return
	}
	w.Set(m.cfg.Cookie.Name, s.SessionToken, m.cfg.cookieOptions(s.TimeToExpiry()))
}

// ShouldRefresh reports whether the session is close enough to expiry
// that its upstream tokens should be refreshed.
func (m *Manager) ShouldRefresh(s *Session) bool {
	if s == nil {
		return false
	}
	return ShouldRefresh(s.Expires, m.now(), m.cfg.RefreshThreshold)
}

// RefreshTokens refreshes the session's upstream tokens, deduplicating
// concurrent refreshes per user id: callers racing on the same user share
// one outbound exchange and receive the same result.
//
// On success the new tokens and a recomputed expiry are merged into a
// copy of the session; when the provider issues no new refresh token the
// prior one is kept. On failure the session is tagged with
// RefreshTokenError but otherwise left intact. The shared refresh is not
// cancelled when one caller's context ends, since other waiters depend
// on it.
func (m *Manager) RefreshTokens(ctx context.Context, s *Session) (*Session, *RefreshResult) {
	if s == nil {
		return nil, &RefreshResult{Success: false, Err: configurationError("session is nil")}
	}

	result := m.coord.do(s.User.ID, func() *RefreshResult {
		if m.refreshFn == nil {
			return &RefreshResult{Success: false, Err: configurationError("no refresh function configured")}
		}
		if s.RefreshToken == "" {
			return &RefreshResult{Success: false, Err: configurationError("session carries no refresh token")}
		}

		tokens, err := m.refreshFn(context.WithoutCancel(ctx), s.RefreshToken)
		if err != nil {
			return &RefreshResult{Success: false, Err: err}
		}
		return &RefreshResult{Success: true, Tokens: tokens}
	})

	merged := *s
	if !result.Success {
		merged.Error = RefreshTokenError
		return &merged, result
	}

	merged.AccessToken = result.Tokens.AccessToken
	if result.Tokens.RefreshToken != "" {
		merged.RefreshToken = result.Tokens.RefreshToken
	}
	merged.Expires = m.now().Add(m.cfg.MaxAge)
	merged.Error = ""

	return &merged, result
}

// Reset clears the refresh coordination state. Intended for tests and
// teardown.
func (m *Manager) Reset() {
	m.coord.reset()
}

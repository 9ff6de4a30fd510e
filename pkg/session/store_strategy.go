package session

import (
	"context"
	"time"

	"github.com/authkit/go-authkit/pkg/security"
)

// SessionRecord is the persisted shape of a store-backed session.
type SessionRecord struct {
	SessionToken string
	UserID       string
	Expires      time.Time
}

// SessionUser pairs a stored session record with its user, as returned by
// the adapter's lookup.
type SessionUser struct {
	Session SessionRecord
	User    User
}

// Adapter is the persistence contract the store-backed strategy requires.
// Implementations are external collaborators; the strategy never touches
// a concrete database.
type Adapter interface {
	// CreateSession persists a session record.
	CreateSession(ctx context.Context, record SessionRecord) (*SessionRecord, error)

	// GetSessionAndUser returns the session record and its user, or nil
	// when no record exists for the token.
	GetSessionAndUser(ctx context.Context, sessionToken string) (*SessionUser, error)

	// DeleteSession removes the record for the token. Deleting an
	// absent record is not an error.
	DeleteSession(ctx context.Context, sessionToken string) error
}

// SessionUpdater is the optional adapter capability backing sliding-window
// renewal of store-backed sessions.
type SessionUpdater interface {
	// UpdateSession persists a changed record, returning nil when no
	// record exists for the token.
	UpdateSession(ctx context.Context, record SessionRecord) (*SessionRecord, error)
}

// StoreStrategy implements the store-backed session strategy: the session
// is an opaque random token whose authoritative data lives behind the
// Adapter.
type StoreStrategy struct {
	adapter Adapter
	updater SessionUpdater // nil when the adapter lacks the capability
	cfg     *Config
	now     func() time.Time
}

// NewStoreStrategy creates the store-backed strategy. The adapter is
// required; its optional capabilities are asserted once here rather than
// at every call site.
func NewStoreStrategy(cfg *Config, adapter Adapter) (*StoreStrategy, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if adapter == nil {
		return nil, adapterError(ErrAdapterNotConfigured, "store-backed sessions require an adapter", nil)
	}

	updater, _ := adapter.(SessionUpdater)

	return &StoreStrategy{
		adapter: adapter,
		updater: updater,
		cfg:     cfg,
		now:     time.Now,
	}, nil
}

// CreateSession generates an opaque session token and persists the record
// via the adapter.
func (s *StoreStrategy) CreateSession(ctx context.Context, user User, account *Account) (*Session, error) {
	token, err := security.RandomToken(security.DefaultTokenBytes)
	if err != nil {
		return nil, configurationError("session token generation failed: " + err.Error())
	}

	expires := s.now().Add(s.cfg.MaxAge)

	record, err := s.adapter.CreateSession(ctx, SessionRecord{
		SessionToken: token,
		UserID:       user.ID,
		Expires:      expires,
	})
	if err != nil {
		return nil, adapterError(ErrAdapterFailed, "creating session record", map[string]any{
			"cause": err.Error(),
		})
	}

	session := &Session{
		User:         user,
		Expires:      record.Expires,
		SessionToken: record.SessionToken,
	}

	if account != nil && account.Tokens != nil {
		session.AccessToken = account.Tokens.AccessToken
		session.RefreshToken = account.Tokens.RefreshToken
	}

	return session, nil
}

// GetSession looks up the session by the transport-supplied token. An
// expired record is reaped best-effort and reported as absent: a failed
// delete never masks the nil result.
func (s *StoreStrategy) GetSession(ctx context.Context, r Request) (*Session, error) {
	token := r.Get(s.cfg.Cookie.Name)
	if token == "" {
		return nil, nil
	}
	return s.lookup(ctx, token)
}

// GetSessionByToken is GetSession with an explicit token, for callers that
// already extracted it from the transport.
func (s *StoreStrategy) GetSessionByToken(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, nil
	}
	return s.lookup(ctx, token)
}

func (s *StoreStrategy) lookup(ctx context.Context, token string) (*Session, error) {
	su, err := s.adapter.GetSessionAndUser(ctx, token)
	if err != nil {
		return nil, adapterError(ErrAdapterFailed, "looking up session record", map[string]any{
			"cause": err.Error(),
		})
	}
	if su == nil {
		return nil, nil
	}

	if !s.now().Before(su.Session.Expires) {
		_ = s.adapter.DeleteSession(ctx, token)
		return nil, nil
	}

	return &Session{
		User:         su.User,
		Expires:      su.Session.Expires,
		SessionToken: su.Session.SessionToken,
	}, nil
}

// UpdateSession applies sliding-window renewal through the adapter's
// updater capability. Without that capability the operation fails with an
// adapter error; a session outside the update window is returned
// unchanged without touching the adapter.
func (s *StoreStrategy) UpdateSession(ctx context.Context, session *Session) (*Session, error) {
	if session == nil {
		return nil, nil
	}

	if session.Expires.Sub(s.now()) >= s.cfg.UpdateAge {
		return session, nil
	}

	if s.updater == nil {
		return nil, adapterError(ErrAdapterCapability, "adapter does not support session updates", nil)
	}

	record, err := s.updater.UpdateSession(ctx, SessionRecord{
		SessionToken: session.SessionToken,
		UserID:       session.User.ID,
		Expires:      s.now().Add(s.cfg.MaxAge),
	})
	if err != nil {
		return nil, adapterError(ErrAdapterFailed, "updating session record", map[string]any{
			"cause": err.Error(),
		})
	}
	if record == nil {
		return nil, nil
	}

	renewed := *session
	renewed.Expires = record.Expires
	return &renewed, nil
}

// DeleteSession removes the backing record and clears the transport
// value. A request without a session token is a no-op.
func (s *StoreStrategy) DeleteSession(ctx context.Context, r Request, w Response) error {
	token := r.Get(s.cfg.Cookie.Name)
	if token == "" {
		return nil
	}

	if err := s.adapter.DeleteSession(ctx, token); err != nil {
		return adapterError(ErrAdapterFailed, "deleting session record", map[string]any{
			"cause": err.Error(),
		})
	}

	if w != nil {
		w.Delete(s.cfg.Cookie.Name, s.cfg.cookieOptions(0))
	}
	return nil
}

package session

import "context"

// Strategy is the capability interface both session strategies implement.
// The strategy is selected once at configuration time; callers hold a
// Strategy and never branch on its kind.
type Strategy interface {
	// CreateSession creates a session for user. account optionally
	// carries the upstream tokens obtained during sign-in.
	CreateSession(ctx context.Context, user User, account *Account) (*Session, error)

	// GetSession resolves the session referenced by the inbound request.
	// It returns (nil, nil) when there is no valid session: absent
	// token, undecodable token, and expired session are all normal
	// absent results, never errors.
	GetSession(ctx context.Context, r Request) (*Session, error)

	// UpdateSession applies sliding-window renewal: the expiry is
	// extended only when the remaining lifetime is below the configured
	// update age, otherwise the session is returned unchanged.
	UpdateSession(ctx context.Context, s *Session) (*Session, error)

	// DeleteSession destroys the session referenced by the inbound
	// request and clears the transport value. A request without a
	// session token is a no-op, not an error.
	DeleteSession(ctx context.Context, r Request, w Response) error
}

// Refresher is the optional capability of strategies that can re-issue a
// session artifact with a fresh expiry.
type Refresher interface {
	// RefreshSession unconditionally re-issues the session with a fresh
	// expiry, preserving any embedded upstream tokens.
	RefreshSession(ctx context.Context, s *Session) (*Session, error)
}

package session

import (
	"time"

	"github.com/authkit/go-authkit/pkg/oauth"
)

// RefreshTokenError is the marker placed on Session.Error when an
// upstream token refresh fails. The session itself stays valid; callers
// decide whether to force re-authentication.
const RefreshTokenError = "RefreshTokenError"

// User is the identity record carried by a session. A session holds a
// snapshot of the user, not a live reference.
type User struct {
	// ID is the stable external identifier. Required.
	ID string

	Name  string
	Email string
	Image string
	Role  string

	// EmailVerified is when the email address was verified, if ever.
	EmailVerified *time.Time

	// Extra carries provider-specific extension fields.
	Extra map[string]any
}

// Account links a user to an external identity provider account, with the
// token set obtained from it.
type Account struct {
	Provider          string
	ProviderAccountID string
	Tokens            *oauth.TokenSet
}

// Session is the caller-facing authenticated context.
type Session struct {
	User User

	// Expires is when the session ends. Always in the future for a
	// session returned as valid.
	Expires time.Time

	// AccessToken and RefreshToken are the embedded upstream tokens,
	// when the strategy carries them.
	AccessToken  string
	RefreshToken string

	// SessionToken is the lookup key for store-backed sessions, or the
	// signed artifact itself for token-encoded sessions.
	SessionToken string

	// Error is a retrievable marker for degraded sessions, for example
	// RefreshTokenError after a failed upstream refresh.
	Error string
}

// Valid reports whether the session has not expired.
func (s *Session) Valid() bool {
	return s != nil && time.Now().Before(s.Expires)
}

// TimeToExpiry returns the duration until the session expires, or 0 if it
// already has.
func (s *Session) TimeToExpiry() time.Duration {
	d := time.Until(s.Expires)
	if d < 0 {
		return 0
	}
	return d
}

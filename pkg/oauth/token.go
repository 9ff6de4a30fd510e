package oauth

import "time"

// TokenSet holds the upstream OAuth tokens obtained from a provider.
type TokenSet struct {
	// AccessToken is the OAuth access token. Always present on a
	// successful exchange.
	AccessToken string `json:"access_token"`

	// TokenType is the token type, usually "Bearer".
	TokenType string `json:"token_type,omitempty"`

	// RefreshToken is used to obtain new access tokens (optional).
	RefreshToken string `json:"refresh_token,omitempty"`

	// Scope is the space-separated scopes granted to the token.
	Scope string `json:"scope,omitempty"`

	// ExpiresIn is the access token lifetime in seconds, as reported by
	// the provider.
	ExpiresIn int64 `json:"expires_in,omitempty"`

	// ExpiresAt is the absolute expiry of the access token. The engine
	// derives it from ExpiresIn when the provider reports only the
	// latter, so it is always populated after a successful exchange
	// whenever the provider reported any expiry at all.
	ExpiresAt time.Time `json:"expires_at,omitempty"`

	// IDToken is the OpenID Connect ID token (optional).
	IDToken string `json:"id_token,omitempty"`
}

// Expired reports whether the access token has expired. Tokens without an
// expiry never expire.
func (t *TokenSet) Expired() bool {
	if t.ExpiresAt.IsZero() {
		return false
	}
	return time.Now().After(t.ExpiresAt)
}

// Valid reports whether the token set carries a non-expired access token.
func (t *TokenSet) Valid() bool {
	return t.AccessToken != "" && !t.Expired()
}

// TimeToExpiry returns the duration until the access token expires.
// Returns 0 for expired tokens and tokens without an expiry.
func (t *TokenSet) TimeToExpiry() time.Duration {
	if t.ExpiresAt.IsZero() {
		return 0
	}
	d := time.Until(t.ExpiresAt)
	if d < 0 {
		return 0
	}
	return d
}

package oauth

import (
	"fmt"
	"strings"
)

// Check identifies an anti-forgery check a provider requires.
type Check string

const (
	// CheckState requires the state correlation parameter. It is always
	// performed regardless of provider configuration.
	CheckState Check = "state"

	// CheckPKCE requires a PKCE verifier/challenge pair.
	CheckPKCE Check = "pkce"

	// CheckNonce requires an OpenID Connect nonce.
	CheckNonce Check = "nonce"
)

// Endpoint describes a provider endpoint: a URL plus static parameters the
// provider wants included on every request to it.
type Endpoint struct {
	URL    string
	Params map[string]string
}

// ProfileFunc maps a raw provider profile into a normalized user. tokens
// carries the token set obtained for the profile, for providers that embed
// identity data in tokens. A ProfileFunc may panic or return an error; both
// are surfaced as an authorization error with the raw profile attached.
type ProfileFunc func(profile map[string]any, tokens *TokenSet) (*UserProfile, error)

// ProviderConfig describes an OAuth 2.0 / OpenID Connect identity provider.
type ProviderConfig struct {
	// ID is the provider's stable identifier, for example "github".
	ID string

	// Authorization is the authorization endpoint.
	Authorization Endpoint

	// Token is the token endpoint.
	Token Endpoint

	// UserInfo is the userinfo endpoint (optional).
	UserInfo Endpoint

	// JWKS is the JSON Web Key Set endpoint for id_token verification
	// (optional).
	JWKS string

	// ClientID and ClientSecret are the OAuth client credentials.
	ClientID     string
	ClientSecret string

	// Checks lists the anti-forgery checks the provider mandates.
	Checks []Check

	// DisablePKCE opts out of PKCE. PKCE is on by default and cannot be
	// disabled when Checks includes CheckPKCE.
	DisablePKCE bool

	// Scopes are the default scopes requested when the caller supplies
	// none.
	Scopes []string

	// Profile optionally overrides the default profile normalization.
	Profile ProfileFunc
}

// Validate checks the provider configuration.
func (p *ProviderConfig) Validate() error {
	if p == nil {
		return configError("provider is nil")
	}
	if strings.TrimSpace(p.ID) == "" {
		return configError("provider id is required")
	}
	if strings.TrimSpace(p.ClientID) == "" {
		return configError(fmt.Sprintf("provider %s: client_id is required", p.ID))
	}
	if strings.TrimSpace(p.Authorization.URL) == "" {
		return configError(fmt.Sprintf("provider %s: authorization endpoint is required", p.ID))
	}
	if strings.TrimSpace(p.Token.URL) == "" {
		return configError(fmt.Sprintf("provider %s: token endpoint is required", p.ID))
	}
	return nil
}

// requires reports whether the provider mandates the given check.
func (p *ProviderConfig) requires(c Check) bool {
	for _, check := range p.Checks {
		if check == c {
			return true
		}
	}
	return false
}

// usePKCE reports whether an authorization request for this provider
// should carry a PKCE challenge. enable is the caller override; nil means
// "use the default".
func (p *ProviderConfig) usePKCE(enable *bool) bool {
	if p.requires(CheckPKCE) {
		return true
	}
	if enable != nil {
		return *enable
	}
	return !p.DisablePKCE
}

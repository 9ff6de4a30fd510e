package oauth

import (
	"context"

	"golang.org/x/oauth2"

	"github.com/authkit/go-authkit/pkg/security"
)

// AuthorizeOptions tune a single authorization request.
type AuthorizeOptions struct {
	// EnablePKCE overrides the PKCE default. nil keeps the provider's
	// default (enabled unless DisablePKCE is set).
	EnablePKCE *bool

	// Scopes overrides the provider's default scopes.
	Scopes []string

	// AdditionalParams are extra authorization parameters appended to
	// the URL.
	AdditionalParams map[string]string
}

// AuthorizationRequest is the result of generating an authorization URL.
// State, CodeVerifier, and Nonce are returned so the caller can persist
// them across the redirect round-trip, typically in a short-lived cookie.
type AuthorizationRequest struct {
	URL          string
	State        string
	CodeVerifier string
	Nonce        string
}

// reserved parameters AuthCodeURL owns; provider-declared params must not
// shadow them.
var reservedAuthParams = map[string]bool{
	"client_id":             true,
	"redirect_uri":          true,
	"response_type":         true,
	"state":                 true,
	"code_challenge":        true,
	"code_challenge_method": true,
	"nonce":                 true,
}

// AuthorizationRequest builds the authorization URL for a provider and
// persists the flow state keyed by the generated state value.
//
// A cryptographically random state is always generated. A nonce is
// generated iff the provider's checks include nonce. A PKCE pair is
// generated iff PKCE is enabled (the default) or the provider mandates it.
func (e *Engine) AuthorizationRequest(ctx context.Context, provider *ProviderConfig, callbackURL string, opts *AuthorizeOptions) (*AuthorizationRequest, error) {
	if err := provider.Validate(); err != nil {
		return nil, err
	}
	if opts == nil {
		opts = &AuthorizeOptions{}
	}

	state, err := security.RandomToken(security.DefaultTokenBytes)
	if err != nil {
		return nil, authError(ErrInvalidConfiguration, "state generation failed", nil)
	}

	fs := &FlowState{
		State:       state,
		ProviderID:  provider.ID,
		CallbackURL: callbackURL,
		CreatedAt:   e.now(),
	}

	if provider.requires(CheckNonce) {
		nonce, err := security.RandomToken(security.DefaultTokenBytes)
		if err != nil {
			return nil, authError(ErrInvalidConfiguration, "nonce generation failed", nil)
		}
		fs.Nonce = nonce
	}

	if provider.usePKCE(opts.EnablePKCE) {
		verifier, challenge, err := security.GeneratePKCE()
		if err != nil {
			return nil, authError(ErrInvalidConfiguration, "pkce generation failed", nil)
		}
		fs.CodeVerifier = verifier
		fs.CodeChallenge = challenge
		fs.CodeChallengeMethod = security.PKCEMethodS256
	}

	scopes := opts.Scopes
	callerScopes := len(scopes) > 0
	if !callerScopes {
		scopes = provider.Scopes
	}

	oauthCfg := &oauth2.Config{
		ClientID:     provider.ClientID,
		ClientSecret: provider.ClientSecret,
		Endpoint: oauth2.Endpoint{
			AuthURL:  provider.Authorization.URL,
			TokenURL: provider.Token.URL,
		},
		RedirectURL: callbackURL,
		Scopes:      scopes,
	}

	var authOpts []oauth2.AuthCodeOption

	// Provider-declared params are merged in, but never shadow the
	// parameters this flow owns, and never override a caller-supplied
	// scope.
	for key, value := range provider.Authorization.Params {
		if reservedAuthParams[key] {
			continue
		}
		if key == "scope" && callerScopes {
			continue
		}
		authOpts = append(authOpts, oauth2.SetAuthURLParam(key, value))
	}

	for key, value := range opts.AdditionalParams {
		if reservedAuthParams[key] {
			continue
		}
		authOpts = append(authOpts, oauth2.SetAuthURLParam(key, value))
	}

	if fs.CodeChallenge != "" {
		authOpts = append(authOpts,
			oauth2.SetAuthURLParam("code_challenge", fs.CodeChallenge),
			oauth2.SetAuthURLParam("code_challenge_method", fs.CodeChallengeMethod),
		)
	}

	if fs.Nonce != "" {
		authOpts = append(authOpts, oauth2.SetAuthURLParam("nonce", fs.Nonce))
	}

	if err := e.states.Put(fs); err != nil {
		return nil, err
	}

	return &AuthorizationRequest{
		URL:          oauthCfg.AuthCodeURL(state, authOpts...),
		State:        state,
		CodeVerifier: fs.CodeVerifier,
		Nonce:        fs.Nonce,
	}, nil
}

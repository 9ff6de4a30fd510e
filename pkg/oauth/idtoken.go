package oauth

import (
	"context"
	"fmt"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"

	"github.com/authkit/go-authkit/pkg/security"
)

// VerifyIDTokenNonce verifies the signature of an OpenID Connect id_token
// against the provider's JWKS and checks that its nonce claim matches the
// nonce issued with the authorization request. The nonce comparison is
// constant time.
func (e *Engine) VerifyIDTokenNonce(ctx context.Context, provider *ProviderConfig, idToken, nonce string) error {
	if provider == nil || provider.JWKS == "" {
		return configError("provider declares no jwks endpoint")
	}
	if idToken == "" {
		return authError(ErrIDTokenInvalid, "id token is empty", nil)
	}

	kf, err := e.keyfuncFor(ctx, provider)
	if err != nil {
		return authError(ErrIDTokenInvalid, "jwks fetch failed", map[string]any{
			"cause": err.Error(),
		})
	}

	token, err := jwt.Parse(idToken, kf.Keyfunc)
	if err != nil || !token.Valid {
		return authError(ErrIDTokenInvalid, "id token verification failed", map[string]any{
			"cause": fmt.Sprintf("%v", err),
		})
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return authError(ErrIDTokenInvalid, "id token has no claims", nil)
	}

	claimed, _ := claims["nonce"].(string)
	if claimed == "" || !security.ConstantTimeEquals(claimed, nonce) {
		return authError(ErrIDTokenInvalid, "nonce mismatch", nil)
	}

	return nil
}

// keyfuncFor returns a cached JWKS keyfunc for the provider, fetching and
// caching it on first use.
func (e *Engine) keyfuncFor(ctx context.Context, provider *ProviderConfig) (keyfunc.Keyfunc, error) {
	e.jwksMu.RLock()
	kf, ok := e.jwks[provider.ID]
	e.jwksMu.RUnlock()
	if ok {
		return kf, nil
	}

	kf, err := keyfunc.NewDefaultCtx(ctx, []string{provider.JWKS})
	if err != nil {
		return nil, err
	}

	e.jwksMu.Lock()
	defer e.jwksMu.Unlock()
	if existing, ok := e.jwks[provider.ID]; ok {
		return existing, nil
	}
	e.jwks[provider.ID] = kf
	return kf, nil
}

// Package oauth implements the OAuth 2.0 / OpenID Connect authorization
// code flow: authorization URL construction with state, nonce, and PKCE
// anti-forgery parameters, ephemeral flow-state storage with expiry,
// code-for-token exchange, and identity profile normalization.
//
// The package never performs redirects itself. Callers generate an
// authorization request, send the user to the returned URL, and hand the
// resulting callback parameters back to the engine:
//
//	engine := oauth.NewEngine(nil)
//	req, err := engine.AuthorizationRequest(ctx, provider, callbackURL, nil)
//	// redirect the user to req.URL ...
//	tokens, err := engine.Exchange(ctx, provider, code, state, callbackURL)
//	raw, err := engine.FetchProfile(ctx, provider, tokens)
//	profile, err := oauth.NormalizeProfile(provider, raw, tokens)
//
// Every state value is single-use: the exchange consumes the stored flow
// state before contacting the provider, so a replayed callback fails with
// an invalid-or-expired state error.
package oauth

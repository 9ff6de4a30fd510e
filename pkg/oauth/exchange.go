package oauth

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ValidateState looks up the flow-state record for state and checks it
// against the expected provider and the TTL. The provider check runs
// before the expiry check. On success the record is returned WITHOUT
// being deleted: validation is a non-consuming peek, consumption happens
// in Exchange.
func (e *Engine) ValidateState(state, expectedProviderID string) (*FlowState, error) {
	fs, err := e.states.Get(state)
	if err != nil {
		return nil, authError(ErrInvalidState, "state lookup failed", map[string]any{"cause": err.Error()})
	}
	if fs == nil {
		return nil, authError(ErrInvalidState, "Invalid or expired OAuth state", map[string]any{
			"provider": expectedProviderID,
		})
	}

	if fs.ProviderID != expectedProviderID {
		return nil, authError(ErrStateProviderMismatch, "OAuth state provider mismatch", map[string]any{
			"expected": expectedProviderID,
			"actual":   fs.ProviderID,
		})
	}

	if e.stateExpired(fs) {
		_ = e.states.Delete(state)
		return nil, authError(ErrStateExpired, "OAuth state expired", map[string]any{
			"provider":  fs.ProviderID,
			"createdAt": fs.CreatedAt,
		})
	}

	return fs, nil
}

// Exchange consumes the flow state for state and exchanges the
// authorization code for tokens at the provider's token endpoint. The
// state record is deleted before the HTTP call starts, so a given state
// is single-use: a second exchange attempt fails with invalid-or-expired.
func (e *Engine) Exchange(ctx context.Context, provider *ProviderConfig, code, state, callbackURL string) (*TokenSet, error) {
	if err := provider.Validate(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(code) == "" {
		return nil, authError(ErrMissingCode, "", nil)
	}

	fs, err := e.states.Consume(state)
	if err != nil {
		return nil, authError(ErrInvalidState, "state lookup failed", map[string]any{"cause": err.Error()})
	}
	if fs == nil {
		return nil, authError(ErrInvalidState, "Invalid or expired OAuth state", map[string]any{
			"provider": provider.ID,
		})
	}

	if fs.ProviderID != provider.ID {
		return nil, authError(ErrStateProviderMismatch, "OAuth state provider mismatch", map[string]any{
			"expected": provider.ID,
			"actual":   fs.ProviderID,
		})
	}

	if e.stateExpired(fs) {
		return nil, authError(ErrStateExpired, "OAuth state expired", map[string]any{
			"provider":  fs.ProviderID,
			"createdAt": fs.CreatedAt,
		})
	}

	redirectURI := callbackURL
	if redirectURI == "" {
		redirectURI = fs.CallbackURL
	}

	data := url.Values{}
	data.Set("grant_type", "authorization_code")
	data.Set("code", code)
	data.Set("client_id", provider.ClientID)
	data.Set("redirect_uri", redirectURI)

	if provider.ClientSecret != "" {
		data.Set("client_secret", provider.ClientSecret)
	}

	if fs.CodeVerifier != "" {
		data.Set("code_verifier", fs.CodeVerifier)
	}

	for key, value := range provider.Token.Params {
		if data.Get(key) == "" {
			data.Set(key, value)
		}
	}

	// Last expiry check before the outbound call; the record may cross
	// the TTL between consumption and here.
	if e.stateExpired(fs) {
		return nil, authError(ErrStateExpired, "OAuth state expired", map[string]any{
			"provider": fs.ProviderID,
		})
	}

	return e.postTokenRequest(ctx, provider.Token.URL, data)
}

// postTokenRequest POSTs a form-encoded token request and parses the
// response into a TokenSet.
func (e *Engine) postTokenRequest(ctx context.Context, tokenURL string, data url.Values) (*TokenSet, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, authError(ErrTokenExchangeFailed, "building token request failed", map[string]any{
			"cause": err.Error(),
		})
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, authError(ErrTokenExchangeFailed, "token request failed", map[string]any{
			"cause": err.Error(),
		})
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, authError(ErrTokenExchangeFailed, "reading token response failed", map[string]any{
			"cause": err.Error(),
		})
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, authError(ErrTokenExchangeFailed, "token endpoint returned an error", map[string]any{
			"status": resp.StatusCode,
			"body":   string(body),
		})
	}

	var tokenResp struct {
		AccessToken  string `json:"access_token"`
		TokenType    string `json:"token_type"`
		RefreshToken string `json:"refresh_token"`
		ExpiresIn    int64  `json:"expires_in"`
		ExpiresAt    int64  `json:"expires_at"`
		Scope        string `json:"scope"`
		IDToken      string `json:"id_token"`
	}

	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return nil, authError(ErrTokenExchangeFailed, "parsing token response failed", map[string]any{
			"cause": err.Error(),
			"body":  string(body),
		})
	}

	if tokenResp.AccessToken == "" {
		return nil, authError(ErrMissingAccessToken, "", map[string]any{"body": string(body)})
	}

	tokens := &TokenSet{
		AccessToken:  tokenResp.AccessToken,
		TokenType:    tokenResp.TokenType,
		RefreshToken: tokenResp.RefreshToken,
		Scope:        tokenResp.Scope,
		ExpiresIn:    tokenResp.ExpiresIn,
		IDToken:      tokenResp.IDToken,
	}

	if tokens.TokenType == "" {
		tokens.TokenType = "Bearer"
	}

	if tokenResp.ExpiresAt > 0 {
		tokens.ExpiresAt = time.Unix(tokenResp.ExpiresAt, 0)
	} else if tokenResp.ExpiresIn > 0 {
		tokens.ExpiresAt = e.now().Add(time.Duration(tokenResp.ExpiresIn) * time.Second)
	}

	return tokens, nil
}

// Refresh exchanges a refresh token for a new token set. Providers may
// omit the refresh token in the response; callers should keep the prior
// one in that case.
func (e *Engine) Refresh(ctx context.Context, provider *ProviderConfig, refreshToken string) (*TokenSet, error) {
	if err := provider.Validate(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(refreshToken) == "" {
		return nil, authError(ErrTokenExchangeFailed, "refresh token is required", nil)
	}

	data := url.Values{}
	data.Set("grant_type", "refresh_token")
	data.Set("refresh_token", refreshToken)
	data.Set("client_id", provider.ClientID)

	if provider.ClientSecret != "" {
		data.Set("client_secret", provider.ClientSecret)
	}

	return e.postTokenRequest(ctx, provider.Token.URL, data)
}

func (e *Engine) stateExpired(fs *FlowState) bool {
	return e.now().Sub(fs.CreatedAt) > e.stateTTL
}

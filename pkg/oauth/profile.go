package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// UserProfile is the normalized identity profile produced from a
// provider's raw userinfo response.
type UserProfile struct {
	ID    string
	Name  string
	Email string
	Image string

	// Raw is the provider's unmodified profile document, kept for
	// provider-specific extension fields.
	Raw map[string]any
}

// profileFields is the ordered candidate table for default profile
// normalization: for each logical attribute, the raw field names tried in
// order.
var profileFields = []struct {
	target     string
	candidates []string
}{
	{"id", []string{"id", "sub"}},
	{"name", []string{"name", "login", "username"}},
	{"email", []string{"email"}},
	{"image", []string{"avatar_url", "picture", "image"}},
}

// FetchProfile retrieves the raw identity profile from the provider's
// userinfo endpoint using a bearer token. A provider without a userinfo
// endpoint fails distinctly from a transport or HTTP failure.
func (e *Engine) FetchProfile(ctx context.Context, provider *ProviderConfig, tokens *TokenSet) (map[string]any, error) {
	if provider == nil || provider.UserInfo.URL == "" {
		return nil, authError(ErrUserInfoNotSupported, "", nil)
	}
	if tokens == nil || tokens.AccessToken == "" {
		return nil, authError(ErrUserInfoFailed, "access token required", nil)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, provider.UserInfo.URL, nil)
	if err != nil {
		return nil, authError(ErrUserInfoFailed, "building userinfo request failed", map[string]any{
			"cause": err.Error(),
		})
	}

	if len(provider.UserInfo.Params) > 0 {
		q := req.URL.Query()
		for key, value := range provider.UserInfo.Params {
			q.Set(key, value)
		}
		req.URL.RawQuery = q.Encode()
	}

	req.Header.Set("Authorization", "Bearer "+tokens.AccessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, authError(ErrUserInfoFailed, "userinfo request failed", map[string]any{
			"cause": err.Error(),
		})
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, authError(ErrUserInfoFailed, "userinfo endpoint returned an error", map[string]any{
			"status": resp.StatusCode,
			"body":   string(body),
		})
	}

	var raw map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, authError(ErrUserInfoFailed, "parsing userinfo response failed", map[string]any{
			"cause": err.Error(),
		})
	}

	return raw, nil
}

// NormalizeProfile maps a raw provider profile into a UserProfile. When
// the provider supplies a custom Profile function it is used, and any
// error or panic from it is wrapped with the raw profile attached for
// diagnostics. Otherwise the default candidate table applies.
func NormalizeProfile(provider *ProviderConfig, raw map[string]any, tokens *TokenSet) (profile *UserProfile, err error) {
	if raw == nil {
		return nil, authError(ErrProfileInvalid, "profile is nil", nil)
	}

	if provider != nil && provider.Profile != nil {
		defer func() {
			if r := recover(); r != nil {
				profile = nil
				err = authError(ErrProfileInvalid, fmt.Sprintf("profile mapping panicked: %v", r), map[string]any{
					"profile": raw,
				})
			}
		}()

		mapped, perr := provider.Profile(raw, tokens)
		if perr != nil {
			return nil, authError(ErrProfileInvalid, "profile mapping failed", map[string]any{
				"profile": raw,
				"cause":   perr.Error(),
			})
		}
		if mapped != nil && mapped.Raw == nil {
			mapped.Raw = raw
		}
		return mapped, nil
	}

	profile = &UserProfile{Raw: raw}
	for _, field := range profileFields {
		value := firstProfileValue(raw, field.candidates)
		switch field.target {
		case "id":
			profile.ID = value
		case "name":
			profile.Name = value
		case "email":
			profile.Email = value
		case "image":
			profile.Image = value
		}
	}

	if profile.ID == "" {
		return nil, authError(ErrProfileInvalid, "profile has no id or sub", map[string]any{
			"profile": raw,
		})
	}

	return profile, nil
}

// firstProfileValue returns the first candidate field present in raw,
// stringified. JSON numbers (GitHub-style numeric ids) become their
// decimal representation.
func firstProfileValue(raw map[string]any, candidates []string) string {
	for _, name := range candidates {
		value, ok := raw[name]
		if !ok || value == nil {
			continue
		}
		switch v := value.(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			if v == float64(int64(v)) {
				return fmt.Sprintf("%d", int64(v))
			}
			return fmt.Sprintf("%v", v)
		case json.Number:
			return v.String()
		}
	}
	return ""
}

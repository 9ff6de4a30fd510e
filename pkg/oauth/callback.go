package oauth

// CallbackParams are the query parameters delivered to the OAuth callback.
type CallbackParams struct {
	Code             string
	State            string
	Error            string
	ErrorDescription string
}

// ValidateCallback checks the callback parameters. A provider error is
// raised before the code and state presence checks, and missing code and
// missing state each fail with their own sentinel.
func ValidateCallback(params CallbackParams) error {
	if params.Error != "" {
		return authError(ErrProviderDenied, "provider returned "+params.Error, map[string]any{
			"error":             params.Error,
			"error_description": params.ErrorDescription,
		})
	}
	if params.Code == "" {
		return authError(ErrMissingCode, "", nil)
	}
	if params.State == "" {
		return authError(ErrMissingState, "", nil)
	}
	return nil
}

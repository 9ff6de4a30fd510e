package oauth

import (
	"errors"
	"testing"
)

func TestValidateCallback(t *testing.T) {
	tests := []struct {
		name    string
		params  CallbackParams
		wantErr error
	}{
		{
			name:    "valid",
			params:  CallbackParams{Code: "c", State: "s"},
			wantErr: nil,
		},
		{
			name:    "provider error beats missing code and state",
			params:  CallbackParams{Error: "access_denied", ErrorDescription: "user said no"},
			wantErr: ErrProviderDenied,
		},
		{
			name:    "provider error with code present",
			params:  CallbackParams{Code: "c", State: "s", Error: "server_error"},
			wantErr: ErrProviderDenied,
		},
		{
			name:    "missing code",
			params:  CallbackParams{State: "s"},
			wantErr: ErrMissingCode,
		},
		{
			name:    "missing state",
			params:  CallbackParams{Code: "c"},
			wantErr: ErrMissingState,
		},
		{
			name:    "missing both reports code first",
			params:  CallbackParams{},
			wantErr: ErrMissingCode,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCallback(tt.params)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateCallback() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateCallback() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateCallback_ErrorMetadata(t *testing.T) {
	err := ValidateCallback(CallbackParams{Error: "access_denied", ErrorDescription: "declined"})

	var flowErr *FlowError
	if !errors.As(err, &flowErr) {
		t.Fatal("error is not a *FlowError")
	}
	if flowErr.Code != CodeAuthorization {
		t.Errorf("Code = %q, want %q", flowErr.Code, CodeAuthorization)
	}
	if flowErr.Metadata["error"] != "access_denied" {
		t.Errorf("error metadata = %v", flowErr.Metadata["error"])
	}
	if flowErr.Metadata["error_description"] != "declined" {
		t.Errorf("error_description metadata = %v", flowErr.Metadata["error_description"])
	}
}

package security

import (
	"strings"
	"testing"
)

func TestRandomToken(t *testing.T) {
	t.Run("default size", func(t *testing.T) {
		token, err := RandomToken(0)
		if err != nil {
			t.Fatalf("RandomToken() error = %v", err)
		}
		// 32 bytes base64url without padding is 43 characters
		if len(token) != 43 {
			t.Errorf("RandomToken() length = %d, want 43", len(token))
		}
	})

	t.Run("url safe", func(t *testing.T) {
		for i := 0; i < 50; i++ {
			token, err := RandomToken(32)
			if err != nil {
				t.Fatalf("RandomToken() error = %v", err)
			}
			if strings.ContainsAny(token, "+/=") {
				t.Errorf("RandomToken() = %q contains non-url-safe characters", token)
			}
		}
	})

	t.Run("unique", func(t *testing.T) {
		const n = 1000
		seen := make(map[string]bool, n)
		for i := 0; i < n; i++ {
			token, err := RandomToken(0)
			if err != nil {
				t.Fatalf("RandomToken() error = %v", err)
			}
			if seen[token] {
				t.Fatalf("RandomToken() produced duplicate %q", token)
			}
			seen[token] = true
		}
	})
}

func TestHashToken(t *testing.T) {
	a := HashToken("token-a")
	b := HashToken("token-b")

	if a == b {
		t.Error("HashToken() produced equal digests for different inputs")
	}
	if a != HashToken("token-a") {
		t.Error("HashToken() is not deterministic")
	}
	if strings.ContainsAny(a, "+/=") {
		t.Errorf("HashToken() = %q is not url safe", a)
	}
}

func TestConstantTimeEquals(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want bool
	}{
		{"equal", "secret", "secret", true},
		{"different", "secret", "Secret", false},
		{"different length", "secret", "secret1", false},
		{"both empty", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ConstantTimeEquals(tt.a, tt.b); got != tt.want {
				t.Errorf("ConstantTimeEquals(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

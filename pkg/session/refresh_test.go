package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/authkit/go-authkit/pkg/oauth"
)

func TestRefreshCoordinator_DeduplicatesPerUser(t *testing.T) {
	coord := newRefreshCoordinator()

	var calls atomic.Int64
	started := make(chan struct{})
	release := make(chan struct{})

	slow := func() *RefreshResult {
		calls.Add(1)
		close(started)
		<-release
		return &RefreshResult{Success: true, Tokens: &oauth.TokenSet{AccessToken: "fresh"}}
	}

	const waiters = 10
	var wg sync.WaitGroup
	results := make([]*RefreshResult, waiters)

	wg.Add(1)
	go func() {
		defer wg.Done()
		results[0] = coord.do("u1", slow)
	}()

	<-started

	// Everyone else joins the in-flight refresh instead of starting one.
	for i := 1; i < waiters; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = coord.do("u1", func() *RefreshResult {
				calls.Add(1)
				return &RefreshResult{Success: true, Tokens: &oauth.TokenSet{AccessToken: "duplicate"}}
			})
		}(i)
	}

	// Give the joiners a moment to reach the in-flight check.
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	if calls.Load() != 1 {
		t.Fatalf("refresh executed %d times, want exactly 1", calls.Load())
	}

	for i, result := range results {
		if result == nil || !result.Success {
			t.Fatalf("waiter %d result = %+v", i, result)
		}
		if result.Tokens.AccessToken != "fresh" {
			t.Errorf("waiter %d got tokens from a duplicate refresh: %q", i, result.Tokens.AccessToken)
		}
	}
}

func TestRefreshCoordinator_DistinctUsersRunConcurrently(t *testing.T) {
	coord := newRefreshCoordinator()

	var calls atomic.Int64
	var wg sync.WaitGroup

	for _, user := range []string{"u1", "u2", "u3"} {
		wg.Add(1)
		go func(user string) {
			defer wg.Done()
			coord.do(user, func() *RefreshResult {
				calls.Add(1)
				return &RefreshResult{Success: true}
			})
		}(user)
	}
	wg.Wait()

	if calls.Load() != 3 {
		t.Errorf("refresh executed %d times, want 3", calls.Load())
	}
}

func TestRefreshCoordinator_KeyReleasedAfterFailure(t *testing.T) {
	coord := newRefreshCoordinator()

	first := coord.do("u1", func() *RefreshResult {
		return &RefreshResult{Success: false, Err: errors.New("boom")}
	})
	if first.Success {
		t.Fatal("expected failure result")
	}

	// The failed refresh must not wedge the key.
	second := coord.do("u1", func() *RefreshResult {
		return &RefreshResult{Success: true}
	})
	if !second.Success {
		t.Error("key still wedged after a failed refresh")
	}
}

func TestRefreshCoordinator_PanicBecomesFailure(t *testing.T) {
	coord := newRefreshCoordinator()

	started := make(chan struct{})
	release := make(chan struct{})

	var ownerResult, waiterResult *RefreshResult
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		ownerResult = coord.do("u1", func() *RefreshResult {
			close(started)
			<-release
			panic("refresh exploded")
		})
	}()

	<-started

	wg.Add(1)
	go func() {
		defer wg.Done()
		waiterResult = coord.do("u1", func() *RefreshResult {
			return &RefreshResult{Success: true}
		})
	}()

	// Give the waiter a moment to join the in-flight refresh.
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	for name, result := range map[string]*RefreshResult{"owner": ownerResult, "waiter": waiterResult} {
		if result == nil {
			t.Fatalf("%s result is nil", name)
		}
		if result.Success || result.Err == nil {
			t.Errorf("%s result = %+v, want failure with an error", name, result)
		}
	}

	// The crashed refresh must not wedge the key.
	second := coord.do("u1", func() *RefreshResult {
		return &RefreshResult{Success: true}
	})
	if !second.Success {
		t.Error("key still wedged after a panicked refresh")
	}
}

func TestShouldRefresh(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name    string
		expires time.Time
		want    bool
	}{
		{"far from expiry", now.Add(time.Hour), false},
		{"inside threshold", now.Add(2 * time.Minute), true},
		{"already expired", now.Add(-time.Minute), true},
		{"exactly at threshold", now.Add(DefaultRefreshThreshold), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ShouldRefresh(tt.expires, now, 0); got != tt.want {
				t.Errorf("ShouldRefresh() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestManager_RefreshTokens(t *testing.T) {
	newManager := func(t *testing.T, fn RefreshFunc) *Manager {
		t.Helper()
		strategy := newJWTStrategy(t, time.Hour, time.Minute)
		m, err := NewManager(&Config{Secret: "s", MaxAge: time.Hour}, strategy, fn)
		if err != nil {
			t.Fatal(err)
		}
		return m
	}

	base := &Session{
		User:         User{ID: "u1"},
		Expires:      time.Now().Add(time.Minute),
		AccessToken:  "old-access",
		RefreshToken: "old-refresh",
	}

	t.Run("success merges tokens and recomputes expiry", func(t *testing.T) {
		m := newManager(t, func(ctx context.Context, refreshToken string) (*oauth.TokenSet, error) {
			if refreshToken != "old-refresh" {
				t.Errorf("refresh token = %q", refreshToken)
			}
			return &oauth.TokenSet{AccessToken: "new-access", RefreshToken: "new-refresh"}, nil
		})

		merged, result := m.RefreshTokens(context.Background(), base)
		if !result.Success {
			t.Fatalf("result = %+v", result)
		}
		if merged.AccessToken != "new-access" || merged.RefreshToken != "new-refresh" {
			t.Errorf("merged tokens = %q/%q", merged.AccessToken, merged.RefreshToken)
		}
		if !merged.Expires.After(base.Expires) {
			t.Error("expiry not recomputed")
		}
		if merged.Error != "" {
			t.Errorf("Error = %q, want empty", merged.Error)
		}
	})

	t.Run("missing new refresh token keeps the prior one", func(t *testing.T) {
		m := newManager(t, func(ctx context.Context, refreshToken string) (*oauth.TokenSet, error) {
			return &oauth.TokenSet{AccessToken: "new-access"}, nil
		})

		merged, result := m.RefreshTokens(context.Background(), base)
		if !result.Success {
			t.Fatalf("result = %+v", result)
		}
		if merged.RefreshToken != "old-refresh" {
			t.Errorf("RefreshToken = %q, want the prior token kept", merged.RefreshToken)
		}
	})

	t.Run("failure degrades instead of destroying", func(t *testing.T) {
		m := newManager(t, func(ctx context.Context, refreshToken string) (*oauth.TokenSet, error) {
			return nil, errors.New("provider down")
		})

		merged, result := m.RefreshTokens(context.Background(), base)
		if result.Success {
			t.Fatal("expected failure result")
		}
		if result.Err == nil {
			t.Error("failure result carries no error")
		}
		if merged.Error != RefreshTokenError {
			t.Errorf("Error marker = %q, want %q", merged.Error, RefreshTokenError)
		}
		// The session itself survives.
		if merged.AccessToken != "old-access" || merged.RefreshToken != "old-refresh" {
			t.Errorf("session tokens mutated on failure: %q/%q", merged.AccessToken, merged.RefreshToken)
		}
	})

	t.Run("panicking refresh degrades the session", func(t *testing.T) {
		m := newManager(t, func(ctx context.Context, refreshToken string) (*oauth.TokenSet, error) {
			panic("provider client bug")
		})

		merged, result := m.RefreshTokens(context.Background(), base)
		if result == nil || result.Success {
			t.Fatalf("result = %+v, want failure", result)
		}
		if result.Err == nil {
			t.Error("failure result carries no error")
		}
		if merged.Error != RefreshTokenError {
			t.Errorf("Error marker = %q, want %q", merged.Error, RefreshTokenError)
		}
	})

	t.Run("concurrent refreshes share one exchange", func(t *testing.T) {
		var calls atomic.Int64
		m := newManager(t, func(ctx context.Context, refreshToken string) (*oauth.TokenSet, error) {
			calls.Add(1)
			time.Sleep(30 * time.Millisecond)
			return &oauth.TokenSet{AccessToken: "new-access"}, nil
		})

		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, result := m.RefreshTokens(context.Background(), base)
				if !result.Success {
					t.Errorf("result = %+v", result)
				}
			}()
		}
		wg.Wait()

		if calls.Load() != 1 {
			t.Errorf("outbound exchanges = %d, want exactly 1", calls.Load())
		}
	})
}

package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/authkit/go-authkit/pkg/oauth"
)

// RefreshFunc performs the actual upstream token refresh, typically
// oauth.Engine.Refresh bound to a provider.
type RefreshFunc func(ctx context.Context, refreshToken string) (*oauth.TokenSet, error)

// RefreshResult captures the outcome of an upstream token refresh.
// Failures are data, not errors: a failed refresh degrades the session
// instead of destroying it.
type RefreshResult struct {
	Success bool
	Tokens  *oauth.TokenSet
	Err     error
}

// inflight is one refresh in progress. Waiters block on done and then
// read result.
type inflight struct {
	done   chan struct{}
	result *RefreshResult
}

// refreshCoordinator deduplicates concurrent refreshes per user id.
// Providers may invalidate a refresh token after first use, so two
// concurrent exchanges with the same refresh token are a correctness
// hazard, not just wasted work.
type refreshCoordinator struct {
	mu       sync.Mutex
	inflight map[string]*inflight
}

func newRefreshCoordinator() *refreshCoordinator {
	return &refreshCoordinator{
		inflight: make(map[string]*inflight),
	}
}

// do runs fn for userID, or joins the refresh already in flight for that
// user. The in-flight entry is installed before fn starts and removed
// after it finishes, success or failure, so a crashed refresh cannot
// wedge the key.
func (c *refreshCoordinator) do(userID string, fn func() *RefreshResult) *RefreshResult {
	c.mu.Lock()
	if entry, ok := c.inflight[userID]; ok {
		c.mu.Unlock()
		<-entry.done
		return entry.result
	}

	entry := &inflight{done: make(chan struct{})}
	c.inflight[userID] = entry
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(c.inflight, userID)
		c.mu.Unlock()
		close(entry.done)
	}()

	entry.result = runRefresh(fn)
	return entry.result
}

// runRefresh converts a panicking or nil-returning refresh into a
// failure result, so waiters on the shared entry never observe nil.
func runRefresh(fn func() *RefreshResult) (result *RefreshResult) {
	defer func() {
		if r := recover(); r != nil {
			result = &RefreshResult{Success: false, Err: fmt.Errorf("session: refresh panicked: %v", r)}
		}
		if result == nil {
			result = &RefreshResult{Success: false, Err: errors.New("session: refresh returned no result")}
		}
	}()
	return fn()
}

// reset drops all in-flight entries. Intended for test isolation; waiters
// on dropped entries still complete through their original closers.
func (c *refreshCoordinator) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inflight = make(map[string]*inflight)
}

// ShouldRefresh reports whether a session close enough to expiry should
// have its upstream tokens refreshed. The threshold compares session
// expiry rather than the upstream token's own expiry, which is not always
// observable.
func ShouldRefresh(expires time.Time, now time.Time, threshold time.Duration) bool {
	if threshold <= 0 {
		threshold = DefaultRefreshThreshold
	}
	return expires.Sub(now) < threshold
}

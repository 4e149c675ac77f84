// Package automation performs DOM-level engagement actions against an
// authenticated browser session.
//
// The package depends only on the Browser/Session capability interfaces; the
// concrete driver (a remote DevTools endpoint, or a stub in tests) lives
// behind them. Every operation degrades to a boolean or empty result rather
// than raising failures past the executor.
package automation

import (
	"context"
	"time"

	"github.com/eacar/amplify/internal/domain"
)

// Browser provides authenticated automation sessions. Launch must be called
// before NewSession; Close tears down the engine and any open session.
type Browser interface {
	Launch(ctx context.Context) error
	NewSession(ctx context.Context, account domain.Account) (Session, error)
	Close() error
}

// Session is an authenticated automation context for exactly one account.
// It is opened, used, and closed within a single loop iteration and never
// shared across accounts or runs.
type Session interface {
	// Navigate loads the given URL and waits for the document to load.
	Navigate(ctx context.Context, url string) error
	// WaitVisible blocks until an element matching the selector is present
	// and visible, or the timeout elapses.
	WaitVisible(ctx context.Context, selector string, timeout time.Duration) error
	// Click activates the first element matching the selector.
	Click(ctx context.Context, selector string) error
	// Type focuses the element matching the selector and types the text with
	// a per-character delay.
	Type(ctx context.Context, selector, text string, delay time.Duration) error
	// Text returns the text content of the first element matching the
	// selector.
	Text(ctx context.Context, selector string) (string, error)
	// URL returns the session's current location.
	URL(ctx context.Context) (string, error)
	Close() error
}

// TextGenerator produces reply text grounded on the target's content. An
// empty result (or an error) is not fatal; the executor falls back to the
// phrase pool.
type TextGenerator interface {
	Generate(ctx context.Context, sourceText string, style domain.CommentStyle) (string, error)
}

// sleep waits for d unless the context is cancelled first.
func sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

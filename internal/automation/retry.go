package automation

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

const (
	// DefaultMaxRetries is the number of full passes over a strategy list
	// before a click is declared failed.
	DefaultMaxRetries = 3
	// elementWaitTimeout bounds how long a single strategy waits for its
	// element to appear.
	elementWaitTimeout = 5 * time.Second
	// retryBackoff separates full passes over the strategy list.
	retryBackoff = 2 * time.Second
)

// ClickWithRetry attempts each locator strategy in order; the first strategy
// that locates and activates its element wins. When no strategy succeeds the
// whole list is retried after a fixed backoff, up to maxRetries full passes.
// Returns false when exhausted or when the context is cancelled; never
// returns an error.
func ClickWithRetry(ctx context.Context, session Session, strategies []string, label string, maxRetries int, log zerolog.Logger) bool {
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}

	for attempt := 0; attempt < maxRetries; attempt++ {
		if ctx.Err() != nil {
			return false
		}

		for _, selector := range strategies {
			if err := session.WaitVisible(ctx, selector, elementWaitTimeout); err != nil {
				continue
			}
			if err := session.Click(ctx, selector); err != nil {
				continue
			}
			log.Debug().Str("action", label).Str("selector", selector).Msg("Element clicked")
			return true
		}

		if attempt < maxRetries-1 {
			log.Debug().
				Str("action", label).
				Int("attempt", attempt+1).
				Int("max_retries", maxRetries).
				Msg("No strategy matched, retrying")
			sleep(ctx, retryBackoff)
		}
	}

	log.Warn().Str("action", label).Msg("All locator strategies exhausted")
	return false
}

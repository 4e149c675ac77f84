package automation

import (
	"context"
	"strings"
	"time"

	"github.com/eacar/amplify/internal/domain"
	"github.com/rs/zerolog"
)

// Timing groups the settle delays between DOM interactions. The defaults
// mimic human pacing; tests substitute near-zero values.
type Timing struct {
	AfterLike    time.Duration
	RetweetOpen  time.Duration // between the open click and the confirm click
	AfterRetweet time.Duration
	AfterOpen    time.Duration // after the reply composer opens
	AfterFocus   time.Duration // after focusing the text surface
	BeforeSend   time.Duration
	AfterSend    time.Duration
	TypeDelay    time.Duration // per typed character
	TextboxWait  time.Duration // per text-surface candidate
	MaxRetries   int
}

// DefaultTiming returns the production pacing.
func DefaultTiming() Timing {
	return Timing{
		AfterLike:    2 * time.Second,
		RetweetOpen:  1500 * time.Millisecond,
		AfterRetweet: 2 * time.Second,
		AfterOpen:    2 * time.Second,
		AfterFocus:   500 * time.Millisecond,
		BeforeSend:   2 * time.Second,
		AfterSend:    3 * time.Second,
		TypeDelay:    100 * time.Millisecond,
		TextboxWait:  3 * time.Second,
		MaxRetries:   DefaultMaxRetries,
	}
}

// Executor performs like/retweet/reply actions against a session. All
// failures degrade to a boolean or empty result with a locally logged
// reason; nothing escapes to the caller.
type Executor struct {
	textGen TextGenerator
	pool    *Pool
	timing  Timing
	log     zerolog.Logger
}

// NewExecutor creates an executor with production timing.
func NewExecutor(textGen TextGenerator, log zerolog.Logger) *Executor {
	return NewExecutorWithTiming(textGen, DefaultTiming(), log)
}

// NewExecutorWithTiming creates an executor with custom pacing. This is
// primarily used for testing.
func NewExecutorWithTiming(textGen TextGenerator, timing Timing, log zerolog.Logger) *Executor {
	return &Executor{
		textGen: textGen,
		pool:    NewPool(),
		timing:  timing,
		log:     log.With().Str("component", "executor").Logger(),
	}
}

// LoadTarget navigates the session to the target post and waits for the post
// surface to render. Returns false on any failure.
func (e *Executor) LoadTarget(ctx context.Context, session Session, url string) bool {
	if err := session.Navigate(ctx, url); err != nil {
		e.log.Warn().Err(err).Str("url", url).Msg("Target navigation failed")
		return false
	}
	if err := session.WaitVisible(ctx, PostArticleSelector, 10*time.Second); err != nil {
		e.log.Warn().Err(err).Str("url", url).Msg("Target post did not render")
		return false
	}
	return true
}

// ExtractText returns the target post's text content, or empty on failure.
// Absence only disables AI-grounded replies; it never aborts processing.
func (e *Executor) ExtractText(ctx context.Context, session Session) string {
	text, err := session.Text(ctx, PostTextSelector)
	if err != nil {
		e.log.Debug().Err(err).Msg("Post text not readable")
		return ""
	}
	return strings.TrimSpace(text)
}

// Like clicks the like control.
func (e *Executor) Like(ctx context.Context, session Session) bool {
	ok := ClickWithRetry(ctx, session, likeSelectors, "like", e.timing.MaxRetries, e.log)
	sleep(ctx, e.timing.AfterLike)
	return ok
}

// Retweet is two sequential retry-protected clicks: open, then confirm.
// The confirm click is only attempted after the open click succeeded, and
// either failure is overall failure.
func (e *Executor) Retweet(ctx context.Context, session Session) bool {
	if !ClickWithRetry(ctx, session, retweetSelectors, "retweet", e.timing.MaxRetries, e.log) {
		return false
	}

	sleep(ctx, e.timing.RetweetOpen)

	confirmed := ClickWithRetry(ctx, session, retweetConfirmSelectors, "retweet confirm", e.timing.MaxRetries, e.log)
	sleep(ctx, e.timing.AfterRetweet)
	return confirmed
}

// Reply posts a comment and returns the text actually posted, or empty on
// failure. Partial progress (composer opened, text typed, send failed) is
// not reported as success.
func (e *Executor) Reply(ctx context.Context, session Session, targetText string, useAI bool, style domain.CommentStyle) string {
	comment := e.composeComment(ctx, targetText, useAI, style)

	if !ClickWithRetry(ctx, session, replySelectors, "reply", e.timing.MaxRetries, e.log) {
		return ""
	}

	sleep(ctx, e.timing.AfterOpen)

	if !e.typeIntoComposer(ctx, session, comment) {
		e.log.Warn().Msg("No reply text surface found")
		return ""
	}

	sleep(ctx, e.timing.BeforeSend)

	if !ClickWithRetry(ctx, session, replySendSelectors, "reply send", e.timing.MaxRetries, e.log) {
		return ""
	}

	sleep(ctx, e.timing.AfterSend)
	return comment
}

// composeComment prefers AI-generated text grounded on the target's content;
// any failure or empty result falls through to the rotating phrase pool.
func (e *Executor) composeComment(ctx context.Context, targetText string, useAI bool, style domain.CommentStyle) string {
	if useAI && targetText != "" && e.textGen != nil {
		text, err := e.textGen.Generate(ctx, targetText, style)
		if err != nil {
			e.log.Info().Err(err).Msg("AI text generation unavailable, using phrase pool")
		} else if text != "" {
			return text
		}
	}
	return e.pool.Next()
}

// typeIntoComposer locates a text-entry surface among several structurally
// distinct candidates and types the comment into the first that appears.
func (e *Executor) typeIntoComposer(ctx context.Context, session Session, comment string) bool {
	for _, selector := range replyTextboxSelectors {
		if err := session.WaitVisible(ctx, selector, e.timing.TextboxWait); err != nil {
			continue
		}
		if err := session.Click(ctx, selector); err != nil {
			continue
		}
		sleep(ctx, e.timing.AfterFocus)
		if err := session.Type(ctx, selector, comment, e.timing.TypeDelay); err != nil {
			continue
		}
		return true
	}
	return false
}

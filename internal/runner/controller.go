// Package runner owns the run state machine. It admits at most one
// active run process-wide and drives the sequential per-account loop:
// authenticate, load target, decide allowed actions, execute them,
// record the outcome, throttle, next account.
package runner

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/eacar/amplify/internal/automation"
	"github.com/eacar/amplify/internal/distribution"
	"github.com/eacar/amplify/internal/domain"
	"github.com/eacar/amplify/internal/logbus"
	"github.com/eacar/amplify/internal/modules/settings"
)

// Admission errors returned synchronously by Start and Stop.
var (
	ErrAlreadyRunning = errors.New("a run is already in progress")
	ErrNotRunning     = errors.New("no run in progress")
	ErrInvalidTarget  = errors.New("invalid target url")
	ErrNoAccounts     = errors.New("no accounts selected")
)

// DefaultInterAccountDelay is the throttle between consecutive account
// sessions. Spacing the sessions out avoids burst patterns.
const DefaultInterAccountDelay = 5 * time.Second

// AccountSource resolves an ordered account-id selection.
type AccountSource interface {
	ListByIDs(ids []string) ([]domain.Account, error)
}

// UsageSource serves historical per-account action counts.
type UsageSource interface {
	UsageCounts(names []string) (map[string]domain.UsageStats, error)
}

// ActivityRecorder persists per-account run outcomes. Best-effort: a
// recording failure is logged and never aborts the run.
type ActivityRecorder interface {
	Record(activity domain.Activity) error
}

// SettingsSource loads the automatic distribution configuration at run
// admission time.
type SettingsSource interface {
	GetAutoDistribution() (settings.AutoDistribution, error)
}

// run is the mutable state of one admitted run.
type run struct {
	id         string
	targetURL  string
	accountIDs []string
	auto       settings.AutoDistribution
	cancel     context.CancelFunc
}

// Controller is the run state machine. All exported methods are safe
// for concurrent use.
type Controller struct {
	browser  automation.Browser
	executor *automation.Executor
	bus      *logbus.Bus
	accounts AccountSource
	usage    UsageSource
	recorder ActivityRecorder
	settings SettingsSource
	log      zerolog.Logger

	interAccountDelay time.Duration

	mu            sync.Mutex
	running       bool
	stopRequested bool
	current       *run
	session       automation.Session // in-flight session, torn down on stop
}

// New creates a run controller.
func New(
	browser automation.Browser,
	executor *automation.Executor,
	bus *logbus.Bus,
	accounts AccountSource,
	usage UsageSource,
	recorder ActivityRecorder,
	settingsSource SettingsSource,
	log zerolog.Logger,
) *Controller {
	return &Controller{
		browser:           browser,
		executor:          executor,
		bus:               bus,
		accounts:          accounts,
		usage:             usage,
		recorder:          recorder,
		settings:          settingsSource,
		log:               log.With().Str("component", "runner").Logger(),
		interAccountDelay: DefaultInterAccountDelay,
	}
}

// Start admits a new run. It validates the request, transitions to
// running, clears the log buffer for the new session and launches the
// loop in the background. Returns immediately without waiting on the
// loop. Fails with ErrAlreadyRunning while a run is active.
func (c *Controller) Start(targetURL string, accountIDs []string, runID string) error {
	parsed, err := url.Parse(targetURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return ErrInvalidTarget
	}
	if len(accountIDs) == 0 {
		return ErrNoAccounts
	}

	auto, err := c.settings.GetAutoDistribution()
	if err != nil {
		return fmt.Errorf("failed to load distribution settings: %w", err)
	}

	if runID == "" {
		runID = uuid.NewString()
	}

	ctx, cancel := context.WithCancel(context.Background())

	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		cancel()
		return ErrAlreadyRunning
	}
	c.running = true
	c.stopRequested = false
	c.current = &run{
		id:         runID,
		targetURL:  targetURL,
		accountIDs: accountIDs,
		auto:       auto,
		cancel:     cancel,
	}
	active := c.current
	c.mu.Unlock()

	c.bus.Clear()
	c.log.Info().
		Str("run_id", runID).
		Str("target", targetURL).
		Int("accounts", len(accountIDs)).
		Msg("Run admitted")

	go c.drive(ctx, active)

	return nil
}

// Stop requests cooperative shutdown of the active run. The loop
// observes the flag at its next checkpoint; the in-flight session is
// additionally torn down to shorten the tail of any blocking call.
func (c *Controller) Stop() error {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return ErrNotRunning
	}
	c.stopRequested = true
	current := c.current
	session := c.session
	c.mu.Unlock()

	c.log.Info().Msg("Stop requested")
	c.appendLog(current.id, logbus.SystemAccountID, "", domain.LogWarning, "Stop requested")

	if current.cancel != nil {
		current.cancel()
	}
	if session != nil {
		_ = session.Close()
	}

	return nil
}

// Running reports whether a run is active.
func (c *Controller) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// stopped reports whether stop has been requested for the active run.
func (c *Controller) stopped() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stopRequested
}

// drive executes the run loop and guarantees the transition back to
// idle regardless of how the loop exits.
func (c *Controller) drive(ctx context.Context, active *run) {
	defer func() {
		c.mu.Lock()
		c.running = false
		c.stopRequested = false
		c.current = nil
		c.session = nil
		c.mu.Unlock()
		active.cancel()
	}()

	if err := c.browser.Launch(ctx); err != nil {
		c.log.Error().Err(err).Msg("Automation engine failed to launch")
		c.appendLog(active.id, logbus.SystemAccountID, "", domain.LogError,
			"Automation engine failed to launch: "+err.Error())
		return
	}

	c.loop(ctx, active)
}

func (c *Controller) loop(ctx context.Context, active *run) {
	selected, err := c.accounts.ListByIDs(active.accountIDs)
	if err != nil {
		c.log.Error().Err(err).Msg("Failed to resolve account selection")
		c.appendLog(active.id, logbus.SystemAccountID, "", domain.LogError,
			"Failed to resolve account selection: "+err.Error())
		return
	}

	enabled := make([]domain.Account, 0, len(selected))
	for _, account := range selected {
		if account.Enabled {
			enabled = append(enabled, account)
		}
	}
	skipped := len(active.accountIDs) - len(enabled)
	if skipped > 0 {
		c.appendLog(active.id, logbus.SystemAccountID, "", domain.LogWarning,
			fmt.Sprintf("%d skipped", skipped))
	}
	if len(enabled) == 0 {
		c.log.Error().Msg("No enabled accounts in selection")
		c.appendLog(active.id, logbus.SystemAccountID, "", domain.LogError,
			"No enabled accounts in selection")
		return
	}

	// Automatic mode decides action eligibility once for the whole
	// filtered set. Manual mode derives it per account below.
	var computed map[string]domain.ActionDistribution
	if active.auto.Enabled {
		names := make([]string, len(enabled))
		for i, account := range enabled {
			names[i] = account.Name
		}
		usage, err := c.usage.UsageCounts(names)
		if err != nil {
			c.log.Warn().Err(err).Msg("Usage counts unavailable, ranking without history")
			usage = map[string]domain.UsageStats{}
		}
		computed = distribution.Automatic(enabled, active.auto.Percentages, usage)
	}

	c.appendLog(active.id, logbus.SystemAccountID, "", domain.LogInfo,
		fmt.Sprintf("Run started with %d accounts", len(enabled)))

	processed := 0
	for i, account := range enabled {
		if c.stopped() {
			c.appendLog(active.id, logbus.SystemAccountID, "", domain.LogWarning,
				"Run stopped before processing remaining accounts")
			break
		}

		if c.processAccount(ctx, active, account, computed) {
			processed++
		}

		last := i == len(enabled)-1
		if c.stopped() {
			c.appendLog(active.id, logbus.SystemAccountID, "", domain.LogWarning,
				"Run stopped")
			break
		}
		if !last {
			c.sleep(ctx, c.interAccountDelay)
		}
	}

	if !c.stopped() {
		c.appendLog(active.id, logbus.SystemAccountID, "", domain.LogSuccess,
			fmt.Sprintf("Run completed: %d accounts processed", processed))
		c.log.Info().
			Str("run_id", active.id).
			Int("processed", processed).
			Msg("Run completed")
	}
}

// processAccount runs the full action sequence for one account. Every
// failure is scoped to this account; the caller always continues with
// the next one. Returns true when the account was actually processed,
// meaning a session was opened and the target loaded; accounts that
// fail before that point do not count toward the completion summary.
func (c *Controller) processAccount(ctx context.Context, active *run, account domain.Account, computed map[string]domain.ActionDistribution) bool {
	started := time.Now()

	session, err := c.browser.NewSession(ctx, account)
	if err != nil {
		c.log.Warn().Err(err).Str("account", account.Name).Msg("Session authentication failed")
		c.appendLog(active.id, account.ID, account.Name, domain.LogError,
			"Session authentication failed: "+err.Error())
		return false
	}

	c.mu.Lock()
	c.session = session
	c.mu.Unlock()

	defer func() {
		_ = session.Close()

		c.mu.Lock()
		c.session = nil
		c.mu.Unlock()
	}()

	if !c.executor.LoadTarget(ctx, session, active.targetURL) {
		c.appendLog(active.id, account.ID, account.Name, domain.LogError,
			"Failed to load target post")
		return false
	}

	targetText := c.executor.ExtractText(ctx, session)

	if c.stopped() {
		return true
	}

	allowed := distribution.Resolve(account, active.auto.Enabled, computed)

	activity := domain.Activity{
		TargetURL:   active.targetURL,
		AccountName: account.Name,
		Timestamp:   time.Now().UTC(),
	}

	if allowed.Like {
		if c.executor.Like(ctx, session) {
			activity.Actions.Liked = true
			c.appendLog(active.id, account.ID, account.Name, domain.LogSuccess, "Liked")
		} else {
			c.appendLog(active.id, account.ID, account.Name, domain.LogWarning, "Like failed")
		}
	}

	if allowed.Retweet && !c.stopped() {
		if c.executor.Retweet(ctx, session) {
			activity.Actions.Retweeted = true
			c.appendLog(active.id, account.ID, account.Name, domain.LogSuccess, "Retweeted")
		} else {
			c.appendLog(active.id, account.ID, account.Name, domain.LogWarning, "Retweet failed")
		}
	}

	if allowed.Comment && !c.stopped() {
		posted := c.executor.Reply(ctx, session, targetText, account.UseAI, account.CommentStyle)
		if posted != "" {
			activity.Actions.Commented = true
			activity.CommentText = posted
			c.appendLog(active.id, account.ID, account.Name, domain.LogSuccess,
				"Commented: "+posted)
		} else {
			c.appendLog(active.id, account.ID, account.Name, domain.LogWarning, "Comment failed")
		}
	}

	activity.Duration = time.Since(started)

	if err := c.recorder.Record(activity); err != nil {
		c.log.Warn().Err(err).Str("account", account.Name).Msg("Failed to record activity")
	}

	return true
}

func (c *Controller) appendLog(sessionID, accountID, accountName string, level domain.LogLevel, message string) {
	c.bus.Append(sessionID, accountID, accountName, level, message)
}

// sleep waits for the duration or until the run context is cancelled.
func (c *Controller) sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

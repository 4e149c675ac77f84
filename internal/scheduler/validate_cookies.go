package scheduler

import (
	"context"
	"time"

	"github.com/eacar/amplify/internal/modules/accounts"
)

// ValidateCookiesJob re-checks every account's session cookies on a
// schedule. Validation is skipped while a run is active so the two
// never fight over browser sessions.
type ValidateCookiesJob struct {
	validator *accounts.Validator
	runActive func() bool
	timeout   time.Duration
}

// NewValidateCookiesJob creates the periodic cookie validation job.
func NewValidateCookiesJob(validator *accounts.Validator, runActive func() bool) *ValidateCookiesJob {
	return &ValidateCookiesJob{
		validator: validator,
		runActive: runActive,
		timeout:   10 * time.Minute,
	}
}

// Name implements Job.
func (j *ValidateCookiesJob) Name() string { return "validate_cookies" }

// Run implements Job.
func (j *ValidateCookiesJob) Run() error {
	if j.runActive != nil && j.runActive() {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	return j.validator.ValidateAll(ctx)
}

package accounts

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/eacar/amplify/internal/automation"
	"github.com/eacar/amplify/internal/domain"
)

const (
	validationURL = "https://x.com/home"

	// Landing on either of these after navigating home means the
	// session cookies no longer authenticate.
	loginPath     = "/login"
	loginFlowPath = "/i/flow/login"
)

// Validator checks whether stored account cookies still authenticate
// by opening a browser session and watching for a login redirect.
type Validator struct {
	repo    *Repository
	browser automation.Browser
	log     zerolog.Logger
}

// NewValidator creates a new cookie validator.
func NewValidator(repo *Repository, browser automation.Browser, log zerolog.Logger) *Validator {
	return &Validator{
		repo:    repo,
		browser: browser,
		log:     log.With().Str("component", "validator").Logger(),
	}
}

// Validate checks a single account's cookies and persists the result.
func (v *Validator) Validate(ctx context.Context, account domain.Account) (bool, error) {
	if len(account.Cookies) == 0 {
		if err := v.repo.SetValidation(account.ID, false, time.Now().UTC()); err != nil {
			return false, err
		}
		return false, nil
	}

	session, err := v.browser.NewSession(ctx, account)
	if err != nil {
		return false, fmt.Errorf("failed to open session for %s: %w", account.Name, err)
	}
	defer session.Close()

	if err := session.Navigate(ctx, validationURL); err != nil {
		return false, fmt.Errorf("failed to navigate for %s: %w", account.Name, err)
	}

	current, err := session.URL(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to read URL for %s: %w", account.Name, err)
	}

	valid := !strings.Contains(current, loginPath) && !strings.Contains(current, loginFlowPath)

	if err := v.repo.SetValidation(account.ID, valid, time.Now().UTC()); err != nil {
		return valid, err
	}

	v.log.Info().
		Str("account", account.Name).
		Bool("valid", valid).
		Msg("Cookie validation completed")

	return valid, nil
}

// ValidateAll checks every account in the pool. Individual failures
// are logged and skipped so one broken account does not stop the rest.
// Used by the periodic validation job.
func (v *Validator) ValidateAll(ctx context.Context) error {
	accounts, err := v.repo.List()
	if err != nil {
		return err
	}

	for _, account := range accounts {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if _, err := v.Validate(ctx, account); err != nil {
			v.log.Warn().
				Err(err).
				Str("account", account.Name).
				Msg("Cookie validation failed")
		}
	}

	return nil
}

package accounts

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eacar/amplify/internal/automation"
	"github.com/eacar/amplify/internal/database"
	"github.com/eacar/amplify/internal/domain"
)

type stubBrowser struct {
	session    *stubValidatorSession
	sessionErr error
	sessions   int
}

func (b *stubBrowser) Launch(ctx context.Context) error { return nil }
func (b *stubBrowser) Close() error                     { return nil }

func (b *stubBrowser) NewSession(ctx context.Context, account domain.Account) (automation.Session, error) {
	if b.sessionErr != nil {
		return nil, b.sessionErr
	}
	b.sessions++
	return b.session, nil
}

type stubValidatorSession struct {
	url    string
	navErr error
	closed bool
}

func (s *stubValidatorSession) Navigate(ctx context.Context, url string) error { return s.navErr }

func (s *stubValidatorSession) WaitVisible(ctx context.Context, selector string, timeout time.Duration) error {
	return nil
}

func (s *stubValidatorSession) Click(ctx context.Context, selector string) error { return nil }

func (s *stubValidatorSession) Type(ctx context.Context, selector, text string, delay time.Duration) error {
	return nil
}

func (s *stubValidatorSession) Text(ctx context.Context, selector string) (string, error) {
	return "", nil
}

func (s *stubValidatorSession) URL(ctx context.Context) (string, error) { return s.url, nil }

func (s *stubValidatorSession) Close() error {
	s.closed = true
	return nil
}

func newValidatorTest(t *testing.T, browser *stubBrowser) (*Validator, *Repository) {
	t.Helper()

	db, err := database.New(database.Config{
		Path: filepath.Join(t.TempDir(), "validator.db"),
		Name: "validator-test",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.Migrate())

	repo := NewRepository(db.Conn(), zerolog.Nop())
	return NewValidator(repo, browser, zerolog.Nop()), repo
}

func TestValidateAuthenticatedSession(t *testing.T) {
	session := &stubValidatorSession{url: "https://x.com/home"}
	browser := &stubBrowser{session: session}
	validator, repo := newValidatorTest(t, browser)

	account := testAccount("alpha")
	require.NoError(t, repo.Create(account))

	valid, err := validator.Validate(context.Background(), *account)
	require.NoError(t, err)
	assert.True(t, valid)
	assert.True(t, session.closed)

	got, err := repo.Get(account.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Validated)
	assert.True(t, *got.Validated)
	assert.NotNil(t, got.LastValidated)
}

func TestValidateLoginRedirect(t *testing.T) {
	for _, url := range []string{
		"https://x.com/login",
		"https://x.com/i/flow/login?redirect_after_login=%2Fhome",
	} {
		session := &stubValidatorSession{url: url}
		validator, repo := newValidatorTest(t, &stubBrowser{session: session})

		account := testAccount("alpha")
		require.NoError(t, repo.Create(account))

		valid, err := validator.Validate(context.Background(), *account)
		require.NoError(t, err)
		assert.False(t, valid, "url %s should be treated as unauthenticated", url)

		got, err := repo.Get(account.ID)
		require.NoError(t, err)
		require.NotNil(t, got.Validated)
		assert.False(t, *got.Validated)
	}
}

func TestValidateNoCookies(t *testing.T) {
	browser := &stubBrowser{session: &stubValidatorSession{url: "https://x.com/home"}}
	validator, repo := newValidatorTest(t, browser)

	account := testAccount("alpha")
	account.Cookies = nil
	require.NoError(t, repo.Create(account))

	valid, err := validator.Validate(context.Background(), *account)
	require.NoError(t, err)
	assert.False(t, valid)
	// No session should have been opened at all.
	assert.Zero(t, browser.sessions)
}

func TestValidateSessionError(t *testing.T) {
	browser := &stubBrowser{sessionErr: errors.New("browser unreachable")}
	validator, repo := newValidatorTest(t, browser)

	account := testAccount("alpha")
	require.NoError(t, repo.Create(account))

	_, err := validator.Validate(context.Background(), *account)
	assert.Error(t, err)

	// Validation state must stay untouched on transport errors.
	got, err := repo.Get(account.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Validated)
}

func TestValidateAllContinuesPastFailures(t *testing.T) {
	session := &stubValidatorSession{url: "https://x.com/home"}
	browser := &stubBrowser{session: session}
	validator, repo := newValidatorTest(t, browser)

	good := testAccount("good")
	require.NoError(t, repo.Create(good))
	broken := testAccount("broken")
	broken.Cookies = nil
	require.NoError(t, repo.Create(broken))

	require.NoError(t, validator.ValidateAll(context.Background()))

	gotGood, err := repo.Get(good.ID)
	require.NoError(t, err)
	require.NotNil(t, gotGood.Validated)
	assert.True(t, *gotGood.Validated)

	gotBroken, err := repo.Get(broken.ID)
	require.NoError(t, err)
	require.NotNil(t, gotBroken.Validated)
	assert.False(t, *gotBroken.Validated)
}

package server

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eacar/amplify/internal/automation"
	"github.com/eacar/amplify/internal/database"
	"github.com/eacar/amplify/internal/domain"
	"github.com/eacar/amplify/internal/logbus"
	"github.com/eacar/amplify/internal/modules/accounts"
	"github.com/eacar/amplify/internal/modules/activity"
	"github.com/eacar/amplify/internal/modules/settings"
	"github.com/eacar/amplify/internal/runner"
)

type fakeSession struct{}

func (fakeSession) Navigate(ctx context.Context, url string) error { return nil }
func (fakeSession) WaitVisible(ctx context.Context, selector string, timeout time.Duration) error {
	return nil
}
func (fakeSession) Click(ctx context.Context, selector string) error { return nil }
func (fakeSession) Type(ctx context.Context, selector, text string, delay time.Duration) error {
	return nil
}
func (fakeSession) Text(ctx context.Context, selector string) (string, error) { return "post", nil }
func (fakeSession) URL(ctx context.Context) (string, error)                   { return "https://x.com/home", nil }
func (fakeSession) Close() error                                              { return nil }

type fakeBrowser struct{}

func (fakeBrowser) Launch(ctx context.Context) error { return nil }
func (fakeBrowser) Close() error                     { return nil }
func (fakeBrowser) NewSession(ctx context.Context, account domain.Account) (automation.Session, error) {
	return fakeSession{}, nil
}

type testEnv struct {
	server      *Server
	accountRepo *accounts.Repository
	bus         *logbus.Bus
	controller  *runner.Controller
}

func newTestServer(t *testing.T) *testEnv {
	t.Helper()

	db, err := database.New(database.Config{
		Path: filepath.Join(t.TempDir(), "server.db"),
		Name: "server-test",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.Migrate())

	log := zerolog.Nop()
	accountRepo := accounts.NewRepository(db.Conn(), log)
	activityRepo := activity.NewRepository(db.Conn(), log)
	settingsService := settings.NewService(settings.NewRepository(db.Conn(), log), log)
	bus := logbus.New()

	browser := fakeBrowser{}
	executor := automation.NewExecutorWithTiming(nil, automation.Timing{
		TextboxWait: time.Millisecond,
		MaxRetries:  1,
	}, log)
	controller := runner.New(browser, executor, bus, accountRepo, activityRepo, activityRepo, settingsService, log)

	validator := accounts.NewValidator(accountRepo, browser, log)

	srv := New(Config{
		Log:             log,
		DB:              db,
		Port:            0,
		Controller:      controller,
		Bus:             bus,
		AccountRepo:     accountRepo,
		Validator:       validator,
		ActivityRepo:    activityRepo,
		SettingsService: settingsService,
	})

	return &testEnv{server: srv, accountRepo: accountRepo, bus: bus, controller: controller}
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	e.server.Router().ServeHTTP(rec, req)
	return rec
}

func waitForIdle(t *testing.T, controller *runner.Controller) {
	t.Helper()
	require.Eventually(t, func() bool { return !controller.Running() }, 5*time.Second, 5*time.Millisecond)
}

func TestHealth(t *testing.T) {
	env := newTestServer(t)

	rec := env.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestBotStatusIdle(t *testing.T) {
	env := newTestServer(t)

	rec := env.do(t, http.MethodGet, "/api/bot/status", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"is_running":false}`, rec.Body.String())
}

func TestBotStartValidation(t *testing.T) {
	env := newTestServer(t)

	rec := env.do(t, http.MethodPost, "/api/bot/start", StartRequest{
		TargetURL:  "not a url",
		AccountIDs: []string{"a1"},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/bot/start", StartRequest{
		TargetURL: "https://x.com/user/status/1",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBotStopWhenIdle(t *testing.T) {
	env := newTestServer(t)

	rec := env.do(t, http.MethodPost, "/api/bot/stop", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestBotStartRunsToCompletion(t *testing.T) {
	env := newTestServer(t)

	account := &domain.Account{
		Name:         "alpha",
		Enabled:      true,
		CanLike:      true,
		CommentStyle: domain.StyleFriendly,
	}
	require.NoError(t, env.accountRepo.Create(account))

	rec := env.do(t, http.MethodPost, "/api/bot/start", StartRequest{
		TargetURL:  "https://x.com/user/status/1",
		AccountIDs: []string{account.ID},
	})
	assert.Equal(t, http.StatusOK, rec.Code)

	waitForIdle(t, env.controller)

	// The run recorded one activity, visible through the stats endpoint.
	rec = env.do(t, http.MethodGet, "/api/bot/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var stats struct {
		Totals struct {
			Activities int `json:"activities"`
			Likes      int `json:"likes"`
		} `json:"totals"`
		Recent []domain.Activity `json:"recent"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, 1, stats.Totals.Activities)
	assert.Equal(t, 1, stats.Totals.Likes)
	require.Len(t, stats.Recent, 1)
	assert.Equal(t, "alpha", stats.Recent[0].AccountName)

	// Reset wipes the history.
	rec = env.do(t, http.MethodDelete, "/api/bot/stats", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLogEndpoints(t *testing.T) {
	env := newTestServer(t)

	env.bus.Append("run-1", logbus.SystemAccountID, "", domain.LogInfo, "hello")

	rec := env.do(t, http.MethodGet, "/api/logs", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var entries []domain.LogEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "hello", entries[0].Message)

	rec = env.do(t, http.MethodDelete, "/api/logs", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, env.bus.Len())
}

func TestLogStreamPushesBuffer(t *testing.T) {
	env := newTestServer(t)
	env.bus.Append("run-1", logbus.SystemAccountID, "", domain.LogInfo, "streamed entry")

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	req := httptest.NewRequest(http.MethodGet, "/api/logs/stream", nil).WithContext(ctx)
	rec := httptest.NewRecorder()
	env.server.Router().ServeHTTP(rec, req)

	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	body := rec.Body.String()
	assert.True(t, strings.HasPrefix(body, "data: "), "expected SSE frame, got %q", body)
	assert.Contains(t, body, "streamed entry")
}

func TestLogStreamOutlivesWriteTimeout(t *testing.T) {
	env := newTestServer(t)

	// A write timeout far below the push interval. The stream clears
	// its write deadline, so the second frame must still arrive.
	ts := httptest.NewUnstartedServer(env.server.Router())
	ts.Config.WriteTimeout = 250 * time.Millisecond
	ts.Start()
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 1500*time.Millisecond)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/api/logs/stream", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	frames := 0
	reader := bufio.NewReader(resp.Body)
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			break
		}
		if strings.HasPrefix(line, "data: ") {
			frames++
		}
	}
	assert.GreaterOrEqual(t, frames, 2)
}

func TestAccountLifecycle(t *testing.T) {
	env := newTestServer(t)

	rec := env.do(t, http.MethodPost, "/api/accounts", map[string]interface{}{
		"name":     "alpha",
		"enabled":  true,
		"can_like": true,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var created domain.Account
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.NotEmpty(t, created.ID)
	assert.Equal(t, domain.StyleFriendly, created.CommentStyle)

	rec = env.do(t, http.MethodGet, "/api/accounts", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []domain.Account
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)

	rec = env.do(t, http.MethodPost, "/api/accounts/"+created.ID+"/toggle", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/accounts/"+created.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var got domain.Account
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.False(t, got.Enabled)

	rec = env.do(t, http.MethodDelete, "/api/accounts/"+created.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/accounts/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAutoDistributionSettings(t *testing.T) {
	env := newTestServer(t)

	rec := env.do(t, http.MethodGet, "/api/settings/auto-distribution", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var cfg settings.AutoDistribution
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cfg))
	assert.False(t, cfg.Enabled)
	assert.Equal(t, settings.DefaultLikePercent, cfg.Percentages.Like)

	cfg.Enabled = true
	cfg.Percentages.Retweet = 50
	rec = env.do(t, http.MethodPut, "/api/settings/auto-distribution", cfg)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/settings/auto-distribution", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var updated settings.AutoDistribution
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.True(t, updated.Enabled)
	assert.Equal(t, 50, updated.Percentages.Retweet)

	// Out-of-range percentages are rejected at the boundary.
	cfg.Percentages.Like = 150
	rec = env.do(t, http.MethodPut, "/api/settings/auto-distribution", cfg)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSystemStatus(t *testing.T) {
	env := newTestServer(t)

	rec := env.do(t, http.MethodGet, "/api/system/status", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var status StatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.False(t, status.IsRunning)
	assert.GreaterOrEqual(t, status.MemoryPercent, 0.0)
}

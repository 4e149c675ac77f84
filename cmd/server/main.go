// Package main is the entry point for the Amplify engagement orchestration server.
// It runs targeted engagement campaigns across a fleet of social accounts: one run
// at a time, with per-account action gating, automatic usage-balanced distribution,
// and a live log stream for the dashboard.
package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/eacar/amplify/internal/automation"
	"github.com/eacar/amplify/internal/clients/devtools"
	"github.com/eacar/amplify/internal/clients/groq"
	"github.com/eacar/amplify/internal/config"
	"github.com/eacar/amplify/internal/database"
	"github.com/eacar/amplify/internal/logbus"
	"github.com/eacar/amplify/internal/modules/accounts"
	"github.com/eacar/amplify/internal/modules/activity"
	"github.com/eacar/amplify/internal/modules/settings"
	"github.com/eacar/amplify/internal/runner"
	"github.com/eacar/amplify/internal/scheduler"
	"github.com/eacar/amplify/internal/server"
	"github.com/eacar/amplify/pkg/logger"
)

func main() {
	// Load configuration first to get log level.
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{Level: "info", Pretty: true})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})
	logger.SetGlobalLogger(log)

	log.Info().Msg("Starting Amplify")

	// Single database holds accounts, activity history and settings.
	db, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "amplify.db"),
		Profile: database.ProfileStandard,
		Name:    "amplify",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	settingsRepo := settings.NewRepository(db.Conn(), log)

	// Settings database takes precedence over environment variables, so that
	// credentials updated through the UI apply without a restart.
	if err := cfg.UpdateFromSettings(settingsRepo); err != nil {
		log.Warn().Err(err).Msg("Failed to update config from settings, using environment variables")
	}

	accountRepo := accounts.NewRepository(db.Conn(), log)
	activityRepo := activity.NewRepository(db.Conn(), log)
	settingsService := settings.NewService(settingsRepo, log)

	bus := logbus.New()

	textGen := groq.New(groq.Config{
		APIKey: cfg.GroqAPIKey,
		Model:  cfg.GroqModel,
	}, log)

	browser := devtools.New(cfg.DevToolsURL, log)
	executor := automation.NewExecutor(textGen, log)

	controller := runner.New(browser, executor, bus, accountRepo, activityRepo, activityRepo, settingsService, log)
	validator := accounts.NewValidator(accountRepo, browser, log)

	// Periodic cookie validation runs in the background and stands down
	// while a run is active so it never competes for browser sessions.
	sched := scheduler.New(log)
	if err := sched.AddJob(cfg.ValidationSchedule, scheduler.NewValidateCookiesJob(validator, controller.Running)); err != nil {
		log.Fatal().Err(err).Str("schedule", cfg.ValidationSchedule).Msg("Failed to schedule cookie validation")
	}
	sched.Start()

	srv := server.New(server.Config{
		Log:             log,
		DB:              db,
		Port:            cfg.Port,
		DevMode:         cfg.DevMode,
		Controller:      controller,
		Bus:             bus,
		AccountRepo:     accountRepo,
		Validator:       validator,
		ActivityRepo:    activityRepo,
		SettingsService: settingsService,
	})

	go func() {
		if err := srv.Start(); err != nil {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	// Block until SIGINT or SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down...")

	// Stop any active run before tearing down the browser connection.
	if controller.Running() {
		if err := controller.Stop(); err != nil {
			log.Error().Err(err).Msg("Error stopping active run")
		}
	}

	sched.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	if err := browser.Close(); err != nil {
		log.Error().Err(err).Msg("Error closing browser connection")
	}

	log.Info().Msg("Server stopped")
}

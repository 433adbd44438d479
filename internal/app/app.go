// Package app provides application-level orchestration and dependency injection.
// This package wires together all components and manages the application lifecycle.
package app

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"fyne.io/fyne/v2"
	fyneapp "fyne.io/fyne/v2/app"

	"github.com/ytaudio/tubetune/internal/adapter/eventbus"
	fetchermock "github.com/ytaudio/tubetune/internal/adapter/fetcher/mock"
	"github.com/ytaudio/tubetune/internal/adapter/fetcher/youtube"
	"github.com/ytaudio/tubetune/internal/adapter/player/beep"
	playermock "github.com/ytaudio/tubetune/internal/adapter/player/mock"
	"github.com/ytaudio/tubetune/internal/adapter/store/file"
	fyneui "github.com/ytaudio/tubetune/internal/adapter/ui/fyne"
	"github.com/ytaudio/tubetune/internal/cache"
	"github.com/ytaudio/tubetune/internal/logger"
	"github.com/ytaudio/tubetune/internal/ports"
	"github.com/ytaudio/tubetune/internal/service"
)

// Application is the root application structure that holds all dependencies.
// It follows the Dependency Injection pattern with constructor-based injection.
//
// The Application struct is responsible for:
// - Creating and wiring all dependencies
// - Managing the application lifecycle (startup, shutdown)
// - Providing a clean entry point for main.go
type Application struct {
	// Core dependencies
	logger  *slog.Logger
	fyneApp fyne.App

	// Infrastructure
	eventBus ports.EventBus
	cacheDir *cache.Dir
	player   ports.Player
	fetcher  ports.Fetcher
	store    ports.PlaylistStore

	// Services
	playbackService *service.PlaybackService
	playlistService *service.PlaylistService
	engineService   *service.EngineService

	// UI
	presenter  *fyneui.Presenter
	mainWindow *fyneui.MainWindow
}

// Config holds application configuration.
type Config struct {
	// AppID is the unique application identifier
	AppID string

	// PlaylistPath is the JSON file the playlist persists to
	PlaylistPath string

	// CacheDir is the directory downloaded audio files are kept in
	CacheDir string

	// PollInterval is how often playback position is sampled
	PollInterval time.Duration

	// EndThreshold is how close to the end counts as track completion
	// (zero means one poll interval)
	EndThreshold time.Duration

	// DefaultVolume is the startup volume in percent
	DefaultVolume int

	// UseMockAV swaps the speaker output and the network fetcher for mocks
	// (for testing)
	UseMockAV bool

	// LogLevel controls logging verbosity
	LogLevel slog.Level

	// TestFyneApp allows injecting a test Fyne app for testing (nil for production)
	TestFyneApp fyne.App
}

// DefaultConfig returns the default application configuration.
func DefaultConfig() Config {
	loggerCfg := logger.DefaultConfig()
	return Config{
		AppID:         "com.tubetune.app",
		PlaylistPath:  filepath.Join(userDir(os.UserConfigDir), "playlist.json"),
		CacheDir:      filepath.Join(userDir(os.UserCacheDir), "tracks"),
		PollInterval:  250 * time.Millisecond,
		DefaultVolume: 30,
		UseMockAV:     false,
		LogLevel:      loggerCfg.Level,
	}
}

// userDir resolves a per-user base directory, falling back to the working
// directory when the platform dir is unavailable.
func userDir(base func() (string, error)) string {
	dir, err := base()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "tubetune")
}

// NewApplication creates a new application with all dependencies wired.
// This is the main dependency injection function.
func NewApplication(config Config) (*Application, error) {
	app := &Application{}

	// Step 1: Create Fyne application
	if config.TestFyneApp != nil {
		app.fyneApp = config.TestFyneApp
	} else {
		app.fyneApp = fyneapp.NewWithID(config.AppID)
	}

	// Step 1.5: Create logger
	loggerCfg := logger.Config{
		Level:  config.LogLevel,
		Format: "text",
	}
	app.logger = logger.NewLogger(loggerCfg)
	app.logger.Info("initializing application",
		slog.String("app_id", config.AppID),
		slog.String("playlist", config.PlaylistPath),
		slog.String("cache", config.CacheDir))

	// Step 2: Create an event bus
	syncBus := eventbus.NewSyncEventBus()
	syncBus.SetLogger(app.logger.With(slog.String("component", "eventbus")))
	app.eventBus = syncBus

	// Step 3: Create the audio cache
	cacheDir, err := cache.New(config.CacheDir, app.logger.With(slog.String("component", "cache")))
	if err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	app.cacheDir = cacheDir

	// Step 4: Create the playlist store
	store, err := file.NewStore(config.PlaylistPath, app.logger.With(slog.String("component", "store")))
	if err != nil {
		return nil, fmt.Errorf("failed to open playlist store: %w", err)
	}
	app.store = store

	// Step 5: Create the player and the fetcher
	if config.UseMockAV {
		app.player = playermock.NewPlayer()
		app.fetcher = fetchermock.NewFetcher(cacheDir)
	} else {
		app.player = beep.NewPlayer(config.DefaultVolume, app.logger.With(slog.String("player", "beep")))
		app.fetcher = youtube.NewFetcher(cacheDir, app.logger.With(slog.String("fetcher", "youtube")))
	}

	// Step 6: Create services (with dependency injection)
	app.playbackService = service.NewPlaybackService(
		app.logger.With(slog.String("service", "playback")),
		app.player,
		app.eventBus,
		config.PollInterval,
		config.EndThreshold,
		config.DefaultVolume,
	)

	app.playlistService, err = service.NewPlaylistService(
		app.logger.With(slog.String("service", "playlist")),
		app.store,
		app.eventBus,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create playlist service: %w", err)
	}

	app.engineService = service.NewEngineService(
		app.logger.With(slog.String("service", "engine")),
		app.fetcher,
		app.playbackService,
		app.playlistService,
		app.eventBus,
	)

	// Step 7: Create UI
	app.mainWindow = fyneui.NewMainWindow(app.fyneApp)

	// Step 8: Create Presenter and wire with UI
	app.presenter = fyneui.NewPresenter(
		app.logger.With(slog.String("component", "presenter")),
		app.engineService,
		app.playlistService,
		app.eventBus,
		app.mainWindow,
	)

	// Connect presenter to the main window
	app.mainWindow.SetPresenter(app.presenter)

	return app, nil
}

// Run starts the application.
// This is called from main.go after the application is created.
func (a *Application) Run() {
	a.logger.Info("TubeTune started", slog.String("version", GetVersionInfo().FullString()))

	// Show and run UI (blocks until the window is closed)
	a.mainWindow.ShowAndRun()
}

// Shutdown gracefully shuts down the application.
// This should be called via deferring in main.go.
func (a *Application) Shutdown() {
	a.logger.Info("shutting down application")

	// Shutdown UI and presenter
	if a.presenter != nil {
		a.presenter.Shutdown()
	}

	// Shutdown services (in reverse order of creation)
	if a.engineService != nil {
		if err := a.engineService.Shutdown(); err != nil {
			a.logger.Warn("failed to shutdown engine service", slog.Any("error", err))
		}
	}

	if a.playbackService != nil {
		if err := a.playbackService.Shutdown(); err != nil {
			a.logger.Warn("failed to shutdown playback service", slog.Any("error", err))
		}
	}

	// Drop cached audio for tracks no longer on the durable playlist. Nothing
	// is playing at this point.
	if a.cacheDir != nil && a.playlistService != nil {
		keep := make([]string, 0)
		for _, song := range a.playlistService.Songs() {
			keep = append(keep, song.ID)
		}
		a.cacheDir.Purge(keep...)
	}

	if a.eventBus != nil {
		if err := a.eventBus.Close(); err != nil {
			a.logger.Warn("failed to close event bus", slog.Any("error", err))
		}
	}

	a.logger.Info("application shutdown complete")
}

// GetServices returns the application services (used by tests).
func (a *Application) GetServices() (*service.PlaybackService, *service.PlaylistService, *service.EngineService) {
	return a.playbackService, a.playlistService, a.engineService
}

// GetEventBus returns the event bus (used by tests).
func (a *Application) GetEventBus() ports.EventBus {
	return a.eventBus
}

// GetFyneApp returns the Fyne application (used by tests).
func (a *Application) GetFyneApp() fyne.App {
	return a.fyneApp
}

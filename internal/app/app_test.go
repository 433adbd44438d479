package app

import (
	"path/filepath"
	"testing"
	"time"

	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) Config {
	t.Helper()
	config := DefaultConfig()
	config.UseMockAV = true
	config.TestFyneApp = test.NewApp()
	config.PlaylistPath = filepath.Join(t.TempDir(), "playlist.json")
	config.CacheDir = filepath.Join(t.TempDir(), "tracks")
	config.PollInterval = 10 * time.Millisecond
	return config
}

func TestNewApplication(t *testing.T) {
	app, err := NewApplication(testConfig(t))
	require.NoError(t, err)
	require.NotNil(t, app)

	// Verify all services were created
	playback, playlist, engine := app.GetServices()
	assert.NotNil(t, playback)
	assert.NotNil(t, playlist)
	assert.NotNil(t, engine)

	// Verify event bus was created
	assert.NotNil(t, app.GetEventBus())

	// Verify Fyne app was created
	assert.NotNil(t, app.GetFyneApp())

	app.Shutdown()
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	assert.Equal(t, "com.tubetune.app", config.AppID)
	assert.Equal(t, 250*time.Millisecond, config.PollInterval)
	assert.Equal(t, 30, config.DefaultVolume)
	assert.NotEmpty(t, config.PlaylistPath)
	assert.NotEmpty(t, config.CacheDir)
	assert.False(t, config.UseMockAV)
}

func TestApplicationLifecycle(t *testing.T) {
	app, err := NewApplication(testConfig(t))
	require.NoError(t, err)

	// Run would normally block, but we're not calling it in test

	app.Shutdown()

	// Shutdown again should not panic
	app.Shutdown()
}

func TestApplicationStartsIdle(t *testing.T) {
	app, err := NewApplication(testConfig(t))
	require.NoError(t, err)
	defer app.Shutdown()

	_, playlist, engine := app.GetServices()

	state := engine.State()
	assert.Nil(t, state.Current)
	assert.Empty(t, state.Queue)
	assert.Equal(t, 30, state.Volume)
	assert.Empty(t, playlist.Songs())
}

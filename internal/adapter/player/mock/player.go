// Package mock provides a mock implementation of the Player interface.
// It simulates playback in memory without opening an audio device.
package mock

import (
	"sync"
	"time"

	"github.com/ytaudio/tubetune/internal/domain"
	"github.com/ytaudio/tubetune/internal/ports"
)

// defaultDuration is reported for loaded tracks unless overridden.
const defaultDuration = 3 * time.Minute

// Player is a mock implementation of the Player interface.
//
// Thread-safety: This implementation is thread-safe.
type Player struct {
	mu sync.Mutex

	loaded   bool
	path     string
	playing  bool
	position time.Duration
	duration time.Duration
	volume   int
	closed   bool

	// Behavior configuration (for testing error scenarios)
	failLoad bool
	failPlay bool
	failSeek bool

	loadCalls []string
}

// NewPlayer creates a new mock player.
func NewPlayer() *Player {
	return &Player{duration: defaultDuration}
}

// SetFailLoad configures the mock to fail loading tracks (for testing).
func (m *Player) SetFailLoad(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failLoad = fail
}

// SetFailPlay configures the mock to fail playback (for testing).
func (m *Player) SetFailPlay(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failPlay = fail
}

// SetFailSeek configures the mock to fail seeking (for testing).
func (m *Player) SetFailSeek(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failSeek = fail
}

// SetTrackDuration overrides the duration reported for loaded tracks.
func (m *Player) SetTrackDuration(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.duration = d
}

// SetPosition moves the simulated playback position (for testing).
func (m *Player) SetPosition(pos time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if pos > m.duration {
		pos = m.duration
	}
	m.position = pos
}

// Advance moves the simulated position forward while playing (for testing).
func (m *Player) Advance(delta time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.playing {
		return
	}
	m.position += delta
	if m.position > m.duration {
		m.position = m.duration
	}
}

// LoadedPath returns the path of the currently loaded track (for testing).
func (m *Player) LoadedPath() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.path
}

// LoadCalls returns the paths passed to Load in order (for testing).
func (m *Player) LoadCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	calls := make([]string, len(m.loadCalls))
	copy(calls, m.loadCalls)
	return calls
}

// IsPlaying reports whether the mock is currently playing (for testing).
func (m *Player) IsPlaying() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.playing
}

// Load prepares a simulated track for playback.
func (m *Player) Load(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.loadCalls = append(m.loadCalls, path)

	if m.failLoad {
		return domain.NewPlaybackError("load", path, nil)
	}

	m.loaded = true
	m.path = path
	m.playing = false
	m.position = 0
	return nil
}

// Play starts or resumes simulated playback.
func (m *Player) Play() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.loaded {
		return domain.ErrNoTrackLoaded
	}
	if m.failPlay {
		return domain.NewPlaybackError("play", m.path, nil)
	}

	m.playing = true
	return nil
}

// Pause pauses simulated playback.
func (m *Player) Pause() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.loaded {
		return domain.ErrNoTrackLoaded
	}

	m.playing = false
	return nil
}

// Stop stops playback and unloads the simulated track.
func (m *Player) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.loaded = false
	m.path = ""
	m.playing = false
	m.position = 0
	return nil
}

// SetVolume records the volume in percent (0-100).
func (m *Player) SetVolume(percent int) error {
	if percent < 0 || percent > 100 {
		return domain.ErrInvalidVolume
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.volume = percent
	return nil
}

// Volume returns the last volume set (for testing).
func (m *Player) Volume() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.volume
}

// Seek sets the simulated playback position.
func (m *Player) Seek(position time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.loaded {
		return domain.ErrNoTrackLoaded
	}
	if m.failSeek {
		return domain.NewPlaybackError("seek", m.path, nil)
	}
	if position < 0 || position > m.duration {
		return domain.ErrInvalidPosition
	}

	m.position = position
	return nil
}

// Position returns the simulated playback position.
func (m *Player) Position() (time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.loaded {
		return 0, domain.ErrNoTrackLoaded
	}
	return m.position, nil
}

// Duration returns the simulated track duration.
func (m *Player) Duration() (time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.loaded {
		return 0, domain.ErrNoTrackLoaded
	}
	return m.duration, nil
}

// Close releases the mock player.
func (m *Player) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	m.loaded = false
	m.playing = false
	return nil
}

// Verify that Player implements the Player interface
var _ ports.Player = (*Player)(nil)

// Package ports defines interfaces for dependency inversion.
// These interfaces allow the core business logic to remain independent of external frameworks.
package ports

import (
	"time"
)

// Player is the interface for media playback engines.
// It abstracts the underlying audio library and allows testing with mocks.
//
// The player holds at most one loaded track at a time; Load replaces any
// previous one. Implementations must be thread-safe: control calls arrive from
// the UI thread while the engine's poll ticker reads position and duration.
//
// All calls are expected to return quickly. Blocking work (decoding a file
// header, opening the output device) must stay in the low-millisecond range so
// the engine can treat player control as synchronous.
type Player interface {
	// Load opens a local audio file and prepares it for playback,
	// replacing any previously loaded track.
	Load(path string) error

	// Play starts or resumes playback of the loaded track.
	Play() error

	// Pause pauses playback, preserving the position.
	Pause() error

	// Stop stops playback and releases the loaded track.
	Stop() error

	// SetVolume sets the playback volume in percent (0-100).
	SetVolume(percent int) error

	// Seek sets the playback position within [0, Duration].
	Seek(position time.Duration) error

	// Position returns the current playback position.
	// Returns domain.ErrNoTrackLoaded when nothing is loaded.
	Position() (time.Duration, error)

	// Duration returns the total duration of the loaded track.
	Duration() (time.Duration, error)

	// Close releases all player resources. The player is unusable afterwards.
	Close() error
}

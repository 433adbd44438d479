// Package domain defines domain-specific errors.
// These errors represent business logic failures and are independent of infrastructure.
package domain

import (
	"errors"
	"fmt"
)

// Common errors that services can return.
var (
	// ErrQueueEmpty is returned when playback is requested on an empty queue.
	ErrQueueEmpty = errors.New("queue is empty")

	// ErrNoTrackLoaded is returned when a playback control needs a loaded track.
	ErrNoTrackLoaded = errors.New("no track loaded")

	// ErrInvalidVolume is returned when the volume is out of the 0-100 range.
	ErrInvalidVolume = errors.New("invalid volume: must be between 0 and 100")

	// ErrInvalidPosition is returned when seeking outside [0, duration].
	ErrInvalidPosition = errors.New("invalid playback position")

	// ErrInvalidIndex is returned when a playlist index is out of bounds.
	ErrInvalidIndex = errors.New("invalid playlist index")

	// ErrDuplicateSong is returned when a playlist insert would repeat an id.
	ErrDuplicateSong = errors.New("song already in playlist")

	// ErrPlaylistCorrupt is returned when the playlist file holds invalid JSON.
	// Callers recover by falling back to an empty playlist.
	ErrPlaylistCorrupt = errors.New("playlist file is corrupt")

	// ErrEmptySource is returned when a URL resolves to zero playable items.
	ErrEmptySource = errors.New("source resolved to no playable items")

	// ErrShuttingDown is returned when an operation arrives after shutdown began.
	ErrShuttingDown = errors.New("engine is shutting down")
)

// ResolutionError indicates a source URL could not be resolved to metadata.
type ResolutionError struct {
	URL     string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *ResolutionError) Error() string {
	return fmt.Sprintf("resolving %q failed: %s", e.URL, e.Message)
}

// Unwrap returns the underlying error.
func (e *ResolutionError) Unwrap() error {
	return e.Err
}

// NewResolutionError creates a new ResolutionError.
func NewResolutionError(url, message string, err error) *ResolutionError {
	return &ResolutionError{URL: url, Message: message, Err: err}
}

// DownloadError indicates metadata resolved but the audio could not be materialized.
type DownloadError struct {
	ID      string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *DownloadError) Error() string {
	return fmt.Sprintf("downloading audio for %q failed: %s", e.ID, e.Message)
}

// Unwrap returns the underlying error.
func (e *DownloadError) Unwrap() error {
	return e.Err
}

// NewDownloadError creates a new DownloadError.
func NewDownloadError(id, message string, err error) *DownloadError {
	return &DownloadError{ID: id, Message: message, Err: err}
}

// PlaybackError indicates the player rejected or failed on a local file.
type PlaybackError struct {
	Op   string // Operation that failed (e.g. "load", "play", "seek")
	Path string // File path, if applicable
	Err  error
}

// Error implements the error interface.
func (e *PlaybackError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("playback %s failed for %q: %v", e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("playback %s failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *PlaybackError) Unwrap() error {
	return e.Err
}

// NewPlaybackError creates a new PlaybackError.
func NewPlaybackError(op, path string, err error) *PlaybackError {
	return &PlaybackError{Op: op, Path: path, Err: err}
}

// PersistenceError indicates the playlist file could not be read or written.
type PersistenceError struct {
	Op   string // Operation that failed (e.g. "load", "save")
	Path string
	Err  error
}

// Error implements the error interface.
func (e *PersistenceError) Error() string {
	return fmt.Sprintf("playlist %s failed for %q: %v", e.Op, e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// NewPersistenceError creates a new PersistenceError.
func NewPersistenceError(op, path string, err error) *PersistenceError {
	return &PersistenceError{Op: op, Path: path, Err: err}
}

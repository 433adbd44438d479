// Package ports defines the persistence interface for the durable playlist.
package ports

import (
	"github.com/ytaudio/tubetune/internal/domain"
)

// PlaylistStore handles persistence of the one durable playlist.
// The playlist file is read once at startup and rewritten wholly on every
// mutation; implementations must serialize writers.
//
// Thread-safety: implementations must be thread-safe.
type PlaylistStore interface {
	// Load reads the playlist from durable storage.
	// A missing file is created with an empty playlist and is not an error.
	// A corrupt file yields an empty playlist and domain.ErrPlaylistCorrupt
	// (wrapped in a *domain.PersistenceError) so the caller can warn and continue.
	Load() (domain.Playlist, error)

	// Save rewrites the playlist file with the given contents.
	Save(playlist domain.Playlist) error
}

// Package domain contains core business models and logic with no external dependencies.
// This package defines the fundamental entities of the TubeTune audio player.
package domain

import "time"

// Song identifies a single track. ID is the stable identifier the fetcher uses
// to re-resolve or re-download the track; it is never a URL. Name is a display
// title and is not used for equality.
type Song struct {
	ID   string `json:"ID"`
	Name string `json:"name"`
}

// Playlist is the durable, ordered, deduplicated-by-id song list.
// The JSON shape ({"songs":[{"name","ID"}]}) is the on-disk contract.
type Playlist struct {
	Songs []Song `json:"songs"`
}

// Contains reports whether the playlist already holds an entry with the given id.
func (p Playlist) Contains(id string) bool {
	for _, s := range p.Songs {
		if s.ID == id {
			return true
		}
	}
	return false
}

// SourceInfo is the result of resolving a source URL through the fetcher.
// A collection carries every resolved item in order; a single source carries
// exactly one item.
type SourceInfo struct {
	// Collection is true when the URL expanded into multiple items.
	Collection bool

	// Items holds the resolved songs in source order. Never empty on success.
	Items []Song
}

// BufferedAudio records a completed look-ahead download. ID must still match
// the id of the queue's next track at the moment the buffer is consumed;
// otherwise the entry is stale and must be discarded.
type BufferedAudio struct {
	ID   string
	Path string
}

// PlaybackStatus represents the engine's position in its state machine.
type PlaybackStatus int

const (
	// StatusIdle indicates no track loaded and no work in flight.
	StatusIdle PlaybackStatus = iota

	// StatusResolving indicates a metadata fetch is in flight.
	StatusResolving

	// StatusDownloading indicates audio for the current track is being materialized.
	StatusDownloading

	// StatusPlaying indicates playback is active.
	StatusPlaying

	// StatusPaused indicates playback is paused.
	StatusPaused

	// StatusStopped indicates playback was stopped or the queue finished.
	StatusStopped
)

// String returns a human-readable representation of the playback status.
func (s PlaybackStatus) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusResolving:
		return "resolving"
	case StatusDownloading:
		return "downloading"
	case StatusPlaying:
		return "playing"
	case StatusPaused:
		return "paused"
	case StatusStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// EngineState is a snapshot of the engine's live session, published to the UI
// on every state change. The UI renders from this and holds no state of its own.
type EngineState struct {
	// Current is the track at queue position 0 (nil if the queue is empty).
	Current *Song

	// Queue is the upcoming playback order, position 0 first.
	Queue []Song

	// Status is the engine's state machine position.
	Status PlaybackStatus

	// Position and Duration describe the loaded track, zero when nothing is loaded.
	Position time.Duration
	Duration time.Duration

	// Volume is the playback volume in percent (0-100).
	Volume int
}

// CachedTrack describes one file found in the local audio cache.
type CachedTrack struct {
	ID    string
	Title string
	Path  string
}

// ReorderDirection selects which neighbour a playlist entry swaps with.
type ReorderDirection int

const (
	// MoveUp swaps an entry with its predecessor.
	MoveUp ReorderDirection = iota

	// MoveDown swaps an entry with its successor.
	MoveDown
)

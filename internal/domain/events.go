// Package domain defines events for the event-driven architecture.
// Events carry engine state out to subscribers; the UI is a pure projection of them.
package domain

import (
	"time"
)

// Event is the base interface for all events in the system.
type Event interface {
	// Type returns the event type identifier
	Type() EventType

	// Timestamp returns when the event occurred
	Timestamp() time.Time
}

// EventType is a string identifier for different event types.
type EventType string

// Event type constants define all possible events in the system.
const (
	// Engine events
	EventStateChanged  EventType = "engine.state_changed"
	EventQueueChanged  EventType = "engine.queue_changed"
	EventStatusMessage EventType = "engine.status_message"

	// Playback events
	EventTrackStarted   EventType = "track.started"
	EventTrackPaused    EventType = "track.paused"
	EventTrackStopped   EventType = "track.stopped"
	EventTrackCompleted EventType = "track.completed"
	EventTrackProgress  EventType = "track.progress"

	// Download events
	EventDownloadStarted   EventType = "download.started"
	EventDownloadCompleted EventType = "download.completed"
	EventDownloadFailed    EventType = "download.failed"

	// Volume events
	EventVolumeChanged EventType = "volume.changed"

	// Playlist events
	EventPlaylistUpdated EventType = "playlist.updated"
)

// EventHandler is a function that handles events.
type EventHandler func(event Event)

// SubscriptionID uniquely identifies an event subscription.
type SubscriptionID string

// baseEvent provides common event functionality.
// All concrete events should embed this struct.
type baseEvent struct {
	timestamp time.Time
}

// Timestamp returns when the event occurred.
func (e baseEvent) Timestamp() time.Time {
	return e.timestamp
}

// newBaseEvent creates a new base event with the current timestamp.
func newBaseEvent() baseEvent {
	return baseEvent{timestamp: time.Now()}
}

// StateChangedEvent is published whenever the engine's session state changes.
type StateChangedEvent struct {
	baseEvent
	State EngineState
}

// Type returns the event type.
func (e StateChangedEvent) Type() EventType {
	return EventStateChanged
}

// NewStateChangedEvent creates a new StateChangedEvent.
func NewStateChangedEvent(state EngineState) StateChangedEvent {
	return StateChangedEvent{
		baseEvent: newBaseEvent(),
		State:     state,
	}
}

// QueueChangedEvent is published when the queue's contents change.
type QueueChangedEvent struct {
	baseEvent
	Queue []Song
}

// Type returns the event type.
func (e QueueChangedEvent) Type() EventType {
	return EventQueueChanged
}

// NewQueueChangedEvent creates a new QueueChangedEvent.
func NewQueueChangedEvent(queue []Song) QueueChangedEvent {
	return QueueChangedEvent{
		baseEvent: newBaseEvent(),
		Queue:     queue,
	}
}

// StatusMessageEvent carries a transient, user-visible status line.
// Recovered errors are surfaced through these; they never crash the process.
type StatusMessageEvent struct {
	baseEvent
	Message string
	Err     error // nil for informational messages
}

// Type returns the event type.
func (e StatusMessageEvent) Type() EventType {
	return EventStatusMessage
}

// NewStatusMessageEvent creates a new StatusMessageEvent.
func NewStatusMessageEvent(message string, err error) StatusMessageEvent {
	return StatusMessageEvent{
		baseEvent: newBaseEvent(),
		Message:   message,
		Err:       err,
	}
}

// TrackStartedEvent is published when playback of a track starts.
type TrackStartedEvent struct {
	baseEvent
	Song Song
}

// Type returns the event type.
func (e TrackStartedEvent) Type() EventType {
	return EventTrackStarted
}

// NewTrackStartedEvent creates a new TrackStartedEvent.
func NewTrackStartedEvent(song Song) TrackStartedEvent {
	return TrackStartedEvent{
		baseEvent: newBaseEvent(),
		Song:      song,
	}
}

// TrackPausedEvent is published when playback is paused.
type TrackPausedEvent struct {
	baseEvent
	Song     Song
	Position time.Duration
}

// Type returns the event type.
func (e TrackPausedEvent) Type() EventType {
	return EventTrackPaused
}

// NewTrackPausedEvent creates a new TrackPausedEvent.
func NewTrackPausedEvent(song Song, position time.Duration) TrackPausedEvent {
	return TrackPausedEvent{
		baseEvent: newBaseEvent(),
		Song:      song,
		Position:  position,
	}
}

// TrackStoppedEvent is published when playback is stopped.
type TrackStoppedEvent struct {
	baseEvent
	Song Song
}

// Type returns the event type.
func (e TrackStoppedEvent) Type() EventType {
	return EventTrackStopped
}

// NewTrackStoppedEvent creates a new TrackStoppedEvent.
func NewTrackStoppedEvent(song Song) TrackStoppedEvent {
	return TrackStoppedEvent{
		baseEvent: newBaseEvent(),
		Song:      song,
	}
}

// TrackCompletedEvent is published when a track reaches its end naturally.
// The engine reacts by advancing to the next queued track.
type TrackCompletedEvent struct {
	baseEvent
	Song Song
}

// Type returns the event type.
func (e TrackCompletedEvent) Type() EventType {
	return EventTrackCompleted
}

// NewTrackCompletedEvent creates a new TrackCompletedEvent.
func NewTrackCompletedEvent(song Song) TrackCompletedEvent {
	return TrackCompletedEvent{
		baseEvent: newBaseEvent(),
		Song:      song,
	}
}

// TrackProgressEvent is published periodically during playback.
type TrackProgressEvent struct {
	baseEvent
	Position time.Duration
	Duration time.Duration
}

// Type returns the event type.
func (e TrackProgressEvent) Type() EventType {
	return EventTrackProgress
}

// NewTrackProgressEvent creates a new TrackProgressEvent.
func NewTrackProgressEvent(position, duration time.Duration) TrackProgressEvent {
	return TrackProgressEvent{
		baseEvent: newBaseEvent(),
		Position:  position,
		Duration:  duration,
	}
}

// DownloadStartedEvent is published when audio materialization begins for an id.
type DownloadStartedEvent struct {
	baseEvent
	ID string
}

// Type returns the event type.
func (e DownloadStartedEvent) Type() EventType {
	return EventDownloadStarted
}

// NewDownloadStartedEvent creates a new DownloadStartedEvent.
func NewDownloadStartedEvent(id string) DownloadStartedEvent {
	return DownloadStartedEvent{
		baseEvent: newBaseEvent(),
		ID:        id,
	}
}

// DownloadCompletedEvent is published when audio for an id landed in the cache.
type DownloadCompletedEvent struct {
	baseEvent
	ID   string
	Path string
}

// Type returns the event type.
func (e DownloadCompletedEvent) Type() EventType {
	return EventDownloadCompleted
}

// NewDownloadCompletedEvent creates a new DownloadCompletedEvent.
func NewDownloadCompletedEvent(id, path string) DownloadCompletedEvent {
	return DownloadCompletedEvent{
		baseEvent: newBaseEvent(),
		ID:        id,
		Path:      path,
	}
}

// DownloadFailedEvent is published when audio materialization failed for an id.
type DownloadFailedEvent struct {
	baseEvent
	ID  string
	Err error
}

// Type returns the event type.
func (e DownloadFailedEvent) Type() EventType {
	return EventDownloadFailed
}

// NewDownloadFailedEvent creates a new DownloadFailedEvent.
func NewDownloadFailedEvent(id string, err error) DownloadFailedEvent {
	return DownloadFailedEvent{
		baseEvent: newBaseEvent(),
		ID:        id,
		Err:       err,
	}
}

// VolumeChangedEvent is published when the volume changes.
type VolumeChangedEvent struct {
	baseEvent
	Volume int // 0-100
}

// Type returns the event type.
func (e VolumeChangedEvent) Type() EventType {
	return EventVolumeChanged
}

// NewVolumeChangedEvent creates a new VolumeChangedEvent.
func NewVolumeChangedEvent(volume int) VolumeChangedEvent {
	return VolumeChangedEvent{
		baseEvent: newBaseEvent(),
		Volume:    volume,
	}
}

// PlaylistUpdatedEvent is published when the durable playlist changes.
type PlaylistUpdatedEvent struct {
	baseEvent
	Songs []Song
}

// Type returns the event type.
func (e PlaylistUpdatedEvent) Type() EventType {
	return EventPlaylistUpdated
}

// NewPlaylistUpdatedEvent creates a new PlaylistUpdatedEvent.
func NewPlaylistUpdatedEvent(songs []Song) PlaylistUpdatedEvent {
	return PlaylistUpdatedEvent{
		baseEvent: newBaseEvent(),
		Songs:     songs,
	}
}

// Package service provides business logic for the TubeTune application.
package service

import (
	"log/slog"
	"sync"
	"time"

	"github.com/ytaudio/tubetune/internal/domain"
	"github.com/ytaudio/tubetune/internal/ports"
)

// PlaybackService drives the player for one track at a time and watches for
// the natural end of playback. A poll ticker reads position and duration at a
// fixed interval; when the remaining time of a playing track drops to the end
// threshold, the service stops the player and publishes a TrackCompletedEvent
// exactly once. It never decides what plays next; the engine reacts to the
// completion event.
//
// All operations are thread-safe via sync.Mutex.
type PlaybackService struct {
	// Dependencies (injected)
	logger *slog.Logger
	player ports.Player
	bus    ports.EventBus

	// Configuration
	pollInterval time.Duration
	endThreshold time.Duration

	// State
	current        *domain.Song
	playing        bool
	completedFired bool
	volume         int

	// Concurrency control
	mu       sync.Mutex
	stopPoll chan struct{}
	pollWg   sync.WaitGroup
}

// NewPlaybackService creates a playback service and starts its poll ticker.
// The end threshold defaults to one poll interval when zero.
func NewPlaybackService(
	logger *slog.Logger,
	player ports.Player,
	bus ports.EventBus,
	pollInterval time.Duration,
	endThreshold time.Duration,
	initialVolume int,
) *PlaybackService {
	if pollInterval <= 0 {
		pollInterval = 250 * time.Millisecond
	}
	if endThreshold <= 0 {
		endThreshold = pollInterval
	}

	s := &PlaybackService{
		logger:       logger,
		player:       player,
		bus:          bus,
		pollInterval: pollInterval,
		endThreshold: endThreshold,
		volume:       clampVolume(initialVolume),
		stopPoll:     make(chan struct{}),
	}

	if err := player.SetVolume(s.volume); err != nil {
		logger.Warn("failed to set initial volume", slog.Any("error", err))
	}

	s.pollWg.Add(1)
	go s.pollLoop()

	logger.Debug("playback service initialized",
		slog.Duration("poll_interval", pollInterval),
		slog.Duration("end_threshold", endThreshold))

	return s
}

// PlayFile loads the local audio file for a song and starts playback.
// Any previously playing track is stopped first.
func (s *PlaybackService) PlayFile(song domain.Song, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.player.Load(path); err != nil {
		return err
	}
	if err := s.player.Play(); err != nil {
		return err
	}

	s.current = &song
	s.playing = true
	s.completedFired = false

	s.logger.Info("playback started",
		slog.String("id", song.ID), slog.String("title", song.Name))
	s.bus.Publish(domain.NewTrackStartedEvent(song))
	return nil
}

// Pause pauses playback, preserving the position.
func (s *PlaybackService) Pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return domain.ErrNoTrackLoaded
	}
	if err := s.player.Pause(); err != nil {
		return err
	}
	s.playing = false

	position, err := s.player.Position()
	if err != nil {
		position = 0
	}
	s.bus.Publish(domain.NewTrackPausedEvent(*s.current, position))
	return nil
}

// Resume resumes playback of the paused track.
func (s *PlaybackService) Resume() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return domain.ErrNoTrackLoaded
	}
	if err := s.player.Play(); err != nil {
		return err
	}
	s.playing = true

	s.bus.Publish(domain.NewTrackStartedEvent(*s.current))
	return nil
}

// Stop stops playback and unloads the track.
func (s *PlaybackService) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopLocked()
}

// stopLocked stops playback without locking (caller must hold lock).
func (s *PlaybackService) stopLocked() error {
	if s.current == nil {
		return nil
	}

	song := *s.current
	s.current = nil
	s.playing = false

	if err := s.player.Stop(); err != nil {
		return err
	}

	s.bus.Publish(domain.NewTrackStoppedEvent(song))
	return nil
}

// IsPlaying reports whether a track is currently playing (not paused).
func (s *PlaybackService) IsPlaying() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playing
}

// Current returns the track whose audio is loaded, or nil.
func (s *PlaybackService) Current() *domain.Song {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil
	}
	song := *s.current
	return &song
}

// SetVolume sets the playback volume, clamping out-of-range values to 0-100.
func (s *PlaybackService) SetVolume(percent int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	percent = clampVolume(percent)
	if err := s.player.SetVolume(percent); err != nil {
		return err
	}
	s.volume = percent

	s.bus.Publish(domain.NewVolumeChangedEvent(percent))
	return nil
}

// Volume returns the current volume in percent.
func (s *PlaybackService) Volume() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.volume
}

// SeekFraction seeks to a fraction of the track duration.
// The fraction is clamped to [0, 1]; without a loaded track this is an error.
func (s *PlaybackService) SeekFraction(fraction float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return domain.ErrNoTrackLoaded
	}

	if fraction < 0 {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}

	duration, err := s.player.Duration()
	if err != nil {
		return err
	}

	target := time.Duration(float64(duration) * fraction)
	if err := s.player.Seek(target); err != nil {
		return err
	}

	s.bus.Publish(domain.NewTrackProgressEvent(target, duration))
	return nil
}

// Progress returns the loaded track's position and duration, zero when
// nothing is loaded.
func (s *PlaybackService) Progress() (position, duration time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return 0, 0
	}

	position, err := s.player.Position()
	if err != nil {
		return 0, 0
	}
	duration, err = s.player.Duration()
	if err != nil {
		return position, 0
	}
	return position, duration
}

// Shutdown stops the poll ticker and releases the player.
func (s *PlaybackService) Shutdown() error {
	s.mu.Lock()
	select {
	case <-s.stopPoll:
	default:
		close(s.stopPoll)
	}
	s.mu.Unlock()

	s.pollWg.Wait()

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.stopLocked(); err != nil {
		s.logger.Warn("failed to stop track during shutdown", slog.Any("error", err))
	}
	return s.player.Close()
}

// pollLoop publishes progress and detects end of track until Shutdown.
func (s *PlaybackService) pollLoop() {
	defer s.pollWg.Done()

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopPoll:
			return
		case <-ticker.C:
			s.pollOnce()
		}
	}
}

// pollOnce samples the player and fires completion when the track is ending.
func (s *PlaybackService) pollOnce() {
	s.mu.Lock()

	if s.current == nil || !s.playing {
		s.mu.Unlock()
		return
	}

	position, err := s.player.Position()
	if err != nil {
		s.mu.Unlock()
		return
	}
	duration, err := s.player.Duration()
	if err != nil || duration <= 0 {
		s.mu.Unlock()
		return
	}

	ended := duration-position <= s.endThreshold && !s.completedFired
	var completed domain.Song
	if ended {
		s.completedFired = true
		completed = *s.current
		s.current = nil
		s.playing = false
		if err := s.player.Stop(); err != nil {
			s.logger.Warn("failed to stop finished track", slog.Any("error", err))
		}
	}

	s.mu.Unlock()

	if ended {
		s.logger.Debug("track completed", slog.String("id", completed.ID))
		s.bus.Publish(domain.NewTrackCompletedEvent(completed))
		return
	}

	s.bus.Publish(domain.NewTrackProgressEvent(position, duration))
}

// clampVolume limits a percent value to the 0-100 range.
func clampVolume(percent int) int {
	if percent < 0 {
		return 0
	}
	if percent > 100 {
		return 100
	}
	return percent
}

package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ytaudio/tubetune/internal/domain"
	"github.com/ytaudio/tubetune/internal/ports"
)

// EngineService is the playback session's single point of control.
// It owns the queue (position 0 is the current track), the state machine
// status, the look-ahead buffer for the next track, and the set of in-flight
// downloads.
//
// All mutations run under one mutex. Resolution and download work happens on
// background goroutines that never touch state directly; they call the
// apply* completion methods, which re-acquire the lock and re-check that the
// result is still relevant before applying it. A result for a track that is
// no longer where it was (the queue moved on, the session was replaced) is
// discarded; the downloaded file stays in the cache for later reuse.
//
// Errors never advance the queue and are never retried automatically: a
// failed resolution or download surfaces as a status message and the engine
// waits for the next user action.
type EngineService struct {
	// Dependencies (injected)
	logger   *slog.Logger
	fetcher  ports.Fetcher
	playback *PlaybackService
	playlist *PlaylistService
	bus      ports.EventBus

	// Configuration
	resolveTimeout  time.Duration
	downloadTimeout time.Duration

	// State
	queue    []domain.Song
	status   domain.PlaybackStatus
	buffered *domain.BufferedAudio
	pending  map[string]struct{}

	// Concurrency control
	mu        sync.Mutex
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	completed domain.SubscriptionID
}

// NewEngineService creates the engine and subscribes it to track completions
// so playback advances through the queue automatically.
func NewEngineService(
	logger *slog.Logger,
	fetcher ports.Fetcher,
	playback *PlaybackService,
	playlist *PlaylistService,
	bus ports.EventBus,
) *EngineService {
	ctx, cancel := context.WithCancel(context.Background())

	e := &EngineService{
		logger:          logger,
		fetcher:         fetcher,
		playback:        playback,
		playlist:        playlist,
		bus:             bus,
		resolveTimeout:  30 * time.Second,
		downloadTimeout: 10 * time.Minute,
		status:          domain.StatusIdle,
		pending:         make(map[string]struct{}),
		ctx:             ctx,
		cancel:          cancel,
	}

	e.completed = bus.Subscribe(domain.EventTrackCompleted, func(event domain.Event) {
		if _, ok := event.(domain.TrackCompletedEvent); ok {
			e.advanceAfterCompletion()
		}
	})

	logger.Debug("engine initialized")
	return e
}

// DownloadAndPlay resolves a URL and starts a fresh playback session from it.
// A single video becomes a one-track session; a collection queues every entry
// and plays the first. Any current session keeps playing until the resolution
// lands, then is replaced.
func (e *EngineService) DownloadAndPlay(url string) error {
	return e.resolve(url, e.applyResolvedPlay)
}

// AddToQueue resolves a URL and appends its tracks to the current session
// without interrupting playback.
func (e *EngineService) AddToQueue(url string) error {
	return e.resolve(url, e.applyResolvedQueue)
}

// AddToPlaylist resolves a URL and adds its tracks to the durable playlist.
// Playback is untouched.
func (e *EngineService) AddToPlaylist(url string) error {
	return e.resolve(url, e.applyResolvedPlaylist)
}

// resolve kicks off a background metadata fetch and routes the result to the
// given completion method.
func (e *EngineService) resolve(url string, apply func(url string, info domain.SourceInfo, err error)) error {
	e.mu.Lock()
	if e.ctx.Err() != nil {
		e.mu.Unlock()
		return domain.ErrShuttingDown
	}
	e.status = domain.StatusResolving
	e.publishStateLocked()
	e.wg.Add(1)
	e.mu.Unlock()

	go func() {
		defer e.wg.Done()

		ctx, cancel := context.WithTimeout(e.ctx, e.resolveTimeout)
		defer cancel()

		info, err := e.fetcher.Resolve(ctx, url)
		apply(url, info, err)
	}()

	return nil
}

// applyResolvedPlay replaces the session with the resolved tracks.
func (e *EngineService) applyResolvedPlay(url string, info domain.SourceInfo, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.resolutionOKLocked(url, info, err) {
		return
	}

	if err := e.playback.Stop(); err != nil {
		e.logger.Warn("failed to stop current track", slog.Any("error", err))
	}

	e.queue = append(e.queue[:0], info.Items...)
	e.invalidateBufferLocked()
	e.bus.Publish(domain.NewQueueChangedEvent(e.snapshotQueueLocked()))

	e.startDownloadLocked(e.queue[0])
	e.status = domain.StatusDownloading
	e.publishStateLocked()
}

// applyResolvedQueue appends the resolved tracks to the session.
func (e *EngineService) applyResolvedQueue(url string, info domain.SourceInfo, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.resolutionOKLocked(url, info, err) {
		return
	}

	e.queue = append(e.queue, info.Items...)
	e.bus.Publish(domain.NewQueueChangedEvent(e.snapshotQueueLocked()))
	e.bus.Publish(domain.NewStatusMessageEvent(
		fmt.Sprintf("queued %d track(s)", len(info.Items)), nil))

	e.ensureBufferLocked()
	e.recomputeStatusLocked()
	e.publishStateLocked()
}

// applyResolvedPlaylist adds the resolved tracks to the durable playlist.
func (e *EngineService) applyResolvedPlaylist(url string, info domain.SourceInfo, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.resolutionOKLocked(url, info, err) {
		return
	}

	added, addErr := e.playlist.Add(info.Items...)
	if addErr != nil {
		e.logger.Error("failed to save playlist", slog.Any("error", addErr))
		e.bus.Publish(domain.NewStatusMessageEvent("failed to save playlist", addErr))
	} else {
		e.bus.Publish(domain.NewStatusMessageEvent(
			fmt.Sprintf("added %d track(s) to playlist", added), nil))
	}

	e.recomputeStatusLocked()
	e.publishStateLocked()
}

// resolutionOKLocked reports whether a resolution result is usable, surfacing
// failures as status messages (caller must hold lock).
func (e *EngineService) resolutionOKLocked(url string, info domain.SourceInfo, err error) bool {
	if e.ctx.Err() != nil {
		return false
	}
	if err == nil && len(info.Items) == 0 {
		err = domain.NewResolutionError(url, "source resolved to no tracks", domain.ErrEmptySource)
	}
	if err != nil {
		e.logger.Error("resolution failed", slog.String("url", url), slog.Any("error", err))
		e.bus.Publish(domain.NewStatusMessageEvent("could not resolve source", err))
		e.recomputeStatusLocked()
		e.publishStateLocked()
		return false
	}
	return true
}

// PlayFromPlaylist pushes a playlist entry to the front of the session and
// plays it immediately. The interrupted track stays behind it in the queue.
// No resolution is needed; the stored id goes straight to download.
func (e *EngineService) PlayFromPlaylist(index int) error {
	song, err := e.playlist.Get(index)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.ctx.Err() != nil {
		return domain.ErrShuttingDown
	}

	if err := e.playback.Stop(); err != nil {
		e.logger.Warn("failed to stop current track", slog.Any("error", err))
	}

	e.queue = append([]domain.Song{song}, e.queue...)
	e.invalidateBufferLocked()
	e.bus.Publish(domain.NewQueueChangedEvent(e.snapshotQueueLocked()))

	e.startDownloadLocked(song)
	e.status = domain.StatusDownloading
	e.publishStateLocked()
	return nil
}

// PlayPause toggles between playing and paused for the loaded track. With
// nothing loaded but tracks waiting in the queue it starts the queue head
// instead.
func (e *EngineService) PlayPause() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.playback.Current() == nil {
		if len(e.queue) == 0 {
			return domain.ErrNoTrackLoaded
		}
		e.startDownloadLocked(e.queue[0])
		e.status = domain.StatusDownloading
		e.publishStateLocked()
		return nil
	}

	var err error
	if e.playback.IsPlaying() {
		err = e.playback.Pause()
		e.status = domain.StatusPaused
	} else {
		err = e.playback.Resume()
		e.status = domain.StatusPlaying
	}
	if err != nil {
		return err
	}

	e.publishStateLocked()
	return nil
}

// Next drops the current track and starts the one behind it. With nothing
// behind it the session ends. A buffered download for the next track is
// consumed instead of re-downloading.
func (e *EngineService) Next() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.queue) == 0 {
		return domain.ErrQueueEmpty
	}

	if err := e.playback.Stop(); err != nil {
		e.logger.Warn("failed to stop current track", slog.Any("error", err))
	}

	e.advanceLocked()
	return nil
}

// Stop halts playback without touching the queue. The session can be resumed
// from the queue head with PlayPause.
func (e *EngineService) Stop() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.playback.Stop(); err != nil {
		return err
	}

	if len(e.queue) > 0 {
		e.status = domain.StatusStopped
	} else {
		e.status = domain.StatusIdle
	}
	e.publishStateLocked()
	return nil
}

// advanceAfterCompletion reacts to a track finishing on its own.
func (e *EngineService) advanceAfterCompletion() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.ctx.Err() != nil || len(e.queue) == 0 {
		return
	}
	e.advanceLocked()
}

// advanceLocked pops the queue head and starts whatever is next (caller must
// hold lock). Playback of the old head must already be stopped.
func (e *EngineService) advanceLocked() {
	e.queue = e.queue[1:]
	e.bus.Publish(domain.NewQueueChangedEvent(e.snapshotQueueLocked()))

	if len(e.queue) == 0 {
		e.invalidateBufferLocked()
		e.status = domain.StatusStopped
		e.publishStateLocked()
		return
	}

	next := e.queue[0]

	if e.buffered != nil && e.buffered.ID == next.ID {
		path := e.buffered.Path
		e.buffered = nil
		e.playLocked(next, path)
		return
	}
	e.invalidateBufferLocked()

	e.startDownloadLocked(next)
	e.status = domain.StatusDownloading
	e.publishStateLocked()
}

// SetVolume sets the playback volume in percent, clamped to 0-100.
func (e *EngineService) SetVolume(percent int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.playback.SetVolume(percent); err != nil {
		return err
	}
	e.publishStateLocked()
	return nil
}

// Seek seeks within the loaded track to a fraction of its duration.
func (e *EngineService) Seek(fraction float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.playback.SeekFraction(fraction)
}

// ReorderPlaylist moves a durable playlist entry up or down.
func (e *EngineService) ReorderPlaylist(index int, direction domain.ReorderDirection) error {
	return e.playlist.Reorder(index, direction)
}

// startDownloadLocked kicks off a background audio fetch for a song unless
// one for the same id is already in flight (caller must hold lock).
func (e *EngineService) startDownloadLocked(song domain.Song) {
	if _, inflight := e.pending[song.ID]; inflight {
		return
	}
	e.pending[song.ID] = struct{}{}
	e.bus.Publish(domain.NewDownloadStartedEvent(song.ID))

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()

		ctx, cancel := context.WithTimeout(e.ctx, e.downloadTimeout)
		defer cancel()

		path, err := e.fetcher.FetchAudio(ctx, song.ID)
		e.applyDownloaded(song.ID, path, err)
	}()
}

// applyDownloaded routes a finished download to where it is still relevant:
// the queue head starts playing, the track behind the head becomes the
// look-ahead buffer, anything else is discarded as stale.
func (e *EngineService) applyDownloaded(id, path string, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	delete(e.pending, id)

	if e.ctx.Err() != nil {
		return
	}

	if err != nil {
		e.logger.Error("download failed", slog.String("id", id), slog.Any("error", err))
		e.bus.Publish(domain.NewDownloadFailedEvent(id, err))
		e.bus.Publish(domain.NewStatusMessageEvent("download failed", err))
		if len(e.queue) > 0 && e.queue[0].ID == id && e.status == domain.StatusDownloading {
			e.status = domain.StatusStopped
			e.publishStateLocked()
		}
		return
	}

	e.bus.Publish(domain.NewDownloadCompletedEvent(id, path))

	if len(e.queue) > 0 && e.queue[0].ID == id && e.status == domain.StatusDownloading {
		e.playLocked(e.queue[0], path)
		return
	}

	if len(e.queue) > 1 && e.queue[1].ID == id {
		e.buffered = &domain.BufferedAudio{ID: id, Path: path}
		e.logger.Debug("next track buffered", slog.String("id", id))
		return
	}

	e.logger.Debug("discarding stale download", slog.String("id", id))
}

// playLocked starts playback of the queue head from a local file and arms the
// look-ahead buffer for the track behind it (caller must hold lock).
func (e *EngineService) playLocked(song domain.Song, path string) {
	if err := e.playback.PlayFile(song, path); err != nil {
		e.logger.Error("playback failed",
			slog.String("id", song.ID), slog.Any("error", err))
		e.bus.Publish(domain.NewStatusMessageEvent("playback failed", err))
		e.status = domain.StatusStopped
		e.publishStateLocked()
		return
	}

	e.status = domain.StatusPlaying
	e.ensureBufferLocked()
	e.publishStateLocked()
}

// ensureBufferLocked starts a look-ahead download for the track behind the
// queue head when none is buffered or in flight (caller must hold lock).
func (e *EngineService) ensureBufferLocked() {
	if len(e.queue) < 2 || e.playback.Current() == nil {
		return
	}
	next := e.queue[1]
	if e.buffered != nil && e.buffered.ID == next.ID {
		return
	}
	e.startDownloadLocked(next)
}

// invalidateBufferLocked drops the buffer when it no longer matches the track
// behind the queue head (caller must hold lock).
func (e *EngineService) invalidateBufferLocked() {
	if e.buffered == nil {
		return
	}
	if len(e.queue) < 2 || e.queue[1].ID != e.buffered.ID {
		e.buffered = nil
	}
}

// recomputeStatusLocked derives the status from what the player is actually
// doing (caller must hold lock). A foreground download still in flight keeps
// the Downloading status.
func (e *EngineService) recomputeStatusLocked() {
	if e.status == domain.StatusDownloading && len(e.queue) > 0 {
		if _, inflight := e.pending[e.queue[0].ID]; inflight {
			return
		}
	}
	switch {
	case e.playback.Current() != nil && e.playback.IsPlaying():
		e.status = domain.StatusPlaying
	case e.playback.Current() != nil:
		e.status = domain.StatusPaused
	case len(e.queue) > 0:
		e.status = domain.StatusStopped
	default:
		e.status = domain.StatusIdle
	}
}

// Queue returns a snapshot of the session queue.
func (e *EngineService) Queue() []domain.Song {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotQueueLocked()
}

// Status returns the engine's state machine position.
func (e *EngineService) Status() domain.PlaybackStatus {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status
}

// BufferedNext returns the look-ahead buffer entry, or nil.
func (e *EngineService) BufferedNext() *domain.BufferedAudio {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.buffered == nil {
		return nil
	}
	b := *e.buffered
	return &b
}

// State returns a full snapshot of the session for the UI.
func (e *EngineService) State() domain.EngineState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stateLocked()
}

// stateLocked assembles a state snapshot (caller must hold lock).
func (e *EngineService) stateLocked() domain.EngineState {
	position, duration := e.playback.Progress()

	state := domain.EngineState{
		Queue:    e.snapshotQueueLocked(),
		Status:   e.status,
		Position: position,
		Duration: duration,
		Volume:   e.playback.Volume(),
	}
	if len(e.queue) > 0 {
		current := e.queue[0]
		state.Current = &current
	}
	return state
}

// snapshotQueueLocked copies the queue (caller must hold lock).
func (e *EngineService) snapshotQueueLocked() []domain.Song {
	queue := make([]domain.Song, len(e.queue))
	copy(queue, e.queue)
	return queue
}

// publishStateLocked publishes a state snapshot (caller must hold lock).
func (e *EngineService) publishStateLocked() {
	e.bus.Publish(domain.NewStateChangedEvent(e.stateLocked()))
}

// Shutdown cancels in-flight work and waits for background tasks to finish.
func (e *EngineService) Shutdown() error {
	e.bus.Unsubscribe(e.completed)
	e.cancel()
	e.wg.Wait()

	e.mu.Lock()
	defer e.mu.Unlock()
	e.queue = nil
	e.buffered = nil
	e.status = domain.StatusIdle
	return nil
}

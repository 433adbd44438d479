// Package fyne provides Fyne UI adapter implementations.
// This package implements the UI layer using the Fyne toolkit.
package fyne

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ytaudio/tubetune/internal/domain"
	"github.com/ytaudio/tubetune/internal/ports"
	"github.com/ytaudio/tubetune/internal/service"
)

// UIView defines the interface for UI updates.
// The actual UI implementation (MainWindow) must implement this interface.
//
// Methods may be called from background goroutines; implementations are
// responsible for hopping onto the UI thread.
type UIView interface {
	// Playback state updates
	SetPlayState(playing bool)
	SetStatus(status string)
	SetTrackInfo(title string)
	SetVolume(percent int)
	SetProgress(position, duration time.Duration)

	// List updates
	SetQueue(songs []domain.Song)
	SetPlaylist(songs []domain.Song)

	// Transient status line
	ShowMessage(message string)
}

// Presenter implements the Presenter pattern (MVP architecture).
// It coordinates between the engine and the UI, handling all event-driven
// updates.
//
// Event handlers run on whichever goroutine published the event, sometimes
// while a service still holds its own lock, so handlers work purely from
// event payloads and never call back into services. Service calls happen
// only in the On* command handlers invoked from the UI thread.
type Presenter struct {
	// Dependencies
	logger *slog.Logger

	// Services (injected)
	engine   *service.EngineService
	playlist *service.PlaylistService

	// Event bus for subscriptions
	bus ports.EventBus

	// UI view
	view UIView

	// Concurrency control
	mu            sync.Mutex
	subscriptions []domain.SubscriptionID
	shutdownOnce  sync.Once
}

// NewPresenter creates a new presenter and syncs the view with the current
// application state.
func NewPresenter(
	logger *slog.Logger,
	engine *service.EngineService,
	playlist *service.PlaylistService,
	bus ports.EventBus,
	view UIView,
) *Presenter {
	p := &Presenter{
		logger:   logger,
		engine:   engine,
		playlist: playlist,
		bus:      bus,
		view:     view,
	}

	p.subscribeToEvents()
	p.syncInitialState()

	return p
}

// subscribeToEvents subscribes to all relevant events from the event bus.
func (p *Presenter) subscribeToEvents() {
	subscriptions := map[domain.EventType]domain.EventHandler{
		domain.EventStateChanged:      p.onStateChanged,
		domain.EventTrackProgress:     p.onTrackProgress,
		domain.EventTrackStarted:      p.onTrackStarted,
		domain.EventTrackPaused:       p.onTrackPaused,
		domain.EventStatusMessage:     p.onStatusMessage,
		domain.EventPlaylistUpdated:   p.onPlaylistUpdated,
		domain.EventDownloadStarted:   p.onDownloadStarted,
		domain.EventDownloadCompleted: p.onDownloadCompleted,
		domain.EventDownloadFailed:    p.onDownloadFailed,
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	for eventType, handler := range subscriptions {
		p.subscriptions = append(p.subscriptions, p.bus.Subscribe(eventType, handler))
	}
}

// syncInitialState pushes the current state into the view once at startup.
func (p *Presenter) syncInitialState() {
	p.applyState(p.engine.State())
	p.view.SetPlaylist(p.playlist.Songs())
}

// applyState projects an engine state snapshot onto the view.
func (p *Presenter) applyState(state domain.EngineState) {
	p.view.SetStatus(state.Status.String())
	p.view.SetPlayState(state.Status == domain.StatusPlaying)
	p.view.SetVolume(state.Volume)
	p.view.SetQueue(state.Queue)
	p.view.SetProgress(state.Position, state.Duration)

	if state.Current != nil {
		p.view.SetTrackInfo(state.Current.Name)
	} else {
		p.view.SetTrackInfo("")
	}
}

// Event handlers

func (p *Presenter) onStateChanged(event domain.Event) {
	e, ok := event.(domain.StateChangedEvent)
	if !ok {
		return
	}
	p.applyState(e.State)
}

func (p *Presenter) onTrackProgress(event domain.Event) {
	e, ok := event.(domain.TrackProgressEvent)
	if !ok {
		return
	}
	p.view.SetProgress(e.Position, e.Duration)
}

func (p *Presenter) onTrackStarted(event domain.Event) {
	e, ok := event.(domain.TrackStartedEvent)
	if !ok {
		return
	}
	p.view.SetPlayState(true)
	p.view.SetTrackInfo(e.Song.Name)
}

func (p *Presenter) onTrackPaused(event domain.Event) {
	p.view.SetPlayState(false)
}

func (p *Presenter) onStatusMessage(event domain.Event) {
	e, ok := event.(domain.StatusMessageEvent)
	if !ok {
		return
	}
	message := e.Message
	if e.Err != nil {
		message = fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	p.view.ShowMessage(message)
}

func (p *Presenter) onPlaylistUpdated(event domain.Event) {
	e, ok := event.(domain.PlaylistUpdatedEvent)
	if !ok {
		return
	}
	p.view.SetPlaylist(e.Songs)
}

func (p *Presenter) onDownloadStarted(event domain.Event) {
	e, ok := event.(domain.DownloadStartedEvent)
	if !ok {
		return
	}
	p.view.ShowMessage(fmt.Sprintf("downloading %s", e.ID))
}

func (p *Presenter) onDownloadCompleted(event domain.Event) {
	e, ok := event.(domain.DownloadCompletedEvent)
	if !ok {
		return
	}
	p.view.ShowMessage(fmt.Sprintf("download ready: %s", e.ID))
}

func (p *Presenter) onDownloadFailed(event domain.Event) {
	e, ok := event.(domain.DownloadFailedEvent)
	if !ok {
		return
	}
	p.view.ShowMessage(fmt.Sprintf("download failed: %v", e.Err))
}

// UI Command handlers (called by UI)

// OnDownloadAndPlay handles the download-and-play action for a URL.
func (p *Presenter) OnDownloadAndPlay(url string) {
	if url == "" {
		p.view.ShowMessage("enter a URL first")
		return
	}
	if err := p.engine.DownloadAndPlay(url); err != nil {
		p.logger.Error("download and play failed", slog.Any("error", err))
		p.view.ShowMessage(fmt.Sprintf("could not start: %v", err))
	}
}

// OnAddToQueue handles the add-to-queue action for a URL.
func (p *Presenter) OnAddToQueue(url string) {
	if url == "" {
		p.view.ShowMessage("enter a URL first")
		return
	}
	if err := p.engine.AddToQueue(url); err != nil {
		p.logger.Error("add to queue failed", slog.Any("error", err))
		p.view.ShowMessage(fmt.Sprintf("could not queue: %v", err))
	}
}

// OnAddToPlaylist handles the add-to-playlist action for a URL.
func (p *Presenter) OnAddToPlaylist(url string) {
	if url == "" {
		p.view.ShowMessage("enter a URL first")
		return
	}
	if err := p.engine.AddToPlaylist(url); err != nil {
		p.logger.Error("add to playlist failed", slog.Any("error", err))
		p.view.ShowMessage(fmt.Sprintf("could not add: %v", err))
	}
}

// OnPlayPauseClicked handles the play/pause button click.
func (p *Presenter) OnPlayPauseClicked() {
	if err := p.engine.PlayPause(); err != nil {
		p.logger.Debug("play/pause rejected", slog.Any("error", err))
	}
}

// OnStopClicked handles the stop button click.
func (p *Presenter) OnStopClicked() {
	if err := p.engine.Stop(); err != nil {
		p.logger.Debug("stop rejected", slog.Any("error", err))
	}
}

// OnNextClicked handles the next button click.
func (p *Presenter) OnNextClicked() {
	if err := p.engine.Next(); err != nil {
		p.logger.Debug("next rejected", slog.Any("error", err))
	}
}

// OnVolumeChanged handles volume slider changes (0-100).
func (p *Presenter) OnVolumeChanged(value float64) {
	if err := p.engine.SetVolume(int(value)); err != nil {
		p.logger.Error("volume change failed", slog.Any("error", err))
	}
}

// OnSeekRequested handles seek requests as a fraction of the track (0-1).
func (p *Presenter) OnSeekRequested(fraction float64) {
	if err := p.engine.Seek(fraction); err != nil {
		p.logger.Debug("seek rejected", slog.Any("error", err))
	}
}

// OnPlaylistPlay starts playback of a playlist entry.
func (p *Presenter) OnPlaylistPlay(index int) {
	if err := p.engine.PlayFromPlaylist(index); err != nil {
		p.logger.Error("playlist play failed", slog.Any("error", err))
		p.view.ShowMessage(fmt.Sprintf("could not play entry: %v", err))
	}
}

// OnPlaylistMoveUp moves a playlist entry one position up.
func (p *Presenter) OnPlaylistMoveUp(index int) {
	if err := p.engine.ReorderPlaylist(index, domain.MoveUp); err != nil {
		p.logger.Debug("reorder rejected", slog.Any("error", err))
	}
}

// OnPlaylistMoveDown moves a playlist entry one position down.
func (p *Presenter) OnPlaylistMoveDown(index int) {
	if err := p.engine.ReorderPlaylist(index, domain.MoveDown); err != nil {
		p.logger.Debug("reorder rejected", slog.Any("error", err))
	}
}

// OnPlaylistRemove removes a playlist entry.
func (p *Presenter) OnPlaylistRemove(index int) {
	if err := p.playlist.Remove(index); err != nil {
		p.logger.Debug("remove rejected", slog.Any("error", err))
	}
}

// Shutdown unsubscribes the presenter from the event bus.
// It's safe to call multiple times (idempotent).
func (p *Presenter) Shutdown() {
	p.shutdownOnce.Do(func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		for _, id := range p.subscriptions {
			p.bus.Unsubscribe(id)
		}
		p.subscriptions = nil
	})
}

package fyne

import (
	"fmt"
	"sync"
	"time"

	fyneapp "fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/ytaudio/tubetune/internal/domain"
)

const (
	windowWidth  = 640
	windowHeight = 520
)

// MainWindow is the main UI window implementing the UIView interface.
//
// The MainWindow follows the MVP pattern:
// - It's a "dumb view" that just displays data
// - All business logic is behind the Presenter
// - User interactions are forwarded to the Presenter
//
// UIView methods arrive from background goroutines and hop onto the UI
// thread with fyne.Do; the queue and playlist slices backing the lists are
// only touched on that thread.
type MainWindow struct {
	app    fyneapp.App
	window fyneapp.Window

	// UI components
	urlEntry       *widget.Entry
	playButton     *widget.Button
	stopButton     *widget.Button
	nextButton     *widget.Button
	trackInfo      *widget.Label
	statusLabel    *widget.Label
	messageLabel   *widget.Label
	currentTime    *widget.Label
	endTime        *widget.Label
	progressSlider *widget.Slider
	volumeSlider   *widget.Slider
	queueList      *widget.List
	playlistList   *widget.List

	// List data (UI thread only)
	queue    []domain.Song
	playlist []domain.Song

	// selectedPlaylist is the playlist row the action buttons operate on.
	selectedPlaylist int

	// seeking suppresses progress updates while the user drags the slider.
	seeking bool

	closeOnce sync.Once

	// Presenter (set after construction)
	presenter *Presenter
}

// NewMainWindow creates a new main window.
func NewMainWindow(app fyneapp.App) *MainWindow {
	w := &MainWindow{
		app:              app,
		selectedPlaylist: -1,
	}

	w.window = app.NewWindow("TubeTune")
	w.buildUI()
	w.window.Resize(fyneapp.Size{Width: windowWidth, Height: windowHeight})

	return w
}

// SetPresenter connects the presenter to this view.
// This must be called before showing the window.
func (w *MainWindow) SetPresenter(presenter *Presenter) {
	w.presenter = presenter
	w.wirePresenterHandlers()
}

// buildUI constructs the UI components.
func (w *MainWindow) buildUI() {
	// Source row
	w.urlEntry = widget.NewEntry()
	w.urlEntry.SetPlaceHolder("Paste a video or playlist URL")

	downloadPlay := widget.NewButtonWithIcon("Play", theme.DownloadIcon(), nil)
	addQueue := widget.NewButton("Queue", nil)
	addPlaylist := widget.NewButton("Save", nil)
	sourceRow := container.NewBorder(nil, nil, nil,
		container.NewHBox(downloadPlay, addQueue, addPlaylist), w.urlEntry)

	// Transport row
	w.playButton = widget.NewButtonWithIcon("", theme.MediaPlayIcon(), nil)
	w.stopButton = widget.NewButtonWithIcon("", theme.MediaStopIcon(), nil)
	w.nextButton = widget.NewButtonWithIcon("", theme.MediaSkipNextIcon(), nil)
	w.trackInfo = widget.NewLabel("")
	w.trackInfo.Truncation = fyneapp.TextTruncateClip
	w.trackInfo.TextStyle = fyneapp.TextStyle{Bold: true}

	w.volumeSlider = widget.NewSlider(0, 100)
	w.volumeSlider.Orientation = widget.Horizontal

	transportRow := container.NewBorder(nil, nil,
		container.NewHBox(w.playButton, w.stopButton, w.nextButton),
		container.NewGridWrap(fyneapp.Size{Width: 140, Height: 36}, w.volumeSlider),
		w.trackInfo)

	// Progress row
	w.progressSlider = widget.NewSlider(0, 1)
	w.progressSlider.Step = 0.001
	w.currentTime = widget.NewLabel("00:00")
	w.endTime = widget.NewLabel("00:00")
	progressRow := container.NewBorder(nil, nil, w.currentTime, w.endTime, w.progressSlider)

	// Queue and playlist tabs
	w.queueList = widget.NewList(
		func() int { return len(w.queue) },
		func() fyneapp.CanvasObject { return widget.NewLabel("") },
		func(i widget.ListItemID, o fyneapp.CanvasObject) {
			if i >= len(w.queue) {
				return
			}
			label := o.(*widget.Label)
			name := w.queue[i].Name
			if i == 0 {
				name = "▶ " + name
			}
			label.SetText(name)
		},
	)

	w.playlistList = widget.NewList(
		func() int { return len(w.playlist) },
		func() fyneapp.CanvasObject { return widget.NewLabel("") },
		func(i widget.ListItemID, o fyneapp.CanvasObject) {
			if i >= len(w.playlist) {
				return
			}
			o.(*widget.Label).SetText(w.playlist[i].Name)
		},
	)

	playEntry := widget.NewButtonWithIcon("Play", theme.MediaPlayIcon(), nil)
	moveUp := widget.NewButtonWithIcon("", theme.MoveUpIcon(), nil)
	moveDown := widget.NewButtonWithIcon("", theme.MoveDownIcon(), nil)
	removeEntry := widget.NewButtonWithIcon("", theme.DeleteIcon(), nil)
	playlistActions := container.NewHBox(playEntry, moveUp, moveDown, removeEntry)
	playlistTab := container.NewBorder(nil, playlistActions, nil, nil, w.playlistList)

	tabs := container.NewAppTabs(
		container.NewTabItem("Queue", w.queueList),
		container.NewTabItem("Playlist", playlistTab),
	)

	// Status bar
	w.statusLabel = widget.NewLabel("idle")
	w.messageLabel = widget.NewLabel("")
	w.messageLabel.Truncation = fyneapp.TextTruncateClip
	statusBar := container.NewBorder(nil, nil, w.statusLabel, nil, w.messageLabel)

	top := container.NewVBox(sourceRow, transportRow, progressRow)
	w.window.SetContent(container.NewPadded(
		container.NewBorder(top, statusBar, nil, nil, tabs)))

	// Wire buttons that need the presenter lazily.
	downloadPlay.OnTapped = func() { w.presenter.OnDownloadAndPlay(w.urlEntry.Text) }
	addQueue.OnTapped = func() { w.presenter.OnAddToQueue(w.urlEntry.Text) }
	addPlaylist.OnTapped = func() { w.presenter.OnAddToPlaylist(w.urlEntry.Text) }
	playEntry.OnTapped = func() {
		if w.selectedPlaylist >= 0 {
			w.presenter.OnPlaylistPlay(w.selectedPlaylist)
		}
	}
	moveUp.OnTapped = func() {
		if w.selectedPlaylist > 0 {
			w.presenter.OnPlaylistMoveUp(w.selectedPlaylist)
			w.selectedPlaylist--
			w.playlistList.Select(w.selectedPlaylist)
		}
	}
	moveDown.OnTapped = func() {
		if w.selectedPlaylist >= 0 && w.selectedPlaylist < len(w.playlist)-1 {
			w.presenter.OnPlaylistMoveDown(w.selectedPlaylist)
			w.selectedPlaylist++
			w.playlistList.Select(w.selectedPlaylist)
		}
	}
	removeEntry.OnTapped = func() {
		if w.selectedPlaylist >= 0 {
			w.presenter.OnPlaylistRemove(w.selectedPlaylist)
			w.playlistList.UnselectAll()
			w.selectedPlaylist = -1
		}
	}

	w.playlistList.OnSelected = func(id widget.ListItemID) {
		w.selectedPlaylist = id
	}
	w.playlistList.OnUnselected = func(widget.ListItemID) {
		w.selectedPlaylist = -1
	}
}

// wirePresenterHandlers connects UI events to presenter handlers.
func (w *MainWindow) wirePresenterHandlers() {
	if w.presenter == nil {
		return
	}

	w.playButton.OnTapped = func() {
		w.presenter.OnPlayPauseClicked()
	}

	w.stopButton.OnTapped = func() {
		w.presenter.OnStopClicked()
	}

	w.nextButton.OnTapped = func() {
		w.presenter.OnNextClicked()
	}

	w.volumeSlider.OnChangeEnded = func(value float64) {
		w.presenter.OnVolumeChanged(value)
	}

	w.progressSlider.OnChanged = func(float64) {
		w.seeking = true
	}
	w.progressSlider.OnChangeEnded = func(value float64) {
		w.seeking = false
		w.presenter.OnSeekRequested(value)
	}
}

// ShowAndRun shows the window and runs the application.
func (w *MainWindow) ShowAndRun() {
	w.window.ShowAndRun()
}

// Close closes the window.
// It's safe to call multiple times (idempotent).
func (w *MainWindow) Close() {
	w.closeOnce.Do(func() {
		w.window.Close()
	})
}

// SetOnBeforeClose registers a callback invoked when the window closes.
func (w *MainWindow) SetOnBeforeClose(callback func()) {
	w.window.SetOnClosed(callback)
}

// UIView interface implementation

// SetPlayState updates the play/pause button state.
func (w *MainWindow) SetPlayState(playing bool) {
	fyneapp.Do(func() {
		if playing {
			w.playButton.SetIcon(theme.MediaPauseIcon())
		} else {
			w.playButton.SetIcon(theme.MediaPlayIcon())
		}
	})
}

// SetStatus updates the engine status label.
func (w *MainWindow) SetStatus(status string) {
	fyneapp.Do(func() {
		w.statusLabel.SetText(status)
	})
}

// SetTrackInfo updates the displayed track title.
func (w *MainWindow) SetTrackInfo(title string) {
	fyneapp.Do(func() {
		if title == "" {
			title = "No track loaded"
		}
		w.trackInfo.SetText(title)
	})
}

// SetVolume updates the volume slider (0-100).
func (w *MainWindow) SetVolume(percent int) {
	fyneapp.Do(func() {
		w.volumeSlider.Value = float64(percent)
		w.volumeSlider.Refresh()
	})
}

// SetProgress updates the progress slider and time labels.
func (w *MainWindow) SetProgress(position, duration time.Duration) {
	fyneapp.Do(func() {
		w.currentTime.SetText(formatDuration(position))
		w.endTime.SetText(formatDuration(duration))

		if w.seeking || duration <= 0 {
			return
		}
		w.progressSlider.Value = float64(position) / float64(duration)
		w.progressSlider.Refresh()
	})
}

// SetQueue replaces the queue list contents.
func (w *MainWindow) SetQueue(songs []domain.Song) {
	fyneapp.Do(func() {
		w.queue = songs
		w.queueList.Refresh()
	})
}

// SetPlaylist replaces the playlist list contents.
func (w *MainWindow) SetPlaylist(songs []domain.Song) {
	fyneapp.Do(func() {
		w.playlist = songs
		if w.selectedPlaylist >= len(songs) {
			w.selectedPlaylist = -1
			w.playlistList.UnselectAll()
		}
		w.playlistList.Refresh()
	})
}

// ShowMessage updates the transient status line.
func (w *MainWindow) ShowMessage(message string) {
	fyneapp.Do(func() {
		w.messageLabel.SetText(message)
	})
}

// formatDuration renders a duration as mm:ss.
func formatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d.Round(time.Second).Seconds())
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}

// Verify UIView implementation
var _ UIView = (*MainWindow)(nil)

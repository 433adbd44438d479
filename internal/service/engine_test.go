package service

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ytaudio/tubetune/internal/adapter/eventbus"
	mockfetcher "github.com/ytaudio/tubetune/internal/adapter/fetcher/mock"
	mockplayer "github.com/ytaudio/tubetune/internal/adapter/player/mock"
	"github.com/ytaudio/tubetune/internal/adapter/store/file"
	"github.com/ytaudio/tubetune/internal/cache"
	"github.com/ytaudio/tubetune/internal/domain"
	"github.com/ytaudio/tubetune/internal/logger"
)

const waitFor = 2 * time.Second

type engineFixture struct {
	engine   *EngineService
	playback *PlaybackService
	playlist *PlaylistService
	fetcher  *mockfetcher.Fetcher
	player   *mockplayer.Player
	bus      *eventbus.SyncEventBus
	cache    *cache.Dir
}

// Helper to create a fully wired engine on mock adapters.
func newTestEngine(t *testing.T) *engineFixture {
	t.Helper()

	log := logger.NewTestLogger()
	dir := t.TempDir()

	cacheDir, err := cache.New(filepath.Join(dir, "cache"), log)
	require.NoError(t, err)

	store, err := file.NewStore(filepath.Join(dir, "playlist.json"), log)
	require.NoError(t, err)

	bus := eventbus.NewSyncEventBus()
	bus.SetLogger(log)

	player := mockplayer.NewPlayer()
	player.SetTrackDuration(time.Hour)

	playback := NewPlaybackService(log, player, bus, testPollInterval, 0, 30)
	t.Cleanup(func() {
		require.NoError(t, playback.Shutdown())
	})

	playlist, err := NewPlaylistService(log, store, bus)
	require.NoError(t, err)

	fetcher := mockfetcher.NewFetcher(cacheDir)

	engine := NewEngineService(log, fetcher, playback, playlist, bus)
	t.Cleanup(func() {
		require.NoError(t, engine.Shutdown())
	})

	return &engineFixture{
		engine:   engine,
		playback: playback,
		playlist: playlist,
		fetcher:  fetcher,
		player:   player,
		bus:      bus,
		cache:    cacheDir,
	}
}

func (f *engineFixture) waitForStatus(t *testing.T, want domain.PlaybackStatus) {
	t.Helper()
	assert.Eventually(t, func() bool {
		return f.engine.Status() == want
	}, waitFor, testPollInterval, "expected status %v, got %v", want, f.engine.Status())
}

func (f *engineFixture) waitForCurrent(t *testing.T, id string) {
	t.Helper()
	assert.Eventually(t, func() bool {
		current := f.playback.Current()
		return current != nil && current.ID == id
	}, waitFor, testPollInterval)
}

func TestEngine_DownloadAndPlaySingle(t *testing.T) {
	f := newTestEngine(t)
	f.fetcher.AddSingle("https://example/watch?v=abc", domain.Song{ID: "abc", Name: "Track A"})

	require.NoError(t, f.engine.DownloadAndPlay("https://example/watch?v=abc"))

	f.waitForStatus(t, domain.StatusPlaying)
	f.waitForCurrent(t, "abc")

	queue := f.engine.Queue()
	require.Len(t, queue, 1)
	assert.Equal(t, "abc", queue[0].ID)
	assert.True(t, f.cache.Has("abc"))
}

func TestEngine_DownloadAndPlayCollection(t *testing.T) {
	f := newTestEngine(t)
	f.fetcher.AddCollection("https://example/playlist?list=xyz", []domain.Song{
		{ID: "s1", Name: "One"},
		{ID: "s2", Name: "Two"},
		{ID: "s3", Name: "Three"},
	})

	require.NoError(t, f.engine.DownloadAndPlay("https://example/playlist?list=xyz"))

	f.waitForStatus(t, domain.StatusPlaying)
	f.waitForCurrent(t, "s1")

	queue := f.engine.Queue()
	require.Len(t, queue, 3)
	assert.Equal(t, []string{"s1", "s2", "s3"}, songIDs(queue))

	// The track behind the head gets buffered ahead of time.
	assert.Eventually(t, func() bool {
		buffered := f.engine.BufferedNext()
		return buffered != nil && buffered.ID == "s2"
	}, waitFor, testPollInterval)

	// Only head and next are downloaded; the third track waits its turn.
	assert.Equal(t, 1, f.fetcher.FetchCalls("s1"))
	assert.Equal(t, 1, f.fetcher.FetchCalls("s2"))
	assert.Equal(t, 0, f.fetcher.FetchCalls("s3"))
}

func TestEngine_DownloadAndPlayReplacesSession(t *testing.T) {
	f := newTestEngine(t)
	f.fetcher.AddSingle("https://example/a", domain.Song{ID: "a", Name: "A"})
	f.fetcher.AddSingle("https://example/b", domain.Song{ID: "b", Name: "B"})

	require.NoError(t, f.engine.DownloadAndPlay("https://example/a"))
	f.waitForCurrent(t, "a")

	require.NoError(t, f.engine.DownloadAndPlay("https://example/b"))
	f.waitForCurrent(t, "b")

	queue := f.engine.Queue()
	require.Len(t, queue, 1)
	assert.Equal(t, "b", queue[0].ID)
}

func TestEngine_NextConsumesBuffer(t *testing.T) {
	f := newTestEngine(t)
	f.fetcher.AddCollection("https://example/list", []domain.Song{
		{ID: "s1", Name: "One"},
		{ID: "s2", Name: "Two"},
	})

	require.NoError(t, f.engine.DownloadAndPlay("https://example/list"))
	f.waitForCurrent(t, "s1")
	assert.Eventually(t, func() bool {
		return f.engine.BufferedNext() != nil
	}, waitFor, testPollInterval)

	require.NoError(t, f.engine.Next())

	f.waitForCurrent(t, "s2")
	assert.Nil(t, f.engine.BufferedNext())

	// The buffered file was reused, not downloaded again.
	assert.Equal(t, 1, f.fetcher.FetchCalls("s2"))
}

func TestEngine_NextWhileBufferInFlight(t *testing.T) {
	f := newTestEngine(t)
	f.fetcher.AddCollection("https://example/list", []domain.Song{
		{ID: "s1", Name: "One"},
		{ID: "s2", Name: "Two"},
	})
	f.fetcher.Gate("s2")

	require.NoError(t, f.engine.DownloadAndPlay("https://example/list"))
	f.waitForCurrent(t, "s1")

	// The buffer download for s2 is held open; skipping to it must not start
	// a second download for the same id.
	require.NoError(t, f.engine.Next())
	f.waitForStatus(t, domain.StatusDownloading)
	assert.Equal(t, 1, f.fetcher.FetchCalls("s2"))

	f.fetcher.Release("s2")
	f.waitForCurrent(t, "s2")
	f.waitForStatus(t, domain.StatusPlaying)
}

func TestEngine_StaleBufferDiscarded(t *testing.T) {
	f := newTestEngine(t)
	f.fetcher.AddCollection("https://example/list", []domain.Song{
		{ID: "s1", Name: "One"},
		{ID: "s2", Name: "Two"},
	})
	f.fetcher.AddSingle("https://example/c", domain.Song{ID: "c", Name: "C"})
	f.fetcher.Gate("s2")

	require.NoError(t, f.engine.DownloadAndPlay("https://example/list"))
	f.waitForCurrent(t, "s1")
	assert.Eventually(t, func() bool {
		return f.fetcher.FetchCalls("s2") == 1
	}, waitFor, testPollInterval)

	// Replace the whole session while s2's buffer download is in flight.
	require.NoError(t, f.engine.DownloadAndPlay("https://example/c"))
	f.waitForCurrent(t, "c")

	// The late completion for s2 no longer matches any queue slot.
	f.fetcher.Release("s2")
	time.Sleep(5 * testPollInterval)

	assert.Nil(t, f.engine.BufferedNext())
	current := f.playback.Current()
	require.NotNil(t, current)
	assert.Equal(t, "c", current.ID)
}

func TestEngine_NextAtEndStopsSession(t *testing.T) {
	f := newTestEngine(t)
	f.fetcher.AddSingle("https://example/a", domain.Song{ID: "a", Name: "A"})

	require.NoError(t, f.engine.DownloadAndPlay("https://example/a"))
	f.waitForCurrent(t, "a")

	require.NoError(t, f.engine.Next())

	assert.Empty(t, f.engine.Queue())
	assert.Equal(t, domain.StatusStopped, f.engine.Status())
	assert.Nil(t, f.playback.Current())

	assert.ErrorIs(t, f.engine.Next(), domain.ErrQueueEmpty)
}

func TestEngine_AutoAdvanceOnCompletion(t *testing.T) {
	f := newTestEngine(t)
	f.player.SetTrackDuration(10 * time.Second)
	f.fetcher.AddCollection("https://example/list", []domain.Song{
		{ID: "s1", Name: "One"},
		{ID: "s2", Name: "Two"},
	})

	require.NoError(t, f.engine.DownloadAndPlay("https://example/list"))
	f.waitForCurrent(t, "s1")
	assert.Eventually(t, func() bool {
		return f.engine.BufferedNext() != nil
	}, waitFor, testPollInterval)

	// Let the track run out; the engine should advance on its own.
	f.player.SetPosition(10*time.Second - time.Millisecond)

	f.waitForCurrent(t, "s2")
	f.waitForStatus(t, domain.StatusPlaying)

	queue := f.engine.Queue()
	require.Len(t, queue, 1)
	assert.Equal(t, "s2", queue[0].ID)
}

func TestEngine_DownloadFailureStopsWithoutRetry(t *testing.T) {
	f := newTestEngine(t)
	collector := collectEvents(f.bus)
	f.fetcher.AddSingle("https://example/a", domain.Song{ID: "a", Name: "A"})
	f.fetcher.SetFetchError("a", errors.New("network down"))

	require.NoError(t, f.engine.DownloadAndPlay("https://example/a"))

	f.waitForStatus(t, domain.StatusStopped)
	assert.Equal(t, 1, collector.count(domain.EventDownloadFailed))
	assert.Nil(t, f.playback.Current())

	// No automatic retry.
	time.Sleep(5 * testPollInterval)
	assert.Equal(t, 1, f.fetcher.FetchCalls("a"))

	// The failed track keeps its queue slot for an explicit retry.
	queue := f.engine.Queue()
	require.Len(t, queue, 1)
	assert.Equal(t, "a", queue[0].ID)
}

func TestEngine_BufferFailureKeepsPlaying(t *testing.T) {
	f := newTestEngine(t)
	collector := collectEvents(f.bus)
	f.fetcher.AddCollection("https://example/list", []domain.Song{
		{ID: "s1", Name: "One"},
		{ID: "s2", Name: "Two"},
	})
	f.fetcher.SetFetchError("s2", errors.New("network down"))

	require.NoError(t, f.engine.DownloadAndPlay("https://example/list"))
	f.waitForCurrent(t, "s1")

	assert.Eventually(t, func() bool {
		return collector.count(domain.EventDownloadFailed) == 1
	}, waitFor, testPollInterval)

	// Playback of the current track is untouched by the buffer failure.
	assert.Equal(t, domain.StatusPlaying, f.engine.Status())
	assert.Nil(t, f.engine.BufferedNext())
	assert.Equal(t, 1, f.fetcher.FetchCalls("s2"))
}

func TestEngine_ResolutionFailure(t *testing.T) {
	f := newTestEngine(t)
	collector := collectEvents(f.bus)
	f.fetcher.SetResolveError("https://example/bad", errors.New("no such video"))

	require.NoError(t, f.engine.DownloadAndPlay("https://example/bad"))

	f.waitForStatus(t, domain.StatusIdle)
	assert.Eventually(t, func() bool {
		return collector.count(domain.EventStatusMessage) >= 1
	}, waitFor, testPollInterval)
	assert.Empty(t, f.engine.Queue())
}

func TestEngine_AddToQueueWhilePlaying(t *testing.T) {
	f := newTestEngine(t)
	f.fetcher.AddSingle("https://example/a", domain.Song{ID: "a", Name: "A"})
	f.fetcher.AddSingle("https://example/b", domain.Song{ID: "b", Name: "B"})

	require.NoError(t, f.engine.DownloadAndPlay("https://example/a"))
	f.waitForCurrent(t, "a")

	require.NoError(t, f.engine.AddToQueue("https://example/b"))

	assert.Eventually(t, func() bool {
		return len(f.engine.Queue()) == 2
	}, waitFor, testPollInterval)

	// Playback was not interrupted and the new track starts buffering.
	current := f.playback.Current()
	require.NotNil(t, current)
	assert.Equal(t, "a", current.ID)
	assert.Eventually(t, func() bool {
		buffered := f.engine.BufferedNext()
		return buffered != nil && buffered.ID == "b"
	}, waitFor, testPollInterval)
}

func TestEngine_AddToPlaylist(t *testing.T) {
	f := newTestEngine(t)
	f.fetcher.AddCollection("https://example/list", []domain.Song{
		{ID: "s1", Name: "One"},
		{ID: "s2", Name: "Two"},
	})

	require.NoError(t, f.engine.AddToPlaylist("https://example/list"))

	assert.Eventually(t, func() bool {
		return len(f.playlist.Songs()) == 2
	}, waitFor, testPollInterval)

	// Nothing plays and nothing downloads.
	assert.Empty(t, f.engine.Queue())
	assert.Equal(t, 0, f.fetcher.FetchCalls("s1"))
}

func TestEngine_PlayFromPlaylist(t *testing.T) {
	f := newTestEngine(t)

	_, err := f.playlist.Add(domain.Song{ID: "a", Name: "Song A"})
	require.NoError(t, err)

	require.NoError(t, f.engine.PlayFromPlaylist(0))

	f.waitForCurrent(t, "a")
	f.waitForStatus(t, domain.StatusPlaying)
	assert.Equal(t, 1, f.fetcher.FetchCalls("a"))

	assert.ErrorIs(t, f.engine.PlayFromPlaylist(7), domain.ErrInvalidIndex)
}

func TestEngine_PlayFromPlaylistDisplacesQueue(t *testing.T) {
	f := newTestEngine(t)
	f.fetcher.AddSingle("https://example/a", domain.Song{ID: "a", Name: "A"})

	require.NoError(t, f.engine.DownloadAndPlay("https://example/a"))
	f.waitForCurrent(t, "a")

	_, err := f.playlist.Add(domain.Song{ID: "p", Name: "Song P"})
	require.NoError(t, err)

	require.NoError(t, f.engine.PlayFromPlaylist(0))
	f.waitForCurrent(t, "p")

	// The interrupted track is pushed behind the playlist entry, not dropped.
	assert.Equal(t, []string{"p", "a"}, songIDs(f.engine.Queue()))

	require.NoError(t, f.engine.Next())
	f.waitForCurrent(t, "a")
}

func TestEngine_PlayPause(t *testing.T) {
	f := newTestEngine(t)
	f.fetcher.AddSingle("https://example/a", domain.Song{ID: "a", Name: "A"})

	assert.ErrorIs(t, f.engine.PlayPause(), domain.ErrNoTrackLoaded)

	require.NoError(t, f.engine.DownloadAndPlay("https://example/a"))
	f.waitForCurrent(t, "a")

	require.NoError(t, f.engine.PlayPause())
	assert.Equal(t, domain.StatusPaused, f.engine.Status())
	assert.False(t, f.playback.IsPlaying())

	require.NoError(t, f.engine.PlayPause())
	assert.Equal(t, domain.StatusPlaying, f.engine.Status())
	assert.True(t, f.playback.IsPlaying())
}

func TestEngine_StopAndResumeFromQueue(t *testing.T) {
	f := newTestEngine(t)
	f.fetcher.AddSingle("https://example/a", domain.Song{ID: "a", Name: "A"})

	require.NoError(t, f.engine.DownloadAndPlay("https://example/a"))
	f.waitForCurrent(t, "a")

	require.NoError(t, f.engine.Stop())
	assert.Equal(t, domain.StatusStopped, f.engine.Status())
	assert.Nil(t, f.playback.Current())

	// The queue survives a stop; play/pause restarts its head.
	require.Len(t, f.engine.Queue(), 1)
	require.NoError(t, f.engine.PlayPause())
	f.waitForCurrent(t, "a")
	f.waitForStatus(t, domain.StatusPlaying)
}

func TestEngine_VolumeAndSeek(t *testing.T) {
	f := newTestEngine(t)
	f.player.SetTrackDuration(100 * time.Second)
	f.fetcher.AddSingle("https://example/a", domain.Song{ID: "a", Name: "A"})

	require.NoError(t, f.engine.DownloadAndPlay("https://example/a"))
	f.waitForCurrent(t, "a")

	require.NoError(t, f.engine.SetVolume(70))
	assert.Equal(t, 70, f.engine.State().Volume)

	require.NoError(t, f.engine.Seek(0.25))
	position, _ := f.playback.Progress()
	assert.Equal(t, 25*time.Second, position)
}

func TestEngine_CachedTrackSkipsDownloadWork(t *testing.T) {
	f := newTestEngine(t)
	f.fetcher.AddSingle("https://example/a", domain.Song{ID: "a", Name: "A"})

	require.NoError(t, f.engine.DownloadAndPlay("https://example/a"))
	f.waitForCurrent(t, "a")

	require.NoError(t, f.engine.Next())
	require.NoError(t, f.engine.DownloadAndPlay("https://example/a"))
	f.waitForCurrent(t, "a")

	// Second playthrough reuses the cached file inside the fetcher.
	assert.Equal(t, 2, f.fetcher.FetchCalls("a"))
	assert.True(t, f.cache.Has("a"))
}

func TestEngine_StateSnapshot(t *testing.T) {
	f := newTestEngine(t)
	f.fetcher.AddCollection("https://example/list", []domain.Song{
		{ID: "s1", Name: "One"},
		{ID: "s2", Name: "Two"},
	})

	state := f.engine.State()
	assert.Nil(t, state.Current)
	assert.Equal(t, domain.StatusIdle, state.Status)

	require.NoError(t, f.engine.DownloadAndPlay("https://example/list"))
	f.waitForStatus(t, domain.StatusPlaying)

	state = f.engine.State()
	require.NotNil(t, state.Current)
	assert.Equal(t, "s1", state.Current.ID)
	assert.Equal(t, []string{"s1", "s2"}, songIDs(state.Queue))
	assert.Equal(t, 30, state.Volume)
}

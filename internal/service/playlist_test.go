package service

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ytaudio/tubetune/internal/adapter/eventbus"
	"github.com/ytaudio/tubetune/internal/adapter/store/file"
	"github.com/ytaudio/tubetune/internal/domain"
	"github.com/ytaudio/tubetune/internal/logger"
)

// Helper to create a test playlist service backed by a real file store.
func newTestPlaylist(t *testing.T) (*PlaylistService, *eventbus.SyncEventBus, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "playlist.json")
	store, err := file.NewStore(path, logger.NewTestLogger())
	require.NoError(t, err)

	bus := eventbus.NewSyncEventBus()
	bus.SetLogger(logger.NewTestLogger())

	playlist, err := NewPlaylistService(logger.NewTestLogger(), store, bus)
	require.NoError(t, err)

	return playlist, bus, path
}

func TestPlaylistService_StartsEmpty(t *testing.T) {
	playlist, _, _ := newTestPlaylist(t)
	assert.Empty(t, playlist.Songs())
}

func TestPlaylistService_Add(t *testing.T) {
	playlist, bus, _ := newTestPlaylist(t)
	collector := collectEvents(bus)

	added, err := playlist.Add(
		domain.Song{ID: "a", Name: "Song A"},
		domain.Song{ID: "b", Name: "Song B"},
	)
	require.NoError(t, err)
	assert.Equal(t, 2, added)

	songs := playlist.Songs()
	require.Len(t, songs, 2)
	assert.Equal(t, "a", songs[0].ID)
	assert.Equal(t, "b", songs[1].ID)

	assert.Equal(t, 1, collector.count(domain.EventPlaylistUpdated))
}

func TestPlaylistService_AddSkipsDuplicates(t *testing.T) {
	playlist, bus, _ := newTestPlaylist(t)
	collector := collectEvents(bus)

	added, err := playlist.Add(domain.Song{ID: "a", Name: "Song A"})
	require.NoError(t, err)
	assert.Equal(t, 1, added)

	// Same id again, even with a different display name.
	added, err = playlist.Add(domain.Song{ID: "a", Name: "Renamed"})
	require.NoError(t, err)
	assert.Equal(t, 0, added)

	songs := playlist.Songs()
	require.Len(t, songs, 1)
	assert.Equal(t, "Song A", songs[0].Name)

	// The duplicate-only add publishes no update.
	assert.Equal(t, 1, collector.count(domain.EventPlaylistUpdated))
}

func TestPlaylistService_AddPersists(t *testing.T) {
	playlist, _, path := newTestPlaylist(t)

	_, err := playlist.Add(domain.Song{ID: "a", Name: "Song A"})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"songs":[{"name":"Song A","ID":"a"}]}`, string(data))
}

func TestPlaylistService_LoadsExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "playlist.json")
	require.NoError(t, os.WriteFile(path,
		[]byte(`{"songs":[{"name":"Song A","ID":"a"},{"name":"Song B","ID":"b"}]}`), 0o644))

	store, err := file.NewStore(path, logger.NewTestLogger())
	require.NoError(t, err)

	bus := eventbus.NewSyncEventBus()
	playlist, err := NewPlaylistService(logger.NewTestLogger(), store, bus)
	require.NoError(t, err)

	songs := playlist.Songs()
	require.Len(t, songs, 2)
	assert.Equal(t, "Song A", songs[0].Name)
	assert.Equal(t, "b", songs[1].ID)
}

func TestPlaylistService_CorruptFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "playlist.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	store, err := file.NewStore(path, logger.NewTestLogger())
	require.NoError(t, err)

	bus := eventbus.NewSyncEventBus()
	collector := collectEvents(bus)

	playlist, err := NewPlaylistService(logger.NewTestLogger(), store, bus)
	require.NoError(t, err)

	assert.Empty(t, playlist.Songs())
	assert.Equal(t, 1, collector.count(domain.EventStatusMessage))
}

func TestPlaylistService_Get(t *testing.T) {
	playlist, _, _ := newTestPlaylist(t)

	_, err := playlist.Add(domain.Song{ID: "a", Name: "Song A"})
	require.NoError(t, err)

	song, err := playlist.Get(0)
	require.NoError(t, err)
	assert.Equal(t, "a", song.ID)

	_, err = playlist.Get(1)
	assert.ErrorIs(t, err, domain.ErrInvalidIndex)
	_, err = playlist.Get(-1)
	assert.ErrorIs(t, err, domain.ErrInvalidIndex)
}

func TestPlaylistService_Remove(t *testing.T) {
	playlist, _, _ := newTestPlaylist(t)

	_, err := playlist.Add(
		domain.Song{ID: "a", Name: "Song A"},
		domain.Song{ID: "b", Name: "Song B"},
	)
	require.NoError(t, err)

	require.NoError(t, playlist.Remove(0))

	songs := playlist.Songs()
	require.Len(t, songs, 1)
	assert.Equal(t, "b", songs[0].ID)

	assert.ErrorIs(t, playlist.Remove(5), domain.ErrInvalidIndex)
}

func TestPlaylistService_Reorder(t *testing.T) {
	playlist, _, path := newTestPlaylist(t)

	_, err := playlist.Add(
		domain.Song{ID: "a", Name: "Song A"},
		domain.Song{ID: "b", Name: "Song B"},
		domain.Song{ID: "c", Name: "Song C"},
	)
	require.NoError(t, err)

	require.NoError(t, playlist.Reorder(1, domain.MoveUp))
	assert.Equal(t, []string{"b", "a", "c"}, songIDs(playlist.Songs()))

	require.NoError(t, playlist.Reorder(1, domain.MoveDown))
	assert.Equal(t, []string{"b", "c", "a"}, songIDs(playlist.Songs()))

	// The new order is persisted.
	store, err := file.NewStore(path, logger.NewTestLogger())
	require.NoError(t, err)
	stored, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c", "a"}, songIDs(stored.Songs))
}

func TestPlaylistService_ReorderBoundariesAreNoOps(t *testing.T) {
	playlist, _, _ := newTestPlaylist(t)

	_, err := playlist.Add(
		domain.Song{ID: "a", Name: "Song A"},
		domain.Song{ID: "b", Name: "Song B"},
	)
	require.NoError(t, err)

	// First entry up and last entry down leave the order untouched.
	require.NoError(t, playlist.Reorder(0, domain.MoveUp))
	require.NoError(t, playlist.Reorder(1, domain.MoveDown))
	assert.Equal(t, []string{"a", "b"}, songIDs(playlist.Songs()))

	assert.ErrorIs(t, playlist.Reorder(2, domain.MoveUp), domain.ErrInvalidIndex)
	assert.ErrorIs(t, playlist.Reorder(-1, domain.MoveDown), domain.ErrInvalidIndex)
}

func songIDs(songs []domain.Song) []string {
	ids := make([]string, len(songs))
	for i, s := range songs {
		ids[i] = s.ID
	}
	return ids
}

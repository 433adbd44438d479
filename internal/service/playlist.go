package service

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/ytaudio/tubetune/internal/domain"
	"github.com/ytaudio/tubetune/internal/ports"
)

// PlaylistService manages the durable, ordered song list.
// Every mutation is written through to the store before subscribers hear
// about it, so the in-memory list and the file never drift apart.
//
// All operations are thread-safe via sync.RWMutex.
type PlaylistService struct {
	// Dependencies (injected)
	logger *slog.Logger
	store  ports.PlaylistStore
	bus    ports.EventBus

	// State
	playlist domain.Playlist

	mu sync.RWMutex
}

// NewPlaylistService creates a playlist service and loads the stored list.
// A corrupt playlist file is reported through the event bus and replaced with
// an empty list; the application keeps running.
func NewPlaylistService(
	logger *slog.Logger,
	store ports.PlaylistStore,
	bus ports.EventBus,
) (*PlaylistService, error) {
	s := &PlaylistService{
		logger: logger,
		store:  store,
		bus:    bus,
	}

	playlist, err := store.Load()
	if err != nil {
		if !errors.Is(err, domain.ErrPlaylistCorrupt) {
			return nil, err
		}
		logger.Warn("stored playlist unreadable, starting empty", slog.Any("error", err))
		bus.Publish(domain.NewStatusMessageEvent("playlist file was unreadable, starting with an empty playlist", err))
		playlist = domain.Playlist{Songs: []domain.Song{}}
	}
	s.playlist = playlist

	logger.Debug("playlist loaded", slog.Int("songs", len(playlist.Songs)))
	return s, nil
}

// Songs returns a copy of the playlist in order.
func (s *PlaylistService) Songs() []domain.Song {
	s.mu.RLock()
	defer s.mu.RUnlock()

	songs := make([]domain.Song, len(s.playlist.Songs))
	copy(songs, s.playlist.Songs)
	return songs
}

// Get returns the song at the given index.
func (s *PlaylistService) Get(index int) (domain.Song, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if index < 0 || index >= len(s.playlist.Songs) {
		return domain.Song{}, domain.ErrInvalidIndex
	}
	return s.playlist.Songs[index], nil
}

// Add appends songs that are not yet in the playlist, keyed by id, and
// persists the result. Returns how many songs were actually added; duplicates
// are skipped silently.
func (s *PlaylistService) Add(songs ...domain.Song) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	added := 0
	for _, song := range songs {
		if song.ID == "" || s.playlist.Contains(song.ID) {
			continue
		}
		s.playlist.Songs = append(s.playlist.Songs, song)
		added++
	}

	if added == 0 {
		return 0, nil
	}

	if err := s.store.Save(s.playlist); err != nil {
		// Roll back so memory matches disk.
		s.playlist.Songs = s.playlist.Songs[:len(s.playlist.Songs)-added]
		return 0, err
	}

	s.logger.Info("songs added to playlist",
		slog.Int("added", added), slog.Int("total", len(s.playlist.Songs)))
	s.publishUpdatedLocked()
	return added, nil
}

// Remove deletes the song at the given index and persists the result.
func (s *PlaylistService) Remove(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index >= len(s.playlist.Songs) {
		return domain.ErrInvalidIndex
	}

	removed := s.playlist.Songs[index]
	remaining := make([]domain.Song, 0, len(s.playlist.Songs)-1)
	remaining = append(remaining, s.playlist.Songs[:index]...)
	remaining = append(remaining, s.playlist.Songs[index+1:]...)

	before := s.playlist.Songs
	s.playlist.Songs = remaining

	if err := s.store.Save(s.playlist); err != nil {
		s.playlist.Songs = before
		return err
	}

	s.logger.Info("song removed from playlist", slog.String("id", removed.ID))
	s.publishUpdatedLocked()
	return nil
}

// Reorder swaps the entry at index with its neighbour in the given direction
// and persists the result. Moving the first entry up or the last entry down
// is a no-op.
func (s *PlaylistService) Reorder(index int, direction domain.ReorderDirection) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index >= len(s.playlist.Songs) {
		return domain.ErrInvalidIndex
	}

	target := index - 1
	if direction == domain.MoveDown {
		target = index + 1
	}
	if target < 0 || target >= len(s.playlist.Songs) {
		return nil
	}

	songs := s.playlist.Songs
	songs[index], songs[target] = songs[target], songs[index]

	if err := s.store.Save(s.playlist); err != nil {
		songs[index], songs[target] = songs[target], songs[index]
		return err
	}

	s.publishUpdatedLocked()
	return nil
}

// publishUpdatedLocked publishes the current list (caller must hold lock).
func (s *PlaylistService) publishUpdatedLocked() {
	songs := make([]domain.Song, len(s.playlist.Songs))
	copy(songs, s.playlist.Songs)
	s.bus.Publish(domain.NewPlaylistUpdatedEvent(songs))
}

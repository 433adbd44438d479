// Package file implements ports.PlaylistStore on a single JSON file.
// The on-disk shape is {"songs":[{"name": ..., "ID": ...}]} and must stay
// stable across releases; older playlist files keep loading.
package file

import (
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/ytaudio/tubetune/internal/domain"
	"github.com/ytaudio/tubetune/internal/ports"
)

// Store persists the playlist to a JSON file with write-through semantics:
// the whole file is rewritten after every mutation, via a temp file and
// rename so a crash mid-write never corrupts the previous contents.
//
// Thread-safe: all operations protected by sync.Mutex (single writer).
type Store struct {
	path   string
	logger *slog.Logger
	mu     sync.Mutex
}

// NewStore creates a playlist store backed by the file at path.
// The file is created with an empty playlist if it does not exist yet.
func NewStore(path string, logger *slog.Logger) (*Store, error) {
	s := &Store{path: path, logger: logger}

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := s.Save(domain.Playlist{Songs: []domain.Song{}}); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, domain.NewPersistenceError("stat", path, err)
	}

	return s, nil
}

// Load reads the playlist from disk.
// A corrupt file yields an empty playlist plus a recoverable error wrapping
// domain.ErrPlaylistCorrupt; the caller warns and continues.
func (s *Store) Load() (domain.Playlist, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		return domain.Playlist{}, domain.NewPersistenceError("load", s.path, err)
	}

	var playlist domain.Playlist
	if err := json.Unmarshal(data, &playlist); err != nil {
		s.logger.Warn("playlist file is corrupt, falling back to empty playlist",
			slog.String("path", s.path), slog.Any("error", err))
		return domain.Playlist{Songs: []domain.Song{}},
			domain.NewPersistenceError("load", s.path, domain.ErrPlaylistCorrupt)
	}

	if playlist.Songs == nil {
		playlist.Songs = []domain.Song{}
	}

	return playlist, nil
}

// Save rewrites the playlist file with the given contents.
func (s *Store) Save(playlist domain.Playlist) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if playlist.Songs == nil {
		playlist.Songs = []domain.Song{}
	}

	data, err := json.Marshal(playlist)
	if err != nil {
		return domain.NewPersistenceError("save", s.path, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".playlist-*")
	if err != nil {
		return domain.NewPersistenceError("save", s.path, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return domain.NewPersistenceError("save", s.path, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return domain.NewPersistenceError("save", s.path, err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return domain.NewPersistenceError("save", s.path, err)
	}

	return nil
}

// Verify that Store implements the PlaylistStore interface
var _ ports.PlaylistStore = (*Store)(nil)

// Package cache manages the local audio cache directory.
// Files are keyed by song id (<id>.mp3); presence of a file for an id is
// sufficient proof that the id needs no re-download before playback.
package cache

import (
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dhowden/tag"
	"github.com/ytaudio/tubetune/internal/domain"
)

const audioExt = ".mp3"

// Dir is an audio cache rooted at a single directory.
// All methods are safe for concurrent use: lookups and writes for different
// ids never collide because the id is the file name, and same-id downloads
// are suppressed upstream by the engine.
type Dir struct {
	root   string
	logger *slog.Logger
}

// New opens (creating if needed) the cache directory at root.
func New(root string, logger *slog.Logger) (*Dir, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	return &Dir{root: root, logger: logger}, nil
}

// Root returns the cache directory path.
func (d *Dir) Root() string {
	return d.root
}

// Path returns the cache file path for an id, whether or not it exists.
func (d *Dir) Path(id string) string {
	return filepath.Join(d.root, id+audioExt)
}

// Has reports whether a cached audio file exists for the id.
func (d *Dir) Has(id string) bool {
	info, err := os.Stat(d.Path(id))
	return err == nil && !info.IsDir() && info.Size() > 0
}

// Scan lists the cached tracks, reading display titles from ID3 tags where
// available and falling back to the id. Results are sorted by id.
func (d *Dir) Scan() []domain.CachedTrack {
	entries, err := os.ReadDir(d.root)
	if err != nil {
		d.logger.Warn("cache scan failed", slog.Any("error", err))
		return nil
	}

	tracks := make([]domain.CachedTrack, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), audioExt) {
			continue
		}
		id := strings.TrimSuffix(entry.Name(), audioExt)
		path := filepath.Join(d.root, entry.Name())
		tracks = append(tracks, domain.CachedTrack{
			ID:    id,
			Title: d.readTitle(path, id),
			Path:  path,
		})
	}

	sort.Slice(tracks, func(i, j int) bool { return tracks[i].ID < tracks[j].ID })
	return tracks
}

// readTitle extracts the ID3 title from a cached file, falling back to the id.
func (d *Dir) readTitle(path, id string) string {
	f, err := os.Open(path)
	if err != nil {
		return id
	}
	defer func() {
		_ = f.Close()
	}()

	meta, err := tag.ReadFrom(f)
	if err != nil || meta.Title() == "" {
		return id
	}
	return meta.Title()
}

// Purge removes cached files whose ids are not in keep.
// Ids currently in use (playing or buffered) must be passed in keep.
func (d *Dir) Purge(keep ...string) {
	keepSet := make(map[string]struct{}, len(keep))
	for _, id := range keep {
		keepSet[id] = struct{}{}
	}

	entries, err := os.ReadDir(d.root)
	if err != nil {
		d.logger.Warn("cache purge failed", slog.Any("error", err))
		return
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), audioExt) {
			continue
		}
		id := strings.TrimSuffix(entry.Name(), audioExt)
		if _, ok := keepSet[id]; ok {
			continue
		}
		if err := os.Remove(filepath.Join(d.root, entry.Name())); err != nil {
			d.logger.Warn("failed to remove cached file",
				slog.String("id", id), slog.Any("error", err))
		}
	}
}

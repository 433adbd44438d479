// Package mock provides a mock implementation of the Fetcher interface.
// This is used for testing services without network access or ffmpeg.
package mock

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/ytaudio/tubetune/internal/cache"
	"github.com/ytaudio/tubetune/internal/domain"
	"github.com/ytaudio/tubetune/internal/ports"
)

// Fetcher is a mock implementation of the Fetcher interface.
// Sources are scripted per URL and downloads write small real files into the
// cache so downstream code sees the same filesystem shape as production.
//
// Thread-safety: This implementation is thread-safe.
type Fetcher struct {
	cache *cache.Dir

	// sources maps URLs to scripted resolution results
	sources map[string]domain.SourceInfo

	// resolveErrs and fetchErrs inject failures per URL / per id
	resolveErrs map[string]error
	fetchErrs   map[string]error

	// gates holds FetchAudio open per id until released
	gates map[string]chan struct{}

	resolveCalls map[string]int
	fetchCalls   map[string]int

	mu sync.Mutex
}

// NewFetcher creates a mock fetcher writing into the given cache.
func NewFetcher(cacheDir *cache.Dir) *Fetcher {
	return &Fetcher{
		cache:        cacheDir,
		sources:      make(map[string]domain.SourceInfo),
		resolveErrs:  make(map[string]error),
		fetchErrs:    make(map[string]error),
		gates:        make(map[string]chan struct{}),
		resolveCalls: make(map[string]int),
		fetchCalls:   make(map[string]int),
	}
}

// AddSingle scripts a URL to resolve to one song.
func (m *Fetcher) AddSingle(url string, song domain.Song) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sources[url] = domain.SourceInfo{Collection: false, Items: []domain.Song{song}}
}

// AddCollection scripts a URL to resolve to an ordered collection.
func (m *Fetcher) AddCollection(url string, songs []domain.Song) {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := make([]domain.Song, len(songs))
	copy(items, songs)
	m.sources[url] = domain.SourceInfo{Collection: true, Items: items}
}

// SetResolveError configures resolution of a URL to fail (for testing).
func (m *Fetcher) SetResolveError(url string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resolveErrs[url] = err
}

// SetFetchError configures the download of an id to fail (for testing).
func (m *Fetcher) SetFetchError(id string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fetchErrs[id] = err
}

// Gate makes FetchAudio for the id block until Release is called.
// Must be set before the download starts.
func (m *Fetcher) Gate(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.gates[id]; !exists {
		m.gates[id] = make(chan struct{})
	}
}

// Release unblocks a gated download. Safe to call once per Gate.
func (m *Fetcher) Release(id string) {
	m.mu.Lock()
	gate, exists := m.gates[id]
	if exists {
		delete(m.gates, id)
	}
	m.mu.Unlock()

	if exists {
		close(gate)
	}
}

// ResolveCalls returns how many times the URL was resolved (for testing).
func (m *Fetcher) ResolveCalls(url string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.resolveCalls[url]
}

// FetchCalls returns how many times the id was downloaded (for testing).
func (m *Fetcher) FetchCalls(id string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fetchCalls[id]
}

// Resolve returns the scripted source for the URL.
func (m *Fetcher) Resolve(_ context.Context, url string) (domain.SourceInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.resolveCalls[url]++

	if err := m.resolveErrs[url]; err != nil {
		return domain.SourceInfo{}, domain.NewResolutionError(url, "mock resolution failed", err)
	}

	info, exists := m.sources[url]
	if !exists {
		return domain.SourceInfo{}, domain.NewResolutionError(url, "unknown URL", nil)
	}
	return info, nil
}

// FetchAudio writes a placeholder file into the cache for the id.
// If the id is gated, it blocks until released or the context ends.
func (m *Fetcher) FetchAudio(ctx context.Context, id string) (string, error) {
	m.mu.Lock()
	m.fetchCalls[id]++
	gate := m.gates[id]
	injected := m.fetchErrs[id]
	m.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return "", domain.NewDownloadError(id, "mock download cancelled", ctx.Err())
		}
	}

	if injected != nil {
		return "", domain.NewDownloadError(id, "mock download failed", injected)
	}

	path := m.cache.Path(id)
	if m.cache.Has(id) {
		return path, nil
	}

	content := fmt.Sprintf("mock audio for %s", id)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", domain.NewDownloadError(id, "writing mock file", err)
	}
	return path, nil
}

// Verify that Fetcher implements the Fetcher interface
var _ ports.Fetcher = (*Fetcher)(nil)

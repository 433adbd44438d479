// Package ports defines the Fetcher interface for the external resolver/downloader.
package ports

import (
	"context"

	"github.com/ytaudio/tubetune/internal/domain"
)

// Fetcher resolves source URLs to metadata and materializes local audio files.
// It is the network-bound collaborator: both calls may be slow and must be run
// off the control path; the engine invokes them from background tasks only.
//
// Implementations must be safe for concurrent use: the engine may have a
// foreground download and a look-ahead buffer download in flight at once
// (always for different ids; same-id duplicates are suppressed by the engine).
type Fetcher interface {
	// Resolve fetches metadata for a source URL. The URL is normalized by the
	// caller before use; two URLs differing only in tracking parameters must
	// already have been collapsed into one.
	//
	// Returns a SourceInfo with at least one item, or a *domain.ResolutionError.
	Resolve(ctx context.Context, url string) (domain.SourceInfo, error)

	// FetchAudio downloads and transcodes the audio for an id into the local
	// cache, returning the resulting file path. Calling it again for the same
	// id is safe (overwrite-or-reuse).
	//
	// Returns a *domain.DownloadError on failure.
	FetchAudio(ctx context.Context, id string) (string, error)
}

// Package youtube implements ports.Fetcher against YouTube using the kkdai
// client for resolution and streaming, ffmpeg for transcoding to mp3, and
// ID3v2 tags for embedded titles.
package youtube

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	id3v2 "github.com/bogem/id3v2/v2"
	yt "github.com/kkdai/youtube/v2"
	ffmpeg "github.com/u2takey/ffmpeg-go"

	"github.com/ytaudio/tubetune/internal/cache"
	"github.com/ytaudio/tubetune/internal/domain"
	"github.com/ytaudio/tubetune/internal/ports"
)

// Fetcher resolves YouTube URLs and materializes cached mp3 files.
//
// Safe for concurrent use for distinct ids: every download works through its
// own temp files and lands in the cache under <id>.mp3.
type Fetcher struct {
	client *yt.Client
	cache  *cache.Dir
	logger *slog.Logger
}

// NewFetcher creates a YouTube-backed fetcher writing into the given cache.
func NewFetcher(cacheDir *cache.Dir, logger *slog.Logger) *Fetcher {
	return &Fetcher{
		client: &yt.Client{},
		cache:  cacheDir,
		logger: logger,
	}
}

// Resolve normalizes the URL and fetches metadata for it. Playlist URLs yield
// a collection of entries in playlist order; everything else resolves to a
// single video.
func (f *Fetcher) Resolve(ctx context.Context, rawURL string) (domain.SourceInfo, error) {
	normalized, err := NormalizeURL(rawURL)
	if err != nil {
		return domain.SourceInfo{}, err
	}

	if IsPlaylistURL(normalized) {
		return f.resolvePlaylist(ctx, normalized)
	}
	return f.resolveVideo(ctx, normalized)
}

func (f *Fetcher) resolveVideo(ctx context.Context, url string) (domain.SourceInfo, error) {
	video, err := f.client.GetVideoContext(ctx, url)
	if err != nil {
		return domain.SourceInfo{}, domain.NewResolutionError(url, "fetching video metadata", err)
	}

	f.logger.Debug("resolved video",
		slog.String("id", video.ID), slog.String("title", video.Title))

	return domain.SourceInfo{
		Collection: false,
		Items:      []domain.Song{{ID: video.ID, Name: video.Title}},
	}, nil
}

func (f *Fetcher) resolvePlaylist(ctx context.Context, url string) (domain.SourceInfo, error) {
	playlist, err := f.client.GetPlaylistContext(ctx, url)
	if err != nil {
		return domain.SourceInfo{}, domain.NewResolutionError(url, "fetching playlist metadata", err)
	}
	if len(playlist.Videos) == 0 {
		return domain.SourceInfo{}, domain.NewResolutionError(url, "playlist has no entries", domain.ErrEmptySource)
	}

	items := make([]domain.Song, 0, len(playlist.Videos))
	for _, entry := range playlist.Videos {
		if entry == nil || entry.ID == "" {
			continue
		}
		items = append(items, domain.Song{ID: entry.ID, Name: entryTitle(entry)})
	}
	if len(items) == 0 {
		return domain.SourceInfo{}, domain.NewResolutionError(url, "playlist has no playable entries", domain.ErrEmptySource)
	}

	f.logger.Debug("resolved playlist",
		slog.String("title", playlist.Title), slog.Int("entries", len(items)))

	return domain.SourceInfo{Collection: true, Items: items}, nil
}

func entryTitle(entry *yt.PlaylistEntry) string {
	if entry.Title != "" {
		return entry.Title
	}
	return entry.ID
}

// FetchAudio downloads the audio for an id, transcodes it to mp3 and tags it.
// A non-empty cached file for the id is reused without touching the network.
func (f *Fetcher) FetchAudio(ctx context.Context, id string) (string, error) {
	dst := f.cache.Path(id)
	if f.cache.Has(id) {
		f.logger.Debug("cache hit", slog.String("id", id))
		return dst, nil
	}

	video, err := f.client.GetVideoContext(ctx, watchURLForID(id))
	if err != nil {
		return "", domain.NewDownloadError(id, "fetching video metadata", err)
	}

	format, err := selectAudioFormat(video)
	if err != nil {
		return "", domain.NewDownloadError(id, "selecting audio format", err)
	}

	rawPath, err := f.downloadStream(ctx, id, video, format)
	if err != nil {
		return "", err
	}
	defer func() {
		_ = os.Remove(rawPath)
	}()

	if err := transcodeToMP3(rawPath, dst); err != nil {
		_ = os.Remove(dst)
		return "", domain.NewDownloadError(id, "transcoding to mp3", err)
	}

	if err := embedTags(dst, video); err != nil {
		// Tags are cosmetic; a failure here never fails the download.
		f.logger.Warn("tag embedding failed",
			slog.String("id", id), slog.Any("error", err))
	}

	f.logger.Info("download complete",
		slog.String("id", id), slog.String("title", video.Title))
	return dst, nil
}

// downloadStream copies the selected format into a temp file next to the cache.
func (f *Fetcher) downloadStream(ctx context.Context, id string, video *yt.Video, format *yt.Format) (string, error) {
	stream, _, err := f.client.GetStreamContext(ctx, video, format)
	if err != nil {
		return "", domain.NewDownloadError(id, "starting stream", err)
	}
	defer func() {
		_ = stream.Close()
	}()

	tmp, err := os.CreateTemp(f.cache.Root(), ".raw-"+id+"-*")
	if err != nil {
		return "", domain.NewDownloadError(id, "creating temp file", err)
	}
	tmpName := tmp.Name()

	if _, err := io.Copy(tmp, stream); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return "", domain.NewDownloadError(id, "downloading stream", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return "", domain.NewDownloadError(id, "closing temp file", err)
	}

	return tmpName, nil
}

// selectAudioFormat picks the highest-bitrate audio-only format, falling back
// to a progressive video format (720p then 360p) whose audio track ffmpeg can
// still extract.
func selectAudioFormat(video *yt.Video) (*yt.Format, error) {
	var best *yt.Format
	for i := range video.Formats {
		f := &video.Formats[i]
		if f.AudioChannels == 0 || f.Width > 0 || f.Height > 0 {
			continue
		}
		if best == nil || f.Bitrate > best.Bitrate {
			best = f
		}
	}
	if best != nil {
		return best, nil
	}

	for _, itag := range []int{22, 18} {
		for i := range video.Formats {
			f := &video.Formats[i]
			if f.ItagNo == itag && f.AudioChannels > 0 {
				return f, nil
			}
		}
	}

	return nil, fmt.Errorf("no format with an audio track available")
}

// transcodeToMP3 re-encodes the raw download into a 192kbps mp3.
func transcodeToMP3(src, dst string) error {
	return ffmpeg.Input(src).
		Output(dst, ffmpeg.KwArgs{
			"vn":     "",
			"acodec": "libmp3lame",
			"b:a":    "192k",
		}).
		OverWriteOutput().
		Silent(true).
		Run()
}

// embedTags writes the video title and channel name into the mp3's ID3v2 tag.
func embedTags(path string, video *yt.Video) error {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return err
	}
	defer func() {
		_ = tag.Close()
	}()

	if video.Title != "" {
		tag.SetTitle(video.Title)
	}
	if video.Author != "" {
		tag.SetArtist(video.Author)
	}
	return tag.Save()
}

// Verify that Fetcher implements the Fetcher interface
var _ ports.Fetcher = (*Fetcher)(nil)

// Package beep implements ports.Player on the beep/v2 audio pipeline with an
// oto output device behind the speaker package.
package beep

import (
	"log/slog"
	"math"
	"os"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"

	"github.com/ytaudio/tubetune/internal/domain"
	"github.com/ytaudio/tubetune/internal/ports"
)

// outputRate is the fixed speaker sample rate; tracks with a different rate
// are resampled on the fly.
const outputRate = beep.SampleRate(44100)

// Player plays local mp3 files through the system audio device.
//
// Thread-safety: all methods are safe for concurrent use. State shared with
// the speaker's mixing goroutine (ctrl, volume, streamer position) is read and
// written under speaker.Lock.
type Player struct {
	logger *slog.Logger

	mu          sync.Mutex
	initialized bool
	file        *os.File
	streamer    beep.StreamSeekCloser
	format      beep.Format
	ctrl        *beep.Ctrl
	volume      *effects.Volume

	// volumePercent survives across Load calls so a volume chosen while one
	// track plays applies to the next.
	volumePercent int
}

// NewPlayer creates a beep-backed player at the given initial volume percent.
func NewPlayer(initialVolume int, logger *slog.Logger) *Player {
	if initialVolume < 0 {
		initialVolume = 0
	}
	if initialVolume > 100 {
		initialVolume = 100
	}
	return &Player{
		logger:        logger,
		volumePercent: initialVolume,
	}
}

// Load opens an mp3 file and wires it into the speaker, replacing any
// previously loaded track. The track starts paused; call Play to begin.
func (p *Player) Load(path string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.unloadLocked()

	f, err := os.Open(path)
	if err != nil {
		return domain.NewPlaybackError("load", path, err)
	}

	streamer, format, err := mp3.Decode(f)
	if err != nil {
		_ = f.Close()
		return domain.NewPlaybackError("load", path, err)
	}

	if !p.initialized {
		if err := speaker.Init(outputRate, outputRate.N(time.Second/10)); err != nil {
			_ = streamer.Close()
			_ = f.Close()
			return domain.NewPlaybackError("load", path, err)
		}
		p.initialized = true
	}

	p.file = f
	p.streamer = streamer
	p.format = format

	var source beep.Streamer = streamer
	if format.SampleRate != outputRate {
		source = beep.Resample(4, format.SampleRate, outputRate, streamer)
	}

	p.ctrl = &beep.Ctrl{Streamer: source, Paused: true}
	p.volume = &effects.Volume{
		Streamer: p.ctrl,
		Base:     2,
	}
	applyVolume(p.volume, p.volumePercent)

	speaker.Clear()
	speaker.Play(p.volume)

	p.logger.Debug("track loaded",
		slog.String("path", path),
		slog.Duration("duration", format.SampleRate.D(streamer.Len())))
	return nil
}

// Play starts or resumes playback of the loaded track.
func (p *Player) Play() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ctrl == nil {
		return domain.ErrNoTrackLoaded
	}

	speaker.Lock()
	p.ctrl.Paused = false
	speaker.Unlock()
	return nil
}

// Pause pauses playback, preserving the position.
func (p *Player) Pause() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ctrl == nil {
		return domain.ErrNoTrackLoaded
	}

	speaker.Lock()
	p.ctrl.Paused = true
	speaker.Unlock()
	return nil
}

// Stop stops playback and releases the loaded track.
func (p *Player) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.unloadLocked()
	return nil
}

// SetVolume sets the playback volume in percent (0-100).
// The value applies to the current track and carries over to the next Load.
func (p *Player) SetVolume(percent int) error {
	if percent < 0 || percent > 100 {
		return domain.ErrInvalidVolume
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.volumePercent = percent
	if p.volume != nil {
		speaker.Lock()
		applyVolume(p.volume, percent)
		speaker.Unlock()
	}
	return nil
}

// Seek sets the playback position within the loaded track.
func (p *Player) Seek(position time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.streamer == nil {
		return domain.ErrNoTrackLoaded
	}
	if position < 0 {
		return domain.ErrInvalidPosition
	}

	speaker.Lock()
	defer speaker.Unlock()

	samples := p.format.SampleRate.N(position)
	if samples > p.streamer.Len() {
		samples = p.streamer.Len()
	}
	if err := p.streamer.Seek(samples); err != nil {
		return domain.NewPlaybackError("seek", "", err)
	}
	return nil
}

// Position returns the current playback position.
func (p *Player) Position() (time.Duration, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.streamer == nil {
		return 0, domain.ErrNoTrackLoaded
	}

	speaker.Lock()
	pos := p.streamer.Position()
	speaker.Unlock()

	return p.format.SampleRate.D(pos), nil
}

// Duration returns the total duration of the loaded track.
func (p *Player) Duration() (time.Duration, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.streamer == nil {
		return 0, domain.ErrNoTrackLoaded
	}

	return p.format.SampleRate.D(p.streamer.Len()), nil
}

// Close releases all player resources.
func (p *Player) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.unloadLocked()
	if p.initialized {
		speaker.Close()
		p.initialized = false
	}
	return nil
}

// unloadLocked tears down the current track (must be called with p.mu held).
func (p *Player) unloadLocked() {
	if p.initialized {
		speaker.Clear()
	}
	if p.streamer != nil {
		_ = p.streamer.Close()
		p.streamer = nil
	}
	if p.file != nil {
		_ = p.file.Close()
		p.file = nil
	}
	p.ctrl = nil
	p.volume = nil
}

// applyVolume maps a 0-100 percent to beep's logarithmic volume scale, where
// 0 means unchanged gain and each unit halves or doubles the amplitude.
func applyVolume(v *effects.Volume, percent int) {
	if percent == 0 {
		v.Silent = true
		return
	}
	v.Silent = false
	v.Volume = math.Log2(float64(percent) / 100.0)
}

// Verify that Player implements the Player interface
var _ ports.Player = (*Player)(nil)

package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/ebitengine/oto/v3"
)

// Player plays clips.
type Player interface {
	// Play blocks until the clip finished or ctx is done.
	Play(ctx context.Context, clip Clip) error
	// Stop interrupts the current clip, if any.
	Stop() error
}

// PlayerConfig contains configuration for the audio player.
type PlayerConfig struct {
	SampleRate int // 44100 or 48000 Hz only
	BufferSize time.Duration
}

// DefaultPlayerConfig returns the default player configuration.
func DefaultPlayerConfig() PlayerConfig {
	return PlayerConfig{
		SampleRate: 44100,
		BufferSize: 100 * time.Millisecond,
	}
}

// OtoPlayer implements Player with oto/v3. The oto context can only be
// created once per process, so it is created lazily on first Play and
// reused afterwards.
type OtoPlayer struct {
	config PlayerConfig

	initOnce sync.Once
	context  *oto.Context
	initErr  error

	mu      sync.Mutex
	current *oto.Player
	// pcm keeps the decoded buffer alive while oto reads from it.
	pcm []byte
}

// NewOtoPlayer creates a player. No audio device is touched until the
// first Play.
func NewOtoPlayer(config PlayerConfig) (*OtoPlayer, error) {
	if config.SampleRate != 44100 && config.SampleRate != 48000 {
		return nil, fmt.Errorf("sample rate must be 44100 or 48000 Hz, got %d", config.SampleRate)
	}
	if config.BufferSize <= 0 {
		config.BufferSize = DefaultPlayerConfig().BufferSize
	}
	return &OtoPlayer{config: config}, nil
}

func (p *OtoPlayer) init() error {
	p.initOnce.Do(func() {
		ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
			SampleRate:   p.config.SampleRate,
			ChannelCount: 1,
			Format:       oto.FormatSignedInt16LE,
			BufferSize:   p.config.BufferSize,
		})
		if err != nil {
			p.initErr = fmt.Errorf("failed to create oto context: %w", err)
			return
		}
		<-ready
		p.context = ctx
	})
	return p.initErr
}

// Play decodes the clip, resamples it to the device rate and blocks until
// playback ends or ctx is done.
func (p *OtoPlayer) Play(ctx context.Context, clip Clip) error {
	pcm, err := Decode(clip)
	if err != nil {
		return err
	}
	if len(pcm.Samples) == 0 {
		return errors.New("clip decoded to no samples")
	}
	if err := p.init(); err != nil {
		return err
	}

	data := pcm.Resample(p.config.SampleRate).Bytes()

	p.mu.Lock()
	p.stopLocked()
	player := p.context.NewPlayer(bytes.NewReader(data))
	p.current = player
	p.pcm = data
	p.mu.Unlock()

	log.Debug("playing clip", "format", clip.Format, "source", clip.Source, "duration", pcm.Duration())
	player.Play()

	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			_ = p.Stop()
			return ctx.Err()
		case <-ticker.C:
			if !player.IsPlaying() {
				p.mu.Lock()
				if p.current == player {
					p.stopLocked()
				}
				p.mu.Unlock()
				return nil
			}
		}
	}
}

// Stop interrupts the current clip.
func (p *OtoPlayer) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stopLocked()
}

func (p *OtoPlayer) stopLocked() error {
	if p.current == nil {
		return nil
	}
	p.current.Pause()
	err := p.current.Close()
	p.current = nil
	p.pcm = nil
	return err
}

var _ Player = (*OtoPlayer)(nil)

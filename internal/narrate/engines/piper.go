package engines

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/voiceaid/voiceaid/internal/audio"
	"github.com/voiceaid/voiceaid/internal/narrate"
	"github.com/voiceaid/voiceaid/internal/tone"
)

// Piper synthesizes speech offline with a Piper voice model. The speaking
// rate maps to --length-scale relative to tone.DefaultRate.
type Piper struct {
	binary     string
	modelPath  string
	configPath string
	speaker    string
	sampleRate int
	timeout    time.Duration
}

// PiperConfig holds configuration for the Piper engine.
type PiperConfig struct {
	Binary     string // defaults to "piper"
	ModelPath  string // required
	ConfigPath string // defaults to the model path with a .json extension
	Speaker    string
	SampleRate int           // of the model; defaults to 22050
	Timeout    time.Duration // defaults to 10s
}

// NewPiper creates a Piper engine.
func NewPiper(cfg PiperConfig) (*Piper, error) {
	if cfg.ModelPath == "" {
		return nil, errors.New("model path is required")
	}
	if _, err := os.Stat(cfg.ModelPath); err != nil {
		return nil, fmt.Errorf("model file not found: %w", err)
	}
	if cfg.ConfigPath == "" {
		cfg.ConfigPath = strings.TrimSuffix(cfg.ModelPath, filepath.Ext(cfg.ModelPath)) + ".json"
	}
	if cfg.Binary == "" {
		cfg.Binary = "piper"
	}
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 22050
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Piper{
		binary:     cfg.Binary,
		modelPath:  cfg.ModelPath,
		configPath: cfg.ConfigPath,
		speaker:    cfg.Speaker,
		sampleRate: cfg.SampleRate,
		timeout:    cfg.Timeout,
	}, nil
}

// Name implements narrate.Synthesizer.
func (p *Piper) Name() string { return "piper" }

// LengthScale converts words per minute to Piper's length scale, where
// larger values speak more slowly.
func LengthScale(rate int) float64 {
	if rate <= 0 {
		return 1
	}
	return float64(tone.DefaultRate) / float64(rate)
}

// Synthesize returns a WAV clip wrapping Piper's raw PCM output.
func (p *Piper) Synthesize(ctx context.Context, req narrate.Request) (audio.Clip, error) {
	if err := checkText(req.Text); err != nil {
		return audio.Clip{}, err
	}
	bin, err := lookPath(p.binary)
	if err != nil {
		return audio.Clip{}, err
	}

	args := []string{
		"--model", p.modelPath,
		"--output-raw",
		"--length-scale", strconv.FormatFloat(LengthScale(req.Rate), 'f', 2, 64),
	}
	if _, err := os.Stat(p.configPath); err == nil {
		args = append(args, "--config", p.configPath)
	}
	if p.speaker != "" {
		args = append(args, "--speaker", p.speaker)
	}

	// Text goes on stdin, configured before start.
	raw, err := run(ctx, p.timeout, strings.NewReader(req.Text), bin, args...)
	if err != nil {
		return audio.Clip{}, fmt.Errorf("piper synthesis failed: %w", err)
	}
	return audio.Clip{Data: audio.EncodeWAV(raw, p.sampleRate, 1), Format: audio.FormatWAV}, nil
}

var _ narrate.Synthesizer = (*Piper)(nil)

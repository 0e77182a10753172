package engines

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/voiceaid/voiceaid/internal/audio"
	"github.com/voiceaid/voiceaid/internal/narrate"
	"github.com/voiceaid/voiceaid/internal/tone"
)

// Espeak synthesizes speech offline with espeak-ng, or espeak when espeak-ng
// is not installed. It honours the requested speaking rate.
type Espeak struct {
	binaries []string
	voice    string
	timeout  time.Duration
}

// EspeakConfig holds configuration for the espeak engine.
type EspeakConfig struct {
	Binary  string        // overrides the espeak-ng/espeak lookup
	Voice   string        // espeak voice; defaults to the request language
	Timeout time.Duration // defaults to 20s
}

// NewEspeak creates an espeak engine.
func NewEspeak(cfg EspeakConfig) *Espeak {
	bins := []string{"espeak-ng", "espeak"}
	if cfg.Binary != "" {
		bins = []string{cfg.Binary}
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	return &Espeak{binaries: bins, voice: cfg.Voice, timeout: cfg.Timeout}
}

// Name implements narrate.Synthesizer.
func (e *Espeak) Name() string { return "espeak" }

// Synthesize returns a WAV clip.
func (e *Espeak) Synthesize(ctx context.Context, req narrate.Request) (audio.Clip, error) {
	if err := checkText(req.Text); err != nil {
		return audio.Clip{}, err
	}
	bin, err := lookPath(e.binaries...)
	if err != nil {
		return audio.Clip{}, err
	}

	rate := req.Rate
	if rate <= 0 {
		rate = tone.DefaultRate
	}
	voice := e.voice
	if voice == "" {
		voice = req.Language
	}
	args := []string{"-s", strconv.Itoa(rate)}
	if voice != "" {
		args = append(args, "-v", voice)
	}
	// "--" keeps text such as "-5 degrees" from being read as an option.
	args = append(args, "--stdout", "--", req.Text)

	data, err := run(ctx, e.timeout, nil, bin, args...)
	if err != nil {
		return audio.Clip{}, fmt.Errorf("espeak synthesis failed: %w", err)
	}
	return audio.Clip{Data: data, Format: audio.FormatWAV}, nil
}

var _ narrate.Synthesizer = (*Espeak)(nil)

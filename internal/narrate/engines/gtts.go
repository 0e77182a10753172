package engines

import (
	"context"
	"fmt"
	"time"

	"github.com/voiceaid/voiceaid/internal/audio"
	"github.com/voiceaid/voiceaid/internal/narrate"
)

// GTTS synthesizes speech with gtts-cli (Google Translate TTS). It needs
// network access and ignores the speaking rate.
type GTTS struct {
	binary  string
	slow    bool
	timeout time.Duration
}

// GTTSConfig holds configuration for the gTTS engine.
type GTTSConfig struct {
	Binary  string        // defaults to "gtts-cli"
	Slow    bool          // pass --slow
	Timeout time.Duration // defaults to 30s
}

// NewGTTS creates a gTTS engine. It does not check that the binary exists;
// a missing binary surfaces as a synthesis error so the local path is tried.
func NewGTTS(cfg GTTSConfig) *GTTS {
	if cfg.Binary == "" {
		cfg.Binary = "gtts-cli"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &GTTS{binary: cfg.Binary, slow: cfg.Slow, timeout: cfg.Timeout}
}

// Name implements narrate.Synthesizer.
func (g *GTTS) Name() string { return "gtts" }

// Synthesize returns an MP3 clip.
func (g *GTTS) Synthesize(ctx context.Context, req narrate.Request) (audio.Clip, error) {
	if err := checkText(req.Text); err != nil {
		return audio.Clip{}, err
	}
	bin, err := lookPath(g.binary)
	if err != nil {
		return audio.Clip{}, err
	}

	lang := req.Language
	if lang == "" {
		lang = "en"
	}
	args := []string{"-l", lang}
	if g.slow {
		args = append(args, "--slow")
	}
	// Options first: after "--" the text is never parsed as a flag.
	args = append(args, "-o", "-", "--", req.Text)

	data, err := run(ctx, g.timeout, nil, bin, args...)
	if err != nil {
		return audio.Clip{}, fmt.Errorf("gTTS synthesis failed: %w", err)
	}
	return audio.Clip{Data: data, Format: audio.FormatMP3}, nil
}

var _ narrate.Synthesizer = (*GTTS)(nil)

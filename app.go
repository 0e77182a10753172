package main

import (
	"context"
	"errors"

	"github.com/charmbracelet/log"
	"github.com/voiceaid/voiceaid/internal/audio"
	"github.com/voiceaid/voiceaid/internal/cache"
	"github.com/voiceaid/voiceaid/internal/failure"
	"github.com/voiceaid/voiceaid/internal/history"
	"github.com/voiceaid/voiceaid/internal/narrate"
	"github.com/voiceaid/voiceaid/internal/narrate/engines"
	"github.com/voiceaid/voiceaid/internal/rewrite"
	"github.com/voiceaid/voiceaid/internal/session"
)

// app holds the wired components shared by the TUI and the subcommands.
type app struct {
	ctrl   *session.Controller
	store  *history.Store
	player *audio.OtoPlayer
	cache  *cache.DiskCache
}

// newApp wires every component from s. A corrupt history file is not
// fatal: it is logged and surfaced through the controller's load warning.
func newApp(ctx context.Context, s settings, opts ...session.Option) (*app, error) {
	store, err := history.Open(s.HistoryPath)
	if err != nil {
		if !errors.Is(err, failure.ErrCorruptHistory) {
			return nil, err
		}
		log.Warn("history could not be loaded", "path", s.HistoryPath, "error", err)
		opts = append(opts, session.WithLoadWarning(err))
	}

	rw, err := newRewriter(ctx, s)
	if err != nil {
		return nil, err
	}

	a := &app{store: store}
	narrator := newNarrator(s, a)

	player, err := audio.NewOtoPlayer(audio.DefaultPlayerConfig())
	if err != nil {
		return nil, err //nolint:wrapcheck
	}
	a.player = player
	a.ctrl = session.New(store, rw, narrator, opts...)
	return a, nil
}

func (a *app) close() {
	if a.player != nil {
		_ = a.player.Stop()
	}
	if a.cache != nil {
		_ = a.cache.Close()
	}
}

func newRewriter(ctx context.Context, s settings) (*rewrite.Engine, error) {
	var gen rewrite.Generator
	opts := []rewrite.Option{rewrite.WithCatalog(s.Catalog), rewrite.WithTemplate(s.Template)}
	if s.APIKey != "" {
		g, err := rewrite.NewGenAIGenerator(ctx, rewrite.GenAIConfig{
			APIKey:  s.APIKey,
			Model:   s.Model,
			BaseURL: s.BaseURL,
			Timeout: s.Timeout,
		})
		if err != nil {
			log.Warn("gemini client unavailable", "error", err)
			opts = append(opts, rewrite.WithGeneratorError(err))
		} else {
			gen = g
		}
	} else {
		log.Info("no API key configured; rewrites are disabled")
	}
	return rewrite.New(gen, opts...)
}

func newNarrator(s settings, a *app) *narrate.Engine {
	opts := []narrate.Option{
		narrate.WithCatalog(s.Catalog),
		narrate.WithLanguage(s.Language),
		narrate.WithProber(narrate.TCPProber{Address: s.ProbeAddress}, s.ProbeTimeout),
		narrate.WithRequestsPerMinute(s.RPM),
		narrate.WithNetwork(engines.NewGTTS(engines.GTTSConfig{
			Binary: s.GTTSBin,
			Slow:   s.Slow,
		})),
	}

	switch s.Local {
	case "piper":
		p, err := engines.NewPiper(engines.PiperConfig{
			Binary:    s.LocalBin,
			ModelPath: s.PiperPath,
		})
		if err != nil {
			log.Warn("piper unavailable; local narration disabled", "error", err)
		} else {
			opts = append(opts, narrate.WithLocal(p))
		}
	default:
		opts = append(opts, narrate.WithLocal(engines.NewEspeak(engines.EspeakConfig{
			Binary: s.LocalBin,
			Voice:  s.Voice,
		})))
	}

	if s.CacheEnabled {
		cfg := cache.DefaultConfig(s.CacheDir)
		cfg.Capacity = int64(s.CacheSize) * 1024 * 1024
		dc, err := cache.NewDiskCache(cfg)
		if err != nil {
			log.Warn("audio cache disabled", "dir", s.CacheDir, "error", err)
		} else {
			a.cache = dc
			opts = append(opts, narrate.WithCache(dc))
		}
	}

	return narrate.New(opts...)
}

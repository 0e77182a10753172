// Package narrate turns rewritten text into audio. It prefers a network
// synthesizer when the network is reachable and falls back to a local one,
// which honours the tone's speaking rate.
package narrate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/voiceaid/voiceaid/internal/audio"
	"github.com/voiceaid/voiceaid/internal/cache"
	"github.com/voiceaid/voiceaid/internal/failure"
	"github.com/voiceaid/voiceaid/internal/tone"
	"golang.org/x/time/rate"
)

// DefaultProbeTimeout bounds the reachability check.
const DefaultProbeTimeout = 3 * time.Second

// Request is what a Synthesizer receives.
type Request struct {
	Text     string
	Language string // e.g. "en"
	Rate     int    // words per minute; only local synthesizers use it
}

// Synthesizer converts text to an audio clip.
type Synthesizer interface {
	Name() string
	Synthesize(ctx context.Context, req Request) (audio.Clip, error)
}

// Cache stores narration payloads.
type Cache interface {
	Get(key string) ([]byte, bool)
	Put(key string, value []byte) error
}

// Engine selects a synthesis path per call.
type Engine struct {
	network Synthesizer
	local   Synthesizer

	prober       Prober
	probeTimeout time.Duration
	limiter      *rate.Limiter

	cache    Cache
	catalog  *tone.Catalog
	language string
}

// Option configures an Engine.
type Option func(*Engine)

// WithNetwork sets the network synthesizer.
func WithNetwork(s Synthesizer) Option {
	return func(e *Engine) { e.network = s }
}

// WithLocal sets the local synthesizer.
func WithLocal(s Synthesizer) Option {
	return func(e *Engine) { e.local = s }
}

// WithProber sets the reachability check and its timeout.
func WithProber(p Prober, timeout time.Duration) Option {
	return func(e *Engine) {
		e.prober = p
		if timeout > 0 {
			e.probeTimeout = timeout
		}
	}
}

// WithRequestsPerMinute limits network synthesis requests. Zero disables
// limiting.
func WithRequestsPerMinute(n int) Option {
	return func(e *Engine) {
		if n <= 0 {
			e.limiter = nil
			return
		}
		e.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(n)), 1)
	}
}

// WithCache enables caching of narration payloads.
func WithCache(c Cache) Option {
	return func(e *Engine) { e.cache = c }
}

// WithCatalog sets the catalog used to resolve speaking rates.
func WithCatalog(c *tone.Catalog) Option {
	return func(e *Engine) { e.catalog = c }
}

// WithLanguage sets the language code sent to synthesizers.
func WithLanguage(lang string) Option {
	return func(e *Engine) {
		if lang != "" {
			e.language = lang
		}
	}
}

// New creates a narration engine. Without a prober the network is assumed
// unreachable.
func New(opts ...Option) *Engine {
	e := &Engine{
		prober:       Offline,
		probeTimeout: DefaultProbeTimeout,
		catalog:      tone.Default(),
		language:     "en",
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Narrate synthesizes text spoken in toneName. Failure of every path is a
// *failure.Error with code NarrationUnavailable.
func (e *Engine) Narrate(ctx context.Context, text, toneName string) (audio.Clip, error) {
	speak := SpeakableText(text)
	if speak == "" {
		return audio.Clip{}, failure.Invalid("nothing to narrate")
	}
	req := Request{Text: speak, Language: e.language, Rate: e.catalog.Rate(toneName)}

	key := cache.Key(req.Text, req.Language, req.Rate)
	if e.cache != nil {
		if data, ok := e.cache.Get(key); ok {
			log.Debug("narration cache hit", "tone", toneName)
			return audio.Clip{Data: data, Format: audio.DetectFormat(data), Source: audio.SourceCache}, nil
		}
	}

	clip, err := e.synthesize(ctx, req)
	if err != nil {
		return audio.Clip{}, err
	}

	if e.cache != nil {
		if err := e.cache.Put(key, clip.Data); err != nil {
			log.Debug("unable to cache narration", "error", err)
		}
	}
	return clip, nil
}

func (e *Engine) synthesize(ctx context.Context, req Request) (audio.Clip, error) {
	var errs []error

	if e.network != nil {
		if e.reachable(ctx) {
			clip, err := e.tryNetwork(ctx, req)
			if err == nil {
				return clip, nil
			}
			log.Warn("network narration failed, falling back", "engine", e.network.Name(), "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", e.network.Name(), err))
		} else {
			log.Debug("network unreachable, using local narration")
			errs = append(errs, errors.New("network unreachable"))
		}
	}

	if e.local != nil {
		clip, err := e.local.Synthesize(ctx, req)
		if err == nil && !clip.Empty() {
			clip.Source = audio.SourceLocal
			return clip, nil
		}
		if err == nil {
			err = errors.New("produced no audio")
		}
		errs = append(errs, fmt.Errorf("%s: %w", e.local.Name(), err))
	}

	if len(errs) == 0 {
		errs = append(errs, errors.New("no synthesizer configured"))
	}
	return audio.Clip{}, failure.Narration("no speech engine could narrate the message", errors.Join(errs...))
}

func (e *Engine) tryNetwork(ctx context.Context, req Request) (audio.Clip, error) {
	if e.limiter != nil {
		if err := e.limiter.Wait(ctx); err != nil {
			return audio.Clip{}, fmt.Errorf("rate limit wait cancelled: %w", err)
		}
	}
	clip, err := e.network.Synthesize(ctx, req)
	if err != nil {
		return audio.Clip{}, err
	}
	if clip.Empty() {
		return audio.Clip{}, errors.New("produced no audio")
	}
	clip.Source = audio.SourceNetwork
	return clip, nil
}

func (e *Engine) reachable(ctx context.Context) bool {
	if e.prober == nil {
		return false
	}
	pctx, cancel := context.WithTimeout(ctx, e.probeTimeout)
	defer cancel()
	return e.prober.Reachable(pctx)
}

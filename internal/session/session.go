// Package session orchestrates a rewrite request from input to narration
// and keeps the history view consistent with the store.
package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/voiceaid/voiceaid/internal/audio"
	"github.com/voiceaid/voiceaid/internal/failure"
	"github.com/voiceaid/voiceaid/internal/history"
)

// Rewriter produces the tone-adjusted text.
type Rewriter interface {
	Rewrite(ctx context.Context, message, tone string) (string, error)
}

// Narrator synthesizes text in a tone.
type Narrator interface {
	Narrate(ctx context.Context, text, tone string) (audio.Clip, error)
}

// Status is the outcome of a submit.
type Status int

const (
	// StatusBlank means the message was empty; nothing happened.
	StatusBlank Status = iota
	// StatusFailed means no record was produced.
	StatusFailed
	// StatusPartial means the rewrite was saved but narration failed.
	StatusPartial
	// StatusComplete means the rewrite was saved and narrated.
	StatusComplete
)

func (s Status) String() string {
	switch s {
	case StatusBlank:
		return "blank"
	case StatusFailed:
		return "failed"
	case StatusPartial:
		return "partial"
	case StatusComplete:
		return "complete"
	default:
		return "unknown"
	}
}

// Result describes a submit. Text holds the rewritten output whenever the
// rewrite succeeded, even if it could not be saved.
type Result struct {
	Status       Status
	Record       history.Record
	Text         string
	Clip         audio.Clip
	NarrationErr error
}

// Controller serialises user actions.
type Controller struct {
	store    *history.Store
	rewriter Rewriter
	narrator Narrator

	now         func() time.Time
	loadWarning error
	skipAudio   bool

	mu sync.Mutex
}

// Option configures a Controller.
type Option func(*Controller)

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// WithLoadWarning records the error returned by history.Open so the UI can
// show it once.
func WithLoadWarning(err error) Option {
	return func(c *Controller) { c.loadWarning = err }
}

// WithoutNarration makes Submit stop after saving the record.
func WithoutNarration() Option {
	return func(c *Controller) { c.skipAudio = true }
}

// New creates a controller. narrator may be nil, in which case submits
// never narrate.
func New(store *history.Store, rewriter Rewriter, narrator Narrator, opts ...Option) *Controller {
	c := &Controller{
		store:    store,
		rewriter: rewriter,
		narrator: narrator,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if narrator == nil {
		c.skipAudio = true
	}
	return c
}

// LoadWarning returns the error, if any, encountered loading history.
func (c *Controller) LoadWarning() error {
	return c.loadWarning
}

// Submit rewrites message in tone, records it and narrates it.
//
// The returned error is the reason the action fell short, if any: invalid
// input for a blank message, generation or save failures for
// StatusFailed, and the narration failure for StatusPartial.
func (c *Controller) Submit(ctx context.Context, message, tone string) (Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if strings.TrimSpace(message) == "" {
		return Result{Status: StatusBlank}, failure.Invalid("please enter a message before submitting")
	}

	text, err := c.rewriter.Rewrite(ctx, message, tone)
	if err != nil {
		log.Warn("rewrite failed", "tone", tone, "error", err)
		return Result{Status: StatusFailed}, err
	}

	rec := history.NewRecord(tone, text, c.now())
	if err := c.store.Append(rec); err != nil {
		log.Error("unable to save rewrite", "error", err)
		return Result{Status: StatusFailed, Text: text}, err
	}
	log.Debug("rewrite saved", "id", rec.ID, "tone", tone)

	res := Result{Status: StatusComplete, Record: rec, Text: text}
	if c.skipAudio {
		return res, nil
	}

	clip, err := c.narrator.Narrate(ctx, text, tone)
	if err != nil {
		log.Warn("narration failed", "id", rec.ID, "error", err)
		res.Status = StatusPartial
		res.NarrationErr = err
		return res, err
	}
	res.Clip = clip
	return res, nil
}

// Play narrates a stored record.
func (c *Controller) Play(ctx context.Context, id string) (audio.Clip, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	rec, ok := c.store.Find(id)
	if !ok {
		return audio.Clip{}, history.ErrNotFound
	}
	if c.narrator == nil {
		return audio.Clip{}, failure.Narration("narration is disabled", errors.New("no narrator configured"))
	}
	return c.narrator.Narrate(ctx, rec.Message, rec.Tone)
}

// ToggleFavorite flips a record's favorite flag.
func (c *Controller) ToggleFavorite(id string) (history.Record, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store.ToggleFavorite(id)
}

// Delete removes a record.
func (c *Controller) Delete(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store.Delete(id)
}

// Reload re-reads the history file, for example after another process
// changed it.
func (c *Controller) Reload() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store.Reload()
}

// HistoryPath returns the file backing the history.
func (c *Controller) HistoryPath() string {
	return c.store.Path()
}

// View returns the filtered, sorted history.
func (c *Controller) View(f history.Filter) []history.Record {
	return history.Query(c.store.Records(), f)
}

// Records returns all records in insertion order.
func (c *Controller) Records() []history.Record {
	return c.store.Records()
}

// Find returns a single record.
func (c *Controller) Find(id string) (history.Record, bool) {
	return c.store.Find(id)
}

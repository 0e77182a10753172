// Package tone holds the catalog of communication tones offered for
// rewriting, with the prompt clause and local speaking rate for each.
package tone

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sahilm/fuzzy"
	"golang.org/x/text/cases"
)

// All is the filter sentinel meaning "any tone". It is never a catalog key.
const All = "All"

// DefaultRate is the local speaking rate (words per minute) used when a
// tone does not override it.
const DefaultRate = 160

// ErrUnknownTone is returned when a name does not match any catalog entry.
var ErrUnknownTone = errors.New("unknown tone")

// Tone describes one communication style.
type Tone struct {
	Name        string // canonical key, e.g. "Urgent"
	Description string // shown next to the selector
	Clause      string // phrasing directive injected into the rewrite prompt
	Rate        int    // words per minute for local narration
}

// Catalog is an ordered, immutable set of tones.
type Catalog struct {
	tones []Tone
	index map[string]int
}

// NewCatalog builds a catalog from tones in display order. Names are
// matched case-insensitively and must be unique.
func NewCatalog(tones ...Tone) (*Catalog, error) {
	c := &Catalog{
		tones: make([]Tone, 0, len(tones)),
		index: make(map[string]int, len(tones)),
	}
	for _, t := range tones {
		key := foldName(t.Name)
		if key == "" {
			return nil, errors.New("tone name cannot be empty")
		}
		if key == foldName(All) {
			return nil, fmt.Errorf("%q is reserved", All)
		}
		if _, dup := c.index[key]; dup {
			return nil, fmt.Errorf("duplicate tone %q", t.Name)
		}
		if t.Rate <= 0 {
			t.Rate = DefaultRate
		}
		c.index[key] = len(c.tones)
		c.tones = append(c.tones, t)
	}
	return c, nil
}

var defaultCatalog = mustCatalog(
	Tone{
		Name:        "Professional",
		Description: "Polished and courteous, suited to work conversations.",
		Clause:      "Use polished, courteous language and vocabulary appropriate for the workplace.",
		Rate:        160,
	},
	Tone{
		Name:        "Casual",
		Description: "Relaxed and conversational, like talking to a friend.",
		Clause:      "Use relaxed, everyday words and contractions, as if chatting with a friend.",
		Rate:        170,
	},
	Tone{
		Name:        "Friendly",
		Description: "Warm and upbeat, approachable without being formal.",
		Clause:      "Sound warm, upbeat and approachable.",
		Rate:        165,
	},
	Tone{
		Name:        "Witty",
		Description: "Light and clever, with a touch of humour.",
		Clause:      "Add light humour and clever phrasing, but never sarcasm.",
		Rate:        175,
	},
	Tone{
		Name:        "Urgent",
		Description: "Short and direct, for when something needs attention now.",
		Clause:      "Prefer short, direct, action-oriented phrasing that conveys urgency.",
		Rate:        200,
	},
	Tone{
		Name:        "Empathetic",
		Description: "Gentle and validating, for sensitive moments.",
		Clause:      "Be gentle, validating and patient with the listener's feelings.",
		Rate:        145,
	},
	Tone{
		Name:        "Calm",
		Description: "Steady and reassuring, unhurried.",
		Clause:      "Keep the phrasing steady, reassuring and unhurried.",
		Rate:        140,
	},
)

func mustCatalog(tones ...Tone) *Catalog {
	c, err := NewCatalog(tones...)
	if err != nil {
		panic(err)
	}
	return c
}

// Default returns the built-in catalog.
func Default() *Catalog {
	return defaultCatalog
}

// Lookup resolves name case-insensitively to its catalog entry.
func (c *Catalog) Lookup(name string) (Tone, error) {
	i, ok := c.index[foldName(name)]
	if !ok {
		return Tone{}, fmt.Errorf("%w: %q", ErrUnknownTone, name)
	}
	return c.tones[i], nil
}

// Describe returns the description of a known tone, or "" for unknown names.
func (c *Catalog) Describe(name string) string {
	t, err := c.Lookup(name)
	if err != nil {
		return ""
	}
	return t.Description
}

// Clause returns the prompt clause of a known tone, or "" for unknown names.
func (c *Catalog) Clause(name string) string {
	t, err := c.Lookup(name)
	if err != nil {
		return ""
	}
	return t.Clause
}

// Rate returns the local speaking rate for name, DefaultRate if unknown.
func (c *Catalog) Rate(name string) int {
	t, err := c.Lookup(name)
	if err != nil {
		return DefaultRate
	}
	return t.Rate
}

// Next returns the tone after name in display order, wrapping around. An
// unknown name yields the first tone.
func (c *Catalog) Next(name string) string {
	if len(c.tones) == 0 {
		return ""
	}
	i, ok := c.index[foldName(name)]
	if !ok {
		return c.tones[0].Name
	}
	return c.tones[(i+1)%len(c.tones)].Name
}

// Suggest returns the closest tone name to a misspelt one, or "" when
// nothing is close.
func (c *Catalog) Suggest(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	matches := fuzzy.Find(name, c.Names())
	if len(matches) == 0 {
		return ""
	}
	return matches[0].Str
}

// Names returns the canonical tone names in display order.
func (c *Catalog) Names() []string {
	names := make([]string, len(c.tones))
	for i, t := range c.tones {
		names[i] = t.Name
	}
	return names
}

// Tones returns a copy of the entries in display order.
func (c *Catalog) Tones() []Tone {
	return append([]Tone(nil), c.tones...)
}

// Len returns the number of tones.
func (c *Catalog) Len() int {
	return len(c.tones)
}

// foldName is the case-folded lookup key for a tone name.
func foldName(name string) string {
	return cases.Fold().String(strings.TrimSpace(name))
}

// Package rewrite turns a message and a tone into a rewritten message by
// prompting a hosted text-generation model.
package rewrite

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"text/template"

	"github.com/charmbracelet/log"
	"github.com/voiceaid/voiceaid/internal/failure"
	"github.com/voiceaid/voiceaid/internal/tone"
)

// Role is the system statement sent with every rewrite.
const Role = "You are a communication assistant that rewrites messages for spoken communication. " +
	"Match the specified tone as naturally as possible."

// DefaultTemplate is the built-in user instruction. It is executed with
// PromptData.
const DefaultTemplate = `{{.Role}}

Tone: {{.Tone}}
Tone guidance: {{.Clause}}

Rewrite the message below so that it matches the tone. Preserve its meaning and intent.
Return only the rewritten message: no commentary, no explanations, no alternatives.

Original message:
{{.Message}}

Rewritten message:`

// Prompt is what a Generator receives.
type Prompt struct {
	System string // role statement, for generators that accept a system instruction
	User   string // the full instruction including the original message
}

// PromptData is the data available to prompt templates.
type PromptData struct {
	Role    string
	Tone    string
	Clause  string
	Message string
}

// Generator is a remote text-generation capability.
type Generator interface {
	Generate(ctx context.Context, p Prompt) (string, error)
}

// Engine builds prompts and calls a Generator once per rewrite. It never
// retries.
type Engine struct {
	gen     Generator
	genErr  error // why gen could not be created, if it was configured
	catalog *tone.Catalog
	tmpl    *template.Template
}

// Option configures an Engine.
type Option func(*Engine) error

// WithCatalog sets the tone catalog. The default catalog is used otherwise.
func WithCatalog(c *tone.Catalog) Option {
	return func(e *Engine) error {
		if c == nil {
			return errors.New("catalog cannot be nil")
		}
		e.catalog = c
		return nil
	}
}

// WithTemplate overrides the prompt template. An empty string keeps the
// default.
func WithTemplate(text string) Option {
	return func(e *Engine) error {
		if strings.TrimSpace(text) == "" {
			return nil
		}
		t, err := template.New("prompt").Option("missingkey=error").Parse(text)
		if err != nil {
			return fmt.Errorf("invalid prompt template: %w", err)
		}
		if !strings.Contains(text, ".Message") {
			return errors.New("prompt template must reference {{.Message}}")
		}
		e.tmpl = t
		return nil
	}
}

// WithGeneratorError records why a configured generator could not be
// created. Rewrite reports it as the cause instead of a missing credential.
func WithGeneratorError(err error) Option {
	return func(e *Engine) error {
		e.genErr = err
		return nil
	}
}

// New creates an engine around gen. A nil gen means no credential is
// configured: every Rewrite then fails with GenerationUnavailable without
// attempting a call.
func New(gen Generator, opts ...Option) (*Engine, error) {
	e := &Engine{
		gen:     gen,
		catalog: tone.Default(),
		tmpl:    template.Must(template.New("prompt").Parse(DefaultTemplate)),
	}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// Available reports whether a generator is configured.
func (e *Engine) Available() bool {
	return e.gen != nil
}

// BuildPrompt renders the instruction for message in the given tone.
func (e *Engine) BuildPrompt(message, toneName string) (Prompt, error) {
	t, err := e.catalog.Lookup(toneName)
	if err != nil {
		return Prompt{}, err
	}
	var b strings.Builder
	if err := e.tmpl.Execute(&b, PromptData{
		Role:    Role,
		Tone:    t.Name,
		Clause:  t.Clause,
		Message: strings.TrimSpace(message),
	}); err != nil {
		return Prompt{}, fmt.Errorf("unable to render prompt: %w", err)
	}
	return Prompt{System: Role, User: b.String()}, nil
}

// Rewrite returns message rewritten in toneName, trimmed. All failures are
// *failure.Error values with code GenerationUnavailable.
func (e *Engine) Rewrite(ctx context.Context, message, toneName string) (string, error) {
	if e.gen == nil {
		if e.genErr != nil {
			return "", failure.Generation("the language model client could not be created", e.genErr)
		}
		return "", failure.Generation("no API key is configured; set GEMINI_API_KEY", nil)
	}
	if strings.TrimSpace(message) == "" {
		return "", failure.Invalid("message is blank")
	}

	p, err := e.BuildPrompt(message, toneName)
	if err != nil {
		return "", failure.Generation("unable to build prompt", err).WithContext("tone", toneName)
	}

	log.Debug("requesting rewrite", "tone", toneName, "length", len(message))
	out, err := e.gen.Generate(ctx, p)
	if err != nil {
		return "", failure.Generation("the language model request failed", err)
	}

	text := Clean(out)
	if text == "" {
		return "", failure.Generation("the language model returned an empty response", nil)
	}
	return text, nil
}

// Clean trims whitespace and a pair of surrounding quotes from model output.
func Clean(s string) string {
	s = strings.TrimSpace(s)
	for _, q := range [][2]string{{`"`, `"`}, {"“", "”"}, {"'", "'"}} {
		if len(s) >= len(q[0])+len(q[1]) && strings.HasPrefix(s, q[0]) && strings.HasSuffix(s, q[1]) {
			inner := s[len(q[0]) : len(s)-len(q[1])]
			// Leave text alone if the quotes are not a single enclosing pair.
			if !strings.Contains(inner, q[0]) && !strings.Contains(inner, q[1]) {
				s = strings.TrimSpace(inner)
			}
			break
		}
	}
	return s
}

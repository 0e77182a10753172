package rewrite

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/voiceaid/voiceaid/internal/failure"
	"google.golang.org/genai"
)

// DefaultModel is the Gemini model used when none is configured.
const DefaultModel = "gemini-2.0-flash"

// GenAIConfig configures the Gemini generator.
type GenAIConfig struct {
	APIKey  string
	Model   string        // defaults to DefaultModel
	BaseURL string        // optional API endpoint override
	Timeout time.Duration // per request, defaults to 30s
}

// GenAIGenerator implements Generator with Google's Gemini API.
type GenAIGenerator struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

// NewGenAIGenerator creates a Gemini generator. An empty API key fails
// with GenerationUnavailable without contacting the API.
func NewGenAIGenerator(ctx context.Context, cfg GenAIConfig) (*GenAIGenerator, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, failure.Generation("no API key is configured; set GEMINI_API_KEY", nil)
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, failure.Generation("unable to create Gemini client", err)
	}

	return &GenAIGenerator{
		client:  client,
		model:   cfg.Model,
		timeout: cfg.Timeout,
	}, nil
}

// Generate sends the prompt and returns the text of the first candidate.
func (g *GenAIGenerator) Generate(ctx context.Context, p Prompt) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	config := &genai.GenerateContentConfig{}
	if p.System != "" {
		config.SystemInstruction = genai.NewContentFromText(p.System, genai.RoleUser)
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(p.User), config)
	if err != nil {
		return "", fmt.Errorf("gemini generate failed: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return "", errors.New("gemini returned no candidates")
	}
	return resp.Text(), nil
}

// Model returns the configured model name.
func (g *GenAIGenerator) Model() string {
	return g.model
}

var _ Generator = (*GenAIGenerator)(nil)

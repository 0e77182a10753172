package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/mitchellh/go-homedir"
	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/viper"
	"github.com/voiceaid/voiceaid/internal/tone"
)

// settings is the resolved configuration for one run.
type settings struct {
	HistoryPath string
	Tone        string
	Mute        bool

	APIKey    string
	Model     string
	BaseURL   string
	Timeout   time.Duration
	Template  string
	Catalog   *tone.Catalog
	Language  string
	Slow      bool
	GTTSBin   string
	RPM       int
	Local     string
	LocalBin  string
	Voice     string
	PiperPath string

	ProbeAddress string
	ProbeTimeout time.Duration

	CacheEnabled bool
	CacheDir     string
	CacheSize    int
}

// credentials are read straight from the environment. The first non-empty
// key wins.
type credentials struct {
	VoiceAid string `env:"VOICEAID_API_KEY"`
	Gemini   string `env:"GEMINI_API_KEY"`
	Google   string `env:"GOOGLE_API_KEY"`
}

func (c credentials) key() string {
	for _, k := range []string{c.VoiceAid, c.Gemini, c.Google} {
		if k = strings.TrimSpace(k); k != "" {
			return k
		}
	}
	return ""
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("history.path", "voiceaid_history.json")
	v.SetDefault("tone", tone.Default().Names()[0])
	v.SetDefault("mute", false)
	v.SetDefault("mouse", false)

	v.SetDefault("genai.api_key", "")
	v.SetDefault("genai.model", "gemini-2.0-flash")
	v.SetDefault("genai.base_url", "")
	v.SetDefault("genai.timeout", "30s")

	v.SetDefault("rewrite.template", "")

	v.SetDefault("narration.language", "en")
	v.SetDefault("narration.slow", false)
	v.SetDefault("narration.network.binary", "gtts-cli")
	v.SetDefault("narration.network.requests_per_minute", 30)
	v.SetDefault("narration.local.engine", "espeak")
	v.SetDefault("narration.local.binary", "")
	v.SetDefault("narration.local.voice", "")
	v.SetDefault("narration.piper.model", "")
	v.SetDefault("narration.probe.address", "8.8.8.8:53")
	v.SetDefault("narration.probe.timeout", "3s")
	v.SetDefault("narration.cache.enabled", true)
	v.SetDefault("narration.cache.dir", "")
	v.SetDefault("narration.cache.max_size", 50)
}

// loadSettings reads v and the credential environment, and validates
// the result.
func loadSettings(v *viper.Viper) (settings, error) {
	s := settings{
		HistoryPath: expandPath(v.GetString("history.path")),
		Tone:        v.GetString("tone"),
		Mute:        v.GetBool("mute"),

		APIKey:    strings.TrimSpace(v.GetString("genai.api_key")),
		Model:     v.GetString("genai.model"),
		BaseURL:   v.GetString("genai.base_url"),
		Timeout:   v.GetDuration("genai.timeout"),
		Template:  v.GetString("rewrite.template"),
		Catalog:   tone.Default(),
		Language:  v.GetString("narration.language"),
		Slow:      v.GetBool("narration.slow"),
		GTTSBin:   v.GetString("narration.network.binary"),
		RPM:       v.GetInt("narration.network.requests_per_minute"),
		Local:     strings.ToLower(v.GetString("narration.local.engine")),
		LocalBin:  v.GetString("narration.local.binary"),
		Voice:     v.GetString("narration.local.voice"),
		PiperPath: expandPath(v.GetString("narration.piper.model")),

		ProbeAddress: v.GetString("narration.probe.address"),
		ProbeTimeout: v.GetDuration("narration.probe.timeout"),

		CacheEnabled: v.GetBool("narration.cache.enabled"),
		CacheDir:     expandPath(v.GetString("narration.cache.dir")),
		CacheSize:    v.GetInt("narration.cache.max_size"),
	}

	if s.APIKey == "" {
		creds, err := env.ParseAs[credentials]()
		if err != nil {
			return s, fmt.Errorf("error parsing environment: %w", err)
		}
		s.APIKey = creds.key()
	}

	if s.CacheEnabled && s.CacheDir == "" {
		dir, err := gap.NewScope(gap.User, appName).CacheDir()
		if err != nil {
			return s, fmt.Errorf("unable to find cache directory: %w", err)
		}
		s.CacheDir = filepath.Join(dir, "audio")
	}

	return s, s.validate()
}

func (s settings) validate() error {
	var errs []error
	if _, err := s.Catalog.Lookup(s.Tone); err != nil {
		errs = append(errs, fmt.Errorf("default tone: %w", err))
	}
	if s.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("genai timeout must be positive, got %s", s.Timeout))
	}
	if len(s.Language) < 2 || len(s.Language) > 5 {
		errs = append(errs, fmt.Errorf("narration language code must be 2-5 characters, got %q", s.Language))
	}
	if s.RPM < 0 || s.RPM > 600 {
		errs = append(errs, fmt.Errorf("narration requests_per_minute must be between 0 and 600, got %d", s.RPM))
	}
	if s.ProbeTimeout <= 0 || s.ProbeTimeout > 30*time.Second {
		errs = append(errs, fmt.Errorf("narration probe timeout must be between 0s and 30s, got %s", s.ProbeTimeout))
	}
	switch s.Local {
	case "espeak":
	case "piper":
		if s.PiperPath == "" {
			errs = append(errs, errors.New("narration piper model is required when the local engine is piper"))
		} else if _, err := os.Stat(s.PiperPath); err != nil {
			errs = append(errs, fmt.Errorf("narration piper model file does not exist: %s", s.PiperPath))
		}
	default:
		errs = append(errs, fmt.Errorf("narration local engine must be espeak or piper, got %q", s.Local))
	}
	if s.CacheEnabled && (s.CacheSize < 1 || s.CacheSize > 10000) {
		errs = append(errs, fmt.Errorf("narration cache max_size must be between 1 and 10000 MB, got %d", s.CacheSize))
	}
	return errors.Join(errs...)
}

// expandPath expands tilde and all environment variables from the given path.
func expandPath(path string) string {
	s, err := homedir.Expand(path)
	if err == nil {
		return os.ExpandEnv(s)
	}
	return os.ExpandEnv(path)
}

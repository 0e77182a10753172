package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func testViper(t *testing.T) *viper.Viper {
	t.Helper()
	v := viper.New()
	setDefaults(v)
	v.Set("narration.cache.dir", t.TempDir())
	return v
}

func clearCredentials(t *testing.T) {
	t.Helper()
	for _, k := range []string{"VOICEAID_API_KEY", "GEMINI_API_KEY", "GOOGLE_API_KEY"} {
		t.Setenv(k, "")
	}
}

func TestLoadSettingsDefaults(t *testing.T) {
	clearCredentials(t)
	s, err := loadSettings(testViper(t))
	if err != nil {
		t.Fatal(err)
	}
	if s.HistoryPath != "voiceaid_history.json" {
		t.Errorf("history path = %q", s.HistoryPath)
	}
	if s.Tone != "Professional" || s.Language != "en" || s.Local != "espeak" {
		t.Errorf("unexpected defaults: %+v", s)
	}
	if s.Timeout != 30*time.Second || s.ProbeTimeout != 3*time.Second {
		t.Errorf("timeouts = %s, %s", s.Timeout, s.ProbeTimeout)
	}
	if s.RPM != 30 || s.CacheSize != 50 || !s.CacheEnabled {
		t.Errorf("narration defaults = %+v", s)
	}
	if s.APIKey != "" {
		t.Error("no key should be found")
	}
}

func TestCredentialPrecedence(t *testing.T) {
	tests := []struct {
		name   string
		env    map[string]string
		config string
		want   string
	}{
		{"none", nil, "", ""},
		{"google", map[string]string{"GOOGLE_API_KEY": "g"}, "", "g"},
		{"gemini over google", map[string]string{"GOOGLE_API_KEY": "g", "GEMINI_API_KEY": "m"}, "", "m"},
		{"voiceaid first", map[string]string{"VOICEAID_API_KEY": "v", "GEMINI_API_KEY": "m"}, "", "v"},
		{"blank skipped", map[string]string{"VOICEAID_API_KEY": "  ", "GEMINI_API_KEY": "m"}, "", "m"},
		{"config wins", map[string]string{"GEMINI_API_KEY": "m"}, "c", "c"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			clearCredentials(t)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			v := testViper(t)
			v.Set("genai.api_key", tc.config)
			s, err := loadSettings(v)
			if err != nil {
				t.Fatal(err)
			}
			if s.APIKey != tc.want {
				t.Errorf("key = %q, want %q", s.APIKey, tc.want)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	model := filepath.Join(t.TempDir(), "voice.onnx")
	if err := os.WriteFile(model, []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		key     string
		value   any
		wantErr string
	}{
		{"unknown tone", "tone", "grumpy", "default tone"},
		{"tone case insensitive", "tone", "calm", ""},
		{"language too short", "narration.language", "e", "language code"},
		{"negative rpm", "narration.network.requests_per_minute", -1, "requests_per_minute"},
		{"rpm disabled", "narration.network.requests_per_minute", 0, ""},
		{"probe timeout", "narration.probe.timeout", "1m", "probe timeout"},
		{"genai timeout", "genai.timeout", "0s", "genai timeout"},
		{"cache size", "narration.cache.max_size", 0, "max_size"},
		{"bad engine", "narration.local.engine", "festival", "espeak or piper"},
		{"piper without model", "narration.local.engine", "piper", "piper model is required"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			clearCredentials(t)
			v := testViper(t)
			v.Set(tc.key, tc.value)
			_, err := loadSettings(v)
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("error = %v, want it to mention %q", err, tc.wantErr)
			}
		})
	}

	t.Run("piper with model", func(t *testing.T) {
		clearCredentials(t)
		v := testViper(t)
		v.Set("narration.local.engine", "Piper")
		v.Set("narration.piper.model", model)
		s, err := loadSettings(v)
		if err != nil {
			t.Fatal(err)
		}
		if s.Local != "piper" {
			t.Errorf("engine = %q", s.Local)
		}
	})

	t.Run("errors are joined", func(t *testing.T) {
		clearCredentials(t)
		v := testViper(t)
		v.Set("tone", "grumpy")
		v.Set("narration.language", "")
		_, err := loadSettings(v)
		if err == nil || !strings.Contains(err.Error(), "default tone") || !strings.Contains(err.Error(), "language") {
			t.Fatalf("error = %v", err)
		}
	})
}

func TestExpandPath(t *testing.T) {
	t.Setenv("VOICEAID_TEST_DIR", "/data")
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	tests := map[string]string{
		"plain.json":                      "plain.json",
		"$VOICEAID_TEST_DIR/history.json": "/data/history.json",
		"~/voiceaid/history.json":         filepath.Join(home, "voiceaid/history.json"),
		"":                                "",
	}
	for in, want := range tests {
		if got := expandPath(in); got != want {
			t.Errorf("expandPath(%q) = %q, want %q", in, got, want)
		}
	}
}

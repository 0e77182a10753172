package tone

import (
	"errors"
	"strings"
	"testing"
)

func TestDefaultCatalogLookup(t *testing.T) {
	c := Default()

	tests := []struct {
		input string
		want  string
	}{
		{"Urgent", "Urgent"},
		{"urgent", "Urgent"},
		{"  PROFESSIONAL ", "Professional"},
		{"witty", "Witty"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := c.Lookup(tt.input)
			if err != nil {
				t.Fatalf("Lookup(%q) error: %v", tt.input, err)
			}
			if got.Name != tt.want {
				t.Errorf("Lookup(%q).Name = %q, want %q", tt.input, got.Name, tt.want)
			}
		})
	}
}

func TestUnknownTone(t *testing.T) {
	c := Default()

	if _, err := c.Lookup("sarcastic"); !errors.Is(err, ErrUnknownTone) {
		t.Errorf("Lookup error = %v, want ErrUnknownTone", err)
	}
	if _, err := c.Lookup(All); !errors.Is(err, ErrUnknownTone) {
		t.Errorf("All must not resolve to a tone, got %v", err)
	}
	if got := c.Describe("sarcastic"); got != "" {
		t.Errorf("Describe(unknown) = %q", got)
	}
	if got := c.Rate("sarcastic"); got != DefaultRate {
		t.Errorf("Rate(unknown) = %d", got)
	}
}

func TestEveryToneIsComplete(t *testing.T) {
	c := Default()
	for _, name := range c.Names() {
		if c.Describe(name) == "" {
			t.Errorf("%s has no description", name)
		}
		if c.Clause(name) == "" {
			t.Errorf("%s has no prompt clause", name)
		}
		if c.Rate(name) <= 0 {
			t.Errorf("%s has no speaking rate", name)
		}
	}
}

func TestUrgentSpeaksFaster(t *testing.T) {
	c := Default()
	if c.Rate("Urgent") <= c.Rate("Professional") {
		t.Errorf("Urgent rate %d should exceed Professional %d", c.Rate("Urgent"), c.Rate("Professional"))
	}
	if !strings.Contains(strings.ToLower(c.Clause("Urgent")), "action-oriented") {
		t.Errorf("Urgent clause = %q", c.Clause("Urgent"))
	}
}

func TestNewCatalogValidation(t *testing.T) {
	tests := []struct {
		name  string
		tones []Tone
	}{
		{"empty name", []Tone{{Name: " "}}},
		{"reserved", []Tone{{Name: "all"}}},
		{"duplicate", []Tone{{Name: "Calm"}, {Name: "calm"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewCatalog(tt.tones...); err == nil {
				t.Error("expected error")
			}
		})
	}

	c, err := NewCatalog(Tone{Name: "Plain"})
	if err != nil {
		t.Fatal(err)
	}
	if c.Rate("plain") != DefaultRate {
		t.Errorf("default rate not applied")
	}
}

func TestNamesOrderAndCopy(t *testing.T) {
	c := Default()
	names := c.Names()
	if names[0] != "Professional" || len(names) != c.Len() {
		t.Errorf("Names() = %v", names)
	}
	names[0] = "mutated"
	if c.Names()[0] != "Professional" {
		t.Error("Names() must return a copy")
	}
}

func TestNext(t *testing.T) {
	c := Default()
	names := c.Names()
	if got := c.Next(names[0]); got != names[1] {
		t.Errorf("Next(%q) = %q", names[0], got)
	}
	if got := c.Next(names[len(names)-1]); got != names[0] {
		t.Errorf("Next should wrap, got %q", got)
	}
	if got := c.Next("whatever"); got != names[0] {
		t.Errorf("Next(unknown) = %q", got)
	}
}

func TestSuggest(t *testing.T) {
	c := Default()
	tests := []struct {
		in   string
		want string
	}{
		{"urgnt", "Urgent"},
		{"prof", "Professional"},
		{"empath", "Empathetic"},
		{"", ""},
		{"zzz", ""},
	}
	for _, tt := range tests {
		if got := c.Suggest(tt.in); got != tt.want {
			t.Errorf("Suggest(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

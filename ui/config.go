package ui

// Config contains TUI-specific configuration.
type Config struct {
	// Tone selected at startup.
	DefaultTone string `env:"VOICEAID_TONE"`

	EnableMouse bool

	// Reload history when another process writes the file.
	WatchHistory bool `env:"VOICEAID_WATCH_HISTORY" envDefault:"true"`

	// Do not play narrations after a rewrite; they can still be played
	// from the history list.
	Mute bool `env:"VOICEAID_MUTE"`
}

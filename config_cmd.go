package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/charmbracelet/x/editor"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const defaultConfig = `# history file; relative paths resolve against the working directory
history:
  path: "voiceaid_history.json"
# tone selected at startup
tone: "Professional"
# never play narration automatically
mute: false
# mouse support (TUI-mode only)
mouse: false

# Gemini settings. The API key may also come from VOICEAID_API_KEY,
# GEMINI_API_KEY or GOOGLE_API_KEY.
genai:
  # api_key: ""
  model: "gemini-2.0-flash"
  # base_url: ""
  timeout: "30s"

rewrite:
  # Go template for the rewrite prompt. It must use {{.Message}} and may
  # use {{.Role}}, {{.Tone}} and {{.Clause}}. Empty uses the built-in one.
  template: ""

narration:
  language: "en"
  slow: false
  network:
    binary: "gtts-cli"
    # 0 disables rate limiting
    requests_per_minute: 30
  local:
    # espeak or piper
    engine: "espeak"
    # binary: ""
    # voice: "en"
  piper:
    # model: "~/.local/share/piper/en_US-lessac-medium.onnx"
  probe:
    address: "8.8.8.8:53"
    timeout: "3s"
  cache:
    enabled: true
    # dir: ""
    # in MB
    max_size: 50
`

var configCmd = &cobra.Command{
	Use:     "config",
	Hidden:  false,
	Short:   "Edit the voiceaid config file",
	Long:    paragraph(fmt.Sprintf("\n%s the voiceaid config file. We’ll use EDITOR to determine which editor to use. If the config file doesn't exist, it will be created.", keyword("Edit"))),
	Example: paragraph("voiceaid config\nvoiceaid config --config path/to/config.yml"),
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := ensureConfigFile(); err != nil {
			return err
		}

		c, err := editor.Cmd("VoiceAid", configFile)
		if err != nil {
			return fmt.Errorf("unable to set config file: %w", err)
		}
		c.Stdin = os.Stdin
		c.Stdout = os.Stdout
		c.Stderr = os.Stderr
		if err := c.Run(); err != nil {
			return fmt.Errorf("unable to run command: %w", err)
		}

		fmt.Fprintln(cmd.OutOrStdout(), "Wrote config file to:", configFile)
		return nil
	},
}

// ensureConfigFile writes the default config to configFile, falling back
// to the file viper loaded, unless a file is already there.
func ensureConfigFile() error {
	if configFile == "" {
		configFile = viper.GetViper().ConfigFileUsed()
	}
	return writeDefaultConfig(configFile)
}

func writeDefaultConfig(file string) error {
	if file == "" {
		return errors.New("no configuration file path")
	}
	if ext := path.Ext(file); ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("'%s' is not a supported configuration type: use '%s' or '%s'", ext, ".yaml", ".yml")
	}

	_, err := os.Stat(file)
	switch {
	case err == nil:
		return nil
	case !errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("unable to stat config file: %w", err)
	}

	// config may hold an API key
	if err := os.MkdirAll(filepath.Dir(file), 0o700); err != nil {
		return fmt.Errorf("unable to create directory: %w", err)
	}
	if err := os.WriteFile(file, []byte(defaultConfig), 0o600); err != nil {
		return fmt.Errorf("unable to write config file: %w", err)
	}
	return nil
}

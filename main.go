// Package main provides the entry point for the VoiceAid CLI application.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/charmbracelet/log"
	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/voiceaid/voiceaid/ui"
	"golang.org/x/term"
)

var (
	// Version as provided by goreleaser.
	Version = ""
	// CommitSHA as provided by goreleaser.
	CommitSHA = ""

	configFile string
	debug      bool
	cfg        settings

	rootCmd = &cobra.Command{
		Use:   "voiceaid",
		Short: "Rewrite a short message in the tone you need, then hear it spoken",
		Long: paragraph(
			fmt.Sprintf("\nRewrite a short message in the %s you need, then hear it spoken.", keyword("tone")),
		),
		SilenceErrors:    false,
		SilenceUsage:     true,
		TraverseChildren: true,
		Args:             cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return validateOptions(cmd)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd.Context())
		},
	}
)

func validateOptions(cmd *cobra.Command) error {
	if debug {
		log.SetLevel(log.DebugLevel)
	}
	if cmd.Flags().Changed("config") {
		viper.SetConfigFile(configFile)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("unable to read config file: %w", err)
		}
	}
	s, err := loadSettings(viper.GetViper())
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	cfg = s
	return nil
}

func runTUI(ctx context.Context) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return errors.New("the interactive interface needs a terminal; try 'voiceaid rewrite' instead")
	}

	// Read environment to get UI overrides
	uiCfg, err := env.ParseAs[ui.Config]()
	if err != nil {
		return fmt.Errorf("error parsing config: %v", err)
	}
	if uiCfg.DefaultTone == "" {
		uiCfg.DefaultTone = cfg.Tone
	}
	uiCfg.EnableMouse = uiCfg.EnableMouse || viper.GetBool("mouse")
	uiCfg.Mute = uiCfg.Mute || cfg.Mute

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.close()

	// Run Bubble Tea program
	if _, err := ui.NewProgram(uiCfg, a.ctrl, a.player, cfg.Catalog).Run(); err != nil {
		return fmt.Errorf("unable to run tui program: %w", err)
	}
	return nil
}

func main() {
	closer, err := setupLog()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	if err := rootCmd.Execute(); err != nil {
		_ = closer()
		os.Exit(1)
	}
	_ = closer()
}

func init() {
	tryLoadConfigFromDefaultPlaces()
	if len(CommitSHA) >= 7 {
		vt := rootCmd.VersionTemplate()
		rootCmd.SetVersionTemplate(vt[:len(vt)-1] + " (" + CommitSHA[0:7] + ")\n")
	}
	if Version == "" {
		Version = "unknown (built from source)"
	}
	rootCmd.Version = Version
	rootCmd.InitDefaultCompletionCmd()

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", fmt.Sprintf("config file (default %s)", viper.GetViper().ConfigFileUsed()))
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "log at debug level")
	rootCmd.PersistentFlags().String("history", "", "history file path")
	rootCmd.PersistentFlags().Bool("mute", false, "never play narration automatically")
	rootCmd.Flags().StringP("tone", "t", "", "tone selected at startup")
	rootCmd.Flags().BoolP("mouse", "m", false, "enable mouse support")
	_ = rootCmd.Flags().MarkHidden("mouse")

	// Config bindings
	_ = viper.BindPFlag("history.path", rootCmd.PersistentFlags().Lookup("history"))
	_ = viper.BindPFlag("mute", rootCmd.PersistentFlags().Lookup("mute"))
	_ = viper.BindPFlag("tone", rootCmd.Flags().Lookup("tone"))
	_ = viper.BindPFlag("mouse", rootCmd.Flags().Lookup("mouse"))

	setDefaults(viper.GetViper())

	rootCmd.AddCommand(configCmd, manCmd, rewriteCmd, historyCmd, tonesCmd)
}

func tryLoadConfigFromDefaultPlaces() {
	scope := gap.NewScope(gap.User, appName)
	dirs, err := scope.ConfigDirs()
	if err != nil {
		fmt.Println("Could not load find configuration directory.")
		os.Exit(1)
	}

	if c := os.Getenv("XDG_CONFIG_HOME"); c != "" {
		dirs = append([]string{filepath.Join(c, appName)}, dirs...)
	}

	if c := os.Getenv("VOICEAID_CONFIG_HOME"); c != "" {
		dirs = append([]string{c}, dirs...)
	}

	for _, v := range dirs {
		viper.AddConfigPath(v)
	}

	viper.SetConfigName(appName)
	viper.SetConfigType("yaml")
	viper.SetEnvPrefix(appName)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Warn("Could not parse configuration file", "err", err)
		}
	}

	if used := viper.ConfigFileUsed(); used != "" {
		log.Debug("Using configuration file", "path", viper.ConfigFileUsed())
		return
	}

	if viper.ConfigFileUsed() == "" {
		configFile = filepath.Join(dirs[0], appName+".yml")
	}
	if err := ensureConfigFile(); err != nil {
		log.Error("Could not create default configuration", "error", err)
	}
}

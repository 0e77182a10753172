package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/voiceaid/voiceaid/internal/failure"
	"github.com/voiceaid/voiceaid/internal/session"
	"github.com/voiceaid/voiceaid/internal/tone"
)

var (
	rewriteTone    string
	rewriteOut     string
	rewritePlay    bool
	rewriteNoAudio bool

	rewriteCmd = &cobra.Command{
		Use:   "rewrite MESSAGE",
		Short: "Rewrite a message in a tone and narrate it",
		Long: paragraph(fmt.Sprintf("\n%s a message in the chosen tone, save it to history and narrate it. Use - to read the message from stdin.",
			keyword("Rewrite"))),
		Example: paragraph("voiceaid rewrite \"help tired now\" --tone urgent --play\necho \"running late\" | voiceaid rewrite - --out late.mp3"),
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			message, err := readMessage(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}
			t, err := resolveTone(cfg.Catalog, rewriteTone)
			if err != nil {
				return err
			}

			var opts []session.Option
			if rewriteNoAudio {
				opts = append(opts, session.WithoutNarration())
			}
			a, err := newApp(cmd.Context(), cfg, opts...)
			if err != nil {
				return err
			}
			defer a.close()

			if w := a.ctrl.LoadWarning(); w != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), faint(failure.UserMessage(w)+", starting with empty history"))
			}

			res, err := a.ctrl.Submit(cmd.Context(), message, t)
			if res.Text != "" {
				fmt.Fprintln(cmd.OutOrStdout(), res.Text)
			}
			switch res.Status {
			case session.StatusBlank, session.StatusFailed:
				return errors.New(failure.UserMessage(err))
			case session.StatusPartial:
				fmt.Fprintln(cmd.ErrOrStderr(), "saved, but "+failure.UserMessage(res.NarrationErr))
				return nil
			}

			if res.Clip.Empty() {
				return nil
			}
			log.Debug("narrated", "source", res.Clip.Source, "format", res.Clip.Format, "duration", res.Clip.Duration())

			if rewriteOut != "" {
				path := outputPath(rewriteOut, res.Clip.Ext())
				if err := os.WriteFile(path, res.Clip.Data, 0o644); err != nil { //nolint:gosec
					return fmt.Errorf("unable to write audio: %w", err)
				}
				fmt.Fprintln(cmd.ErrOrStderr(), faint("audio written to "+path))
			}
			if rewritePlay && !cfg.Mute {
				if err := a.player.Play(cmd.Context(), res.Clip); err != nil {
					return fmt.Errorf("unable to play audio: %w", err)
				}
			}
			return nil
		},
	}
)

// readMessage joins the arguments into one message, or reads stdin for "-".
func readMessage(stdin io.Reader, args []string) (string, error) {
	if len(args) == 1 && args[0] == "-" {
		b, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("unable to read from stdin: %w", err)
		}
		return strings.TrimSpace(string(b)), nil
	}
	return strings.TrimSpace(strings.Join(args, " ")), nil
}

// resolveTone returns the canonical tone name, or an error with the
// closest match when name is unknown.
func resolveTone(c *tone.Catalog, name string) (string, error) {
	if name == "" {
		name = cfg.Tone
	}
	t, err := c.Lookup(name)
	if err == nil {
		return t.Name, nil
	}
	if s := c.Suggest(name); s != "" {
		return "", fmt.Errorf("unknown tone %q, did you mean %s?", name, s)
	}
	return "", fmt.Errorf("unknown tone %q; run 'voiceaid tones' to list them", name)
}

// outputPath adds ext to path unless it already ends in it.
func outputPath(path, ext string) string {
	if ext == "" || strings.HasSuffix(strings.ToLower(path), ext) {
		return path
	}
	return path + ext
}

func init() {
	rewriteCmd.Flags().StringVarP(&rewriteTone, "tone", "t", "", "tone to rewrite in (default from config)")
	rewriteCmd.Flags().StringVarP(&rewriteOut, "out", "o", "", "write the narration to this file")
	rewriteCmd.Flags().BoolVarP(&rewritePlay, "play", "p", false, "play the narration")
	rewriteCmd.Flags().BoolVar(&rewriteNoAudio, "no-audio", false, "skip narration")
	rewriteCmd.MarkFlagsMutuallyExclusive("no-audio", "play")
	rewriteCmd.MarkFlagsMutuallyExclusive("no-audio", "out")
	_ = rewriteCmd.RegisterFlagCompletionFunc("tone", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return tone.Default().Names(), cobra.ShellCompDirectiveNoFileComp
	})
}

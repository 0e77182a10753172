package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
	"github.com/voiceaid/voiceaid/internal/tone"
	"golang.org/x/term"
)

var tonesCmd = &cobra.Command{
	Use:   "tones",
	Short: "List the available tones",
	Long:  paragraph(fmt.Sprintf("\n%s the tones a message can be rewritten in, with their speaking rates.", keyword("List"))),
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		style := styles.NoTTYStyle
		width := 80
		if term.IsTerminal(int(os.Stdout.Fd())) {
			style = styles.LightStyle
			if termenv.HasDarkBackground() {
				style = styles.DarkStyle
			}
			if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
				width = min(w, 120)
			}
		}

		r, err := glamour.NewTermRenderer(
			glamour.WithColorProfile(lipgloss.ColorProfile()),
			glamour.WithStandardStyle(style),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			return fmt.Errorf("unable to create renderer: %w", err)
		}
		out, err := r.Render(tonesMarkdown(cfg.Catalog, cfg.Tone))
		if err != nil {
			return fmt.Errorf("unable to render markdown: %w", err)
		}
		_, err = fmt.Fprint(cmd.OutOrStdout(), out)
		return err //nolint:wrapcheck
	},
}

// tonesMarkdown renders the catalog as a markdown table, marking the
// default tone.
func tonesMarkdown(c *tone.Catalog, defaultTone string) string {
	var b strings.Builder
	b.WriteString("# Tones\n\n")
	b.WriteString("| Tone | Rate | Description |\n")
	b.WriteString("|------|-----:|-------------|\n")
	for _, t := range c.Tones() {
		name := t.Name
		if strings.EqualFold(t.Name, defaultTone) {
			name = "**" + name + "** (default)"
		}
		fmt.Fprintf(&b, "| %s | %d wpm | %s |\n", name, t.Rate, strings.ReplaceAll(t.Description, "|", "\\|"))
	}
	return b.String()
}

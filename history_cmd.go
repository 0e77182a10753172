package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	runewidth "github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/truncate"
	"github.com/spf13/cobra"
	"github.com/voiceaid/voiceaid/internal/failure"
	"github.com/voiceaid/voiceaid/internal/history"
	"github.com/voiceaid/voiceaid/internal/session"
	"github.com/voiceaid/voiceaid/internal/tone"
)

var (
	historyKeyword string
	historyTone    string
	historySort    string
	historyJSON    bool

	historyCmd = &cobra.Command{
		Use:     "history",
		Short:   "List past rewrites",
		Long:    paragraph(fmt.Sprintf("\n%s past rewrites, optionally filtered by keyword and tone.", keyword("List"))),
		Example: paragraph("voiceaid history --tone urgent --sort favorites\nvoiceaid history --keyword late --json"),
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := historyFilter(cfg.Catalog, historyKeyword, historyTone, historySort)
			if err != nil {
				return err
			}
			a, err := newApp(cmd.Context(), cfg, session.WithoutNarration())
			if err != nil {
				return err
			}
			defer a.close()

			if w := a.ctrl.LoadWarning(); w != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), faint(failure.UserMessage(w)))
			}
			records := a.ctrl.View(f)
			if historyJSON {
				return printHistoryJSON(cmd.OutOrStdout(), records)
			}
			printHistory(cmd.OutOrStdout(), records, 80)
			return nil
		},
	}

	historyPlayCmd = &cobra.Command{
		Use:   "play ID",
		Short: "Narrate a past rewrite again",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer a.close()

			rec, err := findRecord(a.ctrl, args[0])
			if err != nil {
				return err
			}
			clip, err := a.ctrl.Play(cmd.Context(), rec.ID)
			if err != nil {
				return errors.New(failure.UserMessage(err))
			}
			return a.player.Play(cmd.Context(), clip) //nolint:wrapcheck
		},
	}

	historyFavoriteCmd = &cobra.Command{
		Use:   "favorite ID",
		Short: "Toggle the favorite mark of a past rewrite",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), cfg, session.WithoutNarration())
			if err != nil {
				return err
			}
			defer a.close()

			rec, err := findRecord(a.ctrl, args[0])
			if err != nil {
				return err
			}
			rec, err = a.ctrl.ToggleFavorite(rec.ID)
			if err != nil {
				return errors.New(failure.UserMessage(err))
			}
			state := "removed from favorites"
			if rec.Favorite {
				state = "added to favorites"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", shortID(rec.ID), state)
			return nil
		},
	}

	historyDeleteCmd = &cobra.Command{
		Use:     "delete ID",
		Aliases: []string{"rm"},
		Short:   "Delete a past rewrite",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), cfg, session.WithoutNarration())
			if err != nil {
				return err
			}
			defer a.close()

			rec, err := findRecord(a.ctrl, args[0])
			if err != nil {
				return err
			}
			if err := a.ctrl.Delete(rec.ID); err != nil {
				return errors.New(failure.UserMessage(err))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s deleted\n", shortID(rec.ID))
			return nil
		},
	}
)

// historyFilter validates the flag values and builds the filter.
func historyFilter(c *tone.Catalog, kw, toneName, sortName string) (history.Filter, error) {
	f := history.Filter{Keyword: kw, Tone: tone.All}
	if toneName != "" && !strings.EqualFold(toneName, tone.All) {
		t, err := resolveTone(c, toneName)
		if err != nil {
			return f, err
		}
		f.Tone = t
	}
	mode, err := history.ParseSort(sortName)
	if err != nil {
		return f, err //nolint:wrapcheck
	}
	f.Sort = mode
	return f, nil
}

// findRecord resolves a full id or a unique id prefix.
func findRecord(ctrl *session.Controller, id string) (history.Record, error) {
	if rec, ok := ctrl.Find(id); ok {
		return rec, nil
	}
	var match []history.Record
	for _, r := range ctrl.Records() {
		if id != "" && strings.HasPrefix(r.ID, id) {
			match = append(match, r)
		}
	}
	switch len(match) {
	case 0:
		return history.Record{}, fmt.Errorf("no history entry with id %q", id)
	case 1:
		return match[0], nil
	}
	return history.Record{}, fmt.Errorf("id %q is ambiguous (%d entries match)", id, len(match))
}

const shortIDLen = 8

func shortID(id string) string {
	if len(id) > shortIDLen {
		return id[:shortIDLen]
	}
	return id
}

func printHistory(w io.Writer, records []history.Record, width int) {
	if len(records) == 0 {
		fmt.Fprintln(w, faint("No history yet."))
		return
	}
	for _, r := range records {
		mark := " "
		if r.Favorite {
			mark = star("★")
		}
		when := "unknown"
		if t := r.Time(); !t.IsZero() {
			when = humanize.Time(t)
		}
		meta := fmt.Sprintf("%-12s %-14s ", r.Tone, when)
		room := max(10, width-shortIDLen-3-runewidth.StringWidth(meta))
		msg := strings.ReplaceAll(r.Message, "\n", " ")
		fmt.Fprintf(w, "%-8s %s %s%s\n", shortID(r.ID), mark, faint(meta), truncate.StringWithTail(msg, uint(room), "…")) //nolint:gosec
	}
}

func printHistoryJSON(w io.Writer, records []history.Record) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if records == nil {
		records = []history.Record{}
	}
	return enc.Encode(records) //nolint:wrapcheck
}

func init() {
	historyCmd.Flags().StringVarP(&historyKeyword, "keyword", "k", "", "only entries containing this text")
	historyCmd.Flags().StringVarP(&historyTone, "tone", "t", "", "only entries in this tone")
	historyCmd.Flags().StringVarP(&historySort, "sort", "s", "newest", "newest, oldest or favorites")
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "print as JSON")
	historyCmd.AddCommand(historyPlayCmd, historyFavoriteCmd, historyDeleteCmd)
}

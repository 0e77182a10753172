// Package ui provides the interactive terminal interface for voiceaid.
package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/fsnotify/fsnotify"
	runewidth "github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/truncate"
	"github.com/muesli/termenv"
	"github.com/voiceaid/voiceaid/internal/audio"
	"github.com/voiceaid/voiceaid/internal/failure"
	"github.com/voiceaid/voiceaid/internal/history"
	"github.com/voiceaid/voiceaid/internal/session"
	"github.com/voiceaid/voiceaid/internal/tone"
)

const (
	statusMessageTimeout = time.Second * 3 // how long to show status messages like "saved"
	ellipsis             = "…"

	inputHeight = 3
)

// focus is the pane receiving key presses.
type focus int

const (
	focusInput focus = iota
	focusHistory
	focusSearch
)

func (f focus) String() string {
	return map[focus]string{
		focusInput:   "composing",
		focusHistory: "browsing history",
		focusSearch:  "searching history",
	}[f]
}

// NewProgram returns a new Tea program.
func NewProgram(cfg Config, ctrl *session.Controller, player audio.Player, catalog *tone.Catalog) *tea.Program {
	log.Debug("starting voiceaid", "tone", cfg.DefaultTone, "watch", cfg.WatchHistory, "mute", cfg.Mute)
	opts := []tea.ProgramOption{tea.WithAltScreen()}
	if cfg.EnableMouse {
		opts = append(opts, tea.WithMouseCellMotion())
	}
	m := newModel(cfg, ctrl, player, catalog)
	if cfg.WatchHistory {
		m.watcher = newHistoryWatcher(ctrl.HistoryPath())
	}
	return tea.NewProgram(m, opts...)
}

type model struct {
	cfg     Config
	ctrl    *session.Controller
	player  audio.Player
	catalog *tone.Catalog
	watcher *fsnotify.Watcher

	width  int
	height int

	input   textarea.Model
	search  textinput.Model
	spinner spinner.Model
	help    help.Model
	keys    keyMap
	focus   focus

	tone    string
	filter  history.Filter
	records []history.Record
	cursor  int

	// An action is in flight; new actions are refused until it reports.
	busy     bool
	busyNote string
	cancel   context.CancelFunc

	// Id armed for deletion by a first press of the delete key.
	pendingDelete string

	lastText string
	lastTone string

	statusMessage string
	statusIsError bool
	statusSeq     int
}

func newModel(cfg Config, ctrl *session.Controller, player audio.Player, catalog *tone.Catalog) model {
	if catalog == nil {
		catalog = tone.Default()
	}

	ta := textarea.New()
	ta.Placeholder = "Type a short message, e.g. help tired now"
	ta.ShowLineNumbers = false
	ta.CharLimit = 1000
	ta.SetHeight(inputHeight)
	ta.KeyMap.InsertNewline = newKeyMap().Newline
	ta.Focus()

	ti := textinput.New()
	ti.Prompt = "/ "
	ti.Placeholder = "keyword"

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	sp.Style = spinnerStyle

	m := model{
		cfg:     cfg,
		ctrl:    ctrl,
		player:  player,
		catalog: catalog,
		input:   ta,
		search:  ti,
		spinner: sp,
		help:    help.New(),
		keys:    newKeyMap(),
		focus:   focusInput,
		tone:    catalog.Names()[0],
		filter:  history.Filter{Tone: tone.All, Sort: history.Newest},
	}
	if t, err := catalog.Lookup(cfg.DefaultTone); err == nil {
		m.tone = t.Name
	}

	if err := ctrl.LoadWarning(); err != nil {
		m.statusMessage = failure.UserMessage(err) + ", starting with empty history"
		m.statusIsError = true
	}
	m.refresh()
	return m
}

func (m model) Init() tea.Cmd {
	cmds := []tea.Cmd{textarea.Blink}
	if m.watcher != nil {
		cmds = append(cmds, watchHistory(m.watcher, m.ctrl.HistoryPath()))
	}
	return tea.Batch(cmds...)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		// Ctrl+C always quits no matter where in the application you are.
		if key.Matches(msg, m.keys.ForceQuit) {
			return m, m.quit()
		}
		if m.busy && key.Matches(msg, m.keys.Cancel) {
			if m.cancel != nil {
				m.cancel()
			}
			if m.player != nil {
				_ = m.player.Stop()
			}
			m.busyNote = "Cancelling..."
			return m, nil
		}

		switch m.focus {
		case focusInput:
			return m.updateInput(msg)
		case focusSearch:
			return m.updateSearch(msg)
		default:
			return m.updateHistory(msg)
		}

	case tea.WindowSizeMsg:
		m.setSize(msg.Width, msg.Height)

	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case submitDoneMsg:
		m.finishAction()
		return m, m.handleSubmit(msg)

	case playDoneMsg:
		m.finishAction()
		switch {
		case errors.Is(msg.err, context.Canceled):
			return m, m.showStatus("Playback stopped", false)
		case msg.err != nil:
			log.Warn("playback failed", "id", msg.id, "error", msg.err)
			return m, m.showStatus(failure.UserMessage(msg.err), true)
		}
		return m, m.showStatus("Played ("+string(msg.source)+")", false)

	case favoriteDoneMsg:
		m.finishAction()
		if msg.err != nil {
			return m, m.showStatus(failure.UserMessage(msg.err), true)
		}
		m.refresh()
		m.selectID(msg.record.ID)
		if msg.record.Favorite {
			return m, m.showStatus("Added to favorites", false)
		}
		return m, m.showStatus("Removed from favorites", false)

	case deleteDoneMsg:
		m.finishAction()
		if msg.err != nil {
			return m, m.showStatus(failure.UserMessage(msg.err), true)
		}
		m.refresh()
		return m, m.showStatus("Deleted", false)

	case historyChangedMsg:
		// Our own saves land here too; reloading them is harmless.
		if !m.busy {
			if err := m.ctrl.Reload(); err != nil {
				cmds = append(cmds, m.showStatus(failure.UserMessage(err), true))
			}
			m.refresh()
		}
		if m.watcher != nil {
			cmds = append(cmds, watchHistory(m.watcher, m.ctrl.HistoryPath()))
		}

	case statusMessageTimeoutMsg:
		if msg.seq == m.statusSeq {
			m.statusMessage = ""
			m.statusIsError = false
		}
	}

	return m, tea.Batch(cmds...)
}

func (m model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Submit):
		if m.busy {
			return m, m.showStatus("Still working on the last request", true)
		}
		cmd := m.startAction("Rewriting in a "+strings.ToLower(m.tone)+" tone...", func(ctx context.Context) tea.Cmd {
			return submitCmd(ctx, m.ctrl, m.player, m.input.Value(), m.tone, m.cfg.Mute)
		})
		return m, cmd

	case key.Matches(msg, m.keys.NextTone):
		m.tone = m.catalog.Next(m.tone)
		return m, nil

	case key.Matches(msg, m.keys.SwitchFocus):
		return m, m.setFocus(focusHistory)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.search.SetValue("")
		m.filter.Keyword = ""
		m.refresh()
		return m, m.setFocus(focusHistory)
	case "enter", "tab":
		return m, m.setFocus(focusHistory)
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	m.filter.Keyword = m.search.Value()
	m.refresh()
	return m, cmd
}

func (m model) updateHistory(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Any key other than a second delete disarms a pending delete.
	armed := m.pendingDelete
	m.pendingDelete = ""

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, m.quit()

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll

	case key.Matches(msg, m.keys.SwitchFocus):
		return m, m.setFocus(focusInput)

	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}

	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.records)-1 {
			m.cursor++
		}

	case key.Matches(msg, m.keys.Filter):
		return m, m.setFocus(focusSearch)

	case key.Matches(msg, m.keys.ToneFilter):
		m.filter.Tone = nextToneFilter(m.catalog, m.filter.Tone)
		m.refresh()

	case key.Matches(msg, m.keys.Sort):
		m.filter.Sort = m.filter.Sort.Next()
		m.refresh()

	case key.Matches(msg, m.keys.Cancel):
		if m.filter.Keyword != "" {
			m.search.SetValue("")
			m.filter.Keyword = ""
			m.refresh()
		}
	}

	rec, ok := m.selected()
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Play):
		if m.busy {
			return m, m.showStatus("Still working on the last request", true)
		}
		return m, m.startAction("Narrating...", func(ctx context.Context) tea.Cmd {
			return playCmd(ctx, m.ctrl, m.player, rec.ID)
		})

	case key.Matches(msg, m.keys.Favorite):
		if m.busy {
			return m, nil
		}
		return m, m.startAction("", func(context.Context) tea.Cmd {
			return favoriteCmd(m.ctrl, rec.ID)
		})

	case key.Matches(msg, m.keys.Delete):
		if m.busy {
			return m, nil
		}
		if armed != rec.ID {
			m.pendingDelete = rec.ID
			return m, m.showStatus("Press d again to delete this entry", false)
		}
		return m, m.startAction("", func(context.Context) tea.Cmd {
			return deleteCmd(m.ctrl, rec.ID)
		})

	case key.Matches(msg, m.keys.Copy):
		// Copy using OSC 52
		termenv.Copy(rec.Message)
		// Copy using native system clipboard
		_ = clipboard.WriteAll(rec.Message)
		return m, m.showStatus("Copied message", false)
	}

	return m, nil
}

// startAction marks the model busy and returns the action's command along
// with the spinner.
func (m *model) startAction(note string, build func(ctx context.Context) tea.Cmd) tea.Cmd {
	ctx, cancel := context.WithCancel(context.Background())
	m.busy = true
	m.busyNote = note
	m.cancel = cancel
	return tea.Batch(m.spinner.Tick, build(ctx))
}

func (m *model) finishAction() {
	if m.cancel != nil {
		m.cancel()
	}
	m.busy = false
	m.busyNote = ""
	m.cancel = nil
}

func (m *model) handleSubmit(msg submitDoneMsg) tea.Cmd {
	res := msg.result
	if res.Text != "" {
		m.lastText = res.Text
		m.lastTone = m.tone
		if res.Record.Tone != "" {
			m.lastTone = res.Record.Tone
		}
	}

	switch res.Status {
	case session.StatusBlank:
		return m.showStatus("Please enter a message first", true)

	case session.StatusFailed:
		return m.showStatus(failure.UserMessage(msg.err), true)

	case session.StatusPartial:
		m.input.Reset()
		m.refresh()
		m.selectID(res.Record.ID)
		return m.showStatus("Saved, but "+failure.UserMessage(res.NarrationErr), true)
	}

	m.input.Reset()
	m.refresh()
	m.selectID(res.Record.ID)
	switch {
	case errors.Is(msg.playErr, context.Canceled):
		return m.showStatus("Saved; playback stopped", false)
	case msg.playErr != nil:
		log.Warn("playback failed", "error", msg.playErr)
		return m.showStatus("Saved, but playback failed: "+msg.playErr.Error(), true)
	case res.Clip.Empty():
		return m.showStatus("Saved", false)
	}
	return m.showStatus("Saved and narrated ("+string(res.Clip.Source)+")", false)
}

func (m *model) showStatus(message string, isError bool) tea.Cmd {
	m.statusSeq++
	m.statusMessage = message
	m.statusIsError = isError
	return waitForStatusMessageTimeout(m.statusSeq)
}

func (m *model) setFocus(f focus) tea.Cmd {
	m.focus = f
	m.keys.historyFocused = f != focusInput
	m.input.Blur()
	m.search.Blur()
	switch f {
	case focusInput:
		return m.input.Focus()
	case focusSearch:
		return m.search.Focus()
	}
	return nil
}

func (m *model) setSize(w, h int) {
	m.width = w
	m.height = h
	m.input.SetWidth(max(20, w-4))
	m.search.Width = max(10, w/3)
	m.help.Width = w
}

// refresh recomputes the history view, keeping the cursor on the same
// record when it is still visible.
func (m *model) refresh() {
	var selectedID string
	if rec, ok := m.selected(); ok {
		selectedID = rec.ID
	}
	m.records = m.ctrl.View(m.filter)
	if !m.selectID(selectedID) {
		m.cursor = min(m.cursor, max(0, len(m.records)-1))
	}
}

func (m *model) selectID(id string) bool {
	if id == "" {
		return false
	}
	for i, r := range m.records {
		if r.ID == id {
			m.cursor = i
			return true
		}
	}
	return false
}

func (m model) selected() (history.Record, bool) {
	if m.cursor < 0 || m.cursor >= len(m.records) {
		return history.Record{}, false
	}
	return m.records[m.cursor], true
}

func (m model) quit() tea.Cmd {
	if m.cancel != nil {
		m.cancel()
	}
	if m.player != nil {
		_ = m.player.Stop()
	}
	if m.watcher != nil {
		_ = m.watcher.Close()
	}
	return tea.Quit
}

// nextToneFilter cycles All, then each tone, then back to All.
func nextToneFilter(c *tone.Catalog, current string) string {
	names := c.Names()
	if current == "" || current == tone.All {
		return names[0]
	}
	if current == names[len(names)-1] {
		return tone.All
	}
	return c.Next(current)
}

func (m model) View() string {
	var b strings.Builder

	fmt.Fprintf(&b, "\n  %s  %s\n\n", logoStyle("VoiceAid"), subtleStyle(m.focus.String()))

	// Composer
	fmt.Fprintf(&b, "  %s %s  %s\n", sectionStyle("Tone"), toneNameStyle(m.tone), subtleStyle(m.catalog.Describe(m.tone)))
	b.WriteString(indent(m.input.View(), 2))

	if m.lastText != "" {
		width := max(20, m.width-6)
		out := outputStyle.Width(width).Render(m.lastText)
		fmt.Fprintf(&b, "\n  %s %s\n%s", sectionStyle("Rewritten"), subtleStyle(m.lastTone), indent(out, 2))
	}

	// History
	b.WriteString("\n" + m.historyHeaderView() + "\n")
	if m.focus == focusSearch || m.filter.Keyword != "" {
		b.WriteString("  " + m.search.View() + "\n")
	}
	b.WriteString(m.historyView())

	b.WriteString("\n" + m.statusBarView() + "\n")
	b.WriteString("  " + m.help.View(m.keys))
	return b.String()
}

func (m model) historyHeaderView() string {
	count := fmt.Sprintf("%d", len(m.records))
	if total := len(m.ctrl.Records()); total != len(m.records) {
		count = fmt.Sprintf("%d of %d", len(m.records), total)
	}
	return fmt.Sprintf("  %s %s  %s",
		sectionStyle("History"),
		subtleStyle(count),
		subtleStyle(fmt.Sprintf("tone: %s · sort: %s", m.filter.Tone, m.filter.Sort)),
	)
}

func (m model) historyView() string {
	if len(m.records) == 0 {
		return "  " + subtleStyle("Nothing here yet.") + "\n"
	}

	// Leave room for the composer, output, status bar and help.
	rows := len(m.records)
	if m.height > 0 {
		rows = max(3, m.height-18)
	}
	start := 0
	if m.cursor >= rows {
		start = m.cursor - rows + 1
	}
	end := min(len(m.records), start+rows)

	var b strings.Builder
	for i := start; i < end; i++ {
		b.WriteString(m.recordView(m.records[i], i == m.cursor && m.focus != focusInput))
		b.WriteString("\n")
	}
	return b.String()
}

func (m model) recordView(r history.Record, selected bool) string {
	gutter := "  "
	if selected {
		gutter = selectedStyle("│ ")
	}
	star := " "
	if r.Favorite {
		star = favoriteStyle("★")
	}
	when := "unknown"
	if t := r.Time(); !t.IsZero() {
		when = humanize.Time(t)
	}
	meta := fmt.Sprintf("%-12s %-14s ", r.Tone, when)

	width := m.width - 2 - 2 - runewidth.StringWidth(meta)
	if m.width == 0 {
		width = 60
	}
	msg := truncate.StringWithTail(strings.ReplaceAll(r.Message, "\n", " "), uint(max(1, width)), ellipsis) //nolint:gosec
	if selected {
		msg = selectedStyle(msg)
	}
	return gutter + star + " " + subtleStyle(meta) + msg
}

func (m model) statusBarView() string {
	var note string
	style := statusBarNoteStyle
	switch {
	case m.busy:
		note = m.spinner.View() + " " + m.busyNote
	case m.statusMessage != "":
		note = m.statusMessage
		style = statusBarMessageStyle
		if m.statusIsError {
			style = statusBarErrorStyle
		}
	default:
		note = m.ctrl.HistoryPath()
	}

	if m.width <= 0 {
		return style(" " + note + " ")
	}
	note = truncate.StringWithTail(" "+note+" ", uint(max(0, m.width)), ellipsis) //nolint:gosec
	padding := max(0, m.width-lipgloss.Width(note))
	return style(note + strings.Repeat(" ", padding))
}

// Lightweight version of reflow's indent function.
func indent(s string, n int) string {
	if n <= 0 || s == "" {
		return s
	}
	l := strings.Split(s, "\n")
	b := strings.Builder{}
	i := strings.Repeat(" ", n)
	for _, v := range l {
		fmt.Fprintf(&b, "%s%s\n", i, v)
	}
	return b.String()
}

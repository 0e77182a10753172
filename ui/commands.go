package ui

import (
	"context"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
	"github.com/voiceaid/voiceaid/internal/audio"
	"github.com/voiceaid/voiceaid/internal/history"
	"github.com/voiceaid/voiceaid/internal/session"
)

type (
	submitDoneMsg struct {
		result  session.Result
		err     error
		playErr error
	}

	playDoneMsg struct {
		id     string
		source audio.Source
		err    error
	}

	favoriteDoneMsg struct {
		record history.Record
		err    error
	}

	deleteDoneMsg struct {
		id  string
		err error
	}

	historyChangedMsg struct{}

	statusMessageTimeoutMsg struct{ seq int }
)

func submitCmd(ctx context.Context, ctrl *session.Controller, player audio.Player, message, tone string, mute bool) tea.Cmd {
	return func() tea.Msg {
		res, err := ctrl.Submit(ctx, message, tone)
		msg := submitDoneMsg{result: res, err: err}
		if err == nil && !mute && player != nil && !res.Clip.Empty() {
			msg.playErr = player.Play(ctx, res.Clip)
		}
		return msg
	}
}

func playCmd(ctx context.Context, ctrl *session.Controller, player audio.Player, id string) tea.Cmd {
	return func() tea.Msg {
		clip, err := ctrl.Play(ctx, id)
		if err != nil {
			return playDoneMsg{id: id, err: err}
		}
		if player != nil {
			err = player.Play(ctx, clip)
		}
		return playDoneMsg{id: id, source: clip.Source, err: err}
	}
}

func favoriteCmd(ctrl *session.Controller, id string) tea.Cmd {
	return func() tea.Msg {
		rec, err := ctrl.ToggleFavorite(id)
		return favoriteDoneMsg{record: rec, err: err}
	}
}

func deleteCmd(ctrl *session.Controller, id string) tea.Cmd {
	return func() tea.Msg {
		return deleteDoneMsg{id: id, err: ctrl.Delete(id)}
	}
}

func waitForStatusMessageTimeout(seq int) tea.Cmd {
	return tea.Tick(statusMessageTimeout, func(time.Time) tea.Msg {
		return statusMessageTimeoutMsg{seq: seq}
	})
}

// watchHistory blocks until the history file is written or replaced. The
// directory is watched because saves rename a temp file over the target.
func watchHistory(w *fsnotify.Watcher, path string) tea.Cmd {
	target := filepath.Clean(path)
	return func() tea.Msg {
		for {
			select {
			case event, ok := <-w.Events:
				if !ok {
					return nil
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				log.Debug("fsnotify event", "file", event.Name, "event", event.Op)
				return historyChangedMsg{}
			case err, ok := <-w.Errors:
				if !ok {
					return nil
				}
				log.Debug("fsnotify error", "file", target, "error", err)
			}
		}
	}
}

func newHistoryWatcher(path string) *fsnotify.Watcher {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		log.Error("error creating fsnotify watcher", "error", err)
		return nil
	}
	dir := filepath.Dir(path)
	if err := w.Add(dir); err != nil {
		log.Error("error adding dir to fsnotify watcher", "dir", dir, "error", err)
		_ = w.Close()
		return nil
	}
	log.Info("fsnotify watching dir", "dir", dir)
	return w
}

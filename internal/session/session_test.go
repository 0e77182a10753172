package session

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/voiceaid/voiceaid/internal/audio"
	"github.com/voiceaid/voiceaid/internal/failure"
	"github.com/voiceaid/voiceaid/internal/history"
	"github.com/voiceaid/voiceaid/internal/narrate"
	"github.com/voiceaid/voiceaid/internal/rewrite"
)

type fakeRewriter struct {
	reply string
	err   error
	calls int
}

func (f *fakeRewriter) Rewrite(_ context.Context, _, _ string) (string, error) {
	f.calls++
	return f.reply, f.err
}

type fakeNarrator struct {
	err   error
	calls int
	texts []string
}

func (f *fakeNarrator) Narrate(_ context.Context, text, _ string) (audio.Clip, error) {
	f.calls++
	f.texts = append(f.texts, text)
	if f.err != nil {
		return audio.Clip{}, f.err
	}
	return audio.Clip{Data: []byte("ID3"), Format: audio.FormatMP3, Source: audio.SourceNetwork}, nil
}

// localSynth records the rate it was asked to speak at.
type localSynth struct {
	rates []int
}

func (l *localSynth) Name() string { return "espeak" }

func (l *localSynth) Synthesize(_ context.Context, req narrate.Request) (audio.Clip, error) {
	l.rates = append(l.rates, req.Rate)
	return audio.Clip{Data: audio.EncodeWAV([]byte{1, 0}, 22050, 1), Format: audio.FormatWAV}, nil
}

var fixedNow = time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)

func openStore(t *testing.T) *history.Store {
	t.Helper()
	s, err := history.Open(filepath.Join(t.TempDir(), "history.json"))
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestSubmitUrgentScenario(t *testing.T) {
	store := openStore(t)
	rw := &fakeRewriter{reply: "I need help now, I'm exhausted."}
	local := &localSynth{}
	narrator := narrate.New(narrate.WithLocal(local))
	c := New(store, rw, narrator, WithClock(func() time.Time { return fixedNow }))

	res, err := c.Submit(context.Background(), "help tired now", "Urgent")
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if res.Status != StatusComplete {
		t.Errorf("Status = %s", res.Status)
	}
	if res.Clip.Empty() || res.Clip.Source != audio.SourceLocal {
		t.Errorf("expected local audio, got %+v", res.Clip)
	}
	if len(local.rates) != 1 || local.rates[0] != 200 {
		t.Errorf("rates = %v, want [200]", local.rates)
	}

	records := store.Records()
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	got := records[0]
	if got.Tone != "Urgent" || got.Message != "I need help now, I'm exhausted." || got.Favorite {
		t.Errorf("record = %+v", got)
	}
	if !got.Time().Equal(fixedNow) {
		t.Errorf("timestamp = %s", got.Timestamp)
	}
	if !got.Same(res.Record) {
		t.Error("result record does not match stored record")
	}
}

func TestSubmitBlank(t *testing.T) {
	store := openStore(t)
	rw := &fakeRewriter{reply: "x"}
	n := &fakeNarrator{}
	c := New(store, rw, n)

	for _, msg := range []string{"", "   ", "\n\t"} {
		res, err := c.Submit(context.Background(), msg, "Calm")
		if res.Status != StatusBlank {
			t.Errorf("%q: Status = %s", msg, res.Status)
		}
		if !errors.Is(err, failure.ErrInvalidInput) {
			t.Errorf("%q: expected ErrInvalidInput, got %v", msg, err)
		}
	}
	if rw.calls != 0 || n.calls != 0 {
		t.Errorf("rewriter calls = %d, narrator calls = %d", rw.calls, n.calls)
	}
	if store.Len() != 0 {
		t.Error("history should be unchanged")
	}
}

func TestSubmitCredentialAbsent(t *testing.T) {
	store := openStore(t)
	engine, err := rewrite.New(nil)
	if err != nil {
		t.Fatal(err)
	}
	n := &fakeNarrator{}
	c := New(store, engine, n)

	res, err := c.Submit(context.Background(), "help tired now", "Urgent")
	if !errors.Is(err, failure.ErrGenerationUnavailable) {
		t.Fatalf("expected ErrGenerationUnavailable, got %v", err)
	}
	if res.Status != StatusFailed {
		t.Errorf("Status = %s", res.Status)
	}
	if n.calls != 0 {
		t.Error("narration should not be attempted")
	}
	if store.Len() != 0 {
		t.Error("history should be unchanged")
	}
	if _, err := os.Stat(store.Path()); !os.IsNotExist(err) {
		t.Error("history file should not be written")
	}
}

func TestSubmitNarrationFailureKeepsRecord(t *testing.T) {
	store := openStore(t)
	rw := &fakeRewriter{reply: "Could we talk later?"}
	n := &fakeNarrator{err: failure.Narration("no engine", errors.New("boom"))}
	c := New(store, rw, n)

	res, err := c.Submit(context.Background(), "talk later", "Calm")
	if !errors.Is(err, failure.ErrNarrationUnavailable) {
		t.Fatalf("expected ErrNarrationUnavailable, got %v", err)
	}
	if res.Status != StatusPartial {
		t.Errorf("Status = %s", res.Status)
	}
	if res.Text != "Could we talk later?" || res.NarrationErr == nil {
		t.Errorf("result = %+v", res)
	}

	reopened, err := history.Open(store.Path())
	if err != nil {
		t.Fatal(err)
	}
	if reopened.Len() != 1 {
		t.Errorf("record should be persisted, found %d", reopened.Len())
	}
}

func TestSubmitSaveFailureReturnsText(t *testing.T) {
	dir := t.TempDir()
	// A non-empty directory at the history path makes the rename fail.
	path := filepath.Join(dir, "history.json")
	store, err := history.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(path, "blocker"), 0o755); err != nil {
		t.Fatal(err)
	}
	rw := &fakeRewriter{reply: "Saved?"}
	n := &fakeNarrator{}
	c := New(store, rw, n)

	res, err := c.Submit(context.Background(), "save", "Calm")
	if err == nil {
		t.Fatal("expected a save error")
	}
	if res.Status != StatusFailed || res.Text != "Saved?" {
		t.Errorf("result = %+v", res)
	}
	if n.calls != 0 {
		t.Error("narration should not run after a failed save")
	}
}

func TestWithoutNarration(t *testing.T) {
	store := openStore(t)
	n := &fakeNarrator{}
	c := New(store, &fakeRewriter{reply: "ok"}, n, WithoutNarration())

	res, err := c.Submit(context.Background(), "hi", "Casual")
	if err != nil {
		t.Fatal(err)
	}
	if res.Status != StatusComplete || n.calls != 0 {
		t.Errorf("status = %s, narrator calls = %d", res.Status, n.calls)
	}
}

func TestHistoryActions(t *testing.T) {
	store := openStore(t)
	rw := &fakeRewriter{}
	n := &fakeNarrator{}
	now := fixedNow
	c := New(store, rw, n, WithClock(func() time.Time { now = now.Add(time.Minute); return now }))

	var ids []string
	for _, msg := range []string{"first", "second", "third"} {
		rw.reply = msg
		res, err := c.Submit(context.Background(), msg, "Casual")
		if err != nil {
			t.Fatal(err)
		}
		ids = append(ids, res.Record.ID)
	}

	rec, err := c.ToggleFavorite(ids[0])
	if err != nil || !rec.Favorite {
		t.Fatalf("ToggleFavorite = %+v, %v", rec, err)
	}
	view := c.View(history.Filter{Sort: history.FavoritesFirst})
	if view[0].ID != ids[0] {
		t.Errorf("favorite should lead the view, got %q", view[0].Message)
	}

	clip, err := c.Play(context.Background(), ids[1])
	if err != nil || clip.Empty() {
		t.Fatalf("Play = %v", err)
	}
	if last := n.texts[len(n.texts)-1]; last != "second" {
		t.Errorf("played %q", last)
	}

	if err := c.Delete(ids[1]); err != nil {
		t.Fatal(err)
	}
	if _, ok := c.Find(ids[1]); ok {
		t.Error("deleted record still present")
	}
	if _, err := c.Play(context.Background(), ids[1]); !errors.Is(err, history.ErrNotFound) {
		t.Errorf("Play deleted = %v", err)
	}

	reopened, err := history.Open(store.Path())
	if err != nil {
		t.Fatal(err)
	}
	got := reopened.Records()
	if len(got) != 2 || got[0].ID != ids[0] || got[1].ID != ids[2] {
		t.Errorf("after restart: %+v", got)
	}
	if !got[0].Favorite {
		t.Error("favorite flag should persist")
	}

	if keyword := c.View(history.Filter{Keyword: "THIRD"}); len(keyword) != 1 {
		t.Errorf("keyword view = %+v", keyword)
	}
}

func TestLoadWarning(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "history.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	store, openErr := history.Open(path)
	c := New(store, &fakeRewriter{}, nil, WithLoadWarning(openErr))
	if !errors.Is(c.LoadWarning(), failure.ErrCorruptHistory) {
		t.Errorf("LoadWarning = %v", c.LoadWarning())
	}
	if len(c.Records()) != 0 {
		t.Error("corrupt history should start empty")
	}
	if _, err := c.Play(context.Background(), "missing"); !errors.Is(err, history.ErrNotFound) {
		t.Errorf("Play = %v", err)
	}
}

package narrate

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/voiceaid/voiceaid/internal/audio"
	"github.com/voiceaid/voiceaid/internal/failure"
)

type fakeSynth struct {
	name string
	clip audio.Clip
	err  error

	mu       sync.Mutex
	requests []Request
}

func (f *fakeSynth) Name() string { return f.name }

func (f *fakeSynth) Synthesize(_ context.Context, req Request) (audio.Clip, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	return f.clip, f.err
}

func (f *fakeSynth) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

type mapCache map[string][]byte

func (m mapCache) Get(key string) ([]byte, bool) {
	v, ok := m[key]
	return v, ok
}

func (m mapCache) Put(key string, value []byte) error {
	m[key] = value
	return nil
}

func mp3Clip() audio.Clip {
	return audio.Clip{Data: []byte("ID3-network"), Format: audio.FormatMP3}
}

func wavClip() audio.Clip {
	return audio.Clip{Data: audio.EncodeWAV([]byte{1, 0, 2, 0}, 22050, 1), Format: audio.FormatWAV}
}

func TestNarrateSelection(t *testing.T) {
	tests := []struct {
		name       string
		online     bool
		networkErr error
		wantSource audio.Source
		wantNet    int
		wantLocal  int
	}{
		{name: "online uses network", online: true, wantSource: audio.SourceNetwork, wantNet: 1},
		{name: "offline uses local", online: false, wantSource: audio.SourceLocal, wantLocal: 1},
		{name: "network failure falls back", online: true, networkErr: errors.New("503"), wantSource: audio.SourceLocal, wantNet: 1, wantLocal: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			network := &fakeSynth{name: "gtts", clip: mp3Clip(), err: tt.networkErr}
			local := &fakeSynth{name: "espeak", clip: wavClip()}
			prober := Offline
			if tt.online {
				prober = Online
			}
			e := New(WithNetwork(network), WithLocal(local), WithProber(prober, time.Second))

			clip, err := e.Narrate(context.Background(), "I need help now.", "Urgent")
			if err != nil {
				t.Fatalf("Narrate failed: %v", err)
			}
			if clip.Source != tt.wantSource {
				t.Errorf("Source = %q, want %q", clip.Source, tt.wantSource)
			}
			if network.calls() != tt.wantNet {
				t.Errorf("network calls = %d, want %d", network.calls(), tt.wantNet)
			}
			if local.calls() != tt.wantLocal {
				t.Errorf("local calls = %d, want %d", local.calls(), tt.wantLocal)
			}
		})
	}
}

func TestNarrateUsesToneRate(t *testing.T) {
	local := &fakeSynth{name: "espeak", clip: wavClip()}
	e := New(WithLocal(local))

	for _, tc := range []struct {
		tone string
		rate int
	}{
		{"Urgent", 200},
		{"Calm", 140},
		{"Professional", 160},
		{"Nonexistent", 160},
	} {
		if _, err := e.Narrate(context.Background(), "hello there", tc.tone); err != nil {
			t.Fatal(err)
		}
		got := local.requests[len(local.requests)-1]
		if got.Rate != tc.rate {
			t.Errorf("%s: rate = %d, want %d", tc.tone, got.Rate, tc.rate)
		}
		if got.Language != "en" {
			t.Errorf("%s: language = %q", tc.tone, got.Language)
		}
	}
}

func TestNarrateBothFail(t *testing.T) {
	network := &fakeSynth{name: "gtts", err: errors.New("blocked")}
	local := &fakeSynth{name: "espeak", err: errors.New("not installed")}
	e := New(WithNetwork(network), WithLocal(local), WithProber(Online, 0))

	_, err := e.Narrate(context.Background(), "I need help now.", "Urgent")
	if !errors.Is(err, failure.ErrNarrationUnavailable) {
		t.Fatalf("expected ErrNarrationUnavailable, got %v", err)
	}
	if code, _ := failure.CodeOf(err); code != failure.CodeNarrationUnavailable {
		t.Errorf("code = %q", code)
	}
}

func TestNarrateEmptyOutputIsFailure(t *testing.T) {
	local := &fakeSynth{name: "espeak"}
	e := New(WithLocal(local))
	if _, err := e.Narrate(context.Background(), "hello", "Calm"); !errors.Is(err, failure.ErrNarrationUnavailable) {
		t.Errorf("expected ErrNarrationUnavailable, got %v", err)
	}
}

func TestNarrateNoSynthesizers(t *testing.T) {
	e := New()
	if _, err := e.Narrate(context.Background(), "hello", "Calm"); !errors.Is(err, failure.ErrNarrationUnavailable) {
		t.Errorf("expected ErrNarrationUnavailable, got %v", err)
	}
}

func TestNarrateBlankText(t *testing.T) {
	local := &fakeSynth{name: "espeak", clip: wavClip()}
	e := New(WithLocal(local))
	_, err := e.Narrate(context.Background(), "  \n\t", "Calm")
	if !errors.Is(err, failure.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
	if local.calls() != 0 {
		t.Error("synthesizer should not run for blank text")
	}
}

func TestNarrateCache(t *testing.T) {
	local := &fakeSynth{name: "espeak", clip: wavClip()}
	c := mapCache{}
	e := New(WithLocal(local), WithCache(c))

	first, err := e.Narrate(context.Background(), "I need help now.", "Urgent")
	if err != nil {
		t.Fatal(err)
	}
	second, err := e.Narrate(context.Background(), "I need help now.", "Urgent")
	if err != nil {
		t.Fatal(err)
	}

	if local.calls() != 1 {
		t.Errorf("synthesizer calls = %d, want 1", local.calls())
	}
	if second.Source != audio.SourceCache {
		t.Errorf("second Source = %q", second.Source)
	}
	if second.Format != audio.FormatWAV {
		t.Errorf("cached format = %q", second.Format)
	}
	if string(first.Data) != string(second.Data) {
		t.Error("cached payload differs")
	}

	// A different tone changes the rate and so the key.
	if _, err := e.Narrate(context.Background(), "I need help now.", "Calm"); err != nil {
		t.Fatal(err)
	}
	if local.calls() != 2 {
		t.Errorf("synthesizer calls = %d, want 2", local.calls())
	}
}

func TestNarrateStripsMarkdown(t *testing.T) {
	local := &fakeSynth{name: "espeak", clip: wavClip()}
	e := New(WithLocal(local))
	if _, err := e.Narrate(context.Background(), "I **really** need help.", "Urgent"); err != nil {
		t.Fatal(err)
	}
	if got := local.requests[0].Text; got != "I really need help." {
		t.Errorf("Text = %q", got)
	}
}

func TestNarrateRateLimitHonoursContext(t *testing.T) {
	network := &fakeSynth{name: "gtts", clip: mp3Clip()}
	local := &fakeSynth{name: "espeak", clip: wavClip()}
	e := New(WithNetwork(network), WithLocal(local), WithProber(Online, 0), WithRequestsPerMinute(1))

	if _, err := e.Narrate(context.Background(), "one", "Calm"); err != nil {
		t.Fatal(err)
	}

	// The limiter has no tokens left; a short deadline forces the local path.
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	clip, err := e.Narrate(ctx, "two", "Calm")
	if err != nil {
		t.Fatal(err)
	}
	if clip.Source != audio.SourceLocal {
		t.Errorf("Source = %q, want local", clip.Source)
	}
	if network.calls() != 1 {
		t.Errorf("network calls = %d, want 1", network.calls())
	}
}

func TestProbeTimeoutIsApplied(t *testing.T) {
	var deadline bool
	prober := ProberFunc(func(ctx context.Context) bool {
		_, deadline = ctx.Deadline()
		return false
	})
	local := &fakeSynth{name: "espeak", clip: wavClip()}
	network := &fakeSynth{name: "gtts", clip: mp3Clip()}
	e := New(WithNetwork(network), WithLocal(local), WithProber(prober, time.Second))

	if _, err := e.Narrate(context.Background(), "hi", "Calm"); err != nil {
		t.Fatal(err)
	}
	if !deadline {
		t.Error("probe context should carry a deadline")
	}
	if network.calls() != 0 {
		t.Error("network should not be tried when unreachable")
	}
}

func TestTCPProber(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			_ = conn.Close()
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if !(TCPProber{Address: ln.Addr().String()}).Reachable(ctx) {
		t.Error("listening address should be reachable")
	}

	addr := ln.Addr().String()
	_ = ln.Close()
	if (TCPProber{Address: addr}).Reachable(ctx) {
		t.Error("closed address should not be reachable")
	}
}

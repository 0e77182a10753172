package audio

import (
	"context"
	"encoding/binary"
	"errors"
	"testing"
	"time"
)

func rawSamples(samples ...int16) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(s))
	}
	return out
}

func TestWAVRoundTrip(t *testing.T) {
	raw := rawSamples(0, 1000, -1000, 32767, -32768)
	wav := EncodeWAV(raw, 22050, 1)

	if DetectFormat(wav) != FormatWAV {
		t.Fatal("encoded data should be detected as WAV")
	}

	pcm, err := DecodeWAV(wav)
	if err != nil {
		t.Fatalf("DecodeWAV failed: %v", err)
	}
	if pcm.SampleRate != 22050 {
		t.Errorf("SampleRate = %d", pcm.SampleRate)
	}
	want := []int16{0, 1000, -1000, 32767, -32768}
	if len(pcm.Samples) != len(want) {
		t.Fatalf("got %d samples, want %d", len(pcm.Samples), len(want))
	}
	for i := range want {
		if pcm.Samples[i] != want[i] {
			t.Errorf("sample %d = %d, want %d", i, pcm.Samples[i], want[i])
		}
	}
}

func TestDecodeWAVStereoMixdown(t *testing.T) {
	wav := EncodeWAV(rawSamples(100, 300, -200, -400), 44100, 2)
	pcm, err := DecodeWAV(wav)
	if err != nil {
		t.Fatal(err)
	}
	if len(pcm.Samples) != 2 || pcm.Samples[0] != 200 || pcm.Samples[1] != -300 {
		t.Errorf("mixdown = %v", pcm.Samples)
	}
}

func TestDecodeWAVStreamedSizes(t *testing.T) {
	// espeak writes placeholder sizes when its output is a pipe.
	wav := EncodeWAV(rawSamples(1, 2, 3, 4), 22050, 1)
	binary.LittleEndian.PutUint32(wav[4:], 0x7ffff000)
	binary.LittleEndian.PutUint32(wav[40:], 0x7ffff000)

	pcm, err := DecodeWAV(wav)
	if err != nil {
		t.Fatalf("DecodeWAV failed: %v", err)
	}
	if len(pcm.Samples) != 4 {
		t.Errorf("got %d samples, want 4", len(pcm.Samples))
	}
}

func TestDecodeWAVErrors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"not wav", []byte("ID3 this is an mp3")},
		{"no data chunk", EncodeWAV(nil, 22050, 1)[:36]},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := DecodeWAV(tt.data); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestDecodeEmptyClip(t *testing.T) {
	if _, err := Decode(Clip{}); err == nil {
		t.Error("expected error for empty clip")
	}
	if _, err := Decode(Clip{Data: []byte{1}, Format: "ogg"}); err == nil {
		t.Error("expected error for unsupported format")
	}
}

func TestResample(t *testing.T) {
	pcm := PCM{Samples: []int16{0, 100, 200, 300}, SampleRate: 22050}

	up := pcm.Resample(44100)
	if up.SampleRate != 44100 || len(up.Samples) != 8 {
		t.Fatalf("upsampled to %d samples at %d Hz", len(up.Samples), up.SampleRate)
	}
	if up.Samples[1] != 50 {
		t.Errorf("interpolated sample = %d, want 50", up.Samples[1])
	}
	if up.Duration() != pcm.Duration() {
		t.Errorf("duration changed: %v -> %v", pcm.Duration(), up.Duration())
	}

	same := pcm.Resample(22050)
	if len(same.Samples) != 4 {
		t.Error("same-rate resample should be a no-op")
	}
}

func TestPCMBytes(t *testing.T) {
	pcm := PCM{Samples: []int16{1, -1}, SampleRate: 8000}
	got := pcm.Bytes()
	want := []byte{0x01, 0x00, 0xff, 0xff}
	if string(got) != string(want) {
		t.Errorf("Bytes() = %v, want %v", got, want)
	}
}

func TestClipHelpers(t *testing.T) {
	wav := Clip{Data: EncodeWAV(rawSamples(make([]int16, 22050)...), 22050, 1), Format: FormatWAV}
	if wav.Ext() != ".wav" || wav.MIMEType() != "audio/wav" {
		t.Errorf("wav helpers: %s %s", wav.Ext(), wav.MIMEType())
	}
	if d := wav.Duration(); d != time.Second {
		t.Errorf("Duration() = %v, want 1s", d)
	}
	mp3 := Clip{Data: []byte("ID3"), Format: FormatMP3}
	if mp3.Ext() != ".mp3" || mp3.MIMEType() != "audio/mpeg" {
		t.Errorf("mp3 helpers: %s %s", mp3.Ext(), mp3.MIMEType())
	}
	if DetectFormat([]byte("ID3")) != FormatMP3 {
		t.Error("unknown data should default to mp3")
	}
}

func TestMockPlayer(t *testing.T) {
	m := NewMockPlayer()
	clip := Clip{Data: []byte{1, 2}, Format: FormatWAV}

	if err := m.Play(context.Background(), clip); err != nil {
		t.Fatal(err)
	}
	if len(m.Played()) != 1 {
		t.Errorf("Played() = %d clips", len(m.Played()))
	}
	if err := m.Play(context.Background(), Clip{}); err == nil {
		t.Error("empty clip should fail")
	}

	m.Err = errors.New("device busy")
	if err := m.Play(context.Background(), clip); err == nil {
		t.Error("expected configured error")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	m.Err = nil
	if err := m.Play(ctx, clip); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}

	_ = m.Stop()
	if m.Stops() != 1 {
		t.Errorf("Stops() = %d", m.Stops())
	}
}

func TestNewOtoPlayerValidatesRate(t *testing.T) {
	if _, err := NewOtoPlayer(PlayerConfig{SampleRate: 22050}); err == nil {
		t.Error("expected error for unsupported sample rate")
	}
	if _, err := NewOtoPlayer(DefaultPlayerConfig()); err != nil {
		t.Errorf("default config rejected: %v", err)
	}
}

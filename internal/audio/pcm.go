package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/hajimehoshi/go-mp3"
)

// PCM is 16-bit signed mono audio.
type PCM struct {
	Samples    []int16
	SampleRate int
}

// Duration returns the playback length.
func (p PCM) Duration() time.Duration {
	if p.SampleRate <= 0 {
		return 0
	}
	return time.Duration(len(p.Samples)) * time.Second / time.Duration(p.SampleRate)
}

// Bytes returns the samples as little-endian bytes.
func (p PCM) Bytes() []byte {
	out := make([]byte, len(p.Samples)*2)
	for i, s := range p.Samples {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(s))
	}
	return out
}

// Resample converts to rate with linear interpolation.
func (p PCM) Resample(rate int) PCM {
	if rate <= 0 || p.SampleRate <= 0 || rate == p.SampleRate {
		return p
	}
	if len(p.Samples) == 0 {
		return PCM{SampleRate: rate}
	}
	n := int(int64(len(p.Samples)) * int64(rate) / int64(p.SampleRate))
	out := make([]int16, n)
	step := float64(p.SampleRate) / float64(rate)
	last := len(p.Samples) - 1
	for i := range out {
		pos := float64(i) * step
		j := int(pos)
		if j >= last {
			out[i] = p.Samples[last]
			continue
		}
		frac := pos - float64(j)
		a, b := float64(p.Samples[j]), float64(p.Samples[j+1])
		out[i] = int16(a + (b-a)*frac)
	}
	return PCM{Samples: out, SampleRate: rate}
}

// Decode converts a clip to mono PCM.
func Decode(c Clip) (PCM, error) {
	if c.Empty() {
		return PCM{}, errors.New("audio data is empty")
	}
	switch c.Format {
	case FormatWAV:
		return DecodeWAV(c.Data)
	case FormatMP3, "":
		return DecodeMP3(c.Data)
	default:
		return PCM{}, fmt.Errorf("unsupported audio format %q", c.Format)
	}
}

// DecodeMP3 decodes MP3 data. go-mp3 always yields interleaved stereo,
// which is mixed down to mono.
func DecodeMP3(data []byte) (PCM, error) {
	d, err := mp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return PCM{}, fmt.Errorf("unable to decode mp3: %w", err)
	}
	raw, err := io.ReadAll(d)
	if err != nil {
		return PCM{}, fmt.Errorf("unable to decode mp3: %w", err)
	}
	return PCM{Samples: mixDown(raw, 2), SampleRate: d.SampleRate()}, nil
}

// DecodeWAV decodes a 16-bit PCM WAV file. Streamed WAVs (as written by
// espeak on stdout) carry placeholder sizes, so the data chunk is clamped
// to what is actually present.
func DecodeWAV(data []byte) (PCM, error) {
	if DetectFormat(data) != FormatWAV {
		return PCM{}, errors.New("not a RIFF/WAVE file")
	}

	var (
		channels, bits uint16
		rate           uint32
		haveFmt        bool
	)
	pos := 12
	for pos+8 <= len(data) {
		id := string(data[pos : pos+4])
		size := int(binary.LittleEndian.Uint32(data[pos+4 : pos+8]))
		body := pos + 8
		if size < 0 || body+size > len(data) {
			size = len(data) - body
		}

		switch id {
		case "fmt ":
			if size < 16 {
				return PCM{}, errors.New("wav fmt chunk too short")
			}
			if format := binary.LittleEndian.Uint16(data[body:]); format != 1 {
				return PCM{}, fmt.Errorf("unsupported wav encoding %d", format)
			}
			channels = binary.LittleEndian.Uint16(data[body+2:])
			rate = binary.LittleEndian.Uint32(data[body+4:])
			bits = binary.LittleEndian.Uint16(data[body+14:])
			haveFmt = true
		case "data":
			if !haveFmt {
				return PCM{}, errors.New("wav data chunk before fmt chunk")
			}
			if bits != 16 {
				return PCM{}, fmt.Errorf("unsupported wav bit depth %d", bits)
			}
			if channels == 0 {
				return PCM{}, errors.New("wav has no channels")
			}
			return PCM{Samples: mixDown(data[body:body+size], int(channels)), SampleRate: int(rate)}, nil
		}

		pos = body + size + size%2
	}
	return PCM{}, errors.New("wav has no data chunk")
}

// EncodeWAV wraps raw 16-bit little-endian PCM in a WAV header.
func EncodeWAV(raw []byte, sampleRate, channels int) []byte {
	var b bytes.Buffer
	b.Grow(44 + len(raw))
	put := func(v any) { _ = binary.Write(&b, binary.LittleEndian, v) }

	b.WriteString("RIFF")
	put(uint32(36 + len(raw)))
	b.WriteString("WAVE")
	b.WriteString("fmt ")
	put(uint32(16))
	put(uint16(1)) // PCM
	put(uint16(channels))
	put(uint32(sampleRate))
	put(uint32(sampleRate * channels * 2))
	put(uint16(channels * 2))
	put(uint16(16))
	b.WriteString("data")
	put(uint32(len(raw)))
	b.Write(raw)
	return b.Bytes()
}

// mixDown averages interleaved 16-bit frames into mono samples.
func mixDown(raw []byte, channels int) []int16 {
	frame := channels * 2
	n := len(raw) / frame
	out := make([]int16, n)
	for i := 0; i < n; i++ {
		var sum int32
		for c := 0; c < channels; c++ {
			off := i*frame + c*2
			sum += int32(int16(binary.LittleEndian.Uint16(raw[off:])))
		}
		out[i] = int16(sum / int32(channels))
	}
	return out
}

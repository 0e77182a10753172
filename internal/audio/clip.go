package audio

import (
	"bytes"
	"time"
)

// Format identifies the container of a clip.
type Format string

const (
	FormatMP3 Format = "mp3"
	FormatWAV Format = "wav"
)

// Source records which path produced a clip.
type Source string

const (
	SourceNetwork Source = "network"
	SourceLocal   Source = "local"
	SourceCache   Source = "cache"
)

// Clip is a narration payload ready for playback or storage.
type Clip struct {
	Data   []byte
	Format Format
	Source Source
}

// Empty reports whether the clip carries no audio.
func (c Clip) Empty() bool {
	return len(c.Data) == 0
}

// Ext returns the file extension for the clip, including the dot.
func (c Clip) Ext() string {
	switch c.Format {
	case FormatWAV:
		return ".wav"
	default:
		return ".mp3"
	}
}

// MIMEType returns the media type of the clip.
func (c Clip) MIMEType() string {
	switch c.Format {
	case FormatWAV:
		return "audio/wav"
	default:
		return "audio/mpeg"
	}
}

// Duration estimates the playback length by decoding the clip. It returns
// zero if the clip cannot be decoded.
func (c Clip) Duration() time.Duration {
	pcm, err := Decode(c)
	if err != nil {
		return 0
	}
	return pcm.Duration()
}

// DetectFormat sniffs the container from the leading bytes. Unknown data
// is reported as MP3, the format of the network synthesizer.
func DetectFormat(data []byte) Format {
	if len(data) >= 12 && bytes.Equal(data[0:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WAVE")) {
		return FormatWAV
	}
	return FormatMP3
}

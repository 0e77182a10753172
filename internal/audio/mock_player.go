package audio

import (
	"context"
	"errors"
	"sync"
)

// MockPlayer implements Player for tests. It records clips instead of
// producing sound.
type MockPlayer struct {
	mu     sync.Mutex
	played []Clip
	stops  int

	// Err, when set, is returned from Play.
	Err error
}

// NewMockPlayer creates a mock player.
func NewMockPlayer() *MockPlayer {
	return &MockPlayer{}
}

// Play records the clip.
func (m *MockPlayer) Play(ctx context.Context, clip Clip) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if clip.Empty() {
		return errors.New("audio data is empty")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.played = append(m.played, clip)
	return nil
}

// Stop counts stop requests.
func (m *MockPlayer) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stops++
	return nil
}

// Played returns the clips played so far.
func (m *MockPlayer) Played() []Clip {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Clip(nil), m.played...)
}

// Stops returns how many times Stop was called.
func (m *MockPlayer) Stops() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stops
}

var _ Player = (*MockPlayer)(nil)

package main

import (
	"sync"

	"github.com/gopxl/beep"
)

// ManualBackend is a headless output. Nothing is rendered until Pull is
// called, which makes it the backend for tests and offline bounces.
type ManualBackend struct {
	// OpenErr, when set, is returned by Open to simulate a missing device.
	OpenErr error
	// ResumeErr, when set, is returned by Resume to simulate a platform that
	// refuses playback before a user gesture.
	ResumeErr error

	mu      sync.Mutex
	src     beep.Streamer
	opens   int
	running bool
}

func (b *ManualBackend) Open(sr beep.SampleRate, src beep.Streamer) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.OpenErr != nil {
		return b.OpenErr
	}
	b.src = src
	b.opens++
	return nil
}

func (b *ManualBackend) Resume() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.ResumeErr != nil {
		return b.ResumeErr
	}
	b.running = true
	return nil
}

func (b *ManualBackend) Suspend() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.running = false
	return nil
}

func (b *ManualBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.src = nil
	b.running = false
	return nil
}

// Opens returns how many times the device was allocated.
func (b *ManualBackend) Opens() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.opens
}

// Pull renders frames from the destination and returns them. Before Open it
// returns silence.
func (b *ManualBackend) Pull(frames int) [][2]float64 {
	b.mu.Lock()
	src := b.src
	b.mu.Unlock()

	out := make([][2]float64, frames)
	if src == nil {
		return out
	}

	buf := out
	for len(buf) > 0 {
		n, ok := src.Stream(buf)
		if !ok || n == 0 {
			break
		}
		buf = buf[n:]
	}
	return out
}

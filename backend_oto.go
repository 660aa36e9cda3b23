package main

import (
	"encoding/binary"
	"math"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
	"github.com/gopxl/beep"
)

// otoBackend drives an oto player directly, converting the destination's
// frames to interleaved float32.
type otoBackend struct {
	bufferSize time.Duration

	mu     sync.Mutex
	ctx    *oto.Context
	player *oto.Player
	src    beep.Streamer
	buf    [][2]float64
}

func NewOtoBackend(bufferSize time.Duration) Backend {
	return &otoBackend{bufferSize: bufferSize}
}

func (b *otoBackend) Open(sr beep.SampleRate, src beep.Streamer) error {
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   int(sr),
		ChannelCount: 2,
		Format:       oto.FormatFloat32LE,
		BufferSize:   b.bufferSize,
	})
	if err != nil {
		return err
	}
	<-ready

	b.mu.Lock()
	b.ctx = ctx
	b.src = src
	b.mu.Unlock()

	b.player = ctx.NewPlayer(b)
	b.player.Play()
	return ctx.Suspend()
}

// Read implements io.Reader for oto.Player.
func (b *otoBackend) Read(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	frames := len(p) / 8
	if len(b.buf) < frames {
		b.buf = make([][2]float64, frames)
	}
	samples := b.buf[:frames]

	n, _ := b.src.Stream(samples)
	for i := n; i < frames; i++ {
		samples[i] = [2]float64{}
	}

	for i, s := range samples {
		binary.LittleEndian.PutUint32(p[8*i:], math.Float32bits(float32(s[0])))
		binary.LittleEndian.PutUint32(p[8*i+4:], math.Float32bits(float32(s[1])))
	}
	return frames * 8, nil
}

func (b *otoBackend) Resume() error {
	return b.ctx.Resume()
}

func (b *otoBackend) Suspend() error {
	return b.ctx.Suspend()
}

func (b *otoBackend) Close() error {
	if b.player == nil {
		return nil
	}
	err := b.player.Close()
	b.player = nil
	return err
}

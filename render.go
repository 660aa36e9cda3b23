package main

import (
	"io"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/wav"

	"github.com/whyrusleeping/drumloop/config"
)

// time left after the last step for the final voices to ring out
const bounceTail = 500 * time.Millisecond

// Bounce renders the loop offline. Unlike live playback, steps land on exact
// frame boundaries, so there is no timer drift.
type Bounce struct {
	ctx  *Context
	seq  *Sequencer
	dest beep.Streamer

	stepFrames int
	steps      int
	played     int
	pos        int
	end        int
}

func NewBounce(cfg *config.Config, bars int, opts ...SequencerOption) (*Bounce, error) {
	ctxOpts := []ContextOption{WithSampleRate(cfg.SampleRate)}
	if cfg.Seed != 0 {
		ctxOpts = append(ctxOpts, WithSeed(cfg.Seed))
	}
	ctx := NewContext(&ManualBackend{}, ctxOpts...)
	if err := ctx.Resume(); err != nil {
		return nil, err
	}

	seq := NewSequencer(NewSynth(ctx), append([]SequencerOption{WithBPM(cfg.BPM)}, opts...)...)
	sr := ctx.SampleRate()
	stepFrames := sr.N(seq.Interval())
	steps := bars * Steps

	return &Bounce{
		ctx:        ctx,
		seq:        seq,
		dest:       destination{ctx},
		stepFrames: stepFrames,
		steps:      steps,
		end:        steps*stepFrames + sr.N(bounceTail),
	}, nil
}

// StepFrames is the number of frames between steps.
func (b *Bounce) StepFrames() int {
	return b.stepFrames
}

// Len is the total number of frames the bounce produces.
func (b *Bounce) Len() int {
	return b.end
}

func (b *Bounce) Stream(samples [][2]float64) (int, bool) {
	if b.pos >= b.end {
		return 0, false
	}

	n := 0
	for n < len(samples) && b.pos < b.end {
		if b.played < b.steps && b.pos == b.played*b.stepFrames {
			b.seq.tick()
			b.played++
		}

		chunk := min(len(samples)-n, b.end-b.pos)
		if b.played < b.steps {
			chunk = min(chunk, b.played*b.stepFrames-b.pos)
		}

		b.dest.Stream(samples[n : n+chunk])
		n += chunk
		b.pos += chunk
	}
	return n, true
}

func (b *Bounce) Err() error {
	return nil
}

// RenderWAV writes bars of the loop to w as 16 bit stereo.
func RenderWAV(w io.WriteSeeker, cfg *config.Config, bars int) error {
	b, err := NewBounce(cfg, bars)
	if err != nil {
		return err
	}

	return wav.Encode(w, b, beep.Format{
		SampleRate:  beep.SampleRate(cfg.SampleRate),
		NumChannels: 2,
		Precision:   2,
	})
}

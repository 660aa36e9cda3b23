package main

import (
	"fmt"
	"time"

	"github.com/whyrusleeping/drumloop/config"
)

// Engine is everything a front end needs: it owns the audio context, the
// drum synth and the sequencer playing it.
type Engine struct {
	ctx   *Context
	synth *Synth
	seq   *Sequencer
}

func NewEngine(ctx *Context, opts ...SequencerOption) *Engine {
	synth := NewSynth(ctx)
	return &Engine{
		ctx:   ctx,
		synth: synth,
		seq:   NewSequencer(synth, opts...),
	}
}

// NewBackend returns the output backend cfg names.
func NewBackend(cfg *config.Config) (Backend, error) {
	buf := time.Duration(cfg.BufferMillis) * time.Millisecond
	switch cfg.Backend {
	case config.BackendSpeaker, "":
		return NewSpeakerBackend(buf), nil
	case config.BackendOto:
		return NewOtoBackend(buf), nil
	case config.BackendManual:
		return &ManualBackend{}, nil
	default:
		return nil, fmt.Errorf("unknown audio backend %q", cfg.Backend)
	}
}

// EngineFromConfig wires an engine for cfg. The output device is not opened
// until the first EnsureAudio or trigger.
func EngineFromConfig(cfg *config.Config, ctxOpts ...ContextOption) (*Engine, error) {
	backend, err := NewBackend(cfg)
	if err != nil {
		return nil, err
	}

	opts := []ContextOption{WithSampleRate(cfg.SampleRate)}
	if cfg.Seed != 0 {
		opts = append(opts, WithSeed(cfg.Seed))
	}
	ctx := NewContext(backend, append(opts, ctxOpts...)...)

	return NewEngine(ctx, WithBPM(cfg.BPM)), nil
}

// EnsureAudio resumes output if it is suspended. It may be called on every
// user gesture; the only error is the output device failing to open.
func (e *Engine) EnsureAudio() error {
	return e.ctx.Resume()
}

// StartLoop starts the beat from the top of the bar.
func (e *Engine) StartLoop() {
	e.seq.Start()
}

// StopLoop halts the beat.
func (e *Engine) StopLoop() {
	e.seq.Stop()
}

// ToggleLoop flips between playing and stopped and reports the new state.
func (e *Engine) ToggleLoop() bool {
	if e.seq.Playing() {
		e.seq.Stop()
		return false
	}
	e.seq.Start()
	return true
}

func (e *Engine) Context() *Context     { return e.ctx }
func (e *Engine) Synth() *Synth         { return e.synth }
func (e *Engine) Sequencer() *Sequencer { return e.seq }

// Close stops the loop and releases the output device.
func (e *Engine) Close() error {
	e.seq.Stop()
	return e.ctx.Close()
}

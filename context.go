package main

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/gopxl/beep"

	"github.com/whyrusleeping/drumloop/debug"
)

// ErrClosed is returned when scheduling on a context after Close.
var ErrClosed = errors.New("audio context closed")

// State is the lifecycle of a Context.
type State int

const (
	Uninitialized State = iota
	Suspended
	Running
	Closed
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Suspended:
		return "suspended"
	case Running:
		return "running"
	case Closed:
		return "closed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Backend is the platform audio output. Open allocates the device and starts
// pulling src, leaving output suspended. Resume may fail when the platform
// will not start playback yet; the context treats that as "ask again later".
type Backend interface {
	Open(sr beep.SampleRate, src beep.Streamer) error
	Resume() error
	Suspend() error
	Close() error
}

// Context owns the output graph: a mixer that every trigger connects into,
// and the frame clock that triggers are timed against. The device is not
// touched until the first Open, Resume or Schedule.
type Context struct {
	backend Backend
	sr      beep.SampleRate

	openMu sync.Mutex

	mu     sync.Mutex
	state  State
	mixer  beep.Mixer
	frames int64
	rng    *rand.Rand
	tap    *Analyser
}

type ContextOption func(*Context)

func WithSampleRate(sr int) ContextOption {
	return func(c *Context) { c.sr = beep.SampleRate(sr) }
}

// WithSeed makes the noise sources repeatable.
func WithSeed(seed uint64) ContextOption {
	return func(c *Context) { c.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)) }
}

// WithAnalyser keeps the last frames rendered so they can be inspected.
func WithAnalyser(frames int) ContextOption {
	return func(c *Context) { c.tap = NewAnalyser(frames) }
}

func NewContext(backend Backend, opts ...ContextOption) *Context {
	c := &Context{
		backend: backend,
		sr:      44100,
	}
	for _, o := range opts {
		o(c)
	}
	if c.rng == nil {
		WithSeed(uint64(time.Now().UnixNano()))(c)
	}
	return c
}

// Open allocates the output device on the first call. A failure is returned
// as is and the next call tries again; once open, further calls do nothing.
func (c *Context) Open() error {
	c.openMu.Lock()
	defer c.openMu.Unlock()

	switch c.State() {
	case Closed:
		return ErrClosed
	case Uninitialized:
	default:
		return nil
	}

	// the backend may pull from the destination while opening, so c.mu
	// must not be held here
	if err := c.backend.Open(c.sr, destination{c}); err != nil {
		return fmt.Errorf("opening audio output: %w", err)
	}

	c.setState(Suspended)
	debug.Log("audio", "output opened at %d Hz", c.sr)
	return nil
}

// Resume opens the context if needed and asks the backend to start
// playback. Only a failure to open is returned; a refused resume is logged
// and left for the next call.
func (c *Context) Resume() error {
	if err := c.Open(); err != nil {
		return err
	}

	c.openMu.Lock()
	defer c.openMu.Unlock()

	if c.State() != Suspended {
		return nil
	}

	if err := c.backend.Resume(); err != nil {
		debug.Log("audio", "resume deferred: %v", err)
		return nil
	}

	c.setState(Running)
	debug.Log("audio", "resumed")
	return nil
}

// Suspend pauses output. The clock stops with it.
func (c *Context) Suspend() error {
	c.openMu.Lock()
	defer c.openMu.Unlock()

	if c.State() != Running {
		return nil
	}
	if err := c.backend.Suspend(); err != nil {
		return fmt.Errorf("suspending audio output: %w", err)
	}

	c.setState(Suspended)
	return nil
}

// Close releases the device. The context cannot be reopened.
func (c *Context) Close() error {
	c.openMu.Lock()
	defer c.openMu.Unlock()

	prev := c.State()
	c.setState(Closed)
	if prev == Uninitialized || prev == Closed {
		return nil
	}
	return c.backend.Close()
}

func (c *Context) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Context) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

func (c *Context) SampleRate() beep.SampleRate {
	return c.sr
}

// Now returns the context time in seconds: how much audio the destination
// has rendered so far.
func (c *Context) Now() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return float64(c.frames) / float64(c.sr)
}

// Analyser returns the destination tap, or nil if none was configured.
func (c *Context) Analyser() *Analyser {
	return c.tap
}

// Active returns how many scheduled sources are still sounding.
func (c *Context) Active() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mixer.Len()
}

// Schedule builds the streamers for one trigger and connects them to the
// destination. build runs with the context locked, so the graph's Now is
// exactly the time of the next rendered frame.
func (c *Context) Schedule(build func(g *Graph) []beep.Streamer) error {
	if err := c.Open(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == Closed {
		return ErrClosed
	}

	g := &Graph{
		Now:        float64(c.frames) / float64(c.sr),
		SampleRate: c.sr,
		rng:        c.rng,
	}
	c.mixer.Add(build(g)...)
	return nil
}

// destination is what the backend pulls from.
type destination struct {
	c *Context
}

func (d destination) Stream(samples [][2]float64) (int, bool) {
	c := d.c
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != Running {
		for i := range samples {
			samples[i] = [2]float64{}
		}
		return len(samples), true
	}

	n, _ := c.mixer.Stream(samples)
	c.frames += int64(n)
	if c.tap != nil {
		c.tap.record(samples[:n])
	}
	return n, true
}

func (d destination) Err() error {
	return nil
}

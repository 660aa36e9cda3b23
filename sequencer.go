package main

import (
	"sync"
	"time"

	"github.com/whyrusleeping/drumloop/debug"
)

const (
	DefaultBPM = 116

	// base level every voice is scaled from
	stepVolume = 0.4
)

// Ticker is a cancellable periodic timer.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type timeTicker struct {
	t *time.Ticker
}

func (t timeTicker) C() <-chan time.Time { return t.t.C }
func (t timeTicker) Stop()               { t.t.Stop() }

func newTimeTicker(d time.Duration) Ticker {
	return timeTicker{time.NewTicker(d)}
}

// StepInterval is the length of one sixteenth note at bpm.
func StepInterval(bpm int) time.Duration {
	return (4 * time.Minute) / (time.Duration(bpm) * 16)
}

// Sequencer walks the pattern one step per timer tick and plays the kit.
type Sequencer struct {
	kit       Kit
	pattern   Pattern
	interval  time.Duration
	newTicker func(time.Duration) Ticker
	steps     chan int

	// runMu serializes Start and Stop; mu guards the playback state
	runMu   sync.Mutex
	mu      sync.Mutex
	step    int
	playing bool
	ticker  Ticker
	done    chan struct{}
	exited  chan struct{}
}

type SequencerOption func(*Sequencer)

func WithBPM(bpm int) SequencerOption {
	return func(s *Sequencer) { s.interval = StepInterval(bpm) }
}

func WithPattern(p Pattern) SequencerOption {
	return func(s *Sequencer) { s.pattern = p }
}

// WithTicker replaces the wall clock timer.
func WithTicker(f func(time.Duration) Ticker) SequencerOption {
	return func(s *Sequencer) { s.newTicker = f }
}

func NewSequencer(kit Kit, opts ...SequencerOption) *Sequencer {
	s := &Sequencer{
		kit:       kit,
		pattern:   DefaultPattern,
		interval:  StepInterval(DefaultBPM),
		newTicker: newTimeTicker,
		steps:     make(chan int, 1),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Start plays from step 0. Step 0 sounds immediately, the rest follow one
// interval apart. Calling Start while playing does nothing.
func (s *Sequencer) Start() {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.playing {
		return
	}

	s.playing = true
	s.step = 0
	s.ticker = s.newTicker(s.interval)
	s.done = make(chan struct{})
	s.exited = make(chan struct{})

	go s.run(s.ticker, s.done, s.exited)
	debug.Log("seq", "start, step interval %s", s.interval)
}

// Stop halts stepping. When it returns no further step will be played;
// voices already triggered ring out. The step position is kept until the
// next Start.
func (s *Sequencer) Stop() {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	s.mu.Lock()
	if !s.playing {
		s.mu.Unlock()
		return
	}
	s.playing = false
	ticker, done, exited := s.ticker, s.done, s.exited
	s.ticker = nil
	s.mu.Unlock()

	ticker.Stop()
	close(done)
	<-exited
	debug.Log("seq", "stop at step %d", s.Step())
}

func (s *Sequencer) run(t Ticker, done, exited chan struct{}) {
	defer close(exited)

	s.tick()
	for {
		select {
		case <-done:
			return
		case <-t.C():
			s.tick()
		}
	}
}

// tick plays the current step and advances.
func (s *Sequencer) tick() {
	s.mu.Lock()
	step := s.step
	s.step = (s.step + 1) % Steps
	s.mu.Unlock()

	s.playStep(step)

	select {
	case s.steps <- step:
	default:
	}
}

// playStep triggers every voice set on step. The open hat replaces the
// closed one when both are set.
func (s *Sequencer) playStep(step int) {
	p := &s.pattern
	var err error
	note := func(e error) {
		if e != nil && err == nil {
			err = e
		}
	}

	if p.Active(KickVoice, step) {
		note(s.kit.Kick(KickVolume(stepVolume), KickPitch(150), KickDecay(0.22), KickPunch(0.7)))
	}

	if p.Active(OpenHiHatVoice, step) {
		note(s.kit.HiHat(HiHatVolume(stepVolume*0.5), HiHatOpen(true)))
	} else if p.Active(HiHatVoice, step) {
		note(s.kit.HiHat(HiHatVolume(stepVolume * 0.4)))
	}

	if p.Active(SnapVoice, step) {
		note(s.kit.Snap(SnapVolume(stepVolume * 0.5)))
	}

	if err != nil {
		debug.LogEvery(Steps, "seq", "step %d: %v", step, err)
	}
}

// Step returns the step the next tick will play.
func (s *Sequencer) Step() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.step
}

func (s *Sequencer) Playing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playing
}

func (s *Sequencer) Interval() time.Duration {
	return s.interval
}

func (s *Sequencer) Pattern() Pattern {
	return s.pattern
}

// Steps delivers the index of each step as it is played. Steps are dropped
// if nobody is reading.
func (s *Sequencer) Steps() <-chan int {
	return s.steps
}

package main

import (
	"math"

	"github.com/gopxl/beep"
)

// envelope floor; exponential ramps can't reach zero
const silence = 0.001

const (
	kickFloorHz    = 35
	closedHatDecay = 0.04
	openHatDecay   = 0.18
	snapLength     = 0.06
	hatCutoff      = 8000
	snapCenter     = 5000
	snapQ          = 2
)

type KickParams struct {
	Volume float64
	Pitch  float64 // Hz at the attack
	Decay  float64 // seconds
	Punch  float64 // click level, 0 disables the click
}

type HiHatParams struct {
	Volume float64
	Open   bool
}

type SnapParams struct {
	Volume float64
}

func DefaultKick() KickParams   { return KickParams{Volume: 0.7, Pitch: 160, Decay: 0.25, Punch: 0.8} }
func DefaultHiHat() HiHatParams { return HiHatParams{Volume: 0.25} }
func DefaultSnap() SnapParams   { return SnapParams{Volume: 0.2} }

type KickOption func(*KickParams)

func KickVolume(v float64) KickOption { return func(p *KickParams) { p.Volume = v } }
func KickPitch(hz float64) KickOption { return func(p *KickParams) { p.Pitch = hz } }
func KickDecay(s float64) KickOption  { return func(p *KickParams) { p.Decay = s } }
func KickPunch(v float64) KickOption  { return func(p *KickParams) { p.Punch = v } }

type HiHatOption func(*HiHatParams)

func HiHatVolume(v float64) HiHatOption { return func(p *HiHatParams) { p.Volume = v } }
func HiHatOpen(open bool) HiHatOption   { return func(p *HiHatParams) { p.Open = open } }

type SnapOption func(*SnapParams)

func SnapVolume(v float64) SnapOption { return func(p *SnapParams) { p.Volume = v } }

// Decay is how long the hat rings.
func (p HiHatParams) Decay() float64 {
	if p.Open {
		return openHatDecay
	}
	return closedHatDecay
}

// Kit is what the sequencer plays.
type Kit interface {
	Kick(opts ...KickOption) error
	HiHat(opts ...HiHatOption) error
	Snap(opts ...SnapOption) error
}

// Synth renders the drum voices into a Context. Every call builds a fresh
// graph, schedules it at the context's current time and returns without
// waiting for it to sound.
type Synth struct {
	ctx *Context
}

func NewSynth(ctx *Context) *Synth {
	return &Synth{ctx: ctx}
}

func (s *Synth) Kick(opts ...KickOption) error {
	p := DefaultKick()
	for _, o := range opts {
		o(&p)
	}
	return s.ctx.Schedule(func(g *Graph) []beep.Streamer {
		return kickGraph(g, p)
	})
}

func (s *Synth) HiHat(opts ...HiHatOption) error {
	p := DefaultHiHat()
	for _, o := range opts {
		o(&p)
	}
	return s.ctx.Schedule(func(g *Graph) []beep.Streamer {
		return []beep.Streamer{hatGraph(g, p)}
	})
}

func (s *Synth) Snap(opts ...SnapOption) error {
	p := DefaultSnap()
	for _, o := range opts {
		o(&p)
	}
	return s.ctx.Schedule(func(g *Graph) []beep.Streamer {
		return []beep.Streamer{snapGraph(g, p)}
	})
}

// kickGraph is a sine dropping from Pitch to 35 Hz for the body, with an
// optional short square click on top for the attack.
func kickGraph(g *Graph, p KickParams) []beep.Streamer {
	now := g.Now

	osc := g.NewOscillator(Sine)
	osc.Frequency.SetValueAtTime(p.Pitch, now)
	osc.Frequency.ExponentialRampToValueAtTime(kickFloorHz, now+p.Decay*0.7)
	osc.Start(now)
	osc.Stop(now + p.Decay + 0.05)

	body := g.NewGain(osc)
	body.Gain.SetValueAtTime(p.Volume, now)
	body.Gain.ExponentialRampToValueAtTime(silence, now+p.Decay)

	out := []beep.Streamer{body}
	if p.Punch <= 0 {
		return out
	}

	click := g.NewOscillator(Square)
	click.Frequency.SetValueAtTime(600, now)
	click.Frequency.ExponentialRampToValueAtTime(40, now+0.02)
	click.Start(now)
	click.Stop(now + 0.04)

	clickGain := g.NewGain(click)
	clickGain.Gain.SetValueAtTime(p.Punch*p.Volume*0.35, now)
	clickGain.Gain.ExponentialRampToValueAtTime(silence, now+0.03)

	return append(out, clickGain)
}

func linearTaper(i, n int) float64 {
	return 1 - float64(i)/float64(n)
}

func cubicTaper(i, n int) float64 {
	return math.Pow(1-float64(i)/float64(n), 3)
}

// hatGraph is a tapered noise burst through a highpass. Open only makes the
// burst longer.
func hatGraph(g *Graph, p HiHatParams) beep.Streamer {
	now := g.Now
	decay := p.Decay()

	noise := g.NewBufferSource(g.NoiseBuffer(g.Frames(decay), linearTaper))
	noise.Start(now)

	filter := g.NewBiquad(noise, Highpass, hatCutoff)

	gain := g.NewGain(filter)
	gain.Gain.SetValueAtTime(p.Volume, now)
	gain.Gain.ExponentialRampToValueAtTime(silence, now+decay)
	return gain
}

// snapGraph is a short noise burst with a cubic taper for a sharper front,
// band passed around 5 kHz.
func snapGraph(g *Graph, p SnapParams) beep.Streamer {
	now := g.Now

	noise := g.NewBufferSource(g.NoiseBuffer(g.Frames(snapLength), cubicTaper))
	noise.Start(now)

	filter := g.NewBiquad(noise, Bandpass, snapCenter).SetQ(snapQ)

	gain := g.NewGain(filter)
	gain.Gain.SetValueAtTime(p.Volume, now)
	gain.Gain.ExponentialRampToValueAtTime(silence, now+snapLength)
	return gain
}

package main

import (
	"math"
	"math/rand/v2"

	"github.com/gopxl/beep"
)

type OscFunc func(float64) float64

// Waveform selects an oscillator's shape.
type Waveform int

const (
	Sine Waveform = iota
	Square
)

func sineOsc(phase float64) float64 {
	return math.Sin(2 * math.Pi * phase)
}

func squareOsc(phase float64) float64 {
	if sineOsc(phase) >= 0 {
		return 1
	}
	return -1
}

func (w Waveform) osc() OscFunc {
	if w == Square {
		return squareOsc
	}
	return sineOsc
}

// Graph builds the nodes for one trigger. It is handed out by
// Context.Schedule with the context locked, so Now is the time the first
// frame of every node will be rendered at.
type Graph struct {
	Now        float64
	SampleRate beep.SampleRate

	rng *rand.Rand
}

// clock tracks the absolute time of the next frame a node renders.
type clock struct {
	t0  float64
	sr  float64
	pos int
}

func (c *clock) now() float64 {
	return c.t0 + float64(c.pos)/c.sr
}

func (g *Graph) clock() clock {
	return clock{t0: g.Now, sr: float64(g.SampleRate)}
}

// Oscillator is a periodic source with an automatable frequency. It is
// silent before Start and drained at Stop.
type Oscillator struct {
	Frequency *Param

	clock
	wave  OscFunc
	phase float64
	start float64
	stop  float64
}

func (g *Graph) NewOscillator(w Waveform) *Oscillator {
	return &Oscillator{
		Frequency: NewParam(440),
		clock:     g.clock(),
		wave:      w.osc(),
		start:     g.Now,
		stop:      math.Inf(1),
	}
}

func (o *Oscillator) Start(t float64) { o.start = t }
func (o *Oscillator) Stop(t float64)  { o.stop = t }

func (o *Oscillator) Stream(samples [][2]float64) (int, bool) {
	for i := range samples {
		t := o.now()
		if t >= o.stop {
			return drained(samples, i)
		}

		var v float64
		if t >= o.start {
			v = o.wave(o.phase)
			_, o.phase = math.Modf(o.phase + o.Frequency.ValueAt(t)/o.sr)
		}
		samples[i][0] = v
		samples[i][1] = v
		o.pos++
	}
	return len(samples), true
}

func (o *Oscillator) Err() error {
	return nil
}

// NoiseBuffer fills n samples of white noise in [-1, 1], each scaled by
// shape(i, n).
func (g *Graph) NoiseBuffer(n int, shape func(i, n int) float64) []float64 {
	buf := make([]float64, n)
	for i := range buf {
		buf[i] = (g.rng.Float64()*2 - 1) * shape(i, n)
	}
	return buf
}

// Frames returns how many frames d seconds lasts at the graph's rate.
func (g *Graph) Frames(d float64) int {
	return int(math.Round(float64(g.SampleRate) * d))
}

// BufferSource plays a mono buffer once, starting at Start.
type BufferSource struct {
	Buffer []float64

	clock
	start float64
	read  int
}

func (g *Graph) NewBufferSource(buf []float64) *BufferSource {
	return &BufferSource{
		Buffer: buf,
		clock:  g.clock(),
		start:  g.Now,
	}
}

func (b *BufferSource) Start(t float64) { b.start = t }

func (b *BufferSource) Stream(samples [][2]float64) (int, bool) {
	for i := range samples {
		if b.read >= len(b.Buffer) {
			return drained(samples, i)
		}

		var v float64
		if b.now() >= b.start {
			v = b.Buffer[b.read]
			b.read++
		}
		samples[i][0] = v
		samples[i][1] = v
		b.pos++
	}
	return len(samples), true
}

func (b *BufferSource) Err() error {
	return nil
}

// Gain scales its input by an automatable gain.
type Gain struct {
	Gain *Param

	clock
	sub beep.Streamer
}

func (g *Graph) NewGain(src beep.Streamer) *Gain {
	return &Gain{
		Gain:  NewParam(1),
		clock: g.clock(),
		sub:   src,
	}
}

func (g *Gain) Stream(samples [][2]float64) (int, bool) {
	n, ok := g.sub.Stream(samples)
	for i := range samples[:n] {
		v := g.Gain.ValueAt(g.now())
		samples[i][0] *= v
		samples[i][1] *= v
		g.pos++
	}
	return n, ok
}

func (g *Gain) Err() error {
	return g.sub.Err()
}

// drained zeroes the tail of a partially filled buffer. A source that ran
// out on its first frame reports itself finished.
func drained(samples [][2]float64, n int) (int, bool) {
	if n == 0 {
		return 0, false
	}
	for i := n; i < len(samples); i++ {
		samples[i] = [2]float64{}
	}
	return n, true
}

package main

import (
	"math"

	"github.com/gopxl/beep"
)

// FilterType selects the biquad response.
type FilterType int

const (
	Lowpass FilterType = iota
	Highpass
	Bandpass
)

// Biquad is a second order filter using the audio EQ cookbook coefficients.
// For Lowpass and Highpass, Q is a resonance in dB; for Bandpass it is the
// plain quality factor.
type Biquad struct {
	Type      FilterType
	Frequency float64
	Q         float64

	sampleRate     float64
	b0, b1, b2     float64
	a1, a2         float64
	x1, x2, y1, y2 float64

	sub beep.Streamer
}

func (g *Graph) NewBiquad(src beep.Streamer, typ FilterType, freq float64) *Biquad {
	b := &Biquad{
		Type:       typ,
		Frequency:  freq,
		Q:          1,
		sampleRate: float64(g.SampleRate),
		sub:        src,
	}
	b.update()
	return b
}

// SetQ changes the resonance and recomputes coefficients.
func (b *Biquad) SetQ(q float64) *Biquad {
	b.Q = q
	b.update()
	return b
}

func (b *Biquad) update() {
	// Convert cutoff frequency to radians
	w0 := 2 * math.Pi * b.Frequency / b.sampleRate
	cosw := math.Cos(w0)
	sinw := math.Sin(w0)

	var b0, b1, b2, a0, a1, a2 float64
	switch b.Type {
	case Bandpass:
		alpha := sinw / (2 * b.Q)
		b0 = alpha
		b1 = 0
		b2 = -alpha
		a0 = 1 + alpha
		a1 = -2 * cosw
		a2 = 1 - alpha
	case Highpass:
		alpha := sinw / (2 * math.Pow(10, b.Q/20))
		b0 = (1 + cosw) / 2
		b1 = -(1 + cosw)
		b2 = (1 + cosw) / 2
		a0 = 1 + alpha
		a1 = -2 * cosw
		a2 = 1 - alpha
	default:
		alpha := sinw / (2 * math.Pow(10, b.Q/20))
		b0 = (1 - cosw) / 2
		b1 = 1 - cosw
		b2 = (1 - cosw) / 2
		a0 = 1 + alpha
		a1 = -2 * cosw
		a2 = 1 - alpha
	}

	b.b0 = b0 / a0
	b.b1 = b1 / a0
	b.b2 = b2 / a0
	b.a1 = a1 / a0
	b.a2 = a2 / a0
}

// ProcessSample filters one mono sample.
func (b *Biquad) ProcessSample(x float64) float64 {
	y := b.b0*x + b.b1*b.x1 + b.b2*b.x2 - b.a1*b.y1 - b.a2*b.y2

	b.x2, b.x1 = b.x1, x
	b.y2, b.y1 = b.y1, y
	return y
}

func (b *Biquad) Stream(samples [][2]float64) (int, bool) {
	n, ok := b.sub.Stream(samples)
	for i := range samples[:n] {
		y := b.ProcessSample(samples[i][0])
		samples[i][0] = y
		samples[i][1] = y
	}
	return n, ok
}

func (b *Biquad) Err() error {
	return b.sub.Err()
}

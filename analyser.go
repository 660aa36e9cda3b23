package main

import (
	"math/cmplx"
	"sync"

	"github.com/maddyblue/go-dsp/fft"
)

// Analyser keeps the most recent frames written to the destination so the
// front ends can draw a scope and a spectrum.
type Analyser struct {
	lk       sync.Mutex
	buf      [][2]float64
	position int
}

func NewAnalyser(frames int) *Analyser {
	return &Analyser{
		buf: make([][2]float64, frames),
	}
}

func (a *Analyser) record(samples [][2]float64) {
	a.lk.Lock()
	defer a.lk.Unlock()

	for i := range samples {
		a.buf[a.position%len(a.buf)] = samples[i]
		a.position++
	}
}

// Snapshot copies the latest frames, oldest first, into buf and returns how
// many were copied.
func (a *Analyser) Snapshot(buf [][2]float64) int {
	a.lk.Lock()
	defer a.lk.Unlock()

	lim := min(len(buf), len(a.buf))
	start := a.position + len(a.buf) - lim
	for i := 0; i < lim; i++ {
		buf[i] = a.buf[(start+i)%len(a.buf)]
	}

	return lim
}

// Waveform returns the left channel of the latest n frames.
func (a *Analyser) Waveform(n int) []float64 {
	frames := make([][2]float64, n)
	n = a.Snapshot(frames)

	out := make([]float64, n)
	for i := range out {
		out[i] = frames[i][0]
	}
	return out
}

// Spectrum returns the magnitude spectrum of the latest n frames. Bin i is
// centred on i*sampleRate/n Hz.
func (a *Analyser) Spectrum(n int) []float64 {
	return Magnitudes(a.Waveform(n))
}

// Magnitudes returns the normalised magnitude of the non-negative frequency
// bins of data.
func Magnitudes(data []float64) []float64 {
	if len(data) == 0 {
		return nil
	}

	res := fft.FFTReal(data)

	mags := make([]float64, len(res)/2+1)
	for i, c := range res[:len(mags)] {
		mags[i] = cmplx.Abs(c) / float64(len(data))
	}
	return mags
}

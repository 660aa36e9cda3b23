package main

import (
	"fmt"

	"github.com/veandco/go-sdl2/sdl"
)

const (
	screenWidth  = 1000
	screenHeight = 600
	scopeFrames  = 2048
)

// RunScope opens a window plotting the output waveform and spectrum. The
// first key press or click resumes audio and starts the loop; after that
// space toggles it.
func RunScope(eng *Engine) error {
	a := eng.Context().Analyser()
	if a == nil {
		return fmt.Errorf("scope needs a context with an analyser")
	}

	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS); err != nil {
		return fmt.Errorf("initializing SDL: %w", err)
	}
	defer sdl.Quit()

	window, err := sdl.CreateWindow("drumloop", sdl.WINDOWPOS_UNDEFINED, sdl.WINDOWPOS_UNDEFINED, screenWidth, screenHeight, sdl.WINDOW_SHOWN)
	if err != nil {
		return fmt.Errorf("creating window: %w", err)
	}
	defer window.Destroy()

	renderer, err := sdl.CreateRenderer(window, -1, sdl.RENDERER_ACCELERATED|sdl.RENDERER_PRESENTVSYNC)
	if err != nil {
		return fmt.Errorf("creating renderer: %w", err)
	}
	defer renderer.Destroy()

	started := false
	gesture := func() error {
		if started {
			return nil
		}
		started = true
		if err := eng.EnsureAudio(); err != nil {
			return err
		}
		eng.StartLoop()
		return nil
	}

	running := true
	for running {
		for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
			switch event := event.(type) {
			case *sdl.QuitEvent:
				running = false
			case *sdl.MouseButtonEvent:
				if event.Type == sdl.MOUSEBUTTONDOWN {
					if err := gesture(); err != nil {
						return err
					}
				}
			case *sdl.KeyboardEvent:
				if event.Type != sdl.KEYDOWN || event.Repeat != 0 {
					continue
				}
				switch event.Keysym.Sym {
				case sdl.K_ESCAPE, sdl.K_q:
					running = false
					continue
				case sdl.K_SPACE:
					if started {
						eng.ToggleLoop()
						continue
					}
				}
				if err := gesture(); err != nil {
					return err
				}
			}
		}

		wave := a.Waveform(scopeFrames)
		spectrum := Magnitudes(wave)

		renderer.SetDrawColor(255, 255, 255, 255)
		renderer.Clear()

		graphData(renderer, wave[:len(wave)/4], 50, 50, 900, 200, -1, 1)
		// up to ~11 kHz at 44.1 kHz, enough to see the hats and the snap
		graphData(renderer, spectrum[:len(spectrum)/2], 50, 330, 900, 200, 0, 0.05)

		renderer.Present()
		sdl.Delay(16)
	}

	eng.StopLoop()
	return nil
}

func graphData(renderer *sdl.Renderer, dataPoints []float64, x, y, width, height int32, minval, maxval float64) {
	if len(dataPoints) < 2 {
		return
	}

	// axes
	renderer.SetDrawColor(0, 0, 0, 255)
	renderer.DrawLine(x, y+height, x+width, y+height)
	renderer.DrawLine(x, y, x, y+height)

	spread := maxval - minval
	ypos := func(v float64) int32 {
		v = max(minval, min(maxval, v))
		return y + height - int32((v-minval)/spread*float64(height))
	}

	renderer.SetDrawColor(255, 0, 0, 255)
	for i := 0; i < len(dataPoints)-1; i++ {
		x1 := x + int32(float64(i)*float64(width)/float64(len(dataPoints)-1))
		x2 := x + int32(float64(i+1)*float64(width)/float64(len(dataPoints)-1))
		renderer.DrawLine(x1, ypos(dataPoints[i]), x2, ypos(dataPoints[i+1]))
	}
}

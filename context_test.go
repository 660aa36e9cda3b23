package main

import (
	"errors"
	"testing"

	"github.com/gopxl/beep"
)

func TestContextOpensLazilyOnce(t *testing.T) {
	b := &ManualBackend{}
	ctx := NewContext(b)

	if b.Opens() != 0 || ctx.State() != Uninitialized {
		t.Fatal("context touched the backend before first use")
	}

	for i := 0; i < 5; i++ {
		if err := ctx.Resume(); err != nil {
			t.Fatal(err)
		}
	}

	if b.Opens() != 1 {
		t.Fatalf("backend opened %d times", b.Opens())
	}
	if ctx.State() != Running {
		t.Fatalf("state = %s, want running", ctx.State())
	}
}

func TestContextOpenErrorPropagates(t *testing.T) {
	noDevice := errors.New("no audio device")
	b := &ManualBackend{OpenErr: noDevice}
	ctx := NewContext(b)

	if err := ctx.Resume(); !errors.Is(err, noDevice) {
		t.Fatalf("expected open error, got %v", err)
	}
	if ctx.State() != Uninitialized {
		t.Fatalf("state = %s after failed open", ctx.State())
	}

	if err := NewSynth(ctx).Kick(); !errors.Is(err, noDevice) {
		t.Fatalf("trigger should report the open error, got %v", err)
	}

	// the next attempt tries again
	b.OpenErr = nil
	if err := ctx.Resume(); err != nil {
		t.Fatal(err)
	}
	if ctx.State() != Running {
		t.Fatalf("state = %s, want running", ctx.State())
	}
}

func TestContextResumeDeferred(t *testing.T) {
	b := &ManualBackend{ResumeErr: errors.New("not allowed before a gesture")}
	ctx := NewContext(b)

	if err := ctx.Resume(); err != nil {
		t.Fatalf("refused resume should not be an error, got %v", err)
	}
	if ctx.State() != Suspended {
		t.Fatalf("state = %s, want suspended", ctx.State())
	}

	b.ResumeErr = nil
	if err := ctx.Resume(); err != nil {
		t.Fatal(err)
	}
	if ctx.State() != Running {
		t.Fatalf("state = %s, want running", ctx.State())
	}
}

func TestContextClockOnlyRunsWhileRunning(t *testing.T) {
	b := &ManualBackend{}
	ctx := NewContext(b, WithSampleRate(1000))

	if err := ctx.Open(); err != nil {
		t.Fatal(err)
	}
	b.Pull(500)
	if ctx.Now() != 0 {
		t.Fatalf("clock moved while suspended: %f", ctx.Now())
	}

	if err := ctx.Resume(); err != nil {
		t.Fatal(err)
	}
	b.Pull(250)
	if !near(ctx.Now(), 0.25, 1e-9) {
		t.Fatalf("Now = %f, want 0.25", ctx.Now())
	}

	if err := ctx.Suspend(); err != nil {
		t.Fatal(err)
	}
	b.Pull(250)
	if !near(ctx.Now(), 0.25, 1e-9) {
		t.Fatalf("Now = %f after suspend, want 0.25", ctx.Now())
	}
}

func TestScheduleUsesCurrentTime(t *testing.T) {
	b := &ManualBackend{}
	ctx := NewContext(b, WithSampleRate(1000))
	if err := ctx.Resume(); err != nil {
		t.Fatal(err)
	}
	b.Pull(300)

	var at float64
	err := ctx.Schedule(func(g *Graph) []beep.Streamer {
		at = g.Now
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if !near(at, 0.3, 1e-9) {
		t.Fatalf("graph time %f, want 0.3", at)
	}
}

func TestScheduleAfterClose(t *testing.T) {
	ctx := NewContext(&ManualBackend{})
	if err := ctx.Resume(); err != nil {
		t.Fatal(err)
	}
	if err := ctx.Close(); err != nil {
		t.Fatal(err)
	}

	if err := NewSynth(ctx).Snap(); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
	if err := ctx.Resume(); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed from Resume, got %v", err)
	}
}

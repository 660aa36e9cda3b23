package main

import (
	"math"
	"testing"
)

func near(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestParamHoldsDefault(t *testing.T) {
	p := NewParam(350)
	if v := p.ValueAt(3); v != 350 {
		t.Fatalf("got %f, want 350", v)
	}
}

func TestParamExponentialRamp(t *testing.T) {
	p := NewParam(0)
	p.SetValueAtTime(1, 2)
	p.ExponentialRampToValueAtTime(0.001, 3)

	cases := []struct {
		t, want float64
	}{
		{1.5, 0},
		{2, 1},
		{2.5, math.Sqrt(0.001)},
		{3, 0.001},
		{10, 0.001},
	}
	for _, c := range cases {
		if v := p.ValueAt(c.t); !near(v, c.want, 1e-9) {
			t.Fatalf("ValueAt(%f) = %f, want %f", c.t, v, c.want)
		}
	}
}

func TestParamExponentialFromZeroHolds(t *testing.T) {
	p := NewParam(0)
	p.ExponentialRampToValueAtTime(1, 1)

	if v := p.ValueAt(0.5); v != 0 {
		t.Fatalf("ramp from zero should hold, got %f", v)
	}
	if v := p.ValueAt(1); v != 1 {
		t.Fatalf("got %f after ramp end", v)
	}
}

func TestParamLinearRamp(t *testing.T) {
	p := NewParam(0)
	p.SetValueAtTime(0, 0)
	p.LinearRampToValueAtTime(10, 1)

	if v := p.ValueAt(0.25); !near(v, 2.5, 1e-9) {
		t.Fatalf("got %f, want 2.5", v)
	}
}

func TestParamEventsSortedByTime(t *testing.T) {
	p := NewParam(0)
	p.SetValueAtTime(5, 2)
	p.SetValueAtTime(3, 1)

	if v := p.ValueAt(1.5); v != 3 {
		t.Fatalf("got %f, want 3", v)
	}
	if v := p.ValueAt(2.5); v != 5 {
		t.Fatalf("got %f, want 5", v)
	}
}

package main

import "math"

type rampKind int

const (
	setValue rampKind = iota
	linearRamp
	expRamp
)

type paramEvent struct {
	kind  rampKind
	value float64
	time  float64
}

// Param is a value that changes on a schedule, the way gain and frequency
// do on a drum hit. Times are absolute context seconds.
type Param struct {
	def    float64
	events []paramEvent
}

func NewParam(v float64) *Param {
	return &Param{def: v}
}

// SetValueAtTime jumps to v at time t.
func (p *Param) SetValueAtTime(v, t float64) *Param {
	p.insert(paramEvent{kind: setValue, value: v, time: t})
	return p
}

// LinearRampToValueAtTime ramps linearly from the previous event to v,
// arriving at time t.
func (p *Param) LinearRampToValueAtTime(v, t float64) *Param {
	p.insert(paramEvent{kind: linearRamp, value: v, time: t})
	return p
}

// ExponentialRampToValueAtTime ramps geometrically from the previous event
// to v, arriving at time t. Neither end may be zero; decays target a small
// floor such as 0.001 instead.
func (p *Param) ExponentialRampToValueAtTime(v, t float64) *Param {
	p.insert(paramEvent{kind: expRamp, value: v, time: t})
	return p
}

func (p *Param) insert(e paramEvent) {
	i := len(p.events)
	for i > 0 && p.events[i-1].time > e.time {
		i--
	}
	p.events = append(p.events, paramEvent{})
	copy(p.events[i+1:], p.events[i:])
	p.events[i] = e
}

// ValueAt returns the scheduled value at time t.
func (p *Param) ValueAt(t float64) float64 {
	prevV, prevT := p.def, 0.0
	for _, e := range p.events {
		if t < e.time {
			if e.time <= prevT {
				return prevV
			}
			frac := (t - prevT) / (e.time - prevT)
			if frac < 0 {
				return prevV
			}

			switch e.kind {
			case linearRamp:
				return prevV + (e.value-prevV)*frac
			case expRamp:
				if prevV == 0 || prevV*e.value <= 0 {
					return prevV
				}
				return prevV * math.Pow(e.value/prevV, frac)
			default:
				return prevV
			}
		}
		prevV, prevT = e.value, e.time
	}
	return prevV
}

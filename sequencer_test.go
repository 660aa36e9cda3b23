package main

import (
	"slices"
	"sync"
	"testing"
	"time"
)

type trigger struct {
	mark  int
	voice Voice
	vol   float64
	kick  KickParams
}

// recordingKit stands in for the synth and remembers what was played.
type recordingKit struct {
	mu       sync.Mutex
	mark     int
	triggers []trigger
}

func (k *recordingKit) setMark(m int) {
	k.mu.Lock()
	k.mark = m
	k.mu.Unlock()
}

func (k *recordingKit) add(tr trigger) {
	k.mu.Lock()
	tr.mark = k.mark
	k.triggers = append(k.triggers, tr)
	k.mu.Unlock()
}

func (k *recordingKit) Kick(opts ...KickOption) error {
	p := DefaultKick()
	for _, o := range opts {
		o(&p)
	}
	k.add(trigger{voice: KickVoice, vol: p.Volume, kick: p})
	return nil
}

func (k *recordingKit) HiHat(opts ...HiHatOption) error {
	p := DefaultHiHat()
	for _, o := range opts {
		o(&p)
	}
	v := HiHatVoice
	if p.Open {
		v = OpenHiHatVoice
	}
	k.add(trigger{voice: v, vol: p.Volume})
	return nil
}

func (k *recordingKit) Snap(opts ...SnapOption) error {
	p := DefaultSnap()
	for _, o := range opts {
		o(&p)
	}
	k.add(trigger{voice: SnapVoice, vol: p.Volume})
	return nil
}

func (k *recordingKit) all() []trigger {
	k.mu.Lock()
	defer k.mu.Unlock()
	return slices.Clone(k.triggers)
}

func (k *recordingKit) reset() {
	k.mu.Lock()
	k.triggers = nil
	k.mu.Unlock()
}

func voicesAt(trs []trigger, mark int) []Voice {
	var out []Voice
	for _, tr := range trs {
		if tr.mark == mark {
			out = append(out, tr.voice)
		}
	}
	return out
}

// fakeTicker only fires when the test sends on it. The channel is
// unbuffered, so a send returns once the sequencer has taken the tick.
type fakeTicker struct {
	ch      chan time.Time
	mu      sync.Mutex
	stopped int
}

func (f *fakeTicker) C() <-chan time.Time { return f.ch }

func (f *fakeTicker) Stop() {
	f.mu.Lock()
	f.stopped++
	f.mu.Unlock()
}

type fakeClock struct {
	mu       sync.Mutex
	tickers  []*fakeTicker
	interval time.Duration
}

func (c *fakeClock) newTicker(d time.Duration) Ticker {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTicker{ch: make(chan time.Time)}
	c.tickers = append(c.tickers, t)
	c.interval = d
	return t
}

func (c *fakeClock) last() *fakeTicker {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tickers[len(c.tickers)-1]
}

func (c *fakeClock) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.tickers)
}

func (c *fakeClock) fire(n int) {
	t := c.last()
	for i := 0; i < n; i++ {
		t.ch <- time.Time{}
	}
}

func expectedVoices(p *Pattern, step int) []Voice {
	var out []Voice
	if p.Active(KickVoice, step) {
		out = append(out, KickVoice)
	}
	if p.Active(OpenHiHatVoice, step) {
		out = append(out, OpenHiHatVoice)
	} else if p.Active(HiHatVoice, step) {
		out = append(out, HiHatVoice)
	}
	if p.Active(SnapVoice, step) {
		out = append(out, SnapVoice)
	}
	return out
}

func TestStepInterval(t *testing.T) {
	got := StepInterval(116)
	want := time.Duration(60.0 / 116 / 4 * float64(time.Second))
	if d := got - want; d < -time.Microsecond || d > time.Microsecond {
		t.Fatalf("interval %s, want %s", got, want)
	}
	if got.Milliseconds() != 129 {
		t.Fatalf("interval %s, want ~129.3ms", got)
	}
}

func TestTickPlaysPatternColumn(t *testing.T) {
	kit := &recordingKit{}
	seq := NewSequencer(kit)
	p := seq.Pattern()

	for step := 0; step < Steps; step++ {
		kit.setMark(step)
		seq.tick()
	}

	trs := kit.all()
	for step := 0; step < Steps; step++ {
		got := voicesAt(trs, step)
		want := expectedVoices(&p, step)
		if !slices.Equal(got, want) {
			t.Fatalf("step %d played %v, want %v", step, got, want)
		}
	}
}

func TestOpenHatReplacesClosedHat(t *testing.T) {
	var p Pattern
	for i := 0; i < Steps; i++ {
		p[HiHatVoice][i] = true
		p[OpenHiHatVoice][i] = i%2 == 0
	}

	kit := &recordingKit{}
	seq := NewSequencer(kit, WithPattern(p))
	for step := 0; step < Steps; step++ {
		kit.setMark(step)
		seq.tick()
	}

	trs := kit.all()
	for step := 0; step < Steps; step++ {
		got := voicesAt(trs, step)
		if len(got) != 1 {
			t.Fatalf("step %d played %v, want exactly one hat", step, got)
		}
		want := HiHatVoice
		if step%2 == 0 {
			want = OpenHiHatVoice
		}
		if got[0] != want {
			t.Fatalf("step %d played %s, want %s", step, got[0], want)
		}
	}
}

func TestStepWrapsEverySixteen(t *testing.T) {
	seq := NewSequencer(&recordingKit{})
	for i := 1; i <= 100; i++ {
		seq.tick()
		if seq.Step() != i%Steps {
			t.Fatalf("after %d ticks step = %d", i, seq.Step())
		}
	}
}

func TestStepVolumes(t *testing.T) {
	kit := &recordingKit{}
	seq := NewSequencer(kit)
	for i := 0; i < Steps; i++ {
		seq.tick()
	}

	for _, tr := range kit.all() {
		var want float64
		switch tr.voice {
		case KickVoice:
			want = 0.4
			if tr.kick.Pitch != 150 || tr.kick.Decay != 0.22 || tr.kick.Punch != 0.7 {
				t.Fatalf("kick params %+v", tr.kick)
			}
		case HiHatVoice:
			want = 0.16
		case OpenHiHatVoice, SnapVoice:
			want = 0.2
		}
		if !near(tr.vol, want, 1e-12) {
			t.Fatalf("%s volume %f, want %f", tr.voice, tr.vol, want)
		}
	}
}

func TestKickAndSnapTiming(t *testing.T) {
	kit := &recordingKit{}
	seq := NewSequencer(kit, WithBPM(116))
	for i := 0; i < Steps; i++ {
		kit.setMark(i)
		seq.tick()
	}

	var kicks, snaps []time.Duration
	for _, tr := range kit.all() {
		at := time.Duration(tr.mark) * seq.Interval()
		switch tr.voice {
		case KickVoice:
			kicks = append(kicks, at)
		case SnapVoice:
			snaps = append(snaps, at)
		}
	}

	wantKicks := []time.Duration{0, 517 * time.Millisecond, 1034 * time.Millisecond, 1551 * time.Millisecond}
	if len(kicks) != len(wantKicks) {
		t.Fatalf("got %d kicks, want %d", len(kicks), len(wantKicks))
	}
	for i, at := range kicks {
		if d := at - wantKicks[i]; d < -time.Millisecond || d > time.Millisecond {
			t.Fatalf("kick %d at %s, want ~%s", i, at, wantKicks[i])
		}
	}
	if len(snaps) != 2 || snaps[0] != 4*seq.Interval() || snaps[1] != 12*seq.Interval() {
		t.Fatalf("snaps at %v", snaps)
	}
}

func TestStartPlaysFromZeroAndIsIdempotent(t *testing.T) {
	kit := &recordingKit{}
	clk := &fakeClock{}
	seq := NewSequencer(kit, WithTicker(clk.newTicker))

	seq.Start()
	seq.Start()
	if clk.count() != 1 {
		t.Fatalf("second Start registered another timer (%d)", clk.count())
	}
	if clk.interval != StepInterval(DefaultBPM) {
		t.Fatalf("timer interval %s", clk.interval)
	}
	if !seq.Playing() {
		t.Fatal("not playing after Start")
	}

	clk.fire(5)
	seq.Stop()

	if seq.Step() != 6 {
		t.Fatalf("step = %d after 6 ticks", seq.Step())
	}

	p := seq.Pattern()
	var want []Voice
	for step := 0; step < 6; step++ {
		want = append(want, expectedVoices(&p, step)...)
	}
	var got []Voice
	for _, tr := range kit.all() {
		got = append(got, tr.voice)
	}
	if !slices.Equal(got, want) {
		t.Fatalf("played %v, want %v", got, want)
	}
}

func TestStopIsIdempotentAndFinal(t *testing.T) {
	kit := &recordingKit{}
	clk := &fakeClock{}
	seq := NewSequencer(kit, WithTicker(clk.newTicker))

	seq.Stop()
	if seq.Playing() {
		t.Fatal("playing after Stop on a stopped sequencer")
	}

	seq.Start()
	clk.fire(2)
	seq.Stop()
	seq.Stop()

	tk := clk.last()
	tk.mu.Lock()
	stopped := tk.stopped
	tk.mu.Unlock()
	if stopped != 1 {
		t.Fatalf("timer stopped %d times", stopped)
	}

	played := len(kit.all())
	select {
	case tk.ch <- time.Time{}:
		t.Fatal("a tick was accepted after Stop returned")
	case <-time.After(20 * time.Millisecond):
	}
	if len(kit.all()) != played {
		t.Fatal("voices triggered after Stop")
	}
	if seq.Step() != 3 {
		t.Fatalf("Stop should keep the step, got %d", seq.Step())
	}
}

func TestRestartBeginsAtStepZero(t *testing.T) {
	kit := &recordingKit{}
	clk := &fakeClock{}
	seq := NewSequencer(kit, WithTicker(clk.newTicker))

	seq.Start()
	clk.fire(6)
	seq.Stop()
	if seq.Step() != 7 {
		t.Fatalf("step = %d", seq.Step())
	}

	kit.reset()
	seq.Start()
	seq.Stop()

	var got []Voice
	for _, tr := range kit.all() {
		got = append(got, tr.voice)
	}
	p := seq.Pattern()
	if want := expectedVoices(&p, 0); !slices.Equal(got, want) {
		t.Fatalf("restart played %v, want step 0 %v", got, want)
	}
	if seq.Step() != 1 {
		t.Fatalf("step = %d after restart", seq.Step())
	}
}

func TestStepsChannelReportsPlayedStep(t *testing.T) {
	clk := &fakeClock{}
	seq := NewSequencer(&recordingKit{}, WithTicker(clk.newTicker))

	seq.Start()
	if s := <-seq.Steps(); s != 0 {
		t.Fatalf("first reported step %d", s)
	}
	clk.fire(1)
	if s := <-seq.Steps(); s != 1 {
		t.Fatalf("second reported step %d", s)
	}
	seq.Stop()
}

func TestStopLeavesVoicesRinging(t *testing.T) {
	b := &ManualBackend{}
	ctx := NewContext(b, WithSeed(5))
	if err := ctx.Resume(); err != nil {
		t.Fatal(err)
	}

	clk := &fakeClock{}
	seq := NewSequencer(NewSynth(ctx), WithTicker(clk.newTicker))
	seq.Start()
	seq.Stop()

	if ctx.Active() == 0 {
		t.Fatal("step 0 voices were cut by Stop")
	}

	var peak float64
	for _, s := range b.Pull(2000) {
		peak = max(peak, s[0], -s[0])
	}
	if peak == 0 {
		t.Fatal("nothing rendered after Stop")
	}
}

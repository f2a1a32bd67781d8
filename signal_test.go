package flipbook

import (
	"context"
	"testing"
)

func TestSignalSetSameValueIsNoop(t *testing.T) {
	g := NewGraph(&MemoryLogger{})
	s := NewSignal(g, 1)
	s.Get()
	notified := 0
	s.Subscribe(func() { notified++ })

	s.Set(1)
	if notified != 0 {
		t.Errorf("notified = %d, want 0 for an identical value", notified)
	}
	s.Set(2)
	if notified != 1 {
		t.Errorf("notified = %d, want 1", notified)
	}
}

func TestSignalFunc(t *testing.T) {
	g := NewGraph(&MemoryLogger{})
	base := NewSignal(g, 2.0)
	double := NewSignalFunc(g, func() float64 { return base.Get() * 2 })
	if got := double.Get(); got != 4 {
		t.Errorf("Get() = %v, want 4", got)
	}
	base.Set(5)
	if got := double.Get(); got != 10 {
		t.Errorf("Get() = %v, want 10", got)
	}
	double.Set(1)
	base.Set(7)
	if got := double.Get(); got != 1 {
		t.Errorf("Get() = %v, want 1 once replaced by a constant", got)
	}
	if _, fn := double.Raw(); fn != nil {
		t.Error("Raw() should report a constant")
	}
}

func TestSignalResetSaveIsInitial(t *testing.T) {
	g := NewGraph(&MemoryLogger{})
	s := NewSignal(g, 1)
	if !s.IsInitial() {
		t.Error("new signal should be initial")
	}
	s.Set(5)
	if s.IsInitial() {
		t.Error("IsInitial() = true after Set")
	}
	s.Reset()
	if got := s.Get(); got != 1 {
		t.Errorf("Get() after Reset = %d, want 1", got)
	}
	if !s.IsInitial() {
		t.Error("IsInitial() = false after Reset")
	}

	src := NewSignal(g, 3)
	derived := NewSignalFunc(g, func() int { return src.Get() * 2 })
	derived.Save()
	v, fn := derived.Raw()
	if fn != nil || v != 6 {
		t.Errorf("Raw() = (%d, %v), want the frozen value 6", v, fn != nil)
	}
	src.Set(4)
	if got := derived.Get(); got != 6 {
		t.Errorf("Get() = %d, want 6 after Save", got)
	}
	if derived.IsInitial() {
		t.Error("saved signal should not be initial")
	}
	derived.Reset()
	if got := derived.Get(); got != 8 {
		t.Errorf("Get() after Reset = %d, want 8", got)
	}
}

func TestSignalIsInitialTracks(t *testing.T) {
	g := NewGraph(&MemoryLogger{})
	s := NewSignal(g, "a")
	c := NewComputed(g, func() bool { return s.IsInitial() })
	if !c.Get() {
		t.Fatal("Get() = false, want true")
	}
	s.Set("b")
	if c.Get() {
		t.Error("Get() = true, want false after Set")
	}
}

func TestSignalIsInitialNotifiesEffect(t *testing.T) {
	g := NewGraph(&MemoryLogger{})
	s := NewSignal(g, 1)
	runs := 0
	var initial bool
	NewEffect(g, func() {
		runs++
		initial = s.IsInitial()
	})
	s.Set(2)
	if runs != 2 || initial {
		t.Errorf("runs = %d, IsInitial = %v, want 2, false", runs, initial)
	}

	d := NewSignalFunc(g, func() int { return s.Get() * 2 })
	derivedRuns := 0
	NewEffect(g, func() {
		derivedRuns++
		d.IsInitial()
	})
	d.Set(5)
	if derivedRuns != 2 {
		t.Errorf("derived runs = %d, want 2", derivedRuns)
	}
}

func TestSignalSubscribeBeforeRead(t *testing.T) {
	g := NewGraph(&MemoryLogger{})
	s := NewSignal(g, "a")
	calls := 0
	s.Subscribe(func() { calls++ })
	s.Set("b")
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestSignalTween(t *testing.T) {
	g := NewGraph(&MemoryLogger{})
	x := NewSignal(g, 0.0)
	var during bool
	d := quietSchedule(10, func(t *Task) {
		x.TweenWith(10, 0.5, Linear, nil).Play(t)
	})
	d.Root().OnDeferred(func(*Task) { during = during || x.IsTweening() })

	var values []float64
	for {
		done, err := d.Next(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		if done {
			break
		}
		values = append(values, x.Get())
	}
	want := []float64{0, 2, 4, 6, 8}
	if len(values) != len(want) {
		t.Fatalf("values = %v, want %v", values, want)
	}
	for i := range want {
		if !near(values[i], want[i]) {
			t.Errorf("values[%d] = %v, want %v", i, values[i], want[i])
		}
	}
	if got := x.Get(); got != 10 {
		t.Errorf("final value = %v, want exactly 10", got)
	}
	if !during {
		t.Error("IsTweening() should be true while the tween runs")
	}
	if x.IsTweening() {
		t.Error("IsTweening() should be false once done")
	}
}

func TestAnimationChain(t *testing.T) {
	g := NewGraph(&MemoryLogger{})
	x := NewSignal(g, 1)
	var marks []int
	d := quietSchedule(30, func(t *Task) {
		x.Tween(5, 0.2).
			Do(func() { marks = append(marks, x.Get()) }).
			Wait(0.1).
			To(9, 0.2).
			Do(func() { marks = append(marks, x.Get()) }).
			Back(0.2).
			Play(t)
	})
	runToEnd(t, d)
	if len(marks) != 2 || marks[0] != 5 || marks[1] != 9 {
		t.Errorf("marks = %v, want [5 9]", marks)
	}
	if got := x.Get(); got != 1 {
		t.Errorf("final value = %d, want 1 after Back", got)
	}
}

func TestAnimationRunAsChild(t *testing.T) {
	g := NewGraph(&MemoryLogger{})
	a := NewSignal(g, Vec2{})
	b := NewSignal(g, ColorWhite)
	var logical float64
	d := quietSchedule(60, func(t *Task) {
		All(t,
			a.Tween(Vec2{X: 10, Y: 20}, 0.5).Play,
			b.TweenWith(Color{A: 1}, 0.25, EaseOutBounce, nil).Play,
		)
		logical = t.Time()
	})
	runToEnd(t, d)
	if got := a.Get(); got != (Vec2{X: 10, Y: 20}) {
		t.Errorf("a = %v, want {10 20}", got)
	}
	if got := b.Get(); got != (Color{A: 1}) {
		t.Errorf("b = %v, want black", got)
	}
	if !near(logical, 0.5) {
		t.Errorf("Time() = %v, want 0.5", logical)
	}
}

func TestSignalStepInterpolator(t *testing.T) {
	type mode struct{ name string }
	g := NewGraph(&MemoryLogger{})
	m := NewSignal(g, mode{"idle"})
	var halfway mode
	d := quietSchedule(10, func(t *Task) {
		anim := m.TweenWith(mode{"run"}, 1, Linear, nil)
		tween := t.Run(anim.Play)
		WaitFor(t, 0.3)
		halfway = m.Get()
		t.Join(tween)
	})
	runToEnd(t, d)
	if halfway.name != "idle" {
		t.Errorf("value at 30%% = %q, want idle", halfway.name)
	}
	if m.Get().name != "run" {
		t.Errorf("final = %q, want run", m.Get().name)
	}
}

package flipbook

import (
	"errors"
	"strings"
	"testing"
)

func TestGraphNotifiesObserverOnce(t *testing.T) {
	g := NewGraph(&MemoryLogger{})
	s := NewSignal(g, 1)
	c := NewComputed(g, func() int { return s.Get() * 2 })
	if got := c.Get(); got != 2 {
		t.Fatalf("Get() = %d, want 2", got)
	}

	notified := 0
	c.Subscribe(func() { notified++ })
	s.Set(2)
	s.Set(3)
	if notified != 1 {
		t.Errorf("notified = %d, want 1 before the observer reads again", notified)
	}
	if got := c.Get(); got != 6 {
		t.Errorf("Get() = %d, want 6", got)
	}
	s.Set(4)
	if notified != 2 {
		t.Errorf("notified = %d, want 2 after reading again", notified)
	}
}

func TestGraphMemoizes(t *testing.T) {
	g := NewGraph(&MemoryLogger{})
	s := NewSignal(g, 1)
	runs := 0
	c := NewComputed(g, func() int { runs++; return s.Get() + 1 })
	if runs != 0 {
		t.Fatal("computed values should be lazy")
	}
	c.Get()
	c.Get()
	if runs != 1 {
		t.Errorf("runs = %d, want 1", runs)
	}
	s.Set(5)
	if runs != 1 {
		t.Errorf("runs = %d, want 1 until read", runs)
	}
	if got := c.Get(); got != 6 {
		t.Errorf("Get() = %d, want 6", got)
	}
	if runs != 2 {
		t.Errorf("runs = %d, want 2", runs)
	}
}

func TestGraphDropsStaleDependencies(t *testing.T) {
	g := NewGraph(&MemoryLogger{})
	useA := NewSignal(g, true)
	a := NewSignal(g, "a")
	b := NewSignal(g, "b")
	runs := 0
	c := NewComputed(g, func() string {
		runs++
		if useA.Get() {
			return a.Get()
		}
		return b.Get()
	})
	c.Get()
	useA.Set(false)
	if got := c.Get(); got != "b" {
		t.Fatalf("Get() = %q, want b", got)
	}
	runs = 0
	a.Set("changed")
	c.Get()
	if runs != 0 {
		t.Errorf("a is no longer read, but changing it recomputed %d times", runs)
	}
}

func TestGraphCircularDependency(t *testing.T) {
	g := NewGraph(&MemoryLogger{})
	var a, b *Signal[int]
	a = NewSignalFunc(g, func() int { return b.Get() + 1 }, Named[int]("a"))
	b = NewSignalFunc(g, func() int { return a.Get() + 1 }, Named[int]("b"))

	defer func() {
		r := recover()
		err, ok := r.(*CircularDependencyError)
		if !ok {
			t.Fatalf("recovered %v, want *CircularDependencyError", r)
		}
		if !strings.Contains(err.Error(), "a -> b -> a") {
			t.Errorf("Error() = %q", err.Error())
		}
		if len(err.Stack) == 0 {
			t.Error("Stack should not be empty")
		}
		if len(g.stack) != 0 {
			t.Errorf("evaluation stack not unwound: %d entries", len(g.stack))
		}
	}()
	a.Get()
}

func TestGraphCircularDependencyInTask(t *testing.T) {
	g := NewGraph(&MemoryLogger{})
	var a *Signal[int]
	a = NewSignalFunc(g, func() int { return a.Get() })
	d := quietSchedule(60, func(t *Task) { a.Get() })
	_, err := d.Next(t.Context())
	var circ *CircularDependencyError
	if !errors.As(err, &circ) {
		t.Fatalf("err = %v, want a circular dependency", err)
	}
}

func TestGraphDerivationFailureKeepsValue(t *testing.T) {
	log := &MemoryLogger{}
	g := NewGraph(log)
	src := NewSignal(g, 1)
	d := NewSignalFunc(g, func() int {
		v := src.Get()
		if v < 0 {
			panic("negative input")
		}
		return v * 10
	})
	if got := d.Get(); got != 10 {
		t.Fatalf("Get() = %d, want 10", got)
	}
	src.Set(-1)
	if got := d.Get(); got != 10 {
		t.Errorf("Get() = %d, want last value 10", got)
	}
	if len(log.Warnings()) != 1 {
		t.Fatalf("warnings = %v, want one", log.Warnings())
	}
	src.Set(2)
	if got := d.Get(); got != 20 {
		t.Errorf("Get() = %d, want 20 after recovery", got)
	}
}

func TestGraphUntracked(t *testing.T) {
	g := NewGraph(&MemoryLogger{})
	s := NewSignal(g, 1)
	runs := 0
	c := NewComputed(g, func() int {
		runs++
		v := 0
		g.Untracked(func() { v = s.Get() })
		return v
	})
	c.Get()
	s.Set(2)
	c.Get()
	if runs != 1 {
		t.Errorf("runs = %d, want 1", runs)
	}
}

func TestGraphDispose(t *testing.T) {
	g := NewGraph(&MemoryLogger{})
	s := NewSignal(g, 1)
	id := s.ID()
	s.Get()
	s.Dispose()
	if g.Alive(id) {
		t.Error("disposed cell should not be alive")
	}
	if got := s.Get(); got != 1 {
		t.Errorf("Get() after Dispose = %d, want 1", got)
	}

	fresh := NewSignal(g, 2)
	if fresh.ID() == id {
		t.Error("a reused slot must not alias the stale handle")
	}
	if g.Alive(id) {
		t.Error("stale handle should stay dead after its slot is reused")
	}
	if g.Len() != 1 {
		t.Errorf("Len() = %d, want 1", g.Len())
	}
}

func TestScopeDispose(t *testing.T) {
	g := NewGraph(&MemoryLogger{})
	outside := NewSignal(g, 0)
	scope := g.BeginScope()
	a := NewSignal(g, 1)
	b := NewComputed(g, func() int { return a.Get() + outside.Get() })
	scope.End()
	NewSignal(g, 3)

	if scope.Len() != 2 {
		t.Fatalf("scope.Len() = %d, want 2", scope.Len())
	}
	b.Get()
	scope.Dispose()
	if g.Alive(a.ID()) || g.Alive(b.ID()) {
		t.Error("scoped cells should be disposed")
	}
	if g.Len() != 2 {
		t.Errorf("Len() = %d, want 2", g.Len())
	}
	outside.Set(5)
}

func TestEffect(t *testing.T) {
	g := NewGraph(&MemoryLogger{})
	s := NewSignal(g, 1)
	var seen []int
	stop := NewEffect(g, func() { seen = append(seen, s.Get()) })
	s.Set(2)
	s.Set(3)
	stop()
	s.Set(4)
	want := []int{1, 2, 3}
	if len(seen) != len(want) {
		t.Fatalf("seen = %v, want %v", seen, want)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Errorf("seen = %v, want %v", seen, want)
			break
		}
	}
}

func TestDeferredEffect(t *testing.T) {
	g := NewGraph(&MemoryLogger{})
	s := NewSignal(g, 0)
	runs := 0
	var stop func()
	d := quietSchedule(10, func(t *Task) {
		stop = NewDeferredEffect(g, t, func() {
			s.Get()
			runs++
		})
		t.Frame()
		t.Frame()
		s.Set(1)
		s.Set(2)
		t.Frame()
		stop()
		s.Set(3)
		t.Frame()
	})

	var counts []int
	for {
		done, err := d.Next(t.Context())
		if err != nil {
			t.Fatal(err)
		}
		if done {
			break
		}
		counts = append(counts, runs)
	}
	want := []int{1, 1, 2, 2}
	if len(counts) != len(want) {
		t.Fatalf("counts = %v, want %v", counts, want)
	}
	for i := range want {
		if counts[i] != want[i] {
			t.Errorf("counts = %v, want %v", counts, want)
			break
		}
	}
}

func TestDeferredEffectDisposedWithTask(t *testing.T) {
	g := NewGraph(&MemoryLogger{})
	s := NewSignal(g, 0)
	runs := 0
	d := quietSchedule(10, func(t *Task) {
		t.Run(func(t *Task) {
			NewDeferredEffect(g, t, func() {
				s.Get()
				runs++
			})
			t.Frame()
		})
		t.Frame()
		t.Frame()
	})
	runToEnd(t, d)

	if g.Len() != 1 {
		t.Errorf("live cells = %d, want only the signal", g.Len())
	}
	s.Set(1)
	if runs != 1 {
		t.Errorf("runs = %d, want 1", runs)
	}
}

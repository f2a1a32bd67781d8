package flipbook

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"
	"testing"
)

const epsilon = 1e-9

func near(a, b float64) bool { return math.Abs(a-b) < epsilon }

// runToEnd ticks d until it reports done and returns the number of ticks
// that did not finish the tree.
func runToEnd(t *testing.T, d *Driver) int {
	t.Helper()
	ticks := 0
	for {
		done, err := d.Next(context.Background())
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if done {
			return ticks
		}
		ticks++
		if ticks > 100000 {
			t.Fatal("scheduler did not finish")
		}
	}
}

func quietSchedule(fps float64, r Routine) *Driver {
	return Schedule(FixedClock{Rate: fps}, r, WithLogger(&MemoryLogger{}))
}

func TestScheduleExecutionOrder(t *testing.T) {
	var order []int
	d := quietSchedule(60, func(t *Task) {
		order = append(order, 0)
		t.Run(func(t *Task) {
			order = append(order, 1)
			t.Frame()
			order = append(order, 3)
		})
		order = append(order, 2)
		t.Frame()
		order = append(order, 4)
		t.Frame()
		order = append(order, 5)
	})

	if ticks := runToEnd(t, d); ticks != 2 {
		t.Errorf("ticks = %d, want 2", ticks)
	}
	want := []int{0, 1, 2, 3, 4, 5}
	if !slices.Equal(order, want) {
		t.Errorf("order = %v, want %v", order, want)
	}
}

func TestSpawnStartsNextTick(t *testing.T) {
	var order []int
	d := quietSchedule(60, func(t *Task) {
		order = append(order, 0)
		t.Spawn(func(t *Task) {
			order = append(order, 2)
			t.Frame()
			order = append(order, 4)
		})
		order = append(order, 1)
		t.Frame()
		order = append(order, 3)
		t.Frame()
	})

	if _, err := d.Next(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(order, []int{0, 1}) {
		t.Fatalf("after first tick order = %v, want [0 1]", order)
	}
	if d.Live() != 2 {
		t.Errorf("Live() = %d, want 2", d.Live())
	}
	runToEnd(t, d)
	want := []int{0, 1, 2, 3, 4}
	if !slices.Equal(order, want) {
		t.Errorf("order = %v, want %v", order, want)
	}
}

func TestSpawnFromChildAttachesToRoot(t *testing.T) {
	var spawned *Task
	var root *Task
	d := quietSchedule(60, func(t *Task) {
		root = t
		t.Run(func(t *Task) {
			spawned = t.Spawn(func(t *Task) { t.Frame() })
		})
		t.Frame()
		t.Frame()
	})
	if _, err := d.Next(context.Background()); err != nil {
		t.Fatal(err)
	}
	if spawned.Parent() != root {
		t.Error("spawned task should be a child of the root")
	}
}

func TestCancelChild(t *testing.T) {
	var child *Task
	d := quietSchedule(60, func(t *Task) {
		child = t.Run(func(t *Task) {
			for {
				t.Frame()
			}
		})
		t.Frame()
		t.Cancel(child)
		t.Frame()
	})

	if ticks := runToEnd(t, d); ticks != 2 {
		t.Errorf("ticks = %d, want 2", ticks)
	}
	if !child.Canceled() {
		t.Error("child should be canceled")
	}
}

func TestCancelStopsRoutine(t *testing.T) {
	cleaned := false
	steps := 0
	d := quietSchedule(60, func(t *Task) {
		child := t.Run(func(t *Task) {
			defer func() { cleaned = true }()
			for {
				steps++
				t.Frame()
			}
		})
		t.Frame()
		t.Cancel(child)
		t.Frame()
		t.Frame()
	})
	runToEnd(t, d)
	if !cleaned {
		t.Error("deferred calls of a canceled routine should run")
	}
	if steps != 2 {
		t.Errorf("steps = %d, want 2", steps)
	}
}

func TestChildrenCanceledWithParent(t *testing.T) {
	var grandchild *Task
	d := quietSchedule(60, func(t *Task) {
		t.Run(func(t *Task) {
			grandchild = t.Run(func(t *Task) {
				for {
					t.Frame()
				}
			})
		})
		t.Frame()
	})
	runToEnd(t, d)
	if !grandchild.Canceled() {
		t.Error("grandchild should be canceled once its parent finished")
	}
}

func TestPause(t *testing.T) {
	count := 0
	var paused, resumed int
	var pausedTime, stillTime float64
	d := quietSchedule(10, func(t *Task) {
		child := t.Run(func(t *Task) {
			for {
				count++
				t.Frame()
			}
		})
		t.Frame()
		child.Pause(true)
		pausedTime = child.Time()
		t.Frame()
		t.Frame()
		paused = count
		stillTime = child.Time()
		child.Pause(false)
		t.Frame()
		resumed = count
		t.Cancel(child)
	})
	runToEnd(t, d)
	if paused != 2 {
		t.Errorf("count while paused = %d, want 2", paused)
	}
	if resumed != 3 {
		t.Errorf("count after resume = %d, want 3", resumed)
	}
	if pausedTime != stillTime {
		t.Errorf("paused task time moved from %v to %v", pausedTime, stillTime)
	}
}

func TestAwait(t *testing.T) {
	var got int
	var gotErr error
	d := quietSchedule(60, func(t *Task) {
		got, _ = Await(t, func(ctx context.Context) (int, error) { return 42, nil })
		_, gotErr = Await(t, func(ctx context.Context) (string, error) {
			return "", errors.New("unavailable")
		})
	})
	if ticks := runToEnd(t, d); ticks != 0 {
		t.Errorf("ticks = %d, want 0", ticks)
	}
	if got != 42 {
		t.Errorf("got = %d, want 42", got)
	}
	if gotErr == nil || gotErr.Error() != "unavailable" {
		t.Errorf("err = %v, want unavailable", gotErr)
	}
}

func TestAwaitNilIsAFrame(t *testing.T) {
	log := &MemoryLogger{}
	d := Schedule(nil, func(t *Task) {
		_, _ = t.Await(nil)
	}, WithLogger(log))
	if ticks := runToEnd(t, d); ticks != 1 {
		t.Errorf("ticks = %d, want 1", ticks)
	}
	if len(log.Warnings()) != 1 {
		t.Errorf("warnings = %v, want one", log.Warnings())
	}
}

func TestNextCanceledContext(t *testing.T) {
	d := quietSchedule(60, func(t *Task) { t.Frame() })
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	done, err := d.Next(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if done {
		t.Error("done should be false")
	}
}

func TestTaskPanic(t *testing.T) {
	d := quietSchedule(60, func(t *Task) {
		t.Run(func(t *Task) {
			t.Frame()
			panic("boom")
		})
		t.Frame()
		t.Frame()
	})
	ctx := context.Background()
	if _, err := d.Next(ctx); err != nil {
		t.Fatalf("first tick: %v", err)
	}
	_, err := d.Next(ctx)
	var tp *TaskPanic
	if !errors.As(err, &tp) {
		t.Fatalf("err = %v, want *TaskPanic", err)
	}
	if tp.Value != "boom" {
		t.Errorf("Value = %v, want boom", tp.Value)
	}
	if tp.Task != "root/1" {
		t.Errorf("Task = %q, want root/1", tp.Task)
	}
	if len(tp.Stack) == 0 {
		t.Error("Stack should not be empty")
	}
	if !d.Closed() {
		t.Error("driver should be closed after a panic")
	}
}

func TestTaskPanicUnwrapsError(t *testing.T) {
	sentinel := errors.New("sentinel")
	d := quietSchedule(60, func(t *Task) { panic(sentinel) })
	_, err := d.Next(context.Background())
	if !errors.Is(err, sentinel) {
		t.Errorf("err = %v, want it to wrap the panic value", err)
	}
}

func TestFrameOutsideTaskPanics(t *testing.T) {
	d := quietSchedule(60, func(t *Task) { t.Frame() })
	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected panic, got none")
		}
		if !strings.Contains(fmt.Sprint(r), "outside of task") {
			t.Errorf("panic = %v", r)
		}
	}()
	d.Root().Frame()
}

func TestClose(t *testing.T) {
	cleaned := false
	d := quietSchedule(60, func(t *Task) {
		defer func() { cleaned = true }()
		for {
			t.Frame()
		}
	})
	if _, err := d.Next(context.Background()); err != nil {
		t.Fatal(err)
	}
	d.Close()
	if !cleaned {
		t.Error("Close should stop running routines")
	}
	if !d.Root().Canceled() {
		t.Error("root should be canceled")
	}
	defer func() {
		err, _ := recover().(error)
		if !errors.Is(err, ErrSchedulerClosed) {
			t.Errorf("Next after Close panicked with %v, want ErrSchedulerClosed", err)
		}
	}()
	_, _ = d.Next(context.Background())
}

func TestTaskHookAndRootName(t *testing.T) {
	var hooked *Task
	d := Schedule(nil, Noop, WithRootName("intro"), WithTaskHook(func(root *Task) { hooked = root }))
	if hooked != d.Root() {
		t.Error("hook should receive the root")
	}
	if d.Root().Name != "intro" {
		t.Errorf("Name = %q, want intro", d.Root().Name)
	}
}

func TestDeferredRunsAfterTick(t *testing.T) {
	var order []int
	d := quietSchedule(60, func(t *Task) {
		t.OnDeferred(func(*Task) { order = append(order, -1) })
		t.Run(func(t *Task) {
			order = append(order, 0)
			t.Frame()
			order = append(order, 2)
		})
		order = append(order, 1)
		t.Frame()
		order = append(order, 3)
		t.Frame()
	})
	runToEnd(t, d)
	want := []int{0, 1, -1, 2, 3, -1}
	if !slices.Equal(order, want) {
		t.Errorf("order = %v, want %v", order, want)
	}
}

func TestDeferredHookCannotSuspend(t *testing.T) {
	var recovered any
	d := quietSchedule(60, func(t *Task) {
		t.OnDeferred(func(t *Task) {
			defer func() { recovered = recover() }()
			t.Frame()
		})
		t.Frame()
	})
	runToEnd(t, d)
	if recovered == nil {
		t.Error("Frame inside a deferred hook should panic")
	}
}

func TestDebugStats(t *testing.T) {
	var buf strings.Builder
	d := Schedule(nil, func(t *Task) {
		t.Spawn(Noop)
		t.Frame()
	}, WithDebug(&buf), WithLogger(&MemoryLogger{}))
	runToEnd(t, d)
	out := buf.String()
	if !strings.Contains(out, `[flipbook] tick "root"`) {
		t.Errorf("debug output = %q", out)
	}
	if !strings.Contains(out, "spawned: 1") {
		t.Errorf("debug output should count the spawned task: %q", out)
	}
}

package flipbook

import (
	"context"
	"io"
	"time"
)

// Driver pumps a task tree one tick at a time. Create one with Schedule and
// call Next once per animation frame.
//
// A driver is single-threaded: Next, Close and every task method must be
// called from the same goroutine.
type Driver struct {
	clock  Clock
	logger Logger
	debug  io.Writer
	hook   func(*Task)

	root  *Task
	tasks []*Task

	// started holds tasks whose coroutines exist and must be stopped once
	// they are canceled.
	started []*Task

	current *Task
	inHook  bool
	ticking bool
	closed  bool

	nextID uint32
	stats  tickStats
}

// ScheduleOption configures a Driver.
type ScheduleOption func(*Driver)

// WithLogger sets the logger used for scheduler diagnostics.
func WithLogger(l Logger) ScheduleOption {
	return func(d *Driver) { d.logger = l }
}

// WithDebug enables per-tick statistics and tree shape warnings, written to w.
func WithDebug(w io.Writer) ScheduleOption {
	return func(d *Driver) { d.debug = w }
}

// WithTaskHook registers fn to be called with the root task when it is
// created.
func WithTaskHook(fn func(root *Task)) ScheduleOption {
	return func(d *Driver) { d.hook = fn }
}

// WithRootName names the root task.
func WithRootName(name string) ScheduleOption {
	return func(d *Driver) { d.root.Name = name }
}

// Schedule builds a root task from r and returns the driver that runs it. The
// routine does not start until the first call to Next.
func Schedule(clock Clock, r Routine, opts ...ScheduleOption) *Driver {
	if clock == nil {
		clock = FixedClock{}
	}
	d := &Driver{clock: clock, logger: DefaultLogger()}
	d.root = d.newTask(r, "root")
	for _, opt := range opts {
		opt(d)
	}
	d.tasks = []*Task{d.root}
	if d.hook != nil {
		d.hook(d.root)
	}
	return d
}

// Root returns the root task.
func (d *Driver) Root() *Task { return d.root }

// Done reports whether every task has finished.
func (d *Driver) Done() bool { return len(d.tasks) == 0 }

// Closed reports whether Close has been called.
func (d *Driver) Closed() bool { return d.closed }

// Live returns the number of tasks carried into the next tick.
func (d *Driver) Live() int { return len(d.tasks) }

// Next runs one tick. Tasks are resumed depth-first: a task that yields a
// child runs the child immediately and resumes afterwards within the same
// tick; a task that yields a frame is carried over to the next tick. It
// returns done once no task remains.
//
// Awaited operations receive ctx. A context that is already done aborts the
// call before any task is resumed. A panic inside a routine tears the driver
// down and is returned as a *TaskPanic.
func (d *Driver) Next(ctx context.Context) (done bool, err error) {
	if d.closed {
		panic(ErrSchedulerClosed)
	}
	if d.ticking {
		panic("flipbook: Next called from inside a tick")
	}
	if len(d.tasks) == 0 {
		return true, nil
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}

	d.ticking = true
	defer func() {
		d.ticking = false
		d.current = nil
		d.inHook = false
	}()

	var start time.Time
	if d.debug != nil {
		start = time.Now()
		d.stats = tickStats{}
	}

	dt := DeltaTime(d.clock)
	queue := make([]*Task, 0, len(d.tasks))
	for i := len(d.tasks) - 1; i >= 0; i-- {
		queue = append(queue, d.tasks[i])
	}

	var carried []*Task
	for len(queue) > 0 {
		t := queue[len(queue)-1]
		queue = queue[:len(queue)-1]
		if t.Canceled() {
			continue
		}

		s, ok, perr := d.resume(t)
		if perr != nil {
			d.ticking = false
			d.Close()
			return false, perr
		}
		if !ok {
			t.cancel()
			continue
		}

		switch s.kind {
		case suspendChild:
			t.add(s.child)
			queue = append(queue, t, s.child)
			continue
		case suspendAwait:
			if s.op != nil {
				t.value, t.err = s.op.Wait(ctx)
				queue = append(queue, t)
				continue
			}
			d.logger.Warn(LogPayload{
				Message: "task awaited a nil operation; treating it as a frame",
				Inspect: t.Name,
			})
		}

		t.update(dt)
		for _, c := range t.drain() {
			if c.canceled {
				continue
			}
			t.add(c)
			carried = append(carried, c)
			d.stats.spawned++
		}
		carried = append(carried, t)
	}

	d.tasks = d.tasks[:0]
	for _, t := range carried {
		if !t.Canceled() {
			d.tasks = append(d.tasks, t)
		}
	}
	for _, t := range d.tasks {
		d.runDeferred(t)
	}
	d.reap()

	if d.debug != nil {
		d.stats.alive = len(d.tasks)
		d.stats.elapsed = time.Since(start)
		d.debugLog()
	}
	return len(d.tasks) == 0, nil
}

// resume advances t's routine to its next suspension. A paused task is not
// resumed and behaves as if it yielded a frame.
func (d *Driver) resume(t *Task) (s suspension, ok bool, err error) {
	if t.Paused() {
		return suspension{kind: suspendFrame}, true, nil
	}
	if t.stopped {
		return suspension{}, false, nil
	}
	if t.next == nil {
		t.start()
		d.started = append(d.started, t)
	}
	defer func() {
		d.current = nil
		if r := recover(); r != nil {
			tp, isTask := r.(*TaskPanic)
			if !isTask {
				panic(r)
			}
			t.stopped = true
			err = tp
		}
	}()
	d.current = t
	d.stats.resumed++
	s, ok = t.next()
	return s, ok, nil
}

func (d *Driver) runDeferred(t *Task) {
	if t.deferred.Len() == 0 {
		return
	}
	d.current = t
	d.inHook = true
	t.deferred.Dispatch(t)
	d.inHook = false
	d.current = nil
}

// reap stops the coroutines of canceled tasks.
func (d *Driver) reap() {
	live := d.started[:0]
	for _, t := range d.started {
		if t.Canceled() {
			t.halt()
			continue
		}
		live = append(live, t)
	}
	clear(d.started[len(live):])
	d.started = live
}

// Close cancels the whole tree and stops every coroutine. Calling Next
// afterwards panics. Close may not be called from inside a routine.
func (d *Driver) Close() {
	if d.closed {
		return
	}
	if d.ticking {
		panic("flipbook: Close called from inside a tick")
	}
	d.closed = true
	d.root.cancel()
	for _, t := range d.started {
		t.canceled = true
		t.halt()
	}
	d.started = nil
	d.tasks = nil
}

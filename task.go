package flipbook

import (
	"context"
	"fmt"
	"iter"
	"runtime/debug"
)

// Routine is the body of a task. It runs on its own coroutine and suspends
// through the methods of the Task it receives.
type Routine func(t *Task)

// Awaitable is an external operation a task can suspend on. Wait is called on
// the tick goroutine and blocks the tick until it returns.
type Awaitable interface {
	Wait(ctx context.Context) (any, error)
}

// AwaitFunc adapts a function to Awaitable.
type AwaitFunc func(ctx context.Context) (any, error)

func (f AwaitFunc) Wait(ctx context.Context) (any, error) { return f(ctx) }

type suspendKind uint8

const (
	suspendFrame suspendKind = iota
	suspendChild
	suspendAwait
)

// suspension is the value a routine hands to the driver when it gives up
// control: advance a frame, run a nested child, or await an operation.
type suspension struct {
	kind  suspendKind
	child *Task
	op    Awaitable
}

// Task is one cooperatively scheduled routine in a scheduler tree. A parent
// exclusively owns its children; canceling a task implicitly cancels its
// whole subtree.
//
// Methods that suspend (Frame, Run, Await, Join, JoinAny) may only be called
// from the task's own routine.
type Task struct {
	// ID is unique within the task's driver.
	ID uint32
	// Name is used in diagnostics.
	Name string

	d        *Driver
	parent   *Task
	children []*Task
	routine  Routine

	next    func() (suspension, bool)
	stop    func()
	yield   func(suspension) bool
	stopped bool

	time  float64
	fixed float64

	canceled bool
	paused   bool

	// queue holds tasks spawned into this tree, pending addition at this
	// task's next frame boundary. Only the root's queue is used.
	queue []*Task

	deferred EventDispatcher[*Task]
	// ended fires once when the coroutine is halted.
	ended EventDispatcher[*Task]

	value any
	err   error
}

func (d *Driver) newTask(r Routine, name string) *Task {
	d.nextID++
	if r == nil {
		r = Noop
	}
	return &Task{ID: d.nextID, Name: name, d: d, routine: r}
}

// body is the coroutine function driven by iter.Pull.
func (t *Task) body(yield func(suspension) bool) {
	t.yield = yield
	defer func() {
		r := recover()
		if r == nil || r == errTaskStopped {
			return
		}
		if tp, ok := r.(*TaskPanic); ok {
			panic(tp)
		}
		panic(&TaskPanic{Task: t.Name, Value: r, Stack: debug.Stack()})
	}()
	t.routine(t)
}

func (t *Task) start() {
	next, stop := iter.Pull(iter.Seq[suspension](t.body))
	t.next = next
	t.stop = stop
}

// halt stops the coroutine if it was ever started. Must not be called while
// the coroutine is running.
func (t *Task) halt() {
	if t.stop != nil && !t.stopped {
		t.stopped = true
		t.stop()
	}
	t.ended.Dispatch(t)
	t.ended.Clear()
}

// onEnd registers fn to run when the driver stops t after it finished or was
// canceled.
func (t *Task) onEnd(fn func()) func() {
	return t.ended.Subscribe(func(*Task) { fn() })
}

func (t *Task) suspend(s suspension) {
	if !t.yield(s) {
		panic(errTaskStopped)
	}
}

func (t *Task) mustRun(op string) {
	if t.d == nil || t.d.current != t || t.d.inHook {
		panic(fmt.Sprintf("flipbook: %s called outside of task %q", op, t.Name))
	}
}

func (t *Task) mustActive(op string) {
	if t.d == nil || t.d.current != t {
		panic(fmt.Sprintf("flipbook: %s called outside of task %q", op, t.Name))
	}
}

// Frame suspends the routine until the next tick.
func (t *Task) Frame() {
	t.mustRun("Frame")
	t.suspend(suspension{kind: suspendFrame})
}

// Run starts r as a child of t. The child runs immediately, within the
// current tick, until its first suspension; then t continues. The child is
// canceled when t finishes.
func (t *Task) Run(r Routine) *Task {
	t.mustRun("Run")
	child := t.d.newTask(r, "")
	t.suspend(suspension{kind: suspendChild, child: child})
	return child
}

// Spawn registers r as a child of the tree root, so it outlives the scope
// that created it. Spawned tasks are attached at the root's next frame
// boundary and first run on the following tick.
func (t *Task) Spawn(r Routine) *Task {
	t.mustActive("Spawn")
	child := t.d.newTask(r, "")
	root := t.Root()
	root.queue = append(root.queue, child)
	return child
}

// Await suspends the routine until op completes and returns its result.
func (t *Task) Await(op Awaitable) (any, error) {
	t.mustRun("Await")
	t.suspend(suspension{kind: suspendAwait, op: op})
	v, err := t.value, t.err
	t.value, t.err = nil, nil
	return v, err
}

// Await suspends t until fn returns. fn runs on the tick goroutine with the
// context passed to Driver.Next.
func Await[T any](t *Task, fn func(ctx context.Context) (T, error)) (T, error) {
	v, err := t.Await(AwaitFunc(func(ctx context.Context) (any, error) {
		return fn(ctx)
	}))
	if err != nil {
		var zero T
		return zero, err
	}
	r, _ := v.(T)
	return r, nil
}

// Cancel cancels each task and its subtree. The canceled task's time is
// aligned to t's current time, so a task canceled before it ever ran
// contributes no elapsed time to a later Join.
func (t *Task) Cancel(tasks ...*Task) {
	t.mustActive("Cancel")
	for _, task := range tasks {
		if task == nil {
			continue
		}
		if !task.Canceled() {
			task.time = t.time
		}
		task.cancel()
	}
}

func (t *Task) cancel() {
	t.deferred.Clear()
	t.canceled = true
	t.parent = nil
	for _, q := range t.queue {
		q.canceled = true
	}
	t.queue = nil
}

func (t *Task) add(child *Task) {
	child.parent = t
	child.canceled = false
	child.time = t.time
	child.fixed = t.fixed
	t.children = append(t.children, child)
	if child.Name == "" {
		child.Name = fmt.Sprintf("%s/%d", t.Name, len(t.children))
	}
	if t.d.debug != nil {
		debugCheckTaskDepth(t.d.debug, child)
		debugCheckChildCount(t.d.debug, t)
	}
}

// update prepares the task for the next tick.
func (t *Task) update(dt float64) {
	if !t.Paused() {
		t.time += dt
		t.fixed += dt
	}
	live := t.children[:0]
	for _, c := range t.children {
		if !c.Canceled() {
			live = append(live, c)
		}
	}
	clear(t.children[len(live):])
	t.children = live
}

func (t *Task) drain() []*Task {
	q := t.queue
	t.queue = nil
	return q
}

// Pause stops or resumes the task. A paused task is skipped by the driver and
// its time does not advance. Pausing a task pauses its subtree.
func (t *Task) Pause(paused bool) { t.paused = paused }

// Paused reports whether t or any of its ancestors is paused.
func (t *Task) Paused() bool {
	return t.paused || (t.parent != nil && t.parent.Paused())
}

// Canceled reports whether t or any of its ancestors has been canceled or has
// finished.
func (t *Task) Canceled() bool {
	return t.canceled || (t.parent != nil && t.parent.Canceled())
}

// Time is the task's logical time in seconds. Waits may leave it slightly
// ahead of the frame-quantized Fixed time.
func (t *Task) Time() float64 { return t.time }

// SetTime overrides the logical time.
func (t *Task) SetTime(v float64) { t.time = v }

// Fixed is the task's time quantized to whole frames.
func (t *Task) Fixed() float64 { return t.fixed }

// Parent returns the owning task, or nil for a root or a canceled task.
func (t *Task) Parent() *Task { return t.parent }

// Root returns the root of t's tree.
func (t *Task) Root() *Task {
	r := t
	for r.parent != nil {
		r = r.parent
	}
	return r
}

// Children returns a copy of t's live children.
func (t *Task) Children() []*Task {
	out := make([]*Task, len(t.children))
	copy(out, t.children)
	return out
}

// Clock returns the clock of t's driver.
func (t *Task) Clock() Clock { return t.d.clock }

// Logger returns the logger of t's driver.
func (t *Task) Logger() Logger { return t.d.logger }

// OnDeferred subscribes fn to run once per tick after every task has been
// resumed, for as long as t is alive.
func (t *Task) OnDeferred(fn func(*Task)) func() {
	return t.deferred.Subscribe(fn)
}

// Noop is a routine that finishes immediately.
func Noop(*Task) {}

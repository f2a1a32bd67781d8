package flipbook

import "math"

// WaitFor suspends t for the given number of seconds.
//
// The wait ends on the tick whose fixed time comes within one frame of the
// target, and t's time is then set to exactly the target. Durations shorter
// than a frame therefore accumulate, keeping total logical time independent
// of the frame rate.
func WaitFor(t *Task, seconds float64) {
	step := FramesToSeconds(t.Clock(), 1)
	target := t.time + seconds
	for target-step > t.fixed {
		t.Frame()
	}
	t.time = target
}

// WaitUntil suspends t until cond reports true. cond is checked before each
// frame, so a condition that already holds does not suspend.
func WaitUntil(t *Task, cond func() bool) {
	for !cond() {
		t.Frame()
	}
}

// Delay waits for the given number of seconds, then runs r inline.
func Delay(t *Task, seconds float64, r Routine) {
	WaitFor(t, seconds)
	if r != nil {
		r(t)
	}
}

// Loop runs fn count times inline. fn is responsible for suspending.
func Loop(t *Task, count int, fn func(t *Task, i int)) {
	for i := 0; i < count; i++ {
		fn(t, i)
	}
}

// LoopForever runs fn inline until the task is canceled. An iteration that
// did not advance the task's fixed time is followed by a frame, so a body
// that never suspends cannot stall the tick.
func LoopForever(t *Task, fn func(t *Task, i int)) {
	for i := 0; ; i++ {
		before := t.fixed
		fn(t, i)
		if t.fixed == before {
			t.Frame()
		}
	}
}

// All runs every routine concurrently as children of t and waits for all of
// them to finish.
func All(t *Task, routines ...Routine) {
	t.Join(runAll(t, routines)...)
}

// Any runs every routine concurrently as children of t and waits for the
// first one to finish. The others keep running until t finishes.
func Any(t *Task, routines ...Routine) {
	t.JoinAny(runAll(t, routines)...)
}

func runAll(t *Task, routines []Routine) []*Task {
	tasks := make([]*Task, 0, len(routines))
	for _, r := range routines {
		tasks = append(tasks, t.Run(r))
	}
	return tasks
}

// Chain runs the routines one after another, inline.
func Chain(t *Task, routines ...Routine) {
	for _, r := range routines {
		r(t)
	}
}

// Sequence starts the routines one after another with delay seconds between
// consecutive starts, then waits for all of them.
func Sequence(t *Task, delay float64, routines ...Routine) {
	tasks := make([]*Task, 0, len(routines))
	for _, r := range routines {
		tasks = append(tasks, t.Run(r))
		WaitFor(t, delay)
	}
	t.Join(tasks...)
}

// Timeout runs r as a child and waits at most seconds for it. It reports
// whether r finished in time; on timeout r is canceled.
func Timeout(t *Task, seconds float64, r Routine) bool {
	task := t.Run(r)
	timer := t.Run(func(t *Task) { WaitFor(t, seconds) })
	t.JoinAny(task, timer)
	finished := task.Canceled()
	t.Cancel(task, timer)
	return finished
}

// Tween calls onProgress once per tick with the completion ratio in [0, 1]
// and the elapsed seconds, over the given duration. The final call is always
// onProgress(1, seconds), after which t's time equals the end time exactly.
func Tween(t *Task, seconds float64, onProgress func(value, elapsed float64)) {
	start := t.time
	end := start + seconds
	onProgress(0, 0)
	for end > t.fixed {
		elapsed := t.fixed - start
		if elapsed > 0 {
			onProgress(elapsed/seconds, elapsed)
		}
		t.Frame()
	}
	t.time = end
	onProgress(1, seconds)
}

// SpringConfig describes a damped spring driven toward its rest position.
type SpringConfig struct {
	Mass            float64
	Stiffness       float64
	Damping         float64
	InitialVelocity float64
}

// Spring presets.
var (
	DefaultSpring = SpringConfig{Mass: 0.05, Stiffness: 10, Damping: 0.5}
	BeatSpring    = SpringConfig{Mass: 0.13, Stiffness: 5.7, Damping: 1.2, InitialVelocity: 10}
	PlopSpring    = SpringConfig{Mass: 0.2, Stiffness: 20, Damping: 0.68}
	BounceSpring  = SpringConfig{Mass: 0.08, Stiffness: 4.75, Damping: 0.05}
	SwingSpring   = SpringConfig{Mass: 0.39, Stiffness: 19.85, Damping: 2.82}
	JumpSpring    = SpringConfig{Mass: 0.04, Stiffness: 10, Damping: 0.7, InitialVelocity: 8}
	StrikeSpring  = SpringConfig{Mass: 0.03, Stiffness: 20, Damping: 0.9, InitialVelocity: 4.8}
	SmoothSpring  = SpringConfig{Mass: 0.16, Stiffness: 15.35, Damping: 1.88}
)

// DefaultSettleTolerance is used by Spring when no positive tolerance is given.
const DefaultSettleTolerance = 0.001

// springStep is the simulation step in seconds, independent of the frame rate.
const springStep = 1.0 / 120

// Spring moves a value from from to to with a spring simulation, calling
// onProgress once per tick with the position and the elapsed seconds. It ends
// once both the distance to the target and the velocity are below
// settleTolerance. t's time is then set to the moment the spring settled and
// the final call is onProgress(to, elapsed).
//
// An invalid config is logged as an error and Spring returns at once. A spring
// without damping may never settle.
func Spring(t *Task, spring SpringConfig, from, to, settleTolerance float64, onProgress func(value, elapsed float64)) {
	switch {
	case spring.Mass <= 0:
		t.Logger().Error(LogPayload{Message: "spring mass must be greater than 0", Inspect: t.Name})
		return
	case spring.Stiffness < 0:
		t.Logger().Error(LogPayload{Message: "spring stiffness must be greater or equal to 0", Inspect: t.Name})
		return
	case spring.Damping < 0:
		t.Logger().Error(LogPayload{Message: "spring damping must be greater or equal to 0", Inspect: t.Name})
		return
	}
	if settleTolerance <= 0 {
		settleTolerance = DefaultSettleTolerance
	}

	position, velocity := from, spring.InitialVelocity
	update := func(dt float64) {
		// Hooke's law with linear damping.
		force := -spring.Stiffness*(position-to) - spring.Damping*velocity
		velocity += force / spring.Mass * dt
		position += velocity * dt
	}

	start := t.time
	sim := start
	onProgress(from, 0)
	for settled := false; !settled; {
		for sim < t.fixed {
			if rest := t.fixed - sim; rest < springStep {
				update(rest)
				sim = t.fixed
			} else {
				update(springStep)
				sim += springStep
			}
			if math.Abs(to-position) < settleTolerance && math.Abs(velocity) < settleTolerance {
				t.time = sim
				settled = true
				break
			}
		}
		if !settled {
			onProgress(position, t.fixed-start)
			t.Frame()
		}
	}
	onProgress(to, t.time-start)
}

// EveryTimer calls a callback at a fixed interval while its Routine runs.
type EveryTimer struct {
	interval float64
	callback func(tick int)
	changed  bool
}

// Every returns a timer calling callback every interval seconds. Run the
// timer with t.Run(timer.Routine) or t.Spawn(timer.Routine).
func Every(interval float64, callback func(tick int)) *EveryTimer {
	return &EveryTimer{interval: interval, callback: callback}
}

// Routine drives the timer. It never finishes on its own.
func (e *EveryTimer) Routine(t *Task) {
	acc := 0
	tick := 0
	e.callback(tick)
	e.changed = true
	for {
		if acc >= SecondsToFrames(t.Clock(), e.interval) {
			acc = 0
			tick++
			e.callback(tick)
			e.changed = true
		} else {
			e.changed = false
		}
		acc++
		t.Frame()
	}
}

// SetInterval changes the interval used from the next tick.
func (e *EveryTimer) SetInterval(seconds float64) {
	e.interval = seconds
	e.changed = false
}

// SetCallback replaces the callback.
func (e *EveryTimer) SetCallback(fn func(tick int)) {
	e.callback = fn
	e.changed = false
}

// Sync suspends t until the timer's callback next fires.
func (e *EveryTimer) Sync(t *Task) {
	for !e.changed {
		t.Frame()
	}
}

package flipbook

// signalInput is the raw value of a signal: a constant or a derivation.
// Inputs are compared by pointer, so re-setting the exact same input is a
// no-op while any new derivation always invalidates.
type signalInput[T comparable] struct {
	value T
	fn    func() T
}

// Signal is a settable, tweenable reactive cell. Its value is either a
// constant or a function of other cells, recomputed lazily when one of the
// cells it read changes.
type Signal[T comparable] struct {
	g  *Graph
	id CellID

	initial *signalInput[T]
	current *signalInput[T]
	last    T

	interp   Interpolator[T]
	tweening bool
}

// SignalOption configures a Signal.
type SignalOption[T comparable] func(*Signal[T])

// WithInterpolator sets the signal's default tween interpolation.
func WithInterpolator[T comparable](fn Interpolator[T]) SignalOption[T] {
	return func(s *Signal[T]) { s.interp = fn }
}

// Named sets the cell name used in diagnostics.
func Named[T comparable](name string) SignalOption[T] {
	return func(s *Signal[T]) {
		if c := s.g.lookup(s.id); c != nil {
			c.name = name
		}
	}
}

// NewSignal returns a signal holding v.
func NewSignal[T comparable](g *Graph, v T, opts ...SignalOption[T]) *Signal[T] {
	return newSignal(g, &signalInput[T]{value: v}, opts)
}

// NewSignalFunc returns a signal derived from fn.
func NewSignalFunc[T comparable](g *Graph, fn func() T, opts ...SignalOption[T]) *Signal[T] {
	return newSignal(g, &signalInput[T]{fn: fn}, opts)
}

func newSignal[T comparable](g *Graph, in *signalInput[T], opts []SignalOption[T]) *Signal[T] {
	s := &Signal[T]{
		g:       g,
		id:      g.newCell(""),
		initial: in,
		current: in,
		last:    in.value,
		interp:  defaultInterpolator[T](),
	}
	for _, opt := range opts {
		opt(s)
	}
	if in.fn == nil {
		g.markClean(s.id)
	}
	return s
}

// ID returns the signal's cell handle.
func (s *Signal[T]) ID() CellID { return s.id }

// Get returns the current value, recomputing a stale derivation first. When
// called during another cell's evaluation, that cell becomes an observer of
// this one. A derivation that panics is logged and the last good value is
// kept; a circular dependency panics with *CircularDependencyError.
func (s *Signal[T]) Get() T {
	c := s.g.lookup(s.id)
	if c == nil {
		return s.last
	}
	if c.dirty && s.current.fn != nil {
		s.g.unsubscribeSources(s.id)
		fn := s.current.fn
		s.g.evaluate(s.id, func() { s.last = fn() })
	}
	s.g.markClean(s.id)
	s.g.collect(s.id)
	return s.last
}

// Set replaces the signal's value. Setting the value it already holds as a
// constant does nothing.
func (s *Signal[T]) Set(v T) {
	if s.current.fn == nil && s.current.value == v {
		return
	}
	s.setInput(&signalInput[T]{value: v})
}

// SetFunc makes the signal derived from fn.
func (s *Signal[T]) SetFunc(fn func() T) {
	s.setInput(&signalInput[T]{fn: fn})
}

func (s *Signal[T]) setInput(in *signalInput[T]) {
	if s.current == in {
		return
	}
	s.current = in
	if in.fn == nil {
		s.last = in.value
	}
	s.g.unsubscribeSources(s.id)
	s.g.invalidate(s.id)
}

// Raw returns the raw input: the constant value, or the derivation function
// when the signal is derived.
func (s *Signal[T]) Raw() (value T, fn func() T) {
	return s.current.value, s.current.fn
}

// Reset restores the input the signal was created with.
func (s *Signal[T]) Reset() {
	if s.initial.fn == nil && s.current.fn == nil && s.current.value == s.initial.value {
		return
	}
	s.setInput(s.initial)
}

// Save freezes the current value, replacing a derivation with a constant.
func (s *Signal[T]) Save() {
	s.Set(s.Get())
}

// IsInitial reports whether the signal still holds its initial input. The
// caller is subscribed as if it had read the signal.
func (s *Signal[T]) IsInitial() bool {
	// A read lowers the dirty flag, so the next Set notifies the caller.
	s.Get()
	if s.current == s.initial {
		return true
	}
	return s.current.fn == nil && s.initial.fn == nil && s.current.value == s.initial.value
}

// IsTweening reports whether a tween is currently driving the signal.
func (s *Signal[T]) IsTweening() bool { return s.tweening }

// SetInterpolator replaces the default tween interpolation.
func (s *Signal[T]) SetInterpolator(fn Interpolator[T]) { s.interp = fn }

// Subscribe calls fn whenever the signal becomes stale.
func (s *Signal[T]) Subscribe(fn func()) func() {
	return s.g.subscribe(s.id, fn)
}

// Dispose removes the signal from its graph. Get keeps returning the last
// value without tracking.
func (s *Signal[T]) Dispose() { s.g.Dispose(s.id) }

// Tween returns an animation tweening the signal to target over duration
// seconds with DefaultTiming and the signal's interpolator.
func (s *Signal[T]) Tween(target T, duration float64) *Animation[T] {
	return s.TweenWith(target, duration, nil, nil)
}

// TweenWith is Tween with explicit timing and interpolation. Nil arguments
// select the defaults.
func (s *Signal[T]) TweenWith(target T, duration float64, timing TimingFunc, interp Interpolator[T]) *Animation[T] {
	a := &Animation[T]{signal: s}
	return a.ToWith(target, duration, timing, interp)
}

// tweenTo samples interp(from, target, timing(progress)) once per tick and
// finishes with an exact Set(target).
func (s *Signal[T]) tweenTo(t *Task, target T, duration float64, timing TimingFunc, interp Interpolator[T]) {
	if timing == nil {
		timing = DefaultTiming
	}
	if interp == nil {
		interp = s.interp
	}
	from := s.Get()
	s.tweening = true
	defer func() { s.tweening = false }()
	Tween(t, duration, func(v, _ float64) {
		s.Set(interp(from, target, timing(v)))
	})
	s.Set(target)
}

// Animation is a chain of steps applied to one signal. Build it with the
// chaining methods and run it with Play, either inline or as a child task:
//
//	anim := x.Tween(100, 1).Wait(0.5).Back(1)
//	t.Run(anim.Play)
type Animation[T comparable] struct {
	signal *Signal[T]
	steps  []func(t *Task, start T)
}

// To appends a tween to target.
func (a *Animation[T]) To(target T, duration float64) *Animation[T] {
	return a.ToWith(target, duration, nil, nil)
}

// ToWith appends a tween with explicit timing and interpolation.
func (a *Animation[T]) ToWith(target T, duration float64, timing TimingFunc, interp Interpolator[T]) *Animation[T] {
	a.steps = append(a.steps, func(t *Task, _ T) {
		a.signal.tweenTo(t, target, duration, timing, interp)
	})
	return a
}

// Wait appends a pause.
func (a *Animation[T]) Wait(seconds float64) *Animation[T] {
	a.steps = append(a.steps, func(t *Task, _ T) { WaitFor(t, seconds) })
	return a
}

// Do appends a synchronous callback.
func (a *Animation[T]) Do(fn func()) *Animation[T] {
	a.steps = append(a.steps, func(*Task, T) { fn() })
	return a
}

// Back appends a tween back to the value the signal held when Play started.
func (a *Animation[T]) Back(duration float64) *Animation[T] {
	a.steps = append(a.steps, func(t *Task, start T) {
		a.signal.tweenTo(t, start, duration, nil, nil)
	})
	return a
}

// Run appends a routine executed inline.
func (a *Animation[T]) Run(r Routine) *Animation[T] {
	a.steps = append(a.steps, func(t *Task, _ T) { r(t) })
	return a
}

// Play executes the steps in order on t.
func (a *Animation[T]) Play(t *Task) {
	start := a.signal.Get()
	for _, step := range a.steps {
		step(t, start)
	}
}

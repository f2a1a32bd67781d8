package flipbook

import (
	"context"
	"errors"
	"fmt"
)

// SceneState is the lifecycle state of a scene run. States only move forward.
type SceneState uint8

const (
	// SceneInitial is entered on reset.
	SceneInitial SceneState = iota
	// SceneAfterTransitionIn is entered once the incoming transition is done.
	SceneAfterTransitionIn
	// SceneCanTransitionOut allows the next scene to start.
	SceneCanTransitionOut
	// SceneFinished is entered when the root task finishes.
	SceneFinished
)

func (s SceneState) String() string {
	switch s {
	case SceneInitial:
		return "initial"
	case SceneAfterTransitionIn:
		return "after-transition-in"
	case SceneCanTransitionOut:
		return "can-transition-out"
	case SceneFinished:
		return "finished"
	}
	return fmt.Sprintf("SceneState(%d)", uint8(s))
}

// MarshalText encodes the state by name.
func (s SceneState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// CachedScene is the timing recorded by Recalculate. It lets a seek skip a
// whole scene without replaying it.
type CachedScene struct {
	FirstFrame         int
	LastFrame          int
	TransitionDuration int
	Duration           int
}

// SceneFunc is the body of a scene. It runs as the root task of the scene's
// scheduler and is re-run from scratch on every reset.
type SceneFunc func(s *Scene, t *Task)

// Scene is one independently timed animation with its own lifecycle.
type Scene struct {
	name string
	fn   SceneFunc

	playback *PlaybackManager
	scope    *Scope
	driver   *Driver
	previous *Scene
	view     any

	state  SceneState
	cached bool
	cache  ValueDispatcher[CachedScene]
	task   ValueDispatcher[*Task]

	reloaded     EventDispatcher[*Scene]
	recalculated EventDispatcher[*Scene]
	afterReset   EventDispatcher[*Scene]

	slides *Slides

	seed       uint64
	random     *Random
	events     map[string]TimeEvent
	registered []string
}

// NewScene returns a scene running fn. It must be handed to a
// PlaybackManager with Setup before use.
func NewScene(name string, fn SceneFunc) *Scene {
	s := &Scene{name: name, fn: fn, seed: seedOf(name)}
	s.slides = newSlides(s)
	return s
}

// Name returns the scene name.
func (s *Scene) Name() string { return s.name }

func (s *Scene) attach(p *PlaybackManager) { s.playback = p }

func (s *Scene) mustAttached() {
	if s.playback == nil {
		panic(fmt.Sprintf("flipbook: scene %q is not attached to a playback manager", s.name))
	}
}

// Playback returns the manager the scene belongs to.
func (s *Scene) Playback() *PlaybackManager { return s.playback }

// Graph returns the reactive graph shared by the manager's scenes.
func (s *Scene) Graph() *Graph {
	s.mustAttached()
	return s.playback.graph
}

// Logger returns the manager's logger.
func (s *Scene) Logger() Logger {
	s.mustAttached()
	return s.playback.logger
}

// Slides returns the scene's slide registry.
func (s *Scene) Slides() *Slides { return s.slides }

// State returns the lifecycle state.
func (s *Scene) State() SceneState { return s.state }

// Cache returns the recorded timing.
func (s *Scene) Cache() CachedScene { return s.cache.Current() }

// FirstFrame is the global frame at which the scene starts.
func (s *Scene) FirstFrame() int { return s.cache.current.FirstFrame }

// LastFrame is the global frame at which the scene can transition out.
func (s *Scene) LastFrame() int { return s.cache.current.FirstFrame + s.cache.current.Duration }

// Previous returns the outgoing scene during a transition, or nil.
func (s *Scene) Previous() *Scene { return s.previous }

// View returns the value set by SetView.
func (s *Scene) View() any { return s.view }

// SetView stores a value for renderers, typically the signals the scene
// animates. It is cleared on reset.
func (s *Scene) SetView(v any) { s.view = v }

// Random returns the generator of the current run. It is re-seeded on every
// reset, so a replay after a seek draws the same values.
func (s *Scene) Random() *Random {
	if s.random == nil {
		s.random = NewRandom(s.seed)
	}
	return s.random
}

// Seed returns the seed of Random. It defaults to a hash of the scene name.
func (s *Scene) Seed() uint64 { return s.seed }

// SetSeed replaces the seed of Random and invalidates the cached timing.
func (s *Scene) SetSeed(seed uint64) {
	s.seed = seed
	s.Reload(nil)
}

// Root returns the root task of the current run, or nil before Reset.
func (s *Scene) Root() *Task { return s.task.Current() }

// OnReset subscribes fn to resets.
func (s *Scene) OnReset(fn func(*Scene)) func() { return s.afterReset.Subscribe(fn) }

// OnReloaded subscribes fn to reloads.
func (s *Scene) OnReloaded(fn func(*Scene)) func() { return s.reloaded.Subscribe(fn) }

// OnRecalculated subscribes fn to the end of each recalculation.
func (s *Scene) OnRecalculated(fn func(*Scene)) func() { return s.recalculated.Subscribe(fn) }

// OnCacheChanged subscribes fn to cache updates.
func (s *Scene) OnCacheChanged(fn func(CachedScene)) func() { return s.cache.Subscribe(fn) }

// OnTaskChanged subscribes fn to root task replacement.
func (s *Scene) OnTaskChanged(fn func(*Task)) func() { return s.task.Subscribe(fn) }

// IsCached reports whether the recorded timing is valid.
func (s *Scene) IsCached() bool { return s.cached }

// IsFinished reports whether the root task has finished.
func (s *Scene) IsFinished() bool { return s.state == SceneFinished }

// CanTransitionOut reports whether the next scene may start.
func (s *Scene) CanTransitionOut() bool {
	return s.state == SceneCanTransitionOut || s.state == SceneFinished
}

// IsAfterTransitionIn reports whether the incoming transition is done.
func (s *Scene) IsAfterTransitionIn() bool { return s.state == SceneAfterTransitionIn }

// EnterAfterTransitionIn marks the incoming transition as done. Only valid
// from SceneInitial; otherwise a warning is logged and nothing changes.
func (s *Scene) EnterAfterTransitionIn() {
	if s.state != SceneInitial {
		s.Logger().Warn(LogPayload{
			Message: fmt.Sprintf("scene %q transitioned in an unexpected state: %s", s.name, s.state),
		})
		return
	}
	s.state = SceneAfterTransitionIn
	s.previous = nil
}

// EnterCanTransitionOut lets the next scene start. Valid from SceneInitial or
// SceneAfterTransitionIn; otherwise a warning is logged and nothing changes.
func (s *Scene) EnterCanTransitionOut() {
	if s.state != SceneAfterTransitionIn && s.state != SceneInitial {
		s.Logger().Warn(LogPayload{
			Message: fmt.Sprintf("scene %q was marked as finished in an unexpected state: %s", s.name, s.state),
		})
		return
	}
	s.state = SceneCanTransitionOut
}

// Next resumes the scene's root task for exactly one tick. If the task
// finishes, the scene becomes SceneFinished. A panic inside the scene is
// returned as a *SceneError; the run is torn down and marked finished.
func (s *Scene) Next(ctx context.Context) error {
	if s.driver == nil {
		if s.state == SceneFinished {
			return nil
		}
		panic(fmt.Sprintf("flipbook: scene %q used before Reset", s.name))
	}
	restore := s.Graph().useScope(s.scope)
	done, err := s.driver.Next(ctx)
	restore()
	if err != nil {
		var tp *TaskPanic
		if !errors.As(err, &tp) {
			return err
		}
		s.driver = nil
		s.state = SceneFinished
		s.Logger().Error(LogPayload{
			Message: tp.Error(),
			Stack:   string(tp.Stack),
			Inspect: s.name,
		})
		return &SceneError{Scene: s.name, Err: err}
	}
	if done {
		s.state = SceneFinished
	}
	return nil
}

// Reset rebuilds the root task, records previous for transition rendering and
// runs the first tick so the first frame is materialized.
func (s *Scene) Reset(ctx context.Context, previous *Scene) error {
	s.mustAttached()
	if s.driver != nil {
		s.driver.Close()
		s.driver = nil
	}
	g := s.Graph()
	if s.scope != nil {
		s.scope.Dispose()
	}
	s.scope = g.NewScope()
	s.view = nil
	s.previous = previous
	s.random = NewRandom(s.seed)
	s.registered = s.registered[:0]

	opts := []ScheduleOption{
		WithLogger(s.Logger()),
		WithRootName(s.name),
		WithTaskHook(func(root *Task) { s.task.SetCurrent(root) }),
	}
	if s.playback.debug != nil {
		opts = append(opts, WithDebug(s.playback.debug))
	}
	s.driver = Schedule(s.playback, func(t *Task) { s.fn(s, t) }, opts...)

	if s.cache.current.TransitionDuration == 0 {
		s.state = SceneAfterTransitionIn
		s.previous = nil
	} else {
		s.state = SceneInitial
	}
	s.afterReset.Dispatch(s)
	return s.Next(ctx)
}

// Reload marks the cached timing stale, optionally replacing the body.
func (s *Scene) Reload(fn SceneFunc) {
	if fn != nil {
		s.fn = fn
	}
	s.cached = false
	s.reloaded.Dispatch(s)
}

// Recalculate replays the scene at speed 1 from the current playback frame
// until it can transition out, recording its timing. setFrame receives every
// frame the replay passes through. A cached scene is skipped: only its first
// frame moves and setFrame jumps straight to its last frame. A panic inside
// the scene is returned as a *SceneError after the timing is recorded.
func (s *Scene) Recalculate(ctx context.Context, setFrame func(frame int)) error {
	s.mustAttached()
	cached := s.cache.current
	frame := s.playback.Frame()
	cached.FirstFrame = frame
	cached.LastFrame = frame + cached.Duration

	if s.cached {
		setFrame(cached.LastFrame)
		s.cache.SetCurrent(cached)
		return nil
	}

	s.cache.current.TransitionDuration = -1
	cached.TransitionDuration = -1

	// A failing scene ends its run early; its shortened timing is still
	// recorded so the rest of the timeline stays addressable.
	var sceneErr *SceneError
	keep := func(err error) error {
		if err == nil || errors.As(err, &sceneErr) {
			return nil
		}
		return err
	}
	if err := keep(s.Reset(ctx, nil)); err != nil {
		return err
	}
	for !s.CanTransitionOut() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if cached.TransitionDuration < 0 && s.state == SceneAfterTransitionIn {
			cached.TransitionDuration = frame - cached.FirstFrame
		}
		frame++
		setFrame(frame)
		if err := keep(s.Next(ctx)); err != nil {
			return err
		}
	}
	if cached.TransitionDuration < 0 {
		cached.TransitionDuration = 0
	}
	cached.LastFrame = frame
	cached.Duration = cached.LastFrame - cached.FirstFrame
	s.cached = true
	s.cache.SetCurrent(cached)
	s.recalculated.Dispatch(s)
	if sceneErr != nil {
		return sceneErr
	}
	return nil
}

// BeginSlide registers a slide at t's current time and suspends the scene
// until the slide is resumed or passed over.
func (s *Scene) BeginSlide(t *Task, name string) {
	s.slides.register(name, t.Fixed())
	t.Frame()
	for s.slides.shouldWait(name) {
		t.Frame()
	}
}

// Transition drives an incoming transition: fn receives the progress in
// [0, 1] once per tick over seconds, then the scene enters
// SceneAfterTransitionIn. Previous returns the outgoing scene meanwhile.
func (s *Scene) Transition(t *Task, seconds float64, fn func(progress float64)) {
	Tween(t, seconds, func(v, _ float64) {
		if fn != nil {
			fn(v)
		}
	})
	s.EnterAfterTransitionIn()
}

// Finish lets the next scene start while this one keeps running.
func (s *Scene) Finish() { s.EnterCanTransitionOut() }

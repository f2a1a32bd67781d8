// Package flipbook is a frame-stepped animation core: cooperative tasks that
// suspend once per frame, reactive signals whose dependencies are discovered
// as they are read, and a playback manager that turns a list of scenes into a
// seekable timeline.
//
// Drawing is not part of this package. A renderer reads the signals a scene
// exposes through [Scene.View]; see the player subpackage for an
// [Ebitengine] preview loop.
//
// # Quick start
//
// A scene is a routine. It creates signals, animates them and suspends with
// [Task.Frame] or any helper built on it:
//
//	intro := flipbook.NewScene("intro", func(s *flipbook.Scene, t *flipbook.Task) {
//		x := flipbook.NewSignal(s.Graph(), 0.0)
//		s.SetView(x)
//		x.Tween(300, 1).Wait(0.5).Back(1).Play(t)
//		s.BeginSlide(t, "end")
//	})
//
//	p := flipbook.NewPlaybackManager(flipbook.WithFPS(60))
//	p.Setup(intro)
//	_ = p.Recalculate(ctx)
//	_ = p.Reset(ctx)
//	for !p.Finished() {
//		p.Progress(ctx)
//	}
//
// # Tasks
//
// [Schedule] builds a task tree from a root [Routine] and returns a [Driver].
// Each call to [Driver.Next] is one tick: every live task is resumed once,
// depth-first. [Task.Run] starts a child that runs immediately in the same
// tick; [Task.Spawn] attaches a task to the tree root for the next tick.
// [Task.Join] and [Task.JoinAny] wait for children and advance the caller's
// logical time to theirs, so chained waits never drift with the frame rate.
//
// # Signals
//
// A [Signal] holds a constant or a function of other cells. Reading a cell
// while another one evaluates records a dependency; changing it marks the
// readers stale, and they recompute on their next read. [Computed],
// [NewEffect] and [NewDeferredEffect] build on the same [Graph]. A cell that
// reads itself, directly or not, panics with a [*CircularDependencyError].
//
// # Timeline
//
// A [PlaybackManager] owns the scenes and is their [Clock]. After
// [PlaybackManager.Recalculate] every scene knows its first and last frame,
// which lets [PlaybackManager.Seek] skip whole scenes. Slides registered
// with [Scene.BeginSlide] turn the timeline into a presentation driven by a
// [Presenter].
//
// [Ebitengine]: https://ebitengine.org
package flipbook

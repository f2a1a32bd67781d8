package flipbook

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
)

// PlaybackState tells scenes and slides what the manager is being used for.
type PlaybackState uint8

const (
	PlaybackPlaying PlaybackState = iota
	PlaybackRendering
	PlaybackPaused
	PlaybackPresenting
)

func (s PlaybackState) String() string {
	switch s {
	case PlaybackPlaying:
		return "playing"
	case PlaybackRendering:
		return "rendering"
	case PlaybackPaused:
		return "paused"
	case PlaybackPresenting:
		return "presenting"
	}
	return fmt.Sprintf("PlaybackState(%d)", uint8(s))
}

// PlaybackEventType identifies a PlaybackEvent.
type PlaybackEventType uint8

const (
	EventSceneChanged PlaybackEventType = iota
	EventSlideReached
	EventRecalculated
	EventSeeked
	EventFinished
)

func (t PlaybackEventType) String() string {
	switch t {
	case EventSceneChanged:
		return "scene-changed"
	case EventSlideReached:
		return "slide-reached"
	case EventRecalculated:
		return "recalculated"
	case EventSeeked:
		return "seeked"
	case EventFinished:
		return "finished"
	}
	return fmt.Sprintf("PlaybackEventType(%d)", uint8(t))
}

// PlaybackEvent describes a timeline change for external integrations.
type PlaybackEvent struct {
	Type  PlaybackEventType
	Scene string
	Slide string
	Frame int
}

// EventSink receives playback events. Events are emitted synchronously on the
// tick goroutine.
type EventSink interface {
	EmitEvent(PlaybackEvent)
}

// PlaybackManager turns an ordered list of scenes into one seekable timeline.
// It is the Clock of every scene it owns.
type PlaybackManager struct {
	frame    int
	speed    int
	fps      float64
	duration int
	finished bool
	state    PlaybackState

	scenes   ValueDispatcher[[]*Scene]
	current  ValueDispatcher[*Scene]
	previous *Scene
	slides   []*Slide

	graph  *Graph
	logger Logger
	sink   EventSink
	debug  io.Writer
}

// PlaybackOption configures a PlaybackManager.
type PlaybackOption func(*PlaybackManager)

// WithFPS sets the frame rate. The default is 30.
func WithFPS(fps float64) PlaybackOption {
	return func(p *PlaybackManager) { p.fps = fps }
}

// WithPlaybackLogger sets the logger shared by the manager, its scenes and
// its graph.
func WithPlaybackLogger(l Logger) PlaybackOption {
	return func(p *PlaybackManager) { p.logger = l }
}

// WithEventSink forwards playback events to sink.
func WithEventSink(sink EventSink) PlaybackOption {
	return func(p *PlaybackManager) { p.sink = sink }
}

// WithGraph makes the scenes share an existing graph instead of a new one.
func WithGraph(g *Graph) PlaybackOption {
	return func(p *PlaybackManager) { p.graph = g }
}

// NewPlaybackManager returns a paused manager with no scenes.
func NewPlaybackManager(opts ...PlaybackOption) *PlaybackManager {
	p := &PlaybackManager{
		speed: 1,
		fps:   30,
		state: PlaybackPaused,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = DefaultLogger()
	}
	if p.graph == nil {
		p.graph = NewGraph(p.logger)
	}
	if p.fps <= 0 {
		panic("flipbook: fps must be positive")
	}
	return p
}

// Setup installs the ordered scene list and makes the first scene current.
func (p *PlaybackManager) Setup(scenes ...*Scene) {
	if len(scenes) == 0 {
		panic("flipbook: Setup called without scenes")
	}
	for _, s := range scenes {
		s.attach(p)
	}
	p.scenes.SetCurrent(scenes)
	p.current.SetCurrent(scenes[0])
	p.previous = nil
}

func (p *PlaybackManager) mustSetup() {
	if p.current.current == nil {
		panic(ErrNoScenes)
	}
}

// Progress advances the timeline by one tick and reports whether the last
// scene has finished.
func (p *PlaybackManager) Progress(ctx context.Context) (bool, error) {
	p.mustSetup()
	finished, err := p.next(ctx)
	if finished && !p.finished {
		p.emit(PlaybackEvent{Type: EventFinished, Scene: p.current.current.name, Frame: p.frame})
	}
	p.finished = finished
	return finished, err
}

// next ticks the outgoing scene, then the current one, and hands over to the
// following scenes for as long as the current one allows it. Scene failures
// are collected and do not stop the timeline.
func (p *PlaybackManager) next(ctx context.Context) (bool, error) {
	var errs []error
	keep := func(err error) error {
		var sceneErr *SceneError
		if errors.As(err, &sceneErr) {
			errs = append(errs, err)
			return nil
		}
		return err
	}

	if p.previous != nil {
		if err := keep(p.previous.Next(ctx)); err != nil {
			return false, err
		}
		if p.previous.IsFinished() {
			p.previous = nil
		}
	}

	p.frame += p.speed

	current := p.current.current
	if current.IsFinished() {
		return true, errors.Join(errs...)
	}

	if err := keep(current.Next(ctx)); err != nil {
		return false, err
	}
	if current.IsAfterTransitionIn() {
		p.previous = nil
	}

	for current.CanTransitionOut() {
		next := p.nextScene(current)
		if next == nil {
			break
		}
		p.previous = current
		current = next
		p.current.SetCurrent(next)
		if err := keep(next.Reset(ctx, p.previous)); err != nil {
			return false, err
		}
		p.emit(PlaybackEvent{Type: EventSceneChanged, Scene: next.name, Frame: p.frame})
		if next.IsAfterTransitionIn() {
			p.previous = nil
		}
	}

	return current.IsFinished(), errors.Join(errs...)
}

func (p *PlaybackManager) nextScene(s *Scene) *Scene {
	scenes := p.scenes.current
	for i, sc := range scenes {
		if sc == s {
			if i+1 < len(scenes) {
				return scenes[i+1]
			}
			return nil
		}
	}
	return nil
}

// Seek moves the timeline to frame f. A scene is only reset when f lies
// behind the current frame or past the current scene's cached end;
// otherwise playback simply advances to f.
func (p *PlaybackManager) Seek(ctx context.Context, f int) (bool, error) {
	p.mustSetup()
	current := p.current.current
	var errs []error
	if f <= p.frame || (current.IsCached() && current.LastFrame() < f) {
		scene := p.findBestScene(f)
		if scene != current {
			p.previous = nil
			p.current.SetCurrent(scene)
			p.frame = scene.FirstFrame()
			if err := p.resetScene(ctx, scene, &errs); err != nil {
				return false, err
			}
			p.emit(PlaybackEvent{Type: EventSceneChanged, Scene: scene.name, Frame: p.frame})
		} else if p.frame >= f {
			p.previous = nil
			p.frame = scene.FirstFrame()
			if err := p.resetScene(ctx, scene, &errs); err != nil {
				return false, err
			}
		}
	}

	p.finished = false
	for p.frame < f && !p.finished {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		finished, err := p.next(ctx)
		if err != nil {
			var sceneErr *SceneError
			if !errors.As(err, &sceneErr) {
				return false, err
			}
			errs = append(errs, err)
		}
		p.finished = finished
	}
	p.emit(PlaybackEvent{Type: EventSeeked, Scene: p.current.current.name, Frame: p.frame})
	return p.finished, errors.Join(errs...)
}

func (p *PlaybackManager) resetScene(ctx context.Context, s *Scene, errs *[]error) error {
	err := s.Reset(ctx, nil)
	var sceneErr *SceneError
	if errors.As(err, &sceneErr) {
		*errs = append(*errs, err)
		return nil
	}
	return err
}

// findBestScene returns the first scene that is uncached or ends after f.
func (p *PlaybackManager) findBestScene(f int) *Scene {
	scenes := p.scenes.current
	last := scenes[0]
	for i, s := range scenes {
		if !s.IsCached() {
			if i > 0 {
				p.logger.Warn(LogPayload{
					Message: "seeking into a scene whose timing is not cached",
					Remarks: "recalculate the timeline before seeking",
					Inspect: s.name,
				})
			}
			return s
		}
		if s.LastFrame() > f {
			return s
		}
		last = s
	}
	return last
}

// Reset rewinds to the first frame of the first scene.
func (p *PlaybackManager) Reset(ctx context.Context) error {
	p.mustSetup()
	p.previous = nil
	first := p.scenes.current[0]
	p.current.SetCurrent(first)
	p.frame = 0
	p.finished = false
	return first.Reset(ctx, nil)
}

// Reload invalidates the cached timing of every scene.
func (p *PlaybackManager) Reload() {
	for _, s := range p.scenes.current {
		s.Reload(nil)
	}
}

// Recalculate replays every scene at speed 1 from frame 0, recording each
// scene's timing and collecting the slides it registers. Failing scenes keep
// their shortened timing; their errors are joined and returned once every
// scene has been visited.
func (p *PlaybackManager) Recalculate(ctx context.Context) error {
	p.mustSetup()
	p.previous = nil
	speed := p.speed
	p.speed = 1
	defer func() { p.speed = speed }()
	p.frame = 0

	var errs []error
	var slides []*Slide
	for _, s := range p.scenes.current {
		err := s.Recalculate(ctx, func(frame int) { p.frame = frame })
		if err != nil {
			var sceneErr *SceneError
			if !errors.As(err, &sceneErr) {
				return err
			}
			errs = append(errs, err)
		}
		slides = append(slides, s.slides.All()...)
	}

	p.slides = slides
	p.duration = p.frame
	p.scenes.SetCurrent(p.scenes.current)
	p.emit(PlaybackEvent{Type: EventRecalculated, Frame: p.duration})
	return errors.Join(errs...)
}

// GoTo seeks to the slide with the given id and stops there.
func (p *PlaybackManager) GoTo(ctx context.Context, id string) error {
	for _, s := range p.slides {
		if s.ID == id {
			return p.seekSlide(ctx, s)
		}
	}
	return fmt.Errorf("%w: %s", ErrSlideNotFound, id)
}

// GoBack seeks to the previous slide. While the current scene waits at a
// slide that is the one before it; otherwise it is the last slide reached.
func (p *PlaybackManager) GoBack(ctx context.Context) error {
	p.mustSetup()
	current := p.current.current
	slide := current.slides.Current()
	if slide != nil && current.slides.IsWaiting() {
		i := p.slideIndex(slide.ID)
		if i > 0 {
			slide = p.slides[i-1]
		}
	}
	if slide == nil {
		if len(p.slides) == 0 {
			return nil
		}
		slide = p.slides[0]
	}
	return p.seekSlide(ctx, slide)
}

// GoForward seeks to the slide after the current one.
func (p *PlaybackManager) GoForward(ctx context.Context) error {
	p.mustSetup()
	if len(p.slides) == 0 {
		return nil
	}
	current := p.current.current.slides.Current()
	var slide *Slide
	if current == nil {
		slide = p.slides[0]
	} else if i := p.slideIndex(current.ID); i >= 0 && i+1 < len(p.slides) {
		slide = p.slides[i+1]
	}
	if slide == nil {
		return nil
	}
	return p.seekSlide(ctx, slide)
}

func (p *PlaybackManager) slideIndex(id string) int {
	for i, s := range p.slides {
		if s.ID == id {
			return i
		}
	}
	return -1
}

// seekSlide replays the slide's scene until it waits at the slide. Slides
// are only skipped outside of presenting, so the state is switched to
// playing for the duration of the seek.
func (p *PlaybackManager) seekSlide(ctx context.Context, slide *Slide) error {
	if p.state == PlaybackPresenting {
		p.state = PlaybackPlaying
		defer func() { p.state = PlaybackPresenting }()
	}

	scene := slide.Scene
	var errs []error
	if p.current.current != scene || scene.slides.DidHappen(slide.ID) {
		p.previous = nil
		changed := p.current.current != scene
		p.current.SetCurrent(scene)
		p.frame = scene.FirstFrame()
		scene.slides.SetTarget(slide.ID)
		if err := p.resetScene(ctx, scene, &errs); err != nil {
			return err
		}
		if changed {
			p.emit(PlaybackEvent{Type: EventSceneChanged, Scene: scene.name, Frame: p.frame})
		}
	}
	scene.slides.SetTarget(slide.ID)
	defer scene.slides.SetTarget("")

	p.finished = false
	for !scene.slides.IsWaitingFor(slide.ID) && !p.finished {
		if err := ctx.Err(); err != nil {
			return err
		}
		finished, err := p.next(ctx)
		if err != nil {
			var sceneErr *SceneError
			if !errors.As(err, &sceneErr) {
				return err
			}
			errs = append(errs, err)
		}
		p.finished = finished
		if p.current.current != scene {
			break
		}
	}
	return errors.Join(errs...)
}

func (p *PlaybackManager) emit(e PlaybackEvent) {
	if p.sink != nil {
		p.sink.EmitEvent(e)
	}
}

// Frame returns the global frame counter.
func (p *PlaybackManager) Frame() int { return p.frame }

// FPS implements Clock.
func (p *PlaybackManager) FPS() float64 { return p.fps }

// Speed implements Clock.
func (p *PlaybackManager) Speed() float64 { return float64(p.speed) }

// SetSpeed sets the whole-frame speed multiplier.
func (p *PlaybackManager) SetSpeed(speed int) {
	if speed < 1 {
		panic("flipbook: speed must be at least 1")
	}
	p.speed = speed
}

// SetFPS changes the frame rate. Cached timing is expressed in frames, so
// the scenes should be recalculated afterwards.
func (p *PlaybackManager) SetFPS(fps float64) {
	if fps <= 0 {
		panic("flipbook: fps must be positive")
	}
	p.fps = fps
}

// Duration is the total length in frames found by the last Recalculate.
func (p *PlaybackManager) Duration() int { return p.duration }

// Finished reports whether the last scene finished.
func (p *PlaybackManager) Finished() bool { return p.finished }

func (p *PlaybackManager) State() PlaybackState { return p.state }

func (p *PlaybackManager) SetState(s PlaybackState) { p.state = s }

// CurrentScene returns the active scene.
func (p *PlaybackManager) CurrentScene() *Scene { return p.current.current }

// PreviousScene returns the outgoing scene during a transition, or nil.
func (p *PlaybackManager) PreviousScene() *Scene { return p.previous }

// Scenes returns the installed scenes.
func (p *PlaybackManager) Scenes() []*Scene { return p.scenes.current }

// Slides returns the slides collected by the last Recalculate.
func (p *PlaybackManager) Slides() []*Slide { return p.slides }

// Graph returns the reactive graph shared by the scenes.
func (p *PlaybackManager) Graph() *Graph { return p.graph }

func (p *PlaybackManager) Logger() Logger { return p.logger }

// SetDebugMode enables per-tick scheduler statistics on stderr for scene
// runs started after the call.
func (p *PlaybackManager) SetDebugMode(enabled bool) {
	if enabled {
		p.debug = os.Stderr
	} else {
		p.debug = nil
	}
}

// SetDebugWriter is SetDebugMode with an explicit destination.
func (p *PlaybackManager) SetDebugWriter(w io.Writer) { p.debug = w }

// OnSceneChanged subscribes fn to changes of the active scene.
func (p *PlaybackManager) OnSceneChanged(fn func(*Scene)) func() {
	return p.current.Subscribe(fn)
}

// OnScenesRecalculated subscribes fn to the end of every Recalculate.
func (p *PlaybackManager) OnScenesRecalculated(fn func([]*Scene)) func() {
	return p.scenes.Subscribe(fn)
}

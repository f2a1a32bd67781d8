package flipbook

import (
	"fmt"
	"runtime/debug"
)

// Slide is a named checkpoint inside a scene.
type Slide struct {
	// ID is "scene:name" and is unique across a project.
	ID   string
	Name string
	// Time is the scene-relative time at which the slide was registered.
	Time  float64
	Scene *Scene
	Stack string
}

// Slides tracks the slides of one scene and whether the scene is currently
// held at one of them.
type Slides struct {
	scene *Scene

	lookup     map[string]*Slide
	order      []string
	collisions map[string]bool
	list       ValueDispatcher[[]*Slide]

	current   *Slide
	canResume bool
	waiting   bool
	waitsFor  string
	target    string
}

func newSlides(s *Scene) *Slides {
	sl := &Slides{
		scene:      s,
		lookup:     make(map[string]*Slide),
		collisions: make(map[string]bool),
	}
	s.OnReloaded(func(*Scene) { sl.handleReload() })
	s.OnReset(func(*Scene) { sl.handleReset() })
	s.OnRecalculated(func(*Scene) { sl.handleRecalculated() })
	return sl
}

// SetTarget makes the scene stop at the slide with the given id while not
// presenting; every other slide is passed over. An empty id clears it.
func (s *Slides) SetTarget(id string) { s.target = id }

// Resume releases the slide the scene is waiting at, when presenting.
func (s *Slides) Resume() { s.canResume = true }

// IsWaitingFor reports whether the scene is held at the given slide id.
func (s *Slides) IsWaitingFor(id string) bool { return s.waiting && s.waitsFor == id }

// IsWaiting reports whether the scene is held at any slide.
func (s *Slides) IsWaiting() bool { return s.waiting }

// DidHappen reports whether the slide with the given id was reached in the
// current run, including the current slide.
func (s *Slides) DidHappen(id string) bool {
	if s.current == nil {
		return false
	}
	for _, key := range s.order {
		if key == id {
			return true
		}
		if key == s.current.ID {
			return false
		}
	}
	return false
}

// Current returns the last registered slide of the current run, or nil.
func (s *Slides) Current() *Slide { return s.current }

// All returns the slides discovered by the last recalculation, in order.
func (s *Slides) All() []*Slide { return s.list.Current() }

// OnChanged subscribes fn to updates of the recalculated slide list.
func (s *Slides) OnChanged(fn func([]*Slide)) func() { return s.list.Subscribe(fn) }

func (s *Slides) toID(name string) string {
	return s.scene.name + ":" + name
}

func (s *Slides) presenting() bool {
	return s.scene.playback != nil && s.scene.playback.state == PlaybackPresenting
}

func (s *Slides) register(name string, time float64) {
	if s.waiting {
		panic(fmt.Sprintf("flipbook: the animation already waits for a slide: %s", s.waitsFor))
	}
	id := s.toID(name)
	if !s.presenting() {
		if _, ok := s.lookup[id]; !ok {
			s.lookup[id] = &Slide{
				ID:    id,
				Name:  name,
				Time:  time,
				Scene: s.scene,
				Stack: string(debug.Stack()),
			}
			s.order = append(s.order, id)
		}
		if s.collisions[name] {
			s.scene.Logger().Warn(LogPayload{
				Message: fmt.Sprintf("a slide named %q already exists", name),
				Inspect: s.scene.name,
				Stack:   string(debug.Stack()),
			})
		} else {
			s.collisions[name] = true
		}
	}
	s.waiting = true
	s.waitsFor = id
	s.current = s.lookup[id]
	s.canResume = false
	if s.scene.playback != nil {
		s.scene.playback.emit(PlaybackEvent{
			Type:  EventSlideReached,
			Scene: s.scene.name,
			Slide: id,
			Frame: s.scene.playback.frame,
		})
	}
}

func (s *Slides) shouldWait(name string) bool {
	id := s.toID(name)
	if !s.waiting || s.waitsFor != id {
		panic(fmt.Sprintf("flipbook: the animation waits for a different slide: %s", s.waitsFor))
	}
	if _, ok := s.lookup[id]; !ok {
		panic(fmt.Sprintf("flipbook: could not find the %q slide", name))
	}
	canResume := s.canResume
	if !s.presenting() {
		canResume = id != s.target
	}
	if canResume {
		s.waiting = false
		s.waitsFor = ""
	}
	return !canResume
}

func (s *Slides) handleReload() {
	clear(s.lookup)
	s.order = nil
	clear(s.collisions)
	s.current = nil
	s.waiting = false
	s.waitsFor = ""
	s.target = ""
}

func (s *Slides) handleReset() {
	clear(s.collisions)
	s.current = nil
	s.waiting = false
	s.waitsFor = ""
}

func (s *Slides) handleRecalculated() {
	list := make([]*Slide, 0, len(s.order))
	for _, id := range s.order {
		list = append(list, s.lookup[id])
	}
	s.list.SetCurrent(list)
}

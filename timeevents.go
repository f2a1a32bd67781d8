package flipbook

import (
	"fmt"
	"slices"
)

// TimeEvent is a named pause inside a scene. Times are seconds relative to
// the start of the scene.
type TimeEvent struct {
	Name string `json:"name"`
	// InitialTime is when WaitUntil was reached.
	InitialTime float64 `json:"initial_time"`
	// TargetTime is when the wait ends.
	TargetTime float64 `json:"target_time"`
	// Offset is the length of the wait.
	Offset float64 `json:"offset"`
}

// WaitUntil registers the named time event at t's current time and waits for
// its offset. Offsets default to zero and are changed with SetTimeEvent. Each
// name may be used once per run; a repeated name is logged and skipped.
func (s *Scene) WaitUntil(t *Task, name string) {
	if slices.Contains(s.registered, name) {
		s.Logger().Error(LogPayload{
			Message: fmt.Sprintf("time event %q has already been used in scene %q", name, s.name),
			Inspect: t.Name,
		})
		return
	}
	s.registered = append(s.registered, name)
	if s.events == nil {
		s.events = make(map[string]TimeEvent)
	}
	ev := s.events[name]
	ev.Name = name
	ev.InitialTime = t.Time()
	ev.TargetTime = ev.InitialTime + ev.Offset
	s.events[name] = ev
	WaitFor(t, ev.Offset)
}

// SetTimeEvent sets how long the named event waits. A negative offset is
// treated as zero. Changing an offset invalidates the cached timing.
func (s *Scene) SetTimeEvent(name string, offset float64) {
	offset = max(offset, 0)
	if s.events == nil {
		s.events = make(map[string]TimeEvent)
	}
	ev, ok := s.events[name]
	if ok && ev.Offset == offset {
		return
	}
	ev.Name = name
	ev.Offset = offset
	ev.TargetTime = ev.InitialTime + offset
	s.events[name] = ev
	s.Reload(nil)
}

// TimeEvent returns the named event as of the last run.
func (s *Scene) TimeEvent(name string) (TimeEvent, bool) {
	ev, ok := s.events[name]
	return ev, ok
}

// TimeEvents returns the events reached during the current run, in order.
func (s *Scene) TimeEvents() []TimeEvent {
	out := make([]TimeEvent, 0, len(s.registered))
	for _, name := range s.registered {
		out = append(out, s.events[name])
	}
	return out
}

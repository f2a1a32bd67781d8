package flipbook

import (
	"context"
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
)

// scriptStep is a single action in a script.
type scriptStep struct {
	Action string
	Label  string
	Slide  string
	Frame  int
	Frames int
}

var scriptActions = map[string]bool{
	"progress":    true,
	"wait":        true,
	"seek":        true,
	"next":        true,
	"previous":    true,
	"first":       true,
	"last":        true,
	"slide":       true,
	"resume":      true,
	"recalculate": true,
	"reset":       true,
	"snapshot":    true,
}

// Snapshot is the presentation state recorded by a "snapshot" step.
type Snapshot struct {
	Label string     `json:"label"`
	Frame int        `json:"frame"`
	Scene string     `json:"scene"`
	Slide string     `json:"slide,omitempty"`
	State SceneState `json:"state"`
}

// Script sequences presenter actions across frames for headless checks of a
// timeline. Run it with RunScript, or call Step once per frame before
// Presenter.Step.
type Script struct {
	steps     []scriptStep
	cursor    int
	waitCount int
	done      bool
	snapshots []Snapshot
}

// LoadScript parses a JSON script of the form
//
//	{"steps": [{"action": "next"}, {"action": "wait", "frames": 10},
//	           {"action": "snapshot", "label": "second slide"}]}
func LoadScript(data []byte) (*Script, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("parse script: invalid JSON")
	}
	raw := gjson.GetBytes(data, "steps")
	if !raw.IsArray() {
		return nil, fmt.Errorf("parse script: missing steps")
	}
	var steps []scriptStep
	var err error
	raw.ForEach(func(key, value gjson.Result) bool {
		st := scriptStep{
			Action: value.Get("action").String(),
			Label:  value.Get("label").String(),
			Slide:  value.Get("slide").String(),
			Frame:  int(value.Get("frame").Int()),
			Frames: int(value.Get("frames").Int()),
		}
		if !scriptActions[st.Action] {
			err = fmt.Errorf("parse script: step %d: unknown action %q", key.Int(), st.Action)
			return false
		}
		if st.Action == "slide" && st.Slide == "" {
			err = fmt.Errorf("parse script: step %d: slide action without a slide id", key.Int())
			return false
		}
		steps = append(steps, st)
		return true
	})
	if err != nil {
		return nil, err
	}
	if len(steps) == 0 {
		return nil, fmt.Errorf("parse script: no steps")
	}
	return &Script{steps: steps}, nil
}

// Done reports whether every step has been executed.
func (s *Script) Done() bool { return s.done }

// Snapshots returns the states recorded so far.
func (s *Script) Snapshots() []Snapshot { return s.snapshots }

// Step executes at most one step. It holds while navigation requests are
// still queued on the presenter or a wait is counting down.
func (s *Script) Step(ctx context.Context, p *Presenter) error {
	if s.done {
		return nil
	}
	if p.Pending() > 0 {
		return nil
	}
	if s.waitCount > 0 {
		s.waitCount--
		return nil
	}
	if s.cursor >= len(s.steps) {
		s.done = true
		return nil
	}

	st := s.steps[s.cursor]
	s.cursor++

	pb := p.Playback()
	var err error
	switch st.Action {
	case "progress", "wait":
		if st.Frames > 0 {
			s.waitCount = st.Frames - 1
		}
	case "seek":
		_, err = pb.Seek(ctx, st.Frame)
	case "next":
		p.RequestNextSlide()
	case "previous":
		p.RequestPreviousSlide()
	case "first":
		p.RequestFirstSlide()
	case "last":
		p.RequestLastSlide()
	case "slide":
		p.RequestSlide(st.Slide)
	case "resume":
		p.Resume()
	case "recalculate":
		err = pb.Recalculate(ctx)
	case "reset":
		err = pb.Reset(ctx)
	case "snapshot":
		s.snapshots = append(s.snapshots, takeSnapshot(st.Label, pb))
	}

	if s.cursor >= len(s.steps) && s.waitCount == 0 && p.Pending() == 0 {
		s.done = true
	}
	return err
}

func takeSnapshot(label string, pb *PlaybackManager) Snapshot {
	snap := Snapshot{Label: label, Frame: pb.Frame()}
	if scene := pb.CurrentScene(); scene != nil {
		snap.Scene = scene.Name()
		snap.State = scene.State()
		if cur := scene.Slides().Current(); cur != nil {
			snap.Slide = cur.ID
		}
	}
	return snap
}

// ErrScriptTimeout is returned by RunScript when the script does not finish
// within the frame limit.
var ErrScriptTimeout = errors.New("flipbook: script did not finish in time")

// RunScript drives p with s until the script is done, stepping the presenter
// once per frame. Scene failures are collected and returned with the
// snapshots; any other error stops the run.
func RunScript(ctx context.Context, p *Presenter, s *Script, maxFrames int) ([]Snapshot, error) {
	var errs []error
	collect := func(err error) error {
		if err == nil {
			return nil
		}
		var sceneErr *SceneError
		if errors.As(err, &sceneErr) {
			errs = append(errs, err)
			return nil
		}
		return err
	}
	for frame := 0; !s.Done(); frame++ {
		if frame >= maxFrames {
			return s.snapshots, ErrScriptTimeout
		}
		if err := ctx.Err(); err != nil {
			return s.snapshots, err
		}
		if err := collect(s.Step(ctx, p)); err != nil {
			return s.snapshots, err
		}
		if s.Done() {
			break
		}
		if err := collect(p.Step(ctx)); err != nil {
			return s.snapshots, err
		}
	}
	return s.snapshots, errors.Join(errs...)
}

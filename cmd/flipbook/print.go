package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/phanxgames/flipbook"
)

var (
	bold    = color.New(color.Bold).SprintFunc()
	dim     = color.New(color.Faint).SprintFunc()
	cyan    = color.New(color.Bold, color.FgCyan).SprintFunc()
	magenta = color.New(color.Bold, color.FgMagenta).SprintFunc()
	yellow  = color.New(color.FgYellow).SprintFunc()
)

type sceneTiming struct {
	Name       string   `json:"name"`
	FirstFrame int      `json:"first_frame"`
	LastFrame  int      `json:"last_frame"`
	Duration   int      `json:"duration"`
	Transition int      `json:"transition"`
	Slides     []string `json:"slides"`
}

type timeline struct {
	FPS      float64       `json:"fps"`
	Duration int           `json:"duration"`
	Scenes   []sceneTiming `json:"scenes"`
}

func timelineOf(pb *flipbook.PlaybackManager) timeline {
	tl := timeline{FPS: pb.FPS(), Duration: pb.Duration()}
	for _, s := range pb.Scenes() {
		c := s.Cache()
		st := sceneTiming{
			Name:       s.Name(),
			FirstFrame: c.FirstFrame,
			LastFrame:  c.LastFrame,
			Duration:   c.Duration,
			Transition: c.TransitionDuration,
		}
		for _, sl := range s.Slides().All() {
			st.Slides = append(st.Slides, sl.ID)
		}
		tl.Scenes = append(tl.Scenes, st)
	}
	return tl
}

func printTimeline(w io.Writer, pb *flipbook.PlaybackManager) {
	tl := timelineOf(pb)
	fmt.Fprintf(w, "%s %d frames at %.0f fps (%.2fs)\n",
		bold("Timeline:"), tl.Duration, tl.FPS, flipbook.FramesToSeconds(pb, float64(tl.Duration)))
	for _, s := range tl.Scenes {
		fmt.Fprintf(w, "  %s %s\n", cyan(s.Name),
			dim(fmt.Sprintf("frames %d-%d, %d long, transition %d", s.FirstFrame, s.LastFrame, s.Duration, s.Transition)))
		for _, id := range s.Slides {
			fmt.Fprintf(w, "    %s %s\n", yellow("▸"), id)
		}
	}
}

// reportTimeline writes the timeline in the selected format and passes through
// the scene failure that Recalculate returned.
func reportTimeline(w io.Writer, pb *flipbook.PlaybackManager, sceneErr error) error {
	if flagJSON {
		if err := outputJSON(w, timelineOf(pb)); err != nil {
			return err
		}
		return sceneErr
	}
	printTimeline(w, pb)
	return sceneErr
}

func printSnapshots(w io.Writer, snaps []flipbook.Snapshot) {
	width := 0
	for _, s := range snaps {
		width = max(width, len(s.Label))
	}
	for _, s := range snaps {
		slide := s.Slide
		if slide == "" {
			slide = "-"
		}
		fmt.Fprintf(w, "%s%s  frame %s  %s %s\n",
			magenta(s.Label), strings.Repeat(" ", width-len(s.Label)),
			bold(s.Frame), s.Scene+dim("/"+s.State.String()), slide)
	}
}

func outputJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

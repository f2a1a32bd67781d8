package demo

import (
	"fmt"

	"github.com/phanxgames/flipbook"
)

// Deck returns the sample presentation: a title, an animated grid and an
// outro.
func Deck() []*flipbook.Scene {
	return []*flipbook.Scene{Intro(), Shapes(), Outro()}
}

// Intro types the title in and reveals a subtitle.
func Intro() *flipbook.Scene {
	return flipbook.NewScene("intro", func(s *flipbook.Scene, t *flipbook.Task) {
		g := s.Graph()
		title := NewBox(g, flipbook.Vec2{X: 140, Y: 280}, flipbook.Vec2{X: 0, Y: 80}, accent)
		v := newView(g, title)
		s.SetView(v)

		flipbook.All(t,
			title.Size.TweenWith(flipbook.Vec2{X: 1000, Y: 80}, 0.8, flipbook.EaseOutCubic, nil).Play,
			title.Label.TweenWith("flipbook: animation as code", 0.8, flipbook.Linear, nil).Play,
		)
		s.BeginSlide(t, "title")

		sub := NewBox(g, flipbook.Vec2{X: 140, Y: 380}, flipbook.Vec2{X: 1000, Y: 40}, flipbook.Color{})
		v.Boxes = append(v.Boxes, sub)
		sub.Label.Set("tasks, signals and scenes")
		sub.Fill.TweenWith(flipbook.Color{R: 0.2, G: 0.2, B: 0.3, A: 1}, 0.5, flipbook.EaseOutQuad, nil).Play(t)
		s.BeginSlide(t, "subtitle")

		s.Finish()
		flipbook.All(t,
			title.Pos.Tween(flipbook.Vec2{X: 140, Y: -120}, 0.5).Play,
			sub.Pos.Tween(flipbook.Vec2{X: 140, Y: 760}, 0.5).Play,
		)
	})
}

// Shapes fades in over the intro, drops three boxes into place and cycles
// their colors. A progress bar is derived from the time spent in the scene.
func Shapes() *flipbook.Scene {
	return flipbook.NewScene("shapes", func(s *flipbook.Scene, t *flipbook.Task) {
		g := s.Graph()
		fills := []flipbook.Color{warm, green, pink}
		boxes := make([]*Box, len(fills))
		for i, c := range fills {
			boxes[i] = NewBox(g, flipbook.Vec2{X: 240 + float64(i)*300, Y: -200}, flipbook.Vec2{X: 200, Y: 200}, c)
		}

		progress := flipbook.NewSignal(g, 0.0)
		bar := NewBox(g, flipbook.Vec2{X: 0, Y: 708}, flipbook.Vec2{}, accent)
		bar.Size.SetFunc(func() flipbook.Vec2 {
			return flipbook.Vec2{X: progress.Get() * 1280, Y: 12}
		})

		v := newView(g, append(boxes, bar)...)
		v.Opacity.Set(0)
		s.SetView(v)

		t.Spawn(func(t *flipbook.Task) {
			flipbook.LoopForever(t, func(t *flipbook.Task, _ int) {
				progress.Set(flipbook.Clamp(0, 1, t.Time()/6))
				t.Frame()
			})
		})

		s.Transition(t, 0.4, func(p float64) { v.Opacity.Set(p) })

		drops := make([]flipbook.Routine, len(boxes))
		for i, b := range boxes {
			target := flipbook.Vec2{X: b.Pos.Get().X, Y: 260}
			drops[i] = b.Pos.TweenWith(target, 0.6, flipbook.EaseOutBounce, nil).Play
		}
		flipbook.Sequence(t, 0.15, drops...)
		for i, b := range boxes {
			b.Label.Set(hex(fills[i]))
		}
		s.BeginSlide(t, "grid")

		flipbook.Loop(t, 2, func(t *flipbook.Task, _ int) {
			cycles := make([]flipbook.Routine, len(boxes))
			for i, b := range boxes {
				next := fills[(i+1)%len(fills)]
				cycles[i] = b.Fill.Tween(next, 0.4).Wait(0.2).Back(0.4).Play
			}
			flipbook.All(t, cycles...)
		})
		s.BeginSlide(t, "colors")
		s.Finish()
		flipbook.WaitFor(t, 0.3)
	})
}

// Outro shows a closing card and fades out.
func Outro() *flipbook.Scene {
	return flipbook.NewScene("outro", func(s *flipbook.Scene, t *flipbook.Task) {
		g := s.Graph()
		card := NewBox(g, flipbook.Vec2{X: 440, Y: 300}, flipbook.Vec2{X: 400, Y: 120}, accent)
		v := newView(g, card)
		v.Opacity.Set(0)
		s.SetView(v)

		s.Transition(t, 0.3, func(p float64) { v.Opacity.Set(p) })
		card.Label.TweenWith("thanks!", 0.5, flipbook.Linear, nil).Play(t)
		s.BeginSlide(t, "end")
		v.Opacity.TweenWith(0, 0.5, flipbook.EaseInQuad, nil).Play(t)
	})
}

func hex(c flipbook.Color) string {
	rgba := c.ToRGBA()
	return fmt.Sprintf("#%02x%02x%02x", rgba.R, rgba.G, rgba.B)
}

// Package demo holds the sample deck shipped with the flipbook command and
// a renderer that draws it with Ebitengine.
package demo

import "github.com/phanxgames/flipbook"

var (
	background = flipbook.Color{R: 0.1, G: 0.1, B: 0.15, A: 1}
	accent     = flipbook.Color{R: 0.31, G: 0.71, B: 1, A: 1}
	warm       = flipbook.Color{R: 1, G: 0.6, B: 0.2, A: 1}
	green      = flipbook.Color{R: 0.6, G: 1, B: 0.4, A: 1}
	pink       = flipbook.Color{R: 1, G: 0.4, B: 0.7, A: 1}
)

// Box is a labeled rectangle whose properties are all signals.
type Box struct {
	Pos   *flipbook.Signal[flipbook.Vec2]
	Size  *flipbook.Signal[flipbook.Vec2]
	Fill  *flipbook.Signal[flipbook.Color]
	Label *flipbook.Signal[string]
}

// NewBox creates the signals of a box in g.
func NewBox(g *flipbook.Graph, pos, size flipbook.Vec2, fill flipbook.Color) *Box {
	return &Box{
		Pos:   flipbook.NewSignal(g, pos),
		Size:  flipbook.NewSignal(g, size),
		Fill:  flipbook.NewSignal(g, fill),
		Label: flipbook.NewSignal(g, ""),
	}
}

// View is the value demo scenes store with Scene.SetView.
type View struct {
	Background flipbook.Color
	// Opacity multiplies the alpha of everything in the view.
	Opacity *flipbook.Signal[float64]
	Boxes   []*Box
}

func newView(g *flipbook.Graph, boxes ...*Box) *View {
	return &View{
		Background: background,
		Opacity:    flipbook.NewSignal(g, 1.0),
		Boxes:      boxes,
	}
}

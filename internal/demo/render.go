package demo

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"

	"github.com/phanxgames/flipbook"
)

// Renderer draws demo views as solid rectangles with debug-font labels.
// Scenes whose view is not a *View are skipped.
type Renderer struct {
	pixel *ebiten.Image
}

// NewRenderer returns a renderer for the demo deck.
func NewRenderer() *Renderer {
	return &Renderer{}
}

func (r *Renderer) Draw(screen *ebiten.Image, scene *flipbook.Scene) {
	v, ok := scene.View().(*View)
	if !ok {
		return
	}
	if r.pixel == nil {
		r.pixel = ebiten.NewImage(1, 1)
		r.pixel.Fill(flipbook.ColorWhite.ToRGBA())
	}
	opacity := v.Opacity.Get()
	b := screen.Bounds()
	r.rect(screen, flipbook.Vec2{}, flipbook.Vec2{X: float64(b.Dx()), Y: float64(b.Dy())}, v.Background, opacity)
	for _, box := range v.Boxes {
		pos, size := box.Pos.Get(), box.Size.Get()
		r.rect(screen, pos, size, box.Fill.Get(), opacity)
		if label := box.Label.Get(); label != "" && opacity > 0.5 {
			ebitenutil.DebugPrintAt(screen, label, int(pos.X)+8, int(pos.Y)+8)
		}
	}
}

func (r *Renderer) rect(dst *ebiten.Image, pos, size flipbook.Vec2, c flipbook.Color, opacity float64) {
	if size.X <= 0 || size.Y <= 0 || c.A <= 0 || opacity <= 0 {
		return
	}
	var op ebiten.DrawImageOptions
	op.GeoM.Scale(size.X, size.Y)
	op.GeoM.Translate(pos.X, pos.Y)
	c.A *= opacity
	op.ColorScale.ScaleWithColor(c.ToRGBA())
	dst.DrawImage(r.pixel, &op)
}

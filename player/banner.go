package player

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

const (
	bannerDuration = 1.5
	bannerHeight   = 24
)

// banner shows the name of the slide just reached and fades it out.
type banner struct {
	text  string
	tween *gween.Tween
	alpha float32
	img   *ebiten.Image
	drawn bool
}

func (b *banner) show(text string) {
	if b.text != text {
		b.text = text
		b.drawn = false
	}
	b.tween = gween.New(1, 0, bannerDuration, ease.InQuad)
	b.alpha = 1
}

func (b *banner) update(dt float32) {
	if b.tween == nil {
		return
	}
	a, done := b.tween.Update(dt)
	b.alpha = a
	if done {
		b.tween = nil
		b.alpha = 0
	}
}

func (b *banner) visible() bool { return b.alpha > 0 }

func (b *banner) draw(screen *ebiten.Image) {
	if !b.visible() {
		return
	}
	w := screen.Bounds().Dx()
	if b.img == nil || b.img.Bounds().Dx() != w {
		b.img = ebiten.NewImage(w, bannerHeight)
		b.drawn = false
	}
	if !b.drawn {
		b.img.Clear()
		b.img.Fill(color.RGBA{0, 0, 0, 160})
		ebitenutil.DebugPrintAt(b.img, b.text, 8, 4)
		b.drawn = true
	}
	var op ebiten.DrawImageOptions
	op.GeoM.Translate(0, float64(screen.Bounds().Dy()-bannerHeight))
	op.ColorScale.ScaleAlpha(b.alpha)
	screen.DrawImage(b.img, &op)
}

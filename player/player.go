// Package player runs a flipbook presentation in an Ebitengine window.
//
// The player owns the game loop: every tick it applies key presses to the
// presenter, advances playback by one frame and hands the current scene to a
// Renderer. Scenes expose what to draw through Scene.SetView.
//
//	pb := flipbook.NewPlaybackManager(flipbook.WithFPS(60))
//	pb.Setup(intro, outro)
//	err := player.Run(flipbook.NewPresenter(pb), renderer, player.Config{
//		Title: "Talk", Width: 1280, Height: 720,
//	})
package player

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/phanxgames/flipbook"
)

// Renderer draws a scene's view onto the screen.
type Renderer interface {
	Draw(screen *ebiten.Image, scene *flipbook.Scene)
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(screen *ebiten.Image, scene *flipbook.Scene)

func (f RendererFunc) Draw(screen *ebiten.Image, scene *flipbook.Scene) { f(screen, scene) }

// Config configures the window and the presentation.
type Config struct {
	Title  string
	Width  int
	Height int
	// ShowInfo starts with the slide and timing overlay visible.
	ShowInfo bool
	// StartSlide is the slide to open at. Empty means the beginning.
	StartSlide string
	// Bindings overrides DefaultBindings when non-nil.
	Bindings []Binding
	// Logger receives scene failures. Defaults to the playback logger.
	Logger flipbook.Logger
}

func (c *Config) defaults() {
	if c.Title == "" {
		c.Title = "flipbook"
	}
	if c.Width <= 0 {
		c.Width = 1280
	}
	if c.Height <= 0 {
		c.Height = 720
	}
	if c.Bindings == nil {
		c.Bindings = DefaultBindings
	}
}

// Run starts the presenter and blocks until the window is closed or the
// quit key is pressed.
func Run(p *flipbook.Presenter, r Renderer, cfg Config) error {
	cfg.defaults()
	ctx := context.Background()
	if err := p.Start(ctx, cfg.StartSlide); err != nil {
		return err
	}

	ebiten.SetWindowTitle(cfg.Title)
	ebiten.SetWindowSize(cfg.Width, cfg.Height)
	ebiten.SetTPS(int(math.Round(p.Playback().FPS())))

	g := newGame(ctx, p, r, cfg)
	err := ebiten.RunGame(g)
	if errors.Is(err, ebiten.Termination) {
		return nil
	}
	return err
}

// game implements ebiten.Game.
type game struct {
	ctx       context.Context
	presenter *flipbook.Presenter
	renderer  Renderer
	cfg       Config
	logger    flipbook.Logger
	showInfo  bool
	banner    banner
}

func newGame(ctx context.Context, p *flipbook.Presenter, r Renderer, cfg Config) *game {
	g := &game{
		ctx:       ctx,
		presenter: p,
		renderer:  r,
		cfg:       cfg,
		logger:    cfg.Logger,
		showInfo:  cfg.ShowInfo,
	}
	if g.logger == nil {
		g.logger = p.Playback().Logger()
	}
	p.OnInfoChanged(func(info flipbook.PresenterInfo) {
		if info.CurrentSlide != "" {
			g.banner.show(info.CurrentSlide)
		}
	})
	return g
}

func (g *game) Update() error {
	for _, b := range g.cfg.Bindings {
		if !inpututil.IsKeyJustPressed(b.Key) {
			continue
		}
		if quit := g.apply(b.Command); quit {
			return ebiten.Termination
		}
	}

	if err := g.presenter.Step(g.ctx); err != nil {
		var sceneErr *flipbook.SceneError
		if !errors.As(err, &sceneErr) {
			return err
		}
		g.logger.Error(flipbook.LogPayload{Message: err.Error(), Inspect: sceneErr.Scene})
	}
	g.banner.update(float32(1 / g.presenter.Playback().FPS()))
	return nil
}

// apply executes c and reports whether the player should quit.
func (g *game) apply(c Command) bool {
	switch c {
	case CommandNext:
		g.presenter.RequestNextSlide()
	case CommandPrevious:
		g.presenter.RequestPreviousSlide()
	case CommandFirst:
		g.presenter.RequestFirstSlide()
	case CommandLast:
		g.presenter.RequestLastSlide()
	case CommandResume:
		g.presenter.Resume()
	case CommandToggleInfo:
		g.showInfo = !g.showInfo
	case CommandQuit:
		return true
	}
	return false
}

func (g *game) Draw(screen *ebiten.Image) {
	pb := g.presenter.Playback()
	pb.Graph().Flush()

	if prev := pb.PreviousScene(); prev != nil {
		g.renderer.Draw(screen, prev)
	}
	if cur := pb.CurrentScene(); cur != nil {
		g.renderer.Draw(screen, cur)
	}

	g.banner.draw(screen)
	if g.showInfo {
		ebitenutil.DebugPrintAt(screen, g.infoText(), 4, 4)
	}
}

func (g *game) infoText() string {
	pb := g.presenter.Playback()
	info := g.presenter.Info()
	scene := ""
	if cur := pb.CurrentScene(); cur != nil {
		scene = cur.Name()
	}
	slide := "-"
	if info.CurrentSlide != "" {
		slide = fmt.Sprintf("%s (%d/%d)", info.CurrentSlide, info.Index+1, info.Count)
	}
	return fmt.Sprintf("scene: %s  slide: %s\nframe: %d/%d  %s\nFPS: %.0f  TPS: %.0f",
		scene, slide, pb.Frame(), pb.Duration(), pb.State(),
		ebiten.ActualFPS(), ebiten.ActualTPS())
}

func (g *game) Layout(_, _ int) (int, int) {
	return g.cfg.Width, g.cfg.Height
}

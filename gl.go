package cubeportal

import (
	"errors"
	"fmt"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
)

// Container describes the output region the rendering context attaches to.
type Container struct {
	Title string
	// Width and Height are the logical viewport size.
	Width, Height int
	// DevicePixelRatio overrides the monitor scale factor when > 0.
	DevicePixelRatio float64
	Resizable        bool
}

// GLOption configures a GL.
type GLOption func(*GL)

// WithRenderer replaces the default Ebitengine renderer.
func WithRenderer(r Renderer) GLOption {
	return func(g *GL) { g.renderer = r }
}

// WithClock replaces the default wall clock.
func WithClock(c Clock) GLOption {
	return func(g *GL) { g.clock = c }
}

// GL is the rendering context shared by the compositor and every sandbox: it
// owns the viewer camera and scene, the renderer, frame timing and the
// viewport size. It implements ebiten.Game.
type GL struct {
	renderer Renderer
	clock    Clock
	camera   *Camera
	scene    *Scene

	container     Container
	width, height int
	dpr           float64
	fixedDPR      bool

	onResize func()
	onFrame  func()
	onTick   func()

	setup    bool
	disposed bool
	debug    bool
	frame    uint64

	hud *hud

	// ScreenshotDir is the directory where screenshots are saved.
	// Defaults to "screenshots".
	ScreenshotDir   string
	screenshotQueue []string
}

// NewGL creates an unattached context with a 50° camera.
func NewGL(opts ...GLOption) *GL {
	g := &GL{
		camera:        NewCamera(50, 1, 0.01, 100),
		scene:         NewScene(),
		dpr:           1,
		ScreenshotDir: "screenshots",
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.renderer == nil {
		g.renderer = NewRenderer()
	}
	if g.clock == nil {
		g.clock = NewWallClock()
	}
	return g
}

// Setup attaches the context to c and records the initial viewport size.
func (g *GL) Setup(c Container) error {
	if g.disposed {
		return ErrDisposed
	}
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("cubeportal: setup: invalid viewport %dx%d", c.Width, c.Height)
	}
	g.container = c
	dpr := 1.0
	if c.DevicePixelRatio > 0 {
		dpr = c.DevicePixelRatio
		g.fixedDPR = true
	}
	g.width, g.height, g.dpr = c.Width, c.Height, dpr
	g.camera.Aspect = float64(c.Width) / float64(c.Height)
	g.setup = true
	if g.debug {
		g.debugf("setup %dx%d @%.2fx", c.Width, c.Height, dpr)
	}
	return nil
}

// Size returns the logical viewport size.
func (g *GL) Size() (w, h int) {
	return g.width, g.height
}

// DevicePixelRatio returns the current device pixel ratio.
func (g *GL) DevicePixelRatio() float64 {
	return g.dpr
}

// DrawingBufferSize returns the device-scaled viewport size that render
// targets must match.
func (g *GL) DrawingBufferSize() (w, h int) {
	return int(math.Round(float64(g.width) * g.dpr)), int(math.Round(float64(g.height) * g.dpr))
}

// SetResizeCallback registers fn to run once per viewport change.
func (g *GL) SetResizeCallback(fn func()) {
	g.onResize = fn
}

// SetSize is the resize event: it updates the viewport and, if anything
// changed, fixes the camera aspect and fires the resize callback once.
func (g *GL) SetSize(width, height int, dpr float64) {
	if g.disposed || width <= 0 || height <= 0 {
		return
	}
	if dpr <= 0 {
		dpr = g.dpr
	}
	if width == g.width && height == g.height && dpr == g.dpr {
		return
	}
	g.width, g.height, g.dpr = width, height, dpr
	g.camera.Aspect = float64(width) / float64(height)
	if g.debug {
		bw, bh := g.DrawingBufferSize()
		g.debugf("resize %dx%d @%.2fx (buffer %dx%d)", width, height, dpr, bw, bh)
	}
	if g.onResize != nil {
		g.onResize()
	}
}

// Render draws the shared scene through the shared camera to the display.
func (g *GL) Render() {
	if g.disposed {
		return
	}
	g.renderer.SetRenderTarget(nil)
	g.renderer.Render(g.scene, g.camera)
}

// Renderer returns the renderer.
func (g *GL) Renderer() Renderer {
	return g.renderer
}

// SetTickCallback registers fn to run once per Ebitengine tick, before any
// frame of that tick is drawn. Input is sampled here.
func (g *GL) SetTickCallback(fn func()) {
	g.onTick = fn
}

// RequestAnimationFrame registers fn to be called once per displayed frame,
// after the clock ticks. A later call replaces the callback.
func (g *GL) RequestAnimationFrame(fn func()) {
	g.onFrame = fn
}

// Time returns the frame clock.
func (g *GL) Time() Clock {
	return g.clock
}

// Camera returns the shared viewer camera.
func (g *GL) Camera() *Camera {
	return g.camera
}

// Scene returns the shared viewer scene.
func (g *GL) Scene() *Scene {
	return g.scene
}

// Frame returns the number of frames driven so far.
func (g *GL) Frame() uint64 {
	return g.frame
}

// SetDebugMode enables per-frame stats on stderr and node misuse checks.
func (g *GL) SetDebugMode(enabled bool) {
	g.debug = enabled
	globalDebug = enabled
}

// SetShowHUD toggles the FPS and pass-timing overlay.
func (g *GL) SetShowHUD(show bool) {
	if show && g.hud == nil {
		g.hud = newHUD()
	} else if !show {
		g.hud = nil
	}
}

// IsDisposed reports whether Dispose has been called.
func (g *GL) IsDisposed() bool {
	return g.disposed
}

// Dispose releases the shared scene and the renderer. Later frames end the
// game loop.
func (g *GL) Dispose() {
	if g.disposed {
		return
	}
	g.disposed = true
	g.onFrame = nil
	g.onResize = nil
	g.onTick = nil
	g.scene.Dispose()
	g.renderer.Dispose()
}

// --- ebiten.Game ---

// Update implements ebiten.Game.
func (g *GL) Update() error {
	if g.disposed {
		return ebiten.Termination
	}
	if g.onTick != nil {
		g.onTick()
	}
	return nil
}

// screenBinder is implemented by renderers that draw to the Ebitengine
// screen image.
type screenBinder interface {
	setScreen(screen *ebiten.Image)
}

// statsReporter is implemented by renderers that count their work.
type statsReporter interface {
	Stats() RenderStats
	resetStats()
}

// Draw implements ebiten.Game: it ticks the clock and runs one frame.
func (g *GL) Draw(screen *ebiten.Image) {
	if g.disposed {
		return
	}
	g.drawFrame(screen)
}

func (g *GL) drawFrame(screen *ebiten.Image) {
	if sb, ok := g.renderer.(screenBinder); ok {
		sb.setScreen(screen)
		defer sb.setScreen(nil)
	}
	sr, hasStats := g.renderer.(statsReporter)
	if hasStats {
		sr.resetStats()
	}

	g.clock.Tick()
	g.frame++
	if g.onFrame != nil {
		g.onFrame()
	}

	if hasStats {
		stats := sr.Stats()
		if g.hud != nil && screen != nil {
			g.hud.draw(screen, stats, g.dpr)
		}
		if g.debug {
			g.debugLog(stats)
		}
	}
	if screen != nil {
		g.flushScreenshots(screen)
	}
}

// Layout implements ebiten.Game. The returned size is the device-scaled
// buffer so rendering happens at full resolution.
func (g *GL) Layout(outsideWidth, outsideHeight int) (int, int) {
	dpr := g.dpr
	if !g.fixedDPR {
		if m := ebiten.Monitor(); m != nil {
			dpr = m.DeviceScaleFactor()
		}
	}
	g.SetSize(outsideWidth, outsideHeight, dpr)
	return g.DrawingBufferSize()
}

// Run opens a window for the container passed to Setup and blocks until the
// window closes or the context is disposed.
func (g *GL) Run() error {
	if !g.setup {
		return errors.New("cubeportal: run before setup")
	}
	ebiten.SetWindowTitle(g.container.Title)
	ebiten.SetWindowSize(g.container.Width, g.container.Height)
	if g.container.Resizable {
		ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	}
	return ebiten.RunGame(g)
}

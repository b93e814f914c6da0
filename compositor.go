package cubeportal

import (
	"context"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-gl/mathgl/mgl64"
)

// Asset names requested by Load.
const (
	AssetFrame  = "frame"
	AssetEnvMap = "envMap"
)

// Screen surface placement: a plane just inside the unit enclosure.
const (
	screenSize  = 1.99
	screenInset = 0.995
	frameScale  = 0.995
)

// FrameEvent summarises one composited frame.
type FrameEvent struct {
	Frame     uint64
	Delta     float64
	Elapsed   float64
	Sandboxes int
	// Offscreen is the time spent in all sandbox passes, Main in the final
	// pass.
	Offscreen time.Duration
	Main      time.Duration
}

// EventStore receives frame events. See the ecs subpackage for a Donburi
// adapter.
type EventStore interface {
	EmitFrame(FrameEvent)
}

// Option configures Load.
type Option func(*options)

type options struct {
	gl     *GL
	loader AssetLoader
	cfg    Config
	faces  []FaceSpec
	input  PointerSource
	store  EventStore
	runner *TestRunner
}

// WithGL uses gl instead of a context built from the config.
func WithGL(gl *GL) Option {
	return func(o *options) { o.gl = gl }
}

// WithLoader replaces the file system loader rooted at Config.Assets.Root.
func WithLoader(l AssetLoader) Option {
	return func(o *options) { o.loader = l }
}

// WithConfig replaces DefaultConfig.
func WithConfig(cfg Config) Option {
	return func(o *options) { o.cfg = cfg }
}

// WithFaces replaces DefaultFaces.
func WithFaces(faces []FaceSpec) Option {
	return func(o *options) { o.faces = faces }
}

// WithInput sets the orbit controls' pointer source. Nil disables live input.
func WithInput(p PointerSource) Option {
	return func(o *options) { o.input = p }
}

// WithEventStore publishes a FrameEvent after every frame.
func WithEventStore(s EventStore) Option {
	return func(o *options) { o.store = s }
}

// WithTestRunner drives scripted input and captures from the frame loop.
func WithTestRunner(r *TestRunner) Option {
	return func(o *options) { o.runner = r }
}

// Loading is a compositor whose assets are still resolving. It is the only
// state a caller can observe before the compositor exists.
type Loading struct {
	opts      options
	container Container
	assets    Assets

	done      chan struct{}
	err       error
	cancel    context.CancelFunc
	cancelled atomic.Bool

	once     sync.Once
	result   *Compositor
	buildErr error
}

// Load starts loading the frame model and environment map and returns at
// once. The load never times out on its own; cancel ctx or call Cancel to
// abandon it.
func Load(ctx context.Context, container Container, opts ...Option) *Loading {
	o := options{cfg: DefaultConfig(), input: EbitenPointer{}}
	for _, opt := range opts {
		opt(&o)
	}
	if o.faces == nil {
		o.faces = DefaultFaces()
	}
	if o.loader == nil {
		o.loader = NewFSLoader(os.DirFS(o.cfg.Assets.Root))
	}
	if o.gl == nil {
		var glOpts []GLOption
		if o.cfg.Render.FixedTimestep > 0 {
			glOpts = append(glOpts, WithClock(&FixedClock{Step: o.cfg.Render.FixedTimestep}))
		}
		o.gl = NewGL(glOpts...)
	}

	ctx, cancel := context.WithCancel(ctx)
	l := &Loading{
		opts:      o,
		container: container,
		assets: Assets{
			AssetFrame:  {Path: o.cfg.Assets.Frame},
			AssetEnvMap: {Path: o.cfg.Assets.EnvMap},
		},
		done:   make(chan struct{}),
		cancel: cancel,
	}
	go func() {
		defer close(l.done)
		defer cancel()
		l.err = o.loader.Load(ctx, l.assets)
	}()
	return l
}

// Done is closed once the asset load has finished, successfully or not.
func (l *Loading) Done() <-chan struct{} {
	return l.done
}

// Cancel abandons the asset load. A Wait that has not yet built the
// compositor returns context.Canceled, even if the assets already resolved.
func (l *Loading) Cancel() {
	l.cancelled.Store(true)
	l.cancel()
}

// Wait blocks until the assets resolve, then builds the compositor. It must
// be called from the goroutine that drives frames. Repeated calls return the
// same result.
func (l *Loading) Wait(ctx context.Context) (*Compositor, error) {
	select {
	case <-l.done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	l.once.Do(func() {
		if l.cancelled.Load() {
			l.buildErr = fmt.Errorf("cubeportal: load assets: %w", context.Canceled)
			return
		}
		if l.err != nil {
			l.buildErr = fmt.Errorf("cubeportal: load assets: %w", l.err)
			return
		}
		l.result, l.buildErr = newCompositor(l.opts, l.container, l.assets)
	})
	return l.result, l.buildErr
}

// portal binds one enclosure face to the sandbox shown on it. Screens and
// sandboxes are only ever reached through these records, so the pairing
// cannot drift.
type portal struct {
	face     Face
	sandbox  *Sandbox
	screen   *Node
	material *ShaderMaterial
}

// Compositor renders every sandbox off-screen and shows each result on its
// face of the enclosure.
type Compositor struct {
	gl       *GL
	controls *OrbitControls
	portals  []*portal
	frame    *Node

	store  EventStore
	runner *TestRunner

	disposed bool
}

func newCompositor(o options, container Container, assets Assets) (*Compositor, error) {
	// Resolve everything fallible before touching the context.
	model, err := modelFromAsset(assets[AssetFrame])
	if err != nil {
		return nil, fmt.Errorf("cubeportal: frame: %w", err)
	}
	envMap, err := envMapFromAsset(assets[AssetEnvMap])
	if err != nil {
		return nil, fmt.Errorf("cubeportal: env map: %w", err)
	}
	frame := firstMesh(model)
	if frame == nil {
		return nil, ErrNoFrameMesh
	}

	gl := o.gl
	if err := gl.Setup(container); err != nil {
		return nil, err
	}
	cfg := o.cfg
	gl.SetDebugMode(cfg.Debug)
	gl.SetShowHUD(cfg.ShowHUD)
	if cfg.ScreenshotDir != "" {
		gl.ScreenshotDir = cfg.ScreenshotDir
	}

	c := &Compositor{gl: gl, store: o.store, runner: o.runner}
	c.init(cfg, o.input)
	c.createScreens(cfg, o.faces)
	c.createFrame(frame, envMap)
	gl.RequestAnimationFrame(c.RenderFrame)

	if gl.debug {
		gl.debugf("compositor ready: %d portals, frame %q, env map %q", len(c.portals), cfg.Assets.Frame, cfg.Assets.EnvMap)
	}
	return c, nil
}

func (c *Compositor) init(cfg Config, input PointerSource) {
	c.gl.Scene().SetBackground(cfg.Background)

	cam := c.gl.Camera()
	cam.Fov, cam.Near, cam.Far = cfg.Camera.Fov, cfg.Camera.Near, cfg.Camera.Far
	cam.Position = cfg.CameraPosition()
	cam.LookAt(mgl64.Vec3{})

	c.gl.SetResizeCallback(c.resize)

	c.controls = NewOrbitControls(c.gl, input)
	c.controls.RotateSpeed = cfg.Controls.RotateSpeed
	c.controls.ZoomSpeed = cfg.Controls.ZoomSpeed
	c.controls.DampingFactor = cfg.Controls.DampingFactor
	c.controls.MinDistance = cfg.Controls.MinDistance
	c.controls.MaxDistance = cfg.Controls.MaxDistance
	c.gl.SetTickCallback(c.controls.Sample)
}

// createScreens builds one screen and one sandbox per face, in catalog order.
func (c *Compositor) createScreens(cfg Config, faces []FaceSpec) {
	seg := max(cfg.Render.ScreenSegments, 1)
	geo := NewPlaneGeometry(screenSize, screenSize, seg, seg).Translate(0, 0, screenInset)

	for _, fs := range faces {
		mat := NewShaderMaterial(ScreenShaderSource, ScreenTextureUniform)
		screen := NewMesh("screen-"+fs.Face.Name, geo, mat)
		screen.Rotation = fs.Face.Rotation
		c.gl.Scene().Add(screen)

		sb := NewSandbox(c.gl, fs.Subject.NewMesh(),
			WithSamples(cfg.Render.Samples),
			WithShadowMapSize(cfg.Render.ShadowMapSize),
			WithBackdropSegments(cfg.Render.BackdropSegments))

		c.portals = append(c.portals, &portal{face: fs.Face, sandbox: sb, screen: screen, material: mat})
	}
}

func (c *Compositor) createFrame(frame *Node, envMap *EnvMap) {
	frame.RemoveFromParent()
	frame.Material = &StandardMaterial{
		Color:           Hex("#aa0"),
		Metalness:       1,
		Roughness:       0.2,
		EnvMap:          envMap,
		EnvMapIntensity: 0.2,
	}
	frame.Scale = frame.Scale.Mul(frameScale)
	c.frame = frame
	c.gl.Scene().Add(frame)
}

// firstMesh returns the first mesh in depth-first order.
func firstMesh(root *Node) *Node {
	var found *Node
	root.Traverse(func(n *Node) {
		if found == nil && n.Type == NodeTypeMesh {
			found = n
		}
	})
	return found
}

// resize runs once per viewport change.
func (c *Compositor) resize() {
	for _, p := range c.portals {
		p.sandbox.Resize()
	}
}

// RenderFrame composites one frame: controls, then every sandbox pass with
// its texture handed to the paired screen, then the main pass. GL calls it
// once per displayed frame.
func (c *Compositor) RenderFrame() {
	if c.disposed {
		return
	}
	if c.runner != nil {
		c.runner.step(c)
	}
	c.controls.Update()

	start := time.Now()
	for i, p := range c.portals {
		p.sandbox.Update()
		tex := p.sandbox.Texture()
		p.material.SetTexture(ScreenTextureUniform, tex)
		if c.gl.debug {
			c.gl.debugCheckTargetSize(i, tex)
		}
	}
	offscreen := time.Since(start)

	start = time.Now()
	c.gl.Render()
	main := time.Since(start)

	if c.store != nil {
		clock := c.gl.Time()
		c.store.EmitFrame(FrameEvent{
			Frame:     c.gl.Frame(),
			Delta:     clock.Delta(),
			Elapsed:   clock.Elapsed(),
			Sandboxes: len(c.portals),
			Offscreen: offscreen,
			Main:      main,
		})
	}
}

// Run opens the window and blocks until it closes.
func (c *Compositor) Run() error {
	if c.disposed {
		return ErrDisposed
	}
	return c.gl.Run()
}

// Sandboxes returns the sandboxes in face order.
func (c *Compositor) Sandboxes() []*Sandbox {
	out := make([]*Sandbox, len(c.portals))
	for i, p := range c.portals {
		out[i] = p.sandbox
	}
	return out
}

// Screens returns the screen meshes in face order. Screens()[i] shows
// Sandboxes()[i].
func (c *Compositor) Screens() []*Node {
	out := make([]*Node, len(c.portals))
	for i, p := range c.portals {
		out[i] = p.screen
	}
	return out
}

// Faces returns the face placements in order.
func (c *Compositor) Faces() []Face {
	out := make([]Face, len(c.portals))
	for i, p := range c.portals {
		out[i] = p.face
	}
	return out
}

// Frame returns the decorative frame mesh.
func (c *Compositor) Frame() *Node {
	return c.frame
}

// GL returns the shared rendering context.
func (c *Compositor) GL() *GL {
	return c.gl
}

// Controls returns the orbit controls.
func (c *Compositor) Controls() *OrbitControls {
	return c.controls
}

// IsDisposed reports whether Dispose has been called.
func (c *Compositor) IsDisposed() bool {
	return c.disposed
}

// Dispose releases every sandbox target, the screen shaders and the
// context. It takes effect between frames and is safe to call twice.
func (c *Compositor) Dispose() {
	if c.disposed {
		return
	}
	c.disposed = true
	for _, p := range c.portals {
		p.material.SetTexture(ScreenTextureUniform, nil)
		p.material.Dispose()
		p.sandbox.Dispose()
	}
	c.gl.Dispose()
}

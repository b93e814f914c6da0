package cubeportal

import (
	"github.com/go-gl/mathgl/mgl64"
)

// LightGroupName is the name of the node holding a sandbox's lights.
const LightGroupName = "lights"

// RotationRate is the per-axis angular speed, in radians per second, applied
// to every sandbox object.
var RotationRate = Euler{X: 0.5, Y: 0.3, Z: 0.1}

// SandboxOption configures a Sandbox.
type SandboxOption func(*sandboxConfig)

type sandboxConfig struct {
	samples          int
	shadowMapSize    int
	backdropSegments int
}

// WithSamples sets the render target antialiasing sample count.
func WithSamples(n int) SandboxOption {
	return func(c *sandboxConfig) { c.samples = n }
}

// WithShadowMapSize sets the key light's shadow map resolution.
func WithShadowMapSize(n int) SandboxOption {
	return func(c *sandboxConfig) { c.shadowMapSize = n }
}

// WithBackdropSegments sets the per-face subdivision of the backdrop box.
func WithBackdropSegments(n int) SandboxOption {
	return func(c *sandboxConfig) { c.backdropSegments = n }
}

// Sandbox owns one isolated scene and the off-screen target it renders into.
// Its lights follow the shared camera's orientation so every face is lit the
// same way from the viewer's point of view.
type Sandbox struct {
	gl     *GL
	scene  *Scene
	target *RenderTarget
	object *Node
	lights *Node

	disposed bool
}

// NewSandbox builds a sandbox around object, which may be nil for an empty
// scene. The target is sized to gl's current drawing buffer.
func NewSandbox(gl *GL, object *Node, opts ...SandboxOption) *Sandbox {
	cfg := sandboxConfig{samples: 10, shadowMapSize: 1024, backdropSegments: 24}
	for _, opt := range opts {
		opt(&cfg)
	}

	s := &Sandbox{gl: gl, scene: NewScene(), object: object}
	s.lights = newLightRig(cfg.shadowMapSize)
	s.scene.Add(s.lights)

	backdrop := NewMesh("backdrop",
		NewBoxGeometry(2, 2, 2, cfg.backdropSegments),
		&StandardMaterial{Color: Hex("#181818"), Side: SideBack, Roughness: 1, EnvMapIntensity: 1})
	backdrop.ReceiveShadow = true
	s.scene.Add(backdrop)

	if object != nil {
		s.scene.Add(object)
	}

	w, h := gl.DrawingBufferSize()
	s.target = NewRenderTarget(w, h, RenderTargetOptions{Samples: cfg.samples})
	return s
}

// newLightRig builds the camera-tracking light group: a dim ambient, a
// shadow-casting key light and a soft fill from the opposite side.
func newLightRig(shadowMapSize int) *Node {
	group := NewGroup(LightGroupName)

	group.AddChild(NewAmbientLight(ColorWhite, 0.2))

	key := NewDirectionalLight(ColorWhite, 0.5)
	key.Name = "key"
	key.Position = mgl64.Vec3{3, 3, 3}
	key.Light.EnableShadow(OrthoFrustum{Left: -2, Right: 2, Top: 2, Bottom: -2, Near: 0.01, Far: 10}, shadowMapSize)
	group.AddChild(key)

	fill := NewDirectionalLight(ColorWhite, 0.1)
	fill.Name = "fill"
	fill.Position = mgl64.Vec3{-3, 3, 3}
	group.AddChild(fill)

	return group
}

// Resize matches the target to the current drawing buffer. It must run after
// every viewport change; same-size calls do not reallocate.
func (s *Sandbox) Resize() {
	if s.disposed {
		return
	}
	s.target.SetSize(s.gl.DrawingBufferSize())
}

// Update turns the lights to the camera, advances the object's rotation by
// the frame delta and renders the scene into the target. The default target
// is restored afterwards. Rotation accumulates the clock's deltas exactly;
// WallClock caps each delta at MaxDelta, so a stalled window loses the
// excess. Use a FixedClock for reproducible angles.
func (s *Sandbox) Update() {
	if s.disposed {
		return
	}
	cam := s.gl.Camera()
	s.lights.SetQuaternion(cam.Quaternion())

	if s.object != nil {
		dt := s.gl.Time().Delta()
		s.object.Rotation.X += dt * RotationRate.X
		s.object.Rotation.Y += dt * RotationRate.Y
		s.object.Rotation.Z += dt * RotationRate.Z
	}

	r := s.gl.Renderer()
	r.SetRenderTarget(s.target)
	r.Render(s.scene, cam)
	r.SetRenderTarget(nil)
}

// Texture returns the target's texture, reflecting the latest Update.
func (s *Sandbox) Texture() *Texture {
	return s.target.Texture()
}

// Target returns the off-screen render target.
func (s *Sandbox) Target() *RenderTarget {
	return s.target
}

// Scene returns the sandbox's private scene.
func (s *Sandbox) Scene() *Scene {
	return s.scene
}

// Object returns the animated object, or nil.
func (s *Sandbox) Object() *Node {
	return s.object
}

// Lights returns the camera-tracking light group.
func (s *Sandbox) Lights() *Node {
	return s.lights
}

// Dispose releases the target and detaches every node of the scene.
func (s *Sandbox) Dispose() {
	if s.disposed {
		return
	}
	s.disposed = true
	s.target.Dispose()
	s.scene.Dispose()
}

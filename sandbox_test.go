package cubeportal

import (
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
)

// renderCall records one Render invocation and the target bound at the time.
type renderCall struct {
	target *RenderTarget
	scene  *Scene
}

// recordingRenderer stands in for the Ebitengine renderer so passes can be
// inspected without a window.
type recordingRenderer struct {
	target   *RenderTarget
	calls    []renderCall
	disposed bool
}

func (r *recordingRenderer) SetRenderTarget(rt *RenderTarget) { r.target = rt }
func (r *recordingRenderer) RenderTarget() *RenderTarget      { return r.target }
func (r *recordingRenderer) Dispose()                         { r.disposed = true }

func (r *recordingRenderer) Render(scene *Scene, _ *Camera) {
	r.calls = append(r.calls, renderCall{target: r.target, scene: scene})
}

// newTestGL returns a set-up context with a recording renderer and a
// fixed-step clock.
func newTestGL(t *testing.T, w, h int, dpr float64) (*GL, *recordingRenderer) {
	t.Helper()
	rec := &recordingRenderer{}
	gl := NewGL(WithRenderer(rec), WithClock(&FixedClock{Step: 0.5}))
	if err := gl.Setup(Container{Width: w, Height: h, DevicePixelRatio: dpr}); err != nil {
		t.Fatalf("Setup: %v", err)
	}
	return gl, rec
}

func TestNewSandboxScene(t *testing.T) {
	gl, _ := newTestGL(t, 64, 48, 1)
	obj := NewMesh("box", NewBoxGeometry(0.7, 0.7, 0.7, 1), NewStandardMaterial(ColorWhite))
	sb := NewSandbox(gl, obj)
	defer sb.Dispose()

	if sb.Object() != obj {
		t.Error("Object() should return the animated mesh")
	}
	if obj.Parent != sb.Scene().Root() {
		t.Error("object should be a child of the sandbox scene")
	}
	if sb.Scene().ObjectByName("backdrop") == nil {
		t.Error("scene should contain the backdrop")
	}
	lights := sb.Scene().ObjectByName(LightGroupName)
	if lights == nil || lights != sb.Lights() {
		t.Fatal("Lights() should be the named light group in the scene")
	}
	if lights.NumChildren() != 3 {
		t.Errorf("light rig has %d lights, want 3", lights.NumChildren())
	}
	key := lights.ObjectByName("key")
	if key == nil || !key.Light.CastShadow {
		t.Error("key light should cast shadows")
	}
}

func TestNewSandboxNilObject(t *testing.T) {
	gl, rec := newTestGL(t, 64, 48, 1)
	sb := NewSandbox(gl, nil)
	defer sb.Dispose()

	if sb.Object() != nil {
		t.Error("Object() should be nil")
	}
	gl.Time().Tick()
	sb.Update()
	if len(rec.calls) != 1 || rec.calls[0].scene != sb.Scene() {
		t.Errorf("empty sandbox should still render its scene once, got %d calls", len(rec.calls))
	}
}

func TestSandboxTargetMatchesDrawingBuffer(t *testing.T) {
	gl, _ := newTestGL(t, 64, 48, 2)
	sb := NewSandbox(gl, nil, WithSamples(4))
	defer sb.Dispose()

	if w, h := sb.Target().Width(), sb.Target().Height(); w != 128 || h != 96 {
		t.Errorf("target = %dx%d, want 128x96", w, h)
	}
	if sb.Target().Samples() != 4 {
		t.Errorf("Samples = %d, want 4", sb.Target().Samples())
	}
	if w, h := sb.Texture().Size(); w != 128 || h != 96 {
		t.Errorf("texture = %dx%d, want 128x96", w, h)
	}
}

func TestSandboxResize(t *testing.T) {
	gl, _ := newTestGL(t, 64, 48, 1)
	sb := NewSandbox(gl, nil)
	defer sb.Dispose()
	tex := sb.Texture()

	gl.SetSize(100, 50, 1.5)
	sb.Resize()
	if w, h := sb.Target().Width(), sb.Target().Height(); w != 150 || h != 75 {
		t.Errorf("target = %dx%d, want 150x75", w, h)
	}
	allocs := sb.Target().allocations
	sb.Resize()
	if sb.Target().allocations != allocs {
		t.Error("same-size Resize should not reallocate")
	}
	if sb.Texture() != tex {
		t.Error("texture handle should survive a resize")
	}
}

func TestSandboxRotationAccumulates(t *testing.T) {
	gl, _ := newTestGL(t, 64, 48, 1)
	obj := NewGroup("obj")
	sb := NewSandbox(gl, obj)
	defer sb.Dispose()

	const frames = 3
	for range frames {
		gl.Time().Tick()
		sb.Update()
	}
	elapsed := frames * 0.5
	assertNear(t, "Rotation.X", obj.Rotation.X, elapsed*RotationRate.X)
	assertNear(t, "Rotation.Y", obj.Rotation.Y, elapsed*RotationRate.Y)
	assertNear(t, "Rotation.Z", obj.Rotation.Z, elapsed*RotationRate.Z)
}

func TestSandboxRotationAfterStallIsCapped(t *testing.T) {
	now := time.Unix(100, 0)
	clock := NewWallClock()
	clock.now = func() time.Time { return now }
	gl := NewGL(WithRenderer(&recordingRenderer{}), WithClock(clock))
	if err := gl.Setup(Container{Width: 64, Height: 48}); err != nil {
		t.Fatal(err)
	}
	obj := NewGroup("obj")
	sb := NewSandbox(gl, obj)
	defer sb.Dispose()

	gl.Time().Tick()
	now = now.Add(5 * time.Second)
	gl.Time().Tick()
	sb.Update()

	assertNear(t, "Rotation.X", obj.Rotation.X, clock.MaxDelta*RotationRate.X)
}

func TestSandboxLightsFollowCamera(t *testing.T) {
	gl, _ := newTestGL(t, 64, 48, 1)
	sb := NewSandbox(gl, nil)
	defer sb.Dispose()

	cam := gl.Camera()
	cam.Position = mgl64.Vec3{3, 2, 4}
	cam.LookAt(mgl64.Vec3{})
	sb.Update()

	if !QuatEqual(sb.Lights().Quaternion(), cam.Quaternion(), 1e-6) {
		t.Errorf("light group quaternion = %v, want %v", sb.Lights().Quaternion(), cam.Quaternion())
	}
}

func TestSandboxUpdateRestoresDefaultTarget(t *testing.T) {
	gl, rec := newTestGL(t, 64, 48, 1)
	sb := NewSandbox(gl, nil)
	defer sb.Dispose()

	sb.Update()
	if len(rec.calls) != 1 {
		t.Fatalf("Render called %d times, want 1", len(rec.calls))
	}
	if rec.calls[0].target != sb.Target() {
		t.Error("sandbox pass should render into its own target")
	}
	if rec.target != nil {
		t.Error("default target should be restored after Update")
	}
}

func TestSandboxDispose(t *testing.T) {
	gl, rec := newTestGL(t, 64, 48, 1)
	obj := NewMesh("box", NewBoxGeometry(1, 1, 1, 1), NewStandardMaterial(ColorWhite))
	sb := NewSandbox(gl, obj)

	sb.Dispose()
	sb.Dispose()
	if !sb.Target().IsDisposed() {
		t.Error("target should be disposed")
	}
	if sb.Scene().Root().NumChildren() != 0 {
		t.Error("scene should be emptied")
	}
	sb.Update()
	sb.Resize()
	if len(rec.calls) != 0 {
		t.Error("disposed sandbox should not render")
	}
}

package cubeportal

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// PointerSource supplies pointer state to OrbitControls once per frame.
type PointerSource interface {
	// Cursor returns the pointer position in drawing-buffer pixels.
	Cursor() (x, y float64)
	Pressed(b MouseButton) bool
	// Wheel returns the scroll delta since the last frame.
	Wheel() (dx, dy float64)
	// ResetRequested reports whether the user asked to restore the initial view.
	ResetRequested() bool
}

// EbitenPointer reads the mouse and keyboard through Ebitengine. R resets
// the view.
type EbitenPointer struct{}

func (EbitenPointer) Cursor() (float64, float64) {
	x, y := ebiten.CursorPosition()
	return float64(x), float64(y)
}

func (EbitenPointer) Pressed(b MouseButton) bool {
	return ebiten.IsMouseButtonPressed(b.ebiten())
}

func (EbitenPointer) Wheel() (float64, float64) {
	return ebiten.Wheel()
}

func (EbitenPointer) ResetRequested() bool {
	return inpututil.IsKeyJustPressed(ebiten.KeyR)
}

// pointerEvent is one frame of synthetic input.
type pointerEvent struct {
	x, y    float64
	pressed bool
	wheel   float64
}

// OrbitControls orbits the shared camera around Target on left-drag and
// dollies on scroll. Rotation is damped; dolly and reset are tweened.
type OrbitControls struct {
	Target mgl64.Vec3

	RotateSpeed   float64
	ZoomSpeed     float64
	DampingFactor float64
	MinDistance   float64
	MaxDistance   float64
	// DollyDuration is the tween length of one wheel step, in seconds.
	DollyDuration float64
	Enabled       bool

	gl    *GL
	input PointerSource

	theta, phi, radius float64
	dTheta, dPhi       float64

	dragging     bool
	lastX, lastY float64

	dolly *gween.Tween
	reset *gween.Tween

	initTheta, initPhi, initRadius float64
	resetFrom                      [3]float64

	injectQueue []pointerEvent

	// live holds pointer state captured by Sample until Update consumes it.
	live      pointerEvent
	liveReset bool
}

const polarEpsilon = 1e-6

// NewOrbitControls attaches controls to gl's camera. The camera's current
// position relative to the origin becomes the initial (and reset) view.
// A nil input disables live input; synthetic input still works.
func NewOrbitControls(gl *GL, input PointerSource) *OrbitControls {
	c := &OrbitControls{
		RotateSpeed:   1,
		ZoomSpeed:     1,
		DampingFactor: 0.05,
		MinDistance:   2.5,
		MaxDistance:   20,
		DollyDuration: 0.25,
		Enabled:       true,
		gl:            gl,
		input:         input,
	}
	c.sync()
	c.initTheta, c.initPhi, c.initRadius = c.theta, c.phi, c.radius
	return c
}

// sync reads the spherical state from the camera position.
func (c *OrbitControls) sync() {
	off := c.gl.Camera().Position.Sub(c.Target)
	c.radius = off.Len()
	if c.radius == 0 {
		c.theta, c.phi = 0, math.Pi/2
		return
	}
	c.theta = math.Atan2(off[0], off[2])
	c.phi = math.Acos(clamp(off[1]/c.radius, -1, 1))
}

// Spherical returns the current azimuth, polar angle and distance.
func (c *OrbitControls) Spherical() (theta, phi, radius float64) {
	return c.theta, c.phi, c.radius
}

// Reset tweens the camera back to the initial view.
func (c *OrbitControls) Reset() {
	c.dTheta, c.dPhi = 0, 0
	c.dolly = nil
	c.resetFrom = [3]float64{c.theta, c.phi, c.radius}
	c.reset = gween.New(0, 1, 0.6, ease.InOutCubic)
}

// InjectDrag queues a left-button drag from (fromX, fromY) to (toX, toY) that
// plays over frames frames (minimum 2: press and release).
func (c *OrbitControls) InjectDrag(fromX, fromY, toX, toY float64, frames int) {
	if frames < 2 {
		frames = 2
	}
	c.injectQueue = append(c.injectQueue, pointerEvent{x: fromX, y: fromY, pressed: true})
	steps := frames - 2
	for i := 1; i <= steps; i++ {
		t := float64(i) / float64(steps+1)
		c.injectQueue = append(c.injectQueue, pointerEvent{
			x:       fromX + (toX-fromX)*t,
			y:       fromY + (toY-fromY)*t,
			pressed: true,
		})
	}
	c.injectQueue = append(c.injectQueue, pointerEvent{x: toX, y: toY, pressed: true})
	c.injectQueue = append(c.injectQueue, pointerEvent{x: toX, y: toY})
}

// InjectWheel queues one scroll step. Positive dy dollies in.
func (c *OrbitControls) InjectWheel(dy float64) {
	c.injectQueue = append(c.injectQueue, pointerEvent{wheel: dy})
}

// Pending returns the number of queued synthetic events.
func (c *OrbitControls) Pending() int {
	return len(c.injectQueue)
}

// Sample captures the pointer source's state. GL calls it once per tick, so
// per-tick input such as a wheel step or a key press is applied once even
// when several frames are drawn in one tick.
func (c *OrbitControls) Sample() {
	if c.input == nil {
		return
	}
	c.live.x, c.live.y = c.input.Cursor()
	c.live.pressed = c.input.Pressed(MouseButtonLeft)
	_, dy := c.input.Wheel()
	c.live.wheel += dy
	if c.input.ResetRequested() {
		c.liveReset = true
	}
}

// Update consumes one frame of input and moves the camera. Synthetic events
// take precedence over sampled live input.
func (c *OrbitControls) Update() {
	if !c.Enabled {
		return
	}
	dt := c.gl.Time().Delta()

	var ev pointerEvent
	resetRequested := false
	if len(c.injectQueue) > 0 {
		ev = c.injectQueue[0]
		copy(c.injectQueue, c.injectQueue[1:])
		c.injectQueue = c.injectQueue[:len(c.injectQueue)-1]
	} else {
		ev, resetRequested = c.live, c.liveReset
		c.live.wheel, c.liveReset = 0, false
	}

	if resetRequested {
		c.Reset()
	}
	c.handlePointer(ev)
	c.advance(dt)
	c.apply()
}

func (c *OrbitControls) handlePointer(ev pointerEvent) {
	if ev.pressed {
		if c.dragging {
			_, h := c.gl.DrawingBufferSize()
			h = max(h, 1)
			c.dTheta -= 2 * math.Pi * (ev.x - c.lastX) / float64(h) * c.RotateSpeed
			c.dPhi -= 2 * math.Pi * (ev.y - c.lastY) / float64(h) * c.RotateSpeed
		}
		c.dragging = true
		c.lastX, c.lastY = ev.x, ev.y
		c.reset = nil
	} else {
		c.dragging = false
	}

	if ev.wheel != 0 {
		from := c.radius
		to := clamp(from*math.Pow(0.95, c.ZoomSpeed*ev.wheel), c.MinDistance, c.MaxDistance)
		c.dolly = gween.New(float32(from), float32(to), float32(c.DollyDuration), ease.OutQuad)
		c.reset = nil
	}
}

func (c *OrbitControls) advance(dt float64) {
	if c.reset != nil {
		t, done := c.reset.Update(float32(dt))
		k := float64(t)
		c.theta = c.resetFrom[0] + (c.initTheta-c.resetFrom[0])*k
		c.phi = c.resetFrom[1] + (c.initPhi-c.resetFrom[1])*k
		c.radius = c.resetFrom[2] + (c.initRadius-c.resetFrom[2])*k
		if done {
			c.theta, c.phi, c.radius = c.initTheta, c.initPhi, c.initRadius
			c.reset = nil
		}
		return
	}

	if c.dolly != nil {
		r, done := c.dolly.Update(float32(dt))
		c.radius = float64(r)
		if done {
			c.dolly = nil
		}
	}

	damping := clamp01(c.DampingFactor)
	if damping == 0 {
		damping = 1
	}
	c.theta += c.dTheta * damping
	c.phi += c.dPhi * damping
	c.dTheta *= 1 - damping
	c.dPhi *= 1 - damping
	c.phi = clamp(c.phi, polarEpsilon, math.Pi-polarEpsilon)
}

// apply writes the spherical state to the camera.
func (c *OrbitControls) apply() {
	sinPhi := math.Sin(c.phi)
	off := mgl64.Vec3{
		c.radius * sinPhi * math.Sin(c.theta),
		c.radius * math.Cos(c.phi),
		c.radius * sinPhi * math.Cos(c.theta),
	}
	cam := c.gl.Camera()
	cam.Position = c.Target.Add(off)
	cam.LookAt(c.Target)
}

package cubeportal

import (
	"github.com/go-gl/mathgl/mgl64"
)

// LightType selects how a Light contributes to shading.
type LightType uint8

const (
	LightAmbient     LightType = iota // uniform, directionless
	LightDirectional                  // parallel rays from Position toward Target
)

// Light is the payload of a NodeTypeLight node.
type Light struct {
	Type      LightType
	Color     Color
	Intensity float64

	// CastShadow enables the shadow map for directional lights.
	CastShadow bool
	Shadow     *LightShadow

	// Target is the point, in the light's parent space, the light shines at.
	Target mgl64.Vec3
}

// LightShadow holds the orthographic depth map of a shadow-casting light.
type LightShadow struct {
	Camera  OrthoFrustum
	MapSize int
	// Bias is subtracted from receiver depth to avoid self-shadowing acne.
	Bias float64

	depth    []float32
	viewProj mgl64.Mat4
	// dirty is the bounding box of texels written last pass, cleared before
	// the next one.
	dirty rect
}

// NewAmbientLight creates an ambient light node.
func NewAmbientLight(c Color, intensity float64) *Node {
	n := &Node{Name: "ambient", Type: NodeTypeLight}
	nodeDefaults(n)
	n.Light = &Light{Type: LightAmbient, Color: c, Intensity: intensity}
	return n
}

// NewDirectionalLight creates a directional light node shining from its
// position toward the origin.
func NewDirectionalLight(c Color, intensity float64) *Node {
	n := &Node{Name: "directional", Type: NodeTypeLight}
	nodeDefaults(n)
	n.Position = mgl64.Vec3{0, 1, 0}
	n.Light = &Light{Type: LightDirectional, Color: c, Intensity: intensity}
	return n
}

// EnableShadow turns on shadow casting for a directional light with the given
// orthographic frustum and square map size.
func (l *Light) EnableShadow(frustum OrthoFrustum, mapSize int) {
	if mapSize < 1 {
		mapSize = 1
	}
	l.CastShadow = true
	l.Shadow = &LightShadow{
		Camera:  frustum,
		MapSize: mapSize,
		Bias:    0.002,
		depth:   make([]float32, mapSize*mapSize),
		dirty:   rect{0, 0, mapSize, mapSize},
	}
}

// rect is an integer pixel rectangle [x0, x1) x [y0, y1).
type rect struct {
	x0, y0, x1, y1 int
}

func (r rect) empty() bool { return r.x1 <= r.x0 || r.y1 <= r.y0 }

func (r rect) union(o rect) rect {
	if r.empty() {
		return o
	}
	if o.empty() {
		return r
	}
	return rect{min(r.x0, o.x0), min(r.y0, o.y0), max(r.x1, o.x1), max(r.y1, o.y1)}
}

// sceneLight is a light resolved to world space for one render pass.
type sceneLight struct {
	light     *Light
	color     rgb // linear, premultiplied by intensity
	direction mgl64.Vec3
	position  mgl64.Vec3
	target    mgl64.Vec3
}

// collectLights resolves every visible light in the scene. World matrices
// must be current.
func collectLights(root *Node) (ambient rgb, dirs []sceneLight) {
	root.Traverse(func(n *Node) {
		if n.Type != NodeTypeLight || n.Light == nil || !n.Visible {
			return
		}
		l := n.Light
		c := l.Color.linear().scale(l.Intensity)
		switch l.Type {
		case LightAmbient:
			ambient = ambient.add(c)
		case LightDirectional:
			target := l.Target
			if n.Parent != nil {
				target = n.Parent.worldMatrix.Mul4x1(target.Vec4(1)).Vec3()
			}
			pos := n.WorldPosition()
			dir := safeNormalize(pos.Sub(target))
			if dir.Len() == 0 {
				dir = axisY
			}
			dirs = append(dirs, sceneLight{light: l, color: c, direction: dir, position: pos, target: target})
		}
	})
	return ambient, dirs
}

package cubeportal

import (
	"github.com/hajimehoshi/ebiten/v2"
)

// Material describes how a mesh is shaded. Implemented by *StandardMaterial
// and *ShaderMaterial.
type Material interface {
	// MaterialSide reports which triangle faces are drawn.
	MaterialSide() Side
}

// StandardMaterial is a physically-inspired metal/roughness material shaded
// per vertex on the CPU.
type StandardMaterial struct {
	Color Color
	Side  Side

	// Metalness in [0, 1]. Metals have no diffuse term and tint reflections.
	Metalness float64
	// Roughness in [0, 1] controls specular highlight size and reflection blur.
	Roughness float64

	// EnvMap, when non-nil, contributes image-based reflections.
	EnvMap          *EnvMap
	EnvMapIntensity float64
}

// NewStandardMaterial returns a dielectric material of the given color.
func NewStandardMaterial(c Color) *StandardMaterial {
	return &StandardMaterial{Color: c, Roughness: 1, EnvMapIntensity: 1}
}

// MaterialSide implements Material.
func (m *StandardMaterial) MaterialSide() Side { return m.Side }

// Uniform is a named shader input. Value is a *Texture for texture slots and
// a float32, []float32 or int for everything else.
type Uniform struct {
	Value any
}

// ShaderMaterial draws a mesh with a user-supplied Kage program. Texture
// uniforms are bound to source image slots in the order of TextureSlots.
type ShaderMaterial struct {
	Source   []byte
	Uniforms map[string]*Uniform
	Side     Side

	// TextureSlots names the texture uniforms bound to image 0..3.
	TextureSlots []string

	shader *ebiten.Shader
}

// NewShaderMaterial creates a material running src. Each name in textures
// becomes a texture uniform initialised to nil.
func NewShaderMaterial(src []byte, textures ...string) *ShaderMaterial {
	m := &ShaderMaterial{
		Source:       src,
		Uniforms:     make(map[string]*Uniform, len(textures)),
		TextureSlots: textures,
	}
	for _, name := range textures {
		m.Uniforms[name] = &Uniform{}
	}
	return m
}

// MaterialSide implements Material.
func (m *ShaderMaterial) MaterialSide() Side { return m.Side }

// SetTexture stores a borrowed texture reference in the named uniform.
// The material never takes ownership of t.
func (m *ShaderMaterial) SetTexture(name string, t *Texture) {
	u, ok := m.Uniforms[name]
	if !ok {
		u = &Uniform{}
		m.Uniforms[name] = u
	}
	u.Value = t
}

// Texture returns the texture currently bound to the named uniform, or nil.
func (m *ShaderMaterial) Texture(name string) *Texture {
	u, ok := m.Uniforms[name]
	if !ok {
		return nil
	}
	t, _ := u.Value.(*Texture)
	return t
}

// ensureShader compiles the program on first use.
func (m *ShaderMaterial) ensureShader() *ebiten.Shader {
	if m.shader == nil {
		s, err := ebiten.NewShader(m.Source)
		if err != nil {
			panic("cubeportal: failed to compile screen shader: " + err.Error())
		}
		m.shader = s
	}
	return m.shader
}

// images returns the bound source images. ok is false when a slot is unset or
// the bound images differ in size.
func (m *ShaderMaterial) images() (imgs [4]*ebiten.Image, ok bool) {
	if len(m.TextureSlots) == 0 {
		return imgs, false
	}
	for i, name := range m.TextureSlots {
		if i >= len(imgs) {
			break
		}
		t := m.Texture(name)
		if t == nil || t.Image() == nil {
			return imgs, false
		}
		imgs[i] = t.Image()
		if i > 0 && imgs[i].Bounds().Size() != imgs[0].Bounds().Size() {
			return imgs, false
		}
	}
	return imgs, true
}

// scalarUniforms collects the non-texture uniforms for shader submission.
func (m *ShaderMaterial) scalarUniforms() map[string]any {
	var out map[string]any
	for name, u := range m.Uniforms {
		if u == nil || u.Value == nil {
			continue
		}
		if _, isTex := u.Value.(*Texture); isTex {
			continue
		}
		if out == nil {
			out = make(map[string]any)
		}
		out[name] = u.Value
	}
	return out
}

// Dispose releases the compiled shader.
func (m *ShaderMaterial) Dispose() {
	if m.shader != nil {
		m.shader.Deallocate()
		m.shader = nil
	}
}

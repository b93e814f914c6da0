package cubeportal

import (
	"testing"

	"github.com/hajimehoshi/ebiten/v2"
)

func TestNewShaderMaterialDeclaresTextures(t *testing.T) {
	m := NewShaderMaterial(ScreenShaderSource, ScreenTextureUniform)
	if _, ok := m.Uniforms[ScreenTextureUniform]; !ok {
		t.Fatal("texture uniform should be declared")
	}
	if m.Texture(ScreenTextureUniform) != nil {
		t.Error("texture should start unbound")
	}
	if m.Texture("missing") != nil {
		t.Error("unknown uniform should report nil")
	}
}

func TestShaderMaterialSetTexture(t *testing.T) {
	m := NewShaderMaterial(ScreenShaderSource, ScreenTextureUniform)
	a := NewTextureFromImage(ebiten.NewImage(8, 8))
	b := NewTextureFromImage(ebiten.NewImage(8, 8))

	m.SetTexture(ScreenTextureUniform, a)
	m.SetTexture(ScreenTextureUniform, b)
	if m.Texture(ScreenTextureUniform) != b {
		t.Error("last bound texture should win")
	}
	m.SetTexture(ScreenTextureUniform, nil)
	if m.Texture(ScreenTextureUniform) != nil {
		t.Error("nil should unbind")
	}
}

func TestShaderMaterialImages(t *testing.T) {
	m := NewShaderMaterial(ScreenShaderSource, "a", "b")
	if _, ok := m.images(); ok {
		t.Error("unbound slots should not be drawable")
	}
	m.SetTexture("a", NewTextureFromImage(ebiten.NewImage(8, 8)))
	m.SetTexture("b", NewTextureFromImage(ebiten.NewImage(4, 4)))
	if _, ok := m.images(); ok {
		t.Error("mismatched image sizes should not be drawable")
	}
	m.SetTexture("b", NewTextureFromImage(ebiten.NewImage(8, 8)))
	imgs, ok := m.images()
	if !ok || imgs[0] == nil || imgs[1] == nil || imgs[2] != nil {
		t.Errorf("images() = %v, %v; want two bound slots", imgs, ok)
	}
}

func TestShaderMaterialScalarUniforms(t *testing.T) {
	m := NewShaderMaterial(ScreenShaderSource, ScreenTextureUniform)
	if m.scalarUniforms() != nil {
		t.Error("textures only: scalar uniforms should be nil")
	}
	m.SetTexture(ScreenTextureUniform, NewTextureFromImage(ebiten.NewImage(2, 2)))
	m.Uniforms["Exposure"] = &Uniform{Value: float32(1.5)}
	u := m.scalarUniforms()
	if len(u) != 1 || u["Exposure"] != float32(1.5) {
		t.Errorf("scalarUniforms() = %v, want only Exposure", u)
	}
}

func TestScreenShaderCompiles(t *testing.T) {
	m := NewShaderMaterial(ScreenShaderSource, ScreenTextureUniform)
	if m.ensureShader() == nil {
		t.Fatal("shader should compile")
	}
	first := m.ensureShader()
	if m.ensureShader() != first {
		t.Error("shader should be compiled once")
	}
	m.Dispose()
	m.Dispose()
	if m.shader != nil {
		t.Error("Dispose should release the shader")
	}
}

func TestStandardMaterialDefaults(t *testing.T) {
	m := NewStandardMaterial(Hex("#f00"))
	if m.MaterialSide() != SideFront {
		t.Errorf("Side = %v, want SideFront", m.MaterialSide())
	}
	if m.Roughness != 1 || m.Metalness != 0 || m.EnvMapIntensity != 1 {
		t.Errorf("defaults = %+v", m)
	}
}

package cubeportal

import (
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

var colorGray = color.RGBA{128, 128, 128, 255}

func uniformImage(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return img
}

func TestNewEnvMapResamples(t *testing.T) {
	m := NewEnvMap(uniformImage(64, 32, color.RGBA{255, 255, 255, 255}))
	if w, h := m.Size(); w != envMapWidth || h != envMapHeight {
		t.Errorf("Size() = %dx%d, want %dx%d", w, h, envMapWidth, envMapHeight)
	}
	// 256x128 down to 4x2.
	if len(m.levels) != 7 {
		t.Errorf("levels = %d, want 7", len(m.levels))
	}
	last := m.levels[len(m.levels)-1]
	if last.w != 4 || last.h != 2 {
		t.Errorf("smallest level = %dx%d, want 4x2", last.w, last.h)
	}
}

func TestEnvMapUniformSampleIsLinear(t *testing.T) {
	m := NewEnvMap(uniformImage(32, 16, color.RGBA{128, 128, 128, 255}))
	want := srgbToLinear(128.0 / 255)
	for _, dir := range []mgl64.Vec3{{1, 0, 0}, {0, 1, 0}, {0, -1, 0}, {0.3, 0.2, -0.9}} {
		for _, rough := range []float64{0, 0.5, 1} {
			got := m.Sample(dir, rough)
			if !approxEqual(got[0], want, 5e-3) {
				t.Errorf("Sample(%v, %v) = %v, want %v", dir, rough, got[0], want)
			}
		}
	}
}

func TestEnvMapSampleDirection(t *testing.T) {
	// Top half bright, bottom half dark.
	img := uniformImage(64, 32, color.RGBA{0, 0, 0, 255})
	for y := 0; y < 16; y++ {
		for x := 0; x < 64; x++ {
			img.SetRGBA(x, y, color.RGBA{255, 255, 255, 255})
		}
	}
	m := NewEnvMap(img)
	up := m.Sample(mgl64.Vec3{0, 1, 0}, 0)
	down := m.Sample(mgl64.Vec3{0, -1, 0}, 0)
	if up[0] < 0.9 || down[0] > 0.1 {
		t.Errorf("up = %v, down = %v; want bright sky and dark floor", up[0], down[0])
	}
}

func TestEnvMapNilAndZeroDirection(t *testing.T) {
	var m *EnvMap
	if got := m.Sample(mgl64.Vec3{0, 1, 0}, 0); got != (rgb{}) {
		t.Errorf("nil map Sample = %v, want black", got)
	}
	if w, h := m.Size(); w != 0 || h != 0 {
		t.Errorf("nil map Size = %dx%d", w, h)
	}
	studio := NewStudioEnvMap()
	if got := studio.Sample(mgl64.Vec3{}, 0); got != (rgb{}) {
		t.Errorf("zero direction Sample = %v, want black", got)
	}
}

func TestStudioEnvMapHasSoftboxes(t *testing.T) {
	m := NewStudioEnvMap()
	// Key softbox at azimuth pi/4, elevation 0.5.
	dir := mgl64.Vec3{math.Cos(0.5) * math.Cos(math.Pi/4), math.Sin(0.5), math.Cos(0.5) * math.Sin(math.Pi/4)}
	box := m.Sample(dir, 0)
	floor := m.Sample(mgl64.Vec3{0, -1, 0}, 0)
	if box[0] <= 1 {
		t.Errorf("softbox radiance = %v, want > 1", box[0])
	}
	if floor[0] > 0.05 {
		t.Errorf("floor radiance = %v, want dim", floor[0])
	}
}

func TestEnvLevelWraps(t *testing.T) {
	l := envLevel{w: 2, h: 1, pix: []rgb{{1, 0, 0}, {0, 1, 0}}}
	if l.at(-1, 0) != l.at(1, 0) {
		t.Error("x should wrap")
	}
	if l.at(0, 5) != l.at(0, 0) {
		t.Error("y should clamp")
	}
}

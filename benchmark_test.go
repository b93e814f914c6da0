package cubeportal

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

// setupBenchSandbox creates a sandbox showing one of the default subjects,
// rendered by the Ebitengine renderer at 640x480.
func setupBenchSandbox(b *testing.B, face int) (*GL, *Sandbox) {
	b.Helper()
	gl := NewGL(WithClock(&FixedClock{Step: 1.0 / 60}))
	if err := gl.Setup(Container{Width: 640, Height: 480}); err != nil {
		b.Fatal(err)
	}
	gl.Camera().Position = mgl64.Vec3{0, 0, 5}
	gl.Camera().LookAt(mgl64.Vec3{})
	sb := NewSandbox(gl, DefaultFaces()[face].Subject.NewMesh(), WithShadowMapSize(256))
	return gl, sb
}

// --- Sandbox pass benchmarks ---

func BenchmarkSandboxUpdate_Box(b *testing.B) {
	gl, sb := setupBenchSandbox(b, 0)
	defer sb.Dispose()

	// Warm up: first pass grows the scratch buffers.
	gl.Time().Tick()
	sb.Update()

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		gl.Time().Tick()
		sb.Update()
	}
}

func BenchmarkSandboxUpdate_TorusKnot(b *testing.B) {
	gl, sb := setupBenchSandbox(b, 3)
	defer sb.Dispose()

	gl.Time().Tick()
	sb.Update() // warmup

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		gl.Time().Tick()
		sb.Update()
	}
}

// --- Sort benchmarks ---

func BenchmarkMergeSort_4000(b *testing.B) {
	src := make([]triangle, 4000)
	for i := range src {
		src[i] = triangle{depth: float64((i*7919)%4000) / 4000, order: i}
	}
	r := &rasterRenderer{tris: make([]triangle, len(src))}
	copy(r.tris, src)
	r.mergeSort() // warmup

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		copy(r.tris, src)
		r.mergeSort()
	}
}

func BenchmarkCollectMesh_TorusKnot(b *testing.B) {
	cam := NewCamera(50, 4.0/3, 0.01, 100)
	cam.Position = mgl64.Vec3{0, 0, 2}
	knot := DefaultFaces()[3].Subject.NewMesh()
	knot.UpdateWorldMatrix()
	pass := passState{
		width:   640,
		height:  480,
		viewPrj: cam.ProjectionMatrix().Mul4(cam.ViewMatrix()),
		eye:     cam.Position,
		ambient: rgb{0.2, 0.2, 0.2},
	}
	r := &rasterRenderer{}

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		r.verts = r.verts[:0]
		r.tris = r.tris[:0]
		r.collectMesh(&pass, knot)
	}
}

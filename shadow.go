package cubeportal

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// begin prepares the depth map for a new pass from a light at eye shining at
// target. Only the texels written by the previous pass are cleared.
func (s *LightShadow) begin(eye, target mgl64.Vec3) {
	size := s.MapSize
	if len(s.depth) != size*size {
		s.depth = make([]float32, size*size)
		s.dirty = rect{0, 0, size, size}
	}
	inf := float32(math.Inf(1))
	for y := s.dirty.y0; y < s.dirty.y1; y++ {
		row := s.depth[y*size : (y+1)*size]
		for x := s.dirty.x0; x < s.dirty.x1; x++ {
			row[x] = inf
		}
	}
	s.dirty = rect{}

	up := axisY
	if math.Abs(safeNormalize(eye.Sub(target)).Dot(up)) > 0.999 {
		up = axisZ
	}
	view := mgl64.LookAtV(eye, target, up)
	s.viewProj = s.Camera.Matrix().Mul4(view)
}

// project maps a world point to depth-map texel space. z is NDC depth.
func (s *LightShadow) project(p mgl64.Vec3) mgl64.Vec3 {
	c := s.viewProj.Mul4x1(p.Vec4(1))
	size := float64(s.MapSize)
	return mgl64.Vec3{
		(c[0] + 1) / 2 * size,
		(1 - c[1]) / 2 * size,
		c[2],
	}
}

// rasterize writes the nearest depth of a light-space triangle.
func (s *LightShadow) rasterize(a, b, c mgl64.Vec3) {
	area := edge(a, b, c)
	if math.Abs(area) < 1e-12 {
		return
	}
	size := s.MapSize
	x0 := max(int(math.Floor(min(a[0], b[0], c[0]))), 0)
	y0 := max(int(math.Floor(min(a[1], b[1], c[1]))), 0)
	x1 := min(int(math.Ceil(max(a[0], b[0], c[0]))), size)
	y1 := min(int(math.Ceil(max(a[1], b[1], c[1]))), size)
	if x0 >= x1 || y0 >= y1 {
		return
	}
	inv := 1 / area
	wrote := false
	for y := y0; y < y1; y++ {
		p := mgl64.Vec3{0, float64(y) + 0.5, 0}
		row := s.depth[y*size : (y+1)*size]
		for x := x0; x < x1; x++ {
			p[0] = float64(x) + 0.5
			w0 := edge(b, c, p) * inv
			w1 := edge(c, a, p) * inv
			w2 := edge(a, b, p) * inv
			if w0 < 0 || w1 < 0 || w2 < 0 {
				continue
			}
			z := float32(w0*a[2] + w1*b[2] + w2*c[2])
			if z < row[x] {
				row[x] = z
				wrote = true
			}
		}
	}
	if wrote {
		s.dirty = s.dirty.union(rect{x0, y0, x1, y1})
	}
}

// visibility returns the lit fraction of world point p using a 3x3
// percentage-closer filter. Points outside the map are fully lit.
func (s *LightShadow) visibility(p mgl64.Vec3) float64 {
	t := s.project(p)
	if t[2] > 1 || t[2] < -1 {
		return 1
	}
	size := s.MapSize
	cx, cy := int(t[0]), int(t[1])
	if cx < 0 || cy < 0 || cx >= size || cy >= size {
		return 1
	}
	z := float32(t[2] - s.Bias)
	lit, total := 0, 0
	for dy := -1; dy <= 1; dy++ {
		y := cy + dy
		if y < 0 || y >= size {
			continue
		}
		for dx := -1; dx <= 1; dx++ {
			x := cx + dx
			if x < 0 || x >= size {
				continue
			}
			total++
			if z <= s.depth[y*size+x] {
				lit++
			}
		}
	}
	return float64(lit) / float64(total)
}

// edge is the 2D edge function of p against a->b, twice the signed area.
func edge(a, b, p mgl64.Vec3) float64 {
	return (b[0]-a[0])*(p[1]-a[1]) - (b[1]-a[1])*(p[0]-a[0])
}

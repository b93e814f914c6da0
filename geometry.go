package cubeportal

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Geometry is an indexed triangle list with per-vertex normals. Triangles
// wind counter-clockwise when seen from the side their normals point to.
type Geometry struct {
	Positions []mgl64.Vec3
	Normals   []mgl64.Vec3
	Indices   []uint32
}

// TriangleCount returns the number of indexed triangles.
func (g *Geometry) TriangleCount() int {
	return len(g.Indices) / 3
}

// Clone returns a deep copy.
func (g *Geometry) Clone() *Geometry {
	return &Geometry{
		Positions: append([]mgl64.Vec3(nil), g.Positions...),
		Normals:   append([]mgl64.Vec3(nil), g.Normals...),
		Indices:   append([]uint32(nil), g.Indices...),
	}
}

// ApplyMatrix transforms positions by m and normals by its normal matrix,
// in place. Returns g for chaining.
func (g *Geometry) ApplyMatrix(m mgl64.Mat4) *Geometry {
	nm := normalMatrix(m)
	for i, p := range g.Positions {
		g.Positions[i] = m.Mul4x1(p.Vec4(1)).Vec3()
	}
	for i, n := range g.Normals {
		g.Normals[i] = safeNormalize(nm.Mul3x1(n))
	}
	return g
}

// Translate offsets every position. Returns g for chaining.
func (g *Geometry) Translate(x, y, z float64) *Geometry {
	return g.ApplyMatrix(mgl64.Translate3D(x, y, z))
}

// RotateX rotates the geometry about the X axis. Returns g for chaining.
func (g *Geometry) RotateX(angle float64) *Geometry {
	return g.ApplyMatrix(mgl64.HomogRotate3DX(angle))
}

// RotateY rotates the geometry about the Y axis. Returns g for chaining.
func (g *Geometry) RotateY(angle float64) *Geometry {
	return g.ApplyMatrix(mgl64.HomogRotate3DY(angle))
}

// ComputeVertexNormals replaces Normals with area-weighted averages of the
// adjacent face normals.
func (g *Geometry) ComputeVertexNormals() {
	normals := make([]mgl64.Vec3, len(g.Positions))
	for i := 0; i+2 < len(g.Indices); i += 3 {
		a, b, c := g.Indices[i], g.Indices[i+1], g.Indices[i+2]
		pa, pb, pc := g.Positions[a], g.Positions[b], g.Positions[c]
		fn := pb.Sub(pa).Cross(pc.Sub(pa))
		normals[a] = normals[a].Add(fn)
		normals[b] = normals[b].Add(fn)
		normals[c] = normals[c].Add(fn)
	}
	for i := range normals {
		normals[i] = safeNormalize(normals[i])
	}
	g.Normals = normals
}

// MergeGeometries concatenates geometries into one.
func MergeGeometries(parts ...*Geometry) *Geometry {
	out := &Geometry{}
	for _, p := range parts {
		base := uint32(len(out.Positions))
		out.Positions = append(out.Positions, p.Positions...)
		out.Normals = append(out.Normals, p.Normals...)
		for _, idx := range p.Indices {
			out.Indices = append(out.Indices, base+idx)
		}
	}
	return out
}

func safeNormalize(v mgl64.Vec3) mgl64.Vec3 {
	l := v.Len()
	if l == 0 {
		return v
	}
	return v.Mul(1 / l)
}

// --- Builders ---

// boxFace describes one face of an axis-aligned box: u x v == normal.
type boxFace struct {
	normal, u, v mgl64.Vec3
}

var boxFaces = [6]boxFace{
	{normal: mgl64.Vec3{1, 0, 0}, u: mgl64.Vec3{0, 0, -1}, v: mgl64.Vec3{0, 1, 0}},
	{normal: mgl64.Vec3{-1, 0, 0}, u: mgl64.Vec3{0, 0, 1}, v: mgl64.Vec3{0, 1, 0}},
	{normal: mgl64.Vec3{0, 1, 0}, u: mgl64.Vec3{1, 0, 0}, v: mgl64.Vec3{0, 0, -1}},
	{normal: mgl64.Vec3{0, -1, 0}, u: mgl64.Vec3{1, 0, 0}, v: mgl64.Vec3{0, 0, 1}},
	{normal: mgl64.Vec3{0, 0, 1}, u: mgl64.Vec3{1, 0, 0}, v: mgl64.Vec3{0, 1, 0}},
	{normal: mgl64.Vec3{0, 0, -1}, u: mgl64.Vec3{-1, 0, 0}, v: mgl64.Vec3{0, 1, 0}},
}

// extentAlong returns the box dimension along a unit axis.
func extentAlong(axis, dims mgl64.Vec3) float64 {
	return math.Abs(axis[0])*dims[0] + math.Abs(axis[1])*dims[1] + math.Abs(axis[2])*dims[2]
}

// appendGrid appends a segU x segV grid spanning [-halfU, halfU] x [-halfV, halfV]
// on the plane offset by halfN along f.normal.
func (g *Geometry) appendGrid(f boxFace, halfU, halfV, halfN float64, segU, segV int) {
	if segU < 1 {
		segU = 1
	}
	if segV < 1 {
		segV = 1
	}
	base := uint32(len(g.Positions))
	center := f.normal.Mul(halfN)
	for j := 0; j <= segV; j++ {
		v := -halfV + 2*halfV*float64(j)/float64(segV)
		for i := 0; i <= segU; i++ {
			u := -halfU + 2*halfU*float64(i)/float64(segU)
			g.Positions = append(g.Positions, center.Add(f.u.Mul(u)).Add(f.v.Mul(v)))
			g.Normals = append(g.Normals, f.normal)
		}
	}
	row := uint32(segU + 1)
	for j := 0; j < segV; j++ {
		for i := 0; i < segU; i++ {
			a := base + uint32(j)*row + uint32(i)
			b := a + 1
			c := b + row
			d := a + row
			g.Indices = append(g.Indices, a, b, c, a, c, d)
		}
	}
}

// NewBoxGeometry creates a box centered at the origin. Each face is split into
// segments x segments quads.
func NewBoxGeometry(width, height, depth float64, segments int) *Geometry {
	g := &Geometry{}
	dims := mgl64.Vec3{width, height, depth}
	for _, f := range boxFaces {
		g.appendGrid(f,
			extentAlong(f.u, dims)/2,
			extentAlong(f.v, dims)/2,
			extentAlong(f.normal, dims)/2,
			segments, segments)
	}
	return g
}

// NewPlaneGeometry creates a plane in the XY plane facing +Z.
func NewPlaneGeometry(width, height float64, widthSegments, heightSegments int) *Geometry {
	g := &Geometry{}
	g.appendGrid(boxFaces[4], width/2, height/2, 0, widthSegments, heightSegments)
	return g
}

// newPolyhedron builds a flat-shaded convex polyhedron from unit directions,
// projected onto a sphere of the given radius. Faces are re-wound outward.
func newPolyhedron(vertices []mgl64.Vec3, faces [][3]int, radius float64) *Geometry {
	g := &Geometry{}
	for _, f := range faces {
		a := vertices[f[0]].Normalize().Mul(radius)
		b := vertices[f[1]].Normalize().Mul(radius)
		c := vertices[f[2]].Normalize().Mul(radius)
		n := b.Sub(a).Cross(c.Sub(a))
		if n.Dot(a.Add(b).Add(c)) < 0 {
			b, c = c, b
			n = n.Mul(-1)
		}
		n = safeNormalize(n)
		base := uint32(len(g.Positions))
		g.Positions = append(g.Positions, a, b, c)
		g.Normals = append(g.Normals, n, n, n)
		g.Indices = append(g.Indices, base, base+1, base+2)
	}
	return g
}

// NewOctahedronGeometry creates a regular octahedron.
func NewOctahedronGeometry(radius float64) *Geometry {
	verts := []mgl64.Vec3{
		{1, 0, 0}, {-1, 0, 0}, {0, 1, 0},
		{0, -1, 0}, {0, 0, 1}, {0, 0, -1},
	}
	faces := [][3]int{
		{0, 2, 4}, {0, 4, 3}, {0, 3, 5}, {0, 5, 2},
		{1, 2, 5}, {1, 5, 3}, {1, 3, 4}, {1, 4, 2},
	}
	return newPolyhedron(verts, faces, radius)
}

// NewTetrahedronGeometry creates a regular tetrahedron.
func NewTetrahedronGeometry(radius float64) *Geometry {
	verts := []mgl64.Vec3{{1, 1, 1}, {-1, -1, 1}, {-1, 1, -1}, {1, -1, -1}}
	faces := [][3]int{{2, 1, 0}, {0, 3, 2}, {1, 3, 0}, {2, 3, 1}}
	return newPolyhedron(verts, faces, radius)
}

// NewTorusKnotGeometry creates a (p, q) torus knot tube.
func NewTorusKnotGeometry(radius, tube float64, tubularSegments, radialSegments int, p, q float64) *Geometry {
	g := &Geometry{}
	knot := func(u float64) mgl64.Vec3 {
		cu, su := math.Cos(u), math.Sin(u)
		quOverP := q / p * u
		cs := math.Cos(quOverP)
		return mgl64.Vec3{
			radius * (2 + cs) * 0.5 * cu,
			radius * (2 + cs) * su * 0.5,
			radius * math.Sin(quOverP) * 0.5,
		}
	}
	for i := 0; i <= tubularSegments; i++ {
		u := float64(i) / float64(tubularSegments) * p * math.Pi * 2
		p1 := knot(u)
		p2 := knot(u + 0.01)
		t := p2.Sub(p1)
		n := p2.Add(p1)
		b := safeNormalize(t.Cross(n))
		n = safeNormalize(b.Cross(t))
		for j := 0; j <= radialSegments; j++ {
			v := float64(j) / float64(radialSegments) * math.Pi * 2
			cx := -tube * math.Cos(v)
			cy := tube * math.Sin(v)
			pos := p1.Add(n.Mul(cx)).Add(b.Mul(cy))
			g.Positions = append(g.Positions, pos)
			g.Normals = append(g.Normals, safeNormalize(pos.Sub(p1)))
		}
	}
	row := uint32(radialSegments + 1)
	for j := uint32(1); j <= uint32(tubularSegments); j++ {
		for i := uint32(1); i <= uint32(radialSegments); i++ {
			a := row*(j-1) + (i - 1)
			b := row*j + (i - 1)
			c := row*j + i
			d := row*(j-1) + i
			g.Indices = append(g.Indices, a, b, d, b, c, d)
		}
	}
	return g
}

// NewFrameGeometry creates the twelve edge beams of a cube with the given
// half-extent. Beams have a square cross-section of side thickness.
func NewFrameGeometry(halfExtent, thickness float64) *Geometry {
	length := 2*halfExtent + thickness
	var parts []*Geometry
	for _, a := range []float64{-halfExtent, halfExtent} {
		for _, b := range []float64{-halfExtent, halfExtent} {
			parts = append(parts,
				NewBoxGeometry(length, thickness, thickness, 1).Translate(0, a, b),
				NewBoxGeometry(thickness, length, thickness, 1).Translate(a, 0, b),
				NewBoxGeometry(thickness, thickness, length, 1).Translate(a, b, 0),
			)
		}
	}
	return MergeGeometries(parts...)
}

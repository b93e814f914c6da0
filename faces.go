package cubeportal

import "math"

// Face places a screen on one side of the enclosure. The screen plane is built
// facing +Z just inside the unit cube and then rotated by Rotation.
type Face struct {
	Name     string
	Rotation Euler
}

// Subject is the solid a sandbox animates.
type Subject struct {
	Name  string
	Color Color
	// Geometry builds a fresh geometry for each sandbox.
	Geometry func() *Geometry
}

// NewMesh builds the subject's shadow-casting, shadow-receiving mesh.
func (s Subject) NewMesh() *Node {
	var geo *Geometry
	if s.Geometry != nil {
		geo = s.Geometry()
	}
	if geo == nil {
		return nil
	}
	m := NewMesh(s.Name, geo, NewStandardMaterial(s.Color))
	m.CastShadow = true
	m.ReceiveShadow = true
	return m
}

// FaceSpec pairs a face with the subject shown on it. A compositor builds
// exactly one screen and one sandbox per entry, in order.
type FaceSpec struct {
	Face    Face
	Subject Subject
}

// DefaultFaces returns the six-face catalog: a cube, an octahedron, a
// tetrahedron and three torus knots.
func DefaultFaces() []FaceSpec {
	knot := func(p, q float64, turn bool) func() *Geometry {
		return func() *Geometry {
			g := NewTorusKnotGeometry(0.3, 0.1, 200, 20, p, q)
			if turn {
				g.RotateY(math.Pi / 2)
			}
			return g
		}
	}
	return []FaceSpec{
		{
			Face:    Face{Name: "front"},
			Subject: Subject{Name: "box", Color: Hex("#fff"), Geometry: func() *Geometry { return NewBoxGeometry(0.7, 0.7, 0.7, 1) }},
		},
		{
			Face:    Face{Name: "bottom", Rotation: Euler{X: math.Pi / 2}},
			Subject: Subject{Name: "octahedron", Color: Hex("#0af"), Geometry: func() *Geometry { return NewOctahedronGeometry(0.5) }},
		},
		{
			Face:    Face{Name: "top", Rotation: Euler{X: -math.Pi / 2}},
			Subject: Subject{Name: "tetrahedron", Color: Hex("#f66"), Geometry: func() *Geometry { return NewTetrahedronGeometry(0.5) }},
		},
		{
			Face:    Face{Name: "right", Rotation: Euler{Y: math.Pi / 2}},
			Subject: Subject{Name: "torusknot-1-3", Color: Hex("#fa0"), Geometry: knot(1, 3, true)},
		},
		{
			Face:    Face{Name: "back", Rotation: Euler{Y: math.Pi}},
			Subject: Subject{Name: "torusknot-2-1", Color: Hex("#af0"), Geometry: knot(2, 1, false)},
		},
		{
			Face:    Face{Name: "left", Rotation: Euler{Y: -math.Pi / 2}},
			Subject: Subject{Name: "torusknot-2-3", Color: Hex("#a0f"), Geometry: knot(2, 3, true)},
		},
	}
}

package cubeportal

import (
	"bytes"
	"fmt"
	"io/fs"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

// decodeGLTF decodes a .glb or .gltf document into a node tree rooted at a
// group named after the default scene. External buffers resolve against dir.
func decodeGLTF(data []byte, dir fs.FS) (*Node, error) {
	doc := new(gltf.Document)
	var dec *gltf.Decoder
	if dir != nil {
		dec = gltf.NewDecoderFS(bytes.NewReader(data), dir)
	} else {
		dec = gltf.NewDecoder(bytes.NewReader(data))
	}
	if err := dec.Decode(doc); err != nil {
		return nil, fmt.Errorf("%w: gltf: %v", ErrAssetFormat, err)
	}

	root := NewGroup("scene")
	var nodes []int
	switch {
	case doc.Scene != nil && *doc.Scene < len(doc.Scenes):
		s := doc.Scenes[*doc.Scene]
		root.Name = s.Name
		nodes = s.Nodes
	case len(doc.Scenes) > 0:
		root.Name = doc.Scenes[0].Name
		nodes = doc.Scenes[0].Nodes
	}

	meshes := make(map[int][]*Geometry)
	for _, idx := range nodes {
		n, err := buildGLTFNode(doc, idx, meshes, 0)
		if err != nil {
			return nil, err
		}
		root.AddChild(n)
	}
	return root, nil
}

const maxGLTFDepth = 64

func buildGLTFNode(doc *gltf.Document, idx int, meshes map[int][]*Geometry, depth int) (*Node, error) {
	if idx < 0 || idx >= len(doc.Nodes) || depth > maxGLTFDepth {
		return nil, fmt.Errorf("%w: gltf: bad node index %d", ErrAssetFormat, idx)
	}
	src := doc.Nodes[idx]
	n := NewGroup(src.Name)
	applyGLTFTransform(n, src)

	if src.Mesh != nil {
		geos, err := gltfMeshGeometry(doc, *src.Mesh, meshes)
		if err != nil {
			return nil, err
		}
		mesh := doc.Meshes[*src.Mesh]
		if len(geos) == 1 {
			// Single-primitive meshes become the node itself.
			n.Type = NodeTypeMesh
			n.Geometry = geos[0]
			n.Material = gltfMaterial(doc, mesh.Primitives[0])
		} else {
			for i, g := range geos {
				n.AddChild(NewMesh(fmt.Sprintf("%s_%d", src.Name, i), g, gltfMaterial(doc, mesh.Primitives[i])))
			}
		}
	}

	for _, c := range src.Children {
		child, err := buildGLTFNode(doc, c, meshes, depth+1)
		if err != nil {
			return nil, err
		}
		n.AddChild(child)
	}
	return n, nil
}

func applyGLTFTransform(n *Node, src *gltf.Node) {
	if src.Matrix != [16]float64{} && src.Matrix != gltfIdentity {
		// glTF matrices are column-major, as are mgl64's.
		m := mgl64.Mat4(src.Matrix)
		scale := mgl64.Vec3{m.Col(0).Vec3().Len(), m.Col(1).Vec3().Len(), m.Col(2).Vec3().Len()}
		rot := mgl64.Mat3FromCols(
			m.Col(0).Vec3().Mul(1/scale[0]),
			m.Col(1).Vec3().Mul(1/scale[1]),
			m.Col(2).Vec3().Mul(1/scale[2]),
		)
		n.Position = m.Col(3).Vec3()
		n.SetQuaternion(mgl64.Mat4ToQuat(rot.Mat4()))
		n.Scale = scale
		return
	}
	t := src.Translation
	n.Position = mgl64.Vec3{t[0], t[1], t[2]}
	if r := src.Rotation; r != [4]float64{} {
		n.SetQuaternion(mgl64.Quat{W: r[3], V: mgl64.Vec3{r[0], r[1], r[2]}})
	}
	if s := src.Scale; s != [3]float64{} {
		n.Scale = mgl64.Vec3{s[0], s[1], s[2]}
	}
}

var gltfIdentity = [16]float64{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1}

// gltfMeshGeometry converts every triangle primitive of a mesh, caching by
// mesh index so instanced meshes share geometry.
func gltfMeshGeometry(doc *gltf.Document, meshIdx int, cache map[int][]*Geometry) ([]*Geometry, error) {
	if g, ok := cache[meshIdx]; ok {
		return g, nil
	}
	if meshIdx < 0 || meshIdx >= len(doc.Meshes) {
		return nil, fmt.Errorf("%w: gltf: bad mesh index %d", ErrAssetFormat, meshIdx)
	}
	var out []*Geometry
	for _, prim := range doc.Meshes[meshIdx].Primitives {
		if prim.Mode != gltf.PrimitiveTriangles {
			return nil, fmt.Errorf("%w: gltf: primitive mode %v", ErrAssetFormat, prim.Mode)
		}
		g, err := gltfPrimitive(doc, prim)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	cache[meshIdx] = out
	return out, nil
}

func gltfPrimitive(doc *gltf.Document, prim *gltf.Primitive) (*Geometry, error) {
	posIdx, ok := prim.Attributes[gltf.POSITION]
	if !ok {
		return nil, fmt.Errorf("%w: gltf: primitive without POSITION", ErrAssetFormat)
	}
	pos, err := modeler.ReadPosition(doc, doc.Accessors[posIdx], nil)
	if err != nil {
		return nil, fmt.Errorf("%w: gltf: %v", ErrAssetFormat, err)
	}
	g := &Geometry{Positions: make([]mgl64.Vec3, len(pos))}
	for i, p := range pos {
		g.Positions[i] = mgl64.Vec3{float64(p[0]), float64(p[1]), float64(p[2])}
	}

	if prim.Indices != nil {
		g.Indices, err = modeler.ReadIndices(doc, doc.Accessors[*prim.Indices], nil)
		if err != nil {
			return nil, fmt.Errorf("%w: gltf: %v", ErrAssetFormat, err)
		}
	} else {
		g.Indices = make([]uint32, len(pos))
		for i := range g.Indices {
			g.Indices[i] = uint32(i)
		}
	}

	if nrmIdx, ok := prim.Attributes[gltf.NORMAL]; ok {
		nrm, err := modeler.ReadNormal(doc, doc.Accessors[nrmIdx], nil)
		if err != nil {
			return nil, fmt.Errorf("%w: gltf: %v", ErrAssetFormat, err)
		}
		g.Normals = make([]mgl64.Vec3, len(nrm))
		for i, n := range nrm {
			g.Normals[i] = mgl64.Vec3{float64(n[0]), float64(n[1]), float64(n[2])}
		}
	}
	if len(g.Normals) != len(g.Positions) {
		g.ComputeVertexNormals()
	}
	return g, nil
}

// gltfMaterial maps a primitive's PBR factors onto a StandardMaterial.
func gltfMaterial(doc *gltf.Document, prim *gltf.Primitive) *StandardMaterial {
	m := NewStandardMaterial(ColorWhite)
	if prim.Material == nil || *prim.Material >= len(doc.Materials) {
		return m
	}
	src := doc.Materials[*prim.Material]
	if src.DoubleSided {
		m.Side = SideDouble
	}
	pbr := src.PBRMetallicRoughness
	if pbr == nil {
		return m
	}
	if f := pbr.BaseColorFactor; f != nil {
		m.Color = Color{linearToSRGB(f[0]), linearToSRGB(f[1]), linearToSRGB(f[2]), f[3]}
	}
	if pbr.MetallicFactor != nil {
		m.Metalness = *pbr.MetallicFactor
	} else {
		m.Metalness = 1
	}
	if pbr.RoughnessFactor != nil {
		m.Roughness = *pbr.RoughnessFactor
	}
	return m
}

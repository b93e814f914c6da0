package cubeportal

import (
	"math"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/hajimehoshi/ebiten/v2"
)

// Renderer draws a scene through a camera into the current render target, or
// into the display surface when no target is bound.
type Renderer interface {
	// SetRenderTarget binds rt for subsequent Render calls. Nil restores the
	// display surface.
	SetRenderTarget(rt *RenderTarget)
	// RenderTarget returns the bound target, or nil for the display surface.
	RenderTarget() *RenderTarget
	// Render draws scene through cam.
	Render(scene *Scene, cam *Camera)
	// Dispose releases renderer resources.
	Dispose()
}

// RenderStats reports work done by a renderer since the last reset.
type RenderStats struct {
	Passes    int
	Triangles int
	DrawCalls int
	Elapsed   time.Duration
}

// rasterRenderer transforms and lights vertices on the CPU, sorts triangles
// back to front, and submits them to Ebitengine in material runs.
type rasterRenderer struct {
	screen *ebiten.Image
	target *RenderTarget

	stats RenderStats

	// Per-pass scratch, reused across passes.
	verts      []shadedVertex
	lightSpace []mgl64.Vec3
	tris       []triangle
	sortBuf    []triangle
	batchV     []ebiten.Vertex
	batchI     []uint32
}

// NewRenderer returns the Ebitengine renderer used by GL by default.
func NewRenderer() Renderer {
	return &rasterRenderer{}
}

// shadedVertex is a vertex after projection and lighting.
type shadedVertex struct {
	x, y float64 // device pixels
	ndc  mgl64.Vec3
	w    float64
	col  [4]float32 // premultiplied sRGB
}

// triangle is a sortable draw primitive referencing three shaded vertices.
type triangle struct {
	depth      float64
	order      int
	mat        Material
	v0, v1, v2 int
}

func (r *rasterRenderer) setScreen(screen *ebiten.Image) {
	r.screen = screen
}

func (r *rasterRenderer) SetRenderTarget(rt *RenderTarget) {
	r.target = rt
}

func (r *rasterRenderer) RenderTarget() *RenderTarget {
	return r.target
}

func (r *rasterRenderer) Stats() RenderStats {
	return r.stats
}

func (r *rasterRenderer) resetStats() {
	r.stats = RenderStats{}
}

func (r *rasterRenderer) Dispose() {
	r.screen = nil
	r.target = nil
	r.verts, r.lightSpace = nil, nil
	r.tris, r.sortBuf = nil, nil
	r.batchV, r.batchI = nil, nil
}

// destination resolves the image the next pass writes to.
func (r *rasterRenderer) destination() (*ebiten.Image, bool) {
	if r.target != nil {
		img := r.target.Image()
		return img, r.target.Antialias()
	}
	return r.screen, false
}

func (r *rasterRenderer) Render(scene *Scene, cam *Camera) {
	dst, aa := r.destination()
	if dst == nil || scene == nil || cam == nil {
		return
	}
	start := time.Now()

	if scene.Background != nil {
		dst.Fill(scene.Background.toRGBA())
	} else {
		dst.Clear()
	}

	root := scene.root
	root.UpdateWorldMatrix()
	ambient, dirs := collectLights(root)
	r.renderShadowMaps(root, dirs)

	size := dst.Bounds().Size()
	pass := passState{
		width:   float64(size.X),
		height:  float64(size.Y),
		viewPrj: cam.ProjectionMatrix().Mul4(cam.ViewMatrix()),
		eye:     cam.WorldPosition(),
		ambient: ambient,
		dirs:    dirs,
	}

	r.verts = r.verts[:0]
	r.tris = r.tris[:0]
	walkVisible(root, func(n *Node) {
		if n.Type == NodeTypeMesh && n.Geometry != nil && n.Material != nil {
			r.collectMesh(&pass, n)
		}
	})

	r.mergeSort()
	r.flush(dst, aa)

	r.stats.Passes++
	r.stats.Triangles += len(r.tris)
	r.stats.Elapsed += time.Since(start)
}

// passState carries per-pass constants into vertex processing.
type passState struct {
	width, height float64
	viewPrj       mgl64.Mat4
	eye           mgl64.Vec3
	ambient       rgb
	dirs          []sceneLight
}

// walkVisible visits visible nodes, skipping hidden subtrees.
func walkVisible(n *Node, fn func(*Node)) {
	if !n.Visible {
		return
	}
	fn(n)
	for _, c := range n.children {
		walkVisible(c, fn)
	}
}

// renderShadowMaps rasterizes every shadow caster into each shadow-casting
// light's depth map.
func (r *rasterRenderer) renderShadowMaps(root *Node, dirs []sceneLight) {
	for _, d := range dirs {
		sh := d.light.Shadow
		if !d.light.CastShadow || sh == nil {
			continue
		}
		sh.begin(d.position, d.target)
		walkVisible(root, func(n *Node) {
			if n.Type != NodeTypeMesh || !n.CastShadow || n.Geometry == nil {
				return
			}
			g := n.Geometry
			proj := r.lightSpace[:0]
			for _, p := range g.Positions {
				proj = append(proj, sh.project(n.worldMatrix.Mul4x1(p.Vec4(1)).Vec3()))
			}
			for i := 0; i+2 < len(g.Indices); i += 3 {
				sh.rasterize(proj[g.Indices[i]], proj[g.Indices[i+1]], proj[g.Indices[i+2]])
			}
			r.lightSpace = proj
		})
	}
}

// collectMesh projects and shades a mesh's vertices and queues its visible
// triangles.
func (r *rasterRenderer) collectMesh(pass *passState, n *Node) {
	g := n.Geometry
	world := n.worldMatrix
	nm := normalMatrix(world)
	side := n.Material.MaterialSide()
	std, _ := n.Material.(*StandardMaterial)

	base := len(r.verts)
	for i, p := range g.Positions {
		wp := world.Mul4x1(p.Vec4(1)).Vec3()
		clip := pass.viewPrj.Mul4x1(wp.Vec4(1))
		v := shadedVertex{w: clip[3], col: [4]float32{1, 1, 1, 1}}
		if clip[3] > 1e-9 {
			v.ndc = clip.Vec3().Mul(1 / clip[3])
			v.x = (v.ndc[0] + 1) / 2 * pass.width
			v.y = (1 - v.ndc[1]) / 2 * pass.height
		}
		if std != nil && i < len(g.Normals) {
			normal := safeNormalize(nm.Mul3x1(g.Normals[i]))
			if side == SideBack {
				normal = normal.Mul(-1)
			} else if side == SideDouble && normal.Dot(pass.eye.Sub(wp)) < 0 {
				normal = normal.Mul(-1)
			}
			v.col = shade(pass, std, n.ReceiveShadow, wp, normal)
		}
		r.verts = append(r.verts, v)
	}

	for i := 0; i+2 < len(g.Indices); i += 3 {
		a := base + int(g.Indices[i])
		b := base + int(g.Indices[i+1])
		c := base + int(g.Indices[i+2])
		va, vb, vc := &r.verts[a], &r.verts[b], &r.verts[c]
		if va.w <= 1e-9 || vb.w <= 1e-9 || vc.w <= 1e-9 {
			continue
		}
		if outsideClip(va.ndc, vb.ndc, vc.ndc) {
			continue
		}
		area := (vb.ndc[0]-va.ndc[0])*(vc.ndc[1]-va.ndc[1]) -
			(vc.ndc[0]-va.ndc[0])*(vb.ndc[1]-va.ndc[1])
		front := area > 0
		switch side {
		case SideFront:
			if !front {
				continue
			}
		case SideBack:
			if front {
				continue
			}
		}
		r.tris = append(r.tris, triangle{
			depth: (va.ndc[2] + vb.ndc[2] + vc.ndc[2]) / 3,
			order: len(r.tris),
			mat:   n.Material,
			v0:    a,
			v1:    b,
			v2:    c,
		})
	}
}

// outsideClip reports whether all three vertices lie beyond one clip plane.
func outsideClip(a, b, c mgl64.Vec3) bool {
	for axis := 0; axis < 3; axis++ {
		if a[axis] < -1 && b[axis] < -1 && c[axis] < -1 {
			return true
		}
		if a[axis] > 1 && b[axis] > 1 && c[axis] > 1 {
			return true
		}
	}
	return false
}

// shade evaluates the material at one vertex and returns a premultiplied
// sRGB color.
func shade(pass *passState, m *StandardMaterial, receive bool, p, n mgl64.Vec3) [4]float32 {
	albedo := m.Color.linear()
	metal := clamp01(m.Metalness)
	rough := clamp(m.Roughness, 0.04, 1)
	view := safeNormalize(pass.eye.Sub(p))

	// Dielectrics reflect about 4%; metals tint reflections with albedo.
	f0 := rgb{0.04, 0.04, 0.04}.scale(1 - metal).add(albedo.scale(metal))
	shininess := clamp(2/math.Pow(rough, 4)-2, 1, 2048)
	specNorm := (shininess + 8) / (8 * math.Pi)

	diffuse := pass.ambient
	var specular rgb
	for _, d := range pass.dirs {
		ndl := n.Dot(d.direction)
		if ndl <= 0 {
			continue
		}
		vis := 1.0
		if receive && d.light.CastShadow && d.light.Shadow != nil {
			vis = d.light.Shadow.visibility(p.Add(n.Mul(0.02)))
		}
		diffuse = diffuse.add(d.color.scale(ndl * vis))
		h := safeNormalize(d.direction.Add(view))
		ndh := math.Max(n.Dot(h), 0)
		specular = specular.add(d.color.scale(math.Pow(ndh, shininess) * specNorm * ndl * vis))
	}

	out := albedo.scale(1 - metal).mul(diffuse).add(specular.mul(f0))
	if m.EnvMap != nil && m.EnvMapIntensity > 0 {
		refl := n.Mul(2 * n.Dot(view)).Sub(view)
		env := m.EnvMap.Sample(refl, rough)
		out = out.add(env.mul(f0).scale(m.EnvMapIntensity))
	}

	a := clamp01(m.Color.A)
	return [4]float32{
		float32(linearToSRGB(out[0]) * a),
		float32(linearToSRGB(out[1]) * a),
		float32(linearToSRGB(out[2]) * a),
		float32(a),
	}
}

// --- Painter's sort ---

// triangleLessOrEqual orders farther triangles first; ties keep submission
// order.
func triangleLessOrEqual(a, b triangle) bool {
	if a.depth != b.depth {
		return a.depth > b.depth
	}
	return a.order <= b.order
}

// mergeSort sorts r.tris in-place using r.sortBuf as scratch space.
// Bottom-up merge sort: zero allocations after the sort buffer reaches its
// high-water mark.
func (r *rasterRenderer) mergeSort() {
	n := len(r.tris)
	if n <= 1 {
		return
	}
	if cap(r.sortBuf) < n {
		r.sortBuf = make([]triangle, n)
	}
	r.sortBuf = r.sortBuf[:n]

	a := r.tris
	b := r.sortBuf
	swapped := false

	for width := 1; width < n; width *= 2 {
		for i := 0; i < n; i += 2 * width {
			lo := i
			mid := min(lo+width, n)
			hi := min(lo+2*width, n)
			mergeTriangles(a, b, lo, mid, hi)
		}
		a, b = b, a
		swapped = !swapped
	}

	if swapped {
		copy(r.tris, r.sortBuf)
	}
}

// mergeTriangles merges two sorted runs [lo, mid) and [mid, hi) from src into dst.
func mergeTriangles(src, dst []triangle, lo, mid, hi int) {
	i, j, k := lo, mid, lo
	for i < mid && j < hi {
		if triangleLessOrEqual(src[i], src[j]) {
			dst[k] = src[i]
			i++
		} else {
			dst[k] = src[j]
			j++
		}
		k++
	}
	k += copy(dst[k:], src[i:mid])
	copy(dst[k:], src[j:hi])
}

// --- Submission ---

// flush submits sorted triangles, coalescing consecutive triangles that share
// a material into one draw call.
func (r *rasterRenderer) flush(dst *ebiten.Image, aa bool) {
	r.batchV = r.batchV[:0]
	r.batchI = r.batchI[:0]
	var current Material
	for i := range r.tris {
		t := &r.tris[i]
		if t.mat != current {
			r.submit(dst, current, aa)
			current = t.mat
		}
		r.appendTriangle(dst, t)
	}
	r.submit(dst, current, aa)
}

func (r *rasterRenderer) appendTriangle(dst *ebiten.Image, t *triangle) {
	base := uint32(len(r.batchV))
	sm, _ := t.mat.(*ShaderMaterial)
	var sx, sy float64
	if sm != nil {
		if tex := sm.Texture(ScreenTextureUniform); tex != nil {
			tw, th := tex.Size()
			ds := dst.Bounds().Size()
			sx = float64(tw) / float64(max(ds.X, 1))
			sy = float64(th) / float64(max(ds.Y, 1))
		}
	}
	for _, vi := range [3]int{t.v0, t.v1, t.v2} {
		v := &r.verts[vi]
		ev := ebiten.Vertex{
			DstX:   float32(v.x),
			DstY:   float32(v.y),
			SrcX:   0.5,
			SrcY:   0.5,
			ColorR: v.col[0],
			ColorG: v.col[1],
			ColorB: v.col[2],
			ColorA: v.col[3],
		}
		if sm != nil {
			// Screen-space lookup: the sandbox image covers the whole viewport.
			ev.SrcX = float32(v.x * sx)
			ev.SrcY = float32(v.y * sy)
		}
		r.batchV = append(r.batchV, ev)
	}
	r.batchI = append(r.batchI, base, base+1, base+2)
}

func (r *rasterRenderer) submit(dst *ebiten.Image, mat Material, aa bool) {
	if len(r.batchI) == 0 || mat == nil {
		r.batchV = r.batchV[:0]
		r.batchI = r.batchI[:0]
		return
	}
	switch m := mat.(type) {
	case *ShaderMaterial:
		if imgs, ok := m.images(); ok {
			var op ebiten.DrawTrianglesShaderOptions
			op.Images = imgs
			op.Uniforms = m.scalarUniforms()
			op.AntiAlias = aa
			dst.DrawTrianglesShader32(r.batchV, r.batchI, m.ensureShader(), &op)
			r.stats.DrawCalls++
		}
	default:
		var op ebiten.DrawTrianglesOptions
		op.ColorScaleMode = ebiten.ColorScaleModePremultipliedAlpha
		op.AntiAlias = aa
		dst.DrawTriangles32(r.batchV, r.batchI, ensureWhitePixel(), &op)
		r.stats.DrawCalls++
	}
	r.batchV = r.batchV[:0]
	r.batchI = r.batchI[:0]
}

// Package cubeportal composites independently animated 3D scenes onto the
// faces of a cube, rendered with [Ebitengine].
//
// Each face of the enclosure is a screen: a plane whose Kage shader samples
// the off-screen render of a [Sandbox]. A sandbox owns one isolated scene (a
// tumbling solid, a backdrop box and a light rig that turns with the viewer
// camera) and one [RenderTarget] sized to the device-scaled viewport. Every
// frame the [Compositor] renders all sandboxes first, hands each texture to
// its screen, and then draws the enclosure once.
//
// # Quick start
//
//	loading := cubeportal.Load(ctx, cubeportal.Container{
//		Title: "cubeportal", Width: 960, Height: 720, Resizable: true,
//	})
//	c, err := loading.Wait(ctx)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer c.Dispose()
//	if err := c.Run(); err != nil {
//		log.Fatal(err)
//	}
//
// [Load] starts the asset load and returns at once; [Loading.Wait] is the
// only point that blocks. No compositor exists until both the frame model and
// the environment map have resolved, so callers never see a half-built one.
//
// # Rendering context
//
// [GL] is the shared context: viewer camera and scene, the [Renderer], frame
// clock and viewport size. It implements [ebiten.Game]; the window's layout
// size drives [GL.SetSize], which fires the resize callback once per change.
// The default renderer transforms and lights vertices on the CPU, sorts
// triangles back to front and submits them with DrawTriangles32, or
// DrawTrianglesShader32 for [ShaderMaterial] meshes.
//
// # Assets
//
// [FSLoader] reads models (.glb, .gltf via [qmuntal/gltf]), Radiance HDR
// (via [mdouchement/hdr]) and PNG/JPEG images from any [io/fs.FS], decoding
// them concurrently. The paths "builtin:frame" and "builtin:studio" generate
// a procedural frame and studio environment instead.
//
// # Configuration
//
// [LoadConfig] reads YAML over [DefaultConfig]. A missing file yields the
// defaults.
//
// # Debugging
//
// Debug mode prints per-frame pass statistics to stderr and checks that
// every screen samples a texture the size of the drawing buffer. A
// [TestRunner] can replay camera drags, zooms and resizes and capture
// screenshots.
//
// [Ebitengine]: https://ebitengine.org
// [qmuntal/gltf]: https://github.com/qmuntal/gltf
// [mdouchement/hdr]: https://github.com/mdouchement/hdr
package cubeportal

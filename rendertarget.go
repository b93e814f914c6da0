package cubeportal

import (
	"image"

	"github.com/hajimehoshi/ebiten/v2"
)

// Texture is a stable handle to the color image of a RenderTarget. The handle
// survives resizes; the underlying image is replaced in place.
type Texture struct {
	image *ebiten.Image
}

// NewTextureFromImage wraps an existing image. The caller keeps ownership.
func NewTextureFromImage(img *ebiten.Image) *Texture {
	return &Texture{image: img}
}

// Image returns the current backing image, or nil after disposal.
func (t *Texture) Image() *ebiten.Image {
	if t == nil {
		return nil
	}
	return t.image
}

// Size returns the backing image dimensions in pixels.
func (t *Texture) Size() (w, h int) {
	if t == nil || t.image == nil {
		return 0, 0
	}
	s := t.image.Bounds().Size()
	return s.X, s.Y
}

// RenderTargetOptions configures a RenderTarget.
type RenderTargetOptions struct {
	// Samples > 0 requests antialiased edges. Ebitengine resolves
	// antialiasing per draw, so any positive count enables it.
	Samples int
}

// RenderTarget is a persistent offscreen color buffer owned by the caller.
// Unlike the main output it keeps its contents between frames until the next
// clear.
type RenderTarget struct {
	texture *Texture
	w, h    int
	samples int

	// allocations counts backing image creations, for resize bookkeeping.
	allocations int
}

// NewRenderTarget allocates a width x height target. Sizes below one pixel
// are clamped to one.
func NewRenderTarget(width, height int, opts RenderTargetOptions) *RenderTarget {
	rt := &RenderTarget{texture: &Texture{}, samples: opts.Samples}
	rt.allocate(width, height)
	return rt
}

func (rt *RenderTarget) allocate(width, height int) {
	width, height = max(width, 1), max(height, 1)
	if rt.texture.image != nil {
		rt.texture.image.Deallocate()
	}
	rt.texture.image = ebiten.NewImageWithOptions(
		image.Rect(0, 0, width, height),
		&ebiten.NewImageOptions{Unmanaged: true},
	)
	rt.w, rt.h = width, height
	rt.allocations++
}

// SetSize resizes the target. Calling it with the current size does nothing.
func (rt *RenderTarget) SetSize(width, height int) {
	width, height = max(width, 1), max(height, 1)
	if rt.IsDisposed() || (width == rt.w && height == rt.h) {
		return
	}
	rt.allocate(width, height)
}

// Texture returns the stable texture handle.
func (rt *RenderTarget) Texture() *Texture {
	return rt.texture
}

// Image returns the backing image for direct drawing.
func (rt *RenderTarget) Image() *ebiten.Image {
	return rt.texture.Image()
}

// Width returns the target width in pixels.
func (rt *RenderTarget) Width() int {
	return rt.w
}

// Height returns the target height in pixels.
func (rt *RenderTarget) Height() int {
	return rt.h
}

// Samples returns the requested antialiasing sample count.
func (rt *RenderTarget) Samples() int {
	return rt.samples
}

// Antialias reports whether draws into this target are antialiased.
func (rt *RenderTarget) Antialias() bool {
	return rt.samples > 0
}

// Clear fills the target with transparent black.
func (rt *RenderTarget) Clear() {
	if img := rt.Image(); img != nil {
		img.Clear()
	}
}

// Fill fills the entire target with the given color.
func (rt *RenderTarget) Fill(c Color) {
	if img := rt.Image(); img != nil {
		img.Fill(c.toRGBA())
	}
}

// Dispose deallocates the backing image. Screens still holding the texture
// handle see a nil image and skip drawing.
func (rt *RenderTarget) Dispose() {
	if rt.texture != nil && rt.texture.image != nil {
		rt.texture.image.Deallocate()
		rt.texture.image = nil
	}
}

// IsDisposed reports whether Dispose has been called.
func (rt *RenderTarget) IsDisposed() bool {
	return rt.texture == nil || rt.texture.image == nil
}

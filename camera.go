package cubeportal

import (
	"github.com/go-gl/mathgl/mgl64"
)

// Camera is a perspective camera. It embeds Node so its transform is set the
// same way as any scene object; it looks down its local -Z axis.
type Camera struct {
	Node

	// Fov is the vertical field of view in degrees.
	Fov float64
	// Aspect is width / height of the viewport.
	Aspect float64
	// Near and Far are the clip plane distances.
	Near, Far float64
}

// NewCamera creates a camera at the origin looking down -Z.
func NewCamera(fov, aspect, near, far float64) *Camera {
	c := &Camera{Fov: fov, Aspect: aspect, Near: near, Far: far}
	c.Name = "camera"
	nodeDefaults(&c.Node)
	return c
}

// LookAt orients the camera so -Z points at target with +Y up.
func (c *Camera) LookAt(target mgl64.Vec3) {
	c.SetQuaternion(lookAtQuat(c.Position, target, axisY))
}

// ViewMatrix returns the inverse of the camera's world matrix. The camera's
// world matrix is refreshed first; cameras are never parented.
func (c *Camera) ViewMatrix() mgl64.Mat4 {
	c.UpdateWorldMatrix()
	return c.worldMatrix.Inv()
}

// ProjectionMatrix returns the OpenGL-style perspective projection.
func (c *Camera) ProjectionMatrix() mgl64.Mat4 {
	aspect := c.Aspect
	if aspect <= 0 {
		aspect = 1
	}
	return mgl64.Perspective(mgl64.DegToRad(c.Fov), aspect, c.Near, c.Far)
}

// OrthoFrustum is an orthographic box used for directional shadow cameras.
type OrthoFrustum struct {
	Left, Right, Top, Bottom float64
	Near, Far                float64
}

// Matrix returns the orthographic projection.
func (f OrthoFrustum) Matrix() mgl64.Mat4 {
	return mgl64.Ortho(f.Left, f.Right, f.Bottom, f.Top, f.Near, f.Far)
}

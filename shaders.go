package cubeportal

import (
	_ "embed"
)

// ScreenShaderSource is the Kage program used by screen surfaces. Its only
// input is the sandbox texture bound as tImage (image 0).
//
//go:embed shaders/screen.kage
var ScreenShaderSource []byte

// ScreenTextureUniform names the texture slot a screen reads its sandbox from.
const ScreenTextureUniform = "tImage"

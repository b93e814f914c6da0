package cubeportal

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/go-gl/mathgl/mgl64"
	"gopkg.in/yaml.v3"
)

// Config collects every tunable of a compositor. The zero value is not
// useful; start from DefaultConfig.
type Config struct {
	Window     WindowConfig   `yaml:"window"`
	Background Color          `yaml:"background"`
	Camera     CameraConfig   `yaml:"camera"`
	Assets     AssetConfig    `yaml:"assets"`
	Render     RenderConfig   `yaml:"render"`
	Controls   ControlsConfig `yaml:"controls"`

	Debug         bool   `yaml:"debug"`
	ShowHUD       bool   `yaml:"hud"`
	ScreenshotDir string `yaml:"screenshotDir"`
}

// WindowConfig describes the output container.
type WindowConfig struct {
	Title     string `yaml:"title"`
	Width     int    `yaml:"width"`
	Height    int    `yaml:"height"`
	Resizable bool   `yaml:"resizable"`
	// DevicePixelRatio overrides the monitor scale when > 0.
	DevicePixelRatio float64 `yaml:"devicePixelRatio"`
}

// CameraConfig positions the shared viewer camera.
type CameraConfig struct {
	Fov      float64    `yaml:"fov"`
	Near     float64    `yaml:"near"`
	Far      float64    `yaml:"far"`
	Position [3]float64 `yaml:"position,flow"`
}

// AssetConfig names the frame model and environment map. Paths starting with
// "builtin:" are generated procedurally.
type AssetConfig struct {
	// Root is the directory file paths resolve against.
	Root   string `yaml:"root"`
	Frame  string `yaml:"frame"`
	EnvMap string `yaml:"envMap"`
}

// RenderConfig tunes render targets and tessellation.
type RenderConfig struct {
	Samples          int `yaml:"samples"`
	ShadowMapSize    int `yaml:"shadowMapSize"`
	BackdropSegments int `yaml:"backdropSegments"`
	ScreenSegments   int `yaml:"screenSegments"`
	// FixedTimestep, when > 0, advances animation by this many seconds per
	// frame instead of wall time.
	FixedTimestep float64 `yaml:"fixedTimestep"`
}

// ControlsConfig tunes the orbit controls.
type ControlsConfig struct {
	RotateSpeed   float64 `yaml:"rotateSpeed"`
	ZoomSpeed     float64 `yaml:"zoomSpeed"`
	DampingFactor float64 `yaml:"dampingFactor"`
	MinDistance   float64 `yaml:"minDistance"`
	MaxDistance   float64 `yaml:"maxDistance"`
}

// DefaultConfig returns the stock six-face composite.
func DefaultConfig() Config {
	return Config{
		Window: WindowConfig{
			Title:     "cubeportal",
			Width:     960,
			Height:    720,
			Resizable: true,
		},
		Background: Hex("#0a0a0a"),
		Camera: CameraConfig{
			Fov:      50,
			Near:     0.01,
			Far:      100,
			Position: [3]float64{0, 0, 5},
		},
		Assets: AssetConfig{
			Root:   ".",
			Frame:  BuiltinFrame,
			EnvMap: BuiltinStudio,
		},
		Render: RenderConfig{
			Samples:          10,
			ShadowMapSize:    1024,
			BackdropSegments: 24,
			ScreenSegments:   8,
		},
		Controls: ControlsConfig{
			RotateSpeed:   1,
			ZoomSpeed:     1,
			DampingFactor: 0.05,
			MinDistance:   2.5,
			MaxDistance:   20,
		},
		ScreenshotDir: "screenshots",
	}
}

// LoadConfig reads a YAML file over DefaultConfig. A missing file yields the
// defaults; a malformed or invalid one is an error.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("load config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("load config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("load config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate reports the first out-of-range field.
func (c Config) Validate() error {
	switch {
	case c.Window.Width <= 0 || c.Window.Height <= 0:
		return fmt.Errorf("window size %dx%d must be positive", c.Window.Width, c.Window.Height)
	case c.Camera.Fov <= 0 || c.Camera.Fov >= 180:
		return fmt.Errorf("camera fov %v out of range (0, 180)", c.Camera.Fov)
	case c.Camera.Near <= 0 || c.Camera.Far <= c.Camera.Near:
		return fmt.Errorf("camera clip planes near=%v far=%v invalid", c.Camera.Near, c.Camera.Far)
	case c.Assets.Frame == "" || c.Assets.EnvMap == "":
		return errors.New("assets.frame and assets.envMap are required")
	case c.Render.ShadowMapSize <= 0:
		return fmt.Errorf("render.shadowMapSize %d must be positive", c.Render.ShadowMapSize)
	case c.Render.Samples < 0 || c.Render.BackdropSegments < 0 || c.Render.ScreenSegments < 0:
		return errors.New("render counts must not be negative")
	case c.Render.FixedTimestep < 0:
		return fmt.Errorf("render.fixedTimestep %v must not be negative", c.Render.FixedTimestep)
	}
	return nil
}

// Container returns the output container described by the window section.
func (c Config) Container() Container {
	return Container{
		Title:            c.Window.Title,
		Width:            c.Window.Width,
		Height:           c.Window.Height,
		DevicePixelRatio: c.Window.DevicePixelRatio,
		Resizable:        c.Window.Resizable,
	}
}

// CameraPosition returns the configured camera position.
func (c Config) CameraPosition() mgl64.Vec3 {
	return mgl64.Vec3(c.Camera.Position)
}

// MarshalYAML writes a color as a hex string.
func (c Color) MarshalYAML() (any, error) {
	return c.String(), nil
}

// UnmarshalYAML reads a color from a hex string.
func (c *Color) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := ParseHex(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

package cubeportal

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg" // register decoder
	_ "image/png"  // register decoder
	"io/fs"
	"path"
	"strings"

	"github.com/mdouchement/hdr"
	"github.com/mdouchement/hdr/codec/rgbe"
	"golang.org/x/sync/errgroup"
)

// Sentinel errors returned by asset loading and compositor construction.
var (
	ErrAssetMissing = errors.New("cubeportal: asset not found")
	ErrAssetFormat  = errors.New("cubeportal: unsupported asset format")
	ErrNoFrameMesh  = errors.New("cubeportal: frame model contains no mesh")
	ErrDisposed     = errors.New("cubeportal: compositor disposed")
)

// BuiltinPrefix marks asset paths resolved without touching the file system.
const BuiltinPrefix = "builtin:"

// Builtin asset paths.
const (
	BuiltinFrame  = BuiltinPrefix + "frame"
	BuiltinStudio = BuiltinPrefix + "studio"
)

// Asset is a named asset descriptor. Data is filled in by an AssetLoader:
// *Node for models, image.Image (or hdr.Image) for pictures, *EnvMap for
// built-in environments.
type Asset struct {
	Path string
	Data any
}

// Assets maps asset names to descriptors.
type Assets map[string]*Asset

// AssetLoader resolves every descriptor in assets, filling Asset.Data. An
// error leaves Data unspecified.
type AssetLoader interface {
	Load(ctx context.Context, assets Assets) error
}

// FSLoader loads assets from a file system, decoding them concurrently.
type FSLoader struct {
	FS fs.FS
}

// NewFSLoader returns a loader reading from fsys. A nil fsys only serves
// built-in assets.
func NewFSLoader(fsys fs.FS) *FSLoader {
	return &FSLoader{FS: fsys}
}

// Load implements AssetLoader.
func (l *FSLoader) Load(ctx context.Context, assets Assets) error {
	for name, a := range assets {
		if a == nil {
			return fmt.Errorf("load %s: nil descriptor: %w", name, ErrAssetMissing)
		}
	}
	g, ctx := errgroup.WithContext(ctx)
	for name, a := range assets {
		g.Go(func() error {
			data, err := l.load(ctx, a.Path)
			if err != nil {
				return fmt.Errorf("load %s (%s): %w", name, a.Path, err)
			}
			a.Data = data
			return nil
		})
	}
	return g.Wait()
}

func (l *FSLoader) load(ctx context.Context, p string) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.HasPrefix(p, BuiltinPrefix) {
		return loadBuiltin(p)
	}
	if l.FS == nil {
		return nil, ErrAssetMissing
	}
	data, err := fs.ReadFile(l.FS, p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrAssetMissing
	}
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	switch strings.ToLower(path.Ext(p)) {
	case ".glb", ".gltf":
		dir, _ := fs.Sub(l.FS, path.Dir(p))
		return decodeGLTF(data, dir)
	case ".hdr":
		img, err := rgbe.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrAssetFormat, err)
		}
		return img, nil
	case ".png", ".jpg", ".jpeg":
		img, _, err := image.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrAssetFormat, err)
		}
		return img, nil
	}
	return nil, ErrAssetFormat
}

func loadBuiltin(p string) (any, error) {
	switch p {
	case BuiltinFrame:
		return NewFrameModel(), nil
	case BuiltinStudio:
		return NewStudioEnvMap(), nil
	}
	return nil, ErrAssetMissing
}

// NewFrameModel returns a procedural cube frame: twelve thin beams on the
// edges of the unit enclosure.
func NewFrameModel() *Node {
	root := NewGroup("frame-model")
	root.AddChild(NewMesh("frame", NewFrameGeometry(1, 0.04), NewStandardMaterial(Hex("#888"))))
	return root
}

// modelFromAsset extracts a scene graph fragment from loaded asset data.
func modelFromAsset(a *Asset) (*Node, error) {
	if a == nil || a.Data == nil {
		return nil, ErrAssetMissing
	}
	n, ok := a.Data.(*Node)
	if !ok {
		return nil, fmt.Errorf("%s: %w", a.Path, ErrAssetFormat)
	}
	return n, nil
}

// envMapFromAsset converts loaded asset data into an environment map.
func envMapFromAsset(a *Asset) (*EnvMap, error) {
	if a == nil || a.Data == nil {
		return nil, ErrAssetMissing
	}
	switch d := a.Data.(type) {
	case *EnvMap:
		return d, nil
	case hdr.Image:
		return NewEnvMapHDR(d), nil
	case image.Image:
		return NewEnvMap(d), nil
	}
	return nil, fmt.Errorf("%s: %w", a.Path, ErrAssetFormat)
}

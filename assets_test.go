package cubeportal

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"testing"
	"testing/fstest"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// encodeTriangleGLB returns a binary glTF with one single-triangle mesh under
// a parent node.
func encodeTriangleGLB(t *testing.T) []byte {
	t.Helper()
	doc := gltf.NewDocument()
	doc.Meshes = []*gltf.Mesh{{
		Name: "tri",
		Primitives: []*gltf.Primitive{{
			Indices: gltf.Index(modeler.WriteIndices(doc, []uint16{0, 1, 2})),
			Attributes: gltf.PrimitiveAttributes{
				gltf.POSITION: modeler.WritePosition(doc, [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}),
			},
		}},
	}}
	doc.Nodes = []*gltf.Node{
		{Name: "holder", Children: []int{1}, Translation: [3]float64{0, 2, 0}},
		{Name: "frame", Mesh: gltf.Index(0)},
	}
	doc.Scenes[0].Nodes = []int{0}

	var buf bytes.Buffer
	enc := gltf.NewEncoder(&buf)
	enc.AsBinary = true
	if err := enc.Encode(doc); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestFSLoaderDecodes(t *testing.T) {
	fsys := fstest.MapFS{
		"models/frame.glb": {Data: encodeTriangleGLB(t)},
		"env/studio.png":   {Data: encodePNG(t, uniformImage(8, 4, colorGray))},
	}
	assets := Assets{
		AssetFrame:  {Path: "models/frame.glb"},
		AssetEnvMap: {Path: "env/studio.png"},
	}
	if err := NewFSLoader(fsys).Load(context.Background(), assets); err != nil {
		t.Fatalf("Load: %v", err)
	}

	model, err := modelFromAsset(assets[AssetFrame])
	if err != nil {
		t.Fatal(err)
	}
	mesh := firstMesh(model)
	if mesh == nil || mesh.Name != "frame" {
		t.Fatalf("first mesh = %v, want frame", mesh)
	}
	if len(mesh.Geometry.Indices) != 3 || len(mesh.Geometry.Normals) != 3 {
		t.Errorf("geometry: %d indices, %d normals, want 3 each", len(mesh.Geometry.Indices), len(mesh.Geometry.Normals))
	}
	assertNear(t, "holder Y", mesh.Parent.Position.Y(), 2)

	env, err := envMapFromAsset(assets[AssetEnvMap])
	if err != nil {
		t.Fatal(err)
	}
	if w, _ := env.Size(); w != envMapWidth {
		t.Errorf("env map width = %d, want %d", w, envMapWidth)
	}
}

func TestFSLoaderBuiltins(t *testing.T) {
	assets := Assets{
		AssetFrame:  {Path: BuiltinFrame},
		AssetEnvMap: {Path: BuiltinStudio},
	}
	if err := NewFSLoader(nil).Load(context.Background(), assets); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, ok := assets[AssetFrame].Data.(*Node); !ok {
		t.Errorf("frame data = %T, want *Node", assets[AssetFrame].Data)
	}
	if _, ok := assets[AssetEnvMap].Data.(*EnvMap); !ok {
		t.Errorf("env map data = %T, want *EnvMap", assets[AssetEnvMap].Data)
	}
}

func TestFSLoaderErrors(t *testing.T) {
	fsys := fstest.MapFS{
		"notes.txt":  {Data: []byte("hello")},
		"broken.png": {Data: []byte("not a png")},
		"broken.glb": {Data: []byte("glTF?")},
	}
	tests := []struct {
		name string
		fsys fstest.MapFS
		path string
		want error
	}{
		{"missing file", fsys, "nope.png", ErrAssetMissing},
		{"unknown builtin", fsys, "builtin:teapot", ErrAssetMissing},
		{"unsupported extension", fsys, "notes.txt", ErrAssetFormat},
		{"corrupt image", fsys, "broken.png", ErrAssetFormat},
		{"corrupt model", fsys, "broken.glb", ErrAssetFormat},
		{"no file system", nil, "frame.glb", ErrAssetMissing},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var l *FSLoader
			if tt.fsys == nil {
				l = NewFSLoader(nil)
			} else {
				l = NewFSLoader(tt.fsys)
			}
			err := l.Load(context.Background(), Assets{"a": {Path: tt.path}})
			if !errors.Is(err, tt.want) {
				t.Errorf("Load(%q) = %v, want %v", tt.path, err, tt.want)
			}
		})
	}
}

func TestFSLoaderNilDescriptor(t *testing.T) {
	err := NewFSLoader(nil).Load(context.Background(), Assets{"a": nil})
	if !errors.Is(err, ErrAssetMissing) {
		t.Errorf("Load = %v, want ErrAssetMissing", err)
	}
}

func TestFSLoaderCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := NewFSLoader(nil).Load(ctx, Assets{"a": {Path: BuiltinFrame}})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Load = %v, want context.Canceled", err)
	}
}

func TestAssetConversions(t *testing.T) {
	if _, err := modelFromAsset(nil); !errors.Is(err, ErrAssetMissing) {
		t.Errorf("modelFromAsset(nil) = %v", err)
	}
	if _, err := modelFromAsset(&Asset{Path: "x", Data: 42}); !errors.Is(err, ErrAssetFormat) {
		t.Errorf("modelFromAsset(int) = %v", err)
	}
	if _, err := envMapFromAsset(&Asset{Path: "x", Data: NewFrameModel()}); !errors.Is(err, ErrAssetFormat) {
		t.Errorf("envMapFromAsset(node) = %v", err)
	}
	env, err := envMapFromAsset(&Asset{Data: uniformImage(4, 2, colorGray)})
	if err != nil || env == nil {
		t.Errorf("envMapFromAsset(image) = %v, %v", env, err)
	}
}

func TestNewFrameModel(t *testing.T) {
	m := NewFrameModel()
	if m.Type != NodeTypeGroup {
		t.Error("frame model root should be a group")
	}
	f := firstMesh(m)
	if f == nil || f.Name != "frame" || f.Geometry == nil {
		t.Fatal("frame model should contain the frame mesh")
	}
}

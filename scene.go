package cubeportal

// Scene is an ownership root for renderable and light nodes. Each sandbox
// owns one; the GL context owns the shared viewer scene.
type Scene struct {
	root *Node

	// Background, when non-nil, is the clear color for passes rendering this
	// scene. Nil clears to transparent black.
	Background *Color
}

// NewScene creates a new scene with a pre-created root group.
func NewScene() *Scene {
	return &Scene{root: NewGroup("root")}
}

// Root returns the scene's root node.
func (s *Scene) Root() *Node {
	return s.root
}

// Add appends nodes to the scene root.
func (s *Scene) Add(nodes ...*Node) {
	for _, n := range nodes {
		s.root.AddChild(n)
	}
}

// Remove detaches n from the scene root. No-op if n is not a root child.
func (s *Scene) Remove(n *Node) {
	if n.Parent == s.root {
		s.root.RemoveChild(n)
	}
}

// ObjectByName returns the first node in the scene with the given name.
func (s *Scene) ObjectByName(name string) *Node {
	return s.root.ObjectByName(name)
}

// SetBackground sets an opaque clear color.
func (s *Scene) SetBackground(c Color) {
	s.Background = &c
}

// Dispose detaches and disposes every node. The scene stays usable (with an
// empty root) so late callers do not crash.
func (s *Scene) Dispose() {
	for len(s.root.children) > 0 {
		s.root.children[len(s.root.children)-1].Dispose()
	}
}

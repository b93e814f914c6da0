package cubeportal

import (
	"sync/atomic"

	"github.com/go-gl/mathgl/mgl64"
)

// nodeIDCounter is atomic: asset decoders build nodes off the frame loop.
var nodeIDCounter atomic.Uint32

func nextNodeID() uint32 {
	return nodeIDCounter.Add(1)
}

// Node is the fundamental scene graph element. A single flat struct is used
// for groups, meshes and lights to avoid interface dispatch on the hot path.
// A node belongs to at most one parent; nodes are never shared between scenes.
type Node struct {
	// Identity
	ID   uint32
	Name string
	Type NodeType

	// Hierarchy
	Parent   *Node
	children []*Node

	// Transform (local)
	Position mgl64.Vec3
	Rotation Euler
	Scale    mgl64.Vec3

	Visible bool

	// Mesh fields (NodeTypeMesh)
	Geometry      *Geometry
	Material      Material
	CastShadow    bool
	ReceiveShadow bool

	// Light fields (NodeTypeLight)
	Light *Light

	// Metadata
	UserData any

	worldMatrix mgl64.Mat4
	disposed    bool
}

func nodeDefaults(n *Node) {
	n.ID = nextNodeID()
	n.Scale = mgl64.Vec3{1, 1, 1}
	n.Visible = true
	n.worldMatrix = mgl64.Ident4()
}

// NewGroup creates a transform-only node.
func NewGroup(name string) *Node {
	n := &Node{Name: name, Type: NodeTypeGroup}
	nodeDefaults(n)
	return n
}

// NewMesh creates a mesh node drawing geo with mat.
func NewMesh(name string, geo *Geometry, mat Material) *Node {
	n := &Node{Name: name, Type: NodeTypeMesh, Geometry: geo, Material: mat}
	nodeDefaults(n)
	return n
}

// Quaternion returns the node's local orientation.
func (n *Node) Quaternion() mgl64.Quat {
	return n.Rotation.Quat()
}

// SetQuaternion sets the local orientation from q.
func (n *Node) SetQuaternion(q mgl64.Quat) {
	n.Rotation = EulerFromQuat(q)
}

// LocalMatrix returns T * R * S for the node's local transform.
func (n *Node) LocalMatrix() mgl64.Mat4 {
	return composeMatrix(n.Position, n.Quaternion(), n.Scale)
}

// WorldMatrix returns the world matrix computed by the last UpdateWorldMatrix.
func (n *Node) WorldMatrix() mgl64.Mat4 {
	return n.worldMatrix
}

// WorldPosition returns the translation of the world matrix.
func (n *Node) WorldPosition() mgl64.Vec3 {
	return n.worldMatrix.Col(3).Vec3()
}

// UpdateWorldMatrix recomputes world matrices for this node and its subtree.
// Ancestors are folded in so the result is correct for any node in a tree.
func (n *Node) UpdateWorldMatrix() {
	parent := mgl64.Ident4()
	if n.Parent != nil {
		parent = n.Parent.worldMatrix
	}
	updateWorldMatrix(n, parent)
}

func updateWorldMatrix(n *Node, parent mgl64.Mat4) {
	n.worldMatrix = parent.Mul4(n.LocalMatrix())
	for _, child := range n.children {
		updateWorldMatrix(child, n.worldMatrix)
	}
}

// --- Tree manipulation ---

// AddChild appends child to this node's children.
// If child already has a parent, it is removed from that parent first.
// Panics if child is nil or child is an ancestor of this node (cycle).
func (n *Node) AddChild(child *Node) {
	if child == nil {
		panic("cubeportal: cannot add nil child")
	}
	if globalDebug {
		debugCheckDisposed(n, "AddChild (parent)")
		debugCheckDisposed(child, "AddChild (child)")
	}
	if isAncestor(child, n) {
		panic("cubeportal: adding child would create a cycle")
	}
	if child.Parent != nil {
		child.Parent.removeChildByPtr(child)
	}
	child.Parent = n
	n.children = append(n.children, child)
	if globalDebug {
		debugCheckTreeDepth(child)
	}
}

// RemoveChild detaches child from this node.
// Panics if child.Parent != n.
func (n *Node) RemoveChild(child *Node) {
	if child.Parent != n {
		panic("cubeportal: child's parent is not this node")
	}
	n.removeChildByPtr(child)
	child.Parent = nil
}

// RemoveFromParent detaches this node from its parent.
// No-op if this node has no parent.
func (n *Node) RemoveFromParent() {
	if n.Parent == nil {
		return
	}
	n.Parent.RemoveChild(n)
}

// RemoveChildren detaches all children from this node.
// Children are NOT disposed.
func (n *Node) RemoveChildren() {
	for i, child := range n.children {
		child.Parent = nil
		n.children[i] = nil
	}
	n.children = n.children[:0]
}

// Children returns the child list. The returned slice MUST NOT be mutated by the caller.
func (n *Node) Children() []*Node {
	return n.children
}

// NumChildren returns the number of children.
func (n *Node) NumChildren() int {
	return len(n.children)
}

// ChildAt returns the child at the given index.
func (n *Node) ChildAt(index int) *Node {
	return n.children[index]
}

// ObjectByName returns the first node named name in a depth-first, pre-order
// walk of this subtree (including n itself), or nil.
func (n *Node) ObjectByName(name string) *Node {
	if n.Name == name {
		return n
	}
	for _, child := range n.children {
		if found := child.ObjectByName(name); found != nil {
			return found
		}
	}
	return nil
}

// Traverse calls fn for n and every descendant in pre-order.
func (n *Node) Traverse(fn func(*Node)) {
	fn(n)
	for _, child := range n.children {
		child.Traverse(fn)
	}
}

// --- Disposal ---

// Dispose removes this node from its parent, marks it as disposed,
// and recursively disposes all descendants. Geometry and materials are
// dropped, not freed: they may be shared with other nodes.
func (n *Node) Dispose() {
	if n.disposed {
		return
	}
	n.RemoveFromParent()
	n.dispose()
}

func (n *Node) dispose() {
	n.disposed = true
	n.ID = 0
	for _, child := range n.children {
		child.Parent = nil
		child.dispose()
	}
	n.children = nil
	n.Parent = nil
	n.Geometry = nil
	n.Material = nil
	n.Light = nil
	n.UserData = nil
}

// IsDisposed returns true if this node has been disposed.
func (n *Node) IsDisposed() bool {
	return n.disposed
}

// --- Helpers ---

// isAncestor reports whether candidate is an ancestor of node (or node itself).
func isAncestor(candidate, node *Node) bool {
	for p := node; p != nil; p = p.Parent {
		if p == candidate {
			return true
		}
	}
	return false
}

// removeChildByPtr removes child from n.children without clearing child.Parent.
// Uses copy+nil to avoid retaining a dangling pointer in the backing array.
func (n *Node) removeChildByPtr(child *Node) {
	for i, c := range n.children {
		if c == child {
			copy(n.children[i:], n.children[i+1:])
			n.children[len(n.children)-1] = nil
			n.children = n.children[:len(n.children)-1]
			return
		}
	}
}

package scene

// Group is a plain container node.
type Group struct {
	Object
}

// NewGroup returns an empty named group.
func NewGroup(name string) *Group {
	g := &Group{}
	g.Init(g, name, KindGroup)
	return g
}

// Scene is the root of a scene graph.
type Scene struct {
	Object
}

// NewScene returns an empty scene.
func NewScene() *Scene {
	s := &Scene{}
	s.Init(s, "scene", KindScene)
	return s
}

// Lights returns the lights attached directly to the scene.
func (s *Scene) Lights() []Light {
	var lights []Light
	for _, child := range s.Children() {
		if light, ok := child.(Light); ok {
			lights = append(lights, light)
		}
	}
	return lights
}

// Walk visits `root` and its descendants depth first. Returning false from `fn` skips the
// subtree of that node. Children are snapshotted per node, so concurrent mutations are seen
// either entirely or not at all for each parent.
func Walk(root Node, fn func(Node) bool) {
	if root == nil || !fn(root) {
		return
	}
	for _, child := range root.Children() {
		Walk(child, fn)
	}
}

// WalkVisible is like Walk but skips hidden nodes and their subtrees.
func WalkVisible(root Node, fn func(Node)) {
	Walk(root, func(n Node) bool {
		if !n.Visible() {
			return false
		}
		fn(n)
		return true
	})
}

// FindByName returns the first node named `name` in the tree, or nil.
func FindByName(root Node, name string) Node {
	var found Node
	Walk(root, func(n Node) bool {
		if found != nil {
			return false
		}
		if n.Name() == name {
			found = n
			return false
		}
		return true
	})
	return found
}

// DataNodes returns the direct children of `container` that are data groups of `dataType`.
func DataNodes(container Node, dataType string) []Node {
	var out []Node
	for _, child := range container.Children() {
		if child.UserData().Type == dataType {
			out = append(out, child)
		}
	}
	return out
}

// DataNodeOf returns the closest ancestor of `n`, including itself, that carries a data type.
func DataNodeOf(n Node) Node {
	for cur := n; cur != nil; cur = cur.Parent() {
		if cur.UserData().Type != "" {
			return cur
		}
	}
	return nil
}

package scene

import (
	"github.com/golang/geo/r3"

	"go.viam.com/chartscene/spatialmath"
)

// Transform is a composed position, rotation and uniform scale.
type Transform struct {
	Position    r3.Vector
	Orientation spatialmath.Orientation
	Scale       float64
}

// IdentityTransform maps every point to itself.
func IdentityTransform() Transform {
	return Transform{Orientation: spatialmath.NewZeroOrientation(), Scale: 1}
}

// LocalTransform returns the node's transform relative to its parent.
func LocalTransform(n Node) Transform {
	return Transform{Position: n.Position(), Orientation: n.Orientation(), Scale: n.Scale()}
}

// Compose returns the transform that applies `child` first and then `t`.
func (t Transform) Compose(child Transform) Transform {
	return Transform{
		Position:    t.Apply(child.Position),
		Orientation: spatialmath.Compose(t.Orientation, child.Orientation),
		Scale:       t.Scale * child.Scale,
	}
}

// Apply maps a point from the transform's local space into its parent space.
func (t Transform) Apply(v r3.Vector) r3.Vector {
	return spatialmath.RotateVector(t.Orientation, v.Mul(t.Scale)).Add(t.Position)
}

// WorldTransform composes the transforms from the root down to `n`.
func WorldTransform(n Node) Transform {
	var chain []Node
	for cur := n; cur != nil; cur = cur.Parent() {
		chain = append(chain, cur)
	}
	world := IdentityTransform()
	for i := len(chain) - 1; i >= 0; i-- {
		world = world.Compose(LocalTransform(chain[i]))
	}
	return world
}

// WorldPosition returns the position of `n` in root space.
func WorldPosition(n Node) r3.Vector {
	return WorldTransform(n).Position
}

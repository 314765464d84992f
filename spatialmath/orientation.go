// Package spatialmath holds the rotation helpers used to orient scene nodes.
package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"
)

// Orientation is an interface used to express the orientation of a scene node.
type Orientation interface {
	AxisAngles() *R4AA
	Quaternion() quat.Number
}

// Quaternion is a unit quaternion orientation.
type Quaternion quat.Number

// NewZeroOrientation returns an orientatation which signifies no rotation.
func NewZeroOrientation() Orientation {
	return &Quaternion{Real: 1}
}

// Quaternion returns the orientation in quaternion representation.
func (q *Quaternion) Quaternion() quat.Number {
	return quat.Number(*q)
}

// AxisAngles returns the orientation in axis angle representation.
func (q *Quaternion) AxisAngles() *R4AA {
	return QuatToR4AA(q.Quaternion())
}

// OrientationAlmostEqual will return a bool describing whether 2 orientations are approximately the same.
func OrientationAlmostEqual(o1, o2 Orientation) bool {
	return QuaternionAlmostEqual(o1.Quaternion(), o2.Quaternion(), 1e-5)
}

// QuaternionAlmostEqual is an equality test for all the float components of a quaternion. Quaternions that
// differ only by sign represent the same rotation, so both signs are accepted.
func QuaternionAlmostEqual(a, b quat.Number, tol float64) bool {
	same := math.Abs(a.Real-b.Real) < tol &&
		math.Abs(a.Imag-b.Imag) < tol &&
		math.Abs(a.Jmag-b.Jmag) < tol &&
		math.Abs(a.Kmag-b.Kmag) < tol
	if same {
		return true
	}
	return math.Abs(a.Real+b.Real) < tol &&
		math.Abs(a.Imag+b.Imag) < tol &&
		math.Abs(a.Jmag+b.Jmag) < tol &&
		math.Abs(a.Kmag+b.Kmag) < tol
}

// Compose applies `local` in the frame of `base`, i.e. base * local. This matches rotating an
// object about one of its own axes.
func Compose(base, local Orientation) Orientation {
	q := Quaternion(Normalize(quat.Mul(base.Quaternion(), local.Quaternion())))
	return &q
}

// RotateY returns `o` rotated by `theta` radians about its local Y axis.
func RotateY(o Orientation, theta float64) Orientation {
	return Compose(o, &R4AA{Theta: theta, RY: 1})
}

// Normalize scales a quaternion to unit length. The zero quaternion maps to the identity.
func Normalize(q quat.Number) quat.Number {
	norm := quat.Abs(q)
	if norm == 0 {
		return quat.Number{Real: 1}
	}
	return quat.Scale(1/norm, q)
}

// RotateVector rotates `v` by the orientation.
func RotateVector(o Orientation, v r3.Vector) r3.Vector {
	q := o.Quaternion()
	p := quat.Mul(quat.Mul(q, quat.Number{Imag: v.X, Jmag: v.Y, Kmag: v.Z}), quat.Conj(q))
	return r3.Vector{X: p.Imag, Y: p.Jmag, Z: p.Kmag}
}

// AngleAboutY returns the signed rotation in (-pi, pi] of an orientation that only rotates about Y.
func AngleAboutY(o Orientation) float64 {
	q := o.Quaternion()
	return WrapAngle(2 * math.Atan2(q.Jmag, q.Real))
}

// WrapAngle maps an angle in radians into (-pi, pi].
func WrapAngle(theta float64) float64 {
	wrapped := math.Mod(theta, 2*math.Pi)
	if wrapped > math.Pi {
		wrapped -= 2 * math.Pi
	} else if wrapped <= -math.Pi {
		wrapped += 2 * math.Pi
	}
	return wrapped
}

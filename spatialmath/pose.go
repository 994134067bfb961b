// Package spatialmath defines the rigid body transforms used to place
// sensor bodies and cameras in a fixed world frame.
package spatialmath

import (
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/dualquat"
	"gonum.org/v1/gonum/num/quat"
)

// Pose is a rigid transform (rotation + translation) represented as a unit
// dual quaternion. The zero value is not a valid pose; use NewZeroPose for
// the identity.
type Pose struct {
	q dualquat.Number
}

// NewZeroPose returns the identity pose.
func NewZeroPose() Pose {
	return Pose{dualquat.Number{
		Real: quat.Number{Real: 1},
	}}
}

// NewPose returns a pose with the given translation and rotation. The
// rotation quaternion is normalized before use.
func NewPose(t r3.Vector, r quat.Number) Pose {
	r = Normalize(r)
	p := Pose{dualquat.Number{Real: r}}
	p.setTranslation(t)
	return p
}

// NewPoseFromPoint returns a pure-translation pose.
func NewPoseFromPoint(t r3.Vector) Pose {
	return NewPose(t, quat.Number{Real: 1})
}

// setTranslation sets the dual part against the current rotation such that
// the dual quaternion encodes rotation-then-translation in the world frame.
func (p *Pose) setTranslation(t r3.Vector) {
	tq := quat.Number{Imag: t.X / 2, Jmag: t.Y / 2, Kmag: t.Z / 2}
	p.q.Dual = quat.Mul(tq, p.q.Real)
}

// Translation returns the translation component.
func (p Pose) Translation() r3.Vector {
	// t = 2 * dual * conj(real)
	tq := quat.Scale(2, quat.Mul(p.q.Dual, quat.Conj(p.q.Real)))
	return r3.Vector{X: tq.Imag, Y: tq.Jmag, Z: tq.Kmag}
}

// Rotation returns the rotation component as a unit quaternion.
func (p Pose) Rotation() quat.Number {
	return p.q.Real
}

// Compose returns the pose equivalent to applying b first, then a.
// If a maps frame B to frame A and b maps frame C to frame B, the result
// maps frame C to frame A.
func Compose(a, b Pose) Pose {
	return Pose{dualquat.Mul(a.q, b.q)}
}

// Invert returns the inverse transform.
func (p Pose) Invert() Pose {
	return Pose{dualquat.ConjQuat(p.q)}
}

// TransformPoint applies the pose to a point: R*pt + t.
func (p Pose) TransformPoint(pt r3.Vector) r3.Vector {
	rotated := RotatePoint(p.q.Real, pt)
	return rotated.Add(p.Translation())
}

// RotatePoint rotates a point by a unit quaternion.
func RotatePoint(q quat.Number, pt r3.Vector) r3.Vector {
	pq := quat.Number{Imag: pt.X, Jmag: pt.Y, Kmag: pt.Z}
	out := quat.Mul(quat.Mul(q, pq), quat.Conj(q))
	return r3.Vector{X: out.Imag, Y: out.Jmag, Z: out.Kmag}
}

// Normalize scales a quaternion to unit norm. A zero quaternion normalizes
// to the identity rotation.
func Normalize(q quat.Number) quat.Number {
	n := quat.Abs(q)
	if n == 0 {
		return quat.Number{Real: 1}
	}
	return quat.Scale(1/n, q)
}

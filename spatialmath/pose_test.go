package spatialmath

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
	"gonum.org/v1/gonum/num/quat"
)

func TestZeroPose(t *testing.T) {
	p := NewZeroPose()
	pt := r3.Vector{X: 1, Y: 2, Z: 3}
	test.That(t, p.TransformPoint(pt), test.ShouldResemble, pt)
	test.That(t, p.Translation(), test.ShouldResemble, r3.Vector{})
}

func TestTranslationOnly(t *testing.T) {
	p := NewPoseFromPoint(r3.Vector{X: 5, Y: -2, Z: 1})
	out := p.TransformPoint(r3.Vector{X: 1, Y: 1, Z: 1})
	test.That(t, out.X, test.ShouldAlmostEqual, 6)
	test.That(t, out.Y, test.ShouldAlmostEqual, -1)
	test.That(t, out.Z, test.ShouldAlmostEqual, 2)
}

func TestRotationAboutZ(t *testing.T) {
	// 90 degrees about z sends +x to +y.
	s := math.Sin(math.Pi / 4)
	p := NewPose(r3.Vector{}, quat.Number{Real: math.Cos(math.Pi / 4), Kmag: s})
	out := p.TransformPoint(r3.Vector{X: 1})
	test.That(t, out.X, test.ShouldAlmostEqual, 0, 1e-12)
	test.That(t, out.Y, test.ShouldAlmostEqual, 1, 1e-12)
	test.That(t, out.Z, test.ShouldAlmostEqual, 0, 1e-12)
}

func TestComposeInvert(t *testing.T) {
	a := NewPose(r3.Vector{X: 1, Y: 2, Z: 3}, quat.Number{Real: 0.9, Imag: 0.1, Jmag: 0.3, Kmag: 0.2})
	b := NewPose(r3.Vector{X: -4, Y: 0.5, Z: 7}, quat.Number{Real: 0.2, Imag: 0.8, Jmag: 0.1, Kmag: 0.4})

	pt := r3.Vector{X: 0.3, Y: -1.2, Z: 9}
	composed := Compose(a, b).TransformPoint(pt)
	sequential := a.TransformPoint(b.TransformPoint(pt))
	test.That(t, composed.X, test.ShouldAlmostEqual, sequential.X, 1e-9)
	test.That(t, composed.Y, test.ShouldAlmostEqual, sequential.Y, 1e-9)
	test.That(t, composed.Z, test.ShouldAlmostEqual, sequential.Z, 1e-9)

	roundTrip := a.Invert().TransformPoint(a.TransformPoint(pt))
	test.That(t, roundTrip.X, test.ShouldAlmostEqual, pt.X, 1e-9)
	test.That(t, roundTrip.Y, test.ShouldAlmostEqual, pt.Y, 1e-9)
	test.That(t, roundTrip.Z, test.ShouldAlmostEqual, pt.Z, 1e-9)
}

func TestRotationMatrixRoundTrip(t *testing.T) {
	q := Normalize(quat.Number{Real: 0.7, Imag: -0.2, Jmag: 0.5, Kmag: 0.1})
	m := QuatToRotationMatrix(q)
	q2 := RotationMatrixToQuat(m)
	// q and -q are the same rotation
	if q2.Real*q.Real < 0 {
		q2 = quat.Scale(-1, q2)
	}
	test.That(t, q2.Real, test.ShouldAlmostEqual, q.Real, 1e-9)
	test.That(t, q2.Imag, test.ShouldAlmostEqual, q.Imag, 1e-9)
	test.That(t, q2.Jmag, test.ShouldAlmostEqual, q.Jmag, 1e-9)
	test.That(t, q2.Kmag, test.ShouldAlmostEqual, q.Kmag, 1e-9)
}

func TestPoseFromMatrix(t *testing.T) {
	q := Normalize(quat.Number{Real: 1, Imag: 0.5})
	p := NewPoseFromMatrix(QuatToRotationMatrix(q), []float64{1, 2, 3})
	pt := r3.Vector{X: 2, Y: 0, Z: -1}
	want := NewPose(r3.Vector{X: 1, Y: 2, Z: 3}, q).TransformPoint(pt)
	got := p.TransformPoint(pt)
	test.That(t, got.X, test.ShouldAlmostEqual, want.X, 1e-9)
	test.That(t, got.Y, test.ShouldAlmostEqual, want.Y, 1e-9)
	test.That(t, got.Z, test.ShouldAlmostEqual, want.Z, 1e-9)
}

package spatialmath

import (
	"github.com/go-gl/mathgl/mgl64"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/num/quat"
)

// RotationMatrix returns the pose's rotation as a row-major 3x3 matrix.
func (p Pose) RotationMatrix() *mat.Dense {
	return QuatToRotationMatrix(p.q.Real)
}

// QuatToRotationMatrix converts a unit quaternion to a 3x3 rotation matrix.
func QuatToRotationMatrix(q quat.Number) *mat.Dense {
	mq := mgl64.Quat{W: q.Real, V: mgl64.Vec3{q.Imag, q.Jmag, q.Kmag}}
	m4 := mq.Mat4()
	out := mat.NewDense(3, 3, nil)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			// mgl64 matrices are column-major
			out.Set(i, j, m4.At(i, j))
		}
	}
	return out
}

// RotationMatrixToQuat converts a row-major 3x3 rotation matrix to a unit
// quaternion.
func RotationMatrixToQuat(m *mat.Dense) quat.Number {
	m4 := mgl64.Ident4()
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			m4.Set(i, j, m.At(i, j))
		}
	}
	mq := mgl64.Mat4ToQuat(m4)
	return Normalize(quat.Number{Real: mq.W, Imag: mq.V[0], Jmag: mq.V[1], Kmag: mq.V[2]})
}

// NewPoseFromMatrix builds a pose from a row-major 3x3 rotation matrix and a
// translation given as a 3-element slice.
func NewPoseFromMatrix(rot *mat.Dense, t []float64) Pose {
	return NewPose(
		r3VectorFromSlice(t),
		RotationMatrixToQuat(rot),
	)
}

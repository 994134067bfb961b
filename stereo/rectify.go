package stereo

import (
	"image"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/airmapio/aerialmapper/camera"
	"github.com/airmapio/aerialmapper/rimage"
	"github.com/airmapio/aerialmapper/spatialmath"
)

// rectification describes a planarly rectified camera pair: both virtual
// cameras share the world-frame orientation rotWorld, with the baseline
// along their common x-axis, so correspondences lie on the same scanline.
type rectification struct {
	// camera-to-world rotation of both rectified cameras
	rotWorld *mat.Dense
	// world position of the first (left) rectified camera center
	center r3.Vector
	// distance between the camera centers, meters
	baseline float64
	// map a rectified pixel to a direction in the original camera frame:
	// K * Rrect^T * K^-1, one per camera
	invWarp [2]*mat.Dense
}

// planarRectify computes the rectifying geometry for two camera-in-world
// poses sharing one intrinsics model. Fails when the baseline is shorter
// than minBaseline or (near) parallel to the first camera's optical axis.
func planarRectify(intr *camera.Intrinsics, pose0, pose1 spatialmath.Pose, minBaseline float64) (*rectification, error) {
	c0 := pose0.Translation()
	c1 := pose1.Translation()
	b := c1.Sub(c0)
	baseline := b.Norm()
	if baseline < minBaseline {
		return nil, errors.Errorf("baseline %.4fm below minimum %.4fm", baseline, minBaseline)
	}

	r0 := pose0.RotationMatrix()
	// old optical axis in world coordinates (third column of R)
	z0 := r3.Vector{X: r0.At(0, 2), Y: r0.At(1, 2), Z: r0.At(2, 2)}

	e1 := b.Mul(1 / baseline)
	e2 := z0.Cross(e1)
	if e2.Norm() < 1e-6 {
		return nil, errors.New("baseline parallel to optical axis, cannot rectify")
	}
	e2 = e2.Normalize()
	e3 := e1.Cross(e2)

	rotWorld := mat.NewDense(3, 3, []float64{
		e1.X, e2.X, e3.X,
		e1.Y, e2.Y, e3.Y,
		e1.Z, e2.Z, e3.Z,
	})

	k := intrinsicsMatrix(intr)
	var kInv mat.Dense
	if err := kInv.Inverse(k); err != nil {
		return nil, errors.Wrap(err, "intrinsics matrix not invertible")
	}

	rect := &rectification{
		rotWorld: rotWorld,
		center:   c0,
		baseline: baseline,
	}
	for i, pose := range []spatialmath.Pose{pose0, pose1} {
		// Rrect = rotWorld^T * R_wc maps old camera frame to rectified frame
		var rrect mat.Dense
		rrect.Mul(rotWorld.T(), pose.RotationMatrix())
		var tmp, inv mat.Dense
		tmp.Mul(rrect.T(), &kInv)
		inv.Mul(k, &tmp)
		rect.invWarp[i] = mat.DenseCopyOf(&inv)
	}
	return rect, nil
}

func intrinsicsMatrix(intr *camera.Intrinsics) *mat.Dense {
	return mat.NewDense(3, 3, []float64{
		intr.Fx, 0, intr.Ppx,
		0, intr.Fy, intr.Ppy,
		0, 0, 1,
	})
}

// warp resamples an original image into the rectified frame of camera idx
// using inverse mapping with bilinear interpolation. Pixels that fall
// outside the source come out black.
func (r *rectification) warp(img *image.Gray, idx int) *image.Gray {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	out := image.NewGray(image.Rect(0, 0, w, h))
	inv := r.invWarp[idx]
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			sx, sy, ok := applyHomography(inv, float64(x), float64(y))
			if !ok {
				continue
			}
			if v, ok := rimage.BilinearGray(img, r2.Point{X: sx, Y: sy}); ok {
				out.Pix[y*out.Stride+x] = uint8(v + 0.5)
			}
		}
	}
	return out
}

// applyHomography maps a pixel through a 3x3 homography and dehomogenizes.
func applyHomography(h *mat.Dense, x, y float64) (float64, float64, bool) {
	u := h.At(0, 0)*x + h.At(0, 1)*y + h.At(0, 2)
	v := h.At(1, 0)*x + h.At(1, 1)*y + h.At(1, 2)
	s := h.At(2, 0)*x + h.At(2, 1)*y + h.At(2, 2)
	if s == 0 {
		return 0, 0, false
	}
	return u / s, v / s, true
}

// triangulate converts a rectified-left pixel and disparity to a world
// point: depth along the rectified optical axis is fx*B/d.
func (r *rectification) triangulate(intr *camera.Intrinsics, x, y, disparity float64) r3.Vector {
	z := intr.Fx * r.baseline / disparity
	local := intr.PixelToPoint(x, y, z)
	world := r3.Vector{
		X: r.rotWorld.At(0, 0)*local.X + r.rotWorld.At(0, 1)*local.Y + r.rotWorld.At(0, 2)*local.Z,
		Y: r.rotWorld.At(1, 0)*local.X + r.rotWorld.At(1, 1)*local.Y + r.rotWorld.At(1, 2)*local.Z,
		Z: r.rotWorld.At(2, 0)*local.X + r.rotWorld.At(2, 1)*local.Y + r.rotWorld.At(2, 2)*local.Z,
	}
	return world.Add(r.center)
}

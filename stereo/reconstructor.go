// Package stereo performs dense reconstruction from pairs of posed aerial
// images: planar rectification, dense block matching, and triangulation of
// disparities into world-frame point samples.
package stereo

import (
	"image"
	"image/color"

	"github.com/edaniels/golog"
	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/airmapio/aerialmapper/camera"
	"github.com/airmapio/aerialmapper/pointcloud"
	"github.com/airmapio/aerialmapper/rimage"
	"github.com/airmapio/aerialmapper/spatialmath"
)

// Settings configures the reconstructor.
type Settings struct {
	// UseEveryNth uses only every Nth frame as a stereo partner; 1 uses all.
	UseEveryNth int
	// MinBaseline is the shortest usable camera-center separation, meters.
	// Zero selects a default.
	MinBaseline float64
}

const defaultMinBaseline = 0.05

// Reconstructor turns a stream of posed frames into point samples using a
// one-frame lookback buffer. Reconstruction runs between the current frame
// and the previously added one.
type Reconstructor struct {
	rig      *camera.Rig
	settings Settings
	params   MatcherParams
	logger   golog.Logger

	havePrev  bool
	prevPose  spatialmath.Pose
	prevImage image.Image
	prevGray  *image.Gray
}

// NewReconstructor validates the configuration and returns a reconstructor.
// A nil or empty camera rig is a fatal configuration error.
func NewReconstructor(rig *camera.Rig, settings Settings, params MatcherParams, logger golog.Logger) (*Reconstructor, error) {
	if rig == nil || rig.NumCameras() == 0 {
		return nil, errors.New("stereo reconstruction requires a camera rig with at least one camera")
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if settings.UseEveryNth < 1 {
		settings.UseEveryNth = 1
	}
	if settings.MinBaseline <= 0 {
		settings.MinBaseline = defaultMinBaseline
	}
	return &Reconstructor{
		rig:      rig,
		settings: settings,
		params:   params,
		logger:   logger,
	}, nil
}

// AddFrame buffers the frame and, when a previous frame exists,
// reconstructs point samples from the pair. Geometric failures (degenerate
// baseline, rectification failure) are logged and yield an empty cloud, not
// an error.
func (r *Reconstructor) AddFrame(pose spatialmath.Pose, img image.Image) (*pointcloud.Cloud, error) {
	if img == nil {
		return nil, errors.New("nil image")
	}
	gray := rimage.ToGray(img)
	defer func() {
		r.havePrev = true
		r.prevPose = pose
		r.prevImage = img
		r.prevGray = gray
	}()

	if !r.havePrev {
		r.logger.Debug("first frame buffered, nothing to reconstruct yet")
		return pointcloud.New(), nil
	}
	cloud, err := r.reconstructPair(r.prevPose, r.prevGray, r.prevImage, pose, gray)
	if err != nil {
		r.logger.Warnw("skipping degenerate stereo pair", "error", err)
		return pointcloud.New(), nil
	}
	return cloud, nil
}

// AddFrames runs AddFrame over a frame sequence, using every Nth frame per
// the settings, and concatenates the results. A pose/image count mismatch
// is fatal.
func (r *Reconstructor) AddFrames(poses []spatialmath.Pose, images []image.Image) (*pointcloud.Cloud, error) {
	if len(poses) != len(images) {
		return nil, errors.Errorf("got %d poses but %d images", len(poses), len(images))
	}
	out := pointcloud.New()
	var errs error
	for i := range poses {
		if i%r.settings.UseEveryNth != 0 {
			continue
		}
		cloud, err := r.AddFrame(poses[i], images[i])
		if err != nil {
			errs = multierr.Combine(errs, errors.Wrapf(err, "frame %d", i))
			continue
		}
		out.Merge(cloud)
	}
	if out.Size() == 0 && errs != nil {
		return nil, errs
	}
	if errs != nil {
		r.logger.Warnw("some frames failed", "error", errs)
	}
	return out, nil
}

// Reset drops the lookback buffer.
func (r *Reconstructor) Reset() {
	r.havePrev = false
	r.prevImage = nil
	r.prevGray = nil
}

// reconstructPair rectifies the pair, matches it densely, and triangulates
// valid disparities into the world frame. The first rig camera drives the
// reconstruction.
func (r *Reconstructor) reconstructPair(
	pose0 spatialmath.Pose, gray0 *image.Gray, img0 image.Image,
	pose1 spatialmath.Pose, gray1 *image.Gray,
) (*pointcloud.Cloud, error) {
	cam := r.rig.Camera(0)
	if gray0.Bounds().Dx() != cam.Intrinsics.Width || gray0.Bounds().Dy() != cam.Intrinsics.Height {
		return nil, errors.Errorf("image dimensions (%d, %d) do not match intrinsics (%d, %d)",
			gray0.Bounds().Dx(), gray0.Bounds().Dy(), cam.Intrinsics.Width, cam.Intrinsics.Height)
	}
	camPose0 := spatialmath.Compose(pose0, cam.Extrinsics)
	camPose1 := spatialmath.Compose(pose1, cam.Extrinsics)

	rect, err := planarRectify(&cam.Intrinsics, camPose0, camPose1, r.settings.MinBaseline)
	if err != nil {
		return nil, err
	}
	left := rect.warp(gray0, 0)
	right := rect.warp(gray1, 1)

	disparities, err := computeDisparity(left, right, r.params)
	if err != nil {
		return nil, err
	}

	cloud := pointcloud.New()
	hasColor := !isGrayImage(img0)
	for y := 0; y < disparities.Height; y++ {
		for x := 0; x < disparities.Width; x++ {
			d, ok := disparities.At(x, y)
			if !ok {
				continue
			}
			sample := pointcloud.PointSample{
				Position: rect.triangulate(&cam.Intrinsics, float64(x), float64(y), d),
			}
			if c, ok := sampleSourceColor(rect, img0, hasColor, left, x, y); ok {
				sample.Color = c
				sample.HasColor = hasColor
			}
			cloud.Append(sample)
		}
	}
	r.logger.Debugf("reconstructed %d points from stereo pair (baseline %.2fm)", cloud.Size(), rect.baseline)
	return cloud, nil
}

// sampleSourceColor looks up the color seen at a rectified-left pixel by
// mapping it back into the original image.
func sampleSourceColor(rect *rectification, orig image.Image, colored bool, left *image.Gray, x, y int) (color.NRGBA, bool) {
	if !colored {
		v := left.GrayAt(x, y).Y
		return color.NRGBA{R: v, G: v, B: v, A: 255}, true
	}
	sx, sy, ok := applyHomography(rect.invWarp[0], float64(x), float64(y))
	if !ok {
		return color.NRGBA{}, false
	}
	return rimage.BilinearColor(orig, r2.Point{X: sx, Y: sy})
}

func isGrayImage(img image.Image) bool {
	switch img.(type) {
	case *image.Gray, *image.Gray16:
		return true
	default:
		return false
	}
}

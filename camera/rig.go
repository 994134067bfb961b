package camera

import (
	"encoding/json"
	"io"
	"os"

	"github.com/pkg/errors"
	"go.viam.com/utils"

	"github.com/airmapio/aerialmapper/spatialmath"
)

// Camera is a single camera of a rig: pinhole intrinsics plus the extrinsic
// transform T_B_C placing the camera frame in the body frame.
type Camera struct {
	Intrinsics Intrinsics
	Extrinsics spatialmath.Pose
}

// Rig is a fixed set of cameras rigidly attached to one body. It is
// immutable after construction and safe for concurrent reads.
type Rig struct {
	cameras []Camera
}

// NewRig validates the given cameras and returns a rig. A rig with zero
// cameras or invalid intrinsics is a fatal configuration error.
func NewRig(cameras []Camera) (*Rig, error) {
	if len(cameras) == 0 {
		return nil, errors.New("camera rig must contain at least one camera")
	}
	for i := range cameras {
		if err := cameras[i].Intrinsics.CheckValid(); err != nil {
			return nil, errors.Wrapf(err, "camera %d", i)
		}
	}
	rig := &Rig{cameras: make([]Camera, len(cameras))}
	copy(rig.cameras, cameras)
	return rig, nil
}

// NumCameras returns how many cameras the rig carries.
func (r *Rig) NumCameras() int {
	return len(r.cameras)
}

// Camera returns the camera at the given index.
func (r *Rig) Camera(i int) *Camera {
	return &r.cameras[i]
}

type rigCameraConfig struct {
	Intrinsics  Intrinsics `json:"intrinsics"`
	Translation []float64  `json:"t_b_c_translation"`
	// unit quaternion, [w x y z]; identity when omitted
	Rotation []float64 `json:"t_b_c_rotation"`
}

type rigConfig struct {
	Cameras []rigCameraConfig `json:"cameras"`
}

// LoadRigFromJSONFile reads a camera rig calibration file: intrinsics and
// body-frame extrinsics per camera.
func LoadRigFromJSONFile(jsonPath string) (*Rig, error) {
	//nolint:gosec
	jsonFile, err := os.Open(jsonPath)
	if err != nil {
		return nil, errors.Wrap(err, "error opening camera rig file")
	}
	defer utils.UncheckedErrorFunc(jsonFile.Close)
	byteValue, err := io.ReadAll(jsonFile)
	if err != nil {
		return nil, errors.Wrap(err, "error reading camera rig file")
	}
	var cfg rigConfig
	if err := json.Unmarshal(byteValue, &cfg); err != nil {
		return nil, errors.Wrap(err, "error parsing camera rig file")
	}
	cameras := make([]Camera, 0, len(cfg.Cameras))
	for i, c := range cfg.Cameras {
		extrinsics, err := poseFromConfig(c)
		if err != nil {
			return nil, errors.Wrapf(err, "camera %d", i)
		}
		cameras = append(cameras, Camera{Intrinsics: c.Intrinsics, Extrinsics: extrinsics})
	}
	return NewRig(cameras)
}

func poseFromConfig(c rigCameraConfig) (spatialmath.Pose, error) {
	t := [3]float64{}
	switch len(c.Translation) {
	case 0:
	case 3:
		copy(t[:], c.Translation)
	default:
		return spatialmath.Pose{}, errors.Errorf("t_b_c_translation must have 3 elements, got %d", len(c.Translation))
	}
	q := quatIdentity()
	switch len(c.Rotation) {
	case 0:
	case 4:
		q.Real, q.Imag, q.Jmag, q.Kmag = c.Rotation[0], c.Rotation[1], c.Rotation[2], c.Rotation[3]
	default:
		return spatialmath.Pose{}, errors.Errorf("t_b_c_rotation must have 4 elements, got %d", len(c.Rotation))
	}
	return spatialmath.NewPose(r3Vec(t), q), nil
}

// Package mapio loads flight data from disk: body poses, imagery, camera
// rigs, and point clouds.
package mapio

import (
	"bufio"
	"os"
	"strconv"
	"strings"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/num/quat"

	"github.com/airmapio/aerialmapper/spatialmath"
)

// PoseFormat identifies the on-disk pose file dialect.
type PoseFormat int

const (
	// PoseFormatStandard lines are "timestamp x y z qw qx qy qz".
	PoseFormatStandard PoseFormat = iota
	// PoseFormatStandardNamed lines are "image_name x y z qw qx qy qz";
	// the names say which image belongs to each pose.
	PoseFormatStandardNamed
	// PoseFormatCOLMAP is the COLMAP images.txt layout.
	PoseFormatCOLMAP
	// PoseFormatPIX4D is the PIX4D calibrated external parameters layout.
	PoseFormatPIX4D
	// PoseFormatROS is a ROS bag export layout.
	PoseFormatROS
)

// ParsePoseFormat maps a format name from the command line to a PoseFormat.
func ParsePoseFormat(name string) (PoseFormat, error) {
	switch name {
	case "Standard":
		return PoseFormatStandard, nil
	case "StandardNamed":
		return PoseFormatStandardNamed, nil
	case "COLMAP":
		return PoseFormatCOLMAP, nil
	case "PIX4D":
		return PoseFormatPIX4D, nil
	case "ROS":
		return PoseFormatROS, nil
	default:
		return 0, errors.Errorf("unknown pose format %q", name)
	}
}

// LoadPoses reads body-in-world poses (T_G_B) from a pose file. For named
// formats the returned names parallel the poses; for anonymous formats the
// names slice is nil.
func LoadPoses(format PoseFormat, path string) ([]spatialmath.Pose, []string, error) {
	switch format {
	case PoseFormatStandard:
		poses, _, err := loadStandardPoses(path, false)
		return poses, nil, err
	case PoseFormatStandardNamed:
		return loadStandardNamedPoses(path)
	case PoseFormatCOLMAP:
		return nil, nil, errors.New("COLMAP pose format not yet supported")
	case PoseFormatPIX4D:
		return nil, nil, errors.New("PIX4D pose format not yet supported")
	case PoseFormatROS:
		return nil, nil, errors.New("ROS pose format not yet supported")
	default:
		return nil, nil, errors.Errorf("unknown pose format %d", format)
	}
}

// loadStandardPoses parses "token x y z qw qx qy qz" lines. When keepNames
// is set the leading token of each line is collected.
func loadStandardPoses(path string, keepNames bool) ([]spatialmath.Pose, []string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, errors.Wrap(err, "opening pose file")
	}
	defer f.Close()

	var poses []spatialmath.Pose
	var names []string
	scanner := bufio.NewScanner(f)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 8 {
			return nil, nil, errors.Errorf("%s:%d: expected 8 fields, got %d", path, lineNum, len(fields))
		}
		vals := make([]float64, 7)
		for i, field := range fields[1:] {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, nil, errors.Wrapf(err, "%s:%d: field %d", path, lineNum, i+2)
			}
			vals[i] = v
		}
		poses = append(poses, spatialmath.NewPose(
			r3.Vector{X: vals[0], Y: vals[1], Z: vals[2]},
			quat.Number{Real: vals[3], Imag: vals[4], Jmag: vals[5], Kmag: vals[6]},
		))
		if keepNames {
			names = append(names, fields[0])
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, errors.Wrap(err, "reading pose file")
	}
	return poses, names, nil
}

func loadStandardNamedPoses(path string) ([]spatialmath.Pose, []string, error) {
	return loadStandardPoses(path, true)
}

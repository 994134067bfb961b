package pointcloud

import (
	"image/color"
	"io"
	"os"
	"path/filepath"

	"github.com/chenzhekl/goply"
	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.viam.com/utils"
)

// NewFromFile returns a point cloud read in from the given file.
func NewFromFile(fn string, logger golog.Logger) (*Cloud, error) {
	switch filepath.Ext(fn) {
	case ".ply":
		return NewFromPLYFile(fn, logger)
	default:
		return nil, errors.Errorf("do not know how to read file %q", fn)
	}
}

// NewFromPLYFile returns a point cloud from reading a PLY file.
func NewFromPLYFile(fn string, logger golog.Logger) (*Cloud, error) {
	//nolint:gosec
	f, err := os.Open(fn)
	if err != nil {
		return nil, errors.Wrapf(err, "error opening PLY file %q", fn)
	}
	defer utils.UncheckedErrorFunc(f.Close)
	return ReadPLY(f, logger)
}

// ReadPLY reads a PLY-encoded point cloud. Vertices carry x/y/z and
// optionally red/green/blue.
func ReadPLY(rd io.Reader, logger golog.Logger) (*Cloud, error) {
	ply := goply.New(rd)
	vertices := ply.Elements("vertex")
	cloud := NewWithPrealloc(len(vertices))
	skipped := 0
	for _, v := range vertices {
		x, okX := plyFloat(v["x"])
		y, okY := plyFloat(v["y"])
		z, okZ := plyFloat(v["z"])
		if !okX || !okY || !okZ {
			skipped++
			continue
		}
		sample := PointSample{Position: r3.Vector{X: x, Y: y, Z: z}}
		r, okR := plyUint8(v["red"])
		g, okG := plyUint8(v["green"])
		b, okB := plyUint8(v["blue"])
		if okR && okG && okB {
			sample.Color = color.NRGBA{R: r, G: g, B: b, A: 255}
			sample.HasColor = true
		}
		cloud.Append(sample)
	}
	if skipped > 0 {
		logger.Warnf("skipped %d PLY vertices with missing coordinates", skipped)
	}
	if cloud.Size() == 0 {
		return nil, errors.New("PLY file contained no vertices")
	}
	return cloud, nil
}

func plyFloat(v interface{}) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	default:
		return 0, false
	}
}

func plyUint8(v interface{}) (uint8, bool) {
	switch x := v.(type) {
	case uint8:
		return x, true
	case int:
		return uint8(x), true
	case float64:
		return uint8(x), true
	default:
		return 0, false
	}
}

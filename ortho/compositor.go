// Package ortho builds the orthomosaic layer by backward projection: every
// grid cell is lifted to a 3D point at its surface elevation, projected
// into the candidate source images, and filled with the first valid sample.
//
// The elevation lookup does not model occlusion: a cell hidden behind a
// taller structure closer to the camera still samples whatever pixel its
// center projects to. This matches the behavior of the surface-model
// approach and is a documented limitation, not a defect to compensate for.
package ortho

import (
	"context"
	"image"
	"image/color"

	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"github.com/airmapio/aerialmapper/camera"
	"github.com/airmapio/aerialmapper/gridmap"
	"github.com/airmapio/aerialmapper/rimage"
	"github.com/airmapio/aerialmapper/spatialmath"
	"github.com/airmapio/aerialmapper/utils"
)

// Settings configures the compositor.
type Settings struct {
	// UseDigitalElevationMap lifts cells to their DSM elevation; otherwise
	// every cell uses OrthomosaicElevation (flat-ground assumption).
	UseDigitalElevationMap bool
	// OrthomosaicElevation is the flat-ground elevation, meters.
	OrthomosaicElevation float64
	// Colored produces an RGB orthomosaic; otherwise grayscale intensity
	// is written to all three ortho channels.
	Colored bool
	// UseMultiThreads partitions the cell set over a worker pool. Output
	// is bit-identical to the single-threaded mode.
	UseMultiThreads bool
}

// Compositor writes the orthomosaic layer of a grid from posed imagery.
type Compositor struct {
	rig      *camera.Rig
	settings Settings
	logger   golog.Logger
}

// NewCompositor validates the rig and returns a compositor.
func NewCompositor(rig *camera.Rig, settings Settings, logger golog.Logger) (*Compositor, error) {
	if rig == nil || rig.NumCameras() == 0 {
		return nil, errors.New("orthomosaic compositing requires a camera rig with at least one camera")
	}
	return &Compositor{rig: rig, settings: settings, logger: logger}, nil
}

// Process back-projects every unset grid cell into the supplied images and
// writes the first valid sample. Cells already carrying an ortho value are
// left untouched (first-write-wins), so repeated incremental calls only
// ever fill, never reset.
func (c *Compositor) Process(ctx context.Context, poses []spatialmath.Pose, images []image.Image, grid *gridmap.Grid) error {
	if len(poses) != len(images) {
		return errors.Errorf("got %d poses but %d images", len(poses), len(images))
	}
	if len(poses) == 0 {
		return nil
	}

	// camera-in-world poses inverted once per (pose, camera) pair
	worldToCam := make([][]spatialmath.Pose, len(poses))
	for pi, pose := range poses {
		worldToCam[pi] = make([]spatialmath.Pose, c.rig.NumCameras())
		for ci := 0; ci < c.rig.NumCameras(); ci++ {
			worldToCam[pi][ci] = spatialmath.Compose(pose, c.rig.Camera(ci).Extrinsics).Invert()
		}
	}

	totalCells := grid.Rows() * grid.Cols()
	filled := 0
	if c.settings.UseMultiThreads {
		counts := []int{}
		if err := utils.GroupWorkParallel(
			ctx,
			totalCells,
			func(numGroups int) {
				counts = make([]int, numGroups)
			},
			func(groupNum, groupSize, from, to int) (utils.MemberWorkFunc, utils.GroupWorkDoneFunc) {
				// each worker owns the disjoint cell range [from, to)
				n := 0
				return func(memberNum, workNum int) {
						if c.compositeCell(workNum, worldToCam, images, grid) {
							n++
						}
					}, func() {
						counts[groupNum] = n
					}
			},
		); err != nil {
			return err
		}
		for _, n := range counts {
			filled += n
		}
	} else {
		for idx := 0; idx < totalCells; idx++ {
			if c.compositeCell(idx, worldToCam, images, grid) {
				filled++
			}
		}
	}
	c.logger.Debugf("orthomosaic pass over %d poses filled %d of %d cells", len(poses), filled, totalCells)
	return nil
}

// compositeCell fills one cell if it is unset and some camera sees it.
// Selection is deterministic: first valid projection in ascending pose
// order, then ascending camera order.
func (c *Compositor) compositeCell(idx int, worldToCam [][]spatialmath.Pose, images []image.Image, grid *gridmap.Grid) bool {
	row := idx / grid.Cols()
	col := idx % grid.Cols()
	if grid.IsSet(gridmap.LayerOrthoR, row, col) {
		return false
	}

	easting, northing := grid.CellToWorld(row, col)
	elevation := c.settings.OrthomosaicElevation
	if c.settings.UseDigitalElevationMap {
		if v, ok := grid.At(gridmap.LayerElevation, row, col); ok {
			elevation = v
		}
	}
	world := r3.Vector{X: easting, Y: northing, Z: elevation}

	for pi := range worldToCam {
		for ci := range worldToCam[pi] {
			cam := c.rig.Camera(ci)
			local := worldToCam[pi][ci].TransformPoint(world)
			px, ok := cam.Intrinsics.PointToPixel(local)
			if !ok || !cam.Intrinsics.PixelInBounds(px) {
				continue
			}
			sample, ok := c.samplePixel(images[pi], px.X, px.Y)
			if !ok {
				continue
			}
			grid.SetOrtho(row, col, sample)
			return true
		}
	}
	return false
}

func (c *Compositor) samplePixel(img image.Image, x, y float64) (color.NRGBA, bool) {
	if c.settings.Colored {
		return rimage.BilinearColor(img, pixelPoint(x, y))
	}
	gray, ok := img.(*image.Gray)
	if !ok {
		cl, ok := rimage.BilinearColor(img, pixelPoint(x, y))
		if !ok {
			return color.NRGBA{}, false
		}
		v := luminance(cl)
		return color.NRGBA{R: v, G: v, B: v, A: 255}, true
	}
	v, ok := rimage.BilinearGray(gray, pixelPoint(x, y))
	if !ok {
		return color.NRGBA{}, false
	}
	g := uint8(v + 0.5)
	return color.NRGBA{R: g, G: g, B: g, A: 255}, true
}

func luminance(c color.NRGBA) uint8 {
	// Rec. 601 weights, same as the stdlib's gray conversion
	v := (299*int(c.R) + 587*int(c.G) + 114*int(c.B) + 500) / 1000
	if v > 255 {
		v = 255
	}
	return uint8(v)
}

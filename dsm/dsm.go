// Package dsm builds a digital surface model: per grid cell, the highest
// point-sample elevation observed so far.
//
// The update rule is a max-fold, which makes processing commutative and
// idempotent: any ordering or chunking of the same samples produces the
// same elevation layer, the property incremental operation relies on.
package dsm

import (
	"math"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"

	"github.com/airmapio/aerialmapper/gridmap"
	"github.com/airmapio/aerialmapper/pointcloud"
)

// Settings configures the builder. The center must match the grid the
// builder will write into.
type Settings struct {
	CenterEasting  float64
	CenterNorthing float64
}

// Builder folds point clouds into a grid's elevation layer.
type Builder struct {
	settings Settings
	logger   golog.Logger
}

// NewBuilder checks the settings against the grid geometry and returns a
// builder.
func NewBuilder(settings Settings, grid *gridmap.Grid, logger golog.Logger) (*Builder, error) {
	if grid == nil {
		return nil, errors.New("dsm builder requires a grid")
	}
	gs := grid.Settings()
	if settings.CenterEasting != gs.CenterEasting || settings.CenterNorthing != gs.CenterNorthing {
		return nil, errors.Errorf("dsm center (%f, %f) does not match grid center (%f, %f)",
			settings.CenterEasting, settings.CenterNorthing, gs.CenterEasting, gs.CenterNorthing)
	}
	return &Builder{settings: settings, logger: logger}, nil
}

// Process folds every sample of the cloud into the grid's elevation layer,
// keeping the maximum elevation per cell and bumping observation counts.
// Samples outside the grid bounds are dropped silently.
func (b *Builder) Process(cloud *pointcloud.Cloud, grid *gridmap.Grid) {
	if cloud == nil || cloud.Size() == 0 {
		return
	}
	dropped := 0
	cloud.Iterate(func(s pointcloud.PointSample) bool {
		row, col, err := grid.WorldToCell(s.Position.X, s.Position.Y)
		if err != nil {
			dropped++
			return true
		}
		existing, ok := grid.At(gridmap.LayerElevation, row, col)
		if !ok {
			existing = math.Inf(-1)
		}
		if s.Position.Z > existing {
			grid.Set(gridmap.LayerElevation, row, col, s.Position.Z)
		}
		grid.IncrementObservation(row, col)
		return true
	})
	b.logger.Debugf("folded %d point samples into DSM (%d outside grid)", cloud.Size(), dropped)
}

// Package mapper wires the reconstruction stages into a pipeline: dense
// stereo produces point samples, the DSM builder folds them into the
// elevation layer, and the orthomosaic compositor back-projects the imagery
// onto the shared grid. The pipeline runs either as one batch over a whole
// flight or incrementally over frame subsets as they arrive.
package mapper

import (
	"context"
	"image"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"

	"github.com/airmapio/aerialmapper/camera"
	"github.com/airmapio/aerialmapper/dsm"
	"github.com/airmapio/aerialmapper/gridmap"
	"github.com/airmapio/aerialmapper/ortho"
	"github.com/airmapio/aerialmapper/pointcloud"
	"github.com/airmapio/aerialmapper/spatialmath"
	"github.com/airmapio/aerialmapper/stereo"
)

// Sink receives the grid after each compositing pass. Incremental runs
// publish once per subset, batch runs once at the end.
type Sink interface {
	Publish(ctx context.Context, grid *gridmap.Grid) error
}

// NoopSink discards every publish.
type NoopSink struct{}

// Publish does nothing.
func (NoopSink) Publish(context.Context, *gridmap.Grid) error { return nil }

// Settings configures every pipeline stage plus the incremental subset size.
type Settings struct {
	Grid    gridmap.Settings
	Stereo  stereo.Settings
	Matcher stereo.MatcherParams
	DSM     dsm.Settings
	Ortho   ortho.Settings
	// SubsetSize is how many frames an incremental run accumulates before
	// compositing and publishing. Zero selects a default.
	SubsetSize int
}

const defaultSubsetSize = 10

// Pipeline owns the grid and the three processing stages.
type Pipeline struct {
	rig      *camera.Rig
	settings Settings
	logger   golog.Logger

	grid        *gridmap.Grid
	reconstruct *stereo.Reconstructor
	surface     *dsm.Builder
	compositor  *ortho.Compositor
	sink        Sink
}

// NewPipeline validates the configuration, builds the grid, and wires the
// stages. A nil sink defaults to NoopSink.
func NewPipeline(rig *camera.Rig, settings Settings, sink Sink, logger golog.Logger) (*Pipeline, error) {
	if settings.SubsetSize < 1 {
		settings.SubsetSize = defaultSubsetSize
	}
	if settings.Stereo.UseEveryNth < 1 {
		settings.Stereo.UseEveryNth = 1
	}
	grid, err := gridmap.NewGrid(settings.Grid)
	if err != nil {
		return nil, errors.Wrap(err, "building grid")
	}
	reconstruct, err := stereo.NewReconstructor(rig, settings.Stereo, settings.Matcher, logger)
	if err != nil {
		return nil, errors.Wrap(err, "building stereo reconstructor")
	}
	surface, err := dsm.NewBuilder(settings.DSM, grid, logger)
	if err != nil {
		return nil, errors.Wrap(err, "building dsm builder")
	}
	compositor, err := ortho.NewCompositor(rig, settings.Ortho, logger)
	if err != nil {
		return nil, errors.Wrap(err, "building orthomosaic compositor")
	}
	if sink == nil {
		sink = NoopSink{}
	}
	return &Pipeline{
		rig:         rig,
		settings:    settings,
		logger:      logger,
		grid:        grid,
		reconstruct: reconstruct,
		surface:     surface,
		compositor:  compositor,
		sink:        sink,
	}, nil
}

// Grid returns the pipeline's grid.
func (p *Pipeline) Grid() *gridmap.Grid {
	return p.grid
}

// RunBatch reconstructs the whole frame sequence, folds the resulting cloud
// into the DSM, composites the orthomosaic over all frames, and publishes
// once.
func (p *Pipeline) RunBatch(ctx context.Context, poses []spatialmath.Pose, images []image.Image) error {
	if len(poses) != len(images) {
		return errors.Errorf("got %d poses but %d images", len(poses), len(images))
	}
	cloud, err := p.reconstruct.AddFrames(poses, images)
	if err != nil {
		return errors.Wrap(err, "stereo reconstruction")
	}
	return p.RunBatchWithCloud(ctx, poses, images, cloud)
}

// RunBatchWithCloud is RunBatch with the dense reconstruction step replaced
// by a pre-built point cloud, for example one loaded from a PLY file.
func (p *Pipeline) RunBatchWithCloud(
	ctx context.Context, poses []spatialmath.Pose, images []image.Image, cloud *pointcloud.Cloud,
) error {
	if len(poses) != len(images) {
		return errors.Errorf("got %d poses but %d images", len(poses), len(images))
	}
	p.surface.Process(cloud, p.grid)
	if err := p.compositor.Process(ctx, poses, images, p.grid); err != nil {
		return errors.Wrap(err, "orthomosaic compositing")
	}
	p.logger.Infof("batch run over %d frames complete", len(poses))
	return p.sink.Publish(ctx, p.grid)
}

// RunIncremental feeds frames through the pipeline one at a time,
// compositing and publishing after every subset. The elevation layer grows
// with each frame; the orthomosaic only ever fills, so earlier subsets are
// never overwritten by later ones.
func (p *Pipeline) RunIncremental(ctx context.Context, poses []spatialmath.Pose, images []image.Image) error {
	if len(poses) != len(images) {
		return errors.Errorf("got %d poses but %d images", len(poses), len(images))
	}
	subsetPoses := make([]spatialmath.Pose, 0, p.settings.SubsetSize)
	subsetImages := make([]image.Image, 0, p.settings.SubsetSize)

	flush := func() error {
		if len(subsetPoses) == 0 {
			return nil
		}
		if err := p.compositor.Process(ctx, subsetPoses, subsetImages, p.grid); err != nil {
			return errors.Wrap(err, "orthomosaic compositing")
		}
		if err := p.sink.Publish(ctx, p.grid); err != nil {
			return errors.Wrap(err, "publishing grid")
		}
		subsetPoses = subsetPoses[:0]
		subsetImages = subsetImages[:0]
		return nil
	}

	for i := range poses {
		if err := ctx.Err(); err != nil {
			return err
		}
		if i%p.settings.Stereo.UseEveryNth == 0 {
			cloud, err := p.reconstruct.AddFrame(poses[i], images[i])
			if err != nil {
				return errors.Wrapf(err, "frame %d", i)
			}
			p.surface.Process(cloud, p.grid)
		}
		subsetPoses = append(subsetPoses, poses[i])
		subsetImages = append(subsetImages, images[i])
		if len(subsetPoses) >= p.settings.SubsetSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	if err := flush(); err != nil {
		return err
	}
	p.logger.Infof("incremental run over %d frames complete", len(poses))
	return nil
}

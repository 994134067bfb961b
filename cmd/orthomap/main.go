// Command orthomap builds a digital surface model and orthomosaic from a
// directory of posed aerial images, either in one batch pass or
// incrementally with periodic exports.
package main

import (
	"context"
	"flag"
	"image"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/edaniels/golog"
	"github.com/pkg/errors"

	"github.com/airmapio/aerialmapper/camera"
	"github.com/airmapio/aerialmapper/dsm"
	"github.com/airmapio/aerialmapper/gridmap"
	"github.com/airmapio/aerialmapper/mapio"
	"github.com/airmapio/aerialmapper/mapper"
	"github.com/airmapio/aerialmapper/ortho"
	"github.com/airmapio/aerialmapper/pointcloud"
	"github.com/airmapio/aerialmapper/stereo"
)

var (
	dataDirectory   = flag.String("data-directory", "", "directory holding poses, images, and the camera rig file")
	filenamePoses   = flag.String("filename-poses", "", "pose file with body-in-world poses (T_G_B)")
	poseFormat      = flag.String("pose-format", "Standard", "pose file format: Standard, StandardNamed, COLMAP, PIX4D, ROS")
	prefixImages    = flag.String("prefix-images", "", "image filename prefix, e.g. 'images_'")
	filenameRig     = flag.String("filename-camera-rig", "", "camera rig calibration file (JSON)")
	centerEasting   = flag.Float64("center-easting", 0, "grid center easting, meters")
	centerNorthing  = flag.Float64("center-northing", 0, "grid center northing, meters")
	deltaEasting    = flag.Float64("delta-easting", 100, "grid half-extent east of center, meters")
	deltaNorthing   = flag.Float64("delta-northing", 100, "grid half-extent north of center, meters")
	resolution      = flag.Float64("resolution", 1, "grid cell edge length, meters")
	orthoJPG        = flag.String("orthomosaic-jpg-filename", "", "write the orthomosaic to this JPEG file")
	orthoElevation  = flag.Float64("orthomosaic-elevation-m", 0, "flat-ground elevation when the elevation map is disabled")
	useElevationMap = flag.Bool("use-digital-elevation-map", true, "lift cells to their surface-model elevation instead of flat ground")
	cloudFilename   = flag.String("point-cloud-filename", "", "PLY point cloud to load instead of dense reconstruction")
	useEveryNth     = flag.Int("use-every-nth-image", 10, "use only every nth image for dense reconstruction")
	useBM           = flag.Bool("use-bm", true, "use block matching; false selects semi-global block matching")
	colored         = flag.Bool("colored-ortho", false, "produce an RGB orthomosaic instead of grayscale")
	useMultiThreads = flag.Bool("use-multi-threads", false, "parallelize orthomosaic generation")
	incremental     = flag.Bool("incremental", false, "process frames incrementally instead of in one batch")
	subsetSize      = flag.Int("subset-size", 10, "frames per incremental compositing pass")
)

func main() {
	flag.Parse()
	logger := golog.NewDevelopmentLogger("orthomap")
	if err := run(context.Background(), logger); err != nil {
		logger.Fatal(err)
	}
}

func run(ctx context.Context, logger golog.Logger) error {
	if *filenamePoses == "" || *filenameRig == "" {
		return errors.New("both -filename-poses and -filename-camera-rig are required")
	}

	rig, err := camera.LoadRigFromJSONFile(filepath.Join(*dataDirectory, *filenameRig))
	if err != nil {
		return errors.Wrap(err, "loading camera rig")
	}

	format, err := mapio.ParsePoseFormat(*poseFormat)
	if err != nil {
		return err
	}
	poses, imageNames, err := mapio.LoadPoses(format, filepath.Join(*dataDirectory, *filenamePoses))
	if err != nil {
		return errors.Wrap(err, "loading poses")
	}
	logger.Infof("loaded %d poses", len(poses))

	var images []image.Image
	if len(imageNames) > 0 {
		images, err = mapio.LoadImagesByName(*dataDirectory, imageNames, *colored)
	} else {
		images, err = mapio.LoadImages(filepath.Join(*dataDirectory, *prefixImages), len(poses), *colored)
	}
	if err != nil {
		return errors.Wrap(err, "loading images")
	}

	settings := mapper.Settings{
		Grid: gridmap.Settings{
			CenterEasting:  *centerEasting,
			CenterNorthing: *centerNorthing,
			DeltaEasting:   *deltaEasting,
			DeltaNorthing:  *deltaNorthing,
			Resolution:     *resolution,
		},
		Stereo: stereo.Settings{UseEveryNth: *useEveryNth},
		DSM: dsm.Settings{
			CenterEasting:  *centerEasting,
			CenterNorthing: *centerNorthing,
		},
		Ortho: ortho.Settings{
			UseDigitalElevationMap: *useElevationMap,
			OrthomosaicElevation:   *orthoElevation,
			Colored:                *colored,
			UseMultiThreads:        *useMultiThreads,
		},
		SubsetSize: *subsetSize,
	}
	strategy := stereo.StrategyBM
	if !*useBM {
		strategy = stereo.StrategySGBM
	}
	settings.Matcher = stereo.DefaultMatcherParams(strategy)

	pipeline, err := mapper.NewPipeline(rig, settings, exportSink{logger}, logger)
	if err != nil {
		return err
	}

	switch {
	case *cloudFilename != "":
		cloud, err := pointcloud.NewFromFile(*cloudFilename, logger)
		if err != nil {
			return errors.Wrap(err, "loading point cloud")
		}
		logger.Infof("loaded %d point samples from %s", cloud.Size(), *cloudFilename)
		return pipeline.RunBatchWithCloud(ctx, poses, images, cloud)
	case *incremental:
		return pipeline.RunIncremental(ctx, poses, images)
	default:
		return pipeline.RunBatch(ctx, poses, images)
	}
}

// exportSink writes the orthomosaic to the configured JPEG file on every
// publish; incremental runs overwrite it as the map grows.
type exportSink struct {
	logger golog.Logger
}

func (s exportSink) Publish(ctx context.Context, grid *gridmap.Grid) error {
	if *orthoJPG == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(*orthoJPG), 0o755); err != nil {
		return err
	}
	if err := imaging.Save(grid.OrthoImage(), *orthoJPG); err != nil {
		return errors.Wrap(err, "saving orthomosaic")
	}
	s.logger.Infow("wrote orthomosaic", "file", *orthoJPG)
	return nil
}

var _ mapper.Sink = exportSink{}

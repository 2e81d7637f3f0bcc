package pipeline

import (
	"context"
	"image"

	"github.com/fairwaylab/go-coursevec"
)

// Detection is one raw region returned by the perception model
type Detection struct {
	// Mask is the binary raster of the detected region on the source
	// image pixel grid
	Mask *coursevec.Mask
	// Score is the model's own confidence for the mask 0.0-1.0, carried
	// through the pipeline opaquely
	Score float32
}

// PerceptionOracle is the external segmentation model the pipeline consumes
// masks from.  The pipeline treats detection as synchronous and does not
// retry, retry policy belongs to the caller.
type PerceptionOracle interface {
	Detect(ctx context.Context, img image.Image) ([]Detection, error)
}

// InputImage is one source image of the course with its ground registration
type InputImage struct {
	// ID uniquely identifies the image within the run
	ID string
	// Image is the satellite imagery
	Image image.Image
	// Geo maps the image pixel grid to ground coordinates
	Geo coursevec.GeoTransform
}

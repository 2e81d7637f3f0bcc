package merge

import (
	"fmt"
	"image"
	"math"

	"github.com/fairwaylab/go-coursevec"
	"golang.org/x/image/draw"
)

// GroundFrame is the common ground coordinate raster all candidate masks are
// reprojected into before overlap comparison
type GroundFrame struct {
	// Geo maps frame pixels to ground coordinates
	Geo coursevec.GeoTransform
	// Width of the frame grid in pixels
	Width int
	// Height of the frame grid in pixels
	Height int
}

// NewGroundFrame builds a ground frame covering the course boundary polygon
// at the given ground resolution (ground units per pixel)
func NewGroundFrame(boundary coursevec.GeoPolygon, resolution float64) (*GroundFrame, error) {

	if err := boundary.Validate(); err != nil {
		return nil, fmt.Errorf("invalid course boundary: %w", coursevec.ErrInput)
	}

	if resolution <= 0 {
		return nil, fmt.Errorf("ground resolution must be positive: %w", coursevec.ErrInput)
	}

	minX, minY, maxX, maxY := boundary.Bounds()

	width := int(math.Ceil((maxX - minX) / resolution))
	height := int(math.Ceil((maxY - minY) / resolution))

	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("degenerate course boundary extent: %w", coursevec.ErrInput)
	}

	return &GroundFrame{
		Geo: coursevec.GeoTransform{
			OriginX:     minX,
			OriginY:     maxY,
			PixelWidth:  resolution,
			PixelHeight: resolution,
		},
		Width:  width,
		Height: height,
	}, nil
}

// reproject resamples a candidate mask from its source pixel grid into the
// ground frame grid.  Both grids are north-up scale plus translation so the
// mapping reduces to a rectangle-to-rectangle scale.
func (f *GroundFrame) reproject(mask *coursevec.Mask, geo coursevec.GeoTransform) (*coursevec.Mask, error) {

	if !geo.Valid() {
		return nil, fmt.Errorf("candidate has no usable geo transform: %w", coursevec.ErrInput)
	}

	// ground extent of the source grid
	x0, y0 := geo.PixelToGeo(0, 0)
	x1, y1 := geo.PixelToGeo(float64(mask.Width), float64(mask.Height))

	// map the extent into frame pixels
	fx0, fy0 := f.Geo.GeoToPixel(x0, y0)
	fx1, fy1 := f.Geo.GeoToPixel(x1, y1)

	dstRect := image.Rect(
		int(math.Floor(fx0)), int(math.Floor(fy0)),
		int(math.Ceil(fx1)), int(math.Ceil(fy1)),
	)

	src := mask.ToGray()
	dst := image.NewGray(image.Rect(0, 0, f.Width, f.Height))

	draw.NearestNeighbor.Scale(dst, dstRect, src, src.Bounds(), draw.Over, nil)

	return coursevec.FromGray(dst, 127), nil
}

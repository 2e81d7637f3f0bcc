// Package extract computes per-candidate geometric, color and neighbour
// descriptors used by classification.  Geometric and color descriptors are
// a pure function of the candidate, neighbour descriptors additionally read
// the classification state of accepted candidates and are only computed in
// the refinement pass.
package extract

import (
	"fmt"
	"image"
	"math"

	"github.com/fairwaylab/go-coursevec"
	"github.com/fairwaylab/go-coursevec/store"
	"gonum.org/v1/gonum/mat"
)

// ImageProvider supplies source imagery for color and texture sampling.
// Returning an error for an unknown image id is acceptable, candidates
// without imagery simply carry no color descriptors.
type ImageProvider interface {
	Image(id string) (image.Image, error)
}

// Params defines the feature extractor configuration
type Params struct {
	// MaxSampleDim caps the bounding box crop dimension sampled for color
	// statistics, larger regions are subsampled by stepping
	MaxSampleDim int
}

// DefaultParams returns extractor parameters with:
// - Max Sample Dimension: 256
func DefaultParams() Params {
	return Params{
		MaxSampleDim: 256,
	}
}

// Extractor computes feature vectors for candidates
type Extractor struct {
	// Params are the extractor configuration parameters
	Params Params

	images ImageProvider
}

// NewExtractor returns an extractor sampling color statistics from the
// given image provider.  A nil provider disables color descriptors.
func NewExtractor(p Params, images ImageProvider) *Extractor {
	return &Extractor{
		Params: p,
		images: images,
	}
}

// Extract computes and attaches the feature vector for a single candidate.
// Re-running on a candidate that already has features is a no-op, the
// vector is a deterministic function of the immutable mask.
func (e *Extractor) Extract(s *store.Store, c *store.Candidate) error {

	if c.Features != nil {
		return nil
	}

	fv := e.geometric(c.Mask, c.Box)

	e.sampleColor(s, c, fv)

	if err := s.SetFeatures(c.ID, fv); err != nil {
		return fmt.Errorf("error attaching features to candidate %d: %w", c.ID, err)
	}

	return nil
}

// geometric computes the descriptors derived purely from the mask raster
func (e *Extractor) geometric(m *coursevec.Mask, box coursevec.BoxRect) *store.FeatureVector {

	area := float64(m.Area())
	perimeter := float64(perimeterPixels(m))

	compactness := 0.0

	if perimeter > 0 {
		compactness = 4 * math.Pi * area / (perimeter * perimeter)
	}

	boxFill := 0.0

	if boxArea := float64(box.Width() * box.Height()); boxArea > 0 {
		boxFill = area / boxArea
	}

	return &store.FeatureVector{
		Area:               area,
		Perimeter:          perimeter,
		Compactness:        compactness,
		Elongation:         elongation(m),
		BoxFill:            boxFill,
		NearestGreenDist:   -1,
		NearestFairwayDist: -1,
	}
}

// perimeterPixels counts mask pixels with at least one 4-connected
// neighbour outside the region
func perimeterPixels(m *coursevec.Mask) int {

	count := 0

	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {

			if !m.At(x, y) {
				continue
			}

			if !m.At(x-1, y) || !m.At(x+1, y) || !m.At(x, y-1) || !m.At(x, y+1) {
				count++
			}
		}
	}

	return count
}

// elongation computes the ratio of the major to minor axis of the mask's
// second central moment ellipse.  A circle or square scores 1.0, a long
// thin fairway scores well above it.
func elongation(m *coursevec.Mask) float64 {

	area := 0.0
	cx, cy := 0.0, 0.0

	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			if m.At(x, y) {
				area++
				cx += float64(x)
				cy += float64(y)
			}
		}
	}

	if area < 2 {
		return 1.0
	}

	cx /= area
	cy /= area

	// second central moments
	mu20, mu02, mu11 := 0.0, 0.0, 0.0

	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {

			if !m.At(x, y) {
				continue
			}

			dx := float64(x) - cx
			dy := float64(y) - cy

			mu20 += dx * dx
			mu02 += dy * dy
			mu11 += dx * dy
		}
	}

	mu20 /= area
	mu02 /= area
	mu11 /= area

	cov := mat.NewSymDense(2, []float64{mu20, mu11, mu11, mu02})

	var eig mat.EigenSym

	if ok := eig.Factorize(cov, false); !ok {
		return 1.0
	}

	vals := eig.Values(nil)

	// values are returned in ascending order
	minor, major := vals[0], vals[1]

	if minor <= 1e-9 {
		// degenerate line-like region
		return math.Sqrt(major / 1e-9)
	}

	return math.Sqrt(major / minor)
}

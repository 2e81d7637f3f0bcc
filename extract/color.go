package extract

import (
	"image"
	"math"

	"github.com/anthonynsimon/bild/effect"
	"github.com/disintegration/imaging"
	"github.com/fairwaylab/go-coursevec/store"
	colorful "github.com/lucasb-eyer/go-colorful"
	"gonum.org/v1/gonum/stat"
)

// sampleColor fills the color and texture descriptors of the feature
// vector from source imagery.  Candidates without usable imagery keep
// HasColor false and are classified from geometry alone.
func (e *Extractor) sampleColor(s *store.Store, c *store.Candidate, fv *store.FeatureVector) {

	if e.images == nil {
		return
	}

	imageID, mask, box := c.SourceImage, c.Mask, c.Box

	// a merged candidate has no single source image, sample from the
	// highest scoring origin detection instead
	if imageID == "" && len(c.MergedFrom) > 0 {

		origin := bestOrigin(s, c.MergedFrom)

		if origin == nil {
			return
		}

		imageID, mask, box = origin.SourceImage, origin.Mask, origin.Box
	}

	img, err := e.images.Image(imageID)

	if err != nil || img == nil {
		return
	}

	crop := imaging.Crop(img, image.Rect(box.Left, box.Top, box.Right+1, box.Bottom+1))

	// subsample large regions, color statistics do not need every pixel
	step := 1

	if dim := maxInt(box.Width(), box.Height()); dim > e.Params.MaxSampleDim {
		step = dim / e.Params.MaxSampleDim
	}

	edges := effect.Sobel(crop)

	var sats, vals, edgeVals []float64
	sumSin, sumCos := 0.0, 0.0
	n := 0

	for y := 0; y < crop.Bounds().Dy(); y += step {
		for x := 0; x < crop.Bounds().Dx(); x += step {

			if !mask.At(box.Left+x, box.Top+y) {
				continue
			}

			cf, ok := colorful.MakeColor(crop.At(crop.Bounds().Min.X+x, crop.Bounds().Min.Y+y))

			if !ok {
				continue
			}

			h, sat, val := cf.Hsv()

			rad := h * math.Pi / 180
			sumSin += math.Sin(rad)
			sumCos += math.Cos(rad)

			sats = append(sats, sat)
			vals = append(vals, val)

			er, eg, eb, _ := edges.At(edges.Bounds().Min.X+x, edges.Bounds().Min.Y+y).RGBA()
			edgeVals = append(edgeVals, float64(er+eg+eb)/(3*65535))

			n++
		}
	}

	if n == 0 {
		return
	}

	fv.HueMean, fv.HueStdDev = circularHueStats(sumSin, sumCos, float64(n))
	fv.SatMean = stat.Mean(sats, nil)
	fv.ValMean = stat.Mean(vals, nil)
	fv.EdgeDensity = stat.Mean(edgeVals, nil)
	fv.HasColor = true
}

// bestOrigin returns the highest scoring origin candidate of a merge group
func bestOrigin(s *store.Store, ids []int64) *store.Candidate {

	var best *store.Candidate

	for _, id := range ids {

		c, ok := s.Get(id)

		if !ok {
			continue
		}

		if best == nil || c.Score > best.Score {
			best = c
		}
	}

	return best
}

// circularHueStats converts the accumulated unit vectors into a circular
// mean in degrees and a circular standard deviation in degrees
func circularHueStats(sumSin, sumCos, n float64) (float64, float64) {

	mean := math.Atan2(sumSin/n, sumCos/n) * 180 / math.Pi

	if mean < 0 {
		mean += 360
	}

	// resultant length, 1.0 means all samples share one hue
	r := math.Hypot(sumSin/n, sumCos/n)

	if r >= 1 {
		return mean, 0
	}

	if r <= 1e-9 {
		return mean, 180
	}

	stddev := math.Sqrt(-2*math.Log(r)) * 180 / math.Pi

	return mean, math.Min(stddev, 180)
}

func maxInt(a, b int) int {

	if a > b {
		return a
	}

	return b
}

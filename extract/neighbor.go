package extract

import (
	"fmt"
	"math"

	"github.com/fairwaylab/go-coursevec"
	"github.com/fairwaylab/go-coursevec/store"
)

// Refine computes the neighbour descriptors of a candidate from the current
// set of accepted greens and fairways and re-attaches the feature vector.
// Distances are measured in ground units between region centroids.  The
// result is deterministic for a fixed acceptance state, re-running without
// state changes yields an identical vector.
func (e *Extractor) Refine(s *store.Store, c *store.Candidate) error {

	if c.Features == nil {
		return fmt.Errorf("candidate %d has no feature vector to refine", c.ID)
	}

	fv := *c.Features

	cx, cy := groundCentroid(c)

	fv.NearestGreenDist = nearestAcceptedDist(s, coursevec.Green, cx, cy)
	fv.NearestFairwayDist = nearestAcceptedDist(s, coursevec.Fairway, cx, cy)
	fv.HasNeighbors = true

	if err := s.SetFeatures(c.ID, &fv); err != nil {
		return fmt.Errorf("error attaching refined features to candidate %d: %w", c.ID, err)
	}

	return nil
}

// groundCentroid returns the candidate's mask centroid in ground coordinates
func groundCentroid(c *store.Candidate) (float64, float64) {

	m := c.Mask

	area := 0.0
	px, py := 0.0, 0.0

	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			if m.At(x, y) {
				area++
				px += float64(x)
				py += float64(y)
			}
		}
	}

	if area == 0 {
		return c.Geo.PixelToGeo(0, 0)
	}

	return c.Geo.PixelToGeo(px/area, py/area)
}

// nearestAcceptedDist returns the ground distance from the given point to
// the centroid of the nearest accepted candidate of the given type, or -1
// when none is accepted yet
func nearestAcceptedDist(s *store.Store, t coursevec.FeatureType, x, y float64) float64 {

	best := -1.0

	it := s.Query(store.ActiveOfType(t))

	for {
		other, ok := it.Next()

		if !ok {
			break
		}

		if !other.Accepted() {
			continue
		}

		ox, oy := groundCentroid(other)
		d := math.Hypot(ox-x, oy-y)

		if best < 0 || d < best {
			best = d
		}
	}

	return best
}

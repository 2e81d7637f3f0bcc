// Package merge reconciles candidates that represent the same physical
// feature but were detected independently in different source images of
// overlapping ground coverage.
package merge

import (
	"fmt"
	"sort"

	"github.com/fairwaylab/go-coursevec"
	"github.com/fairwaylab/go-coursevec/store"
)

// Params defines the merger configuration
type Params struct {
	// IoUThreshold is the minimum ground Intersection over Union between
	// two candidates from different source images for them to be merged
	IoUThreshold float32
	// GroundResolution is the ground units covered per pixel of the common
	// ground frame candidates are reprojected into
	GroundResolution float64
}

// DefaultParams returns merger parameters with:
// - IoU Threshold: 0.5
// - Ground Resolution: 0.5
func DefaultParams() Params {
	return Params{
		IoUThreshold:     0.5,
		GroundResolution: 0.5,
	}
}

// Merger merges overlapping candidates across source images
type Merger struct {
	// Params are the merger configuration parameters
	Params Params

	frame *GroundFrame
}

// NewMerger returns a merger operating over a common ground frame derived
// from the course boundary polygon
func NewMerger(p Params, boundary coursevec.GeoPolygon) (*Merger, error) {

	frame, err := NewGroundFrame(boundary, p.GroundResolution)

	if err != nil {
		return nil, fmt.Errorf("error building ground frame: %w", err)
	}

	return &Merger{
		Params: p,
		frame:  frame,
	}, nil
}

// Frame returns the common ground frame used for reprojection
func (m *Merger) Frame() *GroundFrame {
	return m.frame
}

// Merge compares all active candidates pairwise by ground overlap and
// collapses every connected component of overlapping candidates into a
// single merged candidate.  The merged mask is the union of the inputs in
// the ground frame, the score is the maximum of the inputs, and the
// originals are retired with reason merged.
//
// Candidates from the same source image are never merged with each other
// since the perception model pre-deduplicates within one image.  Merging is
// transitive through union-find so the result does not depend on input
// order.  Merged candidates are final and never participate in a later
// merge, so running Merge again without new ingests is a no-op.
func (m *Merger) Merge(s *store.Store) error {

	all := s.Query(store.Active()).Collect()

	// merged candidates are products of a previous invocation, re-merging
	// them would let a union mask clear the IoU threshold against a
	// neighbour its members individually did not
	cands := all[:0]

	for _, c := range all {
		if len(c.MergedFrom) == 0 {
			cands = append(cands, c)
		}
	}

	// deterministic processing order
	sort.Slice(cands, func(i, j int) bool { return cands[i].ID < cands[j].ID })

	// reproject every candidate into the ground frame once
	ground := make([]*coursevec.Mask, len(cands))

	for i, c := range cands {

		g, err := m.frame.reproject(c.Mask, c.Geo)

		if err != nil {
			return fmt.Errorf("error reprojecting candidate %d: %w", c.ID, err)
		}

		ground[i] = g
	}

	uf := newUnionFind(len(cands))

	for i := 0; i < len(cands); i++ {
		for j := i + 1; j < len(cands); j++ {

			// never merge detections from the same source image
			if cands[i].SourceImage == cands[j].SourceImage {
				continue
			}

			// cheap bounding box rejection before pixelwise IoU
			if coursevec.CalculateOverlap(ground[i].Bounds(), ground[j].Bounds()) == 0 {
				continue
			}

			if ground[i].IoU(ground[j]) >= m.Params.IoUThreshold {
				uf.union(i, j)
			}
		}
	}

	// group members by component root
	components := make(map[int][]int)

	for i := range cands {
		root := uf.find(i)
		components[root] = append(components[root], i)
	}

	// deterministic component order by smallest member id
	roots := make([]int, 0, len(components))

	for root, members := range components {
		if len(members) > 1 {
			roots = append(roots, root)
		}
	}

	sort.Slice(roots, func(i, j int) bool {
		return cands[components[roots[i]][0]].ID < cands[components[roots[j]][0]].ID
	})

	for _, root := range roots {

		members := components[root]

		union := coursevec.NewMask(m.frame.Width, m.frame.Height)
		score := float32(0)
		mergedFrom := make([]int64, 0, len(members))

		for _, i := range members {

			union.Union(ground[i])

			// multiple independent detections raise confidence, keep the max
			if cands[i].Score > score {
				score = cands[i].Score
			}

			mergedFrom = append(mergedFrom, cands[i].ID)
		}

		sort.Slice(mergedFrom, func(i, j int) bool { return mergedFrom[i] < mergedFrom[j] })

		s.AddMerged(union, score, m.frame.Geo, mergedFrom)

		for _, id := range mergedFrom {
			if err := s.Retire(id, store.ReasonMerged); err != nil {
				return fmt.Errorf("error retiring merged candidate %d: %w", id, err)
			}
		}
	}

	return nil
}

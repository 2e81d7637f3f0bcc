// Package svggen converts final candidate masks into vector polygons with
// stable ordering and layering and serializes them into a single SVG course
// document with a sidecar traceability index.
package svggen

import (
	"fmt"
	"sort"

	"github.com/fairwaylab/go-coursevec"
)

// Vertex is a polygon corner on the pixel grid's vertex lattice
type Vertex struct {
	X int
	Y int
}

// Ring is a closed boundary loop, the closing edge back to the first vertex
// is implicit
type Ring []Vertex

// signedArea returns twice the shoelace area of the ring.  With the tracing
// edge construction used here outer rings are positive and inner rings
// negative.
func (r Ring) signedArea() int {

	sum := 0

	for i := 0; i < len(r); i++ {
		j := (i + 1) % len(r)
		sum += r[i].X*r[j].Y - r[j].X*r[i].Y
	}

	return sum
}

// contains reports whether the point lies inside the ring by ray casting
func (r Ring) contains(p Vertex) bool {

	inside := false

	for i := 0; i < len(r); i++ {
		j := (i + 1) % len(r)

		a, b := r[i], r[j]

		if (a.Y > p.Y) != (b.Y > p.Y) {

			crossX := float64(a.X) + float64(p.Y-a.Y)/float64(b.Y-a.Y)*float64(b.X-a.X)

			if float64(p.X) < crossX {
				inside = !inside
			}
		}
	}

	return inside
}

// TraceMask traces the boundary of a binary mask into closed rings on the
// pixel vertex lattice.  Outer boundaries and inner boundaries (holes in
// the region, e.g. an island green inside a water hazard) are both
// returned, distinguished by orientation.  A boundary that pinches through
// a single vertex indicates a defective mask and fails with a
// coursevec.GeometryError.
func TraceMask(m *coursevec.Mask, candidateID int64) ([]Ring, error) {

	type edge struct {
		from Vertex
		to   Vertex
	}

	// emit one directed edge per exposed pixel side, oriented so the
	// region stays on the same side for every loop
	var edges []edge

	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {

			if !m.At(x, y) {
				continue
			}

			if !m.At(x, y-1) {
				edges = append(edges, edge{Vertex{x, y}, Vertex{x + 1, y}})
			}

			if !m.At(x, y+1) {
				edges = append(edges, edge{Vertex{x + 1, y + 1}, Vertex{x, y + 1}})
			}

			if !m.At(x-1, y) {
				edges = append(edges, edge{Vertex{x, y + 1}, Vertex{x, y}})
			}

			if !m.At(x+1, y) {
				edges = append(edges, edge{Vertex{x + 1, y}, Vertex{x + 1, y + 1}})
			}
		}
	}

	if len(edges) == 0 {
		return nil, nil
	}

	// a vertex with two outgoing edges is a pinch point, two boundary
	// loops touching through one corner, which marks an upstream mask
	// defect
	outgoing := make(map[Vertex]edge, len(edges))

	for _, e := range edges {

		if _, dup := outgoing[e.from]; dup {
			return nil, &coursevec.GeometryError{
				CandidateID: candidateID,
				Detail:      fmt.Sprintf("boundary self-intersects at vertex (%d,%d)", e.from.X, e.from.Y),
			}
		}

		outgoing[e.from] = e
	}

	// stitch edges into closed loops, visiting lowest start vertex first
	// for deterministic ring order
	starts := make([]Vertex, 0, len(outgoing))

	for v := range outgoing {
		starts = append(starts, v)
	}

	sort.Slice(starts, func(i, j int) bool {
		if starts[i].Y != starts[j].Y {
			return starts[i].Y < starts[j].Y
		}
		return starts[i].X < starts[j].X
	})

	used := make(map[Vertex]bool, len(outgoing))

	var rings []Ring

	for _, start := range starts {

		if used[start] {
			continue
		}

		var ring Ring
		cur := start

		for {
			e, ok := outgoing[cur]

			if !ok {
				return nil, &coursevec.GeometryError{
					CandidateID: candidateID,
					Detail:      fmt.Sprintf("open boundary at vertex (%d,%d)", cur.X, cur.Y),
				}
			}

			ring = append(ring, cur)
			used[cur] = true
			cur = e.to

			if cur == start {
				break
			}

			if used[cur] {
				return nil, &coursevec.GeometryError{
					CandidateID: candidateID,
					Detail:      fmt.Sprintf("boundary self-intersects at vertex (%d,%d)", cur.X, cur.Y),
				}
			}
		}

		rings = append(rings, simplifyCollinear(ring))
	}

	return rings, nil
}

// simplifyCollinear drops vertices in the middle of straight runs, grid
// tracing emits one vertex per pixel edge
func simplifyCollinear(r Ring) Ring {

	if len(r) < 4 {
		return r
	}

	out := make(Ring, 0, len(r))

	for i := range r {

		prev := r[(i+len(r)-1)%len(r)]
		next := r[(i+1)%len(r)]

		// cross product of the two incident edges, zero means collinear
		cross := (r[i].X-prev.X)*(next.Y-r[i].Y) - (r[i].Y-prev.Y)*(next.X-r[i].X)

		if cross != 0 {
			out = append(out, r[i])
		}
	}

	return out
}

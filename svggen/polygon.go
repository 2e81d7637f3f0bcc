package svggen

import (
	"fmt"
	"sort"

	clipper "github.com/ctessum/go.clipper"
	"github.com/fairwaylab/go-coursevec"
	"github.com/fairwaylab/go-coursevec/hole"
	"github.com/fairwaylab/go-coursevec/store"
)

// clipperScale converts document coordinates to the integer lattice the
// clipper library operates on, giving 1/16 pixel precision
const clipperScale = 16

// Point is a polygon corner in document coordinates
type Point struct {
	X float64
	Y float64
}

// Contour is a closed loop of document points
type Contour []Point

// Polygon is one traced region of a course feature in the output document,
// outer boundary plus any hole rings inside it (a water hazard around an
// island is one polygon with an inner ring).  A candidate whose mask covers
// several disjoint regions contributes one polygon per region.
type Polygon struct {
	// ID is the stable polygon identifier within the document
	ID string
	// CandidateID of the candidate the polygon was traced from
	CandidateID int64
	// Hole number the candidate is assigned to, 0 for course wide features
	Hole int
	// Type is the course feature type of the layer the polygon belongs to
	Type coursevec.FeatureType
	// Outer boundary ring
	Outer Contour
	// Inners are the hole rings inside the outer boundary
	Inners []Contour
}

// Layer groups the polygons of one feature type at its fixed z-order
// position
type Layer struct {
	// Type of course feature the layer holds
	Type coursevec.FeatureType
	// Polygons ordered by hole number ascending then candidate id ascending
	Polygons []Polygon
}

// Exclusion records a candidate left out of the document and why, excluded
// candidates are reported, never silently dropped
type Exclusion struct {
	CandidateID int64  `json:"candidate_id"`
	Reason      string `json:"reason"`
}

// Document is the final layered course output
type Document struct {
	// RunID of the pipeline run that produced the document
	RunID string
	// Width of the document viewport
	Width int
	// Height of the document viewport
	Height int
	// Layers in fixed draw order, water lowest then bunker, rough,
	// fairway, green, tee
	Layers []Layer
	// Excluded lists candidates dropped for geometry defects or forbidden
	// layer overlaps
	Excluded []Exclusion
}

// Params defines the generator configuration
type Params struct {
	// Geo maps document pixels to ground coordinates, candidates are
	// reprojected into this frame.  A zero transform keeps candidate
	// pixel coordinates as document coordinates.
	Geo coursevec.GeoTransform
	// Width of the document viewport in pixels
	Width int
	// Height of the document viewport in pixels
	Height int
}

// Generator converts finalized holes and accepted course wide candidates
// into the layered polygon document
type Generator struct {
	// Params are the generator configuration parameters
	Params Params
}

// NewGenerator returns a polygon document generator
func NewGenerator(p Params) *Generator {
	return &Generator{Params: p}
}

// allowedOverlap is the compatibility matrix of feature type pairs whose
// polygons may overlap in the output.  Rough is the transitional surface
// and may meet anything, a bunker may cut into a fairway edge and a tee
// box may sit inside fairway cut.  Everything else, notably green over
// water, is a consistency defect.
var allowedOverlap = map[[2]coursevec.FeatureType]bool{
	pairKey(coursevec.Bunker, coursevec.Fairway): true,
	pairKey(coursevec.Tee, coursevec.Fairway):    true,
	pairKey(coursevec.Rough, coursevec.Green):    true,
	pairKey(coursevec.Rough, coursevec.Tee):      true,
	pairKey(coursevec.Rough, coursevec.Fairway):  true,
	pairKey(coursevec.Rough, coursevec.Bunker):   true,
	pairKey(coursevec.Rough, coursevec.Water):    true,
}

// pairKey normalises a type pair so lookup is order independent
func pairKey(a, b coursevec.FeatureType) [2]coursevec.FeatureType {

	if b < a {
		a, b = b, a
	}

	return [2]coursevec.FeatureType{a, b}
}

// Generate builds the document from all finalized holes plus any accepted,
// unassigned candidates (course wide features like a lake spanning holes).
// Candidates whose traced boundary is defective are excluded and reported,
// the run continues for all others.  Output ordering is deterministic for
// a fixed input state.
func (g *Generator) Generate(s *store.Store, course *hole.Course) (*Document, error) {

	doc := &Document{
		RunID:  s.RunID,
		Width:  g.Params.Width,
		Height: g.Params.Height,
	}

	// gather candidate ids to emit: finalized hole members first, then
	// accepted candidates no hole holds
	type member struct {
		candidateID int64
		holeNum     int
	}

	var members []member
	seen := make(map[int64]bool)

	for _, h := range course.Holes() {

		if h.State() != hole.Finalized {
			continue
		}

		for _, id := range h.AllAssigned() {
			members = append(members, member{candidateID: id, holeNum: h.Number})
			seen[id] = true
		}
	}

	it := s.Query(store.Active())

	for {
		c, ok := it.Next()

		if !ok {
			break
		}

		if !seen[c.ID] && c.Accepted() && course.Owner(c.ID) == 0 {
			members = append(members, member{candidateID: c.ID})
		}
	}

	// trace every member into a polygon
	polys := make(map[coursevec.FeatureType][]Polygon)

	for _, mb := range members {

		c, ok := s.Get(mb.candidateID)

		if !ok || c.Class == nil {
			continue
		}

		traced, err := g.tracePolygons(c, mb.holeNum)

		if err != nil {
			doc.Excluded = append(doc.Excluded, Exclusion{
				CandidateID: mb.candidateID,
				Reason:      err.Error(),
			})
			continue
		}

		// an empty mask produces no polygons
		polys[c.Class.Type] = append(polys[c.Class.Type], traced...)
	}

	// deterministic ordering within each layer, polygons of one candidate
	// keep their traced largest-first order
	for t := range polys {
		sort.SliceStable(polys[t], func(i, j int) bool {

			if polys[t][i].Hole != polys[t][j].Hole {
				return polys[t][i].Hole < polys[t][j].Hole
			}

			return polys[t][i].CandidateID < polys[t][j].CandidateID
		})
	}

	g.dropForbiddenOverlaps(polys, doc)

	// assemble layers in the fixed z-order and assign stable polygon ids,
	// further polygons of the same candidate get an ordinal suffix
	for _, t := range coursevec.LayerOrder {

		layer := Layer{Type: t}
		emitted := make(map[int64]int)

		for i := range polys[t] {
			p := polys[t][i]

			n := emitted[p.CandidateID]
			emitted[p.CandidateID] = n + 1

			if n == 0 {
				p.ID = fmt.Sprintf("%s-%d", t, p.CandidateID)
			} else {
				p.ID = fmt.Sprintf("%s-%d-%d", t, p.CandidateID, n+1)
			}

			layer.Polygons = append(layer.Polygons, p)
		}

		doc.Layers = append(doc.Layers, layer)
	}

	return doc, nil
}

// tracePolygons traces a candidate mask and maps the rings into document
// coordinates.  A mask of several disjoint regions yields one polygon per
// outer ring, largest first, with each inner ring attached to the outer
// ring enclosing it.
func (g *Generator) tracePolygons(c *store.Candidate, holeNum int) ([]Polygon, error) {

	rings, err := TraceMask(c.Mask, c.ID)

	if err != nil {
		return nil, err
	}

	if len(rings) == 0 {
		return nil, nil
	}

	var outers []Ring
	var inners []Ring

	for _, r := range rings {
		if r.signedArea() > 0 {
			outers = append(outers, r)
		} else {
			inners = append(inners, r)
		}
	}

	if len(outers) == 0 {
		return nil, &coursevec.GeometryError{
			CandidateID: c.ID,
			Detail:      "traced boundary has no outer ring",
		}
	}

	sort.SliceStable(outers, func(i, j int) bool {
		return outers[i].signedArea() > outers[j].signedArea()
	})

	polys := make([]Polygon, len(outers))

	for i, r := range outers {
		polys[i] = Polygon{
			CandidateID: c.ID,
			Hole:        holeNum,
			Type:        c.Class.Type,
			Outer:       g.toDocument(c, r),
		}
	}

	// an inner ring belongs to the smallest outer ring enclosing it, so a
	// hole in an island lands on the island, not the surrounding body.
	// Inner vertices sit strictly inside their outer ring, a hole touching
	// the outer boundary would have failed tracing as a pinch.
	for _, in := range inners {

		owner := 0

		for i := len(outers) - 1; i >= 0; i-- {
			if outers[i].contains(in[0]) {
				owner = i
				break
			}
		}

		polys[owner].Inners = append(polys[owner].Inners, g.toDocument(c, in))
	}

	return polys, nil
}

// toDocument maps a lattice ring into document coordinates through the
// candidate's geo transform
func (g *Generator) toDocument(c *store.Candidate, r Ring) Contour {

	out := make(Contour, 0, len(r))

	for _, v := range r {

		x, y := float64(v.X), float64(v.Y)

		if c.Geo.Valid() && g.Params.Geo.Valid() {
			gx, gy := c.Geo.PixelToGeo(x, y)
			x, y = g.Params.Geo.GeoToPixel(gx, gy)
		}

		out = append(out, Point{X: x, Y: y})
	}

	return out
}

// dropForbiddenOverlaps checks every cross-type polygon pair against the
// compatibility matrix and excludes the polygon in the higher layer when a
// forbidden pair overlaps
func (g *Generator) dropForbiddenOverlaps(polys map[coursevec.FeatureType][]Polygon,
	doc *Document) {

	for ai, a := range coursevec.LayerOrder {
		for _, b := range coursevec.LayerOrder[ai+1:] {

			if allowedOverlap[pairKey(a, b)] {
				continue
			}

			kept := polys[b][:0]

			for _, pb := range polys[b] {

				conflict := false

				for _, pa := range polys[a] {
					if overlaps(pa, pb) {
						conflict = true
						break
					}
				}

				if conflict {
					doc.Excluded = append(doc.Excluded, Exclusion{
						CandidateID: pb.CandidateID,
						Reason:      fmt.Sprintf("%s polygon overlaps %s layer", b, a),
					})
					continue
				}

				kept = append(kept, pb)
			}

			polys[b] = kept
		}
	}
}

// overlaps reports whether two polygons intersect with non-zero area.
// Inner rings are included under even-odd filling so a feature sitting
// inside another polygon's hole, like an island green, does not count as
// overlap.
func overlaps(a, b Polygon) bool {

	cl := clipper.NewClipper(clipper.IoNone)

	cl.AddPath(toClipperPath(a.Outer), clipper.PtSubject, true)

	for _, inner := range a.Inners {
		cl.AddPath(toClipperPath(inner), clipper.PtSubject, true)
	}

	cl.AddPath(toClipperPath(b.Outer), clipper.PtClip, true)

	for _, inner := range b.Inners {
		cl.AddPath(toClipperPath(inner), clipper.PtClip, true)
	}

	solution, ok := cl.Execute1(clipper.CtIntersection, clipper.PftEvenOdd, clipper.PftEvenOdd)

	if !ok {
		return false
	}

	area := 0.0

	for _, path := range solution {
		area += clipper.Area(path)
	}

	return area > 0
}

// toClipperPath converts a contour to the clipper integer lattice
func toClipperPath(c Contour) clipper.Path {

	path := make(clipper.Path, 0, len(c))

	for _, p := range c {
		path = append(path, &clipper.IntPoint{
			X: clipper.CInt(p.X * clipperScale),
			Y: clipper.CInt(p.Y * clipperScale),
		})
	}

	return path
}

package svggen

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/fairwaylab/go-coursevec"
	"github.com/fairwaylab/go-coursevec/hole"
	"github.com/fairwaylab/go-coursevec/store"
)

// blockMask returns a mask with a filled rectangle
func blockMask(grid, x1, y1, x2, y2 int) *coursevec.Mask {

	m := coursevec.NewMask(grid, grid)

	for y := y1; y <= y2; y++ {
		for x := x1; x <= x2; x++ {
			m.Set(x, y)
		}
	}

	return m
}

// donutMask returns a filled rectangle with a rectangular hole inside
func donutMask(grid, x1, y1, x2, y2, hx1, hy1, hx2, hy2 int) *coursevec.Mask {

	m := blockMask(grid, x1, y1, x2, y2)

	for y := hy1; y <= hy2; y++ {
		for x := hx1; x <= hx2; x++ {
			m.Pix[y*grid+x] = 0
		}
	}

	return m
}

func TestTraceSquare(t *testing.T) {

	rings, err := TraceMask(blockMask(16, 2, 3, 9, 7), 1)

	if err != nil {
		t.Fatalf("unexpected error tracing: %v", err)
	}

	if len(rings) != 1 {
		t.Fatalf("expected 1 ring for a filled rectangle, got %d", len(rings))
	}

	// collinear simplification leaves the 4 corners
	if len(rings[0]) != 4 {
		t.Errorf("expected 4 corner vertices, got %d: %v", len(rings[0]), rings[0])
	}

	if rings[0].signedArea() <= 0 {
		t.Errorf("outer ring must have positive signed area, got %d", rings[0].signedArea())
	}
}

func TestTraceDonutPreservesInnerRing(t *testing.T) {

	rings, err := TraceMask(donutMask(16, 2, 2, 12, 12, 6, 6, 8, 8), 1)

	if err != nil {
		t.Fatalf("unexpected error tracing: %v", err)
	}

	if len(rings) != 2 {
		t.Fatalf("expected outer and inner ring, got %d rings", len(rings))
	}

	outers, inners := 0, 0

	for _, r := range rings {
		if r.signedArea() > 0 {
			outers++
		} else {
			inners++
		}
	}

	if outers != 1 || inners != 1 {
		t.Errorf("expected 1 outer and 1 inner ring, got %d outer %d inner", outers, inners)
	}
}

func TestTracePinchedMaskFails(t *testing.T) {

	// two pixels touching only through one corner, a defective mask
	m := coursevec.NewMask(8, 8)
	m.Set(1, 1)
	m.Set(2, 2)

	_, err := TraceMask(m, 7)

	var gerr *coursevec.GeometryError

	if !errors.As(err, &gerr) {
		t.Fatalf("expected GeometryError for pinched mask, got %v", err)
	}

	if gerr.CandidateID != 7 {
		t.Errorf("expected candidate id 7 in error, got %d", gerr.CandidateID)
	}
}

// buildScenario assembles a store and course with a finalized hole holding
// a green and fairway, plus an accepted unassigned water feature
func buildScenario(t *testing.T) (*store.Store, *hole.Course) {

	t.Helper()

	s := store.NewStore()
	course := hole.NewCourse(18)

	add := func(image string, m *coursevec.Mask, ftype coursevec.FeatureType) *store.Candidate {

		c, err := s.Add(image, m, 0.9, coursevec.GeoTransform{})

		if err != nil {
			t.Fatalf("unexpected error adding candidate: %v", err)
		}

		s.SetClassification(c.ID, &store.Classification{Type: ftype, Confidence: 0.9})
		s.SetGateDecision(c.ID, &store.GateDecision{Outcome: store.AutoAccept})

		got, _ := s.Get(c.ID)
		return got
	}

	green := add("img1", blockMask(64, 40, 10, 50, 20), coursevec.Green)
	fairway := add("img1", blockMask(64, 5, 12, 38, 18), coursevec.Fairway)
	add("img1", donutMask(64, 10, 30, 30, 50, 18, 38, 22, 42), coursevec.Water)

	if err := course.Assign(s, 1, green.ID); err != nil {
		t.Fatalf("unexpected error assigning green: %v", err)
	}

	if err := course.Assign(s, 1, fairway.ID); err != nil {
		t.Fatalf("unexpected error assigning fairway: %v", err)
	}

	if err := course.Finalize(1, false); err != nil {
		t.Fatalf("unexpected error finalizing: %v", err)
	}

	return s, course
}

func TestGenerateLayerOrderAndAttribution(t *testing.T) {

	s, course := buildScenario(t)

	g := NewGenerator(Params{Width: 64, Height: 64})

	doc, err := g.Generate(s, course)

	if err != nil {
		t.Fatalf("unexpected error generating: %v", err)
	}

	if len(doc.Layers) != len(coursevec.LayerOrder) {
		t.Fatalf("expected %d layers, got %d", len(coursevec.LayerOrder), len(doc.Layers))
	}

	// layers must appear in the fixed z-order
	for i, layer := range doc.Layers {
		if layer.Type != coursevec.LayerOrder[i] {
			t.Errorf("layer %d is %v, want %v", i, layer.Type, coursevec.LayerOrder[i])
		}
	}

	// water is course wide, unassigned, hole attribution 0
	water := doc.Layers[0]

	if len(water.Polygons) != 1 {
		t.Fatalf("expected 1 water polygon, got %d", len(water.Polygons))
	}

	if water.Polygons[0].Hole != 0 {
		t.Errorf("course wide water must carry hole 0, got %d", water.Polygons[0].Hole)
	}

	// the donut water hazard keeps its inner ring
	if len(water.Polygons[0].Inners) != 1 {
		t.Errorf("expected water donut with 1 inner ring, got %d",
			len(water.Polygons[0].Inners))
	}
}

// A mask of two disjoint regions yields two polygons in the layer, the
// second region is a body of its own rather than a hole in the first
func TestGenerateSplitsDisjointRegions(t *testing.T) {

	s := store.NewStore()
	course := hole.NewCourse(18)

	m := blockMask(64, 5, 5, 30, 30)

	for y := 40; y <= 50; y++ {
		for x := 40; x <= 50; x++ {
			m.Set(x, y)
		}
	}

	c, err := s.Add("img1", m, 0.9, coursevec.GeoTransform{})

	if err != nil {
		t.Fatalf("unexpected error adding candidate: %v", err)
	}

	s.SetClassification(c.ID, &store.Classification{Type: coursevec.Water, Confidence: 0.9})
	s.SetGateDecision(c.ID, &store.GateDecision{Outcome: store.AutoAccept})

	g := NewGenerator(Params{Width: 64, Height: 64})

	doc, err := g.Generate(s, course)

	if err != nil {
		t.Fatalf("unexpected error generating: %v", err)
	}

	water := doc.Layers[0]

	if len(water.Polygons) != 2 {
		t.Fatalf("expected 2 polygons for 2 disjoint regions, got %d", len(water.Polygons))
	}

	for _, p := range water.Polygons {
		if len(p.Inners) != 0 {
			t.Errorf("polygon %s carries %d inner rings, want none", p.ID, len(p.Inners))
		}
	}

	// largest region first, the second polygon id carries an ordinal
	wantFirst := fmt.Sprintf("water-%d", c.ID)
	wantSecond := fmt.Sprintf("water-%d-2", c.ID)

	if water.Polygons[0].ID != wantFirst || water.Polygons[1].ID != wantSecond {
		t.Errorf("polygon ids %q and %q, want %q and %q",
			water.Polygons[0].ID, water.Polygons[1].ID, wantFirst, wantSecond)
	}
}

func TestGenerateIsDeterministic(t *testing.T) {

	s, course := buildScenario(t)

	g := NewGenerator(Params{Width: 64, Height: 64})

	var first, second bytes.Buffer

	doc1, err := g.Generate(s, course)
	if err != nil {
		t.Fatalf("unexpected error generating: %v", err)
	}

	doc2, err := g.Generate(s, course)
	if err != nil {
		t.Fatalf("unexpected error regenerating: %v", err)
	}

	if err := WriteSVG(doc1, &first); err != nil {
		t.Fatalf("unexpected error writing svg: %v", err)
	}

	if err := WriteSVG(doc2, &second); err != nil {
		t.Fatalf("unexpected error writing svg: %v", err)
	}

	if !bytes.Equal(first.Bytes(), second.Bytes()) {
		t.Error("two generations of the same state produced different documents")
	}
}

func TestGenerateExcludesForbiddenOverlap(t *testing.T) {

	s := store.NewStore()
	course := hole.NewCourse(18)

	// a green squarely on top of water is a consistency defect
	water, _ := s.Add("img1", blockMask(64, 10, 10, 40, 40), 0.9, coursevec.GeoTransform{})
	s.SetClassification(water.ID, &store.Classification{Type: coursevec.Water, Confidence: 0.9})
	s.SetGateDecision(water.ID, &store.GateDecision{Outcome: store.AutoAccept})

	green, _ := s.Add("img2", blockMask(64, 20, 20, 30, 30), 0.9, coursevec.GeoTransform{})
	s.SetClassification(green.ID, &store.Classification{Type: coursevec.Green, Confidence: 0.9})
	s.SetGateDecision(green.ID, &store.GateDecision{Outcome: store.AutoAccept})

	g := NewGenerator(Params{Width: 64, Height: 64})

	doc, err := g.Generate(s, course)

	if err != nil {
		t.Fatalf("unexpected error generating: %v", err)
	}

	if len(doc.Excluded) != 1 || doc.Excluded[0].CandidateID != green.ID {
		t.Fatalf("expected the green excluded for overlapping water, got %+v", doc.Excluded)
	}

	// green layer is empty, water layer intact
	for _, layer := range doc.Layers {

		switch layer.Type {
		case coursevec.Green:
			if len(layer.Polygons) != 0 {
				t.Errorf("expected green layer empty, got %d polygons", len(layer.Polygons))
			}
		case coursevec.Water:
			if len(layer.Polygons) != 1 {
				t.Errorf("expected water layer kept, got %d polygons", len(layer.Polygons))
			}
		}
	}
}

func TestSidecarMapsPolygonsBack(t *testing.T) {

	s, course := buildScenario(t)

	g := NewGenerator(Params{Width: 64, Height: 64})

	doc, err := g.Generate(s, course)

	if err != nil {
		t.Fatalf("unexpected error generating: %v", err)
	}

	var buf bytes.Buffer

	if err := WriteSidecar(doc, &buf); err != nil {
		t.Fatalf("unexpected error writing sidecar: %v", err)
	}

	out := buf.String()

	for _, want := range []string{"polygon_id", "candidate_id", "feature_type", "green", "fairway", "water"} {
		if !strings.Contains(out, want) {
			t.Errorf("sidecar missing %q:\n%s", want, out)
		}
	}
}

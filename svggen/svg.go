package svggen

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	svg "github.com/ajstarks/svgo"
	"github.com/fairwaylab/go-coursevec"
)

// layerStyle is the fill style per feature type layer
var layerStyle = map[coursevec.FeatureType]string{
	coursevec.Water:   "fill:#3d85c6",
	coursevec.Bunker:  "fill:#e7d8ad",
	coursevec.Rough:   "fill:#38761d",
	coursevec.Fairway: "fill:#6aa84f",
	coursevec.Green:   "fill:#93c47d",
	coursevec.Tee:     "fill:#78a55a",
}

// WriteSVG serializes the document as an SVG with one named group per
// layer in the fixed z-order.  Polygon output order is deterministic,
// running the writer twice on the same document produces byte identical
// output.
func WriteSVG(doc *Document, w io.Writer) error {

	canvas := svg.New(w)
	canvas.Start(doc.Width, doc.Height)

	for _, layer := range doc.Layers {

		canvas.Group(fmt.Sprintf(`id="%s"`, layer.Type))

		for _, poly := range layer.Polygons {

			style := layerStyle[poly.Type] + ";fill-rule:evenodd"

			canvas.Path(pathData(poly), fmt.Sprintf(`id="%s" style="%s"`, poly.ID, style))
		}

		canvas.Gend()
	}

	canvas.End()

	return nil
}

// pathData builds the SVG path of a polygon, outer ring first followed by
// the inner rings so even-odd filling cuts the holes out
func pathData(poly Polygon) string {

	var b strings.Builder

	writeRing(&b, poly.Outer)

	for _, inner := range poly.Inners {
		writeRing(&b, inner)
	}

	return b.String()
}

// writeRing appends one closed subpath
func writeRing(b *strings.Builder, c Contour) {

	for i, p := range c {

		if i == 0 {
			fmt.Fprintf(b, "M%.2f %.2f", p.X, p.Y)
		} else {
			fmt.Fprintf(b, " L%.2f %.2f", p.X, p.Y)
		}
	}

	b.WriteString(" Z ")
}

// SidecarEntry maps one output polygon back to its candidate for
// traceability and re-import
type SidecarEntry struct {
	PolygonID   string `json:"polygon_id"`
	CandidateID int64  `json:"candidate_id"`
	FeatureType string `json:"feature_type"`
	Hole        int    `json:"hole"`
}

// Sidecar is the traceability record emitted beside the SVG document
type Sidecar struct {
	RunID    string         `json:"run_id"`
	Polygons []SidecarEntry `json:"polygons"`
	Excluded []Exclusion    `json:"excluded,omitempty"`
}

// WriteSidecar serializes the sidecar index mapping polygon identifiers
// back to candidate id, feature type and hole number
func WriteSidecar(doc *Document, w io.Writer) error {

	sc := Sidecar{
		RunID:    doc.RunID,
		Polygons: make([]SidecarEntry, 0),
		Excluded: doc.Excluded,
	}

	for _, layer := range doc.Layers {
		for _, poly := range layer.Polygons {
			sc.Polygons = append(sc.Polygons, SidecarEntry{
				PolygonID:   poly.ID,
				CandidateID: poly.CandidateID,
				FeatureType: poly.Type.String(),
				Hole:        poly.Hole,
			})
		}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	if err := enc.Encode(&sc); err != nil {
		return fmt.Errorf("error encoding sidecar: %w", err)
	}

	return nil
}

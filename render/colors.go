package render

import (
	"image/color"

	"github.com/fairwaylab/go-coursevec"
	"github.com/fairwaylab/go-coursevec/store"
)

var (
	// typeColors paints each course feature type in a recognisable hue on
	// review imagery
	typeColors = map[coursevec.FeatureType]color.RGBA{
		coursevec.Green:   {R: 72, G: 249, B: 10, A: 255},  // #48F90A
		coursevec.Tee:     {R: 0, G: 212, B: 187, A: 255},  // #00D4BB
		coursevec.Fairway: {R: 26, G: 147, B: 52, A: 255},  // #1A9334
		coursevec.Bunker:  {R: 255, G: 178, B: 29, A: 255}, // #FFB21D
		coursevec.Water:   {R: 0, G: 128, B: 255, A: 255},  // #0080FF
		coursevec.Rough:   {R: 146, G: 204, B: 23, A: 255}, // #92CC17
		coursevec.Ignore:  {R: 96, G: 96, B: 96, A: 255},   // #606060
	}

	// unclassified candidates have no type yet and render neutral
	unclassifiedColor = color.RGBA{R: 192, G: 192, B: 192, A: 255} // #C0C0C0

	// reviewColor outlines candidates held for human review
	reviewColor = color.RGBA{R: 255, G: 56, B: 56, A: 255} // #FF3838

	White = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	Black = color.RGBA{R: 0, G: 0, B: 0, A: 255}
)

// candidateColor picks the render color for a candidate
func candidateColor(c *store.Candidate) color.RGBA {

	if c.Class == nil {
		return unclassifiedColor
	}

	clr, ok := typeColors[c.Class.Type]

	if !ok {
		return unclassifiedColor
	}

	return clr
}

package render

import (
	"image/color"

	"gocv.io/x/gocv"
)

// Alignment positions a candidate label relative to its bounding box
type Alignment int

const (
	Left   Alignment = 1
	Center Alignment = 2
	Right  Alignment = 3
)

// Font defines the parameters for rendering review labels with GoCV
type Font struct {
	Face      gocv.HersheyFont
	Scale     float64
	Color     color.RGBA
	Thickness int
	LineType  gocv.LineType
	// Padding to place around label text
	LeftPad   int
	RightPad  int
	TopPad    int
	BottomPad int
	// Alignment of the label to the candidate bounding box
	Alignment Alignment
}

// DefaultFont returns font settings suited to review imagery, labels are
// centered so adjacent candidate boxes collide less often
func DefaultFont() Font {
	return Font{
		Face:      gocv.FontHersheySimplex,
		Scale:     0.5,
		Color:     White,
		Thickness: 1,
		LineType:  gocv.LineAA,
		LeftPad:   4,
		RightPad:  4,
		TopPad:    4,
		BottomPad: 6,
		Alignment: Center,
	}
}

package coursevec

import (
	"math"
)

// BoxRect are the dimensions of the axis aligned bounding box of a detected
// region, inclusive on all edges
type BoxRect struct {
	Left   int
	Right  int
	Top    int
	Bottom int
}

// Width returns the inclusive pixel width of the box
func (b BoxRect) Width() int {
	return b.Right - b.Left + 1
}

// Height returns the inclusive pixel height of the box
func (b BoxRect) Height() int {
	return b.Bottom - b.Top + 1
}

// CenterX returns the horizontal center of the box
func (b BoxRect) CenterX() int {
	return (b.Left + b.Right) / 2
}

// CenterY returns the vertical center of the box
func (b BoxRect) CenterY() int {
	return (b.Top + b.Bottom) / 2
}

// CalculateOverlap works out the Intersection over Union (IoU) value of two
// boxes dimensions
func CalculateOverlap(a, b BoxRect) float32 {

	w := math.Max(0.0, math.Min(float64(a.Right), float64(b.Right))-math.Max(float64(a.Left), float64(b.Left))+1.0)
	h := math.Max(0.0, math.Min(float64(a.Bottom), float64(b.Bottom))-math.Max(float64(a.Top), float64(b.Top))+1.0)
	intersection := w * h

	// area of both rectangles with added 1.0 for inclusive pixel calculation
	area0 := float64(a.Right-a.Left+1) * float64(a.Bottom-a.Top+1)
	area1 := float64(b.Right-b.Left+1) * float64(b.Bottom-b.Top+1)

	union := area0 + area1 - intersection

	if union <= 0 {
		return 0.0
	}

	return float32(intersection / union)
}

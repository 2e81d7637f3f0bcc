// Package render draws candidate masks, boxes and labels onto source
// imagery for human review.  Output images are an operator aid only, the
// pipeline itself never reads them back.
package render

import (
	"fmt"
	"image"
	"image/color"

	"github.com/fairwaylab/go-coursevec/store"
	"gocv.io/x/gocv"
)

// CandidateMasks renders the candidate masks as a transparent overlay on
// top of the whole image, colored by classified feature type.  Candidates
// whose mask grid does not match the image dimensions are skipped.
func CandidateMasks(img *gocv.Mat, cands []*store.Candidate, alpha float32) {

	width := img.Cols()
	height := img.Rows()

	// it is too slow to manipulate pixel by pixel using GoCV due to slowness
	// over CGO.  So we copy the bytes from the source image and manipulate
	// the bytes directly before copying back to a Mat
	imgData := img.ToBytes()

	for _, c := range cands {

		if c.Mask == nil || c.Mask.Width != width || c.Mask.Height != height {
			continue
		}

		clr := candidateColor(c)

		for j := c.Box.Top; j <= c.Box.Bottom; j++ {
			for k := c.Box.Left; k <= c.Box.Right; k++ {

				if !c.Mask.At(k, j) {
					continue
				}

				// calculate position in the byte slice
				pixelPos := j*width*3 + k*3

				// get original pixel colors directly from the byte slice
				b, g, r := imgData[pixelPos+0], imgData[pixelPos+1], imgData[pixelPos+2]

				// calculate blended colors based on alpha transparency
				imgData[pixelPos+0] = uint8(float32(b)*(1-alpha) + float32(clr.B)*alpha)
				imgData[pixelPos+1] = uint8(float32(g)*(1-alpha) + float32(clr.G)*alpha)
				imgData[pixelPos+2] = uint8(float32(r)*(1-alpha) + float32(clr.R)*alpha)
			}
		}
	}

	// copy back to the original mat
	tmpImg, _ := gocv.NewMatFromBytes(height, width, gocv.MatTypeCV8UC3, imgData)
	defer tmpImg.Close()
	tmpImg.CopyTo(img)
}

// boxLabel defines where a candidate label should be rendered on the
// source image
type boxLabel struct {
	rect    image.Rectangle
	clr     color.RGBA
	text    string
	textPos image.Point
}

// candidateText builds the review label for a candidate, classified
// candidates show their type and confidence, unclassified ones just the id
func candidateText(c *store.Candidate) string {

	if c.Class == nil {
		return fmt.Sprintf("#%d", c.ID)
	}

	return fmt.Sprintf("#%d %s %.2f", c.ID, c.Class.Type, c.Class.Confidence)
}

// CandidateBoxes renders the bounding boxes around each candidate with a
// review label.  Candidates held for human review get their box drawn in
// the review color regardless of type.
func CandidateBoxes(img *gocv.Mat, cands []*store.Candidate, font Font,
	lineThickness int) {

	// keep a record of all box labels for later rendering
	boxLabels := make([]boxLabel, 0)

	for _, c := range cands {

		useClr := candidateColor(c)

		if c.Gate != nil && c.Gate.Outcome == store.NeedsReview && !c.Gate.HumanResolved {
			useClr = reviewColor
		}

		// draw rectangle around candidate
		rect := image.Rect(c.Box.Left, c.Box.Top, c.Box.Right, c.Box.Bottom)
		gocv.Rectangle(img, rect, useClr, lineThickness)

		text := candidateText(c)
		textSize := gocv.GetTextSize(text, font.Face, font.Scale, font.Thickness)

		// Calculate the alignment of text label
		var centerX int

		switch font.Alignment {
		case Center:
			centerX = (c.Box.Left + c.Box.Right) / 2

		case Right:
			centerX = c.Box.Right - (textSize.X / 2) - font.RightPad + (lineThickness / 2)

		case Left:
			fallthrough
		default:
			centerX = c.Box.Left + (textSize.X / 2) + font.LeftPad - (lineThickness / 2)
		}

		// Adjust the label position so the text is centered horizontally
		labelPosition := image.Pt(centerX-textSize.X/2, c.Box.Top-font.BottomPad)

		// create box for placing text on
		bRect := image.Rect(centerX-textSize.X/2-font.LeftPad,
			c.Box.Top-textSize.Y-font.TopPad-font.BottomPad,
			centerX+textSize.X/2+font.RightPad, c.Box.Top)

		// record label rendering details
		nextLabel := boxLabel{
			rect:    bRect,
			clr:     useClr,
			text:    text,
			textPos: labelPosition,
		}
		boxLabels = append(boxLabels, nextLabel)
	}

	// draw all precalculated box labels so they are the top most layer on
	// the image and don't get overlapped by mask overlays
	for _, box := range boxLabels {
		// draw box text gets written on
		gocv.Rectangle(img, box.rect, box.clr, -1)

		// Draw the label over box
		gocv.PutTextWithParams(img, box.text, box.textPos,
			font.Face, font.Scale, font.Color, font.Thickness,
			font.LineType, false)
	}
}

// MaskOutlines traces each candidate mask boundary as a contour line,
// useful when the transparent overlay obscures ground detail
func MaskOutlines(img *gocv.Mat, cands []*store.Candidate, thickness int) {

	width := img.Cols()
	height := img.Rows()

	for _, c := range cands {

		if c.Mask == nil || c.Mask.Width != width || c.Mask.Height != height {
			continue
		}

		clr := candidateColor(c)

		for j := c.Box.Top; j <= c.Box.Bottom; j++ {
			for k := c.Box.Left; k <= c.Box.Right; k++ {

				if !c.Mask.At(k, j) {
					continue
				}

				// a boundary pixel has at least one empty 4-neighbour
				if c.Mask.At(k-1, j) && c.Mask.At(k+1, j) &&
					c.Mask.At(k, j-1) && c.Mask.At(k, j+1) {
					continue
				}

				gocv.Circle(img, image.Pt(k, j), thickness/2, clr, -1)
			}
		}
	}
}

package coursevec

import (
	"crypto/sha256"
	"encoding/binary"
	"image"
)

// Mask is a binary raster over a pixel grid.  A non-zero byte marks a pixel
// as inside the region.  Pixels are stored row major, y*Width+x.
type Mask struct {
	// Width of the pixel grid
	Width int
	// Height of the pixel grid
	Height int
	// Pix is the raster data, len must equal Width*Height
	Pix []uint8
}

// NewMask returns an empty mask of the given grid dimensions
func NewMask(width, height int) *Mask {
	return &Mask{
		Width:  width,
		Height: height,
		Pix:    make([]uint8, width*height),
	}
}

// At reports whether the pixel at x,y is inside the region.  Coordinates
// outside the grid are outside the region.
func (m *Mask) At(x, y int) bool {

	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return false
	}

	return m.Pix[y*m.Width+x] != 0
}

// Set marks the pixel at x,y as inside the region
func (m *Mask) Set(x, y int) {

	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return
	}

	m.Pix[y*m.Width+x] = 1
}

// Area returns the number of pixels inside the region
func (m *Mask) Area() int {

	area := 0

	for _, p := range m.Pix {
		if p != 0 {
			area++
		}
	}

	return area
}

// Bounds computes the axis aligned bounding box of the region.  An empty
// mask returns a zero BoxRect.
func (m *Mask) Bounds() BoxRect {

	left, top := m.Width, m.Height
	right, bottom := -1, -1

	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {

			if m.Pix[y*m.Width+x] == 0 {
				continue
			}

			if x < left {
				left = x
			}
			if x > right {
				right = x
			}
			if y < top {
				top = y
			}
			if y > bottom {
				bottom = y
			}
		}
	}

	if right < 0 {
		return BoxRect{}
	}

	return BoxRect{
		Left:   left,
		Top:    top,
		Right:  right,
		Bottom: bottom,
	}
}

// Clone returns a deep copy of the mask
func (m *Mask) Clone() *Mask {

	c := &Mask{
		Width:  m.Width,
		Height: m.Height,
		Pix:    make([]uint8, len(m.Pix)),
	}

	copy(c.Pix, m.Pix)
	return c
}

// Union merges the other mask into this one.  Both masks must share the
// same pixel grid dimensions.
func (m *Mask) Union(other *Mask) {

	if other.Width != m.Width || other.Height != m.Height {
		return
	}

	for i, p := range other.Pix {
		if p != 0 {
			m.Pix[i] = 1
		}
	}
}

// IoU calculates the pixelwise Intersection over Union with another mask
// on the same grid
func (m *Mask) IoU(other *Mask) float32 {

	if other.Width != m.Width || other.Height != m.Height {
		return 0
	}

	inter := 0
	union := 0

	for i := range m.Pix {

		a := m.Pix[i] != 0
		b := other.Pix[i] != 0

		if a && b {
			inter++
		}

		if a || b {
			union++
		}
	}

	if union == 0 {
		return 0
	}

	return float32(inter) / float32(union)
}

// Fingerprint returns a content hash of the mask raster and grid dimensions,
// used to detect duplicate ingestion of the same source image region
func (m *Mask) Fingerprint() [32]byte {

	h := sha256.New()

	var dims [8]byte
	binary.LittleEndian.PutUint32(dims[0:], uint32(m.Width))
	binary.LittleEndian.PutUint32(dims[4:], uint32(m.Height))

	h.Write(dims[:])

	// normalise to 0/1 so differing non-zero byte values hash the same
	norm := make([]uint8, len(m.Pix))

	for i, p := range m.Pix {
		if p != 0 {
			norm[i] = 1
		}
	}

	h.Write(norm)

	var sum [32]byte
	copy(sum[:], h.Sum(nil))
	return sum
}

// ToGray converts the mask to an image.Gray with inside pixels set to 255,
// for use with image scaling operations
func (m *Mask) ToGray() *image.Gray {

	img := image.NewGray(image.Rect(0, 0, m.Width, m.Height))

	for i, p := range m.Pix {
		if p != 0 {
			img.Pix[i] = 255
		}
	}

	return img
}

// FromGray creates a mask from an image.Gray, any pixel above the threshold
// value is inside the region
func FromGray(img *image.Gray, threshold uint8) *Mask {

	b := img.Bounds()
	m := NewMask(b.Dx(), b.Dy())

	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			if img.GrayAt(b.Min.X+x, b.Min.Y+y).Y > threshold {
				m.Pix[y*m.Width+x] = 1
			}
		}
	}

	return m
}

package coursevec

import (
	"errors"
	"math"
)

// GeoTransform maps pixel grid coordinates to geographic ground coordinates.
// Imagery is assumed north-up, the transform is a scale plus translation
// with no rotation or shear.
type GeoTransform struct {
	// OriginX is the ground X coordinate of the top left pixel corner
	OriginX float64
	// OriginY is the ground Y coordinate of the top left pixel corner
	OriginY float64
	// PixelWidth is the ground distance covered by one pixel horizontally
	PixelWidth float64
	// PixelHeight is the ground distance covered by one pixel vertically,
	// positive even though pixel rows advance southwards
	PixelHeight float64
}

// Valid reports whether the transform has usable pixel scales
func (g GeoTransform) Valid() bool {
	return g.PixelWidth > 0 && g.PixelHeight > 0
}

// PixelToGeo converts a pixel coordinate to ground coordinates
func (g GeoTransform) PixelToGeo(px, py float64) (float64, float64) {
	return g.OriginX + px*g.PixelWidth, g.OriginY - py*g.PixelHeight
}

// GeoToPixel converts ground coordinates to a pixel coordinate
func (g GeoTransform) GeoToPixel(x, y float64) (float64, float64) {
	return (x - g.OriginX) / g.PixelWidth, (g.OriginY - y) / g.PixelHeight
}

// GeoPoint is a single ground coordinate
type GeoPoint struct {
	X float64
	Y float64
}

// GeoPolygon is a closed boundary in ground coordinates, typically the
// course outline drawn in an external GIS tool
type GeoPolygon struct {
	Points []GeoPoint
}

// Validate checks the polygon forms a usable boundary
func (p GeoPolygon) Validate() error {

	if len(p.Points) < 3 {
		return errors.New("boundary polygon needs at least 3 points")
	}

	for _, pt := range p.Points {
		if math.IsNaN(pt.X) || math.IsNaN(pt.Y) ||
			math.IsInf(pt.X, 0) || math.IsInf(pt.Y, 0) {
			return errors.New("boundary polygon contains non-finite coordinate")
		}
	}

	return nil
}

// Bounds returns the axis aligned extent of the polygon in ground
// coordinates as minX, minY, maxX, maxY
func (p GeoPolygon) Bounds() (float64, float64, float64, float64) {

	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)

	for _, pt := range p.Points {
		minX = math.Min(minX, pt.X)
		minY = math.Min(minY, pt.Y)
		maxX = math.Max(maxX, pt.X)
		maxY = math.Max(maxY, pt.Y)
	}

	return minX, minY, maxX, maxY
}

package coursevec

import (
	"testing"
)

func fillRect(m *Mask, left, top, right, bottom int) {
	for y := top; y <= bottom; y++ {
		for x := left; x <= right; x++ {
			m.Set(x, y)
		}
	}
}

func TestMaskBoundsAndArea(t *testing.T) {

	m := NewMask(64, 64)
	fillRect(m, 10, 20, 29, 39)

	if got := m.Area(); got != 400 {
		t.Errorf("expected area 400, got %d", got)
	}

	want := BoxRect{Left: 10, Top: 20, Right: 29, Bottom: 39}

	if got := m.Bounds(); got != want {
		t.Errorf("expected bounds %+v, got %+v", want, got)
	}
}

func TestMaskIoU(t *testing.T) {

	tests := []struct {
		name       string
		aBox, bBox [4]int
		want       float32
	}{
		{"identical", [4]int{0, 0, 9, 9}, [4]int{0, 0, 9, 9}, 1.0},
		{"disjoint", [4]int{0, 0, 9, 9}, [4]int{20, 20, 29, 29}, 0.0},
		{"half overlap", [4]int{0, 0, 9, 9}, [4]int{5, 0, 14, 9}, 50.0 / 150.0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {

			a := NewMask(40, 40)
			fillRect(a, tc.aBox[0], tc.aBox[1], tc.aBox[2], tc.aBox[3])

			b := NewMask(40, 40)
			fillRect(b, tc.bBox[0], tc.bBox[1], tc.bBox[2], tc.bBox[3])

			got := a.IoU(b)

			if diff := got - tc.want; diff > 1e-6 || diff < -1e-6 {
				t.Errorf("expected IoU %f, got %f", tc.want, got)
			}
		})
	}
}

func TestMaskUnion(t *testing.T) {

	a := NewMask(20, 20)
	fillRect(a, 0, 0, 9, 9)

	b := NewMask(20, 20)
	fillRect(b, 5, 0, 14, 9)

	a.Union(b)

	if got := a.Area(); got != 150 {
		t.Errorf("expected union area 150, got %d", got)
	}
}

// The fingerprint must identify mask content, not raster representation
func TestMaskFingerprint(t *testing.T) {

	a := NewMask(32, 32)
	fillRect(a, 4, 4, 11, 11)

	b := NewMask(32, 32)
	fillRect(b, 4, 4, 11, 11)

	if a.Fingerprint() != b.Fingerprint() {
		t.Error("identical masks produced different fingerprints")
	}

	b.Set(20, 20)

	if a.Fingerprint() == b.Fingerprint() {
		t.Error("different masks produced the same fingerprint")
	}

	// same pixels on a different grid size is a different region
	c := NewMask(16, 16)
	fillRect(c, 4, 4, 11, 11)

	if a.Fingerprint() == c.Fingerprint() {
		t.Error("masks on different grids produced the same fingerprint")
	}
}

func TestMaskGrayRoundTrip(t *testing.T) {

	m := NewMask(24, 16)
	fillRect(m, 2, 3, 12, 9)

	back := FromGray(m.ToGray(), 127)

	if back.Width != m.Width || back.Height != m.Height {
		t.Fatalf("round trip changed dimensions to %dx%d", back.Width, back.Height)
	}

	if back.Fingerprint() != m.Fingerprint() {
		t.Error("gray round trip changed mask content")
	}
}

func TestCalculateOverlap(t *testing.T) {

	a := BoxRect{Left: 0, Top: 0, Right: 9, Bottom: 9}
	b := BoxRect{Left: 5, Top: 0, Right: 14, Bottom: 9}

	got := CalculateOverlap(a, b)
	want := float32(50.0 / 150.0)

	if diff := got - want; diff > 1e-6 || diff < -1e-6 {
		t.Errorf("expected overlap %f, got %f", want, got)
	}

	far := BoxRect{Left: 30, Top: 30, Right: 39, Bottom: 39}

	if got := CalculateOverlap(a, far); got != 0 {
		t.Errorf("expected zero overlap for disjoint boxes, got %f", got)
	}
}

func TestGeoTransformRoundTrip(t *testing.T) {

	g := GeoTransform{OriginX: 1000, OriginY: 2000, PixelWidth: 0.5, PixelHeight: 0.5}

	x, y := g.PixelToGeo(40, 60)

	if x != 1020 || y != 1970 {
		t.Errorf("expected ground (1020, 1970), got (%f, %f)", x, y)
	}

	px, py := g.GeoToPixel(x, y)

	if px != 40 || py != 60 {
		t.Errorf("expected pixel (40, 60), got (%f, %f)", px, py)
	}
}

func TestParseFeatureType(t *testing.T) {

	for _, ft := range []FeatureType{Green, Tee, Fairway, Bunker, Water, Rough, Ignore} {

		got, err := ParseFeatureType(ft.String())

		if err != nil {
			t.Fatalf("ParseFeatureType(%q) failed: %v", ft.String(), err)
		}

		if got != ft {
			t.Errorf("ParseFeatureType(%q) = %v, want %v", ft.String(), got, ft)
		}
	}

	if _, err := ParseFeatureType("volcano"); err == nil {
		t.Error("expected error for unknown feature type")
	}
}

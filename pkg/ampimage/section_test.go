package ampimage

import (
	"errors"
	"testing"

	"ampimages/pkg/geom"
)

// gradientPlanes fills a box-sized image plane with a value that encodes
// each pixel's global coordinates, so tests can verify where pixels end up.
func gradientPlanes(b geom.Box) Planes {
	img := make([]float64, b.Area())
	for y := 0; y < b.Size.Height; y++ {
		for x := 0; x < b.Size.Width; x++ {
			img[y*b.Size.Width+x] = float64((b.Min.Y+y)*100 + (b.Min.X + x))
		}
	}
	return Planes{Image: img}
}

// pixelAt reads one image-plane value from a section at global coordinates.
func pixelAt(t *testing.T, s ImageSection, p geom.Point) float64 {
	t.Helper()
	planes, err := s.Pixels()
	if err != nil {
		t.Fatalf("Pixels failed: %v", err)
	}
	r := s.Region()
	if !r.Contains(p) {
		t.Fatalf("Point %v outside section %v", p, r)
	}
	return planes.Image[(p.Y-r.Min.Y)*r.Size.Width+(p.X-r.Min.X)]
}

// TestBoundsOnlySection verifies the pixel-free variant.
func TestBoundsOnlySection(t *testing.T) {
	s := NewBoundsOnlySection(box(2, 3, 10, 20))

	if s.HasPixels() {
		t.Errorf("Bounds-only section should report no pixels")
	}
	if _, err := s.Pixels(); !errors.Is(err, ErrMissingPixelData) {
		t.Errorf("Expected ErrMissingPixelData, got %v", err)
	}

	cropped, err := s.Crop(box(4, 5, 2, 2))
	if err != nil {
		t.Fatalf("Crop failed: %v", err)
	}
	if cropped.Region() != box(4, 5, 2, 2) {
		t.Errorf("Unexpected cropped region %v", cropped.Region())
	}
	if cropped.HasPixels() {
		t.Errorf("Cropping a bounds-only section should stay bounds-only")
	}

	if _, err := s.Crop(box(0, 0, 5, 5)); !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("Expected ErrOutOfBounds for escaping crop, got %v", err)
	}

	flipped := s.Flipped(true, true)
	if flipped.Region() != s.Region() {
		t.Errorf("Flip should keep the region, got %v", flipped.Region())
	}
}

// TestPixelSectionConstruction verifies plane-shape checking.
func TestPixelSectionConstruction(t *testing.T) {
	b := box(0, 0, 4, 3)
	if _, err := NewPixelSectionFromPlanes(b, gradientPlanes(b)); err != nil {
		t.Fatalf("Matching planes should construct, got %v", err)
	}

	short := Planes{Image: make([]float64, 5)}
	if _, err := NewPixelSectionFromPlanes(b, short); !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("Expected ErrShapeMismatch for a short image plane, got %v", err)
	}

	badMask := Planes{Image: make([]float64, b.Area()), Mask: make([]uint32, 3)}
	if _, err := NewPixelSectionFromPlanes(b, badMask); !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("Expected ErrShapeMismatch for a short mask plane, got %v", err)
	}
}

// TestPixelSectionCrop verifies that cropping yields a view with correct
// coordinates and that it shares pixels with the parent buffer.
func TestPixelSectionCrop(t *testing.T) {
	b := box(0, 0, 10, 8)
	s, err := NewPixelSectionFromPlanes(b, gradientPlanes(b))
	if err != nil {
		t.Fatalf("Construction failed: %v", err)
	}

	cropped, err := s.Crop(box(3, 2, 4, 4))
	if err != nil {
		t.Fatalf("Crop failed: %v", err)
	}
	if got := pixelAt(t, cropped, geom.Point{X: 3, Y: 2}); got != 203 {
		t.Errorf("Expected pixel (3,2)=203, got %v", got)
	}
	if got := pixelAt(t, cropped, geom.Point{X: 6, Y: 5}); got != 506 {
		t.Errorf("Expected pixel (6,5)=506, got %v", got)
	}

	// The crop is a view: writing through the parent's planes shows up in
	// the cropped section.
	planes, err := s.Pixels()
	if err != nil {
		t.Fatalf("Pixels failed: %v", err)
	}
	planes.Image[2*10+3] = -1
	if got := pixelAt(t, cropped, geom.Point{X: 3, Y: 2}); got != -1 {
		t.Errorf("Crop should share pixels with its parent, got %v", got)
	}

	if _, err := s.Crop(box(8, 0, 4, 4)); !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("Expected ErrOutOfBounds for escaping crop, got %v", err)
	}
}

// TestPixelSectionFlipped verifies pixel reversal along each axis.
func TestPixelSectionFlipped(t *testing.T) {
	b := box(0, 0, 3, 2)
	s, err := NewPixelSectionFromPlanes(b, Planes{Image: []float64{
		1, 2, 3,
		4, 5, 6,
	}})
	if err != nil {
		t.Fatalf("Construction failed: %v", err)
	}

	fx := s.Flipped(true, false)
	if got, _ := fx.Pixels(); !equalFloats(got.Image, []float64{3, 2, 1, 6, 5, 4}) {
		t.Errorf("Unexpected x-flip result %v", got.Image)
	}

	fy := s.Flipped(false, true)
	if got, _ := fy.Pixels(); !equalFloats(got.Image, []float64{4, 5, 6, 1, 2, 3}) {
		t.Errorf("Unexpected y-flip result %v", got.Image)
	}

	fxy := s.Flipped(true, true)
	if got, _ := fxy.Pixels(); !equalFloats(got.Image, []float64{6, 5, 4, 3, 2, 1}) {
		t.Errorf("Unexpected xy-flip result %v", got.Image)
	}
	if fxy.Region() != b {
		t.Errorf("Flip should keep the region, got %v", fxy.Region())
	}

	// The flip is a copy: mutating the original leaves it untouched.
	planes, _ := s.Pixels()
	planes.Image[0] = 99
	if got, _ := fxy.Pixels(); got.Image[5] != 1 {
		t.Errorf("Flipped section should not share pixels with the original")
	}
}

// TestPixelSectionCopyIsolation verifies deep copies.
func TestPixelSectionCopyIsolation(t *testing.T) {
	b := box(0, 0, 4, 4)
	s, err := NewPixelSectionFromPlanes(b, gradientPlanes(b))
	if err != nil {
		t.Fatalf("Construction failed: %v", err)
	}
	dup := s.Copy()

	planes, _ := s.Pixels()
	planes.Image[0] = -42
	if got := pixelAt(t, dup, geom.Point{X: 0, Y: 0}); got != 0 {
		t.Errorf("Copy should be isolated from the original, got %v", got)
	}
}

// TestPixelSectionSubviewPixels verifies that reading a sub-view produces
// a correct contiguous copy including auxiliary planes.
func TestPixelSectionSubviewPixels(t *testing.T) {
	b := box(0, 0, 4, 2)
	planes := gradientPlanes(b)
	planes.Mask = []uint32{0, 1, 2, 3, 4, 5, 6, 7}
	planes.Variance = []float64{10, 11, 12, 13, 14, 15, 16, 17}
	s, err := NewPixelSectionFromPlanes(b, planes)
	if err != nil {
		t.Fatalf("Construction failed: %v", err)
	}

	sub, err := s.Crop(box(1, 0, 2, 2))
	if err != nil {
		t.Fatalf("Crop failed: %v", err)
	}
	got, err := sub.Pixels()
	if err != nil {
		t.Fatalf("Pixels failed: %v", err)
	}
	if !equalFloats(got.Image, []float64{1, 2, 101, 102}) {
		t.Errorf("Unexpected sub-view image %v", got.Image)
	}
	if got.Mask[0] != 1 || got.Mask[3] != 6 {
		t.Errorf("Unexpected sub-view mask %v", got.Mask)
	}
	if !equalFloats(got.Variance, []float64{11, 12, 15, 16}) {
		t.Errorf("Unexpected sub-view variance %v", got.Variance)
	}
}

func equalFloats(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Package ampimage models per-amplifier sensor image data for a
// multi-amplifier detector in two orthogonal dualities: trimmed versus
// untrimmed (overscan regions stripped or still present) and assembled
// versus unassembled (amplifier pixels as views into one shared detector
// buffer or as independent per-amplifier buffers).
//
// The package only manages geometry, views, and layout transformations; it
// never interprets pixel values.
package ampimage

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"ampimages/pkg/geom"
)

// Planes bundles the pixel planes for one rectangular region: the image
// plane always, mask and variance optionally. Planes are flat row-major
// slices whose length equals the region's area.
type Planes struct {
	// Image holds the pixel values.
	Image []float64

	// Mask holds per-pixel mask bits, or nil when no mask plane exists.
	Mask []uint32

	// Variance holds per-pixel variance values, or nil when no variance
	// plane exists.
	Variance []float64
}

// Clone returns planes whose slices share no memory with the receiver.
func (p Planes) Clone() Planes {
	out := Planes{Image: append([]float64(nil), p.Image...)}
	if p.Mask != nil {
		out.Mask = append([]uint32(nil), p.Mask...)
	}
	if p.Variance != nil {
		out.Variance = append([]float64(nil), p.Variance...)
	}
	return out
}

// Buffer owns the pixel planes covering one rectangular region. Assembled
// amplifier sets use a single Buffer as the arena that every contained
// amplifier's sections view into; unassembled amplifiers each own a small
// Buffer of their own.
type Buffer struct {
	box    geom.Box
	planes Planes
}

// NewBuffer allocates a zero-filled buffer for the given box, with mask and
// variance planes only if requested.
func NewBuffer(box geom.Box, withMask, withVariance bool) *Buffer {
	n := box.Area()
	p := Planes{Image: make([]float64, n)}
	if withMask {
		p.Mask = make([]uint32, n)
	}
	if withVariance {
		p.Variance = make([]float64, n)
	}
	return &Buffer{box: box, planes: p}
}

// NewBufferFromPlanes wraps existing planes as an owned buffer for the
// given box. Every present plane must have length box.Area().
func NewBufferFromPlanes(box geom.Box, planes Planes) (*Buffer, error) {
	n := box.Area()
	if len(planes.Image) != n {
		return nil, fmt.Errorf("image plane has %d pixels, box %v needs %d: %w",
			len(planes.Image), box, n, ErrShapeMismatch)
	}
	if planes.Mask != nil && len(planes.Mask) != n {
		return nil, fmt.Errorf("mask plane has %d pixels, box %v needs %d: %w",
			len(planes.Mask), box, n, ErrShapeMismatch)
	}
	if planes.Variance != nil && len(planes.Variance) != n {
		return nil, fmt.Errorf("variance plane has %d pixels, box %v needs %d: %w",
			len(planes.Variance), box, n, ErrShapeMismatch)
	}
	return &Buffer{box: box, planes: planes}, nil
}

// Box returns the region the buffer covers.
func (b *Buffer) Box() geom.Box {
	return b.box
}

// Planes returns the buffer's backing planes without copying. The slices
// are owned by the buffer; callers that need isolation should Clone them.
func (b *Buffer) Planes() Planes {
	return b.planes
}

// HasMask reports whether the buffer carries a mask plane.
func (b *Buffer) HasMask() bool {
	return b.planes.Mask != nil
}

// HasVariance reports whether the buffer carries a variance plane.
func (b *Buffer) HasVariance() bool {
	return b.planes.Variance != nil
}

// Clone returns a buffer with deep-copied planes.
func (b *Buffer) Clone() *Buffer {
	return &Buffer{box: b.box, planes: b.planes.Clone()}
}

// Section returns a non-owning view of the given sub-box of the buffer.
func (b *Buffer) Section(box geom.Box) (*PixelSection, error) {
	if !b.box.ContainsBox(box) {
		return nil, fmt.Errorf("section %v escapes buffer %v: %w", box, b.box, ErrOutOfBounds)
	}
	return &PixelSection{buf: b, box: box}, nil
}

// Whole returns a view covering the entire buffer.
func (b *Buffer) Whole() *PixelSection {
	return &PixelSection{buf: b, box: b.box}
}

// rowSpan returns the [start, end) index range of one row of the sub-box
// within the buffer's flat planes. y is relative to box.Min.Y.
func (b *Buffer) rowSpan(box geom.Box, y int) (int, int) {
	stride := b.box.Size.Width
	start := (box.Min.Y-b.box.Min.Y+y)*stride + (box.Min.X - b.box.Min.X)
	return start, start + box.Size.Width
}

// ImageSection is a rectangular window that always has a bounding box and
// may have pixel data behind it. There are exactly two implementations:
// BoundsOnlySection and PixelSection. The sealed hierarchy replaces any
// "does this object have pixels" probing with HasPixels.
type ImageSection interface {
	// Region returns the section's bounding box.
	Region() geom.Box

	// HasPixels reports whether the section is backed by pixel data.
	HasPixels() bool

	// Pixels returns the section's planes. It fails with
	// ErrMissingPixelData on a bounds-only section. When the section covers
	// its whole backing buffer the returned slices alias that buffer;
	// otherwise they are contiguous copies.
	Pixels() (Planes, error)

	// Crop returns a new section restricted to box, which must be contained
	// in Region. Cropping a bounds-only section manipulates only the box.
	Crop(box geom.Box) (ImageSection, error)

	// Flipped returns a new section whose pixels are reversed along the
	// requested axes, with the same bounding box (the flip is symmetric
	// about the box center). Bounds-only sections flip trivially.
	Flipped(flipX, flipY bool) ImageSection

	// Copy returns a section sharing no pixel memory with the receiver.
	Copy() ImageSection

	// WithoutPixels returns a bounds-only section with the same box.
	WithoutPixels() ImageSection

	sealedSection()
}

// BoundsOnlySection is an ImageSection with no pixel payload, just a box.
// It lets geometry-only pipelines run through the same code paths as
// pixel-backed ones.
type BoundsOnlySection struct {
	box geom.Box
}

// NewBoundsOnlySection returns a section covering box with no pixels.
func NewBoundsOnlySection(box geom.Box) *BoundsOnlySection {
	return &BoundsOnlySection{box: box}
}

// Region returns the section's bounding box.
func (s *BoundsOnlySection) Region() geom.Box {
	return s.box
}

// HasPixels always reports false.
func (s *BoundsOnlySection) HasPixels() bool {
	return false
}

// Pixels always fails with ErrMissingPixelData.
func (s *BoundsOnlySection) Pixels() (Planes, error) {
	return Planes{}, fmt.Errorf("bounds-only section %v: %w", s.box, ErrMissingPixelData)
}

// Crop returns a bounds-only section for the sub-box.
func (s *BoundsOnlySection) Crop(box geom.Box) (ImageSection, error) {
	if !s.box.ContainsBox(box) {
		return nil, fmt.Errorf("crop %v escapes section %v: %w", box, s.box, ErrOutOfBounds)
	}
	return &BoundsOnlySection{box: box}, nil
}

// Flipped returns the section unchanged; there are no pixels to reverse and
// the box is symmetric about its own center.
func (s *BoundsOnlySection) Flipped(flipX, flipY bool) ImageSection {
	return s
}

// Copy returns the receiver; bounds-only sections are immutable values.
func (s *BoundsOnlySection) Copy() ImageSection {
	return s
}

// WithoutPixels returns the receiver.
func (s *BoundsOnlySection) WithoutPixels() ImageSection {
	return s
}

func (s *BoundsOnlySection) sealedSection() {}

// translated returns a bounds-only section moved to box, which must have
// the same extent.
func (s *BoundsOnlySection) translatedTo(box geom.Box) *BoundsOnlySection {
	return &BoundsOnlySection{box: box}
}

// PixelSection is an ImageSection backed by a Buffer. It is either the
// whole buffer (an owning section) or a sub-box view into a larger buffer
// (a non-owning view, as used by assembled amplifier sets). A view's
// validity is tied to its buffer, which the Go runtime keeps alive for as
// long as the view exists.
type PixelSection struct {
	buf *Buffer
	box geom.Box
}

// NewPixelSection allocates an owned, zero-filled section for box.
func NewPixelSection(box geom.Box, withMask, withVariance bool) *PixelSection {
	return NewBuffer(box, withMask, withVariance).Whole()
}

// NewPixelSectionFromPlanes wraps existing planes as an owned section.
func NewPixelSectionFromPlanes(box geom.Box, planes Planes) (*PixelSection, error) {
	buf, err := NewBufferFromPlanes(box, planes)
	if err != nil {
		return nil, err
	}
	return buf.Whole(), nil
}

// Region returns the section's bounding box.
func (s *PixelSection) Region() geom.Box {
	return s.box
}

// HasPixels always reports true.
func (s *PixelSection) HasPixels() bool {
	return true
}

// isWholeBuffer reports whether the section covers its backing buffer.
func (s *PixelSection) isWholeBuffer() bool {
	return s.box == s.buf.box
}

// Pixels returns the section's planes. When the section covers its whole
// backing buffer the slices alias the buffer; otherwise they are contiguous
// row-major copies of the viewed region.
func (s *PixelSection) Pixels() (Planes, error) {
	if s.isWholeBuffer() {
		return s.buf.planes, nil
	}
	out := Planes{Image: make([]float64, s.box.Area())}
	if s.buf.HasMask() {
		out.Mask = make([]uint32, s.box.Area())
	}
	if s.buf.HasVariance() {
		out.Variance = make([]float64, s.box.Area())
	}
	w := s.box.Size.Width
	for y := 0; y < s.box.Size.Height; y++ {
		start, end := s.buf.rowSpan(s.box, y)
		copy(out.Image[y*w:(y+1)*w], s.buf.planes.Image[start:end])
		if out.Mask != nil {
			copy(out.Mask[y*w:(y+1)*w], s.buf.planes.Mask[start:end])
		}
		if out.Variance != nil {
			copy(out.Variance[y*w:(y+1)*w], s.buf.planes.Variance[start:end])
		}
	}
	return out, nil
}

// Crop returns a view of the sub-box, sharing pixels with the receiver.
func (s *PixelSection) Crop(box geom.Box) (ImageSection, error) {
	if !s.box.ContainsBox(box) {
		return nil, fmt.Errorf("crop %v escapes section %v: %w", box, s.box, ErrOutOfBounds)
	}
	return &PixelSection{buf: s.buf, box: box}, nil
}

// Flipped returns an owned section with the pixels reversed along the
// requested axes and the same bounding box.
func (s *PixelSection) Flipped(flipX, flipY bool) ImageSection {
	t := SectionTransform{InputBox: s.box, OutputBox: s.box, FlipX: flipX, FlipY: flipY}
	out, err := s.transformed(t)
	if err != nil {
		// The transform is built from the section's own box, so the copy
		// cannot fail.
		panic(err)
	}
	return out
}

// Copy returns an owned section with deep-copied pixels.
func (s *PixelSection) Copy() ImageSection {
	return s.copySection()
}

// copySection is Copy with a concrete return type for internal callers.
func (s *PixelSection) copySection() *PixelSection {
	if s.isWholeBuffer() {
		return s.buf.Clone().Whole()
	}
	planes, _ := s.Pixels()
	out, err := NewBufferFromPlanes(s.box, planes)
	if err != nil {
		panic(err)
	}
	return out.Whole()
}

// WithoutPixels returns a bounds-only section with the same box.
func (s *PixelSection) WithoutPixels() ImageSection {
	return &BoundsOnlySection{box: s.box}
}

func (s *PixelSection) sealedSection() {}

// transformed returns an owned section holding the receiver's pixels copied
// into t.OutputBox with t's flips applied. t.InputBox must equal the
// section's box.
func (s *PixelSection) transformed(t SectionTransform) (*PixelSection, error) {
	if t.InputBox != s.box {
		return nil, fmt.Errorf("transform input %v does not match section %v: %w",
			t.InputBox, s.box, ErrShapeMismatch)
	}
	dst := NewBuffer(t.OutputBox, s.buf.HasMask(), s.buf.HasVariance())
	if err := copyTransformed(dst, s, t); err != nil {
		return nil, err
	}
	return dst.Whole(), nil
}

// copyTransformed copies src's pixels into dst at t.OutputBox, reversing
// rows and columns per t's flips. This one routine backs assembly, trim and
// disassembly; per-amplifier copies through it are independent of each
// other and never read pixels written by another amplifier's copy.
func copyTransformed(dst *Buffer, src *PixelSection, t SectionTransform) error {
	if t.InputBox != src.box {
		return fmt.Errorf("transform input %v does not match source %v: %w",
			t.InputBox, src.box, ErrShapeMismatch)
	}
	if t.InputBox.Size != t.OutputBox.Size {
		return fmt.Errorf("transform input %v and output %v extents differ: %w",
			t.InputBox, t.OutputBox, ErrShapeMismatch)
	}
	if !dst.box.ContainsBox(t.OutputBox) {
		return fmt.Errorf("destination %v escapes buffer %v: %w",
			t.OutputBox, dst.box, ErrOutOfBounds)
	}
	if (dst.HasMask() && !src.buf.HasMask()) || (dst.HasVariance() && !src.buf.HasVariance()) {
		return fmt.Errorf("source %v lacks a plane the destination carries: %w",
			src.box, ErrShapeMismatch)
	}
	h := t.InputBox.Size.Height
	for y := 0; y < h; y++ {
		dy := y
		if t.FlipY {
			dy = h - 1 - y
		}
		srcStart, srcEnd := src.buf.rowSpan(src.box, y)
		dstStart, dstEnd := dst.rowSpan(t.OutputBox, dy)
		copy(dst.planes.Image[dstStart:dstEnd], src.buf.planes.Image[srcStart:srcEnd])
		if dst.HasMask() {
			copy(dst.planes.Mask[dstStart:dstEnd], src.buf.planes.Mask[srcStart:srcEnd])
		}
		if dst.HasVariance() {
			copy(dst.planes.Variance[dstStart:dstEnd], src.buf.planes.Variance[srcStart:srcEnd])
		}
		if t.FlipX {
			floats.Reverse(dst.planes.Image[dstStart:dstEnd])
			if dst.HasMask() {
				reverseUint32(dst.planes.Mask[dstStart:dstEnd])
			}
			if dst.HasVariance() {
				floats.Reverse(dst.planes.Variance[dstStart:dstEnd])
			}
		}
	}
	return nil
}

func reverseUint32(s []uint32) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}

package ampimage

import (
	"fmt"

	"ampimages/pkg/geom"
)

// SectionTransform describes how a particular image section maps into
// another coordinate frame: the exact box it starts from, the exact box it
// ends up in, and whether either axis must be inverted on the way.
//
// Sections can only be flipped or shifted, and only flips touch pixel
// values. Because the transform carries an absolute input box, it maps one
// specific section, not arbitrary geometry; use ForSubimage to derive the
// transform for a sub-box of the input.
type SectionTransform struct {
	// InputBox is the box the section is expected to start with.
	InputBox geom.Box

	// OutputBox is the box the section will occupy after the transform.
	// Always the same extent as InputBox.
	OutputBox geom.Box

	// FlipX reports whether the x axis is inverted by the transform.
	FlipX bool

	// FlipY reports whether the y axis is inverted by the transform.
	FlipY bool
}

// NewSectionTransform builds a transform between two equally sized boxes.
func NewSectionTransform(input, output geom.Box, flipX, flipY bool) (SectionTransform, error) {
	if input.Size != output.Size {
		return SectionTransform{}, fmt.Errorf(
			"transform input %v and output %v extents differ: %w", input, output, ErrShapeMismatch)
	}
	return SectionTransform{InputBox: input, OutputBox: output, FlipX: flipX, FlipY: flipY}, nil
}

// IdentityTransform returns the transform that starts and ends with box and
// performs no flips.
func IdentityTransform(box geom.Box) SectionTransform {
	return SectionTransform{InputBox: box, OutputBox: box}
}

// IsIdentity reports whether the transform does nothing.
func (t SectionTransform) IsIdentity() bool {
	return !t.FlipX && !t.FlipY && t.InputBox == t.OutputBox
}

// After composes the transform with one applied before it: the result maps
// other's input box to t's output box, with the flips of both combined.
func (t SectionTransform) After(other SectionTransform) SectionTransform {
	return SectionTransform{
		InputBox:  other.InputBox,
		OutputBox: t.OutputBox,
		FlipX:     t.FlipX != other.FlipX,
		FlipY:     t.FlipY != other.FlipY,
	}
}

// Inverted returns the transform mapping OutputBox back onto InputBox.
// Applying a transform and then its inverse restores the original pixels.
func (t SectionTransform) Inverted() SectionTransform {
	return SectionTransform{
		InputBox:  t.OutputBox,
		OutputBox: t.InputBox,
		FlipX:     t.FlipX,
		FlipY:     t.FlipY,
	}
}

// ForSubimage returns the transform that maps a sub-box of InputBox into
// the corresponding region of OutputBox, applying the same flips. The box
// must be contained in InputBox.
func (t SectionTransform) ForSubimage(box geom.Box) (SectionTransform, error) {
	if !t.InputBox.ContainsBox(box) {
		return SectionTransform{}, fmt.Errorf(
			"sub-box %v escapes transform input %v: %w", box, t.InputBox, ErrOutOfBounds)
	}
	// Distance from the input box's minimum corner to the sub-box. A flip
	// measures from the opposite edge instead.
	lowerX := box.Min.X - t.InputBox.Min.X
	lowerY := box.Min.Y - t.InputBox.Min.Y
	if t.FlipX {
		lowerX = t.InputBox.Max().X - box.Max().X
	}
	if t.FlipY {
		lowerY = t.InputBox.Max().Y - box.Max().Y
	}
	outMin := geom.Point{X: t.OutputBox.Min.X + lowerX, Y: t.OutputBox.Min.Y + lowerY}
	return SectionTransform{
		InputBox:  box,
		OutputBox: geom.Box{Min: outMin, Size: box.Size},
		FlipX:     t.FlipX,
		FlipY:     t.FlipY,
	}, nil
}

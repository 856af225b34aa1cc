package ampimage

import (
	"fmt"

	"ampimages/pkg/geom"
)

// Role names one of an untrimmed amplifier's sections.
type Role string

const (
	RoleData             Role = "data"
	RoleSerialOverscan   Role = "serial_overscan"
	RoleParallelOverscan Role = "parallel_overscan"
	RolePrescan          Role = "prescan"
)

// transformSection applies a SectionTransform to either section variant.
// Bounds-only sections just move; pixel sections are flip-copied.
func transformSection(s ImageSection, t SectionTransform) (ImageSection, error) {
	if t.InputBox != s.Region() {
		return nil, fmt.Errorf("transform input %v does not match section %v: %w",
			t.InputBox, s.Region(), ErrShapeMismatch)
	}
	switch sec := s.(type) {
	case *BoundsOnlySection:
		return sec.translatedTo(t.OutputBox), nil
	case *PixelSection:
		return sec.transformed(t)
	default:
		return nil, fmt.Errorf("unrecognized section type %T: %w", s, ErrShapeMismatch)
	}
}

// UntrimmedAmplifier is one amplifier's image including its overscan and
// prescan regions. Freshly constructed amplifiers are in their local
// readout frame, pre-flip; amplifiers inside an assembled set are in the
// untrimmed mosaic frame with the flip already normalized. The remaining
// mapping into the mosaic frame is carried as a transform, so orientation
// is consumed exactly once.
//
// Amplifiers are immutable after construction; every operation returns a
// new value.
type UntrimmedAmplifier struct {
	geometry AmplifierGeometry

	// full spans the whole readout region in the current frame.
	full ImageSection

	// Section boxes in the current frame.
	dataBox             geom.Box
	serialOverscanBox   geom.Box
	parallelOverscanBox geom.Box
	prescanBox          geom.Box

	// detectorTransform maps the current frame into the assembled
	// untrimmed mosaic. Identity once the amplifier is assembled.
	detectorTransform SectionTransform
}

// NewUntrimmedAmplifier builds an amplifier in its local readout frame
// from the descriptor entry for id. planes may be nil, producing a
// bounds-only amplifier; otherwise the planes must match the readout box
// extent.
func NewUntrimmedAmplifier(desc *GeometryDescriptor, id int, planes *Planes) (*UntrimmedAmplifier, error) {
	g, err := desc.Amplifier(id)
	if err != nil {
		return nil, err
	}
	var full ImageSection
	if planes == nil {
		full = NewBoundsOnlySection(g.ReadoutBox)
	} else {
		full, err = NewPixelSectionFromPlanes(g.ReadoutBox, planes.Clone())
		if err != nil {
			return nil, fmt.Errorf("amplifier %d: %w", id, err)
		}
	}
	return &UntrimmedAmplifier{
		geometry:            g,
		full:                full,
		dataBox:             g.DataBox,
		serialOverscanBox:   g.SerialOverscanBox,
		parallelOverscanBox: g.ParallelOverscanBox,
		prescanBox:          g.PrescanBox,
		detectorTransform:   g.DetectorTransform(),
	}, nil
}

// newUntrimmedAmplifierView builds the mosaic-frame amplifier whose full
// section is the given view of an assembled buffer. All section boxes are
// re-expressed in the mosaic frame through the geometry's detector
// transform.
func newUntrimmedAmplifierView(g AmplifierGeometry, full ImageSection) *UntrimmedAmplifier {
	t := g.DetectorTransform()
	sub := func(box geom.Box) geom.Box {
		st, err := t.ForSubimage(box)
		if err != nil {
			// Descriptor validation guarantees containment.
			panic(err)
		}
		return st.OutputBox
	}
	return &UntrimmedAmplifier{
		geometry:            g,
		full:                full,
		dataBox:             sub(g.DataBox),
		serialOverscanBox:   sub(g.SerialOverscanBox),
		parallelOverscanBox: sub(g.ParallelOverscanBox),
		prescanBox:          sub(g.PrescanBox),
		detectorTransform:   IdentityTransform(g.UntrimmedPlacement),
	}
}

// ID returns the amplifier's id.
func (a *UntrimmedAmplifier) ID() int {
	return a.geometry.ID
}

// Geometry returns the amplifier's descriptor entry.
func (a *UntrimmedAmplifier) Geometry() AmplifierGeometry {
	return a.geometry
}

// Full returns the whole readout-region section in the current frame.
func (a *UntrimmedAmplifier) Full() ImageSection {
	return a.full
}

// HasPixels reports whether the amplifier carries pixel data.
func (a *UntrimmedAmplifier) HasPixels() bool {
	return a.full.HasPixels()
}

// DetectorTransform returns the transform still to be applied to place the
// amplifier in the assembled untrimmed mosaic.
func (a *UntrimmedAmplifier) DetectorTransform() SectionTransform {
	return a.detectorTransform
}

// Section returns the named section as a view of the amplifier's pixels.
func (a *UntrimmedAmplifier) Section(role Role) (ImageSection, error) {
	switch role {
	case RoleData:
		return a.full.Crop(a.dataBox)
	case RoleSerialOverscan:
		return a.full.Crop(a.serialOverscanBox)
	case RoleParallelOverscan:
		return a.full.Crop(a.parallelOverscanBox)
	case RolePrescan:
		return a.full.Crop(a.prescanBox)
	default:
		return nil, fmt.Errorf("amplifier %d has no %q section: %w", a.ID(), role, ErrOutOfBounds)
	}
}

// Data returns the data section view.
func (a *UntrimmedAmplifier) Data() ImageSection {
	s, err := a.full.Crop(a.dataBox)
	if err != nil {
		panic(err)
	}
	return s
}

// SerialOverscan returns the serial overscan section view.
func (a *UntrimmedAmplifier) SerialOverscan() ImageSection {
	s, err := a.full.Crop(a.serialOverscanBox)
	if err != nil {
		panic(err)
	}
	return s
}

// ParallelOverscan returns the parallel overscan section view.
func (a *UntrimmedAmplifier) ParallelOverscan() ImageSection {
	s, err := a.full.Crop(a.parallelOverscanBox)
	if err != nil {
		panic(err)
	}
	return s
}

// Prescan returns the prescan section view.
func (a *UntrimmedAmplifier) Prescan() ImageSection {
	s, err := a.full.Crop(a.prescanBox)
	if err != nil {
		panic(err)
	}
	return s
}

// SerialOverscanBoundary returns the x coordinate of the data-box edge
// adjacent to the serial overscan region, in the current frame.
func (a *UntrimmedAmplifier) SerialOverscanBoundary() int {
	if a.serialOverscanBox.Max().X <= a.dataBox.Min.X {
		return a.dataBox.Min.X
	}
	return a.dataBox.Max().X
}

// ParallelOverscanBoundary returns the y coordinate of the data-box edge
// adjacent to the parallel overscan region, in the current frame.
func (a *UntrimmedAmplifier) ParallelOverscanBoundary() int {
	if a.parallelOverscanBox.Max().Y <= a.dataBox.Min.Y {
		return a.dataBox.Min.Y
	}
	return a.dataBox.Max().Y
}

// PrescanBoundary returns the x coordinate of the data-box edge adjacent
// to the prescan region, in the current frame.
func (a *UntrimmedAmplifier) PrescanBoundary() int {
	if a.prescanBox.Max().X <= a.dataBox.Min.X {
		return a.dataBox.Min.X
	}
	return a.dataBox.Max().X
}

// trimmedView returns a trimmed amplifier that shares pixels with the
// receiver and still carries the mapping into the physical frame.
func (a *UntrimmedAmplifier) trimmedView() (*TrimmedAmplifier, error) {
	data, err := a.full.Crop(a.dataBox)
	if err != nil {
		return nil, err
	}
	// The physical frame always has the orientation of the assembled
	// mosaic, so the remaining flips are those of the detector transform.
	return &TrimmedAmplifier{
		id:   a.ID(),
		data: data,
		physicalTransform: SectionTransform{
			InputBox:  a.dataBox,
			OutputBox: a.geometry.TrimmedPlacement,
			FlipX:     a.detectorTransform.FlipX,
			FlipY:     a.detectorTransform.FlipY,
		},
		serialOverscanAtMin:   a.SerialOverscanBoundary() == a.dataBox.Min.X,
		parallelOverscanAtMin: a.ParallelOverscanBoundary() == a.dataBox.Min.Y,
		prescanAtMin:          a.PrescanBoundary() == a.dataBox.Min.X,
	}, nil
}

// Trim extracts the data section, normalizes the amplifier's orientation
// and re-expresses it in the canonical physical frame, discarding all
// overscan and prescan regions. A bounds-only amplifier trims to a
// bounds-only result without needing pixel data.
func (a *UntrimmedAmplifier) Trim() (*TrimmedAmplifier, error) {
	view, err := a.trimmedView()
	if err != nil {
		return nil, err
	}
	return view.IntoPhysicalFrame()
}

// IntoDetectorFrame returns the amplifier re-expressed in the assembled
// untrimmed mosaic frame, with pixels flip-copied as needed. The result's
// DetectorTransform is the identity.
func (a *UntrimmedAmplifier) IntoDetectorFrame() (*UntrimmedAmplifier, error) {
	if a.detectorTransform.IsIdentity() {
		return a, nil
	}
	full, err := transformSection(a.full, a.detectorTransform)
	if err != nil {
		return nil, fmt.Errorf("amplifier %d: %w", a.ID(), err)
	}
	return newUntrimmedAmplifierView(a.geometry, full), nil
}

// IntoLocalFrame returns the amplifier re-expressed in its local readout
// frame, undoing the detector placement and flip. Used by disassembly to
// restore loader-frame amplifiers.
func (a *UntrimmedAmplifier) IntoLocalFrame() (*UntrimmedAmplifier, error) {
	remaining := a.geometry.DetectorTransform().Inverted().After(a.detectorTransform)
	if remaining.IsIdentity() {
		return a, nil
	}
	full, err := transformSection(a.full, remaining)
	if err != nil {
		return nil, fmt.Errorf("amplifier %d: %w", a.ID(), err)
	}
	g := a.geometry
	return &UntrimmedAmplifier{
		geometry:            g,
		full:                full,
		dataBox:             g.DataBox,
		serialOverscanBox:   g.SerialOverscanBox,
		parallelOverscanBox: g.ParallelOverscanBox,
		prescanBox:          g.PrescanBox,
		detectorTransform:   g.DetectorTransform(),
	}, nil
}

// WithoutPixels returns a bounds-only twin of the amplifier.
func (a *UntrimmedAmplifier) WithoutPixels() *UntrimmedAmplifier {
	if !a.full.HasPixels() {
		return a
	}
	out := *a
	out.full = a.full.WithoutPixels()
	return &out
}

// Copy returns an amplifier sharing no pixel memory with the receiver.
func (a *UntrimmedAmplifier) Copy() *UntrimmedAmplifier {
	out := *a
	out.full = a.full.Copy()
	return &out
}

// TrimmedAmplifier is one amplifier's data section with overscan regions
// discarded. Freshly trimmed amplifiers are already in the canonical
// physical frame with orientation normalized; the physical transform is
// retained so a trimmed view of a not-yet-normalized amplifier can be
// assembled later without applying the flip twice.
type TrimmedAmplifier struct {
	id   int
	data ImageSection

	// physicalTransform maps the current frame into the assembled trimmed
	// mosaic. Identity once normalized.
	physicalTransform SectionTransform

	// Which side of the data box each discarded region was on, preserved
	// across flips for downstream readout-order reasoning.
	serialOverscanAtMin   bool
	parallelOverscanAtMin bool
	prescanAtMin          bool
}

// ID returns the amplifier's id.
func (a *TrimmedAmplifier) ID() int {
	return a.id
}

// Data returns the data section in the current frame.
func (a *TrimmedAmplifier) Data() ImageSection {
	return a.data
}

// Region returns the data section's bounding box.
func (a *TrimmedAmplifier) Region() geom.Box {
	return a.data.Region()
}

// HasPixels reports whether the amplifier carries pixel data.
func (a *TrimmedAmplifier) HasPixels() bool {
	return a.data.HasPixels()
}

// PhysicalTransform returns the transform still to be applied to place the
// amplifier in the assembled trimmed mosaic.
func (a *TrimmedAmplifier) PhysicalTransform() SectionTransform {
	return a.physicalTransform
}

// SerialOverscanBoundary returns the x coordinate of the data-box edge
// that was adjacent to the serial overscan before trimming.
func (a *TrimmedAmplifier) SerialOverscanBoundary() int {
	if a.serialOverscanAtMin {
		return a.data.Region().Min.X
	}
	return a.data.Region().Max().X
}

// ParallelOverscanBoundary returns the y coordinate of the data-box edge
// that was adjacent to the parallel overscan before trimming.
func (a *TrimmedAmplifier) ParallelOverscanBoundary() int {
	if a.parallelOverscanAtMin {
		return a.data.Region().Min.Y
	}
	return a.data.Region().Max().Y
}

// PrescanBoundary returns the x coordinate of the data-box edge that was
// adjacent to the prescan before trimming.
func (a *TrimmedAmplifier) PrescanBoundary() int {
	if a.prescanAtMin {
		return a.data.Region().Min.X
	}
	return a.data.Region().Max().X
}

// IntoPhysicalFrame returns the amplifier re-expressed in the assembled
// trimmed mosaic frame, with pixels flip-copied as needed. The result's
// PhysicalTransform is the identity.
func (a *TrimmedAmplifier) IntoPhysicalFrame() (*TrimmedAmplifier, error) {
	if a.physicalTransform.IsIdentity() {
		return a, nil
	}
	data, err := transformSection(a.data, a.physicalTransform)
	if err != nil {
		return nil, fmt.Errorf("amplifier %d: %w", a.id, err)
	}
	return &TrimmedAmplifier{
		id:                    a.id,
		data:                  data,
		physicalTransform:     IdentityTransform(a.physicalTransform.OutputBox),
		serialOverscanAtMin:   a.serialOverscanAtMin != a.physicalTransform.FlipX,
		parallelOverscanAtMin: a.parallelOverscanAtMin != a.physicalTransform.FlipY,
		prescanAtMin:          a.prescanAtMin != a.physicalTransform.FlipX,
	}, nil
}

// WithoutPixels returns a bounds-only twin of the amplifier.
func (a *TrimmedAmplifier) WithoutPixels() *TrimmedAmplifier {
	if !a.data.HasPixels() {
		return a
	}
	out := *a
	out.data = a.data.WithoutPixels()
	return &out
}

// Copy returns an amplifier sharing no pixel memory with the receiver.
func (a *TrimmedAmplifier) Copy() *TrimmedAmplifier {
	out := *a
	out.data = a.data.Copy()
	return &out
}

package ampimage

import (
	"fmt"

	"ampimages/pkg/geom"
)

// AmplifierGeometry is the static layout of one amplifier in a
// GeometryDescriptor. All local boxes are in the amplifier's own untrimmed
// readout frame, pre-flip; the placement boxes locate the amplifier in the
// assembled untrimmed and assembled trimmed mosaics.
type AmplifierGeometry struct {
	// ID identifies the amplifier within its detector.
	ID int

	// Name is an optional human-readable channel name.
	Name string

	// ReadoutBox is the full untrimmed local box, including overscan and
	// prescan regions.
	ReadoutBox geom.Box

	// DataBox is the illuminated data region inside ReadoutBox.
	DataBox geom.Box

	// SerialOverscanBox is the serial (horizontal) overscan region.
	SerialOverscanBox geom.Box

	// ParallelOverscanBox is the parallel (vertical) overscan region.
	ParallelOverscanBox geom.Box

	// PrescanBox is the serial prescan region.
	PrescanBox geom.Box

	// FlipX and FlipY record the amplifier's readout orientation relative
	// to the assembled detector. They are fixed for the amplifier's
	// lifetime and are normalized away exactly once, on assembly or trim.
	FlipX bool
	FlipY bool

	// UntrimmedPlacement locates ReadoutBox in the assembled untrimmed
	// (readout-frame) mosaic.
	UntrimmedPlacement geom.Box

	// TrimmedPlacement locates DataBox in the assembled trimmed
	// (physical-frame) mosaic.
	TrimmedPlacement geom.Box
}

// DetectorTransform returns the transform mapping the amplifier's local
// readout frame into the assembled untrimmed mosaic, flips included.
func (g AmplifierGeometry) DetectorTransform() SectionTransform {
	return SectionTransform{
		InputBox:  g.ReadoutBox,
		OutputBox: g.UntrimmedPlacement,
		FlipX:     g.FlipX,
		FlipY:     g.FlipY,
	}
}

// PhysicalTransform returns the transform mapping the amplifier's local
// data region into the assembled trimmed mosaic, flips included.
func (g AmplifierGeometry) PhysicalTransform() SectionTransform {
	return SectionTransform{
		InputBox:  g.DataBox,
		OutputBox: g.TrimmedPlacement,
		FlipX:     g.FlipX,
		FlipY:     g.FlipY,
	}
}

// GeometryDescriptor is the immutable per-instrument amplifier layout
// table. It is loaded once per instrument, validated eagerly, and then
// referenced (never owned) by every amplifier and amplifier set built from
// it. The slice order of the input geometries is the canonical serial
// order used for iteration everywhere in this package.
type GeometryDescriptor struct {
	amps         []AmplifierGeometry
	indexByID    map[int]int
	untrimmedBox geom.Box
	trimmedBox   geom.Box
}

// NewGeometryDescriptor validates and freezes an amplifier layout.
//
// Validation is eager and complete: local sub-boxes must lie inside their
// readout box (ErrOutOfBounds), placement boxes must match their local
// extents (ErrShapeMismatch), untrimmed placements must be pairwise
// disjoint, and trimmed placements must exactly tile the trimmed detector
// box with no gaps and no overlaps (ErrOverlapViolation).
func NewGeometryDescriptor(amps []AmplifierGeometry) (*GeometryDescriptor, error) {
	if len(amps) == 0 {
		return nil, fmt.Errorf("descriptor needs at least one amplifier: %w", ErrIncompleteAmplifierSet)
	}
	d := &GeometryDescriptor{
		amps:      append([]AmplifierGeometry(nil), amps...),
		indexByID: make(map[int]int, len(amps)),
	}
	for i, g := range d.amps {
		if _, dup := d.indexByID[g.ID]; dup {
			return nil, fmt.Errorf("amplifier id %d appears twice: %w", g.ID, ErrOverlapViolation)
		}
		d.indexByID[g.ID] = i
		if err := validateAmplifierGeometry(g); err != nil {
			return nil, err
		}
		d.untrimmedBox = d.untrimmedBox.Union(g.UntrimmedPlacement)
		d.trimmedBox = d.trimmedBox.Union(g.TrimmedPlacement)
	}
	// Invariant (a): untrimmed placements never overlap. Invariant (b):
	// trimmed placements tile the detector exactly.
	trimmedArea := 0
	for i, g := range d.amps {
		trimmedArea += g.TrimmedPlacement.Area()
		for _, h := range d.amps[i+1:] {
			if g.UntrimmedPlacement.Overlaps(h.UntrimmedPlacement) {
				return nil, fmt.Errorf("untrimmed placements of amplifiers %d and %d overlap: %w",
					g.ID, h.ID, ErrOverlapViolation)
			}
			if g.TrimmedPlacement.Overlaps(h.TrimmedPlacement) {
				return nil, fmt.Errorf("trimmed placements of amplifiers %d and %d overlap: %w",
					g.ID, h.ID, ErrOverlapViolation)
			}
		}
	}
	if trimmedArea != d.trimmedBox.Area() {
		return nil, fmt.Errorf("trimmed placements cover %d of %d detector pixels: %w",
			trimmedArea, d.trimmedBox.Area(), ErrOverlapViolation)
	}
	return d, nil
}

func validateAmplifierGeometry(g AmplifierGeometry) error {
	if g.DataBox.Empty() || g.ReadoutBox.Empty() {
		return fmt.Errorf("amplifier %d has an empty readout or data box: %w", g.ID, ErrShapeMismatch)
	}
	for _, sub := range []struct {
		name string
		box  geom.Box
	}{
		{"data", g.DataBox},
		{"serial overscan", g.SerialOverscanBox},
		{"parallel overscan", g.ParallelOverscanBox},
		{"prescan", g.PrescanBox},
	} {
		if !g.ReadoutBox.ContainsBox(sub.box) {
			return fmt.Errorf("amplifier %d %s box %v escapes readout box %v: %w",
				g.ID, sub.name, sub.box, g.ReadoutBox, ErrOutOfBounds)
		}
		if sub.name != "data" && sub.box.Overlaps(g.DataBox) {
			return fmt.Errorf("amplifier %d %s box %v overlaps data box %v: %w",
				g.ID, sub.name, sub.box, g.DataBox, ErrOverlapViolation)
		}
	}
	if g.UntrimmedPlacement.Size != g.ReadoutBox.Size {
		return fmt.Errorf("amplifier %d untrimmed placement %v does not match readout box %v: %w",
			g.ID, g.UntrimmedPlacement, g.ReadoutBox, ErrShapeMismatch)
	}
	if g.TrimmedPlacement.Size != g.DataBox.Size {
		return fmt.Errorf("amplifier %d trimmed placement %v does not match data box %v: %w",
			g.ID, g.TrimmedPlacement, g.DataBox, ErrShapeMismatch)
	}
	return nil
}

// NumAmplifiers returns the number of amplifiers in the detector.
func (d *GeometryDescriptor) NumAmplifiers() int {
	return len(d.amps)
}

// Amplifiers returns the amplifier geometries in canonical serial order.
// The returned slice is a copy.
func (d *GeometryDescriptor) Amplifiers() []AmplifierGeometry {
	return append([]AmplifierGeometry(nil), d.amps...)
}

// IDs returns the amplifier ids in canonical serial order.
func (d *GeometryDescriptor) IDs() []int {
	ids := make([]int, len(d.amps))
	for i, g := range d.amps {
		ids[i] = g.ID
	}
	return ids
}

// Amplifier returns the geometry for the given amplifier id.
func (d *GeometryDescriptor) Amplifier(id int) (AmplifierGeometry, error) {
	i, ok := d.indexByID[id]
	if !ok {
		return AmplifierGeometry{}, fmt.Errorf("amplifier %d: %w", id, ErrUnknownAmplifierID)
	}
	return d.amps[i], nil
}

// UntrimmedBox returns the bounding box of the assembled untrimmed mosaic.
func (d *GeometryDescriptor) UntrimmedBox() geom.Box {
	return d.untrimmedBox
}

// TrimmedBox returns the bounding box of the assembled trimmed detector.
func (d *GeometryDescriptor) TrimmedBox() geom.Box {
	return d.trimmedBox
}

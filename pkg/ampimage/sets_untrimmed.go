package ampimage

import (
	"fmt"
)

// UnassembledUntrimmedSet holds independent untrimmed per-amplifier
// buffers. It may be any non-empty subset of the detector's amplifiers;
// partial sets are first-class (a loader that was asked for one amplifier
// produces a one-element set).
type UnassembledUntrimmedSet struct {
	desc *GeometryDescriptor
	amps map[int]*UntrimmedAmplifier
}

// NewUnassembledUntrimmedSet builds a set from raw loader output: a map of
// amplifier id to optional planes in untrimmed readout coordinates,
// pre-flip. A nil planes entry produces a bounds-only amplifier. The map
// must be non-empty and every id must exist in the descriptor.
func NewUnassembledUntrimmedSet(desc *GeometryDescriptor, raw map[int]*Planes) (*UnassembledUntrimmedSet, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("no amplifiers supplied: %w", ErrIncompleteAmplifierSet)
	}
	amps := make(map[int]*UntrimmedAmplifier, len(raw))
	for id, planes := range raw {
		amp, err := NewUntrimmedAmplifier(desc, id, planes)
		if err != nil {
			return nil, err
		}
		amps[id] = amp
	}
	return &UnassembledUntrimmedSet{desc: desc, amps: amps}, nil
}

// newUnassembledUntrimmedSet wraps already-built amplifiers.
func newUnassembledUntrimmedSet(desc *GeometryDescriptor, amps map[int]*UntrimmedAmplifier) *UnassembledUntrimmedSet {
	return &UnassembledUntrimmedSet{desc: desc, amps: amps}
}

// Descriptor returns the geometry descriptor the set was built from.
func (s *UnassembledUntrimmedSet) Descriptor() *GeometryDescriptor {
	return s.desc
}

// Len returns the number of amplifiers present.
func (s *UnassembledUntrimmedSet) Len() int {
	return len(s.amps)
}

// IsComplete reports whether every amplifier the descriptor requires is
// present.
func (s *UnassembledUntrimmedSet) IsComplete() bool {
	return len(s.amps) == s.desc.NumAmplifiers()
}

// Amplifier returns the amplifier with the given id.
func (s *UnassembledUntrimmedSet) Amplifier(id int) (*UntrimmedAmplifier, error) {
	if amp, ok := s.amps[id]; ok {
		return amp, nil
	}
	if _, err := s.desc.Amplifier(id); err != nil {
		return nil, err
	}
	return nil, fmt.Errorf("amplifier %d not present in this set: %w", id, ErrUnknownAmplifierID)
}

// Amplifiers returns the present amplifiers in the descriptor's canonical
// serial order, regardless of construction order.
func (s *UnassembledUntrimmedSet) Amplifiers() []*UntrimmedAmplifier {
	out := make([]*UntrimmedAmplifier, 0, len(s.amps))
	for _, id := range s.desc.IDs() {
		if amp, ok := s.amps[id]; ok {
			out = append(out, amp)
		}
	}
	return out
}

// missingIDs lists descriptor amplifiers absent from the set.
func (s *UnassembledUntrimmedSet) missingIDs() []int {
	var missing []int
	for _, id := range s.desc.IDs() {
		if _, ok := s.amps[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing
}

// TrimEach trims every amplifier independently, producing an unassembled
// trimmed set. No shared buffer is required, so partial sets trim fine.
func (s *UnassembledUntrimmedSet) TrimEach() (*UnassembledTrimmedSet, error) {
	amps := make(map[int]*TrimmedAmplifier, len(s.amps))
	for id, amp := range s.amps {
		trimmed, err := amp.Trim()
		if err != nil {
			return nil, err
		}
		amps[id] = trimmed
	}
	return &UnassembledTrimmedSet{desc: s.desc, amps: amps}, nil
}

// AssembleIntoUntrimmed composes the amplifiers into one shared buffer
// sized to the descriptor's full untrimmed mosaic, flip-normalizing each
// amplifier into its placement box. Completeness is a strict precondition:
// a missing amplifier fails with ErrIncompleteAmplifierSet rather than
// zero-filling its region.
func (s *UnassembledUntrimmedSet) AssembleIntoUntrimmed() (*AssembledUntrimmedSet, error) {
	if !s.IsComplete() {
		return nil, fmt.Errorf("amplifiers %v are absent: %w", s.missingIDs(), ErrIncompleteAmplifierSet)
	}
	ordered := s.Amplifiers()
	sections := make([]ImageSection, len(ordered))
	for i, amp := range ordered {
		sections[i] = amp.Full()
	}
	profile, err := commonProfile(sections)
	if err != nil {
		return nil, err
	}

	views := make(map[int]*UntrimmedAmplifier, len(ordered))
	if !profile.pixels {
		// A geometry-only set assembles to a geometry-only mosaic.
		for _, amp := range ordered {
			g := amp.Geometry()
			views[g.ID] = newUntrimmedAmplifierView(g, NewBoundsOnlySection(g.UntrimmedPlacement))
		}
		return &AssembledUntrimmedSet{
			desc:     s.desc,
			detector: NewBoundsOnlySection(s.desc.UntrimmedBox()),
			amps:     views,
		}, nil
	}

	buf := NewBuffer(s.desc.UntrimmedBox(), profile.mask, profile.variance)
	jobs := make([]assembleJob, len(ordered))
	for i, amp := range ordered {
		jobs[i] = assembleJob{
			id:  amp.ID(),
			src: amp.Full().(*PixelSection),
			t:   amp.DetectorTransform(),
		}
	}
	if err := runAssembly(buf, jobs); err != nil {
		return nil, err
	}
	for _, amp := range ordered {
		g := amp.Geometry()
		full, err := buf.Section(g.UntrimmedPlacement)
		if err != nil {
			return nil, err
		}
		views[g.ID] = newUntrimmedAmplifierView(g, full)
	}
	return &AssembledUntrimmedSet{desc: s.desc, detector: buf.Whole(), amps: views}, nil
}

// AssembleIntoTrimmed runs the trim-each-then-assemble path to a fully
// assembled trimmed detector. By construction it yields bit-identical
// pixels to AssembleIntoUntrimmed followed by Trim.
func (s *UnassembledUntrimmedSet) AssembleIntoTrimmed() (*AssembledTrimmedSet, error) {
	trimmed, err := s.TrimEach()
	if err != nil {
		return nil, err
	}
	return trimmed.Assemble()
}

// WithoutPixels returns a bounds-only twin of the set.
func (s *UnassembledUntrimmedSet) WithoutPixels() *UnassembledUntrimmedSet {
	amps := make(map[int]*UntrimmedAmplifier, len(s.amps))
	for id, amp := range s.amps {
		amps[id] = amp.WithoutPixels()
	}
	return newUnassembledUntrimmedSet(s.desc, amps)
}

// Copy returns a set sharing no pixel memory with the receiver.
func (s *UnassembledUntrimmedSet) Copy() *UnassembledUntrimmedSet {
	amps := make(map[int]*UntrimmedAmplifier, len(s.amps))
	for id, amp := range s.amps {
		amps[id] = amp.Copy()
	}
	return newUnassembledUntrimmedSet(s.desc, amps)
}

// AssembledUntrimmedSet is a complete detector's untrimmed amplifiers
// composed into one shared mosaic buffer. Every contained amplifier's
// sections are non-owning views into that buffer, already in mosaic
// coordinates with orientation normalized. The set owns the buffer; views
// never outlive it.
type AssembledUntrimmedSet struct {
	desc     *GeometryDescriptor
	detector ImageSection
	amps     map[int]*UntrimmedAmplifier
}

// NewAssembledUntrimmedSet builds the set directly from raw loader output.
// All descriptor amplifiers must be present.
func NewAssembledUntrimmedSet(desc *GeometryDescriptor, raw map[int]*Planes) (*AssembledUntrimmedSet, error) {
	unassembled, err := NewUnassembledUntrimmedSet(desc, raw)
	if err != nil {
		return nil, err
	}
	return unassembled.AssembleIntoUntrimmed()
}

// Descriptor returns the geometry descriptor the set was built from.
func (s *AssembledUntrimmedSet) Descriptor() *GeometryDescriptor {
	return s.desc
}

// Len returns the number of amplifiers, always the full complement.
func (s *AssembledUntrimmedSet) Len() int {
	return len(s.amps)
}

// IsComplete always reports true; assembly requires completeness.
func (s *AssembledUntrimmedSet) IsComplete() bool {
	return true
}

// Detector returns the full untrimmed mosaic section.
func (s *AssembledUntrimmedSet) Detector() ImageSection {
	return s.detector
}

// DetectorPlanes exports the shared buffer's planes for downstream
// consumers. The slices alias the set's buffer.
func (s *AssembledUntrimmedSet) DetectorPlanes() (Planes, error) {
	return s.detector.Pixels()
}

// Amplifier returns the amplifier view with the given id.
func (s *AssembledUntrimmedSet) Amplifier(id int) (*UntrimmedAmplifier, error) {
	amp, ok := s.amps[id]
	if !ok {
		return nil, fmt.Errorf("amplifier %d: %w", id, ErrUnknownAmplifierID)
	}
	return amp, nil
}

// Amplifiers returns the amplifier views in canonical serial order.
func (s *AssembledUntrimmedSet) Amplifiers() []*UntrimmedAmplifier {
	out := make([]*UntrimmedAmplifier, 0, len(s.amps))
	for _, id := range s.desc.IDs() {
		out = append(out, s.amps[id])
	}
	return out
}

// Trim crops every amplifier to its data region and copies it into the
// trimmed placement of a newly allocated physical-frame buffer, dropping
// the overscan regions. Orientation was already normalized during
// assembly, so each copy is a pure translation.
func (s *AssembledUntrimmedSet) Trim() (*AssembledTrimmedSet, error) {
	ordered := s.Amplifiers()
	trimmedViews := make([]*TrimmedAmplifier, len(ordered))
	for i, amp := range ordered {
		tv, err := amp.trimmedView()
		if err != nil {
			return nil, fmt.Errorf("amplifier %d: %w", amp.ID(), err)
		}
		trimmedViews[i] = tv
	}

	if !s.detector.HasPixels() {
		amps := make(map[int]*TrimmedAmplifier, len(ordered))
		for _, tv := range trimmedViews {
			normalized, err := tv.IntoPhysicalFrame()
			if err != nil {
				return nil, err
			}
			amps[normalized.ID()] = normalized
		}
		return &AssembledTrimmedSet{
			desc:     s.desc,
			detector: NewBoundsOnlySection(s.desc.TrimmedBox()),
			amps:     amps,
		}, nil
	}

	whole := s.detector.(*PixelSection)
	buf := NewBuffer(s.desc.TrimmedBox(), whole.buf.HasMask(), whole.buf.HasVariance())
	jobs := make([]assembleJob, len(trimmedViews))
	for i, tv := range trimmedViews {
		jobs[i] = assembleJob{id: tv.ID(), src: tv.Data().(*PixelSection), t: tv.PhysicalTransform()}
	}
	if err := runAssembly(buf, jobs); err != nil {
		return nil, err
	}
	amps := make(map[int]*TrimmedAmplifier, len(trimmedViews))
	for _, tv := range trimmedViews {
		t := tv.PhysicalTransform()
		data, err := buf.Section(t.OutputBox)
		if err != nil {
			return nil, err
		}
		amps[tv.ID()] = &TrimmedAmplifier{
			id:                    tv.ID(),
			data:                  data,
			physicalTransform:     IdentityTransform(t.OutputBox),
			serialOverscanAtMin:   tv.serialOverscanAtMin != t.FlipX,
			parallelOverscanAtMin: tv.parallelOverscanAtMin != t.FlipY,
			prescanAtMin:          tv.prescanAtMin != t.FlipX,
		}
	}
	return &AssembledTrimmedSet{desc: s.desc, detector: buf.Whole(), amps: amps}, nil
}

// Disassemble returns an unassembled set whose amplifiers are independent
// copies of the shared buffer's regions, restored to their local readout
// frames. Mutating the result never affects the receiver and vice versa,
// and assembling it again reproduces the receiver's pixels exactly.
func (s *AssembledUntrimmedSet) Disassemble() (*UnassembledUntrimmedSet, error) {
	amps := make(map[int]*UntrimmedAmplifier, len(s.amps))
	for id, amp := range s.amps {
		local, err := amp.IntoLocalFrame()
		if err != nil {
			return nil, err
		}
		if local == amp {
			// Identity placement with no flip still needs an isolating copy
			// so the result cannot alias the shared buffer.
			local = amp.Copy()
		}
		amps[id] = local
	}
	return newUnassembledUntrimmedSet(s.desc, amps), nil
}

// WithoutPixels returns a bounds-only twin of the set.
func (s *AssembledUntrimmedSet) WithoutPixels() *AssembledUntrimmedSet {
	if !s.detector.HasPixels() {
		return s
	}
	amps := make(map[int]*UntrimmedAmplifier, len(s.amps))
	for id, amp := range s.amps {
		amps[id] = amp.WithoutPixels()
	}
	return &AssembledUntrimmedSet{desc: s.desc, detector: s.detector.WithoutPixels(), amps: amps}
}

// Copy returns a set with a deep-copied shared buffer and fresh views.
func (s *AssembledUntrimmedSet) Copy() (*AssembledUntrimmedSet, error) {
	if !s.detector.HasPixels() {
		return s, nil
	}
	buf := s.detector.(*PixelSection).buf.Clone()
	amps := make(map[int]*UntrimmedAmplifier, len(s.amps))
	for id, amp := range s.amps {
		full, err := buf.Section(amp.Geometry().UntrimmedPlacement)
		if err != nil {
			return nil, err
		}
		amps[id] = newUntrimmedAmplifierView(amp.Geometry(), full)
	}
	return &AssembledUntrimmedSet{desc: s.desc, detector: buf.Whole(), amps: amps}, nil
}

package ampimage

import (
	"fmt"
)

// UnassembledTrimmedSet holds independent trimmed per-amplifier sections,
// each already re-expressed in the canonical physical frame with its
// orientation normalized. It may be a partial subset of the detector.
type UnassembledTrimmedSet struct {
	desc *GeometryDescriptor
	amps map[int]*TrimmedAmplifier
}

// NewUnassembledTrimmedSet builds a trimmed set from raw loader output in
// untrimmed readout coordinates, trimming each amplifier on the way in. A
// nil planes entry produces a bounds-only amplifier.
func NewUnassembledTrimmedSet(desc *GeometryDescriptor, raw map[int]*Planes) (*UnassembledTrimmedSet, error) {
	untrimmed, err := NewUnassembledUntrimmedSet(desc, raw)
	if err != nil {
		return nil, err
	}
	return untrimmed.TrimEach()
}

// Descriptor returns the geometry descriptor the set was built from.
func (s *UnassembledTrimmedSet) Descriptor() *GeometryDescriptor {
	return s.desc
}

// Len returns the number of amplifiers present.
func (s *UnassembledTrimmedSet) Len() int {
	return len(s.amps)
}

// IsComplete reports whether every amplifier the descriptor requires is
// present.
func (s *UnassembledTrimmedSet) IsComplete() bool {
	return len(s.amps) == s.desc.NumAmplifiers()
}

// Amplifier returns the amplifier with the given id.
func (s *UnassembledTrimmedSet) Amplifier(id int) (*TrimmedAmplifier, error) {
	if amp, ok := s.amps[id]; ok {
		return amp, nil
	}
	if _, err := s.desc.Amplifier(id); err != nil {
		return nil, err
	}
	return nil, fmt.Errorf("amplifier %d not present in this set: %w", id, ErrUnknownAmplifierID)
}

// Amplifiers returns the present amplifiers in canonical serial order.
func (s *UnassembledTrimmedSet) Amplifiers() []*TrimmedAmplifier {
	out := make([]*TrimmedAmplifier, 0, len(s.amps))
	for _, id := range s.desc.IDs() {
		if amp, ok := s.amps[id]; ok {
			out = append(out, amp)
		}
	}
	return out
}

func (s *UnassembledTrimmedSet) missingIDs() []int {
	var missing []int
	for _, id := range s.desc.IDs() {
		if _, ok := s.amps[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing
}

// Assemble composes the trimmed amplifiers into one shared buffer tiling
// the full physical detector. Completeness is a strict precondition.
func (s *UnassembledTrimmedSet) Assemble() (*AssembledTrimmedSet, error) {
	if !s.IsComplete() {
		return nil, fmt.Errorf("amplifiers %v are absent: %w", s.missingIDs(), ErrIncompleteAmplifierSet)
	}
	ordered := s.Amplifiers()
	sections := make([]ImageSection, len(ordered))
	for i, amp := range ordered {
		sections[i] = amp.Data()
	}
	profile, err := commonProfile(sections)
	if err != nil {
		return nil, err
	}

	amps := make(map[int]*TrimmedAmplifier, len(ordered))
	if !profile.pixels {
		for _, amp := range ordered {
			normalized, err := amp.IntoPhysicalFrame()
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

	buf := NewBuffer(s.desc.TrimmedBox(), profile.mask, profile.variance)
	jobs := make([]assembleJob, len(ordered))
	for i, amp := range ordered {
		jobs[i] = assembleJob{id: amp.ID(), src: amp.Data().(*PixelSection), t: amp.PhysicalTransform()}
	}
	if err := runAssembly(buf, jobs); err != nil {
		return nil, err
	}
	for _, amp := range ordered {
		t := amp.PhysicalTransform()
		data, err := buf.Section(t.OutputBox)
		if err != nil {
			return nil, err
		}
		amps[amp.ID()] = &TrimmedAmplifier{
			id:                    amp.ID(),
			data:                  data,
			physicalTransform:     IdentityTransform(t.OutputBox),
			serialOverscanAtMin:   amp.serialOverscanAtMin != t.FlipX,
			parallelOverscanAtMin: amp.parallelOverscanAtMin != t.FlipY,
			prescanAtMin:          amp.prescanAtMin != t.FlipX,
		}
	}
	return &AssembledTrimmedSet{desc: s.desc, detector: buf.Whole(), amps: amps}, nil
}

// WithoutPixels returns a bounds-only twin of the set.
func (s *UnassembledTrimmedSet) WithoutPixels() *UnassembledTrimmedSet {
	amps := make(map[int]*TrimmedAmplifier, len(s.amps))
	for id, amp := range s.amps {
		amps[id] = amp.WithoutPixels()
	}
	return &UnassembledTrimmedSet{desc: s.desc, amps: amps}
}

// Copy returns a set sharing no pixel memory with the receiver.
func (s *UnassembledTrimmedSet) Copy() *UnassembledTrimmedSet {
	amps := make(map[int]*TrimmedAmplifier, len(s.amps))
	for id, amp := range s.amps {
		amps[id] = amp.Copy()
	}
	return &UnassembledTrimmedSet{desc: s.desc, amps: amps}
}

// AssembledTrimmedSet is the fully assembled physical detector image: one
// shared buffer that the amplifiers' data sections tile exactly, with no
// gaps and no overlaps. It is the terminal state of the transition graph.
type AssembledTrimmedSet struct {
	desc     *GeometryDescriptor
	detector ImageSection
	amps     map[int]*TrimmedAmplifier
}

// NewAssembledTrimmedSet builds the set directly from raw loader output in
// untrimmed readout coordinates. All descriptor amplifiers must be
// present.
func NewAssembledTrimmedSet(desc *GeometryDescriptor, raw map[int]*Planes) (*AssembledTrimmedSet, error) {
	trimmed, err := NewUnassembledTrimmedSet(desc, raw)
	if err != nil {
		return nil, err
	}
	return trimmed.Assemble()
}

// Descriptor returns the geometry descriptor the set was built from.
func (s *AssembledTrimmedSet) Descriptor() *GeometryDescriptor {
	return s.desc
}

// Len returns the number of amplifiers, always the full complement.
func (s *AssembledTrimmedSet) Len() int {
	return len(s.amps)
}

// IsComplete always reports true; assembly requires completeness.
func (s *AssembledTrimmedSet) IsComplete() bool {
	return true
}

// Detector returns the full physical detector section.
func (s *AssembledTrimmedSet) Detector() ImageSection {
	return s.detector
}

// DetectorPlanes exports the shared buffer's planes for downstream
// consumers (exposure construction, display). The slices alias the set's
// buffer.
func (s *AssembledTrimmedSet) DetectorPlanes() (Planes, error) {
	return s.detector.Pixels()
}

// Amplifier returns the amplifier view with the given id.
func (s *AssembledTrimmedSet) Amplifier(id int) (*TrimmedAmplifier, error) {
	amp, ok := s.amps[id]
	if !ok {
		return nil, fmt.Errorf("amplifier %d: %w", id, ErrUnknownAmplifierID)
	}
	return amp, nil
}

// Amplifiers returns the amplifier views in canonical serial order.
func (s *AssembledTrimmedSet) Amplifiers() []*TrimmedAmplifier {
	out := make([]*TrimmedAmplifier, 0, len(s.amps))
	for _, id := range s.desc.IDs() {
		out = append(out, s.amps[id])
	}
	return out
}

// WithoutPixels returns a bounds-only twin of the set.
func (s *AssembledTrimmedSet) WithoutPixels() *AssembledTrimmedSet {
	if !s.detector.HasPixels() {
		return s
	}
	amps := make(map[int]*TrimmedAmplifier, len(s.amps))
	for id, amp := range s.amps {
		amps[id] = amp.WithoutPixels()
	}
	return &AssembledTrimmedSet{desc: s.desc, detector: s.detector.WithoutPixels(), amps: amps}
}

// Copy returns a set with a deep-copied shared buffer and fresh views.
func (s *AssembledTrimmedSet) Copy() (*AssembledTrimmedSet, error) {
	if !s.detector.HasPixels() {
		return s, nil
	}
	buf := s.detector.(*PixelSection).buf.Clone()
	amps := make(map[int]*TrimmedAmplifier, len(s.amps))
	for id, amp := range s.amps {
		data, err := buf.Section(amp.Region())
		if err != nil {
			return nil, err
		}
		copied := *amp
		copied.data = data
		amps[id] = &copied
	}
	return &AssembledTrimmedSet{desc: s.desc, detector: buf.Whole(), amps: amps}, nil
}

package ampimage

import (
	"fmt"
	"sync"
)

// planeProfile records which pixel planes a group of amplifiers carries.
// Assembly requires every amplifier in a set to agree on this, so a shared
// buffer with one plane layout can back them all.
type planeProfile struct {
	pixels   bool
	mask     bool
	variance bool
}

func sectionProfile(s ImageSection) planeProfile {
	ps, ok := s.(*PixelSection)
	if !ok {
		return planeProfile{}
	}
	return planeProfile{pixels: true, mask: ps.buf.HasMask(), variance: ps.buf.HasVariance()}
}

// commonProfile returns the plane profile shared by all sections, or an
// ErrShapeMismatch when they disagree.
func commonProfile(sections []ImageSection) (planeProfile, error) {
	profile := sectionProfile(sections[0])
	for _, s := range sections[1:] {
		if sectionProfile(s) != profile {
			return planeProfile{}, fmt.Errorf(
				"amplifiers disagree on which pixel planes are present: %w", ErrShapeMismatch)
		}
	}
	return profile, nil
}

// assembleJob is one amplifier's copy into a shared buffer.
type assembleJob struct {
	id  int
	src *PixelSection
	t   SectionTransform
}

// runAssembly executes all copy jobs against dst, fanning the amplifiers
// out over goroutines. The jobs write disjoint regions of dst (descriptor
// validation guarantees non-overlapping placements), so they need no
// coordination beyond the final join.
func runAssembly(dst *Buffer, jobs []assembleJob) error {
	errs := make([]error, len(jobs))
	var wg sync.WaitGroup
	for i, job := range jobs {
		wg.Add(1)
		go func(i int, job assembleJob) {
			defer wg.Done()
			if err := copyTransformed(dst, job.src, job.t); err != nil {
				errs[i] = fmt.Errorf("amplifier %d: %w", job.id, err)
			}
		}(i, job)
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

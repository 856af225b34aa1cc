package ampimage

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// PlaneStats summarizes one pixel plane. The values are purely
// descriptive; this package never applies calibration math.
type PlaneStats struct {
	// N is the number of pixels summarized.
	N int

	// Mean is the arithmetic mean of the pixel values.
	Mean float64

	// StdDev is the sample standard deviation of the pixel values.
	StdDev float64

	// Min and Max are the extreme pixel values.
	Min float64
	Max float64
}

// SectionStats computes descriptive statistics over a section's image
// plane, typically used to inspect overscan levels or sanity-check an
// assembled mosaic. It fails with ErrMissingPixelData on a bounds-only
// section.
func SectionStats(s ImageSection) (PlaneStats, error) {
	planes, err := s.Pixels()
	if err != nil {
		return PlaneStats{}, err
	}
	return computeStats(planes.Image), nil
}

func computeStats(values []float64) PlaneStats {
	if len(values) == 0 {
		return PlaneStats{}
	}
	return PlaneStats{
		N:      len(values),
		Mean:   stat.Mean(values, nil),
		StdDev: stat.StdDev(values, nil),
		Min:    floats.Min(values),
		Max:    floats.Max(values),
	}
}

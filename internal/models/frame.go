package models

// RawAmplifierFrame is one amplifier's readout as delivered by a raw-data
// loader: flat row-major planes in untrimmed readout coordinates, with the
// readout orientation not yet normalized.
type RawAmplifierFrame struct {
	// ID is the amplifier id the frame belongs to.
	ID int

	// Width and Height are the untrimmed readout dimensions in pixels.
	Width  int
	Height int

	// Image is the pixel data, row-major, length Width*Height.
	Image []float64

	// Mask is the optional per-pixel mask plane, same shape as Image.
	Mask []uint32

	// Variance is the optional per-pixel variance plane, same shape as Image.
	Variance []float64
}

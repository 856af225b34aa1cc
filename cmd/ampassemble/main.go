package main

import (
	"encoding/binary"
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"

	"gonum.org/v1/gonum/floats"

	"ampimages/internal/models"
	"ampimages/pkg/ampimage"
	"ampimages/pkg/config"
)

func main() {
	// Parse command line arguments
	descriptorPath := flag.String("descriptor", "descriptor.yaml", "YAML detector geometry descriptor")
	inputDir := flag.String("input", "", "Directory containing raw per-amplifier frames (amp_<id>.raw, float64 LE); synthetic data is generated when empty")
	outputPath := flag.String("output", "assembled.raw", "Output file for the trimmed detector image (float64 LE)")
	writeDescriptor := flag.Bool("write-descriptor", false, "Write the default descriptor to -descriptor and exit")
	flag.Parse()

	if *writeDescriptor {
		if err := config.CreateDefaultDescriptorFile(*descriptorPath); err != nil {
			log.Fatalf("Failed to write descriptor: %v", err)
		}
		fmt.Printf("Default descriptor written to: %s\n", *descriptorPath)
		return
	}

	fmt.Println("================================")
	fmt.Println("AMPLIFIER MOSAIC ASSEMBLY AND TRIM")
	fmt.Println("================================")

	// Step 1: Load the detector geometry
	fmt.Println("Step 1: Loading geometry descriptor...")
	desc, err := config.LoadDescriptor(*descriptorPath)
	if err != nil {
		log.Fatalf("Failed to load descriptor: %v", err)
	}
	fmt.Printf("Detector has %d amplifiers; untrimmed mosaic %v, trimmed detector %v\n",
		desc.NumAmplifiers(), desc.UntrimmedBox(), desc.TrimmedBox())

	// Step 2: Load or synthesize raw per-amplifier frames
	fmt.Println("Step 2: Loading raw amplifier frames...")
	raw := make(map[int]*ampimage.Planes, desc.NumAmplifiers())
	for _, g := range desc.Amplifiers() {
		var frame *models.RawAmplifierFrame
		if *inputDir != "" {
			frame, err = loadRawFrame(*inputDir, g.ID, g.ReadoutBox.Size.Width, g.ReadoutBox.Size.Height)
			if err != nil {
				log.Fatalf("Failed to load amplifier %d: %v", g.ID, err)
			}
		} else {
			frame = syntheticFrame(g.ID, g.ReadoutBox.Size.Width, g.ReadoutBox.Size.Height)
		}
		raw[g.ID] = &ampimage.Planes{Image: frame.Image, Mask: frame.Mask, Variance: frame.Variance}
	}

	// Step 3: Assemble the untrimmed mosaic
	fmt.Println("Step 3: Assembling untrimmed mosaic...")
	unassembled, err := ampimage.NewUnassembledUntrimmedSet(desc, raw)
	if err != nil {
		log.Fatalf("Failed to build amplifier set: %v", err)
	}
	assembled, err := unassembled.AssembleIntoUntrimmed()
	if err != nil {
		log.Fatalf("Assembly failed: %v", err)
	}

	// Step 4: Trim to the physical detector image
	fmt.Println("Step 4: Trimming overscan regions...")
	trimmed, err := assembled.Trim()
	if err != nil {
		log.Fatalf("Trim failed: %v", err)
	}

	// Step 5: Cross-check against the trim-each-then-assemble path
	fmt.Println("Step 5: Cross-checking trim/assemble commutativity...")
	alt, err := unassembled.AssembleIntoTrimmed()
	if err != nil {
		log.Fatalf("Trim-then-assemble path failed: %v", err)
	}
	want, _ := trimmed.DetectorPlanes()
	got, _ := alt.DetectorPlanes()
	if !floats.Equal(want.Image, got.Image) {
		log.Fatalf("Assembly paths disagree; descriptor %s is inconsistent", *descriptorPath)
	}
	fmt.Println("Both assembly orders produced identical pixels.")

	// Step 6: Report per-amplifier statistics
	fmt.Println("\nPer-amplifier statistics:")
	for _, amp := range assembled.Amplifiers() {
		dataStats, err := ampimage.SectionStats(amp.Data())
		if err != nil {
			log.Fatalf("Stats failed for amplifier %d: %v", amp.ID(), err)
		}
		osStats, err := ampimage.SectionStats(amp.SerialOverscan())
		if err != nil {
			log.Fatalf("Stats failed for amplifier %d: %v", amp.ID(), err)
		}
		fmt.Printf("  amp %d: data mean=%.3f sd=%.3f [%.3f, %.3f]; serial overscan mean=%.3f\n",
			amp.ID(), dataStats.Mean, dataStats.StdDev, dataStats.Min, dataStats.Max, osStats.Mean)
	}
	detStats, err := ampimage.SectionStats(trimmed.Detector())
	if err != nil {
		log.Fatalf("Detector stats failed: %v", err)
	}
	fmt.Printf("Trimmed detector: %d px, mean=%.3f sd=%.3f [%.3f, %.3f]\n",
		detStats.N, detStats.Mean, detStats.StdDev, detStats.Min, detStats.Max)

	// Step 7: Write the trimmed detector image
	if err := writeImage(*outputPath, want.Image); err != nil {
		log.Fatalf("Failed to write output: %v", err)
	}
	fmt.Printf("\nTrimmed detector image saved to: %s\n", *outputPath)
}

// loadRawFrame reads one amplifier's flat float64 little-endian image
// plane from <dir>/amp_<id>.raw.
func loadRawFrame(dir string, id, width, height int) (*models.RawAmplifierFrame, error) {
	path := filepath.Join(dir, fmt.Sprintf("amp_%d.raw", id))
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	image := make([]float64, width*height)
	if err := binary.Read(f, binary.LittleEndian, image); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return &models.RawAmplifierFrame{ID: id, Width: width, Height: height, Image: image}, nil
}

// syntheticFrame builds a deterministic gradient pattern so the tool can
// demonstrate the pipeline without input data.
func syntheticFrame(id, width, height int) *models.RawAmplifierFrame {
	image := make([]float64, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			image[y*width+x] = float64(id*1000) + float64(y)*10 + float64(x)
		}
	}
	return &models.RawAmplifierFrame{ID: id, Width: width, Height: height, Image: image}
}

// writeImage writes a flat float64 little-endian image plane.
func writeImage(path string, image []float64) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	buf := make([]byte, 8*len(image))
	for i, v := range image {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(v))
	}
	_, err = f.Write(buf)
	return err
}

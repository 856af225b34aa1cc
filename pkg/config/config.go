// Package config provides loading and saving of detector geometry
// descriptions for ampimages. It handles YAML descriptor files and
// provides a built-in default layout for experimentation.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"ampimages/pkg/ampimage"
	"ampimages/pkg/geom"
)

// BoxConfig is an integer rectangle as written in descriptor files.
type BoxConfig struct {
	X      int `yaml:"x"`
	Y      int `yaml:"y"`
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// Box converts the configuration rectangle to a geometry box.
func (b BoxConfig) Box() geom.Box {
	return geom.NewBox(geom.Point{X: b.X, Y: b.Y}, geom.Extent{Width: b.Width, Height: b.Height})
}

func boxConfig(b geom.Box) BoxConfig {
	return BoxConfig{X: b.Min.X, Y: b.Min.Y, Width: b.Size.Width, Height: b.Size.Height}
}

// AmplifierConfig describes one amplifier's static layout in a descriptor
// file. All local boxes are in the amplifier's untrimmed readout frame.
type AmplifierConfig struct {
	// ID identifies the amplifier within the detector.
	ID int `yaml:"id"`

	// Name is an optional human-readable channel name.
	Name string `yaml:"name,omitempty"`

	// Readout is the full untrimmed local box.
	Readout BoxConfig `yaml:"readout"`

	// Data is the illuminated data region.
	Data BoxConfig `yaml:"data"`

	// SerialOverscan, ParallelOverscan and Prescan are the non-illuminated
	// readout regions discarded on trim.
	SerialOverscan   BoxConfig `yaml:"serialOverscan"`
	ParallelOverscan BoxConfig `yaml:"parallelOverscan"`
	Prescan          BoxConfig `yaml:"prescan"`

	// FlipX and FlipY give the readout orientation relative to the
	// assembled detector.
	FlipX bool `yaml:"flipX"`
	FlipY bool `yaml:"flipY"`

	// UntrimmedPlacement and TrimmedPlacement locate the amplifier in the
	// assembled untrimmed and trimmed mosaics.
	UntrimmedPlacement BoxConfig `yaml:"untrimmedPlacement"`
	TrimmedPlacement   BoxConfig `yaml:"trimmedPlacement"`
}

// DescriptorConfig is the on-disk form of a detector geometry description.
type DescriptorConfig struct {
	Detector struct {
		// Name labels the detector in reports; it carries no semantics.
		Name string `yaml:"name"`
	} `yaml:"detector"`

	// Amplifiers lists the amplifier layouts in canonical serial order.
	Amplifiers []AmplifierConfig `yaml:"amplifiers"`
}

// Descriptor validates the configuration and builds the immutable
// geometry descriptor from it.
func (c *DescriptorConfig) Descriptor() (*ampimage.GeometryDescriptor, error) {
	amps := make([]ampimage.AmplifierGeometry, len(c.Amplifiers))
	for i, a := range c.Amplifiers {
		amps[i] = ampimage.AmplifierGeometry{
			ID:                  a.ID,
			Name:                a.Name,
			ReadoutBox:          a.Readout.Box(),
			DataBox:             a.Data.Box(),
			SerialOverscanBox:   a.SerialOverscan.Box(),
			ParallelOverscanBox: a.ParallelOverscan.Box(),
			PrescanBox:          a.Prescan.Box(),
			FlipX:               a.FlipX,
			FlipY:               a.FlipY,
			UntrimmedPlacement:  a.UntrimmedPlacement.Box(),
			TrimmedPlacement:    a.TrimmedPlacement.Box(),
		}
	}
	return ampimage.NewGeometryDescriptor(amps)
}

// DefaultDescriptorConfig returns a two-amplifier mirrored layout: each
// amplifier reads out a 10x20 data region with prescan, serial overscan
// and parallel overscan, and the right amplifier is flipped in x.
func DefaultDescriptorConfig() *DescriptorConfig {
	cfg := &DescriptorConfig{}
	cfg.Detector.Name = "demo-2ch"

	// Local readout layout, identical for both channels: prescan in
	// x [0,3), data in x [3,13), serial overscan in x [13,18); data rows in
	// y [0,20), parallel overscan in y [20,24).
	local := AmplifierConfig{
		Readout:          BoxConfig{X: 0, Y: 0, Width: 18, Height: 24},
		Data:             BoxConfig{X: 3, Y: 0, Width: 10, Height: 20},
		Prescan:          BoxConfig{X: 0, Y: 0, Width: 3, Height: 20},
		SerialOverscan:   BoxConfig{X: 13, Y: 0, Width: 5, Height: 20},
		ParallelOverscan: BoxConfig{X: 3, Y: 20, Width: 10, Height: 4},
	}

	left := local
	left.ID = 0
	left.Name = "C00"
	left.UntrimmedPlacement = BoxConfig{X: 0, Y: 0, Width: 18, Height: 24}
	left.TrimmedPlacement = BoxConfig{X: 0, Y: 0, Width: 10, Height: 20}

	right := local
	right.ID = 1
	right.Name = "C01"
	right.FlipX = true
	right.UntrimmedPlacement = BoxConfig{X: 18, Y: 0, Width: 18, Height: 24}
	right.TrimmedPlacement = BoxConfig{X: 10, Y: 0, Width: 10, Height: 20}

	cfg.Amplifiers = []AmplifierConfig{left, right}
	return cfg
}

// LoadDescriptorConfig loads a descriptor configuration from a YAML file.
// If the file doesn't exist, it returns the default configuration.
func LoadDescriptorConfig(path string) (*DescriptorConfig, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return DefaultDescriptorConfig(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading descriptor file: %w", err)
	}
	cfg := &DescriptorConfig{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing descriptor file: %w", err)
	}
	return cfg, nil
}

// LoadDescriptor loads and validates a geometry descriptor from a YAML
// file, falling back to the default layout when the file doesn't exist.
func LoadDescriptor(path string) (*ampimage.GeometryDescriptor, error) {
	cfg, err := LoadDescriptorConfig(path)
	if err != nil {
		return nil, err
	}
	return cfg.Descriptor()
}

// SaveDescriptorConfig saves a descriptor configuration to a YAML file.
func SaveDescriptorConfig(cfg *DescriptorConfig, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating descriptor directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling descriptor: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("error writing descriptor file: %w", err)
	}
	return nil
}

// CreateDefaultDescriptorFile writes the default two-amplifier layout to
// the given path.
func CreateDefaultDescriptorFile(path string) error {
	return SaveDescriptorConfig(DefaultDescriptorConfig(), path)
}

// AmplifierConfigFromGeometry converts a validated geometry entry back to
// its file form, for round-tripping descriptors.
func AmplifierConfigFromGeometry(g ampimage.AmplifierGeometry) AmplifierConfig {
	return AmplifierConfig{
		ID:                 g.ID,
		Name:               g.Name,
		Readout:            boxConfig(g.ReadoutBox),
		Data:               boxConfig(g.DataBox),
		SerialOverscan:     boxConfig(g.SerialOverscanBox),
		ParallelOverscan:   boxConfig(g.ParallelOverscanBox),
		Prescan:            boxConfig(g.PrescanBox),
		FlipX:              g.FlipX,
		FlipY:              g.FlipY,
		UntrimmedPlacement: boxConfig(g.UntrimmedPlacement),
		TrimmedPlacement:   boxConfig(g.TrimmedPlacement),
	}
}

package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"ampimages/pkg/ampimage"
	"ampimages/pkg/geom"
)

func TestDefaultDescriptorConfig(t *testing.T) {
	cfg := DefaultDescriptorConfig()

	if cfg.Detector.Name == "" {
		t.Errorf("Expected a detector name in the default configuration")
	}
	if len(cfg.Amplifiers) != 2 {
		t.Fatalf("Expected 2 amplifiers, got %d", len(cfg.Amplifiers))
	}
	if !cfg.Amplifiers[1].FlipX {
		t.Errorf("Expected the right amplifier to be flipped in x")
	}

	desc, err := cfg.Descriptor()
	if err != nil {
		t.Fatalf("Default configuration should validate: %v", err)
	}
	wantUntrimmed := geom.NewBox(geom.Point{}, geom.Extent{Width: 36, Height: 24})
	if desc.UntrimmedBox() != wantUntrimmed {
		t.Errorf("Expected untrimmed box %v, got %v", wantUntrimmed, desc.UntrimmedBox())
	}
	wantTrimmed := geom.NewBox(geom.Point{}, geom.Extent{Width: 20, Height: 20})
	if desc.TrimmedBox() != wantTrimmed {
		t.Errorf("Expected trimmed box %v, got %v", wantTrimmed, desc.TrimmedBox())
	}
}

func TestBoxConfigConversion(t *testing.T) {
	b := BoxConfig{X: 3, Y: 20, Width: 10, Height: 4}
	box := b.Box()
	if box.Min.X != 3 || box.Min.Y != 20 || box.Size.Width != 10 || box.Size.Height != 4 {
		t.Errorf("Unexpected converted box %v", box)
	}
	if boxConfig(box) != b {
		t.Errorf("Box conversion should round trip, got %+v", boxConfig(box))
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "detector.yaml")

	cfg := DefaultDescriptorConfig()
	cfg.Detector.Name = "roundtrip"
	if err := SaveDescriptorConfig(cfg, path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := LoadDescriptorConfig(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Detector.Name != "roundtrip" {
		t.Errorf("Expected detector name 'roundtrip', got %q", loaded.Detector.Name)
	}
	if len(loaded.Amplifiers) != len(cfg.Amplifiers) {
		t.Fatalf("Expected %d amplifiers, got %d", len(cfg.Amplifiers), len(loaded.Amplifiers))
	}
	for i, a := range loaded.Amplifiers {
		if a != cfg.Amplifiers[i] {
			t.Errorf("Amplifier %d changed across the round trip: %+v vs %+v", i, a, cfg.Amplifiers[i])
		}
	}
}

func TestLoadMissingFileReturnsDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "does-not-exist.yaml")

	cfg, err := LoadDescriptorConfig(path)
	if err != nil {
		t.Fatalf("A missing file should fall back to the default: %v", err)
	}
	want := DefaultDescriptorConfig()
	if cfg.Detector.Name != want.Detector.Name || len(cfg.Amplifiers) != len(want.Amplifiers) {
		t.Errorf("Expected the default configuration for a missing file")
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	if err := os.WriteFile(path, []byte("detector: [not: a: mapping"), 0644); err != nil {
		t.Fatalf("Setup failed: %v", err)
	}

	if _, err := LoadDescriptorConfig(path); err == nil {
		t.Errorf("Expected a parse error for malformed YAML")
	}
}

func TestDescriptorRejectsInvalidGeometry(t *testing.T) {
	cfg := DefaultDescriptorConfig()
	// Pull the data box partly outside the readout region.
	cfg.Amplifiers[0].Data.X = -1

	if _, err := cfg.Descriptor(); !errors.Is(err, ampimage.ErrOutOfBounds) {
		t.Errorf("Expected ErrOutOfBounds, got %v", err)
	}
}

func TestCreateDefaultDescriptorFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "detector.yaml")

	if err := CreateDefaultDescriptorFile(path); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	desc, err := LoadDescriptor(path)
	if err != nil {
		t.Fatalf("Loading the created file failed: %v", err)
	}
	if desc.NumAmplifiers() != 2 {
		t.Errorf("Expected 2 amplifiers, got %d", desc.NumAmplifiers())
	}
}

func TestAmplifierConfigFromGeometry(t *testing.T) {
	cfg := DefaultDescriptorConfig()
	desc, err := cfg.Descriptor()
	if err != nil {
		t.Fatalf("Default configuration should validate: %v", err)
	}
	for i, g := range desc.Amplifiers() {
		if got := AmplifierConfigFromGeometry(g); got != cfg.Amplifiers[i] {
			t.Errorf("Amplifier %d did not round trip through geometry: %+v vs %+v",
				i, got, cfg.Amplifiers[i])
		}
	}
}

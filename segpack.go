// Package segpack reads and writes the segmented containers that game
// archives are built from.
//
// A segmented container is a header, an offset directory and a run of
// section payloads. The directory stores only where each section starts;
// lengths are derived from neighbouring offsets, sections may be stored out of
// slot order, and some slots hold further containers. The container package
// implements the model once, driven by a declarative Layout; the flavor
// package declares the layouts found in the game data.
//
// # Basic Usage
//
// Decoding a file whose layout is picked by its path:
//
//	reg, _ := segpack.DefaultRegistry()
//	layout, _, err := reg.Resolve("ps2data/battle/battle_pack.bin")
//	if err != nil {
//		return err
//	}
//	c, err := segpack.ReadFile("ps2data/battle/battle_pack.bin", layout)
//
// Editing a section and writing the container back:
//
//	_ = c.SetPayload(3, newPayload)
//	receipt, err := segpack.WriteFile("battle_pack.bin", c)
//
// # Package Structure
//
// This package wraps the container and flavor packages for the common cases.
// Use container directly for streaming encodes, bundle for compressed
// exports, workdir for editable directories and icondir for TIM2 icon
// directories.
package segpack

import (
	"os"

	"github.com/insurgentsworkshop/segpack/container"
	"github.com/insurgentsworkshop/segpack/flavor"
)

// DefaultRegistry returns a registry of the built-in layouts with the
// default path rules.
func DefaultRegistry() (*flavor.Registry, error) {
	return flavor.NewRegistry(nil)
}

// Unmarshal decodes a container held in memory.
func Unmarshal(data []byte, layout *container.Layout) (*container.Container, error) {
	return container.DecodeBytes(data, layout)
}

// Marshal encodes c into a new byte slice using a pooled in-memory sink.
func Marshal(c *container.Container) ([]byte, error) {
	return container.Encode(c)
}

// ReadFile decodes the container stored in the named file.
func ReadFile(name string, layout *container.Layout) (*container.Container, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return container.Decode(f, layout)
}

// WriteFile encodes c into the named file, creating or truncating it.
//
// The file is written in place; a failed encode leaves a partial file behind.
func WriteFile(name string, c *container.Container) (*container.Receipt, error) {
	f, err := os.Create(name)
	if err != nil {
		return nil, err
	}

	rec, err := container.Write(f, c)
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	if err := f.Close(); err != nil {
		return nil, err
	}

	return rec, nil
}

// Package workdir unpacks containers into editable directories and packs
// them back.
//
// Every section becomes a file named section_NNN<ext>, nested containers
// become section_NNN.dir subdirectories of their own, and manifest.yaml
// records what is needed to rebuild the container byte for byte:
//
//	layout: ebp
//	header: 4542503200000000...
//	sections:
//	  - index: 0
//	    absent: true
//	  - index: 6
//	    file: section_006.tm2
//	    checksum: 9a3c55f1e07b2d64
//	  - index: 19
//	    nested: section_019.dir
package workdir

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ManifestName is the manifest file name inside every unpacked directory.
const ManifestName = "manifest.yaml"

// Manifest describes one unpacked container.
type Manifest struct {
	Layout   string  `yaml:"layout"`
	Header   string  `yaml:"header"`
	Sections []Entry `yaml:"sections"`
}

// Entry describes one slot of an unpacked container.
type Entry struct {
	Index int `yaml:"index"`
	// File is the payload file, relative to the manifest.
	File string `yaml:"file,omitempty"`
	// Absent marks a slot with no content.
	Absent bool `yaml:"absent,omitempty"`
	// Nested is the subdirectory holding a nested container.
	Nested string `yaml:"nested,omitempty"`
	// Checksum is the xxHash64 of the payload as unpacked.
	Checksum string `yaml:"checksum,omitempty"`
}

// ReadManifest loads the manifest of dir.
func ReadManifest(dir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestName))
	if err != nil {
		return nil, err
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Join(dir, ManifestName), err)
	}

	return &m, nil
}

// WriteManifest stores m as the manifest of dir.
func WriteManifest(dir string, m *Manifest) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return err
	}

	return os.WriteFile(filepath.Join(dir, ManifestName), data, 0o644)
}

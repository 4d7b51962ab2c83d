package workdir

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/insurgentsworkshop/segpack/container"
	"github.com/insurgentsworkshop/segpack/errs"
	"github.com/insurgentsworkshop/segpack/internal/hash"
)

// Namer picks the file extension of a section, dot included.
type Namer func(layout string, index int, payload []byte) string

// LayoutResolver finds a layout by name.
type LayoutResolver interface {
	Layout(name string) (*container.Layout, error)
}

// Report lists what Pack noticed about the files it read. Paths are
// relative to the packed directory.
type Report struct {
	// Missing lists manifest files that no longer exist; they were packed
	// as empty sections.
	Missing []string
	// Changed lists files whose content differs from the unpacked checksum.
	Changed []string
}

func (r *Report) merge(prefix string, other *Report) {
	for _, p := range other.Missing {
		r.Missing = append(r.Missing, filepath.Join(prefix, p))
	}

	for _, p := range other.Changed {
		r.Changed = append(r.Changed, filepath.Join(prefix, p))
	}
}

func sectionFile(index int, ext string) string {
	return fmt.Sprintf("section_%03d%s", index, ext)
}

func nestedDir(index int) string {
	return fmt.Sprintf("section_%03d.dir", index)
}

// Unpack writes every section of c into dir and records a manifest.
//
// dir is created if needed. A nil namer names every file .bin.
func Unpack(c *container.Container, dir string, namer Namer) (*Manifest, error) {
	if namer == nil {
		namer = func(string, int, []byte) string { return ".bin" }
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	name := c.Layout().Name()
	m := &Manifest{
		Layout:   name,
		Header:   hex.EncodeToString(c.Header),
		Sections: make([]Entry, c.Len()),
	}

	for i := range c.Sections {
		s := &c.Sections[i]
		e := Entry{Index: i}

		switch {
		case s.Nested != nil:
			e.Nested = nestedDir(i)
			if _, err := Unpack(s.Nested, filepath.Join(dir, e.Nested), namer); err != nil {
				return nil, err
			}
		case s.Empty():
			e.Absent = true
		default:
			e.File = sectionFile(i, namer(name, i, s.Payload))
			e.Checksum = hash.Hex(hash.Checksum(s.Payload))
			if err := os.WriteFile(filepath.Join(dir, e.File), s.Payload, 0o644); err != nil {
				return nil, err
			}
		}

		m.Sections[i] = e
	}

	if err := WriteManifest(dir, m); err != nil {
		return nil, err
	}

	return m, nil
}

// Pack rebuilds the container unpacked into dir.
//
// A section file that has gone missing is packed as an empty section and
// listed in the report, as are files edited since Unpack.
func Pack(dir string, resolver LayoutResolver) (*container.Container, *Report, error) {
	m, err := ReadManifest(dir)
	if err != nil {
		return nil, nil, err
	}

	layout, err := resolver.Layout(m.Layout)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", dir, err)
	}

	c, err := container.New(layout, len(m.Sections))
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", dir, err)
	}

	header, err := hex.DecodeString(m.Header)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: header: %w", dir, err)
	}

	if int64(len(header)) != layout.HeaderSize() {
		return nil, nil, fmt.Errorf("%s: header of %d bytes, want %d: %w", dir, len(header), layout.HeaderSize(), errs.ErrHeaderSize)
	}
	c.Header = header

	report := &Report{}
	for i, e := range m.Sections {
		if e.Index != i {
			return nil, nil, fmt.Errorf("%s: manifest entry %d has index %d: %w", dir, i, e.Index, errs.ErrSectionIndex)
		}

		if err := packEntry(c, dir, e, resolver, report); err != nil {
			return nil, nil, fmt.Errorf("%s: section %d: %w", dir, i, err)
		}
	}

	return c, report, nil
}

func packEntry(c *container.Container, dir string, e Entry, resolver LayoutResolver, report *Report) error {
	switch {
	case e.Nested != "":
		nested, sub, err := Pack(filepath.Join(dir, e.Nested), resolver)
		if err != nil {
			return err
		}
		report.merge(e.Nested, sub)

		return c.SetNested(e.Index, nested)
	case e.Absent || e.File == "":
		return nil
	}

	data, err := os.ReadFile(filepath.Join(dir, e.File))
	if errors.Is(err, fs.ErrNotExist) {
		report.Missing = append(report.Missing, e.File)
		return nil
	}
	if err != nil {
		return err
	}

	if e.Checksum != "" {
		want, err := hash.ParseHex(e.Checksum)
		if err != nil {
			return fmt.Errorf("checksum %q: %w", e.Checksum, err)
		}

		if hash.Checksum(data) != want {
			report.Changed = append(report.Changed, e.File)
		}
	}

	return c.SetPayload(e.Index, data)
}

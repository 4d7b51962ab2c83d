package record

import (
	"fmt"
	"maps"
	"slices"

	"github.com/insurgentsworkshop/segpack/errs"
)

// entryPrefix is the size byte, tag byte and index byte ahead of every body.
const entryPrefix = 3

// Variant is one member of a closed set of tagged record kinds.
type Variant struct {
	Tag  byte
	Size int // total entry size, prefix included
	Name string
}

// Registry is a closed set of variants keyed by tag byte. It is built once
// and never modified.
type Registry struct {
	variants map[byte]Variant
}

// NewRegistry builds a registry. Tags must be unique and every size must
// hold at least the three-byte prefix and fit the size byte.
func NewRegistry(variants ...Variant) (*Registry, error) {
	r := &Registry{variants: make(map[byte]Variant, len(variants))}
	for _, v := range variants {
		if _, dup := r.variants[v.Tag]; dup {
			return nil, fmt.Errorf("tag %d: %w", v.Tag, errs.ErrDuplicateTag)
		}

		if v.Size < entryPrefix || v.Size > 0xFF {
			return nil, fmt.Errorf("tag %d size %d: %w", v.Tag, v.Size, errs.ErrRecordSize)
		}

		r.variants[v.Tag] = v
	}

	return r, nil
}

// MenuVariants returns the entry kinds of the menu layout lists.
func MenuVariants() []Variant {
	return []Variant{
		{Tag: 1, Size: 0x10, Name: "group-link"},
		{Tag: 2, Size: 0x24, Name: "icon-link"},
		{Tag: 4, Size: 0x1C, Name: "type4"},
		{Tag: 5, Size: 0x18, Name: "type5"},
		{Tag: 6, Size: 0x18, Name: "type6"},
		{Tag: 7, Size: 0x48, Name: "type7"},
		{Tag: 8, Size: 0x2C, Name: "type8"},
	}
}

// Lookup returns the variant for tag, or errs.ErrUnknownTag.
func (r *Registry) Lookup(tag byte) (Variant, error) {
	v, ok := r.variants[tag]
	if !ok {
		return Variant{}, fmt.Errorf("tag %d: %w", tag, errs.ErrUnknownTag)
	}

	return v, nil
}

// Tags returns the registered tags in ascending order.
func (r *Registry) Tags() []byte {
	return slices.Sorted(maps.Keys(r.variants))
}

// Entry is one decoded tagged record.
type Entry struct {
	Tag   byte
	Index byte
	Body  []byte
}

// TaggedList is the Schema of a payload made of back-to-back tagged entries:
//
//	u8 size | u8 tag | u8 index | body (size-3 bytes)
type TaggedList struct {
	Registry *Registry
}

var _ Schema[[]Entry] = TaggedList{}

// Decode splits data into entries, rejecting unknown tags and entries whose
// size byte disagrees with the registry.
func (l TaggedList) Decode(data []byte) ([]Entry, error) {
	var entries []Entry
	for pos := 0; pos < len(data); {
		if len(data)-pos < entryPrefix {
			return nil, fmt.Errorf("entry %d at 0x%X truncated: %w", len(entries), pos, errs.ErrRecordSize)
		}

		size, tag := int(data[pos]), data[pos+1]
		v, err := l.Registry.Lookup(tag)
		if err != nil {
			return nil, fmt.Errorf("entry %d at 0x%X: %w", len(entries), pos, err)
		}

		if size != v.Size || pos+size > len(data) {
			return nil, fmt.Errorf("entry %d (%s) at 0x%X: size %d, want %d: %w", len(entries), v.Name, pos, size, v.Size, errs.ErrRecordSize)
		}

		entries = append(entries, Entry{
			Tag:   tag,
			Index: data[pos+2],
			Body:  slices.Clone(data[pos+entryPrefix : pos+size]),
		})
		pos += size
	}

	return entries, nil
}

// Encode writes entries back to back, taking each size from the registry.
func (l TaggedList) Encode(entries []Entry) ([]byte, error) {
	var out []byte
	for i, e := range entries {
		v, err := l.Registry.Lookup(e.Tag)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}

		if len(e.Body) != v.Size-entryPrefix {
			return nil, fmt.Errorf("entry %d (%s): body %d bytes, want %d: %w", i, v.Name, len(e.Body), v.Size-entryPrefix, errs.ErrRecordSize)
		}

		out = append(out, byte(v.Size), e.Tag, e.Index)
		out = append(out, e.Body...)
	}

	return out, nil
}

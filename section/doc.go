// Package section implements the offset-directory primitives that every
// segmented container is built from.
//
// A segmented container is a header, a directory of offsets and a run of
// independently encoded payloads:
//
//	┌──────────────────────────────────────────────────┐
//	│ Header (magic, optional count field)             │
//	├──────────────────────────────────────────────────┤
//	│ Directory (N × 2 or 4 bytes, little-endian)      │
//	│  - one offset per logical slot                   │
//	│  - 0 marks an absent slot in sentinel layouts    │
//	│  - optional end entry or terminator value        │
//	├──────────────────────────────────────────────────┤
//	│ Padding (to the layout alignment)                │
//	├──────────────────────────────────────────────────┤
//	│ Section payloads, each aligned, in any order     │
//	└──────────────────────────────────────────────────┘
//
// Lengths are never stored. They are derived from the offsets themselves:
//
//   - ResolveLengths sorts non-zero offsets by value and diffs neighbours, so a
//     writer may place slots in any physical order (tail-relocated slots).
//   - ResolveSequential diffs in slot order, for directories that are always
//     written in ascending order.
//   - CountByScan recovers the record count of the last group in a list by
//     reading records until the next known region or a zero terminator.
//
// Directory handles the field encoding: reading a table, reserving zeroed
// placeholders during an encode, and patching resolved offsets afterwards.
// PadTo, Window and RequireSeeker are the stream helpers the two-pass writer
// in package container is built on.
package section

// Package container decodes and encodes segmented containers: a header, an
// offset directory and a run of independently encoded section payloads.
//
// A Layout describes one container format: its magic, where the directory
// lives and how wide its fields are, where the section count comes from, how
// lengths are resolved, and the padding rules the writer follows. Layouts are
// validated once, when NewLayout builds them, and are immutable afterwards.
//
// # Decoding
//
//	layout, _ := container.NewLayout("ard",
//		container.WithMagic([]byte("FF12AR03")),
//		container.WithDirectoryAt(0x08),
//		container.WithFixedCount(10),
//		container.WithSortedOffsets(),
//		container.WithPayloadStart(0x30),
//		container.WithTailSlots(1),
//	)
//	c, err := container.Decode(f, layout)
//
// Sections keep their logical index whatever order they were stored in.
// Slots declared nested with WithNested are decoded recursively and exposed
// through Section.Nested instead of Section.Payload.
//
// # Encoding
//
// Offsets are only known once payloads have been written, so Write makes two
// passes over a seekable sink. It reserves the directory with zeroed
// placeholders, emits every section at its aligned position, then seeks back
// and patches the directory and count fields. Nested containers run their
// own full cycle inside a section.Window before the outer writer records
// their size. A sink that cannot seek is rejected with errs.ErrNotSeekable
// before any byte is written.
//
// If writing fails midway, whatever was already written is left in the sink.
//
// Note: Containers and writers are NOT thread-safe.
package container

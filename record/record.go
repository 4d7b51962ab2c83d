// Package record holds the schema collaborators that give section payloads
// a structure.
//
// The container codec treats every payload as opaque bytes. A Schema is the
// seam where a caller plugs in knowledge of one section's record layout; see
// container.DecodeSection and container.EncodeSection.
package record

// Schema decodes and encodes the payload of one section.
//
// Decode receives exactly the section's bytes. Encode must produce bytes that
// Decode accepts; the container writer takes care of alignment and offsets.
type Schema[T any] interface {
	Decode(data []byte) (T, error)
	Encode(v T) ([]byte, error)
}

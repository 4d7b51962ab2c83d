package section

// Slot is one resolved directory entry.
//
// Index is the logical slot position and never changes, whatever order the
// payloads were stored in. Offset is absolute within the container; 0 marks
// an absent slot in layouts that use the absent sentinel, and such a slot
// always has Length 0.
type Slot struct {
	Index  int
	Offset int64
	Length int64
}

// Absent reports whether the slot carries no payload.
func (s Slot) Absent() bool {
	return s.Offset == 0
}

// End returns the offset one past the last payload byte.
func (s Slot) End() int64 {
	return s.Offset + s.Length
}

package flavor

import "bytes"

// sectionMagics maps payload magics to the extension their files get.
var sectionMagics = []struct {
	magic []byte
	ext   string
}{
	{[]byte("CLT2"), ".cl2"},
	{[]byte("MRP\x00"), ".mrp"},
	{[]byte("TIM2"), ".tm2"},
}

// Extension returns the file extension for a section of the named layout.
func Extension(layout string, index int, payload []byte) string {
	switch layout {
	case Otherpack:
		for _, m := range sectionMagics {
			if bytes.HasPrefix(payload, m.magic) {
				return m.ext
			}
		}
	case Ebp:
		switch index {
		case ebpTextureSlot:
			return ".tm2"
		case ebpArdSlot:
			return ".ard"
		}
	case Himgd:
		return ".tm2"
	}

	return ".bin"
}

// Package hash computes the section checksums stored in bundles and manifests.
package hash

import (
	"fmt"
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// Checksum computes the xxHash64 of data.
func Checksum(data []byte) uint64 {
	return xxhash.Sum64(data)
}

// Hex renders a checksum as 16 lowercase hex digits.
func Hex(sum uint64) string {
	return fmt.Sprintf("%016x", sum)
}

// ParseHex parses a checksum rendered by Hex.
func ParseHex(s string) (uint64, error) {
	return strconv.ParseUint(s, 16, 64)
}

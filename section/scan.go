package section

import (
	"fmt"
	"io"

	"github.com/insurgentsworkshop/segpack/errs"
)

// CountByScan counts the fixed-width records of the last group in a list,
// whose size is stored nowhere.
//
// Records are read from groupStart while a whole record still fits before
// following, the start of the next known region. Alignment padding between
// the list and that region reads as all-zero records, so an all-zero record
// ends the group. A group may legitimately begin with an all-zero record
// (for example a cumulative index list whose first entry is 0), so the
// terminator only counts once at least one record has been taken.
//
// Parameters:
//   - r: Stream holding the list
//   - groupStart: Absolute position of the group's first record
//   - following: Absolute position of the next region, the hard upper bound
//   - width: Record width in bytes
//
// Returns:
//   - int: Number of records in the group
//   - error: errs.ErrCountOutOfRange if following precedes groupStart, or a read error
func CountByScan(r io.ReadSeeker, groupStart, following int64, width int) (int, error) {
	if width <= 0 {
		return 0, fmt.Errorf("record width %d: %w", width, errs.ErrCountOutOfRange)
	}

	if following < groupStart {
		return 0, fmt.Errorf("group at 0x%X after its bound 0x%X: %w", groupStart, following, errs.ErrCountOutOfRange)
	}

	if _, err := r.Seek(groupStart, io.SeekStart); err != nil {
		return 0, err
	}

	rec := make([]byte, width)
	count := 0
	for pos := groupStart; pos+int64(width) <= following; pos += int64(width) {
		if _, err := io.ReadFull(r, rec); err != nil {
			return 0, fmt.Errorf("scan record at 0x%X: %w", pos, err)
		}

		if count > 0 && allZero(rec) {
			break
		}

		count++
	}

	return count, nil
}

func allZero(b []byte) bool {
	for _, v := range b {
		if v != 0 {
			return false
		}
	}

	return true
}

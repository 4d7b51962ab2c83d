package pool

import "sync"

// int64SlicePool holds scratch offset slices for directory patching.
var int64SlicePool = sync.Pool{
	New: func() any { return &[]int64{} },
}

// GetInt64Slice retrieves and resizes an int64 slice from the pool.
//
// The returned slice has exactly size elements; its contents are whatever the
// previous user left behind. The caller must call the returned cleanup
// function once it no longer references the slice.
//
// Example:
//
//	offsets, release := pool.GetInt64Slice(len(patches))
//	defer release()
func GetInt64Slice(size int) ([]int64, func()) {
	ptr, _ := int64SlicePool.Get().(*[]int64)
	slice := (*ptr)[:0]

	if cap(slice) < size {
		slice = make([]int64, size)
	} else {
		slice = slice[:size]
	}
	*ptr = slice

	return slice, func() { int64SlicePool.Put(ptr) }
}

package pool

import (
	"errors"
	"io"
	"sync"
)

const (
	ContainerBufferDefaultSize  = 1024 * 64       // 64KiB
	ContainerBufferMaxThreshold = 1024 * 1024 * 8 // 8MiB
)

var errNegativePosition = errors.New("pool: negative position")

// ByteBuffer is a growable in-memory sink that supports seeking.
//
// Writes land at the current position and extend the buffer as needed; seeking
// past the end and writing zero-fills the gap, the same way a file does. It
// satisfies io.WriteSeeker, so the two-pass container writer can reserve a
// directory, emit payloads and seek back to patch offsets without a file.
//
// Note: ByteBuffer is NOT thread-safe.
type ByteBuffer struct {
	// B is the underlying byte slice.
	B   []byte
	pos int
}

var _ io.WriteSeeker = (*ByteBuffer)(nil)

// NewByteBuffer creates a new ByteBuffer with the specified default capacity.
func NewByteBuffer(defaultSize int) *ByteBuffer {
	return &ByteBuffer{
		B: make([]byte, 0, defaultSize),
	}
}

// Bytes returns the underlying byte slice.
func (bb *ByteBuffer) Bytes() []byte {
	return bb.B
}

// Reset empties the buffer and rewinds it, keeping the allocated memory.
func (bb *ByteBuffer) Reset() {
	bb.B = bb.B[:0]
	bb.pos = 0
}

// Len returns the length of the buffer.
func (bb *ByteBuffer) Len() int {
	return len(bb.B)
}

// Cap returns the capacity of the buffer.
func (bb *ByteBuffer) Cap() int {
	return cap(bb.B)
}

// Pos returns the current write position.
func (bb *ByteBuffer) Pos() int {
	return bb.pos
}

// Grow ensures the buffer can hold requiredBytes more bytes past its length
// without reallocating.
//
// Small buffers grow by ContainerBufferDefaultSize, larger ones by 25% of
// their capacity.
func (bb *ByteBuffer) Grow(requiredBytes int) {
	available := cap(bb.B) - len(bb.B)
	if available >= requiredBytes {
		return
	}

	growBy := ContainerBufferDefaultSize
	if cap(bb.B) > 4*ContainerBufferDefaultSize {
		growBy = cap(bb.B) / 4
	}

	if growBy < requiredBytes {
		growBy = requiredBytes
	}

	newBuf := make([]byte, len(bb.B), len(bb.B)+growBy)
	copy(newBuf, bb.B)
	bb.B = newBuf
}

// Write writes data at the current position, overwriting existing bytes and
// extending the buffer as needed.
func (bb *ByteBuffer) Write(data []byte) (int, error) {
	end := bb.pos + len(data)
	if end > len(bb.B) {
		bb.Grow(end - len(bb.B))
		oldLen := len(bb.B)
		bb.B = bb.B[:end]
		// bytes between the old end and pos were never written
		if bb.pos > oldLen {
			clear(bb.B[oldLen:bb.pos])
		}
	}

	copy(bb.B[bb.pos:end], data)
	bb.pos = end

	return len(data), nil
}

// Seek sets the position for the next Write.
func (bb *ByteBuffer) Seek(offset int64, whence int) (int64, error) {
	var base int64
	switch whence {
	case io.SeekStart:
	case io.SeekCurrent:
		base = int64(bb.pos)
	case io.SeekEnd:
		base = int64(len(bb.B))
	default:
		return 0, errors.New("pool: invalid whence")
	}

	next := base + offset
	if next < 0 {
		return 0, errNegativePosition
	}

	bb.pos = int(next)

	return next, nil
}

// WriteTo writes the contents of the buffer to w.
func (bb *ByteBuffer) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(bb.B)
	return int64(n), err
}

// ByteBufferPool is a pool of ByteBuffers to minimize allocations.
//
// Buffers whose capacity exceeds maxThreshold are dropped on Put instead of
// being retained.
type ByteBufferPool struct {
	pool         sync.Pool
	maxThreshold int
}

// NewByteBufferPool creates a new ByteBufferPool with buffers of the specified default size.
func NewByteBufferPool(defaultSize int, maxThreshold int) *ByteBufferPool {
	return &ByteBufferPool{
		pool: sync.Pool{
			New: func() any {
				return NewByteBuffer(defaultSize)
			},
		},
		maxThreshold: maxThreshold,
	}
}

// Get retrieves a ByteBuffer from the pool.
func (bbp *ByteBufferPool) Get() *ByteBuffer {
	bb, _ := bbp.pool.Get().(*ByteBuffer)
	return bb
}

// Put resets bb and returns it to the pool.
func (bbp *ByteBufferPool) Put(bb *ByteBuffer) {
	if bb == nil {
		return
	}

	if bbp.maxThreshold > 0 && cap(bb.B) > bbp.maxThreshold {
		return
	}

	bb.Reset()
	bbp.pool.Put(bb)
}

var containerDefaultPool = NewByteBufferPool(ContainerBufferDefaultSize, ContainerBufferMaxThreshold)

// GetContainerBuffer retrieves a ByteBuffer from the default container pool.
func GetContainerBuffer() *ByteBuffer {
	return containerDefaultPool.Get()
}

// PutContainerBuffer returns a ByteBuffer to the default container pool.
func PutContainerBuffer(bb *ByteBuffer) {
	containerDefaultPool.Put(bb)
}

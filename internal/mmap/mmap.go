// Package mmap provides read-only memory-mapped file access.
//
// Mapping a file avoids copying it through user-space buffers; reads touch
// only the pages actually accessed, which keeps header inspection of
// multi-gigabyte model artifacts cheap.
//
// On platforms without mmap support the package falls back to reading the
// whole file into memory.
package mmap

import (
	"io"
	"sync/atomic"
)

// Mapping is a read-only view of a file's contents.
// Safe for concurrent reads; Close is idempotent. Callers must ensure no
// reads are in flight when Close returns.
type Mapping struct {
	data   []byte
	closed atomic.Bool
	unmap  func([]byte) error // nil for heap-backed fallbacks
}

// Bytes returns the mapped contents. Valid until Close.
func (m *Mapping) Bytes() []byte { return m.data }

// Size returns the size of the mapped file in bytes.
func (m *Mapping) Size() int64 { return int64(len(m.data)) }

// ReadAt implements io.ReaderAt over the mapped contents.
func (m *Mapping) ReadAt(p []byte, off int64) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if off < 0 || off >= int64(len(m.data)) {
		return 0, io.EOF
	}
	n := copy(p, m.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// Close releases the mapping.
func (m *Mapping) Close() error {
	if !m.closed.CompareAndSwap(false, true) {
		return nil
	}
	data := m.data
	m.data = nil
	if m.unmap == nil {
		return nil
	}
	return m.unmap(data)
}

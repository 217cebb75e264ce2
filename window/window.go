/*
Package window provides bounds-checked integer reads over a fixed byte
buffer.

Firmware structures are decoded at absolute positions within a single
in-memory image, so every read is expressed as an (offset, length) pair
against the whole buffer rather than as a stream.
*/
package window

import (
	"encoding/binary"
	"fmt"
)

// Window wraps a byte buffer for random-access decoding. The buffer is
// shared, not copied, and must not be modified while the window is in
// use.
type Window struct {
	buf []byte
}

// New returns a window over buf.
func New(buf []byte) *Window {
	return &Window{buf: buf}
}

// Len returns the length of the underlying buffer.
func (w *Window) Len() int {
	return len(w.buf)
}

func (w *Window) check(off, n int) error {
	if off < 0 || n < 0 || off+n > len(w.buf) {
		return fmt.Errorf("window: %d byte read at 0x%X exceeds buffer length 0x%X", n, off, len(w.buf))
	}
	return nil
}

// Bytes returns the n bytes starting at off. The slice aliases the
// underlying buffer.
func (w *Window) Bytes(off, n int) ([]byte, error) {
	if err := w.check(off, n); err != nil {
		return nil, err
	}
	return w.buf[off : off+n], nil
}

// Uint32LE reads a little-endian 32-bit value at off.
func (w *Window) Uint32LE(off int) (uint32, error) {
	if err := w.check(off, 4); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(w.buf[off:]), nil
}

// Uint16LE reads a little-endian 16-bit value at off.
func (w *Window) Uint16LE(off int) (uint16, error) {
	if err := w.check(off, 2); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(w.buf[off:]), nil
}

// Uint16BE reads a big-endian 16-bit value at off.
func (w *Window) Uint16BE(off int) (uint16, error) {
	if err := w.check(off, 2); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(w.buf[off:]), nil
}

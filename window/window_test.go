package window

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUint32LE(t *testing.T) {
	w := New([]byte{0x1A, 0x25, 0x76, 0x00, 0xFF})

	v, err := w.Uint32LE(0)
	assert.NoError(t, err)
	assert.Equal(t, uint32(0x0076251A), v)

	v, err = w.Uint32LE(1)
	assert.NoError(t, err)
	assert.Equal(t, uint32(0xFF007625), v)

	_, err = w.Uint32LE(2)
	assert.Error(t, err)

	_, err = w.Uint32LE(-1)
	assert.Error(t, err)
}

func TestUint16(t *testing.T) {
	w := New([]byte{0x12, 0x34})

	le, err := w.Uint16LE(0)
	assert.NoError(t, err)
	assert.Equal(t, uint16(0x3412), le)

	be, err := w.Uint16BE(0)
	assert.NoError(t, err)
	assert.Equal(t, uint16(0x1234), be)

	_, err = w.Uint16BE(1)
	assert.Error(t, err)
}

func TestBytes(t *testing.T) {
	buf := []byte{1, 2, 3, 4}
	w := New(buf)

	b, err := w.Bytes(1, 2)
	assert.NoError(t, err)
	assert.Equal(t, []byte{2, 3}, b)

	b, err = w.Bytes(4, 0)
	assert.NoError(t, err)
	assert.Len(t, b, 0)

	_, err = w.Bytes(3, 2)
	assert.Error(t, err)

	assert.Equal(t, 4, w.Len())
}

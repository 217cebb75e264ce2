package bmp

import (
	"bytes"
	"encoding/binary"
)

// SwapBytes16 swaps adjacent bytes across the whole buffer, converting
// big-endian 16-bit values to little-endian. A trailing odd byte is
// truncated. The input is not modified.
func SwapBytes16(data []byte) []byte {
	n := len(data) &^ 1
	out := make([]byte, n)
	for i := 0; i < n; i += 2 {
		out[i] = data[i+1]
		out[i+1] = data[i]
	}
	return out
}

// Restride rewrites tightly packed rows into 4-byte aligned rows,
// appending zero padding to each. Input shorter than a full image is
// zero-filled first so reconstruction never fails on short data.
func Restride(data []byte, width, height uint32) []byte {
	src, dst := Strides(width)

	expected := src * int(height)
	if len(data) == expected && src == dst {
		return data
	}
	if len(data) < expected {
		data = append(append([]byte{}, data...), make([]byte, expected-len(data))...)
	}

	out := make([]byte, 0, dst*int(height))
	pad := make([]byte, dst-src)
	for y := 0; y < int(height); y++ {
		row := data[y*src : y*src+src]
		out = append(out, row...)
		out = append(out, pad...)
	}
	return out
}

type fileHeader struct {
	Signature [2]byte
	FileSize  uint32
	Reserved  uint32
	DataStart uint32
}

type infoHeader struct {
	HeaderSize      uint32
	Width           int32
	Height          int32
	Planes          uint16
	BitsPerPixel    uint16
	Compression     uint32
	ImageSize       uint32
	XPixelsPerMetre int32
	YPixelsPerMetre int32
	PaletteColors   uint32
	ImportantColors uint32
}

// Header synthesizes the 54-byte BMP header for a 16-bit RGB565 image
// of the given dimensions. Height is negated so the pixel rows that
// follow are interpreted top-down.
func Header(width, height uint32) []byte {
	_, dst := Strides(width)
	imageSize := uint32(dst) * height

	b := new(bytes.Buffer)
	b.Grow(HeaderLen)

	fh := fileHeader{
		Signature: [2]byte{'B', 'M'},
		FileSize:  HeaderLen + imageSize,
		DataStart: HeaderLen,
	}
	ih := infoHeader{
		HeaderSize:      infoHeaderLen,
		Width:           int32(width),
		Height:          -int32(height),
		Planes:          1,
		BitsPerPixel:    16,
		Compression:     biBitfields,
		ImageSize:       imageSize,
		XPixelsPerMetre: resolution,
		YPixelsPerMetre: resolution,
	}
	masks := [3]uint32{MaskRed, MaskGreen, MaskBlue}

	// Writes to a bytes.Buffer cannot fail.
	binary.Write(b, binary.LittleEndian, &fh)
	binary.Write(b, binary.LittleEndian, &ih)
	binary.Write(b, binary.LittleEndian, &masks)

	return b.Bytes()
}

// Reconstruct converts a raw payload into a complete BMP file:
// byte-swapped, restrided and prefixed with a synthesized header.
func Reconstruct(raw []byte, width, height uint32) []byte {
	pixels := Restride(SwapBytes16(raw), width, height)
	return append(Header(width, height), pixels...)
}

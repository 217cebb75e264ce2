/*
Package bmp reconstructs viewable BMP files from the raw RGB565 pixel
data recovered out of the firmware filesystem.

The device stores pixels big-endian with tightly packed rows; BMP wants
little-endian 16-bit values, rows padded to four bytes and a 54-byte
header (file header, info header and the three BI_BITFIELDS channel
masks). Height is written negated so rows keep their top-down order.
*/
package bmp

const (
	fileHeaderLen = 14
	infoHeaderLen = 40
	maskLen       = 12

	// HeaderLen is the full synthesized header size.
	HeaderLen = fileHeaderLen + infoHeaderLen + maskLen

	bytesPerPixel = 2

	biBitfields = 3

	// 72 DPI expressed in pixels per metre.
	resolution = 2835
)

// RGB565 channel masks.
const (
	MaskRed   = 0xF800
	MaskGreen = 0x07E0
	MaskBlue  = 0x001F
)

// SizeTolerance is the allowed difference between a resource's
// recovered length and width*height*2 for it to still be classified as
// an image; the source format leaves up to a page of slack after the
// pixel data.
const SizeTolerance = 4096

// IsImage reports whether a payload of rawSize bytes plausibly holds a
// 16-bit image of the declared dimensions.
func IsImage(rawSize int64, width, height uint32) bool {
	if width == 0 || height == 0 {
		return false
	}
	expected := int64(width) * int64(height) * bytesPerPixel
	diff := rawSize - expected
	if diff < 0 {
		diff = -diff
	}
	return diff < SizeTolerance
}

// Strides returns the packed source row length and the 4-byte aligned
// destination row length for a given width.
func Strides(width uint32) (src, dst int) {
	src = int(width) * bytesPerPixel
	dst = (src + 3) &^ 3
	return src, dst
}

// Padding returns the number of zero bytes appended to each row when
// restriding.
func Padding(width uint32) int {
	src, dst := Strides(width)
	return dst - src
}

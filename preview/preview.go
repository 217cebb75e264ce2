/*
Package preview renders recovered RGB565 images as small quantized GIF
thumbnails, giving a quick visual overview of an extraction run
without opening every BMP individually.
*/
package preview

import (
	"encoding/binary"
	"image"
	"image/color"
	"image/gif"
	"io"

	"github.com/ericpauley/go-quantize/quantize"
	"golang.org/x/image/draw"
)

// maxColors is the GIF palette size the quantizer targets.
const maxColors = 256

// FromRGB565 decodes little-endian RGB565 pixels into an RGBA image.
// Rows are stride bytes apart, which matters once they have been
// padded to a 4-byte boundary; tightly packed input uses width*2. The
// low channel bits are replicated from the high bits so full white
// stays full white.
func FromRGB565(pixels []byte, width, height, stride int) *image.RGBA {
	m := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			i := y*stride + x*2
			if i+2 > len(pixels) {
				return m
			}
			v := binary.LittleEndian.Uint16(pixels[i:])

			r := uint8(v >> 11 & 0x1f)
			g := uint8(v >> 5 & 0x3f)
			b := uint8(v & 0x1f)

			m.SetRGBA(x, y, color.RGBA{
				R: r<<3 | r>>2,
				G: g<<2 | g>>4,
				B: b<<3 | b>>2,
				A: 0xff,
			})
		}
	}
	return m
}

// Thumbnail scales m so its longest side is maxDim pixels, preserving
// aspect ratio. Images already small enough are returned unchanged.
func Thumbnail(m image.Image, maxDim int) image.Image {
	b := m.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= maxDim && h <= maxDim {
		return m
	}

	if w >= h {
		h = h * maxDim / w
		w = maxDim
	} else {
		w = w * maxDim / h
		h = maxDim
	}
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.BiLinear.Scale(dst, dst.Bounds(), m, b, draw.Src, nil)
	return dst
}

// EncodeGIF quantizes m down to a GIF-sized palette and writes it to
// w.
func EncodeGIF(w io.Writer, m image.Image) error {
	b := m.Bounds()

	q := quantize.MedianCutQuantizer{}
	pm := image.NewPaletted(b, q.Quantize(make(color.Palette, 0, maxColors), m))
	draw.Draw(pm, b, m, b.Min, draw.Src)

	return gif.Encode(w, pm, nil)
}

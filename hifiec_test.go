package hifiec

import (
	"encoding/binary"
	"encoding/json"
	"image/color"
	"image/gif"
	"io"
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/bodgit/hifiec/manifest"
	"github.com/bodgit/hifiec/resource"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discard() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func putHeader(image []byte, pos int, words ...uint32) {
	for i, w := range words {
		binary.LittleEndian.PutUint32(image[pos+i*4:], w)
	}
}

func putRecord(data []byte, pos int, offset, width, height uint32, name string) {
	copy(data[pos:], resource.Magic)
	binary.LittleEndian.PutUint32(data[pos+20:], offset)
	binary.LittleEndian.PutUint32(data[pos+24:], width)
	binary.LittleEndian.PutUint32(data[pos+28:], height)
	copy(data[pos+32:], name)
}

func TestSplit(t *testing.T) {
	image := make([]byte, 0x200)
	putHeader(image, 0x70, 0x100, 0x50, 0, 0)
	for i := 0x100; i < 0x150; i++ {
		image[i] = byte(i)
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "test.img")
	require.NoError(t, os.WriteFile(path, image, 0644))

	m := New(nil, discard())
	out := filepath.Join(dir, "parts")
	require.NoError(t, m.Split(path, out))

	b, err := os.ReadFile(filepath.Join(out, "part_0_flag.bin"))
	require.NoError(t, err)
	require.Len(t, b, 0x50)
	assert.Equal(t, image[0x100:0x150], b)
}

func TestSplitMissingInput(t *testing.T) {
	m := New(nil, discard())
	err := m.Split(filepath.Join(t.TempDir(), "nope.img"), t.TempDir())
	assert.Error(t, err)
}

func buildPartition(t *testing.T) []byte {
	t.Helper()

	data := make([]byte, 0x400)

	// A 4x2 RGB565 payload at 0x40, big-endian as stored on device.
	pixels := []byte{
		0xF8, 0x00, 0x07, 0xE0, 0x00, 0x1F, 0xFF, 0xFF,
		0xF8, 0x00, 0x07, 0xE0, 0x00, 0x1F, 0xFF, 0xFF,
	}
	copy(data[0x40:], pixels)

	// A non-image payload at 0x80.
	for i := 0x80; i < 0xC0; i++ {
		data[i] = byte(i)
	}

	putRecord(data, 0x200, 0x40, 4, 2, "icon:back/1.png")
	putRecord(data, 0x2A0, 0x80, 0, 0, "lut.dat")

	return data
}

func TestResources(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "part_5_main_fs.bin")
	require.NoError(t, os.WriteFile(path, buildPartition(t), 0644))

	out := filepath.Join(dir, "resources")
	m := New(nil, discard())
	cfg := Config{
		OutputDir: out,
		Previews:  true,
		Workers:   2,
	}
	require.NoError(t, m.Resources(path, cfg))

	// The image resource: sanitized name, .bmp suffix, BMP contents.
	b, err := os.ReadFile(filepath.Join(out, "icon_back_1.png.bmp"))
	require.NoError(t, err)
	assert.Equal(t, "BM", string(b[:2]))
	assert.Len(t, b, 54+16)

	// Thumbnail next to it.
	_, err = os.Stat(filepath.Join(out, "icon_back_1.png.gif"))
	assert.NoError(t, err)

	// The non-image resource passes through raw: its inferred size is
	// the gap up to the metadata region.
	b, err = os.ReadFile(filepath.Join(out, "lut.dat"))
	require.NoError(t, err)
	assert.Len(t, b, 0x200-0x80)

	mb, err := os.ReadFile(filepath.Join(out, "manifest.json"))
	require.NoError(t, err)

	var records []manifest.Record
	require.NoError(t, json.Unmarshal(mb, &records))
	require.Len(t, records, 2)

	assert.Equal(t, "icon:back/1.png", records[0].OriginalName)
	assert.Equal(t, uint32(0x40), records[0].OriginalOffset)
	assert.Equal(t, uint32(0x40), records[0].OriginalRawSize)
	assert.True(t, records[0].IsImage)
	assert.True(t, records[0].SizeInferred)
	assert.True(t, records[0].Transformations.ByteSwapApplied)
	assert.Equal(t, 54, records[0].Transformations.BMPHeaderSize)
	assert.Equal(t, "icon_back_1.png.bmp", records[0].SavedFilename)

	assert.Equal(t, "lut.dat", records[1].OriginalName)
	assert.False(t, records[1].IsImage)
	assert.False(t, records[1].Transformations.ByteSwapApplied)
}

func TestResourcesOddWidthPreview(t *testing.T) {
	data := make([]byte, 0x400)

	// A 3x2 all-white payload, tightly packed. An odd width forces
	// row padding during reconstruction, which the thumbnail decode
	// has to step over rather than read as pixel data.
	for i := 0x40; i < 0x4C; i++ {
		data[i] = 0xFF
	}
	putRecord(data, 0x200, 0x40, 3, 2, "white.raw")

	dir := t.TempDir()
	path := filepath.Join(dir, "part_5_main_fs.bin")
	require.NoError(t, os.WriteFile(path, data, 0644))

	out := filepath.Join(dir, "resources")
	m := New(nil, discard())
	require.NoError(t, m.Resources(path, Config{OutputDir: out, Previews: true}))

	f, err := os.Open(filepath.Join(out, "white.raw.gif"))
	require.NoError(t, err)
	defer f.Close()

	img, err := gif.Decode(f)
	require.NoError(t, err)

	white := color.RGBA{0xFF, 0xFF, 0xFF, 0xFF}
	for y := 0; y < 2; y++ {
		for x := 0; x < 3; x++ {
			assert.Equal(t, white, color.RGBAModel.Convert(img.At(x, y)), "pixel (%d,%d)", x, y)
		}
	}
}

func TestExtract(t *testing.T) {
	fs := buildPartition(t)

	image := make([]byte, 0x900)
	putHeader(image, 0x14C, 0x500, uint32(len(fs)), 0, 0)
	copy(image[0x500:], fs)

	dir := t.TempDir()
	path := filepath.Join(dir, "HIFIEC20.IMG")
	require.NoError(t, os.WriteFile(path, image, 0644))

	out := filepath.Join(dir, "extracted")
	m := New(nil, discard())
	require.NoError(t, m.Extract(path, Config{OutputDir: out}))

	_, err := os.Stat(filepath.Join(out, "part_5_main_fs.bin"))
	assert.NoError(t, err)

	_, err = os.Stat(filepath.Join(out, "resources", "icon_back_1.png.bmp"))
	assert.NoError(t, err)

	_, err = os.Stat(filepath.Join(out, "resources", "manifest.json"))
	assert.NoError(t, err)
}

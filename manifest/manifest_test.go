package manifest

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		in, out string
	}{
		{"icon:back/1.png", "icon_back_1.png"},
		{"res\\ui\\play.bin", "res_ui_play.bin"},
		{"splash (final), v2.raw", "splash (final), v2.raw"},
		{"  padded  ", "padded"},
		{"semi;colon", "semi_colon"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.out, Sanitize(tt.in))
	}
}

func TestFilename(t *testing.T) {
	b := NewBuilder()

	assert.Equal(t, "icon.bmp", b.Filename("icon", 0, true))

	// Same sanitized name again: the record id is appended instead of
	// silently overwriting the first file.
	assert.Equal(t, "icon_1.bmp", b.Filename("icon", 1, true))

	// An existing suffix is not doubled, whatever its case.
	assert.Equal(t, "logo.BMP", b.Filename("logo.BMP", 2, true))

	assert.Equal(t, "table.dat", b.Filename("table.dat", 3, false))

	// Names that sanitize to nothing still get a filename.
	assert.Equal(t, "resource_4", b.Filename("   ", 4, false))
}

func TestWriteJSON(t *testing.T) {
	b := NewBuilder()
	b.Add(Record{
		ID:              0,
		OriginalName:    "icon/1.png",
		OriginalOffset:  0x40,
		OriginalRawSize: 16,
		Width:           4,
		Height:          2,
		IsImage:         true,
		SizeInferred:    true,
		Transformations: Transformations{
			ByteSwapApplied: true,
			BMPHeaderSize:   54,
		},
		SavedFilename: "icon_1.png.bmp",
	})

	buf := new(bytes.Buffer)
	require.NoError(t, b.WriteJSON(buf))

	var records []map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &records))
	require.Len(t, records, 1)

	assert.Equal(t, "icon/1.png", records[0]["original_firmware_name"])
	assert.Equal(t, true, records[0]["is_image"])

	tr, ok := records[0]["transformations"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, true, tr["byte_swap_applied"])
	assert.Equal(t, float64(54), tr["bmp_header_size"])
}

func TestWriteJSONEmpty(t *testing.T) {
	buf := new(bytes.Buffer)
	require.NoError(t, NewBuilder().WriteJSON(buf))
	assert.Equal(t, "[]", string(bytes.TrimSpace(buf.Bytes())))
}

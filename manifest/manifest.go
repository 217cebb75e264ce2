/*
Package manifest aggregates one descriptive record per recovered
resource so that a later repacking step can locate every payload and
invert every transformation that was applied to it.
*/
package manifest

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// Transformations records exactly what was done to a payload on its
// way to disk.
type Transformations struct {
	ByteSwapApplied bool `json:"byte_swap_applied"`
	RowPaddingBytes int  `json:"row_padding_bytes"`
	BMPHeaderSize   int  `json:"bmp_header_size"`
}

// Record describes one recovered resource. Immutable once built.
type Record struct {
	ID              int             `json:"id"`
	OriginalName    string          `json:"original_firmware_name"`
	OriginalOffset  uint32          `json:"original_offset"`
	OriginalRawSize uint32          `json:"original_raw_size"`
	Width           uint32          `json:"width"`
	Height          uint32          `json:"height"`
	IsImage         bool            `json:"is_image"`
	SizeInferred    bool            `json:"size_inferred"`
	Transformations Transformations `json:"transformations"`
	SavedFilename   string          `json:"saved_filename"`
}

func safeByte(c rune) rune {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return c
	case strings.ContainsRune("._-(), ", c):
		return c
	default:
		return '_'
	}
}

// Sanitize derives a filesystem-safe name from a firmware resource
// name: path separators become underscores and anything outside a
// small whitelist of punctuation is replaced.
func Sanitize(name string) string {
	safe := strings.NewReplacer("/", "_", "\\", "_").Replace(name)
	return strings.TrimSpace(strings.Map(safeByte, safe))
}

// Builder collects records in id order and hands out collision-free
// output filenames. Not safe for concurrent use; filenames are
// allocated in a single pass before any parallel processing starts.
type Builder struct {
	records []Record
	used    map[string]struct{}
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{
		used: make(map[string]struct{}),
	}
}

// Filename sanitizes name and reserves a unique output filename for
// the record with the given id. Image resources get a .bmp suffix when
// they lack one. Two resources can sanitize to the same name; the
// second has the record id appended before the extension rather than
// silently overwriting the first.
func (b *Builder) Filename(name string, id int, isImage bool) string {
	base := Sanitize(name)
	if base == "" {
		base = fmt.Sprintf("resource_%d", id)
	}
	if isImage && !strings.HasSuffix(strings.ToLower(base), ".bmp") {
		base += ".bmp"
	}

	if _, ok := b.used[base]; ok {
		ext := ""
		if i := strings.LastIndex(base, "."); i > 0 {
			base, ext = base[:i], base[i:]
		}
		base = fmt.Sprintf("%s_%d%s", base, id, ext)
	}

	b.used[base] = struct{}{}
	return base
}

// Add appends a finished record.
func (b *Builder) Add(r Record) {
	b.records = append(b.records, r)
}

// Records returns the collected records.
func (b *Builder) Records() []Record {
	return b.records
}

// WriteJSON serializes the collected records as an indented JSON
// array.
func (b *Builder) WriteJSON(w io.Writer) error {
	e := json.NewEncoder(w)
	e.SetIndent("", "    ")
	records := b.records
	if records == nil {
		records = []Record{}
	}
	return e.Encode(records)
}

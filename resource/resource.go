/*
Package resource locates and sizes the resource records packed into the
main filesystem partition.

Records are found by scanning for a fixed five-byte signature; each hit
is followed by a fixed-layout metadata block carrying the payload
offset, the declared image dimensions and a name. No record stores its
own payload length, so sizes are inferred afterwards from the gap to
the next payload offset.
*/
package resource

import (
	"bytes"
	"strings"

	"github.com/bodgit/hifiec/window"
)

// Magic marks the start of each resource metadata record.
var Magic = []byte{0x77, 0x00, 0x00, 0x3A, 0x75}

// Metadata record layout, relative to the start of the magic.
const (
	reservedLen = 15
	nameLen     = 64

	offsetField = 20 // len(Magic) + reservedLen
	widthField  = offsetField + 4
	heightField = widthField + 4
	nameField   = heightField + 4

	// RecordLen is the total length of one metadata record.
	RecordLen = nameField + nameLen
)

// Descriptor is one scanned metadata record. RawSize, SizeInferred and
// Index are only set once InferSizes has run; a declared size field
// has never been observed in this format, so every accepted descriptor
// ends up with an inferred size.
type Descriptor struct {
	MetaPos uint32
	Offset  uint32
	Width   uint32
	Height  uint32
	Name    string

	RawSize      uint32
	SizeInferred bool

	// Index is the descriptor's position in payload-offset order,
	// assigned before any entries are dropped. Gaps in the sequence
	// mark where a drop happened.
	Index int
}

// cleanName truncates at the first null byte and drops any non-ASCII
// byte. Control characters survive here; the filename sanitizer deals
// with them when the name is written to disk.
func cleanName(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	var sb strings.Builder
	for _, c := range b {
		if c < 0x80 {
			sb.WriteByte(c)
		}
	}
	return sb.String()
}

func decodeRecord(w *window.Window, pos int) (Descriptor, bool) {
	offset, err := w.Uint32LE(pos + offsetField)
	if err != nil {
		return Descriptor{}, false
	}
	width, err := w.Uint32LE(pos + widthField)
	if err != nil {
		return Descriptor{}, false
	}
	height, err := w.Uint32LE(pos + heightField)
	if err != nil {
		return Descriptor{}, false
	}
	name, err := w.Bytes(pos+nameField, nameLen)
	if err != nil {
		return Descriptor{}, false
	}

	d := Descriptor{
		MetaPos: uint32(pos),
		Offset:  offset,
		Width:   width,
		Height:  height,
		Name:    cleanName(name),
	}

	// A dense run of magic-like bytes near the end of the partition
	// produces false positives; an out-of-range offset or an empty
	// name identifies them.
	if int64(offset) >= int64(w.Len()) || d.Name == "" {
		return Descriptor{}, false
	}

	return d, true
}

// Scan walks data for every occurrence of Magic and decodes the record
// behind each hit. Record boundaries are unknown, so the search
// resumes one byte past each match rather than past the whole record.
// The number of discarded matches is returned alongside the accepted
// descriptors.
func Scan(data []byte) ([]Descriptor, int) {
	var (
		out     []Descriptor
		skipped int
	)

	w := window.New(data)
	start := 0
	for {
		i := bytes.Index(data[start:], Magic)
		if i < 0 {
			break
		}
		pos := start + i

		if d, ok := decodeRecord(w, pos); ok {
			out = append(out, d)
		} else {
			skipped++
		}

		start = pos + 1
	}

	return out, skipped
}

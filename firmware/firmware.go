/*
Package firmware decodes the partition layout of a HIFIEC20 firmware
image and extracts the partition contents.

The image carries no self-describing partition table. Two header
encodings were recovered empirically, both 16 bytes of four
little-endian 32-bit words at fixed positions:

  - linked-list: offset, size, next offset, reserved. The next offset
    is reported but never followed; the header positions themselves are
    fixed.
  - absolute pointer: type tag, offset, size, reserved. Used only by
    the audio DSP partition, with offset and size shifted one word
    later than the linked-list form.
*/
package firmware

import (
	"errors"
	"fmt"

	"github.com/bodgit/hifiec/window"
)

// Layout selects which of the two recovered header encodings applies
// at a given header position.
type Layout int

const (
	// LayoutLinked is the (offset, size, next, reserved) encoding.
	LayoutLinked Layout = iota
	// LayoutAbsolute is the (type, offset, size, reserved) encoding.
	LayoutAbsolute
)

func (l Layout) String() string {
	if l == LayoutAbsolute {
		return "absolute"
	}
	return "linked"
}

// Well-known partition names, one per header table slot.
const (
	PartFlag      = "part_0_flag"
	PartFirmwareA = "part_1_firmware_a"
	PartFirmwareB = "part_2_firmware_b"
	PartResource  = "part_3_resource"
	PartAudioDSP  = "part_4_audio_dsp"
	PartMainFS    = "part_5_main_fs"
)

const headerLen = 16

// headerEntry pins one partition header to its absolute position in
// the image. The positions are specific to the HIFIEC20 variant; new
// variants only need a different table, not different decode logic.
type headerEntry struct {
	pos    int
	layout Layout
	name   string
}

var headerTable = []headerEntry{
	{0x70, LayoutLinked, PartFlag},
	{0x78, LayoutLinked, PartFirmwareA},
	{0x80, LayoutLinked, PartFirmwareB},
	{0xCC, LayoutLinked, PartResource},
	{0xF4, LayoutAbsolute, PartAudioDSP},
	{0x14C, LayoutLinked, PartMainFS},
}

// Partition is a named contiguous byte range within the firmware
// image. Data is nil until Extract populates it.
type Partition struct {
	Name   string
	Layout Layout
	Offset uint32
	Size   uint32

	// NextOffset is the third word of a linked-list header. Diagnostic
	// only.
	NextOffset uint32

	// TypeTag is the first word of an absolute-pointer header.
	TypeTag uint32

	Data []byte
}

// End returns the first byte offset past the partition.
func (p *Partition) End() uint32 {
	return p.Offset + p.Size
}

// Table maps partition names to their decoded entries.
type Table map[string]*Partition

// ErrShortImage is returned when the image cannot hold even the first
// fixed header position.
var ErrShortImage = errors.New("firmware: image too short for partition headers")

func decodeHeader(w *window.Window, e headerEntry) (*Partition, error) {
	var words [4]uint32
	for i := range words {
		v, err := w.Uint32LE(e.pos + i*4)
		if err != nil {
			return nil, fmt.Errorf("firmware: malformed header for %s at 0x%X: %w", e.name, e.pos, err)
		}
		words[i] = v
	}

	p := &Partition{
		Name:   e.name,
		Layout: e.layout,
	}
	switch e.layout {
	case LayoutAbsolute:
		p.TypeTag = words[0]
		p.Offset = words[1]
		p.Size = words[2]
	default:
		p.Offset = words[0]
		p.Size = words[1]
		p.NextOffset = words[2]
	}

	return p, nil
}

// DecodeTable decodes every fixed header position in image. A header
// that cannot be read is skipped and reported through the returned
// problem list; the decode only fails outright when the image is too
// short for the first header.
func DecodeTable(image []byte) (Table, []error, error) {
	minLen := headerTable[0].pos + headerLen
	for _, e := range headerTable {
		if e.pos+headerLen < minLen {
			minLen = e.pos + headerLen
		}
	}
	if len(image) < minLen {
		return nil, nil, ErrShortImage
	}

	w := window.New(image)
	t := make(Table, len(headerTable))
	var problems []error
	for _, e := range headerTable {
		p, err := decodeHeader(w, e)
		if err != nil {
			problems = append(problems, err)
			continue
		}
		t[e.name] = p
	}

	return t, problems, nil
}

// Names returns the partition names in header table order, skipping
// any that failed to decode.
func (t Table) Names() []string {
	names := make([]string, 0, len(t))
	for _, e := range headerTable {
		if _, ok := t[e.name]; ok {
			names = append(names, e.name)
		}
	}
	return names
}

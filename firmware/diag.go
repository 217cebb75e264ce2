package firmware

import (
	"errors"

	"github.com/bodgit/hifiec/window"
)

// IndexReport summarizes the resource partition, which holds a table
// of big-endian 16-bit indices.
type IndexReport struct {
	Entries int

	// OddSize is set when the partition length is not a whole number
	// of 16-bit entries; the trailing byte is ignored.
	OddSize bool

	// Linear reports whether the table is the identity mapping
	// 0, 1, 2, ... Entries-1.
	Linear bool

	// BrokenAt is the first index where the mapping deviates from the
	// identity, along with a short sample of values from that point.
	BrokenAt int
	Sample   []uint16
}

const indexSampleLen = 10

// AnalyzeIndexTable decodes data as big-endian 16-bit values and
// checks whether they form a strictly linear mapping. A linear table
// suggests a 1:1 lookup table or a simple counter array.
func AnalyzeIndexTable(data []byte) IndexReport {
	r := IndexReport{
		Entries:  len(data) / 2,
		OddSize:  len(data)%2 != 0,
		Linear:   true,
		BrokenAt: -1,
	}

	w := window.New(data)
	for i := 0; i < r.Entries; i++ {
		v, err := w.Uint16BE(i * 2)
		if err != nil {
			break
		}
		if r.Linear && int(v) != i {
			r.Linear = false
			r.BrokenAt = i
			for j := i; j < r.Entries && j < i+indexSampleLen; j++ {
				s, err := w.Uint16BE(j * 2)
				if err != nil {
					break
				}
				r.Sample = append(r.Sample, s)
			}
			break
		}
	}

	return r
}

// LoadBase is the hypothesized memory address the firmware partitions
// are loaded at. Empirical and unverified; ExecContext results are
// diagnostic hints only.
const LoadBase = 0x80400000

// ExecContext holds the ARM Cortex-M boot words read from the start of
// a firmware partition: the initial main stack pointer followed by the
// reset vector.
type ExecContext struct {
	MSP   uint32
	Reset uint32

	// InRange is set when the reset vector falls inside the partition
	// when loaded at LoadBase.
	InRange bool

	// EntryOffset is the file offset of the reset handler with the
	// Thumb bit cleared. Only meaningful when InRange is set.
	EntryOffset uint32

	// Opcode is the instruction word at EntryOffset, when it could be
	// read.
	Opcode      uint32
	OpcodeValid bool
}

var errShortVectorTable = errors.New("firmware: partition too short for a vector table")

// AnalyzeExecution reads the vector table at the start of a firmware
// partition and checks the reset vector against LoadBase.
func AnalyzeExecution(data []byte) (ExecContext, error) {
	w := window.New(data)

	msp, err := w.Uint32LE(0)
	if err != nil {
		return ExecContext{}, errShortVectorTable
	}
	reset, err := w.Uint32LE(4)
	if err != nil {
		return ExecContext{}, errShortVectorTable
	}

	ctx := ExecContext{
		MSP:   msp,
		Reset: reset,
	}

	if uint64(reset) < LoadBase || uint64(reset) >= LoadBase+uint64(len(data)) {
		return ctx, nil
	}

	ctx.InRange = true
	// Thumb entry points have the low bit set.
	ctx.EntryOffset = (reset &^ 1) - LoadBase

	if op, err := w.Uint32LE(int(ctx.EntryOffset)); err == nil {
		ctx.Opcode = op
		ctx.OpcodeValid = true
	}

	return ctx, nil
}

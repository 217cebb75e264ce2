package firmware

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyzeIndexTableLinear(t *testing.T) {
	data := make([]byte, 8)
	for i := 0; i < 4; i++ {
		binary.BigEndian.PutUint16(data[i*2:], uint16(i))
	}

	r := AnalyzeIndexTable(data)
	assert.Equal(t, 4, r.Entries)
	assert.False(t, r.OddSize)
	assert.True(t, r.Linear)
	assert.Equal(t, -1, r.BrokenAt)
}

func TestAnalyzeIndexTableBroken(t *testing.T) {
	data := make([]byte, 10)
	for i := 0; i < 5; i++ {
		binary.BigEndian.PutUint16(data[i*2:], uint16(i))
	}
	binary.BigEndian.PutUint16(data[4:], 0x1234)

	r := AnalyzeIndexTable(data)
	assert.False(t, r.Linear)
	assert.Equal(t, 2, r.BrokenAt)
	require.NotEmpty(t, r.Sample)
	assert.Equal(t, uint16(0x1234), r.Sample[0])
}

func TestAnalyzeIndexTableOddSize(t *testing.T) {
	r := AnalyzeIndexTable(make([]byte, 5))
	assert.True(t, r.OddSize)
	assert.Equal(t, 2, r.Entries)
}

func TestAnalyzeExecution(t *testing.T) {
	data := make([]byte, 0x100)
	binary.LittleEndian.PutUint32(data[0:], 0x20001000)
	// Reset vector with the Thumb bit set, pointing at 0x40.
	binary.LittleEndian.PutUint32(data[4:], LoadBase+0x41)
	binary.LittleEndian.PutUint32(data[0x40:], 0xF000F8DF)

	ctx, err := AnalyzeExecution(data)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x20001000), ctx.MSP)
	assert.True(t, ctx.InRange)
	assert.Equal(t, uint32(0x40), ctx.EntryOffset)
	assert.True(t, ctx.OpcodeValid)
	assert.Equal(t, uint32(0xF000F8DF), ctx.Opcode)
}

func TestAnalyzeExecutionOutOfRange(t *testing.T) {
	data := make([]byte, 0x10)
	binary.LittleEndian.PutUint32(data[4:], 0x1000)

	ctx, err := AnalyzeExecution(data)
	require.NoError(t, err)
	assert.False(t, ctx.InRange)
}

func TestAnalyzeExecutionShort(t *testing.T) {
	_, err := AnalyzeExecution(make([]byte, 6))
	assert.Error(t, err)
}

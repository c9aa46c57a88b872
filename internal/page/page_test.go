package page

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBlankPage() Page {
	return New(make([]byte, Size))
}

func TestNewPanicsOnShortSlice(t *testing.T) {
	assert.Panics(t, func() { New(make([]byte, Size-1)) })
}

func TestFILHeaderRoundTrip(t *testing.T) {
	p := newBlankPage()
	p.SetSpaceID(7)
	p.SetPageNo(42)
	p.SetFileType(TypeIndex)

	assert.EqualValues(t, 7, p.SpaceID())
	assert.EqualValues(t, 42, p.PageNo())
	assert.EqualValues(t, TypeIndex, p.FileType())
}

func TestSetLSNMirrorsTrailerLowBits(t *testing.T) {
	p := newBlankPage()
	p.SetLSN(0x1122334455667788)

	require.EqualValues(t, 0x1122334455667788, p.LSN())
	low := uint32(p.Bytes[TrailerEndLSNOldChks+4])<<24 |
		uint32(p.Bytes[TrailerEndLSNOldChks+5])<<16 |
		uint32(p.Bytes[TrailerEndLSNOldChks+6])<<8 |
		uint32(p.Bytes[TrailerEndLSNOldChks+7])
	assert.EqualValues(t, 0x55667788, low)
}

func TestSetChecksumSentinel(t *testing.T) {
	p := newBlankPage()
	p.SetChecksumSentinel()
	got := uint32(p.Bytes[TrailerEndLSNOldChks])<<24 |
		uint32(p.Bytes[TrailerEndLSNOldChks+1])<<16 |
		uint32(p.Bytes[TrailerEndLSNOldChks+2])<<8 |
		uint32(p.Bytes[TrailerEndLSNOldChks+3])
	assert.EqualValues(t, ChecksumSentinel, got)
}

func TestPageHeaderFieldRoundTrip(t *testing.T) {
	p := newBlankPage()
	p.SetNDirSlots(3)
	p.SetHeapTop(200)
	p.SetNHeap(5 | NHeapNewFormatFlag)
	p.SetFree(0)
	p.SetGarbage(12)
	p.SetDirection(DirectionRight)
	p.SetNDirection(9)
	p.SetNRecs(4)
	p.SetLevel(1)
	p.SetIndexID(0xABCD)

	assert.EqualValues(t, 3, p.NDirSlots())
	assert.EqualValues(t, 200, p.HeapTop())
	assert.EqualValues(t, 5|NHeapNewFormatFlag, p.NHeap())
	assert.EqualValues(t, 0, p.Free())
	assert.EqualValues(t, 12, p.Garbage())
	assert.EqualValues(t, DirectionRight, p.Direction())
	assert.EqualValues(t, 9, p.NDirection())
	assert.EqualValues(t, 4, p.NRecs())
	assert.EqualValues(t, 1, p.Level())
	assert.EqualValues(t, 0xABCD, p.IndexID())
}

func TestDirSlotsGrowBackwardFromTrailer(t *testing.T) {
	p := newBlankPage()
	p.SetDirSlot(0, 100)
	p.SetDirSlot(1, 200)

	assert.EqualValues(t, 100, p.DirSlot(0))
	assert.EqualValues(t, 200, p.DirSlot(1))
	// Slot 0 sits closer to the trailer than slot 1.
	off0 := TrailerEndLSNOldChks - 2*1
	off1 := TrailerEndLSNOldChks - 2*2
	assert.Greater(t, off0, off1)
}

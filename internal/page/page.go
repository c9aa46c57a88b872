// Package page defines the on-disk byte layout of a data page and typed
// accessors over it. Offsets are taken from the FIL_PAGE_* / PAGE_* constant
// tables used by physiological redo recovery.
package page

import "encoding/binary"

// Size is the fixed page size in bytes.
const Size = 16384

// FIL header field offsets (bytes 0..38 of every page).
const (
	FILSpaceOrChecksum     = 0
	FILOffset              = 4
	FILPrev                = 8
	FILNext                = 12
	FILLSN                 = 16
	FILType                = 24
	FILFileFlushLSN        = 26
	FILArchLogNoOrSpaceID  = 34
	FILHeaderSize          = 38
)

// FIL trailer (last 8 bytes of the page).
const (
	TrailerSize          = 8
	TrailerEndLSNOldChks = Size - TrailerSize
)

// ChecksumSentinel marks a page as "apply in progress, not checksummed"
// per the per-apply trailer invariant.
const ChecksumSentinel = 0xDEADBEEF

// FIL_PAGE_TYPE codes this module recognizes.
const (
	TypeUndoLog    = 2
	TypeInode      = 3
	TypeIBufFreeLS = 4
	TypeSys        = 6
	TypeTrxSys     = 7
	TypeFSPHdr     = 8
	TypeXDES       = 9
	TypeBlob       = 10
	TypeIndex      = 17855
)

// PAGE_HEADER field offsets, relative to the start of the page (the region
// begins immediately after the 38-byte FIL header).
const (
	HeaderStart    = FILHeaderSize
	NDirSlots      = HeaderStart + 0
	HeapTop        = HeaderStart + 2
	NHeap          = HeaderStart + 4
	Free           = HeaderStart + 6
	Garbage        = HeaderStart + 8
	LastInsert     = HeaderStart + 10
	Direction      = HeaderStart + 12
	NDirection     = HeaderStart + 14
	NRecs          = HeaderStart + 16
	MaxTrxID       = HeaderStart + 18
	Level          = HeaderStart + 26
	IndexID        = HeaderStart + 28
	HeaderEnd      = HeaderStart + 36
	DataStart      = HeaderEnd
)

// PAGE_DIRECTION values.
const (
	DirectionNone  = 0
	DirectionLeft  = 1
	DirectionRight = 2
)

// NHeap carries the "new compact format" flag in its top bit.
const NHeapNewFormatFlag = 0x8000

// Page wraps a page-sized byte slice with typed field accessors. It never
// owns the backing array's lifetime; callers obtain one from a buffer
// pool frame.
type Page struct {
	Bytes []byte
}

// New wraps an existing byte slice. Panics if it is not page-sized, since
// a short page is a programmer error, not a runtime condition to recover
// from.
func New(b []byte) Page {
	if len(b) != Size {
		panic("page: backing slice is not page-sized")
	}
	return Page{Bytes: b}
}

func (p Page) u16(off int) uint16 { return binary.BigEndian.Uint16(p.Bytes[off : off+2]) }
func (p Page) u32(off int) uint32 { return binary.BigEndian.Uint32(p.Bytes[off : off+4]) }
func (p Page) u64(off int) uint64 { return binary.BigEndian.Uint64(p.Bytes[off : off+8]) }

func (p Page) putU16(off int, v uint16) { binary.BigEndian.PutUint16(p.Bytes[off:off+2], v) }
func (p Page) putU32(off int, v uint32) { binary.BigEndian.PutUint32(p.Bytes[off:off+4], v) }
func (p Page) putU64(off int, v uint64) { binary.BigEndian.PutUint64(p.Bytes[off:off+8], v) }

// SpaceID returns FIL_PAGE_ARCH_LOG_NO_OR_SPACE_ID (FIL header offset 34),
// used by this module as the page's space-id once initialized by
// INIT_FILE_PAGE2 or PAGE_CREATE.
func (p Page) SpaceID() uint32  { return p.u32(FILArchLogNoOrSpaceID) }
func (p Page) PageNo() uint32   { return p.u32(FILOffset) }
func (p Page) LSN() uint64      { return p.u64(FILLSN) }
func (p Page) FileType() uint16 { return p.u16(FILType) }

func (p Page) SetSpaceID(v uint32) { p.putU32(FILArchLogNoOrSpaceID, v) }
func (p Page) SetPageNo(v uint32)  { p.putU32(FILOffset, v) }
func (p Page) SetFileType(v uint16) { p.putU16(FILType, v) }

// SetLSN writes FIL_PAGE_LSN and mirrors its low 4 bytes into the trailer,
// per the Data Page trailer invariant ("low 4 bytes mirror the page-LSN
// low 4 bytes").
func (p Page) SetLSN(v uint64) {
	p.putU64(FILLSN, v)
	binary.BigEndian.PutUint32(p.Bytes[TrailerEndLSNOldChks+4:TrailerEndLSNOldChks+8], uint32(v))
}

// SetChecksumSentinel writes the trailer's checksum half to the
// "apply in progress" sentinel, per Invariant 5.
func (p Page) SetChecksumSentinel() {
	binary.BigEndian.PutUint32(p.Bytes[TrailerEndLSNOldChks:TrailerEndLSNOldChks+4], ChecksumSentinel)
}

func (p Page) NDirSlots() uint16   { return p.u16(NDirSlots) }
func (p Page) HeapTop() uint16     { return p.u16(HeapTop) }
func (p Page) NHeap() uint16       { return p.u16(NHeap) }
func (p Page) Free() uint16        { return p.u16(Free) }
func (p Page) Garbage() uint16     { return p.u16(Garbage) }
func (p Page) Direction() uint16   { return p.u16(Direction) }
func (p Page) NDirection() uint16  { return p.u16(NDirection) }
func (p Page) NRecs() uint16       { return p.u16(NRecs) }
func (p Page) Level() uint16       { return p.u16(Level) }
func (p Page) IndexID() uint64     { return p.u64(IndexID) }

func (p Page) SetNDirSlots(v uint16)  { p.putU16(NDirSlots, v) }
func (p Page) SetHeapTop(v uint16)    { p.putU16(HeapTop, v) }
func (p Page) SetNHeap(v uint16)      { p.putU16(NHeap, v) }
func (p Page) SetFree(v uint16)       { p.putU16(Free, v) }
func (p Page) SetGarbage(v uint16)    { p.putU16(Garbage, v) }
func (p Page) SetDirection(v uint16)  { p.putU16(Direction, v) }
func (p Page) SetNDirection(v uint16) { p.putU16(NDirection, v) }
func (p Page) SetNRecs(v uint16)      { p.putU16(NRecs, v) }
func (p Page) SetLevel(v uint16)      { p.putU16(Level, v) }
func (p Page) SetIndexID(v uint64)    { p.putU64(IndexID, v) }

// DirSlot returns the byte offset (within the page) stored at directory
// slot i, counting from the trailer upward: slot 0 is the rightmost
// 2-byte entry immediately before the 8-byte FIL trailer.
func (p Page) DirSlot(i int) uint16 {
	off := TrailerEndLSNOldChks - 2*(i+1)
	return p.u16(off)
}

// SetDirSlot writes directory slot i.
func (p Page) SetDirSlot(i int, recOffset uint16) {
	off := TrailerEndLSNOldChks - 2*(i+1)
	p.putU16(off, recOffset)
}

package redolog

import "github.com/zhukovaskychina/xmysql-server/internal/redolog/mach"

// Log block framing constants, from the external interface's on-disk
// block layout (12-byte header + payload + 4-byte trailer).
const (
	BlockSize    = 512
	HdrSize      = 12
	TrlSize      = 4
	UsableData   = BlockSize - HdrSize - TrlSize // 496

	hdrBlockNumber   = 0
	hdrDataLength    = 4
	hdrFirstRecGroup = 6
	hdrCheckpointNo  = 8

	blockFlushBitMask = 0x80000000
)

// NMetadataBlocks is the count of reserved header/checkpoint blocks at
// the start of the log partition's first page; real log data begins at
// block index NMetadataBlocks.
const NMetadataBlocks = 4

// DataPageSize is the page granularity of the log partition itself (the
// log is read through the same P-byte page abstraction as data pages).
const DataPageSize = 16 * 1024

// NBlocksPerPage is the number of 512-byte blocks in one log partition
// page.
const NBlocksPerPage = DataPageSize / BlockSize

// blockView is a thin accessor over one raw 512-byte block.
type blockView struct {
	b []byte
}

func (v blockView) blockNumber() uint32 {
	return mach.ReadBE32(v.b[hdrBlockNumber:]) &^ blockFlushBitMask
}

func (v blockView) dataLength() uint16    { return mach.ReadBE16(v.b[hdrDataLength:]) }
func (v blockView) firstRecGroup() uint16 { return mach.ReadBE16(v.b[hdrFirstRecGroup:]) }
func (v blockView) checkpointNo() uint32  { return mach.ReadBE32(v.b[hdrCheckpointNo:]) }

// complete reports whether this block has been fully flushed, per
// Invariant 2: a block is complete iff its data-length equals the block
// size.
func (v blockView) complete() bool { return v.dataLength() == BlockSize }

// payload returns the de-framed payload bytes: [HdrSize, dataLength -
// TrlSize). Block headers and trailers never appear in the parse
// buffer, per spec.md §4.C.
func (v blockView) payload() []byte {
	dl := int(v.dataLength())
	return v.b[HdrSize : dl-TrlSize]
}

package redolog

import (
	"context"

	"github.com/juju/errors"

	"github.com/zhukovaskychina/xmysql-server/internal/redolog/mach"
)

// Checkpoint offsets within the log partition's first page. Blocks 1 and
// 3 each hold one checkpoint descriptor at these field offsets relative
// to the start of the block.
const (
	checkpoint1Block = 1
	checkpoint2Block = 3

	fieldCheckpointNo     = 0
	fieldCheckpointLSN    = 8
	fieldCheckpointOffset = 16
)

// Checkpoint holds one selected checkpoint descriptor.
type Checkpoint struct {
	Number uint32
	LSN    uint64
	Offset uint64
}

// SelectCheckpoint reads the log partition's first page and picks the
// checkpoint descriptor (of the two in blocks 1 and 3) with the greater
// checkpoint-number, per Invariant 1.
func SelectCheckpoint(ctx context.Context, firstPage []byte) (Checkpoint, error) {
	if len(firstPage) < DataPageSize {
		return Checkpoint{}, errors.Errorf("redolog: log partition first page is %d bytes, want %d", len(firstPage), DataPageSize)
	}

	c1 := readCheckpointBlock(firstPage, checkpoint1Block)
	c2 := readCheckpointBlock(firstPage, checkpoint2Block)

	if c1.Number >= c2.Number {
		return c1, nil
	}
	return c2, nil
}

func readCheckpointBlock(firstPage []byte, blockIdx int) Checkpoint {
	base := blockIdx * BlockSize
	block := firstPage[base : base+BlockSize]
	// LOG_CHECKPOINT_NO is an 8-byte field (mach_read_from_8 in the
	// original); this module's checkpoint numbers never exceed 32 bits in
	// practice, so only the low 32 bits are kept, matching the original's
	// own truncation when it narrows this field for comparison.
	return Checkpoint{
		Number: uint32(mach.ReadBE64(block[fieldCheckpointNo:])),
		LSN:    mach.ReadBE64(block[fieldCheckpointLSN:]),
		Offset: mach.ReadBE64(block[fieldCheckpointOffset:]),
	}
}

// Package redolog implements the Log Reader & Parser component:
// checkpoint selection, block de-framing, a double-buffered parse
// buffer with tail-carry, and per-type record decoding with exact LSN
// accounting across block boundaries.
package redolog

import (
	"context"

	"github.com/juju/errors"

	"github.com/zhukovaskychina/xmysql-server/internal/blockdev"
	"github.com/zhukovaskychina/xmysql-server/logger"
)

// HalfBufferSize (B) is the size of one half of the double parse
// buffer.
const HalfBufferSize = 2 * 1024 * 1024

// StartLSN is the fixed LSN assigned to the first byte of real log data
// (immediately after the NMetadataBlocks header region), per Testable
// Property 2.
const StartLSN = 8716

// ErrEndOfLog is returned by Next when no further complete record is
// available and the tail of the log has been reached (an incomplete
// block, or simply no more pages).
var ErrEndOfLog = errors.New("redolog: end of log")

// Reader drives the Log Reader & Parser component over one log
// partition device.
type Reader struct {
	dev *blockdev.Device

	buf    [2][]byte
	active int

	data []byte // buf[active][:n], the undecoded remainder of the current pass
	pos  int

	curPage     []byte
	curPageLBA  uint32
	blockInPage int

	nextLSN     uint64
	lsnBlockPos int // position within the current 496-byte usable block, for boundary accounting
}

// NewReader constructs a Reader over dev, positioned to begin decoding
// at the first data-carrying block (page 0, block NMetadataBlocks).
func NewReader(dev *blockdev.Device) *Reader {
	r := &Reader{
		dev:         dev,
		blockInPage: NMetadataBlocks,
		nextLSN:     StartLSN,
	}
	r.buf[0] = make([]byte, HalfBufferSize)
	r.buf[1] = make([]byte, HalfBufferSize)
	return r
}

// SelectCheckpoint reads the log partition's first page and returns the
// winning checkpoint descriptor, without moving the reader's own decode
// position (which always begins at StartLSN regardless of which
// checkpoint was selected — the checkpoint only gates which records the
// applier is allowed to apply, per spec.md §4.D).
func (r *Reader) SelectCheckpoint(ctx context.Context) (Checkpoint, error) {
	firstPage, err := r.dev.ReadPages(ctx, 0, 1) // blockdev's page unit is P=16KiB, same as DataPageSize
	if err != nil {
		return Checkpoint{}, errors.Trace(err)
	}
	return SelectCheckpoint(ctx, firstPage)
}

// Next decodes and returns the next record, refilling and tail-carrying
// the parse buffer as needed. It returns ErrEndOfLog when a refill
// pass reads no new complete block and the remaining buffered bytes
// still do not hold a complete record — spec.md's "the reader may
// re-poll" case: a later call to Next (after the log partition has
// grown a new complete block) resumes from exactly this position.
func (r *Reader) Next(ctx context.Context) (*Record, error) {
	for {
		if len(r.data)-r.pos > 0 {
			rec, n, err := decodeOne(r.data[r.pos:])
			if err == nil {
				r.pos += n
				rec.LSN = r.nextLSN
				r.advanceLSN(n)
				return rec, nil
			}
			if errors.Cause(err) != ErrTruncated {
				return nil, errors.Trace(err)
			}
		}

		progressed, err := r.refill(ctx)
		if err != nil {
			return nil, errors.Trace(err)
		}
		if !progressed {
			return nil, errors.Trace(ErrEndOfLog)
		}
	}
}

// refill carries any undecoded tail of the current active half into the
// other half, fills it from the device up to HalfBufferSize bytes of
// de-framed payload, and makes it the new active half. It returns
// progressed=false when it adds no new payload bytes at all — either
// because the very next block is not yet fully flushed (Invariant 2),
// or the underlying device has no further pages.
func (r *Reader) refill(ctx context.Context) (bool, error) {
	tail := append([]byte(nil), r.data[r.pos:]...)
	other := 1 - r.active

	n := copy(r.buf[other], tail)
	added := 0

	for n+UsableData <= HalfBufferSize {
		payload, ok, err := r.nextBlockPayload(ctx)
		if err != nil {
			return false, errors.Trace(err)
		}
		if !ok {
			break
		}
		n += copy(r.buf[other][n:], payload)
		added += len(payload)
	}

	r.active = other
	r.data = r.buf[other][:n]
	r.pos = 0
	return added > 0, nil
}

// nextBlockPayload returns the de-framed payload of the next block in
// stream order, advancing the reader's page/block cursor. ok is false
// when the block is not yet fully flushed (Invariant 2).
func (r *Reader) nextBlockPayload(ctx context.Context) ([]byte, bool, error) {
	if r.curPage == nil {
		data, err := r.dev.ReadPages(ctx, r.curPageLBA, 1)
		if err != nil {
			return nil, false, errors.Trace(err)
		}
		r.curPage = data
	}

	block := blockView{b: r.curPage[r.blockInPage*BlockSize : (r.blockInPage+1)*BlockSize]}
	if !block.complete() {
		logger.Warnf("redolog: incomplete block at page=%d block=%d (data_length=%d), stopping pass", r.curPageLBA, r.blockInPage, block.dataLength())
		// Drop the cached page so a later retry re-reads from disk: the
		// writer may finish this block after this call returns, and a
		// stale in-memory copy would never observe that.
		r.curPage = nil
		return nil, false, nil
	}

	payload := append([]byte(nil), block.payload()...)

	r.blockInPage++
	if r.blockInPage == NBlocksPerPage {
		r.blockInPage = 0
		r.curPageLBA++
		r.curPage = nil
	}
	return payload, true, nil
}

// advanceLSN implements the boundary-aware LSN formula: n bytes of
// record payload advance next_lsn by n, plus HdrSize+TrlSize every time
// the cumulative position crosses a UsableData-byte block boundary.
func (r *Reader) advanceLSN(n int) {
	remaining := n
	for remaining > 0 {
		avail := UsableData - r.lsnBlockPos
		step := remaining
		if step > avail {
			step = avail
		}
		r.nextLSN += uint64(step)
		r.lsnBlockPos += step
		remaining -= step
		if r.lsnBlockPos == UsableData {
			r.nextLSN += uint64(HdrSize + TrlSize)
			r.lsnBlockPos = 0
		}
	}
}

// NextLSN exposes the reader's current position, mainly for logging and
// tests.
func (r *Reader) NextLSN() uint64 { return r.nextLSN }

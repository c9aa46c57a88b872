package redolog

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhukovaskychina/xmysql-server/internal/blockdev"
	"github.com/zhukovaskychina/xmysql-server/internal/redolog/mach"
)

// buildLogFile writes a metadata page (with the two checkpoint blocks)
// followed by nDataPages pages of well-framed blocks encoding the given
// raw record payload stream, split across 496-byte usable-data blocks.
func buildLogFile(t *testing.T, checkpointNo uint32, checkpointLSN uint64, payload []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "redo.log")

	totalDataBytes := len(payload)
	nDataBlocks := (totalDataBytes + UsableData - 1) / UsableData
	if nDataBlocks == 0 {
		nDataBlocks = 0
	}
	nDataPages := (NMetadataBlocks+nDataBlocks)/NBlocksPerPage + 1

	buf := make([]byte, nDataPages*DataPageSize)

	writeCheckpoint := func(blockIdx int, no uint32, lsn uint64) {
		base := blockIdx * BlockSize
		mach.WriteBE64(buf[base+0:], uint64(no)) // LOG_CHECKPOINT_NO is 8 bytes
		mach.WriteBE64(buf[base+8:], lsn)
		mach.WriteBE64(buf[base+16:], 0)
	}
	writeCheckpoint(1, checkpointNo, checkpointLSN)
	writeCheckpoint(3, 0, 0) // loser checkpoint

	pos := 0
	for b := NMetadataBlocks; pos < totalDataBytes || b == NMetadataBlocks; b++ {
		base := b * BlockSize
		n := UsableData
		if totalDataBytes-pos < n {
			n = totalDataBytes - pos
		}
		if n == 0 && pos >= totalDataBytes {
			break
		}
		copy(buf[base+HdrSize:], payload[pos:pos+n])
		mach.WriteBE32(buf[base+0:], uint32(b))
		mach.WriteBE16(buf[base+4:], BlockSize) // data-length always 512 for a complete block
		pos += n
	}

	require.NoError(t, os.WriteFile(path, buf, 0644))
	return path
}

func openDevice(t *testing.T, path string) *blockdev.Device {
	t.Helper()
	d, err := blockdev.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })
	return d
}

func TestCheckpointSelectionIsMonotone(t *testing.T) {
	path := buildLogFile(t, 5, 1000, nil)
	dev := openDevice(t, path)
	r := NewReader(dev)

	cp, err := r.SelectCheckpoint(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 5, cp.Number)
	assert.EqualValues(t, 1000, cp.LSN)
}

// TestCheckpointSelectionPicksHigherNumberedBlock exercises the other
// direction: block 3 (the "loser" slot in buildLogFile's normal usage)
// must win when its checkpoint number is actually higher, proving
// selection reads the real 8-byte LOG_CHECKPOINT_NO field rather than
// always favoring block 1.
func TestCheckpointSelectionPicksHigherNumberedBlock(t *testing.T) {
	path := buildLogFile(t, 5, 1000, nil)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	mach.WriteBE64(raw[3*BlockSize+0:], 9)
	mach.WriteBE64(raw[3*BlockSize+8:], 2000)
	require.NoError(t, os.WriteFile(path, raw, 0644))

	dev := openDevice(t, path)
	r := NewReader(dev)
	cp, err := r.SelectCheckpoint(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 9, cp.Number)
	assert.EqualValues(t, 2000, cp.LSN)
}

func Type1ByteRecord(offset uint16, value byte, space, pageNo uint32) []byte {
	body := []byte{byte(Type1Byte)}
	body = append(body, mach.EncodeCompressed(space)...)
	body = append(body, mach.EncodeCompressed(pageNo)...)
	off := make([]byte, 2)
	mach.WriteBE16(off, offset)
	body = append(body, off...)
	body = append(body, mach.EncodeCompressed(uint32(value))...)
	return body
}

func TestSingleRecordRoundTrip(t *testing.T) {
	rec := Type1ByteRecord(16, 0x42, 26, 0)
	path := buildLogFile(t, 1, 0, rec)
	dev := openDevice(t, path)
	r := NewReader(dev)

	got, err := r.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Type1Byte, got.Type)
	assert.EqualValues(t, 26, got.Space)
	assert.EqualValues(t, 0, got.Page)
	assert.EqualValues(t, StartLSN, got.LSN)

	_, err = r.Next(context.Background())
	require.Error(t, err)
	assert.Equal(t, ErrEndOfLog, errors.Cause(err))
}

func TestLSNAdvancesAcrossBlockBoundary(t *testing.T) {
	// Enough repeated small records to force at least one 496-byte
	// block-boundary crossing, which must add HdrSize+TrlSize to the
	// LSN beyond the raw byte count consumed.
	var stream []byte
	for len(stream) < UsableData+10 {
		stream = append(stream, Type1ByteRecord(16, 3, 26, 0)...)
	}

	path := buildLogFile(t, 1, 0, stream)
	dev := openDevice(t, path)
	r := NewReader(dev)

	var lastLSN uint64
	count := 0
	for {
		rec, err := r.Next(context.Background())
		if err != nil {
			break
		}
		if count > 0 {
			assert.Greater(t, rec.LSN, lastLSN)
		}
		lastLSN = rec.LSN
		count++
	}
	assert.Greater(t, count, 1)
	// Crossing one 496-byte boundary must add 16 framing bytes beyond
	// the raw byte count consumed.
	assert.Greater(t, lastLSN, StartLSN+uint64(len(stream))-1)
}

// writeStringRecordOfLen builds a WRITE_STRING record whose total encoded
// length is exactly total bytes, so a caller can fill a block's usable
// payload with no trailing zero padding.
func writeStringRecordOfLen(total int) []byte {
	const prefixLen = 7 // type + space(1) + page(1) + offset(2) + length(2)
	dataLen := total - prefixLen
	body := []byte{byte(TypeWriteString), 0, 0}
	offBuf := make([]byte, 2)
	mach.WriteBE16(offBuf, 0)
	body = append(body, offBuf...)
	lenBuf := make([]byte, 2)
	mach.WriteBE16(lenBuf, uint16(dataLen))
	body = append(body, lenBuf...)
	body = append(body, make([]byte, dataLen)...)
	return body
}

// TestNextRepollsAfterCachedIncompleteBlock builds a log whose first
// block (block 4) holds one complete record filling the block's usable
// payload exactly, and whose second block (block 5, a non-zero position
// within the already-read page) starts out incomplete. The first Next
// call must succeed from block 4 alone; the second must report
// end-of-log. After the on-disk block 5 is completed (simulating the
// writer catching up), a third Next call must observe the update rather
// than replaying a stale cached copy of the page.
func TestNextRepollsAfterCachedIncompleteBlock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "redo.log")
	buf := make([]byte, DataPageSize)

	rec1 := writeStringRecordOfLen(UsableData)
	require.Len(t, rec1, UsableData)
	block4 := 4 * BlockSize
	mach.WriteBE32(buf[block4+0:], 4)
	mach.WriteBE16(buf[block4+4:], BlockSize) // complete
	copy(buf[block4+HdrSize:], rec1)

	block5 := 5 * BlockSize
	mach.WriteBE32(buf[block5+0:], 5)
	mach.WriteBE16(buf[block5+4:], 0) // incomplete: not yet flushed

	require.NoError(t, os.WriteFile(path, buf, 0644))
	dev := openDevice(t, path)
	r := NewReader(dev)

	rec, err := r.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, TypeWriteString, rec.Type)

	_, err = r.Next(context.Background())
	require.Error(t, err)
	assert.Equal(t, ErrEndOfLog, errors.Cause(err))

	rec2 := Type1ByteRecord(16, 0x7, 26, 0)
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	mach.WriteBE16(raw[block5+4:], BlockSize) // now flushed
	copy(raw[block5+HdrSize:], rec2)
	require.NoError(t, os.WriteFile(path, raw, 0644))

	rec, err = r.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Type1Byte, rec.Type)
	assert.EqualValues(t, 26, rec.Space)
}

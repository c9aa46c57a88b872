package applier

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhukovaskychina/xmysql-server/internal/blockdev"
	"github.com/zhukovaskychina/xmysql-server/internal/bufferpool"
	"github.com/zhukovaskychina/xmysql-server/internal/page"
	"github.com/zhukovaskychina/xmysql-server/internal/page/record"
	"github.com/zhukovaskychina/xmysql-server/internal/redolog"
	"github.com/zhukovaskychina/xmysql-server/internal/redolog/mach"
)

func newTestApplier(t *testing.T) (*Applier, *bufferpool.Pool) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dev.bin")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, f.Truncate(int64(blockdev.FirstTablespaceLBA+8)*page.Size))
	require.NoError(t, f.Close())

	dev, err := blockdev.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = dev.Close() })

	pool := bufferpool.New(dev, 4)
	return New(pool), pool
}

func TestCreatePageThenInsert(t *testing.T) {
	a, pool := newTestApplier(t)
	ctx := context.Background()

	createRec := &redolog.Record{Type: redolog.TypeCompPageCreate, Space: 0, Page: 1, LSN: 100}
	outcome, err := a.Apply(ctx, createRec, 0)
	require.NoError(t, err)
	assert.Equal(t, Applied, outcome)

	frame, err := pool.Get(ctx, 0, 1)
	require.NoError(t, err)
	p := frame.AsPage()
	assert.EqualValues(t, 2, p.NDirSlots())
	assert.EqualValues(t, record.StatusInfimum, record.Status(p.Bytes, record.InfimumOrigin))
	assert.EqualValues(t, record.StatusSupremum, record.Status(p.Bytes, record.SupremumOrigin))
	assert.EqualValues(t, 1, record.NOwned(p.Bytes, record.SupremumOrigin))
	assert.EqualValues(t, record.SupremumOrigin, record.NextOrigin(p.Bytes, record.InfimumOrigin))

	insertBody := buildInsertBody(t, record.InfimumOrigin, []byte{0xAA, 0xBB, 0xCC, 0xDD})
	insertRec := &redolog.Record{Type: redolog.TypeCompRecInsert, Space: 0, Page: 1, LSN: 200, Body: insertBody}
	outcome, err = a.Apply(ctx, insertRec, 0)
	require.NoError(t, err)
	assert.Equal(t, Applied, outcome)

	assert.EqualValues(t, 3, p.NHeap()&^page.NHeapNewFormatFlag)
	assert.EqualValues(t, 1, p.NRecs())
	assert.EqualValues(t, 2, record.NOwned(p.Bytes, record.SupremumOrigin))

	newOrigin := record.NextOrigin(p.Bytes, record.InfimumOrigin)
	assert.NotZero(t, newOrigin)
	assert.EqualValues(t, record.SupremumOrigin, record.NextOrigin(p.Bytes, newOrigin))
	assert.Equal(t, []byte{0xAA, 0xBB, 0xCC, 0xDD}, p.Bytes[newOrigin:newOrigin+4])
	assert.EqualValues(t, 200, p.LSN())
}

func TestApplySkippedByLSN(t *testing.T) {
	a, pool := newTestApplier(t)
	ctx := context.Background()

	_, err := a.Apply(ctx, &redolog.Record{Type: redolog.TypeCompPageCreate, Space: 0, Page: 1, LSN: 500}, 0)
	require.NoError(t, err)

	offBuf := make([]byte, 2)
	mach.WriteBE16(offBuf, 10)
	body := append(append([]byte{}, offBuf...), mach.EncodeCompressed(0x42)...)
	stale := &redolog.Record{Type: redolog.Type1Byte, Space: 0, Page: 1, LSN: 100, Body: body}

	outcome, err := a.Apply(ctx, stale, 0)
	require.NoError(t, err)
	assert.Equal(t, SkippedByLSN, outcome)

	frame, err := pool.Get(ctx, 0, 1)
	require.NoError(t, err)
	assert.EqualValues(t, 500, frame.AsPage().LSN())
}

func TestApplySkippedByCheckpoint(t *testing.T) {
	a, _ := newTestApplier(t)
	ctx := context.Background()

	outcome, err := a.Apply(ctx, &redolog.Record{Type: redolog.TypeCompPageCreate, Space: 0, Page: 2, LSN: 50}, 1000)
	require.NoError(t, err)
	assert.Equal(t, SkippedByCheckpoint, outcome)
}

func TestApplyNoOpType(t *testing.T) {
	a, _ := newTestApplier(t)
	ctx := context.Background()

	outcome, err := a.Apply(ctx, &redolog.Record{Type: redolog.TypeCompRecDelete, Space: 0, Page: 1, LSN: 10}, 0)
	require.NoError(t, err)
	assert.Equal(t, NoOp, outcome)
}

// buildInsertBody constructs a minimal COMP_REC_INSERT body: one fixed,
// non-nullable 4-byte field, no index descriptor reuse (end-seg carries
// the full extra+data region, so the optional mismatch triple is
// omitted).
func buildInsertBody(t *testing.T, prevOrigin int, data []byte) []byte {
	t.Helper()
	var body []byte
	body = append(body, mach.EncodeCompressed(1)...) // n_fields
	body = append(body, mach.EncodeCompressed(1)...) // n_unique
	fieldInfo := make([]byte, 2)
	mach.WriteBE16(fieldInfo, uint16(len(data))) // fixed-len, not nullable
	body = append(body, fieldInfo...)

	prevBuf := make([]byte, 2)
	mach.WriteBE16(prevBuf, uint16(prevOrigin))
	body = append(body, prevBuf...)

	endSegLen := uint32(len(data)) << 1 // bit 0 clear: no mismatch triple
	body = append(body, mach.EncodeCompressed(endSegLen)...)
	body = append(body, data...)
	return body
}

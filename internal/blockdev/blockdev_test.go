package blockdev

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhukovaskychina/xmysql-server/internal/page"
)

func newTestDevice(t *testing.T, nPages int) *Device {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dev.bin")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, f.Truncate(int64(nPages)*page.Size))
	require.NoError(t, f.Close())

	d, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })
	return d
}

func TestReadWriteRoundTrip(t *testing.T) {
	d := newTestDevice(t, int(FirstTablespaceLBA)+2)
	ctx := context.Background()

	buf := bytes.Repeat([]byte{0xAB}, page.Size)
	require.NoError(t, d.WritePage(ctx, 0, 1, buf))

	got, err := d.ReadPage(ctx, 0, 1)
	require.NoError(t, err)
	assert.Equal(t, buf, got)
}

func TestTablespaceLBAMapping(t *testing.T) {
	lba, err := TablespaceLBA(0)
	require.NoError(t, err)
	assert.EqualValues(t, FirstTablespaceLBA, lba)

	_, err = TablespaceLBA(NumTablespaces)
	assert.ErrorIs(t, err, ErrUnknownTablespace)
}

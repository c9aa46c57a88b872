// Package blockdev implements the Block Device component: fixed-size
// page read/write against a flat LBA space, with a build-time mapping
// from tablespace-id to a starting LBA. Grounded on the teacher's
// store/logs file-backed block device and on the original source's
// ReadPageFromDisk, both of which open one *os.File and seek by byte
// offset rather than tracking a cursor.
package blockdev

import (
	"context"
	"os"

	"github.com/pkg/errors"

	"github.com/zhukovaskychina/xmysql-server/internal/page"
	"github.com/zhukovaskychina/xmysql-server/logger"
)

// NumTablespaces and FirstTablespaceLBA describe the prototype's static
// tablespace layout: 20 data tablespaces, each one data partition, the
// first one starting at LBA 26.
const (
	NumTablespaces      = 20
	FirstTablespaceLBA  = 26
)

// ErrUnknownTablespace is returned when a space-id has no LBA mapping.
var ErrUnknownTablespace = errors.New("blockdev: unknown tablespace")

// Device is a synchronous, page-granular block device backed by a single
// file containing both the log partition and the data partitions laid
// out back to back, addressed by logical page address (LBA).
type Device struct {
	f *os.File
}

// Open opens the backing file for read/write. The file must already
// exist and be large enough to cover every tablespace this device will
// be asked to address; this module never grows the backing store.
func Open(path string) (*Device, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, errors.Wrapf(err, "blockdev: open %s", path)
	}
	return &Device{f: f}, nil
}

// Close releases the backing file handle.
func (d *Device) Close() error {
	return errors.Wrap(d.f.Close(), "blockdev: close")
}

// TablespaceLBA maps a tablespace-id to its starting LBA. It fails with
// ErrUnknownTablespace for any space-id outside the static mapping.
func TablespaceLBA(spaceID uint32) (uint32, error) {
	if spaceID >= NumTablespaces {
		return 0, errors.WithMessagef(ErrUnknownTablespace, "space=%d", spaceID)
	}
	return FirstTablespaceLBA + spaceID, nil
}

// ReadPages reads n_pages*P bytes starting at LBA lpa into a freshly
// allocated buffer. Per spec.md §6, this is required to read atomically
// from the device's point of view — Device serializes all access through
// the single *os.File it owns, and the recovery engine is itself
// single-threaded, so no additional locking is needed here.
func (d *Device) ReadPages(ctx context.Context, lpa uint32, nPages uint32) ([]byte, error) {
	buf := make([]byte, int(nPages)*page.Size)
	off := int64(lpa) * int64(page.Size)
	if _, err := d.f.ReadAt(buf, off); err != nil {
		logger.Errorf("blockdev: fatal read error at lpa=%d n_pages=%d: %v", lpa, nPages, err)
		return nil, errors.Wrapf(err, "blockdev: read lpa=%d n_pages=%d", lpa, nPages)
	}
	return buf, nil
}

// WritePages writes src (which must be n_pages*P bytes) to LBA lpa and
// returns only once the bytes are durable.
func (d *Device) WritePages(ctx context.Context, lpa uint32, nPages uint32, src []byte) error {
	if len(src) != int(nPages)*page.Size {
		return errors.Errorf("blockdev: write buffer is %d bytes, want %d", len(src), int(nPages)*page.Size)
	}
	off := int64(lpa) * int64(page.Size)
	if _, err := d.f.WriteAt(src, off); err != nil {
		logger.Errorf("blockdev: fatal write error at lpa=%d n_pages=%d: %v", lpa, nPages, err)
		return errors.Wrapf(err, "blockdev: write lpa=%d n_pages=%d", lpa, nPages)
	}
	if err := d.f.Sync(); err != nil {
		logger.Errorf("blockdev: fatal sync error at lpa=%d: %v", lpa, err)
		return errors.Wrapf(err, "blockdev: sync lpa=%d", lpa)
	}
	return nil
}

// ReadPage reads the single page addressed by (spaceID, pageNo).
func (d *Device) ReadPage(ctx context.Context, spaceID, pageNo uint32) ([]byte, error) {
	base, err := TablespaceLBA(spaceID)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return d.ReadPages(ctx, base+pageNo, 1)
}

// WritePage writes the single page addressed by (spaceID, pageNo).
func (d *Device) WritePage(ctx context.Context, spaceID, pageNo uint32, data []byte) error {
	base, err := TablespaceLBA(spaceID)
	if err != nil {
		return errors.WithStack(err)
	}
	return d.WritePages(ctx, base+pageNo, 1, data)
}

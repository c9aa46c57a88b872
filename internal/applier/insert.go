package applier

import (
	"github.com/juju/errors"

	"github.com/zhukovaskychina/xmysql-server/internal/page"
	"github.com/zhukovaskychina/xmysql-server/internal/page/record"
	"github.com/zhukovaskychina/xmysql-server/internal/redolog"
	"github.com/zhukovaskychina/xmysql-server/internal/redolog/mach"
)

// fieldInfoHighBit marks a field-info entry as nullable; the remaining
// 15 bits give its fixed width, or 0 for a variable-length field
// carrying its own length-vector entry. This module's own wire encoding
// for the index descriptor's per-field entries (spec.md §4.D pins the
// descriptor's overall shape — n_fields, n_unique, n_fields x field-info
// — but not the bit layout of each field-info word).
const fieldInfoHighBit = 0x8000

// insertRecord applies (COMP_)REC_INSERT: splices a freshly built
// compact record into the page's singly-linked record chain immediately
// after the record at the log's previous-record offset, then rolls the
// new record into its owning directory slot, per spec.md §4.D "Record
// insert" and "Owner-slot lookup".
func insertRecord(p page.Page, rec *redolog.Record) error {
	body := rec.Body
	pos := 0

	nFields, n, err := mach.ParseCompressed(body[pos:])
	if err != nil {
		return errors.Annotate(err, "insert: n_fields")
	}
	pos += n

	if _, n, err = mach.ParseCompressed(body[pos:]); err != nil { // n_unique, unused here
		return errors.Annotate(err, "insert: n_unique")
	} else {
		pos += n
	}

	// The field-info array is only consumed to advance pos to the
	// previous-record offset: this module's insert operator copies the
	// extra+data region as an opaque byte span (mismatch bytes from the
	// cursor record plus the log's tail segment) rather than resolving
	// individual column offsets, so the per-field nullable/width bits
	// are not otherwise interpreted here.
	fields := make([]record.FieldInfo, nFields)
	for i := uint32(0); i < nFields; i++ {
		if len(body) < pos+2 {
			return errors.New("insert: truncated field-info array")
		}
		w := mach.ReadBE16(body[pos : pos+2])
		pos += 2
		fields[i] = record.FieldInfo{
			Nullable: w&fieldInfoHighBit != 0,
			FixedLen: int(w &^ fieldInfoHighBit),
		}
	}
	_ = fields

	if len(body) < pos+2 {
		return errors.New("insert: truncated previous-record offset")
	}
	prevOrigin := int(mach.ReadBE16(body[pos : pos+2]))
	pos += 2

	endSegLen, n, err := mach.ParseCompressed(body[pos:])
	if err != nil {
		return errors.Annotate(err, "insert: end-seg length")
	}
	pos += n

	var infoBits byte
	var mismatchIndex int
	if endSegLen&1 != 0 {
		v, n, err := mach.ParseCompressed(body[pos:])
		if err != nil {
			return errors.Annotate(err, "insert: info_bits")
		}
		infoBits = byte(v)
		pos += n

		if _, n, err = mach.ParseCompressed(body[pos:]); err != nil { // origin_offset, unused here
			return errors.Annotate(err, "insert: origin_offset")
		} else {
			pos += n
		}

		v, n, err = mach.ParseCompressed(body[pos:])
		if err != nil {
			return errors.Annotate(err, "insert: mismatch_index")
		}
		mismatchIndex = int(v)
		pos += n
	}

	tail := body[pos : pos+int(endSegLen>>1)]

	extraDataLen := mismatchIndex + len(tail)
	total := record.HeaderSize + extraDataLen
	allocStart := record.AllocHeap(p, total)
	origin := allocStart + record.HeaderSize

	if mismatchIndex > 0 {
		if prevOrigin == 0 || prevOrigin+mismatchIndex > page.Size {
			return errors.New("insert: mismatch copy source out of bounds")
		}
		copy(p.Bytes[origin:origin+mismatchIndex], p.Bytes[prevOrigin:prevOrigin+mismatchIndex])
	}
	copy(p.Bytes[origin+mismatchIndex:origin+extraDataLen], tail)

	heapNo := p.NHeap() &^ page.NHeapNewFormatFlag - 1 // AllocHeap already incremented NHeap
	record.SetInfoAndStatus(p.Bytes, origin, infoBits, record.StatusOrdinary)
	record.SetHeapNoAndOwned(p.Bytes, origin, heapNo, 0)

	var nextOrigin int
	if prevOrigin != 0 {
		nextOrigin = record.NextOrigin(p.Bytes, prevOrigin)
		record.SetNextOffset(p.Bytes, prevOrigin, int16(origin-prevOrigin))
	} else {
		nextOrigin = record.NextOrigin(p.Bytes, record.InfimumOrigin)
		record.SetNextOffset(p.Bytes, record.InfimumOrigin, int16(origin-record.InfimumOrigin))
	}
	if nextOrigin == 0 {
		record.SetNextOffset(p.Bytes, origin, 0)
	} else {
		record.SetNextOffset(p.Bytes, origin, int16(nextOrigin-origin))
	}

	owner := record.OwnerOf(p.Bytes, origin)
	if owner == 0 {
		return errors.New("insert: no owner found for newly spliced record")
	}
	record.IncrementOwner(p, owner)
	return nil
}

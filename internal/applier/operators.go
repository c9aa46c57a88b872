package applier

import (
	"github.com/juju/errors"

	"github.com/zhukovaskychina/xmysql-server/internal/page"
	"github.com/zhukovaskychina/xmysql-server/internal/page/record"
	"github.com/zhukovaskychina/xmysql-server/internal/redolog"
	"github.com/zhukovaskychina/xmysql-server/internal/redolog/mach"
	"github.com/zhukovaskychina/xmysql-server/util"
)

// nByteWrite applies the N-byte write operator: u16 offset || compressed
// value, writing the low `width` bytes of the value at that offset.
func nByteWrite(width int) operator {
	return func(p page.Page, rec *redolog.Record) error {
		body := rec.Body
		if len(body) < 2 {
			return errors.New("applier: n-byte write body too short")
		}
		offset := int(mach.ReadBE16(body[0:2]))
		pos := 2

		var value uint64
		if width <= 4 {
			v, _, err := mach.ParseCompressed(body[pos:])
			if err != nil {
				return errors.Trace(err)
			}
			value = uint64(v)
		} else {
			v, _, err := mach.ParseCompressedU64(body[pos:])
			if err != nil {
				return errors.Trace(err)
			}
			value = v
		}
		if offset+width > page.Size {
			return errors.Errorf("applier: n-byte write out of bounds offset=%d width=%d", offset, width)
		}
		for i := 0; i < width; i++ {
			shift := uint((width - 1 - i) * 8)
			p.Bytes[offset+i] = byte(value >> shift)
		}
		return nil
	}
}

// writeString applies the string-write operator: u16 offset || u16
// length || length bytes, copied verbatim onto the page.
func writeString(p page.Page, rec *redolog.Record) error {
	body := rec.Body
	if len(body) < 4 {
		return errors.New("applier: write_string body too short")
	}
	offset := int(mach.ReadBE16(body[0:2]))
	length := int(mach.ReadBE16(body[2:4]))
	if len(body) < 4+length || offset+length > page.Size {
		return errors.New("applier: write_string out of bounds")
	}
	copy(p.Bytes[offset:offset+length], body[4:4+length])
	return nil
}

// createPage applies (COMP_)PAGE_CREATE: reinitializes the page header
// and installs the infimum/supremum sentinel pair, per spec.md §4.D.
// Applied unconditionally (see the `unconditional` map in applier.go).
func createPage(p page.Page, rec *redolog.Record) error {
	copy(p.Bytes[page.HeaderStart:page.TrailerEndLSNOldChks], util.AppendByte(page.TrailerEndLSNOldChks-page.HeaderStart))
	copy(p.Bytes[record.InfimumOrigin-5:], record.InfimumSupremumTemplate)

	p.SetNDirSlots(2)
	p.SetDirSlot(0, uint16(record.InfimumOrigin))
	p.SetDirSlot(1, uint16(record.SupremumOrigin))
	p.SetHeapTop(uint16(record.SupremumOrigin + 8))
	p.SetNHeap(2 | page.NHeapNewFormatFlag)
	p.SetNRecs(0)
	p.SetFree(0)
	p.SetGarbage(0)
	p.SetDirection(page.DirectionNone)
	p.SetNDirection(0)
	p.SetFileType(page.TypeIndex)
	p.SetSpaceID(rec.Space)
	p.SetPageNo(rec.Page)
	return nil
}

// initFilePage applies INIT_FILE_PAGE: establishes a fresh FIL
// header for a page newly claimed from the free extent. It is a
// prerequisite mutation only; PAGE_CREATE still follows to lay out the
// PAGE_HEADER and sentinel records.
func initFilePage(p page.Page, rec *redolog.Record) error {
	copy(p.Bytes[:page.FILHeaderSize], util.AppendByte(page.FILHeaderSize))
	p.SetPageNo(rec.Page)
	return nil
}

// initFilePage2 applies INIT_FILE_PAGE2, the variant that also stamps
// the tablespace id into the FIL header field at offset 34
// (FIL_PAGE_ARCH_LOG_NO_OR_SPACE_ID) this module uses as the page's
// space-id (spec.md §3's Data Page layout).
func initFilePage2(p page.Page, rec *redolog.Record) error {
	if err := initFilePage(p, rec); err != nil {
		return err
	}
	p.SetSpaceID(rec.Space)
	return nil
}

// clustDeleteMark applies (COMP_)REC_CLUST_DELETE_MARK: flag byte (bit 0
// = new delete-mark value) || u16 record offset || trx-id || roll-ptr.
// Only the delete-mark bit is modeled; trx-id/roll-ptr are advanced past
// by the reader but not written anywhere a clustered-index row version
// chain could consult, since this module carries no undo/MVCC layer.
func clustDeleteMark(p page.Page, rec *redolog.Record) error {
	body := rec.Body
	if len(body) < 3 {
		return errors.New("applier: clust_delete_mark body too short")
	}
	flag := body[0]
	origin := int(mach.ReadBE16(body[1:3]))
	record.SetDeleted(p.Bytes, origin, flag&1 != 0)
	return nil
}

// secDeleteMark applies (COMP_)REC_SEC_DELETE_MARK: flag byte || u16
// record offset.
func secDeleteMark(p page.Page, rec *redolog.Record) error {
	body := rec.Body
	if len(body) < 3 {
		return errors.New("applier: sec_delete_mark body too short")
	}
	flag := body[0]
	origin := int(mach.ReadBE16(body[1:3]))
	record.SetDeleted(p.Bytes, origin, flag&1 != 0)
	return nil
}

// minRecMark applies (COMP_)REC_MIN_MARK: u16 record offset, setting the
// MIN_REC_FLAG info bit used to mark a node-pointer record as the
// leftmost one on a non-leaf page.
func minRecMark(p page.Page, rec *redolog.Record) error {
	body := rec.Body
	if len(body) < 2 {
		return errors.New("applier: min_rec_mark body too short")
	}
	origin := int(mach.ReadBE16(body[0:2]))
	record.SetMinRecMark(p.Bytes, origin)
	return nil
}

// updateInPlace applies (COMP_)REC_UPDATE_IN_PLACE: info_bits || u16
// record offset || u16 n_fields || n_fields x (compressed field_no ||
// u16 length || length bytes). A genuine row-format-aware apply would
// resolve field_no through the record's own nullable-bitmap/length-
// vector extra bytes (which in turn need the index descriptor that only
// the original insert's log record carried, and which this module does
// not persist per page). As a documented simplification this module
// instead treats field_no directly as a byte offset relative to the
// record's data origin — correct for the single-fixed-field layouts
// this module's own insert operator produces, not a general column
// resolver.
func updateInPlace(p page.Page, rec *redolog.Record) error {
	body := rec.Body
	if len(body) < 5 {
		return errors.New("applier: update_in_place body too short")
	}
	infoBits := body[0]
	origin := int(mach.ReadBE16(body[1:3]))
	nFields := mach.ReadBE16(body[3:5])
	pos := 5

	for i := uint16(0); i < nFields; i++ {
		if len(body) < pos+1 {
			return errors.New("applier: update_in_place truncated field list")
		}
		fieldNo, n, err := mach.ParseCompressed(body[pos:])
		if err != nil {
			return errors.Trace(err)
		}
		pos += n
		if len(body) < pos+2 {
			return errors.New("applier: update_in_place truncated length")
		}
		length := int(mach.ReadBE16(body[pos : pos+2]))
		pos += 2
		if len(body) < pos+length {
			return errors.New("applier: update_in_place truncated data")
		}
		dst := origin + int(fieldNo)
		if dst+length > page.Size {
			return errors.Errorf("applier: update_in_place out of bounds field_no=%d", fieldNo)
		}
		copy(p.Bytes[dst:dst+length], body[pos:pos+length])
		pos += length
	}

	record.SetInfoBits(p.Bytes, origin, infoBits)
	return nil
}

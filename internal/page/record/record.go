// Package record centralizes the compact-format record-header bit-field
// accessors. Every function here is a total function of a byte slice and
// a record-origin offset; none retains state, matching the teacher's
// preference for small stateless accessor modules over method-heavy
// wrapper types.
package record

import "encoding/binary"

// Fixed header size, laid out backward from the record origin.
const HeaderSize = 5

// Record status codes (REC_NEW_STATUS low 3 bits).
const (
	StatusOrdinary = 0
	StatusNodePtr  = 1
	StatusInfimum  = 2
	StatusSupremum = 3
)

// Info-bit flags, high bits of the REC_NEW_STATUS byte.
const (
	InfoMinRecFlag  = 0x10
	InfoDeletedFlag = 0x20
)

const nOwnedMask = 0x0F

// InfimumOrigin and SupremumOrigin are the fixed record-origin offsets of
// the two sentinel records on a freshly created compact page, placed
// immediately after PAGE_HEADER.
const (
	InfimumOrigin  = 38 + 36 + HeaderSize
	SupremumOrigin = InfimumOrigin + 8 + HeaderSize // "infimum" is 8 bytes including NUL
)

// InfimumSupremumTemplate is the literal byte template for a freshly
// created page's infimum/supremum pair: 5-byte header + 8-byte payload,
// twice over. Header byte layout per record, most significant byte
// first: heap-no/owned-count (2 bytes), next-offset (2 bytes), status (1
// byte) — see heapField/NextOffset/statusByte below.
var InfimumSupremumTemplate = []byte{
	// infimum header: heap_no=0, n_owned=1, next->supremum (+13), status=infimum
	0x00, 0x01, 0x00, 0x0d, 0x02,
	'i', 'n', 'f', 'i', 'm', 'u', 'm', 0x00,
	// supremum header: heap_no=1, n_owned=1, next=0 (end), status=supremum
	0x00, 0x11, 0x00, 0x00, 0x03,
	's', 'u', 'p', 'r', 'e', 'm', 'u', 'm',
}

func statusByte(b []byte, origin int) byte { return b[origin-1] }

// InfoBits returns the info-bit flags (high 5 bits of the status byte).
func InfoBits(b []byte, origin int) byte { return statusByte(b, origin) &^ 0x07 }

// SetInfoBits overwrites the info-bit flags, preserving the status field.
func SetInfoBits(b []byte, origin int, bits byte) {
	b[origin-1] = (statusByte(b, origin) & 0x07) | (bits &^ 0x07)
}

// Status returns the record status (ordinary/node-ptr/infimum/supremum).
func Status(b []byte, origin int) byte { return statusByte(b, origin) & 0x07 }

// SetStatus overwrites the record status, preserving info bits.
func SetStatus(b []byte, origin int, status byte) {
	b[origin-1] = (statusByte(b, origin) &^ 0x07) | (status & 0x07)
}

// SetInfoAndStatus writes both fields at once.
func SetInfoAndStatus(b []byte, origin int, infoBits, status byte) {
	b[origin-1] = (infoBits &^ 0x07) | (status & 0x07)
}

func heapField(b []byte, origin int) uint16 {
	return binary.BigEndian.Uint16(b[origin-5 : origin-3])
}

func setHeapField(b []byte, origin int, v uint16) {
	binary.BigEndian.PutUint16(b[origin-5:origin-3], v)
}

// HeapNo returns the record's heap number.
func HeapNo(b []byte, origin int) uint16 { return heapField(b, origin) >> 4 }

// NOwned returns the owned-count of this record's directory slot entry
// (nonzero only for owner records).
func NOwned(b []byte, origin int) byte { return byte(heapField(b, origin) & nOwnedMask) }

// SetHeapNoAndOwned writes both subfields of the combined heap-no/owned
// field.
func SetHeapNoAndOwned(b []byte, origin int, heapNo uint16, nOwned byte) {
	setHeapField(b, origin, (heapNo<<4)|uint16(nOwned&nOwnedMask))
}

// SetNOwned rewrites just the owned-count, preserving heap-no.
func SetNOwned(b []byte, origin int, nOwned byte) {
	setHeapField(b, origin, (heapField(b, origin)&^uint16(nOwnedMask))|uint16(nOwned&nOwnedMask))
}

// NextOffset returns the signed 16-bit relative displacement from this
// record's origin to the next record's origin in heap order.
func NextOffset(b []byte, origin int) int16 {
	return int16(binary.BigEndian.Uint16(b[origin-3 : origin-1]))
}

// SetNextOffset writes the relative displacement to the next record.
func SetNextOffset(b []byte, origin int, delta int16) {
	binary.BigEndian.PutUint16(b[origin-3:origin-1], uint16(delta))
}

// NextOrigin resolves NextOffset into an absolute record-origin offset,
// or 0 if this record ends the list (delta == 0, InnoDB's end-of-list
// marker on the supremum record).
func NextOrigin(b []byte, origin int) int {
	delta := NextOffset(b, origin)
	if delta == 0 {
		return 0
	}
	return origin + int(delta)
}

// Deleted reports whether the deleted-flag info bit is set.
func Deleted(b []byte, origin int) bool { return InfoBits(b, origin)&InfoDeletedFlag != 0 }

// SetDeleted sets or clears the deleted-flag info bit.
func SetDeleted(b []byte, origin int, v bool) {
	bits := InfoBits(b, origin)
	if v {
		bits |= InfoDeletedFlag
	} else {
		bits &^= InfoDeletedFlag
	}
	SetInfoBits(b, origin, bits)
}

// SetMinRecMark sets the MIN_REC_FLAG info bit, used by COMP_REC_MIN_MARK.
func SetMinRecMark(b []byte, origin int) {
	SetInfoBits(b, origin, InfoBits(b, origin)|InfoMinRecFlag)
}

// Package mach implements the compressed-integer encoding used throughout
// the redo log: a 1-to-5 byte variable-length prefix for 32-bit values,
// and a 1-to-9 byte prefix (5-byte compressed high word + 4-byte fixed low
// word) for 64-bit values. Named after InnoDB's mach_parse_compressed /
// mach_u64_parse_compressed, which this module's record decoder mirrors.
package mach

import (
	"encoding/binary"

	"github.com/juju/errors"
)

// ErrTruncated is returned when the cursor does not hold enough bytes to
// decode a complete value. Callers treat this as the parse-truncation
// signal described in the log reader's record-decoding contract: return
// zero length without advancing.
var ErrTruncated = errors.New("mach: truncated compressed integer")

// Length-class thresholds: the number of leading set bits in the first
// byte selects how many bytes the value occupies.
const (
	class1Max = 0x80       // 1 byte:  7 value bits
	class2Max = 0x4000      // 2 bytes: 14 value bits, first byte 10xxxxxx
	class3Max = 0x200000    // 3 bytes: 21 value bits, first byte 110xxxxx
	class4Max = 0x10000000  // 4 bytes: 28 value bits, first byte 1110xxxx
)

// ParseCompressed decodes a 1-to-5 byte compressed uint32 from the front
// of b. It returns the decoded value and the number of bytes consumed.
func ParseCompressed(b []byte) (uint32, int, error) {
	if len(b) < 1 {
		return 0, 0, errors.Trace(ErrTruncated)
	}
	first := b[0]
	switch {
	case first&0x80 == 0:
		return uint32(first), 1, nil
	case first&0xC0 == 0x80:
		if len(b) < 2 {
			return 0, 0, errors.Trace(ErrTruncated)
		}
		v := (uint32(first&0x3F) << 8) | uint32(b[1])
		return v, 2, nil
	case first&0xE0 == 0xC0:
		if len(b) < 3 {
			return 0, 0, errors.Trace(ErrTruncated)
		}
		v := (uint32(first&0x1F) << 16) | uint32(b[1])<<8 | uint32(b[2])
		return v, 3, nil
	case first&0xF0 == 0xE0:
		if len(b) < 4 {
			return 0, 0, errors.Trace(ErrTruncated)
		}
		v := (uint32(first&0x0F) << 24) | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
		return v, 4, nil
	case first&0xF8 == 0xF0:
		if len(b) < 5 {
			return 0, 0, errors.Trace(ErrTruncated)
		}
		return binary.BigEndian.Uint32(b[1:5]), 5, nil
	default:
		return 0, 0, errors.Errorf("mach: invalid compressed-integer length class 0x%02x", first)
	}
}

// ParseCompressedU64 decodes a 1-to-9 byte compressed uint64: a
// compressed high 32 bits followed by a fixed 4-byte low word.
func ParseCompressedU64(b []byte) (uint64, int, error) {
	high, n, err := ParseCompressed(b)
	if err != nil {
		return 0, 0, errors.Trace(err)
	}
	if len(b) < n+4 {
		return 0, 0, errors.Trace(ErrTruncated)
	}
	low := binary.BigEndian.Uint32(b[n : n+4])
	return uint64(high)<<32 | uint64(low), n + 4, nil
}

// EncodeCompressed returns the minimum-length compressed encoding of v,
// matching ParseCompressed's length classes.
func EncodeCompressed(v uint32) []byte {
	switch {
	case v < class1Max:
		return []byte{byte(v)}
	case v < class2Max:
		return []byte{byte(v>>8) | 0x80, byte(v)}
	case v < class3Max:
		return []byte{byte(v>>16) | 0xC0, byte(v >> 8), byte(v)}
	case v < class4Max:
		buf := make([]byte, 4)
		buf[0] = byte(v>>24) | 0xE0
		buf[1], buf[2], buf[3] = byte(v>>16), byte(v>>8), byte(v)
		return buf
	default:
		buf := make([]byte, 5)
		buf[0] = 0xF0
		binary.BigEndian.PutUint32(buf[1:], v)
		return buf
	}
}

// EncodeCompressedU64 returns the minimum-length compressed encoding of v.
func EncodeCompressedU64(v uint64) []byte {
	high := uint32(v >> 32)
	low := uint32(v)
	buf := EncodeCompressed(high)
	lowBuf := make([]byte, 4)
	binary.BigEndian.PutUint32(lowBuf, low)
	return append(buf, lowBuf...)
}

// ReadBE16/32/64 are the explicit big-endian helpers spec.md §9 requires
// in place of host-endian reads.
func ReadBE16(b []byte) uint16 { return binary.BigEndian.Uint16(b) }
func ReadBE32(b []byte) uint32 { return binary.BigEndian.Uint32(b) }
func ReadBE64(b []byte) uint64 { return binary.BigEndian.Uint64(b) }

func WriteBE16(b []byte, v uint16) { binary.BigEndian.PutUint16(b, v) }
func WriteBE32(b []byte, v uint32) { binary.BigEndian.PutUint32(b, v) }
func WriteBE64(b []byte, v uint64) { binary.BigEndian.PutUint64(b, v) }

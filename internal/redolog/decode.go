package redolog

import (
	"github.com/juju/errors"

	"github.com/zhukovaskychina/xmysql-server/internal/redolog/mach"
)

// decodeOne decodes one record from the front of data. It returns the
// decoded record and the number of bytes it occupied in the logical
// stream, or ErrTruncated if data does not yet hold a complete record
// (including when it starts with a zero padding byte), or ErrMalformed
// if the type byte or a field is out of range.
func decodeOne(data []byte) (*Record, int, error) {
	if len(data) < 1 {
		return nil, 0, errors.Trace(ErrTruncated)
	}

	raw := Type(data[0])
	if raw == 0 {
		// No record type has the value 0: a zero byte is the unwritten
		// padding after the last record in a block, not a record.
		return nil, 0, errors.Trace(ErrTruncated)
	}
	if bodyLen, ok := IsFixedLength(raw); ok {
		total := 1 + bodyLen
		if len(data) < total {
			return nil, 0, errors.Trace(ErrTruncated)
		}
		rec := &Record{Type: raw, Len: total, Body: data[1:total]}
		return rec, total, nil
	}

	t := raw &^ SingleRecFlag
	pos := 1

	space, n, err := mach.ParseCompressed(data[pos:])
	if err != nil {
		if errors.Cause(err) == mach.ErrTruncated {
			return nil, 0, errors.Trace(ErrTruncated)
		}
		return nil, 0, errors.Trace(ErrMalformed)
	}
	pos += n

	pageNo, n, err := mach.ParseCompressed(data[pos:])
	if err != nil {
		if errors.Cause(err) == mach.ErrTruncated {
			return nil, 0, errors.Trace(ErrTruncated)
		}
		return nil, 0, errors.Trace(ErrMalformed)
	}
	pos += n

	bodyStart := pos
	parse, ok := bodyParsers[t]
	if !ok {
		// Unknown type: the applier is tolerant of unknown record
		// types (spec.md §7), but the reader still must know how far
		// to advance. Without a registered parser there is no safe
		// way to locate the next record, so this is malformed from
		// the reader's perspective — it stops the pass rather than
		// guessing.
		return nil, 0, errors.Annotatef(ErrMalformed, "redolog: no body parser for type %s (%d)", t, t)
	}

	bodyEnd, err := parse(data, bodyStart)
	if err != nil {
		if c := errors.Cause(err); c == ErrTruncated || c == mach.ErrTruncated {
			return nil, 0, errors.Trace(ErrTruncated)
		}
		return nil, 0, errors.Trace(ErrMalformed)
	}

	rec := &Record{
		Type:  t,
		Space: space,
		Page:  pageNo,
		Len:   bodyEnd,
		Body:  data[bodyStart:bodyEnd],
	}
	return rec, bodyEnd, nil
}

package applier

// Outcome reports what Apply did with one redo record, used by the
// recovery driver for its summary counters.
type Outcome int

const (
	// Applied means the record's mutation was written to its target
	// frame and the frame's LSN/checksum-sentinel were updated.
	Applied Outcome = iota
	// SkippedByLSN means the target page's own LSN already covers this
	// record (spec.md §9 Open Question 4's page-LSN gate).
	SkippedByLSN
	// SkippedByCheckpoint means the record's LSN is at or below the
	// selected checkpoint's LSN and so was already durable before the
	// crash.
	SkippedByCheckpoint
	// NoOp means the record is one of the types spec.md's Open
	// Questions 1 and 2 leave explicitly unimplemented (COMP_REC_DELETE,
	// LIST_*_DELETE, PAGE_REORGANIZE), or a structural marker
	// (MULTI_REC_END, DUMMY_RECORD, CHECKPOINT) that carries no page
	// mutation at all.
	NoOp
	// SkippedUnknownType means no operator is registered for the
	// record's type; per spec.md §7 the applier tolerates this rather
	// than aborting recovery.
	SkippedUnknownType
)

func (o Outcome) String() string {
	switch o {
	case Applied:
		return "applied"
	case SkippedByLSN:
		return "skipped_by_lsn"
	case SkippedByCheckpoint:
		return "skipped_by_checkpoint"
	case NoOp:
		return "noop"
	case SkippedUnknownType:
		return "skipped_unknown_type"
	default:
		return "unknown"
	}
}

// Package recovery implements the top-level crash-recovery driver: it
// ties the log reader, applier, and buffer pool together into the
// parse-then-apply pass spec.md §4 describes, grouping records by
// target page before applying them (the original source's recv_sys
// hash-table grouping, src/apply/apply.cpp's recv_apply_hashed_log_recs)
// so that each page is visited once per batch rather than once per
// record.
package recovery

import (
	"context"

	"github.com/juju/errors"

	"github.com/zhukovaskychina/xmysql-server/internal/applier"
	"github.com/zhukovaskychina/xmysql-server/internal/blockdev"
	"github.com/zhukovaskychina/xmysql-server/internal/bufferpool"
	"github.com/zhukovaskychina/xmysql-server/internal/redolog"
	"github.com/zhukovaskychina/xmysql-server/logger"
	"github.com/zhukovaskychina/xmysql-server/util"
)

type pageKey struct {
	space uint32
	page  uint32
}

// Driver runs one end-to-end recovery pass over a log partition against
// a data-page device, both addressed through the same underlying
// blockdev.Device per spec.md §6.
type Driver struct {
	pool             *bufferpool.Pool
	applier          *applier.Applier
	reader           *redolog.Reader
	verifyWithXXHash bool
}

// New constructs a Driver. verifyWithXXHash enables the supplemented
// content-verification pass (config's ChecksumAlgorithm=xxhash).
func New(dev *blockdev.Device, bufferPoolPages int, verifyWithXXHash bool) *Driver {
	pool := bufferpool.New(dev, bufferPoolPages)
	return &Driver{
		pool:             pool,
		applier:          applier.New(pool),
		reader:           redolog.NewReader(dev),
		verifyWithXXHash: verifyWithXXHash,
	}
}

// Run executes one full recovery pass: select the checkpoint, read and
// group every record reachable from StartLSN, apply each page's records
// in log order, run the optional verification pass, and flush the
// buffer pool.
func (d *Driver) Run(ctx context.Context) (Summary, error) {
	var sum Summary
	startedAt := util.GetCurrentTimeMillis()

	cp, err := d.reader.SelectCheckpoint(ctx)
	if err != nil {
		return sum, errors.Annotate(err, "recovery: select checkpoint")
	}
	sum.CheckpointNumber = cp.Number
	sum.CheckpointLSN = cp.LSN
	logger.Infof("recovery: selected checkpoint #%d at LSN %d", cp.Number, cp.LSN)

	groups := make(map[pageKey][]*redolog.Record)
	order := make([]pageKey, 0)

	for {
		rec, err := d.reader.Next(ctx)
		if err != nil {
			if errors.Cause(err) == redolog.ErrEndOfLog {
				break
			}
			return sum, errors.Annotate(err, "recovery: read log")
		}
		sum.RecordsRead++

		key := pageKey{rec.Space, rec.Page}
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		// Record.Body is a slice into the reader's active parse-buffer
		// half, valid only until the next pass rotation: copy it out
		// before it outlives this iteration.
		recCopy := *rec
		recCopy.Body = append([]byte(nil), rec.Body...)
		groups[key] = append(groups[key], &recCopy)
	}
	logger.Infof("recovery: read %d records across %d pages", sum.RecordsRead, len(order))

	if d.reader.NextLSN() < cp.LSN {
		return sum, errors.Errorf("recovery: log ends at LSN %d before reaching checkpoint LSN %d, refusing partial recovery (torn or missing log)", d.reader.NextLSN(), cp.LSN)
	}

	seenHashes := make(map[uint64]pageKey)

	for _, key := range order {
		for _, rec := range groups[key] {
			outcome, err := d.applier.Apply(ctx, rec, cp.LSN)
			if err != nil {
				return sum, errors.Annotatef(err, "recovery: apply space=%d page=%d lsn=%d", rec.Space, rec.Page, rec.LSN)
			}
			switch outcome {
			case applier.Applied:
				sum.RecordsApplied++
			case applier.SkippedByLSN:
				sum.RecordsSkippedByLSN++
			case applier.SkippedByCheckpoint:
				sum.RecordsSkippedByCkpt++
			case applier.NoOp:
				sum.RecordsNoOp++
			case applier.SkippedUnknownType:
				sum.RecordsSkippedUnknown++
			}
		}
		sum.PagesTouched++

		if d.verifyWithXXHash {
			d.verifyPage(ctx, key, seenHashes)
		}
	}

	if err := d.pool.Flush(ctx); err != nil {
		return sum, errors.Annotate(err, "recovery: flush buffer pool")
	}
	elapsedMs := util.GetCurrentTimeMillis() - startedAt
	logger.Infof("recovery: applied=%d skipped_lsn=%d skipped_ckpt=%d noop=%d unknown=%d pages=%d elapsed_ms=%d",
		sum.RecordsApplied, sum.RecordsSkippedByLSN, sum.RecordsSkippedByCkpt, sum.RecordsNoOp, sum.RecordsSkippedUnknown, sum.PagesTouched, elapsedMs)
	return sum, nil
}

// verifyPage implements the supplemented xxhash content-verification
// pass: a cheap smoke-test that two distinct pages never hash
// identically. It only logs; it never blocks recovery, since a hash
// collision is not by itself proof of corruption.
func (d *Driver) verifyPage(ctx context.Context, key pageKey, seen map[uint64]pageKey) {
	frame, err := d.pool.Get(ctx, key.space, key.page)
	if err != nil {
		logger.Warnf("recovery: verify(%d,%d): %v", key.space, key.page, err)
		return
	}
	h := util.HashCode(frame.Bytes)
	if prior, ok := seen[h]; ok && prior != key {
		logger.Warnf("recovery: xxhash collision between (%d,%d) and (%d,%d), possible corruption",
			prior.space, prior.page, key.space, key.page)
	}
	seen[h] = key
}

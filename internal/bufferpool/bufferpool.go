// Package bufferpool implements the Buffer Pool component: a fixed-size
// cache of data pages keyed by (space, page), with LRU eviction and
// unconditional write-back on eviction. Grounded primarily on the
// original source's src/buffer/buffer_pool.cpp Page/BufferPool classes
// (a single LRU list, no young/old split), with Go concurrency and
// logging texture carried over from the teacher's buffer_pool.go.
package bufferpool

import (
	"container/list"
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/zhukovaskychina/xmysql-server/internal/blockdev"
	"github.com/zhukovaskychina/xmysql-server/internal/page"
	"github.com/zhukovaskychina/xmysql-server/logger"
)

// EvictBatchSize (K) is the number of LRU-tail frames evicted together
// to amortize housekeeping cost when the free-list runs dry.
const EvictBatchSize = 64

// State tags a Frame's provenance.
type State int

const (
	Invalid State = iota
	FromBuffer
	FromDisk
)

// ErrAlreadyPresent is returned by NewPage when the page is already
// cached.
var ErrAlreadyPresent = errors.New("bufferpool: page already present")

// ErrUnknownTablespace is forwarded from the block device's LBA mapping
// when get/new_page addresses a space with no mapping.
var ErrUnknownTablespace = blockdev.ErrUnknownTablespace

type pageKey struct {
	space uint32
	page  uint32
}

// Frame is one buffer pool slot: a page-sized image plus provenance.
type Frame struct {
	Space uint32
	Page  uint32
	Bytes []byte
	State State

	index int // position in the pool's frame vector, stable for its lifetime
}

// AsPage wraps the frame's bytes with the page accessor type.
func (f *Frame) AsPage() page.Page { return page.New(f.Bytes) }

// Pool is the fixed-size buffer pool. Constructed once by the driver and
// passed by exclusive reference into the recovery system, per spec.md §9
// ("no global mutable singleton").
type Pool struct {
	mu sync.Mutex

	dev *blockdev.Device

	frames []*Frame           // the single owner of every frame; index-addressed
	lru    *list.List         // list.Element.Value is *Frame
	lookup map[pageKey]*list.Element
	free   []int // indices into frames that are unused

	reverse []pageKey // frame index -> (space, page), valid only when frame is in use
}

// New constructs a buffer pool with nFrames page-sized slots pre-allocated.
func New(dev *blockdev.Device, nFrames int) *Pool {
	p := &Pool{
		dev:     dev,
		frames:  make([]*Frame, nFrames),
		lru:     list.New(),
		lookup:  make(map[pageKey]*list.Element, nFrames),
		free:    make([]int, 0, nFrames),
		reverse: make([]pageKey, nFrames),
	}
	for i := 0; i < nFrames; i++ {
		p.frames[i] = &Frame{Bytes: make([]byte, page.Size), State: Invalid, index: i}
		p.free = append(p.free, i)
	}
	return p
}

// Get returns the buffer frame for (space, page), loading it from the
// device on miss. On hit it moves the entry to the LRU head.
func (p *Pool) Get(ctx context.Context, space, pageNo uint32) (*Frame, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	key := pageKey{space, pageNo}
	if el, ok := p.lookup[key]; ok {
		p.lru.MoveToFront(el)
		return el.Value.(*Frame), nil
	}

	idx, err := p.allocFrameLocked()
	if err != nil {
		return nil, errors.WithStack(err)
	}

	data, err := p.dev.ReadPage(ctx, space, pageNo)
	if err != nil {
		return nil, errors.Wrapf(err, "bufferpool: get(%d,%d)", space, pageNo)
	}

	f := p.frames[idx]
	copy(f.Bytes, data)
	f.Space, f.Page, f.State = space, pageNo, FromDisk

	p.reverse[idx] = key
	p.lookup[key] = p.lru.PushFront(f)
	logger.Debugf("bufferpool: loaded (%d,%d) from disk into frame %d", space, pageNo, idx)
	return f, nil
}

// NewPage creates a zero-initialized in-memory page for (space, page).
// It fails with ErrAlreadyPresent if the page is already cached.
func (p *Pool) NewPage(ctx context.Context, space, pageNo uint32) (*Frame, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	key := pageKey{space, pageNo}
	if _, ok := p.lookup[key]; ok {
		return nil, errors.WithMessagef(ErrAlreadyPresent, "space=%d page=%d", space, pageNo)
	}
	if _, err := blockdev.TablespaceLBA(space); err != nil {
		return nil, errors.WithStack(err)
	}

	idx, err := p.allocFrameLocked()
	if err != nil {
		return nil, errors.WithStack(err)
	}

	f := p.frames[idx]
	for i := range f.Bytes {
		f.Bytes[i] = 0
	}
	f.Space, f.Page, f.State = space, pageNo, FromBuffer

	p.reverse[idx] = key
	p.lookup[key] = p.lru.PushFront(f)
	logger.Debugf("bufferpool: created new page (%d,%d) in frame %d", space, pageNo, idx)
	return f, nil
}

// WriteBack writes the cached image of (space, page) to the device. It
// is a diagnostic no-op if the page is not cached.
func (p *Pool) WriteBack(ctx context.Context, space, pageNo uint32) error {
	p.mu.Lock()
	el, ok := p.lookup[pageKey{space, pageNo}]
	p.mu.Unlock()
	if !ok {
		logger.Warnf("bufferpool: write_back(%d,%d) on uncached page, ignored", space, pageNo)
		return nil
	}
	f := el.Value.(*Frame)
	return errors.Wrapf(p.dev.WritePage(ctx, space, pageNo, f.Bytes), "bufferpool: write_back(%d,%d)", space, pageNo)
}

// allocFrameLocked returns a free frame index, evicting EvictBatchSize
// LRU-tail frames first if the free-list is empty. Caller holds p.mu.
func (p *Pool) allocFrameLocked() (int, error) {
	if len(p.free) == 0 {
		if err := p.evictBatchLocked(); err != nil {
			return 0, errors.WithStack(err)
		}
	}
	idx := p.free[len(p.free)-1]
	p.free = p.free[:len(p.free)-1]
	return idx, nil
}

// evictBatchLocked evicts up to EvictBatchSize frames from the LRU tail,
// writing each back unconditionally (no dirty-bit tracking: per spec.md
// §9 Open Question 3, the recovery write pattern makes nearly every
// evicted frame dirty, so write-back-always is preserved deliberately,
// not as an oversight).
func (p *Pool) evictBatchLocked() error {
	evicted := 0
	for evicted < EvictBatchSize {
		el := p.lru.Back()
		if el == nil {
			break
		}
		f := el.Value.(*Frame)
		key := pageKey{f.Space, f.Page}

		if err := p.dev.WritePage(context.Background(), f.Space, f.Page, f.Bytes); err != nil {
			logger.Errorf("bufferpool: fatal write-back during eviction of (%d,%d): %v", f.Space, f.Page, err)
			return errors.Wrapf(err, "bufferpool: evict write_back(%d,%d)", f.Space, f.Page)
		}

		p.lru.Remove(el)
		delete(p.lookup, key)
		f.State = Invalid
		p.free = append(p.free, f.index)
		evicted++
	}
	if evicted == 0 {
		return errors.New("bufferpool: pool exhausted, nothing left to evict")
	}
	logger.Debugf("bufferpool: evicted %d frames", evicted)
	return nil
}

// Flush writes back every currently cached page, used by the driver at
// clean shutdown.
func (p *Pool) Flush(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for el := p.lru.Front(); el != nil; el = el.Next() {
		f := el.Value.(*Frame)
		if err := p.dev.WritePage(ctx, f.Space, f.Page, f.Bytes); err != nil {
			return errors.Wrapf(err, "bufferpool: flush(%d,%d)", f.Space, f.Page)
		}
	}
	return nil
}

// NFrames returns the pool's fixed capacity.
func (p *Pool) NFrames() int { return len(p.frames) }

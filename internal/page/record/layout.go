package record

import (
	"github.com/zhukovaskychina/xmysql-server/internal/page"
)

// SplitThreshold is the owned-count above which a directory slot must
// split, per spec.md §4.D "Slot split".
const SplitThreshold = 8

// FieldInfo describes one column of an index descriptor: whether it is
// nullable, and its fixed width (0 for variable-length columns, which
// carry a length-vector entry).
type FieldInfo struct {
	Nullable bool
	FixedLen int
}

// ExtraAreaSize returns the combined size of the nullable bitmap and the
// variable-length vector for the given field list: one bit per nullable
// column (rounded up to a byte), plus one or two bytes per
// variable-length column (two when its max length exceeds 127, which
// this module's simplified encoding treats uniformly as one byte since
// it never models off-page BLOB columns).
func ExtraAreaSize(fields []FieldInfo) int {
	nullableBits := 0
	varLenBytes := 0
	for _, f := range fields {
		if f.Nullable {
			nullableBits++
		}
		if f.FixedLen == 0 {
			varLenBytes++
		}
	}
	return (nullableBits+7)/8 + varLenBytes
}

// OwnerOf scans forward from a record's origin (inclusive) until it
// finds one with a nonzero owned-count, per spec.md §4.D "Owner-slot
// lookup". It returns 0 if the list ends (origin 0) before finding one,
// which should not happen on a well-formed page.
func OwnerOf(b []byte, origin int) int {
	for origin != 0 {
		if NOwned(b, origin) > 0 {
			return origin
		}
		origin = NextOrigin(b, origin)
	}
	return 0
}

// SlotIndexOf linearly searches the directory slot array for the slot
// whose stored record offset equals recOrigin, per spec.md §4.D
// "search is linear in the directory-slot array".
func SlotIndexOf(p page.Page, recOrigin int) int {
	n := int(p.NDirSlots())
	for i := 0; i < n; i++ {
		if int(p.DirSlot(i)) == recOrigin {
			return i
		}
	}
	return -1
}

// IncrementOwner increments the owned-count of the record at
// ownerOrigin, splitting its directory slot if the count would exceed
// SplitThreshold.
func IncrementOwner(p page.Page, ownerOrigin int) {
	b := p.Bytes
	count := NOwned(b, ownerOrigin)
	if count+1 > SplitThreshold {
		SplitSlot(p, ownerOrigin)
		return
	}
	SetNOwned(b, ownerOrigin, count+1)
}

// SplitSlot implements spec.md §4.D's slot-split operation: allocate a
// new directory slot immediately below the owner and rebalance so each
// half owns approximately owned/2 records. This walks the record list
// forward from the previous owner's successor to find the owner's
// member records (a singly-linked
// list has no backward pointer), which is the teacher's own approach to
// list-position lookups elsewhere in this corpus — O(n_recs) rather
// than O(1), acceptable at this module's scale.
func SplitSlot(p page.Page, ownerOrigin int) {
	b := p.Bytes
	ownerIdx := SlotIndexOf(p, ownerOrigin)
	if ownerIdx < 0 {
		return
	}

	// Find the previous owner (the slot above) to know where this
	// owner's membership run begins. Slot 0 is the infimum, which has no
	// previous owner and owns only itself.
	prevOwnerOrigin := ownerOrigin
	if ownerIdx > 0 {
		prevOwnerOrigin = int(p.DirSlot(ownerIdx - 1))
	}

	members := make([]int, 0, SplitThreshold+1)
	cur := NextOrigin(b, prevOwnerOrigin)
	if prevOwnerOrigin == ownerOrigin {
		cur = ownerOrigin
	}
	for cur != 0 {
		members = append(members, cur)
		if cur == ownerOrigin {
			break
		}
		cur = NextOrigin(b, cur)
	}
	if len(members) < 2 {
		SetNOwned(b, ownerOrigin, NOwned(b, ownerOrigin)+1)
		return
	}

	half := len(members) / 2
	newOwner := members[half-1]

	// Shift the owner's slot and every later slot down by one to make
	// room, growing the array from the trailer, and install the new owner
	// in front of the old one so slot order follows record-list order.
	nSlots := int(p.NDirSlots())
	for i := nSlots; i > ownerIdx; i-- {
		p.SetDirSlot(i, p.DirSlot(i-1))
	}
	p.SetDirSlot(ownerIdx, uint16(newOwner))
	p.SetNDirSlots(uint16(nSlots + 1))

	SetNOwned(b, newOwner, byte(half))
	SetNOwned(b, ownerOrigin, byte(len(members)-half+1))
}

// AllocHeap reserves size bytes at the current heap top, advancing
// PAGE_HEAP_TOP and PAGE_N_HEAP. It does not consult the free-list: this
// module's applier, like the source it is grounded on, never reuses
// space freed by COMP_REC_DELETE (which spec.md §9 Open Question 1
// leaves as an unimplemented mutation), so the free-list path described
// in spec.md §4.D is never exercised and is not modeled.
func AllocHeap(p page.Page, size int) (origin int) {
	top := int(p.HeapTop())
	origin = top
	p.SetHeapTop(uint16(top + size))
	p.SetNHeap(p.NHeap() + 1)
	p.SetNRecs(p.NRecs() + 1)
	return origin
}

// Package cache implements one size-class cache: the set of slabs serving
// one aligned object size, split across full/partial/free slab lists with
// the Bonwick allocate/free transition rules.
package cache

import (
	"shmregion/consts"
	"shmregion/internal/bitmap"
	"shmregion/internal/layout"
	"shmregion/internal/pagemgr"
	"shmregion/internal/slab"
)

// maxIdleSlabs bounds how many fully-free slabs a cache keeps on its free
// list for reuse before returning the rest to the page manager. The
// allocator's source leaves this policy unstated; one idle slab per cache
// lets a cache that empties and refills reuse a slab without a round trip
// through the page manager, without letting a burst of frees hoard pages
// the cache may never need again. When a slab goes fully free while one is
// already idle, the newly freed slab (the list head) is the one handed back.
const maxIdleSlabs = 1

// listRef is a handle to one of a cache's three slab lists, bundling the
// head/count accessors together with the field offset a linked slab
// records in its own header (slab.List) to identify which list it is on.
type listRef struct {
	head     func() uint32
	setHead  func(uint32)
	count    func() uint32
	setCount func(uint32)
	field    uint32
}

func fullList(c layout.Cache) listRef {
	return listRef{c.FullHead, c.SetFullHead, c.FullCount, c.SetFullCount, layout.CacheFieldFullHead}
}

func partialList(c layout.Cache) listRef {
	return listRef{c.PartialHead, c.SetPartialHead, c.PartialCount, c.SetPartialCount, layout.CacheFieldPartialHead}
}

func freeList(c layout.Cache) listRef {
	return listRef{c.FreeHead, c.SetFreeHead, c.FreeCount, c.SetFreeCount, layout.CacheFieldFreeHead}
}

func (lr listRef) pushFront(mem []byte, cacheOff, slabOff uint32) {
	s := layout.SlabAt(mem, slabOff)
	s.SetNext(lr.head())
	s.SetList(cacheOff + lr.field)
	lr.setHead(slabOff)
	lr.setCount(lr.count() + 1)
}

func (lr listRef) popFront(mem []byte) uint32 {
	head := lr.head()
	lr.setHead(layout.SlabAt(mem, head).Next())
	lr.setCount(lr.count() - 1)
	return head
}

// unlink removes slabOff from this list by scanning for its predecessor —
// a slab knows which list it's on (slab.List) but carries no predecessor
// pointer of its own.
func (lr listRef) unlink(mem []byte, slabOff uint32) {
	if lr.head() == slabOff {
		lr.popFront(mem)
		return
	}
	prev := lr.head()
	for prev != 0 {
		ps := layout.SlabAt(mem, prev)
		next := ps.Next()
		if next == slabOff {
			ps.SetNext(layout.SlabAt(mem, slabOff).Next())
			lr.setCount(lr.count() - 1)
			return
		}
		prev = next
	}
	panic("cache: slab not found on its own list")
}

// Allocate pops one object from the cache at cacheOff, growing the cache
// by one slab from the page manager if every existing slab is full.
// Returns 0 if the page manager has no pages left.
func Allocate(mem []byte, cacheOff uint32) uint32 {
	c := layout.CacheAt(mem, cacheOff)
	partial := partialList(c)
	full := fullList(c)

	if partial.head() != 0 {
		sOff := partial.head()
		obj := slab.Pop(mem, sOff)
		if layout.SlabAt(mem, sOff).FreeCount() == 0 {
			partial.unlink(mem, sOff)
			full.pushFront(mem, cacheOff, sOff)
		}
		return obj
	}

	if freeList(c).head() != 0 {
		return allocFromFree(mem, cacheOff, c)
	}

	pageOff := pagemgr.AllocatePage(mem)
	if pageOff == 0 {
		return 0
	}

	h := layout.NewHeader(mem)
	slabBitmap := bitmap.Bitmap{Off: h.SlabBitmapOff(), Bits: h.SlabBitmapBits()}
	slabBitmap.Set(mem, pageOff/consts.PageSize)

	slab.Format(mem, pageOff, cacheOff, c)
	freeList(c).pushFront(mem, cacheOff, pageOff)

	return allocFromFree(mem, cacheOff, c)
}

func allocFromFree(mem []byte, cacheOff uint32, c layout.Cache) uint32 {
	sOff := freeList(c).popFront(mem)
	obj := slab.Pop(mem, sOff)
	if c.ObjectCount() == 1 {
		fullList(c).pushFront(mem, cacheOff, sOff)
	} else {
		partialList(c).pushFront(mem, cacheOff, sOff)
	}
	return obj
}

// Free returns obj, belonging to the slab at slabOff of the cache at
// cacheOff, to its slab's free list, promoting the slab between lists as
// its occupancy crosses a boundary. A slab that becomes fully free is kept
// on the cache's free list for reuse rather than handed back to the page
// manager, up to reclaimIdle's limit.
func Free(mem []byte, cacheOff, slabOff, obj uint32) {
	c := layout.CacheAt(mem, cacheOff)
	s := layout.SlabAt(mem, slabOff)
	wasFull := s.List() == cacheOff+layout.CacheFieldFullHead

	slab.Push(mem, slabOff, obj)

	switch {
	case s.FreeCount() == c.ObjectCount():
		if s.List() == cacheOff+layout.CacheFieldPartialHead {
			partialList(c).unlink(mem, slabOff)
		} else if wasFull {
			fullList(c).unlink(mem, slabOff)
		}
		freeList(c).pushFront(mem, cacheOff, slabOff)
		reclaimIdle(mem, cacheOff, c)
	case wasFull:
		fullList(c).unlink(mem, slabOff)
		partialList(c).pushFront(mem, cacheOff, slabOff)
	}
}

// reclaimIdle returns slabs beyond maxIdleSlabs on the cache's free list to
// the page manager, clearing their slab-bitmap bit so the pages can be
// reused by any cache.
func reclaimIdle(mem []byte, cacheOff uint32, c layout.Cache) {
	free := freeList(c)
	for free.count() > maxIdleSlabs {
		sOff := free.popFront(mem)
		h := layout.NewHeader(mem)
		slabBitmap := bitmap.Bitmap{Off: h.SlabBitmapOff(), Bits: h.SlabBitmapBits()}
		slabBitmap.Clear(mem, sOff/consts.PageSize)
		pagemgr.FreePage(mem, sOff)
	}
}

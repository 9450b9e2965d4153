package cache

import (
	"testing"

	"shmregion/consts"
	"shmregion/internal/layout"
)

// newRegion builds a minimal region-shaped buffer: a real header with one
// cache record at index 0, and enough pages behind it for the page
// manager to hand out.
func newRegion(totalPages uint32, objSize uint32) (mem []byte, cacheOff uint32) {
	mem = make([]byte, totalPages*consts.PageSize)
	h := layout.NewHeader(mem)
	h.SetSize(uint64(len(mem)))
	h.SetPages(consts.PageSize)
	h.SetFreePage(consts.PageSize)
	h.SetHeapBitmapOff(512)
	h.SetHeapBitmapBits(((totalPages + 7) / 8) * 8)
	h.SetSlabBitmapOff(512 + h.HeapBitmapBits()/8)
	h.SetSlabBitmapBits(h.HeapBitmapBits())
	h.SetCacheCount(1)

	cacheOff = h.CacheOffset(0)
	c := h.Cache(0)
	c.SetObjectSize(objSize)
	c.SetAlignment(consts.Align)
	aligned := consts.Align * ((objSize + consts.Align - 1) / consts.Align)
	c.SetAlignedSize(aligned)
	c.SetObjectCount((consts.PageSize - layout.SlabHeaderSize) / aligned)
	return mem, cacheOff
}

func TestAllocateGrowsThenReusesFreeSlab(t *testing.T) {
	mem, cacheOff := newRegion(4, 256)
	c := layout.CacheAt(mem, cacheOff)

	obj := Allocate(mem, cacheOff)
	if obj == 0 {
		t.Fatalf("first allocation should grow a slab from the page manager")
	}
	if c.PartialCount() != 1 {
		t.Fatalf("a freshly grown multi-object slab must be on partial, got partial=%d full=%d", c.PartialCount(), c.FullCount())
	}
}

func TestFillSlabMovesToFullThenPartialThenFree(t *testing.T) {
	mem, cacheOff := newRegion(4, 8)
	c := layout.CacheAt(mem, cacheOff)

	count := int(c.ObjectCount())
	objs := make([]uint32, 0, count)
	for i := 0; i < count; i++ {
		obj := Allocate(mem, cacheOff)
		if obj == 0 {
			t.Fatalf("allocation %d failed before slab capacity reached", i)
		}
		objs = append(objs, obj)
	}

	if c.FullCount() != 1 || c.PartialCount() != 0 {
		t.Fatalf("slab should be full after %d allocations, got full=%d partial=%d", count, c.FullCount(), c.PartialCount())
	}

	Free(mem, cacheOff, objs[0]&^(consts.PageSize-1), objs[0])
	if c.FullCount() != 0 || c.PartialCount() != 1 {
		t.Fatalf("freeing one object of a full slab must move it to partial, got full=%d partial=%d", c.FullCount(), c.PartialCount())
	}

	for _, obj := range objs[1:] {
		Free(mem, cacheOff, obj&^(consts.PageSize-1), obj)
	}
	if c.PartialCount() != 0 || c.FreeCount() != 1 {
		t.Fatalf("freeing every object must move the slab to free, got partial=%d free=%d", c.PartialCount(), c.FreeCount())
	}
}

func TestFreeListReuseIsLIFO(t *testing.T) {
	mem, cacheOff := newRegion(4, 8)

	a := Allocate(mem, cacheOff)
	b := Allocate(mem, cacheOff)
	if a == b {
		t.Fatalf("two allocations must not collide")
	}

	Free(mem, cacheOff, b&^(consts.PageSize-1), b)
	c := Allocate(mem, cacheOff)
	if c != b {
		t.Fatalf("the most recently freed cell must be reused first, got %#x want %#x", c, b)
	}
}

func TestReclaimIdleReturnsExcessFreeSlabsToPageManager(t *testing.T) {
	mem, cacheOff := newRegion(8, 8)
	c := layout.CacheAt(mem, cacheOff)
	count := int(c.ObjectCount())

	// Fill two slabs' worth of objects: the cache only grows a second slab
	// once the first is completely full, so this leaves two live slabs.
	objs := make([]uint32, 0, 2*count)
	for i := 0; i < 2*count; i++ {
		obj := Allocate(mem, cacheOff)
		if obj == 0 {
			t.Fatalf("allocation %d failed", i)
		}
		objs = append(objs, obj)
	}

	// Freeing every object drops both slabs to fully-free in turn; only
	// one should remain on the free list afterward.
	for _, obj := range objs {
		Free(mem, cacheOff, obj&^(consts.PageSize-1), obj)
	}
	if c.FreeCount() != 1 {
		t.Fatalf("at most one idle slab should remain on the free list, got %d", c.FreeCount())
	}
}

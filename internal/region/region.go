// Package region owns the whole allocator: it initialises the layout,
// dispatches allocate/free, and answers the object-classification query
// used for typed free.
package region

import (
	"unsafe"

	"shmregion/consts"
	"shmregion/internal/bitmap"
	"shmregion/internal/cache"
	"shmregion/internal/layout"
	"shmregion/internal/router"
)

// Region is a thin handle over the backing bytes of an already-formatted
// (or about-to-be-formatted) region. It carries no state of its own —
// every field lives in mem — so a Region is trivially recreated after the
// bytes are remapped to a new base or duplicated by copy-on-write.
type Region struct {
	mem []byte
}

// Init formats mem as a fresh region, per region_init. It returns
// (nil, false) for any precondition violation: unaligned base, a size
// that isn't a whole number of pages, or no more data pages than there are
// size-class caches.
func Init(mem []byte) (*Region, bool) {
	if !pageAligned(mem) {
		return nil, false
	}
	size := uint64(len(mem))
	if size == 0 || size%consts.PageSize != 0 {
		return nil, false
	}
	totalPages := uint32(size / consts.PageSize)
	if totalPages <= consts.NumClasses {
		return nil, false
	}

	headerSize := layout.HeaderSize(consts.NumClasses)
	headerSlack := (consts.PageSize - headerSize) / 2

	bitmapBits := roundup32(totalPages, 8)
	bitmapBytes := bitmapBits / 8

	h := layout.NewHeader(mem)
	var heapOff, slabOff uint32
	tailReserved := bitmapBytes > headerSlack

	if !tailReserved {
		// Both bitmaps fit in the header page, packed against its high
		// end: heap bitmap first, slab bitmap directly above it.
		slabOff = consts.PageSize - bitmapBytes
		heapOff = slabOff - bitmapBytes
	} else {
		// Reserve whole pages at the tail, back to back, each spanning
		// bitmapBytes — the fix for the ambiguous tail-placement formula
		// this allocator's original layout used.
		pagesEach := (bitmapBytes + consts.PageSize - 1) / consts.PageSize
		reserved := pagesEach * 2
		dataPages := totalPages - 1 - reserved
		if dataPages <= consts.NumClasses {
			return nil, false
		}
		heapOff = uint32(size) - reserved*consts.PageSize
		slabOff = heapOff + pagesEach*consts.PageSize
	}

	zero(mem[heapOff : heapOff+bitmapBytes])
	zero(mem[slabOff : slabOff+bitmapBytes])
	if tailReserved {
		// Mark the reserved bitmap pages themselves as heap bookkeeping so
		// the page manager never hands them out as slab pages.
		heapBitmap := bitmap.Bitmap{Off: heapOff, Bits: bitmapBits}
		for p := heapOff / consts.PageSize; p < totalPages; p++ {
			heapBitmap.Set(mem, p)
		}
	}

	pages := ((headerSize + consts.PageSize - 1) / consts.PageSize) * consts.PageSize

	h.SetSize(size)
	h.SetPages(pages)
	h.SetFreePage(pages)
	h.SetHeapBitmapOff(heapOff)
	h.SetHeapBitmapBits(bitmapBits)
	h.SetSlabBitmapOff(slabOff)
	h.SetSlabBitmapBits(bitmapBits)
	h.SetCacheCount(consts.NumClasses)

	for i, class := range router.Classes {
		c := h.Cache(uint32(i))
		c.SetName(class.Name)
		c.SetFullHead(0)
		c.SetFullCount(0)
		c.SetPartialHead(0)
		c.SetPartialCount(0)
		c.SetFreeHead(0)
		c.SetFreeCount(0)
		c.SetObjectSize(class.Object)
		c.SetAlignment(class.Alignment)
		aligned := router.AlignedSize(class.Object, class.Alignment)
		c.SetAlignedSize(aligned)
		c.SetObjectCount((consts.PageSize - layout.SlabHeaderSize) / aligned)
	}

	return &Region{mem: mem}, true
}

// Open wraps an already-formatted region's bytes without reinitialising
// them, for reopening a region that was persisted to a file.
func Open(mem []byte) *Region {
	return &Region{mem: mem}
}

// Valid reports whether mem looks like a region header written by Init
// against a backing range of exactly len(mem) bytes.
func Valid(mem []byte) bool {
	if uint64(len(mem)) < uint64(layout.HeaderSize(consts.NumClasses)) {
		return false
	}
	h := layout.NewHeader(mem)
	return h.Size() == uint64(len(mem)) && h.CacheCount() == consts.NumClasses && h.Pages() > 0
}

// Allocate dispatches size to the small-object router. It returns 0 for
// size == 0, for size above the largest class, or if the page manager runs
// out of pages.
func (r *Region) Allocate(size uint32) uint32 {
	idx, ok := router.ClassIndex(size)
	if !ok {
		return 0
	}
	h := layout.NewHeader(r.mem)
	return cache.Allocate(r.mem, h.CacheOffset(uint32(idx)))
}

// Free returns object to its owning cache. Any offset IsObject rejects —
// out of range, misaligned, or on an untracked page — is silently ignored,
// per the allocator's invalid-argument contract. Freeing a cell that is
// already on its slab's free list panics (double free).
func (r *Region) Free(object uint32) {
	if !r.IsObject(object) {
		return
	}
	slabOff := object &^ (consts.PageSize - 1)
	s := layout.SlabAt(r.mem, slabOff)
	cache.Free(r.mem, s.Cache(), slabOff, object)
}

// IsObject reports whether object is a currently valid small-object
// offset: strictly between the header's data start and the region size,
// 8-byte aligned, and on a page the slab bitmap marks in use.
func (r *Region) IsObject(object uint32) bool {
	h := layout.NewHeader(r.mem)
	if object <= h.Pages() || uint64(object) >= h.Size() {
		return false
	}
	if object%consts.Align != 0 {
		return false
	}
	pageOff := object &^ (consts.PageSize - 1)
	slabBitmap := bitmap.Bitmap{Off: h.SlabBitmapOff(), Bits: h.SlabBitmapBits()}
	return slabBitmap.Get(r.mem, pageOff/consts.PageSize)
}

// Swizzle translates a region offset to a process-local address. Defined
// for any offset within the region's backing bytes.
func (r *Region) Swizzle(off uint32) unsafe.Pointer {
	if off >= uint32(len(r.mem)) {
		return nil
	}
	return unsafe.Add(unsafe.Pointer(&r.mem[0]), off)
}

// Unswizzle is Swizzle's inverse: it recovers the region offset of a
// process-local address known to lie within the region.
func (r *Region) Unswizzle(p unsafe.Pointer) uint32 {
	base := uintptr(unsafe.Pointer(&r.mem[0]))
	return uint32(uintptr(p) - base)
}

// Bytes exposes the region's backing bytes, e.g. for copying the whole
// range to another mapping.
func (r *Region) Bytes() []byte { return r.mem }

func pageAligned(mem []byte) bool {
	if len(mem) == 0 {
		return false
	}
	return uintptr(unsafe.Pointer(&mem[0]))%consts.PageSize == 0
}

func roundup32(v, mult uint32) uint32 {
	return ((v + mult - 1) / mult) * mult
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

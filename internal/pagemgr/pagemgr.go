// Package pagemgr hands whole pages to slabs (and, in the future, to a
// heap allocator) from the region's two page bitmaps, tracking a
// lowest-known-free-page hint for amortised O(1) allocation.
package pagemgr

import (
	"math/bits"

	"shmregion/consts"
	"shmregion/internal/bitmap"
	"shmregion/internal/layout"
)

func bitmaps(mem []byte) (heap, slab bitmap.Bitmap, h layout.Header) {
	h = layout.NewHeader(mem)
	heap = bitmap.Bitmap{Off: h.HeapBitmapOff(), Bits: h.HeapBitmapBits()}
	slab = bitmap.Bitmap{Off: h.SlabBitmapOff(), Bits: h.SlabBitmapBits()}
	return
}

// AllocatePage returns the offset of a page currently free in both
// bitmaps, or 0 if none exists, and advances the free_page hint to the
// next free page at or above the one returned.
//
// The caller is responsible for setting the correct (slab or heap) bit
// for the returned page — AllocatePage only hands out the offset.
func AllocatePage(mem []byte) uint32 {
	heap, slab, h := bitmaps(mem)

	p := h.FreePage()
	if p == 0 {
		return 0
	}

	pageIdx := p / consts.PageSize
	numBlocks := (heap.Bits + 63) / 64
	block := pageIdx / 64
	bitInBlock := pageIdx % 64

	next := uint32(0)
	for b := block; b < numBlocks; b++ {
		word := heap.Word(mem, b) | slab.Word(mem, b)
		if b == block && bitInBlock < 63 {
			// Mark every bit at or below the page we're about to hand out
			// as allocated, so the scan finds the next free bit after it
			// within the same block instead of jumping past it.
			word |= (uint64(1) << (bitInBlock + 1)) - 1
		} else if b == block {
			continue
		}
		if word != ^uint64(0) {
			bit := uint32(bits.TrailingZeros64(^word))
			next = (b*64 + bit) * consts.PageSize
			break
		}
	}
	// The bitmaps are rounded up to whole bytes, so the scan can land on a
	// padding bit past the region's last page; that is not a real page.
	if uint64(next) >= h.Size() {
		next = 0
	}
	h.SetFreePage(next)
	return p
}

// FreePage clears offset's bit in whichever bitmap holds it, and lowers
// the free_page hint to offset if offset is lower than the current hint.
// If the hint is 0 (no known free page), it is set to offset.
//
// The original source this allocator is modeled on never implements the
// hint-lowering half of this; without it, the allocator stops reusing low
// pages as soon as the hint has advanced past them, even though they are
// free. This implementation adds it.
func FreePage(mem []byte, offset uint32) {
	heap, slab, h := bitmaps(mem)

	pageIdx := offset / consts.PageSize
	switch {
	case heap.Get(mem, pageIdx):
		heap.Clear(mem, pageIdx)
	case slab.Get(mem, pageIdx):
		slab.Clear(mem, pageIdx)
	}

	if cur := h.FreePage(); cur == 0 || offset < cur {
		h.SetFreePage(offset)
	}
}

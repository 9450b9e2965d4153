// Package router maps a small-object allocation request to one of the
// region's fixed size-class caches.
package router

import "shmregion/consts"

// Class describes one fixed size-class cache, in the exact order
// region_init creates them.
type Class struct {
	Name      string
	Object    uint32
	Alignment uint32
}

// Classes is the compile-time size-class table: every 8-byte-granular
// request in [1, 256] maps to exactly one of these, grounded in the
// original allocator's alloc_size_index / alloc_caches tables.
var Classes = [consts.NumClasses]Class{
	{"region_alloc-8", 8, consts.Align},
	{"region_alloc-16", 16, consts.Align},
	{"region_alloc-32", 32, consts.Align},
	{"region_alloc-64", 64, consts.Align},
	{"region_alloc-128", 128, consts.Align},
	{"region_alloc-256", 256, consts.Align},
}

// ClassIndex returns the index into Classes that should serve a request
// of size bytes, or ok=false if size is 0 or exceeds the largest class
// (the heap/large-object path, reserved but unimplemented).
func ClassIndex(size uint32) (index int, ok bool) {
	switch {
	case size == 0 || size > consts.MaxSmallObject:
		return 0, false
	case size <= 8:
		return 0, true
	case size <= 16:
		return 1, true
	case size <= 32:
		return 2, true
	case size <= 64:
		return 3, true
	case size <= 128:
		return 4, true
	default:
		return 5, true
	}
}

// AlignedSize rounds size up to the next multiple of align, per the
// region's aligned_size = max(align, align*ceil(size/align)) rule.
func AlignedSize(size, align uint32) uint32 {
	return align * ((size + align - 1) / align)
}

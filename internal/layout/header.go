// Package layout defines the exact byte layout of everything the region
// stores about itself: the region header, its fixed cache table, and each
// slab's header. Every field is read and written through
// encoding/binary.LittleEndian against the region's own backing bytes —
// never through a Go struct overlaid via unsafe.Pointer — because the
// region must remain a plain byte range that is equally valid regardless
// of which process, or which base address, maps it.
package layout

import "encoding/binary"

// Region header field offsets, all relative to the region base.
const (
	offSize           = 0  // u64
	offPages          = 8  // u32
	offFreePage       = 12 // u32
	offHeapBitmapOff  = 16 // u32
	offHeapBitmapBits = 20 // u32
	offSlabBitmapOff  = 24 // u32
	offSlabBitmapBits = 28 // u32
	offCacheCount     = 32 // u32
	offPad            = 36 // u32, reserved
	offCaches         = 40 // CacheRecord[NumClasses]

	// CacheRecordSize is the fixed size of one cache record.
	CacheRecordSize = 64

	// HeaderBase is the offset of the first cache record; HeaderSize(n)
	// adds n*CacheRecordSize to it (n is consts.NumClasses), so layout
	// stays the single source of truth for field positions.
	HeaderBase = offCaches
)

// Header is a view over the region header living at mem[0:...].
type Header struct{ mem []byte }

// NewHeader wraps mem's region header. mem must be at least HeaderBase +
// n*CacheRecordSize bytes long.
func NewHeader(mem []byte) Header { return Header{mem} }

func (h Header) Size() uint64     { return binary.LittleEndian.Uint64(h.mem[offSize:]) }
func (h Header) SetSize(v uint64) { binary.LittleEndian.PutUint64(h.mem[offSize:], v) }

func (h Header) Pages() uint32     { return binary.LittleEndian.Uint32(h.mem[offPages:]) }
func (h Header) SetPages(v uint32) { binary.LittleEndian.PutUint32(h.mem[offPages:], v) }

func (h Header) FreePage() uint32     { return binary.LittleEndian.Uint32(h.mem[offFreePage:]) }
func (h Header) SetFreePage(v uint32) { binary.LittleEndian.PutUint32(h.mem[offFreePage:], v) }

func (h Header) HeapBitmapOff() uint32 { return binary.LittleEndian.Uint32(h.mem[offHeapBitmapOff:]) }
func (h Header) SetHeapBitmapOff(v uint32) {
	binary.LittleEndian.PutUint32(h.mem[offHeapBitmapOff:], v)
}

func (h Header) HeapBitmapBits() uint32 {
	return binary.LittleEndian.Uint32(h.mem[offHeapBitmapBits:])
}
func (h Header) SetHeapBitmapBits(v uint32) {
	binary.LittleEndian.PutUint32(h.mem[offHeapBitmapBits:], v)
}

func (h Header) SlabBitmapOff() uint32 { return binary.LittleEndian.Uint32(h.mem[offSlabBitmapOff:]) }
func (h Header) SetSlabBitmapOff(v uint32) {
	binary.LittleEndian.PutUint32(h.mem[offSlabBitmapOff:], v)
}

func (h Header) SlabBitmapBits() uint32 {
	return binary.LittleEndian.Uint32(h.mem[offSlabBitmapBits:])
}
func (h Header) SetSlabBitmapBits(v uint32) {
	binary.LittleEndian.PutUint32(h.mem[offSlabBitmapBits:], v)
}

func (h Header) CacheCount() uint32     { return binary.LittleEndian.Uint32(h.mem[offCacheCount:]) }
func (h Header) SetCacheCount(v uint32) { binary.LittleEndian.PutUint32(h.mem[offCacheCount:], v) }

// Cache returns the i-th cache record view. The caller (router) is
// responsible for keeping i within [0, CacheCount).
func (h Header) Cache(i uint32) Cache {
	return Cache{mem: h.mem[h.CacheOffset(i) : h.CacheOffset(i)+CacheRecordSize]}
}

// CacheOffset returns the absolute region offset of the i-th cache record.
func (h Header) CacheOffset(i uint32) uint32 {
	return offCaches + i*CacheRecordSize
}

// HeaderSize returns the total header size for a region with n cache
// records — the byte offset the first data page must start at or after.
func HeaderSize(n uint32) uint32 {
	return offCaches + n*CacheRecordSize
}

package layout

import "encoding/binary"

const (
	cacheOffName        = 0  // [16]byte
	cacheOffFullHead    = 16 // u32
	cacheOffFullCount   = 20 // u32
	cacheOffPartialHead = 24 // u32
	cacheOffPartialCnt  = 28 // u32
	cacheOffFreeHead    = 32 // u32
	cacheOffFreeCount   = 36 // u32
	cacheOffObjectSize  = 40 // u32
	cacheOffAlignment   = 44 // u32
	cacheOffAlignedSize = 48 // u32
	cacheOffObjectCount = 52 // u32
	// bytes 56..64 reserved
)

// Field offsets within a cache record exposed for slab headers to identify
// the list-head field a slab sits on (slab.List stores the absolute region
// offset of one of these fields, so a slab can tell which of its cache's
// three lists it is threaded into without a scan).
const (
	CacheFieldFullHead    = cacheOffFullHead
	CacheFieldPartialHead = cacheOffPartialHead
	CacheFieldFreeHead    = cacheOffFreeHead
)

// Cache is a view over one fixed cache record inside the region header.
type Cache struct{ mem []byte }

// CacheAt returns a Cache view for the record at absolute offset off.
func CacheAt(mem []byte, off uint32) Cache {
	return Cache{mem: mem[off : off+CacheRecordSize]}
}

func (c Cache) Name() string {
	n := c.mem[cacheOffName : cacheOffName+16]
	end := 0
	for end < len(n) && n[end] != 0 {
		end++
	}
	return string(n[:end])
}

func (c Cache) SetName(name string) {
	dst := c.mem[cacheOffName : cacheOffName+16]
	for i := range dst {
		dst[i] = 0
	}
	copy(dst, name)
}

func (c Cache) FullHead() uint32 { return binary.LittleEndian.Uint32(c.mem[cacheOffFullHead:]) }
func (c Cache) SetFullHead(v uint32) {
	binary.LittleEndian.PutUint32(c.mem[cacheOffFullHead:], v)
}

func (c Cache) FullCount() uint32 { return binary.LittleEndian.Uint32(c.mem[cacheOffFullCount:]) }
func (c Cache) SetFullCount(v uint32) {
	binary.LittleEndian.PutUint32(c.mem[cacheOffFullCount:], v)
}

func (c Cache) PartialHead() uint32 {
	return binary.LittleEndian.Uint32(c.mem[cacheOffPartialHead:])
}
func (c Cache) SetPartialHead(v uint32) {
	binary.LittleEndian.PutUint32(c.mem[cacheOffPartialHead:], v)
}

func (c Cache) PartialCount() uint32 {
	return binary.LittleEndian.Uint32(c.mem[cacheOffPartialCnt:])
}
func (c Cache) SetPartialCount(v uint32) {
	binary.LittleEndian.PutUint32(c.mem[cacheOffPartialCnt:], v)
}

func (c Cache) FreeHead() uint32 { return binary.LittleEndian.Uint32(c.mem[cacheOffFreeHead:]) }
func (c Cache) SetFreeHead(v uint32) {
	binary.LittleEndian.PutUint32(c.mem[cacheOffFreeHead:], v)
}

func (c Cache) FreeCount() uint32 { return binary.LittleEndian.Uint32(c.mem[cacheOffFreeCount:]) }
func (c Cache) SetFreeCount(v uint32) {
	binary.LittleEndian.PutUint32(c.mem[cacheOffFreeCount:], v)
}

func (c Cache) ObjectSize() uint32 { return binary.LittleEndian.Uint32(c.mem[cacheOffObjectSize:]) }
func (c Cache) SetObjectSize(v uint32) {
	binary.LittleEndian.PutUint32(c.mem[cacheOffObjectSize:], v)
}

func (c Cache) Alignment() uint32 { return binary.LittleEndian.Uint32(c.mem[cacheOffAlignment:]) }
func (c Cache) SetAlignment(v uint32) {
	binary.LittleEndian.PutUint32(c.mem[cacheOffAlignment:], v)
}

func (c Cache) AlignedSize() uint32 {
	return binary.LittleEndian.Uint32(c.mem[cacheOffAlignedSize:])
}
func (c Cache) SetAlignedSize(v uint32) {
	binary.LittleEndian.PutUint32(c.mem[cacheOffAlignedSize:], v)
}

func (c Cache) ObjectCount() uint32 {
	return binary.LittleEndian.Uint32(c.mem[cacheOffObjectCount:])
}
func (c Cache) SetObjectCount(v uint32) {
	binary.LittleEndian.PutUint32(c.mem[cacheOffObjectCount:], v)
}

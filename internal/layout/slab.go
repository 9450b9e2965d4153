package layout

import "encoding/binary"

const (
	slabOffNext     = 0  // u32, next slab offset in the same list
	slabOffCache    = 4  // u32, owning cache record offset
	slabOffList     = 8  // u32, offset of the list-head field the slab sits on
	slabOffObjects  = 12 // u32, offset where the object cells begin
	slabOffFreeHead = 16 // u32, head of the free-object list
	slabOffFreeCnt  = 20 // u32, free-object count

	// SlabHeaderSize is sizeof(slab header), used by the per-cache
	// object-count formula to size each slab's cell array.
	SlabHeaderSize = 24
)

// Slab is a view over one slab's header, which lives at the start of its
// page. SlabAt lets a caller construct one from any region offset known to
// be page-aligned.
type Slab struct{ mem []byte }

// SlabAt returns the slab header view for the page starting at off.
func SlabAt(mem []byte, off uint32) Slab {
	return Slab{mem: mem[off : off+SlabHeaderSize]}
}

func (s Slab) Next() uint32     { return binary.LittleEndian.Uint32(s.mem[slabOffNext:]) }
func (s Slab) SetNext(v uint32) { binary.LittleEndian.PutUint32(s.mem[slabOffNext:], v) }

func (s Slab) Cache() uint32     { return binary.LittleEndian.Uint32(s.mem[slabOffCache:]) }
func (s Slab) SetCache(v uint32) { binary.LittleEndian.PutUint32(s.mem[slabOffCache:], v) }

func (s Slab) List() uint32     { return binary.LittleEndian.Uint32(s.mem[slabOffList:]) }
func (s Slab) SetList(v uint32) { binary.LittleEndian.PutUint32(s.mem[slabOffList:], v) }

func (s Slab) Objects() uint32     { return binary.LittleEndian.Uint32(s.mem[slabOffObjects:]) }
func (s Slab) SetObjects(v uint32) { binary.LittleEndian.PutUint32(s.mem[slabOffObjects:], v) }

func (s Slab) FreeHead() uint32     { return binary.LittleEndian.Uint32(s.mem[slabOffFreeHead:]) }
func (s Slab) SetFreeHead(v uint32) { binary.LittleEndian.PutUint32(s.mem[slabOffFreeHead:], v) }

func (s Slab) FreeCount() uint32     { return binary.LittleEndian.Uint32(s.mem[slabOffFreeCnt:]) }
func (s Slab) SetFreeCount(v uint32) { binary.LittleEndian.PutUint32(s.mem[slabOffFreeCnt:], v) }

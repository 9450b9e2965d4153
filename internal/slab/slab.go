// Package slab formats pages into Bonwick-style slabs and threads the
// intrusive free list of object cells inside them.
package slab

import (
	"encoding/binary"
	"fmt"

	"shmregion/consts"
	"shmregion/internal/layout"
)

func readNext(mem []byte, cell uint32) uint32 {
	return binary.LittleEndian.Uint32(mem[cell:])
}

func writeNext(mem []byte, cell, next uint32) {
	binary.LittleEndian.PutUint32(mem[cell:], next)
}

// Format lays out a freshly page-manager-supplied page at pageOff as a
// slab for the cache record at cacheOff. It zeroes the cell area, writes
// the header, and threads the free list so that the lowest-offset cell is
// handed out first (better locality under sequential demand).
//
// It does not link the slab onto any of the cache's three lists — the
// caller (cache.Allocate) does that, since it also decides which list a
// brand new slab belongs on.
func Format(mem []byte, pageOff, cacheOff uint32, cache layout.Cache) layout.Slab {
	for i := pageOff; i < pageOff+consts.PageSize; i++ {
		mem[i] = 0
	}

	objects := pageOff + layout.SlabHeaderSize
	aligned := cache.AlignedSize()
	count := cache.ObjectCount()

	s := layout.SlabAt(mem, pageOff)
	s.SetCache(cacheOff)
	s.SetList(cacheOff + layout.CacheFieldFreeHead)
	s.SetObjects(objects)

	next := uint32(0)
	for i := int(count) - 1; i >= 0; i-- {
		cell := objects + uint32(i)*aligned
		writeNext(mem, cell, next)
		next = cell
	}
	s.SetFreeHead(next)
	s.SetFreeCount(count)
	return s
}

// Pop unlinks the head of the slab's free-object list and returns its
// offset. The caller must ensure the slab's free list is non-empty.
func Pop(mem []byte, slabOff uint32) uint32 {
	s := layout.SlabAt(mem, slabOff)
	head := s.FreeHead()
	s.SetFreeHead(readNext(mem, head))
	s.SetFreeCount(s.FreeCount() - 1)
	return head
}

// Push returns obj to the slab's free-object list. It walks the existing
// list first to detect a double free and to bound-check every cell it
// visits — a cheap O(k) defense against corruption, where k is the
// current free-list length.
func Push(mem []byte, slabOff, obj uint32) {
	s := layout.SlabAt(mem, slabOff)
	end := slabOff + consts.PageSize

	for cur := s.FreeHead(); cur != 0; cur = readNext(mem, cur) {
		if cur < slabOff || cur >= end {
			panic(fmt.Sprintf("slab: free list corrupt at %#x: cell %#x outside slab bounds", slabOff, cur))
		}
		if cur == obj {
			panic(fmt.Sprintf("slab: double free of object %#x", obj))
		}
	}

	writeNext(mem, obj, s.FreeHead())
	s.SetFreeHead(obj)
	s.SetFreeCount(s.FreeCount() + 1)
}

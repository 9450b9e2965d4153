// Package shmregion implements a position-independent slab allocator over
// a shared memory mapping. Every pointer the allocator hands back is a
// self-relative offset, so the backing bytes stay valid no matter which
// process maps them, or at what base address — including after a private,
// copy-on-write clone.
package shmregion

import (
	"os"
	"sync"
	"unsafe"

	"shmregion/internal/errs"
	"shmregion/internal/mmap"
	"shmregion/internal/region"
)

// Re-exported sentinel errors, so callers never need to import the
// internal error package directly.
var (
	ErrNoSpace     = errs.ErrNoSpace
	ErrBadArgument = errs.ErrBadArgument
	ErrClosed      = errs.ErrClosed
	ErrCorrupt     = errs.ErrCorrupt
)

// File owns the shared memory mapping backing one region and serialises
// access to it. The allocator itself assumes a single writer; File adds
// the mutex so a process with multiple goroutines doesn't have to
// replicate that discipline at every call site.
type File struct {
	mu   sync.RWMutex
	f    *os.File
	mem  []byte
	size int64
	r    *region.Region
}

// OpenFile opens or creates path as a page-aligned shared mapping of size
// bytes. A freshly created file is formatted as a new region; an existing
// file is validated and reopened in place. size must be a whole number of
// pages, or OpenFile returns ErrBadArgument.
func OpenFile(path string, size int64) (*File, error) {
	if size <= 0 {
		return nil, ErrBadArgument
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o600)
	if err != nil {
		return nil, err
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}

	fresh := info.Size() == 0
	switch {
	case fresh:
		if err := f.Truncate(size); err != nil {
			f.Close()
			return nil, err
		}
	case info.Size() != size:
		f.Close()
		return nil, ErrBadArgument
	}

	mem, err := mmap.Map(f.Fd(), int(size))
	if err != nil {
		f.Close()
		return nil, err
	}

	var r *region.Region
	if fresh {
		var ok bool
		if r, ok = region.Init(mem); !ok {
			mmap.Unmap(mem)
			f.Close()
			return nil, ErrBadArgument
		}
	} else {
		if !region.Valid(mem) {
			mmap.Unmap(mem)
			f.Close()
			return nil, ErrCorrupt
		}
		r = region.Open(mem)
	}

	return &File{f: f, mem: mem, size: size, r: r}, nil
}

// Allocate requests an object of size bytes, returning 0 on capacity
// exhaustion.
func (fl *File) Allocate(size uint32) uint32 {
	fl.mu.Lock()
	defer fl.mu.Unlock()
	if fl.mem == nil {
		return 0
	}
	return fl.r.Allocate(size)
}

// Free returns object to its cache. An offset that is out of range,
// misaligned, or not on a slab page is silently ignored; freeing an object
// that is already free panics (double free).
func (fl *File) Free(object uint32) {
	fl.mu.Lock()
	defer fl.mu.Unlock()
	if fl.mem == nil {
		return
	}
	fl.r.Free(object)
}

// IsObject reports whether object is a valid offset within the region.
func (fl *File) IsObject(object uint32) bool {
	fl.mu.RLock()
	defer fl.mu.RUnlock()
	if fl.mem == nil {
		return false
	}
	return fl.r.IsObject(object)
}

// Swizzle translates a region offset into a process-local address.
func (fl *File) Swizzle(object uint32) unsafe.Pointer {
	fl.mu.RLock()
	defer fl.mu.RUnlock()
	if fl.mem == nil {
		return nil
	}
	return fl.r.Swizzle(object)
}

// Unswizzle translates a process-local address, known to point within this
// region, back into a region offset.
func (fl *File) Unswizzle(p unsafe.Pointer) uint32 {
	fl.mu.RLock()
	defer fl.mu.RUnlock()
	return fl.r.Unswizzle(p)
}

// Sync flushes the shared mapping's dirty pages back to the file.
func (fl *File) Sync() error {
	fl.mu.RLock()
	defer fl.mu.RUnlock()
	if fl.mem == nil {
		return ErrClosed
	}
	return mmap.Sync(fl.mem)
}

// Close flushes, unmaps, and closes the underlying file. Close is safe to
// call once; subsequent calls return ErrClosed.
func (fl *File) Close() error {
	fl.mu.Lock()
	defer fl.mu.Unlock()
	if fl.mem == nil {
		return ErrClosed
	}
	err := mmap.Sync(fl.mem)
	if uerr := mmap.Unmap(fl.mem); err == nil {
		err = uerr
	}
	if cerr := fl.f.Close(); err == nil {
		err = cerr
	}
	fl.mem = nil
	fl.r = nil
	return err
}

// Clone is a private, copy-on-write view of a File's backing storage.
// Mutations against the clone are invisible to the original mapping, and
// to every other clone, until committed with (*File).Commit.
type Clone struct {
	mem []byte
	r   *region.Region
}

// Clone maps a MAP_PRIVATE view of the same backing file, at the same
// size as fl's mapping. The allocator cannot grow a region in place — per
// its resource model, any extra capacity a caller wants to absorb future
// mutation must already have been present in the size passed to OpenFile
// — so Clone never resizes anything, it only duplicates.
func (fl *File) Clone() (*Clone, error) {
	fl.mu.RLock()
	defer fl.mu.RUnlock()

	if fl.mem == nil {
		return nil, ErrClosed
	}
	mem, err := mmap.MapPrivate(fl.f.Fd(), int(fl.size))
	if err != nil {
		return nil, err
	}
	return &Clone{mem: mem, r: region.Open(mem)}, nil
}

// Commit copies a clone's bytes back onto fl's shared mapping. After
// Commit, fl observes every mutation made against the clone.
func (fl *File) Commit(c *Clone) error {
	fl.mu.Lock()
	defer fl.mu.Unlock()

	if fl.mem == nil {
		return ErrClosed
	}
	if len(c.mem) != len(fl.mem) {
		return ErrBadArgument
	}
	copy(fl.mem, c.mem)
	fl.r = region.Open(fl.mem)
	return nil
}

// Discard releases the clone's private mapping without committing it.
func (c *Clone) Discard() error { return mmap.Unmap(c.mem) }

func (c *Clone) Allocate(size uint32) uint32          { return c.r.Allocate(size) }
func (c *Clone) Free(object uint32)                   { c.r.Free(object) }
func (c *Clone) IsObject(object uint32) bool          { return c.r.IsObject(object) }
func (c *Clone) Swizzle(object uint32) unsafe.Pointer { return c.r.Swizzle(object) }
func (c *Clone) Unswizzle(p unsafe.Pointer) uint32    { return c.r.Unswizzle(p) }

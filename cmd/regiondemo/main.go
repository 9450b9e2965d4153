// Command regiondemo walks through the allocator end to end: format a
// fresh region, allocate and reuse a couple of small objects, then clone
// the region privately, mutate the clone, and commit the change back.
package main

import (
	"fmt"
	"os"
	"unsafe"

	"shmregion"
)

func fail(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}

func bytesAt(p unsafe.Pointer, n int) []byte {
	return unsafe.Slice((*byte)(p), n)
}

func main() {
	path := "/tmp/regiondemo.shm"
	defer os.Remove(path)

	f, err := shmregion.OpenFile(path, 20*4096)
	if err != nil {
		fail(err)
	}
	defer f.Close()

	foobar := []byte("foobar\x00")
	object := f.Allocate(uint32(len(foobar)))
	if object == 0 {
		fail(shmregion.ErrNoSpace)
	}
	copy(bytesAt(f.Swizzle(object), len(foobar)), foobar)
	fmt.Printf("foobar object: %d, string: %s\n", object, bytesAt(f.Swizzle(object), len(foobar)))

	f.Free(object)

	foobaz := []byte("foobaz\x00")
	object = f.Allocate(uint32(len(foobaz)))
	if object == 0 {
		fail(shmregion.ErrNoSpace)
	}
	copy(bytesAt(f.Swizzle(object), len(foobaz)), foobaz)
	fmt.Printf("foobaz object: %d, string: %s\n", object, bytesAt(f.Swizzle(object), len(foobaz)))

	clone, err := f.Clone()
	if err != nil {
		fail(err)
	}
	extra := clone.Allocate(16)
	if extra == 0 {
		fail(shmregion.ErrNoSpace)
	}
	copy(bytesAt(clone.Swizzle(extra), 9), []byte("clone-buf"))
	fmt.Printf("clone object: %d, visible to original before commit: %v\n", extra, f.IsObject(extra))

	if err := f.Commit(clone); err != nil {
		fail(err)
	}
	fmt.Printf("clone object: %d, visible to original after commit: %v\n", extra, f.IsObject(extra))
}

package shmregion

import (
	"path/filepath"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
)

func tempRegionPath(t *testing.T) string {
	return filepath.Join(t.TempDir(), "region.shm")
}

func bytesAt(p unsafe.Pointer, n int) []byte {
	return unsafe.Slice((*byte)(p), n)
}

func TestOpenFileFormatsFreshRegion(t *testing.T) {
	path := tempRegionPath(t)

	f, err := OpenFile(path, 20*4096)
	require.NoError(t, err)
	defer f.Close()

	obj := f.Allocate(8)
	require.NotZero(t, obj)
	require.True(t, f.IsObject(obj))
}

func TestOpenFileRejectsSizeMismatchOnReopen(t *testing.T) {
	path := tempRegionPath(t)

	f, err := OpenFile(path, 20*4096)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	_, err = OpenFile(path, 21*4096)
	require.ErrorIs(t, err, ErrBadArgument)
}

func TestOpenFileReopensExistingRegion(t *testing.T) {
	path := tempRegionPath(t)

	f, err := OpenFile(path, 20*4096)
	require.NoError(t, err)
	obj := f.Allocate(16)
	require.NotZero(t, obj)
	require.NoError(t, f.Sync())
	require.NoError(t, f.Close())

	reopened, err := OpenFile(path, 20*4096)
	require.NoError(t, err)
	defer reopened.Close()
	require.True(t, reopened.IsObject(obj))
}

func TestFoobarFoobazWalkthrough(t *testing.T) {
	path := tempRegionPath(t)
	f, err := OpenFile(path, 20*4096)
	require.NoError(t, err)
	defer f.Close()

	foobar := []byte("foobar\x00")
	o1 := f.Allocate(uint32(len(foobar)))
	require.NotZero(t, o1)
	copy(bytesAt(f.Swizzle(o1), len(foobar)), foobar)
	require.Equal(t, foobar, bytesAt(f.Swizzle(o1), len(foobar)))

	f.Free(o1)

	foobaz := []byte("foobaz\x00")
	o2 := f.Allocate(uint32(len(foobaz)))
	require.Equal(t, o1, o2, "the just-freed cell must be reused by the next same-size allocation")
	copy(bytesAt(f.Swizzle(o2), len(foobaz)), foobaz)
	require.Equal(t, foobaz, bytesAt(f.Swizzle(o2), len(foobaz)))
}

func TestCloneIsInvisibleUntilCommitted(t *testing.T) {
	path := tempRegionPath(t)
	f, err := OpenFile(path, 20*4096)
	require.NoError(t, err)
	defer f.Close()

	clone, err := f.Clone()
	require.NoError(t, err)

	obj := clone.Allocate(16)
	require.NotZero(t, obj)
	require.False(t, f.IsObject(obj), "a clone's allocations must not be visible on the original before commit")

	require.NoError(t, f.Commit(clone))
	require.True(t, f.IsObject(obj), "committing the clone must make its allocations visible")
}

func TestCloneDiscard(t *testing.T) {
	path := tempRegionPath(t)
	f, err := OpenFile(path, 20*4096)
	require.NoError(t, err)
	defer f.Close()

	clone, err := f.Clone()
	require.NoError(t, err)
	require.NotZero(t, clone.Allocate(8))
	require.NoError(t, clone.Discard())
}

func TestCloseThenOperationsAreNoOps(t *testing.T) {
	path := tempRegionPath(t)
	f, err := OpenFile(path, 20*4096)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	require.Zero(t, f.Allocate(8))
	require.False(t, f.IsObject(1))
	require.ErrorIs(t, f.Close(), ErrClosed)
}

func TestOpenFileRejectsZeroSize(t *testing.T) {
	_, err := OpenFile(tempRegionPath(t), 0)
	require.ErrorIs(t, err, ErrBadArgument)
}


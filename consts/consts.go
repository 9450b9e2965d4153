// Package consts holds the layout constants shared by every layer of the
// allocator.
package consts

const (
	// PageSize is the allocator's coarse unit of supply. Every region size
	// and every page offset is a multiple of this.
	PageSize = 4096

	// Align is the alignment every cache's objects and the header's own
	// fields are kept to.
	Align = 8

	// MaxSmallObject is the largest request the small-object router
	// accepts; everything above it fails allocate. The heap/large-object
	// path for bigger requests is reserved but unimplemented.
	MaxSmallObject = 256

	// NumClasses is the number of fixed size-class caches region_init
	// creates, in order.
	NumClasses = 6
)

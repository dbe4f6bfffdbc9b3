// Package allocator implements the first-fit bitmap allocators used for both
// the inode bitmap and the data-block bitmap.
package allocator

import (
	"fmt"

	"github.com/boljen/go-bitmap"
	fserrors "github.com/kbasic/blockfuse/errors"
)

// Bitmap tracks allocation of a fixed number of units (inodes or data
// blocks), scanning for the first free slot from index 0 on every Alloc.
type Bitmap struct {
	bits     bitmap.Bitmap
	capacity uint
}

// New creates a Bitmap with room for capacity units, all initially free.
func New(capacity uint) *Bitmap {
	return &Bitmap{
		bits:     bitmap.New(int(capacity)),
		capacity: capacity,
	}
}

// Capacity returns the total number of units this bitmap can track.
func (b *Bitmap) Capacity() uint { return b.capacity }

// IsSet reports whether index is currently allocated.
func (b *Bitmap) IsSet(index uint) bool {
	return b.bits.Get(int(index))
}

// Alloc claims the lowest-indexed free unit and returns its index. It
// returns errors.ErrNoSpaceOnDevice if every unit is in use.
func (b *Bitmap) Alloc() (uint, error) {
	for i := uint(0); i < b.capacity; i++ {
		if !b.bits.Get(int(i)) {
			b.bits.Set(int(i), true)
			return i, nil
		}
	}
	return 0, fserrors.ErrNoSpaceOnDevice
}

// Free releases index. Freeing an index that is already free, or one past
// the bitmap's capacity, is an error.
func (b *Bitmap) Free(index uint) error {
	if index >= b.capacity {
		return fserrors.ErrInvalidArgument.WithMessage(
			fmt.Sprintf("index %d not in range [0, %d)", index, b.capacity))
	}
	if !b.bits.Get(int(index)) {
		return fserrors.ErrInvalidArgument.WithMessage(
			fmt.Sprintf("index %d is already free", index))
	}
	b.bits.Set(int(index), false)
	return nil
}

// Reserve marks index as allocated unconditionally, without going through
// the first-fit scan. Mount uses this to pin the permanently-reserved
// entries (the root directory's inode, for instance) during format.
func (b *Bitmap) Reserve(index uint) error {
	if index >= b.capacity {
		return fserrors.ErrInvalidArgument.WithMessage(
			fmt.Sprintf("index %d not in range [0, %d)", index, b.capacity))
	}
	b.bits.Set(int(index), true)
	return nil
}

// FreeCount returns the number of currently-unallocated units.
func (b *Bitmap) FreeCount() uint {
	free := uint(0)
	for i := uint(0); i < b.capacity; i++ {
		if !b.bits.Get(int(i)) {
			free++
		}
	}
	return free
}

// Bytes returns the raw bitmap storage, for writing straight out to the
// on-disk bitmap block.
func (b *Bitmap) Bytes() []byte {
	return b.bits.Data(false)
}

// LoadBytes replaces the bitmap's contents with raw bytes read back from
// disk. len(data) must be big enough to hold capacity bits.
func (b *Bitmap) LoadBytes(data []byte) {
	b.bits = bitmap.Bitmap(data)
}

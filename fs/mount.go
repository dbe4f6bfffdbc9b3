package fs

import (
	"fmt"

	"github.com/kbasic/blockfuse/allocator"
	"github.com/kbasic/blockfuse/blockio"
	fserrors "github.com/kbasic/blockfuse/errors"
)

var errDirectoryFull = fserrors.ErrNoSpaceOnDevice.WithMessage(
	fmt.Sprintf("directory cannot hold more than %d data blocks", DataPerFile))

// Mount is a live, open filesystem. Callers must serialize their own calls
// into a Mount; like the rest of this package, it takes no internal lock and
// assumes single-threaded, cooperative use (see spec §5 — concurrency beyond
// that is explicitly out of scope).
type Mount struct {
	shim *blockio.Shim
	sb   superblockWire

	inodeBitmap *allocator.Bitmap
	dataBitmap  *allocator.Bitmap
	inodes      *inodeCache

	rootIno uint32
}

// Format lays out a fresh filesystem on dev: a superblock, two bitmaps with
// only the root's inode and data block marked in use, and a root directory
// occupying inode 0. Only the superblock, the two bitmap blocks and the
// root's inode slot are written; every other byte of dev, including the
// other inode slots and the root's data block, keeps its previous contents.
func Format(dev blockio.Device) (*Mount, error) {
	shim := blockio.NewShim(blockio.NewCachingDevice(dev))
	deviceBlocks := shim.DeviceBytes() / BlockSize
	if deviceBlocks <= DataRegionStart {
		return nil, fserrors.ErrInvalidArgument.WithMessage(
			fmt.Sprintf("device has only %d blocks, need more than %d", deviceBlocks, DataRegionStart))
	}
	dataBlocks := deviceBlocks - DataRegionStart

	sb := superblockWire{
		Magic:            MagicNum,
		Usage:            0, // sz_usage: always 0, see DESIGN.md
		MaxInodes:        MaxInodes,
		InodeBitmapBlks:  1,
		InodeBitmapBlock: InodeBitmapBlock,
		MaxDataBlocks:    uint32(dataBlocks),
		DataBitmapBlks:   1,
		DataBitmapBlock:  DataBitmapBlock,
		InodeTableStart:  InodeTableStart,
		DataRegionStart:  DataRegionStart,
	}

	m := &Mount{
		shim:        shim,
		sb:          sb,
		inodeBitmap: allocator.New(MaxInodes),
		dataBitmap:  allocator.New(uint(dataBlocks)),
		rootIno:     RootIno,
	}
	m.inodes = newInodeCache(m)

	if err := m.writeSuperblock(); err != nil {
		return nil, err
	}

	if err := m.inodeBitmap.Reserve(RootIno); err != nil {
		return nil, err
	}
	root := newInode(RootIno, ftypeDir)
	root.kidsRead = true
	m.inodes.put(root)

	// An empty directory still needs one allocated data block, so the
	// on-disk layout is consistent from the start rather than only once
	// something is created under the root.
	if err := m.flushDirectory(root); err != nil {
		return nil, err
	}
	if err := m.writeInodeSlot(root.ino, root.wire); err != nil {
		return nil, err
	}
	if err := m.flushBitmaps(); err != nil {
		return nil, err
	}

	return m, nil
}

// Open mounts an existing, previously formatted filesystem image.
func Open(dev blockio.Device) (*Mount, error) {
	shim := blockio.NewShim(blockio.NewCachingDevice(dev))
	raw, err := shim.ReadAt(int64(SuperblockBlock)*BlockSize, superblockWireSize)
	if err != nil {
		return nil, err
	}
	sb, err := decodeSuperblock(raw)
	if err != nil {
		return nil, err
	}
	if sb.Magic != MagicNum {
		return nil, fserrors.ErrInvalidFileSystem.WithMessage("bad magic number")
	}

	m := &Mount{
		shim:        shim,
		sb:          sb,
		inodeBitmap: allocator.New(uint(sb.MaxInodes)),
		dataBitmap:  allocator.New(uint(sb.MaxDataBlocks)),
		rootIno:     RootIno,
	}
	m.inodes = newInodeCache(m)

	if err := m.loadBitmaps(); err != nil {
		return nil, err
	}
	if _, err := m.inodes.get(m.rootIno); err != nil {
		return nil, err
	}
	return m, nil
}

// Unmount recursively flushes every inode reachable from the root, writes
// the bitmaps back out, and releases the underlying device. It returns a
// combined error (via go-multierror) if any part of the tree failed to
// sync; per §7, no failure here is silently dropped.
func (m *Mount) Unmount() error {
	syncErr := m.inodes.syncAll(m.rootIno)
	bitmapErr := m.flushBitmaps()
	closeErr := m.shim.Close()

	switch {
	case syncErr != nil:
		return syncErr
	case bitmapErr != nil:
		return bitmapErr
	default:
		return closeErr
	}
}

func (m *Mount) writeSuperblock() error {
	return m.shim.WriteAt(int64(SuperblockBlock)*BlockSize, encodeSuperblock(m.sb))
}

func (m *Mount) flushBitmaps() error {
	if err := m.writeBitmapBlock(InodeBitmapBlock, m.inodeBitmap); err != nil {
		return err
	}
	return m.writeBitmapBlock(DataBitmapBlock, m.dataBitmap)
}

func (m *Mount) loadBitmaps() error {
	inodeBuf, err := m.shim.ReadAt(int64(InodeBitmapBlock)*BlockSize, BlockSize)
	if err != nil {
		return err
	}
	m.inodeBitmap.LoadBytes(inodeBuf)

	dataBuf, err := m.shim.ReadAt(int64(DataBitmapBlock)*BlockSize, BlockSize)
	if err != nil {
		return err
	}
	m.dataBitmap.LoadBytes(dataBuf)
	return nil
}

func (m *Mount) writeBitmapBlock(block uint32, bm *allocator.Bitmap) error {
	buf := make([]byte, BlockSize)
	copy(buf, bm.Bytes())
	return m.shim.WriteAt(int64(block)*BlockSize, buf)
}

// readInodeSlot/writeInodeSlot address the fixed-width inode table using
// InodesPerBlock slots per block, per the addressing fix recorded in
// DESIGN.md's open-question decisions.
func (m *Mount) readInodeSlot(ino uint32) (inodeWire, error) {
	if ino >= MaxInodes {
		return inodeWire{}, fserrors.ErrInvalidArgument.WithMessage(
			fmt.Sprintf("inode %d out of range [0, %d)", ino, MaxInodes))
	}
	block := InodeTableStart + ino/InodesPerBlock
	offsetInBlock := (ino % InodesPerBlock) * inodeWireSize
	raw, err := m.shim.ReadAt(int64(block)*BlockSize+int64(offsetInBlock), inodeWireSize)
	if err != nil {
		return inodeWire{}, err
	}
	return decodeInode(raw)
}

func (m *Mount) writeInodeSlot(ino uint32, w inodeWire) error {
	if ino >= MaxInodes {
		return fserrors.ErrInvalidArgument.WithMessage(
			fmt.Sprintf("inode %d out of range [0, %d)", ino, MaxInodes))
	}
	block := InodeTableStart + ino/InodesPerBlock
	offsetInBlock := (ino % InodesPerBlock) * inodeWireSize
	return m.shim.WriteAt(int64(block)*BlockSize+int64(offsetInBlock), encodeInode(w))
}

// readDataBlock/writeDataBlock take a 1-based data-block pointer as stored
// in an inodeWire.Blocks slot (0 means "unallocated") and translate it to an
// absolute device block.
func (m *Mount) readDataBlock(ptr uint32) ([]byte, error) {
	abs := DataRegionStart + (ptr - 1)
	return m.shim.ReadAt(int64(abs)*BlockSize, BlockSize)
}

func (m *Mount) writeDataBlock(ptr uint32, data []byte) error {
	abs := DataRegionStart + (ptr - 1)
	return m.shim.WriteAt(int64(abs)*BlockSize, data)
}

// ensureBlockCount grows or shrinks n's allocated data blocks to exactly
// want, allocating from/freeing back to the data bitmap as needed.
func (m *Mount) ensureBlockCount(n *inode, want int) error {
	have := 0
	for _, p := range n.wire.Blocks {
		if p != 0 {
			have++
		}
	}

	for have < want {
		idx, err := m.dataBitmap.Alloc()
		if err != nil {
			return err
		}
		n.wire.Blocks[have] = idx + 1
		have++
	}
	for have > want {
		have--
		ptr := n.wire.Blocks[have]
		n.wire.Blocks[have] = 0
		if err := m.dataBitmap.Free(uint(ptr - 1)); err != nil {
			return err
		}
	}
	n.wire.BlockAllocated = uint32(want)
	n.dirty = true
	return nil
}

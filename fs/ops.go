package fs

import (
	"fmt"

	fserrors "github.com/kbasic/blockfuse/errors"
)

// FileSystem is the operation façade a host layer drives. It never knows
// about POSIX errno conventions; every failure comes back as a
// fserrors.DriverError, and it's package host's job to turn that into the
// negative-int convention a FUSE binding expects.
type FileSystem struct {
	m *Mount
}

// NewFileSystem wraps an open Mount in the operation façade.
func NewFileSystem(m *Mount) *FileSystem {
	return &FileSystem{m: m}
}

// Unmount flushes and releases the underlying mount.
func (fsys *FileSystem) Unmount() error {
	return fsys.m.Unmount()
}

func (fsys *FileSystem) Getattr(path string) (Stat, fserrors.DriverError) {
	n, err := fsys.m.resolve(path)
	if err != nil {
		return Stat{}, asDriverError(err)
	}
	return n.stat(), nil
}

func (fsys *FileSystem) Readdir(path string) ([]DirEntry, fserrors.DriverError) {
	n, err := fsys.m.resolve(path)
	if err != nil {
		return nil, asDriverError(err)
	}
	if !n.isDir() {
		return nil, fserrors.ErrNotADirectory.WithMessage(path)
	}
	if err := fsys.m.loadChildren(n); err != nil {
		return nil, asDriverError(err)
	}

	var out []DirEntry
	for d := n.children; d != nil; d = d.next {
		child, err := fsys.m.inodes.get(d.ino)
		if err != nil {
			return nil, asDriverError(err)
		}
		out = append(out, DirEntry{Name: d.name, Ino: d.ino, Stat: child.stat()})
	}
	return out, nil
}

func (fsys *FileSystem) Mkdir(path string) fserrors.DriverError {
	return fsys.create(path, ftypeDir)
}

func (fsys *FileSystem) Create(path string) fserrors.DriverError {
	return fsys.create(path, ftypeReg)
}

func (fsys *FileSystem) create(path string, ftype uint32) fserrors.DriverError {
	parent, name, err := fsys.m.resolveParent(path)
	if err != nil {
		return asDriverError(err)
	}
	if _, exists := parent.findChild(name); exists {
		return fserrors.ErrExists.WithMessage(path)
	}

	ino, err := fsys.m.inodeBitmap.Alloc()
	if err != nil {
		return asDriverError(err)
	}

	n := newInode(uint32(ino), ftype)
	if ftype == ftypeDir {
		n.kidsRead = true
	}
	fsys.m.inodes.put(n)
	parent.insertChild(name, n.ino, ftype)

	if ftype == ftypeDir {
		if err := fsys.m.flushDirectory(n); err != nil {
			return asDriverError(err)
		}
	}
	parent.markDirty()
	return nil
}

func (fsys *FileSystem) Read(path string, buf []byte, offset int64) (int, fserrors.DriverError) {
	n, err := fsys.m.resolve(path)
	if err != nil {
		return 0, asDriverError(err)
	}
	if !n.isFile() {
		return 0, fserrors.ErrIsADirectory.WithMessage(path)
	}
	maxSize := int64(DataPerFile) * BlockSize
	if offset < 0 || offset >= maxSize {
		return 0, fserrors.ErrIllegalSeek.WithMessage(path)
	}

	size := int64(n.wire.Size)
	if offset >= size {
		return 0, nil
	}
	toRead := int64(len(buf))
	if offset+toRead > size {
		toRead = size - offset
	}

	read := 0
	for read < int(toRead) {
		blockIdx := int(offset+int64(read)) / BlockSize
		blockOff := int(offset+int64(read)) % BlockSize
		if blockIdx >= DataPerFile {
			break
		}
		ptr := n.wire.Blocks[blockIdx]
		var blockData []byte
		if ptr == 0 {
			blockData = make([]byte, BlockSize)
		} else {
			blockData, err = fsys.m.readDataBlock(ptr)
			if err != nil {
				return read, asDriverError(err)
			}
		}
		copied := copy(buf[read:int(toRead)], blockData[blockOff:])
		read += copied
	}
	return read, nil
}

func (fsys *FileSystem) Write(path string, data []byte, offset int64) (int, fserrors.DriverError) {
	n, err := fsys.m.resolve(path)
	if err != nil {
		return 0, asDriverError(err)
	}
	if !n.isFile() {
		return 0, fserrors.ErrIsADirectory.WithMessage(path)
	}
	maxSize := int64(DataPerFile) * BlockSize
	if offset < 0 || offset >= maxSize {
		return 0, fserrors.ErrIllegalSeek.WithMessage(path)
	}

	end := offset + int64(len(data))
	if end > maxSize {
		return 0, fserrors.ErrNoSpaceOnDevice.WithMessage(
			fmt.Sprintf("write would extend %s past %d bytes", path, maxSize))
	}

	written := 0
	for written < len(data) {
		pos := offset + int64(written)
		blockIdx := int(pos / BlockSize)
		blockOff := int(pos % BlockSize)

		if n.wire.Blocks[blockIdx] == 0 {
			idx, err := fsys.m.dataBitmap.Alloc()
			if err != nil {
				return written, asDriverError(err)
			}
			n.wire.Blocks[blockIdx] = idx + 1
			n.wire.BlockAllocated++
		}
		ptr := n.wire.Blocks[blockIdx]

		blockData, err := fsys.m.readDataBlock(ptr)
		if err != nil {
			return written, asDriverError(err)
		}
		copied := copy(blockData[blockOff:], data[written:])
		if err := fsys.m.writeDataBlock(ptr, blockData); err != nil {
			return written, asDriverError(err)
		}
		written += copied
	}

	if end > int64(n.wire.Size) {
		n.wire.Size = uint32(end)
	}
	n.markDirty()
	return written, nil
}

func (fsys *FileSystem) Unlink(path string) fserrors.DriverError {
	parent, name, err := fsys.m.resolveParent(path)
	if err != nil {
		return asDriverError(err)
	}
	ino, ok := parent.findChild(name)
	if !ok {
		return fserrors.ErrNotFound.WithMessage(path)
	}
	target, err := fsys.m.inodes.get(ino)
	if err != nil {
		return asDriverError(err)
	}
	if target.isDir() {
		return fserrors.ErrIsADirectory.WithMessage(path)
	}

	if err := fsys.freeBlocks(target); err != nil {
		return asDriverError(err)
	}
	parent.removeChild(name)
	parent.markDirty()
	if err := fsys.m.inodeBitmap.Free(uint(ino)); err != nil {
		return asDriverError(err)
	}
	fsys.m.inodes.drop(ino)
	return nil
}

func (fsys *FileSystem) Rmdir(path string) fserrors.DriverError {
	parent, name, err := fsys.m.resolveParent(path)
	if err != nil {
		return asDriverError(err)
	}
	ino, ok := parent.findChild(name)
	if !ok {
		return fserrors.ErrNotFound.WithMessage(path)
	}
	target, err := fsys.m.inodes.get(ino)
	if err != nil {
		return asDriverError(err)
	}
	if !target.isDir() {
		return fserrors.ErrNotADirectory.WithMessage(path)
	}
	if err := fsys.m.loadChildren(target); err != nil {
		return asDriverError(err)
	}
	if target.children != nil {
		return fserrors.ErrDirectoryNotEmpty.WithMessage(path)
	}

	if err := fsys.freeBlocks(target); err != nil {
		return asDriverError(err)
	}
	parent.removeChild(name)
	parent.markDirty()
	if err := fsys.m.inodeBitmap.Free(uint(ino)); err != nil {
		return asDriverError(err)
	}
	fsys.m.inodes.drop(ino)
	return nil
}

func (fsys *FileSystem) Rename(oldPath, newPath string) fserrors.DriverError {
	oldParent, oldName, err := fsys.m.resolveParent(oldPath)
	if err != nil {
		return asDriverError(err)
	}
	if _, ok := oldParent.findChild(oldName); !ok {
		return fserrors.ErrNotFound.WithMessage(oldPath)
	}

	newParent, newName, err := fsys.m.resolveParent(newPath)
	if err != nil {
		return asDriverError(err)
	}
	if _, exists := newParent.findChild(newName); exists {
		return fserrors.ErrExists.WithMessage(newPath)
	}

	ino, ftype, _ := oldParent.removeChild(oldName)
	newParent.insertChild(newName, ino, ftype)
	oldParent.markDirty()
	newParent.markDirty()
	return nil
}

// Truncate is a no-op: it resolves path and confirms it names a file, but
// neither frees nor allocates blocks and leaves size untouched.
func (fsys *FileSystem) Truncate(path string, size int64) fserrors.DriverError {
	n, err := fsys.m.resolve(path)
	if err != nil {
		return asDriverError(err)
	}
	if !n.isFile() {
		return fserrors.ErrIsADirectory.WithMessage(path)
	}
	return nil
}

// Access succeeds for any path that exists and returns the resolve error
// otherwise: per-object permissions beyond a fixed default are out of scope.
func (fsys *FileSystem) Access(path string) fserrors.DriverError {
	_, err := fsys.m.resolve(path)
	if err != nil {
		return asDriverError(err)
	}
	return nil
}

// Utimens is a no-op: no inode carries a timestamp to update.
func (fsys *FileSystem) Utimens(path string) fserrors.DriverError {
	_, err := fsys.m.resolve(path)
	if err != nil {
		return asDriverError(err)
	}
	return nil
}

// Statfs reports aggregate filesystem usage.
func (fsys *FileSystem) Statfs() FSStat {
	return FSStat{
		BlockSize:       BlockSize,
		TotalBlocks:     uint64(fsys.m.sb.MaxDataBlocks),
		BlocksFree:      uint64(fsys.m.dataBitmap.FreeCount()),
		BlocksAvailable: uint64(fsys.m.dataBitmap.FreeCount()),
		Files:           uint64(fsys.m.sb.MaxInodes) - uint64(fsys.m.inodeBitmap.FreeCount()),
		FilesFree:       uint64(fsys.m.inodeBitmap.FreeCount()),
		MaxNameLength:   maxNameLen,
	}
}

func (fsys *FileSystem) freeBlocks(n *inode) error {
	for i, ptr := range n.wire.Blocks {
		if ptr == 0 {
			continue
		}
		n.wire.Blocks[i] = 0
		if err := fsys.m.dataBitmap.Free(uint(ptr - 1)); err != nil {
			return err
		}
	}
	n.wire.BlockAllocated = 0
	return nil
}

// asDriverError normalizes errors returned from internal resolve/load
// helpers (which may already be fserrors.DriverError values, or may be plain
// errors from the block I/O layer) into the DriverError interface every
// façade method returns.
func asDriverError(err error) fserrors.DriverError {
	if err == nil {
		return nil
	}
	if de, ok := err.(fserrors.DriverError); ok {
		return de
	}
	return fserrors.ErrIOFailed.Wrap(err)
}

package fs

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/noxer/bytewriter"
)

// On-disk wire structs. All three are packed little-endian, field order as
// given, matching the original nfs_super_d/nfs_inode_d/nfs_dentry_d layout
// byte for byte (timestamps and a liveness flag were dropped from an earlier
// draft of this file that didn't match that layout; see DESIGN.md).
//
// InodesPerBlock in geometry.go and entriesPerBlock in dirent.go are derived
// directly from inodeWireSize and direntWireSize below, so changing a slot
// size changes the inode-table and directory-block layout along with them.

const inodeWireSize = 128 // slot size; keeps InodesPerBlock == 8. Real payload is 52 bytes, rest is padding.
const direntWireSize = 136
const superblockWireSize = 40

// maxNameLen is NFS_MAX_FILE_NAME: the fixed name field width in a dirent,
// not reduced to make room for any liveness flag (there isn't one).
const maxNameLen = 128

// file types, matching NFS_FILE_TYPE's declaration order (NFS_REG_FILE = 0,
// NFS_DIR = 1).
const (
	ftypeReg uint32 = 0
	ftypeDir uint32 = 1
)

// superblockWire is nfs_super_d: magic, usage, then the two bitmap/region
// descriptions in the order the original lays them out.
type superblockWire struct {
	Magic            uint32
	Usage            uint32 // sz_usage; set to 0 at format and never updated again (see DESIGN.md)
	MaxInodes        uint32
	InodeBitmapBlks  uint32
	InodeBitmapBlock uint32
	MaxDataBlocks    uint32
	DataBitmapBlks   uint32
	DataBitmapBlock  uint32
	InodeTableStart  uint32
	DataRegionStart  uint32
}

func encodeSuperblock(sb superblockWire) []byte {
	buf := make([]byte, superblockWireSize)
	binary.LittleEndian.PutUint32(buf[0:4], sb.Magic)
	binary.LittleEndian.PutUint32(buf[4:8], sb.Usage)
	binary.LittleEndian.PutUint32(buf[8:12], sb.MaxInodes)
	binary.LittleEndian.PutUint32(buf[12:16], sb.InodeBitmapBlks)
	binary.LittleEndian.PutUint32(buf[16:20], sb.InodeBitmapBlock)
	binary.LittleEndian.PutUint32(buf[20:24], sb.MaxDataBlocks)
	binary.LittleEndian.PutUint32(buf[24:28], sb.DataBitmapBlks)
	binary.LittleEndian.PutUint32(buf[28:32], sb.DataBitmapBlock)
	binary.LittleEndian.PutUint32(buf[32:36], sb.InodeTableStart)
	binary.LittleEndian.PutUint32(buf[36:40], sb.DataRegionStart)
	return buf
}

func decodeSuperblock(buf []byte) (superblockWire, error) {
	if len(buf) < superblockWireSize {
		return superblockWire{}, fmt.Errorf("superblock buffer too short: %d bytes", len(buf))
	}
	return superblockWire{
		Magic:            binary.LittleEndian.Uint32(buf[0:4]),
		Usage:            binary.LittleEndian.Uint32(buf[4:8]),
		MaxInodes:        binary.LittleEndian.Uint32(buf[8:12]),
		InodeBitmapBlks:  binary.LittleEndian.Uint32(buf[12:16]),
		InodeBitmapBlock: binary.LittleEndian.Uint32(buf[16:20]),
		MaxDataBlocks:    binary.LittleEndian.Uint32(buf[20:24]),
		DataBitmapBlks:   binary.LittleEndian.Uint32(buf[24:28]),
		DataBitmapBlock:  binary.LittleEndian.Uint32(buf[28:32]),
		InodeTableStart:  binary.LittleEndian.Uint32(buf[32:36]),
		DataRegionStart:  binary.LittleEndian.Uint32(buf[36:40]),
	}, nil
}

// inodeWire is nfs_inode_d: one slot of the on-disk inode table,
// InodesPerBlock of these per block (the slot is padded out to
// inodeWireSize; only the first 52 bytes carry real fields).
type inodeWire struct {
	Ino            uint32
	Size           uint32
	Link           uint32
	Blocks         [DataPerFile]uint32
	DirCount       uint32
	Ftype          uint32
	BlockAllocated uint32
}

func encodeInode(n inodeWire) []byte {
	buf := make([]byte, inodeWireSize)
	binary.LittleEndian.PutUint32(buf[0:4], n.Ino)
	binary.LittleEndian.PutUint32(buf[4:8], n.Size)
	binary.LittleEndian.PutUint32(buf[8:12], n.Link)
	for i, b := range n.Blocks {
		off := 12 + i*4
		binary.LittleEndian.PutUint32(buf[off:off+4], b)
	}
	tail := 12 + DataPerFile*4
	binary.LittleEndian.PutUint32(buf[tail:tail+4], n.DirCount)
	binary.LittleEndian.PutUint32(buf[tail+4:tail+8], n.Ftype)
	binary.LittleEndian.PutUint32(buf[tail+8:tail+12], n.BlockAllocated)
	// The remainder of the slot (up to inodeWireSize) stays zeroed padding.
	return buf
}

func decodeInode(buf []byte) (inodeWire, error) {
	if len(buf) < inodeWireSize {
		return inodeWire{}, fmt.Errorf("inode buffer too short: %d bytes", len(buf))
	}
	n := inodeWire{
		Ino:  binary.LittleEndian.Uint32(buf[0:4]),
		Size: binary.LittleEndian.Uint32(buf[4:8]),
		Link: binary.LittleEndian.Uint32(buf[8:12]),
	}
	for i := range n.Blocks {
		off := 12 + i*4
		n.Blocks[i] = binary.LittleEndian.Uint32(buf[off : off+4])
	}
	tail := 12 + DataPerFile*4
	n.DirCount = binary.LittleEndian.Uint32(buf[tail : tail+4])
	n.Ftype = binary.LittleEndian.Uint32(buf[tail+4 : tail+8])
	n.BlockAllocated = binary.LittleEndian.Uint32(buf[tail+8 : tail+12])
	return n, nil
}

// direntWire is nfs_dentry_d: a fixed-width name, the inode it names, and
// its file type. There is no liveness flag on disk; a directory's DirCount
// says how many of its entries are live, and readers stop there.
type direntWire struct {
	Name  string
	Ino   uint32
	Ftype uint32
}

func encodeDirent(d direntWire) ([]byte, error) {
	if len(d.Name) >= maxNameLen {
		return nil, fmt.Errorf("name %q longer than %d bytes", d.Name, maxNameLen-1)
	}
	buf := make([]byte, direntWireSize)

	// bytewriter lets us write the name, its NUL padding, and the trailing
	// fixed-width fields as one sequential stream into the preallocated slot
	// instead of hand-computing each field's byte range.
	w := bytewriter.New(buf)
	io.WriteString(w, d.Name)
	w.Write(make([]byte, maxNameLen-len(d.Name))) // NUL terminator + padding

	binary.Write(w, binary.LittleEndian, d.Ino)
	binary.Write(w, binary.LittleEndian, d.Ftype)
	return buf, nil
}

func decodeDirent(buf []byte) (direntWire, error) {
	if len(buf) < direntWireSize {
		return direntWire{}, fmt.Errorf("dirent buffer too short: %d bytes", len(buf))
	}
	nameBytes := buf[0:maxNameLen]
	terminator := bytes.IndexByte(nameBytes, 0)
	if terminator < 0 {
		terminator = len(nameBytes)
	}
	return direntWire{
		Name:  string(nameBytes[:terminator]),
		Ino:   binary.LittleEndian.Uint32(buf[maxNameLen : maxNameLen+4]),
		Ftype: binary.LittleEndian.Uint32(buf[maxNameLen+4 : maxNameLen+8]),
	}, nil
}

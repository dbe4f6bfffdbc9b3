package fs

import (
	multierror "github.com/hashicorp/go-multierror"
)

// inode is the in-memory form of an on-disk inode slot. Directories additionally
// carry a loaded sibling list of their children (see dirent.go); regular files
// carry only their data-block pointers.
type inode struct {
	ino   uint32
	wire  inodeWire
	dirty bool

	// children is non-nil only for directories, and only once a path walk,
	// Readdir, or a mutation has forced it to be loaded from disk.
	children *dirent
	kidsRead bool
}

func newInode(ino uint32, ftype uint32) *inode {
	return &inode{
		ino: ino,
		wire: inodeWire{
			Ino:   ino,
			Link:  1,
			Ftype: ftype,
		},
		dirty: true,
	}
}

func (n *inode) stat() Stat {
	return Stat{
		Ino:   n.ino,
		Mode:  modeForFtype(n.wire.Ftype),
		Size:  int64(n.wire.Size),
		Nlink: uint16(n.wire.Link),
	}
}

func (n *inode) isDir() bool  { return n.wire.Ftype == ftypeDir }
func (n *inode) isFile() bool { return n.wire.Ftype == ftypeReg }

func (n *inode) markDirty() {
	n.dirty = true
}

// inodeCache lazily materializes *inode values from disk on first touch and
// never evicts them for the lifetime of a mount (see mount.go's concurrency
// note): the whole tree a mount ever visits stays resident until Unmount.
type inodeCache struct {
	m     *Mount
	nodes map[uint32]*inode
}

func newInodeCache(m *Mount) *inodeCache {
	return &inodeCache{m: m, nodes: map[uint32]*inode{}}
}

// get returns the inode for ino, reading it from disk the first time it's
// requested.
func (c *inodeCache) get(ino uint32) (*inode, error) {
	if n, ok := c.nodes[ino]; ok {
		return n, nil
	}
	wire, err := c.m.readInodeSlot(ino)
	if err != nil {
		return nil, err
	}
	n := &inode{ino: ino, wire: wire}
	c.nodes[ino] = n
	return n, nil
}

// put registers a freshly created inode (one not yet on disk) in the cache.
func (c *inodeCache) put(n *inode) {
	c.nodes[n.ino] = n
}

// drop removes ino from the cache; used by Unlink/Rmdir once an inode's
// final link is gone and its slot has been freed.
func (c *inodeCache) drop(ino uint32) {
	delete(c.nodes, ino)
}

// syncAll recursively flushes every resident inode reachable from root,
// depth first, aggregating failures instead of stopping at the first one so
// a problem deep in the tree doesn't hide a sibling's failure.
func (c *inodeCache) syncAll(root uint32) error {
	var result *multierror.Error
	visited := map[uint32]bool{}
	c.syncRecursive(root, visited, &result)
	if result == nil {
		return nil
	}
	return result.ErrorOrNil()
}

func (c *inodeCache) syncRecursive(ino uint32, visited map[uint32]bool, result **multierror.Error) {
	if visited[ino] {
		return
	}
	visited[ino] = true

	n, ok := c.nodes[ino]
	if !ok {
		// Never loaded this mount, so it can't have changed.
		return
	}

	if n.isDir() && n.kidsRead {
		if err := c.m.flushDirectory(n); err != nil {
			*result = multierror.Append(*result, err)
		}
		for d := n.children; d != nil; d = d.next {
			c.syncRecursive(d.ino, visited, result)
		}
	}

	if n.dirty {
		if err := c.m.writeInodeSlot(n.ino, n.wire); err != nil {
			*result = multierror.Append(*result, err)
		} else {
			n.dirty = false
		}
	}
}

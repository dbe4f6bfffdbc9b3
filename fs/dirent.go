package fs

// entriesPerBlock is how many direntWire slots fit in one data block.
const entriesPerBlock = BlockSize / direntWireSize

// dirent is one loaded child of a directory, linked into its parent's
// sibling list. New entries are inserted at the head of the list, mirroring
// the original format's head-insertion allocator.
type dirent struct {
	name  string
	ino   uint32
	ftype uint32
	next  *dirent
}

// insertChild adds a new entry at the head of parent's sibling list. The
// caller is responsible for having already checked the name doesn't exist.
func (n *inode) insertChild(name string, ino uint32, ftype uint32) {
	n.children = &dirent{name: name, ino: ino, ftype: ftype, next: n.children}
}

// removeChild unlinks the entry named name from the sibling list. It reports
// whether an entry was found and removed, and the removed entry's file type
// (needed by Rename to re-link it elsewhere).
func (n *inode) removeChild(name string) (ino uint32, ftype uint32, ok bool) {
	var prev *dirent
	for d := n.children; d != nil; d = d.next {
		if nameEquals(d.name, name) {
			if prev == nil {
				n.children = d.next
			} else {
				prev.next = d.next
			}
			return d.ino, d.ftype, true
		}
		prev = d
	}
	return 0, 0, false
}

// findChild looks up name among parent's loaded children. Name comparison is
// strict equality: a stored entry named "abcdef" is never matched by a
// lookup for "abc", even though a naive prefix-length memcmp would do so.
func (n *inode) findChild(name string) (uint32, bool) {
	for d := n.children; d != nil; d = d.next {
		if nameEquals(d.name, name) {
			return d.ino, true
		}
	}
	return 0, false
}

func nameEquals(a, b string) bool {
	return a == b
}

// loadChildren populates n.children from disk the first time a directory's
// contents are needed. It's a no-op on every call after the first.
//
// Entries are read at a fixed stride until n.wire.DirCount of them have been
// produced (§4.4): there is no per-slot liveness flag on disk, so reading
// past DirCount would pick up stale bytes left behind by a shrunk directory.
func (m *Mount) loadChildren(n *inode) error {
	if n.kidsRead {
		return nil
	}

	var head *dirent
	tail := &head
	produced := uint32(0)
	for _, ptr := range n.wire.Blocks {
		if produced >= n.wire.DirCount {
			break
		}
		if ptr == 0 {
			// 0 means "no block allocated here"; real indices are stored as
			// ptr-1 so index 0 of the data region is still representable.
			continue
		}
		raw, err := m.readDataBlock(ptr)
		if err != nil {
			return err
		}
		for i := 0; i < entriesPerBlock && produced < n.wire.DirCount; i++ {
			slot := raw[i*direntWireSize : (i+1)*direntWireSize]
			d, err := decodeDirent(slot)
			if err != nil {
				return err
			}
			entry := &dirent{name: d.Name, ino: d.Ino, ftype: d.Ftype}
			*tail = entry
			tail = &entry.next
			produced++
		}
	}
	n.children = head
	n.kidsRead = true
	return nil
}

// flushDirectory serializes n's sibling list back into its data blocks,
// allocating additional blocks from the data bitmap as needed and freeing
// any that are no longer required. DirCount is the authoritative live-entry
// count. Every block that holds an entry is rewritten from a zeroed buffer, so
// the slots past the last entry are zeroed; an empty directory's block is not
// written at all and keeps its previous bytes.
func (m *Mount) flushDirectory(n *inode) error {
	entries := make([]*dirent, 0)
	for d := n.children; d != nil; d = d.next {
		entries = append(entries, d)
	}

	neededBlocks := (len(entries) + entriesPerBlock - 1) / entriesPerBlock
	if neededBlocks == 0 {
		neededBlocks = 1 // a directory always has at least one data block
	}
	if neededBlocks > DataPerFile {
		return errDirectoryFull
	}

	if err := m.ensureBlockCount(n, neededBlocks); err != nil {
		return err
	}

	idx := 0
	for b := 0; b < neededBlocks && idx < len(entries); b++ {
		buf := make([]byte, BlockSize)
		for i := 0; i < entriesPerBlock && idx < len(entries); i++ {
			slot, err := encodeDirent(direntWire{
				Name: entries[idx].name, Ino: entries[idx].ino, Ftype: entries[idx].ftype,
			})
			if err != nil {
				return err
			}
			copy(buf[i*direntWireSize:(i+1)*direntWireSize], slot)
			idx++
		}
		if err := m.writeDataBlock(n.wire.Blocks[b], buf); err != nil {
			return err
		}
	}

	n.wire.DirCount = uint32(len(entries))
	n.wire.Size = uint32(len(entries)) * direntWireSize
	n.dirty = true
	return nil
}

package fs

import (
	"strings"

	fserrors "github.com/kbasic/blockfuse/errors"
)

// splitPath breaks a slash-separated path into its non-empty components.
// "/", "", and "///" all split to nothing, meaning "the root".
func splitPath(path string) []string {
	parts := strings.Split(path, "/")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// resolve walks path component by component from the root, loading each
// directory's children on demand, and returns the inode at the end of the
// walk. It fails with ErrNotFound as soon as a component is missing, and
// also with ErrNotFound (not ErrNotADirectory) if a non-final component
// names a regular file: there's nothing under a file to descend into, so a
// path through one is just a miss, same as a missing name (§4.5(b)).
func (m *Mount) resolve(path string) (*inode, error) {
	parts := splitPath(path)

	cur, err := m.inodes.get(m.rootIno)
	if err != nil {
		return nil, err
	}

	for _, part := range parts {
		if !cur.isDir() {
			return nil, fserrors.ErrNotFound.WithMessage(path)
		}
		if err := m.loadChildren(cur); err != nil {
			return nil, err
		}
		ino, ok := cur.findChild(part)
		if !ok {
			return nil, fserrors.ErrNotFound.WithMessage(path)
		}
		cur, err = m.inodes.get(ino)
		if err != nil {
			return nil, err
		}
	}
	return cur, nil
}

// resolveParent resolves every component of path except the last, and
// returns the parent directory inode plus the final component's name. It's
// the building block for Mkdir/Create/Unlink/Rmdir/Rename, all of which need
// to mutate a directory rather than just read through it.
func (m *Mount) resolveParent(path string) (*inode, string, error) {
	parts := splitPath(path)
	if len(parts) == 0 {
		return nil, "", fserrors.ErrInvalidArgument.WithMessage("path has no final component")
	}

	parentPath := "/" + strings.Join(parts[:len(parts)-1], "/")
	parent, err := m.resolve(parentPath)
	if err != nil {
		return nil, "", err
	}
	if !parent.isDir() {
		return nil, "", fserrors.ErrNotADirectory.WithMessage(parentPath)
	}
	if err := m.loadChildren(parent); err != nil {
		return nil, "", err
	}
	return parent, parts[len(parts)-1], nil
}

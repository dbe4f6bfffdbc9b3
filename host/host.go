// Package host adapts package fs's operation façade to the negative-POSIX-
// errno calling convention a FUSE binding expects. It's the only place in
// this module that knows about that convention; fs itself never returns a
// raw int.
package host

import (
	"time"

	fserrors "github.com/kbasic/blockfuse/errors"
	"github.com/kbasic/blockfuse/fs"
)

// Host wraps an open filesystem for a FUSE-style callback dispatcher.
type Host struct {
	fs *fs.FileSystem
}

// New wraps fsys.
func New(fsys *fs.FileSystem) *Host {
	return &Host{fs: fsys}
}

func (h *Host) Getattr(path string) (fs.Stat, int) {
	st, err := h.fs.Getattr(path)
	return st, errno(err)
}

// Readdir returns every entry under path in a single call, plus the errno.
// It takes no offset and does not paginate.
func (h *Host) Readdir(path string) ([]fs.DirEntry, int) {
	entries, err := h.fs.Readdir(path)
	return entries, errno(err)
}

func (h *Host) Mkdir(path string) int {
	return errno(h.fs.Mkdir(path))
}

func (h *Host) Create(path string) int {
	return errno(h.fs.Create(path))
}

func (h *Host) Read(path string, buf []byte, offset int64) (int, int) {
	n, err := h.fs.Read(path, buf, offset)
	return n, errno(err)
}

func (h *Host) Write(path string, buf []byte, offset int64) (int, int) {
	n, err := h.fs.Write(path, buf, offset)
	return n, errno(err)
}

func (h *Host) Unlink(path string) int {
	return errno(h.fs.Unlink(path))
}

func (h *Host) Rmdir(path string) int {
	return errno(h.fs.Rmdir(path))
}

func (h *Host) Rename(oldPath, newPath string) int {
	return errno(h.fs.Rename(oldPath, newPath))
}

func (h *Host) Truncate(path string, size int64) int {
	return errno(h.fs.Truncate(path, size))
}

// Access succeeds for any path that exists and returns the resolve error
// otherwise: per-object permissions beyond a fixed default are out of scope.
func (h *Host) Access(path string, mode int) int {
	return errno(h.fs.Access(path))
}

// Utimens is a no-op besides validating that path exists.
func (h *Host) Utimens(path string, atime, mtime time.Time) int {
	return errno(h.fs.Utimens(path))
}

func (h *Host) Statfs() fs.FSStat {
	return h.fs.Statfs()
}

// Unmount flushes and releases the underlying mount.
func (h *Host) Unmount() int {
	return errno(asDriverError(h.fs.Unmount()))
}

func asDriverError(err error) fserrors.DriverError {
	if err == nil {
		return nil
	}
	if de, ok := err.(fserrors.DriverError); ok {
		return de
	}
	return fserrors.ErrIOFailed.Wrap(err)
}

package host

import (
	"errors"
	"syscall"

	fserrors "github.com/kbasic/blockfuse/errors"
)

// errno maps a fserrors.DriverError to the negative POSIX error code a FUSE
// callback returns on failure, or 0 on success. The mapping for "operation
// not supported" follows original_source/fs/newfs/include/types.h's own
// table (NFS_ERROR_UNSUPPORTED -> ENXIO), not the more obvious ENOSYS: the
// format this was distilled from used ENXIO, and nothing in spec.md's
// testable properties requires deviating from it.
func errno(err fserrors.DriverError) int {
	if err == nil {
		return 0
	}

	switch {
	case errors.Is(err, fserrors.ErrNotFound):
		return -int(syscall.ENOENT)
	case errors.Is(err, fserrors.ErrExists):
		return -int(syscall.EEXIST)
	case errors.Is(err, fserrors.ErrNoSpaceOnDevice):
		return -int(syscall.ENOSPC)
	case errors.Is(err, fserrors.ErrIOFailed):
		return -int(syscall.EIO)
	case errors.Is(err, fserrors.ErrInvalidArgument):
		return -int(syscall.EINVAL)
	case errors.Is(err, fserrors.ErrIllegalSeek):
		return -int(syscall.ESPIPE)
	case errors.Is(err, fserrors.ErrIsADirectory):
		return -int(syscall.EISDIR)
	case errors.Is(err, fserrors.ErrNotADirectory):
		return -int(syscall.ENOTDIR)
	case errors.Is(err, fserrors.ErrDirectoryNotEmpty):
		return -int(syscall.ENOTEMPTY)
	case errors.Is(err, fserrors.ErrInvalidFileSystem):
		return -int(syscall.ENXIO)
	case errors.Is(err, fserrors.ErrNotSupported):
		return -int(syscall.ENXIO)
	default:
		return -int(syscall.EIO)
	}
}

package native

import (
	"errors"
	"io/fs"
	"syscall"
)

// Errno values used by the shipped drivers. They are plain syscall.Errno so
// callers can match them with errors.Is against io/fs sentinels.
const (
	ENOENT       = syscall.ENOENT
	EEXIST       = syscall.EEXIST
	ENOTDIR      = syscall.ENOTDIR
	EISDIR       = syscall.EISDIR
	ENOTEMPTY    = syscall.ENOTEMPTY
	EACCES       = syscall.EACCES
	EINVAL       = syscall.EINVAL
	EBADF        = syscall.EBADF
	EIO          = syscall.EIO
	ENOSPC       = syscall.ENOSPC
	ENOTSUP      = syscall.ENOTSUP
	ERANGE       = syscall.ERANGE
	ENOSYS       = syscall.ENOSYS
	ECONNREFUSED = syscall.ECONNREFUSED
	ENOTCONN     = syscall.ENOTCONN
	EBUSY        = syscall.EBUSY
)

// ToErrno translates a Go error into the closest errno. It is how drivers
// backed by Go clients produce the errno half of a native result.
func ToErrno(err error) syscall.Errno {
	if err == nil {
		return 0
	}

	var errno syscall.Errno
	if errors.As(err, &errno) {
		return errno
	}

	switch {
	case errors.Is(err, fs.ErrNotExist):
		return ENOENT
	case errors.Is(err, fs.ErrExist):
		return EEXIST
	case errors.Is(err, fs.ErrPermission):
		return EACCES
	case errors.Is(err, fs.ErrInvalid):
		return EINVAL
	case errors.Is(err, fs.ErrClosed):
		return EBADF
	default:
		return EIO
	}
}

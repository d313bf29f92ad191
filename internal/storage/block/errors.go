package block

import (
	"errors"
	"io/fs"
	"syscall"
)

// Backend errors are translated so callers see the same error whether blocks
// live in memory or on disk.
var (
	ErrOpFailed          = errors.New("operation failed")
	ErrNotFound          = errors.New("block not found")
	ErrPermission        = errors.New("permission denied")
	ErrResourceExhausted = errors.New("resource exhausted")
	ErrAlreadyExists     = errors.New("already exists")
	ErrIOError           = errors.New("I/O error")
	ErrInvalidArgument   = errors.New("invalid argument")
)

var (
	ErrInvalidBlockID    = errors.New("invalid block ID")
	ErrChecksumMismatch  = errors.New("block checksum mismatch")
	ErrCorruptedChecksum = errors.New("corrupted checksum record")
)

func handleFsError(err error) error {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return ErrNotFound
	case errors.Is(err, fs.ErrPermission), errors.Is(err, syscall.EACCES), errors.Is(err, syscall.EPERM):
		return ErrPermission
	case errors.Is(err, fs.ErrExist):
		return ErrAlreadyExists
	case errors.Is(err, syscall.ENOSPC):
		return ErrResourceExhausted
	case errors.Is(err, syscall.EIO):
		return ErrIOError
	case errors.Is(err, syscall.EINVAL), errors.Is(err, fs.ErrInvalid):
		return ErrInvalidArgument
	default:
		return ErrOpFailed
	}
}

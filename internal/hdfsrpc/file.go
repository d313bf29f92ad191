package hdfsrpc

import (
	"errors"
	"io"
	"math"
	"path"
	"syscall"

	"github.com/mochivi/dfs-facade/pkg/native"
)

// OpenFile opens a reader, or a writer that truncates an existing file and
// creates missing parents, or an appender. Zero replication and block size
// select the server defaults.
func (s *session) OpenFile(p *string, flags native.OpenFlags, bufferSize int, replication int16, blockSize int64) (native.File, error) {
	if p == nil {
		return nil, syscall.EINVAL
	}
	abs, errno := s.resolve(*p)
	if errno != 0 {
		return nil, errno
	}
	if replication < 0 || blockSize < 0 || bufferSize < 0 {
		return nil, syscall.EINVAL
	}
	if replication == 0 {
		replication = int16(s.defaults.Replication)
	}
	if blockSize == 0 {
		blockSize = s.defaults.BlockSize
	}

	switch flags {
	case native.OpenRead:
		r, err := s.client.Open(abs)
		if err != nil {
			return nil, errnoOf(err)
		}
		if r.Stat().IsDir() {
			r.Close()
			return nil, syscall.EISDIR
		}
		return &file{session: s, r: r}, nil

	case native.OpenWrite:
		if info, err := s.client.Stat(abs); err == nil {
			if info.IsDir() {
				return nil, syscall.EISDIR
			}
			if err := s.client.Remove(abs); err != nil {
				return nil, errnoOf(err)
			}
		} else if errno := errnoOf(err); errno != syscall.ENOENT {
			return nil, errno
		}
		if err := s.client.MkdirAll(path.Dir(abs), defaultDirPerm); err != nil {
			return nil, errnoOf(err)
		}
		w, err := s.client.Create(abs, int(replication), blockSize, 0644)
		if err != nil {
			return nil, errnoOf(err)
		}
		return &file{session: s, w: w}, nil

	case native.OpenAppend:
		info, err := s.client.Stat(abs)
		if err != nil {
			return nil, errnoOf(err)
		}
		if info.IsDir() {
			return nil, syscall.EISDIR
		}
		w, err := s.client.Append(abs)
		if err != nil {
			return nil, errnoOf(err)
		}
		return &file{session: s, w: w, pos: info.Size()}, nil

	default:
		return nil, syscall.EINVAL
	}
}

// file is an open stream, holding exactly one of r or w. It is not safe for
// concurrent use.
type file struct {
	session *session
	r       reader
	w       writer

	// pos tracks the writer offset; readers report it from Seek.
	pos    int64
	closed bool
}

var _ native.File = (*file)(nil)

func (f *file) begin() syscall.Errno {
	if f.closed {
		return syscall.EBADF
	}
	if f.session.begin() != 0 {
		return syscall.EBADF
	}
	return 0
}

func clamp(buf []byte) []byte {
	if len(buf) > math.MaxInt32 {
		return buf[:math.MaxInt32]
	}
	return buf
}

func (f *file) Read(buf []byte) (int32, error) {
	if errno := f.begin(); errno != 0 {
		return -1, errno
	}
	if f.r == nil {
		return -1, syscall.EBADF
	}
	n, err := f.r.Read(clamp(buf))
	if err != nil && !errors.Is(err, io.EOF) {
		return -1, errnoOf(err)
	}
	return int32(n), nil
}

func (f *file) Pread(position int64, buf []byte) (int32, error) {
	if errno := f.begin(); errno != 0 {
		return -1, errno
	}
	if f.r == nil {
		return -1, syscall.EBADF
	}
	if position < 0 {
		return -1, syscall.EINVAL
	}
	n, err := f.r.ReadAt(clamp(buf), position)
	if err != nil && !errors.Is(err, io.EOF) {
		return -1, errnoOf(err)
	}
	return int32(n), nil
}

func (f *file) Write(buf []byte) (int32, error) {
	if errno := f.begin(); errno != 0 {
		return -1, errno
	}
	if f.w == nil {
		return -1, syscall.EBADF
	}
	n, err := f.w.Write(clamp(buf))
	f.pos += int64(n)
	if err != nil {
		return -1, errnoOf(err)
	}
	return int32(n), nil
}

func (f *file) Flush() (int, error) {
	if errno := f.begin(); errno != 0 {
		return -1, errno
	}
	if f.w == nil {
		return 0, nil
	}
	if err := f.w.Flush(); err != nil {
		return failed(err)
	}
	return 0, nil
}

func (f *file) Seek(position int64) (int, error) {
	if errno := f.begin(); errno != 0 {
		return -1, errno
	}
	if f.r == nil {
		return -1, syscall.EBADF
	}
	if position < 0 || position > f.r.Stat().Size() {
		return -1, syscall.EINVAL
	}
	if _, err := f.r.Seek(position, io.SeekStart); err != nil {
		return failed(err)
	}
	return 0, nil
}

func (f *file) Tell() (int64, error) {
	if errno := f.begin(); errno != 0 {
		return -1, errno
	}
	if f.w != nil {
		return f.pos, nil
	}
	pos, err := f.r.Seek(0, io.SeekCurrent)
	if err != nil {
		return -1, errnoOf(err)
	}
	return pos, nil
}

func (f *file) Available() (int32, error) {
	if errno := f.begin(); errno != 0 {
		return -1, errno
	}
	if f.r == nil {
		return -1, syscall.EBADF
	}
	pos, err := f.r.Seek(0, io.SeekCurrent)
	if err != nil {
		return -1, errnoOf(err)
	}
	return int32(min(max(f.r.Stat().Size()-pos, 0), math.MaxInt32)), nil
}

// Close releases the stream even when the final flush fails.
func (f *file) Close() (int, error) {
	if f.closed {
		return -1, syscall.EBADF
	}
	f.closed = true

	var err error
	if f.w != nil {
		err = f.w.Close()
	} else {
		err = f.r.Close()
	}
	if err != nil {
		return failed(err)
	}
	return 0, nil
}

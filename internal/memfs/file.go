package memfs

import (
	"math"
	"path"
	"syscall"

	"github.com/mochivi/dfs-facade/pkg/native"
)

// OpenFile opens a read stream over a snapshot of the file, or a write stream
// that holds the file's lease and commits on Flush and Close. Write creates
// missing parents and truncates an existing file. Zero hints select the
// cluster defaults.
func (s *session) OpenFile(p *string, flags native.OpenFlags, bufferSize int, replication int16, blockSize int64) (native.File, error) {
	if errno := s.begin(OpOpenFile); errno != 0 {
		return nil, errno
	}
	if p == nil {
		return nil, syscall.EINVAL
	}
	abs, errno := s.resolve(*p)
	if errno != 0 {
		return nil, errno
	}
	if replication < 0 || blockSize < 0 {
		return nil, syscall.EINVAL
	}

	c := s.cluster
	c.mu.Lock()
	defer c.mu.Unlock()

	var f *file
	switch flags {
	case native.OpenRead:
		f, errno = s.openRead(abs)
	case native.OpenWrite:
		f, errno = s.openWrite(abs, replication, blockSize)
	case native.OpenAppend:
		f, errno = s.openAppend(abs)
	default:
		errno = syscall.EINVAL
	}
	if errno != 0 {
		return nil, errno
	}

	c.track(&f.resource)
	return f, nil
}

func (s *session) openRead(abs string) (*file, syscall.Errno) {
	c := s.cluster
	n, errno := c.lookup(abs)
	if errno != 0 {
		return nil, errno
	}
	if n.isDir() {
		return nil, syscall.EISDIR
	}
	if n.perm&0444 == 0 {
		return nil, syscall.EACCES
	}
	data, errno := c.readContent(n)
	if errno != 0 {
		return nil, errno
	}
	n.atime = c.now()
	return &file{session: s, node: n, path: abs, flags: native.OpenRead, data: data}, 0
}

func (s *session) openWrite(abs string, replication int16, blockSize int64) (*file, syscall.Errno) {
	c := s.cluster
	if replication == 0 {
		replication = c.cfg.Replication
	}
	if blockSize == 0 {
		blockSize = c.cfg.BlockSize
	}

	n, errno := c.lookup(abs)
	switch errno {
	case 0:
		if n.isDir() {
			return nil, syscall.EISDIR
		}
		if n.leased {
			return nil, syscall.EBUSY
		}
		if n.perm&0222 == 0 {
			return nil, syscall.EACCES
		}
		c.dropBlocks(n)
	case syscall.ENOENT:
		parent, errno := c.mkdirAll(path.Dir(abs), s.user)
		if errno != 0 {
			return nil, errno
		}
		n = c.newInode(path.Base(abs), native.KindFile, s.user, 0644)
		parent.children[n.name] = n
		parent.mtime = c.now()
	default:
		return nil, errno
	}

	n.replication = replication
	n.blockSize = blockSize
	n.mtime = c.now()
	n.leased = true
	return &file{session: s, node: n, path: abs, flags: native.OpenWrite, data: make([]byte, 0)}, 0
}

func (s *session) openAppend(abs string) (*file, syscall.Errno) {
	c := s.cluster
	n, errno := c.lookup(abs)
	if errno != 0 {
		return nil, errno
	}
	if n.isDir() {
		return nil, syscall.EISDIR
	}
	if n.leased {
		return nil, syscall.EBUSY
	}
	if n.perm&0222 == 0 {
		return nil, syscall.EACCES
	}
	data, errno := c.readContent(n)
	if errno != 0 {
		return nil, errno
	}
	n.leased = true
	return &file{session: s, node: n, path: abs, flags: native.OpenAppend, data: data, pos: int64(len(data))}, 0
}

// file is an open stream. It is not safe for concurrent use.
type file struct {
	resource
	session *session
	node    *inode
	path    string
	flags   native.OpenFlags

	// data is the read snapshot, or the full pending content of a writer.
	data   []byte
	pos    int64
	dirty  bool
	closed bool
}

var _ native.File = (*file)(nil)

func (f *file) writable() bool { return f.flags != native.OpenRead }

func (f *file) begin(op Op) syscall.Errno {
	if f.closed {
		return syscall.EBADF
	}
	if f.session.isClosed() {
		return syscall.EBADF
	}
	return f.session.cluster.fault(op)
}

func (f *file) Read(buf []byte) (int32, error) {
	if errno := f.begin(OpRead); errno != 0 {
		return -1, errno
	}
	if f.writable() {
		return -1, syscall.EBADF
	}
	if len(buf) > math.MaxInt32 {
		buf = buf[:math.MaxInt32]
	}
	if f.pos >= int64(len(f.data)) {
		return 0, nil
	}
	n := copy(buf, f.data[f.pos:])
	f.pos += int64(n)
	return int32(n), nil
}

func (f *file) Pread(position int64, buf []byte) (int32, error) {
	if errno := f.begin(OpPread); errno != 0 {
		return -1, errno
	}
	if f.writable() {
		return -1, syscall.EBADF
	}
	if position < 0 {
		return -1, syscall.EINVAL
	}
	if len(buf) > math.MaxInt32 {
		buf = buf[:math.MaxInt32]
	}
	if position >= int64(len(f.data)) {
		return 0, nil
	}
	return int32(copy(buf, f.data[position:])), nil
}

func (f *file) Write(buf []byte) (int32, error) {
	if errno := f.begin(OpWrite); errno != 0 {
		return -1, errno
	}
	if !f.writable() {
		return -1, syscall.EBADF
	}
	if len(buf) > math.MaxInt32 {
		buf = buf[:math.MaxInt32]
	}
	f.data = append(f.data, buf...)
	f.pos = int64(len(f.data))
	f.dirty = true
	return int32(len(buf)), nil
}

// commit writes the pending content of a writer through to the cluster.
func (f *file) commit() syscall.Errno {
	if !f.dirty {
		return 0
	}
	c := f.session.cluster
	c.mu.Lock()
	defer c.mu.Unlock()

	if f.node.removed {
		return syscall.ENOENT
	}
	if errno := c.writeContent(f.node, f.data); errno != 0 {
		return errno
	}
	f.dirty = false
	return 0
}

func (f *file) Flush() (int, error) {
	if errno := f.begin(OpFlush); errno != 0 {
		return failed(errno)
	}
	if !f.writable() {
		return 0, nil
	}
	if errno := f.commit(); errno != 0 {
		return failed(errno)
	}
	return 0, nil
}

func (f *file) Seek(position int64) (int, error) {
	if errno := f.begin(OpSeek); errno != 0 {
		return failed(errno)
	}
	if f.writable() {
		return failed(syscall.EBADF)
	}
	if position < 0 || position > int64(len(f.data)) {
		return failed(syscall.EINVAL)
	}
	f.pos = position
	return 0, nil
}

func (f *file) Tell() (int64, error) {
	if errno := f.begin(OpTell); errno != 0 {
		return -1, errno
	}
	return f.pos, nil
}

func (f *file) Available() (int32, error) {
	if errno := f.begin(OpAvailable); errno != 0 {
		return -1, errno
	}
	if f.writable() {
		return -1, syscall.EBADF
	}
	return int32(min(int64(len(f.data))-f.pos, math.MaxInt32)), nil
}

// Close commits a writer and releases the stream and its lease regardless of
// whether the commit succeeded.
func (f *file) Close() (int, error) {
	if f.closed {
		return failed(syscall.EBADF)
	}
	errno := f.session.cluster.fault(OpClose)
	if errno == 0 && f.session.isClosed() {
		errno = syscall.EBADF
	}
	if errno == 0 && f.writable() {
		errno = f.commit()
	}

	f.closed = true
	f.release()
	if f.writable() {
		c := f.session.cluster
		c.mu.Lock()
		f.node.leased = false
		c.mu.Unlock()
	}
	if errno != 0 {
		return failed(errno)
	}
	return 0, nil
}

package memfs

import (
	"log/slog"
	"syscall"

	"github.com/mochivi/dfs-facade/pkg/native"
)

// snapshot is a detached copy of one file, taken under the source cluster's
// lock and written under the destination's, so two clusters are never
// locked at once.
type snapshot struct {
	data        []byte
	owner       string
	group       string
	perm        int16
	atime       int64
	mtime       int64
	replication int16
	blockSize   int64
}

func (s *session) peer(dst native.Session) (*session, syscall.Errno) {
	d, ok := dst.(*session)
	if !ok || d == nil {
		return nil, syscall.ENOTSUP
	}
	if d.isClosed() {
		return nil, syscall.ENOTCONN
	}
	return d, 0
}

func (s *session) snapshot(abs string) (snapshot, syscall.Errno) {
	c := s.cluster
	c.mu.RLock()
	defer c.mu.RUnlock()

	n, errno := c.lookup(abs)
	if errno != 0 {
		return snapshot{}, errno
	}
	if n.isDir() {
		return snapshot{}, syscall.EISDIR
	}
	data, errno := c.readContent(n)
	if errno != 0 {
		return snapshot{}, errno
	}
	return snapshot{
		data:        data,
		owner:       n.owner,
		group:       n.group,
		perm:        n.perm,
		atime:       n.atime,
		mtime:       n.mtime,
		replication: n.replication,
		blockSize:   n.blockSize,
	}, 0
}

// materialize creates dstAbs on this session's cluster from snap. A copy is
// owned by the session user; a move keeps the original owner and
// timestamps.
func (s *session) materialize(dstAbs string, snap snapshot, preserve bool) syscall.Errno {
	c := s.cluster
	c.mu.Lock()
	defer c.mu.Unlock()

	parent, name, errno := c.lookupParent(dstAbs)
	if errno != 0 {
		return errno
	}
	if _, exists := parent.children[name]; exists {
		return syscall.EEXIST
	}

	n := c.newInode(name, native.KindFile, s.user, snap.perm)
	n.replication = snap.replication
	n.blockSize = snap.blockSize
	if errno := c.writeContent(n, snap.data); errno != 0 {
		return errno
	}
	if preserve {
		n.owner = snap.owner
		n.group = snap.group
		n.atime = snap.atime
		n.mtime = snap.mtime
	}
	parent.children[name] = n
	parent.mtime = c.now()
	return 0
}

func (s *session) Copy(src string, dst native.Session, dstPath string) (int, error) {
	if errno := s.begin(OpCopy); errno != 0 {
		return failed(errno)
	}
	if errno := s.copy(src, dst, dstPath, false); errno != 0 {
		return failed(errno)
	}
	return 0, nil
}

func (s *session) copy(src string, dst native.Session, dstPath string, preserve bool) syscall.Errno {
	d, errno := s.peer(dst)
	if errno != 0 {
		return errno
	}
	srcAbs, errno := s.resolve(src)
	if errno != 0 {
		return errno
	}
	dstAbs, errno := d.resolve(dstPath)
	if errno != 0 {
		return errno
	}
	if d.cluster == s.cluster && srcAbs == dstAbs {
		return syscall.EEXIST
	}

	snap, errno := s.snapshot(srcAbs)
	if errno != 0 {
		return errno
	}
	return d.materialize(dstAbs, snap, preserve)
}

// Move renames within a cluster. Across clusters it copies, then deletes the
// source; if the delete fails the copy is removed again and the source is
// left untouched.
func (s *session) Move(src string, dst native.Session, dstPath string) (int, error) {
	if errno := s.begin(OpMove); errno != 0 {
		return failed(errno)
	}
	d, errno := s.peer(dst)
	if errno != 0 {
		return failed(errno)
	}

	if d.cluster == s.cluster {
		dstAbs, errno := d.resolve(dstPath)
		if errno != 0 {
			return failed(errno)
		}
		if errno := s.rename(src, dstAbs); errno != 0 {
			return failed(errno)
		}
		return 0, nil
	}

	if errno := s.copy(src, d, dstPath, true); errno != 0 {
		return failed(errno)
	}

	srcAbs, _ := s.resolve(src)
	dstAbs, _ := d.resolve(dstPath)
	errno = s.cluster.fault(OpDelete)
	if errno == 0 {
		s.cluster.mu.Lock()
		errno = s.cluster.unlink(srcAbs, false)
		s.cluster.mu.Unlock()
	}
	if errno != 0 {
		d.cluster.mu.Lock()
		rollback := d.cluster.unlink(dstAbs, false)
		d.cluster.mu.Unlock()
		if rollback != 0 {
			d.cluster.logger.Error("failed to roll back moved file",
				slog.String("path", dstAbs), slog.String("error", rollback.Error()))
		}
		return failed(errno)
	}
	return 0, nil
}

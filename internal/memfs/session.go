package memfs

import (
	"log/slog"
	"strings"
	"sync"
	"syscall"

	"github.com/mochivi/dfs-facade/pkg/native"
)

type session struct {
	cluster *Cluster
	user    string

	mu     sync.Mutex
	cwd    string
	closed bool
}

var _ native.Session = (*session)(nil)

func failed(errno syscall.Errno) (int, error) {
	return -1, errno
}

// begin checks the session is open and consumes any injected fault for op.
func (s *session) begin(op Op) syscall.Errno {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return syscall.ENOTCONN
	}
	return s.cluster.fault(op)
}

func (s *session) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *session) resolve(p string) (string, syscall.Errno) {
	s.mu.Lock()
	cwd := s.cwd
	s.mu.Unlock()
	return resolve(cwd, p)
}

func (s *session) Disconnect() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return failed(syscall.EBADF)
	}
	if errno := s.cluster.fault(OpDisconnect); errno != 0 {
		return failed(errno)
	}
	s.closed = true
	s.cluster.logger.Debug("session closed", slog.String("user", s.user))
	return 0, nil
}

func (s *session) Exists(p string) (int, error) {
	if errno := s.begin(OpExists); errno != 0 {
		return failed(errno)
	}
	abs, errno := s.resolve(p)
	if errno != 0 {
		return failed(errno)
	}

	s.cluster.mu.RLock()
	defer s.cluster.mu.RUnlock()
	if _, errno := s.cluster.lookup(abs); errno != 0 {
		return failed(errno)
	}
	return 0, nil
}

func (s *session) Delete(p string, recursive bool) (int, error) {
	if errno := s.begin(OpDelete); errno != 0 {
		return failed(errno)
	}
	abs, errno := s.resolve(p)
	if errno != 0 {
		return failed(errno)
	}

	s.cluster.mu.Lock()
	defer s.cluster.mu.Unlock()
	if errno := s.cluster.unlink(abs, recursive); errno != 0 {
		return failed(errno)
	}
	return 0, nil
}

func (s *session) Rename(oldPath, newPath string) (int, error) {
	if errno := s.begin(OpRename); errno != 0 {
		return failed(errno)
	}
	if errno := s.rename(oldPath, newPath); errno != 0 {
		return failed(errno)
	}
	return 0, nil
}

func (s *session) rename(oldPath, newPath string) syscall.Errno {
	src, errno := s.resolve(oldPath)
	if errno != 0 {
		return errno
	}
	dst, errno := s.resolve(newPath)
	if errno != 0 {
		return errno
	}

	c := s.cluster
	c.mu.Lock()
	defer c.mu.Unlock()

	srcParent, srcName, errno := c.lookupParent(src)
	if errno != 0 {
		return errno
	}
	n, ok := srcParent.children[srcName]
	if !ok {
		return syscall.ENOENT
	}
	if src == dst {
		return 0
	}
	if strings.HasPrefix(dst, src+"/") {
		return syscall.EINVAL
	}

	dstParent, dstName, errno := c.lookupParent(dst)
	if errno != 0 {
		return errno
	}
	if _, exists := dstParent.children[dstName]; exists {
		return syscall.EEXIST
	}

	delete(srcParent.children, srcName)
	n.name = dstName
	dstParent.children[dstName] = n

	now := c.now()
	srcParent.mtime = now
	dstParent.mtime = now
	return 0
}

func (s *session) GetWorkingDirectory(buf []byte) ([]byte, error) {
	if errno := s.begin(OpGetWorkingDirectory); errno != 0 {
		return nil, errno
	}

	s.mu.Lock()
	cwd := s.cwd
	s.mu.Unlock()

	// room for the terminating NUL a C caller would need
	if len(cwd)+1 > len(buf) {
		return nil, syscall.ERANGE
	}
	n := copy(buf, cwd)
	return buf[:n], nil
}

func (s *session) SetWorkingDirectory(p string) (int, error) {
	if errno := s.begin(OpSetWorkingDirectory); errno != 0 {
		return failed(errno)
	}
	abs, errno := s.resolve(p)
	if errno != 0 {
		return failed(errno)
	}

	s.cluster.mu.RLock()
	n, errno := s.cluster.lookup(abs)
	s.cluster.mu.RUnlock()
	if errno != 0 {
		return failed(errno)
	}
	if !n.isDir() {
		return failed(syscall.ENOTDIR)
	}

	s.mu.Lock()
	s.cwd = abs
	s.mu.Unlock()
	return 0, nil
}

func (s *session) CreateDirectory(p string) (int, error) {
	if errno := s.begin(OpCreateDirectory); errno != 0 {
		return failed(errno)
	}
	abs, errno := s.resolve(p)
	if errno != 0 {
		return failed(errno)
	}

	s.cluster.mu.Lock()
	defer s.cluster.mu.Unlock()
	if _, errno := s.cluster.mkdirAll(abs, s.user); errno != 0 {
		return failed(errno)
	}
	return 0, nil
}

// SetReplication changes a file's replication factor and re-places its
// replicas. Directories are rejected with EISDIR.
func (s *session) SetReplication(p string, replication int16) (int, error) {
	if errno := s.begin(OpSetReplication); errno != 0 {
		return failed(errno)
	}
	if replication < 1 {
		return failed(syscall.EINVAL)
	}
	abs, errno := s.resolve(p)
	if errno != 0 {
		return failed(errno)
	}

	c := s.cluster
	c.mu.Lock()
	defer c.mu.Unlock()

	n, errno := c.lookup(abs)
	if errno != 0 {
		return failed(errno)
	}
	if n.isDir() {
		return failed(syscall.EISDIR)
	}
	n.replication = replication
	c.replicate(n)
	return 0, nil
}

// ListDirectory lists a directory's children by name. Listing a file yields
// the file itself.
func (s *session) ListDirectory(p string) (native.FileInfoList, error) {
	if errno := s.begin(OpListDirectory); errno != 0 {
		return nil, errno
	}
	abs, errno := s.resolve(p)
	if errno != 0 {
		return nil, errno
	}

	c := s.cluster
	c.mu.RLock()
	defer c.mu.RUnlock()

	n, errno := c.lookup(abs)
	if errno != 0 {
		return nil, errno
	}

	entries := make([]native.FileInfo, 0)
	if n.isDir() {
		for _, child := range n.sortedChildren() {
			entries = append(entries, child.info(childPath(abs, child.name)))
		}
	} else {
		entries = append(entries, n.info(abs))
	}

	list := &fileInfoList{entries: entries}
	c.track(&list.resource)
	return list, nil
}

func childPath(dir, name string) string {
	if dir == "/" {
		return "/" + name
	}
	return dir + "/" + name
}

func (s *session) GetPathInfo(p string) (*native.FileInfo, error) {
	if errno := s.begin(OpGetPathInfo); errno != 0 {
		return nil, errno
	}
	abs, errno := s.resolve(p)
	if errno != 0 {
		return nil, errno
	}

	s.cluster.mu.RLock()
	defer s.cluster.mu.RUnlock()

	n, errno := s.cluster.lookup(abs)
	if errno != 0 {
		return nil, errno
	}
	info := n.info(abs)
	return &info, nil
}

// GetHosts returns the replica hosts of each block overlapping
// [start, start+length). Ranges past the end of the file yield no blocks.
func (s *session) GetHosts(p string, start, length int64) (native.BlockHosts, error) {
	if errno := s.begin(OpGetHosts); errno != 0 {
		return nil, errno
	}
	if start < 0 || length < 0 {
		return nil, syscall.EINVAL
	}
	abs, errno := s.resolve(p)
	if errno != 0 {
		return nil, errno
	}

	c := s.cluster
	c.mu.RLock()
	defer c.mu.RUnlock()

	n, errno := c.lookup(abs)
	if errno != 0 {
		return nil, errno
	}
	if n.isDir() {
		return nil, syscall.EISDIR
	}

	blocks := make([][]string, 0)
	for _, b := range n.blocks {
		// start+length may overflow; compare the distance instead
		if length == 0 || b.offset-start >= length {
			break
		}
		if b.offset+b.size <= start {
			continue
		}
		hosts := make([]string, 0, len(b.nodes))
		for _, node := range b.nodes {
			hosts = append(hosts, node.host)
		}
		blocks = append(blocks, hosts)
	}

	hosts := &blockHosts{blocks: blocks}
	c.track(&hosts.resource)
	return hosts, nil
}

func (s *session) GetDefaultBlockSize() (int64, error) {
	if errno := s.begin(OpGetDefaultBlockSize); errno != 0 {
		return -1, errno
	}
	return s.cluster.cfg.BlockSize, nil
}

func (s *session) GetCapacity() (int64, error) {
	if errno := s.begin(OpGetCapacity); errno != 0 {
		return -1, errno
	}
	return s.cluster.capacity(), nil
}

func (s *session) GetUsed() (int64, error) {
	if errno := s.begin(OpGetUsed); errno != 0 {
		return -1, errno
	}
	return s.cluster.used(), nil
}

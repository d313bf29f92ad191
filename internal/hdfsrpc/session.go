package hdfsrpc

import (
	"log/slog"
	"net/url"
	"os"
	"path"
	"sync"
	"sync/atomic"
	"syscall"

	"github.com/colinmarc/hdfs/v2"
	"github.com/mochivi/dfs-facade/pkg/native"
)

const defaultDirPerm os.FileMode = 0755

type session struct {
	client   namenode
	web      *webHDFS
	endpoint string
	user     string
	defaults serverDefaults
	logger   *slog.Logger

	mu     sync.Mutex
	cwd    string
	closed bool
}

var _ native.Session = (*session)(nil)

func (s *session) begin() syscall.Errno {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return syscall.ENOTCONN
	}
	return 0
}

// resolve strips any hdfs://host:port prefix and anchors relative paths at
// the working directory.
func (s *session) resolve(p string) (string, syscall.Errno) {
	if errno := s.begin(); errno != 0 {
		return "", errno
	}
	if p == "" {
		return "", syscall.EINVAL
	}
	u, err := url.Parse(p)
	if err != nil {
		return "", syscall.EINVAL
	}
	if u.Scheme != "" || u.Host != "" {
		p = u.Path
		if p == "" {
			p = "/"
		}
	}
	if path.IsAbs(p) {
		return path.Clean(p), 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return path.Join(s.cwd, p), 0
}

func (s *session) Disconnect() (int, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return -1, syscall.EBADF
	}
	s.closed = true
	s.mu.Unlock()

	if err := s.client.Close(); err != nil {
		return failed(err)
	}
	s.logger.Info("disconnected")
	return 0, nil
}

func (s *session) Exists(p string) (int, error) {
	abs, errno := s.resolve(p)
	if errno != 0 {
		return -1, errno
	}
	if _, err := s.client.Stat(abs); err != nil {
		return failed(err)
	}
	return 0, nil
}

func (s *session) Delete(p string, recursive bool) (int, error) {
	abs, errno := s.resolve(p)
	if errno != 0 {
		return -1, errno
	}
	if abs == "/" {
		return -1, syscall.EACCES
	}

	if !recursive {
		if err := s.client.Remove(abs); err != nil {
			return failed(err)
		}
		return 0, nil
	}

	// RemoveAll succeeds on a missing path.
	if _, err := s.client.Stat(abs); err != nil {
		return failed(err)
	}
	if err := s.client.RemoveAll(abs); err != nil {
		return failed(err)
	}
	return 0, nil
}

func (s *session) Rename(oldPath, newPath string) (int, error) {
	src, errno := s.resolve(oldPath)
	if errno != 0 {
		return -1, errno
	}
	dst, errno := s.resolve(newPath)
	if errno != 0 {
		return -1, errno
	}
	if errno := s.rename(src, dst); errno != 0 {
		return -1, errno
	}
	return 0, nil
}

// rename refuses to replace an existing destination; the RPC rename
// overwrites.
func (s *session) rename(src, dst string) syscall.Errno {
	if _, err := s.client.Stat(src); err != nil {
		return errnoOf(err)
	}
	if _, err := s.client.Stat(dst); err == nil {
		return syscall.EEXIST
	} else if errno := errnoOf(err); errno != syscall.ENOENT {
		return errno
	}
	if err := s.client.Rename(src, dst); err != nil {
		return errnoOf(err)
	}
	return 0
}

func (s *session) GetWorkingDirectory(buf []byte) ([]byte, error) {
	if errno := s.begin(); errno != 0 {
		return nil, errno
	}
	s.mu.Lock()
	cwd := s.cwd
	s.mu.Unlock()

	if len(cwd) >= len(buf) {
		return nil, syscall.ERANGE
	}
	n := copy(buf, cwd)
	return buf[:n], nil
}

func (s *session) SetWorkingDirectory(p string) (int, error) {
	abs, errno := s.resolve(p)
	if errno != 0 {
		return -1, errno
	}
	info, err := s.client.Stat(abs)
	if err != nil {
		return failed(err)
	}
	if !info.IsDir() {
		return -1, syscall.ENOTDIR
	}

	s.mu.Lock()
	s.cwd = abs
	s.mu.Unlock()
	return 0, nil
}

func (s *session) CreateDirectory(p string) (int, error) {
	abs, errno := s.resolve(p)
	if errno != 0 {
		return -1, errno
	}
	if err := s.client.MkdirAll(abs, defaultDirPerm); err != nil {
		return failed(err)
	}
	return 0, nil
}

func (s *session) SetReplication(p string, replication int16) (int, error) {
	abs, errno := s.resolve(p)
	if errno != 0 {
		return -1, errno
	}
	if replication <= 0 {
		return -1, syscall.EINVAL
	}
	if s.web == nil {
		return -1, syscall.ENOSYS
	}
	info, err := s.client.Stat(abs)
	if err != nil {
		return failed(err)
	}
	if info.IsDir() {
		return -1, syscall.EISDIR
	}
	if err := s.web.setReplication(abs, replication); err != nil {
		return failed(err)
	}
	return 0, nil
}

// ListDirectory lists a directory's children by absolute name. Listing a
// file yields the file itself.
func (s *session) ListDirectory(p string) (native.FileInfoList, error) {
	abs, errno := s.resolve(p)
	if errno != 0 {
		return nil, errno
	}
	info, err := s.client.Stat(abs)
	if err != nil {
		return nil, errnoOf(err)
	}
	if !info.IsDir() {
		return &fileInfoList{entries: []native.FileInfo{toFileInfo(abs, info)}}, nil
	}

	children, err := s.client.ReadDir(abs)
	if err != nil {
		return nil, errnoOf(err)
	}
	entries := make([]native.FileInfo, 0, len(children))
	for _, child := range children {
		entries = append(entries, toFileInfo(path.Join(abs, child.Name()), child))
	}
	return &fileInfoList{entries: entries}, nil
}

func (s *session) GetPathInfo(p string) (*native.FileInfo, error) {
	abs, errno := s.resolve(p)
	if errno != 0 {
		return nil, errno
	}
	info, err := s.client.Stat(abs)
	if err != nil {
		return nil, errnoOf(err)
	}
	fi := toFileInfo(abs, info)
	return &fi, nil
}

// GetHosts asks WebHDFS for the hosts of each block overlapping
// [start, start+length). An empty range, or one starting at or past EOF, has
// no blocks; the NameNode would still report the block holding start.
func (s *session) GetHosts(p string, start, length int64) (native.BlockHosts, error) {
	if errno := s.begin(); errno != 0 {
		return nil, errno
	}
	if start < 0 || length < 0 {
		return nil, syscall.EINVAL
	}
	abs, errno := s.resolve(p)
	if errno != 0 {
		return nil, errno
	}
	if s.web == nil {
		return nil, syscall.ENOSYS
	}

	info, err := s.client.Stat(abs)
	if err != nil {
		return nil, errnoOf(err)
	}
	if info.IsDir() {
		return nil, syscall.EISDIR
	}
	if length == 0 || start >= info.Size() {
		return &blockHosts{blocks: [][]string{}}, nil
	}

	blocks, err := s.web.blockLocations(abs, start, length)
	if err != nil {
		return nil, errnoOf(err)
	}
	return &blockHosts{blocks: blocks}, nil
}

func (s *session) GetDefaultBlockSize() (int64, error) {
	if errno := s.begin(); errno != 0 {
		return -1, errno
	}
	return s.defaults.BlockSize, nil
}

func (s *session) GetCapacity() (int64, error) {
	if errno := s.begin(); errno != 0 {
		return -1, errno
	}
	u, err := s.client.Usage()
	if err != nil {
		return -1, errnoOf(err)
	}
	return int64(u.Capacity), nil
}

func (s *session) GetUsed() (int64, error) {
	if errno := s.begin(); errno != 0 {
		return -1, errno
	}
	u, err := s.client.Usage()
	if err != nil {
		return -1, errnoOf(err)
	}
	return int64(u.Used), nil
}

// toFileInfo converts a client file status. Owner, group, replication, block
// size and access time come from the HDFS status when the client provides
// one.
func toFileInfo(name string, info os.FileInfo) native.FileInfo {
	fi := native.FileInfo{
		Kind:        native.KindFile,
		Name:        name,
		Size:        info.Size(),
		Permissions: int16(info.Mode().Perm()),
		LastMod:     info.ModTime().Unix(),
		LastAccess:  info.ModTime().Unix(),
	}
	if info.IsDir() {
		fi.Kind = native.KindDirectory
		fi.Size = 0
	}
	if owned, ok := info.(interface {
		Owner() string
		OwnerGroup() string
	}); ok {
		fi.Owner = owned.Owner()
		fi.Group = owned.OwnerGroup()
	}
	if status, ok := info.Sys().(*hdfs.FileStatus); ok && status != nil {
		fi.Replication = int16(status.GetBlockReplication())
		fi.BlockSize = int64(status.GetBlocksize())
		fi.LastAccess = int64(status.GetAccessTime() / 1000)
	}
	return fi
}

type fileInfoList struct {
	entries []native.FileInfo
	freed   atomic.Bool
}

func (l *fileInfoList) Entries() []native.FileInfo { return l.entries }
func (l *fileInfoList) Len() int                   { return len(l.entries) }
func (l *fileInfoList) Free() {
	if l.freed.Swap(true) {
		return
	}
	l.entries = nil
}

type blockHosts struct {
	blocks [][]string
	freed  atomic.Bool
}

func (h *blockHosts) Blocks() [][]string { return h.blocks }
func (h *blockHosts) Free() {
	if h.freed.Swap(true) {
		return
	}
	h.blocks = nil
}

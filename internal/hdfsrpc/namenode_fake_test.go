package hdfsrpc

import (
	"os"
	"sync"
	"time"

	"github.com/spf13/afero"
)

// fakeNamenode serves the namenode surface from an in-memory afero tree.
type fakeNamenode struct {
	fs afero.Fs

	mu         sync.Mutex
	owners     map[string][2]string
	failRemove map[string]error
	closed     bool
}

var _ namenode = (*fakeNamenode)(nil)

func newFakeNamenode() *fakeNamenode {
	return &fakeNamenode{
		fs:         afero.NewMemMapFs(),
		owners:     make(map[string][2]string),
		failRemove: make(map[string]error),
	}
}

func (n *fakeNamenode) Stat(name string) (os.FileInfo, error) { return n.fs.Stat(name) }

func (n *fakeNamenode) ReadDir(dirname string) ([]os.FileInfo, error) {
	return afero.ReadDir(n.fs, dirname)
}

func (n *fakeNamenode) Remove(name string) error {
	n.mu.Lock()
	err := n.failRemove[name]
	n.mu.Unlock()
	if err != nil {
		return err
	}
	return n.fs.Remove(name)
}

func (n *fakeNamenode) RemoveAll(name string) error { return n.fs.RemoveAll(name) }
func (n *fakeNamenode) Rename(oldpath, newpath string) error {
	return n.fs.Rename(oldpath, newpath)
}
func (n *fakeNamenode) MkdirAll(dirname string, perm os.FileMode) error {
	return n.fs.MkdirAll(dirname, perm)
}
func (n *fakeNamenode) Chtimes(name string, atime, mtime time.Time) error {
	return n.fs.Chtimes(name, atime, mtime)
}

func (n *fakeNamenode) Chown(name, user, group string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.owners[name] = [2]string{user, group}
	return nil
}

func (n *fakeNamenode) Open(name string) (reader, error) {
	f, err := n.fs.Open(name)
	if err != nil {
		return nil, err
	}
	return aferoReader{File: f}, nil
}

func (n *fakeNamenode) Create(name string, replication int, blockSize int64, perm os.FileMode) (writer, error) {
	f, err := n.fs.OpenFile(name, os.O_CREATE|os.O_EXCL|os.O_WRONLY, perm)
	if err != nil {
		return nil, err
	}
	return aferoWriter{File: f}, nil
}

func (n *fakeNamenode) Append(name string) (writer, error) {
	f, err := n.fs.OpenFile(name, os.O_APPEND|os.O_WRONLY, 0)
	if err != nil {
		return nil, err
	}
	return aferoWriter{File: f}, nil
}

func (n *fakeNamenode) Defaults() (serverDefaults, error) {
	return serverDefaults{BlockSize: 1024, Replication: 3, FileBufferSize: 4096}, nil
}

func (n *fakeNamenode) Usage() (usage, error) {
	return usage{Capacity: 1 << 30, Used: 1 << 20}, nil
}

func (n *fakeNamenode) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.closed = true
	return nil
}

type aferoReader struct {
	afero.File
}

func (r aferoReader) Stat() os.FileInfo {
	info, _ := r.File.Stat()
	return info
}

type aferoWriter struct {
	afero.File
}

func (w aferoWriter) Flush() error { return w.File.Sync() }

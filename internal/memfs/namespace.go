package memfs

import (
	"net/url"
	"path"
	"slices"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/mochivi/dfs-facade/pkg/native"
)

type blockInfo struct {
	id     string
	offset int64
	size   int64
	nodes  []*dataNode
}

// inode is one namespace object. All fields are guarded by the cluster lock.
type inode struct {
	id    string
	kind  native.ObjectKind
	name  string
	owner string
	group string
	perm  int16
	atime int64
	mtime int64

	children map[string]*inode

	size        int64
	replication int16
	blockSize   int64
	blocks      []*blockInfo

	// leased is set while a writer holds the file open.
	leased  bool
	removed bool
}

func (c *Cluster) newInode(name string, kind native.ObjectKind, owner string, perm int16) *inode {
	now := c.now()
	n := &inode{
		id:    uuid.NewString(),
		kind:  kind,
		name:  name,
		owner: owner,
		group: c.cfg.DefaultGroup,
		perm:  perm,
		atime: now,
		mtime: now,
	}
	if kind == native.KindDirectory {
		n.children = make(map[string]*inode)
	}
	return n
}

func (n *inode) isDir() bool { return n.kind == native.KindDirectory }

func (n *inode) info(abs string) native.FileInfo {
	info := native.FileInfo{
		Kind:        n.kind,
		Name:        abs,
		Owner:       n.owner,
		Group:       n.group,
		Permissions: n.perm,
		LastAccess:  n.atime,
		LastMod:     n.mtime,
	}
	if !n.isDir() {
		info.Size = n.size
		info.Replication = n.replication
		info.BlockSize = n.blockSize
	}
	return info
}

// sortedChildren returns the children of a directory ordered by name.
func (n *inode) sortedChildren() []*inode {
	names := make([]string, 0, len(n.children))
	for name := range n.children {
		names = append(names, name)
	}
	slices.Sort(names)

	children := make([]*inode, 0, len(names))
	for _, name := range names {
		children = append(children, n.children[name])
	}
	return children
}

// resolve turns p into a clean absolute path, resolving relative paths against
// cwd. Fully qualified hdfs:// URIs are reduced to their path.
func resolve(cwd, p string) (string, syscall.Errno) {
	if p == "" {
		return "", syscall.EINVAL
	}
	if strings.Contains(p, "://") {
		u, err := url.Parse(p)
		if err != nil || u.Path == "" {
			return "", syscall.EINVAL
		}
		p = u.Path
	}
	if !path.IsAbs(p) {
		p = path.Join(cwd, p)
	}
	return path.Clean(p), 0
}

func split(abs string) []string {
	if abs == "/" {
		return nil
	}
	return strings.Split(strings.TrimPrefix(abs, "/"), "/")
}

// lookup must be called with c.mu held.
func (c *Cluster) lookup(abs string) (*inode, syscall.Errno) {
	n := c.root
	for _, name := range split(abs) {
		if !n.isDir() {
			return nil, syscall.ENOTDIR
		}
		child, ok := n.children[name]
		if !ok {
			return nil, syscall.ENOENT
		}
		n = child
	}
	return n, 0
}

// lookupParent returns the directory that holds abs and abs's base name.
func (c *Cluster) lookupParent(abs string) (*inode, string, syscall.Errno) {
	if abs == "/" {
		return nil, "", syscall.EINVAL
	}
	parent, errno := c.lookup(path.Dir(abs))
	if errno != 0 {
		return nil, "", errno
	}
	if !parent.isDir() {
		return nil, "", syscall.ENOTDIR
	}
	return parent, path.Base(abs), 0
}

// mkdirAll creates abs and its missing parents. It must be called with c.mu
// held for writing.
func (c *Cluster) mkdirAll(abs, owner string) (*inode, syscall.Errno) {
	n := c.root
	for _, name := range split(abs) {
		if !n.isDir() {
			return nil, syscall.ENOTDIR
		}
		child, ok := n.children[name]
		if !ok {
			child = c.newInode(name, native.KindDirectory, owner, 0755)
			n.children[name] = child
			n.mtime = c.now()
		}
		n = child
	}
	if !n.isDir() {
		return nil, syscall.EEXIST
	}
	return n, 0
}

// unlink detaches abs from the namespace and releases the blocks of every
// file below it. It must be called with c.mu held for writing.
func (c *Cluster) unlink(abs string, recursive bool) syscall.Errno {
	parent, name, errno := c.lookupParent(abs)
	if errno != 0 {
		if errno == syscall.EINVAL {
			return syscall.EACCES
		}
		return errno
	}
	n, ok := parent.children[name]
	if !ok {
		return syscall.ENOENT
	}
	if n.isDir() && len(n.children) > 0 && !recursive {
		return syscall.ENOTEMPTY
	}

	c.release(n)
	delete(parent.children, name)
	parent.mtime = c.now()
	return 0
}

func (c *Cluster) release(n *inode) {
	n.removed = true
	if n.isDir() {
		for _, child := range n.children {
			c.release(child)
		}
		return
	}
	c.dropBlocks(n)
}

package dfs

import "github.com/mochivi/dfs-facade/pkg/native"

// listing performs the bulk native stat shared by ListDirectory and
// GetPathInfo. The native buffer is released before returning, on every path.
func (c *Connection) listing(oc opContext) ([]DirectoryEntry, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if err := c.live(oc); err != nil {
		return nil, err
	}

	res, errno := c.session.ListDirectory(oc.path)
	list, err := trapNil(c, res, errno, oc)
	if err != nil {
		return nil, err
	}
	defer list.Free()

	infos := list.Entries()
	entries := make([]DirectoryEntry, 0, len(infos))
	for i := range infos {
		entries = append(entries, decodeEntry(&infos[i]))
	}
	return entries, nil
}

// ListDirectory returns the entries of path in native listing order. An empty
// directory yields an empty, non-nil slice.
func (c *Connection) ListDirectory(path string) ([]DirectoryEntry, error) {
	return c.listing(opContext{kind: KindList, op: "list_directory", path: path})
}

// GetPathInfo returns the first entry of the native listing of path. For a
// file that is the file itself; for a directory it is its first child. A
// listing that succeeds with no entries is a StatError wrapping ErrNoEntries.
func (c *Connection) GetPathInfo(path string) (DirectoryEntry, error) {
	oc := opContext{kind: KindStat, op: "get_path_info", path: path}
	entries, err := c.listing(oc)
	if err != nil {
		return DirectoryEntry{}, err
	}
	if len(entries) == 0 {
		return DirectoryEntry{}, c.fail(oc, ErrNoEntries)
	}
	return entries[0], nil
}

// Stat describes path itself through the native single-path stat.
func (c *Connection) Stat(path string) (DirectoryEntry, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	oc := opContext{kind: KindStat, op: "stat", path: path}
	if err := c.live(oc); err != nil {
		return DirectoryEntry{}, err
	}

	res, errno := c.session.GetPathInfo(path)
	info, err := trapNil[*native.FileInfo](c, res, errno, oc)
	if err != nil {
		return DirectoryEntry{}, err
	}
	return decodeEntry(info), nil
}

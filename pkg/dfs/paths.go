package dfs

import (
	"errors"

	"github.com/mochivi/dfs-facade/pkg/native"
)

const (
	initialWorkingDirBuffer = 1024
	maxWorkingDirBuffer     = 64 * 1024
)

// Exists reports whether path exists. A failed lookup, including one on a
// disconnected connection, is reported as false rather than an error.
func (c *Connection) Exists(path string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return false
	}
	res, _ := c.session.Exists(path)
	return res == 0
}

// Delete removes a file or an empty directory.
func (c *Connection) Delete(path string) error {
	return c.delete(path, false)
}

// DeleteAll removes path and, for a directory, everything below it.
func (c *Connection) DeleteAll(path string) error {
	return c.delete(path, true)
}

func (c *Connection) delete(path string, recursive bool) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	oc := opContext{kind: KindDelete, op: "delete", path: path}
	if err := c.live(oc); err != nil {
		return err
	}
	res, errno := c.session.Delete(path, recursive)
	_, err := trapInt(c, res, errno, oc)
	return err
}

// Rename moves oldPath to newPath within this connection's filesystem.
func (c *Connection) Rename(oldPath, newPath string) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	oc := opContext{kind: KindRename, op: "rename", path: oldPath, newPath: newPath}
	if err := c.live(oc); err != nil {
		return err
	}
	res, errno := c.session.Rename(oldPath, newPath)
	_, err := trapInt(c, res, errno, oc)
	return err
}

// Copy copies the file at path to dstPath on dst. dst may be c itself.
func (c *Connection) Copy(path string, dst *Connection, dstPath string) error {
	oc := opContext{kind: KindCopy, op: "copy", path: path, newPath: dstPath}
	return c.transfer(oc, dst, native.Session.Copy)
}

// Move moves the file at path to dstPath on dst. Either the source is gone and
// the destination present, or the source is untouched and an error returned.
func (c *Connection) Move(path string, dst *Connection, dstPath string) error {
	oc := opContext{kind: KindMove, op: "move", path: path, newPath: dstPath}
	return c.transfer(oc, dst, native.Session.Move)
}

type transferFunc func(src native.Session, path string, dst native.Session, dstPath string) (int, error)

func (c *Connection) transfer(oc opContext, dst *Connection, call transferFunc) error {
	if dst == nil {
		return newError(c.endpoint, oc, ErrNilConnection)
	}
	oc.dstHost = dst.endpoint

	unlock := lockPair(c, dst)
	defer unlock()

	if err := c.live(oc); err != nil {
		return err
	}
	if dst.closed {
		return c.fail(oc, ErrDisconnected)
	}

	res, errno := call(c.session, oc.path, dst.session, oc.newPath)
	_, err := trapInt(c, res, errno, oc)
	return err
}

// lockPair read-locks two connections in a stable order so concurrent
// transfers in opposite directions cannot deadlock against a Disconnect.
func lockPair(a, b *Connection) func() {
	if a == b {
		a.mu.RLock()
		return a.mu.RUnlock
	}
	first, second := a, b
	if second.id < first.id {
		first, second = second, first
	}
	first.mu.RLock()
	second.mu.RLock()
	return func() {
		second.mu.RUnlock()
		first.mu.RUnlock()
	}
}

// WorkingDirectory returns the session's working directory. The buffer handed
// to the native call starts at 1KiB and doubles while the call reports ERANGE.
func (c *Connection) WorkingDirectory() (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	oc := opContext{kind: KindStat, op: "get_working_directory"}
	if err := c.live(oc); err != nil {
		return "", err
	}

	for size := initialWorkingDirBuffer; ; size *= 2 {
		buf := make([]byte, size)
		res, errno := c.session.GetWorkingDirectory(buf)
		if res != nil {
			return string(res), nil
		}
		if errors.Is(errno, native.ERANGE) && size < maxWorkingDirBuffer {
			continue
		}
		return "", c.fail(oc, cause(errno))
	}
}

// SetWorkingDirectory changes the directory relative paths resolve against.
func (c *Connection) SetWorkingDirectory(path string) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	oc := opContext{kind: KindStat, op: "set_working_directory", path: path}
	if err := c.live(oc); err != nil {
		return err
	}
	res, errno := c.session.SetWorkingDirectory(path)
	_, err := trapInt(c, res, errno, oc)
	return err
}

// CreateDirectory creates path and any missing parents.
func (c *Connection) CreateDirectory(path string) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	oc := opContext{kind: KindStat, op: "create_directory", path: path}
	if err := c.live(oc); err != nil {
		return err
	}
	res, errno := c.session.CreateDirectory(path)
	_, err := trapInt(c, res, errno, oc)
	return err
}

// SetReplication changes the replication factor of a file.
func (c *Connection) SetReplication(path string, replication int16) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	oc := opContext{kind: KindStat, op: "set_replication", path: path}
	if err := c.live(oc); err != nil {
		return err
	}
	res, errno := c.session.SetReplication(path, replication)
	_, err := trapInt(c, res, errno, oc)
	return err
}

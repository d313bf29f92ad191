package hdfsrpc

import (
	"io"
	"log/slog"
	"path"
	"syscall"
	"time"

	"github.com/mochivi/dfs-facade/pkg/native"
)

const copyBufferSize = 64 * 1024

func unixTime(sec int64) time.Time { return time.Unix(sec, 0) }

func (s *session) peer(dst native.Session) (*session, syscall.Errno) {
	peer, ok := dst.(*session)
	if !ok || peer == nil {
		return nil, syscall.ENOTSUP
	}
	if errno := peer.begin(); errno != 0 {
		return nil, errno
	}
	return peer, 0
}

// Copy streams a regular file into dstPath on dst, which may be a session on
// another cluster. A partial destination is removed on failure.
func (s *session) Copy(src string, dst native.Session, dstPath string) (int, error) {
	peer, errno := s.peer(dst)
	if errno != 0 {
		return -1, errno
	}
	from, errno := s.resolve(src)
	if errno != 0 {
		return -1, errno
	}
	to, errno := peer.resolve(dstPath)
	if errno != 0 {
		return -1, errno
	}
	if errno := s.copy(from, peer, to); errno != 0 {
		return -1, errno
	}
	return 0, nil
}

func (s *session) copy(from string, peer *session, to string) syscall.Errno {
	info, err := s.client.Stat(from)
	if err != nil {
		return errnoOf(err)
	}
	if info.IsDir() {
		return syscall.EISDIR
	}
	if _, err := peer.client.Stat(to); err == nil {
		return syscall.EEXIST
	} else if errno := errnoOf(err); errno != syscall.ENOENT {
		return errno
	}

	r, err := s.client.Open(from)
	if err != nil {
		return errnoOf(err)
	}
	defer r.Close()

	if err := peer.client.MkdirAll(path.Dir(to), defaultDirPerm); err != nil {
		return errnoOf(err)
	}
	w, err := peer.client.Create(to, peer.defaults.Replication, peer.defaults.BlockSize, info.Mode().Perm())
	if err != nil {
		return errnoOf(err)
	}

	_, err = io.CopyBuffer(w, r, make([]byte, copyBufferSize))
	if cerr := w.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		if rerr := peer.client.Remove(to); rerr != nil {
			s.logger.Warn("failed to remove partial copy", slog.String("path", to), slog.String("error", rerr.Error()))
		}
		return errnoOf(err)
	}
	return 0
}

// Move renames within one session. Across sessions it copies, keeping owner
// and times where the destination allows, then removes the source; if the
// source cannot be removed the copy is rolled back.
func (s *session) Move(src string, dst native.Session, dstPath string) (int, error) {
	peer, errno := s.peer(dst)
	if errno != 0 {
		return -1, errno
	}
	from, errno := s.resolve(src)
	if errno != 0 {
		return -1, errno
	}
	to, errno := peer.resolve(dstPath)
	if errno != 0 {
		return -1, errno
	}

	if peer == s {
		if errno := s.rename(from, to); errno != 0 {
			return -1, errno
		}
		return 0, nil
	}

	info, err := s.client.Stat(from)
	if err != nil {
		return failed(err)
	}
	if errno := s.copy(from, peer, to); errno != 0 {
		return -1, errno
	}

	meta := toFileInfo(from, info)
	if meta.Owner != "" {
		if err := peer.client.Chown(to, meta.Owner, meta.Group); err != nil {
			s.logger.Debug("owner not preserved", slog.String("path", to), slog.String("error", err.Error()))
		}
	}
	if err := peer.client.Chtimes(to, unixTime(meta.LastAccess), info.ModTime()); err != nil {
		s.logger.Debug("times not preserved", slog.String("path", to), slog.String("error", err.Error()))
	}

	if err := s.client.Remove(from); err != nil {
		if rerr := peer.client.Remove(to); rerr != nil {
			s.logger.Warn("failed to roll back move", slog.String("path", to), slog.String("error", rerr.Error()))
		}
		return failed(err)
	}
	return 0, nil
}

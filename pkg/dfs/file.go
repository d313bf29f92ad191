package dfs

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/mochivi/dfs-facade/pkg/logging"
	"github.com/mochivi/dfs-facade/pkg/native"
)

// Mode selects how a file is opened.
type Mode int

const (
	ModeRead Mode = iota
	ModeWrite
	ModeAppend
)

func (m Mode) String() string {
	return m.flags().String()
}

func (m Mode) flags() native.OpenFlags {
	switch m {
	case ModeRead:
		return native.OpenRead
	case ModeWrite:
		return native.OpenWrite
	case ModeAppend:
		return native.OpenAppend
	default:
		return native.OpenFlags(-1)
	}
}

// OpenHints are forwarded to the native open. Zero values select the
// filesystem's defaults.
type OpenHints struct {
	BufferSize  int
	Replication int16
	BlockSize   int64
}

// Open opens path for reading, writing or appending. An empty path is passed
// to the native layer as an absent path, which it rejects.
func (c *Connection) Open(path string, mode Mode, hints OpenHints) (*FileHandle, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	oc := opContext{kind: KindOpen, op: "open", path: path}
	if err := c.live(oc); err != nil {
		return nil, err
	}
	if mode.flags() < 0 {
		return nil, c.fail(oc, native.EINVAL)
	}

	var target *string
	if path != "" {
		target = &path
	}

	res, errno := c.session.OpenFile(target, mode.flags(), hints.BufferSize, hints.Replication, hints.BlockSize)
	file, err := trapNil(c, res, errno, oc)
	if err != nil {
		return nil, err
	}

	return &FileHandle{
		path:   path,
		mode:   mode,
		host:   c.endpoint,
		connID: c.id,
		file:   file,
		logger: logging.ExtendLogger(c.logger, slog.String("path", path), slog.String("mode", mode.String())),
	}, nil
}

// FileHandle is an open stream on a Connection. It records the connection's
// endpoint and ID for diagnostics only; it does not keep the connection alive.
// A FileHandle is not safe for concurrent use.
type FileHandle struct {
	path   string
	mode   Mode
	host   string
	connID string

	file   native.File
	closed bool

	logger *slog.Logger
}

func (h *FileHandle) Path() string   { return h.path }
func (h *FileHandle) Mode() Mode     { return h.mode }
func (h *FileHandle) Host() string   { return h.host }
func (h *FileHandle) ConnID() string { return h.connID }

func (h *FileHandle) String() string {
	return fmt.Sprintf("FileHandle{Path: %s, Mode: %s, Host: %s}", h.path, h.mode, h.host)
}

func (h *FileHandle) fail(oc opContext, err error) *Error {
	e := newError(h.host, oc, err)
	logging.OperationLogger(h.logger, oc.op,
		slog.String("kind", oc.kind.String()),
		slog.String("error", err.Error()),
	).Debug("native call failed")
	return e
}

// check returns the opContext for op, or a UseAfterCloseError once closed.
func (h *FileHandle) check(op string) (opContext, error) {
	oc := opContext{kind: KindIO, op: op, path: h.path}
	if h.closed {
		return oc, newError(h.host, opContext{kind: KindUseAfterClose, op: op, path: h.path}, ErrClosed)
	}
	return oc, nil
}

// Read implements io.Reader. It returns io.EOF once the stream is exhausted.
func (h *FileHandle) Read(p []byte) (int, error) {
	oc, err := h.check("read")
	if err != nil {
		return 0, err
	}
	if len(p) == 0 {
		return 0, nil
	}

	res, errno := h.file.Read(p)
	n, err := trapInt(h, res, errno, oc)
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, io.EOF
	}
	return int(n), nil
}

// ReadAt implements io.ReaderAt using positioned reads, leaving the stream
// offset untouched.
func (h *FileHandle) ReadAt(p []byte, off int64) (int, error) {
	oc, err := h.check("pread")
	if err != nil {
		return 0, err
	}

	total := 0
	for total < len(p) {
		res, errno := h.file.Pread(off+int64(total), p[total:])
		n, err := trapInt(h, res, errno, oc)
		if err != nil {
			return total, err
		}
		if n == 0 {
			return total, io.EOF
		}
		total += int(n)
	}
	return total, nil
}

// Write implements io.Writer.
func (h *FileHandle) Write(p []byte) (int, error) {
	oc, err := h.check("write")
	if err != nil {
		return 0, err
	}

	total := 0
	for total < len(p) {
		res, errno := h.file.Write(p[total:])
		n, err := trapInt(h, res, errno, oc)
		if err != nil {
			return total, err
		}
		if n == 0 {
			return total, h.fail(oc, io.ErrShortWrite)
		}
		total += int(n)
	}
	return total, nil
}

// Flush pushes buffered writes to the filesystem.
func (h *FileHandle) Flush() error {
	oc, err := h.check("flush")
	if err != nil {
		return err
	}
	res, errno := h.file.Flush()
	_, err = trapInt(h, res, errno, oc)
	return err
}

// Seek moves the stream to an absolute offset.
func (h *FileHandle) Seek(position int64) error {
	oc, err := h.check("seek")
	if err != nil {
		return err
	}
	res, errno := h.file.Seek(position)
	_, err = trapInt(h, res, errno, oc)
	return err
}

// Tell returns the current stream offset.
func (h *FileHandle) Tell() (int64, error) {
	oc, err := h.check("tell")
	if err != nil {
		return 0, err
	}
	res, errno := h.file.Tell()
	return trapInt(h, res, errno, oc)
}

// Available returns the number of bytes readable without blocking.
func (h *FileHandle) Available() (int, error) {
	oc, err := h.check("available")
	if err != nil {
		return 0, err
	}
	res, errno := h.file.Available()
	n, err := trapInt(h, res, errno, oc)
	return int(n), err
}

// Close releases the stream. A second Close fails with UseAfterCloseError.
func (h *FileHandle) Close() error {
	oc, err := h.check("close")
	if err != nil {
		return err
	}

	h.closed = true
	res, errno := h.file.Close()
	_, err = trapInt(h, res, errno, oc)
	return err
}

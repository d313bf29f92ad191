package dfs

import (
	"io"
	"testing"

	"github.com/mochivi/dfs-facade/pkg/native"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func openMockFile(t *testing.T, mode Mode) (*FileHandle, *native.MockFile) {
	t.Helper()
	conn, session := newMockConnection(t)
	file := &native.MockFile{}
	session.On("OpenFile", mock.Anything, mode.flags(), 0, int16(0), int64(0)).Return(file, nil).Once()

	h, err := conn.Open("/f", mode, OpenHints{})
	require.NoError(t, err)
	return h, file
}

func TestConnection_Open(t *testing.T) {
	t.Run("forwards path and hints", func(t *testing.T) {
		conn, session := newMockConnection(t)
		session.On("OpenFile",
			mock.MatchedBy(func(p *string) bool { return p != nil && *p == "/out" }),
			native.OpenWrite, 4096, int16(2), int64(1<<20),
		).Return(&native.MockFile{}, nil).Once()

		h, err := conn.Open("/out", ModeWrite, OpenHints{BufferSize: 4096, Replication: 2, BlockSize: 1 << 20})
		require.NoError(t, err)
		assert.Equal(t, "/out", h.Path())
		assert.Equal(t, ModeWrite, h.Mode())
		assert.Equal(t, "nn:8020", h.Host())
		assert.Equal(t, conn.ID(), h.ConnID())
		session.AssertExpectations(t)
	})

	t.Run("empty path is passed as absent", func(t *testing.T) {
		conn, session := newMockConnection(t)
		session.On("OpenFile", (*string)(nil), native.OpenRead, 0, int16(0), int64(0)).
			Return(nil, native.EINVAL).Once()

		h, err := conn.Open("", ModeRead, OpenHints{})
		assert.Nil(t, h)
		assert.ErrorIs(t, err, ErrOpen)
		assert.ErrorIs(t, err, native.EINVAL)
		session.AssertExpectations(t)
	})

	t.Run("null handle", func(t *testing.T) {
		conn, session := newMockConnection(t)
		session.On("OpenFile", mock.Anything, native.OpenAppend, 0, int16(0), int64(0)).
			Return(nil, native.EACCES).Once()

		_, err := conn.Open("/ro", ModeAppend, OpenHints{})
		assert.ErrorIs(t, err, ErrOpen)
		assert.ErrorIs(t, err, native.EACCES)
		assert.Contains(t, err.Error(), "OpenError: cannot open /ro in filesystem on nn:8020")
	})

	t.Run("unknown mode", func(t *testing.T) {
		conn, session := newMockConnection(t)
		_, err := conn.Open("/f", Mode(7), OpenHints{})
		assert.ErrorIs(t, err, ErrOpen)
		assert.ErrorIs(t, err, native.EINVAL)
		session.AssertNotCalled(t, "OpenFile", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestFileHandle_Read(t *testing.T) {
	h, file := openMockFile(t, ModeRead)
	file.On("Read", mock.Anything).Return(int32(3), nil).Once()
	file.On("Read", mock.Anything).Return(int32(0), nil).Once()

	buf := make([]byte, 8)
	n, err := h.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = h.Read(buf)
	assert.Equal(t, 0, n)
	assert.ErrorIs(t, err, io.EOF)

	n, err = h.Read(nil)
	assert.NoError(t, err)
	assert.Equal(t, 0, n)

	file.On("Read", mock.Anything).Return(int32(-1), native.EIO).Once()
	_, err = h.Read(buf)
	assert.ErrorIs(t, err, ErrIO)
	assert.ErrorIs(t, err, native.EIO)
	file.AssertExpectations(t)
}

func TestFileHandle_ReadAt(t *testing.T) {
	h, file := openMockFile(t, ModeRead)
	file.On("Pread", int64(10), mock.Anything).Return(int32(4), nil).Once()
	file.On("Pread", int64(14), mock.Anything).Return(int32(4), nil).Once()

	n, err := h.ReadAt(make([]byte, 8), 10)
	require.NoError(t, err)
	assert.Equal(t, 8, n)

	file.On("Pread", int64(100), mock.Anything).Return(int32(2), nil).Once()
	file.On("Pread", int64(102), mock.Anything).Return(int32(0), nil).Once()
	n, err = h.ReadAt(make([]byte, 8), 100)
	assert.Equal(t, 2, n)
	assert.ErrorIs(t, err, io.EOF)
	file.AssertExpectations(t)
}

func TestFileHandle_Write(t *testing.T) {
	h, file := openMockFile(t, ModeWrite)
	file.On("Write", []byte("hello world")).Return(int32(5), nil).Once()
	file.On("Write", []byte(" world")).Return(int32(6), nil).Once()

	n, err := h.Write([]byte("hello world"))
	require.NoError(t, err)
	assert.Equal(t, 11, n)

	file.On("Write", []byte("stuck")).Return(int32(0), nil).Once()
	n, err = h.Write([]byte("stuck"))
	assert.Equal(t, 0, n)
	assert.ErrorIs(t, err, ErrIO)
	assert.ErrorIs(t, err, io.ErrShortWrite)

	file.On("Write", []byte("fail")).Return(int32(-1), native.ENOSPC).Once()
	_, err = h.Write([]byte("fail"))
	assert.ErrorIs(t, err, native.ENOSPC)
	file.AssertExpectations(t)
}

func TestFileHandle_StreamControl(t *testing.T) {
	h, file := openMockFile(t, ModeRead)
	file.On("Seek", int64(42)).Return(0, nil).Once()
	file.On("Tell").Return(int64(42), nil).Once()
	file.On("Available").Return(int32(7), nil).Once()
	file.On("Flush").Return(-1, native.EBADF).Once()

	require.NoError(t, h.Seek(42))
	pos, err := h.Tell()
	require.NoError(t, err)
	assert.Equal(t, int64(42), pos)
	avail, err := h.Available()
	require.NoError(t, err)
	assert.Equal(t, 7, avail)

	err = h.Flush()
	assert.ErrorIs(t, err, ErrIO)
	assert.ErrorIs(t, err, native.EBADF)
	file.AssertExpectations(t)
}

func TestFileHandle_UseAfterClose(t *testing.T) {
	h, file := openMockFile(t, ModeWrite)
	file.On("Close").Return(0, nil).Once()

	require.NoError(t, h.Close())

	ops := map[string]func() error{
		"read":      func() error { _, err := h.Read(make([]byte, 1)); return err },
		"read_at":   func() error { _, err := h.ReadAt(make([]byte, 1), 0); return err },
		"write":     func() error { _, err := h.Write([]byte("x")); return err },
		"flush":     h.Flush,
		"seek":      func() error { return h.Seek(0) },
		"tell":      func() error { _, err := h.Tell(); return err },
		"available": func() error { _, err := h.Available(); return err },
		"close":     h.Close,
	}
	for name, op := range ops {
		t.Run(name, func(t *testing.T) {
			err := op()
			assert.ErrorIs(t, err, ErrUseAfterClose)
			assert.ErrorIs(t, err, ErrClosed)
			assert.Equal(t, KindUseAfterClose, KindOf(err))
		})
	}

	// nothing reached the native stream after the first close
	file.AssertExpectations(t)
}

func TestFileHandle_CloseFailureStillCloses(t *testing.T) {
	h, file := openMockFile(t, ModeWrite)
	file.On("Close").Return(-1, native.EIO).Once()

	err := h.Close()
	assert.ErrorIs(t, err, ErrIO)
	assert.ErrorIs(t, h.Close(), ErrUseAfterClose)
	file.AssertExpectations(t)
}

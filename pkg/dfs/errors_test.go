package dfs

import (
	"errors"
	"fmt"
	"io/fs"
	"syscall"
	"testing"

	"github.com/mochivi/dfs-facade/pkg/apperr"
	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/codes"
)

func TestError_Error(t *testing.T) {
	testCases := []struct {
		name     string
		err      *Error
		expected string
	}{
		{
			name:     "path operation",
			err:      &Error{Kind: KindDelete, Op: "delete", Path: "/a", Host: "nn:8020", Err: syscall.ENOENT},
			expected: "DeleteError: cannot delete /a in filesystem on nn:8020: no such file or directory",
		},
		{
			name:     "rename",
			err:      &Error{Kind: KindRename, Op: "rename", Path: "/a", NewPath: "/b", Host: "nn:8020", Err: syscall.EEXIST},
			expected: "RenameError: cannot rename /a to /b in filesystem on nn:8020: file exists",
		},
		{
			name:     "cross-connection copy",
			err:      &Error{Kind: KindCopy, Op: "copy", Path: "/a", NewPath: "/b", Host: "nn1:8020", DstHost: "nn2:8020", Err: syscall.EIO},
			expected: "CopyError: cannot copy /a to /b on destination filesystem nn2:8020 in filesystem on nn1:8020: input/output error",
		},
		{
			name:     "no path",
			err:      &Error{Kind: KindConnection, Op: "disconnect", Host: "nn:8020", Err: ErrDisconnected},
			expected: "ConnectionError: cannot disconnect in filesystem on nn:8020: connection is disconnected",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.err.Error())
		})
	}
}

func TestError_IsAndUnwrap(t *testing.T) {
	err := fmt.Errorf("listing: %w", &Error{Kind: KindList, Op: "list_directory", Path: "/x", Err: syscall.ENOENT})

	assert.ErrorIs(t, err, ErrList)
	assert.NotErrorIs(t, err, ErrStat)
	assert.ErrorIs(t, err, fs.ErrNotExist)
	assert.ErrorIs(t, err, syscall.ENOENT)
	assert.Equal(t, KindList, KindOf(err))
	assert.Equal(t, KindUnknown, KindOf(errors.New("plain")))

	var target *Error
	assert.ErrorAs(t, err, &target)
	assert.Equal(t, "/x", target.Path)

	// a populated error is not a kind sentinel
	other := &Error{Kind: KindList, Path: "/y"}
	assert.False(t, errors.Is(err, other))
}

func TestError_ToAppError(t *testing.T) {
	testCases := []struct {
		name     string
		err      *Error
		expected codes.Code
	}{
		{name: "use after close", err: &Error{Kind: KindUseAfterClose, Err: ErrClosed}, expected: codes.FailedPrecondition},
		{name: "disconnected", err: &Error{Kind: KindStat, Err: ErrDisconnected}, expected: codes.FailedPrecondition},
		{name: "unreachable", err: &Error{Kind: KindConnection, Err: syscall.ECONNREFUSED}, expected: codes.Unavailable},
		{name: "not found", err: &Error{Kind: KindList, Err: syscall.ENOENT}, expected: codes.NotFound},
		{name: "no entries", err: &Error{Kind: KindStat, Err: ErrNoEntries}, expected: codes.NotFound},
		{name: "not empty", err: &Error{Kind: KindDelete, Err: syscall.ENOTEMPTY}, expected: codes.FailedPrecondition},
		{name: "exists", err: &Error{Kind: KindRename, Err: syscall.EEXIST}, expected: codes.AlreadyExists},
		{name: "permission", err: &Error{Kind: KindOpen, Err: syscall.EACCES}, expected: codes.PermissionDenied},
		{name: "invalid", err: &Error{Kind: KindLocation, Err: syscall.EINVAL}, expected: codes.InvalidArgument},
		{name: "is a directory", err: &Error{Kind: KindCopy, Err: syscall.EISDIR}, expected: codes.InvalidArgument},
		{name: "nil destination", err: &Error{Kind: KindMove, Err: ErrNilConnection}, expected: codes.InvalidArgument},
		{name: "io", err: &Error{Kind: KindIO, Err: syscall.EIO}, expected: codes.Internal},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			appErr := tc.err.ToAppError()
			assert.Equal(t, tc.expected, appErr.Code)
			assert.ErrorIs(t, appErr, tc.err)
			assert.Equal(t, tc.expected, apperr.CodeOf(tc.err))
		})
	}
}

func TestError_ToAppErrorMessages(t *testing.T) {
	missing := &Error{Kind: KindStat, Op: "stat", Path: "/gone", Err: syscall.ENOENT}
	assert.Equal(t, "path '/gone' not found", missing.ToAppError().Message)

	conflict := &Error{Kind: KindRename, Op: "rename", Path: "/a", NewPath: "/b", Err: syscall.EEXIST}
	assert.Equal(t, "path '/b' already exists", conflict.ToAppError().Message)

	exists := &Error{Kind: KindStat, Op: "create_directory", Path: "/d", Err: syscall.EEXIST}
	assert.Equal(t, "path '/d' already exists", exists.ToAppError().Message)
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "StatError", KindStat.String())
	assert.Equal(t, "UseAfterCloseError", KindUseAfterClose.String())
	assert.Equal(t, "UnknownError", Kind(99).String())
}

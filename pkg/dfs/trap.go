package dfs

import (
	"errors"
	"log/slog"
	"syscall"

	"github.com/mochivi/dfs-facade/pkg/logging"
)

// opContext describes one attempted native call for error reporting.
type opContext struct {
	kind    Kind
	op      string
	path    string
	newPath string
	dstHost string
}

// cause normalizes the errno half of a native result. It is only consulted
// once the sentinel has been observed.
func cause(errno error) error {
	if errno == nil {
		return ErrNativeFailure
	}
	var e syscall.Errno
	if errors.As(errno, &e) && e == 0 {
		return ErrNativeFailure
	}
	return errno
}

// newError builds the structured failure for a trapped native call.
func newError(host string, oc opContext, err error) *Error {
	return &Error{
		Kind:    oc.kind,
		Op:      oc.op,
		Path:    oc.path,
		NewPath: oc.newPath,
		Host:    host,
		DstHost: oc.dstHost,
		Err:     err,
	}
}

// fail builds and logs the error for a failed call on this connection.
func (c *Connection) fail(oc opContext, err error) *Error {
	e := newError(c.endpoint, oc, err)
	logging.OperationLogger(c.logger, oc.op,
		slog.String("path", oc.path),
		slog.String("kind", oc.kind.String()),
		slog.String("error", err.Error()),
	).Debug("native call failed")
	return e
}

// trapper is anything that owns native calls and can report their failures.
type trapper interface {
	fail(oc opContext, err error) *Error
}

// trapInt applies the sentinel rule to integer-returning native calls: a
// negative result is a failure, anything else passes through unchanged.
func trapInt[T ~int | ~int16 | ~int32 | ~int64](t trapper, res T, errno error, oc opContext) (T, error) {
	if res < 0 {
		return res, t.fail(oc, cause(errno))
	}
	return res, nil
}

// trapNil applies the sentinel rule to pointer- and handle-returning native
// calls: the zero value (nil) is a failure.
func trapNil[T comparable](t trapper, res T, errno error, oc opContext) (T, error) {
	var zero T
	if res == zero {
		return res, t.fail(oc, cause(errno))
	}
	return res, nil
}

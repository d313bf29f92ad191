package dfs

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"syscall"

	"github.com/mochivi/dfs-facade/pkg/apperr"
)

// Kind classifies a facade failure by the operation family that raised it.
type Kind int

const (
	KindUnknown Kind = iota
	KindConnection
	KindStat
	KindList
	KindDelete
	KindRename
	KindCopy
	KindMove
	KindLocation
	KindOpen
	KindIO
	KindUseAfterClose
)

func (k Kind) String() string {
	switch k {
	case KindConnection:
		return "ConnectionError"
	case KindStat:
		return "StatError"
	case KindList:
		return "ListError"
	case KindDelete:
		return "DeleteError"
	case KindRename:
		return "RenameError"
	case KindCopy:
		return "CopyError"
	case KindMove:
		return "MoveError"
	case KindLocation:
		return "LocationError"
	case KindOpen:
		return "OpenError"
	case KindIO:
		return "IOError"
	case KindUseAfterClose:
		return "UseAfterCloseError"
	default:
		return "UnknownError"
	}
}

var (
	ErrDisconnected  = errors.New("connection is disconnected")
	ErrClosed        = errors.New("file handle is closed")
	ErrNoEntries     = errors.New("listing returned no entries")
	ErrNativeFailure = errors.New("native call failed without errno")
	ErrNilDriver     = errors.New("nil native driver")
	ErrNilConnection = errors.New("nil destination connection")
)

// Kind sentinels, for use with errors.Is.
var (
	ErrConnection    = &Error{Kind: KindConnection}
	ErrStat          = &Error{Kind: KindStat}
	ErrList          = &Error{Kind: KindList}
	ErrDelete        = &Error{Kind: KindDelete}
	ErrRename        = &Error{Kind: KindRename}
	ErrCopy          = &Error{Kind: KindCopy}
	ErrMove          = &Error{Kind: KindMove}
	ErrLocation      = &Error{Kind: KindLocation}
	ErrOpen          = &Error{Kind: KindOpen}
	ErrIO            = &Error{Kind: KindIO}
	ErrUseAfterClose = &Error{Kind: KindUseAfterClose}
)

// Error is the single structured failure type returned by the facade.
type Error struct {
	Kind Kind

	// Op is the attempted operation, e.g. "delete" or "get_hosts".
	Op string

	// Path is the primary path involved, NewPath the destination of a
	// rename, copy or move.
	Path    string
	NewPath string

	// Host is the owning connection's endpoint, DstHost the destination
	// connection's endpoint for copy and move.
	Host    string
	DstHost string

	// Err is the underlying cause, usually a syscall.Errno from the native layer.
	Err error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.String())
	b.WriteString(": cannot ")
	b.WriteString(e.Op)
	if e.Path != "" {
		b.WriteString(" ")
		b.WriteString(e.Path)
	}
	if e.NewPath != "" {
		b.WriteString(" to ")
		b.WriteString(e.NewPath)
	}
	if e.DstHost != "" {
		fmt.Fprintf(&b, " on destination filesystem %s", e.DstHost)
	}
	if e.Host != "" {
		fmt.Fprintf(&b, " in filesystem on %s", e.Host)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the kind sentinels (ErrStat, ErrList, ...) by Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Op != "" || t.Path != "" || t.NewPath != "" || t.Host != "" || t.DstHost != "" || t.Err != nil {
		return false
	}
	return t.Kind == e.Kind
}

// ToAppError maps the failure onto a canonical gRPC code.
func (e *Error) ToAppError() *apperr.AppError {
	msg := e.Error()
	switch {
	case e.Kind == KindUseAfterClose, errors.Is(e.Err, ErrDisconnected):
		return apperr.FailedPrecondition(msg, e)
	case e.Kind == KindConnection:
		return apperr.Unavailable(msg, e)
	case errors.Is(e.Err, ErrNoEntries), errors.Is(e.Err, fs.ErrNotExist):
		return apperr.NotFound("path", e.Path, e)
	case errors.Is(e.Err, syscall.ENOTEMPTY):
		return apperr.FailedPrecondition(msg, e)
	case errors.Is(e.Err, fs.ErrExist):
		// the conflicting path of a rename, copy or move is its destination
		conflict := e.Path
		if e.NewPath != "" {
			conflict = e.NewPath
		}
		return apperr.AlreadyExists("path", conflict, e)
	case errors.Is(e.Err, fs.ErrPermission):
		return apperr.PermissionDenied(msg, e)
	case errors.Is(e.Err, ErrNilConnection), errors.Is(e.Err, syscall.EINVAL), errors.Is(e.Err, syscall.EISDIR), errors.Is(e.Err, syscall.ENOTDIR):
		return apperr.InvalidArgument(msg, e)
	default:
		return apperr.Internal(e)
	}
}

// KindOf reports the Kind of a facade error anywhere in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

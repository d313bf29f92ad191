package hdfsrpc

import (
	"errors"
	"strings"
	"syscall"

	"github.com/colinmarc/hdfs/v2"
	"github.com/mochivi/dfs-facade/pkg/native"
)

// exceptionErrno maps the short Java class name of a NameNode exception to an
// errno. Both the RPC and the WebHDFS surface report these names.
var exceptionErrno = map[string]syscall.Errno{
	"FileNotFoundException":             syscall.ENOENT,
	"FileAlreadyExistsException":        syscall.EEXIST,
	"AccessControlException":            syscall.EACCES,
	"PathIsNotEmptyDirectoryException":  syscall.ENOTEMPTY,
	"ParentNotDirectoryException":       syscall.ENOTDIR,
	"AlreadyBeingCreatedException":      syscall.EBUSY,
	"RecoveryInProgressException":       syscall.EBUSY,
	"DSQuotaExceededException":          syscall.ENOSPC,
	"NSQuotaExceededException":          syscall.ENOSPC,
	"QuotaExceededException":            syscall.ENOSPC,
	"SafeModeException":                 syscall.EROFS,
	"UnsupportedOperationException":     syscall.ENOTSUP,
	"IllegalArgumentException":          syscall.EINVAL,
	"InvalidPathException":              syscall.EINVAL,
	"HadoopIllegalArgumentException":    syscall.EINVAL,
	"StandbyException":                  syscall.ECONNREFUSED,
	"RetriableException":                syscall.EAGAIN,
	"UnresolvedPathException":           syscall.ENOENT,
	"SnapshotAccessControlException":    syscall.EACCES,
	"LeaseExpiredException":             syscall.EBADF,
	"NotReplicatedYetException":         syscall.EBUSY,
	"InvalidRequestException":           syscall.EINVAL,
	"TopologyResolutionException":       syscall.EIO,
	"DirectoryListingLimitException":    syscall.ERANGE,
	"StorageTypeQuotaExceededException": syscall.ENOSPC,
}

func exceptionToErrno(exception string) (syscall.Errno, bool) {
	if i := strings.LastIndexByte(exception, '.'); i >= 0 {
		exception = exception[i+1:]
	}
	errno, ok := exceptionErrno[exception]
	return errno, ok
}

// errnoOf translates an error from the colinmarc client into an errno.
// NameNode exceptions are matched by class name before the generic io/fs
// translation, since the client folds only a few of them into fs sentinels.
func errnoOf(err error) syscall.Errno {
	if err == nil {
		return 0
	}
	if hdfs.IsErrReplicating(err) {
		return syscall.EBUSY
	}

	var remote interface{ Exception() string }
	if errors.As(err, &remote) {
		if errno, ok := exceptionToErrno(remote.Exception()); ok {
			return errno
		}
	}
	return native.ToErrno(err)
}

func failed(err error) (int, error) {
	return -1, errnoOf(err)
}

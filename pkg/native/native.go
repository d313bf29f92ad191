// Package native defines the C-style client API the dfs facade is written
// against. It mirrors the libhdfs calling convention: integer results are
// negative on failure, pointer results are nil on failure, and each call hands
// back an errno-like error that is only meaningful when the result is the
// failure sentinel.
//
// Implementations live outside the facade (internal/memfs, internal/hdfsrpc).
// Each implementation documents whether its Session is safe for concurrent use.
package native

// ObjectKind is the kind byte carried by a FileInfo record.
type ObjectKind byte

const (
	KindFile      ObjectKind = 'F'
	KindDirectory ObjectKind = 'D'
)

// FileInfo is one native file-status record. Timestamps are seconds since the
// Unix epoch, permissions are the raw mode bits.
type FileInfo struct {
	Kind        ObjectKind
	Name        string
	Owner       string
	Group       string
	Size        int64
	Replication int16
	BlockSize   int64
	Permissions int16
	LastAccess  int64
	LastMod     int64
}

// FileInfoList is a native listing buffer. Free must be called exactly once.
type FileInfoList interface {
	Entries() []FileInfo
	Len() int
	Free()
}

// BlockHosts is a native host-array structure: one host set per block,
// ordered by block offset. Free must be called exactly once.
type BlockHosts interface {
	Blocks() [][]string
	Free()
}

// OpenFlags selects how OpenFile opens a stream.
type OpenFlags int

const (
	OpenRead OpenFlags = iota
	OpenWrite
	OpenAppend
)

func (f OpenFlags) String() string {
	switch f {
	case OpenRead:
		return "read"
	case OpenWrite:
		return "write"
	case OpenAppend:
		return "append"
	default:
		return "unknown"
	}
}

// Driver opens sessions against an endpoint. A nil Session is the failure
// sentinel.
type Driver interface {
	Connect(host string, port int, user string) (Session, error)
}

// Session is one live connection to a filesystem endpoint.
type Session interface {
	Disconnect() (int, error)

	// Exists returns 0 when the path exists.
	Exists(path string) (int, error)
	Delete(path string, recursive bool) (int, error)
	Rename(oldPath, newPath string) (int, error)
	Copy(src string, dst Session, dstPath string) (int, error)
	Move(src string, dst Session, dstPath string) (int, error)

	// GetWorkingDirectory copies the working directory into buf and returns
	// the filled prefix, or nil with ERANGE when buf is too small.
	GetWorkingDirectory(buf []byte) ([]byte, error)
	SetWorkingDirectory(path string) (int, error)
	CreateDirectory(path string) (int, error)
	SetReplication(path string, replication int16) (int, error)

	ListDirectory(path string) (FileInfoList, error)
	GetPathInfo(path string) (*FileInfo, error)
	GetHosts(path string, start, length int64) (BlockHosts, error)

	// OpenFile opens a stream. A nil path is the absent-path sentinel.
	OpenFile(path *string, flags OpenFlags, bufferSize int, replication int16, blockSize int64) (File, error)

	GetDefaultBlockSize() (int64, error)
	GetCapacity() (int64, error)
	GetUsed() (int64, error)
}

// File is an open native stream. Read returns 0 at end of file.
type File interface {
	Read(buf []byte) (int32, error)
	Pread(position int64, buf []byte) (int32, error)
	Write(buf []byte) (int32, error)
	Flush() (int, error)
	Seek(position int64) (int, error)
	Tell() (int64, error)
	Available() (int32, error)
	Close() (int, error)
}

package hdfsrpc

import (
	"io"
	"os"
	"time"

	"github.com/colinmarc/hdfs/v2"
)

// namenode is the subset of *hdfs.Client a session drives. Streams are
// returned behind interfaces so sessions can run against any backing store.
type namenode interface {
	Stat(name string) (os.FileInfo, error)
	ReadDir(dirname string) ([]os.FileInfo, error)
	Remove(name string) error
	RemoveAll(name string) error
	Rename(oldpath, newpath string) error
	MkdirAll(dirname string, perm os.FileMode) error
	Chtimes(name string, atime, mtime time.Time) error
	Chown(name, user, group string) error

	Open(name string) (reader, error)
	Create(name string, replication int, blockSize int64, perm os.FileMode) (writer, error)
	Append(name string) (writer, error)

	Defaults() (serverDefaults, error)
	Usage() (usage, error)
	Close() error
}

type reader interface {
	io.Reader
	io.ReaderAt
	io.Seeker
	io.Closer
	Stat() os.FileInfo
}

type writer interface {
	io.Writer
	io.Closer
	Flush() error
}

type serverDefaults struct {
	BlockSize      int64
	Replication    int
	FileBufferSize int
}

type usage struct {
	Capacity uint64
	Used     uint64
}

// rpcClient adapts *hdfs.Client to namenode.
type rpcClient struct {
	*hdfs.Client
}

var _ namenode = rpcClient{}

func dialRPC(opts hdfs.ClientOptions) (namenode, error) {
	client, err := hdfs.NewClient(opts)
	if err != nil {
		return nil, err
	}
	return rpcClient{Client: client}, nil
}

func (c rpcClient) Open(name string) (reader, error) {
	r, err := c.Client.Open(name)
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (c rpcClient) Create(name string, replication int, blockSize int64, perm os.FileMode) (writer, error) {
	w, err := c.Client.CreateFile(name, replication, blockSize, perm)
	if err != nil {
		return nil, err
	}
	return w, nil
}

func (c rpcClient) Append(name string) (writer, error) {
	w, err := c.Client.Append(name)
	if err != nil {
		return nil, err
	}
	return w, nil
}

func (c rpcClient) Defaults() (serverDefaults, error) {
	d, err := c.Client.ServerDefaults()
	if err != nil {
		return serverDefaults{}, err
	}
	return serverDefaults{
		BlockSize:      d.BlockSize,
		Replication:    d.Replication,
		FileBufferSize: d.FileBufferSize,
	}, nil
}

func (c rpcClient) Usage() (usage, error) {
	fs, err := c.Client.StatFs()
	if err != nil {
		return usage{}, err
	}
	return usage{Capacity: fs.Capacity, Used: fs.Used}, nil
}

package memfs

import (
	"bytes"
	"encoding/json"
	"math"
	"syscall"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/mochivi/dfs-facade/pkg/logging"
	"github.com/mochivi/dfs-facade/pkg/native"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCluster(t *testing.T, host string, mutate ...func(*Config)) *Cluster {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Host = host
	cfg.BlockSize = 16
	cfg.NodeCapacity = 1 << 20
	for _, m := range mutate {
		m(&cfg)
	}
	clock := time.Unix(1_700_000_000, 0)
	c, err := NewCluster(cfg,
		WithLogger(logging.NewTestLogger(0, true)),
		WithClock(func() time.Time { return clock }),
	)
	require.NoError(t, err)
	return c
}

func connect(t *testing.T, c *Cluster) *session {
	t.Helper()
	s, err := NewDriver(c).Connect(c.cfg.Host, c.cfg.Port, "")
	require.NoError(t, err)
	return s.(*session)
}

func ptr(s string) *string { return &s }

func writeFile(t *testing.T, s *session, path string, data []byte) {
	t.Helper()
	f, err := s.OpenFile(ptr(path), native.OpenWrite, 0, 0, 0)
	require.NoError(t, err)
	n, err := f.Write(data)
	require.NoError(t, err)
	require.Equal(t, int32(len(data)), n)
	res, err := f.Close()
	require.NoError(t, err)
	require.Equal(t, 0, res)
}

func readFile(t *testing.T, s *session, path string) []byte {
	t.Helper()
	f, err := s.OpenFile(ptr(path), native.OpenRead, 0, 0, 0)
	require.NoError(t, err)
	defer f.Close()

	var out bytes.Buffer
	buf := make([]byte, 7)
	for {
		n, err := f.Read(buf)
		require.NoError(t, err)
		if n == 0 {
			return out.Bytes()
		}
		out.Write(buf[:n])
	}
}

func TestNewCluster_InvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DataNodes = 0
	_, err := NewCluster(cfg)
	assert.Error(t, err)
}

func TestDriver_Connect(t *testing.T) {
	c := newTestCluster(t, "nn1")
	d := NewDriver(c)

	s, err := d.Connect("nn1", 8020, "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", s.(*session).user)

	s, err = d.Connect("unknown", 8020, "")
	assert.Nil(t, s)
	assert.ErrorIs(t, err, syscall.ECONNREFUSED)

	c.FailNext(OpConnect, syscall.EACCES)
	s, err = d.Connect("nn1", 8020, "")
	assert.Nil(t, s)
	assert.ErrorIs(t, err, syscall.EACCES)
}

func TestSession_Disconnect(t *testing.T) {
	s := connect(t, newTestCluster(t, "nn1"))

	res, err := s.Disconnect()
	require.NoError(t, err)
	assert.Equal(t, 0, res)

	res, err = s.Disconnect()
	assert.Equal(t, -1, res)
	assert.ErrorIs(t, err, syscall.EBADF)

	res, err = s.Exists("/")
	assert.Equal(t, -1, res)
	assert.ErrorIs(t, err, syscall.ENOTCONN)
}

func TestSession_DirectoriesAndListing(t *testing.T) {
	c := newTestCluster(t, "nn1")
	s := connect(t, c)

	res, _ := s.Exists("/a/b")
	assert.Equal(t, -1, res)

	res, err := s.CreateDirectory("/a/b")
	require.NoError(t, err)
	assert.Equal(t, 0, res)
	_, err = s.CreateDirectory("/a/b")
	require.NoError(t, err, "creating an existing directory succeeds")

	writeFile(t, s, "/a/c.txt", []byte("hello"))

	res, err = s.CreateDirectory("/a/c.txt")
	assert.Equal(t, -1, res)
	assert.ErrorIs(t, err, syscall.EEXIST)
	_, err = s.CreateDirectory("/a/c.txt/d")
	assert.ErrorIs(t, err, syscall.ENOTDIR)

	list, err := s.ListDirectory("/a")
	require.NoError(t, err)
	require.Equal(t, 2, list.Len())
	entries := list.Entries()
	assert.Equal(t, "/a/b", entries[0].Name)
	assert.Equal(t, native.KindDirectory, entries[0].Kind)
	assert.Equal(t, "/a/c.txt", entries[1].Name)
	assert.Equal(t, native.KindFile, entries[1].Kind)
	assert.Equal(t, int64(5), entries[1].Size)
	assert.Equal(t, int16(3), entries[1].Replication)
	assert.Equal(t, int64(16), entries[1].BlockSize)
	assert.Equal(t, "hdfs", entries[1].Owner)
	assert.Equal(t, "supergroup", entries[1].Group)
	assert.Equal(t, int16(0644), entries[1].Permissions)
	assert.Equal(t, int64(1_700_000_000), entries[1].LastMod)
	assert.Equal(t, int64(1), c.Outstanding())
	list.Free()
	assert.Equal(t, int64(0), c.Outstanding())
	list.Free()
	assert.Equal(t, int64(1), c.DoubleFrees())

	// listing a file yields the file itself
	list, err = s.ListDirectory("/a/c.txt")
	require.NoError(t, err)
	require.Equal(t, 1, list.Len())
	assert.Equal(t, "/a/c.txt", list.Entries()[0].Name)
	list.Free()

	// an empty directory lists successfully with no entries
	list, err = s.ListDirectory("/a/b")
	require.NoError(t, err)
	assert.Equal(t, 0, list.Len())
	list.Free()

	list, err = s.ListDirectory("/missing")
	assert.Nil(t, list)
	assert.ErrorIs(t, err, syscall.ENOENT)
	assert.Equal(t, int64(0), c.Outstanding())

	info, err := s.GetPathInfo("/a")
	require.NoError(t, err)
	assert.Equal(t, "/a", info.Name)
	assert.Equal(t, native.KindDirectory, info.Kind)
}

func TestSession_WorkingDirectory(t *testing.T) {
	s := connect(t, newTestCluster(t, "nn1"))
	_, err := s.CreateDirectory("/user/hdfs/data")
	require.NoError(t, err)

	buf := make([]byte, 64)
	cwd, err := s.GetWorkingDirectory(buf)
	require.NoError(t, err)
	assert.Equal(t, "/", string(cwd))

	_, err = s.SetWorkingDirectory("/user/hdfs")
	require.NoError(t, err)
	_, err = s.SetWorkingDirectory("data")
	require.NoError(t, err)
	cwd, err = s.GetWorkingDirectory(buf)
	require.NoError(t, err)
	assert.Equal(t, "/user/hdfs/data", string(cwd))

	cwd, err = s.GetWorkingDirectory(make([]byte, len("/user/hdfs/data")))
	assert.Nil(t, cwd)
	assert.ErrorIs(t, err, syscall.ERANGE)

	// relative paths resolve against the working directory
	writeFile(t, s, "part-0000", []byte("x"))
	res, _ := s.Exists("/user/hdfs/data/part-0000")
	assert.Equal(t, 0, res)
	res, _ = s.Exists("hdfs://nn1:8020/user/hdfs/data/part-0000")
	assert.Equal(t, 0, res)

	_, err = s.SetWorkingDirectory("part-0000")
	assert.ErrorIs(t, err, syscall.ENOTDIR)
	_, err = s.SetWorkingDirectory("/nope")
	assert.ErrorIs(t, err, syscall.ENOENT)
}

func TestSession_DeleteAndRename(t *testing.T) {
	c := newTestCluster(t, "nn1")
	s := connect(t, c)
	_, err := s.CreateDirectory("/dir/sub")
	require.NoError(t, err)
	writeFile(t, s, "/dir/sub/f", bytes.Repeat([]byte("z"), 40))
	assert.Equal(t, int64(40*3), c.used())

	_, err = s.Delete("/dir", false)
	assert.ErrorIs(t, err, syscall.ENOTEMPTY)
	_, err = s.Delete("/missing", false)
	assert.ErrorIs(t, err, syscall.ENOENT)
	_, err = s.Delete("/", true)
	assert.ErrorIs(t, err, syscall.EACCES)

	writeFile(t, s, "/other", []byte("o"))
	_, err = s.Rename("/other", "/dir")
	assert.ErrorIs(t, err, syscall.EEXIST)
	_, err = s.Rename("/dir", "/dir/sub/inside")
	assert.ErrorIs(t, err, syscall.EINVAL)
	_, err = s.Rename("/missing", "/x")
	assert.ErrorIs(t, err, syscall.ENOENT)
	_, err = s.Rename("/other", "/nope/other")
	assert.ErrorIs(t, err, syscall.ENOENT)

	res, err := s.Rename("/dir", "/renamed")
	require.NoError(t, err)
	assert.Equal(t, 0, res)
	assert.Equal(t, []byte(bytes.Repeat([]byte("z"), 40)), readFile(t, s, "/renamed/sub/f"))

	res, err = s.Delete("/renamed", true)
	require.NoError(t, err)
	assert.Equal(t, 0, res)
	res, _ = s.Exists("/renamed/sub/f")
	assert.Equal(t, -1, res)
	assert.Equal(t, int64(1*3), c.used(), "blocks of deleted files are released")

	blocks, err := c.store.List()
	require.NoError(t, err)
	assert.Len(t, blocks, 1)
}

func TestSession_FileRoundTrip(t *testing.T) {
	c := newTestCluster(t, "nn1")
	s := connect(t, c)

	payload, err := json.Marshal(gofakeit.Product())
	require.NoError(t, err)
	writeFile(t, s, "/data/product.json", payload)

	info, err := s.GetPathInfo("/data/product.json")
	require.NoError(t, err)
	assert.Equal(t, int64(len(payload)), info.Size)
	assert.Equal(t, payload, readFile(t, s, "/data/product.json"))

	// append
	f, err := s.OpenFile(ptr("/data/product.json"), native.OpenAppend, 0, 0, 0)
	require.NoError(t, err)
	_, err = f.Write([]byte("\n"))
	require.NoError(t, err)
	_, err = f.Close()
	require.NoError(t, err)
	assert.Equal(t, append(payload, '\n'), readFile(t, s, "/data/product.json"))

	// positioned reads and seeks
	f, err = s.OpenFile(ptr("/data/product.json"), native.OpenRead, 0, 0, 0)
	require.NoError(t, err)
	buf := make([]byte, 4)
	n, err := f.Pread(1, buf)
	require.NoError(t, err)
	assert.Equal(t, int32(4), n)
	assert.Equal(t, payload[1:5], buf)
	pos, _ := f.Tell()
	assert.Equal(t, int64(0), pos, "pread leaves the offset untouched")

	_, err = f.Seek(int64(len(payload)))
	require.NoError(t, err)
	avail, _ := f.Available()
	assert.Equal(t, int32(1), avail)
	_, err = f.Seek(int64(len(payload) + 2))
	assert.ErrorIs(t, err, syscall.EINVAL)

	_, err = f.Write([]byte("no"))
	assert.ErrorIs(t, err, syscall.EBADF)
	_, err = f.Close()
	require.NoError(t, err)
	_, err = f.Close()
	assert.ErrorIs(t, err, syscall.EBADF)
	_, err = f.Read(buf)
	assert.ErrorIs(t, err, syscall.EBADF)
	assert.Equal(t, int64(0), c.Outstanding())
}

func TestSession_OpenFileErrors(t *testing.T) {
	c := newTestCluster(t, "nn1")
	s := connect(t, c)
	_, err := s.CreateDirectory("/dir")
	require.NoError(t, err)
	writeFile(t, s, "/ro", []byte("r"))
	require.NoError(t, c.Chmod("/ro", 0444))

	testCases := []struct {
		name     string
		path     *string
		flags    native.OpenFlags
		expected syscall.Errno
	}{
		{name: "absent path", path: nil, flags: native.OpenRead, expected: syscall.EINVAL},
		{name: "missing file", path: ptr("/missing"), flags: native.OpenRead, expected: syscall.ENOENT},
		{name: "read a directory", path: ptr("/dir"), flags: native.OpenRead, expected: syscall.EISDIR},
		{name: "write a directory", path: ptr("/dir"), flags: native.OpenWrite, expected: syscall.EISDIR},
		{name: "append to a missing file", path: ptr("/missing"), flags: native.OpenAppend, expected: syscall.ENOENT},
		{name: "write a read-only file", path: ptr("/ro"), flags: native.OpenWrite, expected: syscall.EACCES},
		{name: "unknown flags", path: ptr("/ro"), flags: native.OpenFlags(9), expected: syscall.EINVAL},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f, err := s.OpenFile(tc.path, tc.flags, 0, 0, 0)
			assert.Nil(t, f)
			assert.ErrorIs(t, err, tc.expected)
		})
	}

	// a held lease blocks a second writer
	w, err := s.OpenFile(ptr("/leased"), native.OpenWrite, 0, 0, 0)
	require.NoError(t, err)
	_, err = s.OpenFile(ptr("/leased"), native.OpenAppend, 0, 0, 0)
	assert.ErrorIs(t, err, syscall.EBUSY)
	_, err = w.Close()
	require.NoError(t, err)
	assert.Equal(t, int64(0), c.Outstanding())
}

func TestSession_WriterCommitsOnFlush(t *testing.T) {
	s := connect(t, newTestCluster(t, "nn1"))

	w, err := s.OpenFile(ptr("/stream"), native.OpenWrite, 0, 2, 8)
	require.NoError(t, err)
	_, err = w.Write([]byte("0123456789"))
	require.NoError(t, err)

	info, _ := s.GetPathInfo("/stream")
	assert.Equal(t, int64(0), info.Size, "unflushed writes are invisible")

	_, err = w.Flush()
	require.NoError(t, err)
	info, _ = s.GetPathInfo("/stream")
	assert.Equal(t, int64(10), info.Size)
	assert.Equal(t, int16(2), info.Replication)
	assert.Equal(t, int64(8), info.BlockSize)
	_, err = w.Close()
	require.NoError(t, err)
}

func TestSession_GetHosts(t *testing.T) {
	c := newTestCluster(t, "nn1", func(cfg *Config) { cfg.DataNodes = 4 })
	s := connect(t, c)
	writeFile(t, s, "/blocks", bytes.Repeat([]byte("b"), 40)) // blocks at 0, 16, 32

	testCases := []struct {
		name       string
		start, len int64
		blocks     int
	}{
		{name: "whole file", start: 0, len: 40, blocks: 3},
		{name: "inside first block", start: 3, len: 4, blocks: 1},
		{name: "spanning boundary", start: 15, len: 2, blocks: 2},
		{name: "zero length", start: 5, len: 0, blocks: 0},
		{name: "past the end", start: 40, len: 10, blocks: 0},
		{name: "starting at last block", start: 32, len: 100, blocks: 1},
		{name: "unbounded from zero", start: 0, len: math.MaxInt64, blocks: 3},
		{name: "unbounded from middle", start: 17, len: math.MaxInt64, blocks: 2},
		{name: "unbounded past the end", start: 41, len: math.MaxInt64, blocks: 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			hosts, err := s.GetHosts("/blocks", tc.start, tc.len)
			require.NoError(t, err)
			defer hosts.Free()
			require.Len(t, hosts.Blocks(), tc.blocks)
			for _, b := range hosts.Blocks() {
				assert.Len(t, b, 3)
			}
		})
	}

	_, err := s.GetHosts("/blocks", -1, 4)
	assert.ErrorIs(t, err, syscall.EINVAL)
	_, err = s.GetHosts("/", 0, 4)
	assert.ErrorIs(t, err, syscall.EISDIR)
	_, err = s.GetHosts("/missing", 0, 4)
	assert.ErrorIs(t, err, syscall.ENOENT)
	assert.Equal(t, int64(0), c.Outstanding())
}

func TestSession_SetReplication(t *testing.T) {
	c := newTestCluster(t, "nn1", func(cfg *Config) { cfg.DataNodes = 5 })
	s := connect(t, c)
	writeFile(t, s, "/f", bytes.Repeat([]byte("r"), 20))
	assert.Equal(t, int64(20*3), c.used())

	_, err := s.SetReplication("/f", 5)
	require.NoError(t, err)
	info, _ := s.GetPathInfo("/f")
	assert.Equal(t, int16(5), info.Replication)
	assert.Equal(t, int64(20*5), c.used())

	hosts, err := s.GetHosts("/f", 0, 20)
	require.NoError(t, err)
	for _, b := range hosts.Blocks() {
		assert.Len(t, b, 5)
	}
	hosts.Free()

	_, err = s.SetReplication("/f", 1)
	require.NoError(t, err)
	assert.Equal(t, int64(20), c.used())

	_, err = s.SetReplication("/", 2)
	assert.ErrorIs(t, err, syscall.EISDIR)
	_, err = s.SetReplication("/f", 0)
	assert.ErrorIs(t, err, syscall.EINVAL)
}

func TestSession_UnhealthyNodesGetNoReplicas(t *testing.T) {
	c := newTestCluster(t, "nn1", func(cfg *Config) { cfg.DataNodes = 3 })
	require.True(t, c.SetNodeHealth("dn2.nn1", false))
	s := connect(t, c)
	writeFile(t, s, "/f", []byte("data"))

	hosts, err := s.GetHosts("/f", 0, 4)
	require.NoError(t, err)
	defer hosts.Free()
	require.Len(t, hosts.Blocks(), 1)
	assert.ElementsMatch(t, []string{"dn1.nn1", "dn3.nn1"}, hosts.Blocks()[0])
}

func TestSession_CopyAndMove(t *testing.T) {
	a := newTestCluster(t, "nn-a")
	b := newTestCluster(t, "nn-b")
	driver := NewDriver(a, b)
	sa, err := driver.Connect("nn-a", 8020, "alice")
	require.NoError(t, err)
	sb, err := driver.Connect("nn-b", 8020, "bob")
	require.NoError(t, err)

	payload := []byte(gofakeit.Name() + " <" + gofakeit.Email() + ">")
	writeFile(t, sa.(*session), "/src", payload)

	t.Run("copy across clusters", func(t *testing.T) {
		res, err := sa.Copy("/src", sb, "/copy")
		require.NoError(t, err)
		assert.Equal(t, 0, res)
		assert.Equal(t, payload, readFile(t, sb.(*session), "/copy"))
		info, _ := sb.GetPathInfo("/copy")
		assert.Equal(t, "bob", info.Owner)

		_, err = sa.Copy("/src", sb, "/copy")
		assert.ErrorIs(t, err, syscall.EEXIST)
		_, err = sa.Copy("/", sb, "/dir")
		assert.ErrorIs(t, err, syscall.EISDIR)
	})

	t.Run("copy within a cluster", func(t *testing.T) {
		_, err := sa.Copy("/src", sa, "/src-copy")
		require.NoError(t, err)
		assert.Equal(t, payload, readFile(t, sa.(*session), "/src-copy"))
		_, err = sa.Copy("/src", sa, "/src")
		assert.ErrorIs(t, err, syscall.EEXIST)
	})

	t.Run("move rolls back when the source cannot be removed", func(t *testing.T) {
		a.FailNext(OpDelete, syscall.EACCES)
		res, err := sa.Move("/src", sb, "/moved")
		assert.Equal(t, -1, res)
		assert.ErrorIs(t, err, syscall.EACCES)

		res, _ = sa.Exists("/src")
		assert.Equal(t, 0, res)
		res, _ = sb.Exists("/moved")
		assert.Equal(t, -1, res)
	})

	t.Run("move across clusters", func(t *testing.T) {
		before, _ := sa.GetPathInfo("/src")
		_, err := sa.Move("/src", sb, "/moved")
		require.NoError(t, err)

		res, _ := sa.Exists("/src")
		assert.Equal(t, -1, res)
		after, err := sb.GetPathInfo("/moved")
		require.NoError(t, err)
		before.Name = after.Name
		assert.Equal(t, *before, *after)
	})

	t.Run("move within a cluster renames", func(t *testing.T) {
		_, err := sb.Move("/moved", sb, "/moved-again")
		require.NoError(t, err)
		res, _ := sb.Exists("/moved-again")
		assert.Equal(t, 0, res)
	})

	t.Run("foreign sessions are rejected", func(t *testing.T) {
		_, err := sa.Copy("/src-copy", &native.MockSession{}, "/x")
		assert.ErrorIs(t, err, syscall.ENOTSUP)
	})
}

func TestCluster_FailNextQueues(t *testing.T) {
	c := newTestCluster(t, "nn1")
	s := connect(t, c)
	c.FailNext(OpGetCapacity, syscall.EIO)
	c.FailNext(OpGetCapacity, syscall.ENOTCONN)

	_, err := s.GetCapacity()
	assert.ErrorIs(t, err, syscall.EIO)
	_, err = s.GetCapacity()
	assert.ErrorIs(t, err, syscall.ENOTCONN)
	capacity, err := s.GetCapacity()
	require.NoError(t, err)
	assert.Equal(t, int64(3<<20), capacity)

	size, err := s.GetDefaultBlockSize()
	require.NoError(t, err)
	assert.Equal(t, int64(16), size)
}

// Package memfs is an in-memory distributed filesystem that speaks the
// pkg/native calling convention. A Cluster simulates one namenode with a set
// of datanodes; blocks are cut at the file's block size, placed on the least
// used healthy datanodes and stored, checksummed, in an afero filesystem.
//
// Sessions and clusters are safe for concurrent use. Files are not.
package memfs

import (
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/mochivi/dfs-facade/internal/storage/block"
	"github.com/mochivi/dfs-facade/pkg/logging"
	"github.com/mochivi/dfs-facade/pkg/native"
	"github.com/spf13/afero"
)

// Op names a native call for fault injection.
type Op string

const (
	OpConnect             Op = "connect"
	OpDisconnect          Op = "disconnect"
	OpExists              Op = "exists"
	OpDelete              Op = "delete"
	OpRename              Op = "rename"
	OpCopy                Op = "copy"
	OpMove                Op = "move"
	OpGetWorkingDirectory Op = "get_working_directory"
	OpSetWorkingDirectory Op = "set_working_directory"
	OpCreateDirectory     Op = "create_directory"
	OpSetReplication      Op = "set_replication"
	OpListDirectory       Op = "list_directory"
	OpGetPathInfo         Op = "get_path_info"
	OpGetHosts            Op = "get_hosts"
	OpOpenFile            Op = "open_file"
	OpRead                Op = "read"
	OpPread               Op = "pread"
	OpWrite               Op = "write"
	OpFlush               Op = "flush"
	OpSeek                Op = "seek"
	OpTell                Op = "tell"
	OpAvailable           Op = "available"
	OpClose               Op = "close"
	OpGetDefaultBlockSize Op = "get_default_block_size"
	OpGetCapacity         Op = "get_capacity"
	OpGetUsed             Op = "get_used"
)

type Option func(*Cluster)

func WithLogger(logger *slog.Logger) Option {
	return func(c *Cluster) { c.logger = logger }
}

// WithClock overrides the time source used for access and modification times.
func WithClock(clock func() time.Time) Option {
	return func(c *Cluster) { c.clock = clock }
}

// WithBlockFs stores block payloads in fs instead of the default.
func WithBlockFs(fs afero.Fs) Option {
	return func(c *Cluster) { c.blockFs = fs }
}

type Cluster struct {
	cfg      Config
	endpoint string

	mu       sync.RWMutex
	root     *inode
	nodes    []*dataNode
	selector *nodeSelector
	store    block.Store

	faultMu sync.Mutex
	faults  map[Op][]syscall.Errno

	outstanding atomic.Int64
	doubleFrees atomic.Int64

	blockFs afero.Fs
	clock   func() time.Time
	logger  *slog.Logger
}

func NewCluster(cfg Config, opts ...Option) (*Cluster, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if cfg.DefaultUser == "" {
		cfg.DefaultUser = "hdfs"
	}
	if cfg.DefaultGroup == "" {
		cfg.DefaultGroup = "supergroup"
	}

	c := &Cluster{
		cfg:      cfg,
		endpoint: net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		faults:   make(map[Op][]syscall.Errno),
		clock:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = logging.ComponentLogger(c.logger, "memfs", slog.String("endpoint", c.endpoint))

	rootDir := "/blocks"
	if c.blockFs == nil {
		if cfg.StorageDir != "" {
			c.blockFs = afero.NewBasePathFs(afero.NewOsFs(), cfg.StorageDir)
			rootDir = "/"
		} else {
			c.blockFs = afero.NewMemMapFs()
		}
	}
	store, err := block.NewAferoStore(c.blockFs, rootDir, c.logger)
	if err != nil {
		return nil, fmt.Errorf("memfs: %w", err)
	}
	c.store = store

	for i := 0; i < cfg.DataNodes; i++ {
		c.nodes = append(c.nodes, &dataNode{
			id:       uuid.NewString(),
			host:     fmt.Sprintf("dn%d.%s", i+1, cfg.Host),
			capacity: cfg.NodeCapacity,
			healthy:  true,
		})
	}
	c.selector = newNodeSelector(func() []*dataNode { return c.nodes })
	c.root = c.newInode("", native.KindDirectory, cfg.DefaultUser, 0755)

	return c, nil
}

func (c *Cluster) Endpoint() string { return c.endpoint }
func (c *Cluster) Config() Config   { return c.cfg }

// Outstanding returns the number of listings, host arrays and open files
// handed out and not yet released.
func (c *Cluster) Outstanding() int64 { return c.outstanding.Load() }

// DoubleFrees returns how many times an already released resource was
// released again.
func (c *Cluster) DoubleFrees() int64 { return c.doubleFrees.Load() }

// FailNext makes the next call of op fail with errno. Calls queue up.
func (c *Cluster) FailNext(op Op, errno syscall.Errno) {
	c.faultMu.Lock()
	defer c.faultMu.Unlock()
	c.faults[op] = append(c.faults[op], errno)
}

func (c *Cluster) fault(op Op) syscall.Errno {
	c.faultMu.Lock()
	defer c.faultMu.Unlock()

	queued := c.faults[op]
	if len(queued) == 0 {
		return 0
	}
	c.faults[op] = queued[1:]
	c.logger.Debug("injected fault", slog.String("op", string(op)), slog.String("errno", queued[0].Error()))
	return queued[0]
}

// DataNodes returns a snapshot of the cluster's datanodes.
func (c *Cluster) DataNodes() []DataNodeInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()

	infos := make([]DataNodeInfo, 0, len(c.nodes))
	for _, n := range c.nodes {
		infos = append(infos, DataNodeInfo{ID: n.id, Host: n.host, Capacity: n.capacity, Used: n.used, Healthy: n.healthy})
	}
	return infos
}

// SetNodeHealth marks the datanode with the given host healthy or not.
// Unhealthy nodes keep their replicas but receive no new ones.
func (c *Cluster) SetNodeHealth(host string, healthy bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, n := range c.nodes {
		if n.host == host {
			n.healthy = healthy
			return true
		}
	}
	return false
}

// Chmod changes the permission bits of path, resolved from the root.
func (c *Cluster) Chmod(path string, perm int16) error {
	abs, errno := resolve("/", path)
	if errno != 0 {
		return errno
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	n, errno := c.lookup(abs)
	if errno != 0 {
		return errno
	}
	n.perm = perm
	return nil
}

func (c *Cluster) capacity() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var total int64
	for _, n := range c.nodes {
		total += n.capacity
	}
	return total
}

func (c *Cluster) used() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var total int64
	for _, n := range c.nodes {
		total += n.used
	}
	return total
}

func (c *Cluster) now() int64 {
	return c.clock().Unix()
}

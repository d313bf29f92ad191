package dfs

import (
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"sync"

	"github.com/google/uuid"
	"github.com/mochivi/dfs-facade/pkg/logging"
	"github.com/mochivi/dfs-facade/pkg/native"
)

type options struct {
	user   string
	logger *slog.Logger
}

// Option configures Connect.
type Option func(*options)

// WithUser connects as the given user instead of the driver's default.
func WithUser(user string) Option {
	return func(o *options) { o.user = user }
}

// WithLogger sets the logger used for diagnostics. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// Connection owns one live native session to a filesystem endpoint.
//
// A Connection is safe for concurrent use when its native session is. The
// lifecycle is guarded here: in-flight calls hold a read lock, Disconnect
// takes the write lock, and every call after Disconnect fails with a
// KindConnection error wrapping ErrDisconnected.
type Connection struct {
	id       string
	host     string
	port     int
	endpoint string

	mu      sync.RWMutex
	session native.Session
	closed  bool

	logger *slog.Logger
}

// Connect opens a session to host:port through driver.
func Connect(driver native.Driver, host string, port int, opts ...Option) (*Connection, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	endpoint := net.JoinHostPort(host, strconv.Itoa(port))
	oc := opContext{kind: KindConnection, op: "connect"}
	if driver == nil {
		return nil, newError(endpoint, oc, ErrNilDriver)
	}

	session, errno := driver.Connect(host, port, o.user)
	if session == nil {
		return nil, newError(endpoint, oc, cause(errno))
	}

	id := uuid.NewString()
	c := &Connection{
		id:       id,
		host:     host,
		port:     port,
		endpoint: endpoint,
		session:  session,
		logger: logging.ComponentLogger(o.logger, "dfs",
			slog.String("conn_id", id),
			slog.String("host", endpoint),
		),
	}
	c.logger.Debug("connected")
	return c, nil
}

// Disconnect releases the native session. It is not idempotent: a second
// call fails with a KindConnection error.
func (c *Connection) Disconnect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	oc := opContext{kind: KindConnection, op: "disconnect"}
	if c.closed {
		return c.fail(oc, ErrDisconnected)
	}

	// The session is unusable after a release attempt, successful or not.
	c.closed = true
	res, errno := c.session.Disconnect()
	if _, err := trapInt(c, res, errno, oc); err != nil {
		return err
	}
	c.logger.Debug("disconnected")
	return nil
}

// live must be called with c.mu held.
func (c *Connection) live(oc opContext) error {
	if c.closed {
		return newError(c.endpoint, oc, ErrDisconnected)
	}
	return nil
}

func (c *Connection) ID() string       { return c.id }
func (c *Connection) Host() string     { return c.host }
func (c *Connection) Port() int        { return c.port }
func (c *Connection) Endpoint() string { return c.endpoint }

func (c *Connection) String() string {
	return fmt.Sprintf("Connection{ID: %s, Endpoint: %s}", c.id, c.endpoint)
}

// Closed reports whether Disconnect has been called.
func (c *Connection) Closed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

// FileSystemStats are filesystem-wide scalars. They are fetched on demand and
// never cached.
type FileSystemStats struct {
	DefaultBlockSize int64 `json:"default_block_size" yaml:"default_block_size"`
	Capacity         int64 `json:"capacity" yaml:"capacity"`
	Used             int64 `json:"used" yaml:"used"`
}

func (c *Connection) scalar(op string, call func(native.Session) (int64, error)) (int64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	oc := opContext{kind: KindStat, op: op}
	if err := c.live(oc); err != nil {
		return 0, err
	}
	res, errno := call(c.session)
	return trapInt(c, res, errno, oc)
}

// DefaultBlockSize returns the filesystem's default block size in bytes.
func (c *Connection) DefaultBlockSize() (int64, error) {
	return c.scalar("get_default_block_size", native.Session.GetDefaultBlockSize)
}

// Capacity returns the raw capacity of the filesystem in bytes.
func (c *Connection) Capacity() (int64, error) {
	return c.scalar("get_capacity", native.Session.GetCapacity)
}

// Used returns the bytes used across the filesystem.
func (c *Connection) Used() (int64, error) {
	return c.scalar("get_used", native.Session.GetUsed)
}

// Stats fetches the three scalars in turn; the first failure is returned.
func (c *Connection) Stats() (FileSystemStats, error) {
	var stats FileSystemStats
	var err error
	if stats.DefaultBlockSize, err = c.DefaultBlockSize(); err != nil {
		return FileSystemStats{}, err
	}
	if stats.Capacity, err = c.Capacity(); err != nil {
		return FileSystemStats{}, err
	}
	if stats.Used, err = c.Used(); err != nil {
		return FileSystemStats{}, err
	}
	return stats, nil
}

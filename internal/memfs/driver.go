package memfs

import (
	"log/slog"
	"net"
	"strconv"
	"sync"
	"syscall"

	"github.com/mochivi/dfs-facade/pkg/native"
)

// Driver connects to registered clusters by endpoint.
type Driver struct {
	mu       sync.RWMutex
	clusters map[string]*Cluster
}

func NewDriver(clusters ...*Cluster) *Driver {
	d := &Driver{clusters: make(map[string]*Cluster)}
	for _, c := range clusters {
		d.Register(c)
	}
	return d
}

// Register makes c reachable at its endpoint, replacing any previous cluster
// there.
func (d *Driver) Register(c *Cluster) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.clusters[c.endpoint] = c
}

// Connect opens a session. Unknown endpoints fail with ECONNREFUSED. An empty
// user selects the cluster's default user.
func (d *Driver) Connect(host string, port int, user string) (native.Session, error) {
	d.mu.RLock()
	c, ok := d.clusters[net.JoinHostPort(host, strconv.Itoa(port))]
	d.mu.RUnlock()
	if !ok {
		return nil, syscall.ECONNREFUSED
	}
	if errno := c.fault(OpConnect); errno != 0 {
		return nil, errno
	}

	if user == "" {
		user = c.cfg.DefaultUser
	}
	c.logger.Debug("session opened", slog.String("user", user))
	return &session{cluster: c, user: user, cwd: "/"}, nil
}

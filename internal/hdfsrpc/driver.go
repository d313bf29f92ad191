// Package hdfsrpc implements the native client API over a real HDFS NameNode,
// using the colinmarc/hdfs RPC client for namespace and stream operations and
// the NameNode's WebHDFS endpoint for block locations and replication.
//
// Sessions are safe for concurrent use. Files are not.
package hdfsrpc

import (
	"log/slog"
	"net"
	"net/http"
	"os/user"
	"path"
	"strconv"

	"github.com/colinmarc/hdfs/v2"
	"github.com/mochivi/dfs-facade/pkg/logging"
	"github.com/mochivi/dfs-facade/pkg/native"
)

type Option func(*Driver)

// WithWebHDFS sets the host:port of the NameNode's HTTP endpoint. Without it
// GetHosts and SetReplication fail with ENOSYS.
func WithWebHDFS(address string) Option {
	return func(d *Driver) { d.webAddress = address }
}

func WithHTTPClient(client *http.Client) Option {
	return func(d *Driver) { d.httpClient = client }
}

func WithLogger(logger *slog.Logger) Option {
	return func(d *Driver) { d.logger = logger }
}

// Driver dials HDFS NameNodes.
type Driver struct {
	webAddress string
	httpClient *http.Client
	logger     *slog.Logger

	dial func(hdfs.ClientOptions) (namenode, error)
}

var _ native.Driver = (*Driver)(nil)

func NewDriver(opts ...Option) *Driver {
	d := &Driver{dial: dialRPC}
	for _, opt := range opts {
		opt(d)
	}
	d.logger = logging.ComponentLogger(d.logger, "hdfsrpc")
	return d
}

// Connect dials host:port as user, or as the current OS user when user is
// empty. The session starts in /user/<name>.
func (d *Driver) Connect(host string, port int, userName string) (native.Session, error) {
	if userName == "" {
		u, err := user.Current()
		if err != nil {
			return nil, errnoOf(err)
		}
		userName = u.Username
	}

	endpoint := net.JoinHostPort(host, strconv.Itoa(port))
	client, err := d.dial(hdfs.ClientOptions{Addresses: []string{endpoint}, User: userName})
	if err != nil {
		d.logger.Debug("dial failed", slog.String("endpoint", endpoint), slog.String("error", err.Error()))
		return nil, errnoOf(err)
	}

	defaults, err := client.Defaults()
	if err != nil {
		client.Close()
		return nil, errnoOf(err)
	}

	s := &session{
		client:   client,
		endpoint: endpoint,
		user:     userName,
		defaults: defaults,
		cwd:      path.Join("/user", userName),
		logger:   logging.ExtendLogger(d.logger, slog.String("endpoint", endpoint), slog.String("user", userName)),
	}
	if d.webAddress != "" {
		s.web = newWebHDFS(d.webAddress, userName, d.httpClient)
	}
	s.logger.Info("connected")
	return s, nil
}

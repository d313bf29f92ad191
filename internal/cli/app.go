// Package cli implements dfsctl, a command line client over the dfs facade.
package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mochivi/dfs-facade/internal/config"
	"github.com/mochivi/dfs-facade/internal/hdfsrpc"
	"github.com/mochivi/dfs-facade/internal/memfs"
	"github.com/mochivi/dfs-facade/pkg/apperr"
	"github.com/mochivi/dfs-facade/pkg/dfs"
	"github.com/mochivi/dfs-facade/pkg/logging"
	"github.com/mochivi/dfs-facade/pkg/native"
	"github.com/spf13/cobra"
)

// app holds what every command shares: flags, loaded config and the driver.
type app struct {
	configPath string
	backend    string
	host       string
	port       int
	user       string
	output     string

	cfg    *config.AppConfig
	logger *slog.Logger

	// driver is built from the config on first use unless set beforehand.
	driver native.Driver
}

func newApp(driver native.Driver) *app {
	return &app{driver: driver}
}

// NewRootCommand builds the dfsctl command tree.
func NewRootCommand() *cobra.Command {
	return newApp(nil).rootCommand()
}

// Execute runs dfsctl with os.Args.
func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}

// ExitCode maps an Execute error to a process exit status. Filesystem
// failures exit with their canonical gRPC code, so scripts can tell a missing
// path (5) from a conflict (6); anything else exits with 1.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case dfs.KindOf(err) == dfs.KindUnknown:
		return 1
	default:
		return int(apperr.CodeOf(err))
	}
}

func (a *app) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "dfsctl",
		Short: "Inspect and manipulate a distributed filesystem",
		Long: `dfsctl talks to an HDFS NameNode, or to an in-process memfs cluster, through
the dfs client facade.

Configuration comes from ./dfsctl.yaml (or --config), DFS_* environment
variables and the global flags, in increasing order of precedence.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}
	root.CompletionOptions.DisableDefaultCmd = true

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "config file (default ./dfsctl.yaml)")
	pf.StringVar(&a.backend, "backend", "", "filesystem backend: memfs or hdfs")
	pf.StringVar(&a.host, "host", "", "namenode host")
	pf.IntVar(&a.port, "port", 0, "namenode port")
	pf.StringVar(&a.user, "user", "", "connect as this user")
	pf.StringVarP(&a.output, "output", "o", formatText, "output format: text, json or yaml")

	root.AddCommand(
		a.lsCommand(),
		a.statCommand(),
		a.infoCommand(),
		a.mkdirCommand(),
		a.rmCommand(),
		a.mvCommand(),
		a.cpCommand(),
		a.renameCommand(),
		a.pwdCommand(),
		a.setrepCommand(),
		a.catCommand(),
		a.putCommand(),
		a.hostsCommand(),
		a.dfCommand(),
		a.splitsCommand(),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command, args []string) error {
	switch a.output {
	case formatText, formatJSON, formatYAML:
	default:
		return fmt.Errorf("invalid output format %q", a.output)
	}

	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("backend") {
		cfg.Connection.Backend = a.backend
	}
	if flags.Changed("host") {
		cfg.Connection.Host = a.host
	}
	if flags.Changed("port") {
		cfg.Connection.Port = a.port
	}
	if flags.Changed("user") {
		cfg.Connection.User = a.user
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}

	// the level defaults to LOG_LEVEL through the config defaults
	logger, err := logging.InitLoggerWithLevel(cmd.ErrOrStderr(), cfg.Logging.Level)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = logging.ComponentLogger(logger, "dfsctl")
	cmd.SetContext(logging.WithLogger(cmd.Context(), a.logger))
	return nil
}

func (a *app) buildDriver() (native.Driver, error) {
	if a.driver != nil {
		return a.driver, nil
	}

	conn := a.cfg.Connection
	switch conn.Backend {
	case config.BackendMemfs:
		mc := memfs.DefaultConfig()
		mc.Host = conn.Host
		mc.Port = conn.Port
		mc.DataNodes = a.cfg.Memfs.DataNodes
		mc.BlockSize = a.cfg.Memfs.BlockSize
		mc.Replication = a.cfg.Memfs.Replication
		mc.NodeCapacity = a.cfg.Memfs.NodeCapacity
		mc.StorageDir = a.cfg.Memfs.StorageDir
		cluster, err := memfs.NewCluster(mc, memfs.WithLogger(a.logger))
		if err != nil {
			return nil, err
		}
		a.driver = memfs.NewDriver(cluster)

	case config.BackendHDFS:
		opts := []hdfsrpc.Option{hdfsrpc.WithLogger(a.logger)}
		if conn.WebHDFSAddress != "" {
			opts = append(opts, hdfsrpc.WithWebHDFS(conn.WebHDFSAddress))
		}
		a.driver = hdfsrpc.NewDriver(opts...)

	default:
		return nil, fmt.Errorf("unknown backend %q", conn.Backend)
	}
	return a.driver, nil
}

// withConnection connects, runs fn and disconnects, joining a disconnect
// failure onto fn's result.
func (a *app) withConnection(cmd *cobra.Command, fn func(conn *dfs.Connection) error) error {
	driver, err := a.buildDriver()
	if err != nil {
		return err
	}
	conn, err := connect(cmd.Context(), driver, a.cfg.Connection, a.logger)
	if err != nil {
		return err
	}

	err = fn(conn)
	if derr := conn.Disconnect(); derr != nil {
		err = errors.Join(err, derr)
	}
	return err
}

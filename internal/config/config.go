package config

import (
	"time"

	"github.com/mochivi/dfs-facade/pkg/utils"
)

const (
	BackendMemfs = "memfs"
	BackendHDFS  = "hdfs"
)

// AppConfig is the root configuration of dfsctl.
// It is intended to be used with a library like Viper.
type AppConfig struct {
	Connection ConnectionConfig `mapstructure:"connection"`
	Memfs      MemfsConfig      `mapstructure:"memfs"`
	Locality   LocalityConfig   `mapstructure:"locality"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

type ConnectionConfig struct {
	Backend string `mapstructure:"backend" validate:"required,oneof=memfs hdfs"`
	Host    string `mapstructure:"host" validate:"required,hostname_rfc1123|ip"`
	Port    int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	User    string `mapstructure:"user"`

	// host:port of the NameNode's HTTP endpoint; block locations and
	// replication changes on the hdfs backend go through it
	WebHDFSAddress string `mapstructure:"webhdfs_address" validate:"omitempty,hostname_port"`

	ConnectRetry RetryConfig `mapstructure:"connect_retry"`
}

type RetryConfig struct {
	Attempts uint          `mapstructure:"attempts" validate:"gte=1,lte=20"`
	Delay    time.Duration `mapstructure:"delay" validate:"gt=0"`
}

// MemfsConfig shapes the in-process cluster used by the memfs backend.
type MemfsConfig struct {
	DataNodes    int    `mapstructure:"datanodes" validate:"gte=1"`
	BlockSize    int64  `mapstructure:"block_size" validate:"gt=0"`
	Replication  int16  `mapstructure:"replication" validate:"gte=1"`
	NodeCapacity int64  `mapstructure:"node_capacity" validate:"gt=0"`
	StorageDir   string `mapstructure:"storage_dir"` // empty keeps blocks in memory
}

type LocalityConfig struct {
	SplitSize   int64 `mapstructure:"split_size" validate:"gt=0"`
	Concurrency int   `mapstructure:"concurrency" validate:"gte=1,lte=256"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level" validate:"required,oneof=debug info warn error DEBUG INFO WARN ERROR"`
}

func DefaultAppConfig() AppConfig {
	return AppConfig{
		Connection: ConnectionConfig{
			Backend: BackendMemfs,
			Host:    "localhost",
			Port:    8020,
			ConnectRetry: RetryConfig{
				Attempts: 3,
				Delay:    200 * time.Millisecond,
			},
		},
		Memfs: MemfsConfig{
			DataNodes:    3,
			BlockSize:    128 * 1024 * 1024,
			Replication:  3,
			NodeCapacity: 64 * 1024 * 1024 * 1024, // gB
		},
		Locality: LocalityConfig{
			SplitSize:   128 * 1024 * 1024,
			Concurrency: 8,
		},
		Logging: LoggingConfig{
			Level: utils.GetEnvString("LOG_LEVEL", "warn"),
		},
	}
}

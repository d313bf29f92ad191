package memfs

import (
	"fmt"
)

// Config describes one in-memory cluster.
type Config struct {
	Host         string
	Port         int
	DataNodes    int
	BlockSize    int64
	Replication  int16
	NodeCapacity int64

	// StorageDir keeps block payloads on disk under this directory. Empty
	// keeps them in memory.
	StorageDir string

	DefaultUser  string
	DefaultGroup string
}

func DefaultConfig() Config {
	return Config{
		Host:         "localhost",
		Port:         8020,
		DataNodes:    3,
		BlockSize:    128 * 1024 * 1024,
		Replication:  3,
		NodeCapacity: 64 * 1024 * 1024 * 1024,
		DefaultUser:  "hdfs",
		DefaultGroup: "supergroup",
	}
}

func (c Config) validate() error {
	switch {
	case c.Host == "":
		return fmt.Errorf("memfs: host is required")
	case c.Port <= 0 || c.Port > 65535:
		return fmt.Errorf("memfs: invalid port %d", c.Port)
	case c.DataNodes < 1:
		return fmt.Errorf("memfs: at least one datanode is required")
	case c.BlockSize <= 0:
		return fmt.Errorf("memfs: block size must be positive")
	case c.Replication < 1:
		return fmt.Errorf("memfs: replication must be at least 1")
	case c.NodeCapacity <= 0:
		return fmt.Errorf("memfs: node capacity must be positive")
	}
	return nil
}

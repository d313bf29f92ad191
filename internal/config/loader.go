package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// validate is the singleton validator instance
var validate = validator.New()

// Load reads configuration from path, or from an optional dfsctl.yaml in the
// working directory when path is empty, then applies DFS_* environment
// overrides (DFS_CONNECTION_HOST, DFS_MEMFS_BLOCK_SIZE, ...).
func Load(path string) (*AppConfig, error) {
	v := viper.New()
	setDefaults(v, DefaultAppConfig())

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("dfsctl")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	// Configure environment variable reading
	v.SetEnvPrefix("DFS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

// setDefaults registers every leaf key so AutomaticEnv can override nested
// values during Unmarshal.
func setDefaults(v *viper.Viper, d AppConfig) {
	v.SetDefault("connection.backend", d.Connection.Backend)
	v.SetDefault("connection.host", d.Connection.Host)
	v.SetDefault("connection.port", d.Connection.Port)
	v.SetDefault("connection.user", d.Connection.User)
	v.SetDefault("connection.webhdfs_address", d.Connection.WebHDFSAddress)
	v.SetDefault("connection.connect_retry.attempts", d.Connection.ConnectRetry.Attempts)
	v.SetDefault("connection.connect_retry.delay", d.Connection.ConnectRetry.Delay)

	v.SetDefault("memfs.datanodes", d.Memfs.DataNodes)
	v.SetDefault("memfs.block_size", d.Memfs.BlockSize)
	v.SetDefault("memfs.replication", d.Memfs.Replication)
	v.SetDefault("memfs.node_capacity", d.Memfs.NodeCapacity)
	v.SetDefault("memfs.storage_dir", d.Memfs.StorageDir)

	v.SetDefault("locality.split_size", d.Locality.SplitSize)
	v.SetDefault("locality.concurrency", d.Locality.Concurrency)

	v.SetDefault("logging.level", d.Logging.Level)
}

// Validate runs the struct tag rules plus the cross-field ones tags cannot
// express.
func Validate(cfg *AppConfig) error {
	if err := validate.Struct(cfg); err != nil {
		return formatValidationError(err)
	}

	if cfg.Connection.Backend == BackendMemfs && int(cfg.Memfs.Replication) > cfg.Memfs.DataNodes {
		return fmt.Errorf("memfs: replication %d exceeds datanodes %d", cfg.Memfs.Replication, cfg.Memfs.DataNodes)
	}
	return nil
}

// formatValidationError reports the first failed rule with its field path.
func formatValidationError(err error) error {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) && len(validationErrs) > 0 {
		e := validationErrs[0]
		return fmt.Errorf("%s: validation failed on '%s' tag (value: %v)", e.Namespace(), e.Tag(), e.Value())
	}
	return err
}

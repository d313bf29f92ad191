package cli

import (
	"context"
	"errors"
	"log/slog"
	"syscall"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/mochivi/dfs-facade/internal/config"
	"github.com/mochivi/dfs-facade/pkg/dfs"
	"github.com/mochivi/dfs-facade/pkg/native"
)

const maxConnectDelay = 5 * time.Second

// connectRetryOptions retries transient connect failures with exponential
// backoff. The facade never retries on its own.
func connectRetryOptions(ctx context.Context, cfg config.RetryConfig, logger *slog.Logger) []retry.Option {
	return []retry.Option{
		retry.Attempts(cfg.Attempts),
		retry.Delay(cfg.Delay),
		retry.MaxDelay(maxConnectDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.RetryIf(isTransientConnectError),
		retry.LastErrorOnly(true),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, err error) {
			logger.Warn("connect failed, retrying", slog.Uint64("attempt", uint64(n+1)), slog.String("error", err.Error()))
		}),
	}
}

func isTransientConnectError(err error) bool {
	if dfs.KindOf(err) != dfs.KindConnection {
		return false
	}
	return errors.Is(err, native.ECONNREFUSED) ||
		errors.Is(err, syscall.ETIMEDOUT) ||
		errors.Is(err, syscall.EAGAIN)
}

func connect(ctx context.Context, driver native.Driver, cfg config.ConnectionConfig, logger *slog.Logger) (*dfs.Connection, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	return retry.DoWithData(func() (*dfs.Connection, error) {
		return dfs.Connect(driver, cfg.Host, cfg.Port, dfs.WithUser(cfg.User), dfs.WithLogger(logger))
	}, connectRetryOptions(ctx, cfg.ConnectRetry, logger)...)
}

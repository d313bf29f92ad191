package utils

import (
	"log/slog"
	"os"
	"strconv"
	"time"
)

func GetEnvString(key string, fallback string) string {
	val, ok := os.LookupEnv(key)
	if !ok {
		slog.Debug("environment variable not set, using default", slog.String("key", key), slog.String("default", fallback))
		return fallback
	}

	return val
}

func GetEnvInt(key string, fallback int) int {
	val, ok := os.LookupEnv(key)
	if !ok {
		slog.Debug("environment variable not set, using default", slog.String("key", key), slog.Int("default", fallback))
		return fallback
	}

	valAsInt, err := strconv.Atoi(val)
	if err != nil {
		slog.Warn("environment variable not an integer, using default", slog.String("key", key), slog.Int("default", fallback))
		return fallback
	}

	return valAsInt
}

func GetEnvBool(key string, fallback bool) bool {
	val, ok := os.LookupEnv(key)
	if !ok {
		slog.Debug("environment variable not set, using default", slog.String("key", key), slog.Bool("default", fallback))
		return fallback
	}

	boolVal, err := strconv.ParseBool(val)
	if err != nil {
		slog.Warn("environment variable not a bool, using default", slog.String("key", key), slog.Bool("default", fallback))
		return fallback
	}

	return boolVal
}

func GetEnvDuration(key string, fallback time.Duration) time.Duration {
	val, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}

	d, err := time.ParseDuration(val)
	if err != nil {
		slog.Warn("environment variable not a duration, using default", slog.String("key", key), slog.Duration("default", fallback))
		return fallback
	}

	return d
}

// Package config reads service configuration from the environment.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type InvalidationCfg struct {
	Enabled bool
	Driver  string
	Topic   string
	Brokers string
	GroupID string
}

type Config struct {
	Addr     string
	LogLevel string

	// Scheme and Precision are the defaults applied when a request leaves
	// them out.
	Scheme    string
	Precision int

	// CoverMaxCells is the default covering size when a request leaves
	// max_cells out; CoverMaxCellsLimit caps what a request may ask for.
	CoverMaxCells      int
	CoverMaxCellsLimit int

	RedisAddr      string
	CacheOpTimeout time.Duration
	CacheTTL       time.Duration
	CacheLRUSize   int

	Invalidation InvalidationCfg
}

func FromEnv() Config {
	precision := getint("PRECISION", 8)
	if precision < 0 {
		precision = 0
	}

	return Config{
		Addr:      getenv("ADDR", ":8090"),
		LogLevel:  getenv("LOG_LEVEL", "info"),
		Scheme:    getenv("SCHEME", "h3"),
		Precision: precision,

		CoverMaxCells:      getint("COVER_MAX_CELLS", 256),
		CoverMaxCellsLimit: getint("COVER_MAX_CELLS_LIMIT", 4096),

		RedisAddr:      getenv("REDIS_ADDR", ""),
		CacheOpTimeout: getduration("CACHE_OP_TIMEOUT", 250*time.Millisecond),
		CacheTTL:       getduration("CACHE_TTL", 5*time.Minute),
		CacheLRUSize:   getint("CACHE_LRU_SIZE", 4096),

		Invalidation: InvalidationCfg{
			Enabled: getbool("INVALIDATION_ENABLED", false),
			Driver:  getenv("INVALIDATION_DRIVER", "none"),
			Topic:   getenv("KAFKA_TOPIC", "cell-invalidation"),
			Brokers: getenv("KAFKA_BROKERS", "localhost:9092"),
			GroupID: getenv("KAFKA_GROUP_ID", "covering-invalidator"),
		},
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getint(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v := os.Getenv(k); v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "t", "true", "y", "yes":
			return true
		case "0", "f", "false", "n", "no":
			return false
		}
	}
	return def
}

func getduration(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

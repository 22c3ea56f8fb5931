package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/open-spatial/geocell/internal/cache/coverindex"
	"github.com/open-spatial/geocell/internal/cache/redisstore"
	"github.com/open-spatial/geocell/internal/config"
	"github.com/open-spatial/geocell/internal/cover"
	"github.com/open-spatial/geocell/internal/health"
	"github.com/open-spatial/geocell/internal/index"
	"github.com/open-spatial/geocell/internal/invalidation/kafka"
	"github.com/open-spatial/geocell/internal/logger"
	"github.com/open-spatial/geocell/internal/model"
	"github.com/open-spatial/geocell/internal/observability"
	"github.com/open-spatial/geocell/internal/router"
	"github.com/open-spatial/geocell/internal/server"
)

var Version = "dev"

func main() {
	os.Exit(run())
}

func envInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

// codecCoverer resolves bbox invalidation events to cell tokens.
type codecCoverer struct {
	maxCells int
}

func (c codecCoverer) Cover(scheme string, box model.BBox, precision int) ([]string, error) {
	codec, err := index.Lookup(scheme)
	if err != nil {
		return nil, err
	}
	if precision > codec.MaxPrecision() {
		precision = codec.MaxPrecision()
	}
	cov, err := codec.CellsForBBox(box, precision, cover.Options{MaxCells: c.maxCells})
	if err != nil {
		return nil, err
	}
	return cov.Tokens, nil
}

func run() int {
	_ = godotenv.Load()
	cfg := config.FromEnv()

	zl := logger.Build(logger.Config{
		Level:     cfg.LogLevel,
		Console:   strings.ToLower(os.Getenv("LOG_CONSOLE")) == "true",
		SampleN:   envInt("LOG_SAMPLE_N", 0),
		Component: "geocell",
	}, os.Stdout)
	appLog := logger.NewSlog(&zl)

	observability.ExposeBuildInfo(Version)
	appLog.Info("starting geocell",
		"addr", cfg.Addr,
		"version", Version,
		"scheme", cfg.Scheme,
		"precision", cfg.Precision)

	if _, err := index.Lookup(cfg.Scheme); err != nil {
		appLog.Error("bad default scheme", "scheme", cfg.Scheme, "err", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var cli *redisstore.Client
	if cfg.RedisAddr != "" {
		c, err := redisstore.New(ctx, cfg.RedisAddr)
		if err != nil {
			appLog.Error("redis connect failed", "addr", cfg.RedisAddr, "err", err)
			return 1
		}
		defer func() { _ = c.Close() }()
		cli = c
		appLog.Info("covering cache backed by redis", "addr", cfg.RedisAddr)
	} else {
		appLog.Info("covering cache is in-process only")
	}

	store, err := coverindex.New(cli, cfg.CacheLRUSize, cfg.CacheTTL, cfg.CacheOpTimeout, appLog)
	if err != nil {
		appLog.Error("covering cache setup failed", "err", err)
		return 1
	}

	api := router.New(appLog, cfg, store)

	kcfg := kafka.ConfigFrom(cfg.Invalidation)
	runner := kafka.New(kcfg, store, codecCoverer{maxCells: cfg.CoverMaxCells}, kafka.Options{
		Logger:   appLog,
		Register: prometheus.DefaultRegisterer,
	})
	if err := runner.Start(ctx); err != nil {
		appLog.Error("invalidation runner start failed", "err", err)
		return 1
	}
	defer runner.Stop()

	var reporters []health.ReadinessReporter
	if kcfg.Enabled && kcfg.Driver == kafka.DriverKafka {
		reporters = append(reporters, runner)
	}

	if err := server.Run(ctx, cfg, appLog, api, reporters...); err != nil {
		appLog.Error("server error", "err", err)
		return 1
	}
	return 0
}

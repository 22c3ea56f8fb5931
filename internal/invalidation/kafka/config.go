package kafka

import (
	"strings"
	"time"

	"github.com/open-spatial/geocell/internal/config"
)

type Driver string

const (
	DriverNone  Driver = "none"
	DriverKafka Driver = "kafka"
)

type Config struct {
	Enabled bool
	Driver  Driver

	Brokers []string
	Topic   string
	GroupID string

	SessionTimeout   time.Duration
	Heartbeat        time.Duration
	RebalanceTimeout time.Duration
	InitialOldest    bool
}

// ConfigFrom maps the service invalidation settings onto consumer group
// settings, filling in the timing defaults.
func ConfigFrom(cfg config.InvalidationCfg) Config {
	driver := Driver(strings.TrimSpace(cfg.Driver))
	if driver == "" {
		driver = DriverNone
	}
	return Config{
		Enabled:          cfg.Enabled,
		Driver:           driver,
		Brokers:          split(cfg.Brokers),
		Topic:            cfg.Topic,
		GroupID:          cfg.GroupID,
		SessionTimeout:   30 * time.Second,
		Heartbeat:        3 * time.Second,
		RebalanceTimeout: 30 * time.Second,
		InitialOldest:    true,
	}
}

func split(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if x := strings.TrimSpace(p); x != "" {
			out = append(out, x)
		}
	}
	return out
}

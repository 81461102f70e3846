package config

import (
	"strings"

	"github.com/contentmesh/swarmnode/internal/coordinator"
	"github.com/contentmesh/swarmnode/pkg/wire"
)

// DefaultConfig returns a Config with every field set to its zero-config
// default, suitable for a single local node with no bootstrap peers.
func DefaultConfig() Config {
	cfg := Config{}
	ApplyDefaults(&cfg)
	return cfg
}

// ApplyDefaults fills any zero-valued field with its default, leaving
// explicitly set values untouched.
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyMetricsDefaults(&cfg.Metrics)
	applyTelemetryDefaults(&cfg.Telemetry)
	applySwarmDefaults(&cfg.Swarm)
	applyExchangeDefaults(&cfg.Exchange)
	applyCoordinatorDefaults(&cfg.Coordinator)
	applyRepoDefaults(&cfg.Repo)
}

func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	cfg.Level = strings.ToUpper(cfg.Level)
	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

func applyMetricsDefaults(cfg *MetricsConfig) {
	if cfg.Port == 0 {
		cfg.Port = 9090
	}
}

func applyTelemetryDefaults(cfg *TelemetryConfig) {
	if cfg.ServiceName == "" {
		cfg.ServiceName = "swarmnoded"
	}
}

func applySwarmDefaults(cfg *SwarmConfig) {
	if len(cfg.ListenAddrs) == 0 {
		cfg.ListenAddrs = []string{"/ip4/0.0.0.0/tcp/4001"}
	}
}

func applyExchangeDefaults(cfg *ExchangeConfig) {
	if cfg.MaxTransmitSize == 0 {
		cfg.MaxTransmitSize = wire.MaxBufSize
	}
	if len(cfg.ProtocolPreference) == 0 {
		for _, v := range wire.DefaultPreference() {
			cfg.ProtocolPreference = append(cfg.ProtocolPreference, v.String())
		}
	}
}

func applyCoordinatorDefaults(cfg *CoordinatorConfig) {
	if cfg.CensusInterval == 0 {
		cfg.CensusInterval = coordinator.DefaultCensusInterval
	}
	if cfg.GCInterval == 0 {
		cfg.GCInterval = coordinator.DefaultGCInterval
	}
	if cfg.GCCapPerTick == 0 {
		cfg.GCCapPerTick = coordinator.DefaultGCCapPerTick
	}
}

func applyRepoDefaults(cfg *RepoConfig) {
	if cfg.Path == "" {
		cfg.Path = "/var/lib/swarmnode/blocks"
	}
}

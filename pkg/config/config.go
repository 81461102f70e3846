// Package config loads swarmnoded's static configuration: logging,
// metrics, swarm/listen settings, exchange wire-protocol limits, and the
// coordinator's maintenance intervals.
//
// Configuration sources: cmd/swarmnoded's --config flag only selects the
// YAML file; no other flag is bound into Config. When a file is found,
// environment variables (SWARMNODE_*) override the keys present in that
// file, and default values fill the fields it leaves empty. When no file
// is found, Load returns DefaultConfig() and environment variables are
// not read.
//
// Grounded on the teacher's pkg/config.Config/Load: a viper.Viper reading
// an optional YAML file plus environment overrides, unmarshalled with
// mapstructure decode hooks, defaulted, then validated with struct tags.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/contentmesh/swarmnode/internal/coordinator"
	"github.com/contentmesh/swarmnode/internal/telemetry"
)

// Config is swarmnoded's static configuration.
type Config struct {
	Logging     LoggingConfig     `mapstructure:"logging" yaml:"logging"`
	Metrics     MetricsConfig     `mapstructure:"metrics" yaml:"metrics"`
	Telemetry   TelemetryConfig   `mapstructure:"telemetry" yaml:"telemetry"`
	Swarm       SwarmConfig       `mapstructure:"swarm" yaml:"swarm"`
	Exchange    ExchangeConfig    `mapstructure:"exchange" yaml:"exchange"`
	Coordinator CoordinatorConfig `mapstructure:"coordinator" yaml:"coordinator"`
	Repo        RepoConfig        `mapstructure:"repo" yaml:"repo"`
}

// TelemetryConfig controls OpenTelemetry tracing, mirroring the teacher's
// TelemetryConfig (internal/telemetry.Config) minus the OTLP endpoint
// fields this build doesn't wire (see internal/telemetry's doc comment).
type TelemetryConfig struct {
	Enabled        bool   `mapstructure:"enabled" yaml:"enabled"`
	ServiceName    string `mapstructure:"service_name" validate:"required_if=Enabled true" yaml:"service_name"`
	ServiceVersion string `mapstructure:"service_version" yaml:"service_version"`
}

// LoggingConfig controls log output, mirroring the teacher's LoggingConfig.
type LoggingConfig struct {
	// Level is the minimum level to emit: DEBUG, INFO, WARN, ERROR.
	Level string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error" yaml:"level"`
	// Format is the log encoding: text or json.
	Format string `mapstructure:"format" validate:"required,oneof=text json" yaml:"format"`
	// Output is stdout, stderr, or a file path.
	Output string `mapstructure:"output" validate:"required" yaml:"output"`
}

// MetricsConfig controls Prometheus metrics. Enabled registers the
// coordinator's collectors with a registry; no HTTP server is started,
// and Port is not read by cmd/swarmnoded.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	Port    int  `mapstructure:"port" validate:"omitempty,min=1,max=65535" yaml:"port"`
}

// SwarmConfig configures libp2p listen addresses and bootstrap peers.
type SwarmConfig struct {
	// ListenAddrs are the configured listen multiaddrs. cmd/swarmnoded
	// logs them at startup; it opens no listener for them.
	ListenAddrs []string `mapstructure:"listen_addrs" validate:"required,min=1" yaml:"listen_addrs"`
	// BootstrapPeers are multiaddrs (with /p2p/<id> suffix) of bootstrap
	// peers. cmd/swarmnoded does not dial them at startup.
	BootstrapPeers []string `mapstructure:"bootstrap_peers" yaml:"bootstrap_peers"`
}

// ExchangeConfig configures the bitswap-style wire protocol.
type ExchangeConfig struct {
	// MaxTransmitSize is a frame-size limit in bytes. It is not passed to
	// any wire.Codec; codecs built by wire.NewCodec use wire.MaxBufSize.
	MaxTransmitSize int `mapstructure:"max_transmit_size" validate:"omitempty,gt=0" yaml:"max_transmit_size"`
	// ProtocolPreference is a ranked list of wire protocol ids, strongest
	// first (e.g. "/ipfs/bitswap/1.2.0", "/ipfs/bitswap/1.1.0",
	// "/ipfs/bitswap/1.0.0", "/ipfs/bitswap"). cmd/swarmnoded only logs it;
	// it is not handed to pkg/negotiate.
	ProtocolPreference []string `mapstructure:"protocol_preference" yaml:"protocol_preference"`
}

// CoordinatorConfig configures the event loop's periodic maintenance.
type CoordinatorConfig struct {
	CensusInterval time.Duration `mapstructure:"census_interval" validate:"omitempty,gt=0" yaml:"census_interval"`
	GCInterval     time.Duration `mapstructure:"gc_interval" validate:"omitempty,gt=0" yaml:"gc_interval"`
	GCCapPerTick   int           `mapstructure:"gc_cap_per_tick" validate:"omitempty,gt=0" yaml:"gc_cap_per_tick"`
}

// RepoConfig configures the badger-backed block store.
type RepoConfig struct {
	// Path is the directory the block store's badger database lives in.
	Path string `mapstructure:"path" validate:"required" yaml:"path"`
}

// Loop adapts CoordinatorConfig into the type internal/coordinator.New
// expects.
func (c CoordinatorConfig) Loop() coordinator.Config {
	return coordinator.Config{
		CensusInterval: c.CensusInterval,
		GCInterval:     c.GCInterval,
		GCCapPerTick:   c.GCCapPerTick,
	}
}

// Telemetry adapts TelemetryConfig into the type internal/telemetry.Init
// expects.
func (t TelemetryConfig) Telemetry() telemetry.Config {
	return telemetry.Config{
		Enabled:        t.Enabled,
		ServiceName:    t.ServiceName,
		ServiceVersion: t.ServiceVersion,
	}
}

// Load reads configuration from file, environment, and defaults.
// An empty configPath uses the default XDG location; a missing file at
// that location is not an error — defaults are used instead.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setupViper(v, configPath)

	found, err := readConfigFile(v)
	if err != nil {
		return nil, err
	}
	if !found {
		cfg := DefaultConfig()
		return &cfg, nil
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(durationDecodeHook())); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	ApplyDefaults(&cfg)
	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("config: validation failed: %w", err)
	}
	return &cfg, nil
}

// Save writes cfg as YAML to path, creating parent directories as needed.
func Save(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("config: creating directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("config: write: %w", err)
	}
	return nil
}

func setupViper(v *viper.Viper, configPath string) {
	v.SetEnvPrefix("SWARMNODE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		return
	}
	v.AddConfigPath(defaultConfigDir())
	v.SetConfigName("config")
	v.SetConfigType("yaml")
}

func readConfigFile(v *viper.Viper) (bool, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return false, nil
		}
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("config: reading file: %w", err)
	}
	return true, nil
}

func durationDecodeHook() mapstructure.DecodeHookFunc {
	return mapstructure.StringToTimeDurationHookFunc()
}

func defaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "swarmnode")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "swarmnode")
}

// DefaultConfigPath returns the default configuration file location.
func DefaultConfigPath() string {
	return filepath.Join(defaultConfigDir(), "config.yaml")
}

package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/contentmesh/swarmnode/internal/coordinator"
	"github.com/contentmesh/swarmnode/internal/logger"
	"github.com/contentmesh/swarmnode/internal/telemetry"
	"github.com/contentmesh/swarmnode/pkg/blockrepo"
	"github.com/contentmesh/swarmnode/pkg/config"
	"github.com/contentmesh/swarmnode/pkg/facade"
	"github.com/contentmesh/swarmnode/pkg/metrics"
	"github.com/contentmesh/swarmnode/pkg/swarmtest"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the swarmnode coordinator",
	Long: `Start the swarmnode coordinator in the foreground.

Swarm, DHT, and exchange connectivity are external collaborators
(spec.md §6) wired here through their light reference instances
(pkg/swarmtest); the block repository is the real badger-backed store
(pkg/blockrepo).`,
	RunE: runStart,
}

func runStart(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	if err := logger.Init(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	}); err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTelemetry, err := telemetry.Init(ctx, cfg.Telemetry.Telemetry())
	if err != nil {
		return fmt.Errorf("initializing telemetry: %w", err)
	}
	defer func() {
		if err := shutdownTelemetry(context.Background()); err != nil {
			logger.Error("error shutting down telemetry", "error", err)
		}
	}()

	repo, err := blockrepo.Open(cfg.Repo.Path)
	if err != nil {
		return fmt.Errorf("opening block repo: %w", err)
	}
	defer func() {
		if err := repo.Close(); err != nil {
			logger.Error("error closing block repo", "error", err)
		}
	}()

	swarm := swarmtest.NewSwarm()
	dht := swarmtest.NewDHT()
	exchange := swarmtest.NewExchange()
	peerBook := swarmtest.NewPeerBook()

	facadeCh := make(chan facade.Command, 64)
	loop := coordinator.New(cfg.Coordinator.Loop(), swarm, dht, exchange, peerBook, repo, facadeCh)

	registry := prometheus.NewRegistry()
	var metricsReg prometheus.Registerer
	if cfg.Metrics.Enabled {
		metricsReg = registry
	}
	loop.SetMetrics(metrics.New(metricsReg))

	done := make(chan struct{})
	go func() {
		defer close(done)
		loop.Run(ctx)
	}()

	<-loop.Started()
	logger.Info("coordinator started",
		"listen_addrs", cfg.Swarm.ListenAddrs,
		"protocol_preference", cfg.Exchange.ProtocolPreference)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
		logger.Info("shutdown signal received")
		facadeCh <- facade.Exit{}
	case <-done:
		return nil
	}

	<-done
	logger.Info("coordinator stopped")
	return nil
}

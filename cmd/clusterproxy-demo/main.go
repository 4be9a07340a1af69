// Command clusterproxy-demo wires the topology core up to the ambient
// and domain stack: config loading, structured logging, Prometheus
// metrics, gossip-driven drift detection, the admin HTTP API, and the
// dashboard WebSocket monitor. It follows
// minis/50-mini-service-all-features/cmd/service/main.go's shape:
// load config, set up collaborators, start servers, wait for a signal,
// shut down gracefully.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/user/clusterproxy/internal/adminapi"
	"github.com/user/clusterproxy/internal/cluster"
	"github.com/user/clusterproxy/internal/config"
	"github.com/user/clusterproxy/internal/gossip"
	"github.com/user/clusterproxy/internal/logging"
	"github.com/user/clusterproxy/internal/metrics"
	"github.com/user/clusterproxy/internal/monitor"
)

func main() {
	configPath := "config.yaml"
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	baseLogger := logging.Setup(cfg.Logging)
	baseLogger.Info().Msg("starting clusterproxy")

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	monitorHub := monitor.NewHub()

	topo := cluster.NewTopology(0, logging.ForCluster(baseLogger, 0), cluster.NopHooks{}, nil)
	topo.SetAuthSecret(cfg.Cluster.AuthSecret)

	if err := topo.FetchTopology(cfg.Cluster.SeedIP, cfg.Cluster.SeedPort, cfg.Cluster.UnixSocket); err != nil {
		baseLogger.Error().Err(err).Msg("initial topology fetch failed")
	}
	m.SlotsCovered.Set(float64(countCoveredSlots(topo)))

	drift, err := gossip.Start(gossip.Config{
		NodeName: cfg.Gossip.NodeName,
		BindAddr: cfg.Gossip.BindAddr,
		BindPort: cfg.Gossip.BindPort,
		Join:     cfg.Gossip.Join,
	}, func() {
		topo.RequireUpdate()
	})
	if err != nil {
		baseLogger.Error().Err(err).Msg("gossip detector failed to start")
	} else {
		defer drift.Shutdown()
	}

	limiter := rate.NewLimiter(rate.Every(cfg.Cluster.UpdatePollEvery), 1)
	stopUpdates := make(chan struct{})
	go runUpdateLoop(topo, limiter, m, monitorHub, stopUpdates)
	defer close(stopUpdates)

	adminToken, err := adminapi.GenerateToken("bootstrap", []byte(cfg.Admin.JWTSecret), cfg.Admin.TokenTTL)
	if err != nil {
		baseLogger.Error().Err(err).Msg("failed to mint bootstrap admin token")
	} else {
		baseLogger.Info().Str("token", adminToken).Msg("bootstrap admin token minted")
	}

	adminSrv := adminapi.New(topo, []byte(cfg.Admin.JWTSecret))
	adminHTTP := &http.Server{Addr: cfg.Admin.Addr, Handler: adminSrv.Handler()}

	monitorMux := http.NewServeMux()
	monitorMux.HandleFunc("/monitor", monitorHub.ServeWS)
	monitorMux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	metricsHTTP := &http.Server{Addr: cfg.Metrics.Addr, Handler: monitorMux}

	go func() {
		baseLogger.Info().Str("addr", cfg.Admin.Addr).Msg("admin API listening")
		if err := adminHTTP.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			baseLogger.Fatal().Err(err).Msg("admin API failed")
		}
	}()

	go func() {
		baseLogger.Info().Str("addr", cfg.Metrics.Addr).Msg("metrics/monitor listening")
		if err := metricsHTTP.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			baseLogger.Fatal().Err(err).Msg("metrics server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	baseLogger.Info().Msg("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := adminHTTP.Shutdown(ctx); err != nil {
		baseLogger.Error().Err(err).Msg("admin API shutdown failed")
	}
	if err := metricsHTTP.Shutdown(ctx); err != nil {
		baseLogger.Error().Err(err).Msg("metrics server shutdown failed")
	}
}

// runUpdateLoop drives Reconfigurator.Update whenever the topology has
// been flagged for an update (by gossip drift or a prior WAIT), rate
// limited so a storm of gossip events can't hammer the seed with
// back-to-back CLUSTER NODES calls.
func runUpdateLoop(topo *cluster.Topology, limiter *rate.Limiter, m *metrics.Metrics, hub *monitor.Hub, stop <-chan struct{}) {
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if !topo.UpdateRequired() && !topo.IsUpdating() {
				continue
			}
			if !limiter.Allow() {
				continue
			}

			signal := topo.Update()
			m.ObserveUpdateOutcome(signal.String())
			m.ParkedRequests.Set(0)
			m.SlotsCovered.Set(float64(countCoveredSlots(topo)))
			hub.Broadcast(monitor.Event{
				ThreadID:  topo.ThreadID,
				Signal:    signal.String(),
				Timestamp: time.Now().Unix(),
			})
		}
	}
}

func countCoveredSlots(topo *cluster.Topology) int {
	count := 0
	for slot := uint16(0); ; slot++ {
		if topo.NodeBySlot(slot) != nil {
			count++
		}
		if slot == 16383 {
			break
		}
	}
	return count
}

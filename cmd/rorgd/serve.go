package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/cogrob/rorg/internal/registry"
	"github.com/cogrob/rorg/internal/rpc"
	"github.com/cogrob/rorg/internal/runtime"
	"github.com/cogrob/rorg/internal/service"
	"github.com/cogrob/rorg/pkg/logging"
)

var serveFlags struct {
	storageBasePath                string
	containerNamePrefix            string
	dockerStatsValidTime           time.Duration
	refreshStatsNumThreads         int
	minimalTimeBetweenRefreshStats time.Duration
	listenAddress                  string
	metricsListenAddress           string
	logLevel                       string
}

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the rorgd registry, RPC facade, and background tasks",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}

	flags := cmd.Flags()
	flags.StringVar(&serveFlags.storageBasePath, "storage-base-path", "/tmp/RorgStorage",
		"Directory that persisted .service_state files are read from and written to")
	flags.StringVar(&serveFlags.containerNamePrefix, "container-name-prefix", "rorg__",
		"Prefix prepended to every managed container's runtime name")
	flags.DurationVar(&serveFlags.dockerStatsValidTime, "docker-stats-valid-time", 5*time.Second,
		"How long a cached container stats reading remains valid before a synchronous refresh is forced")
	flags.IntVar(&serveFlags.refreshStatsNumThreads, "refresh-stats-num-threads", 40,
		"Worker pool size for the background container stats refresh sweep")
	flags.DurationVar(&serveFlags.minimalTimeBetweenRefreshStats, "minimal-time-between-refresh-stats", time.Second,
		"Minimum time between the start of consecutive stats refresh sweeps")
	flags.StringVar(&serveFlags.listenAddress, "listen-address", "[::]:7016",
		"Address the RPC facade's streamable-HTTP transport listens on")
	flags.StringVar(&serveFlags.metricsListenAddress, "metrics-listen-address", ":9016",
		"Address the /healthz and /metrics HTTP mux listens on")
	flags.StringVar(&serveFlags.logLevel, "log-level", "info", "debug, info, warn, or error")

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	logging.Init(logging.ParseLevel(serveFlags.logLevel), os.Stderr)

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg := registry.Config{
		StorageBasePath:                serveFlags.storageBasePath,
		ContainerNamePrefix:             serveFlags.containerNamePrefix,
		DockerStatsValidTime:            serveFlags.dockerStatsValidTime,
		RefreshStatsNumThreads:          serveFlags.refreshStatsNumThreads,
		MinimalTimeBetweenRefreshStats:  serveFlags.minimalTimeBetweenRefreshStats,
	}

	realDriver, err := runtime.NewRealDriver()
	if err != nil {
		return fmt.Errorf("initializing docker driver: %w", err)
	}
	drivers := service.Drivers{Real: realDriver, Simulator: runtime.NewSimulator()}

	reg := registry.New(cfg, drivers)

	reg.Lock()
	if err := reg.LoadFromDisk(ctx); err != nil {
		reg.Unlock()
		return fmt.Errorf("loading persisted state from %s: %w", cfg.StorageBasePath, err)
	}
	reg.EnsureOperator()
	reg.Unlock()

	promReg := prometheus.NewRegistry()
	reg.Register(promReg)

	go reg.RunStatsRefreshLoop(ctx)
	go reg.RunHostMetricsLoop(ctx)

	facade := rpc.NewFacade(reg)
	mcpSrv := rpc.NewMCPServer(facade)

	rpcServer := rpc.NewRPCServer(rpc.ServerConfig{ListenAddress: serveFlags.listenAddress}, mcpSrv)
	metricsServer := rpc.NewMetricsServer(rpc.ServerConfig{MetricsListenAddress: serveFlags.metricsListenAddress}, promReg)

	errCh := make(chan error, 2)
	go func() {
		logging.Info("serve", "RPC facade listening on %s", serveFlags.listenAddress)
		if err := rpcServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("rpc server: %w", err)
		}
	}()
	go func() {
		logging.Info("serve", "metrics/health listening on %s", serveFlags.metricsListenAddress)
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("metrics server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		logging.Error("serve", "%v", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = rpcServer.Shutdown(shutdownCtx)
	_ = metricsServer.Shutdown(shutdownCtx)
	reg.Stop()

	return nil
}

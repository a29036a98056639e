package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/tvsegment/tvsegment/server/internal/alerts"
	"github.com/tvsegment/tvsegment/server/internal/api"
	"github.com/tvsegment/tvsegment/server/internal/artifact"
	"github.com/tvsegment/tvsegment/server/internal/auth"
	"github.com/tvsegment/tvsegment/server/internal/config"
	"github.com/tvsegment/tvsegment/server/internal/metrics"
	"github.com/tvsegment/tvsegment/server/internal/pipeline"
	"github.com/tvsegment/tvsegment/server/internal/web"
)

// healthService is the gRPC health service name reported as SERVING once
// the artifacts are loaded.
const healthService = "tvsegment.Predictor"

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	envFile := flag.String("env-file", ".env", "optional dotenv file with API keys and webhook URLs")
	flag.Parse()

	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "failed to read %s: %v\n", *envFile, err)
		os.Exit(1)
	}

	cfg, watchConfig, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.Log.SlogLevel()}))
	slog.SetDefault(logger)

	slog.Info("tvsegment-server starting",
		"config", *configPath,
		"http_port", cfg.Server.HTTPPort,
		"grpc_port", cfg.Server.GRPCPort,
		"auth_mode", cfg.Server.Auth.Mode,
		"artifacts_dir", cfg.Artifacts.Dir,
	)

	// Artifacts are loaded once; a missing or malformed file is fatal.
	set, err := artifact.NewCache().Get(artifact.SearchPaths(
		cfg.Artifacts.Dir, cfg.Artifacts.ModelFile, cfg.Artifacts.ScalerFile,
	))
	if err != nil {
		slog.Error("failed to load artifacts", "err", err)
		os.Exit(1)
	}
	slog.Info("artifacts loaded",
		"model", set.ModelPath,
		"scaler", set.ScalerPath,
		"clusters", set.Model.Clusters(),
	)

	table := pipeline.NewTable(cfg.Interpretations())
	reg := metrics.New()
	reg.SetArtifacts(set.ModelPath, set.ScalerPath)
	reg.SetClustersKnown(table.Len())

	alertEngine := alerts.New(cfg.Alerts)
	checkCoverage(table, set.Model.Labels(), alertEngine)

	pred := api.NewPredictor(pipeline.New(set.Scaler, set.Model, table), reg, alertEngine, cfg.Plot.Radius)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Hot-reload the interpretation table. Ports, auth and artifacts need a restart.
	if watchConfig {
		go func() {
			err := config.Watch(ctx, *configPath, func(next *config.Config) {
				table.Replace(next.Interpretations())
				reg.SetClustersKnown(table.Len())
				checkCoverage(table, set.Model.Labels(), alertEngine)
				slog.Info("interpretation table reloaded", "clusters", table.Len())
			})
			if err != nil {
				slog.Error("config watcher stopped", "err", err)
			}
		}()
	}

	// gRPC health endpoint for orchestrator probes.
	var grpcSrv *grpc.Server
	if cfg.Server.GRPCPort > 0 {
		interceptor := auth.APIKeyInterceptor(
			cfg.Server.Auth.Mode,
			cfg.Server.Auth.EffectiveHeader(),
			cfg.Server.Auth.Key(),
		)
		grpcSrv = grpc.NewServer(grpc.UnaryInterceptor(interceptor))
		hs := health.NewServer()
		hs.SetServingStatus(healthService, healthpb.HealthCheckResponse_SERVING)
		healthpb.RegisterHealthServer(grpcSrv, hs)

		lis, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.Server.GRPCPort))
		if err != nil {
			slog.Error("failed to listen on gRPC port", "port", cfg.Server.GRPCPort, "err", err)
			os.Exit(1)
		}
		go func() {
			slog.Info("gRPC health listening", "port", cfg.Server.GRPCPort)
			if err := grpcSrv.Serve(lis); err != nil {
				slog.Error("gRPC server stopped", "err", err)
			}
		}()
	}

	// Combined HTTP server: form + chart, JSON API, metrics.
	apiAuth := auth.APIKeyMiddleware(
		cfg.Server.Auth.Mode,
		cfg.Server.Auth.EffectiveHeader(),
		cfg.Server.Auth.Key(),
	)
	httpMux := http.NewServeMux()
	httpMux.Handle("/api/", apiAuth(api.New(pred, set.ModelPath, set.ScalerPath)))
	httpMux.Handle("/metrics", reg)
	httpMux.Handle("/", web.New(pred, cfg.Form))

	httpSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.HTTPPort),
		Handler:           httpMux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		slog.Info("HTTP server listening", "port", cfg.Server.HTTPPort)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server stopped", "err", err)
			cancel()
		}
	}()

	<-ctx.Done()
	slog.Info("tvsegment-server shutting down")
	if grpcSrv != nil {
		grpcSrv.GracefulStop()
	}
	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	httpSrv.Shutdown(shutdownCtx) //nolint:errcheck
}

// loadConfig reads path. A missing file at path falls back to the built-in
// defaults and disables hot reload.
func loadConfig(path string) (*config.Config, bool, error) {
	cfg, err := config.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "config %s not found, using defaults\n", path)
		return config.Default(), false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return cfg, true, nil
}

// checkCoverage warns about model labels the interpretation table cannot
// name. Predictions for those labels fail until the table is fixed.
func checkCoverage(table *pipeline.Table, emitted []pipeline.Label, a *alerts.Engine) {
	missing := table.Missing(emitted)
	if len(missing) == 0 {
		return
	}
	slog.Warn("interpretation table does not cover every model label", "missing", missing)
	a.Fire(alerts.KindUnknownLabel, "coverage", "warning",
		fmt.Sprintf("model can emit labels %v with no configured interpretation", missing))
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/elderberry/agentops/internal/config"
	"github.com/elderberry/agentops/internal/logging"
	"github.com/elderberry/agentops/internal/service"
	"github.com/elderberry/agentops/internal/store"
	"github.com/elderberry/agentops/internal/trace"
	grpcx "github.com/elderberry/agentops/internal/transport/grpc"
	httpx "github.com/elderberry/agentops/internal/transport/http"
)

func main() {
	cfg := config.Load()

	log, restoreLogger, err := logging.Install(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger setup failed: %v\n", err)
		os.Exit(1)
	}
	defer restoreLogger()

	shutdownTracing, err := trace.Init(context.Background(), trace.Config{
		ServiceName: "agentops-server",
		Endpoint:    cfg.OTLPEndpoint,
		Insecure:    cfg.OTLPInsecure,
	})
	if err != nil {
		log.Fatal("tracing setup failed", zap.Error(err))
	}

	logStore, dataSource, err := buildStore(cfg)
	if err != nil {
		log.Fatal("store setup failed", zap.Error(err))
	}
	defer func() {
		if err := logStore.Close(); err != nil {
			log.Warn("store close warning", zap.Error(err))
		}
	}()

	if err := logStore.Load(); err != nil {
		log.Fatal("store initialization failed", zap.Error(err))
	}

	loggingService := service.NewLoggingService(logStore, dataSource)
	httpServer := httpx.NewServer(cfg.HTTPAddr, loggingService, httpx.Options{
		AuthToken: cfg.AuthToken,
		Logger:    log,
	})

	listener, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		log.Fatal("failed to listen", zap.String("addr", cfg.GRPCAddr), zap.Error(err))
	}

	rpcLog := log.Named("grpc")
	server := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			grpcx.RecoveryUnaryInterceptor(rpcLog),
			grpcx.AuthUnaryInterceptor(cfg.AuthToken),
			grpcx.LoggingUnaryInterceptor(rpcLog),
			grpcx.ErrorUnaryInterceptor(),
		),
	)
	grpcx.RegisterAgentLoggingServer(server, grpcx.NewLoggingHandler(loggingService))

	healthService := health.NewServer()
	healthService.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(server, healthService)

	if cfg.EnableReflection {
		reflection.Register(server)
	}

	log.Info("store ready", zap.String("driver", cfg.StoreDriver), zap.String("source", dataSource))
	if cfg.AuthToken == "" {
		log.Warn("AUTH_TOKEN is not configured; write methods are unauthenticated")
	}

	go func() {
		log.Info("gRPC server listening", zap.String("addr", cfg.GRPCAddr))
		if err := server.Serve(listener); err != nil {
			log.Fatal("grpc serve failed", zap.Error(err))
		}
	}()

	go func() {
		if strings.TrimSpace(cfg.HTTPAddr) == "" {
			return
		}
		log.Info("HTTP logging API listening", zap.String("addr", cfg.HTTPAddr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("http serve failed", zap.Error(err))
		}
	}()

	waitForShutdown(log, cfg.ShutdownTimeout, server, httpServer, healthService)

	traceCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := shutdownTracing(traceCtx); err != nil {
		log.Warn("trace shutdown warning", zap.Error(err))
	}
}

func waitForShutdown(log *zap.Logger, timeout time.Duration, server *grpc.Server, httpServer *http.Server, healthService *health.Server) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Info("shutdown signal received; draining gRPC server")
	healthService.Shutdown()
	done := make(chan struct{})
	go func() {
		server.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
		log.Info("gRPC server stopped gracefully")
	case <-time.After(timeout):
		log.Warn("graceful timeout reached; forcing stop")
		server.Stop()
	}
	if httpServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Warn("http shutdown warning", zap.Error(err))
		}
	}
}

func buildStore(cfg config.Config) (store.LogStore, string, error) {
	switch cfg.StoreDriver {
	case "", "sqlite":
		sqliteStore, err := store.NewSQLiteStore(cfg.SQLitePath)
		if err != nil {
			return nil, "", err
		}
		return sqliteStore, sqliteStore.Path(), nil
	case "postgres":
		pgStore, err := store.NewPostgresStore(cfg.DatabaseURL)
		if err != nil {
			return nil, "", err
		}
		return pgStore, "postgres", nil
	case "file":
		return store.NewFileStore(cfg.DataFile), cfg.DataFile, nil
	default:
		return nil, "", fmt.Errorf("unsupported STORE_DRIVER %q; expected sqlite|file|postgres", cfg.StoreDriver)
	}
}

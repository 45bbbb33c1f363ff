// Command worker hosts colony shards: it registers with the cluster
// registry, serves the shard RPC protocol to the coordinator and its
// peers, and exposes the read-only HTTP API used by visualizers.
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

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dreamware/colony/internal/cluster"
	"github.com/dreamware/colony/internal/logging"
	"github.com/dreamware/colony/internal/registry"
	"github.com/dreamware/colony/internal/rpc"
	"github.com/dreamware/colony/internal/storage"
	"github.com/dreamware/colony/internal/worker"
)

var version = "dev"

type config struct {
	mode        string
	privateHost string
	publicHost  string
	rpcPort     uint16
	httpPort    uint16
	registryDir string
	redisAddr   string
	dataDir     string
}

func main() {
	logDir := getenv("COLONY_LOG_DIR", "")
	log, err := logging.New("worker", logDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logging: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	cfg := loadConfig(log)
	logging.Startup(log, "worker", cfg.mode, version)

	reg, err := registry.New(registry.Config{
		Mode:      cfg.mode,
		Dir:       cfg.registryDir,
		RedisAddr: cfg.redisAddr,
	}, log)
	if err != nil {
		log.Fatal("registry", zap.Error(err))
	}

	store, err := storage.NewFileStore(cfg.dataDir)
	if err != nil {
		log.Fatal("storage", zap.Error(err))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	self := cluster.NewHostInfo(cfg.privateHost, cfg.rpcPort)
	colony := worker.NewColony(self, store, clock.New(), log)

	srv := rpc.NewServer(worker.NewHandler(colony), log)
	boundAddr, err := srv.Listen(fmt.Sprintf(":%d", cfg.rpcPort))
	if err != nil {
		log.Fatal("rpc listen", zap.Error(err))
	}
	go func() {
		if err := srv.Serve(ctx); err != nil {
			log.Warn("rpc server stopped", zap.Error(err))
		}
	}()
	log.Info("rpc listening", zap.String("addr", boundAddr))

	instanceID := uuid.NewString()
	addr := cluster.NewNodeAddress(cfg.privateHost, cfg.publicHost, cfg.rpcPort, cfg.httpPort)
	register(ctx, reg, instanceID, addr, log)
	defer func() {
		if err := reg.UnregisterWorker(context.Background(), instanceID); err != nil {
			log.Warn("unregister worker", zap.Error(err))
		}
	}()

	httpSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.httpPort),
		Handler:           colony.NewHTTPHandler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info("worker http listening", zap.String("addr", httpSrv.Addr))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("listen", zap.Error(err))
		}
	}()

	<-ctx.Done()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = httpSrv.Shutdown(shutdownCtx)
	log.Info("worker stopped")
}

// register records the worker's address in the cluster registry. Failure is
// not fatal: the process keeps serving its shards, merely undiscoverable to
// a coordinator starting a new colony.
func register(ctx context.Context, reg registry.Registry, instanceID string, addr cluster.NodeAddress, log *zap.Logger) {
	if err := reg.RegisterWorker(ctx, instanceID, addr); err != nil {
		log.Warn("worker registration failed, continuing unregistered", zap.Error(err))
	}
}

func loadConfig(log *zap.Logger) config {
	private := getenv("COLONY_PRIVATE_HOST", "127.0.0.1")
	return config{
		mode:        getenv("COLONY_DEPLOYMENT_MODE", "localhost"),
		privateHost: private,
		publicHost:  getenv("COLONY_PUBLIC_HOST", private),
		rpcPort:     uint16(getenvInt(log, "COLONY_RPC_PORT", 9000)),
		httpPort:    uint16(getenvInt(log, "COLONY_HTTP_PORT", 9001)),
		registryDir: getenv("COLONY_REGISTRY_DIR", "/tmp/colony-registry"),
		redisAddr:   getenv("COLONY_REDIS_ADDR", "127.0.0.1:6379"),
		dataDir:     getenv("COLONY_DATA_DIR", "data/worker"),
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(log *zap.Logger, key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var n int
	if _, err := fmt.Sscanf(v, "%d", &n); err != nil {
		log.Fatal("invalid integer environment value",
			zap.String("key", key), zap.String("value", v), zap.Error(err))
	}
	return n
}

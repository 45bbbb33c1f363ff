// Command coordinator runs the colony's control plane: it discovers
// workers, assigns shards, generates world events and serves the public
// lifecycle API.
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
	"go.uber.org/zap"

	"github.com/dreamware/colony/internal/cluster"
	"github.com/dreamware/colony/internal/coordinator"
	"github.com/dreamware/colony/internal/logging"
	"github.com/dreamware/colony/internal/registry"
	"github.com/dreamware/colony/internal/storage"
)

var version = "dev"

type config struct {
	mode        string
	privateHost string
	publicHost  string
	httpPort    uint16
	registryDir string
	redisAddr   string
	dataDir     string
	outputDir   string
	grid        cluster.GridSpec
}

func main() {
	logDir := getenv("COLONY_LOG_DIR", "")
	log, err := logging.New("coordinator", logDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logging: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	cfg := loadConfig(log)
	logging.Startup(log, "coordinator", cfg.mode, version)

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

	self := cluster.NewHostInfo(cfg.privateHost, cfg.httpPort)
	coord, err := coordinator.NewContext(coordinator.Config{
		Self:      self,
		Grid:      cfg.grid,
		OutputDir: cfg.outputDir,
	}, reg, store, clock.New(), log)
	if err != nil {
		log.Fatal("coordinator context", zap.Error(err))
	}

	addr := cluster.NewNodeAddress(cfg.privateHost, cfg.publicHost, cfg.httpPort, cfg.httpPort)
	register(ctx, reg, addr, log)
	defer func() {
		if err := reg.UnregisterCoordinator(context.Background()); err != nil {
			log.Warn("unregister coordinator", zap.Error(err))
		}
	}()

	go coord.RunEventGenerator(ctx)
	go coord.RunTickMonitor(ctx)
	go coord.RunWorkerMonitor(ctx)
	go coord.RunStatCapture(ctx)

	httpSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.httpPort),
		Handler:           coord.NewHTTPHandler(ctx),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info("coordinator listening", zap.String("addr", httpSrv.Addr))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("listen", zap.Error(err))
		}
	}()

	<-ctx.Done()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = httpSrv.Shutdown(shutdownCtx)
	log.Info("coordinator stopped")
}

// register records the coordinator's address in the cluster registry.
// Failure is not fatal: the process keeps serving, merely undiscoverable
// until a later restart re-registers it.
func register(ctx context.Context, reg registry.Registry, addr cluster.NodeAddress, log *zap.Logger) {
	if err := reg.RegisterCoordinator(ctx, addr); err != nil {
		log.Warn("coordinator registration failed, continuing unregistered", zap.Error(err))
	}
}

func loadConfig(log *zap.Logger) config {
	private := getenv("COLONY_PRIVATE_HOST", "127.0.0.1")
	cfg := config{
		mode:        getenv("COLONY_DEPLOYMENT_MODE", "localhost"),
		privateHost: private,
		publicHost:  getenv("COLONY_PUBLIC_HOST", private),
		httpPort:    uint16(getenvInt(log, "COLONY_HTTP_PORT", 8080)),
		registryDir: getenv("COLONY_REGISTRY_DIR", "/tmp/colony-registry"),
		redisAddr:   getenv("COLONY_REDIS_ADDR", "127.0.0.1:6379"),
		dataDir:     getenv("COLONY_DATA_DIR", "data/coordinator"),
		outputDir:   getenv("COLONY_OUTPUT_DIR", "output"),
		grid: cluster.GridSpec{
			WidthInShards:  int32(getenvInt(log, "COLONY_WIDTH_IN_SHARDS", 2)),
			HeightInShards: int32(getenvInt(log, "COLONY_HEIGHT_IN_SHARDS", 2)),
			ShardWidth:     int32(getenvInt(log, "COLONY_SHARD_WIDTH", 50)),
			ShardHeight:    int32(getenvInt(log, "COLONY_SHARD_HEIGHT", 50)),
		},
	}
	if err := cfg.grid.Validate(); err != nil {
		log.Fatal("invalid grid", zap.Error(err))
	}
	return cfg
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

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/moduleplatform/tenantd/pkg/cache"
	"github.com/moduleplatform/tenantd/pkg/config"
	"github.com/moduleplatform/tenantd/pkg/discovery"
	"github.com/moduleplatform/tenantd/pkg/events"
	"github.com/moduleplatform/tenantd/pkg/jobstore"
	"github.com/moduleplatform/tenantd/pkg/lifecycle"
	"github.com/moduleplatform/tenantd/pkg/log"
	"github.com/moduleplatform/tenantd/pkg/modulemanager"
	"github.com/moduleplatform/tenantd/pkg/proxyclient"
	manager "github.com/moduleplatform/tenantd/pkg/replicatedmap"
	storage "github.com/moduleplatform/tenantd/pkg/store"
	"github.com/moduleplatform/tenantd/pkg/timer"
	"github.com/moduleplatform/tenantd/pkg/types"
	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "run the tenant lifecycle manager",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath(cmd))
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log.Init(log.Config{Level: log.Level(cfg.LogLevel), JSONOutput: cfg.LogJSON})
	logger := log.WithComponent(log.Logger, "serve")

	raftMgr, err := manager.NewManager(&manager.Config{
		NodeID:   cfg.Cluster.NodeID,
		BindAddr: cfg.Cluster.BindAddr,
		DataDir:  cfg.Cluster.DataDir,
	})
	if err != nil {
		return fmt.Errorf("creating cluster manager: %w", err)
	}

	if cfg.Cluster.Join != "" {
		if err := raftMgr.Join(cfg.Cluster.Join); err != nil {
			return fmt.Errorf("joining cluster at %s: %w", cfg.Cluster.Join, err)
		}
	} else if err := raftMgr.Bootstrap(); err != nil {
		return fmt.Errorf("bootstrapping cluster: %w", err)
	}

	store, err := storage.NewBoltStore(cfg.StoreDir)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}

	tenants := manager.NewMap1[*types.Tenant](raftMgr, "tenants")
	jobsMap := manager.NewMap2[*types.InstallJob](raftMgr, "install-jobs")
	jobs := jobstore.New(jobsMap)

	modules := modulemanager.NewInMemory()

	proxy, err := newProxy(cfg.ProxyAddr)
	if err != nil {
		return fmt.Errorf("dialing proxy: %w", err)
	}

	broker := events.NewBroker()
	enabledCache := cache.New()
	disc := discovery.NewRaftDiscovery(raftMgr)
	sched := timer.New(tenants, enabledCache, disc, proxy, broker)

	facade := lifecycle.New(tenants, store, modules, jobs, proxy, enabledCache, sched, broker)
	if err := facade.Init(); err != nil {
		return fmt.Errorf("initializing tenant lifecycle manager: %w", err)
	}
	facade.Start()

	if cfg.Self.ModuleID != "" {
		if err := facade.UpgradeOkapiModule(cfg.Self.ModuleID, cfg.Self.Version); err != nil {
			logger.Warn().Err(err).Msg("okapi module promotion failed at startup")
		}
	}

	httpAPI := lifecycle.NewHTTPAPI(facade)
	httpServer := &http.Server{Addr: cfg.HTTPAddr, Handler: httpAPI.GetHandler()}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", cfg.HTTPAddr).Msg("admin HTTP API listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigCh:
		logger.Info().Msg("shutting down")
	case err := <-errCh:
		logger.Error().Err(err).Msg("admin HTTP API failed")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	facade.Shutdown()
	_ = httpServer.Shutdown(ctx)
	if err := store.Close(); err != nil {
		logger.Warn().Err(err).Msg("closing store")
	}
	if err := raftMgr.Shutdown(); err != nil {
		logger.Warn().Err(err).Msg("shutting down cluster manager")
	}

	return nil
}

// newProxy dials the module fleet's gRPC listener, or falls back to an
// in-memory Fake when no address is configured, matching how a
// standalone/dev instance has nothing to dial.
func newProxy(addr string) (proxyclient.Proxy, error) {
	if addr == "" {
		return proxyclient.NewFake(), nil
	}

	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials())) // #nosec G402
	if err != nil {
		return nil, err
	}
	return proxyclient.NewGRPCProxy(conn), nil
}

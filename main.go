// Copyright 2025 Grug Framework
//
// Grug node: wires the versioned store, the native VM with the built-in
// contracts, the execution core, and the ABCI server the consensus engine
// connects to.

package main

import (
	"encoding/json"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	dbm "github.com/cometbft/cometbft-db"
	abciserver "github.com/cometbft/cometbft/abci/server"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/grugnet/grug/pkg/abci"
	"github.com/grugnet/grug/pkg/app"
	"github.com/grugnet/grug/pkg/commitment"
	"github.com/grugnet/grug/pkg/config"
	"github.com/grugnet/grug/pkg/contracts"
	"github.com/grugnet/grug/pkg/indexer"
	"github.com/grugnet/grug/pkg/store"
	"github.com/grugnet/grug/pkg/vm"
)

// HealthStatus tracks component health for the /health endpoint.
type HealthStatus struct {
	Status        string `json:"status"` // "ok", "degraded", "starting"
	ABCI          string `json:"abci"`
	Indexer       string `json:"indexer"` // "connected", "disabled", "error"
	UptimeSeconds int64  `json:"uptime_seconds"`

	startTime time.Time
	mu        sync.RWMutex
}

var healthStatus = &HealthStatus{
	Status:    "starting",
	ABCI:      "stopped",
	Indexer:   "unknown",
	startTime: time.Now(),
}

func (h *HealthStatus) Set(field *string, value string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	*field = value
	if h.ABCI == "serving" && (h.Indexer == "connected" || h.Indexer == "disabled") {
		h.Status = "ok"
	} else if h.ABCI == "serving" {
		h.Status = "degraded"
	}
}

func (h *HealthStatus) handler(w http.ResponseWriter, _ *http.Request) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	snapshot := struct {
		Status        string `json:"status"`
		ABCI          string `json:"abci"`
		Indexer       string `json:"indexer"`
		UptimeSeconds int64  `json:"uptime_seconds"`
	}{
		Status:        h.Status,
		ABCI:          h.ABCI,
		Indexer:       h.Indexer,
		UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(&snapshot)
}

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	logger := log.New(log.Writer(), "[Grug] ", log.LstdFlags)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}
	logger.Printf("Starting node - chain: %s, listen: %s", cfg.ChainID, cfg.ListenAddr)

	// Physical store.
	db, err := dbm.NewDB("grug", dbm.BackendType(cfg.DBBackend), cfg.DataDir)
	if err != nil {
		logger.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()
	diskStore := store.NewDiskStore(db, nil)

	// VM with the built-in native contracts.
	machine := vm.NewNativeVM(cfg.ModuleCacheBytes, nil)
	codes := contracts.RegisterAll(machine)
	logger.Printf("Registered native contracts - account: %s, bank: %s, taxman: %s",
		codes.Account, codes.Bank, codes.Taxman)

	// Indexer: optional, SQL-backed.
	var idx indexer.Indexer = indexer.Null{}
	if cfg.IndexerDatabaseURL != "" {
		sqlIndexer, err := indexer.NewSQL(cfg.IndexerDatabaseURL, nil)
		if err != nil {
			// The indexer is a side effect, not part of consensus; run
			// degraded rather than refuse to start.
			logger.Printf("Indexer unavailable: %v (continuing without)", err)
			healthStatus.Set(&healthStatus.Indexer, "error")
		} else {
			idx = sqlIndexer
			defer sqlIndexer.Close()
			healthStatus.Set(&healthStatus.Indexer, "connected")
		}
	} else {
		healthStatus.Set(&healthStatus.Indexer, "disabled")
	}

	// Execution core + ABCI adapter.
	core := app.New(diskStore, machine, commitment.NewSimple(), idx, nil)
	if err := core.Restore(); err != nil {
		logger.Fatalf("Failed to restore app state: %v", err)
	}
	adapter := abci.New(core, cfg.RetainVersions, nil)

	server := abciserver.NewSocketServer(cfg.ListenAddr, adapter)
	server.SetLogger(cmtlog.NewTMLogger(cmtlog.NewSyncWriter(os.Stdout)))
	if err := server.Start(); err != nil {
		logger.Fatalf("Failed to start ABCI server: %v", err)
	}
	defer func() { _ = server.Stop() }()
	healthStatus.Set(&healthStatus.ABCI, "serving")
	logger.Printf("ABCI server listening on %s", cfg.ListenAddr)

	// Observability endpoints.
	if cfg.MetricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil {
				logger.Printf("Metrics server stopped: %v", err)
			}
		}()
	}
	if cfg.HealthAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.HandleFunc("/health", healthStatus.handler)
			if err := http.ListenAndServe(cfg.HealthAddr, mux); err != nil {
				logger.Printf("Health server stopped: %v", err)
			}
		}()
	}

	// Block until shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	logger.Printf("Received %s - shutting down", sig)
}

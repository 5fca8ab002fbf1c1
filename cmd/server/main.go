package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"medichain/config"
	"medichain/internal/messaging/producer"
	"medichain/internal/metrics"
	ledger "medichain/ledger/client"
	core "medichain/registry/service/core"
	httphandler "medichain/registry/service/http"
	"medichain/storage/store"
)

// Default configuration directory, overridable via MEDICHAIN_CONFIG_DIR
const defaultConfigDir = "./config"

func main() {
	logger := log.New(os.Stdout, "[SERVER] ", log.LstdFlags|log.Lshortfile)
	logger.Println("Starting batch registry server...")

	configDir := os.Getenv("MEDICHAIN_CONFIG_DIR")
	if configDir == "" {
		configDir = defaultConfigDir
	}

	// 1. Load configuration
	cfg, err := config.LoadConfig(configDir)
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.Server == nil {
		logger.Fatalf("Missing server configuration (expected %s/server.defaults.yml)", configDir)
	}
	if cfg.Ledger == nil {
		logger.Println("No ledger configuration found, using mock gateway defaults")
		cfg.Ledger = &config.LedgerConfig{}
		cfg.Ledger.SetDefaults()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 2. Initialize record store
	logger.Println("Initializing record store...")
	var recordStore store.Store
	if cfg.Server.Database.DSN == "memory" {
		logger.Println("Warning: using in-memory record store; records are not durable")
		recordStore = store.NewMemoryStore()
	} else {
		recordStore, err = store.NewPostgresStore(ctx, cfg.Server.Database.DSN,
			cfg.Server.Database.MaxConnections, cfg.Server.Database.MinConnections, logger)
		if err != nil {
			logger.Fatalf("Failed to initialize record store: %v", err)
		}
	}
	defer recordStore.Close()
	cfg.Server.Database.LogConfiguration()

	// 3. Initialize ledger gateway
	logger.Printf("Initializing ledger gateway (type: %s, network: %s)...", cfg.Ledger.LedgerType, cfg.Ledger.Network)
	chainSpecificCfg, err := ledger.LoadChainSpecificConfig(cfg.Ledger.LedgerType, configDir)
	if err != nil {
		logger.Fatalf("Failed to load chain-specific config: %v", err)
	}
	cfg.Ledger.ChainSpecific = chainSpecificCfg
	gateway, err := ledger.NewGateway(cfg.Ledger, logger)
	if err != nil {
		logger.Fatalf("Failed to initialize ledger gateway: %v", err)
	}
	defer gateway.Close()

	// 4. Initialize audit producer (optional)
	var auditProducer producer.Producer
	if len(cfg.Server.KafkaProducer.Brokers) > 0 {
		logger.Println("Initializing Kafka audit producer...")
		kafkaProducer, err := producer.NewKafkaProducer(cfg.Server.KafkaProducer, logger)
		if err != nil {
			logger.Fatalf("Failed to initialize Kafka audit producer: %v", err)
		}
		defer kafkaProducer.Close()
		auditProducer = kafkaProducer
	} else {
		logger.Println("kafka_producer.brokers not configured, audit feed disabled.")
	}

	// 5. Create core Service, metrics and handlers
	mets := metrics.New()
	coreService := core.NewService(recordStore, gateway, auditProducer, mets, logger, cfg.Server, cfg.Ledger)
	handler := httphandler.NewRegistryHandler(coreService, logger, cfg.Server.DevelopmentMode)
	router := httphandler.NewRouter(handler, mets.Handler(), cfg.Server.HttpServer.RequestTimeout.Std())

	// 6. HTTP server
	readTimeout := cfg.Server.HttpServer.ReadTimeout.Std()
	if readTimeout == 0 {
		readTimeout = 5 * time.Second
	}
	writeTimeout := cfg.Server.HttpServer.WriteTimeout.Std()
	if writeTimeout == 0 {
		writeTimeout = 15 * time.Second
	}
	idleTimeout := cfg.Server.HttpServer.IdleTimeout.Std()
	if idleTimeout == 0 {
		idleTimeout = 60 * time.Second
	}
	maxHeaderBytes := cfg.Server.HttpServer.MaxHeaderBytes
	if maxHeaderBytes == 0 {
		maxHeaderBytes = 1 << 20 // 1 MB
	}

	httpServer := &http.Server{
		Addr:           cfg.Server.HttpListenAddr,
		Handler:        router,
		ReadTimeout:    readTimeout,
		WriteTimeout:   writeTimeout,
		IdleTimeout:    idleTimeout,
		MaxHeaderBytes: maxHeaderBytes,
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		logger.Printf("HTTP server listening on %s", cfg.Server.HttpListenAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("HTTP server startup failed: %v", err)
		}
		logger.Println("HTTP server stopped listening.")
	}()

	// 7. Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	logger.Printf("Received shutdown signal: %s, starting graceful shutdown...", sig)
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	logger.Println("Shutting down HTTP server...")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Printf("HTTP server shutdown failed: %v", err)
	} else {
		logger.Println("HTTP server shutdown.")
	}

	wg.Wait()
	logger.Println("All servers stopped. Batch registry shutdown.")
}

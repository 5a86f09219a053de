// Package main runs ledger event ingestion: it follows the pool and hook
// contracts on an EVM endpoint and lands paired swap records in the event
// archive, either by polling or over a websocket subscription.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"

	"univip-hook/internal/config"
	"univip-hook/internal/ingestion"
	"univip-hook/internal/observability"
	"univip-hook/internal/storage"
	chstore "univip-hook/internal/storage/clickhouse"
	"univip-hook/internal/storage/memory"
	"univip-hook/internal/storage/migrations"
)

func main() {
	cfg := config.Load()

	rpcEndpoint := flag.String("rpc-endpoint", cfg.RPCEndpoint, "EVM JSON-RPC HTTP endpoint")
	wsEndpoint := flag.String("ws-endpoint", cfg.WSEndpoint, "EVM JSON-RPC websocket endpoint (preferred when set)")
	clickhouseDSN := flag.String("clickhouse-dsn", cfg.ClickhouseDSN, "ClickHouse connection string")
	useMemory := flag.Bool("use-memory", cfg.UseMemory, "Use an in-memory archive (development only)")
	poolAddr := flag.String("pool", cfg.PoolAddr.Hex(), "Pool manager contract address")
	hookAddr := flag.String("hook", cfg.HookAddr.Hex(), "Hook contract address")
	startBlock := flag.Uint64("start-block", cfg.StartBlock, "First block to ingest (0 = current head)")
	pollInterval := flag.Duration("poll-interval", cfg.PollInterval, "Polling interval")
	metricsAddr := flag.String("metrics-addr", cfg.MetricsAddr, "Prometheus metrics HTTP address")
	flag.Parse()

	logger := log.New(os.Stdout, "[ingest] ", log.LstdFlags)

	if *rpcEndpoint == "" && *wsEndpoint == "" {
		logger.Fatal("--rpc-endpoint or --ws-endpoint is required")
	}
	if !*useMemory && *clickhouseDSN == "" {
		logger.Fatal("--clickhouse-dsn is required (use --use-memory for an in-memory archive)")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	archive, cleanup, err := createArchive(ctx, *clickhouseDSN, *useMemory, logger)
	if err != nil {
		logger.Fatalf("Failed to create archive: %v", err)
	}
	defer cleanup()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, shutting down", sig)
		cancel()
		select {
		case <-sigCh:
			os.Exit(1)
		case <-time.After(30 * time.Second):
			os.Exit(1)
		}
	}()

	// Metrics endpoint.
	go func() {
		mux := http.NewServeMux()
		mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("ok"))
		})
		mux.Handle("/metrics", observability.Handler())
		if err := http.ListenAndServe(*metricsAddr, mux); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Printf("Metrics server error: %v", err)
		}
	}()

	pool := common.HexToAddress(*poolAddr)
	hook := common.HexToAddress(*hookAddr)

	if *wsEndpoint != "" {
		err = runWebsocket(ctx, *wsEndpoint, pool, hook, archive, logger)
	} else {
		err = runPolling(ctx, *rpcEndpoint, pool, hook, archive, *startBlock, *pollInterval, logger)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatalf("Ingestion error: %v", err)
	}
	logger.Println("Shutdown complete")
}

func runPolling(ctx context.Context, endpoint string, pool, hook common.Address, archive storage.EventArchive, startBlock uint64, pollInterval time.Duration, logger *log.Logger) error {
	client, err := ethclient.DialContext(ctx, endpoint)
	if err != nil {
		return err
	}
	defer client.Close()

	monitor := ingestion.NewMonitor(client, archive, ingestion.MonitorConfig{
		PoolAddr:     pool,
		HookAddr:     hook,
		StartBlock:   startBlock,
		PollInterval: pollInterval,
	}, logger)

	logger.Printf("Polling %s for swap logs from %s / %s", endpoint, pool.Hex(), hook.Hex())
	return monitor.Run(ctx)
}

func runWebsocket(ctx context.Context, endpoint string, pool, hook common.Address, archive storage.EventArchive, logger *log.Logger) error {
	feed := ingestion.NewWSFeed(endpoint, pool, hook, nil, logger)
	if err := feed.Start(ctx); err != nil {
		return err
	}
	defer feed.Close()

	logger.Printf("Subscribed to %s for swap logs from %s / %s", endpoint, pool.Hex(), hook.Hex())
	collector := ingestion.NewCollector(archive, hook, logger)
	return collector.Consume(ctx, feed.Logs())
}

func createArchive(ctx context.Context, clickhouseDSN string, useMemory bool, logger *log.Logger) (storage.EventArchive, func(), error) {
	if useMemory {
		logger.Println("Using in-memory archive")
		return memory.NewEventArchive(), func() {}, nil
	}

	conn, err := migrations.RunClickhouseMigrations(ctx, clickhouseDSN)
	if err != nil {
		return nil, nil, err
	}
	return chstore.NewEventArchive(conn), func() { conn.Close() }, nil
}

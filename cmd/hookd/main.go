// Package main runs the attestation gateway and fee service: HTTP surface for
// attestation submission, fee/discount reads and pool administration, backed
// by Postgres and ClickHouse (or fully in-memory for development).
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"univip-hook/internal/config"
	"univip-hook/internal/domain"
	"univip-hook/internal/gateway"
	"univip-hook/internal/hook"
	"univip-hook/internal/server"
	"univip-hook/internal/storage"
	chstore "univip-hook/internal/storage/clickhouse"
	"univip-hook/internal/storage/memory"
	"univip-hook/internal/storage/migrations"
	pgstore "univip-hook/internal/storage/postgres"
)

// stores holds the service's storage implementations.
type stores struct {
	discounts storage.DiscountStore
	whitelist storage.WhitelistStore
	params    storage.PoolParamsStore
	epochs    storage.EpochStore
	archive   storage.EventArchive
}

func main() {
	cfg := config.Load()

	httpAddr := flag.String("http-addr", cfg.HTTPAddr, "HTTP listen address")
	postgresDSN := flag.String("postgres-dsn", cfg.PostgresDSN, "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", cfg.ClickhouseDSN, "ClickHouse connection string (optional, enables /v1/volume)")
	useMemory := flag.Bool("use-memory", cfg.UseMemory, "Use in-memory storage instead of PostgreSQL")
	baseFee := flag.Uint("base-fee", 3000, "Default base fee (ppm) for pools without a dynamic controller")
	surgeFee := flag.Uint("surge-fee", 0, "Default surge fee (ppm)")
	flag.Parse()

	logger := log.New(os.Stdout, "[hookd] ", log.LstdFlags)

	if !*useMemory && *postgresDSN == "" {
		logger.Fatal("--postgres-dsn is required (use --use-memory for in-memory storage)")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, cleanup, err := createStores(ctx, *postgresDSN, *clickhouseDSN, *useMemory, logger)
	if err != nil {
		logger.Fatalf("Failed to create stores: %v", err)
	}
	defer cleanup()

	gw := gateway.New(st.whitelist, st.discounts, st.epochs, logger)
	fees := hook.NewStoreFeeSource(st.params, domain.PoolFeeState{
		BaseFee:  uint32(*baseFee),
		SurgeFee: uint32(*surgeFee),
	})
	blender := hook.NewBlender(st.params, st.discounts, fees)

	srv := server.New(server.Deps{
		Gateway:   gw,
		Blender:   blender,
		Whitelist: st.whitelist,
		Params:    st.params,
		Discounts: st.discounts,
		Archive:   st.archive,
		Logger:    logger,
	})

	// Graceful shutdown on SIGINT/SIGTERM.
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
			logger.Println("Graceful shutdown timed out, forcing exit")
			os.Exit(1)
		}
	}()

	if err := srv.Run(ctx, *httpAddr); err != nil {
		logger.Fatalf("Server error: %v", err)
	}
	logger.Println("Shutdown complete")
}

// createStores builds the storage layer. The returned cleanup closes all
// connections.
func createStores(ctx context.Context, postgresDSN, clickhouseDSN string, useMemory bool, logger *log.Logger) (*stores, func(), error) {
	if useMemory {
		logger.Println("Using in-memory storage")
		return &stores{
			discounts: memory.NewDiscountStore(),
			whitelist: memory.NewWhitelistStore(),
			params:    memory.NewPoolParamsStore(),
			epochs:    memory.NewEpochStore(),
			archive:   memory.NewEventArchive(),
		}, func() {}, nil
	}

	pool, err := pgstore.NewPool(ctx, postgresDSN)
	if err != nil {
		return nil, nil, err
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, err
	}

	st := &stores{
		discounts: pgstore.NewDiscountStore(pool),
		whitelist: pgstore.NewWhitelistStore(pool),
		params:    pgstore.NewPoolParamsStore(pool),
		epochs:    pgstore.NewEpochStore(pool),
	}

	var chConn *chstore.Conn
	if clickhouseDSN != "" {
		chConn, err = migrations.RunClickhouseMigrations(ctx, clickhouseDSN)
		if err != nil {
			pool.Close()
			return nil, nil, err
		}
		st.archive = chstore.NewEventArchive(chConn)
	}

	cleanup := func() {
		pool.Close()
		if chConn != nil {
			chConn.Close()
		}
	}
	return st, cleanup, nil
}

// Package ingestion pulls swap logs off an EVM endpoint and lands them in the
// event archive, either by polling (Monitor) or over a websocket subscription
// (WSFeed).
package ingestion

import (
	"context"
	"fmt"
	"log"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"univip-hook/internal/aggregation"
	"univip-hook/internal/observability"
	"univip-hook/internal/storage"
)

// ChainReader is the subset of ethclient.Client the monitor needs.
type ChainReader interface {
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
	FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error)
}

// MonitorConfig configures the polling monitor.
type MonitorConfig struct {
	PoolAddr     common.Address
	HookAddr     common.Address
	StartBlock   uint64 // 0 means start from the current head
	PollInterval time.Duration
	BatchSize    uint64 // max blocks per filter query
}

// Monitor polls an EVM endpoint for pool swap and hook origin logs and
// archives the paired records.
type Monitor struct {
	client  ChainReader
	archive storage.EventArchive
	cfg     MonitorConfig
	logger  *log.Logger

	lastProcessed uint64
}

// NewMonitor creates a polling monitor. Zero config fields get defaults.
func NewMonitor(client ChainReader, archive storage.EventArchive, cfg MonitorConfig, logger *log.Logger) *Monitor {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 12 * time.Second
	}
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 1000
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Monitor{
		client:  client,
		archive: archive,
		cfg:     cfg,
		logger:  logger,
	}
}

// Run polls until the context is cancelled. Individual poll failures are
// logged and retried on the next tick.
func (m *Monitor) Run(ctx context.Context) error {
	if m.cfg.StartBlock > 0 {
		m.lastProcessed = m.cfg.StartBlock - 1
	} else {
		header, err := m.client.HeaderByNumber(ctx, nil)
		if err != nil {
			return fmt.Errorf("get latest block: %w", err)
		}
		m.lastProcessed = header.Number.Uint64()
		m.logger.Printf("starting ingestion from latest block %d", m.lastProcessed)
	}

	ticker := time.NewTicker(m.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := m.ProcessNewBlocks(ctx); err != nil {
				observability.RecordIngestionError()
				m.logger.Printf("ingestion poll failed: %v", err)
			}
		}
	}
}

// ProcessNewBlocks filters logs from the block after the last processed one up
// to the head, capped at BatchSize blocks, and archives the records.
func (m *Monitor) ProcessNewBlocks(ctx context.Context) error {
	header, err := m.client.HeaderByNumber(ctx, nil)
	if err != nil {
		return fmt.Errorf("get latest block: %w", err)
	}
	latest := header.Number.Uint64()

	from := m.lastProcessed + 1
	if from > latest {
		return nil
	}
	to := from + m.cfg.BatchSize - 1
	if to > latest {
		to = latest
	}

	query := ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(from),
		ToBlock:   new(big.Int).SetUint64(to),
		Addresses: []common.Address{m.cfg.PoolAddr, m.cfg.HookAddr},
		Topics: [][]common.Hash{
			{aggregation.SwapEventID, aggregation.HookEventID},
		},
	}

	logs, err := m.client.FilterLogs(ctx, query)
	if err != nil {
		return fmt.Errorf("filter logs %d-%d: %w", from, to, err)
	}

	records := BuildRecords(m.cfg.HookAddr, logs)
	if len(records) > 0 {
		if err := m.archive.InsertBatch(ctx, records); err != nil {
			return fmt.Errorf("archive records %d-%d: %w", from, to, err)
		}
		m.logger.Printf("archived %d swap records from blocks %d-%d", len(records), from, to)
	}

	m.lastProcessed = to
	observability.RecordEventsIngested(len(records), to)
	return nil
}

// LastProcessed returns the highest block the monitor has consumed.
func (m *Monitor) LastProcessed() uint64 {
	return m.lastProcessed
}

package ingestion

import (
	"context"
	"fmt"
	"log"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"univip-hook/internal/observability"
	"univip-hook/internal/storage"
)

// Collector buffers streamed logs and lands them in the archive one block at a
// time, so swap/origin pairing sees every log of a transaction together.
type Collector struct {
	archive storage.EventArchive
	hook    common.Address
	logger  *log.Logger

	pending []types.Log
	block   uint64
}

// NewCollector creates a collector writing to the archive. Origin logs are
// only honored when emitted by the hook contract.
func NewCollector(archive storage.EventArchive, hook common.Address, logger *log.Logger) *Collector {
	if logger == nil {
		logger = log.Default()
	}
	return &Collector{archive: archive, hook: hook, logger: logger}
}

// Add buffers a log; when the log opens a new block the previous block's
// buffer is flushed first.
func (c *Collector) Add(ctx context.Context, lg types.Log) error {
	if lg.BlockNumber != c.block && len(c.pending) > 0 {
		if err := c.Flush(ctx); err != nil {
			return err
		}
	}
	c.block = lg.BlockNumber
	c.pending = append(c.pending, lg)
	return nil
}

// Flush archives the buffered logs as paired records.
func (c *Collector) Flush(ctx context.Context) error {
	if len(c.pending) == 0 {
		return nil
	}
	records := BuildRecords(c.hook, c.pending)
	block := c.block
	c.pending = c.pending[:0]

	if len(records) == 0 {
		return nil
	}
	if err := c.archive.InsertBatch(ctx, records); err != nil {
		observability.RecordIngestionError()
		return fmt.Errorf("archive block %d: %w", block, err)
	}
	observability.RecordEventsIngested(len(records), block)
	c.logger.Printf("archived %d swap records from block %d", len(records), block)
	return nil
}

// Consume drains the channel until it closes or the context is cancelled,
// flushing complete blocks as they arrive.
func (c *Collector) Consume(ctx context.Context, logs <-chan types.Log) error {
	for {
		select {
		case <-ctx.Done():
			return c.Flush(context.WithoutCancel(ctx))
		case lg, ok := <-logs:
			if !ok {
				return c.Flush(ctx)
			}
			if err := c.Add(ctx, lg); err != nil {
				c.logger.Printf("collector: %v", err)
			}
		}
	}
}

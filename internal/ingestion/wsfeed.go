package ingestion

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/gorilla/websocket"

	"univip-hook/internal/aggregation"
)

// WSFeedConfig configures websocket feed behavior.
type WSFeedConfig struct {
	// ReconnectDelay is initial delay before reconnect attempt.
	ReconnectDelay time.Duration
	// MaxReconnectDelay is maximum delay between reconnect attempts.
	MaxReconnectDelay time.Duration
	// ReadTimeout is timeout for reading messages.
	ReadTimeout time.Duration
	// WriteTimeout is timeout for writing messages.
	WriteTimeout time.Duration
}

// DefaultWSFeedConfig returns default feed configuration.
func DefaultWSFeedConfig() WSFeedConfig {
	return WSFeedConfig{
		ReconnectDelay:    1 * time.Second,
		MaxReconnectDelay: 30 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      10 * time.Second,
	}
}

// WSFeed subscribes to pool and hook logs over a JSON-RPC websocket endpoint
// and delivers them on a channel. It reconnects and resubscribes on failure.
type WSFeed struct {
	endpoint string
	pool     common.Address
	hook     common.Address
	cfg      WSFeedConfig
	logger   *log.Logger

	conn      *websocket.Conn
	connMu    sync.Mutex
	closed    atomic.Bool
	requestID atomic.Uint64

	out  chan types.Log
	done chan struct{}
	wg   sync.WaitGroup
}

type wsRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type wsMessage struct {
	ID     uint64          `json:"id"`
	Result json.RawMessage `json:"result"`
	Method string          `json:"method"`
	Params struct {
		Subscription string          `json:"subscription"`
		Result       json.RawMessage `json:"result"`
	} `json:"params"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// rpcLog is the JSON wire shape of an eth_subscribe("logs") notification.
type rpcLog struct {
	Address     common.Address `json:"address"`
	Topics      []common.Hash  `json:"topics"`
	Data        hexutil.Bytes  `json:"data"`
	BlockNumber hexutil.Uint64 `json:"blockNumber"`
	TxHash      common.Hash    `json:"transactionHash"`
	Index       hexutil.Uint   `json:"logIndex"`
	Removed     bool           `json:"removed"`
}

// NewWSFeed creates a feed for swap and origin logs from the two contracts.
func NewWSFeed(endpoint string, pool, hook common.Address, cfg *WSFeedConfig, logger *log.Logger) *WSFeed {
	c := DefaultWSFeedConfig()
	if cfg != nil {
		c = *cfg
	}
	if logger == nil {
		logger = log.Default()
	}
	return &WSFeed{
		endpoint: endpoint,
		pool:     pool,
		hook:     hook,
		cfg:      c,
		logger:   logger,
		out:      make(chan types.Log, 10000),
		done:     make(chan struct{}),
	}
}

// Logs returns the delivery channel. Closed when the feed shuts down.
func (f *WSFeed) Logs() <-chan types.Log {
	return f.out
}

// Start connects, subscribes and begins delivering logs.
func (f *WSFeed) Start(ctx context.Context) error {
	if err := f.connect(ctx); err != nil {
		return err
	}
	if err := f.subscribe(); err != nil {
		f.closeConn()
		return err
	}

	f.wg.Add(1)
	go f.readLoop(ctx)
	return nil
}

// Close shuts the feed down and closes the log channel.
func (f *WSFeed) Close() error {
	if f.closed.Swap(true) {
		return nil
	}
	close(f.done)
	f.closeConn()
	f.wg.Wait()
	close(f.out)
	return nil
}

func (f *WSFeed) connect(ctx context.Context) error {
	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}
	conn, _, err := dialer.DialContext(ctx, f.endpoint, nil)
	if err != nil {
		return fmt.Errorf("websocket dial: %w", err)
	}

	f.connMu.Lock()
	f.conn = conn
	f.connMu.Unlock()
	return nil
}

func (f *WSFeed) closeConn() {
	f.connMu.Lock()
	if f.conn != nil {
		f.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		f.conn.Close()
		f.conn = nil
	}
	f.connMu.Unlock()
}

// subscribe sends the eth_subscribe request for both contracts and topics.
// Confirmation arrives on the read loop; a subscribe write error is the only
// failure surfaced here.
func (f *WSFeed) subscribe() error {
	req := wsRequest{
		JSONRPC: "2.0",
		ID:      f.requestID.Add(1),
		Method:  "eth_subscribe",
		Params: []interface{}{
			"logs",
			map[string]interface{}{
				"address": []common.Address{f.pool, f.hook},
				"topics": [][]common.Hash{
					{aggregation.SwapEventID, aggregation.HookEventID},
				},
			},
		},
	}

	f.connMu.Lock()
	defer f.connMu.Unlock()
	if f.conn == nil {
		return fmt.Errorf("not connected")
	}
	f.conn.SetWriteDeadline(time.Now().Add(f.cfg.WriteTimeout))
	if err := f.conn.WriteJSON(req); err != nil {
		return fmt.Errorf("write subscribe: %w", err)
	}
	return nil
}

// readLoop reads notifications, converting them to logs on the out channel,
// and reconnects with backoff on read failure.
func (f *WSFeed) readLoop(ctx context.Context) {
	defer f.wg.Done()

	reconnectDelay := f.cfg.ReconnectDelay

	for !f.closed.Load() {
		f.connMu.Lock()
		conn := f.conn
		f.connMu.Unlock()

		if conn == nil {
			if !f.reconnect(ctx, &reconnectDelay) {
				return
			}
			continue
		}

		conn.SetReadDeadline(time.Now().Add(f.cfg.ReadTimeout))
		_, data, err := conn.ReadMessage()
		if err != nil {
			if f.closed.Load() {
				return
			}
			f.logger.Printf("websocket read failed: %v", err)
			f.closeConn()
			continue
		}
		reconnectDelay = f.cfg.ReconnectDelay

		var msg wsMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			f.logger.Printf("malformed websocket message: %v", err)
			continue
		}
		if msg.Error != nil {
			f.logger.Printf("websocket rpc error %d: %s", msg.Error.Code, msg.Error.Message)
			continue
		}
		if msg.Method != "eth_subscription" {
			continue
		}

		var raw rpcLog
		if err := json.Unmarshal(msg.Params.Result, &raw); err != nil {
			f.logger.Printf("malformed log notification: %v", err)
			continue
		}
		if raw.Removed {
			continue
		}

		lg := types.Log{
			Address:     raw.Address,
			Topics:      raw.Topics,
			Data:        raw.Data,
			BlockNumber: uint64(raw.BlockNumber),
			TxHash:      raw.TxHash,
			Index:       uint(raw.Index),
		}

		select {
		case f.out <- lg:
		case <-f.done:
			return
		}
	}
}

// reconnect redials and resubscribes with exponential backoff. Returns false
// when the feed is shutting down.
func (f *WSFeed) reconnect(ctx context.Context, delay *time.Duration) bool {
	select {
	case <-f.done:
		return false
	case <-ctx.Done():
		return false
	case <-time.After(*delay):
	}

	*delay *= 2
	if *delay > f.cfg.MaxReconnectDelay {
		*delay = f.cfg.MaxReconnectDelay
	}

	if err := f.connect(ctx); err != nil {
		f.logger.Printf("websocket reconnect failed: %v", err)
		return true
	}
	if err := f.subscribe(); err != nil {
		f.logger.Printf("websocket resubscribe failed: %v", err)
		f.closeConn()
		return true
	}
	f.logger.Printf("websocket reconnected to %s", f.endpoint)
	return true
}

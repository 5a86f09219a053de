// Package server exposes the gateway, fee and admin surfaces over HTTP.
package server

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"univip-hook/internal/gateway"
	"univip-hook/internal/hook"
	"univip-hook/internal/observability"
	"univip-hook/internal/storage"
)

// Server wires the HTTP surface over the gateway and the fee blender.
type Server struct {
	gateway   *gateway.Gateway
	blender   *hook.Blender
	whitelist storage.WhitelistStore
	params    storage.PoolParamsStore
	discounts storage.DiscountStore
	archive   storage.EventArchive // optional, serves /v1/volume when set
	logger    *log.Logger
	started   time.Time
}

// Deps carries the server's collaborators.
type Deps struct {
	Gateway   *gateway.Gateway
	Blender   *hook.Blender
	Whitelist storage.WhitelistStore
	Params    storage.PoolParamsStore
	Discounts storage.DiscountStore
	Archive   storage.EventArchive
	Logger    *log.Logger
}

// New creates a Server.
func New(deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Server{
		gateway:   deps.Gateway,
		blender:   deps.Blender,
		whitelist: deps.Whitelist,
		params:    deps.Params,
		discounts: deps.Discounts,
		archive:   deps.Archive,
		logger:    logger,
		started:   time.Now(),
	}
}

// Handler returns the route mux.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", observability.Handler())

	mux.HandleFunc("/v1/attestations", s.handleAttestations)
	mux.HandleFunc("/v1/attestations/batch", s.handleAttestationBatch)
	mux.HandleFunc("/v1/fee", s.handleFee)
	mux.HandleFunc("/v1/discount", s.handleDiscount)
	mux.HandleFunc("/v1/volume", s.handleVolume)
	mux.HandleFunc("/v1/admin/whitelist", s.handleWhitelist)
	mux.HandleFunc("/v1/admin/pools/fee", s.handlePoolFee)
	mux.HandleFunc("/v1/admin/pools/share", s.handlePoolShare)

	return mux
}

// Run serves until the context is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Printf("HTTP server listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

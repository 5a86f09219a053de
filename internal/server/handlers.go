package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"univip-hook/internal/gateway"
)

// AttestationRequest is one attestation submission: the verifying-key
// fingerprint and the fixed-layout batch output, both hex-encoded.
type AttestationRequest struct {
	Fingerprint string `json:"fingerprint"`
	Payload     string `json:"payload"`
}

// AttestationBatchRequest submits several attestations applied atomically.
type AttestationBatchRequest struct {
	Entries []AttestationRequest `json:"entries"`
}

// FeeResponse reports the blended, discounted fee for a (pool, user) pair.
type FeeResponse struct {
	Pool   string `json:"pool"`
	User   string `json:"user"`
	FeePPM uint32 `json:"fee_ppm"`
}

// DiscountResponse reports a user's stored discount.
type DiscountResponse struct {
	User        string `json:"user"`
	DiscountBps uint16 `json:"discount_bps"`
}

// VolumeResponse reports a user's archived volume over a block range.
type VolumeResponse struct {
	Pool       string `json:"pool"`
	User       string `json:"user"`
	BlockStart uint64 `json:"block_start"`
	BlockEnd   uint64 `json:"block_end"`
	Volume     string `json:"volume"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

// gatewayStatus maps gateway errors to HTTP statuses: unknown fingerprints are
// forbidden, shape problems are bad requests.
func gatewayStatus(err error) int {
	switch {
	case errors.Is(err, gateway.ErrUnknownFingerprint):
		return http.StatusForbidden
	case errors.Is(err, gateway.ErrMalformedPayload), errors.Is(err, gateway.ErrBatchMismatch):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func parseAttestation(req AttestationRequest) (common.Hash, []byte, error) {
	fpBytes, err := hexutil.Decode(req.Fingerprint)
	if err != nil || len(fpBytes) != common.HashLength {
		return common.Hash{}, nil, fmt.Errorf("invalid fingerprint")
	}
	payload, err := hexutil.Decode(req.Payload)
	if err != nil {
		return common.Hash{}, nil, fmt.Errorf("invalid payload encoding")
	}
	return common.BytesToHash(fpBytes), payload, nil
}

func (s *Server) handleAttestations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
		return
	}

	var req AttestationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}

	fp, payload, err := parseAttestation(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	if err := s.gateway.ApplyAttestation(r.Context(), fp, payload); err != nil {
		writeError(w, gatewayStatus(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "applied"})
}

func (s *Server) handleAttestationBatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
		return
	}

	var req AttestationBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}
	if len(req.Entries) == 0 {
		writeError(w, http.StatusBadRequest, errors.New("empty batch"))
		return
	}

	fps := make([]common.Hash, len(req.Entries))
	payloads := make([][]byte, len(req.Entries))
	for i, entry := range req.Entries {
		fp, payload, err := parseAttestation(entry)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("entry %d: %w", i, err))
			return
		}
		fps[i] = fp
		payloads[i] = payload
	}

	if err := s.gateway.ApplyAttestationBatch(r.Context(), fps, payloads); err != nil {
		writeError(w, gatewayStatus(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"status": "applied", "entries": len(req.Entries)})
}

func (s *Server) handleFee(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeError(w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
		return
	}

	poolStr := r.URL.Query().Get("pool")
	userStr := r.URL.Query().Get("user")
	if poolStr == "" || userStr == "" {
		writeError(w, http.StatusBadRequest, errors.New("pool and user query params required"))
		return
	}
	pool := common.HexToHash(poolStr)
	user := common.HexToAddress(userStr)

	fee, err := s.blender.ComputeFee(r.Context(), pool, user)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, FeeResponse{Pool: pool.Hex(), User: user.Hex(), FeePPM: fee})
}

func (s *Server) handleDiscount(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeError(w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
		return
	}

	userStr := r.URL.Query().Get("user")
	if userStr == "" {
		writeError(w, http.StatusBadRequest, errors.New("user query param required"))
		return
	}
	user := common.HexToAddress(userStr)

	bps, err := s.discounts.GetDiscount(r.Context(), user)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, DiscountResponse{User: user.Hex(), DiscountBps: bps})
}

func (s *Server) handleVolume(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeError(w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
		return
	}
	if s.archive == nil {
		writeError(w, http.StatusNotFound, errors.New("event archive not configured"))
		return
	}

	q := r.URL.Query()
	pool := common.HexToAddress(q.Get("pool"))
	user := common.HexToAddress(q.Get("user"))
	start, err := strconv.ParseUint(q.Get("start"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid start block"))
		return
	}
	end, err := strconv.ParseUint(q.Get("end"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid end block"))
		return
	}

	volume, err := s.archive.UserVolume(r.Context(), pool, user, start, end)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, VolumeResponse{
		Pool:       pool.Hex(),
		User:       user.Hex(),
		BlockStart: start,
		BlockEnd:   end,
		Volume:     volume.String(),
	})
}

// whitelistRequest names a verifying-key fingerprint.
type whitelistRequest struct {
	Fingerprint string `json:"fingerprint"`
}

func (s *Server) handleWhitelist(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost && r.Method != http.MethodDelete {
		w.Header().Set("Allow", "POST, DELETE")
		writeError(w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
		return
	}

	var req whitelistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}
	fpBytes, err := hexutil.Decode(req.Fingerprint)
	if err != nil || len(fpBytes) != common.HashLength {
		writeError(w, http.StatusBadRequest, errors.New("invalid fingerprint"))
		return
	}
	fp := common.BytesToHash(fpBytes)

	if r.Method == http.MethodPost {
		err = s.whitelist.Add(r.Context(), fp)
	} else {
		err = s.whitelist.Remove(r.Context(), fp)
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// poolFeeRequest configures a pool's manual fee override.
type poolFeeRequest struct {
	Pool   string `json:"pool"`
	FeePPM uint32 `json:"fee_ppm"`
}

func (s *Server) handlePoolFee(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut && r.Method != http.MethodDelete {
		w.Header().Set("Allow", "PUT, DELETE")
		writeError(w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
		return
	}

	var req poolFeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}
	pool := common.HexToHash(req.Pool)

	var err error
	if r.Method == http.MethodPut {
		err = s.params.SetManualFee(r.Context(), pool, req.FeePPM)
	} else {
		err = s.params.ClearManualFee(r.Context(), pool)
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// poolShareRequest configures a pool's protocol fee share.
type poolShareRequest struct {
	Pool     string `json:"pool"`
	SharePPM uint32 `json:"share_ppm"`
}

func (s *Server) handlePoolShare(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		w.Header().Set("Allow", http.MethodPut)
		writeError(w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
		return
	}

	var req poolShareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}

	if err := s.params.SetProtocolShare(r.Context(), common.HexToHash(req.Pool), req.SharePPM); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

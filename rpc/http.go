package rpc

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"synthd/native/collateral"
	nativecommon "synthd/native/common"
	"synthd/native/token"
	"synthd/observability"
)

const (
	jsonRPCVersion  = "2.0"
	maxRequestBytes = 1 << 20 // 1 MiB
)

const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeUnauthorized   = -32001
	codeServerError    = -32000
)

// Server exposes the collateral engine and debt-token ledger over JSON-RPC.
// Mutating methods require the configured bearer token; read queries are
// open.
type Server struct {
	engine *collateral.Engine
	ledger *token.Ledger

	authToken string
	log       *slog.Logger
	metrics   *observability.EngineMetrics
}

func NewServer(engine *collateral.Engine, ledger *token.Ledger, authToken string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		engine:    engine,
		ledger:    ledger,
		authToken: strings.TrimSpace(authToken),
		log:       logger,
		metrics:   observability.Metrics(),
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeRPCError(w, http.StatusMethodNotAllowed, nil, codeInvalidRequest, "POST required", "")
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBytes+1))
	if err != nil {
		writeRPCError(w, http.StatusBadRequest, nil, codeParseError, "unable to read request body", "")
		return
	}
	if len(body) > maxRequestBytes {
		writeRPCError(w, http.StatusRequestEntityTooLarge, nil, codeInvalidRequest, "request body too large", "")
		return
	}
	var req RPCRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeRPCError(w, http.StatusBadRequest, nil, codeParseError, "invalid JSON-RPC request", err.Error())
		return
	}
	if req.JSONRPC != "" && req.JSONRPC != jsonRPCVersion {
		writeRPCError(w, http.StatusBadRequest, req.ID, codeInvalidRequest, "unsupported JSON-RPC version", req.JSONRPC)
		return
	}

	handler, mutating, ok := s.route(req.Method)
	if !ok {
		writeRPCError(w, http.StatusNotFound, req.ID, codeMethodNotFound, "method not found", req.Method)
		return
	}
	if mutating && !s.authorized(r) {
		writeRPCError(w, http.StatusUnauthorized, req.ID, codeUnauthorized, "unauthorized", "")
		return
	}

	start := time.Now()
	result, rpcErr := handler(&req)
	s.record(req.Method, start, rpcErr)
	if rpcErr != nil {
		s.log.Warn("rpc request failed", "method", req.Method, "code", rpcErr.Code, "message", rpcErr.Message)
		writeResponse(w, http.StatusOK, RPCResponse{JSONRPC: jsonRPCVersion, ID: req.ID, Error: rpcErr})
		return
	}
	writeResponse(w, http.StatusOK, RPCResponse{JSONRPC: jsonRPCVersion, ID: req.ID, Result: result})
}

type handlerFunc func(*RPCRequest) (interface{}, *RPCError)

func (s *Server) route(method string) (handlerFunc, bool, bool) {
	switch method {
	case "collateral_deposit":
		return s.handleDeposit, true, true
	case "collateral_mint":
		return s.handleMint, true, true
	case "collateral_depositAndMint":
		return s.handleDepositAndMint, true, true
	case "collateral_burn":
		return s.handleBurn, true, true
	case "collateral_redeem":
		return s.handleRedeem, true, true
	case "collateral_redeemForBurn":
		return s.handleRedeemForBurn, true, true
	case "collateral_liquidate":
		return s.handleLiquidate, true, true
	case "collateral_healthFactor":
		return s.handleHealthFactor, false, true
	case "collateral_accountInformation":
		return s.handleAccountInformation, false, true
	case "collateral_collateralBalance":
		return s.handleCollateralBalance, false, true
	case "collateral_usdValue":
		return s.handleUsdValue, false, true
	case "collateral_assetAmountFromUsd":
		return s.handleAssetAmountFromUsd, false, true
	case "collateral_approvedAssets":
		return s.handleApprovedAssets, false, true
	case "token_balanceOf":
		return s.handleTokenBalance, false, true
	case "token_totalSupply":
		return s.handleTokenSupply, false, true
	}
	return nil, false, false
}

func (s *Server) authorized(r *http.Request) bool {
	if s.authToken == "" {
		return true
	}
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return false
	}
	supplied := strings.TrimSpace(strings.TrimPrefix(header, prefix))
	return subtle.ConstantTimeCompare([]byte(supplied), []byte(s.authToken)) == 1
}

func (s *Server) record(method string, start time.Time, rpcErr *RPCError) {
	var err error
	reason := ""
	if rpcErr != nil {
		err = errors.New(rpcErr.Message)
		reason = rpcErr.reason
		if reason == "" {
			reason = reasonForCode(rpcErr.Code)
		}
	}
	s.metrics.Observe(method, start, err, reason)
}

// failureReason classifies an engine error into a fixed label vocabulary so
// the failure counter's cardinality stays bounded regardless of the
// addresses and amounts embedded in error messages.
func failureReason(err error) string {
	switch {
	case errors.Is(err, collateral.ErrInvalidAmount):
		return "invalid_amount"
	case errors.Is(err, collateral.ErrNotApprovedAsset):
		return "not_approved_asset"
	case errors.Is(err, collateral.ErrInvalidPrice):
		return "invalid_price"
	case errors.Is(err, collateral.ErrInsufficientCollateral):
		return "insufficient_collateral"
	case errors.Is(err, collateral.ErrInsufficientDebt):
		return "insufficient_debt"
	case errors.Is(err, collateral.ErrTransferFailed):
		return "transfer_failed"
	case errors.Is(err, collateral.ErrMintFailed):
		return "mint_failed"
	case errors.Is(err, collateral.ErrHealthFactorOk):
		return "health_factor_ok"
	case errors.Is(err, collateral.ErrHealthFactorNotImproved):
		return "health_factor_not_improved"
	case errors.Is(err, nativecommon.ErrReentrantCall):
		return "reentrant_call"
	case errors.Is(err, nativecommon.ErrModulePaused):
		return "module_paused"
	}
	if _, ok := collateral.IsBrokenHealthFactor(err); ok {
		return "broken_health_factor"
	}
	return "internal"
}

func reasonForCode(code int) string {
	switch code {
	case codeParseError:
		return "parse_error"
	case codeInvalidRequest:
		return "invalid_request"
	case codeMethodNotFound:
		return "method_not_found"
	case codeInvalidParams:
		return "invalid_params"
	case codeUnauthorized:
		return "unauthorized"
	default:
		return "internal"
	}
}

func errorCodeFor(err error) int {
	switch {
	case errors.Is(err, collateral.ErrInvalidAmount),
		errors.Is(err, collateral.ErrNotApprovedAsset):
		return codeInvalidParams
	case errors.Is(err, nativecommon.ErrReentrantCall),
		errors.Is(err, nativecommon.ErrModulePaused):
		return codeServerError
	default:
		return codeServerError
	}
}

func engineError(err error) *RPCError {
	rpcErr := &RPCError{Code: errorCodeFor(err), Message: err.Error(), reason: failureReason(err)}
	if health, ok := collateral.IsBrokenHealthFactor(err); ok {
		rpcErr.Data = health.String()
	}
	return rpcErr
}

func writeResponse(w http.ResponseWriter, status int, resp RPCResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

func writeRPCError(w http.ResponseWriter, status int, id interface{}, code int, message, data string) {
	writeResponse(w, status, RPCResponse{
		JSONRPC: jsonRPCVersion,
		ID:      id,
		Error:   &RPCError{Code: code, Message: message, Data: data},
	})
}

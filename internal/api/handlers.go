// internal/api/handlers.go
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/rovshanmuradov/openpump/internal/dex/pumpfun"
	"github.com/rovshanmuradov/openpump/internal/metadata"
	"github.com/rovshanmuradov/openpump/internal/pricing"
	"github.com/rovshanmuradov/openpump/internal/token"
	"go.uber.org/zap"
)

// Error codes of the JSON envelope.
const (
	CodeTokenNotFound    = "TOKEN_NOT_FOUND"
	CodeMetadataNotFound = "METADATA_NOT_FOUND"
	CodeBondingNotFound  = "BONDING_CURVE_NOT_FOUND"
	CodePriceNotFound    = "PRICE_NOT_FOUND"
	CodeSimulationFailed = "SIMULATION_FAILED"
	CodeValidation       = "VALIDATION_ERROR"
	CodeNotFound         = "NOT_FOUND"
	CodeMethodNotAllowed = "METHOD_NOT_ALLOWED"
	CodeInternal         = "INTERNAL_ERROR"
)

const maxBodyBytes = 1 << 16

type envelope struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data"`
	Meta      *listMeta   `json:"meta,omitempty"`
	Error     *apiError   `json:"error,omitempty"`
	Timestamp string      `json:"timestamp"`
}

type listMeta struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	Count  int `json:"count"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// notFound is the 404 a route answers when its source has nothing.
type notFound struct {
	code    string
	message string
}

var (
	tokenNotFound   = notFound{CodeTokenNotFound, "Token not found"}
	metadataMissing = notFound{CodeMetadataNotFound, "Token metadata not found"}
	bondingMissing  = notFound{CodeBondingNotFound, "Bonding curve not found - token may have graduated"}
	priceMissing    = notFound{CodePriceNotFound, "Price data not available"}
	simulationFail  = notFound{CodeSimulationFailed, "Cannot simulate trade - bonding curve not found"}
)

type tradeRequest struct {
	Amount float64 `json:"amount"`
}

func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeData(w http.ResponseWriter, data interface{}) {
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: data, Timestamp: timestamp()})
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, envelope{
		Error:     &apiError{Code: code, Message: message},
		Timestamp: timestamp(),
	})
}

// writeServiceError maps service errors onto HTTP statuses.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error, nf notFound) {
	switch {
	case errors.Is(err, pumpfun.ErrInvalidAddress):
		writeError(w, http.StatusBadRequest, CodeValidation, "Invalid Solana address")
	case errors.Is(err, pumpfun.ErrInvalidAmount):
		writeError(w, http.StatusBadRequest, CodeValidation, "Amount must be a positive number")
	case errors.Is(err, pumpfun.ErrValuationUnavailable),
		errors.Is(err, token.ErrNotFound),
		errors.Is(err, metadata.ErrNotFound),
		errors.Is(err, pricing.ErrPriceUnavailable):
		writeError(w, http.StatusNotFound, nf.code, nf.message)
	default:
		s.logger.Error("Request failed",
			zap.String("request_id", requestIDFrom(r.Context())),
			zap.String("path", r.URL.Path),
			zap.Error(err))
		writeError(w, http.StatusInternalServerError, CodeInternal, "Internal server error")
	}
}

func (s *Server) status() interface{} {
	if s.deps.Status == nil {
		return nil
	}
	return s.deps.Status()
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"name":        "OpenPump API",
		"version":     Version,
		"description": "Open source Pump.fun intelligence API",
		"status":      "operational",
		"endpoints": map[string]string{
			"tokens":    "/v1/tokens",
			"recent":    "/v1/tokens/recent",
			"token":     "/v1/tokens/{address}",
			"metadata":  "/v1/tokens/{address}/metadata",
			"bonding":   "/v1/tokens/{address}/bonding",
			"price":     "/v1/tokens/{address}/price",
			"websocket": "ws://" + r.Host + "/v1/stream",
		},
		"realtime": s.status(),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"timestamp": timestamp(),
		"uptime":    time.Since(s.started).Seconds(),
	})
}

func (s *Server) handleStreamStatus(w http.ResponseWriter, _ *http.Request) {
	writeData(w, s.status())
}

func (s *Server) handleListTokens(w http.ResponseWriter, r *http.Request) {
	params, err := parseListParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeValidation, err.Error())
		return
	}

	rows := s.deps.Tokens.ListTokens(r.Context(), params)
	writeJSON(w, http.StatusOK, envelope{
		Success:   true,
		Data:      rows,
		Meta:      &listMeta{Limit: params.Limit, Offset: params.Offset, Count: len(rows)},
		Timestamp: timestamp(),
	})
}

func (s *Server) handleRecentTokens(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r, "limit", token.DefaultListLimit, 1, token.MaxListLimit)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeValidation, err.Error())
		return
	}
	found := s.deps.Tokens.RecentTokens(r.Context(), limit)
	writeJSON(w, http.StatusOK, envelope{
		Success:   true,
		Data:      found,
		Meta:      &listMeta{Limit: limit, Count: len(found)},
		Timestamp: timestamp(),
	})
}

func (s *Server) handleGetToken(w http.ResponseWriter, r *http.Request) {
	view, err := s.deps.Tokens.GetToken(r.Context(), mux.Vars(r)["address"])
	if err != nil {
		s.writeServiceError(w, r, err, tokenNotFound)
		return
	}
	writeData(w, view)
}

func (s *Server) handleGetMetadata(w http.ResponseWriter, r *http.Request) {
	md, err := s.deps.Tokens.GetMetadata(r.Context(), mux.Vars(r)["address"])
	if err != nil {
		s.writeServiceError(w, r, err, metadataMissing)
		return
	}
	writeData(w, md)
}

func (s *Server) handleGetBonding(w http.ResponseWriter, r *http.Request) {
	v, err := s.deps.Tokens.GetBondingCurve(r.Context(), mux.Vars(r)["address"])
	if err != nil {
		s.writeServiceError(w, r, err, bondingMissing)
		return
	}
	writeData(w, v)
}

func (s *Server) handleGetPrice(w http.ResponseWriter, r *http.Request) {
	p, err := s.deps.Tokens.GetPrice(r.Context(), mux.Vars(r)["address"])
	if err != nil {
		s.writeServiceError(w, r, err, priceMissing)
		return
	}
	writeData(w, p)
}

func (s *Server) handleSimulateBuy(w http.ResponseWriter, r *http.Request) {
	req, err := decodeTrade(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeValidation, err.Error())
		return
	}
	quote, err := s.deps.Tokens.SimulateBuy(r.Context(), mux.Vars(r)["address"], req.Amount)
	if err != nil {
		s.writeServiceError(w, r, err, simulationFail)
		return
	}
	writeData(w, quote)
}

func (s *Server) handleSimulateSell(w http.ResponseWriter, r *http.Request) {
	req, err := decodeTrade(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeValidation, err.Error())
		return
	}
	quote, err := s.deps.Tokens.SimulateSell(r.Context(), mux.Vars(r)["address"], req.Amount)
	if err != nil {
		s.writeServiceError(w, r, err, simulationFail)
		return
	}
	writeData(w, quote)
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, CodeNotFound, fmt.Sprintf("Route %s %s not found", r.Method, r.URL.Path))
}

func (s *Server) handleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, CodeMethodNotAllowed, fmt.Sprintf("Method %s not allowed on %s", r.Method, r.URL.Path))
}

func decodeTrade(w http.ResponseWriter, r *http.Request) (tradeRequest, error) {
	var req tradeRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		if errors.Is(err, io.EOF) {
			return req, errors.New("request body is required")
		}
		return req, fmt.Errorf("invalid request body: %v", err)
	}
	if req.Amount <= 0 {
		return req, errors.New("amount must be a positive number")
	}
	return req, nil
}

var (
	validSorts = map[string]bool{
		token.SortCreated:      true,
		token.SortMarketCap:    true,
		"last_trade_timestamp": true,
		"volume_24h":           true,
	}
	validCategories = map[string]bool{
		string(pumpfun.CategoryNew):          true,
		string(pumpfun.CategoryRising):       true,
		string(pumpfun.CategoryFinalStretch): true,
		string(pumpfun.CategoryGraduated):    true,
		"all":                                true,
	}
)

// parseListParams reads limit, offset, sort, order and category.
// Sorts without data behind them keep discovery order.
func parseListParams(r *http.Request) (token.ListParams, error) {
	q := r.URL.Query()
	p := token.ListParams{Descending: true, Category: "all"}

	var err error
	if p.Limit, err = intParam(r, "limit", token.DefaultListLimit, 1, token.MaxListLimit); err != nil {
		return p, err
	}
	if p.Offset, err = intParam(r, "offset", 0, 0, -1); err != nil {
		return p, err
	}

	if v := q.Get("sort"); v != "" {
		if !validSorts[v] {
			return p, errors.New("sort must be one of created_timestamp, last_trade_timestamp, market_cap, volume_24h")
		}
		p.Sort = v
	}
	if v := q.Get("order"); v != "" {
		switch strings.ToUpper(v) {
		case "ASC":
			p.Descending = false
		case "DESC":
			p.Descending = true
		default:
			return p, errors.New("order must be ASC or DESC")
		}
	}
	if v := q.Get("category"); v != "" {
		if !validCategories[v] {
			return p, errors.New("category must be one of new, rising, final_stretch, graduated, all")
		}
		p.Category = v
	}
	return p, nil
}

// intParam parses an integer query parameter; hi < 0 means unbounded.
func intParam(r *http.Request, name string, def, lo, hi int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < lo || (hi >= 0 && v > hi) {
		if hi >= 0 {
			return 0, fmt.Errorf("%s must be an integer between %d and %d", name, lo, hi)
		}
		return 0, fmt.Errorf("%s must be an integer >= %d", name, lo)
	}
	return v, nil
}

package rest

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/txshield/txshield/internal/application/dto"
	"github.com/txshield/txshield/internal/application/usecase"
	"github.com/txshield/txshield/pkg/auth"
)

// ScoreUseCase scores and stores one transaction.
type ScoreUseCase interface {
	Execute(ctx context.Context, caller dto.Caller, req dto.ScoreTransactionRequest) (dto.ScoreTransactionResponse, error)
}

// ListUseCase pages through visible records.
type ListUseCase interface {
	Execute(ctx context.Context, caller dto.Caller, req dto.ListTransactionsRequest) (dto.ListTransactionsResponse, error)
}

// StatsUseCase computes fraud statistics.
type StatsUseCase interface {
	Execute(ctx context.Context, caller dto.Caller) (dto.FraudStatsResponse, error)
}

// TransactionHandler serves the transaction API.
type TransactionHandler struct {
	score  ScoreUseCase
	list   ListUseCase
	stats  StatsUseCase
	logger *slog.Logger
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(score ScoreUseCase, list ListUseCase, stats StatsUseCase, logger *slog.Logger) *TransactionHandler {
	return &TransactionHandler{score: score, list: list, stats: stats, logger: logger}
}

// RegisterRoutes registers the transaction endpoints on mux.
func (h *TransactionHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/transactions", h.Score)
	mux.HandleFunc("GET /api/v1/transactions", h.List)
	mux.HandleFunc("GET /api/v1/transactions/stats", h.Stats)
}

// Score handles POST /api/v1/transactions.
func (h *TransactionHandler) Score(w http.ResponseWriter, r *http.Request) {
	var req dto.ScoreTransactionRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := h.score.Execute(r.Context(), callerFrom(r), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

// List handles GET /api/v1/transactions?limit=&offset=&fraudOnly=.
func (h *TransactionHandler) List(w http.ResponseWriter, r *http.Request) {
	req, err := parseListQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := h.list.Execute(r.Context(), callerFrom(r), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Stats handles GET /api/v1/transactions/stats.
func (h *TransactionHandler) Stats(w http.ResponseWriter, r *http.Request) {
	resp, err := h.stats.Execute(r.Context(), callerFrom(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *TransactionHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, usecase.ErrUnauthenticated):
		writeError(w, http.StatusUnauthorized, "authentication required")
	case errors.Is(err, usecase.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func callerFrom(r *http.Request) dto.Caller {
	claims, _ := auth.ClaimsFromContext(r.Context())
	return dto.CallerFromClaims(claims)
}

func parseListQuery(r *http.Request) (dto.ListTransactionsRequest, error) {
	q := r.URL.Query()
	var req dto.ListTransactionsRequest
	var err error
	if v := q.Get("limit"); v != "" {
		if req.Limit, err = strconv.Atoi(v); err != nil {
			return req, errors.New("limit must be an integer")
		}
	}
	if v := q.Get("offset"); v != "" {
		if req.Offset, err = strconv.Atoi(v); err != nil {
			return req, errors.New("offset must be an integer")
		}
	}
	if v := q.Get("fraudOnly"); v != "" {
		if req.FraudOnly, err = strconv.ParseBool(v); err != nil {
			return req, errors.New("fraudOnly must be a boolean")
		}
	}
	return req, nil
}

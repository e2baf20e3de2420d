// Package server is the reference HTTP batch endpoint backed by the SQLite
// store.
package server

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/Jujulu67/djlarian-react-sub002/internal/action"
	"github.com/Jujulu67/djlarian-react-sub002/internal/store"
)

const (
	// DefaultMaxBodyBytes caps request bodies.
	DefaultMaxBodyBytes int64 = 1 << 20

	shutdownTimeout = 5 * time.Second
)

// Config configures a Server.
type Config struct {
	// Token, when set, is required as a bearer token on every /api route.
	Token string

	// MaxBodyBytes caps request bodies. Default: 1 MiB.
	MaxBodyBytes int64

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Server serves the batch endpoint and the inventory read endpoints.
type Server struct {
	store  *store.Store
	cfg    Config
	logger *slog.Logger
}

// New creates a Server over st.
func New(st *store.Store, cfg Config) *Server {
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}
	cfg.Token = strings.TrimSpace(cfg.Token)
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{store: st, cfg: cfg, logger: logger}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/health" && r.Method == http.MethodGet {
		s.handleHealth(w, r)
		return
	}

	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(parts) < 3 || parts[0] != "api" {
		writeError(w, http.StatusNotFound, "not_found", "route not found", getCorrelationID(r))
		return
	}

	var handler func(http.ResponseWriter, *http.Request, []string)
	switch {
	case len(parts) == 3 && parts[1] == "inventory" && parts[2] == "batch":
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "use POST", getCorrelationID(r))
			return
		}
		handler = s.handleBatch
	case len(parts) == 3 && parts[1] == "inventory" && r.Method == http.MethodGet:
		handler = s.handleOwnerInventory
	case len(parts) == 3 && parts[1] == "admin" && parts[2] == "inventory" && r.Method == http.MethodGet:
		handler = s.handleAdminInventory
	case len(parts) == 3 && parts[1] == "admin" && parts[2] == "batches" && r.Method == http.MethodGet:
		handler = s.handleAdminBatches
	default:
		writeError(w, http.StatusNotFound, "not_found", "route not found", getCorrelationID(r))
		return
	}

	if !s.authorized(r) {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing or invalid bearer token", getCorrelationID(r))
		return
	}
	handler(w, r, parts)
}

// ListenAndServe serves on addr until ctx ends, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	s.logger.Info("batch endpoint listening", "addr", addr)
	go func() {
		serveErr <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		err := httpServer.Shutdown(shutdownCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	}
}

func (s *Server) authorized(r *http.Request) bool {
	if s.cfg.Token == "" {
		return true
	}
	got, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(strings.TrimSpace(got)), []byte(s.cfg.Token)) == 1
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "unavailable", err.Error(), getCorrelationID(r))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// batchBody is the batch request as received. Actions stay raw so one
// malformed record fails alone instead of the whole batch.
type batchBody struct {
	BatchID string            `json:"batchId"`
	Actions []json.RawMessage `json:"actions"`
}

func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request, _ []string) {
	correlationID := getCorrelationID(r)

	var req batchBody
	if !s.decodeJSONBody(w, r, correlationID, &req) {
		return
	}
	if req.BatchID == "" {
		req.BatchID = strings.TrimSpace(r.Header.Get("Idempotency-Key"))
	}
	if req.BatchID == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "batchId or Idempotency-Key required", correlationID)
		return
	}
	if len(req.Actions) == 0 {
		writeError(w, http.StatusBadRequest, "bad_request", "actions must not be empty", correlationID)
		return
	}

	records := make([]store.Record, len(req.Actions))
	for i, raw := range req.Actions {
		records[i] = decodeRecord(raw)
	}

	outcome, replayed, err := s.store.ApplyRecords(r.Context(), req.BatchID, records)
	if err != nil {
		s.logger.Error("apply batch failed", "batch_id", req.BatchID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error(), correlationID)
		return
	}

	s.logger.Info("batch applied",
		"batch_id", req.BatchID,
		"actions", len(req.Actions),
		"success", outcome.Summary.Success,
		"errors", outcome.Summary.Errors,
		"replayed", replayed,
	)
	if replayed {
		w.Header().Set("Idempotent-Replayed", "true")
	}
	writeJSON(w, http.StatusOK, outcome)
}

// decodeRecord turns one raw action into a store record. A record that
// does not decode is rejected with the decode error, echoing whatever
// identity fields it carried.
func decodeRecord(raw json.RawMessage) store.Record {
	var a action.Action
	err := json.Unmarshal(raw, &a)
	if err == nil {
		// A JSON null leaves a zero action behind without an error.
		if err = a.Validate(); err == nil {
			return store.Record{Action: a}
		}
	}

	var echo action.ActionResult
	_ = json.Unmarshal(raw, &echo)
	rejected := action.ActionResult{
		Type:     echo.Type,
		TargetID: echo.TargetID,
		OwnerID:  echo.OwnerID,
		ItemID:   echo.ItemID,
		Success:  false,
		Error:    "invalid action: " + err.Error(),
	}
	return store.Record{Rejected: &rejected}
}

func (s *Server) handleOwnerInventory(w http.ResponseWriter, r *http.Request, parts []string) {
	ownerID := parts[2]
	items, err := s.store.ListOwner(r.Context(), ownerID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error(), getCorrelationID(r))
		return
	}
	writeJSON(w, http.StatusOK, action.OwnerInventory{OwnerID: ownerID, Items: items})
}

func (s *Server) handleAdminInventory(w http.ResponseWriter, r *http.Request, _ []string) {
	items, err := s.store.ListAll(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error(), getCorrelationID(r))
		return
	}
	writeJSON(w, http.StatusOK, action.AdminInventory{Items: items})
}

type batchSummary struct {
	ID      string         `json:"id"`
	Seq     int64          `json:"seq"`
	Summary action.Summary `json:"summary"`
}

func (s *Server) handleAdminBatches(w http.ResponseWriter, r *http.Request, _ []string) {
	recs, err := s.store.ListBatches(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error(), getCorrelationID(r))
		return
	}
	out := make([]batchSummary, len(recs))
	for i, rec := range recs {
		out[i] = batchSummary{ID: rec.ID, Seq: rec.Seq, Summary: rec.Summary}
	}
	writeJSON(w, http.StatusOK, map[string]any{"batches": out})
}

func getCorrelationID(r *http.Request) string {
	return r.Header.Get("X-Correlation-Id")
}

func (s *Server) decodeJSONBody(w http.ResponseWriter, r *http.Request, correlationID string, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "payload_too_large", "request body exceeds configured limit", correlationID)
			return false
		}
		writeError(w, http.StatusBadRequest, "bad_request", "failed to read request body", correlationID)
		return false
	}
	if err := json.Unmarshal(body, dst); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid json body: "+err.Error(), correlationID)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message, correlationID string) {
	writeJSON(w, status, map[string]any{
		"code":          code,
		"message":       message,
		"correlationId": correlationID,
	})
}

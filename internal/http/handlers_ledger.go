package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"cashflow/internal/core"
	applog "cashflow/internal/log"
)

const (
	maxStatementBytes      = 1 << 20
	defaultPendingLookback = 30
)

// handleStatement ingests a pasted bank statement. The raw text arrives
// either as the request body or as the "statement" form field.
func (s *Server) handleStatement(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	raw, err := readStatementText(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "could not read statement text")
		return
	}
	if strings.TrimSpace(raw) == "" {
		writeError(w, http.StatusBadRequest, "empty statement")
		return
	}

	outcome, err := s.svc.IngestStatement(r.Context(), raw, core.DayOf(time.Now()))
	if err != nil {
		if errors.Is(err, core.ErrStoreUnavailable) {
			s.logger.Error("statement ingest failed, storage unavailable", applog.FieldError, err)
			writeError(w, http.StatusServiceUnavailable, "storage unavailable")
			return
		}
		s.logger.Error("statement ingest failed", applog.FieldError, err)
		writeError(w, http.StatusInternalServerError, "ingest failed")
		return
	}

	s.invalidateForecast()
	s.logger.Info("statement ingested",
		applog.FieldInserted, outcome.Inserted,
		applog.FieldSkipped, outcome.Skipped)
	writeJSON(w, http.StatusOK, outcome)
}

func readStatementText(r *http.Request) (string, error) {
	ct := r.Header.Get("Content-Type")
	if strings.HasPrefix(ct, "application/x-www-form-urlencoded") || strings.HasPrefix(ct, "multipart/form-data") {
		if err := r.ParseMultipartForm(maxStatementBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
			return "", err
		}
		if v := r.FormValue("statement"); v != "" {
			return v, nil
		}
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxStatementBytes))
	if err != nil {
		return "", err
	}
	return string(body), nil
}

type anchorRequest struct {
	Balance string `json:"balance"`
	Date    string `json:"date"`
}

// handleAnchorBalance applies a verified balance correction and walks it
// backward through the ledger.
func (s *Server) handleAnchorBalance(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req anchorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	anchor, err := decimal.NewFromString(strings.TrimSpace(req.Balance))
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid balance amount")
		return
	}
	asOf, err := core.ParseDay(strings.TrimSpace(req.Date))
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid date, expected YYYY-MM-DD")
		return
	}

	updated, err := s.svc.SetAnchorBalance(r.Context(), anchor, asOf, core.DayOf(time.Now()))
	if err != nil {
		if errors.Is(err, core.ErrNoTransactions) {
			writeError(w, http.StatusConflict, "no transactions to anchor against")
			return
		}
		s.logger.Error("anchor balance failed", applog.FieldError, err, applog.FieldDate, asOf.Key())
		writeError(w, http.StatusInternalServerError, "anchor failed")
		return
	}

	s.invalidateForecast()
	s.logger.Info("balance anchored", applog.FieldDate, asOf.Key(), applog.FieldBalance, anchor.StringFixed(2), applog.FieldCount, updated)
	writeJSON(w, http.StatusOK, map[string]any{"updated": updated})
}

type deleteRequest struct {
	From        string  `json:"from,omitempty"`
	To          string  `json:"to,omitempty"`
	IDs         []int64 `json:"ids,omitempty"`
	Description string  `json:"description,omitempty"`
	Amount      string  `json:"amount,omitempty"`
}

// handleDeleteTransactions removes ledger entries by date range, id list
// or content match, then rebuilds the forecast.
func (s *Server) handleDeleteTransactions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		w.Header().Set("Allow", "DELETE")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req deleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	today := core.DayOf(time.Now())
	var (
		removed int
		err     error
	)
	switch {
	case len(req.IDs) > 0:
		removed, err = s.svc.DeleteIDs(r.Context(), req.IDs, today)
	case req.From != "" && req.To != "":
		var from, to core.Day
		from, err = core.ParseDay(req.From)
		if err == nil {
			to, err = core.ParseDay(req.To)
		}
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, "invalid date range, expected YYYY-MM-DD")
			return
		}
		removed, err = s.svc.DeleteRange(r.Context(), from, to, today)
	case req.Description != "":
		amount := decimal.Zero
		if req.Amount != "" {
			amount, err = decimal.NewFromString(req.Amount)
			if err != nil {
				writeError(w, http.StatusUnprocessableEntity, "invalid amount")
				return
			}
		}
		removed, err = s.svc.DeleteMatching(r.Context(), sanitizeInput(req.Description), amount, today)
	default:
		writeError(w, http.StatusBadRequest, "specify ids, a from/to range, or a description match")
		return
	}
	if err != nil {
		s.logger.Error("delete transactions failed", applog.FieldError, err)
		writeError(w, http.StatusInternalServerError, "delete failed")
		return
	}

	s.invalidateForecast()
	s.logger.Info("transactions deleted", applog.FieldCount, removed)
	writeJSON(w, http.StatusOK, map[string]any{"deleted": removed})
}

// handlePendingEvents lists scheduled events not yet matched by a real
// ledger entry, grouped by date.
func (s *Server) handlePendingEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	lookback := defaultPendingLookback
	if v := strings.TrimSpace(r.URL.Query().Get("lookback")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 || n > 365 {
			writeError(w, http.StatusBadRequest, "lookback must be a number of days")
			return
		}
		lookback = n
	}

	pending, err := s.svc.PendingEvents(r.Context(), core.DayOf(time.Now()), lookback)
	if err != nil {
		s.logger.Error("pending events failed", applog.FieldError, err)
		writeError(w, http.StatusInternalServerError, "could not load pending events")
		return
	}

	type eventView struct {
		Type        string `json:"type"`
		Description string `json:"description"`
		Amount      string `json:"amount"`
	}
	out := make(map[string][]eventView, len(pending))
	for date, events := range pending {
		views := make([]eventView, 0, len(events))
		for _, ev := range events {
			views = append(views, eventView{
				Type:        string(ev.Type),
				Description: ev.Description,
				Amount:      ev.Amount.StringFixed(2),
			})
		}
		out[date] = views
	}
	writeJSON(w, http.StatusOK, out)
}
